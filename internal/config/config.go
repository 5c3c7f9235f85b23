package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel       string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort       string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort     string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"4000"`
	AllowedOrigins string `yaml:"allowed-origins" env:"ALLOWED_ORIGINS" env-default:"*"`
	PublicURL      string `yaml:"public-url" env:"PUBLIC_URL" env-default:"http://localhost:5173"`
	Redis          Redis  `yaml:"redis"`
	Rooms          Rooms  `yaml:"rooms"`
	Moves          Moves  `yaml:"moves"`
}

type Redis struct {
	Enabled   bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host      string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port      string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	KeyPrefix string `yaml:"key-prefix" env:"REDIS_KEY_PREFIX" env-default:"metatactoe"`
}

type Rooms struct {
	DefaultCapacity int    `yaml:"default-capacity" env:"ROOMS_DEFAULT_CAPACITY" env-default:"4"`
	EnforceCapacity bool   `yaml:"enforce-capacity" env:"ROOMS_ENFORCE_CAPACITY"`
	LeavePolicy     string `yaml:"leave-policy" env:"ROOMS_LEAVE_POLICY" env-default:"fixed"`
}

type Moves struct {
	EnforceTurnOrder bool `yaml:"enforce-turn-order" env:"MOVES_ENFORCE_TURN_ORDER"`
	RequireEmptyCell bool `yaml:"require-empty-cell" env:"MOVES_REQUIRE_EMPTY_CELL"`
}

// Load reads the file at path, or only the environment when path is empty.
func Load(path string) (*Config, error) {
	// cleanenv only fills zero values from env-default, so a default of true would override an
	// explicit false from the file. These are seeded here instead.
	config := &Config{
		Rooms: Rooms{EnforceCapacity: true},
		Moves: Moves{EnforceTurnOrder: true, RequireEmptyCell: true},
	}

	if path == "" {
		if err := cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) validate() error {
	if that.Rooms.DefaultCapacity < 2 || that.Rooms.DefaultCapacity > 5 {
		return fmt.Errorf("rooms.default-capacity must be between 2 and 5, got %d", that.Rooms.DefaultCapacity)
	}

	switch that.Rooms.LeavePolicy {
	case "literal", "fixed":
	default:
		return fmt.Errorf("rooms.leave-policy must be literal or fixed, got %q", that.Rooms.LeavePolicy)
	}

	return nil
}

// Origins splits the comma separated allowed-origins value.
func (that *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(that.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
