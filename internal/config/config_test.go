package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults fill everything the file leaves out", func(t *testing.T) {
		// Given: a config file with only the ports
		path := writeConfig(t, "http-port: \"8080\"\nsocket-port: \"4001\"\n")

		// When: loading it
		conf, err := Load(path)

		// Then: defaults are applied
		require.NoError(t, err)
		assert.Equal(t, "8080", conf.HTTPPort)
		assert.Equal(t, "4001", conf.SocketPort)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, 4, conf.Rooms.DefaultCapacity)
		assert.True(t, conf.Rooms.EnforceCapacity)
		assert.Equal(t, "fixed", conf.Rooms.LeavePolicy)
		assert.True(t, conf.Moves.EnforceTurnOrder)
		assert.True(t, conf.Moves.RequireEmptyCell)
		assert.False(t, conf.Redis.Enabled)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Nested sections are read", func(t *testing.T) {
		path := writeConfig(t, `
allowed-origins: "http://a.example, http://b.example"
redis:
  enabled: true
  host: cache
  port: "6380"
rooms:
  default-capacity: 3
  enforce-capacity: false
  leave-policy: literal
moves:
  enforce-turn-order: false
  require-empty-cell: false
`)

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, []string{"http://a.example", "http://b.example"}, conf.Origins())
		assert.True(t, conf.Redis.Enabled)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, 3, conf.Rooms.DefaultCapacity)
		assert.False(t, conf.Rooms.EnforceCapacity)
		assert.Equal(t, "literal", conf.Rooms.LeavePolicy)
		assert.False(t, conf.Moves.EnforceTurnOrder)
		assert.False(t, conf.Moves.RequireEmptyCell)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		t.Setenv("ROOMS_LEAVE_POLICY", "literal")
		path := writeConfig(t, "rooms:\n  leave-policy: fixed\n")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "literal", conf.Rooms.LeavePolicy)
	})

	t.Run("Policy switches default to on without a file", func(t *testing.T) {
		conf, err := Load("")

		require.NoError(t, err)
		assert.True(t, conf.Rooms.EnforceCapacity)
		assert.True(t, conf.Moves.EnforceTurnOrder)
		assert.True(t, conf.Moves.RequireEmptyCell)
	})

	t.Run("Environment can switch a policy off", func(t *testing.T) {
		// Given: the file keeps the default and the environment says false
		t.Setenv("MOVES_ENFORCE_TURN_ORDER", "false")
		t.Setenv("ROOMS_ENFORCE_CAPACITY", "false")
		path := writeConfig(t, "moves:\n  require-empty-cell: true\n")

		// When: loading it
		conf, err := Load(path)

		// Then: the environment wins and the untouched switch stays on
		require.NoError(t, err)
		assert.False(t, conf.Moves.EnforceTurnOrder)
		assert.False(t, conf.Rooms.EnforceCapacity)
		assert.True(t, conf.Moves.RequireEmptyCell)
	})

	t.Run("Invalid values are rejected", func(t *testing.T) {
		for _, content := range []string{
			"rooms:\n  leave-policy: sometimes\n",
			"rooms:\n  default-capacity: 9\n",
		} {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
		}
	})

	t.Run("A missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		require.Error(t, err)
	})
}
