package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/metatactoe-backend/internal/config"
	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
	"github.com/rocketscienceinc/metatactoe-backend/internal/observer"
	"github.com/rocketscienceinc/metatactoe-backend/internal/pkg"
	"github.com/rocketscienceinc/metatactoe-backend/internal/repository"
	"github.com/rocketscienceinc/metatactoe-backend/internal/repository/storage"
	"github.com/rocketscienceinc/metatactoe-backend/internal/threat"
	"github.com/rocketscienceinc/metatactoe-backend/internal/usecase"
	"github.com/rocketscienceinc/metatactoe-backend/transport/rest"
	"github.com/rocketscienceinc/metatactoe-backend/transport/websocket"
	"github.com/rocketscienceinc/metatactoe-backend/transport/websocket/client"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signalContext(log)
	defer cancel()

	mirror, closeMirror, err := newRoomMirror(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeMirror()

	registry := usecase.NewRoomRegistry(logger, mirror, usecase.RegistryOptions{
		DefaultCapacity: conf.Rooms.DefaultCapacity,
		EnforceCapacity: conf.Rooms.EnforceCapacity,
		LeavePolicy:     usecase.LeavePolicy(conf.Rooms.LeavePolicy),
	})

	processor := usecase.NewMoveProcessor(logger, registry, usecase.MovePolicy{
		EnforceTurnOrder: conf.Moves.EnforceTurnOrder,
		RequireEmptyCell: conf.Moves.RequireEmptyCell,
	})

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, registry, conf.PublicURL, conf.Origins())
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, registry, processor, conf.Origins())
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// WatchOptions describe the room a watcher follows and who it joins as.
type WatchOptions struct {
	ServerURL string
	Room      string
	Password  string
	PlayerID  string
	Name      string
	PieceKey  string
}

// RunWatch joins a room as an observer and logs the threats it tracks until the room closes
// or the process is interrupted.
func RunWatch(logger *slog.Logger, opts WatchOptions) error {
	log := logger.With("component", "watch")

	ctx, cancel := signalContext(log)
	defer cancel()

	if opts.PlayerID == "" {
		opts.PlayerID = pkg.GeneratePlayerID()
	}

	if opts.Name == "" {
		opts.Name = opts.PlayerID
	}

	player := &entity.Player{ID: opts.PlayerID, DisplayName: opts.Name, ChosenPieceKey: opts.PieceKey}
	tracker := observer.NewTracker(opts.Room)

	err := client.NewWatcher(logger, opts.ServerURL, player, tracker).Watch(ctx, opts.Password)

	for _, member := range tracker.Players() {
		log.Info("open threats", "player", member.ID, "positions", threat.Labels(tracker.ThreatsFor(member.ID)))
	}

	if errors.Is(err, client.ErrRoomClosed) {
		log.Info("room closed")
		return nil
	}

	return err
}

func signalContext(log *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()

	return ctx, cancel
}

// newRoomMirror connects the redis mirror when enabled and clears whatever a previous run left.
func newRoomMirror(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.RoomMirror, func(), error) {
	if !conf.Redis.Enabled {
		log.Info("redis mirror disabled")
		return repository.NewNoopRoomMirror(), func() {}, nil
	}

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return nil, nil, ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeFn := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	mirror := repository.NewRoomMirror(redisStorage, conf.Redis.KeyPrefix)
	if err = mirror.Clear(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("could not clear room mirror: %w", err)
	}

	return mirror, closeFn, nil
}
