package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
)

type roomLister interface {
	List() []*entity.Room
	Get(name string) (*entity.Room, error)
}

type Server struct {
	logger         *slog.Logger
	rooms          roomLister
	publicURL      string
	allowedOrigins []string
}

func New(logger *slog.Logger, rooms roomLister, publicURL string, allowedOrigins []string) *Server {
	return &Server{
		logger:         logger.With("component", "rest"),
		rooms:          rooms,
		publicURL:      publicURL,
		allowedOrigins: allowedOrigins,
	}
}

func (that *Server) Router() http.Handler {
	router := mux.NewRouter()

	ping := NewPingHandler()
	router.HandleFunc("/ping", ping.PingHandler).Methods(http.MethodGet)
	router.HandleFunc("/healthz", ping.HealthHandler).Methods(http.MethodGet)

	rooms := newRoomHandler(that.logger, that.rooms, that.publicURL)
	router.HandleFunc("/rooms", rooms.List).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{name}/qr", rooms.QR).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins(that.allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)

	return cors(router)
}

// Start serves until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	}
}
