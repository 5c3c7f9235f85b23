package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/metatactoe-backend/internal/entity"
	"github.com/rocketscienceinc/metatactoe-backend/internal/pkg"
	"github.com/rocketscienceinc/metatactoe-backend/internal/usecase"
)

type roomRegistry interface {
	Create(ctx context.Context, name, password string, capacity int, creator *entity.Player) (*entity.Room, error)
	Join(ctx context.Context, name string, player *entity.Player, password string) (*entity.Room, error)
	Leave(ctx context.Context, name, playerID string) (*usecase.LeaveResult, error)
	Start(ctx context.Context, name, requesterID string) (*entity.Room, *entity.Match, error)
	Snapshot(name string) (*entity.Snapshot, error)
	List() []*entity.Room
}

type moveProcessor interface {
	ProcessMove(ctx context.Context, roomName string, move entity.Move) (*usecase.MoveOutcome, error)
	EndMatch(ctx context.Context, roomName string) (*usecase.MoveOutcome, error)
	ExitMatch(ctx context.Context, roomName string) (*usecase.MoveOutcome, error)
}

type handlerFunc func(ctx context.Context, client *Client, message *Message) error

// inbound carries a client's message, or its disconnect when message is nil, so a client's
// last messages are always handled before it is dropped.
type inbound struct {
	client  *Client
	message *Message
}

// Server accepts websocket connections and handles every inbound event on one loop, so
// handlers never run concurrently with each other.
type Server struct {
	logger    *slog.Logger
	registry  roomRegistry
	processor moveProcessor
	upgrader  websocket.Upgrader

	handlers map[string]handlerFunc

	register chan *Client
	inbound  chan inbound
	done     chan struct{}

	// owned by the loop
	clients map[*Client]struct{}
	groups  map[string]map[*Client]struct{}
}

func New(logger *slog.Logger, registry roomRegistry, processor moveProcessor, allowedOrigins []string) *Server {
	server := &Server{
		logger:    logger.With("component", "websocket"),
		registry:  registry,
		processor: processor,

		handlers: make(map[string]handlerFunc),

		register: make(chan *Client),
		inbound:  make(chan inbound, 256),
		done:     make(chan struct{}),

		clients: make(map[*Client]struct{}),
		groups:  make(map[string]map[*Client]struct{}),
	}

	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(allowedOrigins),
	}

	server.handlers[actionCreateRoom] = server.handleCreateRoom
	server.handlers[actionJoinRoom] = server.handleJoinRoom
	server.handlers[actionLeaveRoom] = server.handleLeaveRoom
	server.handlers[actionGetRooms] = server.handleGetRooms
	server.handlers[actionStartGame] = server.handleStartGame
	server.handlers[actionSyncStateRequest] = server.handleSyncStateRequest
	server.handlers[actionPlayerMove] = server.handlePlayerMove
	server.handlers[actionPlayerWon] = server.handlePlayerWon
	server.handlers[actionExitGame] = server.handleExitGame
	server.handlers[actionEndGame] = server.handleEndGame

	return server
}

// Router exposes the websocket endpoint.
func (that *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/ws", that.serveWS)

	return router
}

// Start - starts WebSocket server and its event loop. It returns once ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go that.Run(ctx)

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

// Run is the event loop. It owns every client, group and outbound send.
func (that *Server) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	defer func() {
		close(that.done)
		for client := range that.clients {
			that.drop(client)
		}
		log.Info("event loop stopped")
	}()

	for {
		select {
		case client := <-that.register:
			that.clients[client] = struct{}{}
			log.Debug("client registered", "connection", client.id, "player", client.playerID)
		case in := <-that.inbound:
			if in.message != nil {
				that.dispatch(ctx, in.client, in.message)
				continue
			}

			if _, ok := that.clients[in.client]; ok {
				that.drop(in.client)
				log.Debug("client unregistered", "connection", in.client.id, "player", in.client.playerID)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (that *Server) dispatch(ctx context.Context, client *Client, message *Message) {
	log := that.logger.With("method", "dispatch", "action", message.Action, "connection", client.id)

	if _, ok := that.clients[client]; !ok {
		log.Debug("message from a dropped client")
		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Warn("unknown action")
		return
	}

	if err := handler(ctx, client, message); err != nil {
		log.Error("error processing message", "error", err)
	}
}

// serveWS upgrades the connection; the player identity comes from the playerId query parameter.
func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(pkg.GenerateConnectionID(), req.URL.Query().Get("playerId"), conn)

	select {
	case that.register <- client:
	case <-that.done:
		_ = conn.Close()
		return
	}

	log.Info("WebSocket connection established", "connection", client.id, "player", client.playerID)

	go client.writePump()
	client.readPump(that)
}

// drop removes the client from the loop and closes its send channel.
func (that *Server) drop(client *Client) {
	that.unsubscribe(client)
	delete(that.clients, client)
	close(client.send)
}

func (that *Server) subscribe(client *Client, room string) {
	if client.room == room {
		return
	}

	that.unsubscribe(client)

	group, ok := that.groups[room]
	if !ok {
		group = make(map[*Client]struct{})
		that.groups[room] = group
	}

	group[client] = struct{}{}
	client.room = room
}

func (that *Server) unsubscribe(client *Client) {
	if client.room == "" {
		return
	}

	if group, ok := that.groups[client.room]; ok {
		delete(group, client)
		if len(group) == 0 {
			delete(that.groups, client.room)
		}
	}

	client.room = ""
}

func (that *Server) dropGroup(room string) {
	for client := range that.groups[room] {
		client.room = ""
	}
	delete(that.groups, room)
}

func (that *Server) emit(client *Client, action string, payload any) {
	data, err := encodeMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "method", "emit", "action", action, "error", err)
		return
	}

	that.deliver(client, data)
}

func (that *Server) broadcast(room, action string, payload any) {
	data, err := encodeMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "method", "broadcast", "action", action, "error", err)
		return
	}

	for client := range that.groups[room] {
		that.deliver(client, data)
	}
}

func (that *Server) broadcastAll(action string, payload any) {
	data, err := encodeMessage(action, payload)
	if err != nil {
		that.logger.Error("failed to encode message", "method", "broadcastAll", "action", action, "error", err)
		return
	}

	for client := range that.clients {
		that.deliver(client, data)
	}
}

// deliver never blocks the loop; a client that cannot keep up is dropped.
func (that *Server) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		that.logger.Warn("client too slow, dropping", "method", "deliver", "connection", client.id)
		that.drop(client)
	}
}

// membersOf returns the clients subscribed to room that belong to playerID.
func (that *Server) membersOf(room, playerID string) []*Client {
	var clients []*Client
	for client := range that.groups[room] {
		if client.playerID == playerID {
			clients = append(clients, client)
		}
	}
	return clients
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}

		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
