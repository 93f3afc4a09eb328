package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Tashu22-hub/BridgeOn/internal/auth"
	"github.com/Tashu22-hub/BridgeOn/internal/chat"
	"github.com/Tashu22-hub/BridgeOn/internal/identity"
	"github.com/Tashu22-hub/BridgeOn/internal/server/middleware"
	"github.com/Tashu22-hub/BridgeOn/internal/store"
	"github.com/Tashu22-hub/BridgeOn/pkg/config"
	"github.com/Tashu22-hub/BridgeOn/pkg/session"
	"github.com/Tashu22-hub/BridgeOn/pkg/session/sessionmanager"
	"github.com/Tashu22-hub/BridgeOn/pkg/transport"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type App struct {
	logger   *slog.Logger
	sessions session.Manager
	chat     *chat.Handler
	users    *store.UserRepository
	rooms    *store.RoomRepository
	tokens   *auth.TokenManager
	wg       sync.WaitGroup
	http     *http.Server
	config   *config.Config

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config, db *gorm.DB) *App {
	sessions := sessionmanager.NewInMemoryManager(logger)
	users := store.NewUserRepository(db)
	rooms := store.NewRoomRepository(db)
	tokens := auth.NewTokenManager(cfg.Server.Auth.JWTSecret, cfg.Server.Auth.TokenTTL)
	resolver := identity.NewResolver(tokens, users, logger)
	chatHandler := chat.NewHandler(logger, sessions, resolver, rooms)

	app := &App{
		logger:   logger,
		sessions: sessions,
		chat:     chatHandler,
		users:    users,
		rooms:    rooms,
		tokens:   tokens,
		config:   cfg,
		ctx:      rootCtx,
	}

	mux := http.NewServeMux()
	app.registerRoutes(mux)

	app.http = &http.Server{Addr: cfg.Server.Address, Handler: mux, BaseContext: func(l net.Listener) context.Context {
		return app.ctx
	}}

	return app
}

func (a *App) registerRoutes(mux *http.ServeMux) {
	metadata := middleware.RequestMetadataMiddleware()
	reqLogger := middleware.NewRequestLogger(a.logger)
	authed := middleware.NewAuthMiddleware(a.logger, a.tokens)
	admin := middleware.RequireAdmin(a.logger)

	open := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, metadata, reqLogger)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, metadata, reqLogger, authed)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.Chain(h, metadata, reqLogger, authed, admin)
	}

	mux.Handle("POST /api/auth/register", open(a.handleRegister))
	mux.Handle("POST /api/auth/login", open(a.handleLogin))

	mux.Handle("GET /api/rooms", protected(a.handleListRooms))
	mux.Handle("POST /api/rooms", adminOnly(a.handleCreateRoom))
	mux.Handle("PUT /api/rooms/{id}", adminOnly(a.handleUpdateRoom))
	mux.Handle("DELETE /api/rooms/{id}", adminOnly(a.handleDeleteRoom))
	mux.Handle("POST /api/rooms/{id}/join", protected(a.handleDurableJoin))

	mux.Handle("GET /api/admin/users", adminOnly(a.handleListUsers))
	mux.Handle("PUT /api/admin/users/{id}/role", adminOnly(a.handleUpdateUserRole))
	mux.Handle("GET /api/admin/statistics", adminOnly(a.handleStatistics))

	// socket authentication is deferred; the upgrade itself is open
	mux.Handle("GET /ws", middleware.Chain(
		http.HandlerFunc(a.upgradeHandler),
		metadata,
		reqLogger,
		middleware.NewConnectionLimiter(a.logger, a.sessions.CountByIP, a.config.Server.ConnectionLimit),
	))
}

func (a *App) Run() error {
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())
	connLogger := a.logger.With(slog.String("remoteAddr", reqMeta.IP))

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(
		r.Context(),
		&a.wg,
		wsConn,
		transport.ConnectionConfig{ReadTimeout: a.config.Transport.ReadTimeout},
		a.chat.HandleMessage,
		nil,
		a.logger,
	)
	// register the new connection; it starts unauthenticated and roomless
	if _, err := a.sessions.Register(conn, conn.ID(), reqMeta.IP); err != nil {
		connLogger.Error("Failed to register connection state", slog.Any("error", err))
		conn.Close(err)
		return
	}
	conn.SetOnCloseHandler(func(id uuid.UUID, err error) {
		connLogger.Info("Cleaning up connection after closure", slog.String("connID", id.String()))
		a.chat.HandleDisconnect(id)
	})

	connLogger.Info("Connection fully established", slog.String("connID", conn.ID().String()))
	conn.Run()
	<-conn.Done()
}

// Shutdown runs the graceful shutdown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// close all active WebSocket connections.
	a.logger.Info("Closing all active connections...")
	for _, conn := range a.sessions.Connections() {
		conn.Transport.Close(errors.New("graceful shutdown"))
	}

	// wait for all connection goroutines to finish their cleanup.
	a.wg.Wait()
	a.logger.Info("Server shut down gracefully.")
	return nil
}
