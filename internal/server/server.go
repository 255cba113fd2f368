// Package server exposes the quest generator to simulators over WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/paniker63/the-tale/internal/config"
	"github.com/paniker63/the-tale/internal/database"
	"github.com/paniker63/the-tale/internal/logger"
	"github.com/paniker63/the-tale/internal/metrics"
	"github.com/paniker63/the-tale/internal/narration"
	"github.com/paniker63/the-tale/internal/quest"
	"github.com/paniker63/the-tale/internal/world"
)

// requestTimeout bounds the database work of one request.
const requestTimeout = 10 * time.Second

// Server hands out quests to heroes and walks them through their quest lines.
type Server struct {
	cfg      *config.ServerConfig
	world    *world.Registry
	quests   *quest.Registry
	selector *quest.Selector
	lexicon  *narration.Lexicon
	db       *database.Database

	connLimiter    *ConnLimiter
	requestLimiter *RequestLimiter

	httpServer *http.Server

	mu      sync.Mutex
	clients map[Client]struct{}

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// New creates a server. The quest registry is expected to carry its selection policy.
func New(cfg *config.ServerConfig, w *world.Registry, quests *quest.Registry, lexicon *narration.Lexicon, db *database.Database) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:            cfg,
		world:          w,
		quests:         quests,
		selector:       quest.NewSelector(quests),
		lexicon:        lexicon,
		db:             db,
		connLimiter:    NewConnLimiter(cfg.Connections),
		requestLimiter: NewRequestLimiter(cfg.RateLimit),
		clients:        make(map[Client]struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Handler returns the server's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	if s.cfg.Metrics.Enabled {
		mux.Handle(s.cfg.Metrics.Path, metrics.Handler())
	}
	return mux
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Quest server listening", "address", s.cfg.Address, "metrics", s.cfg.Metrics.Enabled)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, closes open sessions and waits for
// in-flight HTTP requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cancel()
		s.requestLimiter.Stop()

		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}

		// Hijacked WebSocket connections are not closed by http.Server
		s.mu.Lock()
		for c := range s.clients {
			c.Close()
		}
		s.mu.Unlock()

		logger.Info("Quest server stopped")
	})
	return err
}

func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := getRealIP(r)

	if locked, remaining := s.requestLimiter.IsLocked(clientIP); locked {
		logger.Warning("WebSocket connection rejected - client locked out",
			"client_ip", clientIP,
			"remaining", remaining)
		http.Error(w, "Too many bad requests. Please try again later.", http.StatusTooManyRequests)
		return
	}

	if !s.connLimiter.TryAcquire(clientIP) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(clientIP)
		return
	}
	if s.cfg.WebSocket.MaxMessageSize > 0 {
		wsConn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	go func() {
		defer s.connLimiter.Release(clientIP)
		s.handleClient(NewWebSocketClient(wsConn), clientIP)
	}()
}

// handleClient serves requests from one client until it disconnects, is locked out,
// or the server shuts down.
func (s *Server) handleClient(client Client, clientIP string) {
	s.mu.Lock()
	s.clients[client] = struct{}{}
	s.mu.Unlock()
	metrics.ActiveConnections.Inc()

	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
		metrics.ActiveConnections.Dec()
		client.Close()
	}()

	logger.Info("Simulator connected", "remote_addr", client.RemoteAddr())

	for {
		req, err := client.ReadRequest()
		if err != nil && !errors.Is(err, ErrBadRequest) {
			if s.ctx.Err() == nil {
				logger.Debug("Simulator disconnected", "remote_addr", client.RemoteAddr(), "error", err)
			}
			return
		}

		var resp *Response
		if err == nil {
			ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
			resp, err = s.Handle(ctx, req)
			cancel()
		}

		if err != nil {
			if errors.Is(err, ErrBadRequest) {
				logger.Warning("Request rejected", "client_ip", clientIP, "error", err)
				if locked, d := s.requestLimiter.RecordFailure(clientIP); locked {
					logger.Warning("Client locked out", "client_ip", clientIP, "duration", d)
					client.WriteResponse(errorResponse(req, err))
					return
				}
			} else if quest.IsFatal(err) && !errors.Is(err, database.ErrNotFound) {
				logger.Error("Request failed", "op", opOf(req), "error", err)
			}
			resp = errorResponse(req, err)
		} else {
			s.requestLimiter.RecordSuccess(clientIP)
		}

		if err := client.WriteResponse(resp); err != nil {
			logger.Debug("Failed to write response", "remote_addr", client.RemoteAddr(), "error", err)
			return
		}
	}
}

func opOf(req *Request) string {
	if req == nil {
		return ""
	}
	return req.Op
}
