// Package diagnostics exposes the device registry and operation-completion
// feed over HTTP, adapted from the teacher's web.Server: the same
// http.ServeMux/zerolog/gorilla-websocket shape, reduced to the one surface
// this core has (device listing and a reset action) instead of a full
// session/alarm/license/topology/user-management monitoring console.
package diagnostics

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/protei/qmicore/pkg/authz"
	"github.com/protei/qmicore/pkg/capability"
	"github.com/protei/qmicore/pkg/device"
)

// Server is the diagnostics HTTP/WS surface.
type Server struct {
	addr       string
	server     *http.Server
	logger     zerolog.Logger
	registry   *device.Registry
	authorizer *authz.Authorizer
	selector   *capability.Selector

	wsClients    map[*websocket.Conn]bool
	wsClientsMux sync.RWMutex
	upgrader     websocket.Upgrader
}

// Config configures a diagnostics Server.
type Config struct {
	Addr       string
	Registry   *device.Registry
	Authorizer *authz.Authorizer
	Selector   *capability.Selector
	Logger     zerolog.Logger
}

// New builds a diagnostics Server. It does not start listening.
func New(cfg Config) *Server {
	return &Server{
		addr:       cfg.Addr,
		logger:     cfg.Logger,
		registry:   cfg.Registry,
		authorizer: cfg.Authorizer,
		selector:   cfg.Selector,
		wsClients:  make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start registers routes and blocks serving HTTP until the server stops.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/devices", s.handleDevices)
	mux.HandleFunc("/api/devices/", s.handleDeviceRoute)
	mux.HandleFunc("/ws", s.handleWebSocket)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.corsMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", s.addr).Msg("starting diagnostics server")
	return s.server.ListenAndServe()
}

// Stop closes all websocket connections and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("stopping diagnostics server")

	s.wsClientsMux.Lock()
	for client := range s.wsClients {
		client.Close()
	}
	s.wsClientsMux.Unlock()

	return s.server.Shutdown(ctx)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type operatorKey struct{}

// requireOperator gates a handler behind a valid Bearer operator token.
func (s *Server) requireOperator(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			s.sendError(w, http.StatusUnauthorized, "missing or malformed authorization header")
			return
		}

		claims, err := s.authorizer.Validate(parts[1])
		if err != nil {
			s.sendError(w, http.StatusUnauthorized, "invalid or expired operator token")
			return
		}

		ctx := context.WithValue(r.Context(), operatorKey{}, claims.Operator)
		next(w, r.WithContext(ctx))
	}
}

// handleHealth reports process liveness, mirroring the teacher's health
// endpoint shape without the monitoring-console version/uptime fields that
// have no meaning for this process.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"go_version": runtime.Version(),
		"hostname":   getHostname(),
	})
}

// handleDevices lists the device IDs currently registered.
func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]interface{}{"devices": s.registry.Snapshot()})
}

// handleDeviceRoute dispatches /api/devices/{id} and /api/devices/{id}/reset.
func (s *Server) handleDeviceRoute(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/devices/")
	if rest == "" {
		s.sendError(w, http.StatusNotFound, "missing device id")
		return
	}

	if id, ok := strings.CutSuffix(rest, "/reset"); ok {
		s.requireOperator(s.handleDeviceReset(id))(w, r)
		return
	}

	s.handleDeviceDetail(rest)(w, r)
}

func (s *Server) handleDeviceDetail(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		sum, found, err := s.registry.Describe(r.Context(), id)
		if err != nil {
			s.sendError(w, http.StatusGatewayTimeout, err.Error())
			return
		}
		if !found {
			s.sendError(w, http.StatusNotFound, "device not registered")
			return
		}
		s.sendJSON(w, http.StatusOK, sum)
	}
}

// handleDeviceReset re-applies the device's own current capability mask,
// driving SetCurrentCapabilities' ssp/tp -> offline -> reset state machine
// as an operator-triggered recovery action.
func (s *Server) handleDeviceReset(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		if s.selector == nil {
			s.sendError(w, http.StatusServiceUnavailable, "capability selector not configured")
			return
		}

		var resetErr error
		err := s.registry.Submit(r.Context(), id, func(c *device.Context) {
			resetErr = s.selector.SetCurrentCapabilities(r.Context(), c, c.CurrentCapabilities)
		})
		if err != nil {
			s.sendError(w, http.StatusGatewayTimeout, err.Error())
			return
		}
		if resetErr != nil {
			s.sendError(w, http.StatusBadGateway, resetErr.Error())
			return
		}

		s.Broadcast("device_reset", map[string]string{"device_id": id})
		s.sendJSON(w, http.StatusOK, map[string]string{"status": "reset issued"})
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.logger.Warn().Msg("websocket connection without token")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := s.authorizer.Validate(token); err != nil {
		s.logger.Warn().Err(err).Msg("invalid websocket token")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to upgrade websocket connection")
		return
	}

	s.wsClientsMux.Lock()
	s.wsClients[conn] = true
	s.wsClientsMux.Unlock()

	defer func() {
		s.wsClientsMux.Lock()
		delete(s.wsClients, conn)
		s.wsClientsMux.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast pushes an event to every connected diagnostics client, e.g. an
// operation-completion notice for a device reset.
func (s *Server) Broadcast(eventType string, payload interface{}) {
	msg := map[string]interface{}{
		"type":      eventType,
		"payload":   payload,
		"timestamp": time.Now().Unix(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal websocket message")
		return
	}

	s.wsClientsMux.RLock()
	defer s.wsClientsMux.RUnlock()
	for client := range s.wsClients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Warn().Err(err).Msg("failed to send websocket message")
		}
	}
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode json response")
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
