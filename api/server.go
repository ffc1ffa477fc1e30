// Package api exposes the relay over HTTP: the socket endpoint, health and
// stats probes, and the producer event endpoint.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/domain"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/relay"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/router"
	ws "github.com/marcussviniciusa/recantoverdev5-2-sub001/websocket"
)

const maxEventBody = 1 << 20

type Server struct {
	relay       *relay.Relay
	emitter     *relay.Emitter
	handler     domain.MessageHandler
	upgrader    websocket.Upgrader
	wsOpts      ws.Options
	producerKey string
	verifier    IdentityVerifier
	logger      *slog.Logger
}

type IdentityVerifier interface {
	Identity(token string) (domain.Identity, error)
}

type Option func(*Server)

func WithSocketOptions(o ws.Options) Option {
	return func(s *Server) { s.wsOpts = o }
}

// WithProducerKey requires producers to send "Authorization: Bearer <key>".
func WithProducerKey(key string) Option {
	return func(s *Server) { s.producerKey = key }
}

// WithVerifier lets producers act for the user named by a bearer token.
func WithVerifier(v IdentityVerifier) Option {
	return func(s *Server) { s.verifier = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func NewServer(r *relay.Relay, h domain.MessageHandler, opts ...Option) *Server {
	s := &Server{
		relay:   r,
		emitter: relay.NewEmitter(r),
		handler: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		wsOpts: ws.DefaultOptions(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.wsHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	mux.HandleFunc("POST /api/events", s.eventsHandler)
	return cors(mux)
}

// cors opens every route to any origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade error", "error", err)
		return
	}

	wsConn := ws.NewConn(uuid.New().String(), conn, s.wsOpts, s.relay, s.handler, s.logger)
	wsConn.Start()
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if !s.relay.Running() {
		status = "stopped"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.relay.Stats())
}

// EventRequest is the body of POST /api/events.
type EventRequest struct {
	Event  string           `json:"event"`
	Data   json.RawMessage  `json:"data"`
	Sender *domain.Identity `json:"sender,omitempty"`
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "invalid producer key")
		return
	}

	var req EventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ev, err := domain.DecodeEvent(req.Event, req.Data)
	if err != nil {
		msg := "invalid event payload"
		if errors.Is(err, domain.ErrUnknownEvent) {
			msg = "unknown event"
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := s.emitter.Emit(s.sender(r, req.Sender), ev); err != nil {
		switch {
		case errors.Is(err, relay.ErrNotStarted):
			writeError(w, http.StatusServiceUnavailable, "relay not running")
		case errors.Is(err, router.ErrForbidden):
			writeError(w, http.StatusForbidden, "sender not allowed to emit event")
		case errors.Is(err, router.ErrIncomplete):
			writeError(w, http.StatusBadRequest, "incomplete event payload")
		default:
			writeError(w, http.StatusInternalServerError, "event not delivered")
		}
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// sender resolves who the producer acts for. A bearer token that verifies
// wins; the body's sender is trusted only behind a producer key. Anything
// else publishes anonymously.
func (s *Server) sender(r *http.Request, claimed *domain.Identity) *domain.Identity {
	token, hasToken := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if s.verifier != nil && hasToken {
		if identity, err := s.verifier.Identity(token); err == nil {
			return &identity
		}
	}
	if s.producerKey != "" {
		return claimed
	}
	return nil
}

func (s *Server) authorized(r *http.Request) bool {
	if s.producerKey == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.producerKey)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
