package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/domain"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/router"
)

const (
	EventAuthenticate  = "authenticate"
	EventAuthenticated = "authenticated"
	EventPing          = "ping"
	EventPong          = "pong"
)

type Relay interface {
	Authenticate(conn domain.Connection, identity domain.Identity) error
	Publish(senderID string, ev domain.Event) error
}

type IdentityVerifier interface {
	Identity(token string) (domain.Identity, error)
}

// AuthResult is the reply to an authenticate frame.
type AuthResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type authPayload struct {
	Token    string      `json:"token,omitempty"`
	ID       string      `json:"id,omitempty"`
	MongoID  string      `json:"_id,omitempty"`
	Username string      `json:"username,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

type Handler struct {
	relay    Relay
	verifier IdentityVerifier
	logger   *slog.Logger
}

type Option func(*Handler)

// WithVerifier requires authenticate frames to carry a token.
func WithVerifier(v IdentityVerifier) Option {
	return func(h *Handler) { h.verifier = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

func NewHandler(r Relay, opts ...Option) *Handler {
	h := &Handler{relay: r, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var frame domain.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.logger.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}

	switch frame.Event {
	case EventPing:
		h.reply(conn, EventPong, frame.Data)
	case EventAuthenticate:
		h.authenticate(conn, frame.Data)
	default:
		h.publish(conn, frame)
	}
}

func (h *Handler) authenticate(conn domain.Connection, data json.RawMessage) {
	identity, err := h.resolveIdentity(data)
	if err == nil {
		err = h.relay.Authenticate(conn, identity)
	}
	if err != nil {
		h.logger.Warn("authentication failed", "clientId", conn.ID(), "error", err)
		h.reply(conn, EventAuthenticated, AuthResult{Success: false, Error: "authentication failed"})
		return
	}
	h.reply(conn, EventAuthenticated, AuthResult{Success: true})
}

func (h *Handler) resolveIdentity(data json.RawMessage) (domain.Identity, error) {
	var p authPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Identity{}, err
	}

	if h.verifier != nil {
		return h.verifier.Identity(p.Token)
	}

	id := p.ID
	if id == "" {
		id = p.MongoID
	}
	return domain.Identity{ID: id, Username: p.Username, Role: p.Role}, nil
}

func (h *Handler) publish(conn domain.Connection, frame domain.Frame) {
	ev, err := domain.DecodeEvent(frame.Event, frame.Data)
	if err != nil {
		h.logger.Warn("event rejected", "clientId", conn.ID(), "event", frame.Event, "error", err)
		return
	}

	if err := h.relay.Publish(conn.ID(), ev); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, router.ErrForbidden) {
			level = slog.LevelInfo
		}
		h.logger.Log(context.Background(), level, "event dropped", "clientId", conn.ID(), "event", frame.Event, "error", err)
	}
}

func (h *Handler) reply(conn domain.Connection, event string, payload any) {
	resp, err := domain.EncodeFrame(event, payload)
	if err != nil {
		h.logger.Warn("marshal error", "clientId", conn.ID(), "error", err)
		return
	}
	if err := conn.Send(resp); err != nil {
		h.logger.Debug("reply not sent", "clientId", conn.ID(), "event", event, "error", err)
	}
}
