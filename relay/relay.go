// Package relay owns the live connection state and routes domain events to
// the rooms that should be notified.
//
// A Relay is inert until Start attaches a transport. Connections may come
// and go before that, but published events fail with ErrNotStarted.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/domain"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/registry"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/router"
)

var (
	ErrNotStarted      = errors.New("relay not started")
	ErrAlreadyStarted  = errors.New("relay already started")
	ErrUnknownConn     = errors.New("unknown connection")
	ErrInvalidIdentity = errors.New("invalid identity")
)

// Stats is a point-in-time view of relay state.
type Stats struct {
	Connections   int `json:"connections"`
	Authenticated int `json:"authenticated"`
	Rooms         int `json:"rooms"`
}

type roomStats interface {
	Stats() (rooms, members int)
}

type Relay struct {
	registry       *registry.Registry
	rooms          domain.RoomDirectory
	router         *router.Router
	logger         *slog.Logger
	statusInterval time.Duration

	mu        sync.RWMutex
	transport domain.Transport
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type Option func(*Relay)

func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

func WithRouter(rt *router.Router) Option {
	return func(r *Relay) { r.router = rt }
}

// WithStatusInterval sets how often the status line is logged. Zero or a
// negative interval disables it.
func WithStatusInterval(d time.Duration) Option {
	return func(r *Relay) { r.statusInterval = d }
}

func New(reg *registry.Registry, rooms domain.RoomDirectory, opts ...Option) *Relay {
	r := &Relay{
		registry: reg,
		rooms:    rooms,
		router:   router.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start attaches t as the live transport and starts the status logger.
func (r *Relay) Start(ctx context.Context, t domain.Transport) error {
	if t == nil {
		return errors.New("relay: nil transport")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.transport != nil {
		return ErrAlreadyStarted
	}
	r.transport = t

	ctx, r.cancel = context.WithCancel(ctx)
	if r.statusInterval > 0 {
		r.wg.Add(1)
		go r.statusLoop(ctx)
	}

	r.logger.Info("relay started", "statusInterval", r.statusInterval)
	return nil
}

// Stop detaches the transport. Later publishes are rejected until the
// relay is started again.
func (r *Relay) Stop() {
	r.mu.Lock()
	if r.transport == nil {
		r.mu.Unlock()
		return
	}
	r.transport = nil
	r.cancel()
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("relay stopped")
}

func (r *Relay) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transport != nil
}

func (r *Relay) Connect(conn domain.Connection) {
	r.registry.Register(conn)
	count, _ := r.registry.Stats()
	r.logger.Info("client connected", "clientId", conn.ID(), "clients", count)
}

// Disconnect removes the connection from every room and from the registry.
func (r *Relay) Disconnect(conn domain.Connection) {
	r.rooms.LeaveAll(conn.ID())
	if !r.registry.Unregister(conn.ID()) {
		return
	}
	count, _ := r.registry.Stats()
	r.logger.Info("client disconnected", "clientId", conn.ID(), "clients", count)
}

// Authenticate binds identity to the connection and assigns its rooms. A
// second call replaces the identity and the rooms derived from it.
func (r *Relay) Authenticate(conn domain.Connection, identity domain.Identity) error {
	if identity.ID == "" || identity.Role == "" {
		return fmt.Errorf("%w: id and role are required", ErrInvalidIdentity)
	}

	prev, ok := r.registry.Authenticate(conn.ID(), identity)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConn, conn.ID())
	}
	if prev != nil {
		for _, room := range roomsFor(*prev) {
			r.rooms.Leave(room, conn.ID())
		}
	}
	for _, room := range roomsFor(identity) {
		r.rooms.Join(room, conn.ID())
	}

	r.logger.Info("client authenticated",
		"clientId", conn.ID(),
		"userId", identity.ID,
		"username", identity.Username,
		"role", identity.Role,
	)
	return nil
}

// roomsFor lists the rooms an identity belongs to: its role room and, for
// waiters, a personal room.
func roomsFor(identity domain.Identity) []string {
	rooms := []string{domain.RoleRoom(identity.Role)}
	if identity.Role == domain.RoleWaiter {
		rooms = append(rooms, domain.WaiterRoom(identity.ID))
	}
	return rooms
}

// Publish routes ev on behalf of the connection senderID, which never
// receives its own notification unless the event is a system broadcast.
func (r *Relay) Publish(senderID string, ev domain.Event) error {
	var sender *domain.Identity
	if identity, ok := r.registry.Identity(senderID); ok {
		sender = &identity
	}
	return r.publish(senderID, sender, ev)
}

// PublishAs routes ev for a producer outside the socket layer. sender, when
// set, is the identity the producer acts for.
func (r *Relay) PublishAs(sender *domain.Identity, ev domain.Event) error {
	return r.publish("", sender, ev)
}

func (r *Relay) publish(senderID string, sender *domain.Identity, ev domain.Event) error {
	r.mu.RLock()
	t := r.transport
	r.mu.RUnlock()
	if t == nil {
		return ErrNotStarted
	}

	deliveries, err := r.router.Route(ev, sender)
	if err != nil {
		return err
	}
	if len(deliveries) == 0 {
		r.logger.Debug("event ignored", "event", ev.Type(), "clientId", senderID)
		return nil
	}

	for _, d := range deliveries {
		frame, err := domain.EncodeFrame(d.Event, d.Envelope)
		if err != nil {
			return fmt.Errorf("encode %s: %w", d.Event, err)
		}
		if d.Broadcast {
			t.DeliverAll(frame, "")
			r.logger.Debug("notification broadcast", "event", d.Event)
			continue
		}
		t.Deliver(d.Room, frame, senderID)
		r.logger.Debug("notification delivered", "event", d.Event, "room", d.Room)
	}
	return nil
}

func (r *Relay) Stats() Stats {
	var s Stats
	s.Connections, s.Authenticated = r.registry.Stats()
	if rs, ok := r.rooms.(roomStats); ok {
		s.Rooms, _ = rs.Stats()
	}
	return s
}

func (r *Relay) statusLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := r.Stats()
			r.logger.Info("relay status",
				"connections", s.Connections,
				"authenticated", s.Authenticated,
				"rooms", s.Rooms,
			)
		}
	}
}
