package hub

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/domain"
)

// ConnectionSource resolves connection ids to live connections.
type ConnectionSource interface {
	Connection(id string) (domain.Connection, bool)
	Connections() []domain.Connection
}

type room map[string]struct{}

// Hub is the room directory and the broadcast transport over it.
type Hub struct {
	conns       ConnectionSource
	logger      *slog.Logger
	rooms       map[string]room
	memberships map[string]map[string]struct{}
	mu          sync.RWMutex
}

func New(conns ConnectionSource, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		conns:       conns,
		logger:      logger,
		rooms:       make(map[string]room),
		memberships: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Join(name, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, exists := h.rooms[name]
	if !exists {
		r = make(room)
		h.rooms[name] = r
	}
	if _, member := r[connID]; member {
		return
	}
	r[connID] = struct{}{}

	m, exists := h.memberships[connID]
	if !exists {
		m = make(map[string]struct{})
		h.memberships[connID] = m
	}
	m[name] = struct{}{}

	h.logger.Debug("room joined", "room", name, "clientId", connID, "members", len(r))
}

func (h *Hub) Leave(name, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leave(name, connID)
}

// LeaveAll drops every membership of the connection.
func (h *Hub) LeaveAll(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for name := range h.memberships[connID] {
		h.leave(name, connID)
	}
	delete(h.memberships, connID)
}

func (h *Hub) leave(name, connID string) {
	r, exists := h.rooms[name]
	if !exists {
		return
	}
	delete(r, connID)
	if m, ok := h.memberships[connID]; ok {
		delete(m, name)
		if len(m) == 0 {
			delete(h.memberships, connID)
		}
	}

	if len(r) == 0 {
		delete(h.rooms, name)
		h.logger.Debug("room removed", "room", name)
	}
}

func (h *Hub) MembersOf(name string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]string, 0, len(h.rooms[name]))
	for id := range h.rooms[name] {
		members = append(members, id)
	}
	sort.Strings(members)
	return members
}

func (h *Hub) RoomsOf(connID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.memberships[connID]))
	for name := range h.memberships[connID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *Hub) Deliver(name string, frame []byte, exclude string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id := range h.rooms[name] {
		if id == exclude {
			continue
		}
		conn, ok := h.conns.Connection(id)
		if !ok {
			continue
		}
		h.send(conn, frame)
	}
}

func (h *Hub) DeliverAll(frame []byte, exclude string) {
	for _, conn := range h.conns.Connections() {
		if conn.ID() == exclude {
			continue
		}
		h.send(conn, frame)
	}
}

// send never retries. A recipient that cannot keep up is closed, which
// makes its socket loop unregister it.
func (h *Hub) send(conn domain.Connection, frame []byte) {
	if err := conn.Send(frame); err != nil {
		h.logger.Warn("dropping slow client", "clientId", conn.ID(), "error", err)
		go func(c domain.Connection) {
			c.Close()
		}(conn)
	}
}

func (h *Hub) Stats() (rooms, members int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, r := range h.rooms {
		members += len(r)
	}
	return rooms, members
}
