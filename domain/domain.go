package domain

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleReceptionist Role = "recepcionista"
	RoleWaiter       Role = "garcom"
	RoleKitchen      Role = "cozinha"
)

// Identity is the authenticated user bound to a connection.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func RoleRoom(r Role) string { return "role_" + string(r) }

func WaiterRoom(id string) string { return "waiter_" + id }

// Envelope is the notification delivered to clients. It is built once per
// delivery target and never modified afterwards.
type Envelope struct {
	Type      EventType       `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	Status    string          `json:"status,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Frame is the wire unit exchanged over the socket in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeFrame marshals an outbound event with its payload.
func EncodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// RoomDirectory tracks which connections belong to which named rooms.
type RoomDirectory interface {
	Join(room, connID string)
	Leave(room, connID string)
	LeaveAll(connID string)
	MembersOf(room string) []string
}

// Transport delivers encoded frames to room members. An empty exclude
// means nobody is skipped.
type Transport interface {
	Deliver(room string, frame []byte, exclude string)
	DeliverAll(frame []byte, exclude string)
}

type MessageHandler interface {
	Handle(conn Connection, data []byte)
}

// Lifecycle is notified when a socket opens and closes.
type Lifecycle interface {
	Connect(conn Connection)
	Disconnect(conn Connection)
}
