package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type EventType string

const (
	EventOrderCreated       EventType = "order_created"
	EventOrderStatusUpdated EventType = "order_status_updated"
	EventTableOccupied      EventType = "table_occupied"
	EventTableFreed         EventType = "table_freed"
	EventPaymentRegistered  EventType = "payment_registered"
	EventUserCreated        EventType = "user_created"
	EventSystemBroadcast    EventType = "system_broadcast"
)

var ErrUnknownEvent = errors.New("unknown event")

// Event is a domain occurrence reported by a producer. The concrete type
// fixes the payload schema for each tag.
type Event interface {
	Type() EventType
}

// Ref is a reference to another document. Producers send either the bare id
// or the populated object, so both forms decode.
type Ref struct {
	ID       string `json:"_id,omitempty"`
	Number   *int   `json:"number,omitempty"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		return json.Unmarshal(data, &r.ID)
	}
	type plain Ref
	return json.Unmarshal(data, (*plain)(r))
}

type Order struct {
	ID     string            `json:"_id,omitempty"`
	Status string            `json:"status,omitempty"`
	Table  *Ref              `json:"tableId,omitempty"`
	Waiter *Ref              `json:"waiterId,omitempty"`
	Items  []json.RawMessage `json:"items"`

	Raw json.RawMessage `json:"-"`
}

type Table struct {
	ID     string `json:"_id,omitempty"`
	Number *int   `json:"number,omitempty"`
	Status string `json:"status,omitempty"`

	Raw json.RawMessage `json:"-"`
}

type Payment struct {
	ID     string   `json:"_id,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
	Method string   `json:"method,omitempty"`
	Table  *Ref     `json:"tableId,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// User is the public part of a user document. Anything else the producer
// sends, credentials included, is discarded at decode time.
type User struct {
	ID       string `json:"_id,omitempty"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

type OrderCreated struct{ Order Order }
type OrderStatusUpdated struct{ Order Order }
type TableOccupied struct{ Table Table }
type TableFreed struct{ Table Table }
type PaymentRegistered struct{ Payment Payment }
type UserCreated struct{ User User }
type SystemBroadcast struct{ Message string }

func (OrderCreated) Type() EventType       { return EventOrderCreated }
func (OrderStatusUpdated) Type() EventType { return EventOrderStatusUpdated }
func (TableOccupied) Type() EventType      { return EventTableOccupied }
func (TableFreed) Type() EventType         { return EventTableFreed }
func (PaymentRegistered) Type() EventType  { return EventPaymentRegistered }
func (UserCreated) Type() EventType        { return EventUserCreated }
func (SystemBroadcast) Type() EventType    { return EventSystemBroadcast }

// DecodeEvent turns an event name and its JSON payload into a typed event.
// Unrecognized names yield ErrUnknownEvent.
func DecodeEvent(name string, data json.RawMessage) (Event, error) {
	switch EventType(name) {
	case EventOrderCreated, EventOrderStatusUpdated:
		var o Order
		if err := decodeSnapshot(data, &o); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		o.Raw = data
		if EventType(name) == EventOrderCreated {
			return OrderCreated{Order: o}, nil
		}
		return OrderStatusUpdated{Order: o}, nil
	case EventTableOccupied, EventTableFreed:
		var t Table
		if err := decodeSnapshot(data, &t); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		t.Raw = data
		if EventType(name) == EventTableOccupied {
			return TableOccupied{Table: t}, nil
		}
		return TableFreed{Table: t}, nil
	case EventPaymentRegistered:
		var p Payment
		if err := decodeSnapshot(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		p.Raw = data
		return PaymentRegistered{Payment: p}, nil
	case EventUserCreated:
		var u User
		if err := decodeSnapshot(data, &u); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return UserCreated{User: u}, nil
	case EventSystemBroadcast:
		var msg string
		if err := decodeSnapshot(data, &msg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return SystemBroadcast{Message: msg}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
}

func decodeSnapshot(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty payload")
	}
	return json.Unmarshal(data, v)
}
