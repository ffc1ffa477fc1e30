// Package router maps domain events to the rooms that must hear about them
// and builds the notification each room receives. It does no I/O.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/domain"
)

// Outbound event names.
const (
	OutNewOrder            = "new_order"
	OutOrderNotification   = "order_notification"
	OutTableNotification   = "table_notification"
	OutPaymentNotification = "payment_notification"
	OutUserNotification    = "user_notification"
	OutSystemNotification  = "system_notification"
)

// Order statuses that produce a notification.
const (
	StatusPreparing = "preparando"
	StatusReady     = "pronto"
	StatusDelivered = "entregue"
)

var (
	ErrIncomplete = errors.New("incomplete event payload")
	ErrForbidden  = errors.New("sender not allowed to emit event")
)

// Delivery is one routed notification. Broadcast deliveries go to every
// connection, the sender included; all others go to Room minus the sender.
type Delivery struct {
	Room      string
	Event     string
	Envelope  domain.Envelope
	Broadcast bool
}

type Router struct {
	now func() time.Time
}

type Option func(*Router)

// WithClock overrides the envelope timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

func New(opts ...Option) *Router {
	r := &Router{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route resolves the deliveries for ev. sender is the stored identity of the
// emitting connection, nil when unauthenticated or emitted by a producer.
// A nil result with a nil error means the event is intentionally ignored.
func (r *Router) Route(ev domain.Event, sender *domain.Identity) ([]Delivery, error) {
	switch e := ev.(type) {
	case domain.OrderCreated:
		return r.orderCreated(e.Order)
	case domain.OrderStatusUpdated:
		return r.orderStatusUpdated(e.Order)
	case domain.TableOccupied:
		return r.table(e.Type(), e.Table, "Mesa Ocupada 🪑", "foi ocupada")
	case domain.TableFreed:
		return r.table(e.Type(), e.Table, "Mesa Disponível ✨", "está disponível")
	case domain.PaymentRegistered:
		return r.paymentRegistered(e.Payment)
	case domain.UserCreated:
		return r.userCreated(e.User)
	case domain.SystemBroadcast:
		return r.systemBroadcast(e.Message, sender)
	case nil:
		return nil, fmt.Errorf("%w: nil event", domain.ErrUnknownEvent)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEvent, ev.Type())
	}
}

func (r *Router) orderCreated(o domain.Order) ([]Delivery, error) {
	if !hasTableNumber(o.Table) {
		return nil, incomplete(domain.EventOrderCreated, "tableId.number")
	}
	if o.Items == nil {
		return nil, incomplete(domain.EventOrderCreated, "items")
	}

	env := r.envelope(domain.EventOrderCreated, "Novo Pedido! 🔔",
		tableLabel(o.Table.Number)+" - "+itemCount(len(o.Items)), orderData(o))
	return []Delivery{
		{Room: domain.RoleRoom(domain.RoleReceptionist), Event: OutNewOrder, Envelope: env},
	}, nil
}

func (r *Router) orderStatusUpdated(o domain.Order) ([]Delivery, error) {
	const ev = domain.EventOrderStatusUpdated

	var title, suffix string
	var toWaiter, toReception bool
	switch o.Status {
	case StatusPreparing:
		title, suffix, toWaiter = "Pedido em Preparo 👨‍🍳", "está sendo preparado", true
	case StatusReady:
		title, suffix, toWaiter, toReception = "Pedido Pronto! 🍽️", "está pronto para entrega", true, true
	case StatusDelivered:
		title, suffix, toReception = "Pedido Entregue ✅", "foi entregue", true
	case "":
		return nil, incomplete(ev, "status")
	default:
		return nil, nil
	}

	if !hasTableNumber(o.Table) {
		return nil, incomplete(ev, "tableId.number")
	}
	if toWaiter && (o.Waiter == nil || o.Waiter.ID == "") {
		return nil, incomplete(ev, "waiterId._id")
	}

	env := r.envelope(ev, title, "Pedido da "+tableLabel(o.Table.Number)+" "+suffix, orderData(o))
	env.Status = o.Status

	var out []Delivery
	if toWaiter {
		out = append(out, Delivery{Room: domain.WaiterRoom(o.Waiter.ID), Event: OutOrderNotification, Envelope: env})
	}
	if toReception {
		out = append(out, Delivery{Room: domain.RoleRoom(domain.RoleReceptionist), Event: OutOrderNotification, Envelope: env})
	}
	return out, nil
}

func (r *Router) table(ev domain.EventType, t domain.Table, title, suffix string) ([]Delivery, error) {
	if t.Number == nil {
		return nil, incomplete(ev, "number")
	}

	env := r.envelope(ev, title, tableLabel(t.Number)+" "+suffix, snapshot(t.Raw, t))
	return []Delivery{
		{Room: domain.RoleRoom(domain.RoleReceptionist), Event: OutTableNotification, Envelope: env},
	}, nil
}

func (r *Router) paymentRegistered(p domain.Payment) ([]Delivery, error) {
	if p.Amount == nil {
		return nil, incomplete(domain.EventPaymentRegistered, "amount")
	}

	msg := FormatCurrency(*p.Amount)
	if hasTableNumber(p.Table) {
		msg = tableLabel(p.Table.Number) + " - " + msg
	}

	env := r.envelope(domain.EventPaymentRegistered, "Pagamento Recebido 💰", msg, snapshot(p.Raw, p))
	return []Delivery{
		{Room: domain.RoleRoom(domain.RoleReceptionist), Event: OutPaymentNotification, Envelope: env},
	}, nil
}

func (r *Router) userCreated(u domain.User) ([]Delivery, error) {
	name := u.Name
	if name == "" {
		name = u.Username
	}
	if name == "" {
		return nil, incomplete(domain.EventUserCreated, "username")
	}
	if u.Role == "" {
		return nil, incomplete(domain.EventUserCreated, "role")
	}

	env := r.envelope(domain.EventUserCreated, "Novo Usuário 👤",
		name+" foi cadastrado como "+RoleLabel(u.Role), snapshot(nil, u))
	return []Delivery{
		{Room: domain.RoleRoom(domain.RoleReceptionist), Event: OutUserNotification, Envelope: env},
	}, nil
}

func (r *Router) systemBroadcast(msg string, sender *domain.Identity) ([]Delivery, error) {
	if sender == nil || sender.Role != domain.RoleReceptionist {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, domain.EventSystemBroadcast)
	}
	if msg == "" {
		return nil, incomplete(domain.EventSystemBroadcast, "message")
	}

	env := r.envelope(domain.EventSystemBroadcast, "Aviso do Sistema 📢", msg, nil)
	return []Delivery{
		{Event: OutSystemNotification, Envelope: env, Broadcast: true},
	}, nil
}

func (r *Router) envelope(ev domain.EventType, title, msg string, data json.RawMessage) domain.Envelope {
	return domain.Envelope{
		Type:      ev,
		Title:     title,
		Message:   msg,
		Data:      data,
		Timestamp: r.now().UTC(),
	}
}

func hasTableNumber(t *domain.Ref) bool {
	return t != nil && t.Number != nil
}

func orderData(o domain.Order) json.RawMessage {
	return snapshot(o.Raw, o)
}

// snapshot prefers the payload exactly as the producer sent it.
func snapshot(raw json.RawMessage, v any) json.RawMessage {
	if len(raw) > 0 {
		return raw
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func incomplete(ev domain.EventType, field string) error {
	return fmt.Errorf("%w: %s missing %s", ErrIncomplete, ev, field)
}
