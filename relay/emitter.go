package relay

import (
	"errors"
	"log/slog"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/domain"
)

// Emitter is the producer-facing side of the relay. Every method is a no-op
// when the relay is nil or not started, so callers emit unconditionally.
type Emitter struct {
	relay  *Relay
	logger *slog.Logger
}

func NewEmitter(r *Relay) *Emitter {
	logger := slog.Default()
	if r != nil {
		logger = r.logger
	}
	return &Emitter{relay: r, logger: logger}
}

func (e *Emitter) OrderCreated(o domain.Order) {
	e.emit(nil, domain.OrderCreated{Order: o})
}

func (e *Emitter) OrderStatusUpdated(o domain.Order) {
	e.emit(nil, domain.OrderStatusUpdated{Order: o})
}

func (e *Emitter) TableOccupied(t domain.Table) {
	e.emit(nil, domain.TableOccupied{Table: t})
}

func (e *Emitter) TableFreed(t domain.Table) {
	e.emit(nil, domain.TableFreed{Table: t})
}

func (e *Emitter) PaymentRegistered(p domain.Payment) {
	e.emit(nil, domain.PaymentRegistered{Payment: p})
}

func (e *Emitter) UserCreated(u domain.User) {
	e.emit(nil, domain.UserCreated{User: u})
}

// SystemBroadcast is delivered only when from is a receptionist.
func (e *Emitter) SystemBroadcast(from domain.Identity, message string) {
	e.emit(&from, domain.SystemBroadcast{Message: message})
}

// Emit publishes an already decoded event and reports why it was dropped,
// if it was. A nil or detached emitter yields ErrNotStarted.
func (e *Emitter) Emit(from *domain.Identity, ev domain.Event) error {
	if e == nil || e.relay == nil {
		return ErrNotStarted
	}
	return e.relay.PublishAs(from, ev)
}

func (e *Emitter) emit(from *domain.Identity, ev domain.Event) {
	if err := e.Emit(from, ev); err != nil {
		if errors.Is(err, ErrNotStarted) {
			return
		}
		e.logger.Warn("event dropped", "event", ev.Type(), "error", err)
	}
}
