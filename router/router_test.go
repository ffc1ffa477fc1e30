package router

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/domain"
)

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func newTestRouter() *Router {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func decode(t *testing.T, event, data string) domain.Event {
	t.Helper()
	ev, err := domain.DecodeEvent(event, json.RawMessage(data))
	require.NoError(t, err)
	return ev
}

func rooms(ds []Delivery) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Room)
	}
	return out
}

func TestRoute_OrderCreated(t *testing.T) {
	ev := decode(t, "order_created", `{"_id":"o1","tableId":{"number":7},"items":[{"qty":1},{"qty":2}]}`)

	ds, err := newTestRouter().Route(ev, nil)
	require.NoError(t, err)
	require.Len(t, ds, 1)

	d := ds[0]
	assert.Equal(t, "role_recepcionista", d.Room)
	assert.Equal(t, OutNewOrder, d.Event)
	assert.False(t, d.Broadcast)
	assert.Equal(t, "Novo Pedido! 🔔", d.Envelope.Title)
	assert.Equal(t, "Mesa 7 - 2 item(s)", d.Envelope.Message)
	assert.Equal(t, domain.EventOrderCreated, d.Envelope.Type)
	assert.Equal(t, fixedNow, d.Envelope.Timestamp)
	assert.JSONEq(t, `{"_id":"o1","tableId":{"number":7},"items":[{"qty":1},{"qty":2}]}`, string(d.Envelope.Data))
}

func TestRoute_OrderStatusUpdated(t *testing.T) {
	tests := []struct {
		name      string
		status    string
		wantRooms []string
		wantTitle string
	}{
		{
			name:      "preparing notifies the waiter",
			status:    "preparando",
			wantRooms: []string{"waiter_W1"},
			wantTitle: "Pedido em Preparo 👨‍🍳",
		},
		{
			name:      "ready notifies waiter and reception",
			status:    "pronto",
			wantRooms: []string{"waiter_W1", "role_recepcionista"},
			wantTitle: "Pedido Pronto! 🍽️",
		},
		{
			name:      "delivered notifies reception",
			status:    "entregue",
			wantRooms: []string{"role_recepcionista"},
			wantTitle: "Pedido Entregue ✅",
		},
		{
			name:      "cancelled is not routed",
			status:    "cancelado",
			wantRooms: []string{},
		},
		{
			name:      "pending is not routed",
			status:    "pendente",
			wantRooms: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := decode(t, "order_status_updated",
				`{"status":"`+tt.status+`","waiterId":{"_id":"W1"},"tableId":{"number":5}}`)

			ds, err := newTestRouter().Route(ev, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRooms, rooms(ds))

			for _, d := range ds {
				assert.Equal(t, OutOrderNotification, d.Event)
				assert.Equal(t, tt.wantTitle, d.Envelope.Title)
				assert.Equal(t, tt.status, d.Envelope.Status)
				assert.Contains(t, d.Envelope.Message, "Mesa 5")
			}
		})
	}
}

func TestRoute_Tables(t *testing.T) {
	occupied, err := newTestRouter().Route(decode(t, "table_occupied", `{"number":3}`), nil)
	require.NoError(t, err)
	require.Len(t, occupied, 1)
	assert.Equal(t, "role_recepcionista", occupied[0].Room)
	assert.Equal(t, OutTableNotification, occupied[0].Event)
	assert.Equal(t, "Mesa Ocupada 🪑", occupied[0].Envelope.Title)
	assert.Equal(t, "Mesa 3 foi ocupada", occupied[0].Envelope.Message)

	freed, err := newTestRouter().Route(decode(t, "table_freed", `{"number":3}`), nil)
	require.NoError(t, err)
	require.Len(t, freed, 1)
	assert.Equal(t, "Mesa Disponível ✨", freed[0].Envelope.Title)
	assert.Equal(t, "Mesa 3 está disponível", freed[0].Envelope.Message)
}

func TestRoute_PaymentRegistered(t *testing.T) {
	twoDecimals := regexp.MustCompile(`R\$ \d+,\d{2}$`)

	for _, amount := range []string{"45.9", "12", "0.5", "99.999"} {
		t.Run(amount, func(t *testing.T) {
			ev := decode(t, "payment_registered", `{"amount":`+amount+`,"tableId":{"number":2}}`)

			ds, err := newTestRouter().Route(ev, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"role_recepcionista"}, rooms(ds))
			assert.Equal(t, OutPaymentNotification, ds[0].Event)
			assert.Equal(t, "Pagamento Recebido 💰", ds[0].Envelope.Title)
			assert.Regexp(t, twoDecimals, ds[0].Envelope.Message)
		})
	}

	ds, err := newTestRouter().Route(decode(t, "payment_registered", `{"amount":45.9,"tableId":{"number":2}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "Mesa 2 - R$ 45,90", ds[0].Envelope.Message)

	ds, err = newTestRouter().Route(decode(t, "payment_registered", `{"amount":10}`), nil)
	require.NoError(t, err)
	assert.Equal(t, "R$ 10,00", ds[0].Envelope.Message)
}

func TestRoute_UserCreated(t *testing.T) {
	ds, err := newTestRouter().Route(decode(t, "user_created", `{"_id":"u1","username":"ana","role":"garcom"}`), nil)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "role_recepcionista", ds[0].Room)
	assert.Equal(t, OutUserNotification, ds[0].Event)
	assert.Equal(t, "Novo Usuário 👤", ds[0].Envelope.Title)
	assert.Equal(t, "ana foi cadastrado como Garçom", ds[0].Envelope.Message)
}

func TestRoute_SystemBroadcast(t *testing.T) {
	ev := decode(t, "system_broadcast", `"fechamos em 10 minutos"`)

	receptionist := &domain.Identity{ID: "R1", Role: domain.RoleReceptionist}
	ds, err := newTestRouter().Route(ev, receptionist)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.True(t, ds[0].Broadcast)
	assert.Equal(t, OutSystemNotification, ds[0].Event)
	assert.Equal(t, "fechamos em 10 minutos", ds[0].Envelope.Message)

	for _, sender := range []*domain.Identity{
		nil,
		{ID: "W1", Role: domain.RoleWaiter},
		{ID: "A1", Role: domain.RoleAdmin},
	} {
		ds, err := newTestRouter().Route(ev, sender)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Empty(t, ds)
	}
}

func TestRoute_IncompletePayloads(t *testing.T) {
	tests := []struct {
		event string
		data  string
	}{
		{"order_created", `{"items":[{}]}`},
		{"order_created", `{"tableId":{"number":1}}`},
		{"order_created", `{"tableId":"t1","items":[]}`},
		{"order_status_updated", `{"waiterId":{"_id":"W1"},"tableId":{"number":5}}`},
		{"order_status_updated", `{"status":"pronto","tableId":{"number":5}}`},
		{"order_status_updated", `{"status":"preparando","waiterId":"","tableId":{"number":5}}`},
		{"order_status_updated", `{"status":"entregue"}`},
		{"table_occupied", `{"_id":"t1"}`},
		{"table_freed", `null`},
		{"payment_registered", `{"tableId":{"number":2}}`},
		{"user_created", `{"role":"garcom"}`},
		{"user_created", `{"username":"ana"}`},
	}

	for _, tt := range tests {
		t.Run(tt.event+" "+tt.data, func(t *testing.T) {
			ds, err := newTestRouter().Route(decode(t, tt.event, tt.data), nil)
			assert.ErrorIs(t, err, ErrIncomplete)
			assert.Empty(t, ds)
		})
	}

	_, err := newTestRouter().Route(decode(t, "system_broadcast", `""`),
		&domain.Identity{ID: "R1", Role: domain.RoleReceptionist})
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestRoute_NilEvent(t *testing.T) {
	_, err := newTestRouter().Route(nil, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownEvent)
}
