package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   string
		data    string
		check   func(t *testing.T, ev Event)
		wantErr bool
	}{
		{
			name:  "populated order",
			event: "order_created",
			data:  `{"_id":"o1","tableId":{"_id":"t1","number":5},"waiterId":{"_id":"W1","username":"joao"},"items":[{},{}]}`,
			check: func(t *testing.T, ev Event) {
				o := ev.(OrderCreated).Order
				require.NotNil(t, o.Table)
				assert.Equal(t, 5, *o.Table.Number)
				assert.Equal(t, "W1", o.Waiter.ID)
				assert.Len(t, o.Items, 2)
				assert.NotEmpty(t, o.Raw)
			},
		},
		{
			name:  "unpopulated refs decode as ids",
			event: "order_status_updated",
			data:  `{"status":"pronto","tableId":"t1","waiterId":"W1"}`,
			check: func(t *testing.T, ev Event) {
				o := ev.(OrderStatusUpdated).Order
				assert.Equal(t, "t1", o.Table.ID)
				assert.Nil(t, o.Table.Number)
				assert.Equal(t, "W1", o.Waiter.ID)
				assert.Equal(t, "pronto", o.Status)
			},
		},
		{
			name:  "table freed",
			event: "table_freed",
			data:  `{"_id":"t1","number":3}`,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, EventTableFreed, ev.Type())
				assert.Equal(t, 3, *ev.(TableFreed).Table.Number)
			},
		},
		{
			name:  "payment",
			event: "payment_registered",
			data:  `{"amount":45.9,"tableId":{"number":2}}`,
			check: func(t *testing.T, ev Event) {
				p := ev.(PaymentRegistered).Payment
				assert.InDelta(t, 45.9, *p.Amount, 0.0001)
			},
		},
		{
			name:  "user drops credentials",
			event: "user_created",
			data:  `{"_id":"u1","username":"ana","role":"garcom","password":"hash"}`,
			check: func(t *testing.T, ev Event) {
				u := ev.(UserCreated).User
				out, err := json.Marshal(u)
				require.NoError(t, err)
				assert.NotContains(t, string(out), "password")
				assert.Equal(t, RoleWaiter, u.Role)
			},
		},
		{
			name:  "system broadcast",
			event: "system_broadcast",
			data:  `"fechamos em 10 minutos"`,
			check: func(t *testing.T, ev Event) {
				assert.Equal(t, "fechamos em 10 minutos", ev.(SystemBroadcast).Message)
			},
		},
		{
			name:    "unknown event",
			event:   "order_deleted",
			data:    `{}`,
			wantErr: true,
		},
		{
			name:    "empty payload",
			event:   "table_occupied",
			data:    ``,
			wantErr: true,
		},
		{
			name:    "wrong payload shape",
			event:   "system_broadcast",
			data:    `{"message":"x"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent(tt.event, json.RawMessage(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, ev)
		})
	}
}

func TestDecodeEvent_UnknownIsSentinel(t *testing.T) {
	_, err := DecodeEvent("bogus", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestRoomNames(t *testing.T) {
	assert.Equal(t, "role_recepcionista", RoleRoom(RoleReceptionist))
	assert.Equal(t, "waiter_W1", WaiterRoom("W1"))
}
