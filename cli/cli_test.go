package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/api"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/config"
)

func TestEmit(t *testing.T) {
	var got api.EventRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"emit", "system_broadcast", `"fechando"`,
		"--url", srv.URL,
		"--key", "k1",
		"--sender-id", "R1",
		"--sender-role", "recepcionista",
	})

	require.NoError(t, Execute(context.Background()))

	assert.Equal(t, "Bearer k1", auth)
	assert.Equal(t, "system_broadcast", got.Event)
	assert.JSONEq(t, `"fechando"`, string(got.Data))
	require.NotNil(t, got.Sender)
	assert.Equal(t, "R1", got.Sender.ID)
	assert.Contains(t, out.String(), "system_broadcast accepted")
}

func TestEmit_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"unknown event"}`))
	}))
	defer srv.Close()

	rootCmd.SetArgs([]string{"emit", "bogus", `{}`, "--url", srv.URL, "--sender-id", ""})
	err := Execute(context.Background())
	assert.ErrorContains(t, err, "unknown event")

	rootCmd.SetArgs([]string{"emit", "table_freed", `{not json`, "--url", srv.URL})
	err = Execute(context.Background())
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Port = "0"
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Relay.StatusInterval = time.Hour
	cfg.WebSocket.WriteWait = time.Second
	cfg.WebSocket.PongWait = time.Second
	cfg.WebSocket.MaxMessageSize = 1024
	cfg.WebSocket.SendBuffer = 8
	cfg.Auth.JWTSecret = "secret"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, newLogger(cfg.Log, io.Discard)) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
