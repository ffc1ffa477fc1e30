package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/api"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/auth"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/config"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/hub"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/protocol"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/registry"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/relay"
	ws "github.com/marcussviniciusa/recantoverdev5-2-sub001/websocket"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the notification relay",
	Example: `  recanto-relay serve
  recanto-relay serve --config relay.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadAndValidate(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	return serve(cmd.Context(), cfg, logger)
}

// serve runs until ctx is cancelled, then drains the HTTP server.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := registry.New()
	rooms := hub.New(reg, logger)
	rel := relay.New(reg, rooms,
		relay.WithLogger(logger),
		relay.WithStatusInterval(cfg.Relay.StatusInterval),
	)

	handlerOpts := []protocol.Option{protocol.WithLogger(logger)}
	apiOpts := []api.Option{
		api.WithLogger(logger),
		api.WithProducerKey(cfg.Producer.Key),
		api.WithSocketOptions(ws.Options{
			WriteWait:      cfg.WebSocket.WriteWait,
			PongWait:       cfg.WebSocket.PongWait,
			MaxMessageSize: cfg.WebSocket.MaxMessageSize,
			SendBuffer:     cfg.WebSocket.SendBuffer,
		}),
	}
	if cfg.Auth.JWTSecret != "" {
		verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
		if err != nil {
			return fmt.Errorf("create verifier: %w", err)
		}
		handlerOpts = append(handlerOpts, protocol.WithVerifier(verifier))
		apiOpts = append(apiOpts, api.WithVerifier(verifier))
	}
	handler := protocol.NewHandler(rel, handlerOpts...)

	srv := api.NewServer(rel, handler, apiOpts...)

	if err := rel.Start(ctx, rooms); err != nil {
		return fmt.Errorf("start relay: %w", err)
	}
	defer rel.Stop()

	server := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port, "tokenAuth", cfg.Auth.JWTSecret != "")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	return nil
}
