package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marcussviniciusa/recantoverdev5-2-sub001/api"
	"github.com/marcussviniciusa/recantoverdev5-2-sub001/domain"
)

var (
	emitURL      string
	emitKey      string
	emitSenderID string
	emitRole     string
	emitUsername string
)

var emitCmd = &cobra.Command{
	Use:   "emit <event> <json>",
	Short: "Send a domain event to a running relay",
	Long: `Emit posts one domain event to the producer endpoint of a running
relay. Seed and maintenance scripts use it to notify connected clients.`,
	Example: `  recanto-relay emit table_freed '{"_id":"t1","number":4}'
  recanto-relay emit system_broadcast '"Cozinha fecha em 10 minutos"' --sender-id u1 --sender-role recepcionista`,
	Args: cobra.ExactArgs(2),
	RunE: runEmit,
}

func init() {
	rootCmd.AddCommand(emitCmd)

	emitCmd.Flags().StringVar(&emitURL, "url", "http://localhost:8080", "base URL of the relay")
	emitCmd.Flags().StringVar(&emitKey, "key", os.Getenv("PRODUCER_KEY"), "producer key")
	emitCmd.Flags().StringVar(&emitSenderID, "sender-id", "", "user id the event is sent on behalf of")
	emitCmd.Flags().StringVar(&emitRole, "sender-role", "", "role of the sender")
	emitCmd.Flags().StringVar(&emitUsername, "sender-username", "", "username of the sender")
}

func runEmit(cmd *cobra.Command, args []string) error {
	req := api.EventRequest{Event: args[0], Data: json.RawMessage(args[1])}
	if !json.Valid(req.Data) {
		return fmt.Errorf("payload is not valid JSON")
	}
	if emitSenderID != "" {
		req.Sender = &domain.Identity{ID: emitSenderID, Username: emitUsername, Role: domain.Role(emitRole)}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
		strings.TrimRight(emitURL, "/")+"/api/events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if emitKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+emitKey)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("relay rejected event: %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s accepted\n", args[0])
	return nil
}
