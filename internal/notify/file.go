package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileSender writes every message as a JSON file into an outbox directory
type FileSender struct {
	dir string
	now func() time.Time
}

type outboxEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Message
}

// NewFileSender creates a sender that writes into dir
func NewFileSender(dir string) *FileSender {
	return &FileSender{dir: dir, now: time.Now}
}

// Send writes the message to <timestamp>_<id>.json
func (s *FileSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Receipt{}, fmt.Errorf("failed to create outbox: %w", err)
	}

	entry := outboxEntry{
		ID:        uuid.NewString(),
		Timestamp: s.now().UTC(),
		Message:   msg,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to encode email: %w", err)
	}

	stamp := strings.ReplaceAll(entry.Timestamp.Format(time.RFC3339Nano), ":", "-")
	name := fmt.Sprintf("%s_%s.json", stamp, entry.ID)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return Receipt{}, fmt.Errorf("failed to write email: %w", err)
	}

	log.Printf("[EMAIL] Saved to outbox: %s (to=%s, subject=%q)", name, msg.To, msg.Subject)
	return Receipt{Delivered: true, ID: entry.ID}, nil
}
