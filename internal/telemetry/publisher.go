// Package telemetry publishes best-effort cart-change events over NATS for
// off-device analytics. It never participates in synchronization: contexts
// converge through the shared storage alone.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/benyxel/shopsync/internal/config"
	"github.com/benyxel/shopsync/internal/logfields"
)

// ChangeEvent is the published payload for a store change.
type ChangeEvent struct {
	ContextID string    `json:"context_id"`
	EntryKey  string    `json:"entry_key"`
	ItemCount int       `json:"item_count"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher manages the NATS connection for cart-change telemetry.
type Publisher struct {
	conn      *nats.Conn
	js        jetstream.JetStream
	subject   string
	contextID string
}

// NewPublisher connects to NATS. Returns an error when telemetry is
// disabled in the config; callers treat a nil Publisher as a no-op.
func NewPublisher(cfg config.TelemetryConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("telemetry is disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &Publisher{
		conn:      conn,
		js:        js,
		subject:   cfg.Subject,
		contextID: uuid.NewString(),
	}

	slog.Info("Telemetry publisher initialized",
		slog.String("url", cfg.NATSURL),
		slog.String("subject", cfg.Subject),
		slog.String("context_id", p.contextID))
	return p, nil
}

// PublishChange publishes a change event, fire-and-forget. A nil receiver
// is a no-op so callers need no enabled check.
func (p *Publisher) PublishChange(entryKey string, itemCount int) {
	if p == nil {
		return
	}

	event := ChangeEvent{
		ContextID: p.contextID,
		EntryKey:  entryKey,
		ItemCount: itemCount,
		Timestamp: time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Warn("Telemetry event marshal failed", logfields.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		slog.Debug("Telemetry publish failed", logfields.EntryKey(entryKey), logfields.Error(err))
		return
	}
	slog.Debug("Published change event", logfields.EntryKey(entryKey))
}

// Close drains the NATS connection. Safe on nil.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.conn.Close()
}
