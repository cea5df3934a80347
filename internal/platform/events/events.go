// Package events publishes engagement events for downstream collaborators.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/id"
	"github.com/MannLester/GovTrackerPH-sub000/internal/platform/telemetry/metrics"
	libnats "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamName is the JetStream stream holding tracker events.
const StreamName = "tracker"

// Event subjects.
const (
	SubjectReactionToggled = "tracker.reaction.toggled"
	SubjectCommentCreated  = "tracker.comment.created"
	SubjectCommentUpdated  = "tracker.comment.updated"
	SubjectCommentDeleted  = "tracker.comment.deleted"
)

// Event is the envelope written to the broker.
type Event struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurredAt"`
	ActorID    string    `json:"actorId"`
	Payload    any       `json:"payload"`
}

// Publisher delivers engagement events.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Noop discards every event.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

// Config selects the broker.
type Config struct {
	URL        string
	InitStream bool
}

// JetStream publishes events to a NATS JetStream stream.
type JetStream struct {
	js jetstream.JetStream
}

// Connect dials NATS and optionally creates the tracker stream.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*JetStream, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		url = libnats.DefaultURL
	}
	nc, err := libnats.Connect(url, libnats.Name("tracker"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("init jetstream: %w", err)
	}
	if cfg.InitStream {
		if logger != nil {
			logger.Info("initializing jetstream stream", "name", StreamName)
		}
		_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:     StreamName,
			Subjects: []string{StreamName + ".>"},
			MaxAge:   7 * 24 * time.Hour,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("create stream: %w", err)
		}
	}
	return &JetStream{js: js}, nil
}

// Publish implements Publisher. The event id doubles as the JetStream
// deduplication id.
func (p *JetStream) Publish(ctx context.Context, evt Event) error {
	if p == nil || p.js == nil {
		return fmt.Errorf("publisher is not configured")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := &libnats.Msg{
		Subject: evt.Subject,
		Data:    data,
		Header: libnats.Header{
			libnats.MsgIdHdr: []string{evt.ID},
		},
	}
	_, err = p.js.PublishMsg(ctx, msg)
	return err
}

// HealthCheck measures a round trip to the server.
func (p *JetStream) HealthCheck() error {
	_, err := p.js.Conn().RTT()
	return err
}

// Close drains the underlying connection.
func (p *JetStream) Close() error {
	if p == nil || p.js == nil {
		return nil
	}
	return p.js.Conn().Drain()
}

// Emitter stamps and publishes events without failing the caller.
type Emitter struct {
	publisher Publisher
	logger    *slog.Logger
	clock     func() time.Time
}

// NewEmitter wraps publisher. A nil publisher discards events.
func NewEmitter(publisher Publisher, logger *slog.Logger) *Emitter {
	if publisher == nil {
		publisher = Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{publisher: publisher, logger: logger, clock: time.Now}
}

// Emit publishes payload under subject. Failures are logged and counted.
func (e *Emitter) Emit(ctx context.Context, subject, actorID string, payload any) {
	if e == nil {
		return
	}
	eventID, err := id.NewID()
	if err != nil {
		e.logger.Warn("event id generation failed", "subject", subject, "error", err)
		return
	}
	err = e.publisher.Publish(context.WithoutCancel(ctx), Event{
		ID:         eventID,
		Subject:    subject,
		OccurredAt: e.clock().UTC(),
		ActorID:    actorID,
		Payload:    payload,
	})
	metrics.ObserveEventPublish(subject, err)
	if err != nil {
		e.logger.Warn("event publish failed", "subject", subject, "event_id", eventID, "error", err)
	}
}
