// Package events publishes configurator domain events.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"pcbuild/core/types"
	"pcbuild/internal/errors"
	"pcbuild/internal/logging"
)

// SubjectSaved is the default subject for saved-configuration events
const SubjectSaved = "configurator.saved"

// Publisher sends an event payload to a subject
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
	Close() error
}

// ConfigurationSaved is emitted after a build is persisted
type ConfigurationSaved struct {
	ConfigurationID string                    `json:"configuration_id"`
	SessionID       string                    `json:"session_id,omitempty"`
	OwnerID         string                    `json:"owner_id,omitempty"`
	Name            string                    `json:"name"`
	TotalPrice      string                    `json:"total_price"`
	Components      map[types.Category]string `json:"components"`
	SavedAt         time.Time                 `json:"saved_at"`
}

// NewConfigurationSaved builds the event for a stored configuration
func NewConfigurationSaved(sessionID string, cfg *types.SavedConfiguration) ConfigurationSaved {
	return ConfigurationSaved{
		ConfigurationID: cfg.ID,
		SessionID:       sessionID,
		OwnerID:         cfg.OwnerID,
		Name:            cfg.Name,
		TotalPrice:      cfg.TotalPrice.StringFixed(2),
		Components:      cfg.Components,
		SavedAt:         cfg.CreatedAt,
	}
}

// headerCarrier adapts nats.Msg headers for trace propagation
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// encode serializes v as JSON and injects trace context into the headers
func encode(ctx context.Context, subject string, v any) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Internal("failed to encode event", err)
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	return msg, nil
}

// NATSPublisher publishes JSON events over a NATS connection
type NATSPublisher struct {
	nc *nats.Conn
}

// Connect dials NATS and returns a publisher
func Connect(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("pcbuild"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, errors.Wrap(errors.TypeNetwork, "failed to connect to nats", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, v any) error {
	msg, err := encode(ctx, subject, v)
	if err != nil {
		return err
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return errors.Wrap(errors.TypeNetwork, "failed to publish event", err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// Nop discards events
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

// Recorded is one event captured by a Recorder
type Recorded struct {
	Subject string
	Data    []byte
}

func (r *Recorder) Publish(ctx context.Context, subject string, v any) error {
	msg, err := encode(ctx, subject, v)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{Subject: subject, Data: msg.Data})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Snapshot returns a copy of the recorded events
func (r *Recorder) Snapshot() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.Events))
	copy(out, r.Events)
	return out
}

// New returns a NATS publisher when url is set and Nop otherwise. A failed
// dial is logged and degrades to Nop.
func New(url string) Publisher {
	if url == "" {
		return Nop{}
	}
	p, err := Connect(url)
	if err != nil {
		logging.Warn("event publishing disabled", zap.String("nats_url", url), zap.Error(err))
		return Nop{}
	}
	return p
}
