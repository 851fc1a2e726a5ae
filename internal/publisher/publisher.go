// Package publisher emits domain messages to Kafka so downstream
// consumers (notifications, analytics) can react to campus activity.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/campushq/campus-events/internal/config"
	"github.com/campushq/campus-events/internal/model"
	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Message types carried in the envelope and the message_type header.
const (
	TypeEventCreated        = "event.created"
	TypeEventCancelled      = "event.cancelled"
	TypeEventCompleted      = "event.completed"
	TypeRegistrationCreated = "registration.created"
	TypeRegistrationRemoved = "registration.removed"
)

// Publisher is the outbound message surface. Implementations must be
// safe for concurrent use.
type Publisher interface {
	EventCreated(ctx context.Context, event *model.Event) error
	EventCancelled(ctx context.Context, event *model.Event) error
	EventCompleted(ctx context.Context, event *model.Event) error
	RegistrationCreated(ctx context.Context, res *model.RegistrationResult) error
	RegistrationRemoved(ctx context.Context, res *model.RegistrationResult) error
	Close()
}

// Envelope is the wire shape of every message.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type eventPayload struct {
	EventID   string `json:"event_id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	Location  string `json:"location"`
	Status    string `json:"status"`
	Capacity  int    `json:"capacity"`
	Attendees int    `json:"attendees"`
}

type registrationPayload struct {
	EventID   string  `json:"event_id"`
	UserID    string  `json:"user_id"`
	Attendees int     `json:"attendees"`
	Capacity  int     `json:"capacity"`
	FillRatio float64 `json:"fill_ratio"`
}

// Kafka publishes messages to a single topic keyed by event ID, so all
// messages about one event land in the same partition, in order.
type Kafka struct {
	client *kgo.Client
	topic  string
	source string
}

// NewKafka connects to the brokers and verifies them with a ping.
func NewKafka(ctx context.Context, cfg config.KafkaConfig) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}
	return &Kafka{client: client, topic: cfg.Topic, source: cfg.ClientID}, nil
}

func (k *Kafka) EventCreated(ctx context.Context, event *model.Event) error {
	return k.publish(ctx, TypeEventCreated, event.ID, eventToPayload(event))
}

func (k *Kafka) EventCancelled(ctx context.Context, event *model.Event) error {
	return k.publish(ctx, TypeEventCancelled, event.ID, eventToPayload(event))
}

func (k *Kafka) EventCompleted(ctx context.Context, event *model.Event) error {
	return k.publish(ctx, TypeEventCompleted, event.ID, eventToPayload(event))
}

func (k *Kafka) RegistrationCreated(ctx context.Context, res *model.RegistrationResult) error {
	return k.publish(ctx, TypeRegistrationCreated, res.EventID, registrationToPayload(res))
}

func (k *Kafka) RegistrationRemoved(ctx context.Context, res *model.RegistrationResult) error {
	return k.publish(ctx, TypeRegistrationRemoved, res.EventID, registrationToPayload(res))
}

// Close flushes buffered records and releases the client.
func (k *Kafka) Close() {
	k.client.Close()
}

func (k *Kafka) publish(ctx context.Context, msgType, key string, payload any) error {
	env := Envelope{
		ID:         uuid.New().String(),
		Type:       msgType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msgType, err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "message_type", Value: []byte(msgType)},
			{Key: "source", Value: []byte(k.source)},
			{Key: "content_type", Value: []byte("application/json")},
		},
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", msgType, err)
	}
	return nil
}

func eventToPayload(e *model.Event) eventPayload {
	return eventPayload{
		EventID:   e.ID,
		Name:      e.Name,
		Date:      e.Date,
		StartTime: e.StartTime,
		Location:  e.Location,
		Status:    string(e.Status),
		Capacity:  e.Capacity,
		Attendees: e.AttendeeCount(),
	}
}

func registrationToPayload(res *model.RegistrationResult) registrationPayload {
	return registrationPayload{
		EventID:   res.EventID,
		UserID:    res.UserID,
		Attendees: res.Attendees,
		Capacity:  res.Capacity,
		FillRatio: res.FillRatio,
	}
}

// Noop satisfies Publisher when messaging is disabled or unreachable.
type Noop struct{}

// NewNoop returns a publisher that drops everything.
func NewNoop() *Noop { return &Noop{} }

func (*Noop) EventCreated(context.Context, *model.Event) error   { return nil }
func (*Noop) EventCancelled(context.Context, *model.Event) error { return nil }
func (*Noop) EventCompleted(context.Context, *model.Event) error { return nil }
func (*Noop) RegistrationCreated(context.Context, *model.RegistrationResult) error {
	return nil
}
func (*Noop) RegistrationRemoved(context.Context, *model.RegistrationResult) error {
	return nil
}
func (*Noop) Close() {}
