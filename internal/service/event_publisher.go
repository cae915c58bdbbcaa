package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prohmpiriya/entrygate/internal/domain"
	"github.com/prohmpiriya/entrygate/pkg/kafka"
)

// EventPublisher defines the interface for publishing stream events
type EventPublisher interface {
	// PublishTicketsIssued publishes a ticket.issued event
	PublishTicketsIssued(ctx context.Context, eventID string, payload *domain.TicketsIssuedPayload) error

	// PublishEntryAdmitted publishes an entry.admitted event
	PublishEntryAdmitted(ctx context.Context, eventID string, payload *domain.EntryAdmittedPayload) error

	// PublishReservationsSwept publishes a reservations.swept event
	PublishReservationsSwept(ctx context.Context, count int64) error

	// PublishTicketTransition publishes a refund/cancel event
	PublishTicketTransition(ctx context.Context, eventType domain.TicketEventType, eventID string, payload *domain.TicketTransitionPayload) error

	// Close closes the event publisher
	Close() error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    *kafka.Producer
	topic       string
	serviceName string
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "entrygate-events"
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "entrygate"
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "entrygate-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		BatchSize:     100,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

// PublishTicketsIssued publishes a ticket.issued event
func (p *KafkaEventPublisher) PublishTicketsIssued(ctx context.Context, eventID string, payload *domain.TicketsIssuedPayload) error {
	return p.publish(ctx, domain.TicketEventIssued, eventID, payload)
}

// PublishEntryAdmitted publishes an entry.admitted event
func (p *KafkaEventPublisher) PublishEntryAdmitted(ctx context.Context, eventID string, payload *domain.EntryAdmittedPayload) error {
	return p.publish(ctx, domain.TicketEventEntry, eventID, payload)
}

// PublishReservationsSwept publishes a reservations.swept event. Sweeps are
// not scoped to a single venue event, so the envelope carries no event id.
func (p *KafkaEventPublisher) PublishReservationsSwept(ctx context.Context, count int64) error {
	return p.publish(ctx, domain.TicketEventSwept, "", &domain.ReservationsSweptPayload{
		Count: count,
		At:    time.Now(),
	})
}

// PublishTicketTransition publishes a refund/cancel event
func (p *KafkaEventPublisher) PublishTicketTransition(ctx context.Context, eventType domain.TicketEventType, eventID string, payload *domain.TicketTransitionPayload) error {
	return p.publish(ctx, eventType, eventID, payload)
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

func (p *KafkaEventPublisher) publish(ctx context.Context, eventType domain.TicketEventType, eventID string, payload interface{}) error {
	event := &domain.TicketEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		EventID:    eventID,
		OccurredAt: time.Now(),
		Payload:    payload,
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := event.Key()
	if key == "" {
		key = event.ID
	}

	headers := map[string]string{
		"event_type":   string(eventType),
		"event_id":     event.ID,
		"source":       p.serviceName,
		"content_type": "application/json",
	}

	msg := &kafka.Message{
		Topic:     p.topic,
		Key:       []byte(key),
		Value:     value,
		Headers:   headers,
		Timestamp: time.Now(),
	}

	if err := p.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// NoOpEventPublisher is a no-op implementation of EventPublisher for testing
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

func (p *NoOpEventPublisher) PublishTicketsIssued(ctx context.Context, eventID string, payload *domain.TicketsIssuedPayload) error {
	return nil
}

func (p *NoOpEventPublisher) PublishEntryAdmitted(ctx context.Context, eventID string, payload *domain.EntryAdmittedPayload) error {
	return nil
}

func (p *NoOpEventPublisher) PublishReservationsSwept(ctx context.Context, count int64) error {
	return nil
}

func (p *NoOpEventPublisher) PublishTicketTransition(ctx context.Context, eventType domain.TicketEventType, eventID string, payload *domain.TicketTransitionPayload) error {
	return nil
}

func (p *NoOpEventPublisher) Close() error {
	return nil
}
