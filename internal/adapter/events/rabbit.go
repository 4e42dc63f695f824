package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/bookrow/storefront/internal/core/domain"
)

const (
	// EventsExchange is the topic exchange all storefront events flow
	// through. Consumers bind their own queues against it.
	EventsExchange = "storefront.events"

	OrderConfirmedRoutingKey = "order.confirmed.v1"
	OrderConfirmedEventName  = "OrderConfirmed"
	orderConfirmedVersion    = 1
	producerName             = "storefront"

	publishTimeout = 3 * time.Second
)

// EventEnvelope is the wire format shared by all storefront events.
type EventEnvelope struct {
	EventName    string    `json:"eventName"`
	EventVersion int       `json:"eventVersion"`
	EventID      string    `json:"eventId"`
	Producer     string    `json:"producer"`
	PartitionKey string    `json:"partitionKey"`
	OccurredAt   time.Time `json:"occurredAt"`
	Payload      any       `json:"payload"`
}

type OrderConfirmedPayload struct {
	OrderID      string               `json:"orderId"`
	UserID       string               `json:"userId"`
	Confirmation string               `json:"confirmation"`
	Lines        []OrderConfirmedLine `json:"lines"`
	Total        float64              `json:"total"`
}

type OrderConfirmedLine struct {
	ISBN      string  `json:"isbn"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// RabbitPublisher emits order events to RabbitMQ. It owns its channel;
// the connection is managed by the caller.
type RabbitPublisher struct {
	ch  *amqp.Channel
	log zerolog.Logger
}

func NewRabbitPublisher(conn *amqp.Connection, log zerolog.Logger) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare the exchange up front so publish never fails on missing infra.
	if err := ch.ExchangeDeclare(EventsExchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", EventsExchange, err)
	}

	return &RabbitPublisher{ch: ch, log: log}, nil
}

func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitPublisher) PublishOrderConfirmed(ctx context.Context, order domain.Order) error {
	payload := OrderConfirmedPayload{
		OrderID:      order.ID,
		UserID:       order.UserID,
		Confirmation: order.Confirmation,
		Total:        order.Total,
	}
	for _, line := range order.Lines {
		payload.Lines = append(payload.Lines, OrderConfirmedLine{
			ISBN:      line.ISBN,
			Title:     line.Title,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}

	env := EventEnvelope{
		EventName:    OrderConfirmedEventName,
		EventVersion: orderConfirmedVersion,
		EventID:      uuid.NewString(),
		Producer:     producerName,
		PartitionKey: order.UserID,
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", OrderConfirmedEventName, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		OrderConfirmedRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    env.EventID,
			Timestamp:    env.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", OrderConfirmedRoutingKey, err)
	}

	p.log.Debug().
		Str("event_id", env.EventID).
		Str("order_id", order.ID).
		Msg("published order confirmed event")
	return nil
}
