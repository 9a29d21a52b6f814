package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"quiz-schema-service/internal/domain"
)

const (
	DefaultExchange       = "quiz.events"
	CompletedRoutingKey   = "quiz.completed"
	completionContentType = "application/json"
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends quiz completion events to a RabbitMQ topic exchange.
type Publisher struct {
	ch       Channel
	exchange string
}

// NewPublisher declares the exchange on ch and returns a publisher bound to it.
func NewPublisher(ch Channel, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

// Dial connects to the broker at url and opens a publisher on a fresh channel.
// The returned close function releases both the channel and the connection.
func Dial(url, exchange string) (*Publisher, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := NewPublisher(ch, exchange)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}
	closeFn := func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return p, closeFn, nil
}

func (p *Publisher) PublishCompletion(ctx context.Context, event domain.CompletionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode completion event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  completionContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.SessionID,
		Timestamp:    event.CompletedAt,
		Type:         CompletedRoutingKey,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, CompletedRoutingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish completion for session %s: %w", event.SessionID, err)
	}
	return nil
}
