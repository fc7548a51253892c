package rabbitmq

import (
	"context"
	"fmt"

	"github.com/playtesthq/jobbox/internal/entity"
	"github.com/playtesthq/jobbox/pkg/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	*rabbitmq.RabbitMQ
}

func NewPublisher(rmq *rabbitmq.RabbitMQ) *Publisher {
	return &Publisher{rmq}
}

// Publish sends the envelope to the default exchange with persistent
// delivery. The pooled channel is released on every exit path.
func (p *Publisher) Publish(ctx context.Context, envelope *entity.Envelope) error {
	ch, err := p.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("Publisher - Publish - p.Acquire: %w", err)
	}
	defer p.Release(ch)

	headers := make(amqp.Table, len(envelope.Headers))
	for k, v := range envelope.Headers {
		headers[k] = v
	}

	err = ch.PublishWithContext(ctx, "", envelope.RoutingKey, false, false, amqp.Publishing{
		Headers:       headers,
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: envelope.CorrelationID.String(),
		Body:          envelope.Body,
	})
	if err != nil {
		return fmt.Errorf("Publisher - Publish - ch.PublishWithContext: %w", err)
	}

	return nil
}

func (p *Publisher) Close() error {
	err := p.RabbitMQ.Close()
	if err != nil {
		return fmt.Errorf("Publisher - Close: %w", err)
	}

	return nil
}
