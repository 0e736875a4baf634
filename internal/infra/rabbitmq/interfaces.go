package rabbitmq

import "context"

// EventPublisher publishes a payload under a routing key on the events
// exchange.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

var _ EventPublisher = (*Publisher)(nil)
