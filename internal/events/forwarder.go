package events

import (
	"context"

	rabbit "storefront/internal/infra/rabbitmq"
	"storefront/pkg/logger"
)

// Forwarder relays bus events to the message broker, using the topic as the
// routing key.
type Forwarder struct {
	bus       *Bus
	publisher rabbit.EventPublisher
	logg      *logger.Logger
}

func NewForwarder(bus *Bus, publisher rabbit.EventPublisher, logg *logger.Logger) *Forwarder {
	return &Forwarder{bus: bus, publisher: publisher, logg: logg}
}

// Run blocks until ctx is done or the bus is closed. Publish failures are
// logged and skipped.
func (f *Forwarder) Run(ctx context.Context) {
	ch, cancel := f.bus.Subscribe(nil, 256)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := f.publisher.Publish(ctx, string(evt.Topic), evt.Payload); err != nil && f.logg != nil {
				f.logg.Error(f.logg.WithField(ctx, "topic", string(evt.Topic)), "events.forward_failed", err)
			}
		}
	}
}
