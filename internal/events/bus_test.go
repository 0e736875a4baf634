package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "channel closed")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBus_FilteredDelivery(t *testing.T) {
	bus := NewBus(logger.Nop())
	defer bus.Close()

	mine, cancelMine := bus.Subscribe(ForSession("s1"), 4)
	defer cancelMine()
	all, cancelAll := bus.Subscribe(nil, 4)
	defer cancelAll()

	bus.Publish(context.Background(), CartUpdated("s2", 1))
	bus.Publish(context.Background(), CartUpdated("s1", 3))

	evt := receive(t, mine)
	assert.Equal(t, TopicCartUpdated, evt.Topic)
	assert.Equal(t, domain.CartUpdatedEvent{SessionID: "s1", Count: 3}, evt.Payload)
	assert.Len(t, mine, 0)

	assert.Equal(t, "s2", receive(t, all).SessionID)
	assert.Equal(t, "s1", receive(t, all).SessionID)
}

func TestBus_PublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := NewBus(nil)
	defer bus.Close()

	var dropped []Topic
	var mu sync.Mutex
	bus.OnDrop(func(topic Topic) {
		mu.Lock()
		dropped = append(dropped, topic)
		mu.Unlock()
	})

	_, cancel := bus.Subscribe(nil, 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		bus.Publish(context.Background(), SessionChanged("s", true))
		bus.Publish(context.Background(), SessionChanged("s", false))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Topic{TopicSessionChanged}, dropped)
}

func TestBus_CancelAndClose(t *testing.T) {
	bus := NewBus(nil)

	ch, cancel := bus.Subscribe(nil, 1)
	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)

	ch2, _ := bus.Subscribe(nil, 1)
	bus.Close()
	_, ok = <-ch2
	assert.False(t, ok)

	late, _ := bus.Subscribe(nil, 1)
	_, ok = <-late
	assert.False(t, ok)

	bus.Publish(context.Background(), CartUpdated("s", 0))
}

func TestForwarder_RelaysToBroker(t *testing.T) {
	bus := NewBus(nil)
	pub := new(mockBroker)

	delivered := make(chan struct{}, 2)
	pub.On("Publish", mock.Anything, "order.placed", mock.AnythingOfType("domain.OrderPlacedEvent")).
		Return(nil).Run(func(mock.Arguments) { delivered <- struct{}{} })
	pub.On("Publish", mock.Anything, "cart.updated", mock.Anything).
		Return(errors.New("broker down")).Run(func(mock.Arguments) { delivered <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	fwd := NewForwarder(bus, pub, logger.Nop())
	go func() {
		fwd.Run(ctx)
		close(finished)
	}()

	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subs) == 1
	}, time.Second, 5*time.Millisecond)

	bus.Publish(ctx, CartUpdated("s1", 2))
	bus.Publish(ctx, OrderPlaced(domain.OrderPlacedEvent{SessionID: "s1", OrderID: "ORD-1", PlacedAt: time.Now()}))

	for i := 0; i < 2; i++ {
		select {
		case <-delivered:
		case <-time.After(time.Second):
			t.Fatal("forwarder did not publish")
		}
	}

	cancel()
	<-finished
	pub.AssertExpectations(t)
}

type mockBroker struct {
	mock.Mock
}

func (m *mockBroker) Publish(ctx context.Context, topic string, data any) error {
	return m.Called(ctx, topic, data).Error(0)
}
