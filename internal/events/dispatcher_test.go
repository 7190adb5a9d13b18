package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestQueueDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewQueueDispatcher(zap.NewNop(), 16, 1)
	defer d.Close()

	var mu sync.Mutex
	var got []Event
	done := make(chan struct{})

	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
		close(done)
		return nil
	})

	err := d.Publish(context.Background(), Event{
		ID:       "evt-1",
		Type:     EventTicketCreated,
		TicketID: "8177994-001",
	})
	assert.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 1)
	assert.Equal(t, "8177994-001", got[0].TicketID)
}

func TestQueueDispatcherHandlerErrorDoesNotPropagate(t *testing.T) {
	d := NewQueueDispatcher(zap.NewNop(), 16, 1)
	defer d.Close()

	done := make(chan struct{})
	d.Subscribe(EventTicketRated, func(_ context.Context, _ Event) error {
		defer close(done)
		return errors.New("smtp unreachable")
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketRated, TicketID: "t-1"})
	assert.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler not invoked")
	}
}

func TestQueueDispatcherFullQueueDropsWithoutBlocking(t *testing.T) {
	d := NewQueueDispatcher(zap.NewNop(), 1, 0)
	// No subscriber and one worker; fill the queue beyond capacity.
	for i := 0; i < 10; i++ {
		err := d.Publish(context.Background(), Event{Type: EventTicketCreated})
		assert.NoError(t, err)
	}
	d.Close()
}
