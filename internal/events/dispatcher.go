package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// QueueDispatcher delivers events to handlers on background workers fed by
// a bounded queue. Publishing never blocks the request path: when the queue
// is full the event is dropped and logged. Handler errors are logged and
// dropped; nothing propagates back to the publisher.
type QueueDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler

	queue  chan Event
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueueDispatcher creates a dispatcher with the given queue capacity and
// worker count. Call Close on shutdown to drain in-flight handlers.
func NewQueueDispatcher(logger *zap.Logger, queueSize, workers int) *QueueDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &QueueDispatcher{
		listeners: make(map[EventType][]EventHandler),
		queue:     make(chan Event, queueSize),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Publish enqueues the event for background delivery.
func (d *QueueDispatcher) Publish(_ context.Context, event Event) error {
	select {
	case d.queue <- event:
	case <-d.ctx.Done():
	default:
		d.logger.Warn("event queue full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *QueueDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Close stops the workers. Queued events that have not started processing
// are discarded.
func (d *QueueDispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

func (d *QueueDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case event := <-d.queue:
			d.deliver(event)
		}
	}
}

func (d *QueueDispatcher) deliver(event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(d.ctx, event); err != nil {
			d.logger.Warn("event handler failed",
				zap.String("type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
		}
	}
}
