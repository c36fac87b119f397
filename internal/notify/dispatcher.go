package notify

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"apexify/internal/logging"
	"apexify/internal/metrics"
	"apexify/internal/models"
	"apexify/internal/repositories"

	"go.uber.org/zap"
)

const (
	defaultQueueSize = 1024
	sendTimeout      = 10 * time.Second
	drainTimeout     = 5 * time.Second
)

type intent struct {
	event    Event
	order    *models.Order
	previous models.OrderStatus
	user     *models.User
}

// Dispatcher is a bounded in-process outbox. Producers never block: when the
// queue is full the intent is dropped and logged. A single worker renders
// each intent and hands it to the Sender.
type Dispatcher struct {
	users  repositories.UserRepository
	sender Sender
	log    *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan intent
}

// NewDispatcher creates a Dispatcher. Recipients of order notifications are
// resolved through users.
func NewDispatcher(users repositories.UserRepository, sender Sender, queueSize int, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		users:  users,
		sender: sender,
		log:    log.With(zap.String("component", "notify")),
		queue:  make(chan intent, queueSize),
	}
}

func (d *Dispatcher) OrderCreated(ctx context.Context, order *models.Order) {
	d.enqueue(ctx, intent{event: EventOrderCreated, order: snapshot(order)})
}

func (d *Dispatcher) OrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) {
	d.enqueue(ctx, intent{event: EventOrderStatusChanged, order: snapshot(order), previous: previous})
}

func (d *Dispatcher) UserRegistered(ctx context.Context, user *models.User) {
	u := *user
	d.enqueue(ctx, intent{event: EventUserRegistered, user: &u})
}

func snapshot(order *models.Order) *models.Order {
	o := *order
	o.Items = slices.Clone(order.Items)
	return &o
}

func (d *Dispatcher) enqueue(ctx context.Context, it intent) {
	log := logging.FromContext(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Warn("notification_dropped", zap.String("event", string(it.event)), zap.String("reason", "stopped"))
		metrics.RecordNotification(string(it.event), "dropped")
		return
	}
	select {
	case d.queue <- it:
		log.Debug("notification_enqueued", zap.String("event", string(it.event)))
	default:
		log.Warn("notification_dropped", zap.String("event", string(it.event)), zap.String("reason", "queue_full"))
		metrics.RecordNotification(string(it.event), "dropped")
	}
}

// Run delivers queued intents until ctx is done, then stops accepting new
// intents and drains what is already queued.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.log.Info("notify_dispatcher_started", zap.Int("capacity", cap(d.queue)))
	for {
		select {
		case <-ctx.Done():
			d.stop()
			d.drain(context.WithoutCancel(ctx))
			d.log.Info("notify_dispatcher_stopped")
			return nil
		case it := <-d.queue:
			d.deliver(ctx, it)
		}
	}
}

func (d *Dispatcher) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	for it := range d.queue {
		if ctx.Err() != nil {
			d.log.Warn("notification_dropped", zap.String("event", string(it.event)), zap.String("reason", "shutdown"))
			metrics.RecordNotification(string(it.event), "dropped")
			continue
		}
		d.deliver(ctx, it)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, it intent) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("notification_panic",
				zap.String("event", string(it.event)),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			metrics.RecordNotification(string(it.event), "failed")
		}
	}()

	// A dequeued intent is delivered even when shutdown has begun.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	n, err := d.render(ctx, it)
	if err == nil {
		err = d.sender.Send(ctx, n)
	}
	if err != nil {
		d.log.Warn("notification_failed", zap.String("event", string(it.event)), zap.Error(err))
		metrics.RecordNotification(string(it.event), "failed")
		return
	}
	d.log.Debug("notification_sent", zap.String("event", string(it.event)), zap.String("to", n.To))
	metrics.RecordNotification(string(it.event), "sent")
}

func (d *Dispatcher) render(ctx context.Context, it intent) (Notification, error) {
	switch it.event {
	case EventUserRegistered:
		return RenderWelcome(it.user)
	case EventOrderCreated, EventOrderStatusChanged:
		user, err := d.users.GetByID(ctx, it.order.CustomerID)
		if err != nil {
			return Notification{}, fmt.Errorf("resolve recipient of order %s: %w", it.order.ID, err)
		}
		if it.event == EventOrderCreated {
			return RenderOrderConfirmation(it.order, user)
		}
		return RenderStatusUpdate(it.order, user)
	default:
		return Notification{}, fmt.Errorf("unknown notification event %q", it.event)
	}
}
