package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     Config
	log     *zap.Logger

	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details and topology names.
type Config struct {
	URL             string
	Exchange        string
	Queue           string
	DeadLetterQueue string
	BindingKey      string
}

// withDefaults fills unset topology names.
func (c Config) withDefaults() Config {
	if c.Exchange == "" {
		c.Exchange = "apexify.notifications"
	}
	if c.Queue == "" {
		c.Queue = "notifications"
	}
	if c.DeadLetterQueue == "" {
		c.DeadLetterQueue = c.Queue + ".dlq"
	}
	if c.BindingKey == "" {
		c.BindingKey = "#"
	}
	return c
}

func (c Config) deadLetterExchange() string { return c.DeadLetterQueue + "_exchange" }

// queueArgs routes rejected messages of the main queue to the dead letter exchange.
func (c Config) queueArgs() amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    c.deadLetterExchange(),
		"x-dead-letter-routing-key": c.DeadLetterQueue,
	}
}

// NewClient connects to RabbitMQ, opens a channel and declares the topology:
// a durable topic exchange, the work queue bound to it, and a dead letter
// exchange and queue receiving rejected messages.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c := &Client{conn: conn, channel: ch, cfg: cfg, log: log.With(zap.String("component", "rabbitmq"))}
	if err := c.setupTopology(); err != nil {
		c.Close()
		return nil, err
	}

	c.log.Info("rabbitmq_connected",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", cfg.Queue),
	)
	return c, nil
}

func (c *Client) setupTopology() error {
	if err := c.channel.ExchangeDeclare(
		c.cfg.deadLetterExchange(),
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("failed to declare dead letter exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.cfg.DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare %s: %w", c.cfg.DeadLetterQueue, err)
	}
	if err := c.channel.QueueBind(c.cfg.DeadLetterQueue, c.cfg.DeadLetterQueue, c.cfg.deadLetterExchange(), false, nil); err != nil {
		return fmt.Errorf("failed to bind %s: %w", c.cfg.DeadLetterQueue, err)
	}

	if err := c.channel.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", c.cfg.Exchange, err)
	}
	if _, err := c.channel.QueueDeclare(
		c.cfg.Queue,
		true,  // durable (persists messages across broker restarts)
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		c.cfg.queueArgs(),
	); err != nil {
		return fmt.Errorf("failed to declare %s: %w", c.cfg.Queue, err)
	}
	if err := c.channel.QueueBind(c.cfg.Queue, c.cfg.BindingKey, c.cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s: %w", c.cfg.Queue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// PublishJSON publishes v as a persistent JSON message on the exchange.
func (c *Client) PublishJSON(ctx context.Context, routingKey string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(
		c.cfg.Exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	c.log.Debug("message_published", zap.String("routing_key", routingKey), zap.Int("bytes", len(body)))
	return nil
}

// Handler processes one message body. A returned error dead-letters the message.
type Handler func(ctx context.Context, body []byte) error

// Consume delivers messages of the work queue to handler until ctx is done or
// the channel closes. Messages are acked on success and rejected without
// requeue on failure, which routes them to the dead letter queue.
func (c *Client) Consume(ctx context.Context, consumerTag string, handler Handler) error {
	msgs, err := c.channel.Consume(
		c.cfg.Queue,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}
	c.log.Info("consumer_started", zap.String("queue", c.cfg.Queue), zap.String("consumer", consumerTag))

	for {
		select {
		case <-ctx.Done():
			if err := c.channel.Cancel(consumerTag, false); err != nil {
				c.log.Warn("consumer_cancel_failed", zap.Error(err))
			}
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			handleDelivery(ctx, c.log, msg, handler)
		}
	}
}

func handleDelivery(ctx context.Context, log *zap.Logger, msg amqp.Delivery, handler Handler) {
	err := safeHandle(ctx, msg.Body, handler)
	if err != nil {
		log.Warn("message_dead_lettered",
			zap.Uint64("delivery_tag", msg.DeliveryTag),
			zap.String("routing_key", msg.RoutingKey),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			log.Error("message_nack_failed", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(nackErr))
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		log.Error("message_ack_failed", zap.Uint64("delivery_tag", msg.DeliveryTag), zap.Error(ackErr))
	}
}

func safeHandle(ctx context.Context, body []byte, handler Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	return handler(ctx, body)
}
