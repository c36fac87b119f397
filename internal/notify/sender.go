package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"apexify/pkg/rabbitmq"

	"go.uber.org/zap"
)

// LogSender writes notifications to the log. It stands in for a mail relay.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.log.Info("notification_delivered",
		zap.String("event", string(n.Event)),
		zap.String("to", n.To),
		zap.String("subject", n.Subject),
		zap.String("order_id", n.OrderID),
	)
	return nil
}

// Publisher publishes JSON messages to a broker.
type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

// BrokerSender publishes notifications to the message broker, keyed by event.
type BrokerSender struct {
	pub Publisher
}

func NewBrokerSender(pub Publisher) *BrokerSender {
	return &BrokerSender{pub: pub}
}

func (s *BrokerSender) Send(ctx context.Context, n Notification) error {
	return s.pub.PublishJSON(ctx, string(n.Event), n)
}

// DeliveryHandler decodes notifications consumed from the broker and passes
// them to sender. Undecodable messages are rejected.
func DeliveryHandler(sender Sender) rabbitmq.Handler {
	return func(ctx context.Context, body []byte) error {
		var n Notification
		if err := json.Unmarshal(body, &n); err != nil {
			return fmt.Errorf("decode notification: %w", err)
		}
		if n.To == "" {
			return fmt.Errorf("notification %s has no recipient", n.Event)
		}
		return sender.Send(ctx, n)
	}
}
