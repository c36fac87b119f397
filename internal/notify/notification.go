// Package notify turns order and account events into customer notifications
// and delivers them off the request path.
package notify

import (
	"context"
	"time"
)

// Event names a notification trigger. It doubles as the broker routing key.
type Event string

const (
	EventOrderCreated       Event = "order.created"
	EventOrderStatusChanged Event = "order.status_changed"
	EventUserRegistered     Event = "user.registered"
)

// Notification is a rendered message ready for delivery.
type Notification struct {
	Event     Event     `json:"event"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	UserID    string    `json:"userId,omitempty"`
	OrderID   string    `json:"orderId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sender delivers a rendered notification.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}
