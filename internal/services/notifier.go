package services

import (
	"context"

	"apexify/internal/models"
)

// Notifier receives fire-and-forget notification intents. Implementations
// must not block the caller and never report delivery failures back.
type Notifier interface {
	OrderCreated(ctx context.Context, order *models.Order)
	OrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus)
	UserRegistered(ctx context.Context, user *models.User)
}

// NopNotifier discards every intent.
type NopNotifier struct{}

func (NopNotifier) OrderCreated(context.Context, *models.Order) {}
func (NopNotifier) OrderStatusChanged(context.Context, *models.Order, models.OrderStatus) {}
func (NopNotifier) UserRegistered(context.Context, *models.User) {}
