package repositories

import (
	"context"
	"fmt"
	"time"

	"apexify/internal/models"
)

// OrderRepository defines the interface for order data access.
// Orders are never deleted.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	ListByVendor(ctx context.Context, vendorID string) ([]models.Order, error)
	// UpdateStatus moves the order from -> to only if it is still in from.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus, deliveredAt *time.Time) error
	// ConfirmPayment records a completed payment unless the order is cancelled,
	// in which case it fails with models.ErrInvalidTransition.
	ConfirmPayment(ctx context.Context, id, paymentIntentID string) error
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)
	// HasPurchased reports whether the customer has a non-pending, non-cancelled
	// order containing the product.
	HasPurchased(ctx context.Context, customerID, productID string) (bool, error)
}

// purchasedStatuses are the order states that count as a verified purchase.
var purchasedStatuses = []models.OrderStatus{models.OrderProcessing, models.OrderShipped, models.OrderDelivered}

func paymentOnCancelled(id string) error {
	return fmt.Errorf("cannot pay for cancelled order %s: %w", id, models.ErrInvalidTransition)
}
