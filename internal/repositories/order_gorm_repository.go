package repositories

import (
	"context"
	"fmt"
	"time"

	"apexify/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

// Create inserts the order and its lines. A duplicate order number is
// reported as models.ErrConflict.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		order.Items[i].ID = uuid.New().String()
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("order number %s: %w", order.OrderNumber, models.ErrConflict)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order with its lines.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.withItems(ctx).First(&order, "id = ?", id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, notFound("order", id)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

func (r *GORMOrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.withItems(ctx).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.withItems(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for customer %s: %w", customerID, err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) ListByVendor(ctx context.Context, vendorID string) ([]models.Order, error) {
	sub := r.db.Model(&models.OrderItem{}).Select("order_id").Where("vendor_id = ?", vendorID)
	var orders []models.Order
	err := r.withItems(ctx).
		Where("id IN (?)", sub).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for vendor %s: %w", vendorID, err)
	}
	return orders, nil
}

// UpdateStatus is conditional on the current status, so of two concurrent
// transitions from the same state only one succeeds.
func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus, deliveredAt *time.Time) error {
	updates := map[string]any{"order_status": to, "updated_at": time.Now().UTC()}
	if deliveredAt != nil {
		updates["delivered_at"] = *deliveredAt
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND order_status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return models.TransitionError(current.OrderStatus, to)
	}
	return nil
}

func (r *GORMOrderRepository) ConfirmPayment(ctx context.Context, id, paymentIntentID string) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND order_status <> ?", id, models.OrderCancelled).
		Updates(map[string]any{
			"payment_status":    models.PaymentCompleted,
			"payment_intent_id": paymentIntentID,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to confirm payment for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return paymentOnCancelled(id)
	}
	return nil
}

func (r *GORMOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up order number %s: %w", orderNumber, err)
	}
	return count > 0, nil
}

func (r *GORMOrderRepository) HasPurchased(ctx context.Context, customerID, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.customer_id = ? AND order_items.product_id = ? AND orders.order_status IN ?",
			customerID, productID, purchasedStatuses).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check purchase history: %w", err)
	}
	return count > 0, nil
}
