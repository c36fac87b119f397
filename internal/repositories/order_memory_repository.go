package repositories

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"apexify/internal/models"

	"github.com/google/uuid"
)

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
type MemoryOrderRepository struct {
	s    *MemoryStore
	inTx bool
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *models.Order) error {
	defer r.s.lock(r.inTx)()

	for _, existing := range r.s.data.orders {
		if existing.OrderNumber == order.OrderNumber {
			return fmt.Errorf("order number %s: %w", order.OrderNumber, models.ErrConflict)
		}
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		order.Items[i].ID = uuid.New().String()
		order.Items[i].OrderID = order.ID
		order.Items[i].Position = i
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	r.s.data.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	defer r.s.rlock(r.inTx)()

	order, ok := r.s.data.orders[id]
	if !ok {
		return nil, notFound("order", id)
	}
	order = cloneOrder(order)
	return &order, nil
}

func (r *MemoryOrderRepository) ListAll(_ context.Context) ([]models.Order, error) {
	return r.filter(func(models.Order) bool { return true }), nil
}

func (r *MemoryOrderRepository) ListByCustomer(_ context.Context, customerID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool { return o.CustomerID == customerID }), nil
}

func (r *MemoryOrderRepository) ListByVendor(_ context.Context, vendorID string) ([]models.Order, error) {
	return r.filter(func(o models.Order) bool { return o.HasVendor(vendorID) }), nil
}

// filter returns matching orders newest first.
func (r *MemoryOrderRepository) filter(keep func(models.Order) bool) []models.Order {
	defer r.s.rlock(r.inTx)()

	orders := make([]models.Order, 0)
	for _, o := range r.s.data.orders {
		if keep(o) {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})
	return orders
}

func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id string, from, to models.OrderStatus, deliveredAt *time.Time) error {
	defer r.s.lock(r.inTx)()

	order, ok := r.s.data.orders[id]
	if !ok {
		return notFound("order", id)
	}
	if order.OrderStatus != from {
		return models.TransitionError(order.OrderStatus, to)
	}
	order = cloneOrder(order)
	order.OrderStatus = to
	if deliveredAt != nil {
		at := *deliveredAt
		order.DeliveredAt = &at
	}
	order.UpdatedAt = time.Now().UTC()
	r.s.data.orders[id] = order
	return nil
}

func (r *MemoryOrderRepository) ConfirmPayment(_ context.Context, id, paymentIntentID string) error {
	defer r.s.lock(r.inTx)()

	order, ok := r.s.data.orders[id]
	if !ok {
		return notFound("order", id)
	}
	if order.OrderStatus == models.OrderCancelled {
		return paymentOnCancelled(id)
	}
	order.PaymentStatus = models.PaymentCompleted
	order.PaymentIntentID = paymentIntentID
	order.UpdatedAt = time.Now().UTC()
	r.s.data.orders[id] = order
	return nil
}

func (r *MemoryOrderRepository) ExistsByOrderNumber(_ context.Context, orderNumber string) (bool, error) {
	defer r.s.rlock(r.inTx)()

	for _, o := range r.s.data.orders {
		if o.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryOrderRepository) HasPurchased(_ context.Context, customerID, productID string) (bool, error) {
	defer r.s.rlock(r.inTx)()

	for _, o := range r.s.data.orders {
		if o.CustomerID == customerID && slices.Contains(purchasedStatuses, o.OrderStatus) && o.HasProduct(productID) {
			return true, nil
		}
	}
	return false, nil
}
