package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apexify/internal/logging"
	"apexify/internal/metrics"
	"apexify/internal/models"
	"apexify/internal/repositories"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxOrderNumberAttempts = 3

var errOrderNumberTaken = errors.New("order number taken")

// OrderLineInput is one requested cart line.
type OrderLineInput struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// CreateOrderInput is a checkout request.
type CreateOrderInput struct {
	Items           []OrderLineInput       `json:"items" validate:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   models.PaymentMethod   `json:"paymentMethod" validate:"required"`
	Notes           string                 `json:"notes" validate:"max=500"`
	CouponCode      string                 `json:"couponCode"`
}

// OrderService handles business logic related to orders.
type OrderService struct {
	repos    repositories.Repositories
	tx       repositories.Transactor
	coupons  *CouponService
	notifier Notifier
	numbers  *OrderNumberGenerator
	now      func() time.Time
}

// NewOrderService creates a new OrderService. A nil notifier disables notifications.
func NewOrderService(repos repositories.Repositories, tx repositories.Transactor, coupons *CouponService, notifier Notifier) *OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &OrderService{
		repos:    repos,
		tx:       tx,
		coupons:  coupons,
		notifier: notifier,
		numbers:  NewOrderNumberGenerator(),
		now:      time.Now,
	}
}

// CreateOrder validates the cart, reserves stock, prices the order, redeems
// the optional coupon and persists the order, all or nothing.
func (s *OrderService) CreateOrder(ctx context.Context, actor models.Actor, in CreateOrderInput) (*models.Order, error) {
	ctx, span := startSpan(ctx, "order.create", attribute.String("customer.id", actor.ID), attribute.Int("order.lines", len(in.Items)))
	order, err := s.createOrder(ctx, actor, in)
	endSpan(span, err)
	metrics.RecordOrderOperation("create", err == nil)

	log := logging.FromContext(ctx)
	if err != nil {
		log.Warn("order_create_failed", zap.String("customer_id", actor.ID), zap.Error(err))
		return nil, err
	}
	log.Info("order_created",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalPrice.StringFixed(2)),
	)
	s.notifier.OrderCreated(ctx, order)
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, actor models.Actor, in CreateOrderInput) (*models.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	// Everything that can be rejected without writing is rejected here.
	items, cart, err := snapshotItems(ctx, s.repos.Products, in.Items)
	if err != nil {
		return nil, err
	}
	if in.CouponCode != "" {
		pricing := CalculatePricing(items)
		if _, err := s.coupons.ValidateCoupon(ctx, in.CouponCode, pricing.ItemsPrice, cart, actor.ID); err != nil {
			return nil, err
		}
	}

	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number, err := s.numbers.Next()
		if err != nil {
			return nil, fmt.Errorf("generate order number: %w", err)
		}
		order, err := s.placeOrder(ctx, actor, in, number)
		if errors.Is(err, errOrderNumberTaken) {
			logging.FromContext(ctx).Warn("order_number_collision", zap.String("order_number", number))
			continue
		}
		return order, err
	}
	return nil, fmt.Errorf("could not allocate a unique order number after %d attempts", maxOrderNumberAttempts)
}

func (s *OrderService) placeOrder(ctx context.Context, actor models.Actor, in CreateOrderInput, number string) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		items, cart, err := snapshotItems(ctx, repos.Products, in.Items)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := repos.Products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		pricing := CalculatePricing(items)
		order = &models.Order{
			OrderNumber:     number,
			CustomerID:      actor.ID,
			Items:           items,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   models.PaymentPending,
			OrderStatus:     models.OrderPending,
			Notes:           in.Notes,
		}

		if in.CouponCode != "" {
			_, quote, err := s.coupons.redeem(ctx, repos.Coupons, in.CouponCode, actor.ID, couponCheck{
				total:     &pricing.ItemsPrice,
				cart:      cart,
				checkCart: true,
			})
			if err != nil {
				return err
			}
			pricing = pricing.WithDiscount(quote.Discount)
			order.CouponCode = quote.Code
		}

		order.ItemsPrice = pricing.ItemsPrice
		order.ShippingPrice = pricing.ShippingPrice
		order.TaxPrice = pricing.TaxPrice
		order.CouponDiscount = pricing.Discount
		order.TotalPrice = pricing.TotalPrice

		if err := repos.Orders.Create(ctx, order); err != nil {
			if errors.Is(err, models.ErrConflict) {
				return errOrderNumberTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func validateOrderInput(in CreateOrderInput) error {
	if err := ValidateStruct(in); err != nil {
		return err
	}
	if !in.PaymentMethod.Valid() {
		return models.NewValidationError("paymentMethod", "unsupported payment method "+string(in.PaymentMethod))
	}
	return nil
}

// snapshotItems loads every requested product and copies the fields an
// order keeps. Missing or inactive products are reported as not found.
func snapshotItems(ctx context.Context, products repositories.ProductRepository, lines []OrderLineInput) ([]models.OrderItem, []models.CartLine, error) {
	items := make([]models.OrderItem, 0, len(lines))
	cart := make([]models.CartLine, 0, len(lines))
	for _, line := range lines {
		product, err := products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if !product.IsActive {
			return nil, nil, fmt.Errorf("product with ID %s %w", line.ProductID, models.ErrNotFound)
		}
		if product.Stock < line.Quantity {
			return nil, nil, &models.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Stock,
			}
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.FirstImage(),
			Price:     product.Price,
			Quantity:  line.Quantity,
			VendorID:  product.VendorID,
		})
		cart = append(cart, models.CartLine{ProductID: product.ID, Category: product.Category})
	}
	return items, cart, nil
}

// GetOrder returns an order visible to actor.
func (s *OrderService) GetOrder(ctx context.Context, actor models.Actor, id string) (*models.Order, error) {
	order, err := s.repos.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.CanView(actor) {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrUnauthorized)
	}
	return order, nil
}

// ListOrders returns the orders visible to actor, newest first.
func (s *OrderService) ListOrders(ctx context.Context, actor models.Actor) ([]models.Order, error) {
	switch {
	case actor.IsAdmin():
		return s.repos.Orders.ListAll(ctx)
	case actor.IsVendor():
		return s.repos.Orders.ListByVendor(ctx, actor.ID)
	default:
		return s.repos.Orders.ListByCustomer(ctx, actor.ID)
	}
}

// UpdateOrderStatus moves an order along its lifecycle. Admins may update any
// order and vendors only orders containing one of their products. Delivery
// stamps DeliveredAt; cancellation puts the reserved stock back.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actor models.Actor, id string, status models.OrderStatus) (*models.Order, error) {
	ctx, span := startSpan(ctx, "order.update_status", attribute.String("order.id", id), attribute.String("order.status", string(status)))
	order, previous, err := s.updateOrderStatus(ctx, actor, id, status)
	endSpan(span, err)
	metrics.RecordOrderOperation("update_status", err == nil)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("order_status_changed",
		zap.String("order_id", order.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(order.OrderStatus)),
	)
	s.notifier.OrderStatusChanged(ctx, order, previous)
	return order, nil
}

func (s *OrderService) updateOrderStatus(ctx context.Context, actor models.Actor, id string, status models.OrderStatus) (*models.Order, models.OrderStatus, error) {
	if !status.Valid() {
		return nil, "", models.NewValidationError("status", "unknown order status "+string(status))
	}
	if !actor.IsAdmin() && !actor.IsVendor() {
		return nil, "", fmt.Errorf("order %s: %w", id, models.ErrUnauthorized)
	}

	var order *models.Order
	var previous models.OrderStatus
	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		current, err := repos.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if actor.IsVendor() && !current.HasVendor(actor.ID) {
			return fmt.Errorf("order %s: %w", id, models.ErrUnauthorized)
		}
		previous = current.OrderStatus
		if !previous.CanTransitionTo(status) {
			return models.TransitionError(previous, status)
		}

		var deliveredAt *time.Time
		if status == models.OrderDelivered {
			now := s.now().UTC()
			deliveredAt = &now
		}
		if err := repos.Orders.UpdateStatus(ctx, id, previous, status, deliveredAt); err != nil {
			return err
		}

		if status == models.OrderCancelled {
			for _, item := range current.Items {
				err := repos.Products.IncrementStock(ctx, item.ProductID, item.Quantity)
				if errors.Is(err, models.ErrNotFound) {
					logging.FromContext(ctx).Warn("restock_skipped_missing_product",
						zap.String("order_id", id),
						zap.String("product_id", item.ProductID),
					)
					continue
				}
				if err != nil {
					return err
				}
			}
		}

		order, err = repos.Orders.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return order, previous, nil
}

// ConfirmPayment records a successful payment reported by the payment
// provider. Only the ordering customer or an admin may confirm.
func (s *OrderService) ConfirmPayment(ctx context.Context, actor models.Actor, id, paymentIntentID string) (*models.Order, error) {
	if paymentIntentID == "" {
		return nil, models.NewValidationError("paymentIntentId", "payment intent ID is required")
	}
	order, err := s.repos.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.CustomerID != actor.ID {
		return nil, fmt.Errorf("order %s: %w", id, models.ErrUnauthorized)
	}
	if order.OrderStatus == models.OrderCancelled {
		return nil, fmt.Errorf("cannot pay for a cancelled order: %w", models.ErrInvalidTransition)
	}

	err = s.repos.Orders.ConfirmPayment(ctx, id, paymentIntentID)
	metrics.RecordOrderOperation("confirm_payment", err == nil)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("order_payment_confirmed",
		zap.String("order_id", id),
		zap.String("payment_intent_id", paymentIntentID),
	)
	order.PaymentStatus = models.PaymentCompleted
	order.PaymentIntentID = paymentIntentID
	return order, nil
}
