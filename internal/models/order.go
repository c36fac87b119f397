package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipped    OrderStatus = "Shipped"
	OrderDelivered  OrderStatus = "Delivered"
	OrderCancelled  OrderStatus = "Cancelled"
)

// statusRank orders the forward path. Cancelled is off the path.
var statusRank = map[OrderStatus]int{
	OrderPending:    0,
	OrderProcessing: 1,
	OrderShipped:    2,
	OrderDelivered:  3,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == OrderCancelled
}

// Terminal reports whether no further transition is allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo allows forward moves along Pending, Processing, Shipped,
// Delivered (skipping is allowed) and cancellation from any non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.Terminal() || !next.Valid() || s == next {
		return false
	}
	if next == OrderCancelled {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// PaymentStatus is the payment state recorded from the payment provider.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// PaymentMethod is the closed set of accepted payment methods.
type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "Credit Card"
	PaymentPayPal         PaymentMethod = "PayPal"
	PaymentCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentStripe         PaymentMethod = "Stripe"
)

// Valid reports whether m is an accepted payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentPayPal, PaymentCashOnDelivery, PaymentStripe:
		return true
	}
	return false
}

// ShippingAddress is embedded into the order row.
type ShippingAddress struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// OrderItem is a snapshot of a product line at checkout time.
type OrderItem struct {
	ID        string          `json:"-" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string          `json:"-" gorm:"type:varchar(36);index"`
	Position  int             `json:"-"`
	ProductID string          `json:"productId" gorm:"type:varchar(36);index"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(12,2)"`
	Quantity  int             `json:"quantity"`
	VendorID  string          `json:"vendorId" gorm:"type:varchar(36);index"`
}

// Subtotal is unit price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer checkout.
type Order struct {
	ID              string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber     string          `json:"orderNumber" gorm:"type:varchar(40);uniqueIndex"`
	CustomerID      string          `json:"customerId" gorm:"type:varchar(36);index"`
	Items           []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	ShippingAddress ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" gorm:"type:varchar(30)"`
	PaymentStatus   PaymentStatus   `json:"paymentStatus" gorm:"type:varchar(20)"`
	PaymentIntentID string          `json:"paymentIntentId,omitempty" gorm:"type:varchar(255)"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice" gorm:"type:numeric(12,2)"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice" gorm:"type:numeric(12,2)"`
	TaxPrice        decimal.Decimal `json:"taxPrice" gorm:"type:numeric(12,2)"`
	TotalPrice      decimal.Decimal `json:"totalPrice" gorm:"type:numeric(12,2)"`
	CouponCode      string          `json:"couponCode,omitempty" gorm:"type:varchar(50)"`
	CouponDiscount  decimal.Decimal `json:"couponDiscount" gorm:"type:numeric(12,2)"`
	OrderStatus     OrderStatus     `json:"orderStatus" gorm:"type:varchar(20);index"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	Notes           string          `json:"notes,omitempty" gorm:"type:varchar(500)"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// HasVendor reports whether any line belongs to vendorID.
func (o *Order) HasVendor(vendorID string) bool {
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			return true
		}
	}
	return false
}

// HasProduct reports whether any line references productID.
func (o *Order) HasProduct(productID string) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

// CanView reports whether actor may read the order.
func (o *Order) CanView(actor Actor) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsVendor():
		return o.HasVendor(actor.ID)
	default:
		return o.CustomerID == actor.ID
	}
}

// TransitionError describes a rejected status change.
func TransitionError(from, to OrderStatus) error {
	return fmt.Errorf("cannot move order from %s to %s: %w", from, to, ErrInvalidTransition)
}
