package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how a coupon's value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Coupon is a discount code created by a vendor or an admin.
type Coupon struct {
	ID                   string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code                 string           `json:"code" gorm:"type:varchar(50);uniqueIndex" validate:"required,min=3,max=50"`
	Description          string           `json:"description" gorm:"type:varchar(500)"`
	DiscountType         DiscountType     `json:"discountType" gorm:"type:varchar(20)"`
	DiscountValue        decimal.Decimal  `json:"discountValue" gorm:"type:numeric(12,2)"`
	MinPurchase          decimal.Decimal  `json:"minPurchase" gorm:"type:numeric(12,2)"`
	MaxDiscount          *decimal.Decimal `json:"maxDiscount,omitempty" gorm:"type:numeric(12,2)"`
	UsageLimit           *int             `json:"usageLimit,omitempty"`
	UsedCount            int              `json:"usedCount" gorm:"not null;default:0"`
	ValidFrom            time.Time        `json:"validFrom"`
	ValidUntil           time.Time        `json:"validUntil"`
	ApplicableCategories []Category       `json:"applicableCategories" gorm:"serializer:json"`
	ApplicableProducts   []string         `json:"applicableProducts" gorm:"serializer:json"`
	IsActive             bool             `json:"isActive"`
	CreatedBy            string           `json:"createdBy" gorm:"type:varchar(36);index"`
	UsedBy               []CouponUsage    `json:"usedBy,omitempty" gorm:"foreignKey:CouponID"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

// CouponUsage records a single redemption. One row per (coupon, user).
type CouponUsage struct {
	ID       string    `json:"-" gorm:"primaryKey;type:varchar(36)"`
	CouponID string    `json:"-" gorm:"type:varchar(36);uniqueIndex:idx_coupon_usage_user"`
	UserID   string    `json:"userId" gorm:"type:varchar(36);uniqueIndex:idx_coupon_usage_user"`
	UsedAt   time.Time `json:"usedAt"`
}

// NormalizeCode returns the canonical uppercase form of a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the discount definition.
func (c *Coupon) Validate() error {
	switch c.DiscountType {
	case DiscountPercentage:
		if c.DiscountValue.GreaterThan(hundred) {
			return NewValidationError("discountValue", "percentage cannot exceed 100")
		}
	case DiscountFixed:
		if c.MaxDiscount != nil {
			return NewValidationError("maxDiscount", "maxDiscount only applies to percentage coupons")
		}
	default:
		return NewValidationError("discountType", "must be percentage or fixed")
	}
	if c.DiscountValue.IsNegative() {
		return NewValidationError("discountValue", "cannot be negative")
	}
	if c.MinPurchase.IsNegative() {
		return NewValidationError("minPurchase", "cannot be negative")
	}
	if c.MaxDiscount != nil && c.MaxDiscount.IsNegative() {
		return NewValidationError("maxDiscount", "cannot be negative")
	}
	if c.UsageLimit != nil && *c.UsageLimit < 1 {
		return NewValidationError("usageLimit", "must be at least 1")
	}
	if c.ValidUntil.Before(c.ValidFrom) {
		return NewValidationError("validUntil", "must not be before validFrom")
	}
	for _, cat := range c.ApplicableCategories {
		if !cat.Valid() {
			return NewValidationError("applicableCategories", "unknown category "+string(cat))
		}
	}
	return nil
}

// Exhausted reports whether every allowed use has been taken.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit
}

// IsValid reports whether the coupon is active, inside its validity window
// and not exhausted at instant now.
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	return !c.Exhausted()
}

// CalculateDiscount returns the discount for orderTotal, rounded to cents.
// It is zero when the coupon is not valid at now or the minimum is not met.
func (c *Coupon) CalculateDiscount(orderTotal decimal.Decimal, now time.Time) decimal.Decimal {
	if !c.IsValid(now) || orderTotal.LessThan(c.MinPurchase) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercentage:
		discount = orderTotal.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscount != nil {
			discount = decimal.Min(discount, *c.MaxDiscount)
		}
	case DiscountFixed:
		discount = decimal.Min(c.DiscountValue, orderTotal)
	default:
		return decimal.Zero
	}
	return discount.Round(2)
}

// AppliesTo reports whether at least one cart line is eligible.
// A coupon with no category or product restriction applies to everything.
func (c *Coupon) AppliesTo(cart []CartLine) bool {
	if len(c.ApplicableCategories) == 0 && len(c.ApplicableProducts) == 0 {
		return true
	}
	for _, line := range cart {
		for _, cat := range c.ApplicableCategories {
			if line.Category == cat {
				return true
			}
		}
		for _, id := range c.ApplicableProducts {
			if line.ProductID == id {
				return true
			}
		}
	}
	return false
}

// CanManage reports whether actor may edit or delete the coupon.
func (c *Coupon) CanManage(actor Actor) bool {
	return actor.IsAdmin() || c.CreatedBy == actor.ID
}

// CartLine is the minimal view of a cart line used for coupon applicability.
type CartLine struct {
	ProductID string   `json:"productId"`
	Category  Category `json:"category"`
}
