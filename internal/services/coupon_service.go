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

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CouponInput is the editable part of a coupon.
type CouponInput struct {
	Code                 string              `json:"code" validate:"required,min=3,max=50"`
	Description          string              `json:"description" validate:"max=500"`
	DiscountType         models.DiscountType `json:"discountType" validate:"required,oneof=percentage fixed"`
	DiscountValue        decimal.Decimal     `json:"discountValue"`
	MinPurchase          decimal.Decimal     `json:"minPurchase"`
	MaxDiscount          *decimal.Decimal    `json:"maxDiscount"`
	UsageLimit           *int                `json:"usageLimit"`
	ValidFrom            time.Time           `json:"validFrom" validate:"required"`
	ValidUntil           time.Time           `json:"validUntil" validate:"required"`
	ApplicableCategories []models.Category   `json:"applicableCategories"`
	ApplicableProducts   []string            `json:"applicableProducts"`
	IsActive             *bool               `json:"isActive"`
}

// CouponQuote is the outcome of a successful validation.
type CouponQuote struct {
	Code          string              `json:"code"`
	Discount      decimal.Decimal     `json:"discount"`
	DiscountType  models.DiscountType `json:"discountType"`
	DiscountValue decimal.Decimal     `json:"discountValue"`
}

// CouponService validates, redeems and manages coupons.
type CouponService struct {
	repos repositories.Repositories
	tx    repositories.Transactor
	now   func() time.Time
}

// NewCouponService creates a new CouponService.
func NewCouponService(repos repositories.Repositories, tx repositories.Transactor) *CouponService {
	return &CouponService{repos: repos, tx: tx, now: time.Now}
}

// couponCheck selects which eligibility rules run. A nil total skips the
// minimum purchase rule; checkCart enables the applicability rule.
type couponCheck struct {
	total     *decimal.Decimal
	cart      []models.CartLine
	checkCart bool
}

// ValidateCoupon checks whether userID may use code on a cart worth orderTotal
// and returns the discount without changing any state. Failures are reported
// in this order: not found, usage limit reached, expired or inactive, below
// minimum purchase, already used by this user, not applicable to the cart.
func (s *CouponService) ValidateCoupon(ctx context.Context, code string, orderTotal decimal.Decimal, cart []models.CartLine, userID string) (*CouponQuote, error) {
	ctx, span := startSpan(ctx, "coupon.validate", attribute.String("coupon.code", models.NormalizeCode(code)))
	_, quote, err := s.validate(ctx, s.repos.Coupons, code, userID, couponCheck{total: &orderTotal, cart: cart, checkCart: true})
	endSpan(span, err)
	return quote, err
}

func (s *CouponService) validate(ctx context.Context, coupons repositories.CouponRepository, code, userID string, check couponCheck) (*models.Coupon, *CouponQuote, error) {
	coupon, err := coupons.GetByCode(ctx, models.NormalizeCode(code))
	if err != nil {
		return nil, nil, err
	}
	now := s.now()
	if coupon.Exhausted() {
		return nil, nil, models.ErrCouponLimitReached
	}
	if !coupon.IsValid(now) {
		return nil, nil, models.ErrCouponExpired
	}
	if check.total != nil && check.total.LessThan(coupon.MinPurchase) {
		return nil, nil, fmt.Errorf("minimum purchase of $%s required: %w", coupon.MinPurchase.StringFixed(2), models.ErrCouponBelowMinimum)
	}
	used, err := coupons.HasUsage(ctx, coupon.ID, userID)
	if err != nil {
		return nil, nil, err
	}
	if used {
		return nil, nil, models.ErrCouponAlreadyUsed
	}
	if check.checkCart && !coupon.AppliesTo(check.cart) {
		return nil, nil, models.ErrCouponNotApplicable
	}

	quote := &CouponQuote{
		Code:          coupon.Code,
		Discount:      decimal.Zero,
		DiscountType:  coupon.DiscountType,
		DiscountValue: coupon.DiscountValue,
	}
	if check.total != nil {
		quote.Discount = coupon.CalculateDiscount(*check.total, now)
	}
	return coupon, quote, nil
}

// ApplyCoupon redeems code for userID outside of a checkout. It fails like
// ValidateCoupon minus the minimum purchase and cart rules, and with
// models.ErrCouponLimitReached when the last use was taken concurrently.
// The quote carries no discount since there is no order total.
func (s *CouponService) ApplyCoupon(ctx context.Context, code, userID string) (*CouponQuote, error) {
	ctx, span := startSpan(ctx, "coupon.apply", attribute.String("coupon.code", models.NormalizeCode(code)))
	var applied *CouponQuote
	err := s.tx.WithinTransaction(ctx, func(repos repositories.Repositories) error {
		_, quote, err := s.redeem(ctx, repos.Coupons, code, userID, couponCheck{})
		applied = quote
		return err
	})
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	return applied, nil
}

// redeem validates and then performs the atomic conditional redemption
// through coupons, which may be bound to an outer transaction.
func (s *CouponService) redeem(ctx context.Context, coupons repositories.CouponRepository, code, userID string, check couponCheck) (*models.Coupon, *CouponQuote, error) {
	coupon, quote, err := s.validate(ctx, coupons, code, userID, check)
	if err != nil {
		recordRedemption(err)
		return nil, nil, err
	}
	if err := coupons.Redeem(ctx, coupon.ID, userID, s.now()); err != nil {
		recordRedemption(err)
		return nil, nil, err
	}
	recordRedemption(nil)
	logging.FromContext(ctx).Info("coupon_redeemed",
		zap.String("coupon_code", coupon.Code),
		zap.String("user_id", userID),
	)
	coupon.UsedCount++
	return coupon, quote, nil
}

func recordRedemption(err error) {
	switch {
	case err == nil:
		metrics.RecordCouponRedemption("applied")
	case errors.Is(err, models.ErrCouponLimitReached):
		metrics.RecordCouponRedemption("limit_reached")
	case errors.Is(err, models.ErrCouponAlreadyUsed):
		metrics.RecordCouponRedemption("already_used")
	case errors.Is(err, models.ErrInvalidCoupon), errors.Is(err, models.ErrNotFound):
		metrics.RecordCouponRedemption("rejected")
	default:
		metrics.RecordCouponRedemption("error")
	}
}

// CreateCoupon stores a new coupon owned by actor. Codes are uppercased.
func (s *CouponService) CreateCoupon(ctx context.Context, actor models.Actor, in CouponInput) (*models.Coupon, error) {
	if !actor.IsVendor() && !actor.IsAdmin() {
		return nil, fmt.Errorf("only vendors and admins can create coupons: %w", models.ErrUnauthorized)
	}
	coupon := &models.Coupon{CreatedBy: actor.ID, IsActive: true}
	if err := applyCouponInput(coupon, in); err != nil {
		return nil, err
	}
	if err := s.repos.Coupons.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// ListCoupons returns every coupon for admins and the caller's own otherwise.
func (s *CouponService) ListCoupons(ctx context.Context, actor models.Actor) ([]models.Coupon, error) {
	switch {
	case actor.IsAdmin():
		return s.repos.Coupons.List(ctx, "")
	case actor.IsVendor():
		return s.repos.Coupons.List(ctx, actor.ID)
	default:
		return nil, fmt.Errorf("coupon listing: %w", models.ErrUnauthorized)
	}
}

// UpdateCoupon edits a coupon. Only its creator or an admin may do so.
func (s *CouponService) UpdateCoupon(ctx context.Context, actor models.Actor, id string, in CouponInput) (*models.Coupon, error) {
	coupon, err := s.repos.Coupons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !coupon.CanManage(actor) {
		return nil, fmt.Errorf("coupon %s: %w", id, models.ErrUnauthorized)
	}
	if err := applyCouponInput(coupon, in); err != nil {
		return nil, err
	}
	coupon.UsedBy = nil
	if err := s.repos.Coupons.Update(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// DeleteCoupon removes a coupon. Only its creator or an admin may do so.
func (s *CouponService) DeleteCoupon(ctx context.Context, actor models.Actor, id string) error {
	coupon, err := s.repos.Coupons.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !coupon.CanManage(actor) {
		return fmt.Errorf("coupon %s: %w", id, models.ErrUnauthorized)
	}
	return s.repos.Coupons.Delete(ctx, id)
}

func applyCouponInput(c *models.Coupon, in CouponInput) error {
	if err := ValidateStruct(in); err != nil {
		return err
	}
	c.Code = models.NormalizeCode(in.Code)
	c.Description = in.Description
	c.DiscountType = in.DiscountType
	c.DiscountValue = in.DiscountValue
	c.MinPurchase = in.MinPurchase
	c.MaxDiscount = in.MaxDiscount
	c.UsageLimit = in.UsageLimit
	c.ValidFrom = in.ValidFrom.UTC()
	c.ValidUntil = in.ValidUntil.UTC()
	c.ApplicableCategories = in.ApplicableCategories
	c.ApplicableProducts = in.ApplicableProducts
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	return c.Validate()
}
