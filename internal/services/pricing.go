package services

import (
	"apexify/internal/models"

	"github.com/shopspring/decimal"
)

var (
	freeShippingThreshold = decimal.NewFromInt(100)
	flatShippingFee       = decimal.NewFromInt(10)
	taxRate               = decimal.RequireFromString("0.10")
)

// Pricing is the derived money breakdown of an order.
type Pricing struct {
	ItemsPrice    decimal.Decimal
	ShippingPrice decimal.Decimal
	TaxPrice      decimal.Decimal
	Discount      decimal.Decimal
	TotalPrice    decimal.Decimal
}

// CalculatePricing prices the snapshot lines: free shipping strictly above
// 100, otherwise a flat 10; tax is 10% of the items rounded to cents.
func CalculatePricing(items []models.OrderItem) Pricing {
	itemsPrice := decimal.Zero
	for _, item := range items {
		itemsPrice = itemsPrice.Add(item.Subtotal())
	}

	shipping := flatShippingFee
	if itemsPrice.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := itemsPrice.Mul(taxRate).Round(2)

	return Pricing{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		Discount:      decimal.Zero,
		TotalPrice:    itemsPrice.Add(shipping).Add(tax),
	}
}

// WithDiscount subtracts discount from the total, never going below zero.
func (p Pricing) WithDiscount(discount decimal.Decimal) Pricing {
	p.Discount = discount
	p.TotalPrice = decimal.Max(p.TotalPrice.Sub(discount), decimal.Zero)
	return p
}
