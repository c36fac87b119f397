package services_test

import (
	"testing"

	"apexify/internal/models"
	"apexify/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func item(price string, qty int) models.OrderItem {
	return models.OrderItem{Price: decimal.RequireFromString(price), Quantity: qty}
}

func TestCalculatePricing(t *testing.T) {
	tests := []struct {
		name  string
		items []models.OrderItem
		want  [4]string // items, shipping, tax, total
	}{
		{"free shipping above 100", []models.OrderItem{item("60", 1), item("50", 1)}, [4]string{"110", "0", "11", "121"}},
		{"flat shipping below 100", []models.OrderItem{item("80", 1)}, [4]string{"80", "10", "8", "98"}},
		{"exactly 100 still ships", []models.OrderItem{item("25", 4)}, [4]string{"100", "10", "10", "120"}},
		{"tax rounds to cents", []models.OrderItem{item("19.99", 3)}, [4]string{"59.97", "10", "6", "75.97"}},
		{"empty cart", nil, [4]string{"0", "10", "0", "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := services.CalculatePricing(tt.items)
			assert.True(t, decimal.RequireFromString(tt.want[0]).Equal(p.ItemsPrice), p.ItemsPrice.String())
			assert.True(t, decimal.RequireFromString(tt.want[1]).Equal(p.ShippingPrice), p.ShippingPrice.String())
			assert.True(t, decimal.RequireFromString(tt.want[2]).Equal(p.TaxPrice), p.TaxPrice.String())
			assert.True(t, decimal.RequireFromString(tt.want[3]).Equal(p.TotalPrice), p.TotalPrice.String())
		})
	}
}

func TestPricing_WithDiscount(t *testing.T) {
	p := services.CalculatePricing([]models.OrderItem{item("100", 1)})

	discounted := p.WithDiscount(decimal.NewFromInt(15))
	assert.True(t, decimal.NewFromInt(105).Equal(discounted.TotalPrice))
	assert.True(t, decimal.NewFromInt(15).Equal(discounted.Discount))

	floored := p.WithDiscount(decimal.NewFromInt(1000))
	assert.True(t, floored.TotalPrice.IsZero())
	assert.True(t, decimal.NewFromInt(120).Equal(p.TotalPrice), "original pricing unchanged")
}
