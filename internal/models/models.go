// Package models holds the marketplace entities and their pure domain rules.
package models

import "github.com/shopspring/decimal"

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// All lists every persisted entity, in migration order.
func All() []any {
	return []any{
		&User{}, &Product{}, &Order{}, &OrderItem{},
		&Coupon{}, &CouponUsage{}, &Review{}, &PopupAd{}, &Wishlist{},
	}
}
