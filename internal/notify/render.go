package notify

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"apexify/internal/models"
)

var statusMessages = map[models.OrderStatus]string{
	models.OrderProcessing: "Your order is being processed.",
	models.OrderShipped:    "Your order has been shipped!",
	models.OrderDelivered:  "Your order has been delivered.",
	models.OrderCancelled:  "Your order has been cancelled.",
}

var templates = template.Must(template.New("notify").Parse(`
{{- define "order_confirmation" -}}
Hi {{.User.Username}},

Thank you for your order! We have received order #{{.Order.OrderNumber}}.

{{range .Order.Items -}}
{{.Name}} x {{.Quantity}} @ ${{.Price.StringFixed 2}}
{{end}}
Subtotal: ${{.Order.ItemsPrice.StringFixed 2}}
Shipping: ${{.Order.ShippingPrice.StringFixed 2}}
Tax: ${{.Order.TaxPrice.StringFixed 2}}
{{- if .Order.CouponCode}}
Discount ({{.Order.CouponCode}}): -${{.Order.CouponDiscount.StringFixed 2}}
{{- end}}
Total: ${{.Order.TotalPrice.StringFixed 2}}

Shipping to:
{{.Order.ShippingAddress.Street}}
{{.Order.ShippingAddress.City}}, {{.Order.ShippingAddress.State}} {{.Order.ShippingAddress.ZipCode}}
{{.Order.ShippingAddress.Country}}

Best regards,
The Apexify Team
{{end -}}

{{- define "status_update" -}}
Hi {{.User.Username}},

Your order #{{.Order.OrderNumber}} status has been updated to: {{.Order.OrderStatus}}
{{.Message}}

Best regards,
The Apexify Team
{{end -}}

{{- define "welcome" -}}
Hi {{.User.Username}},

Thank you for joining Apexify, your multi-vendor marketplace.
{{if eq .User.Role "vendor" -}}
As a vendor, you can now start listing your products and reach customers worldwide!
{{- else -}}
Start browsing products from our amazing vendors.
{{- end}}

Best regards,
The Apexify Team
{{end -}}
`))

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderOrderConfirmation builds the message sent when an order is placed.
func RenderOrderConfirmation(order *models.Order, user *models.User) (Notification, error) {
	body, err := execute("order_confirmation", map[string]any{"Order": order, "User": user})
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		Event:     EventOrderCreated,
		To:        user.Email,
		Subject:   "Order Confirmation - #" + order.OrderNumber,
		Body:      body,
		UserID:    user.ID,
		OrderID:   order.ID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RenderStatusUpdate builds the message sent when an order changes status.
func RenderStatusUpdate(order *models.Order, user *models.User) (Notification, error) {
	message, ok := statusMessages[order.OrderStatus]
	if !ok {
		message = "Your order status has been updated."
	}
	body, err := execute("status_update", map[string]any{"Order": order, "User": user, "Message": message})
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		Event:     EventOrderStatusChanged,
		To:        user.Email,
		Subject:   "Order Update - #" + order.OrderNumber,
		Body:      body,
		UserID:    user.ID,
		OrderID:   order.ID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RenderWelcome builds the message sent after registration.
func RenderWelcome(user *models.User) (Notification, error) {
	body, err := execute("welcome", map[string]any{"User": user})
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		Event:     EventUserRegistered,
		To:        user.Email,
		Subject:   "Welcome to Apexify!",
		Body:      body,
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
	}, nil
}
