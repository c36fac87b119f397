package handlers

import (
	"apexify/internal/models"
	"apexify/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders. All routes require authentication.
type OrderHandler struct {
	service *services.OrderService
	auth    fiber.Handler
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService, auth fiber.Handler) *OrderHandler {
	return &OrderHandler{
		service: service,
		auth:    auth,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders", h.auth)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Put("/:id/status", h.HandleUpdateOrderStatus)
	orderRoutes.Put("/:id/pay", h.HandleConfirmPayment)
}

// HandleGetOrders lists the orders visible to the caller: all of them for an
// admin, orders with the vendor's products for a vendor, otherwise their own.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(c.UserContext(), actor(c))
	if err != nil {
		return writeError(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return writeError(c, "Could not retrieve order", err)
	}
	return c.JSON(order)
}

// HandleCreateOrder checks out a cart for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var in services.CreateOrderInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}

	order, err := h.service.CreateOrder(c.UserContext(), actor(c), in)
	if err != nil {
		return writeError(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// StatusUpdateRequest is the body of a status change.
type StatusUpdateRequest struct {
	Status models.OrderStatus `json:"status"`
}

// HandleUpdateOrderStatus moves an order along its lifecycle.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	order, err := h.service.UpdateOrderStatus(c.UserContext(), actor(c), c.Params("id"), req.Status)
	if err != nil {
		return writeError(c, "Could not update order status", err)
	}
	return c.JSON(order)
}

// PaymentRequest carries the payment provider's confirmation.
type PaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// HandleConfirmPayment marks an order as paid.
func (h *OrderHandler) HandleConfirmPayment(c *fiber.Ctx) error {
	var req PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	order, err := h.service.ConfirmPayment(c.UserContext(), actor(c), c.Params("id"), req.PaymentIntentID)
	if err != nil {
		return writeError(c, "Could not confirm payment", err)
	}
	return c.JSON(order)
}
