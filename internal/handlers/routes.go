package handlers

import (
	"errors"

	"apexify/internal/logging"
	"apexify/internal/middleware"
	"apexify/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Auth      *services.AuthService
	Products  *services.ProductService
	Orders    *services.OrderService
	Coupons   *services.CouponService
	Reviews   *services.ReviewService
	PopupAds  *services.PopupAdService
	Wishlists *services.WishlistService
}

// RegisterRoutes mounts every API handler on router, usually the /api/v1 group.
func RegisterRoutes(router fiber.Router, svc Services) {
	auth := middleware.AuthRequired(svc.Auth)

	NewAuthHandler(svc.Auth).RegisterRoutes(router)
	NewProductHandler(svc.Products, auth).RegisterRoutes(router)
	NewReviewHandler(svc.Reviews, auth).RegisterRoutes(router)
	NewOrderHandler(svc.Orders, auth).RegisterRoutes(router)
	NewCouponHandler(svc.Coupons, auth).RegisterRoutes(router)
	NewPopupAdHandler(svc.PopupAds, auth).RegisterRoutes(router)
	NewWishlistHandler(svc.Wishlists, auth).RegisterRoutes(router)
}

// ErrorHandler renders errors that escape the handlers, such as unknown
// routes and recovered panics, in the same body shape as writeError.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		logging.FromContext(c.UserContext()).Error("unhandled_error", zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
