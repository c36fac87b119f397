package handlers

import (
	"apexify/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service *services.ReviewService
	auth    fiber.Handler
}

// NewReviewHandler creates a new ReviewHandler. auth guards the write routes.
func NewReviewHandler(service *services.ReviewService, auth fiber.Handler) *ReviewHandler {
	return &ReviewHandler{service: service, auth: auth}
}

// RegisterRoutes registers the review routes with the Fiber app.
func (h *ReviewHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products/:id/reviews", h.HandleList)
	router.Post("/products/:id/reviews", h.auth, h.HandleCreate)
	router.Put("/reviews/:id", h.auth, h.HandleUpdate)
	router.Delete("/reviews/:id", h.auth, h.HandleDelete)
}

// HandleList returns the reviews of a product, newest first.
func (h *ReviewHandler) HandleList(c *fiber.Ctx) error {
	reviews, err := h.service.ListProductReviews(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, "Could not retrieve reviews", err)
	}
	return c.JSON(reviews)
}

// HandleCreate adds the caller's review of a product.
func (h *ReviewHandler) HandleCreate(c *fiber.Ctx) error {
	var in services.ReviewInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}
	review, err := h.service.CreateReview(c.UserContext(), actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, "Could not create review", err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// HandleUpdate edits the caller's review.
func (h *ReviewHandler) HandleUpdate(c *fiber.Ctx) error {
	var in services.ReviewInput
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c, err)
	}
	review, err := h.service.UpdateReview(c.UserContext(), actor(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, "Could not update review", err)
	}
	return c.JSON(review)
}

// HandleDelete removes a review.
func (h *ReviewHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.DeleteReview(c.UserContext(), actor(c), c.Params("id")); err != nil {
		return writeError(c, "Could not delete review", err)
	}
	return c.JSON(fiber.Map{"message": "Review deleted successfully"})
}
