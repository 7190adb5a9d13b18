package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/greenhouse-project/support-service/internal/api/dto"
	"github.com/greenhouse-project/support-service/internal/auth"
	"github.com/greenhouse-project/support-service/internal/domain"
	"github.com/greenhouse-project/support-service/internal/service"
	apperrors "github.com/greenhouse-project/support-service/pkg/util"
)

// RatingHandler exposes the satisfaction rating endpoints: the
// authenticated route, the public rating page backend, and the one-click
// links embedded in resolution emails.
type RatingHandler struct {
	ratings         *service.RatingService
	frontendBaseURL string
}

// NewRatingHandler constructs handler.
func NewRatingHandler(ratings *service.RatingService, frontendBaseURL string) *RatingHandler {
	return &RatingHandler{ratings: ratings, frontendBaseURL: frontendBaseURL}
}

// Info GET /api/public/tickets/:id/rating.
func (h *RatingHandler) Info(c *fiber.Ctx) error {
	info, err := h.ratings.Info(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": info})
}

// Rate POST /api/tickets/:id/rate (authenticated). The service enforces
// that the actor is the ticket's client.
func (h *RatingHandler) Rate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return h.rate(c, principal.User, "api")
}

// RatePublic POST /api/public/tickets/:id/rate.
func (h *RatingHandler) RatePublic(c *fiber.Ctx) error {
	return h.rate(c, nil, "public")
}

func (h *RatingHandler) rate(c *fiber.Ctx, actor *domain.User, source string) error {
	var req dto.RateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.ratings.SetRating(c.UserContext(), actor, c.Params("id"), req.Rating, req.Comment, source)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketFromDomain(ticket)})
}

// RateQuick GET /api/public/tickets/:id/rate-quick/:rating.
//
// This is the one-click link from the resolution email: a GET with a side
// effect, kept isolated on the public group and always answering with a
// redirect to the frontend so the browser lands on a human-readable page.
func (h *RatingHandler) RateQuick(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	rating, err := c.ParamsInt("rating")
	if err != nil || rating < 1 || rating > 5 {
		return h.redirect(c, ticketID, "error=invalid_rating")
	}

	_, err = h.ratings.SetRating(c.UserContext(), nil, ticketID, rating, nil, "quick")
	switch {
	case err == nil:
		return h.redirect(c, ticketID, fmt.Sprintf("rated=%d", rating))
	case apperrors.IsCode(err, "ALREADY_RATED"):
		return h.redirect(c, ticketID, "already_rated=true")
	case apperrors.IsCode(err, "INVALID_STATE"):
		return h.redirect(c, ticketID, "error=status")
	case apperrors.IsCode(err, "NOT_FOUND"):
		// Unknown tickets get a plain 404 rather than a redirect; the
		// frontend has no page to land on for an ID that never existed.
		return err
	default:
		return h.redirect(c, ticketID, "error=server")
	}
}

func (h *RatingHandler) redirect(c *fiber.Ctx, ticketID, query string) error {
	return c.Redirect(fmt.Sprintf("%s/rate/%s?%s", h.frontendBaseURL, ticketID, query), http.StatusFound)
}
