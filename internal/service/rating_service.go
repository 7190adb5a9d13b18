package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenhouse-project/support-service/internal/domain"
	"github.com/greenhouse-project/support-service/internal/events"
	"github.com/greenhouse-project/support-service/internal/repository"
	apperrors "github.com/greenhouse-project/support-service/pkg/util"
)

// RatingService records client satisfaction scores. A rating can be set
// exactly once, and only on a resolved or closed ticket; later attempts
// fail without touching the stored value.
type RatingService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger

	now func() time.Time
}

// NewRatingService constructs the service.
func NewRatingService(store repository.Store, dispatcher events.Dispatcher, logger *zap.Logger) *RatingService {
	return &RatingService{store: store, dispatcher: dispatcher, logger: logger, now: time.Now}
}

// RatingInfo is the public view used by the rating page.
type RatingInfo struct {
	TicketID string              `json:"ticket_id"`
	Title    string              `json:"title"`
	Status   domain.TicketStatus `json:"status"`
	Rating   *int                `json:"rating,omitempty"`
	CanRate  bool                `json:"can_rate"`
}

// Info returns whether the ticket can still be rated. It backs the
// unauthenticated rating page, so it exposes only the minimum fields.
func (s *RatingService) Info(ctx context.Context, ticketID string) (*RatingInfo, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &RatingInfo{
		TicketID: ticket.TicketID,
		Title:    ticket.Title,
		Status:   ticket.Status,
		Rating:   ticket.Rating,
		CanRate:  ticket.Rateable(),
	}, nil
}

// SetRating stores the score. actor is nil when the rating comes from the
// public (unauthenticated) rating link; an authenticated actor must be the
// ticket's client. source labels the entry point for the audit trail
// ("api", "public", "quick").
func (s *RatingService) SetRating(ctx context.Context, actor *domain.User, ticketID string, rating int, comment *string, source string) (*domain.Ticket, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}

	var actorID *string
	if actor != nil {
		actorID = &actor.ID
	}

	var ticket *domain.Ticket
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if actor != nil && (actor.Role != domain.RoleClient || ticket.ClientID != actor.ID) {
			return apperrors.NewForbidden("only the ticket's client may rate it")
		}
		if ticket.Rating != nil {
			return apperrors.NewAlreadyRated(ticket.TicketID)
		}
		if !ticket.Resolved() {
			return apperrors.NewInvalidState("ticket must be resolved or closed before rating",
				map[string]any{"status": string(ticket.Status)})
		}

		ticket.Rating = &rating
		ticket.RatingComment = comment
		ticket.UpdatedAt = s.now()

		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}

		meta := map[string]any{"source": source}
		if comment != nil && *comment != "" {
			meta["comment"] = *comment
		}
		return tx.History().Create(ctx, &domain.TicketHistory{
			TicketID:     ticket.TicketID,
			UserID:       actorID,
			Action:       domain.ActionTicketRated,
			FieldChanged: strPtr("rating"),
			NewValue:     strPtr(fmt.Sprintf("%d", rating)),
			Metadata:     meta,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketRated,
			TicketID:  ticket.TicketID,
			ActorID:   actorID,
			Timestamp: s.now(),
			Payload: events.TicketRatedPayload{
				Rating:  rating,
				Comment: strDeref(comment),
				Source:  source,
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return ticket, nil
}
