package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenhouse-project/support-service/internal/domain"
	apperrors "github.com/greenhouse-project/support-service/pkg/util"
)

func newTestRatingService(store *fakeStore) *RatingService {
	return NewRatingService(store, nil, zap.NewNop())
}

func seedResolvedTicket(store *fakeStore, id string) {
	store.addTicket(&domain.Ticket{
		TicketID:  id,
		ProjectID: "8177994",
		ClientID:  "USR-CLIENT1",
		Status:    domain.TicketStatusResolved,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	})
}

func TestSetRatingOnResolvedTicket(t *testing.T) {
	store := newFakeStore()
	svc := newTestRatingService(store)
	seedResolvedTicket(store, "8177994-001")

	comment := "great service"
	ticket, err := svc.SetRating(context.Background(), nil, "8177994-001", 4, &comment, "public")
	require.NoError(t, err)

	require.NotNil(t, ticket.Rating)
	assert.Equal(t, 4, *ticket.Rating)
	require.NotNil(t, ticket.RatingComment)
	assert.Equal(t, "great service", *ticket.RatingComment)

	history := store.historyFor("8177994-001")
	require.Len(t, history, 1)
	assert.Equal(t, domain.ActionTicketRated, history[0].Action)
	assert.Nil(t, history[0].UserID)
	assert.Equal(t, "public", history[0].Metadata["source"])
	assert.Equal(t, "4", *history[0].NewValue)
}

func TestSetRatingTwiceFails(t *testing.T) {
	store := newFakeStore()
	svc := newTestRatingService(store)
	seedResolvedTicket(store, "8177994-001")

	_, err := svc.SetRating(context.Background(), nil, "8177994-001", 5, nil, "public")
	require.NoError(t, err)

	_, err = svc.SetRating(context.Background(), nil, "8177994-001", 1, nil, "public")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "ALREADY_RATED"))

	// The stored value is untouched.
	ticket, err := store.Tickets().GetByID(context.Background(), "8177994-001")
	require.NoError(t, err)
	require.NotNil(t, ticket.Rating)
	assert.Equal(t, 5, *ticket.Rating)
}

func TestSetRatingRequiresTerminalStatus(t *testing.T) {
	store := newFakeStore()
	svc := newTestRatingService(store)

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusNew,
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
		domain.TicketStatusWaiting,
	} {
		id := "8177994-" + string(status)
		store.addTicket(&domain.Ticket{TicketID: id, ClientID: "USR-CLIENT1", Status: status})

		_, err := svc.SetRating(context.Background(), nil, id, 3, nil, "public")
		require.Error(t, err, "status %s", status)
		assert.True(t, apperrors.IsCode(err, "INVALID_STATE"), "status %s", status)
	}
}

func TestSetRatingValidatesRange(t *testing.T) {
	store := newFakeStore()
	svc := newTestRatingService(store)
	seedResolvedTicket(store, "8177994-001")

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.SetRating(context.Background(), nil, "8177994-001", rating, nil, "public")
		require.Error(t, err, "rating %d", rating)
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "rating %d", rating)
	}
}

func TestSetRatingOnClosedTicket(t *testing.T) {
	store := newFakeStore()
	svc := newTestRatingService(store)
	store.addTicket(&domain.Ticket{
		TicketID: "8177994-001",
		ClientID: "USR-CLIENT1",
		Status:   domain.TicketStatusClosed,
	})

	actor := &domain.User{ID: "USR-CLIENT1", Role: domain.RoleClient}
	ticket, err := svc.SetRating(context.Background(), actor, "8177994-001", 5, nil, "api")
	require.NoError(t, err)
	require.NotNil(t, ticket.Rating)
	assert.Equal(t, 5, *ticket.Rating)

	history := store.historyFor("8177994-001")
	require.Len(t, history, 1)
	require.NotNil(t, history[0].UserID)
	assert.Equal(t, actor.ID, *history[0].UserID)
}

func TestSetRatingAuthenticatedRequiresOwningClient(t *testing.T) {
	store := newFakeStore()
	svc := newTestRatingService(store)
	seedResolvedTicket(store, "8177994-001")

	// Another client, an engineer, and an admin all get rejected; only the
	// ticket's own client may rate through the authenticated endpoint.
	for _, actor := range []*domain.User{
		{ID: "USR-CLIENT2", Role: domain.RoleClient},
		{ID: "USR-ENG1", Role: domain.RoleEngineer},
		{ID: "USR-ADMIN", Role: domain.RoleAdmin},
	} {
		_, err := svc.SetRating(context.Background(), actor, "8177994-001", 1, nil, "api")
		require.Error(t, err, "actor %s", actor.ID)
		assert.True(t, apperrors.IsCode(err, "FORBIDDEN"), "actor %s", actor.ID)
	}

	// The stored value stays untouched and the owner can still rate.
	ticket, err := store.Tickets().GetByID(context.Background(), "8177994-001")
	require.NoError(t, err)
	assert.Nil(t, ticket.Rating)

	owner := &domain.User{ID: "USR-CLIENT1", Role: domain.RoleClient}
	ticket, err = svc.SetRating(context.Background(), owner, "8177994-001", 4, nil, "api")
	require.NoError(t, err)
	require.NotNil(t, ticket.Rating)
	assert.Equal(t, 4, *ticket.Rating)
}

func TestSetRatingUnknownTicketNotFound(t *testing.T) {
	store := newFakeStore()
	svc := newTestRatingService(store)

	_, err := svc.SetRating(context.Background(), nil, "999-404", 5, nil, "quick")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestRatingInfo(t *testing.T) {
	store := newFakeStore()
	svc := newTestRatingService(store)
	seedResolvedTicket(store, "8177994-001")

	info, err := svc.Info(context.Background(), "8177994-001")
	require.NoError(t, err)
	assert.True(t, info.CanRate)
	assert.Nil(t, info.Rating)

	_, err = svc.SetRating(context.Background(), nil, "8177994-001", 3, nil, "quick")
	require.NoError(t, err)

	info, err = svc.Info(context.Background(), "8177994-001")
	require.NoError(t, err)
	assert.False(t, info.CanRate)
	require.NotNil(t, info.Rating)
	assert.Equal(t, 3, *info.Rating)

	_, err = svc.Info(context.Background(), "missing-001")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
