package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenhouse-project/support-service/internal/domain"
)

func TestRecalculateSLASetsMetFlags(t *testing.T) {
	store := newFakeStore()
	svc := NewMaintenanceService(store, zap.NewNop())

	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	engineer := "USR-ENG-A"

	// Met both targets: high priority, assigned within 4h, resolved within 24h.
	assignedOK := created.Add(2 * time.Hour)
	resolvedOK := created.Add(20 * time.Hour)
	store.addTicket(&domain.Ticket{
		TicketID:   "1111111-001",
		Status:     domain.TicketStatusResolved,
		Priority:   domain.TicketPriorityHigh,
		AssignedTo: &engineer,
		AssignedAt: &assignedOK,
		ResolvedAt: &resolvedOK,
		CreatedAt:  created,
	})

	// Missed both: critical, assigned after 1h, resolved after 4h.
	assignedLate := created.Add(3 * time.Hour)
	resolvedLate := created.Add(10 * time.Hour)
	store.addTicket(&domain.Ticket{
		TicketID:   "2222222-001",
		Status:     domain.TicketStatusClosed,
		Priority:   domain.TicketPriorityCritical,
		AssignedTo: &engineer,
		AssignedAt: &assignedLate,
		ResolvedAt: &resolvedLate,
		CreatedAt:  created,
	})

	// Active tickets are never touched.
	store.addTicket(&domain.Ticket{
		TicketID:  "3333333-001",
		Status:    domain.TicketStatusInProgress,
		Priority:  domain.TicketPriorityLow,
		CreatedAt: created,
	})

	result, err := svc.RecalculateSLA(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Updated)

	ok, err := store.Tickets().GetByID(context.Background(), "1111111-001")
	require.NoError(t, err)
	require.NotNil(t, ok.SLAResponseMet)
	assert.True(t, *ok.SLAResponseMet)
	require.NotNil(t, ok.SLAResolutionMet)
	assert.True(t, *ok.SLAResolutionMet)

	late, err := store.Tickets().GetByID(context.Background(), "2222222-001")
	require.NoError(t, err)
	require.NotNil(t, late.SLAResponseMet)
	assert.False(t, *late.SLAResponseMet)
	require.NotNil(t, late.SLAResolutionMet)
	assert.False(t, *late.SLAResolutionMet)

	active, err := store.Tickets().GetByID(context.Background(), "3333333-001")
	require.NoError(t, err)
	assert.Nil(t, active.SLAResponseMet)
	assert.Nil(t, active.SLAResolutionMet)
}

func TestRecalculateSLAIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewMaintenanceService(store, zap.NewNop())

	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	engineer := "USR-ENG-A"
	assignedAt := created.Add(time.Hour)
	resolvedAt := created.Add(48 * time.Hour)
	store.addTicket(&domain.Ticket{
		TicketID:   "1111111-001",
		Status:     domain.TicketStatusResolved,
		Priority:   domain.TicketPriorityMedium,
		AssignedTo: &engineer,
		AssignedAt: &assignedAt,
		ResolvedAt: &resolvedAt,
		CreatedAt:  created,
	})

	first, err := svc.RecalculateSLA(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	second, err := svc.RecalculateSLA(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Processed)
	assert.Equal(t, 0, second.Updated)
}

func TestFixTimestampsFromHistory(t *testing.T) {
	store := newFakeStore()
	svc := NewMaintenanceService(store, zap.NewNop())

	created := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	engineer := "USR-ENG-A"
	store.addTicket(&domain.Ticket{
		TicketID:   "8177994-001",
		Status:     domain.TicketStatusClosed,
		AssignedTo: &engineer,
		CreatedAt:  created,
		UpdatedAt:  created,
	})

	assignedEntry := created.Add(90 * time.Minute)
	resolvedEntry := created.Add(30 * time.Hour)
	store.history = append(store.history,
		domain.TicketHistory{
			TicketID:  "8177994-001",
			Action:    domain.ActionTicketAssigned,
			CreatedAt: assignedEntry,
		},
		domain.TicketHistory{
			TicketID:  "8177994-001",
			Action:    domain.ActionStatusChanged,
			NewValue:  strPtr("resolved"),
			CreatedAt: resolvedEntry,
		},
	)

	result, err := svc.FixTimestamps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.AssignedFixed)
	assert.Equal(t, 1, result.ResolvedFixed)

	ticket, err := store.Tickets().GetByID(context.Background(), "8177994-001")
	require.NoError(t, err)
	require.NotNil(t, ticket.AssignedAt)
	assert.Equal(t, assignedEntry, *ticket.AssignedAt)
	require.NotNil(t, ticket.ResolvedAt)
	assert.Equal(t, resolvedEntry, *ticket.ResolvedAt)
}

func TestFixTimestampsEstimatesWithoutHistory(t *testing.T) {
	store := newFakeStore()
	svc := NewMaintenanceService(store, zap.NewNop())

	created := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	engineer := "USR-ENG-A"
	store.addTicket(&domain.Ticket{
		TicketID:   "8177994-001",
		Status:     domain.TicketStatusResolved,
		AssignedTo: &engineer,
		CreatedAt:  created,
		UpdatedAt:  created,
	})

	result, err := svc.FixTimestamps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.AssignedFixed)
	assert.Equal(t, 1, result.ResolvedFixed)

	ticket, err := store.Tickets().GetByID(context.Background(), "8177994-001")
	require.NoError(t, err)
	require.NotNil(t, ticket.AssignedAt)
	assert.Equal(t, created.Add(time.Hour), *ticket.AssignedAt)
	require.NotNil(t, ticket.ResolvedAt)
	assert.Equal(t, created.Add(24*time.Hour), *ticket.ResolvedAt)
}

func TestFixTimestampsLeavesCompleteTicketsAlone(t *testing.T) {
	store := newFakeStore()
	svc := NewMaintenanceService(store, zap.NewNop())

	created := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	engineer := "USR-ENG-A"
	assignedAt := created.Add(time.Hour)
	resolvedAt := created.Add(5 * time.Hour)
	store.addTicket(&domain.Ticket{
		TicketID:   "8177994-001",
		Status:     domain.TicketStatusClosed,
		AssignedTo: &engineer,
		AssignedAt: &assignedAt,
		ResolvedAt: &resolvedAt,
		CreatedAt:  created,
	})

	result, err := svc.FixTimestamps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.AssignedFixed)
	assert.Equal(t, 0, result.ResolvedFixed)
}
