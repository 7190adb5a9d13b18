package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/greenhouse-project/support-service/internal/domain"
	"github.com/greenhouse-project/support-service/internal/repository"
	"github.com/greenhouse-project/support-service/internal/sla"
	apperrors "github.com/greenhouse-project/support-service/pkg/util"
)

// MaintenanceService hosts the admin data-repair operations: SLA flag
// recalculation and backfilling of missing lifecycle timestamps on
// historical tickets.
type MaintenanceService struct {
	store  repository.Store
	logger *zap.Logger

	now func() time.Time
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(store repository.Store, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{store: store, logger: logger, now: time.Now}
}

// RecalculateResult summarizes an SLA recalculation run.
type RecalculateResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
}

// RecalculateSLA re-derives deadlines and met flags for every resolved or
// closed ticket. Deadlines come from the creation time and current
// priority, so tickets whose priority changed after creation get repaired
// here too.
func (m *MaintenanceService) RecalculateSLA(ctx context.Context) (*RecalculateResult, error) {
	tickets, err := m.store.Tickets().ListByStatuses(ctx, []domain.TicketStatus{
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &RecalculateResult{Processed: len(tickets)}
	for i := range tickets {
		ticket := &tickets[i]

		deadlines := sla.CalculateDeadlines(ticket.CreatedAt, sla.For(ticket.Priority))
		before := snapshotSLA(ticket)

		ticket.SLAResponseDeadline = &deadlines.Response
		ticket.SLAResolutionDeadline = &deadlines.Resolution
		evaluateSLA(ticket)

		if before == snapshotSLA(ticket) {
			continue
		}
		ticket.UpdatedAt = m.now()
		if err := m.store.Tickets().Update(ctx, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
		result.Updated++
	}

	m.logger.Info("sla recalculation finished",
		zap.Int("processed", result.Processed),
		zap.Int("updated", result.Updated))
	return result, nil
}

// BackfillResult summarizes a timestamp backfill run.
type BackfillResult struct {
	Processed     int `json:"processed"`
	AssignedFixed int `json:"assigned_fixed"`
	ResolvedFixed int `json:"resolved_fixed"`
}

// FixTimestamps fills missing assigned_at and resolved_at values on old
// tickets from the audit trail. When no usable history entry exists the
// value is estimated from the creation time.
func (m *MaintenanceService) FixTimestamps(ctx context.Context) (*BackfillResult, error) {
	tickets, err := m.store.Tickets().ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &BackfillResult{Processed: len(tickets)}
	for i := range tickets {
		ticket := &tickets[i]
		changed := false

		if ticket.AssignedAt == nil && ticket.AssignedTo != nil {
			at, err := m.assignedAtFromHistory(ctx, ticket)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			ticket.AssignedAt = &at
			result.AssignedFixed++
			changed = true
		}

		if ticket.ResolvedAt == nil && ticket.Resolved() {
			at, err := m.resolvedAtFromHistory(ctx, ticket)
			if err != nil {
				return nil, apperrors.MapError(err)
			}
			ticket.ResolvedAt = &at
			result.ResolvedFixed++
			changed = true
		}

		if changed {
			ticket.UpdatedAt = m.now()
			if err := m.store.Tickets().Update(ctx, ticket); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
	}

	m.logger.Info("timestamp backfill finished",
		zap.Int("processed", result.Processed),
		zap.Int("assigned_fixed", result.AssignedFixed),
		zap.Int("resolved_fixed", result.ResolvedFixed))
	return result, nil
}

func (m *MaintenanceService) assignedAtFromHistory(ctx context.Context, ticket *domain.Ticket) (time.Time, error) {
	entry, err := m.store.History().FirstByAction(ctx, ticket.TicketID, domain.ActionTicketAssigned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ticket.CreatedAt.Add(time.Hour), nil
		}
		return time.Time{}, err
	}
	return entry.CreatedAt, nil
}

func (m *MaintenanceService) resolvedAtFromHistory(ctx context.Context, ticket *domain.Ticket) (time.Time, error) {
	entry, err := m.store.History().FirstStatusChangeInto(ctx, ticket.TicketID, []string{
		string(domain.TicketStatusResolved),
		string(domain.TicketStatusClosed),
	})
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, err
		}
		if !ticket.UpdatedAt.IsZero() && ticket.UpdatedAt.After(ticket.CreatedAt) {
			return ticket.UpdatedAt, nil
		}
		return ticket.CreatedAt.Add(24 * time.Hour), nil
	}
	return entry.CreatedAt, nil
}

// snapshotSLA reduces the SLA fields to a comparable value so the
// recalculation only writes rows that actually change.
func snapshotSLA(t *domain.Ticket) [4]string {
	fmtTime := func(ts *time.Time) string {
		if ts == nil {
			return ""
		}
		return ts.UTC().Format(time.RFC3339Nano)
	}
	fmtBool := func(b *bool) string {
		if b == nil {
			return ""
		}
		if *b {
			return "t"
		}
		return "f"
	}
	return [4]string{
		fmtTime(t.SLAResponseDeadline),
		fmtTime(t.SLAResolutionDeadline),
		fmtBool(t.SLAResponseMet),
		fmtBool(t.SLAResolutionMet),
	}
}
