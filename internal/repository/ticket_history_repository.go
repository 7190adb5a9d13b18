package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/greenhouse-project/support-service/internal/domain"
)

// TicketHistoryRepository stores audit entries. Rows are append-only;
// there is no update or single-row delete.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
	FirstByAction(ctx context.Context, ticketID string, action domain.HistoryAction) (*domain.TicketHistory, error)
	FirstStatusChangeInto(ctx context.Context, ticketID string, values []string) (*domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db DB
}

const historyColumns = `id, ticket_id, user_id, action, field_changed, old_value, new_value, metadata, created_at`

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, user_id, action, field_changed, old_value, new_value, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		history.TicketID,
		history.UserID,
		history.Action,
		history.FieldChanged,
		history.OldValue,
		history.NewValue,
		history.Metadata,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistoryRows(rows)
}

// FirstByAction returns the earliest entry with the given action, used by
// the timestamp backfill tooling.
func (r *ticketHistoryRepository) FirstByAction(ctx context.Context, ticketID string, action domain.HistoryAction) (*domain.TicketHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM ticket_history
        WHERE ticket_id=$1 AND action=$2 ORDER BY created_at ASC LIMIT 1`
	var entry domain.TicketHistory
	if err := scanHistory(r.db.QueryRow(ctx, query, ticketID, action), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FirstStatusChangeInto returns the earliest status change whose new value
// is one of the given status strings.
func (r *ticketHistoryRepository) FirstStatusChangeInto(ctx context.Context, ticketID string, values []string) (*domain.TicketHistory, error) {
	placeholders := make([]string, len(values))
	args := []any{ticketID}
	for i, v := range values {
		args = append(args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`SELECT %s FROM ticket_history
        WHERE ticket_id=$1 AND action IN ('status_changed','ticket_resolved','ticket_closed')
          AND new_value IN (%s)
        ORDER BY created_at ASC LIMIT 1`, historyColumns, strings.Join(placeholders, ","))
	var entry domain.TicketHistory
	if err := scanHistory(r.db.QueryRow(ctx, query, args...), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func scanHistory(row pgx.Row, entry *domain.TicketHistory) error {
	return row.Scan(
		&entry.ID,
		&entry.TicketID,
		&entry.UserID,
		&entry.Action,
		&entry.FieldChanged,
		&entry.OldValue,
		&entry.NewValue,
		&entry.Metadata,
		&entry.CreatedAt,
	)
}

func scanHistoryRows(rows pgx.Rows) ([]domain.TicketHistory, error) {
	var result []domain.TicketHistory
	for rows.Next() {
		var entry domain.TicketHistory
		if err := scanHistory(rows, &entry); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
