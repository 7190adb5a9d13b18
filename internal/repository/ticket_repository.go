package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/greenhouse-project/support-service/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Category   *string
	AssignedTo *string
	ClientID   *string
	ProjectID  *string
	SearchTerm *string
	DateFrom   *time.Time
	DateTo     *time.Time

	// OwnOrUnassigned scopes the listing to tickets assigned to the given
	// engineer or not assigned at all (the engineer default view).
	OwnOrUnassigned *string

	OrderBy  string
	OrderDir string
	Limit    int
	Offset   int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	ListByStatuses(ctx context.Context, statuses []domain.TicketStatus) ([]domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	NextSequence(ctx context.Context, projectID string) (int, error)
	CountActiveByEngineer(ctx context.Context, engineerID string) (int, error)
}

type ticketRepository struct {
	db DB
}

const ticketColumns = `ticket_id, project_id, client_id, created_by_id, assigned_to,
               category, subcategory, title, description, status, priority, resolution_notes,
               rating, rating_comment, sla_response_deadline, sla_resolution_deadline,
               sla_response_met, sla_resolution_met, project_data,
               created_at, assigned_at, resolved_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_id, project_id, client_id, created_by_id, assigned_to,
            category, subcategory, title, description, status, priority,
            sla_response_deadline, sla_resolution_deadline, project_data,
            created_at, assigned_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$15)`
	_, err := r.db.Exec(ctx, query,
		ticket.TicketID,
		ticket.ProjectID,
		ticket.ClientID,
		ticket.CreatedByID,
		ticket.AssignedTo,
		ticket.Category,
		ticket.Subcategory,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.SLAResponseDeadline,
		ticket.SLAResolutionDeadline,
		ticket.ProjectData,
		ticket.CreatedAt,
		ticket.AssignedAt,
	)
	return err
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET assigned_to=$1, category=$2, subcategory=$3, title=$4, description=$5,
            status=$6, priority=$7, resolution_notes=$8, rating=$9, rating_comment=$10,
            sla_response_deadline=$11, sla_resolution_deadline=$12,
            sla_response_met=$13, sla_resolution_met=$14,
            assigned_at=$15, resolved_at=$16, updated_at=NOW()
        WHERE ticket_id=$17`
	cmd, err := r.db.Exec(ctx, query,
		ticket.AssignedTo,
		ticket.Category,
		ticket.Subcategory,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.ResolutionNotes,
		ticket.Rating,
		ticket.RatingComment,
		ticket.SLAResponseDeadline,
		ticket.SLAResolutionDeadline,
		ticket.SLAResponseMet,
		ticket.SLAResolutionMet,
		ticket.AssignedAt,
		ticket.ResolvedAt,
		ticket.TicketID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// Delete removes the ticket row; history, comments and attachments go with
// it via ON DELETE CASCADE.
func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE ticket_id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	join := ""

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("t.category=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("t.assigned_to=$%d", len(args)))
	}
	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("t.client_id=$%d", len(args)))
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		clauses = append(clauses, fmt.Sprintf("t.project_id=$%d", len(args)))
	}
	if filter.OwnOrUnassigned != nil {
		args = append(args, *filter.OwnOrUnassigned)
		clauses = append(clauses, fmt.Sprintf("(t.assigned_to=$%d OR t.assigned_to IS NULL)", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		join = " LEFT JOIN users u ON u.user_id = t.client_id"
		search := "%" + strings.TrimSpace(*filter.SearchTerm) + "%"
		args = append(args, search)
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(t.ticket_id ILIKE %s OR t.title ILIKE %s OR t.description ILIKE %s OR t.project_id ILIKE %s OR u.full_name ILIKE %s OR u.email ILIKE %s)",
			p, p, p, p, p, p))
	}

	where := strings.Join(clauses, " AND ")

	countQuery := "SELECT COUNT(*) FROM tickets t" + join + " WHERE " + where
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderBy := "t.created_at"
	switch filter.OrderBy {
	case "updated_at":
		orderBy = "t.updated_at"
	case "priority":
		orderBy = "t.priority"
	case "status":
		orderBy = "t.status"
	}
	orderDir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		orderDir = "ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("SELECT %s FROM tickets t%s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		prefixColumns(ticketColumns, "t."), join, where, orderBy, orderDir, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) ListByStatuses(ctx context.Context, statuses []domain.TicketStatus) ([]domain.Ticket, error) {
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("SELECT %s FROM tickets WHERE status IN (%s) ORDER BY created_at",
		ticketColumns, strings.Join(placeholders, ","))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// NextSequence reserves the next ticket number for a project. The upsert is
// atomic, so concurrent creations for the same project never collide.
func (r *ticketRepository) NextSequence(ctx context.Context, projectID string) (int, error) {
	const query = `
        INSERT INTO project_ticket_counters (project_id, next_seq)
        VALUES ($1, 1)
        ON CONFLICT (project_id)
        DO UPDATE SET next_seq = project_ticket_counters.next_seq + 1
        RETURNING next_seq`
	var seq int
	if err := r.db.QueryRow(ctx, query, projectID).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *ticketRepository) CountActiveByEngineer(ctx context.Context, engineerID string) (int, error) {
	placeholders := make([]string, len(domain.ActiveStatuses))
	args := []any{engineerID}
	for i, status := range domain.ActiveStatuses {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM tickets WHERE assigned_to=$1 AND status IN (%s)",
		strings.Join(placeholders, ","))
	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func prefixColumns(cols, prefix string) string {
	parts := strings.Split(cols, ",")
	for i, part := range parts {
		parts[i] = prefix + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.TicketID,
		&ticket.ProjectID,
		&ticket.ClientID,
		&ticket.CreatedByID,
		&ticket.AssignedTo,
		&ticket.Category,
		&ticket.Subcategory,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ResolutionNotes,
		&ticket.Rating,
		&ticket.RatingComment,
		&ticket.SLAResponseDeadline,
		&ticket.SLAResolutionDeadline,
		&ticket.SLAResponseMet,
		&ticket.SLAResolutionMet,
		&ticket.ProjectData,
		&ticket.CreatedAt,
		&ticket.AssignedAt,
		&ticket.ResolvedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
