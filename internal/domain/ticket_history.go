package domain

import "time"

// HistoryAction captures what kind of mutation a history entry documents.
type HistoryAction string

const (
	ActionTicketCreated   HistoryAction = "ticket_created"
	ActionTicketAssigned  HistoryAction = "ticket_assigned"
	ActionStatusChanged   HistoryAction = "status_changed"
	ActionTicketResolved  HistoryAction = "ticket_resolved"
	ActionTicketClosed    HistoryAction = "ticket_closed"
	ActionTicketRated     HistoryAction = "ticket_rated"
	ActionFieldUpdated    HistoryAction = "field_updated"
	ActionPriorityChanged HistoryAction = "priority_changed"
	ActionCategoryChanged HistoryAction = "category_changed"
)

// TicketHistory is an immutable audit trail entry. Rows are written in the
// same transaction as the mutation they document and are never updated.
// UserID is nil for unauthenticated (public rating) actions.
type TicketHistory struct {
	ID           string
	TicketID     string
	UserID       *string
	Action       HistoryAction
	FieldChanged *string
	OldValue     *string
	NewValue     *string
	Metadata     map[string]any
	CreatedAt    time.Time
}
