package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusAssigned   TicketStatus = "assigned"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusWaiting    TicketStatus = "waiting"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// KnownStatus reports whether s is one of the recognized lifecycle states.
func KnownStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusNew, TicketStatusAssigned, TicketStatusInProgress,
		TicketStatusWaiting, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// ActiveStatuses are the states counted toward an engineer's open workload.
var ActiveStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusWaiting,
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// KnownPriority reports whether p is a recognized priority.
func KnownPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests against a solar project.
// TicketID is the human-readable composite key {project_id}-{sequence}.
type Ticket struct {
	TicketID        string
	ProjectID       string
	ClientID        string
	CreatedByID     string
	AssignedTo      *string
	Category        string
	Subcategory     *string
	Title           string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	ResolutionNotes *string

	Rating        *int
	RatingComment *string

	SLAResponseDeadline   *time.Time
	SLAResolutionDeadline *time.Time
	SLAResponseMet        *bool
	SLAResolutionMet      *bool

	ProjectData map[string]any

	CreatedAt  time.Time
	AssignedAt *time.Time
	ResolvedAt *time.Time
	UpdatedAt  time.Time
}

// Resolved reports whether the ticket reached a terminal support outcome.
func (t *Ticket) Resolved() bool {
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}

// Rateable reports whether a satisfaction score may still be recorded.
func (t *Ticket) Rateable() bool {
	return t.Resolved() && t.Rating == nil
}
