package events

import (
	"time"

	"github.com/greenhouse-project/support-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketResolved      EventType = "ticket_resolved"
	EventTicketRated         EventType = "ticket_rated"
)

// Event represents a domain event emitted by services. ActorID is nil for
// public (unauthenticated) actions.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ProjectID     string                `json:"project_id"`
	Title         string                `json:"title"`
	Category      string                `json:"category"`
	Description   string                `json:"description"`
	Priority      domain.TicketPriority `json:"priority"`
	ClientID      string                `json:"client_id"`
	ClientName    string                `json:"client_name"`
	ClientEmail   string                `json:"client_email,omitempty"`
	ClientPhone   string                `json:"client_phone,omitempty"`
	EngineerID    *string               `json:"engineer_id,omitempty"`
	EngineerName  string                `json:"engineer_name,omitempty"`
	EngineerPhone string                `json:"engineer_phone,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	OldEngineerID *string `json:"old_engineer_id,omitempty"`
	EngineerID    string  `json:"engineer_id"`
	EngineerName  string  `json:"engineer_name"`
	EngineerEmail string  `json:"engineer_email"`
	Title         string  `json:"title"`
	Priority      string  `json:"priority"`
	Category      string  `json:"category"`
	ClientName    string  `json:"client_name"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus   domain.TicketStatus `json:"old_status"`
	NewStatus   domain.TicketStatus `json:"new_status"`
	Notes       string              `json:"notes,omitempty"`
	Title       string              `json:"title"`
	ClientName  string              `json:"client_name"`
	ClientEmail string              `json:"client_email,omitempty"`
	ChangedBy   string              `json:"changed_by"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	Title           string `json:"title"`
	ResolutionNotes string `json:"resolution_notes"`
	ClientName      string `json:"client_name"`
	ClientEmail     string `json:"client_email,omitempty"`
	ClientPhone     string `json:"client_phone,omitempty"`
}

// TicketRatedPayload payload.
type TicketRatedPayload struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
	Source  string `json:"source,omitempty"`
}
