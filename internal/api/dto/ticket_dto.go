package dto

import (
	"time"

	"github.com/greenhouse-project/support-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ProjectID   string                `json:"project_id" validate:"required"`
	Category    string                `json:"category" validate:"required"`
	Subcategory *string               `json:"subcategory"`
	Title       string                `json:"title" validate:"required,max=200"`
	Description string                `json:"description" validate:"required"`
	Priority    domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	AssignedTo  *string               `json:"assigned_to"`
}

// UpdateTicketRequest carries PATCH fields; absent fields stay unchanged.
type UpdateTicketRequest struct {
	Title       *string                `json:"title" validate:"omitempty,max=200"`
	Description *string                `json:"description"`
	Category    *string                `json:"category"`
	Subcategory *string                `json:"subcategory"`
	Priority    *domain.TicketPriority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	EngineerID string `json:"engineer_id" validate:"required"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status" validate:"required"`
	Notes  string              `json:"notes"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	ResolutionNotes string `json:"resolution_notes" validate:"required"`
}

// CloseTicketRequest payload.
type CloseTicketRequest struct {
	Rating        *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	RatingComment *string `json:"rating_comment"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	TicketID        string                `json:"ticket_id"`
	ProjectID       string                `json:"project_id"`
	ClientID        string                `json:"client_id"`
	CreatedByID     string                `json:"created_by_id"`
	AssignedTo      *string               `json:"assigned_to"`
	Category        string                `json:"category"`
	Subcategory     *string               `json:"subcategory,omitempty"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	ResolutionNotes *string               `json:"resolution_notes,omitempty"`

	Rating        *int    `json:"rating,omitempty"`
	RatingComment *string `json:"rating_comment,omitempty"`

	SLAResponseDeadline   *time.Time `json:"sla_response_deadline,omitempty"`
	SLAResolutionDeadline *time.Time `json:"sla_resolution_deadline,omitempty"`
	SLAResponseMet        *bool      `json:"sla_response_met,omitempty"`
	SLAResolutionMet      *bool      `json:"sla_resolution_met,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// HistoryEntry response.
type HistoryEntry struct {
	ID           string               `json:"id"`
	TicketID     string               `json:"ticket_id"`
	UserID       *string              `json:"user_id"`
	Action       domain.HistoryAction `json:"action"`
	FieldChanged *string              `json:"field_changed,omitempty"`
	OldValue     *string              `json:"old_value,omitempty"`
	NewValue     *string              `json:"new_value,omitempty"`
	Metadata     map[string]any       `json:"metadata,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// TicketFromDomain maps the aggregate to its response shape.
func TicketFromDomain(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		TicketID:              t.TicketID,
		ProjectID:             t.ProjectID,
		ClientID:              t.ClientID,
		CreatedByID:           t.CreatedByID,
		AssignedTo:            t.AssignedTo,
		Category:              t.Category,
		Subcategory:           t.Subcategory,
		Title:                 t.Title,
		Description:           t.Description,
		Status:                t.Status,
		Priority:              t.Priority,
		ResolutionNotes:       t.ResolutionNotes,
		Rating:                t.Rating,
		RatingComment:         t.RatingComment,
		SLAResponseDeadline:   t.SLAResponseDeadline,
		SLAResolutionDeadline: t.SLAResolutionDeadline,
		SLAResponseMet:        t.SLAResponseMet,
		SLAResolutionMet:      t.SLAResolutionMet,
		CreatedAt:             t.CreatedAt,
		AssignedAt:            t.AssignedAt,
		ResolvedAt:            t.ResolvedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

// HistoryFromDomain maps an audit entry to its response shape.
func HistoryFromDomain(h *domain.TicketHistory) HistoryEntry {
	return HistoryEntry{
		ID:           h.ID,
		TicketID:     h.TicketID,
		UserID:       h.UserID,
		Action:       h.Action,
		FieldChanged: h.FieldChanged,
		OldValue:     h.OldValue,
		NewValue:     h.NewValue,
		Metadata:     h.Metadata,
		CreatedAt:    h.CreatedAt,
	}
}

// CommentRequest payload.
type CommentRequest struct {
	Body     string `json:"body" validate:"required"`
	Internal bool   `json:"internal"`
}

// CommentResponse response.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse response.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentFromDomain maps a comment.
func CommentFromDomain(c *domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TicketID:  c.TicketID,
		UserID:    c.UserID,
		Body:      c.Body,
		Internal:  c.Internal,
		CreatedAt: c.CreatedAt,
	}
}

// AttachmentFromDomain maps attachment metadata.
func AttachmentFromDomain(a *domain.TicketAttachment) AttachmentResponse {
	return AttachmentResponse{
		ID:        a.ID,
		TicketID:  a.TicketID,
		FileName:  a.FileName,
		MimeType:  a.MimeType,
		SizeBytes: a.SizeBytes,
		URL:       a.URL,
		CreatedAt: a.CreatedAt,
	}
}
