package service

import (
	"context"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/greenhouse-project/support-service/internal/domain"
	"github.com/greenhouse-project/support-service/internal/repository"
	"github.com/greenhouse-project/support-service/internal/storage"
	apperrors "github.com/greenhouse-project/support-service/pkg/util"
)

// CommentService manages ticket discussion and attachments. Internal
// comments stay hidden from clients; attachment binaries live in the
// external file store with only metadata in postgres.
type CommentService struct {
	store  repository.Store
	files  storage.FileStore
	logger *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(store repository.Store, files storage.FileStore, logger *zap.Logger) *CommentService {
	return &CommentService{store: store, files: files, logger: logger}
}

// AddComment appends a comment. Only privileged users may mark a comment
// internal.
func (s *CommentService) AddComment(ctx context.Context, actor *domain.User, ticketID, body string, internal bool) (*domain.TicketComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment body is required", nil)
	}
	if internal && !actor.Role.Privileged() {
		return nil, apperrors.NewForbidden("only staff may post internal comments")
	}

	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := commentAccess(actor, ticket); err != nil {
		return nil, err
	}

	comment := &domain.TicketComment{
		TicketID: ticket.TicketID,
		UserID:   actor.ID,
		Body:     body,
		Internal: internal,
	}
	if err := s.store.Comments().Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return comment, nil
}

// ListComments returns the discussion, excluding internal notes for
// client callers.
func (s *CommentService) ListComments(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketComment, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := commentAccess(actor, ticket); err != nil {
		return nil, err
	}
	comments, err := s.store.Comments().ListByTicket(ctx, ticketID, actor.Role.Privileged())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// AttachmentInput carries upload metadata alongside the content.
type AttachmentInput struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	Content   io.Reader
}

// AddAttachment stores the binary in the file store and records its
// metadata.
func (s *CommentService) AddAttachment(ctx context.Context, actor *domain.User, ticketID string, input AttachmentInput) (*domain.TicketAttachment, error) {
	if input.FileName == "" || input.Content == nil {
		return nil, apperrors.NewValidationError("file name and content are required", nil)
	}

	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := commentAccess(actor, ticket); err != nil {
		return nil, err
	}

	url, err := s.files.Save(ctx, ticket.TicketID, input.FileName, input.Content)
	if err != nil {
		s.logger.Error("attachment upload failed",
			zap.String("ticket_id", ticket.TicketID),
			zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	attachment := &domain.TicketAttachment{
		TicketID:   ticket.TicketID,
		UploadedBy: actor.ID,
		FileName:   input.FileName,
		MimeType:   input.MimeType,
		SizeBytes:  input.SizeBytes,
		URL:        url,
	}
	if err := s.store.Attachments().Create(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// ListAttachments returns attachment metadata for a ticket.
func (s *CommentService) ListAttachments(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketAttachment, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := commentAccess(actor, ticket); err != nil {
		return nil, err
	}
	attachments, err := s.store.Attachments().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}

func commentAccess(actor *domain.User, ticket *domain.Ticket) error {
	if actor.Role.Privileged() {
		return nil
	}
	if ticket.ClientID != actor.ID {
		return apperrors.NewForbidden("access denied")
	}
	return nil
}
