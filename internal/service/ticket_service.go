package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/greenhouse-project/support-service/internal/auth"
	"github.com/greenhouse-project/support-service/internal/domain"
	"github.com/greenhouse-project/support-service/internal/events"
	"github.com/greenhouse-project/support-service/internal/projectdata"
	"github.com/greenhouse-project/support-service/internal/repository"
	"github.com/greenhouse-project/support-service/internal/sla"
	apperrors "github.com/greenhouse-project/support-service/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation with sequence
// and SLA assignment, engineer assignment, status transitions, resolution
// and closing. Every mutation writes its audit entry in the same
// transaction as the ticket row.
type TicketService struct {
	store      repository.Store
	projects   projectdata.Provider
	assigner   *AssignmentService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int

	now func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Projects   projectdata.Provider
	Assigner   *AssignmentService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	BcryptCost int
	Clock      func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		store:      deps.Store,
		projects:   deps.Projects,
		assigner:   deps.Assigner,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		bcryptCost: deps.BcryptCost,
		now:        clock,
	}
}

// TicketCreateInput describes ticket creation payload. AssignedTo is
// honored for privileged actors only; otherwise the balancer picks.
type TicketCreateInput struct {
	ProjectID   string
	Category    string
	Subcategory *string
	Title       string
	Description string
	Priority    domain.TicketPriority
	AssignedTo  *string
}

// TicketUpdateInput carries the PATCH-style fields. Nil means unchanged.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Subcategory *string
	Priority    *domain.TicketPriority
}

// TicketListFilter describes listing filters before role scoping.
type TicketListFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Category   *string
	AssignedTo *string
	ProjectID  *string
	SearchTerm *string
	DateFrom   *time.Time
	DateTo     *time.Time

	// ClientID filters by ticket owner; honored for staff only, clients
	// are always pinned to their own tickets.
	ClientID *string

	// ViewAll lifts the engineer default scope of own-plus-unassigned.
	ViewAll bool

	OrderBy  string
	OrderDir string
	Limit    int
	Offset   int
}

// Create opens a ticket for a project. The per-project sequence, engineer
// assignment, SLA deadlines, initial history and the row itself all commit
// atomically. When actor is privileged the ticket is filed on behalf of the
// project's client, auto-provisioning the client account if needed.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)
	if input.ProjectID == "" || input.Title == "" || input.Category == "" || input.Description == "" {
		return nil, apperrors.NewValidationError("project_id, title, description and category are required", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !domain.KnownPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(input.Priority)})
	}
	if !actor.HasProjectAccess(input.ProjectID) {
		return nil, apperrors.NewForbidden("no access to project")
	}

	projectData := s.lookupProjectData(ctx, input.ProjectID)

	client := actor
	if actor.Role.Privileged() && projectData != nil && projectData.ClientEmail != "" {
		// File on behalf of the project's client when contact data is
		// available; without it the creator stays on record as the client.
		var err error
		client, err = s.resolveClient(ctx, input.ProjectID, projectData)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	deadlines := sla.CalculateDeadlines(now, sla.For(input.Priority))

	ticket := &domain.Ticket{
		ProjectID:             input.ProjectID,
		ClientID:              client.ID,
		CreatedByID:           actor.ID,
		Category:              input.Category,
		Subcategory:           input.Subcategory,
		Title:                 input.Title,
		Description:           input.Description,
		Status:                domain.TicketStatusNew,
		Priority:              input.Priority,
		SLAResponseDeadline:   &deadlines.Response,
		SLAResolutionDeadline: &deadlines.Resolution,
		ProjectData:           projectDataMap(projectData),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	var assigned *domain.User
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		seq, err := tx.Tickets().NextSequence(ctx, input.ProjectID)
		if err != nil {
			return err
		}
		ticket.TicketID = fmt.Sprintf("%s-%03d", input.ProjectID, seq)

		switch {
		case input.AssignedTo != nil && actor.Role.Privileged():
			assigned, err = tx.Users().GetByID(ctx, *input.AssignedTo)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return apperrors.NewNotFound("engineer", map[string]any{"user_id": *input.AssignedTo})
				}
				return err
			}
			if !assigned.Role.Privileged() || !assigned.Active {
				return apperrors.NewValidationError("assignee must be an active engineer", map[string]any{"user_id": *input.AssignedTo})
			}
		case actor.Role == domain.RoleClient:
			// The balancer runs only for client-filed tickets; staff who
			// file without naming an assignee leave the ticket unassigned
			// for manual triage.
			assigned, err = s.assigner.SelectEngineer(ctx, tx)
			if err != nil {
				return err
			}
		}
		if assigned != nil {
			ticket.AssignedTo = &assigned.ID
			ticket.Status = domain.TicketStatusAssigned
			ticket.AssignedAt = &now
		}

		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}

		if err := tx.History().Create(ctx, &domain.TicketHistory{
			TicketID: ticket.TicketID,
			UserID:   &actor.ID,
			Action:   domain.ActionTicketCreated,
			NewValue: strPtr(string(ticket.Status)),
			Metadata: map[string]any{
				"priority": string(ticket.Priority),
				"category": ticket.Category,
			},
		}); err != nil {
			return err
		}
		if assigned != nil {
			if err := tx.History().Create(ctx, &domain.TicketHistory{
				TicketID:     ticket.TicketID,
				UserID:       &actor.ID,
				Action:       domain.ActionTicketAssigned,
				FieldChanged: strPtr("assigned_to"),
				NewValue:     &assigned.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishCreated(ctx, actor, ticket, client, assigned, projectData)
	return ticket, nil
}

// Assign hands the ticket to a specific engineer. assigned_at is recorded
// only on the first assignment; reassignments keep the original timestamp.
func (s *TicketService) Assign(ctx context.Context, actor *domain.User, ticketID, engineerID string) (*domain.Ticket, error) {
	if !actor.Role.Privileged() {
		return nil, apperrors.NewForbidden("insufficient role for assignment")
	}

	var ticket *domain.Ticket
	var engineer *domain.User
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		engineer, err = tx.Users().GetByID(ctx, engineerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("engineer", map[string]any{"user_id": engineerID})
			}
			return err
		}
		if !engineer.Role.Privileged() || !engineer.Active {
			return apperrors.NewValidationError("assignee must be an active engineer", map[string]any{"user_id": engineerID})
		}

		ticket, err = tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}

		oldAssignee := ticket.AssignedTo
		ticket.AssignedTo = &engineer.ID
		if ticket.Status == domain.TicketStatusNew {
			ticket.Status = domain.TicketStatusAssigned
		}
		if ticket.AssignedAt == nil {
			now := s.now()
			ticket.AssignedAt = &now
		}
		ticket.UpdatedAt = s.now()

		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		return tx.History().Create(ctx, &domain.TicketHistory{
			TicketID:     ticket.TicketID,
			UserID:       &actor.ID,
			Action:       domain.ActionTicketAssigned,
			FieldChanged: strPtr("assigned_to"),
			OldValue:     oldAssignee,
			NewValue:     &engineer.ID,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.TicketID,
		ActorID:  &actor.ID,
		Payload: events.TicketAssignedPayload{
			EngineerID:    engineer.ID,
			EngineerName:  engineer.FullName,
			EngineerEmail: engineer.Email,
			Title:         ticket.Title,
			Priority:      string(ticket.Priority),
			Category:      ticket.Category,
		},
	})
	return ticket, nil
}

// ChangeStatus moves the ticket to newStatus. Any known status is accepted
// for privileged users; clients may only move their own tickets to waiting
// or closed. Entering resolved or closed stamps resolved_at once.
func (s *TicketService) ChangeStatus(ctx context.Context, actor *domain.User, ticketID string, newStatus domain.TicketStatus, notes string) (*domain.Ticket, error) {
	if !domain.KnownStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": string(newStatus)})
	}

	var ticket *domain.Ticket
	var oldStatus domain.TicketStatus
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := s.checkWriteAccess(actor, ticket); err != nil {
			return err
		}
		if actor.Role == domain.RoleClient &&
			newStatus != domain.TicketStatusWaiting && newStatus != domain.TicketStatusClosed {
			return apperrors.NewForbidden("clients may only move tickets to waiting or closed")
		}
		if ticket.Status == domain.TicketStatusClosed && newStatus != domain.TicketStatusClosed {
			return apperrors.NewInvalidState("closed tickets cannot change status", nil)
		}

		oldStatus = ticket.Status
		s.applyStatus(ticket, newStatus)

		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		return tx.History().Create(ctx, &domain.TicketHistory{
			TicketID:     ticket.TicketID,
			UserID:       &actor.ID,
			Action:       domain.ActionStatusChanged,
			FieldChanged: strPtr("status"),
			OldValue:     strPtr(string(oldStatus)),
			NewValue:     strPtr(string(newStatus)),
			Metadata:     notesMetadata(notes),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishStatusChanged(ctx, actor, ticket, oldStatus, notes)
	return ticket, nil
}

// Resolve marks the ticket resolved with resolution notes and evaluates
// both SLA targets against the actual timestamps.
func (s *TicketService) Resolve(ctx context.Context, actor *domain.User, ticketID, resolutionNotes string) (*domain.Ticket, error) {
	if !actor.Role.Privileged() {
		return nil, apperrors.NewForbidden("insufficient role to resolve")
	}
	resolutionNotes = strings.TrimSpace(resolutionNotes)
	if resolutionNotes == "" {
		return nil, apperrors.NewValidationError("resolution notes are required", nil)
	}

	var ticket *domain.Ticket
	var oldStatus domain.TicketStatus
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewInvalidState("closed tickets cannot change status", nil)
		}
		oldStatus = ticket.Status
		s.applyStatus(ticket, domain.TicketStatusResolved)
		if resolutionNotes != "" {
			ticket.ResolutionNotes = &resolutionNotes
		}
		evaluateSLA(ticket)

		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		return tx.History().Create(ctx, &domain.TicketHistory{
			TicketID:     ticket.TicketID,
			UserID:       &actor.ID,
			Action:       domain.ActionTicketResolved,
			FieldChanged: strPtr("status"),
			OldValue:     strPtr(string(oldStatus)),
			NewValue:     strPtr(string(domain.TicketStatusResolved)),
			Metadata:     notesMetadata(resolutionNotes),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishResolved(ctx, actor, ticket)
	return ticket, nil
}

// Close closes the ticket, optionally recording a satisfaction rating in
// the same call. A provided rating produces its own history entry before
// the closing entry, and follows the set-once rule: if the ticket already
// carries a rating the new value is ignored rather than rejected.
func (s *TicketService) Close(ctx context.Context, actor *domain.User, ticketID string, rating *int, ratingComment *string) (*domain.Ticket, error) {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": *rating})
	}

	var ticket *domain.Ticket
	var oldStatus domain.TicketStatus
	rated := false
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if actor.Role != domain.RoleAdmin && ticket.ClientID != actor.ID {
			return apperrors.NewForbidden("only the ticket's client or an administrator may close it")
		}
		if ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewInvalidState("ticket is already closed", nil)
		}

		oldStatus = ticket.Status
		s.applyStatus(ticket, domain.TicketStatusClosed)
		evaluateSLA(ticket)

		if rating != nil && ticket.Rating == nil {
			ticket.Rating = rating
			ticket.RatingComment = ratingComment
			rated = true
		}

		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}

		if rated {
			if err := tx.History().Create(ctx, &domain.TicketHistory{
				TicketID:     ticket.TicketID,
				UserID:       &actor.ID,
				Action:       domain.ActionTicketRated,
				FieldChanged: strPtr("rating"),
				NewValue:     strPtr(fmt.Sprintf("%d", *rating)),
				Metadata:     commentMetadata(ratingComment),
			}); err != nil {
				return err
			}
		}

		meta := map[string]any{}
		if ticket.Rating != nil {
			meta["rating"] = *ticket.Rating
		}
		return tx.History().Create(ctx, &domain.TicketHistory{
			TicketID:     ticket.TicketID,
			UserID:       &actor.ID,
			Action:       domain.ActionTicketClosed,
			FieldChanged: strPtr("status"),
			OldValue:     strPtr(string(oldStatus)),
			NewValue:     strPtr(string(domain.TicketStatusClosed)),
			Metadata:     meta,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishStatusChanged(ctx, actor, ticket, oldStatus, "")
	if rated {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketRated,
			TicketID: ticket.TicketID,
			ActorID:  &actor.ID,
			Payload: events.TicketRatedPayload{
				Rating:  *ticket.Rating,
				Comment: strDeref(ticket.RatingComment),
				Source:  "close",
			},
		})
	}
	return ticket, nil
}

// Update applies field-level edits. Title and description belong to the
// ticket's client (or admin); priority, category and subcategory to
// engineers and admins. Each changed field gets its own audit entry;
// priority changes recompute the SLA deadlines from creation time.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	if input.Priority != nil && !domain.KnownPriority(*input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(*input.Priority)})
	}

	var ticket *domain.Ticket
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		ticket, err = tx.Tickets().GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := checkUpdateAccess(actor, ticket, input); err != nil {
			return err
		}

		type change struct {
			action   domain.HistoryAction
			field    string
			old, new string
		}
		var changes []change

		if input.Title != nil && *input.Title != ticket.Title {
			changes = append(changes, change{domain.ActionFieldUpdated, "title", ticket.Title, *input.Title})
			ticket.Title = *input.Title
		}
		if input.Description != nil && *input.Description != ticket.Description {
			changes = append(changes, change{domain.ActionFieldUpdated, "description", ticket.Description, *input.Description})
			ticket.Description = *input.Description
		}
		if input.Category != nil && *input.Category != ticket.Category {
			changes = append(changes, change{domain.ActionCategoryChanged, "category", ticket.Category, *input.Category})
			ticket.Category = *input.Category
		}
		if input.Subcategory != nil && strDeref(input.Subcategory) != strDeref(ticket.Subcategory) {
			changes = append(changes, change{domain.ActionFieldUpdated, "subcategory", strDeref(ticket.Subcategory), *input.Subcategory})
			ticket.Subcategory = input.Subcategory
		}
		if input.Priority != nil && *input.Priority != ticket.Priority {
			changes = append(changes, change{domain.ActionPriorityChanged, "priority", string(ticket.Priority), string(*input.Priority)})
			ticket.Priority = *input.Priority
			deadlines := sla.CalculateDeadlines(ticket.CreatedAt, sla.For(ticket.Priority))
			ticket.SLAResponseDeadline = &deadlines.Response
			ticket.SLAResolutionDeadline = &deadlines.Resolution
		}

		if len(changes) == 0 {
			return nil
		}
		ticket.UpdatedAt = s.now()

		if err := tx.Tickets().Update(ctx, ticket); err != nil {
			return err
		}
		for _, c := range changes {
			field := c.field
			oldVal := c.old
			newVal := c.new
			if err := tx.History().Create(ctx, &domain.TicketHistory{
				TicketID:     ticket.TicketID,
				UserID:       &actor.ID,
				Action:       c.action,
				FieldChanged: &field,
				OldValue:     &oldVal,
				NewValue:     &newVal,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// Delete removes a ticket and, through the schema, its history, comments
// and attachment records. Admin only.
func (s *TicketService) Delete(ctx context.Context, actor *domain.User, ticketID string) error {
	if actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("only administrators may delete tickets")
	}
	if err := s.store.Tickets().Delete(ctx, ticketID); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("ticket deleted", zap.String("ticket_id", ticketID), zap.String("actor_id", actor.ID))
	return nil
}

// Get fetches one ticket, enforcing client ownership.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.checkReadAccess(actor, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

// List returns tickets scoped by role: clients see their own, engineers
// see their own plus unassigned by default, admins see everything.
func (s *TicketService) List(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, int, error) {
	repoFilter := repository.TicketFilter{
		Status:     filter.Status,
		Priority:   filter.Priority,
		Category:   filter.Category,
		AssignedTo: filter.AssignedTo,
		ClientID:   filter.ClientID,
		ProjectID:  filter.ProjectID,
		SearchTerm: filter.SearchTerm,
		DateFrom:   filter.DateFrom,
		DateTo:     filter.DateTo,
		OrderBy:    filter.OrderBy,
		OrderDir:   filter.OrderDir,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}

	switch actor.Role {
	case domain.RoleClient:
		repoFilter.ClientID = &actor.ID
	case domain.RoleEngineer:
		if !filter.ViewAll && repoFilter.AssignedTo == nil {
			repoFilter.OwnOrUnassigned = &actor.ID
		}
	}

	tickets, total, err := s.store.Tickets().List(ctx, repoFilter)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	return tickets, total, nil
}

// History lists the audit trail for a ticket, newest first.
func (s *TicketService) History(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketHistory, error) {
	ticket, err := s.store.Tickets().GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.checkReadAccess(actor, ticket); err != nil {
		return nil, err
	}
	entries, err := s.store.History().ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// applyStatus moves the ticket into newStatus, stamping the set-once
// resolved_at when entering a terminal state.
func (s *TicketService) applyStatus(ticket *domain.Ticket, newStatus domain.TicketStatus) {
	ticket.Status = newStatus
	now := s.now()
	if (newStatus == domain.TicketStatusResolved || newStatus == domain.TicketStatusClosed) &&
		ticket.ResolvedAt == nil {
		ticket.ResolvedAt = &now
	}
	ticket.UpdatedAt = now
}

func (s *TicketService) checkReadAccess(actor *domain.User, ticket *domain.Ticket) error {
	if actor.Role.Privileged() {
		return nil
	}
	if ticket.ClientID != actor.ID {
		return apperrors.NewForbidden("access denied")
	}
	return nil
}

func (s *TicketService) checkWriteAccess(actor *domain.User, ticket *domain.Ticket) error {
	return s.checkReadAccess(actor, ticket)
}

// checkUpdateAccess enforces the per-field edit matrix: title/description
// for the ticket's client and admins, priority/category/subcategory for
// engineers and admins.
func checkUpdateAccess(actor *domain.User, ticket *domain.Ticket, input TicketUpdateInput) error {
	contentEdit := input.Title != nil || input.Description != nil
	triageEdit := input.Priority != nil || input.Category != nil || input.Subcategory != nil

	if actor.Role == domain.RoleAdmin {
		return nil
	}
	if contentEdit {
		if actor.Role != domain.RoleClient || ticket.ClientID != actor.ID {
			return apperrors.NewForbidden("only the ticket's client may edit title and description")
		}
	}
	if triageEdit && actor.Role != domain.RoleEngineer {
		return apperrors.NewForbidden("only engineers may change priority and category")
	}
	return nil
}

// resolveClient finds the client account for a project, creating one from
// project contact data when no account exists yet.
func (s *TicketService) resolveClient(ctx context.Context, projectID string, data *projectdata.ProjectData) (*domain.User, error) {
	if data == nil || data.ClientEmail == "" {
		return nil, apperrors.NewValidationError("no client contact data for project", map[string]any{"project_id": projectID})
	}

	client, err := s.store.Users().GetClientByEmail(ctx, data.ClientEmail)
	if err == nil {
		if !containsString(client.ProjectIDs, projectID) {
			client.ProjectIDs = append(client.ProjectIDs, projectID)
			if err := s.store.Users().Update(ctx, client); err != nil {
				return nil, err
			}
		}
		return client, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(uuid.NewString(), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	now := s.now()
	client = &domain.User{
		ID:           newClientID(),
		Email:        data.ClientEmail,
		PasswordHash: hash,
		FullName:     data.ClientName,
		Phone:        optionalStr(data.ClientPhone),
		Role:         domain.RoleClient,
		Active:       true,
		ProjectIDs:   []string{projectID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users().Create(ctx, client); err != nil {
		return nil, err
	}
	s.logger.Info("client auto-provisioned",
		zap.String("user_id", client.ID),
		zap.String("project_id", projectID))
	return client, nil
}

func (s *TicketService) lookupProjectData(ctx context.Context, projectID string) *projectdata.ProjectData {
	if s.projects == nil {
		return nil
	}
	data, err := s.projects.GetProjectData(ctx, projectID)
	if err != nil {
		s.logger.Warn("project data lookup failed",
			zap.String("project_id", projectID),
			zap.Error(err))
		return nil
	}
	return data
}

func (s *TicketService) publishCreated(ctx context.Context, actor *domain.User, ticket *domain.Ticket, client, engineer *domain.User, data *projectdata.ProjectData) {
	payload := events.TicketCreatedPayload{
		ProjectID:   ticket.ProjectID,
		Title:       ticket.Title,
		Category:    ticket.Category,
		Description: ticket.Description,
		Priority:    ticket.Priority,
		ClientID:    client.ID,
		ClientName:  client.FullName,
		ClientEmail: client.Email,
	}
	if data != nil && data.ClientPhone != "" {
		payload.ClientPhone = data.ClientPhone
	} else if client.Phone != nil {
		payload.ClientPhone = *client.Phone
	}
	if engineer != nil {
		payload.EngineerID = &engineer.ID
		payload.EngineerName = engineer.FullName
		payload.EngineerPhone = strDeref(engineer.Phone)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.TicketID,
		ActorID:  &actor.ID,
		Payload:  payload,
	})
	if engineer != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.TicketID,
			ActorID:  &actor.ID,
			Payload: events.TicketAssignedPayload{
				EngineerID:    engineer.ID,
				EngineerName:  engineer.FullName,
				EngineerEmail: engineer.Email,
				Title:         ticket.Title,
				Priority:      string(ticket.Priority),
				Category:      ticket.Category,
				ClientName:    client.FullName,
			},
		})
	}
}

func (s *TicketService) publishStatusChanged(ctx context.Context, actor *domain.User, ticket *domain.Ticket, oldStatus domain.TicketStatus, notes string) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.TicketID,
		ActorID:  &actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:   oldStatus,
			NewStatus:   ticket.Status,
			Notes:       notes,
			Title:       ticket.Title,
			ClientName:  clientName(ticket),
			ClientEmail: clientEmail(ticket),
			ChangedBy:   actor.FullName,
		},
	})
}

func (s *TicketService) publishResolved(ctx context.Context, actor *domain.User, ticket *domain.Ticket) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: ticket.TicketID,
		ActorID:  &actor.ID,
		Payload: events.TicketResolvedPayload{
			Title:           ticket.Title,
			ResolutionNotes: strDeref(ticket.ResolutionNotes),
			ClientName:      clientName(ticket),
			ClientEmail:     clientEmail(ticket),
			ClientPhone:     clientPhone(ticket),
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

// evaluateSLA fills the met flags from the actual timestamps. A missing
// first-response timestamp counts as a miss once the ticket is terminal.
func evaluateSLA(ticket *domain.Ticket) {
	if ticket.SLAResponseDeadline != nil {
		met := ticket.AssignedAt != nil && !ticket.AssignedAt.After(*ticket.SLAResponseDeadline)
		ticket.SLAResponseMet = &met
	}
	if ticket.SLAResolutionDeadline != nil && ticket.ResolvedAt != nil {
		met := !ticket.ResolvedAt.After(*ticket.SLAResolutionDeadline)
		ticket.SLAResolutionMet = &met
	}
}

// newClientID mirrors the account id format used for provisioned clients.
func newClientID() string {
	return "USR-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func projectDataMap(data *projectdata.ProjectData) map[string]any {
	if data == nil {
		return nil
	}
	return map[string]any{
		"client_email": data.ClientEmail,
		"client_name":  data.ClientName,
		"client_phone": data.ClientPhone,
	}
}

func clientName(t *domain.Ticket) string {
	if v, ok := t.ProjectData["client_name"].(string); ok {
		return v
	}
	return ""
}

func clientEmail(t *domain.Ticket) string {
	if v, ok := t.ProjectData["client_email"].(string); ok {
		return v
	}
	return ""
}

func clientPhone(t *domain.Ticket) string {
	if v, ok := t.ProjectData["client_phone"].(string); ok {
		return v
	}
	return ""
}

func notesMetadata(notes string) map[string]any {
	if notes == "" {
		return nil
	}
	return map[string]any{"notes": notes}
}

func commentMetadata(comment *string) map[string]any {
	if comment == nil || *comment == "" {
		return nil
	}
	return map[string]any{"comment": *comment}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func strPtr(s string) *string { return &s }

func optionalStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
