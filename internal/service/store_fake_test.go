package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/greenhouse-project/support-service/internal/domain"
	"github.com/greenhouse-project/support-service/internal/repository"
)

// fakeStore is an in-memory repository.Store for service tests. InTx is a
// pass-through: transactional atomicity is the postgres store's concern,
// the services only care that reads and writes compose.
type fakeStore struct {
	mu          sync.Mutex
	tickets     map[string]*domain.Ticket
	users       map[string]*domain.User
	history     []domain.TicketHistory
	comments    []domain.TicketComment
	attachments []domain.TicketAttachment
	sequences   map[string]int

	clock func() time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tickets:   make(map[string]*domain.Ticket),
		users:     make(map[string]*domain.User),
		sequences: make(map[string]int),
		clock:     time.Now,
	}
}

func (f *fakeStore) Tickets() repository.TicketRepository        { return &fakeTickets{f} }
func (f *fakeStore) History() repository.TicketHistoryRepository { return &fakeHistory{f} }
func (f *fakeStore) Users() repository.UserRepository            { return &fakeUsers{f} }
func (f *fakeStore) Comments() repository.CommentRepository      { return &fakeComments{f} }
func (f *fakeStore) Attachments() repository.AttachmentRepository {
	return &fakeAttachments{f}
}

func (f *fakeStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(f)
}

func (f *fakeStore) addUser(u *domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = f.clock()
	}
	f.users[cp.ID] = &cp
	return &cp
}

func (f *fakeStore) addTicket(t *domain.Ticket) *domain.Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tickets[cp.TicketID] = &cp
	return &cp
}

func (f *fakeStore) historyFor(ticketID string) []domain.TicketHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range f.history {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out
}

type fakeTickets struct{ f *fakeStore }

func (r *fakeTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	cp := *ticket
	r.f.tickets[cp.TicketID] = &cp
	return nil
}

func (r *fakeTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.tickets[ticket.TicketID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *ticket
	r.f.tickets[cp.TicketID] = &cp
	return nil
}

func (r *fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	t, ok := r.f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTickets) Delete(_ context.Context, id string) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.f.tickets, id)
	var remaining []domain.TicketHistory
	for _, h := range r.f.history {
		if h.TicketID != id {
			remaining = append(remaining, h)
		}
	}
	r.f.history = remaining
	return nil
}

func (r *fakeTickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.f.tickets {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.ClientID != nil && t.ClientID != *filter.ClientID {
			continue
		}
		if filter.ProjectID != nil && t.ProjectID != *filter.ProjectID {
			continue
		}
		if filter.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if filter.OwnOrUnassigned != nil &&
			t.AssignedTo != nil && *t.AssignedTo != *filter.OwnOrUnassigned {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	return out, len(out), nil
}

func (r *fakeTickets) ListByStatuses(_ context.Context, statuses []domain.TicketStatus) ([]domain.Ticket, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.f.tickets {
		for _, s := range statuses {
			if t.Status == s {
				out = append(out, *t)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	return out, nil
}

func (r *fakeTickets) ListAll(_ context.Context) ([]domain.Ticket, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.f.tickets {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TicketID < out[j].TicketID })
	return out, nil
}

func (r *fakeTickets) NextSequence(_ context.Context, projectID string) (int, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.sequences[projectID]++
	return r.f.sequences[projectID], nil
}

func (r *fakeTickets) CountActiveByEngineer(_ context.Context, engineerID string) (int, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	count := 0
	for _, t := range r.f.tickets {
		if t.AssignedTo == nil || *t.AssignedTo != engineerID {
			continue
		}
		for _, s := range domain.ActiveStatuses {
			if t.Status == s {
				count++
				break
			}
		}
	}
	return count, nil
}

type fakeHistory struct{ f *fakeStore }

func (r *fakeHistory) Create(_ context.Context, history *domain.TicketHistory) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	cp := *history
	cp.ID = uuid.NewString()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = r.f.clock()
	}
	history.ID = cp.ID
	history.CreatedAt = cp.CreatedAt
	r.f.history = append(r.f.history, cp)
	return nil
}

func (r *fakeHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	entries := r.f.historyFor(ticketID)
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	return entries, nil
}

func (r *fakeHistory) FirstByAction(_ context.Context, ticketID string, action domain.HistoryAction) (*domain.TicketHistory, error) {
	entries := r.f.historyFor(ticketID)
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	for i := range entries {
		if entries[i].Action == action {
			return &entries[i], nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeHistory) FirstStatusChangeInto(_ context.Context, ticketID string, values []string) (*domain.TicketHistory, error) {
	statusActions := map[domain.HistoryAction]bool{
		domain.ActionStatusChanged:  true,
		domain.ActionTicketResolved: true,
		domain.ActionTicketClosed:   true,
	}
	entries := r.f.historyFor(ticketID)
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	for i := range entries {
		if !statusActions[entries[i].Action] || entries[i].NewValue == nil {
			continue
		}
		for _, v := range values {
			if *entries[i].NewValue == v {
				return &entries[i], nil
			}
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeUsers struct{ f *fakeStore }

func (r *fakeUsers) Create(_ context.Context, user *domain.User) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	cp := *user
	r.f.users[cp.ID] = &cp
	return nil
}

func (r *fakeUsers) Update(_ context.Context, user *domain.User) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *user
	r.f.users[cp.ID] = &cp
	return nil
}

func (r *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	u, ok := r.f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.findByEmail(email, false)
}

func (r *fakeUsers) GetClientByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.findByEmail(email, true)
}

func (r *fakeUsers) findByEmail(email string, clientOnly bool) (*domain.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, u := range r.f.users {
		if !strings.EqualFold(u.Email, email) {
			continue
		}
		if clientOnly && u.Role != domain.RoleClient {
			continue
		}
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUsers) ListEngineers(_ context.Context, activeOnly bool) ([]domain.User, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []domain.User
	for _, u := range r.f.users {
		if u.Role != domain.RoleEngineer {
			continue
		}
		if activeOnly && !u.Active {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeComments struct{ f *fakeStore }

func (r *fakeComments) Create(_ context.Context, comment *domain.TicketComment) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	cp := *comment
	cp.ID = uuid.NewString()
	cp.CreatedAt = r.f.clock()
	comment.ID = cp.ID
	comment.CreatedAt = cp.CreatedAt
	r.f.comments = append(r.f.comments, cp)
	return nil
}

func (r *fakeComments) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.TicketComment, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []domain.TicketComment
	for _, c := range r.f.comments {
		if c.TicketID != ticketID {
			continue
		}
		if c.Internal && !includeInternal {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

type fakeAttachments struct{ f *fakeStore }

func (r *fakeAttachments) Create(_ context.Context, attachment *domain.TicketAttachment) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	cp := *attachment
	cp.ID = uuid.NewString()
	cp.CreatedAt = r.f.clock()
	attachment.ID = cp.ID
	attachment.CreatedAt = cp.CreatedAt
	r.f.attachments = append(r.f.attachments, cp)
	return nil
}

func (r *fakeAttachments) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []domain.TicketAttachment
	for _, a := range r.f.attachments {
		if a.TicketID == ticketID {
			out = append(out, a)
		}
	}
	return out, nil
}
