package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greenhouse-project/support-service/internal/domain"
)

func TestSelectEngineerPicksLeastLoaded(t *testing.T) {
	store := newFakeStore()
	svc := NewAssignmentService(zap.NewNop())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	engA := store.addUser(testEngineer("USR-ENG-A", base))
	engB := store.addUser(testEngineer("USR-ENG-B", base.Add(time.Minute)))
	engC := store.addUser(testEngineer("USR-ENG-C", base.Add(2*time.Minute)))

	assign := func(id, engineer string, status domain.TicketStatus) {
		store.addTicket(&domain.Ticket{TicketID: id, Status: status, AssignedTo: &engineer})
	}
	assign("111-001", engA.ID, domain.TicketStatusAssigned)
	assign("111-002", engA.ID, domain.TicketStatusWaiting)
	assign("111-003", engC.ID, domain.TicketStatusInProgress)

	picked, err := svc.SelectEngineer(context.Background(), store)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, engB.ID, picked.ID)
}

func TestSelectEngineerIgnoresTerminalTickets(t *testing.T) {
	store := newFakeStore()
	svc := NewAssignmentService(zap.NewNop())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	engA := store.addUser(testEngineer("USR-ENG-A", base))
	engB := store.addUser(testEngineer("USR-ENG-B", base.Add(time.Minute)))

	assign := func(id, engineer string, status domain.TicketStatus) {
		store.addTicket(&domain.Ticket{TicketID: id, Status: status, AssignedTo: &engineer})
	}
	// A's workload is entirely terminal; B carries one active ticket.
	assign("111-001", engA.ID, domain.TicketStatusResolved)
	assign("111-002", engA.ID, domain.TicketStatusClosed)
	assign("111-003", engB.ID, domain.TicketStatusAssigned)

	picked, err := svc.SelectEngineer(context.Background(), store)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, engA.ID, picked.ID)
}

func TestSelectEngineerTieGoesToFirstListed(t *testing.T) {
	store := newFakeStore()
	svc := NewAssignmentService(zap.NewNop())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	engA := store.addUser(testEngineer("USR-ENG-A", base))
	store.addUser(testEngineer("USR-ENG-B", base.Add(time.Minute)))

	picked, err := svc.SelectEngineer(context.Background(), store)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, engA.ID, picked.ID)
}

func TestSelectEngineerSkipsInactiveAndClients(t *testing.T) {
	store := newFakeStore()
	svc := NewAssignmentService(zap.NewNop())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	inactive := testEngineer("USR-ENG-A", base)
	inactive.Active = false
	store.addUser(inactive)
	store.addUser(testClient("USR-CLIENT1", "8177994"))

	picked, err := svc.SelectEngineer(context.Background(), store)
	require.NoError(t, err)
	assert.Nil(t, picked)
}
