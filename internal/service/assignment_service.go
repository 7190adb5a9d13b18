package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/greenhouse-project/support-service/internal/domain"
	"github.com/greenhouse-project/support-service/internal/repository"
)

// AssignmentService selects engineers for new tickets using a least-loaded
// strategy over active workload.
type AssignmentService struct {
	logger *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(logger *zap.Logger) *AssignmentService {
	return &AssignmentService{logger: logger}
}

// SelectEngineer returns the active engineer with the fewest tickets in an
// active state (new, assigned, in_progress, waiting). Ties go to the
// engineer listed first, which follows account creation order. Returns nil
// when no active engineer exists.
//
// The store argument lets ticket creation run the selection inside its own
// transaction so the workload counts and the insert see the same snapshot.
func (s *AssignmentService) SelectEngineer(ctx context.Context, store repository.Store) (*domain.User, error) {
	engineers, err := store.Users().ListEngineers(ctx, true)
	if err != nil {
		return nil, err
	}
	if len(engineers) == 0 {
		return nil, nil
	}

	var best *domain.User
	bestLoad := -1
	for i := range engineers {
		load, err := store.Tickets().CountActiveByEngineer(ctx, engineers[i].ID)
		if err != nil {
			return nil, err
		}
		if best == nil || load < bestLoad {
			best = &engineers[i]
			bestLoad = load
		}
	}

	s.logger.Debug("engineer selected",
		zap.String("engineer_id", best.ID),
		zap.Int("active_tickets", bestLoad))
	return best, nil
}
