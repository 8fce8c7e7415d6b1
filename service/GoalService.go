package service

import (
	"context"
	"errors"

	"sodalis/auth"
	"sodalis/dto"
	"sodalis/model"
	"sodalis/repository"

	"github.com/google/uuid"
)

// GoalService is Goal CRUD behind the authorization gate.
// Every method takes the request's principal explicitly.
type GoalService struct {
	goals repository.GoalRepository
	users repository.UserRepository
	gate  *auth.Gate
}

func NewGoalService(goals repository.GoalRepository, users repository.UserRepository, gate *auth.Gate) *GoalService {
	return &GoalService{goals: goals, users: users, gate: gate}
}

func (s *GoalService) GetGoal(ctx context.Context, p *auth.Principal, id string) (*model.Goal, error) {
	return s.load(ctx, p, id, auth.OpRead)
}

func (s *GoalService) ListGoals(ctx context.Context, p *auth.Principal, userID string) ([]model.Goal, error) {
	owner, err := authorizeOwner(ctx, s.gate, p, auth.OpRead, userID)
	if err != nil {
		return nil, err
	}
	return s.goals.ListByUser(ctx, owner)
}

func (s *GoalService) CreateGoal(ctx context.Context, p *auth.Principal, req *dto.CreateGoalRequest) (*model.Goal, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}

	ownerID := req.UserID
	if ownerID == "" {
		ownerID = p.ID
	}
	owner, err := authorizeOwner(ctx, s.gate, p, auth.OpCreate, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.String() != p.ID {
		// Admin creating on someone's behalf; make sure that someone exists
		if _, err := s.users.GetByID(ctx, owner); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	goal := &model.Goal{
		UserID:      owner,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// CheckAccess runs the gate for op on goal id without changing anything.
// Handlers call it before reading a request body.
func (s *GoalService) CheckAccess(ctx context.Context, p *auth.Principal, id string, op auth.Operation) error {
	_, err := s.load(ctx, p, id, op)
	return err
}

func (s *GoalService) UpdateGoal(ctx context.Context, p *auth.Principal, id string, req *dto.UpdateGoalRequest) (*model.Goal, error) {
	goal, err := s.load(ctx, p, id, auth.OpUpdate)
	if err != nil {
		return nil, err
	}

	goal.Title = req.Title
	goal.Description = req.Description
	goal.Completed = req.Completed
	goal.DueDate = req.DueDate

	if err := s.goals.Update(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, p *auth.Principal, id string) error {
	goal, err := s.load(ctx, p, id, auth.OpDelete)
	if err != nil {
		return err
	}

	if err := s.goals.Delete(ctx, goal.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// load fetches the goal and runs the gate against its owner.
// A missing goal is gated with no owner, so non-admins get ErrForbidden either way.
func (s *GoalService) load(ctx context.Context, p *auth.Principal, id string, op auth.Operation) (*model.Goal, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}

	goalID, err := uuid.Parse(id)
	if err != nil {
		return nil, missing(ctx, s.gate, p, op)
	}

	goal, err := s.goals.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, missing(ctx, s.gate, p, op)
		}
		return nil, err
	}

	if err := s.gate.Authorize(ctx, p, op, goal.UserID.String()); err != nil {
		return nil, err
	}
	return goal, nil
}

// authorizeOwner parses a user id from the request and gates op on its canonical form,
// so the same id in another letter case still matches the principal.
func authorizeOwner(ctx context.Context, gate *auth.Gate, p *auth.Principal, op auth.Operation, userID string) (uuid.UUID, error) {
	if p == nil {
		return uuid.Nil, auth.ErrUnauthenticated
	}

	owner, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, missing(ctx, gate, p, op)
	}
	if err := gate.Authorize(ctx, p, op, owner.String()); err != nil {
		return uuid.Nil, err
	}
	return owner, nil
}

// missing resolves the error for a resource that does not exist
func missing(ctx context.Context, gate *auth.Gate, p *auth.Principal, op auth.Operation) error {
	if err := gate.Authorize(ctx, p, op, ""); err != nil {
		return err
	}
	return ErrNotFound
}
