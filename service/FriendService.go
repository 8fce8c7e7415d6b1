package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sodalis/auth"
	"sodalis/dto"
	"sodalis/model"
	"sodalis/repository"

	"github.com/google/uuid"
)

// FriendNotifier is told about new friend links. Implemented by EmailService.
type FriendNotifier interface {
	FriendAdded(ctx context.Context, toEmail, toName, fromName string) error
}

type FriendService struct {
	friends  repository.FriendRepository
	users    repository.UserRepository
	gate     *auth.Gate
	notifier FriendNotifier
	logger   *slog.Logger
}

func NewFriendService(friends repository.FriendRepository, users repository.UserRepository, gate *auth.Gate, notifier FriendNotifier, logger *slog.Logger) *FriendService {
	return &FriendService{
		friends:  friends,
		users:    users,
		gate:     gate,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *FriendService) GetFriend(ctx context.Context, p *auth.Principal, id string) (*model.Friend, error) {
	return s.load(ctx, p, id, auth.OpRead)
}

func (s *FriendService) ListFriends(ctx context.Context, p *auth.Principal, userID string) ([]model.Friend, error) {
	owner, err := authorizeOwner(ctx, s.gate, p, auth.OpRead, userID)
	if err != nil {
		return nil, err
	}
	return s.friends.ListByUser(ctx, owner)
}

// AddFriend links the caller to the user registered under req.EmailAddress
func (s *FriendService) AddFriend(ctx context.Context, p *auth.Principal, req *dto.AddFriendRequest) (*model.Friend, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}
	if err := s.gate.Authorize(ctx, p, auth.OpCreate, p.ID); err != nil {
		return nil, err
	}

	owner, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	target, err := s.users.GetByEmail(ctx, auth.NormalizeIdentifier(req.EmailAddress))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if target.ID == owner {
		return nil, ErrInvalidInput
	}

	friend := &model.Friend{
		UserID:       owner,
		FriendUserID: target.ID,
		Nickname:     req.Nickname,
	}
	if err := s.friends.Create(ctx, friend); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}
	friend.FriendUser = *target

	s.notify(p, target)
	return friend, nil
}

func (s *FriendService) DeleteFriend(ctx context.Context, p *auth.Principal, id string) error {
	friend, err := s.load(ctx, p, id, auth.OpDelete)
	if err != nil {
		return err
	}

	if err := s.friends.Delete(ctx, friend.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *FriendService) load(ctx context.Context, p *auth.Principal, id string, op auth.Operation) (*model.Friend, error) {
	if p == nil {
		return nil, auth.ErrUnauthenticated
	}

	friendID, err := uuid.Parse(id)
	if err != nil {
		return nil, missing(ctx, s.gate, p, op)
	}

	friend, err := s.friends.GetByID(ctx, friendID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, missing(ctx, s.gate, p, op)
		}
		return nil, err
	}

	if err := s.gate.Authorize(ctx, p, op, friend.UserID.String()); err != nil {
		return nil, err
	}
	return friend, nil
}

// notify runs in the background so the request does not wait on SMTP.
// It gets its own context because the request's one ends with the response.
func (s *FriendService) notify(p *auth.Principal, target *model.User) {
	if s.notifier == nil {
		return
	}

	fromName := p.Claim("name")
	if fromName == "" {
		fromName = p.Email
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.notifier.FriendAdded(ctx, target.Email, target.Name, fromName); err != nil {
			s.logger.Error("failed to send friend notification", "to_user", target.ID.String(), "error", err)
			return
		}
		s.logger.Debug("friend notification sent", "to_user", target.ID.String())
	}()
}
