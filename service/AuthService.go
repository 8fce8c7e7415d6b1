package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sodalis/auth"
	"sodalis/dto"
	"sodalis/model"
	"sodalis/repository"
	"sodalis/util"

	"github.com/google/uuid"
)

// SessionMeta describes the client a refresh token was handed to
type SessionMeta struct {
	ClientIP  string
	UserAgent string
}

type AuthService struct {
	verifier    *auth.Verifier
	issuer      *auth.Issuer
	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
	refreshRepo repository.RefreshTokenRepository
	accessTTL   time.Duration
	refreshTTL  time.Duration
	hashParams  util.Argon2Params
	logger      *slog.Logger
	now         func() time.Time
}

type AuthServiceConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// HashParams are used for new passwords. Zero means util.DefaultArgon2Params.
	HashParams util.Argon2Params
}

func NewAuthService(
	verifier *auth.Verifier,
	issuer *auth.Issuer,
	u repository.UserRepository,
	role repository.RoleRepository,
	r repository.RefreshTokenRepository,
	cfg AuthServiceConfig,
	logger *slog.Logger,
) *AuthService {
	if cfg.HashParams == (util.Argon2Params{}) {
		cfg.HashParams = util.DefaultArgon2Params
	}
	return &AuthService{
		verifier:    verifier,
		issuer:      issuer,
		userRepo:    u,
		roleRepo:    role,
		refreshRepo: r,
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		hashParams:  cfg.HashParams,
		logger:      logger,
		now:         time.Now,
	}
}

// RefreshTTL is the lifetime of issued refresh tokens
func (s *AuthService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// Register creates a new user with the default role and a password credential
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	email := auth.NormalizeIdentifier(req.EmailAddress)

	defaultRole, err := s.roleRepo.GetByCode(ctx, auth.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("default role %q not found: %w", auth.RoleUser, err)
	}

	hashed, err := util.HashPasswordWithParams(req.Password, s.hashParams)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:  req.Name,
		Email: email,
		Roles: []model.Role{*defaultRole},
		Credentials: []model.Credential{{
			Type:   model.CredTypePassword,
			Value:  hashed,
			Active: true,
		}},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	return &dto.RegisterResponse{ID: user.ID.String(), Name: user.Name, EmailAddress: user.Email}, nil
}

// Login verifies credentials and returns an access token plus a refresh token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest, meta SessionMeta) (*dto.LoginResponse, error) {
	principal, err := s.verifier.Verify(ctx, req.EmailAddress, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.InfoContext(ctx, "login rejected", "client_ip", meta.ClientIP)
		}
		return nil, err
	}

	userID, err := uuid.Parse(principal.ID)
	if err != nil {
		return nil, fmt.Errorf("stored user id is not a uuid: %w", err)
	}

	res, err := s.issuePair(ctx, principal, userID, meta)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "login succeeded", "user_id", principal.ID)
	return res, nil
}

// Refresh rotates a refresh token and issues a new access token with the user's current roles.
// Presenting a token that was already rotated revokes every refresh token of that user.
func (s *AuthService) Refresh(ctx context.Context, raw string, meta SessionMeta) (*dto.LoginResponse, error) {
	if raw == "" {
		return nil, ErrInvalidRefreshToken
	}

	existing, err := s.refreshRepo.GetByTokenHash(ctx, util.HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	now := s.now()

	if existing.ReplacedAt != nil && existing.RevokedAt == nil {
		// A rotated token came back: the family is compromised
		s.logger.WarnContext(ctx, "refresh token reuse detected", "user_id", existing.UserID.String(), "client_ip", meta.ClientIP)
		if err := s.refreshRepo.RevokeAllForUser(ctx, existing.UserID); err != nil {
			return nil, fmt.Errorf("failed to revoke token family: %w", err)
		}
		return nil, ErrInvalidRefreshToken
	}

	if !existing.IsValid(now) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, existing.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	principal := principalFromUser(user)

	access, err := s.issuer.Issue(principal, s.accessTTL)
	if err != nil {
		return nil, err
	}

	rawNext, next, err := s.newRefreshToken(user.ID, meta, now)
	if err != nil {
		return nil, err
	}

	existing.ReplacedAt = &now
	if err := s.refreshRepo.Rotate(ctx, existing, next); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Lost a race against a concurrent rotation of the same token
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return &dto.LoginResponse{
		Token:        access.Value,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		RefreshToken: rawNext,
	}, nil
}

// Logout revokes the given refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}

	existing, err := s.refreshRepo.GetByTokenHash(ctx, util.HashToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	return s.refreshRepo.RevokeByID(ctx, existing.ID)
}

func (s *AuthService) issuePair(ctx context.Context, p *auth.Principal, userID uuid.UUID, meta SessionMeta) (*dto.LoginResponse, error) {
	access, err := s.issuer.Issue(p, s.accessTTL)
	if err != nil {
		return nil, err
	}

	raw, rt, err := s.newRefreshToken(userID, meta, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.refreshRepo.Create(ctx, rt); err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:        access.Value,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		RefreshToken: raw,
	}, nil
}

func (s *AuthService) newRefreshToken(userID uuid.UUID, meta SessionMeta, now time.Time) (string, *model.RefreshToken, error) {
	raw, err := util.RandomToken(32)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return raw, &model.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: util.HashToken(raw),
		ExpiresAt: now.Add(s.refreshTTL),
		ClientIP:  meta.ClientIP,
		UserAgent: meta.UserAgent,
	}, nil
}

func principalFromUser(u *model.User) *auth.Principal {
	return &auth.Principal{
		ID:     u.ID.String(),
		Email:  u.Email,
		Roles:  u.RoleCodes(),
		Claims: map[string]string{"name": u.Name},
	}
}
