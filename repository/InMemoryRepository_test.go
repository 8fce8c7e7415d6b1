package repository

import (
	"context"
	"testing"
	"time"

	"sodalis/auth"
	"sodalis/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemoryUser(t *testing.T, s *MemoryStore, email string) *model.User {
	t.Helper()
	u := &model.User{
		Name:  "Test",
		Email: email,
		Credentials: []model.Credential{
			{Type: model.CredTypePassword, Value: "$argon2id$stub", Active: true},
		},
	}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestMemoryUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	role := &model.Role{Name: "User", Code: auth.RoleUser}
	require.NoError(t, s.Roles().EnsureRole(ctx, role))
	again := &model.Role{Name: "Other name", Code: auth.RoleUser}
	require.NoError(t, s.Roles().EnsureRole(ctx, again))
	assert.Equal(t, role.ID, again.ID, "existing role is returned")

	u := &model.User{Name: "Ada", Email: "ada@example.com", Roles: []model.Role{*role},
		Credentials: []model.Credential{{Type: model.CredTypePassword, Value: "hash", Active: true}}}
	require.NoError(t, s.Users().Create(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, u.ID, u.Credentials[0].UserID)

	err := s.Users().Create(ctx, &model.User{Name: "Ada 2", Email: "ada@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = s.Users().Create(ctx, &model.User{Name: "Eve", Email: "eve@example.com",
		Credentials: []model.Credential{{Type: "totp", Value: "secret", Active: true}}})
	assert.ErrorIs(t, err, model.ErrInvalidCredentialType)
	_, err = s.Users().GetByEmail(ctx, "eve@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	cred, err := s.Users().LookupCredential(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", cred.PasswordHash)
	assert.Equal(t, []string{auth.RoleUser}, cred.Roles)

	_, err = s.Users().LookupCredential(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, auth.ErrCredentialNotFound)

	// returned users are copies
	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.Roles[0].Code = "mutated"
	again2, err := s.Users().GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, again2.Roles[0].Code)
}

func TestMemoryRefreshTokens_Rotate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	repo := s.RefreshTokens()
	u := seedMemoryUser(t, s, "ada@example.com")

	old := &model.RefreshToken{UserID: u.ID, TokenHash: "h1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, old))

	now := time.Now()
	old.ReplacedAt = &now
	next := &model.RefreshToken{UserID: u.ID, TokenHash: "h2", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Rotate(ctx, old, next))

	stored, err := repo.GetByTokenHash(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, stored.ReplacedByTokenID)
	assert.Equal(t, next.ID, *stored.ReplacedByTokenID)

	// second rotation of the same token loses
	late := &model.RefreshToken{UserID: u.ID, TokenHash: "h3", ExpiresAt: time.Now().Add(time.Hour)}
	assert.ErrorIs(t, repo.Rotate(ctx, old, late), ErrNotFound)
	_, err = repo.GetByTokenHash(ctx, "h3")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.RevokeAllForUser(ctx, u.ID))
	stored, err = repo.GetByTokenHash(ctx, "h2")
	require.NoError(t, err)
	assert.NotNil(t, stored.RevokedAt)
}

func TestMemoryRefreshTokens_DeleteExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	repo := s.RefreshTokens()
	u := seedMemoryUser(t, s, "ada@example.com")

	require.NoError(t, repo.Create(ctx, &model.RefreshToken{UserID: u.ID, TokenHash: "old", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, repo.Create(ctx, &model.RefreshToken{UserID: u.ID, TokenHash: "live", ExpiresAt: time.Now().Add(time.Hour)}))

	n, err := repo.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByTokenHash(ctx, "live")
	assert.NoError(t, err)
}

func TestMemoryGoalsAndFriends(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	ada := seedMemoryUser(t, s, "ada@example.com")
	bob := seedMemoryUser(t, s, "bob@example.com")

	goal := &model.Goal{UserID: ada.ID, Title: "Read"}
	require.NoError(t, s.Goals().Create(ctx, goal))
	assert.ErrorIs(t, s.Goals().Create(ctx, &model.Goal{UserID: uuid.New(), Title: "orphan"}), ErrNotFound)

	goals, err := s.Goals().ListByUser(ctx, ada.ID)
	require.NoError(t, err)
	assert.Len(t, goals, 1)

	require.NoError(t, s.Goals().Delete(ctx, goal.ID))
	assert.ErrorIs(t, s.Goals().Delete(ctx, goal.ID), ErrNotFound)

	link := &model.Friend{UserID: ada.ID, FriendUserID: bob.ID}
	require.NoError(t, s.Friends().Create(ctx, link))
	assert.ErrorIs(t, s.Friends().Create(ctx, &model.Friend{UserID: ada.ID, FriendUserID: bob.ID}), ErrDuplicate)

	got, err := s.Friends().GetByID(ctx, link.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", got.FriendUser.Email)
}
