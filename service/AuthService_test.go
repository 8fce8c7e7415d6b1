package service

import (
	"context"
	"testing"
	"time"

	"sodalis/auth"
	"sodalis/dto"
	"sodalis/model"
	"sodalis/repository"
	"sodalis/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type authFixture struct {
	svc       *AuthService
	store     *repository.MemoryStore
	refresh   repository.RefreshTokenRepository
	validator *auth.Validator
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	keys, err := auth.NewHMACKeys([]byte(testSecret))
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	for _, code := range []string{auth.RoleAdmin, auth.RoleUser} {
		require.NoError(t, store.Roles().EnsureRole(context.Background(), &model.Role{Name: code, Code: code}))
	}
	refresh := store.RefreshTokens()

	verifier, err := auth.NewVerifier(store.Users(), testHashParams, discardLogger())
	require.NoError(t, err)

	svc := NewAuthService(
		verifier,
		auth.NewIssuer(keys, "sodalis"),
		store.Users(),
		store.Roles(),
		refresh,
		AuthServiceConfig{AccessTTL: 15 * time.Minute, RefreshTTL: time.Hour, HashParams: testHashParams},
		discardLogger(),
	)

	return &authFixture{
		svc:       svc,
		store:     store,
		refresh:   refresh,
		validator: auth.NewValidator(keys, "sodalis"),
	}
}

var meta = SessionMeta{ClientIP: "10.0.0.1", UserAgent: "test"}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, &dto.RegisterRequest{Name: "Ada", EmailAddress: " Ada@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", reg.EmailAddress)

	_, err = f.svc.Register(ctx, &dto.RegisterRequest{Name: "Ada 2", EmailAddress: "ada@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrConflict)

	res, err := f.svc.Login(ctx, &dto.LoginRequest{EmailAddress: "ada@example.com", Password: "correct horse"}, meta)
	require.NoError(t, err)
	assert.Equal(t, 900, res.ExpiresIn)
	assert.NotEmpty(t, res.RefreshToken)

	p, err := f.validator.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, p.ID)
	assert.Equal(t, []string{auth.RoleUser}, p.Roles)
	assert.Equal(t, "Ada", p.Claim("name"))

	// only the hash of the refresh token is stored
	stored, err := f.refresh.GetByTokenHash(ctx, util.HashToken(res.RefreshToken))
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, stored.TokenHash)
	assert.Equal(t, "10.0.0.1", stored.ClientIP)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	seedUser(t, f.store, "Ada", "ada@example.com", "correct horse", auth.RoleUser)

	_, wrong := f.svc.Login(context.Background(), &dto.LoginRequest{EmailAddress: "ada@example.com", Password: "nope"}, meta)
	_, unknown := f.svc.Login(context.Background(), &dto.LoginRequest{EmailAddress: "bob@example.com", Password: "nope"}, meta)

	assert.ErrorIs(t, wrong, auth.ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, auth.ErrInvalidCredentials)
	assert.Equal(t, wrong.Error(), unknown.Error())
}

func TestAuthService_RefreshRotates(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := seedUser(t, f.store, "Ada", "ada@example.com", "correct horse", auth.RoleUser)

	login, err := f.svc.Login(ctx, &dto.LoginRequest{EmailAddress: "ada@example.com", Password: "correct horse"}, meta)
	require.NoError(t, err)

	rotated, err := f.svc.Refresh(ctx, login.RefreshToken, meta)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	old, err := f.refresh.GetByTokenHash(ctx, util.HashToken(login.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, old.ReplacedByTokenID)
	next, err := f.refresh.GetByTokenHash(ctx, util.HashToken(rotated.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, next.ID, *old.ReplacedByTokenID)
	assert.True(t, next.IsValid(time.Now()))

	p, err := f.validator.Validate(rotated.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), p.ID)

	// the rotated token keeps working
	_, err = f.svc.Refresh(ctx, rotated.RefreshToken, meta)
	require.NoError(t, err)
}

func TestAuthService_RefreshReuseRevokesFamily(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := seedUser(t, f.store, "Ada", "ada@example.com", "correct horse", auth.RoleUser)

	login, err := f.svc.Login(ctx, &dto.LoginRequest{EmailAddress: "ada@example.com", Password: "correct horse"}, meta)
	require.NoError(t, err)
	rotated, err := f.svc.Refresh(ctx, login.RefreshToken, meta)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, login.RefreshToken, meta)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	next, err := f.refresh.GetByTokenHash(ctx, util.HashToken(rotated.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, u.ID, next.UserID)
	assert.NotNil(t, next.RevokedAt, "reuse revokes the whole family")

	_, err = f.svc.Refresh(ctx, rotated.RefreshToken, meta)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_RefreshRejects(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	seedUser(t, f.store, "Ada", "ada@example.com", "correct horse", auth.RoleUser)

	login, err := f.svc.Login(ctx, &dto.LoginRequest{EmailAddress: "ada@example.com", Password: "correct horse"}, meta)
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := f.svc.Refresh(ctx, "", meta)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := f.svc.Refresh(ctx, "made-up", meta)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("expired", func(t *testing.T) {
		f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { f.svc.now = time.Now }()

		_, err := f.svc.Refresh(ctx, login.RefreshToken, meta)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	seedUser(t, f.store, "Ada", "ada@example.com", "correct horse", auth.RoleUser)

	login, err := f.svc.Login(ctx, &dto.LoginRequest{EmailAddress: "ada@example.com", Password: "correct horse"}, meta)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, login.RefreshToken))
	require.NoError(t, f.svc.Logout(ctx, login.RefreshToken), "logout is idempotent")
	require.NoError(t, f.svc.Logout(ctx, "unknown"))
	require.NoError(t, f.svc.Logout(ctx, ""))

	_, err = f.svc.Refresh(ctx, login.RefreshToken, meta)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}
