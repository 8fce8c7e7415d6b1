package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"sodalis/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// cheap parameters so tests stay fast
var testHashParams = util.Argon2Params{Memory: 64, Time: 1, Threads: 1, KeyLen: 16, SaltLen: 8}

type memoryStore struct {
	creds map[string]*StoredCredential
	err   error
}

func (m *memoryStore) LookupCredential(_ context.Context, identifier string) (*StoredCredential, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.creds[identifier]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return c, nil
}

func newTestVerifier(t *testing.T, store CredentialStore) *Verifier {
	t.Helper()
	v, err := NewVerifier(store, testHashParams, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return v
}

func TestVerifier_Verify(t *testing.T) {
	hash, err := util.HashPasswordWithParams("correct horse", testHashParams)
	require.NoError(t, err)

	store := &memoryStore{creds: map[string]*StoredCredential{
		"ada@example.com": {
			UserID:       "user-1",
			Email:        "ada@example.com",
			PasswordHash: hash,
			Roles:        []string{RoleUser},
			Claims:       map[string]string{"name": "Ada"},
		},
	}}
	v := newTestVerifier(t, store)

	t.Run("match", func(t *testing.T) {
		p, err := v.Verify(context.Background(), "ada@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, "user-1", p.ID)
		assert.Equal(t, []string{RoleUser}, p.Roles)
		assert.Equal(t, "Ada", p.Claim("name"))
	})

	t.Run("identifier is normalized", func(t *testing.T) {
		p, err := v.Verify(context.Background(), "  ADA@Example.com ", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, "user-1", p.ID)
	})

	t.Run("unknown and wrong password look the same", func(t *testing.T) {
		_, wrongPassword := v.Verify(context.Background(), "ada@example.com", "battery staple")
		_, unknownUser := v.Verify(context.Background(), "bob@example.com", "correct horse")

		assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
		assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "ada@example.com", "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestVerifier_LegacyBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)

	v := newTestVerifier(t, &memoryStore{creds: map[string]*StoredCredential{
		"old@example.com": {UserID: "user-9", Email: "old@example.com", PasswordHash: string(hash)},
	}})

	p, err := v.Verify(context.Background(), "old@example.com", "old-password")
	require.NoError(t, err)
	assert.Equal(t, "user-9", p.ID)
}

func TestVerifier_CorruptHashIsInvalidCredentials(t *testing.T) {
	for _, stored := range []string{
		"plaintext?",
		"$argon2id$v=19$m=64,t=0,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=0$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$c2FsdA$",
	} {
		v := newTestVerifier(t, &memoryStore{creds: map[string]*StoredCredential{
			"x@example.com": {UserID: "user-2", PasswordHash: stored},
		}})

		var err error
		require.NotPanics(t, func() {
			_, err = v.Verify(context.Background(), "x@example.com", "plaintext?")
		}, stored)
		assert.ErrorIs(t, err, ErrInvalidCredentials, stored)
	}
}

func TestVerifier_StoreFailure(t *testing.T) {
	boom := errors.New("connection refused")
	v := newTestVerifier(t, &memoryStore{err: boom})

	_, err := v.Verify(context.Background(), "ada@example.com", "pw")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
