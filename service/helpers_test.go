package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"sodalis/model"
	"sodalis/repository"
	"sodalis/util"

	"github.com/stretchr/testify/require"
)

// cheap parameters so tests stay fast
var testHashParams = util.Argon2Params{Memory: 64, Time: 1, Threads: 1, KeyLen: 16, SaltLen: 8}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedUser stores a user with the given role codes and, when password is set, a password credential
func seedUser(t *testing.T, store *repository.MemoryStore, name, email, password string, roleCodes ...string) *model.User {
	t.Helper()
	ctx := context.Background()

	u := &model.User{Name: name, Email: email}
	for _, code := range roleCodes {
		role := &model.Role{Name: code, Code: code}
		require.NoError(t, store.Roles().EnsureRole(ctx, role))
		u.Roles = append(u.Roles, *role)
	}
	if password != "" {
		hash, err := util.HashPasswordWithParams(password, testHashParams)
		require.NoError(t, err)
		u.Credentials = []model.Credential{{Type: model.CredTypePassword, Value: hash, Active: true}}
	}

	require.NoError(t, store.Users().Create(ctx, u))
	return u
}
