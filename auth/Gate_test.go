package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate_Authorize(t *testing.T) {
	gate := NewGate(slog.New(slog.NewTextHandler(io.Discard, nil)))

	owner := &Principal{ID: "user-1", Roles: []string{RoleUser}}
	other := &Principal{ID: "user-2", Roles: []string{RoleUser}}
	admin := &Principal{ID: "admin-1", Roles: []string{RoleAdmin, RoleUser}}

	tests := []struct {
		name    string
		p       *Principal
		op      Operation
		ownerID string
		wantErr error
	}{
		{name: "owner reads own", p: owner, op: OpRead, ownerID: "user-1"},
		{name: "owner deletes own", p: owner, op: OpDelete, ownerID: "user-1"},
		{name: "other user reads", p: other, op: OpRead, ownerID: "user-1", wantErr: ErrForbidden},
		{name: "other user updates", p: other, op: OpUpdate, ownerID: "user-1", wantErr: ErrForbidden},
		{name: "admin reads anyone", p: admin, op: OpRead, ownerID: "user-1"},
		{name: "admin deletes anyone", p: admin, op: OpDelete, ownerID: "user-2"},
		{name: "missing resource non-admin", p: owner, op: OpRead, ownerID: "", wantErr: ErrForbidden},
		{name: "missing resource admin", p: admin, op: OpRead, ownerID: ""},
		{name: "no principal", p: nil, op: OpRead, ownerID: "user-1", wantErr: ErrUnauthenticated},
		{name: "principal without id", p: &Principal{}, op: OpRead, ownerID: "", wantErr: ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Authorize(context.Background(), tt.p, tt.op, tt.ownerID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPrincipal_Roles(t *testing.T) {
	var nilPrincipal *Principal
	assert.False(t, nilPrincipal.IsAdmin())
	assert.Equal(t, "", nilPrincipal.Claim("name"))

	p := &Principal{ID: "u", Roles: []string{RoleUser}, Claims: map[string]string{"name": "Ada"}}
	assert.True(t, p.HasRole(RoleUser))
	assert.False(t, p.IsAdmin())
	assert.Equal(t, "Ada", p.Claim("name"))
	assert.Equal(t, "", p.Claim("missing"))
}

func TestContext_Principal(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	assert.False(t, ok)

	p := &Principal{ID: "u1"}
	ctx := WithPrincipal(context.Background(), p)

	got, ok := PrincipalFrom(ctx)
	assert.True(t, ok)
	assert.Same(t, p, got)

	// a nil principal is not a binding
	_, ok = PrincipalFrom(WithPrincipal(context.Background(), nil))
	assert.False(t, ok)
}

func TestIsAuthenticationError(t *testing.T) {
	assert.True(t, IsAuthenticationError(ErrInvalidCredentials))
	assert.True(t, IsAuthenticationError(ErrExpired))
	assert.True(t, IsAuthenticationError(ErrUnauthenticated))
	assert.False(t, IsAuthenticationError(ErrForbidden))
	assert.False(t, IsAuthenticationError(nil))
}
