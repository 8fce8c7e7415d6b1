package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"sodalis/util"
)

// ErrCredentialNotFound is what a CredentialStore returns for an unknown identifier
var ErrCredentialNotFound = errors.New("credential not found")

// StoredCredential is the view of a stored login the verifier needs.
// PasswordHash never leaves the verifier.
type StoredCredential struct {
	UserID       string
	Email        string
	PasswordHash string
	Roles        []string
	Claims       map[string]string
}

// CredentialStore looks up a password credential by identifier (email)
type CredentialStore interface {
	LookupCredential(ctx context.Context, identifier string) (*StoredCredential, error)
}

// Verifier checks an email/password pair against stored hashed credentials
type Verifier struct {
	store     CredentialStore
	dummyHash string
	logger    *slog.Logger
}

// NewVerifier prepares a verifier. params are only used to build the hash that
// unknown identifiers are compared against, so both failure paths cost the same.
func NewVerifier(store CredentialStore, params util.Argon2Params, logger *slog.Logger) (*Verifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	seed, err := util.RandomToken(24)
	if err != nil {
		return nil, fmt.Errorf("failed to seed dummy hash: %w", err)
	}
	dummy, err := util.HashPasswordWithParams(seed, params)
	if err != nil {
		return nil, fmt.Errorf("failed to build dummy hash: %w", err)
	}

	return &Verifier{store: store, dummyHash: dummy, logger: logger}, nil
}

// NormalizeIdentifier is applied to emails both when storing and when looking up
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Verify returns the principal for a matching identifier/password pair.
// Unknown identifiers and wrong passwords both fail with ErrInvalidCredentials.
func (v *Verifier) Verify(ctx context.Context, identifier, password string) (*Principal, error) {
	cred, err := v.store.LookupCredential(ctx, NormalizeIdentifier(identifier))
	if err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			_ = util.ComparePassword(v.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("credential lookup failed: %w", err)
	}

	if err := util.ComparePassword(cred.PasswordHash, password); err != nil {
		if !errors.Is(err, util.ErrPasswordMismatch) {
			// Corrupt or unsupported stored hash. Still a failed login for the client.
			v.logger.ErrorContext(ctx, "stored credential could not be checked", "user_id", cred.UserID, "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	return &Principal{
		ID:     cred.UserID,
		Email:  cred.Email,
		Roles:  append([]string(nil), cred.Roles...),
		Claims: cred.Claims,
	}, nil
}
