package auth

import (
	"context"
	"log/slog"
)

// Operation names what a caller wants to do with a resource
type Operation string

const (
	OpRead   Operation = "read"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Gate decides whether a principal may operate on a resource owned by someone.
// Policy: owners may do anything with their own records, admins with any record.
type Gate struct {
	logger *slog.Logger
}

func NewGate(logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{logger: logger}
}

// Authorize returns nil when p may perform op on a resource owned by ownerID.
// An empty ownerID (unknown or missing resource) is only reachable by admins.
func (g *Gate) Authorize(ctx context.Context, p *Principal, op Operation, ownerID string) error {
	if p == nil || p.ID == "" {
		return ErrUnauthenticated
	}

	if ownerID != "" && p.ID == ownerID {
		return nil
	}

	if p.IsAdmin() {
		return nil
	}

	g.logger.WarnContext(ctx, "authorization denied",
		"principal", p.ID,
		"operation", string(op),
		"owner", ownerID,
	)
	return ErrForbidden
}
