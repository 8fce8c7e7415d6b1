package middleware

import (
	"strings"

	"sodalis/auth"

	"github.com/gofiber/fiber/v2"
)

// PrincipalKey is the fiber Locals key the authenticated principal is stored under
const PrincipalKey = "principal"

// TokenValidator is satisfied by *auth.Validator
type TokenValidator interface {
	Validate(raw string) (*auth.Principal, error)
}

var _ TokenValidator = (*auth.Validator)(nil)

// Authenticate requires a valid bearer token. On failure the chain stops with an
// authentication error and the route handler never runs. On success the principal is
// bound to this request only: Locals and the request's user context.
func Authenticate(v TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}

		principal, err := v.Validate(raw)
		if err != nil {
			return err
		}

		c.Locals(PrincipalKey, principal)
		c.SetUserContext(auth.WithPrincipal(c.UserContext(), principal))
		return c.Next()
	}
}

// Principal returns the principal bound by Authenticate, or nil
func Principal(c *fiber.Ctx) *auth.Principal {
	p, _ := c.Locals(PrincipalKey).(*auth.Principal)
	return p
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrUnauthenticated
	}

	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", auth.ErrInvalidToken
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}
