package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sodalis/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	tokens map[string]*auth.Principal
}

func (s stubValidator) Validate(raw string) (*auth.Principal, error) {
	if raw == "expired" {
		return nil, auth.ErrExpired
	}
	p, ok := s.tokens[raw]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return p, nil
}

// statusFromError keeps these tests independent of the controller package
func statusFromError(c *fiber.Ctx, err error) error {
	if auth.IsAuthenticationError(err) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func newAuthApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: statusFromError})
	v := stubValidator{tokens: map[string]*auth.Principal{
		"good": {ID: "user-1", Roles: []string{auth.RoleUser}},
	}}

	app.Get("/whoami", Authenticate(v), func(c *fiber.Ctx) error {
		fromLocals := Principal(c)
		fromCtx, ok := auth.PrincipalFrom(c.UserContext())
		if !ok || fromLocals != fromCtx {
			return errors.New("principal not bound consistently")
		}
		return c.SendString(fromLocals.ID)
	})
	return app
}

func TestAuthenticate(t *testing.T) {
	app := newAuthApp()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "valid bearer", header: "Bearer good", wantStatus: http.StatusOK, wantBody: "user-1"},
		{name: "scheme is case-insensitive", header: "bearer good", wantStatus: http.StatusOK, wantBody: "user-1"},
		{name: "no header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer   ", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer forged", wantStatus: http.StatusUnauthorized},
		{name: "expired token", header: "Bearer expired", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	_, err := bearerToken("")
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = bearerToken("Token abc")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	tok, err := bearerToken("  Bearer abc.def.ghi ")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	app := fiber.New(fiber.Config{ErrorHandler: statusFromError})
	app.Use(RequestLogger(logger))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/denied", func(c *fiber.Ctx) error { return auth.ErrUnauthenticated })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), "path=/ok")
	assert.Contains(t, buf.String(), "status=200")

	buf.Reset()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/denied", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "error handler output is what the client gets")
	assert.Contains(t, buf.String(), "status=401")
}

func newTestStorage() (*IPBanStorage, *time.Time) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &IPBanStorage{
		entries: make(map[string]storageEntry),
		bans:    make(map[string]time.Time),
	}
	s.now = func() time.Time { return now }
	return s, &now
}

func TestIPBanStorage_Expiry(t *testing.T) {
	s, now := newTestStorage()

	require.NoError(t, s.Set("k", []byte("v"), time.Second))
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	*now = now.Add(2 * time.Second)
	got, err = s.Get("k")
	require.NoError(t, err)
	assert.Nil(t, got)

	s.sweep()
	assert.Empty(t, s.entries)

	require.NoError(t, s.Set("forever", []byte("v"), 0))
	*now = now.Add(24 * time.Hour)
	got, _ = s.Get("forever")
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, s.Delete("forever"))
	got, _ = s.Get("forever")
	assert.Nil(t, got)
}

func TestIPBanStorage_Bans(t *testing.T) {
	s, now := newTestStorage()

	_, banned := s.BannedUntil("1.2.3.4")
	assert.False(t, banned)

	s.Ban("1.2.3.4", 10*time.Minute)
	until, banned := s.BannedUntil("1.2.3.4")
	assert.True(t, banned)
	assert.Equal(t, now.Add(10*time.Minute), until)

	*now = now.Add(11 * time.Minute)
	_, banned = s.BannedUntil("1.2.3.4")
	assert.False(t, banned)

	s.Ban("5.6.7.8", time.Minute)
	require.NoError(t, s.Reset())
	_, banned = s.BannedUntil("5.6.7.8")
	assert.False(t, banned)
}

func TestLoginLimiter(t *testing.T) {
	storage, _ := newTestStorage()
	storage.now = time.Now

	app := fiber.New()
	app.Post("/login", NewLoginLimiter(storage, LimiterConfig{Max: 2, Window: time.Minute, BanFor: time.Hour},
		slog.New(slog.NewTextHandler(io.Discard, nil))),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	do := func() *http.Response {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, http.StatusNoContent, do().StatusCode)
	assert.Equal(t, http.StatusNoContent, do().StatusCode)

	limited := do()
	assert.Equal(t, http.StatusTooManyRequests, limited.StatusCode)
	assert.NotEmpty(t, limited.Header.Get("Retry-After"))

	// banned now, even though the window would reset
	banned := do()
	assert.Equal(t, http.StatusTooManyRequests, banned.StatusCode)
	assert.Equal(t, "3600", banned.Header.Get("Retry-After"))
}
