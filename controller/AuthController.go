package controller

import (
	"time"

	"sodalis/auth"
	"sodalis/config"
	"sodalis/dto"
	"sodalis/middleware"
	"sodalis/service"

	"github.com/gofiber/fiber/v2"
)

const refreshCookie = "refresh_token"

// AuthController provides handlers for authentication
type AuthController struct {
	svc    *service.AuthService
	cookie config.Cookie
	now    func() time.Time
}

func NewAuthController(s *service.AuthService, cookie config.Cookie) *AuthController {
	return &AuthController{svc: s, cookie: cookie, now: time.Now}
}

// Register godoc
// @Summary      Register a new user
// @Description  Create a user account with email and password. Assigns default 'user' role.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload body dto.RegisterRequest true "Register payload"
// @Success      201  {object}  dto.RegisterResponse
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /register [post]
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := ac.svc.Register(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(res)
}

// Login godoc
// @Summary      Login with email and password
// @Description  Validates credentials and returns a signed access token. The refresh token is returned in the body and in an HttpOnly cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload body dto.LoginRequest true "Login payload"
// @Success      200  {object}  dto.LoginResponse
// @Header       200  {string}  Set-Cookie "refresh_token=...; HttpOnly; Secure"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string "Unknown email and wrong password look the same"
// @Failure      429  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /login [post]
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	res, err := ac.svc.Login(c.UserContext(), &req, sessionMeta(c))
	if err != nil {
		return err
	}

	ac.setRefreshCookie(c, res.RefreshToken)
	return c.Status(fiber.StatusOK).JSON(res)
}

// Refresh godoc
// @Summary      Rotate refresh token
// @Description  Takes the refresh token from the body or the 'refresh_token' cookie and issues a new access/refresh pair. Reusing a rotated token revokes all sessions of the user.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload body dto.RefreshRequest false "Refresh payload"
// @Success      200  {object}  dto.LoginResponse
// @Header       200  {string}  Set-Cookie "refresh_token=...; HttpOnly; Secure"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /refresh [post]
func (ac *AuthController) Refresh(c *fiber.Ctx) error {
	raw, err := ac.refreshToken(c)
	if err != nil {
		return err
	}
	if raw == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing refresh token")
	}

	res, err := ac.svc.Refresh(c.UserContext(), raw, sessionMeta(c))
	if err != nil {
		ac.clearRefreshCookie(c)
		return err
	}

	ac.setRefreshCookie(c, res.RefreshToken)
	return c.Status(fiber.StatusOK).JSON(res)
}

// Logout godoc
// @Summary      Revoke a refresh token
// @Description  Revokes the refresh token from the body or cookie and clears the cookie. Access tokens stay valid until they expire.
// @Tags         auth
// @Accept       json
// @Param        payload body dto.RefreshRequest false "Logout payload"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /logout [post]
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	raw, err := ac.refreshToken(c)
	if err != nil {
		return err
	}

	if err := ac.svc.Logout(c.UserContext(), raw); err != nil {
		return err
	}

	ac.clearRefreshCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// Me godoc
// @Summary      Current principal
// @Description  Returns the identity bound to the bearer token.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.MeResponse
// @Failure      401  {object}  map[string]string
// @Router       /me [get]
func (ac *AuthController) Me(c *fiber.Ctx) error {
	p := middleware.Principal(c)
	if p == nil {
		return auth.ErrUnauthenticated
	}

	return c.JSON(dto.MeResponse{
		ID:           p.ID,
		EmailAddress: p.Email,
		Roles:        p.Roles,
		Claims:       p.Claims,
		ExpiresAt:    p.ExpiresAt,
		ExpiresIn:    int(auth.ExpiresIn(p, ac.now()).Seconds()),
	})
}

// refreshToken reads the token from the JSON body first, then from the cookie
func (ac *AuthController) refreshToken(c *fiber.Ctx) (string, error) {
	if len(c.Body()) > 0 {
		var req dto.RefreshRequest
		if err := parseBody(c, &req); err != nil {
			return "", err
		}
		if req.RefreshToken != "" {
			return req.RefreshToken, nil
		}
	}
	return c.Cookies(refreshCookie), nil
}

func (ac *AuthController) setRefreshCookie(c *fiber.Ctx, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    value,
		Expires:  ac.now().Add(ac.svc.RefreshTTL()),
		HTTPOnly: true,
		Secure:   ac.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     ac.cookie.Path,
	})
}

func (ac *AuthController) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   ac.cookie.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     ac.cookie.Path,
	})
}

func sessionMeta(c *fiber.Ctx) service.SessionMeta {
	return service.SessionMeta{
		ClientIP:  c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
}
