package main

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"sodalis/config"
	"sodalis/controller"
	"sodalis/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	swag "github.com/gofiber/swagger"
)

type handlers struct {
	validator middleware.TokenValidator
	auth      *controller.AuthController
	goals     *controller.GoalController
	friends   *controller.FriendController
}

// newApp builds the fiber app. Background work it starts (the limiter janitor) ends with ctx.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, h handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "sodalis",
		ErrorHandler:          controller.NewErrorHandler(logger),
		DisableStartupMessage: true,
	})

	setupRoutes(ctx, app, cfg, logger, h)
	return app
}

func setupRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, logger *slog.Logger, h handlers) {
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger))
	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/swagger/*", swag.HandlerDefault)

	banStorage := middleware.NewIPBanStorage(ctx, time.Minute)
	loginLimiter := middleware.NewLoginLimiter(banStorage, middleware.LimiterConfig{
		Max:    cfg.RateLimitMax,
		Window: time.Minute,
		BanFor: 10 * time.Minute,
	}, logger)

	api := app.Group("/api/v1")

	api.Post("/login", loginLimiter, h.auth.Login)
	api.Post("/register", loginLimiter, h.auth.Register)
	api.Post("/refresh", loginLimiter, h.auth.Refresh)
	api.Post("/logout", h.auth.Logout)

	authenticate := middleware.Authenticate(h.validator)

	api.Get("/me", authenticate, h.auth.Me)

	api.Get("/goals/:id", authenticate, h.goals.GetGoal)
	api.Put("/goals/:id", authenticate, h.goals.UpdateGoal)
	api.Delete("/goals/:id", authenticate, h.goals.DeleteGoal)
	api.Post("/goals", authenticate, h.goals.CreateGoal)
	api.Get("/users/:userId/goals", authenticate, h.goals.ListGoals)

	api.Get("/friends/:id", authenticate, h.friends.GetFriend)
	api.Delete("/friends/:id", authenticate, h.friends.DeleteFriend)
	api.Post("/friends", authenticate, h.friends.AddFriend)
	api.Get("/users/:userId/friends", authenticate, h.friends.ListFriends)
}

// corsConfig allows any origin without credentials unless an allowlist is configured.
// A "*" entry means any origin, and credentials are then never allowed.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Retry-After",
		MaxAge:        int((12 * time.Hour).Seconds()),
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowOrigins = "*"
		return c
	}

	c.AllowOrigins = strings.Join(origins, ",")
	c.AllowCredentials = true
	return c
}
