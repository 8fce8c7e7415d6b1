package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sodalis/auth"
	"sodalis/config"
	"sodalis/controller"
	"sodalis/repository"
	"sodalis/seeder"
	"sodalis/service"
	"sodalis/util"

	_ "sodalis/docs" // registers the swagger docs
)

// @title           Sodalis API
// @version         1.0
// @description     Goals and friends for multiple users, protected by JWT bearer authentication.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.email   support@swagger.io

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host            localhost:4000
// @BasePath        /api/v1

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := util.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keys, err := signingKeys(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("signing keys loaded", "alg", keys.Algorithm())

	repos, closeRepos, err := openRepositories(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeRepos()

	h, err := buildHandlers(ctx, cfg, repos, keys, logger)
	if err != nil {
		return err
	}

	cleanupDone := util.StartDailyCleanup(ctx, repos.refreshTokens, 3, logger)

	app := newApp(ctx, cfg, logger, h)

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port, "env", cfg.Environment)
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-listenErr:
		stop()
		<-cleanupDone
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	<-cleanupDone
	return nil
}

// buildHandlers seeds the roles and wires verifier, issuer, gate, services and controllers
func buildHandlers(ctx context.Context, cfg *config.Config, repos repositories, keys *auth.Keys, logger *slog.Logger) (handlers, error) {
	if err := seeder.SeedRoles(ctx, repos.roles, logger); err != nil {
		return handlers{}, err
	}
	if cfg.Seed.AdminEmail != "" {
		if err := seeder.SeedAdmin(ctx, repos.users, repos.roles, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, logger); err != nil {
			return handlers{}, err
		}
	}

	verifier, err := auth.NewVerifier(repos.users, util.DefaultArgon2Params, logger)
	if err != nil {
		return handlers{}, err
	}
	issuer := auth.NewIssuer(keys, cfg.JWT.Issuer)
	validator := auth.NewValidator(keys, cfg.JWT.Issuer)
	gate := auth.NewGate(logger)

	authService := service.NewAuthService(verifier, issuer, repos.users, repos.roles, repos.refreshTokens, service.AuthServiceConfig{
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	}, logger)
	emailService := service.NewEmailService(cfg.SMTP, logger)
	goalService := service.NewGoalService(repos.goals, repos.users, gate)
	friendService := service.NewFriendService(repos.friends, repos.users, gate, emailService, logger)

	return handlers{
		validator: validator,
		auth:      controller.NewAuthController(authService, cfg.Cookie),
		goals:     controller.NewGoalController(goalService),
		friends:   controller.NewFriendController(friendService),
	}, nil
}

type repositories struct {
	users         repository.UserRepository
	roles         repository.RoleRepository
	refreshTokens repository.RefreshTokenRepository
	goals         repository.GoalRepository
	friends       repository.FriendRepository
}

// openRepositories connects the configured storage. The returned func releases it.
func openRepositories(cfg config.Database, logger *slog.Logger) (repositories, func(), error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		return repositories{
			users:         store.Users(),
			roles:         store.Roles(),
			refreshTokens: store.RefreshTokens(),
			goals:         store.Goals(),
			friends:       store.Friends(),
		}, func() {}, nil
	}

	db, err := util.InitDB(cfg, logger)
	if err != nil {
		return repositories{}, nil, err
	}

	closeDB := func() {
		if err := util.CloseDB(db); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}

	return repositories{
		users:         repository.NewUserRepository(db),
		roles:         repository.NewRoleRepository(db),
		refreshTokens: repository.NewRefreshTokenRepository(db),
		goals:         repository.NewGoalRepository(db),
		friends:       repository.NewFriendRepository(db),
	}, closeDB, nil
}

// signingKeys prefers RS256 when both RSA keys are configured
func signingKeys(cfg config.JWT) (*auth.Keys, error) {
	if cfg.RSAPrivateKey != "" && cfg.RSAPublicKey != "" {
		keys, err := auth.NewRSAKeys(cfg.RSAPrivateKey, cfg.RSAPublicKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize RSA keys: %w", err)
		}
		return keys, nil
	}

	keys, err := auth.NewHMACKeys([]byte(cfg.Secret))
	if err != nil {
		if errors.Is(err, auth.ErrNoSigningKey) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to initialize JWT secret: %w", err)
	}
	return keys, nil
}
