package util

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"sodalis/config"
	"sodalis/model"
)

var dbNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// InitDB creates the database if needed, connects, migrates and configures the pool
func InitDB(cfg config.Database, logger *slog.Logger) (*gorm.DB, error) {
	if !dbNamePattern.MatchString(cfg.Name) {
		return nil, fmt.Errorf("invalid database name %q", cfg.Name)
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(
			slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
	}

	if err := ensureDatabase(cfg, gormCfg, logger); err != nil {
		return nil, err
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN(cfg.Name)), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to application database: %w", err)
	}

	logger.Info("running AutoMigrate")
	err = db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Credential{},
		&model.RefreshToken{},
		&model.Goal{},
		&model.Friend{},
	)
	if err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB object: %w", err)
	}

	// Credential lookups sit on the login path, keep idle connections warm
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logger.Info("database connected, migrated and pool configured", "database", cfg.Name)
	return db, nil
}

// ensureDatabase connects to the maintenance database and creates cfg.Name if missing
func ensureDatabase(cfg config.Database, gormCfg *gorm.Config, logger *slog.Logger) error {
	tempDB, err := gorm.Open(postgres.Open(cfg.DSN("postgres")), gormCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres instance: %w", err)
	}
	defer func() {
		if sqlDB, err := tempDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	var exists bool
	err = tempDB.Raw("SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = ?)", cfg.Name).
		Scan(&exists).Error
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	if exists {
		return nil
	}

	logger.Info("database not found, creating", "database", cfg.Name)
	// Identifiers cannot be bound as parameters. The name was checked against dbNamePattern.
	if err := tempDB.Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.Name)).Error; err != nil {
		return errors.Join(errors.New("failed to create database"), err)
	}
	return nil
}

// CloseDB closes the pool behind db
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
