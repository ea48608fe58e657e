// Package main provides a CLI tool for seeding the supervisor account and the
// label counter.
package main

import (
	"context"
	"fmt"
	"os"

	"registracion/internal/config"
	"registracion/internal/domain/auth"
	"registracion/internal/infrastructure/storage/postgres"
	"registracion/internal/infrastructure/storage/postgres/registration_repo"
	"registracion/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := seedSupervisor(ctx, registration_repo.NewUserRepo(txManager), cfg.Seed, log); err != nil {
			return err
		}
		return registration_repo.NewLabelRepo(txManager).EnsureCounter(ctx)
	})
	if err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedSupervisor(ctx context.Context, users *registration_repo.UserRepo, seed config.SeedConfig, log *logger.Logger) error {
	if seed.SupervisorPassword == "" {
		log.Warn("REGISTRACION_SEED_SUPERVISOR_PASSWORD not set, skipping supervisor")
		return nil
	}

	hash, err := auth.HashPassword(seed.SupervisorPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := users.Upsert(ctx, auth.Supervisor{
		Username:     seed.SupervisorUsername,
		PasswordHash: hash,
		RoleID:       seed.SupervisorRoleID,
	}); err != nil {
		return err
	}

	log.Infow("supervisor seeded", "username", seed.SupervisorUsername)
	return nil
}
