package main

import (
	"context"
	"fmt"

	"hiredesk/internal/db"
	"hiredesk/internal/seed"
	"hiredesk/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with sample applications",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		applicationRepo := store.NewApplicationRepository(pool)

		logrus.Info("Seeding applications...")
		if err := seed.SeedApplications(ctx, applicationRepo); err != nil {
			return fmt.Errorf("failed to seed applications: %w", err)
		}

		logrus.Info("Applications seeded successfully")

		return nil
	},
}
