package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"onboarding/internal/config"
	"onboarding/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

func newMigrator() (*repository.Migrator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return repository.NewMigrator(cfg.DB.MigrateURL()), nil
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newMigrator()
		if err != nil {
			return err
		}
		if err := m.Up(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		m, err := newMigrator()
		if err != nil {
			return err
		}
		if err := m.Down(steps); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s).\n", steps)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newMigrator()
		if err != nil {
			return err
		}
		status, err := m.Status()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Current version: %d\n", status.CurrentVersion)
		fmt.Fprintf(out, "Latest version:  %d\n", status.LatestVersion)
		if status.Dirty {
			fmt.Fprintln(out, "State:           dirty (fix manually, then force the version)")
		} else if status.Pending {
			fmt.Fprintln(out, "State:           pending migrations")
		} else {
			fmt.Fprintln(out, "State:           up to date")
		}
		return nil
	},
}
