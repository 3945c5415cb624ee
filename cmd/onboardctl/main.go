package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"onboarding/internal/app"
	"onboarding/internal/config"
	"onboarding/internal/repository"
	"onboarding/pkg/db"
)

var rootCmd = &cobra.Command{
	Use:   "onboardctl",
	Short: "Operator tool for the onboarding service",
	Long:  `onboardctl runs schema migrations, progress maintenance and outbox replay against the onboarding database.`,
	// SilenceUsage 避免业务错误时打印整段 usage
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Log at debug level to stderr")

	migrateDownCmd.Flags().Int("steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)

	progressRecalcCmd.Flags().String("hire", "", "Hire id (uuid)")
	progressRecalcCmd.Flags().Int("template", 0, "Template id")
	_ = progressRecalcCmd.MarkFlagRequired("hire")
	_ = progressRecalcCmd.MarkFlagRequired("template")
	progressAtRiskCmd.Flags().String("hr", "", "HR user id (uuid)")
	_ = progressAtRiskCmd.MarkFlagRequired("hr")
	progressCmd.AddCommand(progressRecalcCmd, progressAtRiskCmd)

	outboxReplayCmd.Flags().Int64("id", 0, "Replay a single event by id")
	outboxReplayCmd.Flags().Int("limit", 100, "Maximum failed events to replay")
	outboxCmd.AddCommand(outboxReplayCmd)

	tokenCmd.Flags().String("user", "", "User id (uuid)")
	tokenCmd.Flags().String("role", "HR", "Role claim: HR or NEW_HIRE")
	tokenCmd.Flags().Duration("ttl", 0, "Token lifetime (default 24h)")
	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(migrateCmd, progressCmd, outboxCmd, tokenCmd)
}

func newLogger(cmd *cobra.Command) *zap.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// env holds what a database-backed command needs.
type env struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	services *app.Services
	logger   *zap.Logger
}

func openEnv(ctx context.Context, cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cmd)
	pool, err := db.NewConnection(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	services, err := app.NewServices(repository.NewStore(pool, log), cfg, log)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &env{cfg: cfg, pool: pool, services: services, logger: log}, nil
}

func (e *env) Close() {
	e.pool.Close()
	_ = e.logger.Sync()
}
