package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"onboarding/pkg/outbox"
)

var outboxCmd = &cobra.Command{
	Use:   "outbox",
	Short: "Operate on the transactional outbox",
}

var outboxReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Reset failed outbox events to pending so the runner sends them again",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetInt64("id")
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEnv(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		replay := outbox.NewReplayService(outbox.NewRepository(e.pool), e.logger)
		if id > 0 {
			if err := replay.ReplayEvent(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Event %d queued for replay.\n", id)
			return nil
		}

		n, err := replay.ReplayFailedEvents(cmd.Context(), limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d failed event(s) queued for replay.\n", n)
		return nil
	},
}
