package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect and repair onboarding progress",
}

var progressRecalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute the progress row of one hire and template from its todos",
	RunE: func(cmd *cobra.Command, args []string) error {
		rawHire, _ := cmd.Flags().GetString("hire")
		templateID, _ := cmd.Flags().GetInt("template")
		hireID, err := uuid.Parse(rawHire)
		if err != nil {
			return fmt.Errorf("invalid --hire: %w", err)
		}

		e, err := openEnv(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.services.Progress.Recalculate(cmd.Context(), hireID, templateID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d/%d tasks completed (%.2f%%)\n",
			p.CompletedTasks, p.TotalTasks, p.CompletionPercentage)
		return nil
	},
}

var progressAtRiskCmd = &cobra.Command{
	Use:   "at-risk",
	Short: "List stalled onboardings of an HR user",
	RunE: func(cmd *cobra.Command, args []string) error {
		rawHR, _ := cmd.Flags().GetString("hr")
		hrID, err := uuid.Parse(rawHR)
		if err != nil {
			return fmt.Errorf("invalid --hr: %w", err)
		}

		e, err := openEnv(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		rows, err := e.services.Progress.AtRisk(cmd.Context(), hrID)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No onboardings at risk.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "HIRE\tTEMPLATE\tCOMPLETED\tSTARTED")
		for _, p := range rows {
			fmt.Fprintf(w, "%s\t%d\t%.1f%%\t%s\n", p.HireID, p.TemplateID, p.CompletionPercentage, p.CreatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}
