package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/reqsync/internal/ui"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Compute changesets and apply them to the model file",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		plans := eng.PlanAll()
		total := 0
		for _, plan := range plans {
			total += len(plan.Actions)
		}
		if total == 0 {
			fmt.Println(ui.MutedStyle.Render(ui.IconClean + " nothing to apply"))
			return nil
		}
		if err := eng.Apply(plans); err != nil {
			return err
		}
		for _, plan := range plans {
			renderPlan(plan)
		}
		fmt.Println(ui.CreateStyle.Render(
			fmt.Sprintf("%s applied %d actions across %d modules", ui.IconClean, total, len(plans))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
}
