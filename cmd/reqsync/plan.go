package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steveyegge/reqsync/internal/tracker"
	"github.com/steveyegge/reqsync/internal/types"
	"github.com/steveyegge/reqsync/internal/ui"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute changesets without applying them",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		plans := eng.PlanAll()
		if jsonOutput {
			return printPlansJSON(plans)
		}
		for _, plan := range plans {
			renderPlan(plan)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}

// planDump is the --json shape: one entry per module with its full
// action list.
type planDump struct {
	Module  string                `json:"module"`
	Actions []*types.ChangeAction `json:"actions"`
}

func printPlansJSON(plans []*tracker.ModulePlan) error {
	dump := make([]planDump, 0, len(plans))
	for _, plan := range plans {
		dump = append(dump, planDump{
			Module:  plan.Config.DisplayName(),
			Actions: plan.Actions,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(dump)
}

func renderPlan(plan *tracker.ModulePlan) {
	fmt.Println(ui.HeaderStyle.Render(plan.Config.DisplayName()))
	creates, modifies, deletes := plan.Counts()
	if creates+modifies+deletes == 0 {
		fmt.Printf("  %s\n", ui.MutedStyle.Render(ui.IconClean+" up to date"))
		return
	}
	if creates > 0 {
		fmt.Printf("  %s\n", ui.CountLine(ui.CreateStyle, ui.IconCreate, creates, "creation"))
	}
	if modifies > 0 {
		fmt.Printf("  %s\n", ui.CountLine(ui.ModifyStyle, ui.IconModify, modifies, "modification"))
	}
	if deletes > 0 {
		fmt.Printf("  %s\n", ui.CountLine(ui.DeleteStyle, ui.IconDelete, deletes, "deletion"))
	}
	fmt.Printf("  %s\n", ui.MutedStyle.Render(fmt.Sprintf("%d actions", len(plan.Actions))))
}
