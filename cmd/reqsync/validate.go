package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/reqsync/internal/snapshot"
	"github.com/steveyegge/reqsync/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate [snapshot-file...]",
	Short: "Check snapshot files structurally without planning",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args
		if len(paths) == 0 {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			for _, mc := range cfg.Modules {
				if mc.Snapshot != "" {
					paths = append(paths, mc.Snapshot)
				}
			}
		}
		if len(paths) == 0 {
			return fmt.Errorf("no snapshot files to validate")
		}

		failed := 0
		for _, path := range paths {
			if _, err := snapshot.Load(path); err != nil {
				failed++
				fmt.Printf("%s %s: %v\n", ui.DeleteStyle.Render(ui.IconWarn), path, err)
				continue
			}
			fmt.Printf("%s %s\n", ui.CreateStyle.Render(ui.IconClean), path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d snapshot files invalid", failed, len(paths))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
