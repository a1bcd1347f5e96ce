package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/steveyegge/reqsync/internal/config"
	"github.com/steveyegge/reqsync/internal/tracker"
	"github.com/steveyegge/reqsync/internal/ui"
)

var (
	configPath  string
	jsonOutput  bool
	verboseFlag bool // Enable verbose output
)

var rootCmd = &cobra.Command{
	Use:   "reqsync",
	Short: "Reconcile requirements modules with tracker snapshots",
	Long: `reqsync diffs externally exported requirements-tracker snapshots
against a persisted requirements model and produces declarative change
actions: creations, modifications and deletions keyed by stable external
identifiers. Plans can be inspected, applied back to the model file, or
recomputed live while a snapshot file changes.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default reqsync.yaml, or $REQSYNC_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"output machine-readable JSON")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"verbose output")
}

// resolveConfigPath applies the flag > env > default precedence.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	v := viper.New()
	v.SetEnvPrefix("REQSYNC")
	v.AutomaticEnv()
	if p := v.GetString("config"); p != "" {
		return p
	}
	return "reqsync.yaml"
}

func loadConfig() (*config.Config, error) {
	return config.Load(resolveConfigPath())
}

// newEngine builds an engine with warnings and progress wired to stderr
// so stdout stays clean for --json consumers.
func newEngine() (*tracker.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	eng, err := tracker.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	eng.OnWarning = func(msg string) {
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.ModifyStyle.Render(ui.IconWarn), msg)
	}
	eng.OnMessage = func(msg string) {
		if verboseFlag {
			fmt.Fprintln(os.Stderr, msg)
		}
	}
	return eng, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
