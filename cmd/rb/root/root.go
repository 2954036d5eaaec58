package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/claude/repbuddy/internal/ui"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "rb",
	Short:         "RepBuddy: log workouts, review history, export",
	Long:          "rb manages the RepBuddy exercise library and routines, shows workout history and weekly stats, and exports or imports workouts.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (defaults and REPBUDDY_* env when empty)")

	rootCmd.AddCommand(
		newExercisesCmd(),
		newRoutinesCmd(),
		newHistoryCmd(),
		newShowCmd(),
		newStatsCmd(),
		newExportCmd(),
		newImportCmd(),
		newProfileCmd(),
		newClearCmd(),
		newMCPCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
