package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claude/repbuddy/internal/ui"
)

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all exercises, routines, workouts and the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.Warn.Render(ui.IconWarn+" Clear all data? This deletes every exercise, routine, workout and your profile."))
				return errNeedsYes
			}
			ctx := context.Background()
			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.ClearAll(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconCheck+" All data cleared"))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing")
	return cmd
}
