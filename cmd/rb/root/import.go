package root

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/claude/repbuddy/internal/ingest/alpha"
	"github.com/claude/repbuddy/internal/storage"
	"github.com/claude/repbuddy/internal/ui"
)

func newImportCmd() *cobra.Command {
	var warmups bool

	cmd := &cobra.Command{
		Use:   "import <alpha-export.csv>",
		Short: "Import an Alpha Progression CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := context.Background()
			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			start := time.Now()
			res, err := alpha.NewProvider(store, quietLog, warmups).Ingest(ctx, f)
			if logErr := store.AppendImportLog(ctx, storage.NewImportLog("alpha-cli", start, res, err, time.Since(start))); logErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ui.Warn.Render(ui.IconWarn+" could not record import: "+logErr.Error()))
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Good.Render(ui.IconCheck+" "+res.Message))
			fmt.Fprintln(out, ui.LabelValue("New workouts", res.WorkoutsSaved))
			fmt.Fprintln(out, ui.LabelValue("Replaced", res.WorkoutsReplaced))
			fmt.Fprintln(out, ui.LabelValue("New exercises", res.ExercisesCreated))
			fmt.Fprintln(out, ui.LabelValue("Sets imported", fmt.Sprintf("%d of %d", res.SetsImported, res.SetsReceived)))
			if res.WarmupsSkipped > 0 {
				fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("%d warm-up sets skipped (use --warmups to keep them)", res.WarmupsSkipped)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&warmups, "warmups", false, "Import warm-up sets too")
	return cmd
}
