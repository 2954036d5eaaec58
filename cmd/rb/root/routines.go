package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/claude/repbuddy/internal/models"
	"github.com/claude/repbuddy/internal/ui"
)

func newRoutinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routines",
		Short: "List saved routines",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			routines, err := store.GetRoutines(ctx)
			if err != nil {
				return err
			}
			catalog, err := store.GetExercises(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconList, fmt.Sprintf("Routines (%d)", len(routines))))
			if len(routines) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("No routines yet."))
			}
			for _, r := range routines {
				fmt.Fprintf(out, "- %s %s\n  %s\n",
					ui.Key.Render(r.Name),
					ui.Muted.Render("["+r.ID+"]"),
					strings.Join(r.ExerciseNames(catalog), " → "))
			}
			return nil
		},
	}

	cmd.AddCommand(newRoutineAddCmd(), newRoutineRmCmd())
	return cmd
}

func newRoutineAddCmd() *cobra.Command {
	var exerciseIDs []string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Save a routine from exercise IDs, in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			r := models.Routine{Name: args[0], ExerciseIDs: exerciseIDs}
			if err := r.Normalize(); err != nil {
				return err
			}
			if err := store.SaveRoutine(ctx, r); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconCheck+" Saved "+r.Name), ui.Muted.Render("["+r.ID+"]"))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&exerciseIDs, "exercise", "e", nil, "Exercise ID (repeatable, order kept)")
	return cmd
}

func newRoutineRmCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a routine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNeedsYes
			}
			ctx := context.Background()
			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := store.DeleteRoutine(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconCheck+" Deleted "+args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return cmd
}
