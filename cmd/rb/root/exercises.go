package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claude/repbuddy/internal/models"
	"github.com/claude/repbuddy/internal/ui"
)

var errNeedsYes = errors.New("this cannot be undone; re-run with --yes to confirm")

func newExercisesCmd() *cobra.Command {
	var search, group string

	cmd := &cobra.Command{
		Use:     "exercises",
		Aliases: []string{"ex"},
		Short:   "List the exercise library",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			all, err := store.GetExercises(ctx)
			if err != nil {
				return err
			}
			list := models.FilterExercises(all, search, group)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconLift, fmt.Sprintf("Exercises (%d)", len(list))))
			if len(list) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("No exercises found."))
				return nil
			}
			for _, ex := range list {
				line := "- " + ui.Key.Render(ex.Name)
				if ex.MuscleGroup != "" {
					line += " " + ui.Muted.Render(ex.MuscleGroup)
				}
				if ex.Equipment != "" {
					line += " " + ui.Muted.Render("· "+ex.Equipment)
				}
				if ex.Bodyweight {
					line += " " + ui.Warn.Render("bodyweight")
				}
				fmt.Fprintln(out, line+" "+ui.Muted.Render("["+ex.ID+"]"))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by name (case-insensitive)")
	cmd.Flags().StringVarP(&group, "group", "g", "", "Filter by muscle group")

	cmd.AddCommand(newExerciseAddCmd(), newExerciseRmCmd())
	return cmd
}

func newExerciseAddCmd() *cobra.Command {
	var ex models.Exercise

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an exercise to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			ex.Name = args[0]
			if err := ex.Normalize(); err != nil {
				return err
			}
			if err := store.SaveExercise(ctx, ex); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconCheck+" Added "+ex.Name), ui.Muted.Render("["+ex.ID+"]"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&ex.MuscleGroup, "group", "g", "", "Muscle group")
	cmd.Flags().StringVarP(&ex.Equipment, "equipment", "e", "", "Equipment")
	cmd.Flags().StringVarP(&ex.Notes, "notes", "n", "", "Notes")
	cmd.Flags().BoolVar(&ex.Bodyweight, "bodyweight", false, "Log reps only; excluded from volume")
	return cmd
}

func newExerciseRmCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an exercise (past workouts keep their copy)",
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

			if err := store.DeleteExercise(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconCheck+" Deleted "+args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")
	return cmd
}
