package root

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/claude/repbuddy/internal/metrics"
	"github.com/claude/repbuddy/internal/models"
	"github.com/claude/repbuddy/internal/ui"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past workouts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			workouts, err := store.GetWorkouts(ctx)
			if err != nil {
				return err
			}
			slices.SortStableFunc(workouts, func(a, b models.Workout) int { return b.Date.Compare(a.Date) })
			if limit > 0 && len(workouts) > limit {
				workouts = workouts[:limit]
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconCalendar, "History"))
			if len(workouts) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("No workouts logged yet."))
				return nil
			}
			for _, w := range workouts {
				header := w.Date.Local().Format("Mon Jan 2, 2006 15:04")
				if d := metrics.FormatDuration(w.DurationMs); d != "" {
					header += " · " + d
				}
				fmt.Fprintf(out, "%s %s\n", ui.H2.Render(header), ui.Muted.Render("["+w.ID+"]"))
				fmt.Fprintf(out, "  %d exercises, %d sets, %s kg\n",
					len(w.Exercises), w.SetCount(), humanize.Commaf(metrics.WorkoutVolume(w)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum workouts to show (0 for all)")
	return cmd
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <workout-id>",
		Short: "Show every set of one workout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			w, err := store.GetWorkout(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconLift, w.Date.Local().Format("Monday, Jan 2, 2006 15:04")))
			if d := metrics.FormatDuration(w.DurationMs); d != "" {
				fmt.Fprintln(out, ui.LabelValue("Duration", d))
			}
			for _, ex := range w.Exercises {
				fmt.Fprintln(out, ui.H2.Render(ex.Name))
				for i, s := range ex.Sets {
					if ex.Bodyweight {
						fmt.Fprintf(out, "  %d. %s reps\n", i+1, humanize.Ftoa(s.Reps))
					} else {
						fmt.Fprintf(out, "  %d. %s kg × %s\n", i+1, humanize.Ftoa(s.Weight), humanize.Ftoa(s.Reps))
					}
				}
				if v, ok := metrics.ExerciseVolume(ex); ok {
					fmt.Fprintln(out, "  "+ui.Muted.Render("Volume: "+humanize.Commaf(v)+" kg"))
				}
				if ex.Notes != "" {
					fmt.Fprintln(out, "  "+ui.Muted.Render("Notes: "+ex.Notes))
				}
			}
			return nil
		},
	}
	return cmd
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Weekly progress, monthly count and totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			workouts, err := store.GetWorkouts(ctx)
			if err != nil {
				return err
			}
			s := metrics.Summarize(workouts, time.Now())

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconChart, "Stats"))
			fmt.Fprintf(out, "%s %s %d%%\n", ui.Key.Render("This week:"), ui.ProgressBar(s.WeeklyProgress, 20), s.WeeklyProgress)
			fmt.Fprintln(out, ui.LabelValue("Workouts this week", s.WeeklyWorkouts))
			fmt.Fprintln(out, ui.LabelValue("Volume this week", humanize.Commaf(s.WeeklyVolume)+" kg"))
			fmt.Fprintln(out, ui.LabelValue("Workouts this month", s.MonthlyCount))
			fmt.Fprintln(out, ui.LabelValue("Total workouts", s.TotalWorkouts))
			fmt.Fprintln(out, ui.LabelValue("Total volume", humanize.Commaf(s.TotalVolume)+" kg"))
			return nil
		},
	}
	return cmd
}
