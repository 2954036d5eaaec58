package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claude/repbuddy/internal/models"
	"github.com/claude/repbuddy/internal/ui"
)

func newProfileCmd() *cobra.Command {
	var age, weight, heightFt, heightIn float64

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the profile used to annotate exports",
		Long:  "Without flags, prints the profile. Any of --age, --weight, --height-ft or --height-in updates that field; pass a negative value to clear it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, _, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := store.GetProfile(ctx)
			if err != nil {
				return err
			}

			changed := false
			for _, f := range []struct {
				flag  string
				value float64
				field **float64
			}{
				{"age", age, &p.Age},
				{"weight", weight, &p.Weight},
				{"height-ft", heightFt, &p.HeightFt},
				{"height-in", heightIn, &p.HeightIn},
			} {
				if !cmd.Flags().Changed(f.flag) {
					continue
				}
				changed = true
				if f.value < 0 {
					*f.field = nil
					continue
				}
				v := f.value
				*f.field = &v
			}
			if changed {
				if err := store.SaveProfile(ctx, p); err != nil {
					return err
				}
			}

			printProfile(cmd, p)
			return nil
		},
	}

	cmd.Flags().Float64Var(&age, "age", 0, "Age in years")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Body weight in kg")
	cmd.Flags().Float64Var(&heightFt, "height-ft", 0, "Height, feet part")
	cmd.Flags().Float64Var(&heightIn, "height-in", 0, "Height, inches part")
	return cmd
}

func printProfile(cmd *cobra.Command, p models.UserProfile) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Heading("", "Profile"))
	if p.IsEmpty() {
		fmt.Fprintln(out, ui.Muted.Render("Not set."))
		return
	}
	show := func(label string, v *float64, unit string) {
		if v != nil {
			fmt.Fprintln(out, ui.LabelValue(label, fmt.Sprintf("%g%s", *v, unit)))
		}
	}
	show("Age", p.Age, "")
	show("Weight", p.Weight, " kg")
	show("Height (ft)", p.HeightFt, "")
	show("Height (in)", p.HeightIn, "")
}
