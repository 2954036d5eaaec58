package root

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/claude/repbuddy/internal/export"
	"github.com/claude/repbuddy/internal/ui"
)

func newExportCmd() *cobra.Command {
	var scopeName, format, dir string
	var stdout bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export workout history as Markdown or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := export.ParseScope(scopeName)
			if err != nil {
				return err
			}

			ctx := context.Background()
			store, cfg, cleanup, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			workouts, err := store.GetWorkouts(ctx)
			if err != nil {
				return err
			}
			now := time.Now()
			workouts = export.Filter(workouts, scope, now)
			if dir == "" {
				dir = cfg.Export.Dir
			}

			var name string
			var data []byte
			switch format {
			case "md", "markdown":
				profile, err := store.GetProfile(ctx)
				if err != nil {
					return err
				}
				md := export.Markdown(workouts, &profile, now)
				if stdout {
					_, err := fmt.Fprint(cmd.OutOrStdout(), md)
					return err
				}
				name, data = export.Filename(scope, now), []byte(md)
			case "xlsx":
				data, err = export.XLSXBytes(workouts)
				if err != nil {
					return err
				}
				if stdout {
					_, err := os.Stdout.Write(data)
					return err
				}
				name = export.XLSXFilename(scope, now)
			default:
				return fmt.Errorf("unknown format %q (md|xlsx)", format)
			}

			path, err := export.WriteFile(dir, name, data)
			if err != nil {
				return fmt.Errorf("failed to export workouts: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconExport+" Exported "+fmt.Sprint(len(workouts))+" workouts"), ui.Muted.Render(path))
			return nil
		},
	}

	cmd.Flags().StringVarP(&scopeName, "scope", "s", string(export.ScopeAllTime), "Export scope (last-month|all-time)")
	cmd.Flags().StringVarP(&format, "format", "f", "md", "Output format (md|xlsx)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory (defaults to export.dir from config)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Write to stdout instead of a file")
	return cmd
}
