package cli

import (
	"fmt"

	"swaraj/internal/modelhub"

	"github.com/spf13/cobra"
)

func newPullModelCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "pull-model [name]",
		Short: "Download a registered model into the model directory",
		Long:  "Download a registered model into the model directory. Without a name, list the registered models.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := app.outWriter(cmd)
			if len(args) == 0 {
				for _, name := range modelhub.Names() {
					m, _ := modelhub.Lookup(name)
					source := "download"
					if m.URL == "" {
						source = "local export"
					}
					fmt.Fprintf(out, "%s\t%s\n", name, source)
				}
				return nil
			}

			resolved, err := modelhub.Resolve(args[0], app.cfg.ModelDir)
			if err != nil {
				return err
			}
			if !resolved.NeedsDownload {
				fmt.Fprintf(out, "%s already present at %s\n", args[0], resolved.Path)
				return nil
			}

			opts := app.pullOptions()
			opts.AutoDownload = true
			if err := modelhub.Pull(cmd.Context(), resolved, opts); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s ready at %s\n", args[0], resolved.Path)
			return nil
		},
	}
}
