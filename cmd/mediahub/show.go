package main

import (
	"github.com/spf13/cobra"

	"mediahub/internal/config"
	"mediahub/internal/media"
)

func newShowCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id|hash> [<id|hash>...]",
		Short: "Show stored media",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				views := make([]media.MediaView, 0, len(args))
				for _, arg := range args {
					view, err := a.assembler.Get(cmd.Context(), arg)
					if err != nil {
						return err
					}
					views = append(views, view)
				}

				if len(views) == 1 {
					return writeMedia(views[0], *jsonOutput)
				}
				if *jsonOutput {
					return writeJSON(views)
				}
				for i, view := range views {
					if i > 0 {
						if err := writePlain("\n"); err != nil {
							return err
						}
					}
					if err := writeMediaDetail(view); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	return cmd
}
