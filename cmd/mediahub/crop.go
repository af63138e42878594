package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediahub/internal/config"
	"mediahub/internal/imagegen"
	"mediahub/internal/media"
)

func newCropCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		replace bool
		tags    []string
		userID  string
	)

	cmd := &cobra.Command{
		Use:   "crop <id> <left,top,width,height>",
		Short: "Crop a stored image into a new or replaced record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rect, err := parseRect(args[1])
			if err != nil {
				return err
			}
			input := media.CropInput{
				MediaID: args[0],
				Rect:    rect,
				Replace: replace,
				UserID:  userID,
			}
			if cmd.Flags().Changed("tag") {
				input.Tags = tags
			}

			return withApp(cmd.Context(), cfg, func(a *app) error {
				view, err := a.assembler.Crop(cmd.Context(), input)
				if err != nil {
					return err
				}
				return writeMedia(view, *jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace the record instead of creating a new one")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags for the cropped record (defaults to the source tags)")
	cmd.Flags().StringVar(&userID, "user", "", "acting user id")

	return cmd
}

// parseRect parses "left,top,width,height".
func parseRect(raw string) (imagegen.Rect, error) {
	var zero imagegen.Rect
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return zero, fmt.Errorf("crop must be left,top,width,height, got %q", raw)
	}
	values := make([]int, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return zero, fmt.Errorf("crop value %q is not an integer", strings.TrimSpace(part))
		}
		values[i] = v
	}
	return imagegen.Rect{Left: values[0], Top: values[1], Width: values[2], Height: values[3]}, nil
}
