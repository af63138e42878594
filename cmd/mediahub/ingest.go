package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mediahub/internal/config"
	"mediahub/internal/media"
)

func newIngestCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		cropRaw  string
		replace  bool
		tags     []string
		userID   string
		hash     string
		mimeType string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "ingest <path|->",
		Short: "Store a file and generate its image derivatives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if replace && cropRaw == "" {
				return fmt.Errorf("--replace requires --crop")
			}
			upload := media.Upload{
				OriginalFileName: name,
				MimeType:         mimeType,
				Hash:             hash,
				Replace:          replace,
				Tags:             tags,
				UserID:           userID,
			}
			if cropRaw != "" {
				rect, err := parseRect(cropRaw)
				if err != nil {
					return err
				}
				upload.Crop = &rect
			}

			if args[0] == "-" {
				if name == "" {
					return fmt.Errorf("--name is required when reading from stdin")
				}
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				upload.Data = data
			} else {
				upload.SourcePath = args[0]
			}

			return withApp(cmd.Context(), cfg, func(a *app) error {
				view, err := a.assembler.Ingest(cmd.Context(), upload)
				if err != nil {
					return err
				}
				return writeMedia(view, *jsonOutput)
			})
		},
	}

	cmd.Flags().StringVar(&cropRaw, "crop", "", "crop rectangle as left,top,width,height")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the existing record when cropping")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")
	cmd.Flags().StringVar(&userID, "user", "", "acting user id")
	cmd.Flags().StringVar(&hash, "hash", "", "precomputed content hash")
	cmd.Flags().StringVar(&mimeType, "mime", "", "declared mime type")
	cmd.Flags().StringVar(&name, "name", "", "original file name (defaults to the path base name)")

	return cmd
}
