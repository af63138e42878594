package main

import (
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediahub/internal/config"
	"mediahub/internal/store"
)

type infoResponse struct {
	DBPath         string `json:"db_path" yaml:"db_path"`
	StorageRoot    string `json:"storage_root" yaml:"storage_root"`
	OptionsBackend string `json:"options_backend" yaml:"options_backend"`

	store.StoreInfo `yaml:",inline"`
}

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show database and storage info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(a *app) error {
				stats, err := a.store.StoreInfo(cmd.Context())
				if err != nil {
					return err
				}
				resp := infoResponse{
					DBPath:         cfg.DBPath,
					StorageRoot:    a.files.Root(),
					OptionsBackend: cfg.Options.Backend,
					StoreInfo:      *stats,
				}

				if *jsonOutput {
					return writeJSON(resp)
				}

				_ = writePlain("db_path: %s\n", resp.DBPath)
				_ = writePlain("storage_root: %s\n", resp.StorageRoot)
				_ = writePlain("options_backend: %s\n", resp.OptionsBackend)
				_ = writePlain("schema_version: %d\n", stats.SchemaVersion)
				_ = writePlain("total_media: %d\n", stats.TotalMedia)
				_ = writePlain("total_size: %s\n", humanize.Bytes(uint64(stats.TotalBytes)))
				_ = writePlain("stored_options: %d\n", stats.OptionCount)

				mimeTypes := make([]string, 0, len(stats.MimeCounts))
				for mimeType := range stats.MimeCounts {
					mimeTypes = append(mimeTypes, mimeType)
				}
				sort.Strings(mimeTypes)
				for _, mimeType := range mimeTypes {
					_ = writePlain("  %s: %d\n", mimeType, stats.MimeCounts[mimeType])
				}
				return nil
			})
		},
	}
	return cmd
}
