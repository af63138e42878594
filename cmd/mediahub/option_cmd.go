package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mediahub/internal/config"
	"mediahub/internal/media"
)

func newOptionCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "option",
		Short: "Read or write site options used for derivatives and URLs",
	}

	cmd.AddCommand(
		newOptionGetCmd(cfg, jsonOutput),
		newOptionSetCmd(cfg),
		newOptionImportCmd(cfg, jsonOutput),
	)
	return cmd
}

func newOptionGetCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "get [<name>...]",
		Short: "Show option values (all known options when no name is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = media.KnownOptionNames()
			}
			return withApp(cmd.Context(), cfg, func(a *app) error {
				values, err := a.options.GetList(cmd.Context(), names)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(values)
				}
				if len(args) == 1 {
					return writePlain("%s\n", values[args[0]])
				}
				for _, name := range names {
					value, ok := values[name]
					if !ok {
						continue
					}
					if err := writePlain("%s = %s\n", name, value); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newOptionSetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Set an option value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("option name is required")
			}
			warnUnknownOptions([]string{name})
			return withApp(cmd.Context(), cfg, func(a *app) error {
				return a.options.SetOptions(cmd.Context(), map[string]string{name: args[1]})
			})
		},
	}
}

func newOptionImportCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Set options from a YAML mapping of name to value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			values, err := parseOptionsYAML(data)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			names := make([]string, 0, len(values))
			for name := range values {
				names = append(names, name)
			}
			sort.Strings(names)
			warnUnknownOptions(names)

			return withApp(cmd.Context(), cfg, func(a *app) error {
				if err := a.options.SetOptions(cmd.Context(), values); err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"imported": names})
				}
				return writePlain("imported %d options\n", len(names))
			})
		},
	}
}

// parseOptionsYAML decodes a flat YAML mapping. Scalar values are kept as
// their text; nested values are rejected.
func parseOptionsYAML(data []byte) (map[string]string, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for name, value := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("option name is required")
		}
		switch v := value.(type) {
		case nil:
			out[name] = ""
		case map[string]any, []any:
			return nil, fmt.Errorf("option %s must be a scalar", name)
		default:
			out[name] = fmt.Sprint(v)
		}
	}
	return out, nil
}

func warnUnknownOptions(names []string) {
	known := map[string]struct{}{}
	for _, name := range media.KnownOptionNames() {
		known[name] = struct{}{}
	}
	for _, name := range names {
		if _, ok := known[name]; !ok {
			slog.Warn("option is not read by mediahub", "name", name)
		}
	}
}
