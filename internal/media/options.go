package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"mediahub/internal/imagegen"
	"mediahub/internal/models"
)

const (
	OptionSiteURL       = "site_url"
	OptionThumbnailCrop = "thumbnail_crop"
)

// tierOptions names the option keys that configure one tier. Empty names
// are not configurable.
type tierOptions struct {
	width   string
	height  string
	quality string
}

func optionsFor(name models.ScaleName) tierOptions {
	switch name {
	case models.ScaleThumbnail:
		return tierOptions{width: "thumbnail_size_w", height: "thumbnail_size_h", quality: "thumbnail_quality"}
	case models.ScaleScaled:
		return tierOptions{quality: "scaled_quality"}
	case models.ScaleLarge:
		return tierOptions{width: "large_size_w", height: "large_size_h", quality: "large_quality"}
	case models.ScaleMediumLarge:
		return tierOptions{width: "medium_large_size_w", height: "medium_large_size_h", quality: "medium_large_quality"}
	case models.ScaleMedium:
		return tierOptions{width: "medium_size_w", height: "medium_size_h", quality: "medium_quality"}
	default:
		panic(fmt.Sprintf("media: unknown scale %q", name))
	}
}

// DerivativeOptionNames lists every option read when rendering derivatives.
func DerivativeOptionNames() []string {
	names := []string{OptionThumbnailCrop}
	for _, scale := range models.ScaleNames {
		opts := optionsFor(scale)
		for _, name := range []string{opts.width, opts.height, opts.quality} {
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// KnownOptionNames lists every option the assembler reads.
func KnownOptionNames() []string {
	return append([]string{OptionSiteURL}, DerivativeOptionNames()...)
}

// loadSettings reads derivative settings in one GetList round trip. Missing
// or malformed values fall back to the defaults.
func loadSettings(ctx context.Context, store OptionStore) (imagegen.Settings, error) {
	values, err := store.GetList(ctx, DerivativeOptionNames())
	if err != nil {
		return nil, err
	}
	return settingsFromOptions(values), nil
}

func settingsFromOptions(values map[string]string) imagegen.Settings {
	settings := imagegen.DefaultSettings()
	for _, scale := range models.ScaleNames {
		opts := optionsFor(scale)
		tier := settings[scale]
		if v, ok := optionInt(values, opts.width); ok {
			tier.Width = v
		}
		if v, ok := optionInt(values, opts.height); ok {
			tier.Height = v
		}
		if v, ok := optionInt(values, opts.quality); ok {
			tier.Quality = v
		}
		if scale == models.ScaleThumbnail {
			if crop, ok := optionBool(values, OptionThumbnailCrop); ok && !crop {
				tier.Mode = imagegen.ModeFit
			}
		}
		settings[scale] = tier
	}
	return settings
}

func optionInt(values map[string]string, name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	raw := strings.TrimSpace(values[name])
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func optionBool(values map[string]string, name string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(values[name])) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
