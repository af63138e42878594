package imagegen

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"mediahub/internal/models"
)

// Mode selects how an image is fitted into a target box.
type Mode string

const (
	// ModeCover crops to exactly fill the box.
	ModeCover Mode = "cover"
	// ModeFit scales to stay within the box, preserving aspect ratio.
	ModeFit Mode = "fit"
)

const (
	ScaledMaxWidth  = 2560
	ScaledMaxHeight = 1440
)

// Tier configures one derivative size. A zero Width or Height leaves that
// dimension unconstrained.
type Tier struct {
	Width   int
	Height  int
	Quality int
	Mode    Mode
}

// Settings holds one Tier per derivative name.
type Settings map[models.ScaleName]Tier

// DefaultTier returns the built-in configuration for name.
func DefaultTier(name models.ScaleName) Tier {
	switch name {
	case models.ScaleThumbnail:
		return Tier{Width: 150, Height: 150, Quality: 80, Mode: ModeCover}
	case models.ScaleScaled:
		return Tier{Width: ScaledMaxWidth, Height: ScaledMaxHeight, Quality: 90, Mode: ModeFit}
	case models.ScaleLarge:
		return Tier{Width: 1024, Height: 1024, Quality: 85, Mode: ModeFit}
	case models.ScaleMediumLarge:
		return Tier{Width: 768, Height: 0, Quality: 82, Mode: ModeFit}
	case models.ScaleMedium:
		return Tier{Width: 300, Height: 300, Quality: 80, Mode: ModeFit}
	default:
		panic(fmt.Sprintf("imagegen: unknown scale %q", name))
	}
}

// DefaultSettings returns the built-in configuration for every tier.
func DefaultSettings() Settings {
	out := make(Settings, len(models.ScaleNames))
	for _, name := range models.ScaleNames {
		out[name] = DefaultTier(name)
	}
	return out
}

// tier returns the effective configuration for name. The scaled cap and
// every non-thumbnail mode are fixed.
func (s Settings) tier(name models.ScaleName) Tier {
	def := DefaultTier(name)
	t, ok := s[name]
	if !ok {
		return def
	}
	if t.Quality < 0 || t.Quality > 100 {
		t.Quality = def.Quality
	}
	if t.Width < 0 {
		t.Width = 0
	}
	if t.Height < 0 {
		t.Height = 0
	}
	switch name {
	case models.ScaleThumbnail:
		if t.Width == 0 && t.Height == 0 {
			t.Width, t.Height = def.Width, def.Height
		}
		if t.Mode != ModeFit {
			t.Mode = ModeCover
		}
	case models.ScaleScaled:
		t.Width, t.Height, t.Mode = def.Width, def.Height, ModeFit
	default:
		t.Mode = ModeFit
	}
	return t
}

// Derivative is one encoded resized variant.
type Derivative struct {
	Name   models.ScaleName
	Width  int
	Height int
	Data   []byte
}

// Suffix returns the file name suffix of d: the tier name for semantic
// tiers, WIDTHxHEIGHT otherwise.
func (d Derivative) Suffix() string {
	if d.Name.Semantic() {
		return string(d.Name)
	}
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// FileName returns the derivative file name for an original with the
// given stem and extension.
func (d Derivative) FileName(stem, ext string) string {
	return stem + "-" + d.Suffix() + "." + strings.TrimPrefix(ext, ".")
}

// Generator produces the derivative cascade of an image.
type Generator struct {
	logger *slog.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

var fanOutTiers = []models.ScaleName{models.ScaleLarge, models.ScaleMediumLarge, models.ScaleMedium}

// Derive renders every applicable tier of src. Thumbnail and scaled are
// rendered first; the remaining tiers are rendered concurrently. All
// transforms return new buffers and never modify src. Non-scaleable types
// yield no derivatives.
func (g *Generator) Derive(ctx context.Context, src image.Image, mimeType string, settings Settings) ([]Derivative, error) {
	if !Scaleable(mimeType) {
		return nil, nil
	}
	if settings == nil {
		settings = DefaultSettings()
	}

	out := make([]Derivative, 0, len(models.ScaleNames))

	thumb, err := render(src, mimeType, models.ScaleThumbnail, settings.tier(models.ScaleThumbnail), true)
	if err != nil {
		return nil, err
	}
	out = append(out, *thumb)

	scaled, err := render(src, mimeType, models.ScaleScaled, settings.tier(models.ScaleScaled), false)
	if err != nil {
		return nil, err
	}
	if scaled != nil {
		out = append(out, *scaled)
	}

	results := make([]*Derivative, len(fanOutTiers))
	group, gctx := errgroup.WithContext(ctx)
	for i, name := range fanOutTiers {
		i, name := i, name
		t := settings.tier(name)
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := render(src, mimeType, name, t, false)
			if err != nil {
				return err
			}
			results[i] = d
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	for _, d := range results {
		if d != nil {
			out = append(out, *d)
		}
	}

	b := src.Bounds()
	g.logger.Debug("derivatives rendered", "mime_type", mimeType, "width", b.Dx(), "height", b.Dy(), "count", len(out))
	return out, nil
}

// render produces one tier, or nil when the source does not exceed the
// target box and always is false.
func render(src image.Image, mimeType string, name models.ScaleName, t Tier, always bool) (*Derivative, error) {
	b := src.Bounds()
	if !always && !exceeds(b.Dx(), b.Dy(), t.Width, t.Height) {
		return nil, nil
	}

	resized := resize(src, t)
	data, err := Encode(resized, mimeType, t.Quality)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	rb := resized.Bounds()
	return &Derivative{Name: name, Width: rb.Dx(), Height: rb.Dy(), Data: data}, nil
}

func resize(src image.Image, t Tier) image.Image {
	b := src.Bounds()
	if t.Mode == ModeCover && t.Width > 0 && t.Height > 0 {
		return imaging.Fill(src, t.Width, t.Height, imaging.Center, imaging.Lanczos)
	}
	if !exceeds(b.Dx(), b.Dy(), t.Width, t.Height) {
		return imaging.Clone(src)
	}
	if t.Width > 0 && t.Height > 0 {
		return imaging.Fit(src, t.Width, t.Height, imaging.Lanczos)
	}
	// One dimension is unconstrained; imaging preserves aspect for a zero.
	if t.Width > 0 {
		return imaging.Resize(src, t.Width, 0, imaging.Lanczos)
	}
	return imaging.Resize(src, 0, t.Height, imaging.Lanczos)
}

func exceeds(width, height, boxWidth, boxHeight int) bool {
	return (boxWidth > 0 && width > boxWidth) || (boxHeight > 0 && height > boxHeight)
}
