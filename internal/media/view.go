package media

import (
	"path"

	"mediahub/internal/models"
)

// OriginalView describes the stored original in a MediaView.
type OriginalView struct {
	FileName string `json:"fileName" yaml:"fileName"`
	Path     string `json:"path" yaml:"path"`
	FullPath string `json:"fullPath" yaml:"fullPath"`
	FileSize int64  `json:"fileSize" yaml:"fileSize"`
	Width    *int   `json:"width,omitempty" yaml:"width,omitempty"`
	Height   *int   `json:"height,omitempty" yaml:"height,omitempty"`
}

// ScaleView describes one derivative in a MediaView.
type ScaleView struct {
	FileName string `json:"fileName" yaml:"fileName"`
	Path     string `json:"path" yaml:"path"`
	FullPath string `json:"fullPath" yaml:"fullPath"`
	Width    int    `json:"width" yaml:"width"`
	Height   int    `json:"height" yaml:"height"`
}

// MediaView is the client-facing view of a media record. Derivatives that
// were not generated are nil.
type MediaView struct {
	ID          string       `json:"id" yaml:"id"`
	Original    OriginalView `json:"original" yaml:"original"`
	Thumbnail   *ScaleView   `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Scaled      *ScaleView   `json:"scaled,omitempty" yaml:"scaled,omitempty"`
	Large       *ScaleView   `json:"large,omitempty" yaml:"large,omitempty"`
	Medium      *ScaleView   `json:"medium,omitempty" yaml:"medium,omitempty"`
	MediumLarge *ScaleView   `json:"mediumLarge,omitempty" yaml:"mediumLarge,omitempty"`
}

// Scale returns the derivative view for name.
func (v MediaView) Scale(name models.ScaleName) *ScaleView {
	switch name {
	case models.ScaleThumbnail:
		return v.Thumbnail
	case models.ScaleScaled:
		return v.Scaled
	case models.ScaleLarge:
		return v.Large
	case models.ScaleMedium:
		return v.Medium
	case models.ScaleMediumLarge:
		return v.MediumLarge
	default:
		return nil
	}
}

// NewView builds the view of rec, resolving every path against siteURL.
func NewView(rec *models.MediaRecord, siteURL string) MediaView {
	view := MediaView{
		ID: rec.ID,
		Original: OriginalView{
			FileName: baseName(rec.Path),
			Path:     rec.Path,
			FullPath: ResolvePath(siteURL, rec.Path),
			FileSize: rec.MetaData.FileSize,
			Width:    rec.MetaData.Width,
			Height:   rec.MetaData.Height,
		},
	}
	for _, scale := range rec.MetaData.Scales {
		sv := &ScaleView{
			FileName: baseName(scale.Path),
			Path:     scale.Path,
			FullPath: ResolvePath(siteURL, scale.Path),
			Width:    scale.Width,
			Height:   scale.Height,
		}
		switch scale.Name {
		case models.ScaleThumbnail:
			view.Thumbnail = sv
		case models.ScaleScaled:
			view.Scaled = sv
		case models.ScaleLarge:
			view.Large = sv
		case models.ScaleMedium:
			view.Medium = sv
		case models.ScaleMediumLarge:
			view.MediumLarge = sv
		}
	}
	return view
}

func baseName(p string) string {
	if p == "" {
		return ""
	}
	return path.Base(p)
}
