package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ScaleName identifies one derivative tier of an image.
type ScaleName string

const (
	ScaleThumbnail   ScaleName = "thumbnail"
	ScaleScaled      ScaleName = "scaled"
	ScaleMedium      ScaleName = "medium"
	ScaleMediumLarge ScaleName = "medium_large"
	ScaleLarge       ScaleName = "large"
)

// ScaleNames lists every tier in generation order.
var ScaleNames = []ScaleName{
	ScaleThumbnail,
	ScaleScaled,
	ScaleLarge,
	ScaleMediumLarge,
	ScaleMedium,
}

var validScaleNames = map[ScaleName]struct{}{
	ScaleThumbnail:   {},
	ScaleScaled:      {},
	ScaleMedium:      {},
	ScaleMediumLarge: {},
	ScaleLarge:       {},
}

// ParseScaleName validates and normalizes a tier name.
func ParseScaleName(raw string) (ScaleName, error) {
	value := ScaleName(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("scale name is required")
	}
	if _, ok := validScaleNames[value]; !ok {
		return "", fmt.Errorf("invalid scale name: %s", value)
	}
	return value, nil
}

// Semantic reports whether derivative files of this tier are suffixed by
// the tier name rather than by their dimensions.
func (n ScaleName) Semantic() bool {
	return n == ScaleThumbnail || n == ScaleScaled
}

// ImageScale is one stored derivative of an image.
type ImageScale struct {
	Name   ScaleName `json:"name"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Path   string    `json:"path"`
}

// MetaData describes the stored bytes of a media record.
type MetaData struct {
	FileSize int64        `json:"file_size"`
	Width    *int         `json:"width,omitempty"`
	Height   *int         `json:"height,omitempty"`
	Scales   []ImageScale `json:"scales,omitempty"`
}

// Scale returns the derivative for name, if present.
func (m MetaData) Scale(name ScaleName) (ImageScale, bool) {
	for _, s := range m.Scales {
		if s.Name == name {
			return s, true
		}
	}
	return ImageScale{}, false
}

// MediaRecord is the persisted media entity. FileName is the content hash
// of the stored original.
type MediaRecord struct {
	ID               string    `json:"id"`
	FileName         string    `json:"file_name"`
	OriginalFileName string    `json:"original_file_name"`
	Extension        string    `json:"extension"`
	MimeType         string    `json:"mime_type"`
	Path             string    `json:"path"`
	MetaData         MetaData  `json:"meta_data"`
	Tags             []string  `json:"tags,omitempty"`
	CreatedBy        string    `json:"created_by,omitempty"`
	UpdatedBy        string    `json:"updated_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// ErrMediaNotFound is reported by record stores when an id or hash matches
// no record.
var ErrMediaNotFound = errors.New("media record not found")
