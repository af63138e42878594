package imagegen

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"mime"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedType is returned when a mime type cannot be processed
	// for the requested operation.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrInvalidCrop is returned for crop rectangles outside the source.
	ErrInvalidCrop = errors.New("invalid crop rectangle")
	// ErrDecode wraps codec decode failures.
	ErrDecode = errors.New("decode image")
)

type codec struct {
	ext       string
	format    imaging.Format
	encodable bool
}

// codecs is the registry of image types the generator understands. Types
// without an encoder can be measured but not re-encoded.
var codecs = map[string]codec{
	"image/jpeg": {ext: "jpg", format: imaging.JPEG, encodable: true},
	"image/png":  {ext: "png", format: imaging.PNG, encodable: true},
	"image/gif":  {ext: "gif", format: imaging.GIF, encodable: true},
	"image/bmp":  {ext: "bmp", format: imaging.BMP, encodable: true},
	"image/tiff": {ext: "tiff", format: imaging.TIFF, encodable: true},
	"image/webp": {ext: "webp"},
}

var scaleableTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

var mimeAliases = map[string]string{
	"image/jpg":      "image/jpeg",
	"image/pjpeg":    "image/jpeg",
	"image/x-png":    "image/png",
	"image/x-ms-bmp": "image/bmp",
}

// NormalizeMimeType lowercases, strips parameters and resolves aliases.
func NormalizeMimeType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(raw); err == nil {
		raw = parsed
	}
	raw = strings.ToLower(raw)
	if alias, ok := mimeAliases[raw]; ok {
		return alias
	}
	return raw
}

// Decodable reports whether images of mimeType can be decoded and measured.
func Decodable(mimeType string) bool {
	_, ok := codecs[NormalizeMimeType(mimeType)]
	return ok
}

// Cropable reports whether mimeType can be decoded, cropped and re-encoded
// to the same type.
func Cropable(mimeType string) bool {
	c, ok := codecs[NormalizeMimeType(mimeType)]
	return ok && c.encodable
}

// Scaleable reports whether mimeType receives the derivative cascade.
func Scaleable(mimeType string) bool {
	_, ok := scaleableTypes[NormalizeMimeType(mimeType)]
	return ok && Cropable(mimeType)
}

// Extension returns the canonical file extension for mimeType, without dot.
func Extension(mimeType string) (string, bool) {
	c, ok := codecs[NormalizeMimeType(mimeType)]
	if !ok {
		return "", false
	}
	return c.ext, true
}

// Decode decodes data, applying EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// Encode encodes img as mimeType. quality applies to lossy formats.
func Encode(img image.Image, mimeType string, quality int) ([]byte, error) {
	c, ok := codecs[NormalizeMimeType(mimeType)]
	if !ok || !c.encodable {
		return nil, fmt.Errorf("%w: cannot encode %s", ErrUnsupportedType, mimeType)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, c.format, imaging.JPEGQuality(clampQuality(quality))); err != nil {
		return nil, fmt.Errorf("encode %s: %w", mimeType, err)
	}
	return buf.Bytes(), nil
}

func clampQuality(q int) int {
	switch {
	case q < 1:
		return 1
	case q > 100:
		return 100
	default:
		return q
	}
}
