package imagegen

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DefaultCropQuality is the encode quality of cropped originals.
const DefaultCropQuality = 92

// Rect is a crop rectangle in source pixel coordinates.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Validate checks that r lies fully inside an image of the given size.
func (r Rect) Validate(width, height int) error {
	switch {
	case r.Width <= 0 || r.Height <= 0:
		return fmt.Errorf("%w: width and height must be positive", ErrInvalidCrop)
	case r.Left < 0 || r.Top < 0:
		return fmt.Errorf("%w: origin must not be negative", ErrInvalidCrop)
	case r.Left+r.Width > width || r.Top+r.Height > height:
		return fmt.Errorf("%w: %dx%d+%d+%d exceeds %dx%d source", ErrInvalidCrop, r.Width, r.Height, r.Left, r.Top, width, height)
	}
	return nil
}

// Encoded is an image together with its encoded bytes.
type Encoded struct {
	Image  image.Image
	Data   []byte
	Width  int
	Height int
}

// Crop cuts r out of src and re-encodes the result as mimeType. src is not
// modified.
func Crop(src image.Image, mimeType string, r Rect, quality int) (Encoded, error) {
	var zero Encoded
	if !Cropable(mimeType) {
		return zero, fmt.Errorf("%w: %s cannot be cropped", ErrUnsupportedType, mimeType)
	}
	b := src.Bounds()
	if err := r.Validate(b.Dx(), b.Dy()); err != nil {
		return zero, err
	}

	area := image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height).Add(b.Min)
	cropped := imaging.Crop(src, area)

	data, err := Encode(cropped, mimeType, quality)
	if err != nil {
		return zero, err
	}
	cb := cropped.Bounds()
	return Encoded{Image: cropped, Data: data, Width: cb.Dx(), Height: cb.Dy()}, nil
}
