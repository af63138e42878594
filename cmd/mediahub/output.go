package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"mediahub/internal/format"
	"mediahub/internal/media"
	"mediahub/internal/models"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

var outputWriter io.Writer = os.Stdout

func writeJSON(payload any) error {
	return outputFormatter.Write(outputWriter, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(outputWriter, format, args...)
	return err
}

var viewScaleOrder = []models.ScaleName{
	models.ScaleThumbnail,
	models.ScaleMedium,
	models.ScaleMediumLarge,
	models.ScaleLarge,
	models.ScaleScaled,
}

func mediaDetailLines(view media.MediaView) []string {
	original := fmt.Sprintf("original: %s (%s)", view.Original.FullPath, humanize.Bytes(uint64(view.Original.FileSize)))
	if view.Original.Width != nil && view.Original.Height != nil {
		original = fmt.Sprintf("original: %s %dx%d (%s)", view.Original.FullPath, *view.Original.Width, *view.Original.Height, humanize.Bytes(uint64(view.Original.FileSize)))
	}
	lines := []string{
		fmt.Sprintf("id: %s", view.ID),
		fmt.Sprintf("file_name: %s", view.Original.FileName),
		original,
	}
	for _, name := range viewScaleOrder {
		scale := view.Scale(name)
		if scale == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s %dx%d", name, scale.FullPath, scale.Width, scale.Height))
	}
	return lines
}

func writeMediaDetail(view media.MediaView) error {
	return writePlain("%s\n", strings.Join(mediaDetailLines(view), "\n"))
}

func writeMedia(view media.MediaView, structured bool) error {
	if structured {
		return writeJSON(view)
	}
	return writeMediaDetail(view)
}
