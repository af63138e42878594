package store

import (
	"context"

	"mediahub/internal/media"
)

// OptionWriter abstracts option backends that accept writes.
type OptionWriter interface {
	media.OptionStore
	SetOptions(ctx context.Context, values map[string]string) error
}

var (
	_ media.RecordStore = (*Store)(nil)
	_ OptionWriter      = (*Store)(nil)
)
