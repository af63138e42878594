package media

import (
	"context"

	"mediahub/internal/models"
)

// CreateRecord is the input of RecordStore.Create.
type CreateRecord struct {
	FileName         string
	OriginalFileName string
	Extension        string
	MimeType         string
	Path             string
	MetaData         models.MetaData
	Tags             []string
	UserID           string
}

// UpdateRecord is the input of RecordStore.Update. Nil fields are left
// unchanged.
type UpdateRecord struct {
	FileName *string
	Path     *string
	MetaData *models.MetaData
	UserID   string
}

// RecordStore persists media records.
type RecordStore interface {
	// Get returns the record whose id or file name equals idOrHash, or nil
	// when there is none. fields limits the loaded columns; nil loads all.
	Get(ctx context.Context, idOrHash string, fields []string) (*models.MediaRecord, error)
	Create(ctx context.Context, in CreateRecord) (*models.MediaRecord, error)
	// Update returns an error wrapping models.ErrMediaNotFound when id is
	// unknown.
	Update(ctx context.Context, id string, in UpdateRecord) error
}

// OptionStore reads site configuration values.
type OptionStore interface {
	GetList(ctx context.Context, names []string) (map[string]string, error)
	GetValue(ctx context.Context, name string) (string, error)
}
