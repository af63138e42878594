package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"mediahub/internal/media"
	"mediahub/internal/models"
)

// mediaFields maps record field names to media columns. Tags live in
// media_tags and are loaded separately.
var mediaFields = map[string]string{
	"id":                 "id",
	"file_name":          "file_name",
	"original_file_name": "original_file_name",
	"extension":          "extension",
	"mime_type":          "mime_type",
	"path":               "path",
	"meta_data":          "meta_json",
	"created_by":         "created_by",
	"updated_by":         "updated_by",
	"created_at":         "created_at",
	"updated_at":         "updated_at",
}

const mediaColumns = "id, file_name, original_file_name, extension, mime_type, path, meta_json, created_by, updated_by, created_at, updated_at"

// Get returns the record whose id or file name equals idOrHash. An id match
// wins over a file name match; among file name matches the oldest record
// wins. fields limits the loaded fields; nil loads everything.
func (s *Store) Get(ctx context.Context, idOrHash string, fields []string) (*models.MediaRecord, error) {
	idOrHash = strings.TrimSpace(idOrHash)
	if idOrHash == "" {
		return nil, fmt.Errorf("id or hash is required")
	}
	columns, withTags, err := mediaProjection(fields)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + strings.Join(columns, ", ") + ` FROM media
		WHERE id = ? OR file_name = ?
		ORDER BY CASE WHEN id = ? THEN 0 ELSE 1 END, created_at ASC
		LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, idOrHash, idOrHash, idOrHash)
	rec, err := scanMedia(row, columns)
	if err != nil || rec == nil {
		return rec, err
	}

	if withTags {
		tags, err := s.ListMediaTags(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Tags = tags
	}
	return rec, nil
}

// Create inserts a media record with its tags and returns the stored row.
func (s *Store) Create(ctx context.Context, in media.CreateRecord) (_ *models.MediaRecord, err error) {
	if strings.TrimSpace(in.FileName) == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if strings.TrimSpace(in.Path) == "" {
		return nil, fmt.Errorf("path is required")
	}
	metaJSON, err := json.Marshal(in.MetaData)
	if err != nil {
		return nil, fmt.Errorf("marshal media meta_json: %w", err)
	}
	id, err := GenerateMediaID()
	if err != nil {
		return nil, err
	}
	now := formatTime(time.Now())
	userID := strings.TrimSpace(in.UserID)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO media (`+mediaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		in.FileName,
		in.OriginalFileName,
		in.Extension,
		in.MimeType,
		in.Path,
		string(metaJSON),
		nullIfEmpty(userID),
		nullIfEmpty(userID),
		now,
		now,
	)
	if err != nil {
		return nil, err
	}
	if err = insertMediaTagsTx(ctx, tx, id, normalizeTags(in.Tags)); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	rec, err := s.Get(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("media %s not found after create", id)
	}
	return rec, nil
}

// Update changes the non-nil fields of the record with the given id.
func (s *Store) Update(ctx context.Context, id string, in media.UpdateRecord) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("id is required")
	}

	set := []string{}
	args := []any{}

	if in.FileName != nil {
		set = append(set, "file_name = ?")
		args = append(args, *in.FileName)
	}
	if in.Path != nil {
		set = append(set, "path = ?")
		args = append(args, *in.Path)
	}
	if in.MetaData != nil {
		metaJSON, err := json.Marshal(in.MetaData)
		if err != nil {
			return fmt.Errorf("marshal media meta_json: %w", err)
		}
		set = append(set, "meta_json = ?")
		args = append(args, string(metaJSON))
	}

	set = append(set, "updated_by = ?", "updated_at = ?")
	args = append(args, nullIfEmpty(strings.TrimSpace(in.UserID)), formatTime(time.Now()))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE media SET %s WHERE id = ?", strings.Join(set, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("update media %s: %w", id, models.ErrMediaNotFound)
	}
	return nil
}

// ListMediaTags lists the tags of one record.
func (s *Store) ListMediaTags(ctx context.Context, mediaID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT tag FROM media_tags WHERE media_id = ? ORDER BY tag ASC", mediaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// mediaProjection resolves requested fields to columns. id is always
// loaded.
func mediaProjection(fields []string) ([]string, bool, error) {
	if len(fields) == 0 {
		return strings.Split(mediaColumns, ", "), true, nil
	}
	columns := []string{"id"}
	seen := map[string]struct{}{"id": {}}
	withTags := false
	for _, raw := range fields {
		field := strings.ToLower(strings.TrimSpace(raw))
		if field == "tags" {
			withTags = true
			continue
		}
		column, ok := mediaFields[field]
		if !ok {
			return nil, false, fmt.Errorf("unknown media field: %s", field)
		}
		if _, ok := seen[column]; ok {
			continue
		}
		seen[column] = struct{}{}
		columns = append(columns, column)
	}
	return columns, withTags, nil
}

func scanMedia(scanner interface {
	Scan(dest ...any) error
}, columns []string) (*models.MediaRecord, error) {
	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := scanner.Scan(dest...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rec := models.MediaRecord{}
	for i, column := range columns {
		value := values[i].String
		switch column {
		case "id":
			rec.ID = value
		case "file_name":
			rec.FileName = value
		case "original_file_name":
			rec.OriginalFileName = value
		case "extension":
			rec.Extension = value
		case "mime_type":
			rec.MimeType = value
		case "path":
			rec.Path = value
		case "meta_json":
			if value != "" {
				if err := json.Unmarshal([]byte(value), &rec.MetaData); err != nil {
					return nil, fmt.Errorf("parse media meta_json: %w", err)
				}
			}
		case "created_by":
			rec.CreatedBy = value
		case "updated_by":
			rec.UpdatedBy = value
		case "created_at":
			t, err := parseTime(value)
			if err != nil {
				return nil, err
			}
			rec.CreatedAt = t
		case "updated_at":
			t, err := parseTime(value)
			if err != nil {
				return nil, err
			}
			rec.UpdatedAt = t
		}
	}
	return &rec, nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		normalized := strings.ToLower(strings.TrimSpace(tag))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	sort.Strings(out)
	return out
}

func insertMediaTagsTx(ctx context.Context, tx *sql.Tx, mediaID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	values := make([]string, len(tags))
	args := make([]any, 0, len(tags)*2)
	for i, tag := range tags {
		values[i] = "(?, ?)"
		args = append(args, mediaID, tag)
	}
	_, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO media_tags (media_id, tag) VALUES "+strings.Join(values, ","), args...)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
