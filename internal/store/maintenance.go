package store

import (
	"context"
	"encoding/json"
)

// StoreInfo summarises the stored media.
type StoreInfo struct {
	SchemaVersion int            `json:"schema_version" yaml:"schema_version"`
	TotalMedia    int            `json:"total_media" yaml:"total_media"`
	TotalBytes    int64          `json:"total_bytes" yaml:"total_bytes"`
	MimeCounts    map[string]int `json:"mime_counts" yaml:"mime_counts"`
	OptionCount   int            `json:"option_count" yaml:"option_count"`
}

// StoreInfo reports schema version and media totals.
func (s *Store) StoreInfo(ctx context.Context) (*StoreInfo, error) {
	version, err := currentVersion(s.db)
	if err != nil {
		return nil, err
	}
	info := &StoreInfo{SchemaVersion: version, MimeCounts: map[string]int{}}

	rows, err := s.db.QueryContext(ctx, "SELECT mime_type, meta_json FROM media")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var mimeType, metaJSON string
		if err := rows.Scan(&mimeType, &metaJSON); err != nil {
			return nil, err
		}
		info.TotalMedia++
		info.MimeCounts[mimeType]++
		var meta struct {
			FileSize int64 `json:"file_size"`
		}
		if json.Unmarshal([]byte(metaJSON), &meta) == nil {
			info.TotalBytes += meta.FileSize
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM options").Scan(&info.OptionCount); err != nil {
		return nil, err
	}
	return info, nil
}
