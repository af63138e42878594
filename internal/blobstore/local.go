package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Grouping is the date-based directory partitioning scheme.
type Grouping string

const (
	GroupByYear         Grouping = "by-year"
	GroupByYearAndMonth Grouping = "by-year-and-month"

	DefaultGrouping     = GroupByYearAndMonth
	DefaultPublicPrefix = "/uploads"

	tmpDirName = ".tmp"
)

// ParseGrouping validates a configured grouping. Empty selects the default.
func ParseGrouping(raw string) (Grouping, error) {
	value := Grouping(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case "":
		return DefaultGrouping, nil
	case GroupByYear, GroupByYearAndMonth:
		return value, nil
	default:
		return "", fmt.Errorf("invalid storage grouping: %s", value)
	}
}

// LocalStore stores media files in a date-partitioned local tree that is
// served to clients under publicPrefix.
type LocalStore struct {
	root         string
	publicPrefix string
	grouping     Grouping
}

// NewLocalStore creates a store rooted at root.
func NewLocalStore(root, publicPrefix string, grouping Grouping) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := ensureDir(abs); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Join(abs, tmpDirName)); err != nil {
		return nil, err
	}
	if grouping == "" {
		grouping = DefaultGrouping
	}
	if _, err := ParseGrouping(string(grouping)); err != nil {
		return nil, err
	}

	publicPrefix = "/" + strings.Trim(strings.TrimSpace(publicPrefix), "/")
	if publicPrefix == "/" {
		publicPrefix = ""
	}
	return &LocalStore{root: abs, publicPrefix: publicPrefix, grouping: grouping}, nil
}

// Root returns the absolute store root.
func (s *LocalStore) Root() string {
	return s.root
}

// Allocate resolves and creates the directory for files stored at now.
func (s *LocalStore) Allocate(now time.Time) (Destination, error) {
	var zero Destination
	if s == nil {
		return zero, fmt.Errorf("file store is not configured")
	}

	now = now.UTC()
	rel := fmt.Sprintf("%04d", now.Year())
	if s.grouping == GroupByYearAndMonth {
		rel = fmt.Sprintf("%04d/%02d", now.Year(), int(now.Month()))
	}
	dir := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := ensureDir(dir); err != nil {
		return zero, err
	}
	return Destination{Dir: dir, RelDir: rel}, nil
}

// Exists reports whether key names an existing regular file.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("file store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.pathFromKey(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Write stores data at key through a temp file and rename, so readers
// never observe a partial file.
func (s *LocalStore) Write(ctx context.Context, key string, data []byte) error {
	if s == nil {
		return fmt.Errorf("file store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dst, err := s.pathFromKey(key)
	if err != nil {
		return err
	}
	if err := ensureDir(filepath.Dir(dst)); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, tmpDirName), "put-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		cleanup()
		return err
	}
	return nil
}

// Read returns the bytes stored at key.
func (s *LocalStore) Read(ctx context.Context, key string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("file store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.pathFromKey(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Delete removes the file at key. Missing files are ignored.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if s == nil {
		return fmt.Errorf("file store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.pathFromKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// PublicPath maps a key to the storage-relative path recorded for clients.
func (s *LocalStore) PublicPath(key string) string {
	return s.publicPrefix + "/" + strings.TrimLeft(key, "/")
}

// KeyFromPublicPath is the inverse of PublicPath.
func (s *LocalStore) KeyFromPublicPath(publicPath string) (string, error) {
	publicPath = strings.TrimSpace(publicPath)
	if publicPath == "" {
		return "", fmt.Errorf("path is required")
	}
	publicPath = path.Clean("/" + publicPath)
	if s.publicPrefix != "" {
		if !strings.HasPrefix(publicPath, s.publicPrefix+"/") {
			return "", fmt.Errorf("path %q is outside %s", publicPath, s.publicPrefix)
		}
		publicPath = strings.TrimPrefix(publicPath, s.publicPrefix)
	}
	key := strings.TrimLeft(publicPath, "/")
	if _, err := s.pathFromKey(key); err != nil {
		return "", err
	}
	return key, nil
}

func (s *LocalStore) pathFromKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("file key is required")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("file key must be relative")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file key")
	}
	return filepath.Join(s.root, clean), nil
}

// ensureDir creates dir and its parents. A directory created concurrently
// by another caller counts as success.
func ensureDir(dir string) error {
	err := os.MkdirAll(dir, 0o755)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		if info, statErr := os.Stat(dir); statErr == nil && info.IsDir() {
			return nil
		}
	}
	return err
}
