package media

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mediahub/internal/blobstore"
	"mediahub/internal/contenthash"
	"mediahub/internal/models"
)

type memRecords struct {
	mu      sync.Mutex
	records map[string]*models.MediaRecord
	order   []string
	nextID  int
	creates int
	updates int

	getErr    error
	createErr error
	updateErr error
}

func newMemRecords() *memRecords {
	return &memRecords{records: map[string]*models.MediaRecord{}}
}

func (m *memRecords) Get(_ context.Context, idOrHash string, _ []string) (*models.MediaRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if rec, ok := m.records[idOrHash]; ok {
		return cloneRecord(rec), nil
	}
	for _, id := range m.order {
		if rec := m.records[id]; rec.FileName == idOrHash {
			return cloneRecord(rec), nil
		}
	}
	return nil, nil
}

func (m *memRecords) Create(_ context.Context, in CreateRecord) (*models.MediaRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	m.creates++
	now := time.Now().UTC()
	rec := &models.MediaRecord{
		ID:               fmt.Sprintf("media-%d", m.nextID),
		FileName:         in.FileName,
		OriginalFileName: in.OriginalFileName,
		Extension:        in.Extension,
		MimeType:         in.MimeType,
		Path:             in.Path,
		MetaData:         in.MetaData,
		Tags:             in.Tags,
		CreatedBy:        in.UserID,
		UpdatedBy:        in.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.records[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	return cloneRecord(rec), nil
}

func (m *memRecords) Update(_ context.Context, id string, in UpdateRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, models.ErrMediaNotFound)
	}
	m.updates++
	if in.FileName != nil {
		rec.FileName = *in.FileName
	}
	if in.Path != nil {
		rec.Path = *in.Path
	}
	if in.MetaData != nil {
		rec.MetaData = *in.MetaData
	}
	rec.UpdatedBy = in.UserID
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memRecords) get(id string) *models.MediaRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[id]; ok {
		return cloneRecord(rec)
	}
	return nil
}

func cloneRecord(rec *models.MediaRecord) *models.MediaRecord {
	out := *rec
	out.MetaData.Scales = append([]models.ImageScale(nil), rec.MetaData.Scales...)
	out.Tags = append([]string(nil), rec.Tags...)
	return &out
}

type memOptions struct {
	mu          sync.Mutex
	values      map[string]string
	valueCalls  int
	listCalls   int
	getListErr  error
	getValueErr error
}

func newMemOptions(values map[string]string) *memOptions {
	if values == nil {
		values = map[string]string{}
	}
	return &memOptions{values: values}
}

func (m *memOptions) GetList(_ context.Context, names []string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.getListErr != nil {
		return nil, m.getListErr
	}
	out := make(map[string]string, len(names))
	for _, name := range names {
		if v, ok := m.values[name]; ok {
			out[name] = v
		}
	}
	return out, nil
}

func (m *memOptions) GetValue(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valueCalls++
	if m.getValueErr != nil {
		return "", m.getValueErr
	}
	return m.values[name], nil
}

// countingStore counts writes that reach the local store.
type countingStore struct {
	*blobstore.LocalStore
	mu     sync.Mutex
	writes int
}

func (s *countingStore) Write(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.LocalStore.Write(ctx, key, data)
}

func (s *countingStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// fakePublisher records published objects under a fixed base URL.
type fakePublisher struct {
	mu      sync.Mutex
	base    string
	objects map[string][]byte
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, key string, data []byte, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	if p.objects == nil {
		p.objects = map[string][]byte{}
	}
	p.objects[key] = data
	return blobstore.ObjectURL(p.base, key), nil
}

func (p *fakePublisher) Remove(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.objects, key)
	return nil
}

func (p *fakePublisher) KeyFromURL(url string) (string, bool) {
	prefix := strings.TrimRight(p.base, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

var fixedNow = time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

type harness struct {
	assembler *Assembler
	records   *memRecords
	options   *memOptions
	files     *countingStore
	hasher    *contenthash.Hasher
}

func newHarness(t *testing.T, options map[string]string) *harness {
	t.Helper()
	local, err := blobstore.NewLocalStore(t.TempDir(), blobstore.DefaultPublicPrefix, blobstore.GroupByYearAndMonth)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	hasher, err := contenthash.New(contenthash.DefaultAlgorithm)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	h := &harness{
		records: newMemRecords(),
		options: newMemOptions(options),
		files:   &countingStore{LocalStore: local},
		hasher:  hasher,
	}
	h.assembler = NewAssembler(h.records, h.options, h.files, hasher, nil, nil)
	h.assembler.SetClock(func() time.Time { return fixedNow })
	return h
}

// listFiles lists the regular files below the store root, excluding
// temporary files.
func (h *harness) listFiles(t *testing.T) []string {
	t.Helper()
	root := h.files.Root()
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".tmp" {
			return filepath.SkipDir
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk store: %v", err)
	}
	return out
}
