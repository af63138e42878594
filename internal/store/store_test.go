package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mediahub/internal/media"
	"mediahub/internal/models"
)

// testStore creates a temporary store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleRecord(hash string) media.CreateRecord {
	return media.CreateRecord{
		FileName:         hash,
		OriginalFileName: "photo.jpg",
		Extension:        "jpg",
		MimeType:         "image/jpeg",
		Path:             "/uploads/2024/01/" + hash + ".jpg",
		MetaData: models.MetaData{
			FileSize: 2048,
			Width:    models.IntPtr(3000),
			Height:   models.IntPtr(2000),
			Scales: []models.ImageScale{
				{Name: models.ScaleThumbnail, Width: 150, Height: 150, Path: "/uploads/2024/01/" + hash + "-thumbnail.jpg"},
				{Name: models.ScaleLarge, Width: 1024, Height: 683, Path: "/uploads/2024/01/" + hash + "-1024x683.jpg"},
			},
		},
		Tags:   []string{"Travel", "beach", "travel"},
		UserID: "u1",
	}
}

func TestCreateAndGetMedia(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	created, err := st.Create(ctx, sampleRecord("abc123"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.CreatedBy != "u1" || created.UpdatedBy != "u1" {
		t.Fatalf("unexpected audit fields %q/%q", created.CreatedBy, created.UpdatedBy)
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected created_at")
	}

	got, err := st.Get(ctx, created.ID, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected record, got nil")
	}
	if got.FileName != "abc123" || got.Path != "/uploads/2024/01/abc123.jpg" {
		t.Fatalf("unexpected record %#v", got)
	}
	if got.MetaData.Width == nil || *got.MetaData.Width != 3000 {
		t.Fatalf("expected width 3000, got %v", got.MetaData.Width)
	}
	if len(got.MetaData.Scales) != 2 {
		t.Fatalf("expected 2 scales, got %d", len(got.MetaData.Scales))
	}
	if thumb, ok := got.MetaData.Scale(models.ScaleThumbnail); !ok || thumb.Width != 150 {
		t.Fatalf("expected thumbnail scale, got %#v", thumb)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "beach" || got.Tags[1] != "travel" {
		t.Fatalf("expected normalized tags, got %v", got.Tags)
	}
}

func TestGetByHashPrefersOldestRecord(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first, err := st.Create(ctx, sampleRecord("samehash"))
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if _, err := st.Create(ctx, sampleRecord("samehash")); err != nil {
		t.Fatalf("create second: %v", err)
	}

	got, err := st.Get(ctx, "samehash", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != first.ID {
		t.Fatalf("expected first record %s, got %#v", first.ID, got)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	st := testStore(t)
	got, err := st.Get(context.Background(), "missing", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestGetFieldProjection(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	created, err := st.Create(ctx, sampleRecord("proj"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := st.Get(ctx, created.ID, []string{"file_name", "path"})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID || got.FileName != "proj" || got.Path == "" {
		t.Fatalf("expected projected fields, got %#v", got)
	}
	if got.MimeType != "" || got.Tags != nil || len(got.MetaData.Scales) != 0 {
		t.Fatalf("expected unrequested fields to stay empty, got %#v", got)
	}

	withTags, err := st.Get(ctx, created.ID, []string{"tags"})
	if err != nil {
		t.Fatalf("get tags: %v", err)
	}
	if len(withTags.Tags) != 2 {
		t.Fatalf("expected tags, got %v", withTags.Tags)
	}

	if _, err := st.Get(ctx, created.ID, []string{"secret"}); err == nil {
		t.Fatal("expected unknown field error")
	}
}

func TestUpdateMedia(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	created, err := st.Create(ctx, sampleRecord("before"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	fileName := "after"
	path := "/uploads/2024/02/after.jpg"
	meta := models.MetaData{FileSize: 10, Width: models.IntPtr(100), Height: models.IntPtr(50)}
	if err := st.Update(ctx, created.ID, media.UpdateRecord{FileName: &fileName, Path: &path, MetaData: &meta, UserID: "u2"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := st.Get(ctx, created.ID, nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FileName != "after" || got.Path != path {
		t.Fatalf("expected updated file name and path, got %#v", got)
	}
	if got.MetaData.FileSize != 10 || len(got.MetaData.Scales) != 0 {
		t.Fatalf("expected replaced metadata, got %#v", got.MetaData)
	}
	if got.OriginalFileName != "photo.jpg" || got.CreatedBy != "u1" || got.UpdatedBy != "u2" {
		t.Fatalf("unexpected untouched fields %#v", got)
	}
	if !got.UpdatedAt.After(created.UpdatedAt) && !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("expected updated_at to advance, got %v < %v", got.UpdatedAt, created.UpdatedAt)
	}

	partialPath := "/uploads/2024/03/after.jpg"
	if err := st.Update(ctx, created.ID, media.UpdateRecord{Path: &partialPath}); err != nil {
		t.Fatalf("partial update: %v", err)
	}
	got, err = st.Get(ctx, created.ID, nil)
	if err != nil {
		t.Fatalf("get after partial update: %v", err)
	}
	if got.FileName != "after" || got.Path != partialPath {
		t.Fatalf("expected only path to change, got %#v", got)
	}
}

func TestUpdateMissingMediaIsNotFound(t *testing.T) {
	st := testStore(t)
	name := "x"
	err := st.Update(context.Background(), "missing", media.UpdateRecord{FileName: &name})
	if !errors.Is(err, models.ErrMediaNotFound) {
		t.Fatalf("expected ErrMediaNotFound, got %v", err)
	}
}

func TestCreateRequiresFileNameAndPath(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	in := sampleRecord("x")
	in.FileName = ""
	if _, err := st.Create(ctx, in); err == nil {
		t.Fatal("expected file name error")
	}
	in = sampleRecord("x")
	in.Path = " "
	if _, err := st.Create(ctx, in); err == nil {
		t.Fatal("expected path error")
	}
}
