package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestLocalStoreWriteReadExistsDelete(t *testing.T) {
	st, err := NewLocalStore(t.TempDir(), "/uploads", GroupByYearAndMonth)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	ctx := context.Background()
	key := "2024/01/abc.jpg"

	exists, err := st.Exists(ctx, key)
	if err != nil {
		t.Fatalf("exists before write: %v", err)
	}
	if exists {
		t.Fatal("expected missing file")
	}

	if err := st.Write(ctx, key, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	exists, err = st.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("expected file to exist, exists=%v err=%v", exists, err)
	}

	data, err := st.Read(ctx, key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected hello, got %q", string(data))
	}

	if err := st.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.Delete(ctx, key); err != nil {
		t.Fatalf("delete missing should be noop: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(st.Root(), tmpDirName))
	if err != nil {
		t.Fatalf("read tmp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no leftover temp files, got %d", len(entries))
	}
}

func TestLocalStoreExistsRejectsDirectories(t *testing.T) {
	st, err := NewLocalStore(t.TempDir(), "/uploads", GroupByYear)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(st.Root(), "2024", "dir.jpg"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	exists, err := st.Exists(context.Background(), "2024/dir.jpg")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("expected directory not to count as stored file")
	}
}

func TestLocalStoreAllocateGrouping(t *testing.T) {
	now := time.Date(2024, time.March, 9, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		grouping Grouping
		wantRel  string
	}{
		{grouping: GroupByYear, wantRel: "2024"},
		{grouping: GroupByYearAndMonth, wantRel: "2024/03"},
	}
	for _, tt := range tests {
		t.Run(string(tt.grouping), func(t *testing.T) {
			st, err := NewLocalStore(t.TempDir(), "/uploads", tt.grouping)
			if err != nil {
				t.Fatalf("new local store: %v", err)
			}
			dest, err := st.Allocate(now)
			if err != nil {
				t.Fatalf("allocate: %v", err)
			}
			if dest.RelDir != tt.wantRel {
				t.Fatalf("expected rel dir %q, got %q", tt.wantRel, dest.RelDir)
			}
			info, err := os.Stat(dest.Dir)
			if err != nil || !info.IsDir() {
				t.Fatalf("expected allocated dir to exist: %v", err)
			}
		})
	}
}

func TestLocalStoreAllocateConcurrent(t *testing.T) {
	st, err := NewLocalStore(t.TempDir(), "/uploads", GroupByYearAndMonth)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	now := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := st.Allocate(now); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent allocate failed: %v", err)
	}
}

func TestLocalStoreAllocateFailsOnFileInTheWay(t *testing.T) {
	st, err := NewLocalStore(t.TempDir(), "/uploads", GroupByYear)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(st.Root(), "2024"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	if _, err := st.Allocate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Fatal("expected allocate to fail when a file occupies the directory path")
	}
}

func TestLocalStorePublicPathRoundTrip(t *testing.T) {
	st, err := NewLocalStore(t.TempDir(), "uploads/", GroupByYear)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	public := st.PublicPath("2024/abc.png")
	if public != "/uploads/2024/abc.png" {
		t.Fatalf("unexpected public path %q", public)
	}
	key, err := st.KeyFromPublicPath(public)
	if err != nil {
		t.Fatalf("key from public path: %v", err)
	}
	if key != "2024/abc.png" {
		t.Fatalf("unexpected key %q", key)
	}

	if _, err := st.KeyFromPublicPath("/elsewhere/2024/abc.png"); err == nil {
		t.Fatal("expected error for path outside public prefix")
	}
	if _, err := st.KeyFromPublicPath("/uploads/../etc/passwd"); err == nil {
		t.Fatal("expected error for escaping path")
	}
}

func TestLocalStoreRejectsInvalidKeys(t *testing.T) {
	st, err := NewLocalStore(t.TempDir(), "", GroupByYear)
	if err != nil {
		t.Fatalf("new local store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "/abs.jpg", "../up.jpg", ".."} {
		if err := st.Write(ctx, key, []byte("x")); err == nil {
			t.Fatalf("expected write of %q to fail", key)
		}
	}
	if got := st.PublicPath("2024/a.jpg"); got != "/2024/a.jpg" {
		t.Fatalf("unexpected public path without prefix: %q", got)
	}
}

func TestParseGrouping(t *testing.T) {
	got, err := ParseGrouping("")
	if err != nil || got != DefaultGrouping {
		t.Fatalf("expected default grouping, got %q err=%v", got, err)
	}
	if _, err := ParseGrouping("by-day"); err == nil {
		t.Fatal("expected invalid grouping error")
	}
}
