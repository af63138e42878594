package redisopt

import (
	"context"
	"testing"
	"time"
)

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected missing addr error")
	}
	if _, err := New(Config{Addr: "localhost:6379", DB: -1}); err == nil {
		t.Fatal("expected negative db error")
	}

	st, err := New(Config{Addr: "localhost:6379"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer st.Close()
	if st.Key() != DefaultKey {
		t.Fatalf("expected default key, got %q", st.Key())
	}

	custom, err := New(Config{Addr: "localhost:6379", Key: " site:options "})
	if err != nil {
		t.Fatalf("new custom: %v", err)
	}
	defer custom.Close()
	if custom.Key() != "site:options" {
		t.Fatalf("expected trimmed key, got %q", custom.Key())
	}
}

func TestUnreachableServerSurfacesErrors(t *testing.T) {
	st, err := New(Config{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := st.GetValue(ctx, "site_url"); err == nil {
		t.Fatal("expected get value error")
	}
	if _, err := st.GetList(ctx, []string{"thumbnail_size_w"}); err == nil {
		t.Fatal("expected get list error")
	}
	if err := st.SetOptions(ctx, map[string]string{"site_url": "x"}); err == nil {
		t.Fatal("expected set error")
	}
}

func TestEmptyRequestsSkipServer(t *testing.T) {
	st, err := New(Config{Addr: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer st.Close()

	values, err := st.GetList(context.Background(), nil)
	if err != nil || len(values) != 0 {
		t.Fatalf("expected empty result, got %v (%v)", values, err)
	}
	if err := st.SetOptions(context.Background(), nil); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
