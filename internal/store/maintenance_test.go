package store

import (
	"context"
	"testing"
)

func TestStoreInfo(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	info, err := st.StoreInfo(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.SchemaVersion == 0 {
		t.Fatal("expected non-zero schema version")
	}
	if info.TotalMedia != 0 {
		t.Fatalf("expected 0 media, got %d", info.TotalMedia)
	}

	for _, hash := range []string{"a1", "b2"} {
		if _, err := st.Create(ctx, sampleRecord(hash)); err != nil {
			t.Fatalf("create %s: %v", hash, err)
		}
	}
	text := sampleRecord("c3")
	text.MimeType = "text/plain"
	text.MetaData.FileSize = 100
	if _, err := st.Create(ctx, text); err != nil {
		t.Fatalf("create text: %v", err)
	}
	if err := st.SetOptions(ctx, map[string]string{"site_url": "https://example.com"}); err != nil {
		t.Fatalf("set option: %v", err)
	}

	info, err = st.StoreInfo(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.TotalMedia != 3 {
		t.Fatalf("expected 3 media, got %d", info.TotalMedia)
	}
	if info.MimeCounts["image/jpeg"] != 2 || info.MimeCounts["text/plain"] != 1 {
		t.Fatalf("unexpected mime counts %v", info.MimeCounts)
	}
	if info.TotalBytes != 2048*2+100 {
		t.Fatalf("unexpected total bytes %d", info.TotalBytes)
	}
	if info.OptionCount != 1 {
		t.Fatalf("expected 1 option, got %d", info.OptionCount)
	}
}
