package store

import (
	"context"
	"testing"
)

func TestOptionsRoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	value, err := st.GetValue(ctx, "site_url")
	if err != nil {
		t.Fatalf("get unset: %v", err)
	}
	if value != "" {
		t.Fatalf("expected empty value, got %q", value)
	}

	if err := st.SetOptions(ctx, map[string]string{
		"site_url":         "https://cdn.example.com",
		"thumbnail_size_w": "200",
		"thumbnail_crop":   "1",
	}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.SetOptions(ctx, map[string]string{"thumbnail_size_w": "180"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	value, err = st.GetValue(ctx, "site_url")
	if err != nil || value != "https://cdn.example.com" {
		t.Fatalf("unexpected site_url %q (%v)", value, err)
	}

	values, err := st.GetList(ctx, []string{"thumbnail_size_w", "thumbnail_crop", "medium_size_w"})
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if len(values) != 2 || values["thumbnail_size_w"] != "180" || values["thumbnail_crop"] != "1" {
		t.Fatalf("unexpected values %v", values)
	}
	if _, ok := values["medium_size_w"]; ok {
		t.Fatal("expected unset option to be absent")
	}

	all, err := st.ListOptions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Name != "site_url" {
		t.Fatalf("unexpected options %#v", all)
	}
}

func TestGetListEmpty(t *testing.T) {
	st := testStore(t)
	values, err := st.GetList(context.Background(), nil)
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("expected no values, got %v", values)
	}
}

func TestSetOptionsRejectsEmptyName(t *testing.T) {
	st := testStore(t)
	if err := st.SetOptions(context.Background(), map[string]string{" ": "x"}); err == nil {
		t.Fatal("expected empty name error")
	}
}
