package models

import "testing"

func TestParseScaleName(t *testing.T) {
	got, err := ParseScaleName("  Medium_Large ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != ScaleMediumLarge {
		t.Fatalf("expected %q, got %q", ScaleMediumLarge, got)
	}

	if _, err := ParseScaleName(""); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := ParseScaleName("huge"); err == nil {
		t.Fatal("expected error for unknown name")
	}
}

func TestScaleNameSemantic(t *testing.T) {
	for _, name := range ScaleNames {
		want := name == ScaleThumbnail || name == ScaleScaled
		if name.Semantic() != want {
			t.Fatalf("%s: expected semantic=%v", name, want)
		}
	}
}

func TestMetaDataScale(t *testing.T) {
	meta := MetaData{Scales: []ImageScale{
		{Name: ScaleThumbnail, Width: 150, Height: 150, Path: "/uploads/a-thumbnail.jpg"},
		{Name: ScaleLarge, Width: 1024, Height: 683, Path: "/uploads/a-1024x683.jpg"},
	}}

	large, ok := meta.Scale(ScaleLarge)
	if !ok || large.Width != 1024 {
		t.Fatalf("expected large scale, got %#v ok=%v", large, ok)
	}
	if _, ok := meta.Scale(ScaleMedium); ok {
		t.Fatal("expected medium to be absent")
	}
}
