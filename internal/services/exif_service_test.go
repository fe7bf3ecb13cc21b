package services

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestExtract_DimensionsWithoutExif(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 123, 45))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	meta, err := NewExifService().Extract(buf.Bytes())
	if err != nil {
		t.Fatalf("missing EXIF must not be an error: %v", err)
	}
	if meta.Width != 123 || meta.Height != 45 {
		t.Errorf("expected 123x45, got %dx%d", meta.Width, meta.Height)
	}
	if meta.Latitude != nil || meta.Longitude != nil {
		t.Error("expected nil GPS without EXIF")
	}
	if meta.CapturedAt != nil || meta.Camera != nil {
		t.Error("expected nil capture metadata without EXIF")
	}
}

func TestExtract_UndecodableIsError(t *testing.T) {
	if _, err := NewExifService().Extract([]byte("definitely not an image")); err == nil {
		t.Fatal("expected error for undecodable bytes")
	}
}

func TestCameraNameJoinsMakeAndModel(t *testing.T) {
	tests := []struct {
		make, model, want string
	}{
		{"Apple", "iPhone 15 Pro", "Apple iPhone 15 Pro"},
		{"NIKON CORPORATION", "NIKON Z 6", "NIKON Z 6"},
		{"", "X100V", "X100V"},
		{"Sony", "", "Sony"},
	}
	for _, tt := range tests {
		got := joinCamera(tt.make, tt.model)
		if got != tt.want {
			t.Errorf("joinCamera(%q, %q) = %q, want %q", tt.make, tt.model, got, tt.want)
		}
	}
}
