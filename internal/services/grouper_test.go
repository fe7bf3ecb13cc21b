package services

import "testing"

func TestGroupFiles_CaseInsensitivePairing(t *testing.T) {
	files := []RawFile{
		{Name: "IMG_1.HEIC", MimeType: "image/heic"},
		{Name: "img_1.mov", MimeType: "video/quicktime"},
	}

	groups := GroupFiles(files)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.Key != "img_1" {
		t.Fatalf("expected key img_1, got %q", g.Key)
	}
	if g.Image == nil || g.Video == nil {
		t.Fatalf("expected both image and video, got image=%v video=%v", g.Image != nil, g.Video != nil)
	}
}

func TestGroupFiles_FirstWinsOnDuplicates(t *testing.T) {
	files := []RawFile{
		{Name: "a.jpg", Data: []byte("first"), MimeType: "image/jpeg"},
		{Name: "a.png", Data: []byte("second"), MimeType: "image/png"},
	}

	groups := GroupFiles(files)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if string(g.Image.Data) != "first" {
		t.Fatalf("expected first image to win, got %q", g.Image.Data)
	}
	if g.DuplicatesDropped != 1 {
		t.Fatalf("expected 1 dropped duplicate, got %d", g.DuplicatesDropped)
	}
}

func TestGroupFiles_FirstAppearanceOrder(t *testing.T) {
	files := []RawFile{
		{Name: "b.jpg", MimeType: "image/jpeg"},
		{Name: "a.jpg", MimeType: "image/jpeg"},
		{Name: "b.mov", MimeType: "video/quicktime"},
		{Name: "c.jpg", MimeType: "image/jpeg"},
	}

	groups := GroupFiles(files)
	want := []string{"b", "a", "c"}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, key := range want {
		if groups[i].Key != key {
			t.Errorf("group %d: expected key %q, got %q", i, key, groups[i].Key)
		}
	}
	if groups[0].Video == nil {
		t.Error("expected b.mov paired into first group")
	}
}

func TestGroupFiles_VideoOnlyGroupIsEmitted(t *testing.T) {
	groups := GroupFiles([]RawFile{{Name: "a.MOV", MimeType: "video/quicktime"}})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Image != nil {
		t.Fatal("expected no image in video-only group")
	}
}

func TestGroupFiles_ExtensionFallbackWithoutMime(t *testing.T) {
	files := []RawFile{
		{Name: "photo.webp"},
		{Name: "clip.mp4"},
		{Name: "notes.txt"},
	}

	groups := GroupFiles(files)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups (txt ignored), got %d", len(groups))
	}
	if groups[0].Key != "photo" || groups[0].Image == nil {
		t.Errorf("expected photo.webp classified as image")
	}
	if groups[1].Key != "clip" || groups[1].Video == nil {
		t.Errorf("expected clip.mp4 classified as video")
	}
}

func TestGroupKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"IMG_001.HEIC", "img_001"},
		{"photos/IMG_001.MOV", "img_001"},
		{"NoExtension", "noextension"},
		{"dots.in.name.jpg", "dots.in.name"},
	}
	for _, tt := range tests {
		if got := GroupKey(tt.name); got != tt.want {
			t.Errorf("GroupKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
