package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalUploadWritesFile(t *testing.T) {
	dir := t.TempDir()
	p := NewLocalProvider(dir, "http://localhost:8080/static")

	key, err := p.Upload(context.Background(), []byte("blob"), "gallery/a.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if key != "gallery/a.jpg" {
		t.Errorf("key = %q", key)
	}

	data, err := os.ReadFile(filepath.Join(dir, "gallery", "a.jpg"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "blob" {
		t.Errorf("content = %q", data)
	}

	// No leftover partial file.
	if _, err := os.Stat(filepath.Join(dir, "gallery", "a.jpg.part")); !os.IsNotExist(err) {
		t.Error("partial file left behind")
	}
}

func TestLocalUploadBatchPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	p := NewLocalProvider(dir, "http://localhost:8080/static")

	items := []Item{
		{Key: "gallery/x.jpg", Data: []byte("x"), ContentType: "image/jpeg"},
		{Key: "gallery/thumbs/x_micro.jpg", Data: []byte("m"), ContentType: "image/jpeg"},
		{Key: "gallery/thumbs/x_small.jpg", Data: []byte("s"), ContentType: "image/jpeg"},
	}

	paths, err := p.UploadBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("UploadBatch: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("paths = %v", paths)
	}
	for i, item := range items {
		if paths[i] != item.Key {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], item.Key)
		}
	}
}

func TestLocalDeleteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	p := NewLocalProvider(dir, "http://localhost:8080/static")

	if _, err := p.Upload(context.Background(), []byte("blob"), "gallery/b.jpg", "image/jpeg"); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := p.Delete(context.Background(), "gallery/b.jpg"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := p.Delete(context.Background(), "gallery/b.jpg"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
	if err := p.Delete(context.Background(), "gallery/never-existed.jpg"); err != nil {
		t.Errorf("deleting a missing key should be a no-op, got %v", err)
	}
}

func TestLocalPublicURL(t *testing.T) {
	p := NewLocalProvider(t.TempDir(), "http://localhost:8080/static/")
	if got := p.PublicURL("gallery/a.jpg"); got != "http://localhost:8080/static/gallery/a.jpg" {
		t.Errorf("PublicURL = %q", got)
	}
}
