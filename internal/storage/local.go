package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider stores blobs under a base directory on the local disk.
type LocalProvider struct {
	basePath  string
	publicURL string
}

func NewLocalProvider(basePath, publicURL string) *LocalProvider {
	// ensure base path exists
	_ = os.MkdirAll(basePath, 0o755)
	return &LocalProvider{
		basePath:  basePath,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Upload writes the blob atomically: a .part file is renamed into
// place so readers never observe a half-written file.
func (p *LocalProvider) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	absPath := filepath.Join(p.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := absPath + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to sync file: %w", err)
	}
	f.Close()

	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	return key, nil
}

func (p *LocalProvider) UploadBatch(ctx context.Context, items []Item) ([]string, error) {
	paths := make([]string, 0, len(items))
	for _, item := range items {
		path, err := p.Upload(ctx, item.Data, item.Key, item.ContentType)
		if err != nil {
			return nil, fmt.Errorf("batch upload failed at %s: %w", item.Key, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (p *LocalProvider) PublicURL(key string) string {
	return p.publicURL + "/" + strings.TrimLeft(key, "/")
}

func (p *LocalProvider) Delete(ctx context.Context, key string) error {
	absPath := filepath.Join(p.basePath, filepath.FromSlash(key))
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (p *LocalProvider) Type() string { return "local" }
