package storage

import "context"

// Item is one blob in a batch upload.
type Item struct {
	Key         string
	Data        []byte
	ContentType string
}

// Provider is the blob store behind the gallery. Implementations must
// be safe for concurrent independent writes; keys are generated fresh
// per upload so no read-modify-write races occur.
type Provider interface {
	// Upload stores one blob and returns its storage path (the key).
	Upload(ctx context.Context, data []byte, key, contentType string) (string, error)
	// UploadBatch stores blobs in one logical batch, returning paths
	// in the same order as the input items.
	UploadBatch(ctx context.Context, items []Item) ([]string, error)
	// PublicURL resolves a stored path to a publicly servable URL.
	PublicURL(key string) string
	// Delete removes a blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Type identifies the backend ("local" or "s3") on asset records.
	Type() string
}
