package services

import (
	"path/filepath"
	"strings"
)

// RawFile is one uploaded file before grouping. Ephemeral, supplied by
// the transport layer.
type RawFile struct {
	Name     string
	Data     []byte
	MimeType string
}

// AssetGroup is the unit of ingestion: one basename's image plus an
// optional paired video (a Live Photo when both are present).
type AssetGroup struct {
	Key   string
	Image *RawFile
	Video *RawFile

	// DuplicatesDropped counts later same-type files sharing this
	// basename. Policy is first-wins; dropped files are not errors.
	DuplicatesDropped int
}

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tiff": true, ".tif": true,
	".heic": true, ".heif": true,
}

var videoExts = map[string]bool{
	".mov": true, ".mp4": true,
}

// GroupKey normalizes a filename to its grouping key: the basename
// without extension, lowercased. IMG_1.HEIC and img_1.mov share key
// "img_1".
func GroupKey(name string) string {
	base := filepath.Base(name)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// IsImageFile reports whether a file is a still image, by MIME prefix
// or known raster extension.
func IsImageFile(name, mimeType string) bool {
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// IsVideoFile reports whether a file is a Live Photo candidate video.
func IsVideoFile(name, mimeType string) bool {
	if strings.HasPrefix(mimeType, "video/") {
		return true
	}
	return videoExts[strings.ToLower(filepath.Ext(name))]
}

// GroupFiles pairs a flat batch of files into asset groups by
// normalized basename, in first-appearance order of each key. The
// first image and first video per key win; later same-type duplicates
// are dropped and counted. Files that are neither image nor video are
// ignored. A group without an image is still emitted here; the
// orchestrator rejects it with a per-group error.
func GroupFiles(files []RawFile) []*AssetGroup {
	groups := make(map[string]*AssetGroup)
	order := make([]*AssetGroup, 0, len(files))

	for i := range files {
		f := &files[i]

		isImage := IsImageFile(f.Name, f.MimeType)
		isVideo := !isImage && IsVideoFile(f.Name, f.MimeType)
		if !isImage && !isVideo {
			continue
		}

		key := GroupKey(f.Name)
		g, ok := groups[key]
		if !ok {
			g = &AssetGroup{Key: key}
			groups[key] = g
			order = append(order, g)
		}

		switch {
		case isImage && g.Image == nil:
			g.Image = f
		case isVideo && g.Video == nil:
			g.Video = f
		default:
			g.DuplicatesDropped++
		}
	}

	return order
}
