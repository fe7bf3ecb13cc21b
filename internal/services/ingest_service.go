package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lunaria/gallery-backend/internal/models"
	"github.com/lunaria/gallery-backend/internal/storage"
)

// Per-group failure messages surfaced in batch reports.
const (
	ErrMsgMissingImage = "缺少图片文件"
	ErrMsgDecodeFailed = "无法解码图片"
	ErrMsgThumbnail    = "缩略图生成失败"
)

// MetadataExtractor pulls dimensions and capture metadata from image
// bytes; it fails only when the image cannot be decoded at all.
type MetadataExtractor interface {
	Extract(data []byte) (*ImageMetadata, error)
}

// ThumbnailGenerator derives the three fixed renditions.
type ThumbnailGenerator interface {
	Generate(data []byte) (*ThumbnailSet, error)
}

// ImageStore persists gallery records. GalleryService is the gorm
// implementation.
type ImageStore interface {
	Create(ctx context.Context, img *models.GalleryImage) error
}

// IngestOptions are the shared fields applied to every asset created
// from one batch.
type IngestOptions struct {
	Title       string
	Description string
	Category    string
	PostID      string
}

// GroupResult is one entry of the batch report.
type GroupResult struct {
	Key   string     `json:"key"`
	OK    bool       `json:"ok"`
	ID    *uuid.UUID `json:"id,omitempty"`
	Error string     `json:"error,omitempty"`
}

// BatchReport aggregates per-group outcomes. Status is "success" when
// at least one group succeeded, "error" only when zero did.
type BatchReport struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Results []GroupResult `json:"results"`
}

// IngestService sequences extraction, geocoding, thumbnailing, storage
// and persistence per asset group. Groups are independent: one group's
// failure never prevents siblings from being attempted.
type IngestService struct {
	store     ImageStore
	blobs     storage.Provider
	extractor MetadataExtractor
	thumbs    ThumbnailGenerator
	geocoder  Geocoder
}

func NewIngestService(store ImageStore, blobs storage.Provider, geocoder Geocoder) *IngestService {
	return &IngestService{
		store:     store,
		blobs:     blobs,
		extractor: NewExifService(),
		thumbs:    NewThumbnailService(),
		geocoder:  geocoder,
	}
}

// IngestBatch groups the raw files and processes each group, capturing
// every failure into the report instead of propagating it.
func (s *IngestService) IngestBatch(ctx context.Context, files []RawFile, opts IngestOptions) *BatchReport {
	groups := GroupFiles(files)

	report := &BatchReport{
		Results: make([]GroupResult, 0, len(groups)),
	}

	for _, g := range groups {
		img, err := s.IngestGroup(ctx, g, opts)
		if err != nil {
			report.Results = append(report.Results, GroupResult{Key: g.Key, OK: false, Error: err.Error()})
			continue
		}
		report.Results = append(report.Results, GroupResult{Key: g.Key, OK: true, ID: &img.ID})
	}

	report.recount()
	return report
}

// Append folds extra per-file results (transport-level rejections)
// into the report and recomputes the summary.
func (r *BatchReport) Append(results ...GroupResult) {
	r.Results = append(r.Results, results...)
	r.recount()
}

func (r *BatchReport) recount() {
	okCount := 0
	for _, res := range r.Results {
		if res.OK {
			okCount++
		}
	}
	r.Message = fmt.Sprintf("完成：成功 %d，失败 %d", okCount, len(r.Results)-okCount)
	if okCount > 0 {
		r.Status = "success"
	} else {
		r.Status = "error"
	}
}

// IngestGroup runs the full pipeline for one group. Both the bulk and
// the single-upload endpoints are thin adapters over this method.
func (s *IngestService) IngestGroup(ctx context.Context, g *AssetGroup, opts IngestOptions) (*models.GalleryImage, error) {
	if g.Image == nil {
		return nil, errors.New(ErrMsgMissingImage)
	}
	if g.DuplicatesDropped > 0 {
		log.Printf("Ingest %s: dropped %d duplicate file(s), first-wins", g.Key, g.DuplicatesDropped)
	}

	meta, err := s.extractor.Extract(g.Image.Data)
	if err != nil {
		log.Printf("Ingest %s: %v", g.Key, err)
		return nil, errors.New(ErrMsgDecodeFailed)
	}

	// Best-effort geocode; any outcome is accepted.
	var place *GeocodeResult
	if meta.Latitude != nil && meta.Longitude != nil && s.geocoder != nil {
		place = s.geocoder.Reverse(ctx, *meta.Latitude, *meta.Longitude)
	}

	thumbs, err := s.thumbs.Generate(g.Image.Data)
	if err != nil {
		log.Printf("Ingest %s: %v", g.Key, err)
		return nil, errors.New(ErrMsgThumbnail)
	}

	ext := strings.ToLower(filepath.Ext(g.Image.Name))
	if ext == "" {
		ext = ".jpg"
	}
	base := uuid.New().String()

	mimeType := g.Image.MimeType
	if mimeType == "" {
		mimeType = http.DetectContentType(g.Image.Data)
	}

	// Original plus the three renditions go up as one logical batch.
	items := []storage.Item{
		{Key: "gallery/" + base + ext, Data: g.Image.Data, ContentType: mimeType},
		{Key: "gallery/thumbs/" + base + "_micro.jpg", Data: thumbs.Micro, ContentType: "image/jpeg"},
		{Key: "gallery/thumbs/" + base + "_small.jpg", Data: thumbs.Small, ContentType: "image/jpeg"},
		{Key: "gallery/thumbs/" + base + "_medium.jpg", Data: thumbs.Medium, ContentType: "image/jpeg"},
	}
	paths, err := s.blobs.UploadBatch(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("上传存储失败: %v", err)
	}

	var videoPath *string
	if g.Video != nil {
		videoExt := strings.ToLower(filepath.Ext(g.Video.Name))
		if videoExt == "" {
			videoExt = ".mov"
		}
		videoMime := g.Video.MimeType
		if videoMime == "" {
			videoMime = http.DetectContentType(g.Video.Data)
		}
		path, err := s.blobs.Upload(ctx, g.Video.Data, "gallery/live/"+base+videoExt, videoMime)
		if err != nil {
			s.cleanupBlobs(ctx, paths)
			return nil, fmt.Errorf("上传实况视频失败: %v", err)
		}
		videoPath = &path
	}

	fileSize := int64(len(g.Image.Data))
	img := &models.GalleryImage{
		FilePath:           paths[0],
		MicroThumbPath:     paths[1],
		SmallThumbPath:     paths[2],
		MediumPath:         paths[3],
		Latitude:           meta.Latitude,
		Longitude:          meta.Longitude,
		Camera:             meta.Camera,
		Lens:               meta.Lens,
		Aperture:           meta.Aperture,
		ISO:                meta.ISO,
		Shutter:            meta.Shutter,
		LivePhotoVideoPath: videoPath,
		IsLivePhoto:        g.Video != nil,
		FileSize:           &fileSize,
		Width:              &meta.Width,
		Height:             &meta.Height,
		MimeType:           &mimeType,
		CapturedAt:         meta.CapturedAt,
		StorageType:        s.blobs.Type(),
	}
	if opts.Title != "" {
		img.Title = &opts.Title
	}
	if opts.Description != "" {
		img.Description = &opts.Description
	}
	if opts.Category != "" {
		img.Category = &opts.Category
	}
	if opts.PostID != "" {
		img.PostID = &opts.PostID
	}
	if place != nil {
		img.City = place.City
		img.Country = place.Country
		img.LocationName = place.LocationName
	}

	if err := s.store.Create(ctx, img); err != nil {
		uploaded := paths
		if videoPath != nil {
			uploaded = append(uploaded, *videoPath)
		}
		s.cleanupBlobs(ctx, uploaded)
		return nil, fmt.Errorf("保存记录失败: %v", err)
	}
	return img, nil
}

// cleanupBlobs best-effort removes blobs uploaded for a group whose
// record never got persisted, so failed groups leave no orphans.
func (s *IngestService) cleanupBlobs(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			log.Printf("Cleanup of orphaned blob %s failed: %v", key, err)
		}
	}
}
