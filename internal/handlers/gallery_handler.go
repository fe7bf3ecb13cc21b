package handlers

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lunaria/gallery-backend/internal/config"
	"github.com/lunaria/gallery-backend/internal/services"
)

type GalleryHandler struct {
	ingestService  *services.IngestService
	galleryService *services.GalleryService
	cacheService   *services.CacheService
	cfg            *config.Config
}

func NewGalleryHandler(ingestService *services.IngestService, galleryService *services.GalleryService, cacheService *services.CacheService, cfg *config.Config) *GalleryHandler {
	return &GalleryHandler{
		ingestService:  ingestService,
		galleryService: galleryService,
		cacheService:   cacheService,
		cfg:            cfg,
	}
}

func readFormFile(fh *multipart.FileHeader) (services.RawFile, error) {
	f, err := fh.Open()
	if err != nil {
		return services.RawFile{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return services.RawFile{}, err
	}
	return services.RawFile{
		Name:     fh.Filename,
		Data:     data,
		MimeType: fh.Header.Get("Content-Type"),
	}, nil
}

func (h *GalleryHandler) maxSizeFor(name, mimeType string) int64 {
	if services.IsVideoFile(name, mimeType) {
		return h.cfg.UploadMaxVideoSize
	}
	return h.cfg.UploadMaxImageSize
}

// BatchUpload handles bulk ingestion of a mixed batch of image/video
// files. One bad file never aborts the rest of the batch.
// POST /admin/gallery/batch
// Multipart form: files (repeated), title, description, post_id (all optional, shared)
func (h *GalleryHandler) BatchUpload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(64 << 20); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse multipart form"})
		return
	}

	headers := c.Request.MultipartForm.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未上传任何文件"})
		return
	}

	var files []services.RawFile
	var rejected []services.GroupResult
	for _, fh := range headers {
		if fh.Size > h.maxSizeFor(fh.Filename, fh.Header.Get("Content-Type")) {
			rejected = append(rejected, services.GroupResult{
				Key:   services.GroupKey(fh.Filename),
				OK:    false,
				Error: "文件过大",
			})
			continue
		}
		raw, err := readFormFile(fh)
		if err != nil {
			rejected = append(rejected, services.GroupResult{
				Key:   services.GroupKey(fh.Filename),
				OK:    false,
				Error: "读取文件失败",
			})
			continue
		}
		files = append(files, raw)
	}

	opts := services.IngestOptions{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		PostID:      c.PostForm("post_id"),
	}

	report := h.ingestService.IngestBatch(c.Request.Context(), files, opts)
	report.Append(rejected...)

	status := http.StatusOK
	if report.Status == "error" {
		status = http.StatusBadRequest
	}
	c.JSON(status, report)
}

// Upload handles a single queued item: one image plus an optional
// paired Live Photo video. Thin adapter over the same orchestrator as
// the batch path.
// POST /admin/gallery/upload
// Multipart form: image (required), video, title, description, category, post_id
func (h *GalleryHandler) Upload(c *gin.Context) {
	imageHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrMsgMissingImage})
		return
	}
	if imageHeader.Size > h.cfg.UploadMaxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "文件过大"})
		return
	}

	image, err := readFormFile(imageHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "读取文件失败"})
		return
	}

	group := &services.AssetGroup{
		Key:   services.GroupKey(image.Name),
		Image: &image,
	}

	if videoHeader, err := c.FormFile("video"); err == nil {
		if videoHeader.Size > h.cfg.UploadMaxVideoSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "文件过大"})
			return
		}
		video, err := readFormFile(videoHeader)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "读取文件失败"})
			return
		}
		group.Video = &video
	}

	opts := services.IngestOptions{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		PostID:      c.PostForm("post_id"),
	}

	img, err := h.ingestService.IngestGroup(c.Request.Context(), group, opts)
	if err != nil {
		status := http.StatusInternalServerError
		switch err.Error() {
		case services.ErrMsgMissingImage, services.ErrMsgDecodeFailed, services.ErrMsgThumbnail:
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image": img})
}

// BulkUpdate applies one tri-state metadata patch to many records.
// POST /admin/gallery/bulk-update
func (h *GalleryHandler) BulkUpdate(c *gin.Context) {
	var req struct {
		IDs []uuid.UUID `json:"ids" binding:"required"`
		services.GalleryPatch
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.galleryService.BulkUpdate(c.Request.Context(), req.IDs, req.GalleryPatch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// BulkDelete removes records with best-effort blob cleanup.
// POST /admin/gallery/bulk-delete
func (h *GalleryHandler) BulkDelete(c *gin.Context) {
	var req struct {
		IDs []uuid.UUID `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, blobFailures, err := h.galleryService.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deleted":       deleted,
		"blob_failures": blobFailures,
	})
}

// List returns the public gallery listing, served from the Redis cache
// when fresh.
// GET /gallery
func (h *GalleryHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	ctx := c.Request.Context()
	if cached := h.cacheService.GetList(ctx, limit, offset); cached != nil {
		c.Data(http.StatusOK, "application/json", cached)
		return
	}

	images, total, err := h.galleryService.List(ctx, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list gallery"})
		return
	}

	payload, err := json.Marshal(gin.H{
		"images": images,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode gallery"})
		return
	}

	h.cacheService.SetList(ctx, limit, offset, payload)
	c.Data(http.StatusOK, "application/json", payload)
}
