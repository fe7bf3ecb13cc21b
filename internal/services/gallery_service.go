package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/lunaria/gallery-backend/internal/models"
	"github.com/lunaria/gallery-backend/internal/storage"
	"gorm.io/gorm"
)

// GalleryService owns the persisted gallery records: creation on
// behalf of the ingestion pipeline, listing, bulk metadata updates and
// bulk deletion.
type GalleryService struct {
	db    *gorm.DB
	blobs storage.Provider
	cache *CacheService
}

func NewGalleryService(db *gorm.DB, blobs storage.Provider, cache *CacheService) *GalleryService {
	return &GalleryService{db: db, blobs: blobs, cache: cache}
}

// Create persists a new gallery record. Implements ImageStore.
func (s *GalleryService) Create(ctx context.Context, img *models.GalleryImage) error {
	if err := s.db.WithContext(ctx).Create(img).Error; err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// List returns a page of gallery records, newest first.
func (s *GalleryService) List(ctx context.Context, limit, offset int) ([]models.GalleryImage, int64, error) {
	var images []models.GalleryImage
	var total int64

	if err := s.db.WithContext(ctx).Model(&models.GalleryImage{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&images).Error; err != nil {
		return nil, 0, err
	}
	return images, total, nil
}

// StringPatch is a tri-state field instruction: absent (the pointer to
// the patch itself is nil) leaves the field unchanged, Set overwrites,
// Clear nulls it out.
type StringPatch struct {
	Set   *string `json:"set,omitempty"`
	Clear bool    `json:"clear,omitempty"`
}

// LocationValue carries the five location fields that always move
// together.
type LocationValue struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	City         *string `json:"city,omitempty"`
	Country      *string `json:"country,omitempty"`
	LocationName *string `json:"location_name,omitempty"`
}

// LocationPatch is the nested tri-state group: set assigns all five
// fields, clear nulls all five.
type LocationPatch struct {
	Set   *LocationValue `json:"set,omitempty"`
	Clear bool           `json:"clear,omitempty"`
}

// GalleryPatch is the bulk-update instruction applied to each listed id.
type GalleryPatch struct {
	Title       *StringPatch   `json:"title,omitempty"`
	Description *StringPatch   `json:"description,omitempty"`
	Category    *StringPatch   `json:"category,omitempty"`
	PostID      *StringPatch   `json:"post_id,omitempty"`
	Location    *LocationPatch `json:"location,omitempty"`
}

// BuildUpdates translates a patch into a column update map. Pure, so
// applying the same patch twice yields identical final values.
func BuildUpdates(p GalleryPatch) map[string]interface{} {
	updates := map[string]interface{}{}

	applyString := func(column string, patch *StringPatch) {
		if patch == nil {
			return
		}
		if patch.Clear {
			updates[column] = nil
			return
		}
		if patch.Set != nil {
			updates[column] = *patch.Set
		}
	}
	applyString("title", p.Title)
	applyString("description", p.Description)
	applyString("category", p.Category)
	applyString("post_id", p.PostID)

	if p.Location != nil {
		if p.Location.Clear {
			updates["latitude"] = nil
			updates["longitude"] = nil
			updates["city"] = nil
			updates["country"] = nil
			updates["location_name"] = nil
		} else if v := p.Location.Set; v != nil {
			updates["latitude"] = v.Latitude
			updates["longitude"] = v.Longitude
			updates["city"] = v.City
			updates["country"] = v.Country
			updates["location_name"] = v.LocationName
		}
	}

	return updates
}

// BulkUpdate applies one tri-state patch to every listed record and
// returns the number of rows touched.
func (s *GalleryService) BulkUpdate(ctx context.Context, ids []uuid.UUID, patch GalleryPatch) (int64, error) {
	updates := BuildUpdates(patch)
	if len(updates) == 0 || len(ids) == 0 {
		return 0, nil
	}

	res := s.db.WithContext(ctx).Model(&models.GalleryImage{}).Where("id IN ?", ids).Updates(updates)
	if res.Error != nil {
		return 0, fmt.Errorf("bulk update failed: %w", res.Error)
	}
	s.cache.Invalidate(ctx)
	return res.RowsAffected, nil
}

// BulkDelete removes records and best-effort deletes their blobs.
// A failed blob delete never blocks record removal, but every failure
// is logged and counted so orphaned blobs stay visible to the caller.
func (s *GalleryService) BulkDelete(ctx context.Context, ids []uuid.UUID) (int64, int, error) {
	if len(ids) == 0 {
		return 0, 0, nil
	}

	var images []models.GalleryImage
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&images).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to load records: %w", err)
	}

	blobFailures := 0
	for _, img := range images {
		keys := []string{img.FilePath, img.MicroThumbPath, img.SmallThumbPath, img.MediumPath}
		if img.LivePhotoVideoPath != nil {
			keys = append(keys, *img.LivePhotoVideoPath)
		}
		for _, key := range keys {
			if key == "" {
				continue
			}
			if err := s.blobs.Delete(ctx, key); err != nil {
				log.Printf("Blob delete failed for %s (record %s): %v", key, img.ID, err)
				blobFailures++
			}
		}
	}

	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.GalleryImage{})
	if res.Error != nil {
		return 0, blobFailures, fmt.Errorf("failed to delete records: %w", res.Error)
	}
	s.cache.Invalidate(ctx)
	return res.RowsAffected, blobFailures, nil
}
