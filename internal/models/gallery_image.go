package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GalleryImage is one ingested gallery asset. A Live Photo pairs the
// still image with a short video sharing its basename; the video path
// is only set when the pair was uploaded together.
//
// The ingestion pipeline creates these records and never mutates them
// afterward; later edits go through the bulk update path.
type GalleryImage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       *string   `gorm:"size:255" json:"title,omitempty"`
	Description *string   `gorm:"size:1000" json:"description,omitempty"`
	Category    *string   `gorm:"size:64;index" json:"category,omitempty"`
	PostID      *string   `gorm:"size:64;index" json:"post_id,omitempty"`

	// Storage paths: original plus exactly three renditions.
	FilePath       string `gorm:"size:512;not null" json:"file_path"`
	MicroThumbPath string `gorm:"size:512;not null" json:"micro_thumb_path"`
	SmallThumbPath string `gorm:"size:512;not null" json:"small_thumb_path"`
	MediumPath     string `gorm:"size:512;not null" json:"medium_path"`

	// Location fields are all null or all from one geocode call.
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LocationName *string  `gorm:"size:255" json:"location_name,omitempty"`
	City         *string  `gorm:"size:120" json:"city,omitempty"`
	Country      *string  `gorm:"size:120" json:"country,omitempty"`

	LivePhotoVideoPath *string `gorm:"size:512" json:"live_photo_video_path,omitempty"`
	IsLivePhoto        bool    `gorm:"default:false" json:"is_live_photo"`

	// Capture metadata, present only when the EXIF block carried it.
	Camera   *string  `gorm:"size:120" json:"camera,omitempty"`
	Lens     *string  `gorm:"size:120" json:"lens,omitempty"`
	Aperture *float64 `json:"aperture,omitempty"`
	ISO      *int     `json:"iso,omitempty"`
	Shutter  *string  `gorm:"size:32" json:"shutter,omitempty"`

	FileSize   *int64     `json:"file_size,omitempty"`
	Width      *int       `json:"width,omitempty"`
	Height     *int       `json:"height,omitempty"`
	MimeType   *string    `gorm:"size:120" json:"mime_type,omitempty"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`

	StorageType string `gorm:"size:16;not null" json:"storage_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *GalleryImage) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}
