package services

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	// Register decoders so DecodeConfig accepts the common raster
	// formats beyond the stdlib set. HEIC has no Go decoder; a HEIC
	// original fails decode and its group fails with it.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageMetadata is the best-effort capture metadata of one image.
// Every field except Width/Height may be absent.
type ImageMetadata struct {
	Width      int
	Height     int
	CapturedAt *time.Time
	Latitude   *float64
	Longitude  *float64
	Camera     *string
	Lens       *string
	Aperture   *float64
	ISO        *int
	Shutter    *string
}

// ExifService extracts dimensions and EXIF metadata from image bytes.
type ExifService struct{}

func NewExifService() *ExifService {
	return &ExifService{}
}

// Extract decodes dimensions and reads whatever EXIF tags are present.
// Missing or corrupt EXIF is not an error; an undecodable image is,
// because thumbnailing cannot proceed without a decodable image.
func (s *ExifService) Extract(data []byte) (*ImageMetadata, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	meta := &ImageMetadata{
		Width:  cfg.Width,
		Height: cfg.Height,
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		// no EXIF block at all; dimensions are still useful
		return meta, nil
	}

	if t, err := x.DateTime(); err == nil {
		meta.CapturedAt = &t
	}

	if lat, lon, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &lon
	}

	if camera := cameraName(x); camera != "" {
		meta.Camera = &camera
	}

	if tag, err := x.Get(exif.LensModel); err == nil {
		if lens, err := tag.StringVal(); err == nil && lens != "" {
			meta.Lens = &lens
		}
	}

	if tag, err := x.Get(exif.FNumber); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			aperture := float64(num) / float64(den)
			meta.Aperture = &aperture
		}
	}

	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if iso, err := tag.Int(0); err == nil {
			meta.ISO = &iso
		}
	}

	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			shutter := fmt.Sprintf("%d/%d", num, den)
			meta.Shutter = &shutter
		}
	}

	return meta, nil
}

func cameraName(x *exif.Exif) string {
	var make, model string
	if tag, err := x.Get(exif.Make); err == nil {
		make, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Model); err == nil {
		model, _ = tag.StringVal()
	}
	return joinCamera(make, model)
}

// joinCamera joins Make and Model, dropping the make prefix that many
// vendors repeat inside the model string.
func joinCamera(make, model string) string {
	make = strings.TrimSpace(make)
	model = strings.TrimSpace(model)

	if model == "" {
		return make
	}
	if make == "" || strings.HasPrefix(strings.ToLower(model), strings.ToLower(firstWord(make))) {
		return model
	}
	return make + " " + model
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}
