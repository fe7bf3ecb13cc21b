package services

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Rendition target maximum edges. The longer edge is clamped to the
// target, the shorter one scales proportionally; images already within
// bounds are re-encoded without upscaling.
const (
	MicroMaxEdge  = 40
	SmallMaxEdge  = 400
	MediumMaxEdge = 1200

	thumbJPEGQuality = 85
)

// ThumbnailSet holds exactly three JPEG renditions of one original.
type ThumbnailSet struct {
	Micro  []byte
	Small  []byte
	Medium []byte
}

// ThumbnailService derives fixed-size renditions from an original image.
type ThumbnailService struct{}

func NewThumbnailService() *ThumbnailService {
	return &ThumbnailService{}
}

// Generate produces the micro/small/medium renditions. Failure here is
// fatal for the asset: no partial set is ever returned.
func (s *ThumbnailService) Generate(data []byte) (*ThumbnailSet, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	micro, err := renderEdge(img, MicroMaxEdge)
	if err != nil {
		return nil, fmt.Errorf("micro rendition: %w", err)
	}
	small, err := renderEdge(img, SmallMaxEdge)
	if err != nil {
		return nil, fmt.Errorf("small rendition: %w", err)
	}
	medium, err := renderEdge(img, MediumMaxEdge)
	if err != nil {
		return nil, fmt.Errorf("medium rendition: %w", err)
	}

	return &ThumbnailSet{Micro: micro, Small: small, Medium: medium}, nil
}

func renderEdge(img image.Image, maxEdge int) ([]byte, error) {
	bounds := img.Bounds()
	out := img
	if bounds.Dx() > maxEdge || bounds.Dy() > maxEdge {
		out = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(thumbJPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
