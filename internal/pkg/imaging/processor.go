// Package imaging normalises student photos shown on the scanner screen.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// Photo holds the encoded portrait and its thumbnail. Both are JPEG.
type Photo struct {
	Portrait  []byte
	Thumbnail []byte
	Width     int
	Height    int
}

// Config for image processing
type Config struct {
	PortraitSize int // square edge of the stored portrait
	ThumbSize    int // square edge of the scanner thumbnail
	Quality      int // JPEG quality 1-100
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		PortraitSize: 480,
		ThumbSize:    120,
		Quality:      85,
	}
}

// Processor handles image processing
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	return &Processor{config: config}
}

// Process decodes data, applies EXIF orientation and centre-crops it to
// square portrait and thumbnail variants.
func (p *Processor) Process(data []byte) (*Photo, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	portrait := p.square(img, p.config.PortraitSize)
	thumb := p.square(img, p.config.ThumbSize)

	out := &Photo{
		Width:  portrait.Bounds().Dx(),
		Height: portrait.Bounds().Dy(),
	}
	if out.Portrait, err = p.encode(portrait); err != nil {
		return nil, fmt.Errorf("failed to encode portrait: %w", err)
	}
	if out.Thumbnail, err = p.encode(thumb); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return out, nil
}

// square never upscales: small sources are cropped to their short edge.
func (p *Processor) square(img image.Image, size int) image.Image {
	b := img.Bounds()
	edge := size
	if short := min(b.Dx(), b.Dy()); short < edge {
		edge = short
	}
	return imaging.Fill(img, edge, edge, imaging.Center, imaging.Lanczos)
}

func (p *Processor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.config.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Paths returns storage keys for a student's portrait and thumbnail.
func Paths(schoolID, version string) (portrait, thumb string) {
	portrait = fmt.Sprintf("students/%s/photo_%s.jpg", schoolID, version)
	thumb = fmt.Sprintf("students/%s/photo_%s_thumb.jpg", schoolID, version)
	return
}
