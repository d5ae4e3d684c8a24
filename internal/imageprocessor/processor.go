package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Info describes a decoded image header.
type Info struct {
	Format string // jpeg, png, gif
	Width  int
	Height int
}

// Processor downscales uploaded images.
type Processor struct {
	quality      int // JPEG quality (1-100)
	maxDimension int // 0 disables downscaling
}

func NewProcessor(quality, maxDimension int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	if maxDimension < 0 {
		maxDimension = 0
	}
	return &Processor{
		quality:      quality,
		maxDimension: maxDimension,
	}
}

// Inspect reads only the image header.
func Inspect(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// Fit returns data unchanged when it already fits within the maximum
// dimension, otherwise a downscaled re-encoding in the same format.
// GIFs are never re-encoded so animations survive.
func (p *Processor) Fit(data []byte) ([]byte, error) {
	info, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	if p.maxDimension == 0 || info.Format == "gif" {
		return data, nil
	}
	if info.Width <= p.maxDimension && info.Height <= p.maxDimension {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	resized := p.resize(img, p.maxDimension, p.maxDimension)

	var buf bytes.Buffer
	switch info.Format {
	case "jpeg":
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG: %w", err)
		}
	case "png":
		if err := png.Encode(&buf, resized); err != nil {
			return nil, fmt.Errorf("failed to encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported image format: %s", info.Format)
	}

	return buf.Bytes(), nil
}

// resize scales img to fit maxWidth x maxHeight keeping the aspect ratio.
func (p *Processor) resize(img image.Image, maxWidth, maxHeight int) image.Image {
	bounds := img.Bounds()
	ratio := float64(bounds.Dx()) / float64(bounds.Dy())

	newWidth := maxWidth
	newHeight := maxHeight
	if float64(maxWidth)/float64(maxHeight) > ratio {
		newWidth = int(float64(maxHeight) * ratio)
	} else {
		newHeight = int(float64(maxWidth) / ratio)
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}
