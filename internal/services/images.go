package services

import (
	"errors"

	"shareplace_backend/internal/assets"
	"shareplace_backend/internal/imageprocessor"
)

// imagePolicy validates and normalizes uploaded images before any I/O.
type imagePolicy struct {
	assets    assets.AssetStore
	processor *imageprocessor.Processor
}

// prepare returns the image to store and its extension. Problems are added
// to errs under "image".
func (p *imagePolicy) prepare(image []byte, errs map[string]string) ([]byte, string) {
	if image == nil {
		errs["image"] = "This field is required"
		return nil, ""
	}

	ext, err := p.assets.Check(image)
	if err != nil {
		switch {
		case errors.Is(err, assets.ErrEmptyFile):
			errs["image"] = "File is empty"
		case errors.Is(err, assets.ErrFileTooLarge):
			errs["image"] = "File is too large"
		default:
			errs["image"] = "Unsupported file type, allowed: jpeg, png, gif"
		}
		return nil, ""
	}

	if p.processor == nil {
		return image, ext
	}

	fitted, err := p.processor.Fit(image)
	if err != nil {
		errs["image"] = "Could not read image"
		return nil, ""
	}
	return fitted, ext
}
