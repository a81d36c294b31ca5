package app

import (
	"bytes"
	"fmt"
)

// LogoInfo is the result of a successful logo validation.
type LogoInfo struct {
	Type string `json:"type"`
	Size int64  `json:"size"`
}

var acceptedLogoTypes = map[string]string{
	"image/jpeg": "image/jpeg",
	"image/jpg":  "image/jpeg", // common alias, normalized
	"image/png":  "image/png",
}

var (
	jpegMagic = []byte{0xFF, 0xD8}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47}
)

// ValidateLogo checks an uploaded logo image by size ceiling, declared
// MIME type and binary magic number. The declared type alone is never
// trusted: the sniffed signature must resolve and agree with it.
func (a *App) ValidateLogo(data []byte, declaredType string) (LogoInfo, error) {
	if int64(len(data)) > a.maxLogoBytes {
		return LogoInfo{}, &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("file size exceeds maximum allowed (%dMB)", a.maxLogoBytes>>20),
		}
	}
	normalized, ok := acceptedLogoTypes[declaredType]
	if !ok {
		return LogoInfo{}, &ValidationError{
			Field:   "file",
			Message: "invalid file type, only JPG, JPEG & PNG files are allowed",
		}
	}
	sniffed := sniffImageType(data)
	if sniffed == "" {
		return LogoInfo{}, &ValidationError{
			Field:   "file",
			Message: "file content does not match an accepted image format",
		}
	}
	if sniffed != normalized {
		return LogoInfo{}, &ValidationError{
			Field:   "file",
			Message: "file content does not match the declared type",
		}
	}
	return LogoInfo{Type: sniffed, Size: int64(len(data))}, nil
}

// sniffImageType classifies content by its leading bytes. Only JPEG and
// PNG signatures are recognized.
func sniffImageType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "image/png"
	case bytes.HasPrefix(data, jpegMagic):
		return "image/jpeg"
	default:
		return ""
	}
}
