package app

import (
	"bytes"
	"errors"
	"testing"
)

func validJPEG() []byte {
	return append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x00}, 64)...)
}

func validPNG() []byte {
	return append([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, bytes.Repeat([]byte{0x00}, 64)...)
}

func TestValidateLogoAcceptsJPEG(t *testing.T) {
	a, err := newTestApp(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := a.ValidateLogo(validJPEG(), "image/jpeg")
	if err != nil {
		t.Fatalf("ValidateLogo: %v", err)
	}
	if info.Type != "image/jpeg" {
		t.Errorf("type = %q, want image/jpeg", info.Type)
	}
	if info.Size != int64(len(validJPEG())) {
		t.Errorf("size = %d, want %d", info.Size, len(validJPEG()))
	}
}

func TestValidateLogoNormalizesJPGAlias(t *testing.T) {
	a, err := newTestApp(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := a.ValidateLogo(validJPEG(), "image/jpg")
	if err != nil {
		t.Fatalf("ValidateLogo: %v", err)
	}
	if info.Type != "image/jpeg" {
		t.Errorf("type = %q, want normalized image/jpeg", info.Type)
	}
}

func TestValidateLogoAcceptsPNG(t *testing.T) {
	a, err := newTestApp(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	info, err := a.ValidateLogo(validPNG(), "image/png")
	if err != nil {
		t.Fatalf("ValidateLogo: %v", err)
	}
	if info.Type != "image/png" {
		t.Errorf("type = %q, want image/png", info.Type)
	}
}

func TestValidateLogoRejectsDeclaredSniffedMismatch(t *testing.T) {
	a, err := newTestApp(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// PNG bytes declared as JPEG must be rejected even though both
	// formats are individually accepted.
	_, err = a.ValidateLogo(validPNG(), "image/jpeg")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidateLogoRejectsUnknownDeclaredType(t *testing.T) {
	a, err := newTestApp(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = a.ValidateLogo(validPNG(), "image/gif")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidateLogoRejectsUnrecognizedContent(t *testing.T) {
	a, err := newTestApp(Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = a.ValidateLogo([]byte("GIF89a not an accepted image"), "image/png")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestValidateLogoRejectsOversize(t *testing.T) {
	a, err := newTestApp(Config{MaxLogoBytes: 32})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = a.ValidateLogo(validPNG(), "image/png")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
