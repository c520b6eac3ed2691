// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package picker

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestImage writes a solid-color PNG of the given size and returns its
// path.
func writeTestImage(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

// decodeDataURI decodes the picked result back into an image for assertions.
func decodeDataURI(t *testing.T, uri string) image.Image {
	t.Helper()
	const prefix = "data:image/jpeg;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("data URI prefix = %q, want %q...", uri[:min(len(uri), 30)], prefix)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("base64 decode failed: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("decoding picked image failed: %v", err)
	}
	return img
}

// =============================================================================
// PICK TESTS
// =============================================================================

func TestPickPhoto_Cancelled(t *testing.T) {
	for _, path := range []string{"", "   ", "\t"} {
		if _, err := PickPhoto(path, DefaultOptions()); !errors.Is(err, ErrCancelled) {
			t.Errorf("PickPhoto(%q) = %v, want ErrCancelled", path, err)
		}
	}
}

func TestPickPhoto_SmallImagePassesThrough(t *testing.T) {
	path := writeTestImage(t, 100, 80)

	uri, err := PickPhoto(path, DefaultOptions())
	if err != nil {
		t.Fatalf("PickPhoto failed: %v", err)
	}

	img := decodeDataURI(t, uri)
	b := img.Bounds()
	if b.Dx() != 100 || b.Dy() != 80 {
		t.Errorf("dimensions = %dx%d, want 100x80 (no upscale, no downscale)", b.Dx(), b.Dy())
	}
}

func TestPickPhoto_DownscalesLargeImage(t *testing.T) {
	path := writeTestImage(t, 1200, 800)

	uri, err := PickPhoto(path, DefaultOptions())
	if err != nil {
		t.Fatalf("PickPhoto failed: %v", err)
	}

	img := decodeDataURI(t, uri)
	b := img.Bounds()
	if b.Dx() > 500 || b.Dy() > 500 {
		t.Errorf("dimensions = %dx%d, want both <= 500", b.Dx(), b.Dy())
	}
	// Aspect ratio preserved: 1200x800 scales to 500x333.
	if b.Dx() != 500 || b.Dy() != 333 {
		t.Errorf("dimensions = %dx%d, want 500x333", b.Dx(), b.Dy())
	}
}

func TestPickPhoto_EnforcesMaxBytes(t *testing.T) {
	path := writeTestImage(t, 400, 400)

	opts := DefaultOptions()
	opts.MaxBytes = 64 // absurdly small: force the rejection path

	if _, err := PickPhoto(path, opts); !errors.Is(err, ErrTooLarge) {
		t.Errorf("PickPhoto = %v, want ErrTooLarge", err)
	}
}

func TestPickPhoto_MissingFile(t *testing.T) {
	_, err := PickPhoto(filepath.Join(t.TempDir(), "nope.jpg"), DefaultOptions())
	if err == nil {
		t.Fatal("missing file should fail")
	}
	if errors.Is(err, ErrCancelled) {
		t.Error("missing file is a failure, not a cancellation")
	}
}

func TestPickPhoto_NotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := PickPhoto(path, DefaultOptions()); err == nil {
		t.Error("non-image file should fail to decode")
	}
}
