// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package picker loads and bounds local photos for inline sending.
package picker

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoding
	"image/jpeg"
	_ "image/png" // register PNG decoding
	"os"
	"strings"

	"golang.org/x/image/draw"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options bound the encoded payload size of a picked photo.
type Options struct {
	// MaxWidth and MaxHeight bound the pixel dimensions; larger photos are
	// downscaled preserving aspect ratio.
	MaxWidth  int
	MaxHeight int

	// Quality is the JPEG re-encode quality (1-100).
	Quality int

	// MaxBytes bounds the encoded JPEG size. Zero means unlimited.
	MaxBytes int
}

// DefaultOptions matches the payload bounds of the chat backend: photos are
// reduced to at most 500x500 at half quality, and the encoded result must
// stay well under the backend's 1MB document limit.
func DefaultOptions() Options {
	return Options{
		MaxWidth:  500,
		MaxHeight: 500,
		Quality:   50,
		MaxBytes:  700 * 1024,
	}
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrCancelled means the user dismissed the picker without choosing a
	// photo. Callers treat it as a silent no-op, never as a failure.
	ErrCancelled = errors.New("photo pick cancelled")

	// ErrTooLarge means the photo could not be bounded below MaxBytes even
	// after downscaling and re-encoding.
	ErrTooLarge = errors.New("photo too large to send")
)

// =============================================================================
// PICKER
// =============================================================================

// PickPhoto loads the photo at path and returns it as a base64 data URI
// suitable for inlining into a message document. An empty (post-trim) path
// means the user cancelled and yields ErrCancelled.
func PickPhoto(path string, opts Options) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", ErrCancelled
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unsupported image format: %w", err)
	}

	src = downscale(src, opts.MaxWidth, opts.MaxHeight)

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 50
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("failed to encode photo: %w", err)
	}

	if opts.MaxBytes > 0 && buf.Len() > opts.MaxBytes {
		return "", ErrTooLarge
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// downscale fits img inside maxW x maxH preserving aspect ratio. Images
// already inside the bounds are returned unchanged.
func downscale(img image.Image, maxW, maxH int) image.Image {
	if maxW <= 0 || maxH <= 0 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	// Scale by the tighter dimension.
	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}

	dstW := int(float64(w) * scale)
	dstH := int(float64(h) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
