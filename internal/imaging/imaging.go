// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging decodes uploaded images and produces JPEG thumbnails
// for board grids. JPEG, PNG, GIF, and WebP sources are accepted; WebP
// is decode-only. Images narrower than the target width are kept as-is
// to avoid upscaling.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ThumbWidth is the target width of board thumbnails in pixels.
const ThumbWidth = 480

// thumbQuality is the JPEG quality of generated thumbnails.
const thumbQuality = 80

// Decode parses image bytes and returns the decoded image and the
// detected format name ("jpeg", "png", "gif", "webp").
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("imaging: decode: %w", err)
	}
	return img, format, nil
}

// Sniff reports whether the bytes decode as a supported image and
// returns the format name. Used to validate uploads before storing.
func Sniff(data []byte) (string, bool) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	switch format {
	case "jpeg", "png", "gif", "webp":
		return format, true
	}
	return "", false
}

// Thumbnail scales the source image to ThumbWidth (preserving aspect
// ratio) and encodes it as JPEG. Sources at or below the target width
// are re-encoded without scaling.
func Thumbnail(src image.Image) ([]byte, error) {
	return ThumbnailWidth(src, ThumbWidth)
}

// ThumbnailWidth is Thumbnail with an explicit target width.
func ThumbnailWidth(src image.Image, width int) ([]byte, error) {
	bounds := src.Bounds()
	if width <= 0 || bounds.Dx() <= width {
		return encodeJPEG(src)
	}

	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return encodeJPEG(dst)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("imaging: encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
