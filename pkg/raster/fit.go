package raster

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// FitLong resizes img so its longer side is longPx pixels, keeping the
// aspect ratio, and flattens it onto white.
func FitLong(img image.Image, longPx int) *image.NRGBA {
	b := img.Bounds()
	var resized *image.NRGBA
	if b.Dx() >= b.Dy() {
		resized = imaging.Resize(img, longPx, 0, imaging.Lanczos)
	} else {
		resized = imaging.Resize(img, 0, longPx, imaging.Lanczos)
	}
	rb := resized.Bounds()
	bg := imaging.New(rb.Dx(), rb.Dy(), color.White)
	return imaging.Overlay(bg, resized, image.Pt(0, 0), 1.0)
}

// EncodePNG encodes img as PNG. Fully opaque images are written without an
// alpha channel.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
