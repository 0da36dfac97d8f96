// Package imageprep shrinks uploaded photos before they are sent for
// inference.
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"github.com/apex/log"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

const jpegQuality = 85

// Orientation reads the EXIF orientation tag. Images without EXIF data
// report 1 (upright).
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Upright applies an EXIF orientation so the pixels are stored the way the
// photo is meant to be viewed.
func Upright(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := mapPixel(orientation, x, y, w, h)
			dst.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// mapPixel gives the destination of source pixel (x, y) for a w*h image.
func mapPixel(orientation, x, y, w, h int) (int, int) {
	switch orientation {
	case 2:
		return w - 1 - x, y
	case 3:
		return w - 1 - x, h - 1 - y
	case 4:
		return x, h - 1 - y
	case 5:
		return y, x
	case 6:
		return h - 1 - y, x
	case 7:
		return h - 1 - y, w - 1 - x
	case 8:
		return y, w - 1 - x
	}
	return x, y
}

// Prepare decodes an image, rotates it upright and scales it so neither side
// exceeds maxDimension. The result is always JPEG. An upright JPEG that
// already fits is returned unchanged.
func Prepare(data []byte, maxDimension int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	orientation := 1
	if format == "jpeg" {
		orientation = Orientation(data)
	}
	img = Upright(img, orientation)

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	fits := maxDimension <= 0 || (width <= maxDimension && height <= maxDimension)
	if fits && orientation == 1 && format == "jpeg" {
		return data, nil
	}

	newWidth, newHeight := width, height
	if !fits {
		newWidth, newHeight = scaledSize(width, height, maxDimension)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	log.WithFields(log.Fields{
		"format":      format,
		"orientation": orientation,
		"original":    fmt.Sprintf("%dx%d", width, height),
		"resized":     fmt.Sprintf("%dx%d", newWidth, newHeight),
		"bytes_in":    len(data),
		"bytes_out":   buf.Len(),
	}).Debug("image.prepared")

	return buf.Bytes(), nil
}

// scaledSize fits width x height inside a limit x limit box keeping the aspect
// ratio. Neither side drops below one pixel.
func scaledSize(width, height, limit int) (int, int) {
	scale := float64(limit) / float64(width)
	if s := float64(limit) / float64(height); s < scale {
		scale = s
	}
	w := int(float64(width) * scale)
	h := int(float64(height) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w > limit {
		w = limit
	}
	if h > limit {
		h = limit
	}
	return w, h
}
