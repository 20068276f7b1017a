package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register gif
	"image/jpeg"
	_ "image/png" // register png
	"io"

	_ "golang.org/x/image/bmp"  // register bmp
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register webp
)

// Fit scales (w, h) down so neither side exceeds maxSide, keeping the aspect ratio.
func Fit(w, h, maxSide int) (int, int) {
	if w <= maxSide && h <= maxSide || w <= 0 || h <= 0 {
		return w, h
	}
	if w >= h {
		return maxSide, max(1, h*maxSide/w)
	}
	return max(1, w*maxSide/h), maxSide
}

// CompressImage resizes img to width x height and writes it as JPEG.
func CompressImage(img image.Image, out io.Writer, width, height, quality int) error {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// Normalized is the result of Normalize.
type Normalized struct {
	Data    []byte
	Format  string // decoder name: png, jpeg, gif, webp, bmp
	Width   int
	Height  int
	Resized bool
}

// Normalize decodes data and, when a side is larger than maxSide, downscales
// it and re-encodes it as JPEG. Smaller images are returned untouched.
func Normalize(data []byte, maxSide, quality int) (*Normalized, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), maxSide)
	if w == b.Dx() && h == b.Dy() {
		return &Normalized{Data: data, Format: format, Width: w, Height: h}, nil
	}

	var buf bytes.Buffer
	if err := CompressImage(img, &buf, w, h, quality); err != nil {
		return nil, err
	}
	return &Normalized{Data: buf.Bytes(), Format: "jpeg", Width: w, Height: h, Resized: true}, nil
}
