package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/fatflowers/paygate/pkg/types"
)

const jpegQuality = 90

var ErrDecode = errors.New("image data could not be decoded")

// Result is a re-encoded image together with its final dimensions.
type Result struct {
	Data   []byte
	Width  int
	Height int
}

// Bound scales (w, h) down so that the larger side is at most maxDim,
// preserving aspect ratio. Images already within bounds are returned as is.
func Bound(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		nh := max(int(float64(h)*float64(maxDim)/float64(w)+0.5), 1)
		return maxDim, nh
	}
	nw := max(int(float64(w)*float64(maxDim)/float64(h)+0.5), 1)
	return nw, maxDim
}

// Limits bound what Normalize accepts and produces.
type Limits struct {
	// MaxDimension is the largest side of the re-encoded image.
	MaxDimension int
	// MaxPixels caps the decoded width*height. Zero disables the check.
	MaxPixels int64
}

// Normalize decodes data, bounds its largest side and re-encodes it in the
// format named by ext. The header is checked against lim.MaxPixels before any
// pixel buffer is allocated.
func Normalize(data []byte, ext types.ImageExtension, lim Limits) (*Result, error) {
	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if lim.MaxPixels > 0 && int64(hdr.Width)*int64(hdr.Height) > lim.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, hdr.Width, hdr.Height, lim.MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	b := src.Bounds()
	w, h := Bound(b.Dx(), b.Dy(), lim.MaxDimension)
	var out image.Image = src
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	switch {
	case ext.IsJPEG():
		err = jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality})
	case ext == types.ImageExtensionPNG:
		err = png.Encode(&buf, out)
	default:
		return nil, fmt.Errorf("unsupported image extension: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &Result{Data: buf.Bytes(), Width: w, Height: h}, nil
}
