package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fatflowers/paygate/pkg/types"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestBound(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{2000, 1000, 800, 800, 400},
		{1000, 2000, 800, 400, 800},
		{800, 800, 800, 800, 800},
		{640, 480, 800, 640, 480},
		{1201, 3, 800, 800, 2},
		{5000, 1, 800, 800, 1},
		{1000, 333, 800, 800, 266},
	}
	for _, tt := range tests {
		w, h := Bound(tt.w, tt.h, tt.max)
		require.Equal(t, tt.wantW, w, "%dx%d", tt.w, tt.h)
		require.Equal(t, tt.wantH, h, "%dx%d", tt.w, tt.h)
	}
}

func TestNormalize_DownscalesJPEG(t *testing.T) {
	res, err := Normalize(encodeJPEG(t, 2000, 1000), types.ImageExtensionJPG, Limits{MaxDimension: 800})
	require.NoError(t, err)
	require.Equal(t, 800, res.Width)
	require.Equal(t, 400, res.Height)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, 800, cfg.Width)
	require.Equal(t, 400, cfg.Height)
}

func TestNormalize_KeepsSmallPNG(t *testing.T) {
	res, err := Normalize(encodePNG(t, 300, 200), types.ImageExtensionPNG, Limits{MaxDimension: 800})
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 300, cfg.Width)
	require.Equal(t, 200, cfg.Height)
}

func TestNormalize_ReencodesToExtensionFormat(t *testing.T) {
	res, err := Normalize(encodePNG(t, 100, 100), types.ImageExtensionJPEG, Limits{MaxDimension: 800})
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
}

func TestNormalize_RejectsGarbage(t *testing.T) {
	_, err := Normalize([]byte("definitely not an image"), types.ImageExtensionJPG, Limits{MaxDimension: 800})
	require.ErrorIs(t, err, ErrDecode)
}

// withDeclaredSize rewrites the IHDR dimensions of an encoded PNG, leaving the
// pixel data untouched.
func withDeclaredSize(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := bytes.Clone(data)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestNormalize_RejectsOversizedHeader(t *testing.T) {
	data := withDeclaredSize(t, encodePNG(t, 8, 8), 12000, 12000)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 12000, cfg.Width)

	_, err = Normalize(data, types.ImageExtensionPNG, Limits{MaxDimension: 800, MaxPixels: 40_000_000})
	require.ErrorIs(t, err, ErrDecode)
	require.Contains(t, err.Error(), "12000x12000")
}

func TestNormalize_PixelLimitIsInclusive(t *testing.T) {
	data := encodePNG(t, 300, 200)

	_, err := Normalize(data, types.ImageExtensionPNG, Limits{MaxDimension: 800, MaxPixels: 300 * 200})
	require.NoError(t, err)

	_, err = Normalize(data, types.ImageExtensionPNG, Limits{MaxDimension: 800, MaxPixels: 300*200 - 1})
	require.ErrorIs(t, err, ErrDecode)
}
