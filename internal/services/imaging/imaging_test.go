package imaging

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/greattrades/internal/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 45, G: 212, B: 191, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncode_DeclaredMIME(t *testing.T) {
	data := pngBytes(t, 10, 10)

	img, err := NewEncoder(0).Encode("chart.png", data, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "image/png", img.MIMEType)
	assert.False(t, strings.HasPrefix(img.Base64Data, "data:"))
	decoded, err := base64.StdEncoding.DecodeString(img.Base64Data)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestEncode_SniffsWhenDeclaredTypeIsMissing(t *testing.T) {
	img, err := NewEncoder(0).Encode("chart", pngBytes(t, 4, 4), "application/octet-stream")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestEncode_Errors(t *testing.T) {
	encoder := NewEncoder(16)

	_, err := encoder.Encode("empty.png", nil, "image/png")
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = encoder.Encode("big.png", bytes.Repeat([]byte{1}, 17), "image/png")
	require.ErrorAs(t, err, &encErr)

	_, err = NewEncoder(0).Encode("notes.txt", []byte("hello world"), "")
	require.ErrorAs(t, err, &encErr)
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestEncode_DeclaredImageTypeIsSniffed(t *testing.T) {
	encoder := NewEncoder(0)

	_, err := encoder.Encode("notes.png", []byte("these are my trading notes, not a chart"), "image/png")
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.ErrorIs(t, err, ErrNotAnImage)

	img, err := encoder.Encode("chart.jpg", pngBytes(t, 4, 4), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType, "sniffed image type wins over the declared one")

	img, err = encoder.Encode("chart.heic", bytes.Repeat([]byte{1}, 32), "image/heic")
	require.NoError(t, err)
	assert.Equal(t, "image/heic", img.MIMEType, "unrecognised bytes keep the declared image type")

	_, err = encoder.Encode("blob", bytes.Repeat([]byte{1}, 32), "")
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestEncodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 8, 8), 0644))

	img, err := NewEncoder(0).EncodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	_, err = NewEncoder(0).EncodeFile(filepath.Join(t.TempDir(), "missing.png"))
	var encErr *EncodingError
	assert.ErrorAs(t, err, &encErr)
}

func TestThumbnail_ScalesLongestSide(t *testing.T) {
	img, err := NewEncoder(0).Encode("chart.png", pngBytes(t, 400, 200), "image/png")
	require.NoError(t, err)

	dataURL, err := NewThumbnailer(100, 80, 1_000_000).Thumbnail(img)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dataURL, "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestThumbnail_InvalidImage(t *testing.T) {
	img := models.EncodedImage{Base64Data: base64.StdEncoding.EncodeToString([]byte("nope")), MIMEType: "image/png"}

	_, err := NewThumbnailer(100, 80, 1_000_000).Thumbnail(img)
	var encErr *EncodingError
	assert.ErrorAs(t, err, &encErr)
}

// oversizedPNG returns a tiny PNG whose header claims width x height pixels
func oversizedPNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1)
	require.Equal(t, "IHDR", string(data[12:16]))

	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestThumbnail_RefusesOversizedDimensions(t *testing.T) {
	data := oversizedPNG(t, 20000, 20000)
	img, err := NewEncoder(1024).Encode("bomb.png", data, "image/png")
	require.NoError(t, err, "the byte limit alone lets it through")

	_, err = NewThumbnailer(100, 80, 40_000_000).Thumbnail(img)
	var encErr *EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.ErrorIs(t, err, ErrTooManyPixels)
	assert.Contains(t, err.Error(), "20000x20000")
}

func TestThumbnail_PixelLimitBoundary(t *testing.T) {
	img, err := NewEncoder(0).Encode("chart.png", pngBytes(t, 100, 50), "image/png")
	require.NoError(t, err)

	_, err = NewThumbnailer(100, 80, 5000).Thumbnail(img)
	assert.NoError(t, err)

	_, err = NewThumbnailer(100, 80, 4999).Thumbnail(img)
	assert.ErrorIs(t, err, ErrTooManyPixels)

	_, err = NewThumbnailer(100, 80, 0).Thumbnail(img)
	assert.NoError(t, err, "zero disables the limit")
}

func TestFitWithin(t *testing.T) {
	w, h := fitWithin(50, 20, 100)
	assert.Equal(t, []int{50, 20}, []int{w, h})

	w, h = fitWithin(300, 600, 100)
	assert.Equal(t, []int{50, 100}, []int{w, h})

	w, h = fitWithin(1000, 2, 100)
	assert.Equal(t, []int{100, 1}, []int{w, h})
}
