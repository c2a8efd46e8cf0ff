package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/ternarybob/greattrades/internal/models"
)

// ErrTooManyPixels is wrapped by EncodingError when an image declares more
// pixels than the thumbnailer will decode
var ErrTooManyPixels = errors.New("image dimensions exceed the pixel limit")

// Thumbnailer produces the small JPEG previews stored with history items
type Thumbnailer struct {
	maxDimension int
	quality      int
	maxPixels    int64
}

// NewThumbnailer creates a thumbnailer bounding the longest side to maxDimension.
// Images whose header declares more than maxPixels are refused before decoding;
// maxPixels <= 0 disables the check.
func NewThumbnailer(maxDimension, quality int, maxPixels int64) *Thumbnailer {
	return &Thumbnailer{maxDimension: maxDimension, quality: quality, maxPixels: maxPixels}
}

// Thumbnail decodes img, scales it down to fit the bounding box and returns
// a data URL of the JPEG re-encoding. Images already small enough are not upscaled.
func (t *Thumbnailer) Thumbnail(img models.EncodedImage) (string, error) {
	data, err := img.Bytes()
	if err != nil {
		return "", &EncodingError{Source: "thumbnail", Err: err}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", &EncodingError{Source: "thumbnail", Err: fmt.Errorf("failed to read %s header: %w", img.MIMEType, err)}
	}
	if t.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > t.maxPixels {
		return "", &EncodingError{
			Source: "thumbnail",
			Err:    fmt.Errorf("%w (%dx%d, limit %d)", ErrTooManyPixels, cfg.Width, cfg.Height, t.maxPixels),
		}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", &EncodingError{Source: "thumbnail", Err: fmt.Errorf("failed to decode %s: %w", img.MIMEType, err)}
	}

	width, height := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), t.maxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))

	// JPEG has no alpha channel, so transparent regions become white
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: t.quality}); err != nil {
		return "", &EncodingError{Source: "thumbnail", Err: err}
	}

	return models.EncodedImage{
		Base64Data: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MIMEType:   "image/jpeg",
	}.DataURL(), nil
}

// fitWithin scales (w, h) so the longest side is at most max, keeping the aspect ratio
func fitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		scaled := h * max / w
		if scaled < 1 {
			scaled = 1
		}
		return max, scaled
	}
	scaled := w * max / h
	if scaled < 1 {
		scaled = 1
	}
	return scaled, max
}
