package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ternarybob/greattrades/internal/models"
)

// ErrNotAnImage is wrapped by EncodingError when the content is not an image
var ErrNotAnImage = errors.New("content is not an image")

// ErrEmptyImage is wrapped by EncodingError when there are no bytes to encode
var ErrEmptyImage = errors.New("image is empty")

// EncodingError reports an image that could not be read or encoded
type EncodingError struct {
	Source string
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to encode image %s: %v", e.Source, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

const octetStream = "application/octet-stream"

// Encoder turns chart images into base64 payloads for model requests
type Encoder struct {
	maxBytes int64
}

// NewEncoder creates an encoder. maxBytes <= 0 disables the size limit.
func NewEncoder(maxBytes int64) *Encoder {
	return &Encoder{maxBytes: maxBytes}
}

// EncodeFile reads and encodes the image at path
func (e *Encoder) EncodeFile(path string) (models.EncodedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.EncodedImage{}, &EncodingError{Source: path, Err: err}
	}
	defer f.Close()

	return e.EncodeReader(filepath.Base(path), f, "")
}

// EncodeReader reads r fully and encodes it
func (e *Encoder) EncodeReader(name string, r io.Reader, declaredMIME string) (models.EncodedImage, error) {
	var limited io.Reader = r
	if e.maxBytes > 0 {
		limited = io.LimitReader(r, e.maxBytes+1)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(limited); err != nil {
		return models.EncodedImage{}, &EncodingError{Source: name, Err: err}
	}

	return e.Encode(name, buf.Bytes(), declaredMIME)
}

// Encode base64-encodes data. The content is always sniffed: a sniffed image
// type wins, and a declared image/* type is only used when sniffing finds
// nothing more specific than octet-stream.
func (e *Encoder) Encode(name string, data []byte, declaredMIME string) (models.EncodedImage, error) {
	if len(data) == 0 {
		return models.EncodedImage{}, &EncodingError{Source: name, Err: ErrEmptyImage}
	}
	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		return models.EncodedImage{}, &EncodingError{
			Source: name,
			Err:    fmt.Errorf("image is larger than %d bytes", e.maxBytes),
		}
	}

	mimeType := normalizeMIME(mimetype.Detect(data).String())
	if !strings.HasPrefix(mimeType, "image/") {
		declared := normalizeMIME(declaredMIME)
		if mimeType != octetStream || !strings.HasPrefix(declared, "image/") {
			return models.EncodedImage{}, &EncodingError{
				Source: name,
				Err:    fmt.Errorf("%w (detected %s)", ErrNotAnImage, mimeType),
			}
		}
		mimeType = declared
	}

	return models.EncodedImage{
		Base64Data: base64.StdEncoding.EncodeToString(data),
		MIMEType:   mimeType,
	}, nil
}

// normalizeMIME drops parameters such as "; charset=binary"
func normalizeMIME(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
