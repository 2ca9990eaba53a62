// Package decode selects a format-specific decoder, invokes it, and
// normalizes its output into the raster model.
package decode

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/imgforge/imgforge/pkg/raster"
)

// Format identifies a supported input format.
type Format int

const (
	FormatUnknown Format = iota
	FormatJpeg
	FormatPng
	FormatWebP
	FormatAvif
	FormatJpegXl
)

func (f Format) String() string {
	switch f {
	case FormatJpeg:
		return "jpeg"
	case FormatPng:
		return "png"
	case FormatWebP:
		return "webp"
	case FormatAvif:
		return "avif"
	case FormatJpegXl:
		return "jpegxl"
	}
	return "unknown"
}

// FormatError reports an unrecognized or missing file extension.
type FormatError struct {
	Ext string
}

func (e *FormatError) Error() string {
	if e.Ext == "" {
		return "no file extension"
	}
	return fmt.Sprintf("%s is not supported", e.Ext)
}

// ParseError reports a failure inside a format-specific decoder,
// including recovered native panics.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s decode: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DetectPath selects the format from the file extension,
// case-insensitively.
func DetectPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "jpg", "jpeg":
		return FormatJpeg, nil
	case "png":
		return FormatPng, nil
	case "webp":
		return FormatWebP, nil
	case "avif":
		return FormatAvif, nil
	case "jxl":
		return FormatJpegXl, nil
	}
	return FormatUnknown, &FormatError{Ext: ext}
}

// Sniff selects the format from leading magic bytes.
func Sniff(data []byte) (Format, bool) {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJpeg, true
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return FormatPng, true
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWebP, true
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		return FormatAvif, true
	case bytes.HasPrefix(data, []byte{0xFF, 0x0A}):
		return FormatJpegXl, true
	case bytes.HasPrefix(data, []byte("\x00\x00\x00\x0cJXL \r\n\x87\n")):
		return FormatJpegXl, true
	}
	return FormatUnknown, false
}

// File decodes the image at path, selecting the decoder from the file
// extension.
func File(path string) (*raster.Image, error) {
	format, err := DetectPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return Bytes(data, format)
}

// Bytes decodes an in-memory encoded image of the given format. Pass
// FormatUnknown to sniff the format from magic bytes.
func Bytes(data []byte, format Format) (*raster.Image, error) {
	if format == FormatUnknown {
		sniffed, ok := Sniff(data)
		if !ok {
			return nil, &FormatError{}
		}
		format = sniffed
	}

	var (
		img *raster.Image
		err error
	)
	switch format {
	case FormatJpeg:
		img, err = decodeJpeg(data)
	case FormatPng:
		img, err = decodePng(data)
	case FormatWebP:
		img, err = decodeWebP(data)
	case FormatAvif:
		img, err = decodeAvif(data)
	case FormatJpegXl:
		img, err = decodeJpegXl(data)
	default:
		return nil, &FormatError{Ext: format.String()}
	}
	if err != nil {
		return nil, err
	}

	if img.Meta.Orientation > 1 {
		if err := img.FixOrientation(); err != nil {
			return nil, &ParseError{Format: format, Err: err}
		}
	}
	if err := img.Validate(); err != nil {
		return nil, &ParseError{Format: format, Err: err}
	}
	return img, nil
}
