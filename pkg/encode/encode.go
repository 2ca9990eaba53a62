// Package encode converts the raster model into the byte layout each
// codec expects and drives the format-specific encoders. Dispatch is a
// closed switch over the codec enum; the codec set is fixed at compile
// time.
package encode

import (
	"fmt"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/raster"
)

// UnsupportedColorspaceError reports an image whose colorspace the
// selected encoder cannot take. It is raised before any native call.
type UnsupportedColorspaceError struct {
	Codec     config.Codec
	Actual    raster.ColorSpace
	Supported []raster.ColorSpace
}

func (e *UnsupportedColorspaceError) Error() string {
	return fmt.Sprintf("%s: colorspace %s not in supported set %v", e.Codec, e.Actual, e.Supported)
}

// DimensionOverflowError reports dimensions exceeding the integer width
// the codec's container can represent.
type DimensionOverflowError struct {
	Codec         config.Codec
	Width, Height int
	Max           int
}

func (e *DimensionOverflowError) Error() string {
	return fmt.Sprintf("%s: dimensions %dx%d exceed codec maximum %d", e.Codec, e.Width, e.Height, e.Max)
}

// EncodeError wraps any failure inside a format-specific encoder,
// including recovered native panics.
type EncodeError struct {
	Codec config.Codec
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s encode: %v", e.Codec, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// Encode produces the output bytes for img under cfg. The image is
// consumed read-only; the returned buffer is independent.
func Encode(img *raster.Image, cfg config.EncoderConfig) ([]byte, error) {
	if err := img.Validate(); err != nil {
		return nil, &EncodeError{Codec: cfg.Codec(), Err: err}
	}

	switch cfg.Codec() {
	case config.CodecJpeg:
		return encodeJpeg(img, cfg)
	case config.CodecPng:
		return encodePng(img, cfg, false)
	case config.CodecPngOpt:
		return encodePng(img, cfg, true)
	case config.CodecWebP:
		return encodeWebP(img, cfg)
	case config.CodecAvif:
		return encodeAvif(img, cfg)
	case config.CodecJpegXl:
		return encodeJpegXl(img, cfg)
	}
	return nil, &EncodeError{Codec: cfg.Codec(), Err: fmt.Errorf("unknown codec")}
}

// checkColorspace enforces the supported-set contract before any layout
// conversion or native call, so errors are precise and no partial native
// state is left behind.
func checkColorspace(codec config.Codec, img *raster.Image, supported []raster.ColorSpace) error {
	for _, cs := range supported {
		if cs == img.Color {
			return nil
		}
	}
	return &UnsupportedColorspaceError{Codec: codec, Actual: img.Color, Supported: supported}
}

func checkDimensions(codec config.Codec, img *raster.Image, max int) error {
	if img.Width > max || img.Height > max {
		return &DimensionOverflowError{Codec: codec, Width: img.Width, Height: img.Height, Max: max}
	}
	return nil
}
