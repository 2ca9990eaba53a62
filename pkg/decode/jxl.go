package decode

import (
	"bytes"

	"github.com/gen2brain/jpegxl"

	"github.com/imgforge/imgforge/pkg/raster"
)

func decodeJpegXl(data []byte) (*raster.Image, error) {
	img, err := jpegxl.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: FormatJpegXl, Err: err}
	}
	out, err := raster.FromImage(img)
	if err != nil {
		return nil, &ParseError{Format: FormatJpegXl, Err: err}
	}
	return out, nil
}
