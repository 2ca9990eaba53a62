package decode

import (
	"bytes"

	"github.com/chai2010/webp"

	"github.com/imgforge/imgforge/pkg/raster"
)

func decodeWebP(data []byte) (*raster.Image, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: FormatWebP, Err: err}
	}
	out, err := raster.FromImage(img)
	if err != nil {
		return nil, &ParseError{Format: FormatWebP, Err: err}
	}
	return out, nil
}
