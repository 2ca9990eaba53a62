package decode

import (
	"bytes"
	"image"

	// Registers the libheif decoder for AVIF/HEIF with image.Decode.
	_ "github.com/strukturag/libheif/go/heif"

	"github.com/imgforge/imgforge/pkg/guard"
	"github.com/imgforge/imgforge/pkg/raster"
)

// decodeAvif decodes an AVIF image through libheif. The native call runs
// inside a panic boundary like the JPEG path.
func decodeAvif(data []byte) (*raster.Image, error) {
	var out *raster.Image
	err := guard.Safely("avif decode", func() error {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return err
		}
		out, err = raster.FromImage(img)
		return err
	})
	if err != nil {
		return nil, &ParseError{Format: FormatAvif, Err: err}
	}
	return out, nil
}
