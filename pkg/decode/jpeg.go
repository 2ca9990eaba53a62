package decode

import (
	"bytes"
	"encoding/binary"

	"github.com/gen2brain/jpegli"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/imgforge/imgforge/pkg/guard"
	"github.com/imgforge/imgforge/pkg/raster"
)

// decodeJpeg decodes a JPEG. The entropy decoder runs inside a panic
// boundary: a malformed stream must surface as a ParseError, never abort
// the batch.
func decodeJpeg(data []byte) (*raster.Image, error) {
	var out *raster.Image
	err := guard.Safely("jpeg decode", func() error {
		img, err := jpegli.Decode(bytes.NewReader(data))
		if err != nil {
			return err
		}
		out, err = raster.FromImage(img)
		return err
	})
	if err != nil {
		return nil, &ParseError{Format: FormatJpeg, Err: err}
	}

	// Orientation and ICC are best-effort side metadata.
	if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
		if tag, err := x.Get(exif.Orientation); err == nil {
			if o, err := tag.Int(0); err == nil {
				out.Meta.Orientation = o
			}
		}
	}
	out.Meta.ICC = jpegICC(data)

	return out, nil
}

// jpegICC extracts the ICC profile from APP2 "ICC_PROFILE" markers,
// concatenating multi-segment profiles in sequence order.
func jpegICC(data []byte) []byte {
	const header = "ICC_PROFILE\x00"

	type chunk struct {
		seq     int
		payload []byte
	}
	var chunks []chunk

	for i := 2; i+4 <= len(data); {
		if data[i] != 0xFF {
			break
		}
		marker := data[i+1]
		if marker == 0xD9 || marker == 0xDA { // EOI / SOS
			break
		}
		if marker == 0xD8 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		length := int(binary.BigEndian.Uint16(data[i+2:]))
		if length < 2 || i+2+length > len(data) {
			break
		}
		if marker == 0xE2 {
			seg := data[i+4 : i+2+length]
			if len(seg) > len(header)+2 && string(seg[:len(header)]) == header {
				chunks = append(chunks, chunk{
					seq:     int(seg[len(header)]),
					payload: seg[len(header)+2:],
				})
			}
		}
		i += 2 + length
	}

	if len(chunks) == 0 {
		return nil
	}
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && chunks[j].seq < chunks[j-1].seq; j-- {
			chunks[j], chunks[j-1] = chunks[j-1], chunks[j]
		}
	}
	var icc []byte
	for _, c := range chunks {
		icc = append(icc, c.payload...)
	}
	return icc
}
