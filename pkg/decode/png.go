package decode

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image/png"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/imgforge/imgforge/pkg/raster"
)

// decodePng decodes a PNG. Reduced color types (grayscale, gray+alpha,
// rgb, indexed) are expanded to the full channel set during
// normalization; indexed images go through the palette table.
func decodePng(data []byte) (*raster.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: FormatPng, Err: err}
	}

	out, err := raster.FromImage(img)
	if err != nil {
		return nil, &ParseError{Format: FormatPng, Err: err}
	}
	out.Meta.ICC = pngICC(data)
	return out, nil
}

// pngICC extracts the profile from an iCCP chunk, if present.
func pngICC(data []byte) []byte {
	for _, c := range pngChunks(data) {
		if c.typ != "iCCP" {
			continue
		}
		// layout: profile name, NUL, compression method byte, zlib data
		nul := bytes.IndexByte(c.data, 0)
		if nul < 0 || nul+2 >= len(c.data) {
			return nil
		}
		zr, err := zlib.NewReader(bytes.NewReader(c.data[nul+2:]))
		if err != nil {
			return nil
		}
		defer zr.Close()
		icc, err := io.ReadAll(zr)
		if err != nil {
			return nil
		}
		return icc
	}
	return nil
}

type pngChunk struct {
	typ  string
	data []byte
}

// pngChunks walks the chunk stream, skipping entries with bad CRCs.
func pngChunks(data []byte) []pngChunk {
	const sigLen = 8
	var chunks []pngChunk
	for i := sigLen; i+12 <= len(data); {
		length := int(binary.BigEndian.Uint32(data[i:]))
		if i+12+length > len(data) {
			break
		}
		typ := string(data[i+4 : i+8])
		body := data[i+8 : i+8+length]
		crc := binary.BigEndian.Uint32(data[i+8+length:])
		if crc32.ChecksumIEEE(data[i+4:i+8+length]) == crc {
			chunks = append(chunks, pngChunk{typ: typ, data: body})
		}
		i += 12 + length
		if typ == "IEND" {
			break
		}
	}
	return chunks
}
