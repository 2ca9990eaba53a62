package encode

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/raster"
)

var pngColorspaces = []raster.ColorSpace{
	raster.Luma, raster.LumaA, raster.RGB, raster.RGBA,
}

// encodePng writes a baseline PNG; when optimize is set the result is
// additionally run through recompressPng and the smallest valid output
// wins.
func encodePng(img *raster.Image, cfg config.EncoderConfig, optimize bool) ([]byte, error) {
	codec := config.CodecPng
	if optimize {
		codec = config.CodecPngOpt
	}
	if err := checkColorspace(codec, img, pngColorspaces); err != nil {
		return nil, err
	}

	frame, err := pngFrame(img)
	if err != nil {
		return nil, &EncodeError{Codec: codec, Err: err}
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, frame); err != nil {
		return nil, &EncodeError{Codec: codec, Err: err}
	}
	out := buf.Bytes()

	if optimize {
		if smaller, err := recompressPng(out); err == nil && len(smaller) < len(out) {
			out = smaller
		}
	}
	return out, nil
}

// pngFrame builds the stdlib image matching the raster layout so the PNG
// color type stays faithful (gray stays gray, 16-bit stays 16-bit).
func pngFrame(img *raster.Image) (image.Image, error) {
	w, h := img.Width, img.Height
	f := &img.Frames[0]

	if img.Color == raster.Luma {
		if img.Bits == raster.U8 {
			gray := image.NewGray(image.Rect(0, 0, w, h))
			copy(gray.Pix, f.Channels[0].Data)
			return gray, nil
		}
		if img.Bits == raster.U16 {
			gray := image.NewGray16(image.Rect(0, 0, w, h))
			for i := 0; i < w*h; i++ {
				v := raster.NativeEndian.Uint16(f.Channels[0].Data[i*2:])
				gray.Pix[i*2] = uint8(v >> 8)
				gray.Pix[i*2+1] = uint8(v)
			}
			return gray, nil
		}
	}

	return img.FrameImage(0)
}

// recompressPng re-deflates the IDAT stream at maximum compression and
// rebuilds the chunk stream around it. Ancillary chunks are preserved.
func recompressPng(data []byte) ([]byte, error) {
	const sig = "\x89PNG\r\n\x1a\n"
	if !bytes.HasPrefix(data, []byte(sig)) {
		return nil, io.ErrUnexpectedEOF
	}

	type chunk struct {
		typ  string
		body []byte
	}
	var (
		chunks []chunk
		idat   []byte
	)
	for i := len(sig); i+12 <= len(data); {
		length := int(binary.BigEndian.Uint32(data[i:]))
		if i+12+length > len(data) {
			return nil, io.ErrUnexpectedEOF
		}
		typ := string(data[i+4 : i+8])
		body := data[i+8 : i+8+length]
		if typ == "IDAT" {
			idat = append(idat, body...)
		} else {
			chunks = append(chunks, chunk{typ: typ, body: body})
		}
		i += 12 + length
		if typ == "IEND" {
			break
		}
	}
	if len(idat) == 0 {
		return nil, io.ErrUnexpectedEOF
	}

	zr, err := zlib.NewReader(bytes.NewReader(idat))
	if err != nil {
		return nil, err
	}
	rawPixels, err := io.ReadAll(zr)
	zr.Close()
	if err != nil {
		return nil, err
	}

	var recompressed bytes.Buffer
	zw, err := zlib.NewWriterLevel(&recompressed, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(rawPixels); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.WriteString(sig)
	writeChunk := func(typ string, body []byte) {
		var hdr [8]byte
		binary.BigEndian.PutUint32(hdr[:4], uint32(len(body)))
		copy(hdr[4:], typ)
		out.Write(hdr[:])
		out.Write(body)
		crc := crc32.NewIEEE()
		crc.Write([]byte(typ))
		crc.Write(body)
		var tail [4]byte
		binary.BigEndian.PutUint32(tail[:], crc.Sum32())
		out.Write(tail[:])
	}
	for _, c := range chunks {
		if c.typ == "IEND" {
			writeChunk("IDAT", recompressed.Bytes())
		}
		writeChunk(c.typ, c.body)
	}
	return out.Bytes(), nil
}
