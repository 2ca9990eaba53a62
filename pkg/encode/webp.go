package encode

import (
	"bytes"

	"github.com/chai2010/webp"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/guard"
	"github.com/imgforge/imgforge/pkg/raster"
)

// webpMaxDim is the WebP container's dimension limit (14-bit fields).
const webpMaxDim = 16383

var webpColorspaces = []raster.ColorSpace{
	raster.RGB, raster.RGBA, raster.Luma, raster.LumaA,
}

func encodeWebP(img *raster.Image, cfg config.EncoderConfig) ([]byte, error) {
	if err := checkColorspace(config.CodecWebP, img, webpColorspaces); err != nil {
		return nil, err
	}
	if err := checkDimensions(config.CodecWebP, img, webpMaxDim); err != nil {
		return nil, err
	}

	frame, err := img.FrameImage(0)
	if err != nil {
		return nil, &EncodeError{Codec: config.CodecWebP, Err: err}
	}

	opts := &webp.Options{
		Quality:  float32(cfg.Quality()),
		Lossless: cfg.Quality() >= 100,
	}

	var buf bytes.Buffer
	err = guard.Safely("webp encode", func() error {
		return webp.Encode(&buf, frame, opts)
	})
	if err != nil {
		return nil, &EncodeError{Codec: config.CodecWebP, Err: err}
	}
	return buf.Bytes(), nil
}
