package encode

import (
	"bytes"
	"image/png"

	"github.com/cshum/vipsgen/vips"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/guard"
	"github.com/imgforge/imgforge/pkg/raster"
)

var jxlColorspaces = []raster.ColorSpace{
	raster.RGB, raster.RGBA, raster.Luma, raster.LumaA,
}

// encodeJpegXl goes through libvips: the frame is handed over as a
// lossless PNG buffer and saved back out as JPEG XL with the config's
// quality knobs.
func encodeJpegXl(img *raster.Image, cfg config.EncoderConfig) ([]byte, error) {
	if err := checkColorspace(config.CodecJpegXl, img, jxlColorspaces); err != nil {
		return nil, err
	}

	frame, err := img.FrameImage(0)
	if err != nil {
		return nil, &EncodeError{Codec: config.CodecJpegXl, Err: err}
	}

	var carrier bytes.Buffer
	if err := png.Encode(&carrier, frame); err != nil {
		return nil, &EncodeError{Codec: config.CodecJpegXl, Err: err}
	}

	var out []byte
	err = guard.Safely("jxl encode", func() error {
		vimg, err := vips.NewImageFromBuffer(carrier.Bytes(), &vips.LoadOptions{
			Access: vips.AccessSequential,
		})
		if err != nil {
			return err
		}
		defer vimg.Close()

		out, err = vimg.JxlsaveBuffer(&vips.JxlsaveBufferOptions{
			Q:        int(cfg.Quality()),
			Effort:   7,
			Lossless: cfg.Quality() >= 100,
		})
		return err
	})
	if err != nil {
		return nil, &EncodeError{Codec: config.CodecJpegXl, Err: err}
	}
	return out, nil
}
