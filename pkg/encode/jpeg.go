package encode

import (
	"bytes"
	"image"

	"github.com/gen2brain/jpegli"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/guard"
	"github.com/imgforge/imgforge/pkg/raster"
)

// jpegMaxDim is the JPEG container's dimension limit (16-bit fields).
const jpegMaxDim = 65535

var jpegColorspaces = []raster.ColorSpace{
	raster.RGB, raster.RGBA, raster.Luma, raster.LumaA,
}

// encodeJpeg flattens the first frame to packed 8-bit samples and runs
// the jpegli encoder. Compression may panic on malformed internal state,
// so the native call sits inside a panic boundary and any payload comes
// back as a generic EncodeError.
func encodeJpeg(img *raster.Image, cfg config.EncoderConfig) ([]byte, error) {
	if err := checkColorspace(config.CodecJpeg, img, jpegColorspaces); err != nil {
		return nil, err
	}
	if err := checkDimensions(config.CodecJpeg, img, jpegMaxDim); err != nil {
		return nil, err
	}

	var frame image.Image
	if img.Color == raster.Luma && img.Bits == raster.U8 {
		// Keep grayscale native instead of expanding to RGB.
		gray := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
		copy(gray.Pix, img.Frames[0].Channels[0].Data)
		frame = gray
	} else {
		fi, err := img.FrameImage(0)
		if err != nil {
			return nil, &EncodeError{Codec: config.CodecJpeg, Err: err}
		}
		frame = fi
	}

	opts := &jpegli.EncodingOptions{
		Quality:          int(cfg.Quality()),
		ProgressiveLevel: cfg.Progressive(),
		OptimizeCoding:   cfg.OptimizeCoding(),
	}

	var buf bytes.Buffer
	err := guard.Safely("jpeg encode", func() error {
		return jpegli.Encode(&buf, frame, opts)
	})
	if err != nil {
		return nil, &EncodeError{Codec: config.CodecJpeg, Err: err}
	}
	return buf.Bytes(), nil
}
