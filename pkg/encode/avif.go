package encode

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/strukturag/libheif/go/heif"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/guard"
	"github.com/imgforge/imgforge/pkg/raster"
)

var avifColorspaces = []raster.ColorSpace{
	raster.RGB, raster.RGBA, raster.Luma, raster.LumaA,
}

// encodeAvif drives libheif's AV1 path. The binding writes through the
// filesystem, so the context lands in a scratch file that is read back
// and removed.
func encodeAvif(img *raster.Image, cfg config.EncoderConfig) ([]byte, error) {
	if err := checkColorspace(config.CodecAvif, img, avifColorspaces); err != nil {
		return nil, err
	}

	frame, err := img.FrameImage(0)
	if err != nil {
		return nil, &EncodeError{Codec: config.CodecAvif, Err: err}
	}

	lossless := heif.LosslessModeDisabled
	if cfg.Quality() >= 100 {
		lossless = heif.LosslessModeEnabled
	}

	var out []byte
	err = guard.Safely("avif encode", func() error {
		ctx, err := heif.EncodeFromImage(frame, heif.CompressionAV1, int(cfg.Quality()), lossless, heif.LoggingLevelNone)
		if err != nil {
			return err
		}

		scratch := filepath.Join(os.TempDir(), "imgforge-"+uuid.NewString()+".avif")
		defer os.Remove(scratch)

		if err := ctx.WriteToFile(scratch); err != nil {
			return err
		}
		out, err = os.ReadFile(scratch)
		return err
	})
	if err != nil {
		return nil, &EncodeError{Codec: config.CodecAvif, Err: err}
	}
	return out, nil
}
