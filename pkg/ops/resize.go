package ops

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/nfnt/resize"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/raster"
)

// Resize resamples every frame to the config's target dimensions. Alpha
// is premultiplied before filtering and unpremultiplied after, so
// transparent edges do not bleed color; this is internal to the
// operation, independent of any user-requested premultiply bracketing.
type Resize struct {
	Config config.ResizeConfig
}

func (*Resize) Kind() Kind   { return KindResize }
func (*Resize) Name() string { return "resize" }
func (*Resize) isOp()        {}

func (*Resize) SupportedColorspaces() []raster.ColorSpace {
	return []raster.ColorSpace{raster.RGBA, raster.RGB, raster.Luma, raster.LumaA}
}

func (*Resize) SupportedTypes() []raster.BitType {
	return []raster.BitType{raster.U8, raster.U16}
}

func filterOf(f config.FilterType) resize.InterpolationFunction {
	switch f {
	case config.FilterPoint:
		return resize.NearestNeighbor
	case config.FilterTriangle:
		return resize.Bilinear
	case config.FilterCatmullRom:
		return resize.Bicubic
	case config.FilterMitchell:
		return resize.MitchellNetravali
	default:
		return resize.Lanczos3
	}
}

func (op *Resize) apply(img *raster.Image) error {
	dstW, dstH := op.Config.TargetDims(img.Width, img.Height)
	if dstW == img.Width && dstH == img.Height {
		return nil
	}
	if dstW <= 0 || dstH <= 0 {
		return fmt.Errorf("resize: target %dx%d collapses to zero", dstW, dstH)
	}

	filter := filterOf(op.Config.Filter())

	for i := range img.Frames {
		src, err := img.FrameImage(i)
		if err != nil {
			return fmt.Errorf("resize: %w", err)
		}

		// draw.Src into an alpha-premultiplied image premultiplies;
		// the resampler then filters premultiplied values.
		var premul image.Image
		if img.Bits == raster.U16 {
			dst := image.NewRGBA64(src.Bounds())
			draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
			premul = dst
		} else {
			dst := image.NewRGBA(src.Bounds())
			draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
			premul = dst
		}

		resized := resize.Resize(uint(dstW), uint(dstH), premul, filter)

		// SetFrameFromImage reads through the color model, which
		// unpremultiplies alpha on the way back to planes.
		if err := img.SetFrameFromImage(i, resized); err != nil {
			return fmt.Errorf("resize: %w", err)
		}
	}

	img.Width, img.Height = dstW, dstH
	return nil
}
