package raster

import (
	"fmt"
	"image"

	"github.com/disintegration/gift"
)

// orientFilters maps an EXIF orientation (2..8) to the transform that
// brings pixel data into display orientation. gift rotations are
// counter-clockwise.
func orientFilters(orientation int) gift.Filter {
	switch orientation {
	case 2:
		return gift.FlipHorizontal()
	case 3:
		return gift.Rotate180()
	case 4:
		return gift.FlipVertical()
	case 5:
		return gift.Transpose()
	case 6:
		return gift.Rotate270()
	case 7:
		return gift.Transverse()
	case 8:
		return gift.Rotate90()
	}
	return nil
}

// FixOrientation pre-rotates/flips the pixel data so Width/Height match
// the displayed orientation, then clears the orientation tag. Values
// outside 2..8 are a no-op.
func (im *Image) FixOrientation() error {
	f := orientFilters(im.Meta.Orientation)
	if f == nil {
		im.Meta.Orientation = 0
		return nil
	}

	g := gift.New(f)
	var outW, outH int
	for i := range im.Frames {
		src, err := im.FrameImage(i)
		if err != nil {
			return fmt.Errorf("orientation fix: %w", err)
		}
		bounds := g.Bounds(src.Bounds())
		dst := image.NewNRGBA64(bounds)
		g.Draw(dst, src)
		if err := im.SetFrameFromImage(i, dst); err != nil {
			return fmt.Errorf("orientation fix: %w", err)
		}
		outW, outH = bounds.Dx(), bounds.Dy()
	}

	im.Width, im.Height = outW, outH
	im.Meta.Orientation = 0
	return nil
}
