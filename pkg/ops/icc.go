package ops

import (
	"fmt"

	"github.com/imgforge/imgforge/pkg/raster"
)

// ICCTransformer performs the actual colorimetric transform between two
// profiles on packed pixel data, in place. The transform mathematics are
// an external collaborator; this package only enforces the operation's
// contract around it.
type ICCTransformer interface {
	Transform(srcProfile, dstProfile []byte, cs raster.ColorSpace, bits raster.BitType, pixels []byte) error
}

// ApplyICC converts the image from its embedded profile (sRGB assumed
// when none is embedded) to Profile, then records Profile as the image's
// profile.
type ApplyICC struct {
	// Profile is the target ICC profile bytes.
	Profile []byte
	// Transformer does the pixel math. Nil leaves pixels untouched and
	// only rewrites the profile metadata.
	Transformer ICCTransformer
}

func (*ApplyICC) Kind() Kind   { return KindApplyICC }
func (*ApplyICC) Name() string { return "apply icc profile" }
func (*ApplyICC) isOp()        {}

func (*ApplyICC) SupportedColorspaces() []raster.ColorSpace {
	return []raster.ColorSpace{
		raster.RGB, raster.RGBA, raster.Luma, raster.LumaA, raster.CMYK,
		raster.YCbCr, raster.BGR, raster.BGRA, raster.ARGB, raster.HSV,
	}
}

func (*ApplyICC) SupportedTypes() []raster.BitType {
	return []raster.BitType{raster.U8, raster.U16}
}

func (op *ApplyICC) apply(img *raster.Image) error {
	if op.Transformer != nil {
		src := img.Meta.ICC // nil means sRGB
		for i := range img.Frames {
			pixels, err := img.Interleaved(i)
			if err != nil {
				return fmt.Errorf("apply icc: %w", err)
			}
			if err := op.Transformer.Transform(src, op.Profile, img.Color, img.Bits, pixels); err != nil {
				return fmt.Errorf("apply icc: %w", err)
			}
			if err := img.SetInterleaved(i, pixels); err != nil {
				return fmt.Errorf("apply icc: %w", err)
			}
		}
	}

	img.Meta.ICC = append([]byte(nil), op.Profile...)
	return nil
}
