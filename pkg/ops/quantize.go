package ops

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/makeworld-the-better-one/dither/v2"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/raster"
)

// Quantize reduces the image to a fixed-size palette. The palette is
// global: for animated images it is built from a histogram spanning all
// frames, and every frame is remapped against that shared palette. Lossy
// and irreversible.
type Quantize struct {
	Config config.QuantizationConfig
}

func (*Quantize) Kind() Kind   { return KindQuantize }
func (*Quantize) Name() string { return "quantize" }
func (*Quantize) isOp()        {}

func (*Quantize) SupportedColorspaces() []raster.ColorSpace {
	return []raster.ColorSpace{raster.RGBA}
}

func (*Quantize) SupportedTypes() []raster.BitType {
	return []raster.BitType{raster.U8}
}

// paletteSize maps quality 0..100 onto a palette of 2..256 colors.
func paletteSize(quality int) int {
	return 2 + (254*quality)/100
}

func (op *Quantize) apply(img *raster.Image) error {
	frames := make([]*image.NRGBA, len(img.Frames))
	for i := range img.Frames {
		fi, err := img.FrameImage(i)
		if err != nil {
			return fmt.Errorf("quantize: %w", err)
		}
		frames[i] = fi.(*image.NRGBA)
	}

	// One histogram across all frames: stack them vertically and feed
	// the composite to the quantizer.
	histogram := frames[0]
	if len(frames) > 1 {
		histogram = image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height*len(frames)))
		for i, f := range frames {
			r := image.Rect(0, i*img.Height, img.Width, (i+1)*img.Height)
			draw.Draw(histogram, r, f, f.Bounds().Min, draw.Src)
		}
	}

	q := quantize.MedianCutQuantizer{AddTransparent: true}
	palette := q.Quantize(make([]color.Color, 0, paletteSize(op.Config.Quality())), histogram)
	if len(palette) == 0 {
		return fmt.Errorf("quantize: empty palette")
	}

	for i, f := range frames {
		remapped := remap(f, palette, op.Config.Dithering())
		if err := img.SetFrameFromImage(i, remapped); err != nil {
			return fmt.Errorf("quantize: %w", err)
		}
	}
	return nil
}

func remap(src *image.NRGBA, palette color.Palette, level float64) image.Image {
	if level > 0 {
		d := dither.NewDitherer(palette)
		d.Matrix = dither.ErrorDiffusionStrength(dither.FloydSteinberg, float32(level))
		return d.DitherCopy(src)
	}

	b := src.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, palette.Convert(src.At(x, y)))
		}
	}
	return out
}
