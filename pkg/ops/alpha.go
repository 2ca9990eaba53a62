package ops

import "github.com/imgforge/imgforge/pkg/raster"

// alphaColorspaces are the layouts carrying an alpha plane.
var alphaColorspaces = []raster.ColorSpace{
	raster.RGBA, raster.LumaA, raster.BGRA, raster.ARGB,
}

var alphaTypes = []raster.BitType{raster.U8, raster.U16, raster.F32}

// AlphaPremultiply scales every color plane by the alpha plane. Shape is
// unchanged.
type AlphaPremultiply struct{}

func (AlphaPremultiply) Kind() Kind                                { return KindAlphaPremultiply }
func (AlphaPremultiply) Name() string                              { return "alpha premultiply" }
func (AlphaPremultiply) isOp()                                     {}
func (AlphaPremultiply) SupportedColorspaces() []raster.ColorSpace { return alphaColorspaces }
func (AlphaPremultiply) SupportedTypes() []raster.BitType          { return alphaTypes }

func (AlphaPremultiply) apply(img *raster.Image) error {
	alphaIdx := img.Color.AlphaIndex()
	for fi := range img.Frames {
		f := &img.Frames[fi]
		alpha := &f.Channels[alphaIdx]
		n := alpha.Samples()
		for ci := range f.Channels {
			if ci == alphaIdx {
				continue
			}
			ch := &f.Channels[ci]
			for s := 0; s < n; s++ {
				ch.SetFloat(s, ch.Float(s)*alpha.Float(s))
			}
		}
	}
	return nil
}

// AlphaUnpremultiply reverses AlphaPremultiply. Fully transparent pixels
// stay zero.
type AlphaUnpremultiply struct{}

func (AlphaUnpremultiply) Kind() Kind                                { return KindAlphaUnpremultiply }
func (AlphaUnpremultiply) Name() string                              { return "alpha unpremultiply" }
func (AlphaUnpremultiply) isOp()                                     {}
func (AlphaUnpremultiply) SupportedColorspaces() []raster.ColorSpace { return alphaColorspaces }
func (AlphaUnpremultiply) SupportedTypes() []raster.BitType          { return alphaTypes }

func (AlphaUnpremultiply) apply(img *raster.Image) error {
	alphaIdx := img.Color.AlphaIndex()
	for fi := range img.Frames {
		f := &img.Frames[fi]
		alpha := &f.Channels[alphaIdx]
		n := alpha.Samples()
		for ci := range f.Channels {
			if ci == alphaIdx {
				continue
			}
			ch := &f.Channels[ci]
			for s := 0; s < n; s++ {
				a := alpha.Float(s)
				if a == 0 {
					ch.SetFloat(s, 0)
					continue
				}
				ch.SetFloat(s, ch.Float(s)/a)
			}
		}
	}
	return nil
}
