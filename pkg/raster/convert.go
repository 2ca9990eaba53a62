package raster

import (
	"fmt"
	"image"
	"image/color"
)

// FromImage normalizes a stdlib image into the planar model. Reduced color
// types are expanded up to the full channel set of the resulting
// colorspace: grayscale stays Luma, palette and premultiplied variants
// expand to RGBA, YCbCr expands to RGB.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", w, h)
	}

	switch img := src.(type) {
	case *image.Gray:
		out, _ := New(w, h, Luma, U8)
		plane := out.Frames[0].Channels[0].Data
		for y := 0; y < h; y++ {
			copy(plane[y*w:(y+1)*w], img.Pix[y*img.Stride:y*img.Stride+w])
		}
		return out, nil

	case *image.Gray16:
		out, _ := New(w, h, Luma, U16)
		ch := &out.Frames[0].Channels[0]
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride:]
			for x := 0; x < w; x++ {
				// Gray16 stores big-endian samples.
				v := uint16(row[x*2])<<8 | uint16(row[x*2+1])
				NativeEndian.PutUint16(ch.Data[(y*w+x)*2:], v)
			}
		}
		return out, nil

	case *image.NRGBA:
		out, _ := New(w, h, RGBA, U8)
		chs := out.Frames[0].Channels
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride:]
			for x := 0; x < w; x++ {
				i := y*w + x
				chs[0].Data[i] = row[x*4]
				chs[1].Data[i] = row[x*4+1]
				chs[2].Data[i] = row[x*4+2]
				chs[3].Data[i] = row[x*4+3]
			}
		}
		return out, nil

	case *image.NRGBA64:
		out, _ := New(w, h, RGBA, U16)
		chs := out.Frames[0].Channels
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride:]
			for x := 0; x < w; x++ {
				i := y*w + x
				for c := 0; c < 4; c++ {
					v := uint16(row[x*8+c*2])<<8 | uint16(row[x*8+c*2+1])
					NativeEndian.PutUint16(chs[c].Data[i*2:], v)
				}
			}
		}
		return out, nil

	case *image.CMYK:
		out, _ := New(w, h, CMYK, U8)
		chs := out.Frames[0].Channels
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride:]
			for x := 0; x < w; x++ {
				i := y*w + x
				chs[0].Data[i] = row[x*4]
				chs[1].Data[i] = row[x*4+1]
				chs[2].Data[i] = row[x*4+2]
				chs[3].Data[i] = row[x*4+3]
			}
		}
		return out, nil

	case *image.YCbCr:
		out, _ := New(w, h, RGB, U8)
		chs := out.Frames[0].Channels
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				c := img.YCbCrAt(b.Min.X+x, b.Min.Y+y)
				r, g, bb := color.YCbCrToRGB(c.Y, c.Cb, c.Cr)
				chs[0].Data[i] = r
				chs[1].Data[i] = g
				chs[2].Data[i] = bb
			}
		}
		return out, nil

	case *image.Paletted:
		// Expand indexed pixels through the palette table.
		out, _ := New(w, h, RGBA, U8)
		chs := out.Frames[0].Channels
		lut := make([][4]uint8, len(img.Palette))
		for pi, pc := range img.Palette {
			n := color.NRGBAModel.Convert(pc).(color.NRGBA)
			lut[pi] = [4]uint8{n.R, n.G, n.B, n.A}
		}
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride:]
			for x := 0; x < w; x++ {
				i := y*w + x
				px := lut[row[x]]
				chs[0].Data[i] = px[0]
				chs[1].Data[i] = px[1]
				chs[2].Data[i] = px[2]
				chs[3].Data[i] = px[3]
			}
		}
		return out, nil
	}

	// Anything else (premultiplied RGBA, RGBA64, ...) goes through the
	// color model, which unpremultiplies on the way.
	out, _ := New(w, h, RGBA, U8)
	chs := out.Frames[0].Channels
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			n := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			chs[0].Data[i] = n.R
			chs[1].Data[i] = n.G
			chs[2].Data[i] = n.B
			chs[3].Data[i] = n.A
		}
	}
	return out, nil
}

// FrameImage interleaves frame i back into a stdlib image: *image.NRGBA
// for 8-bit images, *image.NRGBA64 for 16-bit. Colorspaces without alpha
// get an opaque alpha channel; Luma replicates into R/G/B.
func (im *Image) FrameImage(i int) (image.Image, error) {
	if i < 0 || i >= len(im.Frames) {
		return nil, fmt.Errorf("frame %d out of range (%d frames)", i, len(im.Frames))
	}
	switch im.Color {
	case RGBA, RGB, Luma, LumaA:
	default:
		return nil, fmt.Errorf("cannot interleave colorspace %s", im.Color)
	}

	f := &im.Frames[i]
	w, h := im.Width, im.Height

	rgbaAt := func(px int) (r, g, b, a float64) {
		switch im.Color {
		case RGBA:
			return f.Channels[0].Float(px), f.Channels[1].Float(px), f.Channels[2].Float(px), f.Channels[3].Float(px)
		case RGB:
			return f.Channels[0].Float(px), f.Channels[1].Float(px), f.Channels[2].Float(px), 1
		case Luma:
			v := f.Channels[0].Float(px)
			return v, v, v, 1
		default: // LumaA
			v := f.Channels[0].Float(px)
			return v, v, v, f.Channels[1].Float(px)
		}
	}

	if im.Bits == U16 {
		out := image.NewNRGBA64(image.Rect(0, 0, w, h))
		for px := 0; px < w*h; px++ {
			r, g, b, a := rgbaAt(px)
			o := px * 8
			put := func(off int, v float64) {
				u := uint16(v*65535 + 0.5)
				out.Pix[o+off] = uint8(u >> 8)
				out.Pix[o+off+1] = uint8(u)
			}
			put(0, r)
			put(2, g)
			put(4, b)
			put(6, a)
		}
		return out, nil
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for px := 0; px < w*h; px++ {
		r, g, b, a := rgbaAt(px)
		o := px * 4
		out.Pix[o] = uint8(r*255 + 0.5)
		out.Pix[o+1] = uint8(g*255 + 0.5)
		out.Pix[o+2] = uint8(b*255 + 0.5)
		out.Pix[o+3] = uint8(a*255 + 0.5)
	}
	return out, nil
}

// SetFrameFromImage writes an interleaved image back into frame i,
// keeping the image's colorspace (alpha is dropped for colorspaces
// without it, color collapses to luma for gray colorspaces). The frame's
// planes are replaced; the caller updates Width/Height when they changed.
func (im *Image) SetFrameFromImage(i int, src image.Image) error {
	if i < 0 || i >= len(im.Frames) {
		return fmt.Errorf("frame %d out of range (%d frames)", i, len(im.Frames))
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	samples := w * h

	chs := make([]Channel, im.Color.Components())
	for c := range chs {
		chs[c] = NewChannel(samples, im.Bits)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := y*w + x
			n := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			r := float64(n.R) / 65535
			g := float64(n.G) / 65535
			bb := float64(n.B) / 65535
			a := float64(n.A) / 65535
			switch im.Color {
			case RGBA:
				chs[0].SetFloat(px, r)
				chs[1].SetFloat(px, g)
				chs[2].SetFloat(px, bb)
				chs[3].SetFloat(px, a)
			case RGB:
				chs[0].SetFloat(px, r)
				chs[1].SetFloat(px, g)
				chs[2].SetFloat(px, bb)
			case Luma:
				chs[0].SetFloat(px, 0.299*r+0.587*g+0.114*bb)
			case LumaA:
				chs[0].SetFloat(px, 0.299*r+0.587*g+0.114*bb)
				chs[1].SetFloat(px, a)
			default:
				return fmt.Errorf("cannot deinterleave into colorspace %s", im.Color)
			}
		}
	}

	im.Frames[i].Channels = chs
	return nil
}

// SetInterleaved writes packed samples back into frame i's planes. The
// buffer must have the exact layout Interleaved produces.
func (im *Image) SetInterleaved(i int, data []byte) error {
	if i < 0 || i >= len(im.Frames) {
		return fmt.Errorf("frame %d out of range (%d frames)", i, len(im.Frames))
	}
	comps := im.Color.Components()
	samples := im.Width * im.Height
	size := im.Bits.Size()
	if len(data) != samples*comps*size {
		return fmt.Errorf("interleaved buffer is %d bytes, want %d", len(data), samples*comps*size)
	}

	f := &im.Frames[i]
	for c := 0; c < comps; c++ {
		plane := f.Channels[c].Data
		for s := 0; s < samples; s++ {
			copy(plane[s*size:(s+1)*size], data[(s*comps+c)*size:])
		}
	}
	return nil
}

// Interleaved flattens frame i into packed samples in channel order: 8-bit
// samples as direct bytes, 16-bit native-endian. Used by encoders that
// want the classic interleaved layout.
func (im *Image) Interleaved(i int) ([]byte, error) {
	if i < 0 || i >= len(im.Frames) {
		return nil, fmt.Errorf("frame %d out of range (%d frames)", i, len(im.Frames))
	}
	f := &im.Frames[i]
	comps := im.Color.Components()
	samples := im.Width * im.Height
	size := im.Bits.Size()

	out := make([]byte, samples*comps*size)
	for c := 0; c < comps; c++ {
		plane := f.Channels[c].Data
		for s := 0; s < samples; s++ {
			copy(out[(s*comps+c)*size:], plane[s*size:(s+1)*size])
		}
	}
	return out, nil
}
