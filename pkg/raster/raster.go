// Package raster holds the uniform in-memory representation of a decoded
// image shared by every codec adapter and pixel operation.
package raster

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
	"unsafe"
)

// NativeEndian is the byte order 16-bit samples are packed with.
var NativeEndian = func() binary.ByteOrder {
	var b [2]byte
	*(*uint16)(unsafe.Pointer(&b[0])) = 1
	if b[0] == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}()

// BitType describes how a channel's bytes are reinterpreted as samples.
type BitType int

const (
	U8 BitType = iota
	U16
	F32
)

// Size returns bytes per sample.
func (b BitType) Size() int {
	switch b {
	case U8:
		return 1
	case U16:
		return 2
	case F32:
		return 4
	}
	return 0
}

func (b BitType) String() string {
	switch b {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case F32:
		return "f32"
	}
	return fmt.Sprintf("bittype(%d)", int(b))
}

// ColorSpace is the semantic meaning and channel count of pixel samples.
type ColorSpace int

const (
	ColorUnknown ColorSpace = iota
	RGB
	RGBA
	Luma
	LumaA
	CMYK
	YCbCr
	BGR
	BGRA
	ARGB
	HSV
)

// Components returns the number of channels the colorspace implies.
func (c ColorSpace) Components() int {
	switch c {
	case RGB, YCbCr, BGR, HSV:
		return 3
	case RGBA, CMYK, BGRA, ARGB:
		return 4
	case Luma:
		return 1
	case LumaA:
		return 2
	}
	return 0
}

// AlphaIndex returns the position of the alpha channel, or -1 when the
// colorspace carries none.
func (c ColorSpace) AlphaIndex() int {
	switch c {
	case RGBA, BGRA:
		return 3
	case LumaA:
		return 1
	case ARGB:
		return 0
	}
	return -1
}

// HasAlpha reports whether the colorspace carries an alpha channel.
func (c ColorSpace) HasAlpha() bool { return c.AlphaIndex() >= 0 }

func (c ColorSpace) String() string {
	switch c {
	case RGB:
		return "rgb"
	case RGBA:
		return "rgba"
	case Luma:
		return "luma"
	case LumaA:
		return "luma-alpha"
	case CMYK:
		return "cmyk"
	case YCbCr:
		return "ycbcr"
	case BGR:
		return "bgr"
	case BGRA:
		return "bgra"
	case ARGB:
		return "argb"
	case HSV:
		return "hsv"
	}
	return "unknown"
}

// Channel is one color component's full-image plane: a contiguous byte
// buffer tagged with the BitType describing its samples.
type Channel struct {
	Bits BitType
	Data []byte
}

// NewChannel allocates a zeroed plane for the given sample count.
func NewChannel(samples int, bits BitType) Channel {
	return Channel{Bits: bits, Data: make([]byte, samples*bits.Size())}
}

// Samples returns the number of samples in the plane.
func (c *Channel) Samples() int {
	if s := c.Bits.Size(); s > 0 {
		return len(c.Data) / s
	}
	return 0
}

// Float returns sample i normalized to [0,1].
func (c *Channel) Float(i int) float64 {
	switch c.Bits {
	case U8:
		return float64(c.Data[i]) / math.MaxUint8
	case U16:
		return float64(NativeEndian.Uint16(c.Data[i*2:])) / math.MaxUint16
	case F32:
		return float64(math.Float32frombits(NativeEndian.Uint32(c.Data[i*4:])))
	}
	return 0
}

// SetFloat stores v (clamped to [0,1]) at sample i.
func (c *Channel) SetFloat(i int, v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	switch c.Bits {
	case U8:
		c.Data[i] = uint8(v*math.MaxUint8 + 0.5)
	case U16:
		NativeEndian.PutUint16(c.Data[i*2:], uint16(v*math.MaxUint16+0.5))
	case F32:
		NativeEndian.PutUint32(c.Data[i*4:], math.Float32bits(float32(v)))
	}
}

// Frame is one displayable image state. Animated images hold several.
type Frame struct {
	Channels []Channel
	// Duration is the display time of the frame in an animation.
	Duration time.Duration
}

// Metadata carries the side info a decoder may surface.
type Metadata struct {
	// Orientation is the EXIF orientation (1..8), 0 when absent.
	Orientation int
	// ICC is the raw embedded color profile, nil when absent.
	ICC []byte
}

// Image is the uniform decoded-image model. It is produced by decode
// dispatch, mutated in place by pixel operations, and read by encode
// dispatch.
type Image struct {
	Frames []Frame
	Width  int
	Height int
	Color  ColorSpace
	Bits   BitType
	Meta   Metadata
}

// New allocates a single-frame image with zeroed channels.
func New(width, height int, cs ColorSpace, bits BitType) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if cs.Components() == 0 {
		return nil, fmt.Errorf("colorspace %s has no channel layout", cs)
	}

	samples := width * height
	frame := Frame{Channels: make([]Channel, cs.Components())}
	for i := range frame.Channels {
		frame.Channels[i] = NewChannel(samples, bits)
	}

	return &Image{
		Frames: []Frame{frame},
		Width:  width,
		Height: height,
		Color:  cs,
		Bits:   bits,
	}, nil
}

// Validate checks the structural invariants: positive dimensions, one
// channel per colorspace component, and identical plane sizes across
// every frame.
func (im *Image) Validate() error {
	if im.Width <= 0 || im.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", im.Width, im.Height)
	}
	if len(im.Frames) == 0 {
		return fmt.Errorf("image has no frames")
	}

	want := im.Color.Components()
	planeLen := im.Width * im.Height * im.Bits.Size()
	for fi, f := range im.Frames {
		if len(f.Channels) != want {
			return fmt.Errorf("frame %d: %d channels, colorspace %s implies %d",
				fi, len(f.Channels), im.Color, want)
		}
		for ci, ch := range f.Channels {
			if ch.Bits != im.Bits {
				return fmt.Errorf("frame %d channel %d: bit type %s, image is %s",
					fi, ci, ch.Bits, im.Bits)
			}
			if len(ch.Data) != planeLen {
				return fmt.Errorf("frame %d channel %d: %d bytes, want %d",
					fi, ci, len(ch.Data), planeLen)
			}
		}
	}
	return nil
}

// Animated reports whether the image has more than one frame.
func (im *Image) Animated() bool { return len(im.Frames) > 1 }
