// Package config holds the validated, immutable description of a desired
// output: codec, quality, optional quantization and resize parameters.
package config

import "fmt"

// Codec selects the output encoder.
type Codec int

const (
	CodecJpeg Codec = iota
	CodecPng
	// CodecPngOpt is baseline PNG followed by a recompression pass that
	// keeps the smallest valid result.
	CodecPngOpt
	CodecWebP
	CodecAvif
	CodecJpegXl
)

// ParseCodec maps a CLI/config name to a Codec.
func ParseCodec(s string) (Codec, error) {
	switch s {
	case "jpg", "jpeg", "mozjpeg", "jpegli":
		return CodecJpeg, nil
	case "png":
		return CodecPng, nil
	case "oxipng", "pngopt":
		return CodecPngOpt, nil
	case "webp":
		return CodecWebP, nil
	case "avif":
		return CodecAvif, nil
	case "jxl", "jpegxl":
		return CodecJpegXl, nil
	}
	return 0, fmt.Errorf("unknown codec %q", s)
}

// Extension returns the canonical output file extension.
func (c Codec) Extension() string {
	switch c {
	case CodecJpeg:
		return "jpg"
	case CodecPng, CodecPngOpt:
		return "png"
	case CodecWebP:
		return "webp"
	case CodecAvif:
		return "avif"
	case CodecJpegXl:
		return "jxl"
	}
	return "bin"
}

func (c Codec) String() string {
	switch c {
	case CodecJpeg:
		return "jpeg"
	case CodecPng:
		return "png"
	case CodecPngOpt:
		return "pngopt"
	case CodecWebP:
		return "webp"
	case CodecAvif:
		return "avif"
	case CodecJpegXl:
		return "jpegxl"
	}
	return fmt.Sprintf("codec(%d)", int(c))
}

// FilterType selects the resampling filter for resize.
type FilterType int

const (
	FilterLanczos3 FilterType = iota
	FilterPoint
	FilterTriangle
	FilterCatmullRom
	FilterMitchell
)

// ParseFilterType maps a CLI/config name to a FilterType.
func ParseFilterType(s string) (FilterType, error) {
	switch s {
	case "point", "nearest":
		return FilterPoint, nil
	case "triangle", "bilinear":
		return FilterTriangle, nil
	case "catrom", "catmull-rom":
		return FilterCatmullRom, nil
	case "mitchell":
		return FilterMitchell, nil
	case "lanczos3", "lanczos":
		return FilterLanczos3, nil
	}
	return 0, fmt.Errorf("unknown resize filter %q", s)
}

func (f FilterType) String() string {
	switch f {
	case FilterPoint:
		return "point"
	case FilterTriangle:
		return "triangle"
	case FilterCatmullRom:
		return "catrom"
	case FilterMitchell:
		return "mitchell"
	case FilterLanczos3:
		return "lanczos3"
	}
	return fmt.Sprintf("filter(%d)", int(f))
}

// QuantizationConfig configures palette quantization. Build it with
// NewQuantization and the With* transitions; a zero value is not valid.
type QuantizationConfig struct {
	quality   int
	dithering float64
}

// NewQuantization returns the default quantization config: quality 100,
// full dithering.
func NewQuantization() QuantizationConfig {
	return QuantizationConfig{quality: 100, dithering: 1.0}
}

// WithQuality sets palette quality in [0,100].
func (q QuantizationConfig) WithQuality(quality int) (QuantizationConfig, error) {
	if quality < 0 || quality > 100 {
		return q, &QualityOutOfBoundsError{Quality: float64(quality)}
	}
	q.quality = quality
	return q, nil
}

// WithDithering sets the dithering level in [0,1].
func (q QuantizationConfig) WithDithering(level float64) (QuantizationConfig, error) {
	if level < 0 || level > 1 {
		return q, &DitheringOutOfBoundsError{Level: level}
	}
	q.dithering = level
	return q, nil
}

func (q QuantizationConfig) Quality() int       { return q.quality }
func (q QuantizationConfig) Dithering() float64 { return q.dithering }

// ResizeConfig configures an optional resize. Both dimensions unset means
// no resize; exactly one set derives the other from the source aspect
// ratio.
type ResizeConfig struct {
	width  int // 0 = unset
	height int
	filter FilterType
}

// NewResize returns a resize config with no target dimensions.
func NewResize(filter FilterType) ResizeConfig {
	return ResizeConfig{filter: filter}
}

// WithWidth sets the target width. Zero is rejected: "unset" is expressed
// by never calling WithWidth.
func (r ResizeConfig) WithWidth(width int) (ResizeConfig, error) {
	if width <= 0 {
		return r, ErrWidthIsZero
	}
	r.width = width
	return r, nil
}

// WithHeight sets the target height.
func (r ResizeConfig) WithHeight(height int) (ResizeConfig, error) {
	if height <= 0 {
		return r, ErrHeightIsZero
	}
	r.height = height
	return r, nil
}

// Width returns the target width and whether it was set.
func (r ResizeConfig) Width() (int, bool) { return r.width, r.width > 0 }

// Height returns the target height and whether it was set.
func (r ResizeConfig) Height() (int, bool) { return r.height, r.height > 0 }

func (r ResizeConfig) Filter() FilterType { return r.filter }

// TargetDims resolves the output dimensions for a source of srcW x srcH,
// deriving a missing dimension from the source aspect ratio.
func (r ResizeConfig) TargetDims(srcW, srcH int) (int, int) {
	w, wOK := r.Width()
	h, hOK := r.Height()
	switch {
	case wOK && hOK:
		return w, h
	case wOK:
		aspect := float64(srcW) / float64(srcH)
		return w, int(float64(w)/aspect + 0.5)
	case hOK:
		aspect := float64(srcW) / float64(srcH)
		return int(float64(h)*aspect + 0.5), h
	}
	return srcW, srcH
}

// EncoderConfig is the immutable description of the desired output.
type EncoderConfig struct {
	codec          Codec
	quality        float64
	progressive    int
	optimizeCoding bool

	quantization *QuantizationConfig
	resize       *ResizeConfig
}

// New builds an encoder config for codec with the default quality of 75.
// JPEG output defaults to fully progressive scans with optimized Huffman
// coding.
func New(codec Codec) EncoderConfig {
	return EncoderConfig{codec: codec, quality: 75, progressive: 2, optimizeCoding: true}
}

// WithQuality sets the output quality in [0,100].
func (c EncoderConfig) WithQuality(quality float64) (EncoderConfig, error) {
	if quality < 0 || quality > 100 {
		return c, &QualityOutOfBoundsError{Quality: quality}
	}
	c.quality = quality
	return c, nil
}

// WithProgressive sets the JPEG progressive scan level: 0 is baseline
// sequential, 2 is fully progressive.
func (c EncoderConfig) WithProgressive(level int) (EncoderConfig, error) {
	if level < 0 || level > 2 {
		return c, fmt.Errorf("progressive level %d is out of range 0 to 2", level)
	}
	c.progressive = level
	return c, nil
}

// WithOptimizeCoding toggles optimized JPEG Huffman tables.
func (c EncoderConfig) WithOptimizeCoding(enabled bool) EncoderConfig {
	c.optimizeCoding = enabled
	return c
}

// WithQuantization attaches a quantization config. The sub-config was
// validated at its own construction time, so this never fails.
func (c EncoderConfig) WithQuantization(q QuantizationConfig) EncoderConfig {
	c.quantization = &q
	return c
}

// WithResize attaches a resize config.
func (c EncoderConfig) WithResize(r ResizeConfig) EncoderConfig {
	c.resize = &r
	return c
}

func (c EncoderConfig) Codec() Codec         { return c.codec }
func (c EncoderConfig) Quality() float64     { return c.quality }
func (c EncoderConfig) Progressive() int     { return c.progressive }
func (c EncoderConfig) OptimizeCoding() bool { return c.optimizeCoding }

// Quantization returns the attached quantization config, if any.
func (c EncoderConfig) Quantization() (QuantizationConfig, bool) {
	if c.quantization == nil {
		return QuantizationConfig{}, false
	}
	return *c.quantization, true
}

// Resize returns the attached resize config, if any.
func (c EncoderConfig) Resize() (ResizeConfig, bool) {
	if c.resize == nil {
		return ResizeConfig{}, false
	}
	return *c.resize, true
}
