package encode

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/raster"
)

func rgbaFixture(t *testing.T, w, h int) *raster.Image {
	t.Helper()
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.SetNRGBA(x, y, color.NRGBA{
				// varied alpha keeps the png encoder on the NRGBA path
				R: uint8(x * 37), G: uint8(y * 53), B: uint8(x ^ y), A: uint8(255 - x),
			})
		}
	}
	img, err := raster.FromImage(src)
	require.NoError(t, err)
	return img
}

func TestEncode_Png_RoundTrip(t *testing.T) {
	img := rgbaFixture(t, 12, 9)

	out, err := Encode(img, config.New(config.CodecPng))
	require.NoError(t, err)
	require.NotEmpty(t, out)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 12, decoded.Bounds().Dx())
	assert.Equal(t, 9, decoded.Bounds().Dy())

	got := decoded.(*image.NRGBA)
	want, err := img.FrameImage(0)
	require.NoError(t, err)
	assert.Equal(t, want.(*image.NRGBA).Pix, got.Pix)
}

func TestEncode_Png_GrayStaysGray(t *testing.T) {
	img, err := raster.New(4, 4, raster.Luma, raster.U8)
	require.NoError(t, err)
	for i := range img.Frames[0].Channels[0].Data {
		img.Frames[0].Channels[0].Data[i] = uint8(i * 16)
	}

	out, err := Encode(img, config.New(config.CodecPng))
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	gray, ok := decoded.(*image.Gray)
	require.True(t, ok, "expected gray png, got %T", decoded)
	assert.Equal(t, img.Frames[0].Channels[0].Data, gray.Pix)
}

func TestEncode_PngOpt_StillDecodes(t *testing.T) {
	img := rgbaFixture(t, 16, 16)

	plain, err := Encode(img, config.New(config.CodecPng))
	require.NoError(t, err)
	opt, err := Encode(img, config.New(config.CodecPngOpt))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(opt), len(plain), "optimized output must never be larger")

	decoded, err := png.Decode(bytes.NewReader(opt))
	require.NoError(t, err)
	assert.Equal(t, 16, decoded.Bounds().Dx())
}

func TestEncode_UnsupportedColorspace(t *testing.T) {
	img, err := raster.New(2, 2, raster.CMYK, raster.U8)
	require.NoError(t, err)

	_, err = Encode(img, config.New(config.CodecPng))
	var uce *UnsupportedColorspaceError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, config.CodecPng, uce.Codec)
	assert.Equal(t, raster.CMYK, uce.Actual)
}

func TestEncode_WebP_DimensionOverflow(t *testing.T) {
	img, err := raster.New(webpMaxDim+1, 1, raster.RGBA, raster.U8)
	require.NoError(t, err)

	_, err = Encode(img, config.New(config.CodecWebP))
	var doe *DimensionOverflowError
	require.ErrorAs(t, err, &doe)
	assert.Equal(t, webpMaxDim, doe.Max)
}

func TestEncode_InvalidImageFailsValidation(t *testing.T) {
	img, err := raster.New(2, 2, raster.RGBA, raster.U8)
	require.NoError(t, err)
	img.Frames[0].Channels = img.Frames[0].Channels[:2]

	_, err = Encode(img, config.New(config.CodecPng))
	var ee *EncodeError
	assert.ErrorAs(t, err, &ee)
}

func TestRecompressPng_PreservesPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for i := range src.Pix {
		src.Pix[i] = uint8(i % 3 * 100)
	}
	var buf bytes.Buffer
	// default compression leaves room for the recompressor to win
	require.NoError(t, png.Encode(&buf, src))

	out, err := recompressPng(buf.Bytes())
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, src.Pix, decoded.(*image.NRGBA).Pix)
}

func TestRecompressPng_RejectsGarbage(t *testing.T) {
	_, err := recompressPng([]byte("not a png"))
	assert.Error(t, err)
}
