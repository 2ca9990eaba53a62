package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromImage_NRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 128})
	src.SetNRGBA(0, 1, color.NRGBA{R: 70, G: 80, B: 90, A: 0})
	src.SetNRGBA(1, 1, color.NRGBA{R: 100, G: 110, B: 120, A: 200})

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, RGBA, img.Color)
	assert.Equal(t, U8, img.Bits)
	require.NoError(t, img.Validate())

	chs := img.Frames[0].Channels
	// pixel (1,0) is sample 1
	assert.Equal(t, uint8(40), chs[0].Data[1])
	assert.Equal(t, uint8(50), chs[1].Data[1])
	assert.Equal(t, uint8(60), chs[2].Data[1])
	assert.Equal(t, uint8(128), chs[3].Data[1])
}

func TestFromImage_GrayStaysLuma(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 2))
	src.SetGray(2, 1, color.Gray{Y: 77})

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, Luma, img.Color)
	assert.Equal(t, U8, img.Bits)
	assert.Equal(t, uint8(77), img.Frames[0].Channels[0].Data[5])
}

func TestFromImage_Gray16(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 2, 1))
	src.SetGray16(0, 0, color.Gray16{Y: 0xABCD})

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, Luma, img.Color)
	assert.Equal(t, U16, img.Bits)
	assert.Equal(t, uint16(0xABCD), NativeEndian.Uint16(img.Frames[0].Channels[0].Data))
}

func TestFromImage_PalettedExpandsToRGBA(t *testing.T) {
	pal := color.Palette{
		color.NRGBA{R: 255, A: 255},
		color.NRGBA{G: 255, A: 255},
		color.NRGBA{}, // transparent
	}
	src := image.NewPaletted(image.Rect(0, 0, 3, 1), pal)
	src.SetColorIndex(0, 0, 0)
	src.SetColorIndex(1, 0, 1)
	src.SetColorIndex(2, 0, 2)

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, RGBA, img.Color)

	chs := img.Frames[0].Channels
	assert.Equal(t, uint8(255), chs[0].Data[0])
	assert.Equal(t, uint8(255), chs[1].Data[1])
	assert.Equal(t, uint8(0), chs[3].Data[2], "index 2 is transparent")
}

func TestFromImage_YCbCrExpandsToRGB(t *testing.T) {
	src := image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio444)
	for i := range src.Y {
		src.Y[i] = 128
	}
	for i := range src.Cb {
		src.Cb[i] = 128
		src.Cr[i] = 128
	}

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, RGB, img.Color)
	// neutral chroma at mid luma is mid gray
	chs := img.Frames[0].Channels
	assert.Equal(t, uint8(128), chs[0].Data[0])
	assert.Equal(t, uint8(128), chs[1].Data[0])
	assert.Equal(t, uint8(128), chs[2].Data[0])
}

func TestFrameImage_RoundTrip_RGBA_U8(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 5, 4))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 7)
	}

	img, err := FromImage(src)
	require.NoError(t, err)

	back, err := img.FrameImage(0)
	require.NoError(t, err)
	got, ok := back.(*image.NRGBA)
	require.True(t, ok, "expected *image.NRGBA, got %T", back)
	assert.Equal(t, src.Pix, got.Pix)
}

func TestFrameImage_LumaReplicates(t *testing.T) {
	img, err := New(1, 1, Luma, U8)
	require.NoError(t, err)
	img.Frames[0].Channels[0].Data[0] = 200

	fi, err := img.FrameImage(0)
	require.NoError(t, err)
	n := fi.(*image.NRGBA)
	assert.Equal(t, []uint8{200, 200, 200, 255}, n.Pix)
}

func TestSetFrameFromImage_RoundTrip(t *testing.T) {
	img, err := New(2, 2, RGBA, U8)
	require.NoError(t, err)

	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(1, 1, color.NRGBA{R: 12, G: 34, B: 56, A: 78})
	require.NoError(t, img.SetFrameFromImage(0, src))

	chs := img.Frames[0].Channels
	assert.Equal(t, uint8(12), chs[0].Data[3])
	assert.Equal(t, uint8(34), chs[1].Data[3])
	assert.Equal(t, uint8(56), chs[2].Data[3])
	assert.Equal(t, uint8(78), chs[3].Data[3])
}

func TestSetFrameFromImage_CollapsesToLuma(t *testing.T) {
	img, err := New(1, 1, Luma, U8)
	require.NoError(t, err)

	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	require.NoError(t, img.SetFrameFromImage(0, src))

	assert.Equal(t, uint8(255), img.Frames[0].Channels[0].Data[0])
}

func TestInterleaved_RoundTrip(t *testing.T) {
	img, err := New(2, 1, RGB, U8)
	require.NoError(t, err)
	img.Frames[0].Channels[0].Data = []byte{1, 4}
	img.Frames[0].Channels[1].Data = []byte{2, 5}
	img.Frames[0].Channels[2].Data = []byte{3, 6}

	packed, err := img.Interleaved(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, packed)

	require.NoError(t, img.SetInterleaved(0, []byte{6, 5, 4, 3, 2, 1}))
	assert.Equal(t, []byte{6, 3}, img.Frames[0].Channels[0].Data)
	assert.Equal(t, []byte{5, 2}, img.Frames[0].Channels[1].Data)
	assert.Equal(t, []byte{4, 1}, img.Frames[0].Channels[2].Data)
}

func TestInterleaved_SizeMismatch(t *testing.T) {
	img, err := New(2, 1, RGB, U8)
	require.NoError(t, err)
	assert.Error(t, img.SetInterleaved(0, []byte{1, 2, 3}))
}

func TestFrameImage_OutOfRange(t *testing.T) {
	img, err := New(2, 1, RGB, U8)
	require.NoError(t, err)
	_, err = img.FrameImage(1)
	assert.Error(t, err)
	_, err = img.FrameImage(-1)
	assert.Error(t, err)
}
