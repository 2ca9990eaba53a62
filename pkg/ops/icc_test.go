package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgforge/imgforge/pkg/raster"
)

type invertTransformer struct {
	srcSeen []byte
}

func (it *invertTransformer) Transform(src, dst []byte, cs raster.ColorSpace, bits raster.BitType, pixels []byte) error {
	it.srcSeen = src
	for i := range pixels {
		pixels[i] = ^pixels[i]
	}
	return nil
}

func TestApplyICC_NilTransformerOnlyRewritesMetadata(t *testing.T) {
	img, err := raster.New(2, 1, raster.RGB, raster.U8)
	require.NoError(t, err)
	img.Frames[0].Channels[0].Data = []byte{10, 20}
	profile := []byte("fake-profile")

	op := &ApplyICC{Profile: profile}
	p := NewBuilder().Add(0, op).Build()
	require.NoError(t, p.Run(context.Background(), img))

	assert.Equal(t, profile, img.Meta.ICC)
	assert.Equal(t, []byte{10, 20}, img.Frames[0].Channels[0].Data)
}

func TestApplyICC_TransformerSeesPixelsAndSourceProfile(t *testing.T) {
	img, err := raster.New(1, 1, raster.RGB, raster.U8)
	require.NoError(t, err)
	img.Frames[0].Channels[0].Data = []byte{0x0F}
	img.Meta.ICC = []byte("embedded")

	tr := &invertTransformer{}
	op := &ApplyICC{Profile: []byte("target"), Transformer: tr}
	require.NoError(t, op.apply(img))

	assert.Equal(t, []byte("embedded"), tr.srcSeen)
	assert.Equal(t, []byte{0xF0}, img.Frames[0].Channels[0].Data)
	assert.Equal(t, []byte("target"), img.Meta.ICC)
}
