package batch

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/ops"
)

func writePng(t *testing.T, path string) {
	t.Helper()
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 30), B: 128, A: uint8(250 - x)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestRun_ProcessesFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.png")
	writePng(t, in)

	results := Run(context.Background(), []string{in},
		config.New(config.CodecPng), ops.NewBuilder().Build(),
		Options{OutDir: filepath.Join(dir, "out")})

	require.Len(t, results, 1)
	res := results[0]
	require.NoError(t, res.Err)
	assert.Equal(t, in, res.Input)
	assert.Positive(t, res.BytesBefore)
	assert.Positive(t, res.BytesAfter)

	out, err := os.ReadFile(res.Output)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 8, decoded.Bounds().Dx())
}

func TestRun_AppliesPipeline(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.png")
	writePng(t, in)

	rc, err := config.NewResize(config.FilterTriangle).WithWidth(4)
	require.NoError(t, err)
	pipe := ops.NewBuilder().Add(0, &ops.Resize{Config: rc}).Build()

	results := Run(context.Background(), []string{in},
		config.New(config.CodecPng), pipe,
		Options{OutDir: filepath.Join(dir, "out")})

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	out, err := os.ReadFile(results[0].Output)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
	assert.Equal(t, 4, decoded.Bounds().Dy())
}

func TestRun_CorruptFileDoesNotPoisonBatch(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	bad := filepath.Join(dir, "bad.png")
	writePng(t, good)
	require.NoError(t, os.WriteFile(bad, []byte("definitely not a png"), 0o644))

	results := Run(context.Background(), []string{bad, good},
		config.New(config.CodecPng), ops.NewBuilder().Build(),
		Options{OutDir: filepath.Join(dir, "out"), Threads: 2})

	require.Len(t, results, 2)
	assert.Error(t, results[0].Err, "corrupt input fails its own file")
	assert.NoError(t, results[1].Err, "healthy input still completes")
}

func TestRun_BackupBeforeProcessing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.png")
	writePng(t, in)
	original, err := os.ReadFile(in)
	require.NoError(t, err)

	results := Run(context.Background(), []string{in},
		config.New(config.CodecPng), ops.NewBuilder().Build(),
		Options{Backup: true})

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	saved, err := os.ReadFile(in + ".backup")
	require.NoError(t, err)
	assert.Equal(t, original, saved)
}

func TestRun_CancelledContextSkipsFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.png")
	writePng(t, in)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Run(ctx, []string{in},
		config.New(config.CodecPng), ops.NewBuilder().Build(),
		Options{OutDir: filepath.Join(dir, "out")})

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
	assert.NoFileExists(t, results[0].Output)
}
