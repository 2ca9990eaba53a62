package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobs_NextToInput(t *testing.T) {
	jobs := Jobs([]string{"photos/cat.jpeg"}, "", "", "webp", false)
	require.Len(t, jobs, 1)
	assert.Equal(t, "photos/cat.jpeg", jobs[0].Input)
	assert.Equal(t, filepath.Join("photos", "cat.webp"), jobs[0].Output)
}

func TestJobs_Suffix(t *testing.T) {
	jobs := Jobs([]string{"cat.png"}, "", "@optimized", "png", false)
	assert.Equal(t, "cat@optimized.png", jobs[0].Output)
}

func TestJobs_OutDirFlattens(t *testing.T) {
	jobs := Jobs([]string{
		filepath.Join("a", "b", "one.png"),
		filepath.Join("a", "c", "two.png"),
	}, "out", "", "jpg", false)

	assert.Equal(t, filepath.Join("out", "one.jpg"), jobs[0].Output)
	assert.Equal(t, filepath.Join("out", "two.jpg"), jobs[1].Output)
}

func TestJobs_RecursiveMirrorsLayout(t *testing.T) {
	jobs := Jobs([]string{
		filepath.Join("root", "sub1", "one.png"),
		filepath.Join("root", "sub1", "deeper", "two.png"),
		filepath.Join("root", "sub2", "three.png"),
	}, "out", "", "png", true)

	// the common ancestor "root" is stripped, the rest is mirrored
	assert.Equal(t, filepath.Join("out", "sub1", "one.png"), jobs[0].Output)
	assert.Equal(t, filepath.Join("out", "sub1", "deeper", "two.png"), jobs[1].Output)
	assert.Equal(t, filepath.Join("out", "sub2", "three.png"), jobs[2].Output)
}

func TestJobs_RecursiveMirrorsAbsolutePaths(t *testing.T) {
	sep := string(filepath.Separator)
	jobs := Jobs([]string{
		sep + filepath.Join("data", "root", "sub1", "one.png"),
		sep + filepath.Join("data", "root", "sub2", "one.png"),
	}, "out", "", "png", true)

	// same stem in different subdirectories must not collide
	assert.Equal(t, filepath.Join("out", "sub1", "one.png"), jobs[0].Output)
	assert.Equal(t, filepath.Join("out", "sub2", "one.png"), jobs[1].Output)
	assert.NotEqual(t, jobs[0].Output, jobs[1].Output)
}

func TestJobs_RecursiveWithoutOutDirKeepsInputDirs(t *testing.T) {
	jobs := Jobs([]string{filepath.Join("x", "y", "img.png")}, "", "", "png", true)
	assert.Equal(t, filepath.Join("x", "y", "img.png"), jobs[0].Output)
}

func TestJobs_ExtensionOnlyName(t *testing.T) {
	jobs := Jobs([]string{".png"}, "", "", "jpg", false)
	assert.Equal(t, "optimized_image.jpg", jobs[0].Output)
}

func TestCommonDir(t *testing.T) {
	common := commonDir([]string{
		filepath.Join("a", "b", "c", "f1.png"),
		filepath.Join("a", "b", "d", "f2.png"),
	})
	assert.Equal(t, filepath.Join("a", "b"), common)

	common = commonDir([]string{filepath.Join("a", "f.png")})
	assert.Equal(t, "a", common)

	assert.Equal(t, "", commonDir(nil))
}

func TestCommonDir_AbsolutePathsStayAbsolute(t *testing.T) {
	sep := string(filepath.Separator)
	common := commonDir([]string{
		sep + filepath.Join("a", "b", "c", "f1.png"),
		sep + filepath.Join("a", "b", "d", "f2.png"),
	})
	assert.Equal(t, sep+filepath.Join("a", "b"), common)
	assert.True(t, filepath.IsAbs(common))
}

func TestBackup_CopiesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))

	require.NoError(t, backup(path))

	got, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestBackup_MissingInput(t *testing.T) {
	assert.Error(t, backup(filepath.Join(t.TempDir(), "absent")))
}
