package batch

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Job pairs an input file with its computed output path.
type Job struct {
	Input  string
	Output string
}

// Jobs computes output paths: output directory (or the input's own
// directory when none is given), optionally mirroring the inputs'
// relative directory structure below their longest common ancestor when
// recursive is set, then stem + optional suffix + the codec's canonical
// extension.
func Jobs(files []string, outDir, suffix, ext string, recursive bool) []Job {
	var common string
	if recursive && outDir != "" {
		common = commonDir(files)
	}

	jobs := make([]Job, 0, len(files))
	for _, in := range files {
		stem := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
		if stem == "" {
			stem = "optimized_image"
		}

		dir := outDir
		if dir == "" {
			dir = filepath.Dir(in)
		} else if common != "" {
			if rel, err := filepath.Rel(common, filepath.Dir(in)); err == nil {
				dir = filepath.Join(dir, rel)
			}
		}

		jobs = append(jobs, Job{
			Input:  in,
			Output: filepath.Join(dir, stem+suffix+"."+ext),
		})
	}
	return jobs
}

// commonDir returns the longest common ancestor directory of the paths.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	common := splitPath(filepath.Dir(paths[0]))
	for _, p := range paths[1:] {
		parts := splitPath(filepath.Dir(p))
		if len(parts) < len(common) {
			common = common[:len(parts)]
		}
		for i := range common {
			if common[i] != parts[i] {
				common = common[:i]
				break
			}
		}
	}
	if len(common) > 0 && common[0] == "" {
		// splitting an absolute path leaves a leading empty element,
		// which Join would drop
		return string(filepath.Separator) + filepath.Join(common...)
	}
	return filepath.Join(common...)
}

func splitPath(p string) []string {
	return strings.Split(filepath.Clean(p), string(filepath.Separator))
}

// backup copies the input file aside with a ".backup" suffix appended to
// its extension before it may be overwritten.
func backup(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open input for backup")
	}
	defer src.Close()

	dst, err := os.Create(path + ".backup")
	if err != nil {
		return errors.Wrap(err, "create backup")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrap(err, "copy backup")
	}
	return nil
}
