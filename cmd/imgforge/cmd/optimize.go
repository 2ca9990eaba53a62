package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/imgforge/imgforge/pkg/batch"
	"github.com/imgforge/imgforge/pkg/config"
	"github.com/imgforge/imgforge/pkg/ops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Defaults are flag defaults loadable from a yaml file via --config.
// Explicit command line flags always win over file values.
type Defaults struct {
	Quality   *float64 `yaml:"quality"`
	Codec     *string  `yaml:"codec"`
	Output    *string  `yaml:"output"`
	Suffix    *string  `yaml:"suffix"`
	Threads   *int     `yaml:"threads"`
	Filter    *string  `yaml:"filter"`
	Backup    *bool    `yaml:"backup"`
	Recursive *bool    `yaml:"recursive"`
}

// NewOptimizeCmd converts/optimizes one or more image files
func NewOptimizeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize [files...]",
		Short: "convert and optimize images",
		Long:  "decode the given files, run the pipeline built from the flags and re-encode with the chosen codec",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyDefaults(cmd); err != nil {
				return err
			}
			codecName, _ := cmd.Flags().GetString("codec")
			if codecName == "" {
				return fmt.Errorf("no output codec given: use --codec or a --config file")
			}
			codec, err := config.ParseCodec(codecName)
			if err != nil {
				return err
			}
			quality, _ := cmd.Flags().GetFloat64("quality")
			cfg, err := config.New(codec).WithQuality(quality)
			if err != nil {
				return err
			}
			pipe, err := buildPipeline(ctx, cmd, os.Args[1:])
			if err != nil {
				return err
			}
			outDir, _ := cmd.Flags().GetString("output")
			suffix, _ := cmd.Flags().GetString("suffix")
			recursive, _ := cmd.Flags().GetBool("recursive")
			doBackup, _ := cmd.Flags().GetBool("backup")
			threads, _ := cmd.Flags().GetInt("threads")
			results := batch.Run(ctx, args, cfg, pipe, batch.Options{
				OutDir:    outDir,
				Suffix:    suffix,
				Recursive: recursive,
				Backup:    doBackup,
				Threads:   threads,
			})
			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			slog.InfoContext(ctx, "all files processed", "count", len(results))
			return nil
		},
	}
	pf := cmd.Flags()
	pf.Float64P("quality", "q", 75, "encoder quality (0-100)")
	pf.StringP("codec", "f", "jpeg", "output codec (jpeg|png|oxipng|webp|avif|jpegxl)")
	pf.StringP("output", "o", "", "write results under this directory instead of next to the inputs")
	pf.StringP("suffix", "s", "", "append this suffix to output file stems")
	pf.BoolP("recursive", "r", false, "mirror the input directory layout under the output directory")
	pf.BoolP("backup", "b", false, "copy each input to <input>.backup before processing")
	pf.IntP("threads", "t", 0, "worker count (0 = number of CPUs)")
	pf.String("filter", "lanczos3", "resize filter (nearest|triangle|catmull-rom|mitchell|lanczos3)")
	pf.StringArray("resize", nil, "resize to WxH, either side may be omitted to keep aspect (repeatable)")
	pf.StringArray("quantization", nil, "quantize with the given quality 0-100 (repeatable)")
	pf.Float64("dithering", 100, "dithering level 0-100 applied to quantization")
	pf.Count("premultiply", "premultiply alpha around the following operation (repeatable)")
	return cmd
}

// applyDefaults folds --config yaml values into flags the user did not set.
func applyDefaults(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	var def Defaults
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	set := func(name, value string) {
		if !cmd.Flags().Changed(name) {
			cmd.Flags().Set(name, value)
		}
	}
	if def.Quality != nil {
		set("quality", strconv.FormatFloat(float64(*def.Quality), 'f', -1, 32))
	}
	if def.Codec != nil {
		set("codec", *def.Codec)
	}
	if def.Output != nil {
		set("output", *def.Output)
	}
	if def.Suffix != nil {
		set("suffix", *def.Suffix)
	}
	if def.Threads != nil {
		set("threads", strconv.Itoa(*def.Threads))
	}
	if def.Filter != nil {
		set("filter", *def.Filter)
	}
	if def.Backup != nil {
		set("backup", strconv.FormatBool(*def.Backup))
	}
	if def.Recursive != nil {
		set("recursive", strconv.FormatBool(*def.Recursive))
	}
	return nil
}

// buildPipeline pairs repeatable flag values with their command line
// positions so operations run in the order they were written, not in
// flag-name order. argv is the raw argument vector minus the program name.
func buildPipeline(ctx context.Context, cmd *cobra.Command, argv []string) (*ops.Pipeline, error) {
	filterName, _ := cmd.Flags().GetString("filter")
	filter, err := config.ParseFilterType(filterName)
	if err != nil {
		return nil, err
	}
	dithering, _ := cmd.Flags().GetFloat64("dithering")

	resizes, _ := cmd.Flags().GetStringArray("resize")
	quants, _ := cmd.Flags().GetStringArray("quantization")

	pos := flagPositions(argv)
	b := ops.NewBuilder()
	for i, spec := range resizes {
		rc, err := parseResize(spec, filter)
		if err != nil {
			return nil, err
		}
		b.Add(pos["resize"][i], &ops.Resize{Config: rc})
	}
	for i, spec := range quants {
		q, err := strconv.Atoi(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid quantization quality %q: %w", spec, err)
		}
		qc, err := config.NewQuantization().WithQuality(q)
		if err != nil {
			return nil, err
		}
		qc, err = qc.WithDithering(dithering / 100)
		if err != nil {
			return nil, err
		}
		b.Add(pos["quantization"][i], &ops.Quantize{Config: qc})
	}
	// premultiply wraps a neighboring value-carrying op, so it can only be
	// placed once the other ops are registered
	for _, p := range pos["premultiply"] {
		b.AddPremultiply(ctx, p)
	}
	return b.Build(), nil
}

// flagPositions records the position of each occurrence of the
// positional-sensitive flags. Positions are 1-based (0 is the program
// name) and an embedded "--flag=value" counts as two: the flag, then the
// value at flag+1 — the same numbering for both spellings, so the
// premultiply neighbor offset holds regardless of which form the user
// wrote. Value-carrying flags record the value's position, premultiply
// records its own.
func flagPositions(argv []string) map[string][]int {
	out := map[string][]int{}
	pos := 1
	for _, arg := range argv {
		switch {
		case arg == "--resize" || arg == "--quantization":
			name := strings.TrimPrefix(arg, "--")
			out[name] = append(out[name], pos+1)
		case strings.HasPrefix(arg, "--resize="), strings.HasPrefix(arg, "--quantization="):
			name, _, _ := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
			out[name] = append(out[name], pos+1)
			pos++
		case arg == "--premultiply":
			out["premultiply"] = append(out["premultiply"], pos)
		case strings.HasPrefix(arg, "--") && strings.Contains(arg, "="):
			// any other embedded value also occupies its own position
			pos++
		}
		pos++
	}
	return out
}

// parseResize turns "WxH" into a resize config. Either side may be left
// empty or given as "_" to derive it from the source aspect ratio.
func parseResize(spec string, filter config.FilterType) (config.ResizeConfig, error) {
	w, h, ok := strings.Cut(strings.ToLower(spec), "x")
	if !ok {
		return config.ResizeConfig{}, fmt.Errorf("invalid resize %q: expected WxH", spec)
	}
	rc := config.NewResize(filter)
	if w != "" && w != "_" {
		n, err := strconv.Atoi(w)
		if err != nil {
			return config.ResizeConfig{}, fmt.Errorf("invalid resize width %q: %w", w, err)
		}
		rc, err = rc.WithWidth(n)
		if err != nil {
			return config.ResizeConfig{}, err
		}
	}
	if h != "" && h != "_" {
		n, err := strconv.Atoi(h)
		if err != nil {
			return config.ResizeConfig{}, fmt.Errorf("invalid resize height %q: %w", h, err)
		}
		rc, err = rc.WithHeight(n)
		if err != nil {
			return config.ResizeConfig{}, err
		}
	}
	return rc, nil
}
