// gdstack is a CLI utility for turning GDSII layouts into 3D layer
// stack scenes.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/siliconforge/gdstack/internal/config"
	"github.com/siliconforge/gdstack/internal/extrude"
	"github.com/siliconforge/gdstack/internal/importer"
	"github.com/siliconforge/gdstack/internal/logger"
	"github.com/siliconforge/gdstack/internal/merge"
	"github.com/siliconforge/gdstack/internal/scene"
	"github.com/siliconforge/gdstack/pkg/gdsii"
	"github.com/siliconforge/gdstack/pkg/geom"
	"github.com/siliconforge/gdstack/pkg/pdk"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "import":
		cmdImport(args)
	case "merge":
		cmdMerge(args)
	case "info":
		cmdInfo(args)
	case "layers":
		cmdLayers(args)
	case "validate":
		cmdValidate(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	logger.Sync()
}

func printUsage() {
	fmt.Println(`gdstack - GDSII layout to 3D layer stack utility

Usage:
  gdstack <command> [options]

Commands:
  import [options] <file.gds>        Extrude a layout into an OBJ scene
  merge [options] <in.gds> <out.gds> Union overlapping shapes per layer
  info <file.gds>                    Show layout information
  layers [stack]                     List layer stacks, or one stack's layers
  validate                           Check every layer stack config

Examples:
  gdstack import -o chip.obj -pdk ihp-sg13g2 chip.gds
  gdstack import -crop 0,0,120,80 -chip-base chip.gds
  gdstack merge chip.gds chip_merged.gds
  gdstack info chip.gds
  gdstack layers ihp-sg13g2`)
}

// setup loads the config, applies flag overrides, and starts logging.
func setup(f *config.Flags) *config.Config {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	f.Apply(cfg)

	opts := logger.DefaultOptions()
	opts.Level = cfg.Logging.Level
	opts.File = cfg.Logging.LogFile
	logger.Setup(opts)

	return cfg
}

func loadStack(cfg *config.Config) pdk.Stack {
	stack, err := pdk.LoadNamed(cfg.PDK.Dir, cfg.PDK.Default)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return stack
}

func cmdImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	var f config.Flags
	f.Register(fs)
	out := fs.String("o", "", "Output OBJ path (default: input name with .obj)")
	crop := fs.String("crop", "", "Crop region x,y,width,height in target units")
	chipBase := fs.Bool("chip-base", false, "Add a substrate slab under the layers")
	dryRun := fs.Bool("dry-run", false, "Report statistics without writing files")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gdstack import [options] <file.gds>")
		os.Exit(1)
	}
	input := fs.Arg(0)

	cfg := setup(&f)
	stack := loadStack(cfg)

	opts := importer.Options{
		UnitScale:      cfg.Import.UnitScale,
		ZScale:         cfg.Import.ZScale,
		ChipBase:       cfg.Import.ChipBase || *chipBase,
		ChipBaseHeight: cfg.Import.ChipBaseHeight,
	}
	if *crop != "" {
		rect, err := parseCrop(*crop)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		opts.Crop = &rect
	}

	var sink scene.MeshSink
	counter := scene.NewCountingSink()
	if *dryRun {
		sink = counter
	} else {
		outPath := *out
		if outPath == "" {
			base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
			outPath = filepath.Join(cfg.Output.Dir, base+".obj")
		}
		w, err := scene.CreateOBJ(outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		sink = &teeSink{w, counter}
		fmt.Printf("Writing %s\n", outPath)
	}

	stats, err := importer.ImportFile(input, stack, sink, opts)
	if err != nil {
		sink.Close()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := sink.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Layers:    %d\n", stats.Layers)
	fmt.Printf("Polygons:  %d\n", stats.Polygons)
	fmt.Printf("Meshes:    %d\n", stats.Meshes)
	fmt.Printf("Triangles: %d\n", counter.Triangles)
	if stats.Skipped > 0 {
		fmt.Printf("Skipped:   %d\n", stats.Skipped)
	}
	if stats.Cropped > 0 {
		fmt.Printf("Cropped:   %d\n", stats.Cropped)
	}
	fmt.Printf("Elapsed:   %s\n", stats.Elapsed)
}

func cmdMerge(args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	var f config.Flags
	f.Register(fs)
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: gdstack merge [options] <in.gds> <out.gds>")
		os.Exit(1)
	}

	cfg := setup(&f)
	stack := loadStack(cfg)

	stats, err := merge.MergeFile(fs.Arg(0), fs.Arg(1), stack)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Layers:   %d\n", stats.Layers)
	fmt.Printf("Polygons: %d -> %d\n", stats.Input, stats.Output)
	if stats.Degenerate > 0 {
		logger.Warn("shapes touching only at edges or corners were left separate",
			zap.Int("pairs", stats.Degenerate))
	}
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	var f config.Flags
	f.Register(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gdstack info <file.gds>")
		os.Exit(1)
	}
	setup(&f)

	lib, err := gdsii.ParseFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Library:    %s\n", lib.Name)
	fmt.Printf("Unit:       %g m/db-unit\n", lib.MeterUnit)
	fmt.Printf("Structures: %d\n", len(lib.Structures))

	var tops []string
	for _, st := range lib.TopLevel() {
		tops = append(tops, st.Name)
	}
	fmt.Printf("Top cells:  %s\n", strings.Join(tops, ", "))

	if bbox, ok := lib.BoundingBox(); ok {
		um := lib.UnitFactor(1e-6)
		fmt.Printf("Extent:     (%.3f, %.3f) - (%.3f, %.3f) um\n",
			bbox.Min.X*um, bbox.Min.Y*um, bbox.Max.X*um, bbox.Max.Y*um)
	}

	layers := lib.Layers()
	keys := make([]gdsii.LayerKey, 0, len(layers))
	for k := range layers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Layer != keys[j].Layer {
			return keys[i].Layer < keys[j].Layer
		}
		return keys[i].Datatype < keys[j].Datatype
	})

	fmt.Println()
	fmt.Println("Shapes by layer:")
	for _, k := range keys {
		fmt.Printf("  %-8s %d\n", k.String(), layers[k])
	}
}

func cmdLayers(args []string) {
	fs := flag.NewFlagSet("layers", flag.ExitOnError)
	var f config.Flags
	f.Register(fs)
	fs.Parse(args)

	cfg := setup(&f)

	if fs.NArg() == 0 {
		names, err := pdk.ListConfigs(cfg.PDK.Dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, name := range names {
			marker := " "
			if name == cfg.PDK.Default {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return
	}

	stack, err := pdk.LoadNamed(cfg.PDK.Dir, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-12s %-8s %8s %8s\n", "Layer", "GDS", "Z", "Height")
	for _, spec := range stack {
		fmt.Printf("%-12s %-8s %8.3f %8.3f\n",
			spec.Name, spec.GDSPair(), spec.Z, spec.Height)
	}
}

func cmdValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var f config.Flags
	f.Register(fs)
	fs.Parse(args)

	cfg := setup(&f)

	names, err := pdk.ListConfigs(cfg.PDK.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(names) == 0 {
		fmt.Fprintf(os.Stderr, "No layer stacks found in %s\n", cfg.PDK.Dir)
		os.Exit(1)
	}

	failed := 0
	for _, name := range names {
		stack, err := pdk.LoadNamed(cfg.PDK.Dir, name)
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", name, err)
			failed++
			continue
		}
		fmt.Printf("OK   %s (%d layers)\n", name, len(stack))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// parseCrop parses "x,y,width,height" into a rectangle.
func parseCrop(s string) (geom.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geom.Rect{}, fmt.Errorf("crop wants x,y,width,height, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Rect{}, fmt.Errorf("crop coordinate %q: %w", p, err)
		}
		vals[i] = v
	}
	if vals[2] < 0 || vals[3] < 0 {
		return geom.Rect{}, fmt.Errorf("crop size must not be negative, got %q", s)
	}
	r := geom.NewRect(vals[0], vals[1], vals[2], vals[3])
	if r.IsEmpty() {
		return geom.Rect{}, fmt.Errorf("crop region %q has no area", s)
	}
	return r, nil
}

// teeSink forwards meshes to a writer while counting them.
type teeSink struct {
	w       scene.MeshSink
	counter *scene.CountingSink
}

func (s *teeSink) Add(m *extrude.Mesh) error {
	if err := s.counter.Add(m); err != nil {
		return err
	}
	return s.w.Add(m)
}

func (s *teeSink) Close() error {
	return s.w.Close()
}
