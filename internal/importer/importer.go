// Package importer drives the layout-to-scene pipeline: flatten the
// layout per layer, scale to target units, crop, extrude, and hand
// the meshes to a sink.
package importer

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/siliconforge/gdstack/internal/extrude"
	"github.com/siliconforge/gdstack/internal/logger"
	"github.com/siliconforge/gdstack/internal/scene"
	"github.com/siliconforge/gdstack/pkg/gdsii"
	"github.com/siliconforge/gdstack/pkg/geom"
	"github.com/siliconforge/gdstack/pkg/pdk"
)

// Options control one import run.
type Options struct {
	// UnitScale is the target planar unit in meters; 1e-6 yields
	// micrometer coordinates.
	UnitScale float64
	// ZScale stretches layer heights.
	ZScale float64
	// Crop, when set, clips every polygon to this rectangle. The
	// rectangle is in target units.
	Crop *geom.Rect
	// ChipBase adds a substrate slab spanning the layout extent.
	ChipBase       bool
	ChipBaseHeight float64
}

// Stats summarizes an import run.
type Stats struct {
	Layers   int           // layers with at least one mesh
	Polygons int           // flattened polygons seen
	Meshes   int           // meshes delivered to the sink
	Skipped  int           // polygons dropped (degenerate or untriangulable)
	Cropped  int           // polygons dropped entirely outside the crop box
	Elapsed  time.Duration
}

// Run imports a parsed library through the layer stack into sink.
// Broken geometry is logged and skipped; everything else fails the
// run.
func Run(lib *gdsii.Library, stack pdk.Stack, sink scene.MeshSink, opts Options) (*Stats, error) {
	if opts.UnitScale <= 0 {
		return nil, fmt.Errorf("%w: unit scale must be positive, got %g", pdk.ErrConfig, opts.UnitScale)
	}
	if opts.ZScale <= 0 {
		return nil, fmt.Errorf("%w: z scale must be positive, got %g", pdk.ErrConfig, opts.ZScale)
	}
	if len(stack) == 0 {
		return nil, ErrEmptyStack
	}

	start := time.Now()
	factor := lib.UnitFactor(opts.UnitScale)
	stats := &Stats{}

	for _, spec := range stack {
		n, err := importLayer(lib, spec, factor, sink, opts, stats)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", spec.Name, err)
		}
		if n > 0 {
			stats.Layers++
		}
		logger.Debug("layer imported",
			zap.String("layer", spec.Name),
			zap.String("gds", spec.GDSPair()),
			zap.Int("meshes", n))
	}

	if opts.ChipBase {
		if err := addChipBase(lib, factor, sink, opts); err != nil {
			return nil, err
		}
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}

// ImportFile parses a layout file and runs the pipeline on it.
func ImportFile(path string, stack pdk.Stack, sink scene.MeshSink, opts Options) (*Stats, error) {
	lib, err := gdsii.ParseFile(path)
	if err != nil {
		return nil, err
	}
	logger.Info("layout parsed",
		zap.String("file", path),
		zap.String("library", lib.Name),
		zap.Int("structures", len(lib.Structures)))
	return Run(lib, stack, sink, opts)
}

func importLayer(lib *gdsii.Library, spec pdk.LayerSpec, factor float64,
	sink scene.MeshSink, opts Options, stats *Stats) (int, error) {

	meshes := 0
	index := -1 // polygon index within this layer, for diagnostics

	err := lib.ForEachPolygon(spec.Index, spec.Datatype, func(p geom.Polygon) error {
		index++
		stats.Polygons++

		p = scalePolygon(p, factor)

		if opts.Crop != nil {
			clipped, ok := geom.ClipToRect(p, *opts.Crop)
			if !ok {
				stats.Cropped++
				return nil
			}
			p = clipped
		}

		m, err := extrude.ExtrudePolygon(p, spec, opts.ZScale)
		if err != nil {
			// Broken geometry in one polygon must not sink the run.
			logger.Warn("skipping polygon",
				zap.String("layer", spec.Name),
				zap.Int("polygon", index),
				zap.Error(err))
			stats.Skipped++
			return nil
		}
		if m == nil {
			stats.Skipped++
			return nil
		}

		if err := sink.Add(m); err != nil {
			return err
		}
		meshes++
		stats.Meshes++
		return nil
	})
	if err != nil {
		return meshes, err
	}
	return meshes, nil
}

func addChipBase(lib *gdsii.Library, factor float64, sink scene.MeshSink, opts Options) error {
	bbox, ok := lib.BoundingBox()
	if !ok {
		logger.Warn("empty layout, skipping chip base")
		return nil
	}

	extent := geom.NewRect(bbox.Min.X*factor, bbox.Min.Y*factor,
		(bbox.Max.X-bbox.Min.X)*factor, (bbox.Max.Y-bbox.Min.Y)*factor)
	if opts.Crop != nil {
		var clipped bool
		extent, clipped = intersectRect(extent, *opts.Crop)
		if !clipped {
			return nil
		}
	}

	m, err := scene.ChipBase(extent, opts.ChipBaseHeight*opts.ZScale)
	if err != nil {
		return fmt.Errorf("chip base: %w", err)
	}
	if m == nil {
		return nil
	}
	return sink.Add(m)
}

func scalePolygon(p geom.Polygon, factor float64) geom.Polygon {
	if factor == 1 {
		return p
	}
	out := geom.Polygon{Outer: scaleRing(p.Outer, factor)}
	if len(p.Holes) > 0 {
		out.Holes = make([]geom.Ring, len(p.Holes))
		for i, h := range p.Holes {
			out.Holes[i] = scaleRing(h, factor)
		}
	}
	return out
}

func scaleRing(r geom.Ring, factor float64) geom.Ring {
	out := make(geom.Ring, len(r))
	for i, pt := range r {
		out[i] = geom.Point{X: pt.X * factor, Y: pt.Y * factor}
	}
	return out
}

func intersectRect(a, b geom.Rect) (geom.Rect, bool) {
	if !a.Intersects(b) {
		return geom.Rect{}, false
	}
	lo := geom.Point{X: max(a.Min.X, b.Min.X), Y: max(a.Min.Y, b.Min.Y)}
	hi := geom.Point{X: min(a.Max.X, b.Max.X), Y: min(a.Max.Y, b.Max.Y)}
	return geom.NewRect(lo.X, lo.Y, hi.X-lo.X, hi.Y-lo.Y), true
}

// ErrEmptyStack reports an import attempted with no layers.
var ErrEmptyStack = errors.New("layer stack is empty")
