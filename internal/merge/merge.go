// Package merge unions overlapping shapes per layer and writes the
// result as a new layout. Overlapping shapes that survive as separate
// solids cause shading artifacts downstream, so renders work best on
// merged layouts.
package merge

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/siliconforge/gdstack/internal/logger"
	"github.com/siliconforge/gdstack/pkg/gdsii"
	"github.com/siliconforge/gdstack/pkg/geom"
	"github.com/siliconforge/gdstack/pkg/pdk"
)

// ErrNoTopCell reports a layout without any top-level structure.
var ErrNoTopCell = errors.New("layout has no top-level structure")

// Stats summarizes a merge run.
type Stats struct {
	Layers     int // layers that produced output
	Input      int // flattened input polygons
	Output     int // merged output polygons
	Degenerate int // pairs touching only at edges or corners, left separate
}

// Merge flattens the layout's top structure and unions the shapes of
// every stack layer. The result is a new library with a single
// structure named "<top>_merged".
func Merge(lib *gdsii.Library, stack pdk.Stack) (*gdsii.Library, *Stats, error) {
	if len(stack) == 0 {
		return nil, nil, fmt.Errorf("%w: empty layer stack", pdk.ErrConfig)
	}

	tops := lib.TopLevel()
	if len(tops) == 0 {
		return nil, nil, ErrNoTopCell
	}
	top := tops[0]
	if len(tops) > 1 {
		logger.Warn("multiple top-level structures, merging the first",
			zap.String("structure", top.Name))
	}

	merged := gdsii.Structure{Name: top.Name + "_merged"}
	stats := &Stats{}

	for _, spec := range stack {
		var polys []geom.Polygon
		err := lib.ForEachPolygon(spec.Index, spec.Datatype, func(p geom.Polygon) error {
			polys = append(polys, p)
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("layer %s: %w", spec.Name, err)
		}
		if len(polys) == 0 {
			continue
		}
		stats.Input += len(polys)

		unioned, degen := geom.UnionAll(polys)
		stats.Degenerate += degen

		for _, p := range unioned {
			ring, err := p.Keyhole()
			if err != nil {
				return nil, nil, fmt.Errorf("layer %s: %w", spec.Name, err)
			}
			if ring == nil {
				continue
			}
			merged.Boundary = append(merged.Boundary, gdsii.Boundary{
				Layer:    spec.Index,
				Datatype: spec.Datatype,
				XY:       ringToXY(ring),
			})
			stats.Output++
		}
		stats.Layers++

		logger.Info("merged layer",
			zap.String("layer", spec.Name),
			zap.Int("in", len(polys)),
			zap.Int("out", len(unioned)))
	}

	out := &gdsii.Library{
		Name:       lib.Name,
		Version:    lib.Version,
		UserUnit:   lib.UserUnit,
		MeterUnit:  lib.MeterUnit,
		Structures: []gdsii.Structure{merged},
	}
	return out, stats, nil
}

// MergeFile reads a layout, merges it against the stack, and writes
// the result to outPath.
func MergeFile(inPath, outPath string, stack pdk.Stack) (*Stats, error) {
	lib, err := gdsii.ParseFile(inPath)
	if err != nil {
		return nil, err
	}

	merged, stats, err := Merge(lib, stack)
	if err != nil {
		return nil, err
	}

	if err := merged.WriteFile(outPath); err != nil {
		return nil, err
	}
	return stats, nil
}

// ringToXY converts target coordinates back to integer database
// units. Union output sits on the input lattice, so rounding only
// removes float noise.
func ringToXY(r geom.Ring) []int32 {
	xy := make([]int32, 0, 2*len(r))
	for _, p := range r {
		xy = append(xy, int32(math.Round(p.X)), int32(math.Round(p.Y)))
	}
	return xy
}
