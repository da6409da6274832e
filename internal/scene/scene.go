// Package scene collects extruded layer meshes and exports them as a
// 3D scene.
package scene

import (
	"github.com/siliconforge/gdstack/internal/extrude"
	"github.com/siliconforge/gdstack/pkg/geom"
	"github.com/siliconforge/gdstack/pkg/pdk"
)

// MeshSink receives extruded meshes one at a time. Meshes for the
// same layer arrive consecutively.
type MeshSink interface {
	Add(m *extrude.Mesh) error
	Close() error
}

// CountingSink tallies meshes without storing them, for dry runs and
// statistics.
type CountingSink struct {
	Meshes    int
	Triangles int
	Layers    map[string]int
	Bounds    extrude.Bounds
}

// NewCountingSink returns an empty counting sink.
func NewCountingSink() *CountingSink {
	return &CountingSink{
		Layers: make(map[string]int),
		Bounds: extrude.NewBounds(),
	}
}

func (s *CountingSink) Add(m *extrude.Mesh) error {
	s.Meshes++
	s.Triangles += m.Triangles()
	s.Layers[m.Layer.Name]++
	s.Bounds.Union(m.Bounds)
	return nil
}

func (s *CountingSink) Close() error { return nil }

// chipBaseSpec styles the substrate slab. The slab sits below z=0 so
// layer geometry rests on top of it.
func chipBaseSpec(height float64) pdk.LayerSpec {
	return pdk.LayerSpec{
		Name:   "ChipBase",
		Z:      -height,
		Height: height,
		Color:  [4]float64{0.05, 0.07, 0.1, 1},
	}
}

// ChipBase builds a substrate slab covering the given planar extent.
func ChipBase(extent geom.Rect, height float64) (*extrude.Mesh, error) {
	p := geom.Polygon{Outer: extent.Ring()}
	return extrude.ExtrudePolygon(p, chipBaseSpec(height), 1)
}
