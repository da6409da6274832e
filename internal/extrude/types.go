// Package extrude turns 2D layout polygons into watertight 3D prism
// meshes according to a PDK layer spec.
package extrude

import (
	"github.com/siliconforge/gdstack/pkg/pdk"
	"github.com/siliconforge/gdstack/pkg/vecmath"
)

// Vertex is a mesh vertex with a flat-shaded normal.
type Vertex struct {
	Position vecmath.Vec3
	Normal   vecmath.Vec3
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min vecmath.Vec3
	Max vecmath.Vec3
}

// Mesh is one extruded prism, tagged with the layer it came from.
// Indices form triangles into Vertices.
type Mesh struct {
	Layer    pdk.LayerSpec
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Triangles returns the triangle count.
func (m *Mesh) Triangles() int {
	return len(m.Indices) / 3
}

// NewBounds returns an empty bounds that any expansion will replace.
func NewBounds() Bounds {
	return Bounds{
		Min: vecmath.Vec3{X: 1e30, Y: 1e30, Z: 1e30},
		Max: vecmath.Vec3{X: -1e30, Y: -1e30, Z: -1e30},
	}
}

func (b *Bounds) expand(p vecmath.Vec3) {
	b.Min = vecmath.Min(b.Min, p)
	b.Max = vecmath.Max(b.Max, p)
}

// Union merges another bounds into b.
func (b *Bounds) Union(other Bounds) {
	b.expand(other.Min)
	b.expand(other.Max)
}
