package extrude

import (
	"fmt"

	"github.com/siliconforge/gdstack/pkg/geom"
	"github.com/siliconforge/gdstack/pkg/pdk"
	"github.com/siliconforge/gdstack/pkg/vecmath"
)

// ExtrudePolygon builds a closed prism from one polygon. Planar
// coordinates are expected in the same unit as the layer spec's z and
// height (micrometers after the importer's unit scaling); zScale
// stretches the height axis independently of the planar extent.
//
// Returns (nil, nil) for degenerate polygons (fewer than 3 vertices
// or zero area). Returns geom.ErrTriangulate wrapped with context
// when the boundary cannot be triangulated.
func ExtrudePolygon(p geom.Polygon, spec pdk.LayerSpec, zScale float64) (*Mesh, error) {
	if p.IsDegenerate() {
		return nil, nil
	}

	p = normalize(p)

	tris, err := geom.Triangulate(p)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", spec.Name, err)
	}
	if len(tris) == 0 {
		return nil, nil
	}

	z0 := float32(spec.Z * zScale)
	z1 := float32((spec.Z + spec.Height) * zScale)

	// Flattened 2D vertices: outer ring, then hole rings.
	flat := make([]geom.Point, 0, len(p.Outer))
	flat = append(flat, p.Outer...)
	for _, h := range p.Holes {
		flat = append(flat, h...)
	}
	n := len(flat)

	mesh := &Mesh{
		Layer:    spec,
		Vertices: make([]Vertex, 0, 2*n+4*n),
		Indices:  make([]uint32, 0, 6*len(tris)+6*n),
		Bounds:   NewBounds(),
	}

	// Bottom cap (normal -Z), vertices 0..n-1.
	for _, pt := range flat {
		mesh.addVertex(pt, z0, vecmath.Vec3{Z: -1})
	}
	// Top cap (normal +Z), vertices n..2n-1.
	for _, pt := range flat {
		mesh.addVertex(pt, z1, vecmath.Vec3{Z: 1})
	}

	for _, tri := range tris {
		// Bottom cap faces down: reverse winding.
		mesh.Indices = append(mesh.Indices,
			uint32(tri[0]), uint32(tri[2]), uint32(tri[1]))
		// Top cap keeps the CCW winding from triangulation.
		mesh.Indices = append(mesh.Indices,
			uint32(n+tri[0]), uint32(n+tri[1]), uint32(n+tri[2]))
	}

	// Side walls along the outer ring and every hole ring. The outer
	// ring is CCW and holes CW after normalization, so the same edge
	// formula yields outward normals for both.
	mesh.addWalls(p.Outer, z0, z1)
	for _, h := range p.Holes {
		mesh.addWalls(h, z0, z1)
	}

	return mesh, nil
}

// Extrude builds prisms for a whole polygon set, skipping degenerate
// polygons. A triangulation failure stops the batch; callers that
// want skip-and-continue semantics stream polygons through
// ExtrudePolygon instead.
func Extrude(polys []geom.Polygon, spec pdk.LayerSpec, zScale float64) ([]*Mesh, error) {
	var meshes []*Mesh
	for i, p := range polys {
		m, err := ExtrudePolygon(p, spec, zScale)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", i, err)
		}
		if m != nil {
			meshes = append(meshes, m)
		}
	}
	return meshes, nil
}

// normalize forces outer rings CCW and holes CW so wall normals and
// cap windings come out consistent.
func normalize(p geom.Polygon) geom.Polygon {
	out := p
	if !p.Outer.IsCCW() {
		out.Outer = p.Outer.Reversed()
	}
	copied := false
	for i, h := range p.Holes {
		if h.IsCCW() {
			if !copied {
				out.Holes = append([]geom.Ring{}, p.Holes...)
				copied = true
			}
			out.Holes[i] = h.Reversed()
		}
	}
	return out
}

func (m *Mesh) addVertex(pt geom.Point, z float32, normal vecmath.Vec3) {
	pos := vecmath.Vec3{X: float32(pt.X), Y: float32(pt.Y), Z: z}
	m.Vertices = append(m.Vertices, Vertex{Position: pos, Normal: normal})
	m.Bounds.expand(pos)
}

// addWalls emits one outward-facing quad (two triangles) per ring
// edge, with flat per-face normals.
func (m *Mesh) addWalls(ring geom.Ring, z0, z1 float32) {
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]

		// Outward normal of edge a->b for a CCW boundary.
		edge := vecmath.Vec2{X: float32(b.X - a.X), Y: float32(b.Y - a.Y)}
		if edge.Length() == 0 {
			continue
		}
		out := edge.Perp().Normalize()
		normal := vecmath.Vec3{X: out.X, Y: out.Y}

		base := uint32(len(m.Vertices))
		m.addVertexRaw(vecmath.Vec3{X: float32(a.X), Y: float32(a.Y), Z: z0}, normal)
		m.addVertexRaw(vecmath.Vec3{X: float32(b.X), Y: float32(b.Y), Z: z0}, normal)
		m.addVertexRaw(vecmath.Vec3{X: float32(b.X), Y: float32(b.Y), Z: z1}, normal)
		m.addVertexRaw(vecmath.Vec3{X: float32(a.X), Y: float32(a.Y), Z: z1}, normal)

		m.Indices = append(m.Indices,
			base, base+1, base+2,
			base, base+2, base+3,
		)
	}
}

func (m *Mesh) addVertexRaw(pos, normal vecmath.Vec3) {
	m.Vertices = append(m.Vertices, Vertex{Position: pos, Normal: normal})
	m.Bounds.expand(pos)
}
