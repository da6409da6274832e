package geom

import (
	"errors"
	"math"
	"testing"
)

// triangleArea sums the area of all triangles over the flattened
// vertex array of p.
func triangleArea(p Polygon, tris [][3]int) float64 {
	verts := append(Ring{}, p.Outer...)
	for _, h := range p.Holes {
		verts = append(verts, h...)
	}

	var sum float64
	for _, tri := range tris {
		a, b, c := verts[tri[0]], verts[tri[1]], verts[tri[2]]
		sum += b.Sub(a).Cross(c.Sub(a)) / 2
	}
	return sum
}

func TestTriangulate_Square(t *testing.T) {
	p := Polygon{Outer: square(0, 0, 1)}

	tris, err := Triangulate(p)
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	if len(tris) != 2 {
		t.Fatalf("expected 2 triangles for a square, got %d", len(tris))
	}
	if got := triangleArea(p, tris); math.Abs(got-1) > 1e-12 {
		t.Errorf("expected total area 1, got %f", got)
	}
}

func TestTriangulate_CCWOutput(t *testing.T) {
	p := Polygon{Outer: square(0, 0, 2).Reversed()}

	tris, err := Triangulate(p)
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}

	// All triangles wind CCW regardless of input winding.
	verts := p.Outer
	for _, tri := range tris {
		a, b, c := verts[tri[0]], verts[tri[1]], verts[tri[2]]
		if b.Sub(a).Cross(c.Sub(a)) <= 0 {
			t.Errorf("triangle %v not CCW", tri)
		}
	}
}

func TestTriangulate_Concave(t *testing.T) {
	// L-shape: 6 vertices, 4 triangles.
	p := Polygon{Outer: Ring{
		{0, 0}, {4, 0}, {4, 2}, {2, 2}, {2, 4}, {0, 4},
	}}

	tris, err := Triangulate(p)
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	if len(tris) != 4 {
		t.Errorf("expected 4 triangles for an L-shape, got %d", len(tris))
	}
	if got := triangleArea(p, tris); math.Abs(got-12) > 1e-9 {
		t.Errorf("expected total area 12, got %f", got)
	}
}

func TestTriangulate_WithHole(t *testing.T) {
	p := Polygon{
		Outer: square(0, 0, 10),
		Holes: []Ring{square(4, 4, 2)},
	}

	tris, err := Triangulate(p)
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	if got := triangleArea(p, tris); math.Abs(got-96) > 1e-9 {
		t.Errorf("expected total area 96 (100 - 4 hole), got %f", got)
	}

	// Indices must address the flattened outer+hole vertex array.
	for _, tri := range tris {
		for _, idx := range tri {
			if idx < 0 || idx >= 14 {
				t.Fatalf("triangle index %d out of range", idx)
			}
		}
	}
}

func TestTriangulate_TwoHoles(t *testing.T) {
	p := Polygon{
		Outer: square(0, 0, 10),
		Holes: []Ring{square(1, 1, 2), square(6, 6, 2)},
	}

	tris, err := Triangulate(p)
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	if got := triangleArea(p, tris); math.Abs(got-92) > 1e-9 {
		t.Errorf("expected total area 92, got %f", got)
	}
}

func TestTriangulate_Degenerate(t *testing.T) {
	if tris, err := Triangulate(Polygon{Outer: Ring{{0, 0}, {1, 0}}}); err != nil || tris != nil {
		t.Errorf("2-vertex polygon: expected nil, nil; got %v, %v", tris, err)
	}
}

func TestTriangulate_SelfIntersecting(t *testing.T) {
	// Bowtie polygon cannot be triangulated.
	p := Polygon{Outer: Ring{{0, 0}, {4, 4}, {4, 0}, {0, 4}}}

	_, err := Triangulate(p)
	if !errors.Is(err, ErrTriangulate) {
		t.Errorf("expected ErrTriangulate for a bowtie, got %v", err)
	}
}

func TestTriangulate_CollinearVertex(t *testing.T) {
	// Extra vertex on an edge must not break triangulation.
	p := Polygon{Outer: Ring{
		{0, 0}, {1, 0}, {2, 0}, {2, 2}, {0, 2},
	}}

	tris, err := Triangulate(p)
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	if got := triangleArea(p, tris); math.Abs(got-4) > 1e-9 {
		t.Errorf("expected total area 4, got %f", got)
	}
}
