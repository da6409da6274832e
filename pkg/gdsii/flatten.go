package gdsii

import (
	"fmt"
	"math"

	"github.com/siliconforge/gdstack/pkg/geom"
)

// Transform is a 2D affine map: x' = A*x + B*y + Dx, y' = C*x + D*y + Dy.
// GDSII references only produce similarity transforms (translation,
// rotation, uniform magnification, X-axis reflection).
type Transform struct {
	A, B, C, D float64
	Dx, Dy     float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{A: 1, D: 1}
}

// Apply maps a point.
func (t Transform) Apply(p geom.Point) geom.Point {
	return geom.Point{
		X: t.A*p.X + t.B*p.Y + t.Dx,
		Y: t.C*p.X + t.D*p.Y + t.Dy,
	}
}

// Mul composes transforms: the result applies u first, then t.
func (t Transform) Mul(u Transform) Transform {
	return Transform{
		A:  t.A*u.A + t.B*u.C,
		B:  t.A*u.B + t.B*u.D,
		C:  t.C*u.A + t.D*u.C,
		D:  t.C*u.B + t.D*u.D,
		Dx: t.A*u.Dx + t.B*u.Dy + t.Dx,
		Dy: t.C*u.Dx + t.D*u.Dy + t.Dy,
	}
}

// Flips reports whether the transform reverses ring orientation.
func (t Transform) Flips() bool {
	return t.A*t.D-t.B*t.C < 0
}

// refTransform builds the placement transform for a reference
// instance at origin (dx, dy): reflect about X, magnify, rotate,
// translate, in that order.
func refTransform(r Ref, dx, dy float64) Transform {
	rad := r.AngleDeg * math.Pi / 180
	sin, cos := math.Sincos(rad)

	fy := 1.0
	if r.Reflect {
		fy = -1
	}
	return Transform{
		A:  r.Mag * cos,
		B:  r.Mag * -sin * fy,
		C:  r.Mag * sin,
		D:  r.Mag * cos * fy,
		Dx: dx,
		Dy: dy,
	}
}

// ForEachPolygon streams every flattened polygon on the given
// (layer, datatype) pair through fn, in database units. Structure
// references are expanded through their placement transforms starting
// from the library's top-level structures. Path elements are expanded
// to their outline polygons.
//
// Iteration stops at the first error from fn and is restartable: a
// fresh call walks the hierarchy again from the start.
func (l *Library) ForEachPolygon(layer, datatype uint16, fn func(geom.Polygon) error) error {
	want := LayerKey{layer, datatype}
	visiting := make(map[string]bool)

	for _, top := range l.TopLevel() {
		if err := l.walk(top, Identity(), want, visiting, fn); err != nil {
			return err
		}
	}
	return nil
}

func (l *Library) walk(st *Structure, t Transform, want LayerKey,
	visiting map[string]bool, fn func(geom.Polygon) error) error {

	if visiting[st.Name] {
		return fmt.Errorf("%w: structure %q references itself", ErrStructCycle, st.Name)
	}
	visiting[st.Name] = true
	defer delete(visiting, st.Name)

	for _, b := range st.Boundary {
		if (LayerKey{b.Layer, b.Datatype}) != want {
			continue
		}
		ring := transformXY(b.XY, t)
		if len(ring) < 3 {
			continue
		}
		if err := fn(geom.Polygon{Outer: ring}); err != nil {
			return err
		}
	}

	for _, p := range st.Paths {
		if (LayerKey{p.Layer, p.Datatype}) != want {
			continue
		}
		outline := pathOutline(p)
		if len(outline) < 3 {
			continue
		}
		for i, pt := range outline {
			outline[i] = t.Apply(pt)
		}
		if err := fn(geom.Polygon{Outer: outline}); err != nil {
			return err
		}
	}

	for _, r := range st.Refs {
		child := l.Find(r.Name)
		if child == nil {
			return fmt.Errorf("%w: %q referenced from %q", ErrUnknownStruct, r.Name, st.Name)
		}

		if !r.IsArray {
			if len(r.XY) < 2 {
				continue
			}
			ct := t.Mul(refTransform(r, float64(r.XY[0]), float64(r.XY[1])))
			if err := l.walk(child, ct, want, visiting, fn); err != nil {
				return err
			}
			continue
		}

		// AREF: the XY record holds the origin plus the two lattice
		// points spanning the array in the parent frame.
		if len(r.XY) < 6 || r.Cols <= 0 || r.Rows <= 0 {
			continue
		}
		ox, oy := float64(r.XY[0]), float64(r.XY[1])
		colX := (float64(r.XY[2]) - ox) / float64(r.Cols)
		colY := (float64(r.XY[3]) - oy) / float64(r.Cols)
		rowX := (float64(r.XY[4]) - ox) / float64(r.Rows)
		rowY := (float64(r.XY[5]) - oy) / float64(r.Rows)

		for row := 0; row < int(r.Rows); row++ {
			for col := 0; col < int(r.Cols); col++ {
				dx := ox + float64(col)*colX + float64(row)*rowX
				dy := oy + float64(col)*colY + float64(row)*rowY
				ct := t.Mul(refTransform(r, dx, dy))
				if err := l.walk(child, ct, want, visiting, fn); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func transformXY(xy []int32, t Transform) geom.Ring {
	ring := make(geom.Ring, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		ring = append(ring, t.Apply(geom.Point{X: float64(xy[i]), Y: float64(xy[i+1])}))
	}
	return ring
}

// Layers returns flattened polygon counts per (layer, datatype) pair.
func (l *Library) Layers() map[LayerKey]int {
	counts := make(map[LayerKey]int)
	seen := make(map[LayerKey]bool)

	// Collect the keys present anywhere, then count flattened
	// polygons per key.
	for i := range l.Structures {
		for _, b := range l.Structures[i].Boundary {
			seen[LayerKey{b.Layer, b.Datatype}] = true
		}
		for _, p := range l.Structures[i].Paths {
			seen[LayerKey{p.Layer, p.Datatype}] = true
		}
	}
	for key := range seen {
		n := 0
		_ = l.ForEachPolygon(key.Layer, key.Datatype, func(geom.Polygon) error {
			n++
			return nil
		})
		counts[key] = n
	}
	return counts
}

// BoundingBox returns the bounding box of all flattened geometry in
// database units. ok is false when the library holds no geometry.
func (l *Library) BoundingBox() (bbox geom.Rect, ok bool) {
	for key := range l.Layers() {
		_ = l.ForEachPolygon(key.Layer, key.Datatype, func(p geom.Polygon) error {
			b := p.BoundingBox()
			if !ok {
				bbox = b
				ok = true
			} else {
				bbox = bbox.Union(b)
			}
			return nil
		})
	}
	return bbox, ok
}
