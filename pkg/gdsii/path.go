package gdsii

import (
	"math"

	"github.com/siliconforge/gdstack/pkg/geom"
)

// pathOutline expands a path element's centerline into its outline
// polygon in database units: left offset side forward, right offset
// side backward, with miter joins at interior vertices. Path type 2
// extends both ends by half the width; round ends (type 1) are
// approximated the same way.
//
// Returns nil for paths with no area (fewer than 2 distinct points or
// zero width).
func pathOutline(p Path) geom.Ring {
	pts := dedupPoints(p.XY)
	if len(pts) < 2 || p.Width <= 0 {
		return nil
	}
	half := float64(p.Width) / 2

	if p.PathType != 0 {
		pts = extendEnds(pts, half)
	}

	n := len(pts)
	left := make([]geom.Point, n)
	right := make([]geom.Point, n)

	for i := 0; i < n; i++ {
		switch i {
		case 0:
			nrm := normal(pts[0], pts[1])
			left[0] = pts[0].Add(nrm.Scale(half))
			right[0] = pts[0].Sub(nrm.Scale(half))
		case n - 1:
			nrm := normal(pts[n-2], pts[n-1])
			left[n-1] = pts[n-1].Add(nrm.Scale(half))
			right[n-1] = pts[n-1].Sub(nrm.Scale(half))
		default:
			left[i] = miter(pts[i-1], pts[i], pts[i+1], half)
			right[i] = miter(pts[i-1], pts[i], pts[i+1], -half)
		}
	}

	ring := make(geom.Ring, 0, 2*n)
	ring = append(ring, left...)
	for i := n - 1; i >= 0; i-- {
		ring = append(ring, right[i])
	}
	return ring
}

func dedupPoints(xy []int32) []geom.Point {
	var pts []geom.Point
	for i := 0; i+1 < len(xy); i += 2 {
		p := geom.Point{X: float64(xy[i]), Y: float64(xy[i+1])}
		if len(pts) == 0 || p != pts[len(pts)-1] {
			pts = append(pts, p)
		}
	}
	return pts
}

// extendEnds moves the first and last centerline points outward by
// half a width along the end segment directions.
func extendEnds(pts []geom.Point, half float64) []geom.Point {
	out := append([]geom.Point{}, pts...)
	d0 := direction(pts[1], pts[0])
	dn := direction(pts[len(pts)-2], pts[len(pts)-1])
	out[0] = pts[0].Add(d0.Scale(half))
	out[len(out)-1] = pts[len(pts)-1].Add(dn.Scale(half))
	return out
}

func direction(from, to geom.Point) geom.Point {
	d := to.Sub(from)
	l := math.Hypot(d.X, d.Y)
	if l == 0 {
		return geom.Point{}
	}
	return d.Scale(1 / l)
}

// normal returns the unit left normal of the segment from a to b.
func normal(a, b geom.Point) geom.Point {
	d := direction(a, b)
	return geom.Point{X: -d.Y, Y: d.X}
}

// miter intersects the two offset lines meeting at vertex b. offset
// is positive for the left side. Nearly collinear segments fall back
// to the plain normal offset to avoid miter spikes.
func miter(a, b, c geom.Point, offset float64) geom.Point {
	n1 := normal(a, b)
	n2 := normal(b, c)

	// Offset line 1: through b + n1*offset, direction a->b.
	// Offset line 2: through b + n2*offset, direction b->c.
	p1 := b.Add(n1.Scale(offset))
	p2 := b.Add(n2.Scale(offset))
	d1 := direction(a, b)
	d2 := direction(b, c)

	denom := d1.Cross(d2)
	if math.Abs(denom) < 1e-9 {
		return p1
	}
	t := p2.Sub(p1).Cross(d2) / denom
	return p1.Add(d1.Scale(t))
}
