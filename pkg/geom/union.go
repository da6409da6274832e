package geom

// Boolean union of layout polygons. Overlapping shapes on the same
// layer are merged with a Greiner-Hormann traversal; shapes that only
// touch along an edge or at a vertex are degenerate for the traversal
// and are left unmerged (the caller decides how to report that).

const unionEps = 1e-9

// UnionAll merges overlapping polygons into as few polygons as
// possible. Disjoint polygons pass through unchanged. Returns the
// merged set and the number of pairs that could not be merged because
// their boundaries only touch degenerately.
func UnionAll(polys []Polygon) ([]Polygon, int) {
	var out []Polygon
	degenerate := 0

	for _, p := range polys {
		if p.IsDegenerate() {
			continue
		}
		cur := p.Clone()

		// Try to absorb cur into any already-merged polygon,
		// repeating because a merge can connect previously
		// separate results.
		for {
			merged := false
			for i := range out {
				if !out[i].BoundingBox().Intersects(cur.BoundingBox()) {
					continue
				}
				res, ok, degen := union2(out[i], cur)
				if degen {
					degenerate++
					continue
				}
				if ok {
					cur = res
					out = append(out[:i], out[i+1:]...)
					merged = true
					break
				}
			}
			if !merged {
				break
			}
		}
		out = append(out, cur)
	}
	return out, degenerate
}

// union2 unions two polygons. Returns (result, true, false) when the
// polygons overlap and were merged, (_, false, false) when they are
// disjoint, and (_, false, true) when their boundaries intersect
// degenerately (shared vertex or collinear edge overlap).
//
// Hole-carrying inputs are not merged; GDSII boundaries are simple
// rings and holes only appear downstream of this step.
func union2(a, b Polygon) (Polygon, bool, bool) {
	if len(a.Holes) > 0 || len(b.Holes) > 0 {
		return Polygon{}, false, false
	}

	sub := ccw(a.Outer)
	clp := ccw(b.Outer)

	subHead := buildGHRing(sub)
	clpHead := buildGHRing(clp)

	crossings, degen := insertIntersections(subHead, clpHead)
	if degen {
		return Polygon{}, false, true
	}

	if crossings == 0 {
		// No edge crossings: containment or disjoint.
		if clp.Contains(sub[0]) {
			return Polygon{Outer: clp}, true, false
		}
		if sub.Contains(clp[0]) {
			return Polygon{Outer: sub}, true, false
		}
		return Polygon{}, false, false
	}

	markEntries(subHead, clp, true)
	markEntries(clpHead, sub, true)

	rings := traceRings(subHead)
	return assemblePolygon(rings)
}

// ghVertex is a vertex in a Greiner-Hormann circular list.
type ghVertex struct {
	p          Point
	next, prev *ghVertex
	neighbor   *ghVertex
	intersect  bool
	entry      bool
	visited    bool
	alpha      float64
}

func ccw(r Ring) Ring {
	if r.IsCCW() {
		return r
	}
	return r.Reversed()
}

func buildGHRing(r Ring) *ghVertex {
	var head *ghVertex
	for _, p := range r {
		v := &ghVertex{p: p}
		if head == nil {
			head = v
			v.next = v
			v.prev = v
		} else {
			v.prev = head.prev
			v.next = head
			head.prev.next = v
			head.prev = v
		}
	}
	return head
}

// insertIntersections finds all proper edge crossings between the two
// rings and inserts linked intersection vertices into both. Reports
// the crossing count and whether any degenerate contact was seen.
func insertIntersections(subHead, clpHead *ghVertex) (int, bool) {
	crossings := 0

	for s := subHead; ; {
		sNext := originalNext(s)
		for c := clpHead; ; {
			cNext := originalNext(c)

			t, u, ok, degen := segIntersect(s.p, sNext.p, c.p, cNext.p)
			if degen {
				return 0, true
			}
			if ok {
				p := Point{
					s.p.X + t*(sNext.p.X-s.p.X),
					s.p.Y + t*(sNext.p.Y-s.p.Y),
				}
				is := &ghVertex{p: p, intersect: true, alpha: t}
				ic := &ghVertex{p: p, intersect: true, alpha: u}
				is.neighbor = ic
				ic.neighbor = is
				insertSorted(s, sNext, is)
				insertSorted(c, cNext, ic)
				crossings++
			}

			c = cNext
			if c == clpHead {
				break
			}
		}
		s = sNext
		if s == subHead {
			break
		}
	}
	return crossings, false
}

// originalNext returns the next non-intersection vertex, i.e. the
// other endpoint of the original edge starting at v.
func originalNext(v *ghVertex) *ghVertex {
	n := v.next
	for n.intersect {
		n = n.next
	}
	return n
}

// insertSorted places an intersection vertex between edge endpoints,
// ordered by its position along the edge.
func insertSorted(from, to *ghVertex, v *ghVertex) {
	cur := from
	for cur.next != to && cur.next.alpha < v.alpha {
		cur = cur.next
	}
	v.next = cur.next
	v.prev = cur
	cur.next.prev = v
	cur.next = v
}

// markEntries sets alternating entry/exit flags along the ring. For a
// union the first intersection after an inside start point is an
// entry.
func markEntries(head *ghVertex, other Ring, union bool) {
	entry := other.Contains(head.p)
	if !union {
		entry = !entry
	}
	for v := head; ; {
		if v.intersect {
			v.entry = entry
			entry = !entry
		}
		v = v.next
		if v == head {
			break
		}
	}
}

// traceRings walks unvisited intersections producing result rings.
func traceRings(subHead *ghVertex) []Ring {
	var rings []Ring

	for {
		start := firstUnvisited(subHead)
		if start == nil {
			break
		}

		var ring Ring
		cur := start
		for {
			cur.visited = true
			cur.neighbor.visited = true
			if cur.entry {
				for {
					cur = cur.next
					ring = append(ring, cur.p)
					if cur.intersect {
						break
					}
				}
			} else {
				for {
					cur = cur.prev
					ring = append(ring, cur.p)
					if cur.intersect {
						break
					}
				}
			}
			cur = cur.neighbor
			if cur == start || cur.neighbor == start {
				break
			}
		}
		if len(ring) >= 3 {
			rings = append(rings, dedupRing(ring))
		}
	}
	return rings
}

func firstUnvisited(head *ghVertex) *ghVertex {
	for v := head; ; {
		if v.intersect && !v.visited {
			return v
		}
		v = v.next
		if v == head {
			return nil
		}
	}
}

func dedupRing(r Ring) Ring {
	out := r[:0]
	for i, p := range r {
		if i == 0 || p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

// assemblePolygon classifies traced rings: the largest is the outer
// boundary, contained opposite-wound rings are holes.
func assemblePolygon(rings []Ring) (Polygon, bool, bool) {
	if len(rings) == 0 {
		return Polygon{}, false, false
	}

	outer := 0
	best := 0.0
	for i, r := range rings {
		if a := abs(r.Area()); a > best {
			best = a
			outer = i
		}
	}

	poly := Polygon{Outer: ccw(rings[outer])}
	for i, r := range rings {
		if i == outer || len(r) < 3 {
			continue
		}
		if poly.Outer.Contains(r[0]) {
			hole := r
			if hole.IsCCW() {
				hole = hole.Reversed()
			}
			poly.Holes = append(poly.Holes, hole)
		}
	}
	return poly, true, false
}

// segIntersect intersects segments a1-a2 and b1-b2. ok is true for a
// proper interior crossing with parameters t (along a) and u (along
// b). degenerate is true for parallel overlap or endpoint contact.
func segIntersect(a1, a2, b1, b2 Point) (t, u float64, ok, degenerate bool) {
	da := a2.Sub(a1)
	db := b2.Sub(b1)
	d := da.Cross(db)

	if d == 0 {
		// Parallel: degenerate only when collinear and overlapping.
		if b1.Sub(a1).Cross(da) != 0 {
			return 0, 0, false, false
		}
		return 0, 0, false, collinearOverlap(a1, a2, b1, b2)
	}

	t = b1.Sub(a1).Cross(db) / d
	u = b1.Sub(a1).Cross(da) / d

	if t < -unionEps || t > 1+unionEps || u < -unionEps || u > 1+unionEps {
		return 0, 0, false, false
	}
	if t < unionEps || t > 1-unionEps || u < unionEps || u > 1-unionEps {
		// Crossing at or through an endpoint.
		return 0, 0, false, true
	}
	return t, u, true, false
}

func collinearOverlap(a1, a2, b1, b2 Point) bool {
	da := a2.Sub(a1)
	// Project onto the dominant axis.
	var amin, amax, bmin, bmax float64
	if abs(da.X) >= abs(da.Y) {
		amin, amax = minMax(a1.X, a2.X)
		bmin, bmax = minMax(b1.X, b2.X)
	} else {
		amin, amax = minMax(a1.Y, a2.Y)
		bmin, bmax = minMax(b1.Y, b2.Y)
	}
	return amax > bmin+unionEps && bmax > amin+unionEps
}

func minMax(a, b float64) (float64, float64) {
	if a < b {
		return a, b
	}
	return b, a
}
