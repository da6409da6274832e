package geom

import (
	"errors"
	"sort"
)

// ErrTriangulate is returned when a polygon cannot be triangulated,
// typically because its boundary self-intersects.
var ErrTriangulate = errors.New("cannot triangulate polygon")

// Triangulate decomposes the polygon interior into triangles using ear
// clipping. Holes are first bridged into the outer boundary through
// mutually visible vertex pairs, then ears are clipped from the
// resulting simple polygon.
//
// Triangle indices refer to the polygon's vertices flattened
// outer-ring-first, followed by each hole ring in order. Triangles
// wind counter-clockwise.
func Triangulate(p Polygon) ([][3]int, error) {
	if len(p.Outer) < 3 {
		return nil, nil
	}

	head := buildRing(p.Outer, 0, true)
	if head == nil {
		return nil, nil
	}

	offset := len(p.Outer)
	var holeHeads []*earNode
	for _, h := range p.Holes {
		if hn := buildRing(h, offset, false); hn != nil {
			holeHeads = append(holeHeads, hn)
		}
		offset += len(h)
	}

	sortHolesRightToLeft(holeHeads)
	for _, hn := range holeHeads {
		var err error
		head, err = bridgeHole(head, hn)
		if err != nil {
			return nil, err
		}
	}

	tris, err := clipEars(head)
	if err != nil {
		return nil, err
	}

	// A self-intersecting boundary can still clip some ears; the
	// covered area then disagrees with the polygon area.
	verts := make([]Point, 0, offset)
	verts = append(verts, p.Outer...)
	for _, h := range p.Holes {
		verts = append(verts, h...)
	}
	var covered float64
	for _, tri := range tris {
		a, b, c := verts[tri[0]], verts[tri[1]], verts[tri[2]]
		covered += b.Sub(a).Cross(c.Sub(a)) / 2
	}
	want := abs(p.Outer.Area())
	for _, h := range p.Holes {
		want -= abs(h.Area())
	}
	if abs(covered-want) > 1e-9*(1+want) {
		return nil, ErrTriangulate
	}

	return tris, nil
}

// earNode is a vertex in the circular doubly-linked ear clipping list.
// idx is the vertex position in the flattened polygon vertex array and
// survives bridging duplication.
type earNode struct {
	p          Point
	idx        int
	prev, next *earNode
}

// buildRing creates a circular list from a ring, forcing
// counter-clockwise winding for the outer ring and clockwise for
// holes. Original flattened indices are preserved through reversal.
func buildRing(r Ring, offset int, ccw bool) *earNode {
	if len(r) < 3 {
		return nil
	}

	forward := r.IsCCW() == ccw

	var head *earNode
	for i := range r {
		j := i
		if !forward {
			j = len(r) - 1 - i
		}
		n := &earNode{p: r[j], idx: offset + j}
		if head == nil {
			head = n
			n.prev = n
			n.next = n
		} else {
			n.prev = head.prev
			n.next = head
			head.prev.next = n
			head.prev = n
		}
	}
	return head
}

// sortHolesRightToLeft orders holes so earlier bridges cannot occlude
// later ones.
func sortHolesRightToLeft(holeHeads []*earNode) {
	sort.Slice(holeHeads, func(i, j int) bool {
		return rightmost(holeHeads[i]).p.X > rightmost(holeHeads[j]).p.X
	})
}

func rightmost(head *earNode) *earNode {
	best := head
	for n := head.next; n != head; n = n.next {
		if n.p.X > best.p.X || (n.p.X == best.p.X && n.p.Y < best.p.Y) {
			best = n
		}
	}
	return best
}

// bridgeHole merges a hole ring into the outer list by connecting the
// hole's rightmost vertex to a visible outer vertex with a pair of
// coincident bridge edges.
func bridgeHole(outer, hole *earNode) (*earNode, error) {
	m := rightmost(hole)

	bridge := findVisibleVertex(outer, m)
	if bridge == nil {
		return nil, ErrTriangulate
	}

	splitRing(bridge, m)
	return outer, nil
}

// findVisibleVertex finds an outer-ring vertex visible from m by
// casting a ray in +X from m, locating the nearest crossed edge, and
// backing off to a reflex vertex inside the candidate triangle when
// one blocks the direct connection.
func findVisibleVertex(outer *earNode, m *earNode) *earNode {
	var (
		hitEdge *earNode // edge start node
		hitX    = 1e308
	)

	n := outer
	for {
		a, b := n.p, n.next.p
		if (a.Y <= m.p.Y && b.Y >= m.p.Y || b.Y <= m.p.Y && a.Y >= m.p.Y) && a.Y != b.Y {
			x := a.X + (m.p.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if x >= m.p.X && x < hitX {
				hitX = x
				hitEdge = n
			}
		}
		n = n.next
		if n == outer {
			break
		}
	}
	if hitEdge == nil {
		return nil
	}

	// Candidate: the edge endpoint on the far side of the ray hit.
	cand := hitEdge
	if hitEdge.next.p.X > hitEdge.p.X {
		cand = hitEdge.next
	}
	hit := Point{hitX, m.p.Y}

	// A reflex outer vertex inside triangle (m, hit, cand) would make
	// the bridge cross the boundary; connect to the closest such
	// vertex instead.
	best := cand
	bestDist := 1e308
	n = outer
	for {
		if n != cand && n.p != m.p && reflex(n) && pointInTriangle(m.p, hit, cand.p, n.p) {
			d := (n.p.X-m.p.X)*(n.p.X-m.p.X) + (n.p.Y-m.p.Y)*(n.p.Y-m.p.Y)
			if d < bestDist {
				bestDist = d
				best = n
			}
		}
		n = n.next
		if n == outer {
			break
		}
	}
	return best
}

func reflex(n *earNode) bool {
	return n.next.p.Sub(n.p).Cross(n.p.Sub(n.prev.p)) > 0
}

// splitRing joins node a (outer) and node b (hole) with duplicate
// bridge nodes, producing one combined ring.
func splitRing(a, b *earNode) {
	a2 := &earNode{p: a.p, idx: a.idx}
	b2 := &earNode{p: b.p, idx: b.idx}
	an := a.next
	bp := b.prev

	a.next = b
	b.prev = a

	a2.next = an
	an.prev = a2

	b2.next = a2
	a2.prev = b2

	bp.next = b2
	b2.prev = bp
}

// clipEars runs the ear clipping loop over the combined ring.
func clipEars(head *earNode) ([][3]int, error) {
	count := 1
	for n := head.next; n != head; n = n.next {
		count++
	}
	if count < 3 {
		return nil, nil
	}

	var tris [][3]int
	n := head
	sinceLastEar := 0

	for count > 3 {
		a, b, c := n.prev, n, n.next

		cross := b.p.Sub(a.p).Cross(c.p.Sub(b.p))
		switch {
		case cross == 0 && (a.p == c.p || b.p == a.p || b.p == c.p):
			// Collapsed spike or duplicate vertex, remove silently.
			a.next = c
			c.prev = a
			n = c
			count--
			sinceLastEar = 0
			continue
		case cross > 0 && isEar(a, b, c):
			tris = append(tris, [3]int{a.idx, b.idx, c.idx})
			a.next = c
			c.prev = a
			n = c
			count--
			sinceLastEar = 0
			continue
		}

		n = n.next
		sinceLastEar++
		if sinceLastEar > count {
			// Full pass with no ear: boundary self-intersects.
			return nil, ErrTriangulate
		}
	}

	a, b, c := n.prev, n, n.next
	if b.p.Sub(a.p).Cross(c.p.Sub(b.p)) > 0 {
		tris = append(tris, [3]int{a.idx, b.idx, c.idx})
	}
	return tris, nil
}

// isEar reports whether convex vertex b forms an ear: no other ring
// vertex lies strictly inside triangle (prev, b, next).
func isEar(a, b, c *earNode) bool {
	for n := c.next; n != a; n = n.next {
		if n.p == a.p || n.p == b.p || n.p == c.p {
			continue
		}
		if pointInTriangle(a.p, b.p, c.p, n.p) {
			return false
		}
	}
	return true
}

// pointInTriangle reports whether pt lies strictly inside triangle
// (a,b,c), either winding.
func pointInTriangle(a, b, c, pt Point) bool {
	d1 := b.Sub(a).Cross(pt.Sub(a))
	d2 := c.Sub(b).Cross(pt.Sub(b))
	d3 := a.Sub(c).Cross(pt.Sub(c))
	return (d1 > 0 && d2 > 0 && d3 > 0) || (d1 < 0 && d2 < 0 && d3 < 0)
}
