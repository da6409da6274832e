package geom

// ClipToRect intersects a polygon with an axis-aligned rectangle using
// Sutherland-Hodgman clipping. Returns the clipped polygon and true
// when any area survives, or a zero Polygon and false when the polygon
// lies entirely outside the rectangle.
//
// A polygon fully inside the rectangle is returned unchanged (same
// backing arrays). Holes are clipped ring by ring; a hole that falls
// completely outside the rectangle is dropped.
func ClipToRect(p Polygon, clip Rect) (Polygon, bool) {
	if clip.IsEmpty() || len(p.Outer) < 3 {
		return Polygon{}, false
	}

	bbox := p.BoundingBox()
	if !bbox.Intersects(clip) {
		return Polygon{}, false
	}
	if clip.ContainsRect(bbox) {
		return p, true
	}

	outer := clipRing(p.Outer, clip)
	if len(outer) < 3 || abs(outer.Area()) < 1e-12 {
		return Polygon{}, false
	}

	out := Polygon{Outer: outer}
	for _, h := range p.Holes {
		clipped := clipRing(h, clip)
		if len(clipped) >= 3 && abs(clipped.Area()) >= 1e-12 {
			out.Holes = append(out.Holes, clipped)
		}
	}
	return out, true
}

// clipRing clips a single ring against each rectangle edge in turn.
func clipRing(ring Ring, clip Rect) Ring {
	out := ring
	for edge := 0; edge < 4 && len(out) > 0; edge++ {
		out = clipAgainstEdge(out, edge, clip)
	}
	return out
}

// clipAgainstEdge clips a ring against one rectangle edge:
// 0=left, 1=right, 2=bottom, 3=top.
func clipAgainstEdge(ring Ring, edge int, clip Rect) Ring {
	inside := func(p Point) bool {
		switch edge {
		case 0:
			return p.X >= clip.Min.X
		case 1:
			return p.X <= clip.Max.X
		case 2:
			return p.Y >= clip.Min.Y
		default:
			return p.Y <= clip.Max.Y
		}
	}

	intersect := func(a, b Point) Point {
		switch edge {
		case 0:
			return intersectVertical(a, b, clip.Min.X)
		case 1:
			return intersectVertical(a, b, clip.Max.X)
		case 2:
			return intersectHorizontal(a, b, clip.Min.Y)
		default:
			return intersectHorizontal(a, b, clip.Max.Y)
		}
	}

	var out Ring
	for i, cur := range ring {
		prev := ring[(i+len(ring)-1)%len(ring)]
		curIn := inside(cur)
		prevIn := inside(prev)

		switch {
		case curIn && prevIn:
			out = append(out, cur)
		case curIn && !prevIn:
			out = append(out, intersect(prev, cur), cur)
		case !curIn && prevIn:
			out = append(out, intersect(prev, cur))
		}
	}
	return out
}

func intersectVertical(a, b Point, x float64) Point {
	t := (x - a.X) / (b.X - a.X)
	return Point{x, a.Y + t*(b.Y-a.Y)}
}

func intersectHorizontal(a, b Point, y float64) Point {
	t := (y - a.Y) / (b.Y - a.Y)
	return Point{a.X + t*(b.X-a.X), y}
}
