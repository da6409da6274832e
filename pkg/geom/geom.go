// Package geom provides 2D polygon geometry for chip layout processing:
// area and orientation queries, rectangle clipping, boolean union, and
// triangulation of polygons with holes.
package geom

// Point is a 2D point in chip coordinates.
type Point struct {
	X, Y float64
}

// Add returns p + other.
func (p Point) Add(other Point) Point {
	return Point{p.X + other.X, p.Y + other.Y}
}

// Sub returns p - other.
func (p Point) Sub(other Point) Point {
	return Point{p.X - other.X, p.Y - other.Y}
}

// Scale returns p * s.
func (p Point) Scale(s float64) Point {
	return Point{p.X * s, p.Y * s}
}

// Cross returns the 2D cross product (z component of p × other).
func (p Point) Cross(other Point) float64 {
	return p.X*other.Y - p.Y*other.X
}

// Dot returns the dot product.
func (p Point) Dot(other Point) float64 {
	return p.X*other.X + p.Y*other.Y
}

// Ring is a closed polygon boundary. The closing edge from the last
// vertex back to the first is implicit.
type Ring []Point

// Area returns the signed area of the ring. Positive for
// counter-clockwise winding, negative for clockwise.
func (r Ring) Area() float64 {
	if len(r) < 3 {
		return 0
	}
	var sum float64
	for i, p := range r {
		q := r[(i+1)%len(r)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return sum / 2
}

// IsCCW reports whether the ring winds counter-clockwise.
func (r Ring) IsCCW() bool {
	return r.Area() > 0
}

// Reversed returns a copy of the ring with opposite winding.
func (r Ring) Reversed() Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// Clone returns a deep copy of the ring.
func (r Ring) Clone() Ring {
	out := make(Ring, len(r))
	copy(out, r)
	return out
}

// BoundingBox returns the axis-aligned bounding box of the ring.
// Returns the zero Rect for an empty ring.
func (r Ring) BoundingBox() Rect {
	if len(r) == 0 {
		return Rect{}
	}
	bbox := Rect{Min: r[0], Max: r[0]}
	for _, p := range r[1:] {
		bbox = bbox.ExpandTo(p)
	}
	return bbox
}

// Contains reports whether the point lies inside the ring, using the
// even-odd rule. Points exactly on an edge may report either way.
func (r Ring) Contains(pt Point) bool {
	inside := false
	for i, a := range r {
		b := r[(i+1)%len(r)]
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := a.X + (pt.Y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Polygon is a filled region: one outer boundary plus zero or more
// hole boundaries. Boundaries are assumed non-self-intersecting.
type Polygon struct {
	Outer Ring
	Holes []Ring
}

// Area returns the absolute filled area: |outer| minus the hole areas.
func (p Polygon) Area() float64 {
	area := abs(p.Outer.Area())
	for _, h := range p.Holes {
		area -= abs(h.Area())
	}
	return area
}

// BoundingBox returns the bounding box of the outer ring.
func (p Polygon) BoundingBox() Rect {
	return p.Outer.BoundingBox()
}

// IsDegenerate reports whether the polygon has too few vertices or
// effectively zero area and should be skipped by consumers.
func (p Polygon) IsDegenerate() bool {
	return len(p.Outer) < 3 || abs(p.Outer.Area()) < 1e-12
}

// Clone returns a deep copy of the polygon.
func (p Polygon) Clone() Polygon {
	out := Polygon{Outer: p.Outer.Clone()}
	if len(p.Holes) > 0 {
		out.Holes = make([]Ring, len(p.Holes))
		for i, h := range p.Holes {
			out.Holes[i] = h.Clone()
		}
	}
	return out
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min, Max Point
}

// NewRect builds a Rect from a corner position and extent.
// Negative extents are normalized.
func NewRect(x, y, width, height float64) Rect {
	r := Rect{Min: Point{x, y}, Max: Point{x + width, y + height}}
	if r.Min.X > r.Max.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Min.Y > r.Max.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the vertical extent.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// IsEmpty reports whether the rectangle has zero or negative extent.
func (r Rect) IsEmpty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// ExpandTo grows the rectangle to include the point.
func (r Rect) ExpandTo(p Point) Rect {
	if p.X < r.Min.X {
		r.Min.X = p.X
	}
	if p.Y < r.Min.Y {
		r.Min.Y = p.Y
	}
	if p.X > r.Max.X {
		r.Max.X = p.X
	}
	if p.Y > r.Max.Y {
		r.Max.Y = p.Y
	}
	return r
}

// Union returns the smallest rectangle covering both r and other.
func (r Rect) Union(other Rect) Rect {
	return r.ExpandTo(other.Min).ExpandTo(other.Max)
}

// Intersects reports whether the rectangles overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.Min.X < other.Max.X && other.Min.X < r.Max.X &&
		r.Min.Y < other.Max.Y && other.Min.Y < r.Max.Y
}

// ContainsPoint reports whether the point lies inside or on the
// rectangle boundary.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ContainsRect reports whether other lies entirely within r.
func (r Rect) ContainsRect(other Rect) bool {
	return r.ContainsPoint(other.Min) && r.ContainsPoint(other.Max)
}

// Ring returns the rectangle as a counter-clockwise ring.
func (r Rect) Ring() Ring {
	return Ring{
		{r.Min.X, r.Min.Y},
		{r.Max.X, r.Min.Y},
		{r.Max.X, r.Max.Y},
		{r.Min.X, r.Max.Y},
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
