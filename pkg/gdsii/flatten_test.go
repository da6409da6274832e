package gdsii

import (
	"errors"
	"math"
	"testing"

	"github.com/siliconforge/gdstack/pkg/geom"
)

func collectPolygons(t *testing.T, lib *Library, layer, datatype uint16) []geom.Polygon {
	t.Helper()
	var polys []geom.Polygon
	err := lib.ForEachPolygon(layer, datatype, func(p geom.Polygon) error {
		polys = append(polys, p.Clone())
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachPolygon failed: %v", err)
	}
	return polys
}

func TestForEachPolygon_SRefTranslation(t *testing.T) {
	lib := testLibrary()

	polys := collectPolygons(t, lib, 8, 0)
	if len(polys) != 1 {
		t.Fatalf("expected 1 polygon, got %d", len(polys))
	}

	bbox := polys[0].BoundingBox()
	if bbox.Min != (geom.Point{X: 100, Y: 200}) || bbox.Max != (geom.Point{X: 110, Y: 210}) {
		t.Errorf("translation not applied, bbox %+v", bbox)
	}
}

func TestForEachPolygon_LayerFilter(t *testing.T) {
	lib := testLibrary()

	if polys := collectPolygons(t, lib, 8, 1); len(polys) != 0 {
		t.Errorf("expected no polygons on 8/1, got %d", len(polys))
	}
	if polys := collectPolygons(t, lib, 9, 0); len(polys) != 0 {
		t.Errorf("expected no polygons on 9/0, got %d", len(polys))
	}
}

func TestForEachPolygon_Rotation(t *testing.T) {
	lib := testLibrary()
	lib.Structures[1].Refs[0].AngleDeg = 90
	lib.Structures[1].Refs[0].XY = []int32{0, 0}

	polys := collectPolygons(t, lib, 8, 0)
	if len(polys) != 1 {
		t.Fatalf("expected 1 polygon, got %d", len(polys))
	}

	// 90° CCW maps the (0..10, 0..10) square to (-10..0, 0..10).
	bbox := polys[0].BoundingBox()
	if math.Abs(bbox.Min.X-(-10)) > 1e-9 || math.Abs(bbox.Max.X) > 1e-9 {
		t.Errorf("rotation not applied, bbox %+v", bbox)
	}
	if math.Abs(math.Abs(polys[0].Outer.Area())-100) > 1e-9 {
		t.Errorf("rotation changed area: %f", polys[0].Outer.Area())
	}
}

func TestForEachPolygon_Magnification(t *testing.T) {
	lib := testLibrary()
	lib.Structures[1].Refs[0].Mag = 2
	lib.Structures[1].Refs[0].XY = []int32{0, 0}

	polys := collectPolygons(t, lib, 8, 0)
	if len(polys) != 1 {
		t.Fatalf("expected 1 polygon, got %d", len(polys))
	}
	if got := math.Abs(polys[0].Outer.Area()); math.Abs(got-400) > 1e-9 {
		t.Errorf("expected magnified area 400, got %f", got)
	}
}

func TestForEachPolygon_Reflection(t *testing.T) {
	lib := testLibrary()
	lib.Structures[1].Refs[0].Reflect = true
	lib.Structures[1].Refs[0].XY = []int32{0, 0}

	polys := collectPolygons(t, lib, 8, 0)
	if len(polys) != 1 {
		t.Fatalf("expected 1 polygon, got %d", len(polys))
	}

	bbox := polys[0].BoundingBox()
	if bbox.Min.Y != -10 || bbox.Max.Y != 0 {
		t.Errorf("X-axis reflection not applied, bbox %+v", bbox)
	}
}

func TestForEachPolygon_ARefGrid(t *testing.T) {
	lib := testLibrary()
	lib.Structures[1].Refs = []Ref{
		{
			Name:    "CELL",
			Mag:     1,
			IsArray: true,
			Cols:    3,
			Rows:    2,
			XY:      []int32{0, 0, 300, 0, 0, 200},
		},
	}

	polys := collectPolygons(t, lib, 8, 0)
	if len(polys) != 6 {
		t.Fatalf("expected 3x2 = 6 instances, got %d", len(polys))
	}

	// Instances sit at 100-unit column spacing and 100-unit row
	// spacing; the far corner instance starts at (200, 100).
	var total geom.Rect
	for i, p := range polys {
		if i == 0 {
			total = p.BoundingBox()
		} else {
			total = total.Union(p.BoundingBox())
		}
	}
	if total.Min != (geom.Point{X: 0, Y: 0}) || total.Max != (geom.Point{X: 210, Y: 110}) {
		t.Errorf("unexpected array extent: %+v", total)
	}
}

func TestForEachPolygon_NestedRefs(t *testing.T) {
	lib := testLibrary()
	lib.Structures = append(lib.Structures, Structure{
		Name: "WRAPPER",
		Refs: []Ref{{Name: "TOP", Mag: 1, XY: []int32{1000, 0}}},
	})
	lib.index()

	polys := collectPolygons(t, lib, 8, 0)
	if len(polys) != 1 {
		t.Fatalf("expected 1 polygon, got %d", len(polys))
	}

	// TOP places CELL at (100, 200); WRAPPER adds (1000, 0).
	bbox := polys[0].BoundingBox()
	if bbox.Min != (geom.Point{X: 1100, Y: 200}) {
		t.Errorf("nested transforms wrong, bbox %+v", bbox)
	}
}

func TestForEachPolygon_UnknownRef(t *testing.T) {
	lib := testLibrary()
	lib.Structures[1].Refs[0].Name = "MISSING"

	err := lib.ForEachPolygon(8, 0, func(geom.Polygon) error { return nil })
	if !errors.Is(err, ErrUnknownStruct) {
		t.Errorf("expected ErrUnknownStruct, got %v", err)
	}
}

func TestForEachPolygon_Cycle(t *testing.T) {
	lib := &Library{
		Structures: []Structure{
			{Name: "A", Refs: []Ref{{Name: "B", Mag: 1, XY: []int32{0, 0}}}},
			{Name: "B", Refs: []Ref{{Name: "A", Mag: 1, XY: []int32{0, 0}}}},
		},
	}
	lib.index()

	// A cycle has no top level structure at all; force traversal by
	// walking A directly.
	err := lib.walk(&lib.Structures[0], Identity(), LayerKey{1, 0},
		map[string]bool{}, func(geom.Polygon) error { return nil })
	if !errors.Is(err, ErrStructCycle) {
		t.Errorf("expected ErrStructCycle, got %v", err)
	}
}

func TestForEachPolygon_StopsOnCallbackError(t *testing.T) {
	lib := testLibrary()
	lib.Structures[0].Boundary = append(lib.Structures[0].Boundary,
		Boundary{Layer: 8, Datatype: 0, XY: []int32{20, 20, 30, 20, 30, 30, 20, 30}})

	sentinel := errors.New("stop")
	calls := 0
	err := lib.ForEachPolygon(8, 0, func(geom.Polygon) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected callback error to surface, got %v", err)
	}
	if calls != 1 {
		t.Errorf("iteration should stop after first error, got %d calls", calls)
	}

	// Restartable: a fresh call sees everything again.
	total := 0
	if err := lib.ForEachPolygon(8, 0, func(geom.Polygon) error {
		total++
		return nil
	}); err != nil {
		t.Fatalf("second iteration failed: %v", err)
	}
	if total != 2 {
		t.Errorf("expected 2 polygons on restart, got %d", total)
	}
}

func TestLayers(t *testing.T) {
	lib := testLibrary()
	lib.Structures[0].Boundary = append(lib.Structures[0].Boundary,
		Boundary{Layer: 10, Datatype: 0, XY: []int32{0, 0, 5, 0, 5, 5, 0, 5}})

	counts := lib.Layers()
	if counts[LayerKey{8, 0}] != 1 {
		t.Errorf("expected 1 polygon on 8/0, got %d", counts[LayerKey{8, 0}])
	}
	if counts[LayerKey{10, 0}] != 1 {
		t.Errorf("expected 1 polygon on 10/0, got %d", counts[LayerKey{10, 0}])
	}
}

func TestBoundingBox(t *testing.T) {
	lib := testLibrary()

	bbox, ok := lib.BoundingBox()
	if !ok {
		t.Fatal("expected geometry")
	}
	if bbox.Min != (geom.Point{X: 100, Y: 200}) || bbox.Max != (geom.Point{X: 110, Y: 210}) {
		t.Errorf("unexpected bbox: %+v", bbox)
	}

	empty := &Library{}
	empty.index()
	if _, ok := empty.BoundingBox(); ok {
		t.Error("empty library should report no bbox")
	}
}

func TestPathOutline(t *testing.T) {
	// Horizontal path, width 10: rectangle 100 long, 10 wide.
	ring := pathOutline(Path{Width: 10, XY: []int32{0, 0, 100, 0}})
	if len(ring) != 4 {
		t.Fatalf("expected 4 outline points, got %d", len(ring))
	}
	if got := math.Abs(ring.Area()); math.Abs(got-1000) > 1e-9 {
		t.Errorf("expected outline area 1000, got %f", got)
	}

	bbox := ring.BoundingBox()
	if bbox.Min != (geom.Point{X: 0, Y: -5}) || bbox.Max != (geom.Point{X: 100, Y: 5}) {
		t.Errorf("unexpected outline bbox: %+v", bbox)
	}
}

func TestPathOutline_ExtendedEnds(t *testing.T) {
	ring := pathOutline(Path{Width: 10, PathType: 2, XY: []int32{0, 0, 100, 0}})

	bbox := ring.BoundingBox()
	if bbox.Min != (geom.Point{X: -5, Y: -5}) || bbox.Max != (geom.Point{X: 105, Y: 5}) {
		t.Errorf("half-width end extension missing, bbox %+v", bbox)
	}
}

func TestPathOutline_Corner(t *testing.T) {
	// L-shaped path with a right-angle miter join.
	ring := pathOutline(Path{Width: 10, XY: []int32{0, 0, 100, 0, 100, 100}})
	if len(ring) != 6 {
		t.Fatalf("expected 6 outline points, got %d", len(ring))
	}

	// Mitered hexagon: [0,105]x[-5,5] plus [95,105]x[5,100].
	got := math.Abs(ring.Area())
	if math.Abs(got-2000) > 1e-6 {
		t.Errorf("expected corner outline area 2000, got %f", got)
	}
}

func TestPathOutline_Degenerate(t *testing.T) {
	if ring := pathOutline(Path{Width: 10, XY: []int32{5, 5}}); ring != nil {
		t.Error("single-point path should produce no outline")
	}
	if ring := pathOutline(Path{Width: 0, XY: []int32{0, 0, 10, 0}}); ring != nil {
		t.Error("zero-width path should produce no outline")
	}
}
