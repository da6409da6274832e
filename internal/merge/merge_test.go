package merge

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/siliconforge/gdstack/pkg/gdsii"
	"github.com/siliconforge/gdstack/pkg/geom"
	"github.com/siliconforge/gdstack/pkg/pdk"
)

var testStack = pdk.Stack{
	{Name: "Activ", Index: 1, Datatype: 0, Z: 0, Height: 0.4,
		Color: [4]float64{0.2, 0.7, 0.2, 1}},
	{Name: "Metal1", Index: 8, Datatype: 0, Z: 0.35, Height: 0.30,
		Color: [4]float64{0.45, 0.45, 0.5, 1}},
}

func roundTrip(t *testing.T, lib *gdsii.Library) *gdsii.Library {
	t.Helper()
	var buf bytes.Buffer
	if err := lib.Write(&buf); err != nil {
		t.Fatalf("serializing: %v", err)
	}
	parsed, err := gdsii.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	return parsed
}

// testLibrary holds two overlapping Metal1 squares, one separate
// Metal1 square, and one Activ square.
func testLibrary(t *testing.T) *gdsii.Library {
	t.Helper()
	return roundTrip(t, &gdsii.Library{
		Name:      "CHIP",
		UserUnit:  1e-3,
		MeterUnit: 1e-9,
		Structures: []gdsii.Structure{
			{
				Name: "TOP",
				Boundary: []gdsii.Boundary{
					{Layer: 8, XY: []int32{0, 0, 100, 0, 100, 100, 0, 100}},
					{Layer: 8, XY: []int32{50, 50, 150, 50, 150, 150, 50, 150}},
					{Layer: 8, XY: []int32{500, 500, 600, 500, 600, 600, 500, 600}},
					{Layer: 1, XY: []int32{0, 0, 300, 0, 300, 300, 0, 300}},
				},
			},
		},
	})
}

func layerArea(t *testing.T, lib *gdsii.Library, layer uint16) float64 {
	t.Helper()
	var area float64
	err := lib.ForEachPolygon(layer, 0, func(p geom.Polygon) error {
		area += p.Area()
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachPolygon failed: %v", err)
	}
	return area
}

func TestMerge(t *testing.T) {
	merged, stats, err := Merge(testLibrary(t), testStack)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	if len(merged.Structures) != 1 {
		t.Fatalf("expected 1 structure, got %d", len(merged.Structures))
	}
	st := merged.Structures[0]
	if st.Name != "TOP_merged" {
		t.Errorf("expected structure TOP_merged, got %s", st.Name)
	}

	if stats.Input != 4 {
		t.Errorf("expected 4 input polygons, got %d", stats.Input)
	}
	// Two overlapping squares collapse into one; the others pass
	// through.
	if stats.Output != 3 {
		t.Errorf("expected 3 output polygons, got %d", stats.Output)
	}
	if stats.Layers != 2 {
		t.Errorf("expected 2 layers with output, got %d", stats.Layers)
	}

	// Units carry over.
	if merged.UserUnit != 1e-3 || merged.MeterUnit != 1e-9 {
		t.Errorf("units not preserved: %g %g", merged.UserUnit, merged.MeterUnit)
	}

	// Union preserves covered area: 2x overlapping 100-squares cover
	// 100*100*2 - 50*50 = 17500, plus the separate 100-square.
	reparsed := roundTrip(t, merged)
	if area := layerArea(t, reparsed, 8); math.Abs(area-27500) > 1e-6 {
		t.Errorf("expected Metal1 area 27500, got %g", area)
	}
	if area := layerArea(t, reparsed, 1); math.Abs(area-90000) > 1e-6 {
		t.Errorf("expected Activ area 90000, got %g", area)
	}
}

func TestMergeHolePreserved(t *testing.T) {
	// Four rectangles forming a closed frame union into a polygon
	// with a hole, which the output must keep carved out.
	lib := roundTrip(t, &gdsii.Library{
		Name:      "FRAME",
		UserUnit:  1e-3,
		MeterUnit: 1e-9,
		Structures: []gdsii.Structure{
			{
				Name: "TOP",
				Boundary: []gdsii.Boundary{
					{Layer: 8, XY: []int32{0, 0, 100, 0, 100, 20, 0, 20}},
					{Layer: 8, XY: []int32{0, 80, 100, 80, 100, 100, 0, 100}},
					{Layer: 8, XY: []int32{0, 10, 20, 10, 20, 90, 0, 90}},
					{Layer: 8, XY: []int32{80, 10, 100, 10, 100, 90, 80, 90}},
				},
			},
		},
	})

	merged, _, err := Merge(lib, testStack)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	// Frame area: full 100x100 minus inner 60x60 window.
	reparsed := roundTrip(t, merged)
	if area := layerArea(t, reparsed, 8); math.Abs(area-6400) > 1e-6 {
		t.Errorf("expected frame area 6400, got %g", area)
	}
}

func TestMergeNoTopCell(t *testing.T) {
	lib := &gdsii.Library{Name: "EMPTY", UserUnit: 1e-3, MeterUnit: 1e-9}
	if _, _, err := Merge(lib, testStack); !errors.Is(err, ErrNoTopCell) {
		t.Errorf("expected ErrNoTopCell, got %v", err)
	}
}

func TestMergeEmptyStack(t *testing.T) {
	if _, _, err := Merge(testLibrary(t), pdk.Stack{}); !errors.Is(err, pdk.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

func TestMergeFile(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.gds")
	outPath := filepath.Join(dir, "out.gds")

	if err := testLibrary(t).WriteFile(inPath); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	stats, err := MergeFile(inPath, outPath, testStack)
	if err != nil {
		t.Fatalf("MergeFile failed: %v", err)
	}
	if stats.Output != 3 {
		t.Errorf("expected 3 output polygons, got %d", stats.Output)
	}

	lib, err := gdsii.ParseFile(outPath)
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if lib.Structures[0].Name != "TOP_merged" {
		t.Errorf("unexpected structure name %s", lib.Structures[0].Name)
	}
}

func TestMergeFileMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := MergeFile(filepath.Join(dir, "nope.gds"), filepath.Join(dir, "out.gds"), testStack)
	if err == nil {
		t.Error("expected error for missing input")
	}
}
