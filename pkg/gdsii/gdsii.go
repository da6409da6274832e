// Package gdsii reads and writes GDSII stream format layout files and
// provides flattened per-layer polygon iteration over the layout
// hierarchy. It is the polygon provider for the extrusion pipeline:
// downstream packages consume geom.Polygon values and never touch
// GDSII records.
package gdsii

import (
	"errors"
	"fmt"
)

// Format errors.
var (
	ErrTruncated     = errors.New("truncated GDSII data")
	ErrBadRecord     = errors.New("malformed GDSII record")
	ErrNotGDS        = errors.New("not a GDSII stream: missing HEADER record")
	ErrStructCycle   = errors.New("cyclic structure reference")
	ErrUnknownStruct = errors.New("reference to unknown structure")
)

// Library is a parsed GDSII library.
type Library struct {
	Name       string
	Version    int16   // Stream format version from HEADER
	UserUnit   float64 // Database unit in user units (typically 1e-3)
	MeterUnit  float64 // Database unit in meters (typically 1e-9)
	Structures []Structure

	byName map[string]int
}

// Structure is a named cell holding elements.
type Structure struct {
	Name     string
	Boundary []Boundary
	Paths    []Path
	Refs     []Ref
}

// Boundary is a filled polygon element. XY holds the vertices in
// database units with the implicit closing edge already stripped.
type Boundary struct {
	Layer    uint16
	Datatype uint16
	XY       []int32
}

// Path is a wire element with a width, expanded to a polygon during
// flattening.
type Path struct {
	Layer    uint16
	Datatype uint16
	Width    int32
	PathType int16 // 0=flush ends, 1=round, 2=half-width extension
	XY       []int32
}

// Ref is a structure reference (SREF) or array reference (AREF).
type Ref struct {
	Name      string
	Reflect   bool    // Mirror about the X axis before rotation
	Mag       float64 // Magnification, 1 when absent
	AngleDeg  float64 // Rotation in degrees counter-clockwise
	XY        []int32 // SREF: origin; AREF: origin + two lattice points
	Cols, Rows int16
	IsArray    bool
}

// Structure lookup by name. Returns nil when absent.
func (l *Library) Find(name string) *Structure {
	if i, ok := l.byName[name]; ok {
		return &l.Structures[i]
	}
	return nil
}

// TopLevel returns the structures not referenced by any other
// structure in the library.
func (l *Library) TopLevel() []*Structure {
	referenced := make(map[string]bool)
	for i := range l.Structures {
		for _, r := range l.Structures[i].Refs {
			referenced[r.Name] = true
		}
	}

	var tops []*Structure
	for i := range l.Structures {
		if !referenced[l.Structures[i].Name] {
			tops = append(tops, &l.Structures[i])
		}
	}
	return tops
}

// UnitFactor returns the multiplier from database units to the given
// unit (unit expressed in meters, e.g. 1e-6 for micrometers).
func (l *Library) UnitFactor(unit float64) float64 {
	if unit <= 0 {
		return 1
	}
	return l.MeterUnit / unit
}

func (l *Library) index() {
	l.byName = make(map[string]int, len(l.Structures))
	for i := range l.Structures {
		l.byName[l.Structures[i].Name] = i
	}
}

// LayerKey identifies a (layer, datatype) pair.
type LayerKey struct {
	Layer    uint16
	Datatype uint16
}

func (k LayerKey) String() string {
	return fmt.Sprintf("%d/%d", k.Layer, k.Datatype)
}
