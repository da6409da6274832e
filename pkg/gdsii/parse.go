package gdsii

import (
	"fmt"
	"os"
)

// Parse parses a GDSII library from raw bytes.
func Parse(data []byte) (*Library, error) {
	rec, off, err := next(data, 0)
	if err != nil {
		return nil, err
	}
	if rec.Type != recHeader {
		return nil, ErrNotGDS
	}

	lib := &Library{UserUnit: 1e-3, MeterUnit: 1e-9}
	if v := rec.int16s(); len(v) > 0 {
		lib.Version = v[0]
	}

	for off < len(data) {
		rec, off, err = next(data, off)
		if err != nil {
			return nil, err
		}

		switch rec.Type {
		case recBgnLib:
			// Modification timestamps, ignored.
		case recLibName:
			lib.Name = rec.str()
		case recUnits:
			units := rec.real8s()
			if len(units) != 2 {
				return nil, fmt.Errorf("%w: UNITS record with %d values", ErrBadRecord, len(units))
			}
			lib.UserUnit = units[0]
			lib.MeterUnit = units[1]
		case recBgnStr:
			var st Structure
			off, err = parseStructure(data, off, &st)
			if err != nil {
				return nil, err
			}
			lib.Structures = append(lib.Structures, st)
		case recEndLib:
			lib.index()
			return lib, nil
		default:
			// Skip records this reader does not model.
		}
	}

	return nil, fmt.Errorf("%w: missing ENDLIB", ErrTruncated)
}

// parseStructure consumes records after BGNSTR up to ENDSTR.
func parseStructure(data []byte, off int, st *Structure) (int, error) {
	for off < len(data) {
		rec, newOff, err := next(data, off)
		if err != nil {
			return 0, err
		}
		off = newOff

		switch rec.Type {
		case recStrName:
			st.Name = rec.str()
		case recEndStr:
			return off, nil
		case recBoundary, recBox:
			el, n, err := parseElement(data, off)
			if err != nil {
				return 0, fmt.Errorf("structure %q: %w", st.Name, err)
			}
			off = n
			b := Boundary{Layer: el.layer, Datatype: el.datatype, XY: el.xy}
			// The stored boundary repeats the first point as the
			// last; drop the closing duplicate.
			if n := len(b.XY); n >= 4 && b.XY[0] == b.XY[n-2] && b.XY[1] == b.XY[n-1] {
				b.XY = b.XY[:n-2]
			}
			st.Boundary = append(st.Boundary, b)
		case recPath:
			el, n, err := parseElement(data, off)
			if err != nil {
				return 0, fmt.Errorf("structure %q: %w", st.Name, err)
			}
			off = n
			st.Paths = append(st.Paths, Path{
				Layer:    el.layer,
				Datatype: el.datatype,
				Width:    el.width,
				PathType: el.pathType,
				XY:       el.xy,
			})
		case recSRef, recARef:
			el, n, err := parseElement(data, off)
			if err != nil {
				return 0, fmt.Errorf("structure %q: %w", st.Name, err)
			}
			off = n
			ref := Ref{
				Name:     el.sname,
				Reflect:  el.reflect,
				Mag:      el.mag,
				AngleDeg: el.angle,
				XY:       el.xy,
				Cols:     el.cols,
				Rows:     el.rows,
				IsArray:  rec.Type == recARef,
			}
			if ref.Mag == 0 {
				ref.Mag = 1
			}
			st.Refs = append(st.Refs, ref)
		case recText, recNode:
			// Annotation elements carry no fill geometry; skip to
			// the terminating ENDEL.
			if _, off, err = skipElement(data, off); err != nil {
				return 0, fmt.Errorf("structure %q: %w", st.Name, err)
			}
		default:
			// Skip records this reader does not model.
		}
	}
	return 0, fmt.Errorf("%w: structure %q missing ENDSTR", ErrTruncated, st.Name)
}

// element accumulates the property records of one element up to ENDEL.
type element struct {
	layer    uint16
	datatype uint16
	width    int32
	pathType int16
	sname    string
	reflect  bool
	mag      float64
	angle    float64
	cols     int16
	rows     int16
	xy       []int32
}

func parseElement(data []byte, off int) (element, int, error) {
	var el element
	for off < len(data) {
		rec, newOff, err := next(data, off)
		if err != nil {
			return element{}, 0, err
		}
		off = newOff

		switch rec.Type {
		case recLayer:
			if v := rec.int16s(); len(v) > 0 {
				el.layer = uint16(v[0])
			}
		case recDatatype, recBoxType, recTextType, recNodeType:
			if v := rec.int16s(); len(v) > 0 {
				el.datatype = uint16(v[0])
			}
		case recWidth:
			if v := rec.int32s(); len(v) > 0 {
				el.width = v[0]
			}
		case recPathType:
			if v := rec.int16s(); len(v) > 0 {
				el.pathType = v[0]
			}
		case recSName:
			el.sname = rec.str()
		case recSTrans:
			if v := rec.int16s(); len(v) > 0 {
				el.reflect = uint16(v[0])&0x8000 != 0
			}
		case recMag:
			if v := rec.real8s(); len(v) > 0 {
				el.mag = v[0]
			}
		case recAngle:
			if v := rec.real8s(); len(v) > 0 {
				el.angle = v[0]
			}
		case recColRow:
			if v := rec.int16s(); len(v) >= 2 {
				el.cols, el.rows = v[0], v[1]
			}
		case recXY:
			el.xy = rec.int32s()
		case recEndEl:
			return el, off, nil
		}
	}
	return element{}, 0, fmt.Errorf("%w: element missing ENDEL", ErrTruncated)
}

func skipElement(data []byte, off int) (record, int, error) {
	for off < len(data) {
		rec, newOff, err := next(data, off)
		if err != nil {
			return record{}, 0, err
		}
		off = newOff
		if rec.Type == recEndEl {
			return rec, off, nil
		}
	}
	return record{}, 0, fmt.Errorf("%w: element missing ENDEL", ErrTruncated)
}

// ParseFile parses a GDSII file from disk.
func ParseFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GDSII file: %w", err)
	}
	return Parse(data)
}
