package gdsii

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Write serializes the library to the GDSII stream format. The
// encoding round-trips through Parse, including unit metadata.
func (l *Library) Write(w io.Writer) error {
	rw := &recordWriter{w: w}

	version := l.Version
	if version == 0 {
		version = 600
	}
	rw.int16s(recHeader, version)
	rw.int16s(recBgnLib, make([]int16, 12)...)
	rw.str(recLibName, l.Name)
	rw.real8s(recUnits, l.UserUnit, l.MeterUnit)

	for i := range l.Structures {
		l.Structures[i].write(rw)
	}

	rw.empty(recEndLib, dtNone)
	return rw.err
}

// WriteFile writes the library to a file on disk.
func (l *Library) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating GDSII file: %w", err)
	}
	if err := l.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing GDSII file: %w", err)
	}
	return f.Close()
}

func (st *Structure) write(rw *recordWriter) {
	rw.int16s(recBgnStr, make([]int16, 12)...)
	rw.str(recStrName, st.Name)

	for _, b := range st.Boundary {
		rw.empty(recBoundary, dtNone)
		rw.int16s(recLayer, int16(b.Layer))
		rw.int16s(recDatatype, int16(b.Datatype))
		// Close the ring: the stored polygon repeats its first point.
		xy := make([]int32, 0, len(b.XY)+2)
		xy = append(xy, b.XY...)
		if len(b.XY) >= 2 {
			xy = append(xy, b.XY[0], b.XY[1])
		}
		rw.int32s(recXY, xy...)
		rw.empty(recEndEl, dtNone)
	}

	for _, p := range st.Paths {
		rw.empty(recPath, dtNone)
		rw.int16s(recLayer, int16(p.Layer))
		rw.int16s(recDatatype, int16(p.Datatype))
		if p.PathType != 0 {
			rw.int16s(recPathType, p.PathType)
		}
		rw.int32s(recWidth, p.Width)
		rw.int32s(recXY, p.XY...)
		rw.empty(recEndEl, dtNone)
	}

	for _, r := range st.Refs {
		if r.IsArray {
			rw.empty(recARef, dtNone)
		} else {
			rw.empty(recSRef, dtNone)
		}
		rw.str(recSName, r.Name)
		if r.Reflect {
			rw.bits(recSTrans, 0x8000)
		} else if r.Mag != 1 || r.AngleDeg != 0 {
			rw.bits(recSTrans, 0)
		}
		if r.Mag != 1 {
			rw.real8s(recMag, r.Mag)
		}
		if r.AngleDeg != 0 {
			rw.real8s(recAngle, r.AngleDeg)
		}
		if r.IsArray {
			rw.int16s(recColRow, r.Cols, r.Rows)
		}
		rw.int32s(recXY, r.XY...)
		rw.empty(recEndEl, dtNone)
	}

	rw.empty(recEndStr, dtNone)
}

// recordWriter emits length-prefixed big-endian records, keeping the
// first error.
type recordWriter struct {
	w   io.Writer
	err error
}

func (rw *recordWriter) emit(recType, dataType uint8, payload []byte) {
	if rw.err != nil {
		return
	}
	header := []byte{0, 0, recType, dataType}
	binary.BigEndian.PutUint16(header, uint16(4+len(payload)))
	if _, err := rw.w.Write(header); err != nil {
		rw.err = err
		return
	}
	if len(payload) > 0 {
		if _, err := rw.w.Write(payload); err != nil {
			rw.err = err
		}
	}
}

func (rw *recordWriter) empty(recType, dataType uint8) {
	rw.emit(recType, dataType, nil)
}

func (rw *recordWriter) int16s(recType uint8, vals ...int16) {
	payload := make([]byte, len(vals)*2)
	for i, v := range vals {
		binary.BigEndian.PutUint16(payload[i*2:], uint16(v))
	}
	rw.emit(recType, dtInt16, payload)
}

func (rw *recordWriter) bits(recType uint8, v uint16) {
	payload := make([]byte, 2)
	binary.BigEndian.PutUint16(payload, v)
	rw.emit(recType, dtBitArray, payload)
}

func (rw *recordWriter) int32s(recType uint8, vals ...int32) {
	payload := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.BigEndian.PutUint32(payload[i*4:], uint32(v))
	}
	rw.emit(recType, dtInt32, payload)
}

func (rw *recordWriter) real8s(recType uint8, vals ...float64) {
	payload := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.BigEndian.PutUint64(payload[i*8:], encodeReal8(v))
	}
	rw.emit(recType, dtReal8, payload)
}

// str writes an ASCII record, padded with a trailing null to keep the
// record length even.
func (rw *recordWriter) str(recType uint8, s string) {
	payload := []byte(s)
	if len(payload)%2 != 0 {
		payload = append(payload, 0)
	}
	rw.emit(recType, dtASCII, payload)
}
