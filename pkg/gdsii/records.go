package gdsii

import (
	"encoding/binary"
	"fmt"
	"math"
)

// GDSII record types. Each record starts with a 4-byte header: a
// big-endian uint16 total length (header included), the record type,
// and the data type of the payload.
const (
	recHeader   = 0x00
	recBgnLib   = 0x01
	recLibName  = 0x02
	recUnits    = 0x03
	recEndLib   = 0x04
	recBgnStr   = 0x05
	recStrName  = 0x06
	recEndStr   = 0x07
	recBoundary = 0x08
	recPath     = 0x09
	recSRef     = 0x0A
	recARef     = 0x0B
	recText     = 0x0C
	recLayer    = 0x0D
	recDatatype = 0x0E
	recWidth    = 0x0F
	recXY       = 0x10
	recEndEl    = 0x11
	recSName    = 0x12
	recColRow   = 0x13
	recNode     = 0x15
	recTextType = 0x16
	recString   = 0x19
	recSTrans   = 0x1A
	recMag      = 0x1B
	recAngle    = 0x1C
	recPathType = 0x21
	recNodeType = 0x2A
	recBox      = 0x2D
	recBoxType  = 0x2E
	recBgnExtn  = 0x30
	recEndExtn  = 0x31
)

// Payload data types.
const (
	dtNone     = 0
	dtBitArray = 1
	dtInt16    = 2
	dtInt32    = 3
	dtReal4    = 4
	dtReal8    = 5
	dtASCII    = 6
)

// record is one decoded GDSII record.
type record struct {
	Type     uint8
	DataType uint8
	Data     []byte
}

// next reads the record at data[off], returning it and the offset of
// the following record.
func next(data []byte, off int) (record, int, error) {
	if off+4 > len(data) {
		return record{}, 0, fmt.Errorf("%w: record header at offset %d", ErrTruncated, off)
	}

	length := int(binary.BigEndian.Uint16(data[off:]))
	if length < 4 || length%2 != 0 {
		return record{}, 0, fmt.Errorf("%w: record length %d at offset %d", ErrBadRecord, length, off)
	}
	if off+length > len(data) {
		return record{}, 0, fmt.Errorf("%w: record payload at offset %d", ErrTruncated, off)
	}

	return record{
		Type:     data[off+2],
		DataType: data[off+3],
		Data:     data[off+4 : off+length],
	}, off + length, nil
}

func (r record) int16s() []int16 {
	out := make([]int16, len(r.Data)/2)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(r.Data[i*2:]))
	}
	return out
}

func (r record) int32s() []int32 {
	out := make([]int32, len(r.Data)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(r.Data[i*4:]))
	}
	return out
}

func (r record) real8s() []float64 {
	out := make([]float64, len(r.Data)/8)
	for i := range out {
		out[i] = decodeReal8(binary.BigEndian.Uint64(r.Data[i*8:]))
	}
	return out
}

// str returns the payload as a string, stripping the padding null a
// writer adds to odd-length names.
func (r record) str() string {
	data := r.Data
	if n := len(data); n > 0 && data[n-1] == 0 {
		data = data[:n-1]
	}
	return string(data)
}

// decodeReal8 converts a GDSII 8-byte real: sign bit, 7-bit base-16
// exponent in excess-64, 56-bit mantissa fraction.
func decodeReal8(bits uint64) float64 {
	if bits == 0 {
		return 0
	}
	mantissa := float64(bits&0x00FFFFFFFFFFFFFF) / float64(uint64(1)<<56)
	exponent := int((bits>>56)&0x7F) - 64
	value := mantissa * math.Pow(16, float64(exponent))
	if bits&0x8000000000000000 != 0 {
		return -value
	}
	return value
}

// encodeReal8 converts a float64 to the GDSII 8-byte real format.
// Magnitudes below the format's range encode as zero.
func encodeReal8(v float64) uint64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}

	var sign uint64
	if v < 0 {
		sign = 0x8000000000000000
		v = -v
	}

	// Normalize mantissa into [1/16, 1).
	exponent := 64
	for v >= 1 {
		v /= 16
		exponent++
	}
	for v < 1.0/16 {
		v *= 16
		exponent--
	}
	if exponent < 0 {
		return 0
	}
	if exponent > 127 {
		exponent = 127
		v = 1 - 1.0/float64(uint64(1)<<56)
	}

	mantissa := uint64(v * float64(uint64(1)<<56))
	if mantissa > 0x00FFFFFFFFFFFFFF {
		mantissa = 0x00FFFFFFFFFFFFFF
	}
	return sign | uint64(exponent)<<56 | mantissa
}
