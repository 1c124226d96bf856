package gds

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Record types.
const (
	recHeader    byte = 0x00
	recBgnLib    byte = 0x01
	recLibName   byte = 0x02
	recUnits     byte = 0x03
	recEndLib    byte = 0x04
	recBgnStr    byte = 0x05
	recStrName   byte = 0x06
	recEndStr    byte = 0x07
	recBoundary  byte = 0x08
	recPath      byte = 0x09
	recSRef      byte = 0x0A
	recARef      byte = 0x0B
	recText      byte = 0x0C
	recLayer     byte = 0x0D
	recDatatype  byte = 0x0E
	recWidth     byte = 0x0F
	recXY        byte = 0x10
	recEndEl     byte = 0x11
	recSName     byte = 0x12
	recTextType  byte = 0x16
	recString    byte = 0x19
	recPathType  byte = 0x21
	recBox       byte = 0x2D
	recBoxType   byte = 0x2E
	recBgnExtn   byte = 0x30
	recEndExtn   byte = 0x31
	recNode      byte = 0x15
	recNodeType  byte = 0x2A
	recPresent   byte = 0x17
	recStrans    byte = 0x1A
	recMag       byte = 0x1B
	recAngle     byte = 0x1C
	recColRow    byte = 0x13
	recPropAttr  byte = 0x2B
	recPropValue byte = 0x2C
)

// Payload data types.
const (
	dtNone     byte = 0x00
	dtBitArray byte = 0x01
	dtInt16    byte = 0x02
	dtInt32    byte = 0x03
	dtReal4    byte = 0x04
	dtReal8    byte = 0x05
	dtASCII    byte = 0x06
)

// maxRecordLen is the largest length a 16-bit record header can carry.
const maxRecordLen = 0xFFFF

type record struct {
	typ   byte
	dtype byte
	data  []byte
}

// readRecord reads the next record. It returns io.EOF only when the stream
// ends exactly on a record boundary.
func readRecord(r *bufio.Reader) (record, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return record{}, fmt.Errorf("truncated record header")
		}
		return record{}, err
	}
	n := int(binary.BigEndian.Uint16(hdr[:2]))
	if n < 4 || n%2 != 0 {
		return record{}, fmt.Errorf("invalid record length %d", n)
	}
	rec := record{typ: hdr[2], dtype: hdr[3], data: make([]byte, n-4)}
	if _, err := io.ReadFull(r, rec.data); err != nil {
		return record{}, fmt.Errorf("truncated record 0x%02X: %w", rec.typ, err)
	}
	return rec, nil
}

func (r record) int16s() ([]int16, error) {
	if r.dtype != dtInt16 && r.dtype != dtBitArray {
		return nil, fmt.Errorf("record 0x%02X: want int16 data, got type %d", r.typ, r.dtype)
	}
	out := make([]int16, len(r.data)/2)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(r.data[2*i:]))
	}
	return out, nil
}

func (r record) int32s() ([]int32, error) {
	if r.dtype != dtInt32 {
		return nil, fmt.Errorf("record 0x%02X: want int32 data, got type %d", r.typ, r.dtype)
	}
	if len(r.data)%4 != 0 {
		return nil, fmt.Errorf("record 0x%02X: int32 payload of %d bytes", r.typ, len(r.data))
	}
	out := make([]int32, len(r.data)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(r.data[4*i:]))
	}
	return out, nil
}

func (r record) int16() (int16, error) {
	v, err := r.int16s()
	if err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, fmt.Errorf("record 0x%02X: empty payload", r.typ)
	}
	return v[0], nil
}

// uint16 decodes a LAYER or DATATYPE style value, which tools treat as
// unsigned.
func (r record) uint16() (int, error) {
	v, err := r.int16()
	if err != nil {
		return 0, err
	}
	return int(uint16(v)), nil
}

func (r record) int32() (int32, error) {
	v, err := r.int32s()
	if err != nil {
		return 0, err
	}
	if len(v) == 0 {
		return 0, fmt.Errorf("record 0x%02X: empty payload", r.typ)
	}
	return v[0], nil
}

func (r record) real8s() ([]float64, error) {
	if r.dtype != dtReal8 {
		return nil, fmt.Errorf("record 0x%02X: want real8 data, got type %d", r.typ, r.dtype)
	}
	out := make([]float64, len(r.data)/8)
	for i := range out {
		out[i] = decodeReal8(binary.BigEndian.Uint64(r.data[8*i:]))
	}
	return out, nil
}

func (r record) str() string {
	b := r.data
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// decodeReal8 converts a GDSII excess-64 base-16 real to float64.
func decodeReal8(u uint64) float64 {
	if u&0x00FFFFFFFFFFFFFF == 0 {
		return 0
	}
	neg := u>>63 == 1
	exp := int((u>>56)&0x7F) - 64
	mant := float64(u&0x00FFFFFFFFFFFFFF) / float64(uint64(1)<<56)
	v := mant * math.Pow(16, float64(exp))
	if neg {
		return -v
	}
	return v
}

// encodeReal8 converts a float64 to the GDSII excess-64 base-16 form.
func encodeReal8(v float64) uint64 {
	if v == 0 {
		return 0
	}
	var sign uint64
	if v < 0 {
		sign = 1 << 63
		v = -v
	}
	exp := 64
	for v >= 1 {
		v /= 16
		exp++
	}
	for v < 1.0/16 {
		v *= 16
		exp--
	}
	mant := uint64(math.Round(v * float64(uint64(1)<<56)))
	if mant >= uint64(1)<<56 {
		mant >>= 4
		exp++
	}
	return sign | uint64(exp)<<56 | mant
}
