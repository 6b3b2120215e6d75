// Package vector is the on-disk encoding of embeddings shared by the
// persistent snapshot stores: little-endian IEEE 754 float32, four bytes per
// component, no header.
package vector

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrTruncated is returned by Decode when the input is not a whole number of
// float32 values.
var ErrTruncated = errors.New("truncated vector")

// Encode returns the byte form of v. A nil or empty vector encodes to an
// empty slice.
func Encode(v []float32) []byte {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// Decode is the inverse of Encode. Empty input decodes to nil.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, ErrTruncated
	}
	if len(b) == 0 {
		return nil, nil
	}
	v := make([]float32, 0, len(b)/4)
	for ; len(b) > 0; b = b[4:] {
		v = append(v, math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}
	return v, nil
}
