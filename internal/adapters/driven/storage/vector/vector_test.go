package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	in := []float32{0, 1.5, -2.25, math.MaxFloat32, float32(math.Inf(-1))}

	b := Encode(in)
	assert.Len(t, b, 4*len(in))

	out, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncode_LittleEndian(t *testing.T) {
	// 1.0 is 0x3f800000.
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, Encode([]float32{1}))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      []byte
		want    []float32
		wantErr bool
	}{
		{name: "nil", in: nil, want: nil},
		{name: "empty", in: []byte{}, want: nil},
		{name: "one byte short", in: []byte{0, 0, 0x80}, wantErr: true},
		{name: "one byte over", in: []byte{0, 0, 0x80, 0x3f, 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTruncated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
