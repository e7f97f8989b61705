package bplist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrailerRoundTrip(t *testing.T) {
	want := Trailer{
		OffsetSize:       2,
		RefSize:          1,
		NumObjects:       10,
		TopObject:        0,
		OffsetTableStart: 512,
	}
	buf := WriteTrailer(want)
	assert.Len(t, buf, TrailerSize)

	got, err := ParseTrailer(buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMarkerRoundTrip(t *testing.T) {
	m := MakeMarker(TypeArray, 5)
	typ, info := SplitMarker(m)
	assert.Equal(t, TypeArray, typ)
	assert.Equal(t, byte(5), info)
}

func TestWidthForUint(t *testing.T) {
	cases := []struct {
		v    uint64
		want int
	}{
		{0, 1},
		{0xFF, 1},
		{0x100, 2},
		{0xFFFF, 2},
		{0x10000, 4},
		{0xFFFFFFFF, 4},
		{0x100000000, 8},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, WidthForUint(c.v))
	}
}

func TestLog2WidthRoundTrip(t *testing.T) {
	for _, w := range []int{1, 2, 4, 8, 16} {
		info, err := Log2Width(w)
		require.NoError(t, err)
		assert.Equal(t, w, WidthFromLog2(info))
	}
	_, err := Log2Width(3)
	assert.Error(t, err)
}

func TestPutUintReadUint(t *testing.T) {
	buf := make([]byte, 4)
	PutUint(buf, 4, 0x01020304)
	assert.Equal(t, uint64(0x01020304), ReadUint(buf))
}
