package plist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-plist/internal/bplist"
)

func TestBinaryRoundTripScalars(t *testing.T) {
	cases := []*Node{
		NewBoolean(true),
		NewBoolean(false),
		NewUInt(0),
		NewUInt(42),
		NewUInt(1 << 40),
		NewReal(3.5),
		NewDate(10, 500000),
		NewDate(-5, 0),
		NewDate(0, 0),
		NewData([]byte{1, 2, 3, 4}),
		NewData(nil),
	}
	for _, n := range cases {
		buf, err := ToBinary(n)
		require.NoError(t, err)
		got, err := FromBinary(buf)
		require.NoError(t, err)
		assert.True(t, Compare(n, got), "round-trip mismatch for %s", n.Tag())
	}

	s, err := NewString("hello")
	require.NoError(t, err)
	buf, err := ToBinary(s)
	require.NoError(t, err)
	got, err := FromBinary(buf)
	require.NoError(t, err)
	assert.True(t, Compare(s, got))
}

// TestDateConstructorNormalizesNonCanonicalInput exercises the
// negative-second date case: a (sec, usec) pair whose usec has the
// opposite sign to sec must normalize to the same canonical decomposition
// the binary codec would produce decoding the same instant back, so
// Compare treats them as equal both before and after a round-trip.
func TestDateConstructorNormalizesNonCanonicalInput(t *testing.T) {
	nonCanonical := NewDate(-5, 500000) // -5s + 0.5s = -4.5s
	canonical := NewDate(-4, -500000)   // -4s + -0.5s = -4.5s
	assert.True(t, Compare(nonCanonical, canonical))

	buf, err := ToBinary(nonCanonical)
	require.NoError(t, err)
	got, err := FromBinary(buf)
	require.NoError(t, err)
	assert.True(t, Compare(nonCanonical, got))
	assert.True(t, Compare(canonical, got))
}

func TestBinaryRoundTripUnicodeString(t *testing.T) {
	s, err := NewString("héllo wörld 中文")
	require.NoError(t, err)
	buf, err := ToBinary(s)
	require.NoError(t, err)
	got, err := FromBinary(buf)
	require.NoError(t, err)
	assert.True(t, Compare(s, got))
}

func TestBinaryRoundTripEmptyArray(t *testing.T) {
	arr := NewArray()
	buf, err := ToBinary(arr)
	require.NoError(t, err)
	got, err := FromBinary(buf)
	require.NoError(t, err)
	assert.True(t, Compare(arr, got))
	assert.Equal(t, 0, got.Size())
}

func TestBinaryRoundTripEmptyDict(t *testing.T) {
	dict := NewDict()
	buf, err := ToBinary(dict)
	require.NoError(t, err)
	got, err := FromBinary(buf)
	require.NoError(t, err)
	assert.True(t, Compare(dict, got))
}

func TestBinaryRoundTripNestedDictAndArray(t *testing.T) {
	root := NewDict()
	require.NoError(t, root.Insert("a", NewBoolean(true)))
	require.NoError(t, root.Insert("b", NewUInt(42)))

	arr := NewArray()
	require.NoError(t, root.Insert("items", arr))
	for i := 0; i < 3; i++ {
		require.NoError(t, arr.Append(NewUInt(uint64(i))))
	}

	inner := NewDict()
	require.NoError(t, arr.Append(inner))
	require.NoError(t, inner.Insert("nested", mustString(t, "value")))

	buf, err := ToBinary(root)
	require.NoError(t, err)
	got, err := FromBinary(buf)
	require.NoError(t, err)
	assert.True(t, Compare(root, got))
}

// TestBinaryEncodeUniqueStringBoundary exercises the string length
// boundary between inline (<15) and extended encoding.
func TestBinaryEncodeUniqueStringBoundary(t *testing.T) {
	short := mustString(t, repeatChar('x', 14))
	long := mustString(t, repeatChar('x', 15))

	for _, n := range []*Node{short, long} {
		buf, err := ToBinary(n)
		require.NoError(t, err)
		got, err := FromBinary(buf)
		require.NoError(t, err)
		assert.True(t, Compare(n, got))
	}
}

func repeatChar(c byte, n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = c
	}
	return string(buf)
}

// TestBinaryUniquingDedupesEqualLeaves checks that two equal strings
// appearing twice in a tree share one object-table entry, so the
// encoded container's object count does not double-count the
// repeated leaf.
func TestBinaryUniquingDedupesEqualLeaves(t *testing.T) {
	arr := NewArray()
	require.NoError(t, arr.Append(mustString(t, "repeat")))
	require.NoError(t, arr.Append(mustString(t, "repeat")))
	require.NoError(t, arr.Append(NewUInt(7)))
	require.NoError(t, arr.Append(NewUInt(7)))

	e := &binaryEncoder{uniqueIndex: make(map[string]int)}
	e.visit(arr)
	// array itself + one "repeat" string + one UInt(7) = 3 objects.
	assert.Len(t, e.objects, 3)
}

// TestBinaryDecodeRejectsOutOfRangeTopObject checks that a trailer
// naming a top object index that is out of range fails with
// ErrMalformedInput rather than panicking.
func TestBinaryDecodeRejectsOutOfRangeTopObject(t *testing.T) {
	n := NewUInt(1)
	buf, err := ToBinary(n)
	require.NoError(t, err)

	corrupt := append([]byte(nil), buf...)
	trailerStart := len(corrupt) - 32
	// TopObject occupies bytes [16:24) of the trailer.
	for i := 16; i < 24; i++ {
		corrupt[trailerStart+i] = 0xFF
	}

	_, err = FromBinary(corrupt)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

// TestBinaryDecodeRejectsNonStringDictKey checks that a dict record
// whose key reference resolves to a non-String object is rejected as
// malformed input.
func TestBinaryDecodeRejectsNonStringDictKey(t *testing.T) {
	dict := NewDict()
	require.NoError(t, dict.Insert("k", NewUInt(1)))
	buf, err := ToBinary(dict)
	require.NoError(t, err)

	got, err := FromBinary(buf)
	require.NoError(t, err)
	require.True(t, Compare(dict, got))

	// Directly exercise the decoder's validation path: a dict whose key
	// object index is made to point at a UInt record must be rejected.
	e := &binaryEncoder{uniqueIndex: make(map[string]int)}
	e.visit(dict)
	found := false
	for _, obj := range e.objects {
		if obj.isContainer && obj.node.Tag() == TagDict {
			// Point the key reference at the value's own index instead
			// of the key string's index.
			obj.dictKeyRefs[0] = obj.dictValRefs[0]
			found = true
		}
	}
	require.True(t, found)

	refSize := 1
	bodies := make([][]byte, len(e.objects))
	for i, obj := range e.objects {
		body, err := e.encodeObject(obj, refSize)
		require.NoError(t, err)
		bodies[i] = body
	}
	malformed := assembleForTest(bodies, refSize)

	_, err = FromBinary(malformed)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

// assembleForTest mirrors ToBinary's framing step for hand-modified
// object tables built directly from a binaryEncoder's state.
func assembleForTest(bodies [][]byte, refSize int) []byte {
	offsets := make([]uint64, len(bodies))
	cursor := uint64(8)
	for i, b := range bodies {
		offsets[i] = cursor
		cursor += uint64(len(b))
	}
	offsetTableStart := cursor
	offsetSize := 1
	for _, off := range offsets {
		if off > 0xFF {
			offsetSize = 2
		}
	}

	out := []byte("bplist00")
	for _, b := range bodies {
		out = append(out, b...)
	}
	for _, off := range offsets {
		buf := make([]byte, offsetSize)
		for i := offsetSize - 1; i >= 0; i-- {
			buf[i] = byte(off)
			off >>= 8
		}
		out = append(out, buf...)
	}
	trailer := make([]byte, 32)
	trailer[6] = byte(offsetSize)
	trailer[7] = byte(refSize)
	putU64 := func(dst []byte, v uint64) {
		for i := 7; i >= 0; i-- {
			dst[i] = byte(v)
			v >>= 8
		}
	}
	putU64(trailer[8:16], uint64(len(bodies)))
	putU64(trailer[16:24], 0)
	putU64(trailer[24:32], offsetTableStart)
	out = append(out, trailer...)
	return out
}

func TestBinaryCloneIndependentFromSource(t *testing.T) {
	root := NewDict()
	require.NoError(t, root.Insert("a", NewUInt(1)))

	buf, err := ToBinary(root)
	require.NoError(t, err)
	clone, err := FromBinary(buf)
	require.NoError(t, err)

	root.Get("a").SetUInt(99)
	v, err := clone.Get("a").UIntValue()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v, "decoded tree must not alias the source tree")
}

func TestBinaryEmptyArrayHasSingleObject(t *testing.T) {
	arr := NewArray()
	buf, err := ToBinary(arr)
	require.NoError(t, err)
	got, err := FromBinary(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Size())

	trailer, err := bplist.ParseTrailer(buf[len(buf)-bplist.TrailerSize:])
	require.NoError(t, err)
	assert.Equal(t, uint64(1), trailer.NumObjects)
}
