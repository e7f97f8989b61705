// Package bplist holds the low-level, tree-agnostic primitives of the
// bplist00 container format: the trailer, the marker byte, and the
// variable-width integer encodings used by both the offset table and
// object references. It has no notion of a property-list value; the
// mapping between records and the value model lives one layer up, in
// the plist package's binary codec, which is the only importer of this
// package.
package bplist

import (
	"encoding/binary"
	"fmt"
)

// Magic is the 8-byte signature every bplist00 container begins with.
const Magic = "bplist00"

// TrailerSize is the fixed size, in bytes, of the trailer footer.
const TrailerSize = 32

// Record type nibbles.
const (
	TypeSingleton byte = 0x0
	TypeUInt      byte = 0x1
	TypeReal      byte = 0x2
	TypeDate      byte = 0x3
	TypeData      byte = 0x4
	TypeASCII     byte = 0x5
	TypeUTF16     byte = 0x6
	TypeArray     byte = 0xA
	TypeDict      byte = 0xD
)

// Singleton info nibbles.
const (
	InfoNull  byte = 0x0
	InfoFalse byte = 0x8
	InfoTrue  byte = 0x9
	InfoFill  byte = 0xF
)

// ExtendedLengthInfo is the info nibble value that signals the real
// length follows as a UInt record.
const ExtendedLengthInfo byte = 0xF

// Trailer is the parsed 32-byte footer of a bplist00 container.
type Trailer struct {
	OffsetSize       int
	RefSize          int
	NumObjects       uint64
	TopObject        uint64
	OffsetTableStart uint64
}

// ParseTrailer reads the trailer from the last 32 bytes of data.
// Precondition: len(data) == TrailerSize.
func ParseTrailer(data []byte) (Trailer, error) {
	if len(data) != TrailerSize {
		return Trailer{}, fmt.Errorf("bplist: trailer must be %d bytes, got %d", TrailerSize, len(data))
	}
	return Trailer{
		OffsetSize:       int(data[6]),
		RefSize:          int(data[7]),
		NumObjects:       binary.BigEndian.Uint64(data[8:16]),
		TopObject:        binary.BigEndian.Uint64(data[16:24]),
		OffsetTableStart: binary.BigEndian.Uint64(data[24:32]),
	}, nil
}

// WriteTrailer renders t as the 32-byte footer.
func WriteTrailer(t Trailer) []byte {
	buf := make([]byte, TrailerSize)
	// bytes 0-5 reserved, left zero
	buf[6] = byte(t.OffsetSize)
	buf[7] = byte(t.RefSize)
	binary.BigEndian.PutUint64(buf[8:16], t.NumObjects)
	binary.BigEndian.PutUint64(buf[16:24], t.TopObject)
	binary.BigEndian.PutUint64(buf[24:32], t.OffsetTableStart)
	return buf
}

// SplitMarker decomposes a record's leading marker byte into its type
// and info nibbles.
func SplitMarker(b byte) (typ byte, info byte) {
	return b >> 4, b & 0x0F
}

// MakeMarker composes a marker byte from a type and info nibble.
func MakeMarker(typ, info byte) byte {
	return (typ << 4) | (info & 0x0F)
}

// ReadUint reads a big-endian unsigned integer of 1, 2, 4, or 8 bytes.
func ReadUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = (v << 8) | uint64(c)
	}
	return v
}

// PutUint writes v as a big-endian unsigned integer occupying exactly
// width bytes of buf. width must be 1, 2, 4, or 8.
func PutUint(buf []byte, width int, v uint64) {
	for i := width - 1; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
}

// WidthForUint returns the smallest of {1, 2, 4, 8} bytes that
// losslessly holds v. Zero uses width 1.
func WidthForUint(v uint64) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	case v <= 0xFFFFFFFF:
		return 4
	default:
		return 8
	}
}

// Log2Width maps a byte width in {1,2,4,8,16} to the marker info
// nibble log2(width) that the format expects.
func Log2Width(width int) (byte, error) {
	switch width {
	case 1:
		return 0, nil
	case 2:
		return 1, nil
	case 4:
		return 2, nil
	case 8:
		return 3, nil
	case 16:
		return 4, nil
	default:
		return 0, fmt.Errorf("bplist: invalid integer byte width %d", width)
	}
}

// WidthFromLog2 inverts Log2Width.
func WidthFromLog2(info byte) int {
	return 1 << info
}
