package plist

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/deploymenttheory/go-plist/internal/bplist"
	"golang.org/x/text/encoding/unicode"
)

// FromBinary parses a bplist00 container into a detached tree. Decode
// errors leave no partial tree visible to the caller: on any error the
// returned Node is nil.
func FromBinary(data []byte) (*Node, error) {
	if len(data) < len(bplist.Magic)+bplist.TrailerSize {
		return nil, fmt.Errorf("%w: buffer too small for a bplist00 container", ErrMalformedInput)
	}
	if string(data[:len(bplist.Magic)]) != bplist.Magic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedInput)
	}

	trailer, err := bplist.ParseTrailer(data[len(data)-bplist.TrailerSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	d := &binaryDecoder{data: data, trailer: trailer}
	if err := d.readOffsetTable(); err != nil {
		return nil, err
	}
	if trailer.TopObject >= trailer.NumObjects {
		return nil, fmt.Errorf("%w: top object index %d >= num objects %d", ErrMalformedInput, trailer.TopObject, trailer.NumObjects)
	}

	d.visiting = make(map[uint64]bool)
	root, err := d.decodeObject(trailer.TopObject)
	if err != nil {
		return nil, err
	}
	return root, nil
}

type binaryDecoder struct {
	data     []byte
	trailer  bplist.Trailer
	offsets  []uint64
	visiting map[uint64]bool
}

func (d *binaryDecoder) readOffsetTable() error {
	t := d.trailer
	tableEnd := t.OffsetTableStart + t.NumObjects*uint64(t.OffsetSize)
	footerStart := uint64(len(d.data) - bplist.TrailerSize)
	if t.OffsetSize == 0 || t.RefSize == 0 {
		return fmt.Errorf("%w: zero-width offset or reference size", ErrMalformedInput)
	}
	if t.OffsetTableStart < uint64(len(bplist.Magic)) || t.OffsetTableStart > footerStart || tableEnd > footerStart {
		return fmt.Errorf("%w: offset table out of range", ErrMalformedInput)
	}

	offsets := make([]uint64, t.NumObjects)
	for i := range offsets {
		base := t.OffsetTableStart + uint64(i)*uint64(t.OffsetSize)
		off := bplist.ReadUint(d.data[base : base+uint64(t.OffsetSize)])
		if off < uint64(len(bplist.Magic)) || off >= t.OffsetTableStart {
			return fmt.Errorf("%w: object offset %d out of range", ErrMalformedInput, off)
		}
		offsets[i] = off
	}
	d.offsets = offsets
	return nil
}

// decodeObject materializes a fresh, independent Node for the object at
// table index idx. The format permits the same index to be referenced
// from multiple positions (uniquing); every reference must be treated
// as an independent materialization, which falls out naturally from
// always recursing here rather than memoizing.
func (d *binaryDecoder) decodeObject(idx uint64) (*Node, error) {
	if idx >= d.trailer.NumObjects {
		return nil, fmt.Errorf("%w: object reference %d out of range", ErrMalformedInput, idx)
	}
	if d.visiting[idx] {
		return nil, fmt.Errorf("%w: cycle reachable from top object", ErrMalformedInput)
	}
	d.visiting[idx] = true
	defer delete(d.visiting, idx)

	off := d.offsets[idx]
	if off >= uint64(len(d.data)) {
		return nil, fmt.Errorf("%w: truncated record at offset %d", ErrMalformedInput, off)
	}
	marker := d.data[off]
	typ, info := bplist.SplitMarker(marker)

	switch typ {
	case bplist.TypeSingleton:
		switch info {
		case bplist.InfoFalse:
			return NewBoolean(false), nil
		case bplist.InfoTrue:
			return NewBoolean(true), nil
		default:
			return nil, fmt.Errorf("%w: unsupported singleton marker 0x%02X", ErrMalformedInput, marker)
		}

	case bplist.TypeUInt:
		return d.decodeUInt(off, info)

	case bplist.TypeReal:
		return d.decodeReal(off, info)

	case bplist.TypeDate:
		return d.decodeDate(off)

	case bplist.TypeData:
		length, bodyStart, err := d.readLength(off, info)
		if err != nil {
			return nil, err
		}
		buf, err := d.slice(bodyStart, length)
		if err != nil {
			return nil, err
		}
		return NewData(buf), nil

	case bplist.TypeASCII:
		length, bodyStart, err := d.readLength(off, info)
		if err != nil {
			return nil, err
		}
		buf, err := d.slice(bodyStart, length)
		if err != nil {
			return nil, err
		}
		return stringFromASCII(buf)

	case bplist.TypeUTF16:
		length, bodyStart, err := d.readLength(off, info)
		if err != nil {
			return nil, err
		}
		buf, err := d.slice(bodyStart, length*2)
		if err != nil {
			return nil, err
		}
		return stringFromUTF16BE(buf)

	case bplist.TypeArray:
		return d.decodeArray(off, info)

	case bplist.TypeDict:
		return d.decodeDict(off, info)

	default:
		return nil, fmt.Errorf("%w: unknown record marker 0x%02X", ErrMalformedInput, marker)
	}
}

// readLength decodes the inline-or-extended length that follows a
// record's marker byte, and returns the offset at which the record
// body begins.
func (d *binaryDecoder) readLength(markerOff uint64, info byte) (length, bodyStart uint64, err error) {
	if info < bplist.ExtendedLengthInfo {
		return uint64(info), markerOff + 1, nil
	}
	extOff := markerOff + 1
	if extOff >= uint64(len(d.data)) {
		return 0, 0, fmt.Errorf("%w: truncated extended length", ErrMalformedInput)
	}
	extMarker := d.data[extOff]
	extTyp, extInfo := bplist.SplitMarker(extMarker)
	if extTyp != bplist.TypeUInt {
		return 0, 0, fmt.Errorf("%w: extended length marker is not a UInt record", ErrMalformedInput)
	}
	width := bplist.WidthFromLog2(extInfo)
	start := extOff + 1
	buf, err := d.slice(start, uint64(width))
	if err != nil {
		return 0, 0, err
	}
	if width == 16 {
		v, err := read128AsUint64(buf)
		if err != nil {
			return 0, 0, err
		}
		return v, start + uint64(width), nil
	}
	return bplist.ReadUint(buf), start + uint64(width), nil
}

func (d *binaryDecoder) slice(start, length uint64) ([]byte, error) {
	end := start + length
	if end < start || end > uint64(len(d.data)) {
		return nil, fmt.Errorf("%w: truncated record", ErrMalformedInput)
	}
	return d.data[start:end], nil
}

func (d *binaryDecoder) decodeUInt(markerOff uint64, info byte) (*Node, error) {
	width := bplist.WidthFromLog2(info)
	if width != 1 && width != 2 && width != 4 && width != 8 && width != 16 {
		return nil, fmt.Errorf("%w: invalid uint byte width for info 0x%X", ErrMalformedInput, info)
	}
	buf, err := d.slice(markerOff+1, uint64(width))
	if err != nil {
		return nil, err
	}
	if width == 16 {
		v, err := read128AsUint64(buf)
		if err != nil {
			return nil, err
		}
		return NewUInt(v), nil
	}
	return NewUInt(bplist.ReadUint(buf)), nil
}

func read128AsUint64(buf []byte) (uint64, error) {
	for _, b := range buf[:8] {
		if b != 0 {
			return 0, fmt.Errorf("%w: 128-bit integer does not fit in 64 bits", ErrOverflow)
		}
	}
	return bplist.ReadUint(buf[8:16]), nil
}

func (d *binaryDecoder) decodeReal(markerOff uint64, info byte) (*Node, error) {
	width := bplist.WidthFromLog2(info)
	buf, err := d.slice(markerOff+1, uint64(width))
	if err != nil {
		return nil, err
	}
	switch width {
	case 4:
		bits := binary.BigEndian.Uint32(buf)
		return NewReal(float64(math.Float32frombits(bits))), nil
	case 8:
		bits := binary.BigEndian.Uint64(buf)
		return NewReal(math.Float64frombits(bits)), nil
	default:
		return nil, fmt.Errorf("%w: invalid real byte width %d", ErrMalformedInput, width)
	}
}

func (d *binaryDecoder) decodeDate(markerOff uint64) (*Node, error) {
	buf, err := d.slice(markerOff+1, 8)
	if err != nil {
		return nil, err
	}
	bits := binary.BigEndian.Uint64(buf)
	seconds := math.Float64frombits(bits)
	sec, usec := dateFromSeconds(seconds)
	return NewDate(sec, usec), nil
}

func (d *binaryDecoder) decodeArray(markerOff uint64, info byte) (*Node, error) {
	length, bodyStart, err := d.readLength(markerOff, info)
	if err != nil {
		return nil, err
	}
	refBytes := uint64(d.trailer.RefSize)
	refsEnd := bodyStart + length*refBytes
	if refsEnd > uint64(len(d.data)) {
		return nil, fmt.Errorf("%w: truncated array record", ErrMalformedInput)
	}
	arr := NewArray()
	for i := uint64(0); i < length; i++ {
		refOff := bodyStart + i*refBytes
		ref := bplist.ReadUint(d.data[refOff : refOff+refBytes])
		child, err := d.decodeObject(ref)
		if err != nil {
			return nil, err
		}
		if err := arr.Append(child); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

func (d *binaryDecoder) decodeDict(markerOff uint64, info byte) (*Node, error) {
	length, bodyStart, err := d.readLength(markerOff, info)
	if err != nil {
		return nil, err
	}
	refBytes := uint64(d.trailer.RefSize)
	keyStart := bodyStart
	valStart := keyStart + length*refBytes
	end := valStart + length*refBytes
	if end > uint64(len(d.data)) {
		return nil, fmt.Errorf("%w: truncated dict record", ErrMalformedInput)
	}

	dict := NewDict()
	for i := uint64(0); i < length; i++ {
		kRefOff := keyStart + i*refBytes
		vRefOff := valStart + i*refBytes
		kRef := bplist.ReadUint(d.data[kRefOff : kRefOff+refBytes])
		vRef := bplist.ReadUint(d.data[vRefOff : vRefOff+refBytes])

		keyObj, err := d.decodeObject(kRef)
		if err != nil {
			return nil, err
		}
		if keyObj.Tag() != TagString {
			return nil, fmt.Errorf("%w: dict key reference does not point to a string record", ErrMalformedInput)
		}
		keyStr, _ := keyObj.StringValue()

		valObj, err := d.decodeObject(vRef)
		if err != nil {
			return nil, err
		}
		if err := dict.Insert(keyStr, valObj); err != nil {
			return nil, fmt.Errorf("%w: duplicate dict key %q", ErrMalformedInput, keyStr)
		}
	}
	return dict, nil
}

func stringFromASCII(buf []byte) (*Node, error) {
	runes := make([]rune, len(buf))
	for i, b := range buf {
		runes[i] = rune(b)
	}
	return NewString(string(runes))
}

func stringFromUTF16BE(buf []byte) (*Node, error) {
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid UTF-16 string data: %v", ErrMalformedInput, err)
	}
	return NewString(string(out))
}
