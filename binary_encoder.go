package plist

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"

	"github.com/deploymenttheory/go-plist/internal/bplist"
	xunicode "golang.org/x/text/encoding/unicode"
)

// ToBinary flattens root into a bplist00 container. A well-formed
// tree never fails to encode.
func ToBinary(root *Node) ([]byte, error) {
	e := &binaryEncoder{
		uniqueIndex: make(map[string]int),
	}
	e.visit(root) // root is always assigned index 0.

	refSize := bplist.WidthForUint(uint64(len(e.objects) - 1))

	bodies := make([][]byte, len(e.objects))
	for i, obj := range e.objects {
		body, err := e.encodeObject(obj, refSize)
		if err != nil {
			return nil, err
		}
		bodies[i] = body
	}

	offsets := make([]uint64, len(bodies))
	cursor := uint64(len(bplist.Magic))
	for i, b := range bodies {
		offsets[i] = cursor
		cursor += uint64(len(b))
	}
	offsetTableStart := cursor
	offsetSize := bplist.WidthForUint(offsets[len(offsets)-1])
	if offsetSize == 0 {
		offsetSize = 1
	}

	out := make([]byte, 0, offsetTableStart+uint64(offsetSize)*uint64(len(offsets))+bplist.TrailerSize)
	out = append(out, []byte(bplist.Magic)...)
	for _, b := range bodies {
		out = append(out, b...)
	}
	offTab := make([]byte, offsetSize)
	for _, off := range offsets {
		bplist.PutUint(offTab, offsetSize, off)
		out = append(out, offTab...)
	}
	out = append(out, bplist.WriteTrailer(bplist.Trailer{
		OffsetSize:       offsetSize,
		RefSize:          refSize,
		NumObjects:       uint64(len(e.objects)),
		TopObject:        0,
		OffsetTableStart: offsetTableStart,
	})...)
	return out, nil
}

// encObject is one entry of the object table being assembled: either a
// leaf Node to encode directly, or a container whose children's object
// indices have already been resolved.
type encObject struct {
	node        *Node
	isContainer bool
	arrayRefs   []int
	dictKeyRefs []int
	dictValRefs []int
}

type binaryEncoder struct {
	objects     []*encObject
	uniqueIndex map[string]int // canonical leaf key -> object index
}

// visit assigns root, and every node reachable from it, an object-table
// index under the uniquing rule: Boolean/UInt/Real/Date/String/Key/Data
// dedupe by value; Array and Dict never dedupe.
func (e *binaryEncoder) visit(n *Node) int {
	if n.Tag() != TagArray && n.Tag() != TagDict {
		key := canonicalLeafKey(n)
		if idx, ok := e.uniqueIndex[key]; ok {
			return idx
		}
		idx := len(e.objects)
		e.objects = append(e.objects, &encObject{node: n})
		e.uniqueIndex[key] = idx
		return idx
	}

	idx := len(e.objects)
	obj := &encObject{node: n, isContainer: true}
	e.objects = append(e.objects, obj)

	switch n.Tag() {
	case TagArray:
		refs := make([]int, n.Size())
		for i := range refs {
			child, _ := n.At(i)
			refs[i] = e.visit(child)
		}
		obj.arrayRefs = refs
	case TagDict:
		it, _ := n.NewIter()
		var keyRefs, valRefs []int
		for {
			k, v, ok := it.Next()
			if !ok {
				break
			}
			keyRefs = append(keyRefs, e.visitKey(k))
			valRefs = append(valRefs, e.visit(v))
		}
		obj.dictKeyRefs = keyRefs
		obj.dictValRefs = valRefs
	}
	return idx
}

// visitKey assigns an object-table index to a dict key string. Keys are
// written as plain String records (the wire format has no Key marker),
// so a key and an equal-valued String node may legitimately share one
// object-table entry.
func (e *binaryEncoder) visitKey(key string) int {
	canon := "S" + key
	if idx, ok := e.uniqueIndex[canon]; ok {
		return idx
	}
	idx := len(e.objects)
	keyNode, _ := NewString(key)
	e.objects = append(e.objects, &encObject{node: keyNode})
	e.uniqueIndex[canon] = idx
	return idx
}

func canonicalLeafKey(n *Node) string {
	switch n.Tag() {
	case TagBoolean:
		v, _ := n.BoolValue()
		if v {
			return "B1"
		}
		return "B0"
	case TagUInt:
		v, _ := n.UIntValue()
		return fmt.Sprintf("U%016X", v)
	case TagReal:
		v, _ := n.RealValue()
		return fmt.Sprintf("R%016X", math.Float64bits(v))
	case TagDate:
		sec, usec, _ := n.DateValue()
		return fmt.Sprintf("D%08X%08X", uint32(sec), uint32(usec))
	case TagString:
		v, _ := n.StringValue()
		return "S" + v
	case TagData:
		v, _ := n.DataValue()
		return "X" + string(v)
	default:
		return fmt.Sprintf("?%p", n)
	}
}

func (e *binaryEncoder) encodeObject(obj *encObject, refSize int) ([]byte, error) {
	if obj.isContainer {
		switch obj.node.Tag() {
		case TagArray:
			return encodeRefList(bplist.TypeArray, obj.arrayRefs, refSize), nil
		case TagDict:
			return encodeDictBody(obj.dictKeyRefs, obj.dictValRefs, refSize), nil
		}
	}
	return encodeLeaf(obj.node)
}

func encodeLeaf(n *Node) ([]byte, error) {
	switch n.Tag() {
	case TagBoolean:
		v, _ := n.BoolValue()
		info := bplist.InfoFalse
		if v {
			info = bplist.InfoTrue
		}
		return []byte{bplist.MakeMarker(bplist.TypeSingleton, info)}, nil
	case TagUInt:
		v, _ := n.UIntValue()
		return encodeUInt(v), nil
	case TagReal:
		v, _ := n.RealValue()
		buf := make([]byte, 9)
		buf[0] = bplist.MakeMarker(bplist.TypeReal, 3)
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(v))
		return buf, nil
	case TagDate:
		sec, usec, _ := n.DateValue()
		buf := make([]byte, 9)
		buf[0] = bplist.MakeMarker(bplist.TypeDate, 3)
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(float64(sec)+float64(usec)/1e6))
		return buf, nil
	case TagData:
		v, _ := n.DataValue()
		return encodeLengthPrefixed(bplist.TypeData, v), nil
	case TagString:
		v, _ := n.StringValue()
		return encodeString(v)
	default:
		return nil, fmt.Errorf("plist: cannot encode %s as a leaf record", n.Tag())
	}
}

func encodeUInt(v uint64) []byte {
	width := bplist.WidthForUint(v)
	info, _ := bplist.Log2Width(width)
	buf := make([]byte, 1+width)
	buf[0] = bplist.MakeMarker(bplist.TypeUInt, info)
	bplist.PutUint(buf[1:], width, v)
	return buf
}

// isASCII reports whether every rune of s is in 0x00..0x7F.
func isASCII(s string) bool {
	for _, r := range s {
		if r > 0x7F {
			return false
		}
	}
	return true
}

func encodeString(s string) ([]byte, error) {
	if isASCII(s) {
		return encodeLengthPrefixed(bplist.TypeASCII, []byte(s)), nil
	}
	enc := xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM).NewEncoder()
	raw, err := enc.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("plist: string is not representable as UTF-16: %w", err)
	}
	codeUnits := utf16.Encode([]rune(s))
	return encodeLengthPrefixedUnits(bplist.TypeUTF16, raw, len(codeUnits)), nil
}

// encodeLengthPrefixed writes a marker/length header (length in bytes,
// one char per byte) followed by payload.
func encodeLengthPrefixed(typ byte, payload []byte) []byte {
	return encodeLengthPrefixedUnits(typ, payload, len(payload))
}

// encodeLengthPrefixedUnits writes a marker/length header where units
// is the length to encode (characters or code units, which may differ
// from len(payload) for UTF-16) followed by payload.
func encodeLengthPrefixedUnits(typ byte, payload []byte, units int) []byte {
	header := encodeLengthHeader(typ, units)
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out
}

// encodeLengthHeader writes a record's marker byte, extending into an
// inline UInt record when length doesn't fit in the info nibble.
func encodeLengthHeader(typ byte, length int) []byte {
	if length < int(bplist.ExtendedLengthInfo) {
		return []byte{bplist.MakeMarker(typ, byte(length))}
	}
	lenRecord := encodeUInt(uint64(length))
	out := make([]byte, 0, 1+len(lenRecord))
	out = append(out, bplist.MakeMarker(typ, bplist.ExtendedLengthInfo))
	out = append(out, lenRecord...)
	return out
}

func encodeRefList(typ byte, refs []int, refSize int) []byte {
	header := encodeLengthHeader(typ, len(refs))
	out := make([]byte, 0, len(header)+len(refs)*refSize)
	out = append(out, header...)
	buf := make([]byte, refSize)
	for _, r := range refs {
		bplist.PutUint(buf, refSize, uint64(r))
		out = append(out, buf...)
	}
	return out
}

func encodeDictBody(keyRefs, valRefs []int, refSize int) []byte {
	header := encodeLengthHeader(bplist.TypeDict, len(keyRefs))
	out := make([]byte, 0, len(header)+(len(keyRefs)+len(valRefs))*refSize)
	out = append(out, header...)
	buf := make([]byte, refSize)
	for _, r := range keyRefs {
		bplist.PutUint(buf, refSize, uint64(r))
		out = append(out, buf...)
	}
	for _, r := range valRefs {
		bplist.PutUint(buf, refSize, uint64(r))
		out = append(out, buf...)
	}
	return out
}
