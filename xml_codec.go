package plist

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deploymenttheory/go-plist/internal/xmlplist"
)

// ToXML renders root as an Apple XML property list. The document is a
// single <plist version="1.0"> element wrapping the element that
// encodes root.
func ToXML(root *Node) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xmlplist.Header)
	buf.WriteString(xmlplist.Doctype)
	buf.WriteString(`<plist version="1.0">` + "\n")

	enc := &xmlEncoder{out: &buf}
	if err := enc.encodeNode(root, 0); err != nil {
		return nil, err
	}

	buf.WriteString("</plist>\n")
	return buf.Bytes(), nil
}

type xmlEncoder struct {
	out *bytes.Buffer
}

func (e *xmlEncoder) indent(depth int) {
	for i := 0; i < depth; i++ {
		e.out.WriteString(xmlplist.Indent)
	}
}

func (e *xmlEncoder) encodeNode(n *Node, depth int) error {
	e.indent(depth)
	switch n.Tag() {
	case TagBoolean:
		v, _ := n.BoolValue()
		if v {
			e.out.WriteString("<true/>\n")
		} else {
			e.out.WriteString("<false/>\n")
		}

	case TagUInt:
		v, _ := n.UIntValue()
		fmt.Fprintf(e.out, "<integer>%d</integer>\n", v)

	case TagReal:
		v, _ := n.RealValue()
		fmt.Fprintf(e.out, "<real>%s</real>\n", strconv.FormatFloat(v, 'g', -1, 64))

	case TagString:
		v, _ := n.StringValue()
		fmt.Fprintf(e.out, "<string>%s</string>\n", xmlplist.EscapeText(v))

	case TagData:
		v, _ := n.DataValue()
		fmt.Fprintf(e.out, "<data>\n")
		e.indent(depth + 1)
		fmt.Fprintf(e.out, "%s\n", base64.StdEncoding.EncodeToString(v))
		e.indent(depth)
		fmt.Fprintf(e.out, "</data>\n")

	case TagDate:
		t, _ := n.Time()
		fmt.Fprintf(e.out, "<date>%s</date>\n", t.Format(xmlplist.DateLayout))

	case TagArray:
		if n.Size() == 0 {
			e.out.WriteString("<array/>\n")
			return nil
		}
		e.out.WriteString("<array>\n")
		for i := 0; i < n.Size(); i++ {
			child, err := n.At(i)
			if err != nil {
				return err
			}
			if err := e.encodeNode(child, depth+1); err != nil {
				return err
			}
		}
		e.indent(depth)
		e.out.WriteString("</array>\n")

	case TagDict:
		it, err := n.NewIter()
		if err != nil {
			return err
		}
		var keys []string
		var values []*Node
		for {
			k, v, ok := it.Next()
			if !ok {
				break
			}
			keys = append(keys, k)
			values = append(values, v)
		}
		if len(keys) == 0 {
			e.out.WriteString("<dict/>\n")
			return nil
		}
		e.out.WriteString("<dict>\n")
		for i, k := range keys {
			e.indent(depth + 1)
			fmt.Fprintf(e.out, "<key>%s</key>\n", xmlplist.EscapeText(k))
			if err := e.encodeNode(values[i], depth+1); err != nil {
				return err
			}
		}
		e.indent(depth)
		e.out.WriteString("</dict>\n")

	default:
		return fmt.Errorf("%w: cannot encode %s as an XML element", ErrCallerError, n.Tag())
	}
	return nil
}

// FromXML parses an Apple XML property list into a detached tree.
func FromXML(data []byte) (*Node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	p := &xmlParser{dec: dec}

	if err := p.skipToPlistRoot(); err != nil {
		return nil, err
	}
	root, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return root, nil
}

type xmlParser struct {
	dec *xml.Decoder
}

// skipToPlistRoot advances past the XML prolog and the outer <plist>
// element's start tag.
func (p *xmlParser) skipToPlistRoot() error {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != "plist" {
				return fmt.Errorf("%w: expected root element <plist>, found <%s>", ErrMalformedInput, se.Name.Local)
			}
			return nil
		}
	}
}

// nextValueStart returns the next value-element start tag, skipping
// whitespace-only character data, or ok=false at the next end tag (the
// close of the enclosing <plist>, <array> or <dict>).
func (p *xmlParser) nextValueStart() (xml.StartElement, bool, error) {
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return xml.StartElement{}, false, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, true, nil
		case xml.EndElement:
			return xml.StartElement{}, false, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return xml.StartElement{}, false, fmt.Errorf("%w: unexpected character data", ErrMalformedInput)
			}
		}
	}
}

// parseValue consumes exactly one value element (the caller has not
// yet read its start tag) and returns the Node it describes.
func (p *xmlParser) parseValue() (*Node, error) {
	se, ok, err := p.nextValueStart()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: expected a value element, found </plist>", ErrMalformedInput)
	}
	return p.parseElement(se)
}

func (p *xmlParser) parseElement(se xml.StartElement) (*Node, error) {
	switch se.Name.Local {
	case "true":
		if err := p.skipToEnd(se.Name); err != nil {
			return nil, err
		}
		return NewBoolean(true), nil
	case "false":
		if err := p.skipToEnd(se.Name); err != nil {
			return nil, err
		}
		return NewBoolean(false), nil

	case "integer":
		text, err := p.readText(se.Name)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseUint(strings.TrimSpace(text), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid <integer> content %q: %v", ErrMalformedInput, text, err)
		}
		return NewUInt(v), nil

	case "real":
		text, err := p.readText(se.Name)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid <real> content %q: %v", ErrMalformedInput, text, err)
		}
		return NewReal(v), nil

	case "string":
		text, err := p.readText(se.Name)
		if err != nil {
			return nil, err
		}
		return NewString(text)

	case "data":
		text, err := p.readText(se.Name)
		if err != nil {
			return nil, err
		}
		raw, err := base64.StdEncoding.DecodeString(xmlplist.StripWhitespace(text))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64 in <data>: %v", ErrMalformedInput, err)
		}
		return NewData(raw), nil

	case "date":
		text, err := p.readText(se.Name)
		if err != nil {
			return nil, err
		}
		t, err := time.Parse(xmlplist.DateLayout, strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid <date> content %q: %v", ErrMalformedInput, text, err)
		}
		sec, usec := dateFromSeconds(float64(t.Unix()-macEpoch) + float64(t.Nanosecond())/1e9)
		return NewDate(sec, usec), nil

	case "array":
		return p.parseArray(se.Name)

	case "dict":
		return p.parseDict(se.Name)

	default:
		return nil, fmt.Errorf("%w: unknown plist element <%s>", ErrMalformedInput, se.Name.Local)
	}
}

// skipToEnd consumes tokens up to and including name's matching end
// tag, for empty elements like <true/>.
func (p *xmlParser) skipToEnd(name xml.Name) error {
	depth := 1
	for depth > 0 {
		tok, err := p.dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// readText returns the character data of a simple element, up to its
// closing tag. It rejects nested elements.
func (p *xmlParser) readText(name xml.Name) (string, error) {
	var sb strings.Builder
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return sb.String(), nil
		case xml.StartElement:
			return "", fmt.Errorf("%w: unexpected nested element <%s> in <%s>", ErrMalformedInput, t.Name.Local, name.Local)
		}
	}
}

func (p *xmlParser) parseArray(name xml.Name) (*Node, error) {
	arr := NewArray()
	for {
		se, ok, err := p.nextValueStart()
		if err != nil {
			return nil, err
		}
		if !ok {
			return arr, nil
		}
		child, err := p.parseElement(se)
		if err != nil {
			return nil, err
		}
		if err := arr.Append(child); err != nil {
			return nil, err
		}
	}
}

func (p *xmlParser) parseDict(name xml.Name) (*Node, error) {
	dict := NewDict()
	for {
		se, ok, err := p.nextValueStart()
		if err != nil {
			return nil, err
		}
		if !ok {
			return dict, nil
		}
		if se.Name.Local != "key" {
			return nil, fmt.Errorf("%w: expected <key> in <dict>, found <%s>", ErrMalformedInput, se.Name.Local)
		}
		key, err := p.readText(se.Name)
		if err != nil {
			return nil, err
		}

		vse, ok, err := p.nextValueStart()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: <key> without a matching value in <dict>", ErrMalformedInput)
		}
		value, err := p.parseElement(vse)
		if err != nil {
			return nil, err
		}
		if err := dict.Insert(key, value); err != nil {
			return nil, fmt.Errorf("%w: duplicate dict key %q", ErrMalformedInput, key)
		}
	}
}
