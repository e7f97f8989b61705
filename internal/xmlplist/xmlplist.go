// Package xmlplist holds the low-level, tree-agnostic primitives of the
// Apple XML property-list format: the DTD prologue, indentation
// conventions, and the date/text encoding helpers layered over the
// standard library's encoding/xml, encoding/base64, and time packages.
// Like internal/bplist, it has no notion of a property-list value; the
// mapping between elements and the value model lives in the plist
// package's XML codec, the only importer of this package.
package xmlplist

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Header and Doctype reproduce Apple's canonical property-list DTD
// declaration, byte for byte, so output matches what Property List
// Editor and CFPropertyList produce.
const (
	Header  = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
	Doctype = `<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">` + "\n"
	Indent  = "  "

	// DateLayout is the ISO-8601 UTC layout used by <date> elements.
	DateLayout = "2006-01-02T15:04:05Z"
)

// EscapeText renders s safe for inclusion as XML character data.
func EscapeText(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

// StripWhitespace removes XML-insignificant whitespace from base64
// text that Property List Editor and CFPropertyList wrap across lines.
func StripWhitespace(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
