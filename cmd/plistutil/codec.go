package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/deploymenttheory/go-plist"
)

// readPlist loads path and decodes it, auto-detecting the wire format
// from its content rather than trusting the file extension.
func readPlist(path string) (*plist.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if looksBinary(data) {
		return plist.FromBinary(data)
	}
	return plist.FromXML(data)
}

// looksBinary reports whether data begins with the bplist00 magic.
func looksBinary(data []byte) bool {
	return len(data) >= 8 && string(data[:8]) == "bplist00"
}

// writePlist encodes root in the requested format and writes it to
// path, or to stdout when path is "-".
func writePlist(root *plist.Node, format, path string) error {
	var out []byte
	var err error
	switch format {
	case "xml":
		out, err = plist.ToXML(root)
	case "binary":
		out, err = plist.ToBinary(root)
	default:
		return fmt.Errorf("unsupported output format %q (want xml or binary)", format)
	}
	if err != nil {
		return err
	}
	if path == "-" {
		_, err := os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// parseTypedValue parses a create-command argument of the form
// key=type:value, where type is one of bool, int, real, string. A
// bare key=value, or one with an unrecognized or no type prefix, is
// treated as a literal string, colons included.
func parseTypedValue(arg string) (key string, node *plist.Node, err error) {
	eq := strings.IndexByte(arg, '=')
	if eq < 0 {
		return "", nil, fmt.Errorf("argument %q is not in key=value form", arg)
	}
	key, rest := arg[:eq], arg[eq+1:]

	typ, val, hasType := strings.Cut(rest, ":")
	switch {
	case hasType && typ == "bool":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return "", nil, fmt.Errorf("invalid bool value %q: %w", val, err)
		}
		return key, plist.NewBoolean(b), nil
	case hasType && typ == "int":
		v, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid int value %q: %w", val, err)
		}
		return key, plist.NewUInt(v), nil
	case hasType && typ == "real":
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid real value %q: %w", val, err)
		}
		return key, plist.NewReal(v), nil
	case hasType && typ == "string":
		n, err := plist.NewString(val)
		return key, n, err
	default:
		// No recognized type prefix: the whole remainder, colons
		// included, is the literal string value.
		n, err := plist.NewString(rest)
		return key, n, err
	}
}
