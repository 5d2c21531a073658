package ir

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const hexDigits = "0123456789abcdef"

// MarshalCanonical produces RFC 8785 canonical JSON with NFC normalised
// strings. It is the encoding hashed into content-addressed IDs; use
// MarshalVerbatim for anything that is read back.
//
// Differences from encoding/json: keys in UTF-16 order, strings NFC normalised,
// no HTML or U+2028/U+2029 escaping. Null, floats and invalid UTF-8 are errors.
//
// v may be a Value or plain Go data accepted by FromAny.
func MarshalCanonical(v any) ([]byte, error) {
	return marshal(v, true)
}

// MarshalVerbatim is MarshalCanonical without normalisation: strings keep
// the exact code points they were supplied with. Journal columns use it, so
// records replay byte for byte.
func MarshalVerbatim(v any) ([]byte, error) {
	return marshal(v, false)
}

func marshal(v any, nfc bool) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("null is not allowed in canonical JSON")
	}
	val, err := FromAny(v)
	if err != nil {
		return nil, err
	}
	w := canonicalWriter{nfc: nfc}
	if err := w.write(val); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// CheckText reports the first string or object key in v that is not valid
// UTF-8. Such text has no JSON encoding.
func CheckText(v Value) error {
	switch val := v.(type) {
	case Str:
		if !utf8.ValidString(string(val)) {
			return fmt.Errorf("invalid UTF-8 in string %q", string(val))
		}
	case List:
		for i, elem := range val {
			if err := CheckText(elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	case Object:
		for _, k := range val.SortedKeys() {
			if !utf8.ValidString(k) {
				return fmt.Errorf("invalid UTF-8 in key %q", k)
			}
			if err := CheckText(val[k]); err != nil {
				return fmt.Errorf("%q: %w", k, err)
			}
		}
	}
	return nil
}

type canonicalWriter struct {
	buf bytes.Buffer
	nfc bool
}

func (w *canonicalWriter) write(v Value) error {
	buf := &w.buf
	switch val := v.(type) {
	case nil, Null:
		return fmt.Errorf("null is not allowed in canonical JSON")
	case Str:
		if err := w.writeString(string(val)); err != nil {
			return err
		}
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case List:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := w.write(elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := w.writeString(k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := w.write(val[k]); err != nil {
				return fmt.Errorf("%q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported value %T", v)
	}
	return nil
}

// writeString escapes only what RFC 8785 requires: quote, backslash
// and control characters below U+0020.
func (w *canonicalWriter) writeString(s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("invalid UTF-8 in string %q", s)
	}
	if w.nfc {
		s = norm.NFC.String(s)
	}
	buf := &w.buf
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[r>>4])
			buf.WriteByte(hexDigits[r&0xf])
		default:
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
	return nil
}
