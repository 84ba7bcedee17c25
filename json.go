package arbor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ParseJSON decodes a single JSON document.
func ParseJSON(b []byte) (Value, error) {
	var out Value
	n := 0
	err := ReadJSON(bytes.NewReader(b), func(v Value) error {
		if n > 0 {
			return errors.New("multiple JSON values where one was expected")
		}
		out = v
		n++
		return nil
	})
	if err != nil {
		return Null, err
	}
	if n == 0 {
		return Null, io.ErrUnexpectedEOF
	}
	return out, nil
}

// MustParseJSON is like ParseJSON but panics on error.  It is intended
// for literals in tests.
func MustParseJSON(s string) Value {
	v, err := ParseJSON([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

// ReadJSON decodes a stream of concatenated or newline-delimited JSON
// values calling fn for each one.  Object field order is preserved.
// Integral numbers without a fraction or exponent decode as Int.
func ReadJSON(r io.Reader, fn func(Value) error) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		v, err := decodeToken(dec, tok)
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch tok := tok.(type) {
	case nil:
		return Null, nil
	case bool:
		return NewBool(tok), nil
	case string:
		return NewString(tok), nil
	case json.Number:
		return parseNumber(string(tok))
	case float64:
		return NewFloat(tok), nil
	case json.Delim:
		switch tok {
		case '[':
			var elems []Value
			for dec.More() {
				t, err := dec.Token()
				if err != nil {
					return Null, err
				}
				v, err := decodeToken(dec, t)
				if err != nil {
					return Null, err
				}
				elems = append(elems, v)
			}
			if _, err := dec.Token(); err != nil {
				return Null, err
			}
			return NewArray(elems), nil
		case '{':
			var fields []Field
			for dec.More() {
				t, err := dec.Token()
				if err != nil {
					return Null, err
				}
				name, ok := t.(string)
				if !ok {
					return Null, fmt.Errorf("JSON object key is not a string: %v", t)
				}
				t, err = dec.Token()
				if err != nil {
					return Null, err
				}
				v, err := decodeToken(dec, t)
				if err != nil {
					return Null, err
				}
				fields = append(fields, Field{name, v})
			}
			if _, err := dec.Token(); err != nil {
				return Null, err
			}
			return NewObject(fields), nil
		}
	}
	return Null, fmt.Errorf("unexpected JSON token: %v", tok)
}

func parseNumber(s string) (Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return NewInt(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null, err
	}
	return NewFloat(f), nil
}

// AppendJSON appends the JSON encoding of v to b.  Missing fields are
// omitted; a Missing array element or top-level Missing encodes as null.
// Non-finite floats encode as the strings "NaN", "+Inf", and "-Inf".
func (v Value) AppendJSON(b []byte) []byte {
	switch v.kind {
	case KindBool:
		return strconv.AppendBool(b, v.Bool())
	case KindInt:
		return strconv.AppendInt(b, v.Int(), 10)
	case KindFloat:
		return appendFloat(b, v.Float())
	case KindString:
		return appendString(b, v.str)
	case KindArray:
		b = append(b, '[')
		for k, elem := range v.arr {
			if k > 0 {
				b = append(b, ',')
			}
			b = elem.AppendJSON(b)
		}
		return append(b, ']')
	case KindObject:
		b = append(b, '{')
		for k, f := range v.flds {
			if k > 0 {
				b = append(b, ',')
			}
			b = appendString(b, f.Name)
			b = append(b, ':')
			b = f.Value.AppendJSON(b)
		}
		return append(b, '}')
	}
	return append(b, "null"...)
}

func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	val, err := ParseJSON(b)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

func appendFloat(b []byte, f float64) []byte {
	switch {
	case math.IsNaN(f):
		return append(b, `"NaN"`...)
	case math.IsInf(f, 1):
		return append(b, `"+Inf"`...)
	case math.IsInf(f, -1):
		return append(b, `"-Inf"`...)
	}
	n := len(b)
	b = strconv.AppendFloat(b, f, 'g', -1, 64)
	if !bytes.ContainsAny(b[n:], ".e") {
		b = append(b, ".0"...)
	}
	return b
}

func appendString(b []byte, s string) []byte {
	quoted, err := json.Marshal(s)
	if err != nil {
		return strconv.AppendQuote(b, s)
	}
	return append(b, quoted...)
}
