package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a decoded JSON document. Objects remember the order their keys
// appeared in so re-serialising a response reproduces it faithfully.
// The zero Value is JSON null.
type Value struct {
	kind Kind
	b    bool
	s    string // string contents or number literal
	arr  []Value
	keys []string
	obj  map[string]Value
}

func StringValue(s string) Value { return Value{kind: String, s: s} }

// MaxDepth is the deepest nesting of arrays and objects Parse accepts, the
// same limit encoding/json applies.
const MaxDepth = 10000

// Parse decodes a response body. It never fails: an empty body is null and
// anything that is not a single JSON document becomes a string value
// holding the raw text.
func Parse(data []byte) Value {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Value{}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	v, err := decodeValue(dec, 0)
	if err != nil {
		return StringValue(string(data))
	}
	if _, err := dec.Token(); err != io.EOF {
		return StringValue(string(data))
	}
	return v
}

func decodeValue(dec *json.Decoder, depth int) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		if depth >= MaxDepth {
			return Value{}, fmt.Errorf("exceeded max depth %d", MaxDepth)
		}
		switch t {
		case '{':
			return decodeObject(dec, depth+1)
		case '[':
			return decodeArray(dec, depth+1)
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t)
	case bool:
		return Value{kind: Bool, b: t}, nil
	case json.Number:
		return Value{kind: Number, s: t.String()}, nil
	case string:
		return StringValue(t), nil
	case nil:
		return Value{}, nil
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder, depth int) (Value, error) {
	v := Value{kind: Object, obj: map[string]Value{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is %T, not string", tok)
		}
		child, err := decodeValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		if _, dup := v.obj[key]; !dup {
			v.keys = append(v.keys, key)
		}
		v.obj[key] = child
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return v, nil
}

func decodeArray(dec *json.Decoder, depth int) (Value, error) {
	v := Value{kind: Array, arr: []Value{}}
	for dec.More() {
		child, err := decodeValue(dec, depth)
		if err != nil {
			return Value{}, err
		}
		v.arr = append(v.arr, child)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return v, nil
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

// Field returns the named member of an object. ok is false for missing
// members and for values that are not objects.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	f, ok := v.obj[name]
	return f, ok
}

// Index returns the i-th element of an array.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != Array || i < 0 || i >= len(v.arr) {
		return Value{}, false
	}
	return v.arr[i], true
}

// Len is the number of elements of an array or members of an object.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.arr)
	case Object:
		return len(v.keys)
	}
	return 0
}

// Str returns the contents of a string value.
func (v Value) Str() (string, bool) {
	if v.kind != String {
		return "", false
	}
	return v.s, true
}

// Keys returns object member names in document order.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

// String returns the compact JSON serialisation of the value.
func (v Value) String() string {
	var buf bytes.Buffer
	v.writeJSON(&buf)
	return buf.String()
}

func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	v.writeJSON(&buf)
	return buf.Bytes(), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	*v = Parse(data)
	return nil
}

func (v Value) writeJSON(buf *bytes.Buffer) {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Number:
		buf.WriteString(v.s)
	case String:
		writeJSONString(buf, v.s)
	case Array:
		buf.WriteByte('[')
		for i, el := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			el.writeJSON(buf)
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeJSONString(buf, k)
			buf.WriteByte(':')
			v.obj[k].writeJSON(buf)
		}
		buf.WriteByte('}')
	}
}

func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encode terminates with a newline.
	buf.Truncate(buf.Len() - 1)
}
