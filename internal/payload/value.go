// Package payload holds the schema-less JSON value carried by tracking requests.
// A Value keeps object keys in the order they arrived and numbers as their
// original literal, so decoding and re-encoding does not reshape the document.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

// MaxDepth bounds array and object nesting, the same limit encoding/json applies.
const MaxDepth = 10000

var (
	ErrEmpty   = errors.New("payload is empty")
	ErrInvalid = errors.New("payload is not valid JSON")
	ErrTooDeep = fmt.Errorf("%w: nesting exceeds %d levels", ErrInvalid, MaxDepth)
)

// Kind identifies which JSON value a Value holds.
type Kind uint8

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
	default:
		return "unknown"
	}
}

// Member is a single key/value pair of an object.
type Member struct {
	Key   string
	Value Value

	rawKey string
}

// Value is a decoded JSON document. The zero Value is JSON null.
type Value struct {
	kind    Kind
	b       bool
	s       string // string contents, or the number literal
	raw     string // quoted literal as received, when re-quoting s would not reproduce it
	items   []Value
	members []Member
}

func NullValue() Value { return Value{} }

func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

func StringValue(s string) Value { return Value{kind: String, s: s} }

// NumberValue wraps a JSON number literal. The literal is not validated here;
// use Parse for untrusted input.
func NumberValue(n json.Number) Value { return Value{kind: Number, s: string(n)} }

func ArrayValue(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: Array, items: items}
}

// ObjectValue builds an object from members. A repeated key keeps the position
// of its first occurrence and the value of its last.
func ObjectValue(members ...Member) Value {
	out := make([]Member, 0, len(members))
	index := make(map[string]int, len(members))
	for _, m := range members {
		if i, ok := index[m.Key]; ok {
			out[i].Value = m.Value
			continue
		}
		index[m.Key] = len(out)
		out = append(out, m)
	}
	return Value{kind: Object, members: out}
}

// EmptyObject is the value echoed when a request carries no JSON body.
func EmptyObject() Value { return ObjectValue() }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

func (v Value) Bool() bool { return v.b }

// Text returns the contents of a String value.
func (v Value) Text() string {
	if v.kind != String {
		return ""
	}
	return v.s
}

// Number returns the literal of a Number value.
func (v Value) Number() json.Number {
	if v.kind != Number {
		return ""
	}
	return json.Number(v.s)
}

func (v Value) Items() []Value { return v.items }

func (v Value) Members() []Member { return v.members }

// Len reports the number of array items or object members.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.members)
	default:
		return 0
	}
}

// Get looks up an object member by key.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Parse decodes a JSON document. Leading and trailing whitespace is allowed;
// anything else around the single top-level value is rejected, as is nesting
// deeper than MaxDepth.
func Parse(data []byte) (Value, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, ErrEmpty
	}
	if exceedsDepth(data, MaxDepth) {
		return Value{}, ErrTooDeep
	}
	if !gjson.ValidBytes(data) {
		return Value{}, ErrInvalid
	}
	// string(data) copies, so the result never aliases a reused request buffer.
	d := decoder{src: string(data)}
	return d.value(), nil
}

// exceedsDepth reports whether brackets outside string literals nest deeper than limit.
func exceedsDepth(data []byte, limit int) bool {
	depth := 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '"':
			for i++; i < len(data) && data[i] != '"'; i++ {
				if data[i] == '\\' {
					i++
				}
			}
		case '[', '{':
			depth++
			if depth > limit {
				return true
			}
		case ']', '}':
			depth--
		}
	}
	return false
}

// decoder builds a Value from input already checked by gjson.ValidBytes, so it
// reads every byte once and never has to report syntax errors.
type decoder struct {
	src string
	pos int
}

func (d *decoder) skipSpace() {
	for d.pos < len(d.src) {
		switch d.src[d.pos] {
		case ' ', '\t', '\n', '\r':
			d.pos++
		default:
			return
		}
	}
}

func (d *decoder) value() Value {
	d.skipSpace()
	switch d.src[d.pos] {
	case '{':
		return d.object()
	case '[':
		return d.array()
	case '"':
		s, raw := d.str()
		return Value{kind: String, s: s, raw: raw}
	case 't':
		d.pos += len("true")
		return BoolValue(true)
	case 'f':
		d.pos += len("false")
		return BoolValue(false)
	case 'n':
		d.pos += len("null")
		return NullValue()
	default:
		start := d.pos
		for d.pos < len(d.src) && strings.IndexByte("+-.0123456789eE", d.src[d.pos]) >= 0 {
			d.pos++
		}
		return Value{kind: Number, s: d.src[start:d.pos]}
	}
}

func (d *decoder) array() Value {
	d.pos++
	items := []Value{}
	d.skipSpace()
	if d.src[d.pos] == ']' {
		d.pos++
		return Value{kind: Array, items: items}
	}
	for {
		items = append(items, d.value())
		d.skipSpace()
		c := d.src[d.pos]
		d.pos++
		if c == ']' {
			return Value{kind: Array, items: items}
		}
	}
}

func (d *decoder) object() Value {
	d.pos++
	var members []Member
	d.skipSpace()
	if d.src[d.pos] == '}' {
		d.pos++
		return ObjectValue()
	}
	for {
		d.skipSpace()
		key, rawKey := d.str()
		d.skipSpace()
		d.pos++ // ':'
		val := d.value()
		members = append(members, Member{Key: key, Value: val, rawKey: rawKey})
		d.skipSpace()
		c := d.src[d.pos]
		d.pos++
		if c == '}' {
			return ObjectValue(members...)
		}
	}
}

// str consumes a string literal. It returns the decoded contents and, when
// quoting those contents again would give different bytes, the literal itself.
func (d *decoder) str() (string, string) {
	start := d.pos
	escaped := false
	for d.pos++; d.src[d.pos] != '"'; d.pos++ {
		if d.src[d.pos] == '\\' {
			escaped = true
			d.pos++
		}
	}
	d.pos++
	lit := d.src[start:d.pos]
	inner := lit[1 : len(lit)-1]

	switch {
	case escaped:
		return gjson.Parse(lit).Str, lit
	case !utf8.ValidString(inner), strings.ContainsAny(inner, "\u2028\u2029"):
		return inner, lit
	default:
		return inner, ""
	}
}

// MarshalJSON encodes the value compactly, preserving member order and number literals.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces v with the decoded document.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) encode(buf *bytes.Buffer) error {
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
		if v.raw != "" {
			buf.WriteString(v.raw)
			return nil
		}
		return writeString(buf, v.s)
	case Array:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if m.rawKey != "" {
				buf.WriteString(m.rawKey)
			} else if err := writeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates each value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
