package payload

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "null", in: `null`, want: `null`},
		{name: "true", in: `true`, want: `true`},
		{name: "false", in: ` false `, want: `false`},
		{name: "integer", in: `42`, want: `42`},
		{name: "number literal kept", in: `1.50`, want: `1.50`},
		{name: "exponent", in: `-2.5e+10`, want: `-2.5e+10`},
		{name: "big integer", in: `12345678901234567890123`, want: `12345678901234567890123`},
		{name: "string", in: `"hello"`, want: `"hello"`},
		{name: "escaped string", in: `"a\"b\\c\né"`, want: `"a\"b\\c\né"`},
		{name: "empty array", in: `[]`, want: `[]`},
		{name: "empty object", in: `{}`, want: `{}`},
		{name: "key order kept", in: `{"b":1,"a":2,"c":3}`, want: `{"b":1,"a":2,"c":3}`},
		{
			name: "nested",
			in:   "{\n  \"userId\": \"u1\",\n  \"properties\": {\"crown\": \"broken\", \"tags\": [1, null, true, {\"x\": []}]}\n}",
			want: `{"userId":"u1","properties":{"crown":"broken","tags":[1,null,true,{"x":[]}]}}`,
		},
		{name: "duplicate key", in: `{"a":1,"b":2,"a":3}`, want: `{"a":3,"b":2}`},
		{name: "html characters not escaped", in: `{"<":"&>"}`, want: `{"<":"&>"}`},
		{name: "unicode escape kept", in: `"\u0041\u00e9"`, want: `"\u0041\u00e9"`},
		{name: "lone surrogate kept", in: `["\ud800"]`, want: `["\ud800"]`},
		{name: "escaped key kept", in: `{"\u0061":1}`, want: `{"\u0061":1}`},
		{name: "invalid utf-8 kept", in: "\"a\xffb\"", want: "\"a\xffb\""},
		{name: "line separator kept", in: "\"a\u2028b\"", want: "\"a\u2028b\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse([]byte(tt.in))
			require.NoError(t, err)

			out, err := v.MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Parse(nil)
		assert.ErrorIs(t, err, ErrEmpty)

		_, err = Parse([]byte("  \n\t"))
		assert.ErrorIs(t, err, ErrEmpty)
	})

	for _, in := range []string{`{`, `{"a":}`, `[1,]`, `tru`, `"unterminated`, `{} {}`, `NaN`, `{'a':1}`} {
		t.Run("invalid "+in, func(t *testing.T) {
			_, err := Parse([]byte(in))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestParse_Depth(t *testing.T) {
	nested := func(depth int) []byte {
		return []byte(strings.Repeat("[", depth) + strings.Repeat("]", depth))
	}

	t.Run("at the limit", func(t *testing.T) {
		in := nested(MaxDepth)
		v, err := Parse(in)
		require.NoError(t, err)

		out, err := v.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, string(in), string(out))
	})

	t.Run("over the limit", func(t *testing.T) {
		_, err := Parse(nested(MaxDepth + 1))
		assert.ErrorIs(t, err, ErrTooDeep)
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("brackets inside strings do not count", func(t *testing.T) {
		in := []byte(`["` + strings.Repeat("[", MaxDepth+1) + `\"{"]`)
		_, err := Parse(in)
		assert.NoError(t, err)
	})

	t.Run("deep and wide input decodes in linear time", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < MaxDepth; i++ {
			b.WriteString(`[` + `"` + strings.Repeat("x", 64) + `",`)
		}
		b.WriteString("0")
		b.WriteString(strings.Repeat("]", MaxDepth))

		start := time.Now()
		v, err := Parse([]byte(b.String()))
		require.NoError(t, err)
		assert.Less(t, time.Since(start), 5*time.Second)
		assert.Equal(t, 2, v.Len())
	})

	t.Run("oversized nesting is rejected quickly", func(t *testing.T) {
		start := time.Now()
		_, err := Parse(nested(500000))
		assert.ErrorIs(t, err, ErrTooDeep)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestParse_StringContents(t *testing.T) {
	v, err := Parse([]byte(`{"\u0074ype":"\u0074rack","emoji":"\ud83d\ude00"}`))
	require.NoError(t, err)

	typ, ok := v.Get("type")
	require.True(t, ok)
	assert.Equal(t, "track", typ.Text())

	emoji, _ := v.Get("emoji")
	assert.Equal(t, "\U0001F600", emoji.Text())
}

func TestParse_Kinds(t *testing.T) {
	v, err := Parse([]byte(`{"type":"track","n":7,"ok":false,"list":["x"],"nothing":null}`))
	require.NoError(t, err)

	assert.Equal(t, Object, v.Kind())
	assert.Equal(t, 5, v.Len())

	typ, ok := v.Get("type")
	require.True(t, ok)
	assert.Equal(t, String, typ.Kind())
	assert.Equal(t, "track", typ.Text())

	n, _ := v.Get("n")
	assert.Equal(t, json.Number("7"), n.Number())

	flag, _ := v.Get("ok")
	assert.Equal(t, Bool, flag.Kind())
	assert.False(t, flag.Bool())

	list, _ := v.Get("list")
	require.Equal(t, Array, list.Kind())
	assert.Equal(t, "x", list.Items()[0].Text())

	nothing, _ := v.Get("nothing")
	assert.True(t, nothing.IsNull())

	_, ok = v.Get("missing")
	assert.False(t, ok)
}

func TestParse_DoesNotAliasInput(t *testing.T) {
	buf := []byte(`{"event":"Sat On A Wall"}`)
	v, err := Parse(buf)
	require.NoError(t, err)

	for i := range buf {
		buf[i] = 'x'
	}

	event, _ := v.Get("event")
	assert.Equal(t, "Sat On A Wall", event.Text())
}

func TestValue_Constructors(t *testing.T) {
	v := ObjectValue(
		Member{Key: "type", Value: StringValue("identify")},
		Member{Key: "traits", Value: ObjectValue(Member{Key: "age", Value: NumberValue("30")})},
		Member{Key: "flags", Value: ArrayValue(BoolValue(true), NullValue())},
	)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"identify","traits":{"age":30},"flags":[true,null]}`, string(out))

	html, err := StringValue("<a&b>").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(html))

	parsed, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, v, parsed)
}

func TestValue_UnmarshalJSON(t *testing.T) {
	var doc struct {
		Body Value `json:"body"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"body":{"z":1,"a":[2.0]}}`), &doc))

	out, err := json.Marshal(doc.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":[2.0]}`, string(out))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "null", Null.String())
	assert.Equal(t, "object", Object.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
