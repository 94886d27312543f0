package dmr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextRoundTrip_Native(t *testing.T) {
	for name, node := range sampleNodes() {
		t.Run(name, func(t *testing.T) {
			compact, err := FromString(node.CompactString())
			require.NoError(t, err, "compact form: %s", node.CompactString())
			assert.True(t, node.Equal(compact), "compact: got %s", compact)

			pretty, err := FromString(node.String())
			require.NoError(t, err, "pretty form: %s", node.String())
			assert.True(t, node.Equal(pretty), "pretty: got %s", pretty)
		})
	}
}

// jsonRoundTripWant returns what a JSON round trip of the named sample
// yields. JSON numbers are read back as INT, LONG or DOUBLE by size and
// form, so a BIG_DECIMAL returns as a DOUBLE and a BIG_INTEGER that fits 32
// bits as an INT; a BIG_INTEGER beyond 64 bits stays a BIG_INTEGER.
func jsonRoundTripWant(name string, node *Node) *Node {
	switch name {
	case "big integer":
		return NewInt(-1)
	case "big decimal":
		return NewDouble(3.14159)
	case "complex":
		want := node.Clone()
		want.Get("dec").SetDouble(-123.45)
		return want
	}
	return node
}

func TestTextRoundTrip_JSON(t *testing.T) {
	for name, node := range sampleNodes() {
		t.Run(name, func(t *testing.T) {
			want := jsonRoundTripWant(name, node)

			compact, err := FromJSONString(node.JSONString(true))
			require.NoError(t, err, "compact form: %s", node.JSONString(true))
			assert.True(t, want.Equal(compact), "compact: got %s", compact)

			pretty, err := FromJSONString(node.JSONString(false))
			require.NoError(t, err, "pretty form: %s", node.JSONString(false))
			assert.True(t, want.Equal(pretty), "pretty: got %s", pretty)
		})
	}
}

func TestStreamRoundTrip_EventWriters(t *testing.T) {
	for name, node := range sampleNodes() {
		t.Run(name, func(t *testing.T) {
			var dmrOut strings.Builder
			w := NewDmrWriter(&dmrOut)
			require.NoError(t, node.Write(w))
			require.NoError(t, w.Flush())
			back, err := FromString(dmrOut.String())
			require.NoError(t, err, "writer output: %s", dmrOut.String())
			assert.True(t, node.Equal(back), "native writer output %s", dmrOut.String())

			var jsonOut strings.Builder
			jw := NewJSONWriter(&jsonOut)
			require.NoError(t, node.Write(jw))
			require.NoError(t, jw.Flush())
			back, err = FromJSONString(jsonOut.String())
			require.NoError(t, err, "writer output: %s", jsonOut.String())
			assert.True(t, jsonRoundTripWant(name, node).Equal(back), "json writer output %s", jsonOut.String())
		})
	}
}

func TestDmrReader_ScalarTokens(t *testing.T) {
	tests := []struct {
		input string
		typ   Type
		check func(t *testing.T, n *Node)
	}{
		{"42", TypeInt, func(t *testing.T, n *Node) {
			v, err := n.AsInt()
			require.NoError(t, err)
			assert.Equal(t, int32(42), v)
		}},
		{"2147483648", TypeLong, func(t *testing.T, n *Node) {
			v, err := n.AsLong()
			require.NoError(t, err)
			assert.Equal(t, int64(2147483648), v)
		}},
		{"-3L", TypeLong, nil},
		{"1.5", TypeDouble, nil},
		{"2e3", TypeDouble, nil},
		{"5B", TypeBigDecimal, nil},
		{"5I", TypeBigInteger, nil},
		{"big integer 99", TypeBigInteger, nil},
		{"big decimal -4.25", TypeBigDecimal, nil},
		{"true", TypeBoolean, nil},
		{"undefined", TypeUndefined, nil},
		{`expression "${a}"`, TypeExpression, nil},
		{"bytes {0x01, 0xff}", TypeBytes, func(t *testing.T, n *Node) {
			b, err := n.AsBytes()
			require.NoError(t, err)
			assert.Equal(t, []byte{0x01, 0xFF}, b)
		}},
		{"BIG_DECIMAL", TypeType, func(t *testing.T, n *Node) {
			v, err := n.AsType()
			require.NoError(t, err)
			assert.Equal(t, TypeBigDecimal, v)
		}},
		{`"hi"`, TypeString, nil},
		{`("k" => 1)`, TypeProperty, nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := FromString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, n.Type())
			if tt.check != nil {
				tt.check(t, n)
			}
		})
	}
}

func TestJSONReader_Classification(t *testing.T) {
	n, err := FromJSONString("42")
	require.NoError(t, err)
	assert.Equal(t, TypeInt, n.Type())

	n, err = FromJSONString("2147483648")
	require.NoError(t, err)
	assert.Equal(t, TypeLong, n.Type())

	n, err = FromJSONString("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, TypeBigInteger, n.Type())

	n, err = FromJSONString("1.25")
	require.NoError(t, err)
	assert.Equal(t, TypeDouble, n.Type())

	n, err = FromJSONString("null")
	require.NoError(t, err)
	assert.False(t, n.IsDefined())
}

func TestJSONReader_Sentinels(t *testing.T) {
	n, err := FromJSONString(`{"PROPERTY_VALUE" : {"n" : 42}}`)
	require.NoError(t, err)
	require.Equal(t, TypeProperty, n.Type())
	p, err := n.AsProperty()
	require.NoError(t, err)
	assert.Equal(t, "n", p.Name())
	v, err := p.Value().AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)

	n, err = FromJSONString(`{"EXPRESSION_VALUE" : "${jboss:dflt}"}`)
	require.NoError(t, err)
	assert.Equal(t, TypeExpression, n.Type())
	assert.Equal(t, "${jboss:dflt}", n.AsString())

	n, err = FromJSONString(`{"BYTES_VALUE" : "3q2+7w=="}`)
	require.NoError(t, err)
	assert.Equal(t, TypeBytes, n.Type())
	b, err := n.AsBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, b)

	n, err = FromJSONString(`{"TYPE_MODEL_VALUE" : "LIST"}`)
	require.NoError(t, err)
	v2, err := n.AsType()
	require.NoError(t, err)
	assert.Equal(t, TypeList, v2)
}

func TestJSONReader_NestedSentinels(t *testing.T) {
	input := `{"outer" : {"PROPERTY_VALUE" : {"inner" : [{"BYTES_VALUE" : "AA=="}, null]}}}`
	n, err := FromJSONString(input)
	require.NoError(t, err)

	p, err := n.Get("outer").AsProperty()
	require.NoError(t, err)
	assert.Equal(t, "inner", p.Name())
	assert.Equal(t, TypeList, p.Value().Type())
	assert.Equal(t, TypeBytes, p.Value().GetIndex(0).Type())
	assert.False(t, p.Value().GetIndex(1).IsDefined())
}

func TestJSONReader_PlainObjectWithReservedLookalike(t *testing.T) {
	// An ordinary object whose first key is not reserved takes the normal
	// path even though the lookahead consumed the key and colon.
	n, err := FromJSONString(`{"plain" : 1, "second" : 2}`)
	require.NoError(t, err)
	keys, err := n.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"plain", "second"}, keys)
}

func TestReaderPayloadAccessors(t *testing.T) {
	r := NewDmrReader(strings.NewReader("42"))
	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventInt, ev)

	v, err := r.Int()
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)

	_, err = r.StringValue()
	assert.Error(t, err)
	_, err = r.Boolean()
	assert.Error(t, err)

	assert.False(t, r.HasNext())
	_, err = r.Next()
	assert.Error(t, err)
}

func TestWriter_RejectsInvalidSequence(t *testing.T) {
	var out strings.Builder
	w := NewDmrWriter(&out)
	require.NoError(t, w.WriteObjectStart())
	// A number is not a legal object key.
	err := w.WriteInt(1)
	require.Error(t, err)
	var modelErr *ModelError
	assert.ErrorAs(t, err, &modelErr)

	// The writer stays failed.
	assert.Error(t, w.WriteObjectEnd())
}

func TestWriter_TopLevelSecondValueFails(t *testing.T) {
	var out strings.Builder
	w := NewJSONWriter(&out)
	require.NoError(t, w.WriteInt(1))
	assert.Error(t, w.WriteInt(2))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(strings.NewReader(`{"a" => [1, 2.5, big integer 3]}`), false))
	assert.NoError(t, Validate(strings.NewReader(`{"a" : [1, 2.5]}`), true))
	assert.Error(t, Validate(strings.NewReader(`{"a" => }`), false))
	assert.Error(t, Validate(strings.NewReader(`[1,]`), true))
}

func TestFactory(t *testing.T) {
	n, err := ReadNode(NewReader(strings.NewReader(`{"a" : 1}`), true))
	require.NoError(t, err)
	assert.True(t, n.Has("a"))

	var out strings.Builder
	w := NewWriter(&out, false)
	require.NoError(t, n.Write(w))
	require.NoError(t, w.Flush())
	assert.Equal(t, `{"a" => 1}`, out.String())
}

func TestFromStream(t *testing.T) {
	n, err := FromStream(strings.NewReader(`{"a" => 1}`))
	require.NoError(t, err)
	assert.True(t, n.HasDefined("a"))

	n, err = FromJSONStream(strings.NewReader(`[1, 2]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n.Len())
}
