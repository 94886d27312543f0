package dmr

import (
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_Boolean(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want bool
	}{
		{"true", NewBoolean(true), true},
		{"int zero", NewInt(0), false},
		{"int nonzero", NewInt(3), true},
		{"long", NewLong(-1), true},
		{"double", NewDouble(0), false},
		{"bigint", NewBigInteger(big.NewInt(2)), true},
		{"decimal", NewDecimal(decimal.Zero), false},
		{"string true", NewString("TRUE"), true},
		{"string false", NewString("false"), false},
		{"bytes empty", NewBytes([]byte{}), false},
		{"bytes", NewBytes([]byte{0}), true},
		{"type", NewType(TypeInt), true},
		{"type undefined", NewType(TypeUndefined), false},
		{"empty list", New().SetEmptyList(), false},
		{"object", func() *Node { n := New(); n.Get("k"); return n }(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.node.AsBoolean()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NewString("yes").AsBoolean()
	assert.Error(t, err)
	_, err = New().AsBoolean()
	assert.ErrorIs(t, err, ErrUndefined)

	got, err := New().AsBooleanOr(true)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestConvert_Int(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want int32
	}{
		{"int", NewInt(42), 42},
		{"long narrows", NewLong(int64(math.MaxInt32) + 1), math.MinInt32},
		{"double truncates", NewDouble(3.9), 3},
		{"double clamps", NewDouble(1e12), math.MaxInt32},
		{"bigint narrows", NewBigInteger(new(big.Int).Lsh(big.NewInt(1), 40)), 0},
		{"decimal truncates", NewDecimal(decimal.RequireFromString("7.9")), 7},
		{"string", NewString("-12"), -12},
		{"boolean", NewBoolean(true), 1},
		{"bytes", NewBytes([]byte{0x01, 0x00}), 256},
		{"bytes negative", NewBytes([]byte{0xFF}), -1},
		{"bytes wide narrows", NewBytes([]byte{0x01, 0x00, 0x00, 0x00, 0x00}), 0},
		{"list size", func() *Node { n := New(); n.AddInt(1); n.AddInt(2); return n }(), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.node.AsInt()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NewString("12.5").AsInt()
	assert.Error(t, err)
	_, err = NewExpression("${x}").AsInt()
	assert.Error(t, err)

	got, err := New().AsIntOr(7)
	require.NoError(t, err)
	assert.Equal(t, int32(7), got)
}

func TestConvert_Long(t *testing.T) {
	got, err := NewInt(-5).AsLong()
	require.NoError(t, err)
	assert.Equal(t, int64(-5), got)

	got, err = NewBytes([]byte{0x01, 0x00, 0x00, 0x00, 0x00}).AsLong()
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<32, got)

	got, err = NewString("9223372036854775807").AsLong()
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)
}

func TestConvert_Double(t *testing.T) {
	got, err := NewInt(3).AsDouble()
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = NewString("2.5e1").AsDouble()
	require.NoError(t, err)
	assert.Equal(t, 25.0, got)

	obj := New()
	obj.Get("a")
	got, err = obj.AsDouble()
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestConvert_BigIntegerAndDecimal(t *testing.T) {
	bi, err := NewLong(1 << 40).AsBigInteger()
	require.NoError(t, err)
	assert.Zero(t, bi.Cmp(big.NewInt(1<<40)))

	bi, err = NewString("123456789012345678901234567890").AsBigInteger()
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", bi.String())

	bi, err = NewBytes([]byte{0xFF, 0x00}).AsBigInteger()
	require.NoError(t, err)
	assert.Equal(t, "-256", bi.String())

	d, err := NewDecimal(decimal.RequireFromString("1.5")).AsDecimal()
	require.NoError(t, err)
	assert.Equal(t, "1.5", d.String())

	d, err = NewInt(4).AsDecimal()
	require.NoError(t, err)
	assert.Equal(t, "4", d.String())

	// The returned big integer is a fresh value.
	orig := big.NewInt(10)
	n := NewBigInteger(orig)
	got, err := n.AsBigInteger()
	require.NoError(t, err)
	got.SetInt64(99)
	again, err := n.AsBigInteger()
	require.NoError(t, err)
	assert.Equal(t, "10", again.String())
}

func TestConvert_String(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{"undefined", New(), "undefined"},
		{"boolean", NewBoolean(false), "false"},
		{"int", NewInt(17), "17"},
		{"long", NewLong(17), "17"},
		{"double", NewDouble(1.5), "1.5"},
		{"double integral", NewDouble(1), "1.0"},
		{"bigint", NewBigInteger(big.NewInt(-3)), "-3"},
		{"decimal", NewDecimal(decimal.RequireFromString("2.25")), "2.25"},
		{"string", NewString("plain"), "plain"},
		{"bytes base64", NewBytes([]byte{0xDE, 0xAD}), "3q0="},
		{"expression", NewExpression("${x:y}"), "${x:y}"},
		{"type", NewType(TypeBigDecimal), "BIG_DECIMAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.AsString())
		})
	}

	assert.Equal(t, "fallback", New().AsStringOr("fallback"))
}

func TestConvert_Bytes(t *testing.T) {
	got, err := NewInt(256).AsBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 1, 0}, got)

	got, err = NewLong(-1).AsBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, got)

	got, err = NewString("ab").AsBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), got)

	got, err = NewBigInteger(big.NewInt(-256)).AsBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x00}, got)

	// BYTES returns a copy.
	n := NewBytes([]byte{1, 2})
	got, err = n.AsBytes()
	require.NoError(t, err)
	got[0] = 9
	again, err := n.AsBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, again)

	_, err = New().SetEmptyList().AsBytes()
	assert.Error(t, err)
}

func TestConvert_Type(t *testing.T) {
	got, err := NewType(TypeList).AsType()
	require.NoError(t, err)
	assert.Equal(t, TypeList, got)

	got, err = NewString("LONG").AsType()
	require.NoError(t, err)
	assert.Equal(t, TypeLong, got)

	_, err = NewString("NOT_A_TYPE").AsType()
	assert.Error(t, err)
	_, err = NewInt(1).AsType()
	assert.Error(t, err)
}

func TestConvert_Property(t *testing.T) {
	p, err := New().SetProperty("k", NewInt(1)).AsProperty()
	require.NoError(t, err)
	assert.Equal(t, "k", p.Name())

	single := New()
	single.Get("only").SetInt(2)
	p, err = single.AsProperty()
	require.NoError(t, err)
	assert.Equal(t, "only", p.Name())

	pair := New()
	pair.AddString("name")
	pair.AddInt(3)
	p, err = pair.AsProperty()
	require.NoError(t, err)
	assert.Equal(t, "name", p.Name())
	v, err := p.Value().AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)

	multi := New()
	multi.Get("a")
	multi.Get("b")
	_, err = multi.AsProperty()
	assert.Error(t, err)
}

func TestConvert_PropertyList(t *testing.T) {
	obj := New()
	obj.Get("a").SetInt(1)
	obj.Get("b").SetInt(2)
	props, err := obj.AsPropertyList()
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, "a", props[0].Name())
	assert.Equal(t, "b", props[1].Name())

	list := New()
	list.AddProperty("x", NewInt(1))
	list.AddProperty("y", NewInt(2))
	props, err = list.AsPropertyList()
	require.NoError(t, err)
	assert.Len(t, props, 2)

	bad := New()
	bad.AddInt(1)
	_, err = bad.AsPropertyList()
	assert.Error(t, err)

	props, err = New().AsPropertyListOr(nil)
	require.NoError(t, err)
	assert.Nil(t, props)
}

func TestConvert_ListAndObject(t *testing.T) {
	obj := New()
	obj.Get("a").SetInt(1)
	nodes, err := obj.AsList()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, TypeProperty, nodes[0].Type())

	// LIST interpolation into OBJECT: property elements and key/value pairs.
	list := New()
	list.AddProperty("p", NewInt(1))
	list.AddString("k")
	list.AddInt(2)
	back, err := list.AsObject()
	require.NoError(t, err)
	keys, err := back.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "k"}, keys)

	prop := New().SetProperty("n", NewInt(5))
	asObj, err := prop.AsObject()
	require.NoError(t, err)
	v, err := asObj.Get("n").AsInt()
	require.NoError(t, err)
	assert.Equal(t, int32(5), v)

	_, err = NewInt(1).AsList()
	assert.Error(t, err)
}

func TestConvert_Expression(t *testing.T) {
	e, err := NewExpression("${a}").AsExpression()
	require.NoError(t, err)
	assert.Equal(t, "${a}", e.ExpressionString())

	e, err = NewInt(17).AsExpression()
	require.NoError(t, err)
	assert.Equal(t, "17", e.ExpressionString())

	_, err = New().SetEmptyList().AsExpression()
	assert.Error(t, err)
}

func TestTwosComplementHelpers(t *testing.T) {
	values := []string{"0", "1", "-1", "127", "128", "-128", "-129", "255", "256", "-256",
		"123456789012345678901234567890", "-123456789012345678901234567890"}
	for _, s := range values {
		x, ok := new(big.Int).SetString(s, 10)
		require.True(t, ok)
		round := bigFromTwosComplement(bigToTwosComplement(x))
		assert.Zero(t, x.Cmp(round), "round-trip of %s", s)
	}
	assert.Equal(t, []byte{0x80}, bigToTwosComplement(big.NewInt(-128)))
	assert.Equal(t, []byte{0xFF}, bigToTwosComplement(big.NewInt(-1)))
	assert.Equal(t, []byte{0x00, 0x80}, bigToTwosComplement(big.NewInt(128)))
}
