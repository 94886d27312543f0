package dmr

import (
	"encoding/base64"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Conversions between variants are lossy but deterministic. Every AsX
// except AsString, which yields "undefined", returns ErrUndefined for an
// undefined node; the Or variants substitute
// the default in that case only. Conversions outside the defined matrix
// fail with a descriptive error.

func (n *Node) convErr(target string) error {
	if n.typ == TypeUndefined {
		return ErrUndefined
	}
	return fmt.Errorf("dmr: cannot convert %s to %s", n.typ, target)
}

// ============================================================
// Boolean
// ============================================================

// AsBoolean converts the node's value to a bool. Collections are true when
// non-empty; numbers are true when non-zero; strings must spell true or
// false ignoring case.
func (n *Node) AsBoolean() (bool, error) {
	switch n.typ {
	case TypeBoolean:
		return n.boolVal, nil
	case TypeInt:
		return n.intVal != 0, nil
	case TypeLong:
		return n.longVal != 0, nil
	case TypeDouble:
		return n.doubleVal != 0, nil
	case TypeBigInteger:
		return n.bigVal.Sign() != 0, nil
	case TypeBigDecimal:
		return !n.decVal.IsZero(), nil
	case TypeString:
		switch strings.ToLower(n.strVal) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("dmr: cannot convert string %q to BOOLEAN", n.strVal)
	case TypeBytes:
		return len(n.bytesVal) > 0, nil
	case TypeType:
		return n.typeVal != TypeUndefined, nil
	case TypeList:
		return len(n.listVal) > 0, nil
	case TypeObject:
		return len(n.objVal.entries) > 0, nil
	default:
		return false, n.convErr("BOOLEAN")
	}
}

// AsBooleanOr is AsBoolean, substituting def when the node is undefined.
func (n *Node) AsBooleanOr(def bool) (bool, error) {
	if n.typ == TypeUndefined {
		return def, nil
	}
	return n.AsBoolean()
}

// ============================================================
// Integers
// ============================================================

// AsInt converts the node's value to a 32-bit integer. Collections yield
// their size; wider numerics narrow silently, matching the wire format's
// two's-complement interpretation.
func (n *Node) AsInt() (int32, error) {
	switch n.typ {
	case TypeInt:
		return n.intVal, nil
	case TypeLong:
		return int32(n.longVal), nil
	case TypeDouble:
		return f64ToInt32(n.doubleVal), nil
	case TypeBigInteger:
		return narrowInt32(n.bigVal), nil
	case TypeBigDecimal:
		return narrowInt32(n.decVal.BigInt()), nil
	case TypeString:
		v, err := strconv.ParseInt(n.strVal, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("dmr: cannot convert string %q to INT", n.strVal)
		}
		return int32(v), nil
	case TypeBytes:
		return narrowInt32(bigFromTwosComplement(n.bytesVal)), nil
	case TypeBoolean:
		if n.boolVal {
			return 1, nil
		}
		return 0, nil
	case TypeList:
		return int32(len(n.listVal)), nil
	case TypeObject:
		return int32(len(n.objVal.entries)), nil
	default:
		return 0, n.convErr("INT")
	}
}

// AsIntOr is AsInt, substituting def when the node is undefined.
func (n *Node) AsIntOr(def int32) (int32, error) {
	if n.typ == TypeUndefined {
		return def, nil
	}
	return n.AsInt()
}

// AsLong converts the node's value to a 64-bit integer.
func (n *Node) AsLong() (int64, error) {
	switch n.typ {
	case TypeInt:
		return int64(n.intVal), nil
	case TypeLong:
		return n.longVal, nil
	case TypeDouble:
		return f64ToInt64(n.doubleVal), nil
	case TypeBigInteger:
		return narrowInt64(n.bigVal), nil
	case TypeBigDecimal:
		return narrowInt64(n.decVal.BigInt()), nil
	case TypeString:
		v, err := strconv.ParseInt(n.strVal, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("dmr: cannot convert string %q to LONG", n.strVal)
		}
		return v, nil
	case TypeBytes:
		return narrowInt64(bigFromTwosComplement(n.bytesVal)), nil
	case TypeBoolean:
		if n.boolVal {
			return 1, nil
		}
		return 0, nil
	case TypeList:
		return int64(len(n.listVal)), nil
	case TypeObject:
		return int64(len(n.objVal.entries)), nil
	default:
		return 0, n.convErr("LONG")
	}
}

// AsLongOr is AsLong, substituting def when the node is undefined.
func (n *Node) AsLongOr(def int64) (int64, error) {
	if n.typ == TypeUndefined {
		return def, nil
	}
	return n.AsLong()
}

// AsDouble converts the node's value to a float64.
func (n *Node) AsDouble() (float64, error) {
	switch n.typ {
	case TypeInt:
		return float64(n.intVal), nil
	case TypeLong:
		return float64(n.longVal), nil
	case TypeDouble:
		return n.doubleVal, nil
	case TypeBigInteger:
		f, _ := new(big.Float).SetInt(n.bigVal).Float64()
		return f, nil
	case TypeBigDecimal:
		return n.decVal.InexactFloat64(), nil
	case TypeString:
		v, err := strconv.ParseFloat(n.strVal, 64)
		if err != nil {
			return 0, fmt.Errorf("dmr: cannot convert string %q to DOUBLE", n.strVal)
		}
		return v, nil
	case TypeBytes:
		f, _ := new(big.Float).SetInt(bigFromTwosComplement(n.bytesVal)).Float64()
		return f, nil
	case TypeBoolean:
		if n.boolVal {
			return 1, nil
		}
		return 0, nil
	case TypeList:
		return float64(len(n.listVal)), nil
	case TypeObject:
		return float64(len(n.objVal.entries)), nil
	default:
		return 0, n.convErr("DOUBLE")
	}
}

// AsDoubleOr is AsDouble, substituting def when the node is undefined.
func (n *Node) AsDoubleOr(def float64) (float64, error) {
	if n.typ == TypeUndefined {
		return def, nil
	}
	return n.AsDouble()
}

// ============================================================
// Arbitrary precision
// ============================================================

// AsBigInteger converts the node's value to an arbitrary-precision integer.
// The result is a fresh value.
func (n *Node) AsBigInteger() (*big.Int, error) {
	switch n.typ {
	case TypeInt:
		return big.NewInt(int64(n.intVal)), nil
	case TypeLong:
		return big.NewInt(n.longVal), nil
	case TypeDouble:
		return decimal.NewFromFloat(n.doubleVal).BigInt(), nil
	case TypeBigInteger:
		return new(big.Int).Set(n.bigVal), nil
	case TypeBigDecimal:
		return n.decVal.BigInt(), nil
	case TypeString:
		v, ok := new(big.Int).SetString(n.strVal, 10)
		if !ok {
			return nil, fmt.Errorf("dmr: cannot convert string %q to BIG_INTEGER", n.strVal)
		}
		return v, nil
	case TypeBytes:
		return bigFromTwosComplement(n.bytesVal), nil
	case TypeBoolean:
		if n.boolVal {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	case TypeList:
		return big.NewInt(int64(len(n.listVal))), nil
	case TypeObject:
		return big.NewInt(int64(len(n.objVal.entries))), nil
	default:
		return nil, n.convErr("BIG_INTEGER")
	}
}

// AsDecimal converts the node's value to an arbitrary-precision decimal.
func (n *Node) AsDecimal() (decimal.Decimal, error) {
	switch n.typ {
	case TypeInt:
		return decimal.NewFromInt32(n.intVal), nil
	case TypeLong:
		return decimal.NewFromInt(n.longVal), nil
	case TypeDouble:
		return decimal.NewFromFloat(n.doubleVal), nil
	case TypeBigInteger:
		return decimal.NewFromBigInt(n.bigVal, 0), nil
	case TypeBigDecimal:
		return n.decVal, nil
	case TypeString:
		v, err := decimal.NewFromString(n.strVal)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("dmr: cannot convert string %q to BIG_DECIMAL", n.strVal)
		}
		return v, nil
	case TypeBytes:
		return decimal.NewFromBigInt(bigFromTwosComplement(n.bytesVal), 0), nil
	case TypeBoolean:
		if n.boolVal {
			return decimal.NewFromInt(1), nil
		}
		return decimal.NewFromInt(0), nil
	case TypeList:
		return decimal.NewFromInt(int64(len(n.listVal))), nil
	case TypeObject:
		return decimal.NewFromInt(int64(len(n.objVal.entries))), nil
	default:
		return decimal.Decimal{}, n.convErr("BIG_DECIMAL")
	}
}

// ============================================================
// String, bytes, type, expression
// ============================================================

// AsString returns the literal textual value of the node. More than one
// type may yield the same string. An undefined node yields "undefined".
func (n *Node) AsString() string {
	switch n.typ {
	case TypeUndefined:
		return "undefined"
	case TypeBoolean:
		if n.boolVal {
			return "true"
		}
		return "false"
	case TypeInt:
		return strconv.FormatInt(int64(n.intVal), 10)
	case TypeLong:
		return strconv.FormatInt(n.longVal, 10)
	case TypeDouble:
		return formatDouble(n.doubleVal)
	case TypeBigInteger:
		return n.bigVal.String()
	case TypeBigDecimal:
		return n.decVal.String()
	case TypeString:
		return n.strVal
	case TypeBytes:
		return base64.StdEncoding.EncodeToString(n.bytesVal)
	case TypeExpression:
		return n.strVal
	case TypeType:
		return n.typeVal.String()
	case TypeProperty:
		return fmt.Sprintf("(%s => %s)", quoted(n.propVal.name), n.propVal.value)
	default:
		// LIST and OBJECT render their compact textual form.
		var sb strings.Builder
		formatNode(&sb, n, 0, false)
		return sb.String()
	}
}

// AsStringOr is AsString, substituting def when the node is undefined.
func (n *Node) AsStringOr(def string) string {
	if n.typ == TypeUndefined {
		return def
	}
	return n.AsString()
}

// AsBytes converts the node's value to a byte slice: BYTES copies, strings
// take their UTF-8 encoding, INT and LONG their big-endian two's-complement
// form (4 and 8 bytes), DOUBLE its IEEE-754 bits and BIG_INTEGER its
// minimal two's-complement form.
func (n *Node) AsBytes() ([]byte, error) {
	switch n.typ {
	case TypeBytes:
		return append([]byte(nil), n.bytesVal...), nil
	case TypeString:
		return []byte(n.strVal), nil
	case TypeInt:
		b := make([]byte, 4)
		putUint32(b, uint32(n.intVal))
		return b, nil
	case TypeLong:
		b := make([]byte, 8)
		putUint64(b, uint64(n.longVal))
		return b, nil
	case TypeDouble:
		b := make([]byte, 8)
		putUint64(b, math.Float64bits(n.doubleVal))
		return b, nil
	case TypeBigInteger:
		return bigToTwosComplement(n.bigVal), nil
	default:
		return nil, n.convErr("BYTES")
	}
}

// AsType converts the node's value to a type tag. Strings parse the tag
// name.
func (n *Node) AsType() (Type, error) {
	switch n.typ {
	case TypeType:
		return n.typeVal, nil
	case TypeString:
		return ParseType(n.strVal)
	default:
		return TypeUndefined, n.convErr("TYPE")
	}
}

// AsExpression converts the node's value to a value expression. Scalars
// use their literal string form; an EXPRESSION yields its template text.
func (n *Node) AsExpression() (ValueExpression, error) {
	switch n.typ {
	case TypeExpression, TypeString, TypeBoolean, TypeInt, TypeLong,
		TypeDouble, TypeBigInteger, TypeBigDecimal, TypeType:
		return NewValueExpression(n.AsString()), nil
	default:
		return ValueExpression{}, n.convErr("EXPRESSION")
	}
}

// ============================================================
// Structured conversions
// ============================================================

// AsProperty converts the node's value to a property: a PROPERTY yields its
// association, a single-entry OBJECT its only pair, and a two-element LIST
// the pair (first element as string, second as value).
func (n *Node) AsProperty() (*Property, error) {
	switch n.typ {
	case TypeProperty:
		return n.propVal, nil
	case TypeObject:
		if len(n.objVal.entries) == 1 {
			e := n.objVal.entries[0]
			return NewProperty(e.key, e.node), nil
		}
	case TypeList:
		if len(n.listVal) == 2 {
			return NewProperty(n.listVal[0].AsString(), n.listVal[1]), nil
		}
	}
	return nil, n.convErr("PROPERTY")
}

// AsPropertyList converts an OBJECT to its pairs in insertion order, a LIST
// to the per-element property conversions, and a PROPERTY to a one-element
// list.
func (n *Node) AsPropertyList() ([]*Property, error) {
	switch n.typ {
	case TypeObject:
		props := make([]*Property, 0, len(n.objVal.entries))
		for _, e := range n.objVal.entries {
			props = append(props, NewProperty(e.key, e.node))
		}
		return props, nil
	case TypeList:
		props := make([]*Property, 0, len(n.listVal))
		for _, child := range n.listVal {
			p, err := child.AsProperty()
			if err != nil {
				return nil, err
			}
			props = append(props, p)
		}
		return props, nil
	case TypeProperty:
		return []*Property{n.propVal}, nil
	default:
		return nil, n.convErr("PROPERTY list")
	}
}

// AsPropertyListOr is AsPropertyList, substituting def when the node is
// undefined.
func (n *Node) AsPropertyListOr(def []*Property) ([]*Property, error) {
	if n.typ == TypeUndefined {
		return def, nil
	}
	return n.AsPropertyList()
}

// AsList returns a LIST's elements, an OBJECT's entries as PROPERTY nodes,
// or a PROPERTY as a one-element list.
func (n *Node) AsList() ([]*Node, error) {
	switch n.typ {
	case TypeList:
		return n.listVal, nil
	case TypeObject:
		nodes := make([]*Node, 0, len(n.objVal.entries))
		for _, e := range n.objVal.entries {
			node := New()
			node.SetProperty(e.key, e.node)
			nodes = append(nodes, node)
		}
		return nodes, nil
	case TypeProperty:
		return []*Node{{typ: TypeProperty, propVal: n.propVal}}, nil
	default:
		return nil, n.convErr("LIST")
	}
}

// AsListOr is AsList, substituting def when the node is undefined.
func (n *Node) AsListOr(def []*Node) ([]*Node, error) {
	if n.typ == TypeUndefined {
		return def, nil
	}
	return n.AsList()
}

// AsObject returns a copy of the node as an OBJECT. A PROPERTY yields a
// single-entry object. A LIST is interpolated: PROPERTY elements map to
// entries, other elements are taken in pairs of key (as string) and value.
// A later duplicate key replaces the earlier value in place.
func (n *Node) AsObject() (*Node, error) {
	switch n.typ {
	case TypeObject:
		return n.Clone(), nil
	case TypeProperty:
		result := New()
		result.Get(n.propVal.name).SetNode(n.propVal.value)
		return result, nil
	case TypeList:
		result := New().SetEmptyObject()
		for i := 0; i < len(n.listVal); i++ {
			item := n.listVal[i]
			if item.typ == TypeProperty {
				result.Get(item.propVal.name).SetNode(item.propVal.value)
				continue
			}
			key := item.AsString()
			if i+1 < len(n.listVal) {
				i++
				result.Get(key).SetNode(n.listVal[i])
			} else {
				result.Get(key)
			}
		}
		return result, nil
	default:
		return nil, n.convErr("OBJECT")
	}
}

// ============================================================
// Narrowing helpers
// ============================================================

var mask64 = new(big.Int).SetUint64(math.MaxUint64)

// narrowInt64 keeps the low 64 bits of x, interpreted as two's complement.
func narrowInt64(x *big.Int) int64 {
	var m big.Int
	m.And(x, mask64)
	return int64(m.Uint64())
}

func narrowInt32(x *big.Int) int32 {
	return int32(narrowInt64(x))
}

func f64ToInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	default:
		return int32(f)
	}
}

func f64ToInt64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func putUint64(b []byte, v uint64) {
	putUint32(b[:4], uint32(v>>32))
	putUint32(b[4:], uint32(v))
}

// bigToTwosComplement renders x as its minimal big-endian two's-complement
// form, at least one byte, sign bit significant.
func bigToTwosComplement(x *big.Int) []byte {
	if x.Sign() >= 0 {
		b := x.Bytes()
		if len(b) == 0 {
			return []byte{0}
		}
		if b[0]&0x80 != 0 {
			return append([]byte{0}, b...)
		}
		return b
	}
	// Width follows the minimal representation: one byte more than the bit
	// length of -x-1 can fill. The biased value then always occupies
	// exactly that many bytes.
	not := new(big.Int).Not(x) // -x-1
	size := not.BitLen()/8 + 1
	t := new(big.Int).Lsh(big.NewInt(1), uint(8*size))
	t.Add(t, x)
	return t.Bytes()
}

// bigFromTwosComplement is the inverse of bigToTwosComplement. An empty
// slice is zero.
func bigFromTwosComplement(b []byte) *big.Int {
	if len(b) == 0 {
		return new(big.Int)
	}
	x := new(big.Int).SetBytes(b)
	if b[0]&0x80 != 0 {
		t := new(big.Int).Lsh(big.NewInt(1), uint(8*len(b)))
		x.Sub(x, t)
	}
	return x
}

// formatDouble renders a float64 with the shortest representation that
// still reads back as a DOUBLE (a bare integer form gains ".0").
func formatDouble(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !math.IsInf(f, 0) && !math.IsNaN(f) {
		s += ".0"
	}
	return s
}
