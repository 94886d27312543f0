package dmr

import "fmt"

// Type identifies the kind of value a Node holds.
type Type uint8

const (
	TypeUndefined Type = iota
	TypeBigDecimal
	TypeBigInteger
	TypeBoolean
	TypeBytes
	TypeDouble
	TypeExpression
	TypeInt
	TypeList
	TypeLong
	TypeObject
	TypeProperty
	TypeString
	TypeType
)

// typeChars maps each type to its single-byte wire identifier.
// The mapping is part of the binary external format and must not change.
var typeChars = [...]byte{
	TypeUndefined:  'u',
	TypeBigDecimal: 'd',
	TypeBigInteger: 'i',
	TypeBoolean:    'Z',
	TypeBytes:      'b',
	TypeDouble:     'D',
	TypeExpression: 'e',
	TypeInt:        'I',
	TypeList:       'l',
	TypeLong:       'J',
	TypeObject:     'o',
	TypeProperty:   'p',
	TypeString:     's',
	TypeType:       't',
}

var typeNames = [...]string{
	TypeUndefined:  "UNDEFINED",
	TypeBigDecimal: "BIG_DECIMAL",
	TypeBigInteger: "BIG_INTEGER",
	TypeBoolean:    "BOOLEAN",
	TypeBytes:      "BYTES",
	TypeDouble:     "DOUBLE",
	TypeExpression: "EXPRESSION",
	TypeInt:        "INT",
	TypeList:       "LIST",
	TypeLong:       "LONG",
	TypeObject:     "OBJECT",
	TypeProperty:   "PROPERTY",
	TypeString:     "STRING",
	TypeType:       "TYPE",
}

// String returns the type name as it appears in the textual grammars.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "UNKNOWN"
}

// TypeChar returns the single-byte identifier used by the binary format.
func (t Type) TypeChar() byte {
	if int(t) < len(typeChars) {
		return typeChars[t]
	}
	return 0
}

// ParseType returns the type named by s.
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return Type(t), nil
		}
	}
	return TypeUndefined, fmt.Errorf("dmr: invalid type name %q", s)
}

func typeFromChar(c byte) (Type, bool) {
	for t, tc := range typeChars {
		if tc == c {
			return Type(t), true
		}
	}
	return TypeUndefined, false
}
