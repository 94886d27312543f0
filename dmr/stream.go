package dmr

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ModelReader produces the event stream of one value. Next validates every
// token against the shared grammar automaton before publishing it; the
// payload accessors expose the decoded data of the current event and fail
// when asked for a payload the event does not carry.
type ModelReader interface {
	// Next returns the next event, or a *ModelError on malformed input.
	// After the first failure every call fails.
	Next() (ModelEvent, error)
	// HasNext reports whether the value's event stream is still open.
	HasNext() bool

	Boolean() (bool, error)
	Int() (int32, error)
	Long() (int64, error)
	Double() (float64, error)
	BigInteger() (*big.Int, error)
	Decimal() (decimal.Decimal, error)
	StringValue() (string, error)
	Bytes() ([]byte, error)
	Expression() (string, error)
	TypeValue() (Type, error)
}

// ModelWriter emits the event stream of one value as text. Every call
// consults the grammar automaton, emits any required separator, then the
// token itself. Flush must be called once the value is complete.
type ModelWriter interface {
	WriteObjectStart() error
	WriteObjectEnd() error
	WriteListStart() error
	WriteListEnd() error
	WritePropertyStart() error
	WritePropertyEnd() error
	WriteString(s string) error
	WriteInt(v int32) error
	WriteLong(v int64) error
	WriteDouble(v float64) error
	WriteBigInteger(v *big.Int) error
	WriteDecimal(v decimal.Decimal) error
	WriteBytes(b []byte) error
	WriteBoolean(v bool) error
	WriteUndefined() error
	WriteType(t Type) error
	WriteExpression(expr string) error
	Flush() error
}

// NewReader returns a reader for the native dialect, or the JSON dialect
// when jsonCompatible is set.
func NewReader(r io.Reader, jsonCompatible bool) ModelReader {
	if jsonCompatible {
		return NewJSONReader(r)
	}
	return NewDmrReader(r)
}

// NewWriter returns a writer for the native dialect, or the JSON dialect
// when jsonCompatible is set.
func NewWriter(w io.Writer, jsonCompatible bool) ModelWriter {
	if jsonCompatible {
		return NewJSONWriter(w)
	}
	return NewDmrWriter(w)
}

// Validate runs a reader over one value without building a tree, returning
// the first well-formedness violation.
func Validate(r io.Reader, jsonCompatible bool) error {
	reader := NewReader(r, jsonCompatible)
	for reader.HasNext() {
		if _, err := reader.Next(); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================
// Shared event payload
// ============================================================

// eventPayload holds the decoded data of the current event. Both dialect
// readers embed it.
type eventPayload struct {
	event    ModelEvent
	boolVal  bool
	intVal   int32
	longVal  int64
	dblVal   float64
	bigVal   *big.Int
	decVal   decimal.Decimal
	strVal   string
	bytesVal []byte
	typeVal  Type
}

func (p *eventPayload) payloadErr(want ModelEvent) error {
	return fmt.Errorf("dmr: no %s data available at %s event", want, p.event)
}

func (p *eventPayload) Boolean() (bool, error) {
	if p.event != EventBoolean {
		return false, p.payloadErr(EventBoolean)
	}
	return p.boolVal, nil
}

func (p *eventPayload) Int() (int32, error) {
	if p.event != EventInt {
		return 0, p.payloadErr(EventInt)
	}
	return p.intVal, nil
}

func (p *eventPayload) Long() (int64, error) {
	if p.event != EventLong {
		return 0, p.payloadErr(EventLong)
	}
	return p.longVal, nil
}

func (p *eventPayload) Double() (float64, error) {
	if p.event != EventDouble {
		return 0, p.payloadErr(EventDouble)
	}
	return p.dblVal, nil
}

func (p *eventPayload) BigInteger() (*big.Int, error) {
	if p.event != EventBigInteger {
		return nil, p.payloadErr(EventBigInteger)
	}
	return p.bigVal, nil
}

func (p *eventPayload) Decimal() (decimal.Decimal, error) {
	if p.event != EventBigDecimal {
		return decimal.Decimal{}, p.payloadErr(EventBigDecimal)
	}
	return p.decVal, nil
}

func (p *eventPayload) StringValue() (string, error) {
	if p.event != EventString {
		return "", p.payloadErr(EventString)
	}
	return p.strVal, nil
}

func (p *eventPayload) Bytes() ([]byte, error) {
	if p.event != EventBytes {
		return nil, p.payloadErr(EventBytes)
	}
	return p.bytesVal, nil
}

func (p *eventPayload) Expression() (string, error) {
	if p.event != EventExpression {
		return "", p.payloadErr(EventExpression)
	}
	return p.strVal, nil
}

func (p *eventPayload) TypeValue() (Type, error) {
	if p.event != EventType {
		return TypeUndefined, p.payloadErr(EventType)
	}
	return p.typeVal, nil
}

// ============================================================
// Scanning helpers shared by both dialect readers
// ============================================================

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isNumberChar(c byte) bool {
	return isDigit(c) || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E'
}

func isWordChar(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

// readNonSpace returns the next non-whitespace byte.
func readNonSpace(br *bufio.Reader) (byte, error) {
	for {
		c, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !isWhitespace(c) {
			return c, nil
		}
	}
}

// peekNonSpace skips whitespace and peeks at the next byte without
// consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	c, err := readNonSpace(br)
	if err != nil {
		return 0, err
	}
	if err := br.UnreadByte(); err != nil {
		return 0, err
	}
	return c, nil
}

// readQuotedRest reads a quoted string whose opening quote has been
// consumed, applying the shared escape table.
func readQuotedRest(br *bufio.Reader) (string, error) {
	var sb []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			return "", newModelError("Unexpected EOF in string literal")
		}
		switch c {
		case '"':
			return string(sb), nil
		case '\\':
			esc, err := br.ReadByte()
			if err != nil {
				return "", newModelError("Unexpected EOF in string literal")
			}
			switch esc {
			case '"', '\\', '/':
				sb = append(sb, esc)
			case 'b':
				sb = append(sb, '\b')
			case 'f':
				sb = append(sb, '\f')
			case 'n':
				sb = append(sb, '\n')
			case 'r':
				sb = append(sb, '\r')
			case 't':
				sb = append(sb, '\t')
			case 'u':
				r, err := readUnicodeEscape(br)
				if err != nil {
					return "", err
				}
				sb = utf8.AppendRune(sb, r)
			default:
				return "", newModelError(fmt.Sprintf("Invalid escape sequence '\\%c'", esc))
			}
		default:
			sb = append(sb, c)
		}
	}
}

// readUnicodeEscape decodes the four hex digits of a \uXXXX escape, pairing
// surrogates when a low surrogate escape follows immediately.
func readUnicodeEscape(br *bufio.Reader) (rune, error) {
	u, err := readHex4(br)
	if err != nil {
		return 0, err
	}
	if u >= 0xD800 && u <= 0xDBFF {
		// Try to pair with a following \uXXXX low surrogate.
		next, err := br.Peek(2)
		if err == nil && len(next) == 2 && next[0] == '\\' && next[1] == 'u' {
			if _, err := br.Discard(2); err != nil {
				return 0, err
			}
			lo, err := readHex4(br)
			if err != nil {
				return 0, err
			}
			if lo >= 0xDC00 && lo <= 0xDFFF {
				return 0x10000 + (u-0xD800)<<10 + (lo - 0xDC00), nil
			}
			return 0xFFFD, nil
		}
	}
	return u, nil
}

func readHex4(br *bufio.Reader) (rune, error) {
	var v rune
	for i := 0; i < 4; i++ {
		c, err := br.ReadByte()
		if err != nil {
			return 0, newModelError("Unexpected EOF in unicode escape")
		}
		var d rune
		switch {
		case isDigit(c):
			d = rune(c - '0')
		case 'a' <= c && c <= 'f':
			d = rune(c-'a') + 10
		case 'A' <= c && c <= 'F':
			d = rune(c-'A') + 10
		default:
			return 0, newModelError(fmt.Sprintf("Invalid hex digit '%c' in unicode escape", c))
		}
		v = v<<4 | d
	}
	return v, nil
}

