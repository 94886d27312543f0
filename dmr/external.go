package dmr

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// The binary external format is self-delimiting: every value starts with
// its type char, followed by a payload whose framing the type determines.
// Strings use the classic length-prefixed modified UTF-8 form (two-byte
// length, 0xC0 0x80 for NUL, CESU-8 surrogate pairs above the BMP).

// WriteExternal writes the node's binary external form to w.
func (n *Node) WriteExternal(w io.Writer) error {
	ew := &extWriter{w: w}
	ew.writeNode(n)
	return ew.err
}

// FromExternal decodes one value from r.
func FromExternal(r io.Reader) (*Node, error) {
	n := New()
	if err := n.ReadExternal(r); err != nil {
		return nil, err
	}
	return n, nil
}

// ReadExternal replaces this node's value with one value decoded from r.
func (n *Node) ReadExternal(r io.Reader) error {
	n.checkProtect()
	er := &extReader{r: r}
	decoded, err := er.readNode()
	if err != nil {
		return err
	}
	n.setNoCopy(decoded)
	return nil
}

// ============================================================
// Encoder
// ============================================================

type extWriter struct {
	w       io.Writer
	err     error
	scratch [8]byte
}

func (ew *extWriter) write(b []byte) {
	if ew.err != nil {
		return
	}
	if _, err := ew.w.Write(b); err != nil {
		ew.err = errors.Wrap(err, "dmr: writing external form")
	}
}

func (ew *extWriter) writeByte(b byte) {
	ew.scratch[0] = b
	ew.write(ew.scratch[:1])
}

func (ew *extWriter) writeUint32(v uint32) {
	putUint32(ew.scratch[:4], v)
	ew.write(ew.scratch[:4])
}

func (ew *extWriter) writeUint64(v uint64) {
	putUint64(ew.scratch[:8], v)
	ew.write(ew.scratch[:8])
}

func (ew *extWriter) writeUTF(s string) {
	b := encodeModifiedUTF8(s)
	if len(b) > math.MaxUint16 {
		if ew.err == nil {
			ew.err = fmt.Errorf("dmr: encoded string of %d bytes exceeds UTF framing", len(b))
		}
		return
	}
	ew.scratch[0] = byte(len(b) >> 8)
	ew.scratch[1] = byte(len(b))
	ew.write(ew.scratch[:2])
	ew.write(b)
}

func (ew *extWriter) writeNode(n *Node) {
	ew.writeByte(n.typ.TypeChar())
	switch n.typ {
	case TypeUndefined:
	case TypeBoolean:
		if n.boolVal {
			ew.writeByte(1)
		} else {
			ew.writeByte(0)
		}
	case TypeInt:
		ew.writeUint32(uint32(n.intVal))
	case TypeLong:
		ew.writeUint64(uint64(n.longVal))
	case TypeDouble:
		ew.writeUint64(math.Float64bits(n.doubleVal))
	case TypeBigInteger:
		b := bigToTwosComplement(n.bigVal)
		ew.writeUint32(uint32(len(b)))
		ew.write(b)
	case TypeBigDecimal:
		unscaled := bigToTwosComplement(n.decVal.Coefficient())
		ew.writeUint32(uint32(len(unscaled)))
		ew.write(unscaled)
		ew.writeUint32(uint32(-n.decVal.Exponent()))
	case TypeString:
		ew.writeUTF(n.strVal)
	case TypeBytes:
		ew.writeUint32(uint32(len(n.bytesVal)))
		ew.write(n.bytesVal)
	case TypeExpression:
		ew.writeUTF(n.strVal)
	case TypeType:
		ew.writeByte(n.typeVal.TypeChar())
	case TypeList:
		ew.writeUint32(uint32(len(n.listVal)))
		for _, child := range n.listVal {
			ew.writeNode(child)
		}
	case TypeObject:
		ew.writeUint32(uint32(len(n.objVal.entries)))
		for _, e := range n.objVal.entries {
			ew.writeUTF(e.key)
			ew.writeNode(e.node)
		}
	case TypeProperty:
		ew.writeUTF(n.propVal.name)
		ew.writeNode(n.propVal.value)
	}
}

// ============================================================
// Decoder
// ============================================================

type extReader struct {
	r       io.Reader
	scratch [8]byte
}

func (er *extReader) read(b []byte) error {
	if _, err := io.ReadFull(er.r, b); err != nil {
		return errors.Wrap(err, "dmr: reading external form")
	}
	return nil
}

func (er *extReader) readByte() (byte, error) {
	if err := er.read(er.scratch[:1]); err != nil {
		return 0, err
	}
	return er.scratch[0], nil
}

func (er *extReader) readUint32() (uint32, error) {
	if err := er.read(er.scratch[:4]); err != nil {
		return 0, err
	}
	b := er.scratch[:4]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

func (er *extReader) readUint64() (uint64, error) {
	hi, err := er.readUint32()
	if err != nil {
		return 0, err
	}
	lo, err := er.readUint32()
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

func (er *extReader) readCount(what string) (int, error) {
	v, err := er.readUint32()
	if err != nil {
		return 0, err
	}
	count := int(int32(v))
	if count < 0 {
		return 0, fmt.Errorf("dmr: invalid %s length %d", what, count)
	}
	return count, nil
}

func (er *extReader) readUTF() (string, error) {
	if err := er.read(er.scratch[:2]); err != nil {
		return "", err
	}
	length := int(er.scratch[0])<<8 | int(er.scratch[1])
	b := make([]byte, length)
	if err := er.read(b); err != nil {
		return "", err
	}
	return decodeModifiedUTF8(b)
}

func (er *extReader) readNode() (*Node, error) {
	c, err := er.readByte()
	if err != nil {
		return nil, err
	}
	typ, ok := typeFromChar(c)
	if !ok {
		return nil, fmt.Errorf("dmr: invalid object type char %q", c)
	}
	n := &Node{typ: typ}
	switch typ {
	case TypeUndefined:
	case TypeBoolean:
		b, err := er.readByte()
		if err != nil {
			return nil, err
		}
		n.boolVal = b != 0
	case TypeInt:
		v, err := er.readUint32()
		if err != nil {
			return nil, err
		}
		n.intVal = int32(v)
	case TypeLong:
		v, err := er.readUint64()
		if err != nil {
			return nil, err
		}
		n.longVal = int64(v)
	case TypeDouble:
		v, err := er.readUint64()
		if err != nil {
			return nil, err
		}
		n.doubleVal = math.Float64frombits(v)
	case TypeBigInteger:
		length, err := er.readCount("big integer")
		if err != nil {
			return nil, err
		}
		b := make([]byte, length)
		if err := er.read(b); err != nil {
			return nil, err
		}
		n.bigVal = bigFromTwosComplement(b)
	case TypeBigDecimal:
		length, err := er.readCount("big decimal")
		if err != nil {
			return nil, err
		}
		b := make([]byte, length)
		if err := er.read(b); err != nil {
			return nil, err
		}
		scale, err := er.readUint32()
		if err != nil {
			return nil, err
		}
		n.decVal = decimal.NewFromBigInt(bigFromTwosComplement(b), -int32(scale))
	case TypeString, TypeExpression:
		s, err := er.readUTF()
		if err != nil {
			return nil, err
		}
		n.strVal = s
	case TypeBytes:
		length, err := er.readCount("bytes")
		if err != nil {
			return nil, err
		}
		b := make([]byte, length)
		if err := er.read(b); err != nil {
			return nil, err
		}
		n.bytesVal = b
	case TypeType:
		tc, err := er.readByte()
		if err != nil {
			return nil, err
		}
		nested, ok := typeFromChar(tc)
		if !ok {
			return nil, fmt.Errorf("dmr: invalid object type char %q", tc)
		}
		n.typeVal = nested
	case TypeList:
		count, err := er.readCount("list")
		if err != nil {
			return nil, err
		}
		n.listVal = make([]*Node, 0, count)
		for i := 0; i < count; i++ {
			child, err := er.readNode()
			if err != nil {
				return nil, err
			}
			n.listVal = append(n.listVal, child)
		}
	case TypeObject:
		count, err := er.readCount("object")
		if err != nil {
			return nil, err
		}
		n.objVal = newObjectValue()
		for i := 0; i < count; i++ {
			key, err := er.readUTF()
			if err != nil {
				return nil, err
			}
			child, err := er.readNode()
			if err != nil {
				return nil, err
			}
			n.objVal.put(key, child)
		}
	case TypeProperty:
		key, err := er.readUTF()
		if err != nil {
			return nil, err
		}
		child, err := er.readNode()
		if err != nil {
			return nil, err
		}
		n.propVal = newPropertyNoCopy(key, child)
	}
	return n, nil
}

// ============================================================
// Modified UTF-8
// ============================================================

func encodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xC0, 0x80)
		case r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, 0xC0|byte(r>>6), 0x80|byte(r&0x3F))
		case r <= 0xFFFF:
			out = append(out, 0xE0|byte(r>>12), 0x80|byte(r>>6&0x3F), 0x80|byte(r&0x3F))
		default:
			hi, lo := utf16.EncodeRune(r)
			for _, u := range []rune{hi, lo} {
				out = append(out, 0xE0|byte(u>>12), 0x80|byte(u>>6&0x3F), 0x80|byte(u&0x3F))
			}
		}
	}
	return out
}

func decodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", fmt.Errorf("dmr: malformed modified UTF-8 at byte %d", i)
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", fmt.Errorf("dmr: malformed modified UTF-8 at byte %d", i)
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("dmr: malformed modified UTF-8 at byte %d", i)
		}
	}
	// Unpaired surrogates decode to the replacement rune.
	runes := utf16.Decode(units)
	var sb strings.Builder
	sb.Grow(len(b))
	for _, r := range runes {
		sb.WriteRune(r)
	}
	return sb.String(), nil
}
