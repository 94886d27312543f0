package dmr

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// A streaming base64 codec over the standard alphabet. Encoded output is
// soft-wrapped at 76 characters with CRLF; decoding ignores whitespace and
// padding wherever they appear and rejects any other character outside the
// alphabet.

const base64LineLength = 76

var base64EncTable = func() [64]byte {
	var t [64]byte
	i := 0
	for c := byte('A'); c <= 'Z'; c++ {
		t[i] = c
		i++
	}
	for c := byte('a'); c <= 'z'; c++ {
		t[i] = c
		i++
	}
	for c := byte('0'); c <= '9'; c++ {
		t[i] = c
		i++
	}
	t[i] = '+'
	t[i+1] = '/'
	return t
}()

var base64DecTable = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i, c := range base64EncTable {
		t[c] = int8(i)
	}
	return t
}()

// ============================================================
// Encoder
// ============================================================

type base64Encoder struct {
	w     io.Writer
	chunk [3]byte
	n     int
	col   int
	err   error
}

// NewBase64Encoder returns a writer that base64-encodes everything written
// to it. Close flushes the final partial group with padding.
func NewBase64Encoder(w io.Writer) io.WriteCloser {
	return &base64Encoder{w: w}
}

func (e *base64Encoder) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	for _, b := range p {
		e.chunk[e.n] = b
		e.n++
		if e.n == 3 {
			e.flushGroup(3)
			if e.err != nil {
				return 0, e.err
			}
		}
	}
	return len(p), nil
}

func (e *base64Encoder) Close() error {
	if e.err != nil {
		return e.err
	}
	if e.n > 0 {
		e.flushGroup(e.n)
	}
	return e.err
}

// flushGroup emits one 4-char group for k input bytes (1..3), padding with
// '=' and wrapping the line as needed.
func (e *base64Encoder) flushGroup(k int) {
	var quad [4]byte
	b0, b1, b2 := e.chunk[0], byte(0), byte(0)
	if k > 1 {
		b1 = e.chunk[1]
	}
	if k > 2 {
		b2 = e.chunk[2]
	}
	quad[0] = base64EncTable[b0>>2]
	quad[1] = base64EncTable[(b0&0x03)<<4|b1>>4]
	switch k {
	case 1:
		quad[2] = '='
		quad[3] = '='
	case 2:
		quad[2] = base64EncTable[(b1&0x0F)<<2]
		quad[3] = '='
	default:
		quad[2] = base64EncTable[(b1&0x0F)<<2|b2>>6]
		quad[3] = base64EncTable[b2&0x3F]
	}
	e.n = 0
	if e.col == base64LineLength {
		if _, err := e.w.Write([]byte("\r\n")); err != nil {
			e.err = errors.Wrap(err, "dmr: writing base64")
			return
		}
		e.col = 0
	}
	if _, err := e.w.Write(quad[:]); err != nil {
		e.err = errors.Wrap(err, "dmr: writing base64")
		return
	}
	e.col += 4
}

// ============================================================
// Decoder
// ============================================================

type base64Decoder struct {
	br     *bufio.Reader
	out    [3]byte
	outLen int
	outPos int
	eof    bool
	err    error
}

// NewBase64Decoder returns a reader that decodes base64 text from r.
func NewBase64Decoder(r io.Reader) io.Reader {
	return &base64Decoder{br: bufio.NewReader(r)}
}

func (d *base64Decoder) Read(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		if d.outPos < d.outLen {
			n := copy(p[total:], d.out[d.outPos:d.outLen])
			d.outPos += n
			total += n
			continue
		}
		if d.err != nil {
			if total > 0 {
				return total, nil
			}
			return 0, d.err
		}
		if d.eof {
			if total > 0 {
				return total, nil
			}
			return 0, io.EOF
		}
		d.fill()
	}
	return total, nil
}

// fill consumes one 4-char group (less at end of input) into the output
// window.
func (d *base64Decoder) fill() {
	var quad [4]byte
	have := 0
	for have < 4 {
		c, err := d.br.ReadByte()
		if err == io.EOF {
			d.eof = true
			break
		}
		if err != nil {
			d.err = errors.Wrap(err, "dmr: reading base64")
			return
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '=':
			continue
		case base64DecTable[c] >= 0:
			quad[have] = byte(base64DecTable[c])
			have++
		default:
			d.err = errors.Wrapf(ErrIncorrectData, "invalid base64 character %q", c)
			return
		}
	}
	switch have {
	case 0:
	case 1:
		d.err = errors.Wrap(ErrIncorrectData, "truncated base64 group")
	case 2:
		d.out[0] = quad[0]<<2 | quad[1]>>4
		d.outLen, d.outPos = 1, 0
	case 3:
		d.out[0] = quad[0]<<2 | quad[1]>>4
		d.out[1] = quad[1]<<4 | quad[2]>>2
		d.outLen, d.outPos = 2, 0
	case 4:
		d.out[0] = quad[0]<<2 | quad[1]>>4
		d.out[1] = quad[1]<<4 | quad[2]>>2
		d.out[2] = quad[2]<<6 | quad[3]
		d.outLen, d.outPos = 3, 0
	}
}

// ============================================================
// Node envelope
// ============================================================

// WriteBase64 writes the node's binary external form wrapped in base64.
func (n *Node) WriteBase64(w io.Writer) error {
	enc := NewBase64Encoder(w)
	if err := n.WriteExternal(enc); err != nil {
		return err
	}
	return enc.Close()
}

// FromBase64 decodes a base64-wrapped binary external form from r.
func FromBase64(r io.Reader) (*Node, error) {
	return FromExternal(NewBase64Decoder(r))
}

// ToBase64String returns the node's base64-wrapped binary external form.
func (n *Node) ToBase64String() (string, error) {
	var sb strings.Builder
	if err := n.WriteBase64(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FromBase64String decodes a base64-wrapped binary external form.
func FromBase64String(encoded string) (*Node, error) {
	return FromBase64(strings.NewReader(encoded))
}
