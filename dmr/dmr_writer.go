package dmr

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// dmrWriter emits native DMR text, consulting the grammar automaton on
// every call and inserting the ',' and '=>' separators itself.
type dmrWriter struct {
	bw  *bufio.Writer
	a   *grammarAnalyzer
	err error
}

// NewDmrWriter returns an event writer emitting native DMR text.
func NewDmrWriter(w io.Writer) ModelWriter {
	return &dmrWriter{bw: bufio.NewWriter(w), a: newGrammarAnalyzer()}
}

// prepareValue emits the separator the automaton expects before the next
// value or key token.
func (w *dmrWriter) prepareValue() error {
	if w.a.isColonExpected() {
		if err := w.a.putColon(); err != nil {
			return err
		}
		w.bw.WriteString(" => ")
		return nil
	}
	if w.a.isCommaExpected() {
		if err := w.a.putComma(); err != nil {
			return err
		}
		w.bw.WriteByte(',')
	}
	return nil
}

// emit runs the separator logic, the automaton transition, then writes the
// token text produced by render.
func (w *dmrWriter) emit(put func() error, render func()) error {
	if w.err != nil {
		return w.err
	}
	if err := w.prepareValue(); err != nil {
		w.err = err
		return err
	}
	if err := put(); err != nil {
		w.err = err
		return err
	}
	render()
	return w.flushErr()
}

// emitEnd is emit without separator handling, for container ends.
func (w *dmrWriter) emitEnd(put func() error, c byte) error {
	if w.err != nil {
		return w.err
	}
	if err := put(); err != nil {
		w.err = err
		return err
	}
	w.bw.WriteByte(c)
	return w.flushErr()
}

func (w *dmrWriter) flushErr() error {
	if err := w.bw.Flush(); err != nil {
		w.err = errors.Wrap(err, "dmr: writing DMR stream")
		return w.err
	}
	return nil
}

func (w *dmrWriter) WriteObjectStart() error {
	return w.emit(w.a.putObjectStart, func() { w.bw.WriteByte('{') })
}

func (w *dmrWriter) WriteObjectEnd() error {
	return w.emitEnd(w.a.putObjectEnd, '}')
}

func (w *dmrWriter) WriteListStart() error {
	return w.emit(w.a.putListStart, func() { w.bw.WriteByte('[') })
}

func (w *dmrWriter) WriteListEnd() error {
	return w.emitEnd(w.a.putListEnd, ']')
}

func (w *dmrWriter) WritePropertyStart() error {
	return w.emit(w.a.putPropertyStart, func() { w.bw.WriteByte('(') })
}

func (w *dmrWriter) WritePropertyEnd() error {
	return w.emitEnd(w.a.putPropertyEnd, ')')
}

func (w *dmrWriter) WriteString(s string) error {
	return w.emit(w.a.putString, func() { w.bw.WriteString(quoted(s)) })
}

func (w *dmrWriter) WriteInt(v int32) error {
	return w.emit(func() error { return w.a.putNumber(EventInt) }, func() {
		w.bw.WriteString(strconv.FormatInt(int64(v), 10))
	})
}

func (w *dmrWriter) WriteLong(v int64) error {
	return w.emit(func() error { return w.a.putNumber(EventLong) }, func() {
		w.bw.WriteString(strconv.FormatInt(v, 10))
		w.bw.WriteByte('L')
	})
}

func (w *dmrWriter) WriteDouble(v float64) error {
	return w.emit(func() error { return w.a.putNumber(EventDouble) }, func() {
		w.bw.WriteString(formatDouble(v))
	})
}

func (w *dmrWriter) WriteBigInteger(v *big.Int) error {
	if v == nil {
		return fmt.Errorf("dmr: big integer value is nil")
	}
	return w.emit(func() error { return w.a.putNumber(EventBigInteger) }, func() {
		w.bw.WriteString("big integer ")
		w.bw.WriteString(v.String())
	})
}

func (w *dmrWriter) WriteDecimal(v decimal.Decimal) error {
	return w.emit(func() error { return w.a.putNumber(EventBigDecimal) }, func() {
		w.bw.WriteString("big decimal ")
		// StringFixed at the value's own scale keeps the trailing zeros
		// that String drops.
		w.bw.WriteString(v.StringFixed(-min(v.Exponent(), 0)))
	})
}

func (w *dmrWriter) WriteBytes(b []byte) error {
	return w.emit(w.a.putBytes, func() {
		var sb strings.Builder
		formatBytes(&sb, b, 0, false)
		w.bw.WriteString(sb.String())
	})
}

func (w *dmrWriter) WriteBoolean(v bool) error {
	return w.emit(w.a.putBoolean, func() {
		if v {
			w.bw.WriteString("true")
		} else {
			w.bw.WriteString("false")
		}
	})
}

func (w *dmrWriter) WriteUndefined() error {
	return w.emit(w.a.putUndefined, func() { w.bw.WriteString("undefined") })
}

func (w *dmrWriter) WriteType(t Type) error {
	return w.emit(w.a.putType, func() { w.bw.WriteString(t.String()) })
}

func (w *dmrWriter) WriteExpression(expr string) error {
	return w.emit(w.a.putExpression, func() {
		w.bw.WriteString("expression ")
		w.bw.WriteString(quoted(expr))
	})
}

func (w *dmrWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.flushErr()
}
