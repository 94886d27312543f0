package dmr

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// jsonWriter emits JSON text. Non-JSON variants are wrapped in their
// sentinel objects; a PROPERTY becomes a PROPERTY_VALUE wrapper around a
// single-pair object.
type jsonWriter struct {
	bw  *bufio.Writer
	a   *grammarAnalyzer
	err error
}

// NewJSONWriter returns an event writer emitting JSON text.
func NewJSONWriter(w io.Writer) ModelWriter {
	return &jsonWriter{bw: bufio.NewWriter(w), a: newGrammarAnalyzer()}
}

func (w *jsonWriter) prepareValue() error {
	if w.a.isColonExpected() {
		if err := w.a.putColon(); err != nil {
			return err
		}
		w.bw.WriteString(" : ")
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

func (w *jsonWriter) emit(put func() error, render func()) error {
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

func (w *jsonWriter) emitEnd(put func() error, s string) error {
	if w.err != nil {
		return w.err
	}
	if err := put(); err != nil {
		w.err = err
		return err
	}
	w.bw.WriteString(s)
	return w.flushErr()
}

func (w *jsonWriter) flushErr() error {
	if err := w.bw.Flush(); err != nil {
		w.err = errors.Wrap(err, "dmr: writing JSON stream")
		return w.err
	}
	return nil
}

func (w *jsonWriter) WriteObjectStart() error {
	return w.emit(w.a.putObjectStart, func() { w.bw.WriteByte('{') })
}

func (w *jsonWriter) WriteObjectEnd() error {
	return w.emitEnd(w.a.putObjectEnd, "}")
}

func (w *jsonWriter) WriteListStart() error {
	return w.emit(w.a.putListStart, func() { w.bw.WriteByte('[') })
}

func (w *jsonWriter) WriteListEnd() error {
	return w.emitEnd(w.a.putListEnd, "]")
}

func (w *jsonWriter) WritePropertyStart() error {
	return w.emit(w.a.putPropertyStart, func() {
		w.bw.WriteString(`{"`)
		w.bw.WriteString(jsonKeyProperty)
		w.bw.WriteString(`" : {`)
	})
}

func (w *jsonWriter) WritePropertyEnd() error {
	return w.emitEnd(w.a.putPropertyEnd, "}}")
}

func (w *jsonWriter) WriteString(s string) error {
	return w.emit(w.a.putString, func() { w.bw.WriteString(quoted(s)) })
}

func (w *jsonWriter) WriteInt(v int32) error {
	return w.emit(func() error { return w.a.putNumber(EventInt) }, func() {
		w.bw.WriteString(strconv.FormatInt(int64(v), 10))
	})
}

func (w *jsonWriter) WriteLong(v int64) error {
	return w.emit(func() error { return w.a.putNumber(EventLong) }, func() {
		w.bw.WriteString(strconv.FormatInt(v, 10))
	})
}

func (w *jsonWriter) WriteDouble(v float64) error {
	return w.emit(func() error { return w.a.putNumber(EventDouble) }, func() {
		w.bw.WriteString(formatDouble(v))
	})
}

func (w *jsonWriter) WriteBigInteger(v *big.Int) error {
	if v == nil {
		return fmt.Errorf("dmr: big integer value is nil")
	}
	return w.emit(func() error { return w.a.putNumber(EventBigInteger) }, func() {
		w.bw.WriteString(v.String())
	})
}

func (w *jsonWriter) WriteDecimal(v decimal.Decimal) error {
	return w.emit(func() error { return w.a.putNumber(EventBigDecimal) }, func() {
		w.bw.WriteString(v.String())
	})
}

func (w *jsonWriter) WriteBytes(b []byte) error {
	return w.emit(w.a.putBytes, func() {
		w.writeSentinel(jsonKeyBytes, base64.StdEncoding.EncodeToString(b))
	})
}

func (w *jsonWriter) WriteBoolean(v bool) error {
	return w.emit(w.a.putBoolean, func() {
		if v {
			w.bw.WriteString("true")
		} else {
			w.bw.WriteString("false")
		}
	})
}

func (w *jsonWriter) WriteUndefined() error {
	return w.emit(w.a.putUndefined, func() { w.bw.WriteString("null") })
}

func (w *jsonWriter) WriteType(t Type) error {
	return w.emit(w.a.putType, func() {
		w.writeSentinel(jsonKeyType, t.String())
	})
}

func (w *jsonWriter) WriteExpression(expr string) error {
	return w.emit(w.a.putExpression, func() {
		w.writeSentinel(jsonKeyExpression, expr)
	})
}

func (w *jsonWriter) writeSentinel(key, payload string) {
	w.bw.WriteString(`{"`)
	w.bw.WriteString(key)
	w.bw.WriteString(`" : `)
	w.bw.WriteString(quoted(payload))
	w.bw.WriteByte('}')
}

func (w *jsonWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.flushErr()
}
