package dmr

// grammarAnalyzer is the pushdown automaton enforcing structural validity
// of an event sequence. Both textual dialects share it: readers feed it
// before publishing an event, writers before emitting a token. The stack
// grows geometrically from a small initial capacity, so steady-state
// operation allocates nothing.
//
// The stack alphabet distinguishes open containers, a pending object or
// property key, and the colon that separates a key from its value. Two
// flags track whether a comma or colon is the only legal next separator;
// a third is set once a property has accepted its key-value pair.

const (
	symListStart     byte = 1
	symObjectStart   byte = 2
	symPropertyStart byte = 4
	symString        byte = 8
	symColon         byte = 16
)

type grammarAnalyzer struct {
	stack               []byte
	canWriteComma       bool
	canWriteColon       bool
	expectedPropertyEnd bool
	currentEvent        ModelEvent
	finished            bool
}

func newGrammarAnalyzer() *grammarAnalyzer {
	return &grammarAnalyzer{stack: make([]byte, 0, 8)}
}

func (a *grammarAnalyzer) top() byte {
	return a.stack[len(a.stack)-1]
}

func (a *grammarAnalyzer) push(sym byte) {
	a.stack = append(a.stack, sym)
}

func (a *grammarAnalyzer) pop() {
	a.stack = a.stack[:len(a.stack)-1]
}

// popKey removes a COLON over STRING pair.
func (a *grammarAnalyzer) popKey() {
	a.stack = a.stack[:len(a.stack)-2]
}

func (a *grammarAnalyzer) isColonExpected() bool { return a.canWriteColon }
func (a *grammarAnalyzer) isCommaExpected() bool { return a.canWriteComma }

// putScalar accepts any scalar value event: it completes the pending value
// slot, popping a trailing colon pair, and arms the comma or property-end
// expectation of the enclosing container.
func (a *grammarAnalyzer) putScalar(ev ModelEvent) error {
	if a.finished || a.canWriteComma ||
		len(a.stack) != 0 && a.top()&(symListStart|symColon) == 0 {
		return a.fail()
	}
	a.currentEvent = ev
	if len(a.stack) == 0 {
		a.finished = true
		return nil
	}
	if a.top() == symColon {
		a.popKey()
	}
	a.canWriteComma = true
	a.expectedPropertyEnd = a.top() == symPropertyStart
	return nil
}

func (a *grammarAnalyzer) putBoolean() error    { return a.putScalar(EventBoolean) }
func (a *grammarAnalyzer) putBytes() error      { return a.putScalar(EventBytes) }
func (a *grammarAnalyzer) putExpression() error { return a.putScalar(EventExpression) }
func (a *grammarAnalyzer) putType() error       { return a.putScalar(EventType) }
func (a *grammarAnalyzer) putUndefined() error  { return a.putScalar(EventUndefined) }

// putNumber accepts one of the numeric events.
func (a *grammarAnalyzer) putNumber(ev ModelEvent) error {
	return a.putScalar(ev)
}

// putString is context-sensitive: under an open object or property it is a
// key and a colon becomes expected; anywhere else it is a scalar value.
func (a *grammarAnalyzer) putString() error {
	if a.finished || a.canWriteComma || a.expectedPropertyEnd ||
		len(a.stack) != 0 && a.top()&(symObjectStart|symListStart|symPropertyStart|symColon) == 0 {
		return a.fail()
	}
	a.currentEvent = EventString
	if len(a.stack) == 0 {
		a.finished = true
		return nil
	}
	if a.top() == symObjectStart || a.top() == symPropertyStart {
		a.push(symString)
		a.canWriteColon = true
		return nil
	}
	if a.top() == symColon {
		a.popKey()
	}
	a.canWriteComma = true
	a.expectedPropertyEnd = a.top() == symPropertyStart
	return nil
}

func (a *grammarAnalyzer) putStart(sym byte, ev ModelEvent) error {
	if a.finished || a.canWriteComma ||
		len(a.stack) != 0 && a.top()&(symListStart|symColon) == 0 {
		return a.fail()
	}
	a.currentEvent = ev
	a.push(sym)
	return nil
}

func (a *grammarAnalyzer) putObjectStart() error {
	return a.putStart(symObjectStart, EventObjectStart)
}

func (a *grammarAnalyzer) putListStart() error {
	return a.putStart(symListStart, EventListStart)
}

func (a *grammarAnalyzer) putPropertyStart() error {
	return a.putStart(symPropertyStart, EventPropertyStart)
}

// completeValue runs the shared value-completed logic after a container
// close popped its opener.
func (a *grammarAnalyzer) completeValue() {
	if len(a.stack) > 0 {
		if a.top() == symColon {
			a.popKey()
			a.canWriteComma = a.top()&(symObjectStart|symListStart) != 0
			a.expectedPropertyEnd = a.top() == symPropertyStart
		} else if a.top() == symListStart {
			a.canWriteComma = true
		}
	}
	if len(a.stack) == 0 {
		a.finished = true
	}
}

func (a *grammarAnalyzer) putObjectEnd() error {
	if a.finished || len(a.stack) == 0 || a.top() != symObjectStart || a.currentEvent == EventNone {
		return a.fail()
	}
	a.currentEvent = EventObjectEnd
	a.pop()
	a.completeValue()
	return nil
}

func (a *grammarAnalyzer) putListEnd() error {
	if a.finished || len(a.stack) == 0 || a.top() != symListStart || a.currentEvent == EventNone {
		return a.fail()
	}
	a.currentEvent = EventListEnd
	a.pop()
	a.completeValue()
	return nil
}

func (a *grammarAnalyzer) putPropertyEnd() error {
	if a.finished || len(a.stack) == 0 || a.top() != symPropertyStart ||
		!a.expectedPropertyEnd || a.currentEvent == EventNone {
		return a.fail()
	}
	a.currentEvent = EventPropertyEnd
	a.expectedPropertyEnd = false
	a.pop()
	a.completeValue()
	return nil
}

func (a *grammarAnalyzer) putColon() error {
	if a.finished || len(a.stack) == 0 || a.top() != symString {
		return a.fail()
	}
	a.currentEvent = EventNone
	a.push(symColon)
	a.canWriteColon = false
	return nil
}

func (a *grammarAnalyzer) putComma() error {
	if a.finished || !a.canWriteComma {
		return a.fail()
	}
	a.currentEvent = EventNone
	a.canWriteComma = false
	return nil
}

const valueTokens = "OBJECT_START or LIST_START or PROPERTY_START or STRING or EXPRESSION or BYTES or NUMBER or BOOLEAN or TYPE or UNDEFINED"

// expectingTokensMessage derives a human-readable account of the tokens
// that are legal in the current state.
func (a *grammarAnalyzer) expectingTokensMessage() string {
	if len(a.stack) == 0 {
		if !a.finished {
			return "Expecting " + valueTokens
		}
		return "Expecting EOF"
	}
	switch a.top() {
	case symObjectStart:
		if !a.canWriteComma {
			if a.currentEvent != EventNone {
				return "Expecting OBJECT_END or STRING"
			}
			return "Expecting STRING"
		}
		return "Expecting ',' or OBJECT_END"
	case symPropertyStart:
		if !a.expectedPropertyEnd {
			return "Expecting STRING"
		}
		return "Expecting PROPERTY_END"
	case symListStart:
		if !a.canWriteComma {
			if a.currentEvent != EventNone {
				return "Expecting LIST_END or " + valueTokens
			}
			return "Expecting " + valueTokens
		}
		return "Expecting ',' or LIST_END"
	case symColon:
		return "Expecting " + valueTokens
	case symString:
		return "Expecting ':'"
	}
	return "Expecting " + valueTokens
}

// fail moves the automaton to its terminal failed state; every subsequent
// event is rejected.
func (a *grammarAnalyzer) fail() error {
	msg := a.expectingTokensMessage()
	a.finished = true
	a.currentEvent = EventNone
	return newModelError(msg)
}
