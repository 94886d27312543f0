package dmr

// ModelEvent is one token of a reader or writer event stream: a structural
// start or end, or a scalar.
type ModelEvent uint8

const (
	EventNone ModelEvent = iota
	EventObjectStart
	EventObjectEnd
	EventListStart
	EventListEnd
	EventPropertyStart
	EventPropertyEnd
	EventString
	EventInt
	EventLong
	EventDouble
	EventBigInteger
	EventBigDecimal
	EventBytes
	EventExpression
	EventType
	EventBoolean
	EventUndefined
)

var eventNames = [...]string{
	EventNone:          "NONE",
	EventObjectStart:   "OBJECT_START",
	EventObjectEnd:     "OBJECT_END",
	EventListStart:     "LIST_START",
	EventListEnd:       "LIST_END",
	EventPropertyStart: "PROPERTY_START",
	EventPropertyEnd:   "PROPERTY_END",
	EventString:        "STRING",
	EventInt:           "INT",
	EventLong:          "LONG",
	EventDouble:        "DOUBLE",
	EventBigInteger:    "BIG_INTEGER",
	EventBigDecimal:    "BIG_DECIMAL",
	EventBytes:         "BYTES",
	EventExpression:    "EXPRESSION",
	EventType:          "TYPE",
	EventBoolean:       "BOOLEAN",
	EventUndefined:     "UNDEFINED",
}

func (e ModelEvent) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "UNKNOWN"
}
