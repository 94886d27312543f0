package dmr

import (
	"fmt"
	"io"
	"strings"
)

// The tree builder consumes a reader's event stream and assembles a Node
// with move semantics, so no subtree is copied twice. Its inverse drives a
// writer by a post-order walk over the tree.

// ReadNode builds a value tree from the next complete value on r.
func ReadNode(r ModelReader) (*Node, error) {
	ev, err := r.Next()
	if err != nil {
		return nil, err
	}
	return readValue(r, ev)
}

func readValue(r ModelReader, ev ModelEvent) (*Node, error) {
	switch ev {
	case EventString:
		s, err := r.StringValue()
		if err != nil {
			return nil, err
		}
		return NewString(s), nil
	case EventInt:
		v, err := r.Int()
		if err != nil {
			return nil, err
		}
		return NewInt(v), nil
	case EventLong:
		v, err := r.Long()
		if err != nil {
			return nil, err
		}
		return NewLong(v), nil
	case EventDouble:
		v, err := r.Double()
		if err != nil {
			return nil, err
		}
		return NewDouble(v), nil
	case EventBigInteger:
		v, err := r.BigInteger()
		if err != nil {
			return nil, err
		}
		return NewBigInteger(v), nil
	case EventBigDecimal:
		v, err := r.Decimal()
		if err != nil {
			return nil, err
		}
		return NewDecimal(v), nil
	case EventBytes:
		v, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		return NewBytes(v), nil
	case EventExpression:
		v, err := r.Expression()
		if err != nil {
			return nil, err
		}
		return NewExpression(v), nil
	case EventType:
		v, err := r.TypeValue()
		if err != nil {
			return nil, err
		}
		return NewType(v), nil
	case EventBoolean:
		v, err := r.Boolean()
		if err != nil {
			return nil, err
		}
		return NewBoolean(v), nil
	case EventUndefined:
		return New(), nil
	case EventObjectStart:
		return readObject(r)
	case EventListStart:
		return readList(r)
	case EventPropertyStart:
		return readProperty(r)
	default:
		return nil, fmt.Errorf("dmr: unexpected event %s", ev)
	}
}

func readObject(r ModelReader) (*Node, error) {
	node := New().SetEmptyObject()
	for {
		ev, err := r.Next()
		if err != nil {
			return nil, err
		}
		if ev == EventObjectEnd {
			return node, nil
		}
		key, err := r.StringValue()
		if err != nil {
			return nil, err
		}
		ev, err = r.Next()
		if err != nil {
			return nil, err
		}
		value, err := readValue(r, ev)
		if err != nil {
			return nil, err
		}
		node.objVal.put(key, value)
	}
}

func readList(r ModelReader) (*Node, error) {
	node := New().SetEmptyList()
	for {
		ev, err := r.Next()
		if err != nil {
			return nil, err
		}
		if ev == EventListEnd {
			return node, nil
		}
		value, err := readValue(r, ev)
		if err != nil {
			return nil, err
		}
		node.addNoCopy(value)
	}
}

func readProperty(r ModelReader) (*Node, error) {
	node := New()
	for {
		ev, err := r.Next()
		if err != nil {
			return nil, err
		}
		if ev == EventPropertyEnd {
			return node, nil
		}
		key, err := r.StringValue()
		if err != nil {
			return nil, err
		}
		ev, err = r.Next()
		if err != nil {
			return nil, err
		}
		value, err := readValue(r, ev)
		if err != nil {
			return nil, err
		}
		node.setPropertyNoCopy(key, value)
	}
}

// Write drives w with this node's event stream in post-order.
func (n *Node) Write(w ModelWriter) error {
	switch n.typ {
	case TypeUndefined:
		return w.WriteUndefined()
	case TypeBoolean:
		return w.WriteBoolean(n.boolVal)
	case TypeInt:
		return w.WriteInt(n.intVal)
	case TypeLong:
		return w.WriteLong(n.longVal)
	case TypeDouble:
		return w.WriteDouble(n.doubleVal)
	case TypeBigInteger:
		return w.WriteBigInteger(n.bigVal)
	case TypeBigDecimal:
		return w.WriteDecimal(n.decVal)
	case TypeString:
		return w.WriteString(n.strVal)
	case TypeBytes:
		return w.WriteBytes(n.bytesVal)
	case TypeExpression:
		return w.WriteExpression(n.strVal)
	case TypeType:
		return w.WriteType(n.typeVal)
	case TypeList:
		if err := w.WriteListStart(); err != nil {
			return err
		}
		for _, child := range n.listVal {
			if err := child.Write(w); err != nil {
				return err
			}
		}
		return w.WriteListEnd()
	case TypeObject:
		if err := w.WriteObjectStart(); err != nil {
			return err
		}
		for _, e := range n.objVal.entries {
			if err := w.WriteString(e.key); err != nil {
				return err
			}
			if err := e.node.Write(w); err != nil {
				return err
			}
		}
		return w.WriteObjectEnd()
	case TypeProperty:
		if err := w.WritePropertyStart(); err != nil {
			return err
		}
		if err := w.WriteString(n.propVal.name); err != nil {
			return err
		}
		if err := n.propVal.value.Write(w); err != nil {
			return err
		}
		return w.WritePropertyEnd()
	default:
		return fmt.Errorf("dmr: cannot write %s node", n.typ)
	}
}

// ============================================================
// Parsing entry points
// ============================================================

// FromString parses a complete native DMR document.
func FromString(input string) (*Node, error) {
	r := newDmrReader(strings.NewReader(input))
	node, err := ReadNode(r)
	if err != nil {
		return nil, err
	}
	if err := r.expectDocumentEnd(); err != nil {
		return nil, err
	}
	return node, nil
}

// FromJSONString parses a complete JSON document.
func FromJSONString(input string) (*Node, error) {
	r := newJSONReader(strings.NewReader(input))
	node, err := ReadNode(r)
	if err != nil {
		return nil, err
	}
	if err := r.expectDocumentEnd(); err != nil {
		return nil, err
	}
	return node, nil
}

// FromStream reads one native DMR value from r, leaving any trailing data
// unconsumed within the reader's buffering.
func FromStream(r io.Reader) (*Node, error) {
	return ReadNode(NewDmrReader(r))
}

// FromJSONStream reads one JSON value from r.
func FromJSONStream(r io.Reader) (*Node, error) {
	return ReadNode(NewJSONReader(r))
}
