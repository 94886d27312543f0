package dmr

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Node is one cell of a dynamic model tree. A node carries a type tag and
// exactly one payload slot consistent with the tag. The zero value and New()
// are UNDEFINED.
//
// Nodes are not safe for concurrent mutation. A node that has been protected
// is immutable (including its whole subtree) and is therefore safe to share
// between goroutines.
type Node struct {
	typ       Type
	protected bool

	boolVal   bool
	intVal    int32
	longVal   int64
	doubleVal float64
	bigVal    *big.Int
	decVal    decimal.Decimal
	strVal    string // STRING and EXPRESSION text
	bytesVal  []byte
	typeVal   Type
	listVal   []*Node
	objVal    *objectValue
	propVal   *Property
}

// ============================================================
// Ordered object payload
// ============================================================

// objectValue keeps entries in first-insertion order. Replacing the value
// for an existing key keeps its position.
type objectValue struct {
	entries []objectEntry
	index   map[string]int
}

type objectEntry struct {
	key  string
	node *Node
}

func newObjectValue() *objectValue {
	return &objectValue{index: make(map[string]int)}
}

func (o *objectValue) get(key string) (*Node, bool) {
	if i, ok := o.index[key]; ok {
		return o.entries[i].node, true
	}
	return nil, false
}

func (o *objectValue) put(key string, n *Node) {
	if i, ok := o.index[key]; ok {
		o.entries[i].node = n
		return
	}
	o.index[key] = len(o.entries)
	o.entries = append(o.entries, objectEntry{key: key, node: n})
}

func (o *objectValue) remove(key string) (*Node, bool) {
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	removed := o.entries[i].node
	o.entries = append(o.entries[:i], o.entries[i+1:]...)
	delete(o.index, key)
	for j := i; j < len(o.entries); j++ {
		o.index[o.entries[j].key] = j
	}
	return removed, true
}

func (o *objectValue) keys() []string {
	keys := make([]string, len(o.entries))
	for i, e := range o.entries {
		keys[i] = e.key
	}
	return keys
}

// ============================================================
// Constructors and interned constants
// ============================================================

// New creates an undefined node.
func New() *Node { return &Node{} }

// NewInt creates an INT node.
func NewInt(v int32) *Node { return New().SetInt(v) }

// NewLong creates a LONG node.
func NewLong(v int64) *Node { return New().SetLong(v) }

// NewDouble creates a DOUBLE node.
func NewDouble(v float64) *Node { return New().SetDouble(v) }

// NewBoolean creates a BOOLEAN node.
func NewBoolean(v bool) *Node { return New().SetBoolean(v) }

// NewString creates a STRING node.
func NewString(v string) *Node { return New().SetString(v) }

// NewBytes creates a BYTES node holding a copy of v.
func NewBytes(v []byte) *Node { return New().SetBytes(v) }

// NewBigInteger creates a BIG_INTEGER node holding a copy of v.
func NewBigInteger(v *big.Int) *Node { return New().SetBigInteger(v) }

// NewDecimal creates a BIG_DECIMAL node.
func NewDecimal(v decimal.Decimal) *Node { return New().SetDecimal(v) }

// NewExpression creates an EXPRESSION node.
func NewExpression(expr string) *Node { return New().SetExpression(expr) }

// NewType creates a TYPE node.
func NewType(t Type) *Node { return New().SetType(t) }

var (
	nodeTrue     = protectNode(NewBoolean(true))
	nodeFalse    = protectNode(NewBoolean(false))
	nodeZero     = protectNode(NewInt(0))
	nodeZeroLong = protectNode(NewLong(0))
)

func protectNode(n *Node) *Node {
	n.Protect()
	return n
}

// True returns the shared protected BOOLEAN true node.
func True() *Node { return nodeTrue }

// False returns the shared protected BOOLEAN false node.
func False() *Node { return nodeFalse }

// Zero returns the shared protected INT zero node.
func Zero() *Node { return nodeZero }

// ZeroLong returns the shared protected LONG zero node.
func ZeroLong() *Node { return nodeZeroLong }

// ============================================================
// Type queries
// ============================================================

// Type returns the node's current type tag.
func (n *Node) Type() Type { return n.typ }

// IsDefined reports whether the node holds a value.
func (n *Node) IsDefined() bool { return n.typ != TypeUndefined }

// IsProtected reports whether Protect has been invoked on this node.
func (n *Node) IsProtected() bool { return n.protected }

// Len returns the element count of a LIST or OBJECT, 1 for a PROPERTY and
// 0 for anything else.
func (n *Node) Len() int {
	switch n.typ {
	case TypeList:
		return len(n.listVal)
	case TypeObject:
		return len(n.objVal.entries)
	case TypeProperty:
		return 1
	default:
		return 0
	}
}

// ============================================================
// Protection
// ============================================================

// Protect makes this node and every reachable descendant immutable. It is
// idempotent. Clones taken after protection are unprotected.
func (n *Node) Protect() {
	if n.protected {
		return
	}
	switch n.typ {
	case TypeList:
		for _, child := range n.listVal {
			child.Protect()
		}
	case TypeObject:
		for _, e := range n.objVal.entries {
			e.node.Protect()
		}
	case TypeProperty:
		n.propVal.value.Protect()
	}
	n.protected = true
}

func (n *Node) checkProtect() {
	if n.protected {
		panic(ErrProtected)
	}
}

// clear resets every payload slot. Callers set the new tag and payload.
func (n *Node) clear() {
	n.boolVal = false
	n.intVal = 0
	n.longVal = 0
	n.doubleVal = 0
	n.bigVal = nil
	n.decVal = decimal.Decimal{}
	n.strVal = ""
	n.bytesVal = nil
	n.typeVal = TypeUndefined
	n.listVal = nil
	n.objVal = nil
	n.propVal = nil
}

// ============================================================
// Setters
// ============================================================

// SetInt changes this node to an INT with the given value.
func (n *Node) SetInt(v int32) *Node {
	n.checkProtect()
	n.clear()
	n.typ = TypeInt
	n.intVal = v
	return n
}

// SetLong changes this node to a LONG with the given value.
func (n *Node) SetLong(v int64) *Node {
	n.checkProtect()
	n.clear()
	n.typ = TypeLong
	n.longVal = v
	return n
}

// SetDouble changes this node to a DOUBLE with the given value.
func (n *Node) SetDouble(v float64) *Node {
	n.checkProtect()
	n.clear()
	n.typ = TypeDouble
	n.doubleVal = v
	return n
}

// SetBoolean changes this node to a BOOLEAN with the given value.
func (n *Node) SetBoolean(v bool) *Node {
	n.checkProtect()
	n.clear()
	n.typ = TypeBoolean
	n.boolVal = v
	return n
}

// SetString changes this node to a STRING with the given value.
func (n *Node) SetString(v string) *Node {
	n.checkProtect()
	n.clear()
	n.typ = TypeString
	n.strVal = v
	return n
}

// SetBytes changes this node to a BYTES value holding a copy of v.
func (n *Node) SetBytes(v []byte) *Node {
	if v == nil {
		panic("dmr: bytes value is nil")
	}
	n.checkProtect()
	n.clear()
	n.typ = TypeBytes
	n.bytesVal = append([]byte(nil), v...)
	return n
}

// SetBigInteger changes this node to a BIG_INTEGER holding a copy of v.
func (n *Node) SetBigInteger(v *big.Int) *Node {
	if v == nil {
		panic("dmr: big integer value is nil")
	}
	n.checkProtect()
	n.clear()
	n.typ = TypeBigInteger
	n.bigVal = new(big.Int).Set(v)
	return n
}

// SetDecimal changes this node to a BIG_DECIMAL with the given value.
func (n *Node) SetDecimal(v decimal.Decimal) *Node {
	n.checkProtect()
	n.clear()
	n.typ = TypeBigDecimal
	n.decVal = v
	return n
}

// SetExpression changes this node to an EXPRESSION with the given text.
func (n *Node) SetExpression(expr string) *Node {
	n.checkProtect()
	n.clear()
	n.typ = TypeExpression
	n.strVal = expr
	return n
}

// SetType changes this node to a TYPE holding the given type tag.
func (n *Node) SetType(t Type) *Node {
	n.checkProtect()
	n.clear()
	n.typ = TypeType
	n.typeVal = t
	return n
}

// SetNode replaces this node's value with a deep copy of v's value.
func (n *Node) SetNode(v *Node) *Node {
	if v == nil {
		panic("dmr: node value is nil")
	}
	n.checkProtect()
	n.setNoCopy(v.Clone())
	return n
}

// setNoCopy moves v's payload into n without copying. v must not be used
// afterwards. Used by the tree builder to avoid quadratic copying.
func (n *Node) setNoCopy(v *Node) {
	n.typ = v.typ
	n.boolVal = v.boolVal
	n.intVal = v.intVal
	n.longVal = v.longVal
	n.doubleVal = v.doubleVal
	n.bigVal = v.bigVal
	n.decVal = v.decVal
	n.strVal = v.strVal
	n.bytesVal = v.bytesVal
	n.typeVal = v.typeVal
	n.listVal = v.listVal
	n.objVal = v.objVal
	n.propVal = v.propVal
}

// SetProperty changes this node to a PROPERTY holding name and a deep copy
// of value.
func (n *Node) SetProperty(name string, value *Node) *Node {
	if value == nil {
		panic("dmr: property value is nil")
	}
	n.checkProtect()
	n.clear()
	n.typ = TypeProperty
	n.propVal = newPropertyNoCopy(name, value.Clone())
	return n
}

func (n *Node) setPropertyNoCopy(name string, value *Node) {
	n.clear()
	n.typ = TypeProperty
	n.propVal = newPropertyNoCopy(name, value)
}

// SetList changes this node to a LIST holding deep copies of the given nodes.
func (n *Node) SetList(values []*Node) *Node {
	n.checkProtect()
	list := make([]*Node, len(values))
	for i, v := range values {
		list[i] = v.Clone()
	}
	n.clear()
	n.typ = TypeList
	n.listVal = list
	return n
}

// SetEmptyList changes this node to an empty LIST.
func (n *Node) SetEmptyList() *Node {
	n.checkProtect()
	n.clear()
	n.typ = TypeList
	n.listVal = []*Node{}
	return n
}

// SetEmptyObject changes this node to an empty OBJECT.
func (n *Node) SetEmptyObject() *Node {
	n.checkProtect()
	n.clear()
	n.typ = TypeObject
	n.objVal = newObjectValue()
	return n
}

// Clear resets this node to UNDEFINED.
func (n *Node) Clear() *Node {
	n.checkProtect()
	n.clear()
	n.typ = TypeUndefined
	return n
}

// ============================================================
// Child access
// ============================================================

// Get navigates the given key path, auto-vivifying along the way: an
// undefined node is promoted to an OBJECT, and an absent key is created
// holding an undefined child. Panics if a node on the path cannot hold
// named children.
func (n *Node) Get(names ...string) *Node {
	cur := n
	for _, name := range names {
		cur = cur.getChild(name)
	}
	return cur
}

func (n *Node) getChild(name string) *Node {
	switch n.typ {
	case TypeUndefined:
		n.checkProtect()
		n.clear()
		n.typ = TypeObject
		n.objVal = newObjectValue()
		fallthrough
	case TypeObject:
		if child, ok := n.objVal.get(name); ok {
			return child
		}
		n.checkProtect()
		child := New()
		n.objVal.put(name, child)
		return child
	case TypeProperty:
		if n.propVal.name == name {
			return n.propVal.value
		}
		panic(fmt.Errorf("dmr: no child %q in property node", name))
	default:
		panic(fmt.Errorf("dmr: cannot get child of %s node", n.typ))
	}
}

// GetIndex returns the child at the given index of a LIST, growing the list
// with undefined elements as needed. An undefined node is promoted to a
// LIST. Index 0 of a PROPERTY is its value. Panics on other types.
func (n *Node) GetIndex(index int) *Node {
	if index < 0 {
		panic(fmt.Errorf("dmr: negative index %d", index))
	}
	switch n.typ {
	case TypeUndefined:
		n.checkProtect()
		n.clear()
		n.typ = TypeList
		n.listVal = []*Node{}
		fallthrough
	case TypeList:
		if index >= len(n.listVal) {
			n.checkProtect()
			for len(n.listVal) <= index {
				n.listVal = append(n.listVal, New())
			}
		}
		return n.listVal[index]
	case TypeProperty:
		if index == 0 {
			return n.propVal.value
		}
		panic(fmt.Errorf("dmr: no child %d in property node", index))
	default:
		panic(fmt.Errorf("dmr: cannot get child of %s node", n.typ))
	}
}

// Require returns the named child or ErrNoSuchElement if it is absent.
// Unlike Get it never inserts.
func (n *Node) Require(name string) (*Node, error) {
	switch n.typ {
	case TypeObject:
		if child, ok := n.objVal.get(name); ok {
			return child, nil
		}
	case TypeProperty:
		if n.propVal.name == name {
			return n.propVal.value, nil
		}
	}
	return nil, errors.Wrapf(ErrNoSuchElement, "element %q not found", name)
}

// RequireIndex returns the child at index or ErrNoSuchElement.
func (n *Node) RequireIndex(index int) (*Node, error) {
	switch n.typ {
	case TypeList:
		if index >= 0 && index < len(n.listVal) {
			return n.listVal[index], nil
		}
	case TypeProperty:
		if index == 0 {
			return n.propVal.value, nil
		}
	}
	return nil, errors.Wrapf(ErrNoSuchElement, "element %d not found", index)
}

// Remove removes and returns the named child of an OBJECT, or
// ErrNoSuchElement if it is absent.
func (n *Node) Remove(name string) (*Node, error) {
	n.checkProtect()
	if n.typ == TypeObject {
		if removed, ok := n.objVal.remove(name); ok {
			return removed, nil
		}
	}
	return nil, errors.Wrapf(ErrNoSuchElement, "element %q not found", name)
}

// RemoveIndex removes and returns the child at index of a LIST, or
// ErrNoSuchElement if it is out of range.
func (n *Node) RemoveIndex(index int) (*Node, error) {
	n.checkProtect()
	if n.typ == TypeList && index >= 0 && index < len(n.listVal) {
		removed := n.listVal[index]
		n.listVal = append(n.listVal[:index], n.listVal[index+1:]...)
		return removed, nil
	}
	return nil, errors.Wrapf(ErrNoSuchElement, "element %d not found", index)
}

// Has reports whether the given key path exists. No nodes are created.
func (n *Node) Has(names ...string) bool {
	cur := n
	for _, name := range names {
		if !cur.hasKey(name) {
			return false
		}
		cur = cur.getChild(name)
	}
	return true
}

func (n *Node) hasKey(name string) bool {
	switch n.typ {
	case TypeObject:
		_, ok := n.objVal.get(name)
		return ok
	case TypeProperty:
		return n.propVal.name == name
	default:
		return false
	}
}

// HasIndex reports whether index is within the bounds of a LIST.
func (n *Node) HasIndex(index int) bool {
	return n.typ == TypeList && index >= 0 && index < len(n.listVal)
}

// HasDefined reports whether the given key path exists and its final node
// is defined.
func (n *Node) HasDefined(names ...string) bool {
	cur := n
	for _, name := range names {
		if !cur.hasKey(name) {
			return false
		}
		cur = cur.getChild(name)
	}
	return cur.IsDefined()
}

// HasDefinedIndex reports whether index is in bounds and the element is
// defined.
func (n *Node) HasDefinedIndex(index int) bool {
	return n.HasIndex(index) && n.listVal[index].IsDefined()
}

// Keys returns the keys of an OBJECT in insertion order, or the single name
// of a PROPERTY.
func (n *Node) Keys() ([]string, error) {
	switch n.typ {
	case TypeObject:
		return n.objVal.keys(), nil
	case TypeProperty:
		return []string{n.propVal.name}, nil
	default:
		return nil, fmt.Errorf("dmr: %s node has no keys", n.typ)
	}
}

// ============================================================
// List mutation
// ============================================================

// Add appends a new undefined node to a LIST and returns it. An undefined
// node is promoted to a LIST first.
func (n *Node) Add() *Node {
	n.checkProtect()
	switch n.typ {
	case TypeUndefined:
		n.clear()
		n.typ = TypeList
		n.listVal = []*Node{}
	case TypeList:
	default:
		panic(fmt.Errorf("dmr: cannot add to %s node", n.typ))
	}
	child := New()
	n.listVal = append(n.listVal, child)
	return child
}

func (n *Node) addNoCopy(child *Node) {
	n.listVal = append(n.listVal, child)
}

// AddNode appends a deep copy of v.
func (n *Node) AddNode(v *Node) *Node {
	n.Add().SetNode(v)
	return n
}

// AddInt appends an INT value.
func (n *Node) AddInt(v int32) *Node {
	n.Add().SetInt(v)
	return n
}

// AddLong appends a LONG value.
func (n *Node) AddLong(v int64) *Node {
	n.Add().SetLong(v)
	return n
}

// AddDouble appends a DOUBLE value.
func (n *Node) AddDouble(v float64) *Node {
	n.Add().SetDouble(v)
	return n
}

// AddBoolean appends a BOOLEAN value.
func (n *Node) AddBoolean(v bool) *Node {
	n.Add().SetBoolean(v)
	return n
}

// AddString appends a STRING value.
func (n *Node) AddString(v string) *Node {
	n.Add().SetString(v)
	return n
}

// AddBytes appends a BYTES value.
func (n *Node) AddBytes(v []byte) *Node {
	n.Add().SetBytes(v)
	return n
}

// AddBigInteger appends a BIG_INTEGER value.
func (n *Node) AddBigInteger(v *big.Int) *Node {
	n.Add().SetBigInteger(v)
	return n
}

// AddDecimal appends a BIG_DECIMAL value.
func (n *Node) AddDecimal(v decimal.Decimal) *Node {
	n.Add().SetDecimal(v)
	return n
}

// AddExpression appends an EXPRESSION value.
func (n *Node) AddExpression(expr string) *Node {
	n.Add().SetExpression(expr)
	return n
}

// AddProperty appends a PROPERTY holding name and a deep copy of value.
func (n *Node) AddProperty(name string, value *Node) *Node {
	n.Add().SetProperty(name, value)
	return n
}

// AddEmptyList appends a new empty LIST and returns it.
func (n *Node) AddEmptyList() *Node {
	return n.Add().SetEmptyList()
}

// AddEmptyObject appends a new empty OBJECT and returns it.
func (n *Node) AddEmptyObject() *Node {
	return n.Add().SetEmptyObject()
}

// Insert inserts a new undefined node at index, where 0 <= index <= Len,
// and returns it.
func (n *Node) Insert(index int) *Node {
	n.checkProtect()
	switch n.typ {
	case TypeUndefined:
		n.clear()
		n.typ = TypeList
		n.listVal = []*Node{}
	case TypeList:
	default:
		panic(fmt.Errorf("dmr: cannot insert into %s node", n.typ))
	}
	if index < 0 || index > len(n.listVal) {
		panic(fmt.Errorf("dmr: insert index %d out of range [0,%d]", index, len(n.listVal)))
	}
	child := New()
	n.listVal = append(n.listVal, nil)
	copy(n.listVal[index+1:], n.listVal[index:])
	n.listVal[index] = child
	return child
}

// InsertNode inserts a deep copy of v at index.
func (n *Node) InsertNode(v *Node, index int) *Node {
	n.Insert(index).SetNode(v)
	return n
}

// ============================================================
// Clone, equality, hash
// ============================================================

// Clone returns an independent, unprotected deep copy of this node.
func (n *Node) Clone() *Node {
	c := &Node{typ: n.typ}
	switch n.typ {
	case TypeBoolean:
		c.boolVal = n.boolVal
	case TypeInt:
		c.intVal = n.intVal
	case TypeLong:
		c.longVal = n.longVal
	case TypeDouble:
		c.doubleVal = n.doubleVal
	case TypeBigInteger:
		c.bigVal = new(big.Int).Set(n.bigVal)
	case TypeBigDecimal:
		c.decVal = n.decVal
	case TypeString, TypeExpression:
		c.strVal = n.strVal
	case TypeBytes:
		c.bytesVal = append([]byte(nil), n.bytesVal...)
	case TypeType:
		c.typeVal = n.typeVal
	case TypeList:
		c.listVal = make([]*Node, len(n.listVal))
		for i, child := range n.listVal {
			c.listVal[i] = child.Clone()
		}
	case TypeObject:
		c.objVal = newObjectValue()
		for _, e := range n.objVal.entries {
			c.objVal.put(e.key, e.node.Clone())
		}
	case TypeProperty:
		c.propVal = newPropertyNoCopy(n.propVal.name, n.propVal.value.Clone())
	}
	return c
}

// Equal reports structural equality: same tag and equal payload, element
// by element and in order for containers. Nodes of different tags are never
// equal.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if other == nil || n.typ != other.typ {
		return false
	}
	switch n.typ {
	case TypeUndefined:
		return true
	case TypeBoolean:
		return n.boolVal == other.boolVal
	case TypeInt:
		return n.intVal == other.intVal
	case TypeLong:
		return n.longVal == other.longVal
	case TypeDouble:
		return math.Float64bits(n.doubleVal) == math.Float64bits(other.doubleVal)
	case TypeBigInteger:
		return n.bigVal.Cmp(other.bigVal) == 0
	case TypeBigDecimal:
		// Scale-sensitive: 2.0 and 2.00 differ, matching the wire form.
		return n.decVal.Exponent() == other.decVal.Exponent() &&
			n.decVal.Coefficient().Cmp(other.decVal.Coefficient()) == 0
	case TypeString, TypeExpression:
		return n.strVal == other.strVal
	case TypeBytes:
		if len(n.bytesVal) != len(other.bytesVal) {
			return false
		}
		for i, b := range n.bytesVal {
			if other.bytesVal[i] != b {
				return false
			}
		}
		return true
	case TypeType:
		return n.typeVal == other.typeVal
	case TypeList:
		if len(n.listVal) != len(other.listVal) {
			return false
		}
		for i, child := range n.listVal {
			if !child.Equal(other.listVal[i]) {
				return false
			}
		}
		return true
	case TypeObject:
		if len(n.objVal.entries) != len(other.objVal.entries) {
			return false
		}
		for i, e := range n.objVal.entries {
			oe := other.objVal.entries[i]
			if e.key != oe.key || !e.node.Equal(oe.node) {
				return false
			}
		}
		return true
	case TypeProperty:
		return n.propVal.name == other.propVal.name &&
			n.propVal.value.Equal(other.propVal.value)
	default:
		return false
	}
}

// Hash returns a hash that is stable across equal structures. It is
// computed over the binary external form, which encodes tag and payload
// exactly.
func (n *Node) Hash() uint64 {
	h := fnv.New64a()
	// The hash sink never fails, so the encoder cannot either.
	_ = n.WriteExternal(h)
	return h.Sum64()
}
