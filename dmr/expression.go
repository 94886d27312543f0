package dmr

import (
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Environment answers name lookups during expression resolution.
type Environment interface {
	Get(name string) (string, bool)
}

// MapEnvironment is a property-map environment.
type MapEnvironment map[string]string

// Get implements Environment.
func (e MapEnvironment) Get(name string) (string, bool) {
	v, ok := e[name]
	return v, ok
}

// ChainEnvironment consults its layers in order; the first hit wins.
type ChainEnvironment []Environment

// Get implements Environment.
func (e ChainEnvironment) Get(name string) (string, bool) {
	for _, layer := range e {
		if v, ok := layer.Get(name); ok {
			return v, true
		}
	}
	return "", false
}

// SystemEnvironment resolves env.-prefixed names against the process
// environment, with the prefix stripped. Other names are never found.
type SystemEnvironment struct{}

// Get implements Environment.
func (SystemEnvironment) Get(name string) (string, bool) {
	if rest, ok := strings.CutPrefix(name, "env."); ok {
		return os.LookupEnv(rest)
	}
	return "", false
}

// lookupName resolves a single alternative name: the injected environment
// first, then the process environment.
func lookupName(env Environment, name string) (string, bool) {
	if env != nil {
		if v, ok := env.Get(name); ok {
			return v, true
		}
	}
	return SystemEnvironment{}.Get(name)
}

// ValueExpression is a template string containing ${...} placeholders.
// Each placeholder holds comma-separated alternatives; an alternative is
// either NAME or NAME:DEFAULT. Resolution tries each name in order and
// falls back to the last default seen.
type ValueExpression struct {
	expr string
}

// NewValueExpression creates an expression from its template text.
func NewValueExpression(expr string) ValueExpression {
	return ValueExpression{expr: expr}
}

// ExpressionString returns the template text.
func (e ValueExpression) ExpressionString() string { return e.expr }

func (e ValueExpression) String() string { return e.expr }

// Resolve substitutes every placeholder against env, re-entering on the
// substituted text until a fixed point. The iteration bound is the template
// length, which rules out substitution cycles.
func (e ValueExpression) Resolve(env Environment) (string, error) {
	s := e.expr
	for iter := 0; ; iter++ {
		if !strings.Contains(s, "${") {
			return s, nil
		}
		if iter > len(e.expr) {
			return "", errors.Wrapf(ErrUnresolvedExpression, "expression %q did not reach a fixed point", e.expr)
		}
		next, err := resolveOnce(s, env)
		if err != nil {
			return "", err
		}
		s = next
	}
}

func resolveOnce(s string, env Environment) (string, error) {
	var sb strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			sb.WriteString(s)
			return sb.String(), nil
		}
		end := strings.Index(s[start:], "}")
		if end < 0 {
			return "", errors.Wrapf(ErrUnresolvedExpression, "unterminated placeholder in %q", s)
		}
		end += start
		sb.WriteString(s[:start])
		replacement, err := resolveSegment(s[start+2:end], env)
		if err != nil {
			return "", err
		}
		sb.WriteString(replacement)
		s = s[end+1:]
	}
}

func resolveSegment(segment string, env Environment) (string, error) {
	alts := strings.Split(segment, ",")
	var def string
	hasDef := false
	for i, alt := range alts {
		name, d, hasColon := strings.Cut(alt, ":")
		if v, ok := lookupName(env, name); ok {
			return v, nil
		}
		if hasColon {
			def, hasDef = d, true
		} else if i == len(alts)-1 && i > 0 {
			// A trailing bare alternative doubles as the literal default.
			def, hasDef = alt, true
		}
	}
	if hasDef {
		return def, nil
	}
	return "", errors.Wrapf(ErrUnresolvedExpression, "no resolution for ${%s}", segment)
}

// Resolve returns a deep copy of the tree in which every EXPRESSION has
// been substituted against the process environment.
func (n *Node) Resolve() (*Node, error) {
	return n.ResolveWith(nil)
}

// ResolveWith resolves against the given environment layered over the
// process environment.
func (n *Node) ResolveWith(env Environment) (*Node, error) {
	switch n.typ {
	case TypeExpression:
		s, err := NewValueExpression(n.strVal).Resolve(env)
		if err != nil {
			return nil, err
		}
		return NewString(s), nil
	case TypeList:
		result := New().SetEmptyList()
		for _, child := range n.listVal {
			resolved, err := child.ResolveWith(env)
			if err != nil {
				return nil, err
			}
			result.addNoCopy(resolved)
		}
		return result, nil
	case TypeObject:
		result := New().SetEmptyObject()
		for _, e := range n.objVal.entries {
			resolved, err := e.node.ResolveWith(env)
			if err != nil {
				return nil, err
			}
			result.objVal.put(e.key, resolved)
		}
		return result, nil
	case TypeProperty:
		resolved, err := n.propVal.value.ResolveWith(env)
		if err != nil {
			return nil, err
		}
		result := New()
		result.setPropertyNoCopy(n.propVal.name, resolved)
		return result, nil
	default:
		return n.Clone(), nil
	}
}
