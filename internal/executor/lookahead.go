package executor

import (
	"sort"

	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// Applies describes the type condition under which a look-ahead node
// is selected: either for every concrete type, or only for one named
// type. The zero value applies to all types.
type Applies struct {
	typeName string
}

// AppliesOnlyType returns an Applies restricted to the named type.
func AppliesOnlyType(name string) Applies { return Applies{typeName: name} }

// All reports whether the node applies regardless of the concrete
// type.
func (a Applies) All() bool { return a.typeName == "" }

// OnlyType returns the concrete type name the node is restricted to.
// The second result is false when the node applies to all types.
func (a Applies) OnlyType() (string, bool) { return a.typeName, a.typeName != "" }

// LookAhead is a read-only view over the sub-selection requested
// beneath a field, resolved against the execution's fragments and
// variables on demand. It borrows from the query document and must
// not be retained past the resolver call it was obtained in.
type LookAhead struct {
	ex      *Executor
	field   *language.Field
	sel     language.SelectionSet
	applies Applies
}

// LookAhead returns a look-ahead view of the field this executor is
// positioned at, located by its response key among the parent
// selections. At the operation root, where there is no enclosing
// field, the view spans the whole root selection set and carries no
// field of its own.
func (ex *Executor) LookAhead() LookAhead {
	if ex.path != nil && ex.path.key != "" {
		if f := findFieldByResponseKey(ex.parentSel, ex.path.key, ex.fragments, nil); f != nil {
			return LookAhead{ex: ex, field: f, sel: ex.currentSel}
		}
	}
	return LookAhead{ex: ex, sel: ex.currentSel}
}

func findFieldByResponseKey(
	sel language.SelectionSet,
	key string,
	fragments map[string]*language.FragmentDefinition,
	visited map[string]bool,
) *language.Field {
	for _, s := range sel {
		switch s := s.(type) {
		case *language.Field:
			if responseKey(s) == key {
				return s
			}
		case *language.InlineFragment:
			if f := findFieldByResponseKey(s.SelectionSet, key, fragments, visited); f != nil {
				return f
			}
		case *language.FragmentSpread:
			if visited == nil {
				visited = make(map[string]bool)
			}
			if visited[s.Name] {
				continue
			}
			visited[s.Name] = true
			def, ok := fragments[s.Name]
			if !ok {
				continue
			}
			if f := findFieldByResponseKey(def.SelectionSet, key, fragments, visited); f != nil {
				return f
			}
		}
	}
	return nil
}

// FieldName returns the response key of this node: the alias when one
// was given, else the field's name. The root node returns "".
func (la LookAhead) FieldName() string {
	if la.field == nil {
		return ""
	}
	return responseKey(la.field)
}

// FieldOriginalName returns the field's declared name, ignoring any
// alias.
func (la LookAhead) FieldOriginalName() string {
	if la.field == nil {
		return ""
	}
	return la.field.Name
}

// FieldAlias returns the explicit alias, or "" when the field was not
// aliased.
func (la LookAhead) FieldAlias() string {
	if la.field == nil || la.field.Alias == la.field.Name {
		return ""
	}
	return la.field.Alias
}

// AppliesFor reports the type condition this node was selected under.
func (la LookAhead) AppliesFor() Applies { return la.applies }

// Arguments returns the field's own arguments in document order.
// Argument values resolve variable references lazily, on access.
func (la LookAhead) Arguments() []LookAheadArgument {
	if la.field == nil {
		return nil
	}
	args := make([]LookAheadArgument, len(la.field.Arguments))
	for i, arg := range la.field.Arguments {
		args[i] = LookAheadArgument{
			name:  arg.Name,
			value: Value{node: arg.Value, vars: la.ex.variables},
		}
	}
	return args
}

// Argument returns the named argument's value. The second result is
// false when the field does not carry the argument.
func (la LookAhead) Argument(name string) (Value, bool) {
	if la.field == nil {
		return Value{}, false
	}
	for _, arg := range la.field.Arguments {
		if arg.Name == name {
			return Value{node: arg.Value, vars: la.ex.variables}, true
		}
	}
	return Value{}, false
}

// Children flattens one level of the sub-selection. Fragment spreads
// and inline fragments dissolve into the child list; each child
// carries the nearest enclosing type condition as its Applies tag.
// @skip and @include are evaluated against the execution's variables
// during the walk.
func (la LookAhead) Children() []LookAhead {
	return la.appendChildren(nil, la.sel, Applies{}, "")
}

// ChildrenForExplicitType flattens like Children but drops every
// child whose type condition names a type other than typeName.
func (la LookAhead) ChildrenForExplicitType(typeName string) []LookAhead {
	return la.appendChildren(nil, la.sel, Applies{}, typeName)
}

// Child returns the first child whose response key matches name.
func (la LookAhead) Child(name string) (LookAhead, bool) {
	for _, c := range la.Children() {
		if c.FieldName() == name {
			return c, true
		}
	}
	return LookAhead{}, false
}

// HasChild reports whether a child with the given response key is
// selected.
func (la LookAhead) HasChild(name string) bool {
	_, ok := la.Child(name)
	return ok
}

func (la LookAhead) appendChildren(out []LookAhead, sel language.SelectionSet, tag Applies, only string) []LookAhead {
	for _, s := range sel {
		switch s := s.(type) {
		case *language.Field:
			if !shouldIncludeNode(s.Directives, la.ex.variables) {
				continue
			}
			out = append(out, LookAhead{ex: la.ex, field: s, sel: s.SelectionSet, applies: tag})
		case *language.FragmentSpread:
			if !shouldIncludeNode(s.Directives, la.ex.variables) {
				continue
			}
			def, ok := la.ex.fragments[s.Name]
			if !ok {
				continue
			}
			if only != "" && def.TypeCondition != only {
				continue
			}
			out = la.appendChildren(out, def.SelectionSet, AppliesOnlyType(def.TypeCondition), only)
		case *language.InlineFragment:
			if !shouldIncludeNode(s.Directives, la.ex.variables) {
				continue
			}
			next := tag
			if s.TypeCondition != "" {
				next = AppliesOnlyType(s.TypeCondition)
			}
			if only != "" {
				if name, restricted := next.OnlyType(); restricted && name != only {
					continue
				}
			}
			out = la.appendChildren(out, s.SelectionSet, next, only)
		}
	}
	return out
}

// LookAheadArgument is one (name, value) pair from a field's argument
// list.
type LookAheadArgument struct {
	name  string
	value Value
}

func (a LookAheadArgument) Name() string { return a.name }
func (a LookAheadArgument) Value() Value { return a.value }

// ValueKind discriminates the shapes a look-ahead value takes.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueScalar
	ValueEnum
	ValueList
	ValueObject
)

// Value is a lazily resolved look-ahead input value, backed either by
// an AST node or by an already-coerced Go value from the variables
// map. Variable references resolve at access time; a reference to an
// unsupplied variable is Null rather than an error. The zero Value is
// Null.
//
// Enum values supplied through variables arrive pre-coerced to
// strings and therefore surface as scalars, not enums.
type Value struct {
	node *language.Value
	vars map[string]any
	gov  any
}

// norm collapses a variable reference into a Go-backed value.
func (v Value) norm() Value {
	if v.node != nil && v.node.Kind == language.Variable {
		return Value{gov: v.vars[v.node.Raw]}
	}
	return v
}

func (v Value) Kind() ValueKind {
	v = v.norm()
	if v.node != nil {
		switch v.node.Kind {
		case language.NullValue:
			return ValueNull
		case language.EnumValue:
			return ValueEnum
		case language.ListValue:
			return ValueList
		case language.ObjectValue:
			return ValueObject
		default:
			return ValueScalar
		}
	}
	switch v.gov.(type) {
	case nil:
		return ValueNull
	case []any:
		return ValueList
	case map[string]any:
		return ValueObject
	case schema.EnumLiteral:
		return ValueEnum
	default:
		return ValueScalar
	}
}

// Scalar returns the underlying Go scalar (int, float64, string or
// bool), or nil when the value is not a scalar.
func (v Value) Scalar() any {
	v = v.norm()
	if v.node != nil {
		switch v.node.Kind {
		case language.IntValue, language.FloatValue, language.StringValue,
			language.BlockValue, language.BooleanValue:
			return astValueToGo(v.node)
		}
		return nil
	}
	switch v.gov.(type) {
	case nil, []any, map[string]any, schema.EnumLiteral:
		return nil
	}
	return v.gov
}

// Enum returns the enum value's name, or "" when the value is not an
// enum.
func (v Value) Enum() string {
	v = v.norm()
	if v.node != nil {
		if v.node.Kind == language.EnumValue {
			return v.node.Raw
		}
		return ""
	}
	if lit, ok := v.gov.(schema.EnumLiteral); ok {
		return string(lit)
	}
	return ""
}

// List returns the value's items, or nil when the value is not a
// list.
func (v Value) List() []Value {
	v = v.norm()
	if v.node != nil {
		if v.node.Kind != language.ListValue {
			return nil
		}
		out := make([]Value, len(v.node.Children))
		for i, c := range v.node.Children {
			out[i] = Value{node: c.Value, vars: v.vars}
		}
		return out
	}
	items, ok := v.gov.([]any)
	if !ok {
		return nil
	}
	out := make([]Value, len(items))
	for i, item := range items {
		out[i] = Value{gov: item}
	}
	return out
}

// ObjectField is one (name, value) entry of an object value.
type ObjectField struct {
	Name  string
	Value Value
}

// Object returns the value's fields, or nil when the value is not an
// object. Fields of an AST-backed object keep document order; fields
// of a variable-backed object are sorted by name.
func (v Value) Object() []ObjectField {
	v = v.norm()
	if v.node != nil {
		if v.node.Kind != language.ObjectValue {
			return nil
		}
		out := make([]ObjectField, len(v.node.Children))
		for i, c := range v.node.Children {
			out[i] = ObjectField{Name: c.Name, Value: Value{node: c.Value, vars: v.vars}}
		}
		return out
	}
	m, ok := v.gov.(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]ObjectField, len(names))
	for i, name := range names {
		out[i] = ObjectField{Name: name, Value: Value{gov: m[name]}}
	}
	return out
}
