// Package jsonsource resolves GraphQL fields directly from a JSON
// document. Object values become nested sources, array fields can be
// narrowed with field arguments, and abstract types downcast through a
// __typename property on the JSON object.
package jsonsource

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/hanpama/gqlengine/internal/executor"
)

// Source is one JSON value acting as a resolver. The root source wraps
// the whole document; field resolution walks into sub-values.
type Source struct {
	value gjson.Result
}

// Parse validates doc and returns the root source.
func Parse(doc string) (*Source, error) {
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("jsonsource: invalid JSON document")
	}
	root := gjson.Parse(doc)
	if !root.IsObject() {
		return nil, fmt.Errorf("jsonsource: root value must be a JSON object, got %s", root.Type)
	}
	return &Source{value: root}, nil
}

// ResolveField reads the property named like the field. A missing
// property resolves to null. When the property is an array and the
// field has arguments, only elements whose properties equal every
// argument value are kept.
func (s *Source) ResolveField(ctx context.Context, ex *executor.Executor, field string, args map[string]any) (any, error) {
	v := s.value.Get(field)
	if !v.Exists() {
		return nil, nil
	}
	if v.IsArray() {
		items := v.Array()
		out := make([]any, 0, len(items))
		for _, item := range items {
			if !matchesArgs(item, args) {
				continue
			}
			out = append(out, convert(item))
		}
		return out, nil
	}
	return convert(v), nil
}

// ConcreteTypeName reads the __typename property, so values selected
// through an interface or union field can downcast.
func (s *Source) ConcreteTypeName(ctx context.Context) string {
	return s.value.Get("__typename").Str
}

// String returns the raw JSON of the wrapped value.
func (s *Source) String() string { return s.value.Raw }

func convert(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return v.Num
	case gjson.String:
		return v.Str
	}
	if v.IsObject() {
		return &Source{value: v}
	}
	return v.Value()
}

// matchesArgs reports whether every argument equals the element's
// property of the same name. Non-object elements only match when there
// are no arguments.
func matchesArgs(item gjson.Result, args map[string]any) bool {
	if len(args) == 0 {
		return true
	}
	if !item.IsObject() {
		return false
	}
	for name, want := range args {
		if !matchesValue(item.Get(name), want) {
			return false
		}
	}
	return true
}

func matchesValue(got gjson.Result, want any) bool {
	switch w := want.(type) {
	case nil:
		return got.Type == gjson.Null || !got.Exists()
	case string:
		return got.Type == gjson.String && got.Str == w
	case bool:
		return got.IsBool() && got.Bool() == w
	case int:
		return got.Type == gjson.Number && got.Num == float64(w)
	case int32:
		return got.Type == gjson.Number && got.Num == float64(w)
	case int64:
		return got.Type == gjson.Number && got.Num == float64(w)
	case float64:
		return got.Type == gjson.Number && got.Num == w
	}
	return false
}
