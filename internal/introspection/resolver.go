// Package introspection layers the standard GraphQL introspection
// surface (__schema, __type and the __-prefixed meta types) over an
// existing schema and resolver root.
package introspection

import (
	"context"
	"fmt"
	"sort"

	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/schema"
)

// Wrap returns a copy of sch extended with the introspection types,
// together with a root whose query resolver answers __schema and
// __type itself and hands every other field to the original query
// resolver. Mutation and subscription roots pass through untouched.
func Wrap(sch *schema.Schema, root *executor.Root) (*schema.Schema, *executor.Root) {
	if root == nil {
		root = &executor.Root{}
	}
	extended := extendSchema(sch)
	wrapped := &executor.Root{
		Query:        &queryResolver{base: root.Query, original: sch},
		Mutation:     root.Mutation,
		Subscription: root.Subscription,
	}
	return extended, wrapped
}

type queryResolver struct {
	base     executor.Resolver
	original *schema.Schema
}

func (r *queryResolver) ResolveField(ctx context.Context, ex *executor.Executor, field string, args map[string]any) (any, error) {
	switch field {
	case "__schema":
		return node{sch: r.original, v: r.original}, nil
	case "__type":
		name, _ := args["name"].(string)
		if t := r.original.Types[name]; t != nil {
			return node{sch: r.original, v: t}, nil
		}
		return nil, nil
	}
	if r.base == nil {
		return nil, fmt.Errorf("no resolver bound for query field %q", field)
	}
	return r.base.ResolveField(ctx, ex, field, args)
}

// node adapts one schema model value (type, field, directive, ...) to
// the engine's Resolver interface. Composite results are wrapped into
// fresh nodes so the whole meta tree resolves lazily.
type node struct {
	sch *schema.Schema
	v   any
}

func (n node) ResolveField(ctx context.Context, ex *executor.Executor, field string, args map[string]any) (any, error) {
	var (
		v  any
		ok bool
	)
	switch src := n.v.(type) {
	case *schema.Schema:
		v, ok = resolveSchemaField(src, field)
	case *schema.Type:
		v, ok = resolveTypeField(n.sch, src, field, args)
	case *schema.TypeRef:
		v, ok = resolveTypeRefField(n.sch, src, field, args)
	case *schema.Field:
		v, ok = resolveFieldField(src, field, args)
	case *schema.InputValue:
		v, ok = resolveInputValueField(src, field)
	case *schema.EnumValue:
		v, ok = resolveEnumValueField(src, field)
	case *schema.Directive:
		v, ok = resolveDirectiveField(src, field, args)
	}
	if !ok {
		return nil, fmt.Errorf("cannot resolve introspection field %q on %T", field, n.v)
	}
	return n.wrap(v), nil
}

// wrap turns schema model values into nodes and dereferences optional
// leaf pointers; everything else passes through as-is.
func (n node) wrap(v any) any {
	switch x := v.(type) {
	case *schema.Schema:
		if x == nil {
			return nil
		}
		return node{n.sch, x}
	case *schema.Type:
		if x == nil {
			return nil
		}
		return node{n.sch, x}
	case *schema.TypeRef:
		if x == nil {
			return nil
		}
		return node{n.sch, x}
	case *schema.Field:
		if x == nil {
			return nil
		}
		return node{n.sch, x}
	case *schema.InputValue:
		if x == nil {
			return nil
		}
		return node{n.sch, x}
	case *schema.EnumValue:
		if x == nil {
			return nil
		}
		return node{n.sch, x}
	case *schema.Directive:
		if x == nil {
			return nil
		}
		return node{n.sch, x}
	case []*schema.Type:
		return n.wrapSlice(len(x), func(i int) any { return x[i] })
	case []*schema.Field:
		return n.wrapSlice(len(x), func(i int) any { return x[i] })
	case []*schema.InputValue:
		return n.wrapSlice(len(x), func(i int) any { return x[i] })
	case []*schema.EnumValue:
		return n.wrapSlice(len(x), func(i int) any { return x[i] })
	case []*schema.Directive:
		return n.wrapSlice(len(x), func(i int) any { return x[i] })
	case *string:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}

func (n node) wrapSlice(size int, at func(i int) any) []any {
	out := make([]any, size)
	for i := range out {
		out[i] = n.wrap(at(i))
	}
	return out
}

// --- field tables ---

func resolveSchemaField(sch *schema.Schema, field string) (any, bool) {
	switch field {
	case "types":
		return resolveSchemaTypes(sch), true
	case "queryType":
		return sch.GetQueryType(), true
	case "mutationType":
		return sch.GetMutationType(), true
	case "subscriptionType":
		return sch.GetSubscriptionType(), true
	case "directives":
		return resolveSchemaDirectives(sch), true
	case "description":
		return sch.Description, true
	}
	return nil, false
}

func resolveTypeField(sch *schema.Schema, t *schema.Type, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return t.Description, true
	case "specifiedByURL":
		return t.SpecifiedByURL, true
	case "fields":
		return resolveTypeFields(t, args), true
	case "interfaces":
		return resolveTypeInterfaces(sch, t), true
	case "possibleTypes":
		return resolveTypePossibleTypes(sch, t), true
	case "enumValues":
		return resolveTypeEnumValues(t, args), true
	case "inputFields":
		return resolveTypeInputFields(t, args), true
	case "isOneOf":
		return t.OneOf, true
	case "ofType":
		// Wrapper kinds live on TypeRef nodes; a named type never has ofType.
		return nil, true
	}
	return nil, false
}

func resolveTypeRefField(sch *schema.Schema, tr *schema.TypeRef, field string, args map[string]any) (any, bool) {
	if tr.Kind == schema.TypeRefKindList || tr.Kind == schema.TypeRefKindNonNull {
		switch field {
		case "kind":
			return string(tr.Kind), true
		case "name":
			return nil, true
		case "ofType":
			return tr.OfType, true
		default:
			return nil, true
		}
	}
	// A named reference is indistinguishable from its definition.
	if def := sch.Types[tr.Named]; def != nil {
		return resolveTypeField(sch, def, field, args)
	}
	return nil, true
}

func resolveFieldField(f *schema.Field, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return f.Description, true
	case "args":
		return resolveFieldArgs(f, args), true
	case "type":
		return f.Type, true
	case "isDeprecated":
		return f.IsDeprecated, true
	case "deprecationReason":
		return resolveFieldDeprecationReason(f), true
	}
	return nil, false
}

func resolveInputValueField(a *schema.InputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.Name, true
	case "description":
		return a.Description, true
	case "type":
		return a.Type, true
	case "defaultValue":
		return resolveInputValueDefaultValue(a), true
	case "isDeprecated":
		return a.IsDeprecated, true
	case "deprecationReason":
		return resolveInputValueDeprecationReason(a), true
	}
	return nil, false
}

func resolveEnumValueField(ev *schema.EnumValue, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return ev.Description, true
	case "isDeprecated":
		return ev.IsDeprecated, true
	case "deprecationReason":
		return resolveEnumValueDeprecationReason(ev), true
	}
	return nil, false
}

func resolveDirectiveField(d *schema.Directive, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return d.Description, true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		return resolveDirectiveLocations(d), true
	case "args":
		return resolveDirectiveArgs(d, args), true
	}
	return nil, false
}

// --- collection helpers ---

func resolveSchemaTypes(sch *schema.Schema) []*schema.Type {
	out := make([]*schema.Type, 0, len(sch.Types))
	for _, t := range sch.Types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveSchemaDirectives(sch *schema.Schema) []*schema.Directive {
	dirs := make([]*schema.Directive, 0, len(sch.Directives))
	for _, d := range sch.Directives {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	return dirs
}

func resolveTypeFields(t *schema.Type, args map[string]any) []*schema.Field {
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.Field{}
	for _, f := range t.Fields {
		if !includeDeprecated && f.IsDeprecated {
			continue
		}
		out = append(out, f)
	}
	return out
}

func resolveTypeInterfaces(sch *schema.Schema, t *schema.Type) []*schema.Type {
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return nil
	}
	out := make([]*schema.Type, 0, len(t.Interfaces))
	for _, name := range t.Interfaces {
		if def := sch.Types[name]; def != nil {
			out = append(out, def)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func resolveTypePossibleTypes(sch *schema.Schema, t *schema.Type) []*schema.Type {
	if t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
		return nil
	}
	pts := []*schema.Type{}
	for _, name := range t.PossibleTypes {
		if def := sch.Types[name]; def != nil {
			pts = append(pts, def)
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].Name < pts[j].Name })
	return pts
}

func resolveTypeEnumValues(t *schema.Type, args map[string]any) []*schema.EnumValue {
	if t.Kind != schema.TypeKindEnum {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.EnumValue{}
	for _, ev := range t.EnumValues {
		if !includeDeprecated && ev.IsDeprecated {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func resolveTypeInputFields(t *schema.Type, args map[string]any) []*schema.InputValue {
	if t.Kind != schema.TypeKindInputObject {
		return nil
	}
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.InputValue{}
	for _, iv := range t.InputFields {
		if !includeDeprecated && iv.IsDeprecated {
			continue
		}
		out = append(out, iv)
	}
	return out
}

func resolveFieldArgs(f *schema.Field, args map[string]any) []*schema.InputValue {
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.InputValue{}
	for _, a := range f.Arguments {
		if !includeDeprecated && a.IsDeprecated {
			continue
		}
		out = append(out, a)
	}
	return out
}

func resolveFieldDeprecationReason(f *schema.Field) *string {
	if f.IsDeprecated {
		return &f.DeprecationReason
	}
	return nil
}

func resolveInputValueDefaultValue(a *schema.InputValue) *string {
	if a.DefaultValue != nil {
		value := fmt.Sprintf("%v", a.DefaultValue)
		return &value
	}
	return nil
}

func resolveInputValueDeprecationReason(a *schema.InputValue) *string {
	if a.IsDeprecated {
		return &a.DeprecationReason
	}
	return nil
}

func resolveEnumValueDeprecationReason(ev *schema.EnumValue) *string {
	if ev.IsDeprecated {
		return &ev.DeprecationReason
	}
	return nil
}

func resolveDirectiveLocations(d *schema.Directive) []string {
	locs := append([]string(nil), d.Locations...)
	sort.Strings(locs)
	return locs
}

func resolveDirectiveArgs(d *schema.Directive, args map[string]any) []*schema.InputValue {
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*schema.InputValue{}
	for _, a := range d.Arguments {
		if !includeDeprecated && a.IsDeprecated {
			continue
		}
		out = append(out, a)
	}
	return out
}

func boolArg(args map[string]any, name string, def bool) bool {
	if args == nil {
		return def
	}
	if v, ok := args[name]; ok {
		if b, ok2 := v.(bool); ok2 {
			return b
		}
	}
	return def
}
