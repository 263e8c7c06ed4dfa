package executor

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// Executor is one node's immutable view of an execution: schema,
// fragments, variables, the active and parent selection sets, the
// current type, the caller's context value, the shared error sink and
// the field path. Descending into a field derives a modified copy; a
// parent snapshot is never mutated by its children and stays valid
// while they resolve.
type Executor struct {
	schema      *schema.Schema
	fragments   map[string]*language.FragmentDefinition
	variables   map[string]any
	currentSel  language.SelectionSet
	parentSel   language.SelectionSet
	currentType *schema.TypeRef
	ctxValue    any
	errors      *errorSink
	path        *fieldPath
}

// Schema returns the schema the execution runs against.
func (ex *Executor) Schema() *schema.Schema { return ex.schema }

// Variables returns the operation's effective variables, defaults
// already merged. The map is shared across the execution and must not
// be mutated.
func (ex *Executor) Variables() map[string]any { return ex.variables }

// ContextValue returns the caller-supplied context value for this
// subtree. ResolveWithCtx swaps it for descendants.
func (ex *Executor) ContextValue() any { return ex.ctxValue }

// FieldSubExecutor derives the executor for resolving the named field:
// the child's current type becomes the field's declared type, its parent
// selection set becomes the current one, and its path grows by one
// segment keyed by the response name. The field must be defined on the
// current type's underlying named type; a miss means the query was
// never validated against the schema and resolution cannot continue.
func (ex *Executor) FieldSubExecutor(alias, name string, pos *language.Position, selectionSet language.SelectionSet) *Executor {
	def := ex.mustFieldDefinition(name)
	key := alias
	if key == "" {
		key = name
	}
	child := *ex
	child.currentType = def.Type
	child.currentSel = selectionSet
	child.parentSel = ex.currentSel
	child.path = &fieldPath{parent: ex.path, key: key, location: locationOf(pos)}
	return &child
}

// TypeSubExecutor derives an executor at the same path for resolving
// the same value as a different named type, used when an interface or
// union value downcasts into one of its implementers. An empty name
// keeps the current type.
func (ex *Executor) TypeSubExecutor(typeName string, selectionSet language.SelectionSet) *Executor {
	child := *ex
	child.currentSel = selectionSet
	if typeName != "" {
		child.currentType = schema.NamedType(typeName)
	}
	return &child
}

// Resolve completes value against the executor's current type and
// selection set, producing a result tree or a field error.
func (ex *Executor) Resolve(ctx context.Context, value any) (any, *FieldError) {
	return ex.completeValue(ctx, ex.currentType, value)
}

// ResolveWithCtx swaps the context value for the subtree rooted here,
// then resolves. The receiver keeps its own context value.
func (ex *Executor) ResolveWithCtx(ctx context.Context, ctxValue any, value any) (any, *FieldError) {
	child := *ex
	child.ctxValue = ctxValue
	return child.Resolve(ctx, value)
}

// ResolveIntoValue resolves value and converts a failure into a null
// result, recording the error at the current field's path and position.
// This is the policy boundary that makes a field error null that field
// without aborting the operation.
func (ex *Executor) ResolveIntoValue(ctx context.Context, value any) any {
	completed, ferr := ex.Resolve(ctx, value)
	if ferr != nil {
		ex.PushError(ferr)
		return nil
	}
	return completed
}

// PushError records err on the shared error list at the current field's
// path and source position.
func (ex *Executor) PushError(err error) {
	ex.pushFieldError(IntoFieldError(err), ex.path.location)
}

// PushErrorAt records err at the current field's path with an explicit
// source position.
func (ex *Executor) PushErrorAt(err error, pos *language.Position) {
	ex.pushFieldError(IntoFieldError(err), locationOf(pos))
}

func (ex *Executor) pushFieldError(fe *FieldError, loc Location) {
	ex.errors.push(ExecutionError{
		Location:   loc,
		Path:       ex.path.segments(),
		Message:    fe.Message,
		Extensions: fe.Extensions,
	})
}

func (ex *Executor) mustFieldDefinition(name string) *schema.Field {
	typeName := schema.GetNamedType(ex.currentType)
	typ := ex.schema.TypeByName(typeName)
	var def *schema.Field
	if typ != nil {
		def = typ.FieldByName(name)
	}
	if def == nil {
		panic(fmt.Sprintf("executor: field %s is not defined on type %s", name, typeName))
	}
	return def
}

// WithContextValue wraps value so that it and its whole subtree
// complete under the given context value. The swap scopes to the
// wrapped value only; sibling fields keep the enclosing context value.
func WithContextValue(ctxValue, value any) any {
	return contextualValue{ctxValue: ctxValue, value: value}
}

type contextualValue struct {
	ctxValue any
	value    any
}

// completeValue assembles the output for one value against its declared
// type. Errors travel upward to the owning field boundary; nulls under
// non-null wrappers turn into an error there unless a deeper error was
// already recorded for this path.
func (ex *Executor) completeValue(ctx context.Context, t *schema.TypeRef, value any) (any, *FieldError) {
	for {
		if cv, ok := value.(contextualValue); ok {
			child := *ex
			child.ctxValue = cv.ctxValue
			return child.completeValue(ctx, t, cv.value)
		}
		thunk, ok := value.(Thunk)
		if !ok || thunk == nil {
			break
		}
		forced, err := thunk()
		if err != nil {
			return nil, IntoFieldError(err)
		}
		value = forced
	}

	if t.Kind == schema.TypeRefKindNonNull {
		completed, ferr := ex.completeValue(ctx, t.OfType, value)
		if ferr != nil {
			return nil, ferr
		}
		if completed == nil {
			if ex.errors.hasErrorUnder(ex.path.segments()) {
				return nil, nil
			}
			return nil, &FieldError{Message: "Cannot return null for non-nullable field " + ex.path.String()}
		}
		return completed, nil
	}

	if isNullish(value) {
		return nil, nil
	}

	if t.Kind == schema.TypeRefKindList {
		return ex.completeList(ctx, t.OfType, value)
	}

	typ := ex.schema.TypeByName(t.Named)
	if typ == nil {
		panic(fmt.Sprintf("executor: unknown type %s", t.Named))
	}
	switch {
	case typ.IsLeaf():
		return serializeLeaf(typ, value)
	case typ.Kind == schema.TypeKindObject:
		return ex.completeObject(ctx, typ, value)
	case typ.IsAbstract():
		return ex.completeAbstract(ctx, typ, value)
	}
	panic(fmt.Sprintf("executor: cannot complete a value of kind %s", typ.Kind))
}

// completeList completes each element against the inner type. Item
// errors carry the list field's path: a failing nullable item nulls
// itself, a failing non-null item fails the whole list.
func (ex *Executor) completeList(ctx context.Context, inner *schema.TypeRef, value any) (any, *FieldError) {
	items, ok := normalizeList(value)
	if !ok {
		return nil, &FieldError{Message: fmt.Sprintf("expected a list to resolve field %s, got %T", ex.path, value)}
	}
	out := make([]any, len(items))
	for i, item := range items {
		completed, ferr := ex.completeValue(ctx, inner, item)
		if ferr != nil {
			if inner.Kind == schema.TypeRefKindNonNull {
				return nil, ferr
			}
			ex.PushError(ferr)
			completed = nil
		}
		if completed == nil && inner.Kind == schema.TypeRefKindNonNull {
			return nil, nil
		}
		out[i] = completed
	}
	return out, nil
}

// completeObject resolves the collected fields of the current selection
// set against value, which must be a Resolver or a map keyed by field
// name. A failing non-null field nulls the whole object; its error is
// already recorded by then.
func (ex *Executor) completeObject(ctx context.Context, objType *schema.Type, value any) (any, *FieldError) {
	grouped := ex.collectFields(objType, ex.currentSel)
	result := make(map[string]any, len(grouped))
	for _, group := range grouped {
		first := group.Fields[0]
		if first.Name == "__typename" {
			result[group.ResponseName] = objType.Name
			continue
		}

		fieldDef := ex.mustFieldDefinition(first.Name)
		sub := ex.FieldSubExecutor(first.Alias, first.Name, first.Position, mergeSelectionSets(group.Fields))

		var completed any
		args, ferr := coerceArgumentValues(ex.schema, fieldDef, first.Arguments, ex.variables)
		if ferr == nil {
			raw, err := resolveFieldValue(ctx, value, sub, first.Name, args)
			if err != nil {
				ferr = IntoFieldError(err)
			} else {
				completed, ferr = sub.Resolve(ctx, raw)
			}
		}
		if ferr != nil {
			sub.PushError(ferr)
			completed = nil
		}
		if completed == nil && fieldDef.Type.Kind == schema.TypeRefKindNonNull {
			return nil, nil
		}
		result[group.ResponseName] = completed
	}
	return result, nil
}

// completeAbstract downcasts an interface or union value to its runtime
// object type, then completes it as that type at the same path.
func (ex *Executor) completeAbstract(ctx context.Context, abstract *schema.Type, value any) (any, *FieldError) {
	name, ok := concreteTypeName(ctx, value)
	if !ok {
		panic(fmt.Sprintf("executor: value for abstract type %s must implement executor.ConcreteTyper or carry a __typename key, got %T", abstract.Name, value))
	}
	objType := ex.schema.ConcreteTypeByName(name)
	if objType == nil {
		return nil, &FieldError{Message: fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstract.Name, name)}
	}
	sub := ex.TypeSubExecutor(objType.Name, ex.currentSel)
	return sub.completeObject(ctx, objType, value)
}

func concreteTypeName(ctx context.Context, value any) (string, bool) {
	switch v := value.(type) {
	case ConcreteTyper:
		return v.ConcreteTypeName(ctx), true
	case map[string]any:
		if name, ok := v["__typename"].(string); ok {
			return name, true
		}
	}
	return "", false
}

func resolveFieldValue(ctx context.Context, source any, sub *Executor, field string, args map[string]any) (any, error) {
	switch src := source.(type) {
	case Resolver:
		return src.ResolveField(ctx, sub, field, args)
	case map[string]any:
		return src[field], nil
	}
	panic(fmt.Sprintf("executor: value at %s must be an executor.Resolver or map[string]any, got %T", sub.path, source))
}

// serializeLeaf turns a resolved scalar or enum value into its output
// form. Custom scalar values pass through untouched, except []byte
// which is emitted base64-encoded.
func serializeLeaf(typ *schema.Type, value any) (any, *FieldError) {
	if typ.Kind == schema.TypeKindEnum {
		switch v := value.(type) {
		case schema.EnumLiteral:
			return string(v), nil
		case string:
			return v, nil
		}
		return nil, &FieldError{Message: fmt.Sprintf("cannot serialize %T as enum %s", value, typ.Name)}
	}
	switch typ.Name {
	case "Int":
		switch v := value.(type) {
		case int:
			return v, nil
		case int32:
			return int(v), nil
		case int64:
			return int(v), nil
		case float64:
			if v == math.Trunc(v) {
				return int(v), nil
			}
		}
	case "Float":
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int:
			return float64(v), nil
		case int32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
	case "String":
		switch v := value.(type) {
		case string:
			return v, nil
		case fmt.Stringer:
			return v.String(), nil
		}
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		}
	default:
		if b, ok := value.([]byte); ok {
			return base64.StdEncoding.EncodeToString(b), nil
		}
		return value, nil
	}
	return nil, &FieldError{Message: fmt.Sprintf("cannot serialize %T as %s", value, typ.Name)}
}

func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	if len(fields) == 1 {
		return fields[0].SelectionSet
	}
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

func normalizeList(value any) ([]any, bool) {
	if items, ok := value.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isNullish(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
