package executor

import "context"

// Resolver is the capability an object value implements to answer field
// requests. The engine calls ResolveField once per selected field, in
// document order, passing the field's sub-executor so the resolver can
// inspect the upcoming selection via ex.LookAhead(), read variables, or
// hand resolution back to the engine with ex.Resolve.
//
// The returned value is completed by the engine against the field's
// declared type: scalars and enums are serialized, lists are walked
// element-wise, and composite values must themselves be a Resolver or a
// map[string]any keyed by field name. Returning a Thunk defers the work
// until the engine forces the value.
//
// A returned error nulls exactly this field. It is recorded with the
// field's path and source position; siblings keep resolving.
type Resolver interface {
	ResolveField(ctx context.Context, ex *Executor, field string, args map[string]any) (any, error)
}

// ConcreteTyper reports which object type a value resolved for an
// interface or union field is at runtime. Values completed against an
// abstract type must implement it (or be a map carrying a __typename
// key).
type ConcreteTyper interface {
	ConcreteTypeName(ctx context.Context) string
}

// StreamResolver is the subscription counterpart of Resolver: a root
// field resolves to a source channel of raw events instead of a value.
// The engine completes each received event against the field's declared
// type and forwards it with the errors that event produced. Closing the
// returned channel ends the stream.
type StreamResolver interface {
	SubscribeField(ctx context.Context, ex *Executor, field string, args map[string]any) (<-chan any, error)
}

// Thunk defers a field value. The engine forces it at completion time,
// before looking at the declared type's shape.
type Thunk func() (any, error)

// Root bundles the entry-point resolvers for a schema's three operation
// kinds. Mutation and Subscription may be nil when the schema has no
// such root type.
type Root struct {
	Query        Resolver
	Mutation     Resolver
	Subscription StreamResolver
}
