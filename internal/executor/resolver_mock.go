package executor

import (
	"context"
	"fmt"
	"sync"
)

// MockFieldFunc resolves a single field in tests.
type MockFieldFunc func(ctx context.Context, ex *Executor, args map[string]any) (any, error)

// MockValue returns a MockFieldFunc that always returns the provided value.
func MockValue(val any) MockFieldFunc {
	return func(ctx context.Context, ex *Executor, args map[string]any) (any, error) {
		return val, nil
	}
}

// MockError returns a MockFieldFunc that always returns the provided error.
func MockError(err error) MockFieldFunc {
	return func(ctx context.Context, ex *Executor, args map[string]any) (any, error) {
		return nil, err
	}
}

// MockStreamFunc supplies a subscription field's source channel in tests.
type MockStreamFunc func(ctx context.Context, ex *Executor, args map[string]any) (<-chan any, error)

// Call records a single field invocation observed through a registry.
type Call struct {
	ObjectType string
	Field      string
	Args       map[string]any
}

// MockRegistry holds field resolvers and stream sources keyed by
// "ObjectType.Field", plus an ordered log of every call made through
// its objects.
type MockRegistry struct {
	mu        sync.Mutex
	resolvers map[string]MockFieldFunc
	streams   map[string]MockStreamFunc
	calls     []Call
}

// NewMockRegistry creates a registry with the provided resolvers. Keys
// are of the form "ObjectType.Field".
func NewMockRegistry(resolvers map[string]MockFieldFunc) *MockRegistry {
	reg := &MockRegistry{
		resolvers: make(map[string]MockFieldFunc, len(resolvers)),
		streams:   make(map[string]MockStreamFunc),
	}
	for k, v := range resolvers {
		reg.resolvers[k] = v
	}
	return reg
}

// SetResolver registers or replaces the resolver for one field.
func (reg *MockRegistry) SetResolver(objectType, field string, fn MockFieldFunc) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.resolvers[objectType+"."+field] = fn
}

// SetStream registers the source channel factory for one subscription
// field.
func (reg *MockRegistry) SetStream(objectType, field string, fn MockStreamFunc) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.streams[objectType+"."+field] = fn
}

// Object returns a source value answering as the named object type. It
// implements Resolver, ConcreteTyper and StreamResolver, so it can
// serve as a field source, an abstract downcast target or a
// subscription root.
func (reg *MockRegistry) Object(typeName string) *MockObject {
	return &MockObject{reg: reg, typeName: typeName}
}

// GetCalls returns a copy of the recorded calls in order.
func (reg *MockRegistry) GetCalls() []Call {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make([]Call, len(reg.calls))
	copy(out, reg.calls)
	return out
}

// Reset clears recorded calls. Resolvers remain.
func (reg *MockRegistry) Reset() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.calls = nil
}

func (reg *MockRegistry) resolve(ctx context.Context, ex *Executor, typeName, field string, args map[string]any) (any, error) {
	reg.mu.Lock()
	fn := reg.resolvers[typeName+"."+field]
	reg.calls = append(reg.calls, Call{ObjectType: typeName, Field: field, Args: args})
	reg.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, ex, args)
}

func (reg *MockRegistry) subscribe(ctx context.Context, ex *Executor, typeName, field string, args map[string]any) (<-chan any, error) {
	reg.mu.Lock()
	fn := reg.streams[typeName+"."+field]
	reg.calls = append(reg.calls, Call{ObjectType: typeName, Field: field, Args: args})
	reg.mu.Unlock()
	if fn == nil {
		return nil, fmt.Errorf("no stream registered for %s.%s", typeName, field)
	}
	return fn(ctx, ex, args)
}

// MockObject is a registry-backed source value for one object type.
type MockObject struct {
	reg      *MockRegistry
	typeName string
}

var (
	_ Resolver       = (*MockObject)(nil)
	_ ConcreteTyper  = (*MockObject)(nil)
	_ StreamResolver = (*MockObject)(nil)
)

func (o *MockObject) ResolveField(ctx context.Context, ex *Executor, field string, args map[string]any) (any, error) {
	return o.reg.resolve(ctx, ex, o.typeName, field, args)
}

func (o *MockObject) SubscribeField(ctx context.Context, ex *Executor, field string, args map[string]any) (<-chan any, error) {
	return o.reg.subscribe(ctx, ex, o.typeName, field, args)
}

func (o *MockObject) ConcreteTypeName(ctx context.Context) string { return o.typeName }
