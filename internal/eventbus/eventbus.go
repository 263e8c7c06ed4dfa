// Package eventbus carries engine lifecycle events to whatever
// observers are attached (logging, tracing). Publishing with no bus
// installed is a no-op, so instrumented code paths never need to
// check whether anyone is listening.
package eventbus

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
)

// Handler receives events of type T. The context is the one the
// publishing code path ran under.
type Handler[T any] func(context.Context, T)

// Bus routes published events to the handlers registered for their
// type. Handlers run synchronously on the publisher's goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]any // Handler[T] stored type-erased
}

// New returns an empty Bus.
func New() *Bus { return &Bus{handlers: make(map[reflect.Type][]any)} }

func (b *Bus) subscribe(t reflect.Type, h any) (unsubscribe func()) {
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], h)
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		hs := b.handlers[t]
		for i, fn := range hs {
			if reflect.ValueOf(fn).Pointer() == reflect.ValueOf(h).Pointer() {
				hs = append(hs[:i], hs[i+1:]...)
				break
			}
		}
		if len(hs) == 0 {
			delete(b.handlers, t)
		} else {
			b.handlers[t] = hs
		}
	}
}

func (b *Bus) emit(ctx context.Context, e any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := b.handlers[reflect.TypeOf(e)]
	if len(hs) == 0 {
		b.mu.RUnlock()
		return
	}
	// Snapshot under the read lock so a handler may unsubscribe
	// while the dispatch loop runs.
	snapshot := append([]any(nil), hs...)
	b.mu.RUnlock()
	for _, fn := range snapshot {
		fn.(func(context.Context, any))(ctx, e)
	}
}

var active atomic.Pointer[Bus]

// Use installs b as the process-wide bus. Passing nil turns event
// publishing off.
func Use(b *Bus) { active.Store(b) }

// Subscribe registers h with the installed bus and returns a function
// that removes it again. With no bus installed the registration is
// dropped and the returned function does nothing.
func Subscribe[T any](h Handler[T]) (unsubscribe func()) {
	b := active.Load()
	if b == nil {
		return func() {}
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	return b.subscribe(t, func(ctx context.Context, v any) { h(ctx, v.(T)) })
}

// Publish sends e through the installed bus, if any.
func Publish[T any](ctx context.Context, e T) {
	if b := active.Load(); b != nil {
		b.emit(ctx, e)
	}
}
