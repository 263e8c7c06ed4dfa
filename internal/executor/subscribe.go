package executor

import (
	"context"

	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// Event is one value produced by a subscription field: the completed
// data for the field plus the field errors collected while assembling
// it. Errors are per-event; each event starts from an empty sink.
type Event struct {
	Data   any
	Errors []ExecutionError
}

// EventStream delivers a subscription field's events. It closes when
// the source channel closes or the context is done.
type EventStream <-chan Event

// Subscribe runs the subscription operation selected from doc and
// returns one event stream per root field, keyed by response key. The
// error return is structural, as for Execute. A field whose stream
// setup fails (bad arguments, SubscribeField error) yields a stream
// that delivers a single error event and closes.
//
// The fragments, variables and schema referenced by the streams stay
// alive for as long as any returned stream is being received from.
func Subscribe(
	ctx context.Context,
	s *schema.Schema,
	root *Root,
	doc *language.QueryDocument,
	operationName string,
	variables map[string]any,
	ctxValue any,
) (map[string]EventStream, error) {
	op, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, err
	}
	if op.Operation != language.Subscription {
		return nil, ErrNotSubscription
	}
	if s.SubscriptionType == "" || root == nil || root.Subscription == nil {
		return nil, ErrNoSubscriptionType
	}
	rootObj := s.TypeByName(s.SubscriptionType)
	if rootObj == nil {
		return nil, ErrNoSubscriptionType
	}

	coerced, err := coerceVariableValues(s, op, variables)
	if err != nil {
		return nil, &GraphQLError{Message: err.Error()}
	}

	ex := &Executor{
		schema:      s,
		fragments:   fragmentMap(doc),
		variables:   coerced,
		currentSel:  op.SelectionSet,
		currentType: schema.NamedType(s.SubscriptionType),
		ctxValue:    ctxValue,
		errors:      newErrorSink(),
		path:        &fieldPath{location: locationOf(op.Position)},
	}

	streams := make(map[string]EventStream)
	for _, cf := range ex.collectFields(rootObj, op.SelectionSet) {
		first := cf.Fields[0]
		if first.Name == "__typename" {
			continue
		}
		sub := ex.FieldSubExecutor(cf.ResponseName, first.Name, first.Position, mergeSelectionSets(cf.Fields))
		fieldDef := ex.mustFieldDefinition(first.Name)

		args, ferr := coerceArgumentValues(s, fieldDef, first.Arguments, ex.variables)
		if ferr != nil {
			streams[cf.ResponseName] = singleErrorStream(sub, ferr, first.Position)
			continue
		}
		src, err := root.Subscription.SubscribeField(ctx, sub, first.Name, args)
		if err != nil {
			streams[cf.ResponseName] = singleErrorStream(sub, err, first.Position)
			continue
		}
		streams[cf.ResponseName] = pumpEvents(ctx, sub, src)
	}
	return streams, nil
}

// pumpEvents completes each source value against the field's
// selection set. Every event gets its own error sink so that one
// event's field errors never leak into the next.
func pumpEvents(ctx context.Context, sub *Executor, src <-chan any) EventStream {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-src:
				if !ok {
					return
				}
				evEx := *sub
				sink := newErrorSink()
				evEx.errors = sink
				data := evEx.ResolveIntoValue(ctx, raw)
				select {
				case out <- Event{Data: data, Errors: sink.drain()}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func singleErrorStream(sub *Executor, err error, pos *language.Position) EventStream {
	evEx := *sub
	sink := newErrorSink()
	evEx.errors = sink
	evEx.PushErrorAt(err, pos)
	out := make(chan Event, 1)
	out <- Event{Errors: sink.drain()}
	close(out)
	return out
}
