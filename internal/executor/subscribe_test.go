package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hanpama/gqlengine/internal/schema"
)

func subscriptionTestSchema() *schema.Schema {
	message := newObjectType("Message",
		schema.NewField("text", "", schema.NonNullType(schema.NamedType("String"))),
		schema.NewField("sender", "", schema.NamedType("String")),
	)
	counter := schema.NewField("counter", "", schema.NamedType("Int"))
	counter.AddArgument(schema.NewInputValue("limit", "", schema.NonNullType(schema.NamedType("Int"))))
	subscription := newObjectType("Subscription",
		schema.NewField("messageAdded", "", schema.NamedType("Message")),
		schema.NewField("ticks", "", schema.NamedType("Int")),
		counter,
	)
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("ok", "", schema.NamedType("Boolean"))),
		subscription, message,
		newScalarType("String"), newScalarType("Int"), newScalarType("Boolean"),
	)
	sch.SetSubscriptionType("Subscription")
	return sch
}

func errStrings(errs []ExecutionError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

// Pattern: Result comparison
//
// Each source value is completed against the field's selection set and
// delivered as one event. An event that violates a non-null constraint
// carries the field error; the next event starts clean.
func TestSubscribeCompletesEachEvent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sch := subscriptionTestSchema()
	reg := NewMockRegistry(nil)
	reg.SetStream("Subscription", "messageAdded", func(ctx context.Context, ex *Executor, args map[string]any) (<-chan any, error) {
		src := make(chan any, 3)
		src <- map[string]any{"text": "hi", "sender": "ana"}
		src <- map[string]any{"text": nil, "sender": "bob"}
		src <- map[string]any{"text": "bye"}
		close(src)
		return src, nil
	})
	doc := mustParseQuery(t, `subscription { messageAdded { text sender } }`)

	streams, err := Subscribe(context.Background(), sch, &Root{Subscription: reg.Object("Subscription")}, doc, "", nil, nil)
	require.NoError(t, err)
	require.Len(t, streams, 1)

	var events []Event
	for ev := range streams["messageAdded"] {
		events = append(events, ev)
	}
	require.Len(t, events, 3)

	wantData := []any{
		map[string]any{"text": "hi", "sender": "ana"},
		nil,
		map[string]any{"text": "bye", "sender": nil},
	}
	gotData := []any{events[0].Data, events[1].Data, events[2].Data}
	if diff := cmp.Diff(wantData, gotData); diff != "" {
		t.Fatalf("event data mismatch (-want +got):\n%s", diff)
	}

	require.Empty(t, events[0].Errors)
	require.Equal(t,
		[]string{"messageAdded.text: Cannot return null for non-nullable field messageAdded.text"},
		errStrings(events[1].Errors))
	require.Empty(t, events[2].Errors)
}

func TestSubscribeMultipleRootFields(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sch := subscriptionTestSchema()
	reg := NewMockRegistry(nil)
	n := 0
	reg.SetStream("Subscription", "ticks", func(ctx context.Context, ex *Executor, args map[string]any) (<-chan any, error) {
		n++
		src := make(chan any, 1)
		src <- n
		close(src)
		return src, nil
	})
	doc := mustParseQuery(t, `subscription { a: ticks b: ticks }`)

	streams, err := Subscribe(context.Background(), sch, &Root{Subscription: reg.Object("Subscription")}, doc, "", nil, nil)
	require.NoError(t, err)
	require.Len(t, streams, 2)

	evA, ok := <-streams["a"]
	require.True(t, ok)
	evB, ok := <-streams["b"]
	require.True(t, ok)
	require.Equal(t, 1, evA.Data)
	require.Equal(t, 2, evB.Data)

	_, ok = <-streams["a"]
	require.False(t, ok)
	_, ok = <-streams["b"]
	require.False(t, ok)

	wantCalls := []Call{
		{ObjectType: "Subscription", Field: "ticks", Args: map[string]any{}},
		{ObjectType: "Subscription", Field: "ticks", Args: map[string]any{}},
	}
	if diff := cmp.Diff(wantCalls, reg.GetCalls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribeSetupErrors(t *testing.T) {
	sch := subscriptionTestSchema()

	t.Run("missing required argument", func(t *testing.T) {
		reg := NewMockRegistry(nil)
		doc := mustParseQuery(t, `subscription { counter }`)

		streams, err := Subscribe(context.Background(), sch, &Root{Subscription: reg.Object("Subscription")}, doc, "", nil, nil)
		require.NoError(t, err)

		ev, ok := <-streams["counter"]
		require.True(t, ok)
		require.Nil(t, ev.Data)
		require.Equal(t,
			[]string{"counter: argument 'limit' of required type was not provided"},
			errStrings(ev.Errors))
		_, ok = <-streams["counter"]
		require.False(t, ok)

		require.Empty(t, reg.GetCalls())
	})

	t.Run("stream setup failure", func(t *testing.T) {
		reg := NewMockRegistry(nil)
		reg.SetStream("Subscription", "ticks", func(ctx context.Context, ex *Executor, args map[string]any) (<-chan any, error) {
			return nil, errors.New("broker down")
		})
		doc := mustParseQuery(t, `subscription { ticks }`)

		streams, err := Subscribe(context.Background(), sch, &Root{Subscription: reg.Object("Subscription")}, doc, "", nil, nil)
		require.NoError(t, err)

		ev, ok := <-streams["ticks"]
		require.True(t, ok)
		require.Equal(t, []string{"ticks: broker down"}, errStrings(ev.Errors))
		_, ok = <-streams["ticks"]
		require.False(t, ok)
	})
}

func TestSubscribeStructuralErrors(t *testing.T) {
	sch := subscriptionTestSchema()
	reg := NewMockRegistry(nil)
	root := &Root{Subscription: reg.Object("Subscription")}

	t.Run("not a subscription operation", func(t *testing.T) {
		doc := mustParseQuery(t, `{ ok }`)
		_, err := Subscribe(context.Background(), sch, root, doc, "", nil, nil)
		require.ErrorIs(t, err, ErrNotSubscription)
	})

	t.Run("no subscription root value", func(t *testing.T) {
		doc := mustParseQuery(t, `subscription { ticks }`)
		_, err := Subscribe(context.Background(), sch, &Root{}, doc, "", nil, nil)
		require.ErrorIs(t, err, ErrNoSubscriptionType)
	})

	t.Run("schema without subscription type", func(t *testing.T) {
		bare := newSchemaWithQueryType(
			newObjectType("Query", schema.NewField("ok", "", schema.NamedType("Boolean"))),
			newScalarType("Boolean"),
		)
		doc := mustParseQuery(t, `subscription { ticks }`)
		_, err := Subscribe(context.Background(), bare, root, doc, "", nil, nil)
		require.ErrorIs(t, err, ErrNoSubscriptionType)
	})

	t.Run("variable coercion failure", func(t *testing.T) {
		doc := mustParseQuery(t, `subscription ($n: Int!) { ticks }`)
		_, err := Subscribe(context.Background(), sch, root, doc, "", nil, nil)
		require.EqualError(t, err, "variable $n of required type Int! was not provided")
	})
}

func TestSubscribeContextCancelClosesStream(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sch := subscriptionTestSchema()
	reg := NewMockRegistry(nil)
	src := make(chan any)
	reg.SetStream("Subscription", "ticks", func(ctx context.Context, ex *Executor, args map[string]any) (<-chan any, error) {
		return src, nil
	})
	doc := mustParseQuery(t, `subscription { ticks }`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	streams, err := Subscribe(ctx, sch, &Root{Subscription: reg.Object("Subscription")}, doc, "", nil, nil)
	require.NoError(t, err)
	stream := streams["ticks"]

	src <- 7
	ev, ok := <-stream
	require.True(t, ok)
	require.Equal(t, 7, ev.Data)
	require.Empty(t, ev.Errors)

	cancel()
	for range stream {
	}
}
