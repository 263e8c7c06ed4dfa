package executor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSortExecutionErrors(t *testing.T) {
	errs := []ExecutionError{
		{Location: Location{Line: 2, Column: 1}, Path: []string{"b"}, Message: "m"},
		{Location: Location{Line: 1, Column: 9}, Path: []string{"a", "b"}, Message: "m"},
		{Location: Location{Line: 1, Column: 9}, Path: []string{"a"}, Message: "z"},
		{Location: Location{Line: 1, Column: 9}, Path: []string{"a"}, Message: "a"},
		{Location: Location{Line: 1, Column: 2}, Path: []string{"z"}, Message: "m"},
	}
	sortExecutionErrors(errs)

	want := []ExecutionError{
		{Location: Location{Line: 1, Column: 2}, Path: []string{"z"}, Message: "m"},
		{Location: Location{Line: 1, Column: 9}, Path: []string{"a"}, Message: "a"},
		{Location: Location{Line: 1, Column: 9}, Path: []string{"a"}, Message: "z"},
		{Location: Location{Line: 1, Column: 9}, Path: []string{"a", "b"}, Message: "m"},
		{Location: Location{Line: 2, Column: 1}, Path: []string{"b"}, Message: "m"},
	}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("sort mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorSinkDrain(t *testing.T) {
	sink := newErrorSink()
	require.NotNil(t, sink.drain())
	require.Empty(t, sink.drain())

	sink.push(ExecutionError{Path: []string{"b"}, Message: "later"})
	sink.push(ExecutionError{Path: []string{"a"}, Message: "earlier"})

	drained := sink.drain()
	require.Len(t, drained, 2)
	require.Equal(t, "earlier", drained[0].Message)
	require.Equal(t, "later", drained[1].Message)

	require.Empty(t, sink.drain())
}

func TestErrorSinkHasErrorUnder(t *testing.T) {
	sink := newErrorSink()
	sink.push(ExecutionError{Path: []string{"a", "b", "c"}, Message: "deep"})

	require.True(t, sink.hasErrorUnder([]string{"a", "b", "c"}))
	require.True(t, sink.hasErrorUnder([]string{"a", "b"}))
	require.True(t, sink.hasErrorUnder([]string{"a"}))
	require.True(t, sink.hasErrorUnder(nil))
	require.False(t, sink.hasErrorUnder([]string{"a", "x"}))
	require.False(t, sink.hasErrorUnder([]string{"a", "b", "c", "d"}))
}

func TestFieldPath(t *testing.T) {
	root := &fieldPath{location: Location{Line: 1, Column: 1}}
	a := &fieldPath{parent: root, key: "a", location: Location{Line: 1, Column: 3}}
	b := &fieldPath{parent: a, key: "b", location: Location{Line: 1, Column: 7}}

	require.Equal(t, []string{"a", "b"}, b.segments())
	require.Equal(t, "a.b", b.String())
	require.Empty(t, root.segments())
	require.Equal(t, "", root.String())

	// extending a child never disturbs the parent chain
	c := &fieldPath{parent: b, key: "c"}
	require.Equal(t, []string{"a", "b", "c"}, c.segments())
	require.Equal(t, []string{"a", "b"}, b.segments())
}

func TestIntoFieldError(t *testing.T) {
	require.Nil(t, IntoFieldError(nil))

	plain := IntoFieldError(errors.New("plain"))
	require.Equal(t, "plain", plain.Message)
	require.Nil(t, plain.Extensions)

	typed := NewFieldError("typed", map[string]any{"code": 1})
	require.Same(t, typed, IntoFieldError(typed))

	wrapped := IntoFieldError(fmt.Errorf("outer: %w", typed))
	require.Same(t, typed, wrapped)
}

func TestExecutionErrorString(t *testing.T) {
	withPath := ExecutionError{Path: []string{"a", "b"}, Message: "boom"}
	require.Equal(t, "a.b: boom", withPath.Error())

	rootErr := ExecutionError{Message: "boom"}
	require.Equal(t, "boom", rootErr.Error())
}
