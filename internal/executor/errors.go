package executor

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/hanpama/gqlengine/internal/language"
)

// Location is a line/column position in the query source.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func locationOf(pos *language.Position) Location {
	if pos == nil {
		return Location{}
	}
	return Location{Line: pos.Line, Column: pos.Column}
}

// FieldError is an error raised while resolving a single field. It nulls
// only the field that raised it; the engine records it with the field's
// path and position and keeps resolving siblings.
type FieldError struct {
	Message    string
	Extensions any
}

// NewFieldError builds a field error with an optional structured
// extensions value. Pass nil extensions to omit the field entirely from
// serialized output.
func NewFieldError(message string, extensions any) *FieldError {
	return &FieldError{Message: message, Extensions: extensions}
}

func (e *FieldError) Error() string { return e.Message }

// IntoFieldError converts any resolver error into a *FieldError,
// preserving extensions when err already is one.
func IntoFieldError(err error) *FieldError {
	if err == nil {
		return nil
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe
	}
	return &FieldError{Message: err.Error()}
}

// GraphQLError is a structural failure that prevents execution from
// starting at all. It is returned, never collected: there is no partial
// result when one occurs.
type GraphQLError struct {
	Message string
}

func (e *GraphQLError) Error() string { return e.Message }

var (
	ErrUnknownOperation   = &GraphQLError{Message: "unknown operation name"}
	ErrMultipleOperations = &GraphQLError{Message: "must provide operation name if query contains multiple operations"}
	ErrNoOperation        = &GraphQLError{Message: "must provide an operation"}
	ErrIsSubscription     = &GraphQLError{Message: "expected a query or mutation operation, got a subscription"}
	ErrNotSubscription    = &GraphQLError{Message: "expected a subscription operation"}
	ErrNoMutationType     = &GraphQLError{Message: "no mutation type found"}
	ErrNoSubscriptionType = &GraphQLError{Message: "no subscription type found"}
)

// ExecutionError is one entry of the error list returned alongside a
// (possibly partially-null) result tree.
type ExecutionError struct {
	Location   Location `json:"location"`
	Path       []string `json:"path,omitempty"`
	Message    string   `json:"message"`
	Extensions any      `json:"extensions,omitempty"`
}

func (e ExecutionError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return strings.Join(e.Path, ".") + ": " + e.Message
}

// errorSink is the one mutable resource shared across a resolution
// descent. Pushes may interleave; the final order is always the sorted
// order produced by drain.
type errorSink struct {
	mu     sync.Mutex
	errors []ExecutionError
}

func newErrorSink() *errorSink { return &errorSink{} }

func (s *errorSink) push(err ExecutionError) {
	s.mu.Lock()
	s.errors = append(s.errors, err)
	s.mu.Unlock()
}

// drain empties the sink and returns the errors sorted by location, path
// and message. The result is never nil.
func (s *errorSink) drain() []ExecutionError {
	s.mu.Lock()
	out := s.errors
	s.errors = nil
	s.mu.Unlock()
	if out == nil {
		out = []ExecutionError{}
	}
	sortExecutionErrors(out)
	return out
}

// hasErrorUnder reports whether any recorded error lies at or below the
// given path prefix. Used to tell an already-reported failure apart from
// a fresh null-for-non-null violation.
func (s *errorSink) hasErrorUnder(prefix []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.errors {
		if pathHasPrefix(s.errors[i].Path, prefix) {
			return true
		}
	}
	return false
}

func pathHasPrefix(path, prefix []string) bool {
	if len(path) < len(prefix) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}

func sortExecutionErrors(errs []ExecutionError) {
	sort.SliceStable(errs, func(i, j int) bool {
		a, b := errs[i], errs[j]
		if a.Location.Line != b.Location.Line {
			return a.Location.Line < b.Location.Line
		}
		if a.Location.Column != b.Location.Column {
			return a.Location.Column < b.Location.Column
		}
		if c := comparePaths(a.Path, b.Path); c != 0 {
			return c < 0
		}
		return a.Message < b.Message
	})
}

func comparePaths(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}
