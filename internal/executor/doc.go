// Package executor implements a recursive-descent GraphQL executor with
// immutable per-node execution snapshots, a shared located-error sink,
// a lazy look-ahead API for resolvers, and streaming subscription
// support.
//
// # Overview
//
// Execution walks the selection tree top-down. Each node of the walk
// holds an Executor: an immutable view of the schema, the fragment map,
// the coerced variables, the current and parent selection sets, the
// current type, the caller's context value, the shared error sink and
// the field path. Descending never mutates a snapshot; it derives a
// modified copy, so a parent executor stays valid while its children
// resolve. The model is designed to:
//   - Resolve fields in document order, one selection set at a time.
//   - Null exactly the fields that fail, recording a located error for
//     each, while sibling and ancestor fields keep resolving.
//   - Apply the Non-Null propagation rules of the GraphQL specification
//     uniformly, including at the operation root.
//   - Give resolvers read access to the upcoming sub-selection without
//     materializing it eagerly.
//
// # Preparation
//
// Execute and Subscribe share the same setup:
//  1. Select the operation: by name when one is given, else the
//     document's sole operation. Ambiguity or a kind mismatch against
//     the entry point is a structural *GraphQLError and nothing
//     resolves.
//  2. Index the document's fragments by name. The map lives for one
//     execution only.
//  3. Coerce supplied variables against the operation's variable
//     definitions, filling defaults for absent ones. Supplied values
//     are never overwritten. A coercion failure is structural.
//  4. Build the root executor over the operation's root type and
//     selection set, with an empty-keyed root path link at the
//     operation's source position.
//
// # Execution Model
//
// The engine and resolver code interleave through two derivation
// primitives and three resolution entry points:
//
//   - FieldSubExecutor derives the executor for one selected field: the
//     field's declared type becomes the current type, the field's
//     merged selection set becomes the current selection set, the
//     previous selection set becomes the parent (look-ahead needs it),
//     and the path grows by the response key.
//   - TypeSubExecutor derives an executor at the same path with the
//     current type swapped, used when an abstract value downcasts to
//     its runtime object type.
//   - Resolve completes a value against the current type; ResolveWithCtx
//     does the same under a swapped context value; ResolveIntoValue
//     additionally converts a failure into null-plus-recorded-error,
//     the policy that keeps one field's failure from aborting the
//     operation.
//
// Object completion collects the selection set's fields (dissolving
// fragment spreads and inline fragments, honoring @skip/@include and
// type conditions), groups them by response key in first-appearance
// order, and resolves each group once. Sources are either an
// executor.Resolver, whose ResolveField is called per field with
// coerced arguments, or a plain map keyed by field name. Returned
// values complete recursively; a Thunk is forced first, so a resolver
// can defer expensive work until the engine actually needs the value.
//
// # Value Completion
//
//   - Non-Null: complete the inner type; a null result here becomes a
//     field error unless a deeper error was already recorded under the
//     field's path, in which case the null propagates silently toward
//     the nearest nullable ancestor.
//   - Null: nil sources complete to GraphQL null.
//   - List: complete each element against the inner type. A failing
//     nullable element nulls itself; a failing non-null element fails
//     the whole list. Error paths carry the list field's response key.
//   - Leaf: serialize to a JSON-safe Go value. Enum values accept
//     schema.EnumLiteral or string; custom scalar values pass through,
//     except []byte which is emitted base64-encoded.
//   - Abstract: resolve the concrete type name via ConcreteTyper or a
//     __typename map key, check it names an object type, then complete
//     as that type at the same path.
//
// # Errors and Partial Success
//
// Field errors carry a message, an optional extensions value, the
// source position and the response-key path from the root. They
// accumulate in one write-locked sink shared by every snapshot of an
// execution; push order is not a contract. The driver drains the sink
// exactly once and returns the errors sorted by position, path and
// message, so two executions of the same query against the same data
// report identically.
//
// Structural failures (unknown or ambiguous operation, wrong operation
// kind, missing mutation or subscription root, uncoercible variables)
// are returned as *GraphQLError before any field resolves. A selected
// field missing from the schema, or a source value of an unusable Go
// type, is a defect in the calling pipeline and panics.
//
// # Look-Ahead
//
// Executor.LookAhead locates the current field among the parent
// selections and returns a view of its sub-selection: response
// key/original name/alias, lazily resolved arguments, and one-level
// child flattening with type-condition tags (Applies). Children and
// ChildrenForExplicitType evaluate @skip/@include against the
// execution's variables during the walk; variable references inside
// argument values resolve on access, and an unsupplied variable reads
// as Null rather than erroring. The view borrows from the query
// document and must not outlive the resolver call.
//
// # Subscriptions
//
// Subscribe resolves the subscription root's fields into one event
// stream per response key. Each field's StreamResolver supplies a
// source channel; every source value is completed against the field's
// selection set with a fresh error sink, so Event.Errors is per-event.
// A field whose setup fails delivers a single error event and closes.
// Streams close when the source closes or the context is done; the
// consumer cancels by cancelling the context or ceasing to receive.
package executor
