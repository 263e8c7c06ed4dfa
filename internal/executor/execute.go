package executor

import (
	"context"

	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// Execute runs the query or mutation operation selected from doc
// against the schema and root resolvers. The error return is
// structural: a failure to select an operation, a wrong operation
// kind, a missing mutation root or an uncoercible variable aborts
// before any field resolves. Field-level failures never reach it;
// they are collected into the returned error list while the rest of
// the operation keeps resolving.
func Execute(
	ctx context.Context,
	s *schema.Schema,
	root *Root,
	doc *language.QueryDocument,
	operationName string,
	variables map[string]any,
	ctxValue any,
) (any, []ExecutionError, error) {
	if root == nil {
		root = &Root{}
	}
	op, err := selectOperation(doc, operationName)
	if err != nil {
		return nil, nil, err
	}

	var rootType string
	var resolver Resolver
	switch op.Operation {
	case language.Mutation:
		if s.MutationType == "" || root.Mutation == nil {
			return nil, nil, ErrNoMutationType
		}
		rootType = s.MutationType
		resolver = root.Mutation
	case language.Subscription:
		return nil, nil, ErrIsSubscription
	default:
		rootType = s.QueryType
		resolver = root.Query
	}

	coerced, err := coerceVariableValues(s, op, variables)
	if err != nil {
		return nil, nil, &GraphQLError{Message: err.Error()}
	}

	sink := newErrorSink()
	ex := &Executor{
		schema:      s,
		fragments:   fragmentMap(doc),
		variables:   coerced,
		currentSel:  op.SelectionSet,
		currentType: schema.NamedType(rootType),
		ctxValue:    ctxValue,
		errors:      sink,
		path:        &fieldPath{location: locationOf(op.Position)},
	}

	data := ex.ResolveIntoValue(ctx, resolver)
	return data, sink.drain(), nil
}

// selectOperation picks the operation to run: the named one when a
// name is given, else the document's sole operation.
func selectOperation(doc *language.QueryDocument, name string) (*language.OperationDefinition, error) {
	if name != "" {
		if op := doc.Operations.ForName(name); op != nil {
			return op, nil
		}
		return nil, ErrUnknownOperation
	}
	switch len(doc.Operations) {
	case 0:
		return nil, ErrNoOperation
	case 1:
		return doc.Operations[0], nil
	default:
		return nil, ErrMultipleOperations
	}
}

// fragmentMap indexes the document's fragment definitions by name.
// The map lives for one execution only; fragments are never shared
// across executions.
func fragmentMap(doc *language.QueryDocument) map[string]*language.FragmentDefinition {
	fragments := make(map[string]*language.FragmentDefinition, len(doc.Fragments))
	for _, def := range doc.Fragments {
		fragments[def.Name] = def
	}
	return fragments
}
