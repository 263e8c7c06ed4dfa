package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLValidationFinish is emitted after a query document is
// validated, whether the verdict came from the cache or a fresh run.
type GraphQLValidationFinish struct {
	Query      string
	Cached     bool
	ErrorCount int
	Duration   time.Duration
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}
