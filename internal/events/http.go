package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when the GraphQL endpoint accepts a request,
// before the body is read. The publish context carries the request ID.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the response has been written.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}
