package events

import (
	"time"

	"google.golang.org/grpc/codes"
)

// GRPCClientStart is emitted just before a remote resolver invokes a
// backend method. Target is the endpoint chosen for this call.
type GRPCClientStart struct {
	Service string
	Method  string
	Target  string
}

// GRPCClientFinish is emitted once the backend call returns, whether
// it succeeded or not. Code is the gRPC status derived from Err.
type GRPCClientFinish struct {
	Service  string
	Method   string
	Target   string
	Code     codes.Code
	Err      error
	Duration time.Duration
}
