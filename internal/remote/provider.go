package remote

import (
	"context"
	"errors"
	"sync"
)

// ErrNoEndpoints indicates the provider returned no endpoints for a service.
var ErrNoEndpoints = errors.New("remote: no endpoints available")

// EndpointProvider provides a list of reachable endpoints (host:port)
// for a given fully-qualified gRPC service name. Implementations may
// integrate with service discovery systems and must be safe for
// concurrent use.
type EndpointProvider interface {
	Endpoints(ctx context.Context, service string) ([]string, error)
}

// StaticEndpoints is a simple provider backed by an in-memory map.
// Key is the fully-qualified service name; value is a list of endpoints.
type StaticEndpoints struct {
	mu   sync.RWMutex
	data map[string][]string
}

func NewStaticEndpoints(m map[string][]string) *StaticEndpoints {
	cp := make(map[string][]string, len(m))
	for k, v := range m {
		vv := make([]string, len(v))
		copy(vv, v)
		cp[k] = vv
	}
	return &StaticEndpoints{data: cp}
}

func (s *StaticEndpoints) Endpoints(ctx context.Context, service string) ([]string, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.data[service]
	if len(arr) == 0 {
		return nil, ErrNoEndpoints
	}
	out := make([]string, len(arr))
	copy(out, arr)
	return out, nil
}
