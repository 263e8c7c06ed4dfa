// Package remote resolves GraphQL fields against gRPC backends. The
// schema's @rpc directives bind fields to backend methods; a registry
// derives the request, response and source message descriptors for
// those bindings, and a resolver invokes the backends dynamically.
package remote

import (
	"fmt"

	"github.com/hanpama/gqlengine/internal/schema"
)

// DirectiveName is the SDL directive that binds a field to a backend
// RPC: @rpc(service: "inventory", method: "GetProduct").
const DirectiveName = "rpc"

// FieldKey identifies a field by its owning type name and field name.
type FieldKey [2]string

// Binding maps one GraphQL field to one backend method. Method may be
// empty, in which case the registry derives Resolve<Type><Field>.
type Binding struct {
	Service string
	Method  string
}

// BindingsFromSchema collects every @rpc directive applied to a field.
// A binding without a service argument is a configuration error.
func BindingsFromSchema(s *schema.Schema) (map[FieldKey]Binding, error) {
	out := map[FieldKey]Binding{}
	for _, t := range s.Types {
		if t.Kind != schema.TypeKindObject {
			continue
		}
		for _, f := range t.Fields {
			d := f.Directive(DirectiveName)
			if d == nil {
				continue
			}
			service, _ := d.Arguments["service"].(string)
			if service == "" {
				return nil, fmt.Errorf("remote: field %s.%s has an @%s directive without a service", t.Name, f.Name, DirectiveName)
			}
			method, _ := d.Arguments["method"].(string)
			out[FieldKey{t.Name, f.Name}] = Binding{Service: service, Method: method}
		}
	}
	return out, nil
}
