package remote

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/hanpama/gqlengine/internal/executor"
)

// Resolver answers fields for one value of one GraphQL object type.
// Roots carry no source message; nested resolvers wrap the backend
// message the parent RPC returned. Bound fields invoke their backend
// method, unbound fields read straight from the source message.
type Resolver struct {
	reg       *Registry
	transport Transport
	typeName  string
	source    protoreflect.Message
}

var _ executor.Resolver = (*Resolver)(nil)
var _ executor.ConcreteTyper = (*Resolver)(nil)

// NewRoot returns the resolver for an operation root type.
func NewRoot(reg *Registry, transport Transport, typeName string) *Resolver {
	return &Resolver{reg: reg, transport: transport, typeName: typeName}
}

// ConcreteTypeName reports the object type this value resolved as,
// derived from the source message's <Type>Source name.
func (r *Resolver) ConcreteTypeName(ctx context.Context) string { return r.typeName }

func (r *Resolver) ResolveField(ctx context.Context, ex *executor.Executor, field string, args map[string]any) (any, error) {
	if md := r.reg.Method(r.typeName, field); md != nil {
		return r.invoke(ctx, md, args)
	}
	fd := r.reg.SourceField(r.typeName, field)
	if fd == nil {
		return nil, fmt.Errorf("remote: no binding or source field for %s.%s", r.typeName, field)
	}
	if r.source == nil {
		return nil, nil
	}
	if fd.IsList() {
		list := r.source.Get(fd).List()
		out := make([]any, list.Len())
		for i := range out {
			out[i] = r.fieldValue(fd, list.Get(i))
		}
		return out, nil
	}
	if !r.source.Has(fd) {
		return nil, nil
	}
	return r.fieldValue(fd, r.source.Get(fd)), nil
}

// invoke builds the request from the coerced arguments plus the parent
// source message, calls the backend and decodes the response data.
func (r *Resolver) invoke(ctx context.Context, md protoreflect.MethodDescriptor, args map[string]any) (any, error) {
	req := dynamicpb.NewMessage(md.Input())
	if err := setMessageFields(req, args); err != nil {
		return nil, err
	}
	if r.source != nil {
		if sf := md.Input().Fields().ByName("source"); sf != nil && sf.Kind() == protoreflect.MessageKind {
			req.Set(sf, protoreflect.ValueOfMessage(r.source))
		}
	}
	resp, err := r.transport.Call(ctx, md, req)
	if err != nil {
		return nil, err
	}
	return r.handleResponse(resp)
}

// handleResponse extracts the top-level data field from a response
// message. An absent singular message field decodes as null.
func (r *Resolver) handleResponse(resp protoreflect.Message) (any, error) {
	fd := resp.Descriptor().Fields().ByName("data")
	if fd == nil {
		return nil, fmt.Errorf("remote: missing data field in %s", resp.Descriptor().FullName())
	}
	if fd.IsList() {
		list := resp.Get(fd).List()
		out := make([]any, list.Len())
		for i := range out {
			out[i] = r.fieldValue(fd, list.Get(i))
		}
		return out, nil
	}
	if fd.Kind() == protoreflect.MessageKind && !resp.Has(fd) {
		return nil, nil
	}
	return r.fieldValue(fd, resp.Get(fd)), nil
}

// fieldValue converts one protobuf field value into the value shape
// the engine completes: scalars pass through, enums map back to their
// GraphQL names, messages become nested resolvers after envelope
// unwrapping.
func (r *Resolver) fieldValue(fd protoreflect.FieldDescriptor, v protoreflect.Value) any {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return v.Bool()
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return int32(v.Int())
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return v.Int()
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return uint32(v.Uint())
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return v.Uint()
	case protoreflect.FloatKind:
		return float32(v.Float())
	case protoreflect.DoubleKind:
		return v.Float()
	case protoreflect.StringKind:
		return v.String()
	case protoreflect.BytesKind:
		return []byte(v.Bytes())
	case protoreflect.EnumKind:
		return enumGraphQLValue(fd.Enum(), v.Enum())
	case protoreflect.MessageKind:
		return r.wrapMessage(v.Message())
	default:
		return nil
	}
}

func (r *Resolver) wrapMessage(msg protoreflect.Message) any {
	if msg == nil {
		return nil
	}
	if unwrapped := r.unwrapInterfaceEnvelope(msg); unwrapped != nil {
		msg = unwrapped
	} else if unwrapped := unwrapUnionEnvelope(msg); unwrapped != nil {
		msg = unwrapped
	}
	name, ok := graphQLTypeName(string(msg.Descriptor().Name()))
	if !ok {
		panic(fmt.Sprintf("remote: cannot infer GraphQL type from message %s", msg.Descriptor().FullName()))
	}
	return &Resolver{reg: r.reg, transport: r.transport, typeName: name, source: msg}
}

// unwrapInterfaceEnvelope decodes the typename+payload envelope shape
// some backends answer abstract fields with.
func (r *Resolver) unwrapInterfaceEnvelope(msg protoreflect.Message) protoreflect.Message {
	fields := msg.Descriptor().Fields()
	typenameField := fields.ByName("typename")
	payloadField := fields.ByName("payload")
	if typenameField == nil || payloadField == nil {
		return nil
	}
	if typenameField.Kind() != protoreflect.StringKind || payloadField.Kind() != protoreflect.BytesKind {
		return nil
	}
	if !msg.Has(typenameField) {
		return nil
	}
	if !msg.Has(payloadField) {
		panic(fmt.Sprintf("remote: interface envelope %s missing payload", msg.Descriptor().FullName()))
	}
	typeName := msg.Get(typenameField).String()
	desc := r.reg.SourceMessage(typeName)
	if desc == nil {
		panic(fmt.Sprintf("remote: missing source message descriptor for %s", typeName))
	}
	payload := msg.Get(payloadField).Bytes()
	out := dynamicpb.NewMessage(desc)
	if err := proto.Unmarshal(payload, out.Interface()); err != nil {
		panic(fmt.Sprintf("remote: failed to unmarshal payload for %s: %v", typeName, err))
	}
	return out
}

// unwrapUnionEnvelope unpacks the populated choice of a oneof("value")
// envelope, the shape the registry derives for interfaces and unions.
func unwrapUnionEnvelope(msg protoreflect.Message) protoreflect.Message {
	desc := msg.Descriptor()
	if desc.Oneofs().Len() != 1 {
		return nil
	}
	oneofDesc := desc.Oneofs().Get(0)
	if string(oneofDesc.Name()) != "value" {
		return nil
	}
	fd := msg.WhichOneof(oneofDesc)
	if fd == nil {
		return nil
	}
	if fd.Kind() != protoreflect.MessageKind {
		panic(fmt.Sprintf("remote: union envelope %s has non-message variant %s", desc.FullName(), fd.FullName()))
	}
	return msg.Get(fd).Message()
}
