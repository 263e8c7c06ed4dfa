package remote

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/hanpama/gqlengine/internal/schema"
)

// Registry holds the proto descriptors derived from a schema's @rpc
// bindings: one file per backend service plus a shared file with the
// source messages, and lookup tables from GraphQL names to descriptors.
type Registry struct {
	files          []protoreflect.FileDescriptor
	methods        map[FieldKey]protoreflect.MethodDescriptor
	sourceFields   map[FieldKey]protoreflect.FieldDescriptor
	sourceMessages map[string]protoreflect.MessageDescriptor
	serviceNames   map[string]protoreflect.FullName
}

// Files returns every built file descriptor, the shared types file first.
func (r *Registry) Files() []protoreflect.FileDescriptor { return r.files }

// Method returns the backend method bound to the field, or nil.
func (r *Registry) Method(objectType, field string) protoreflect.MethodDescriptor {
	return r.methods[FieldKey{objectType, field}]
}

// SourceField returns the source message field backing an unbound
// GraphQL field, or nil.
func (r *Registry) SourceField(objectType, field string) protoreflect.FieldDescriptor {
	return r.sourceFields[FieldKey{objectType, field}]
}

// SourceMessage returns the source message descriptor for a type, or nil.
func (r *Registry) SourceMessage(typeName string) protoreflect.MessageDescriptor {
	return r.sourceMessages[typeName]
}

// ServiceName maps a binding's service name to the full proto service
// name the transport dials by.
func (r *Registry) ServiceName(bindingService string) (protoreflect.FullName, bool) {
	fn, ok := r.serviceNames[bindingService]
	return fn, ok
}

// Services returns the binding-service to proto-service name table.
func (r *Registry) Services() map[string]protoreflect.FullName {
	out := make(map[string]protoreflect.FullName, len(r.serviceNames))
	for k, v := range r.serviceNames {
		out[k] = v
	}
	return out
}

const sharedFilePath = "types.proto"

// BuildRegistry derives the proto contract for the given bindings.
// Source messages carry every unbound field of each object type;
// interfaces and unions become oneof envelopes over their possible
// types; each bound field gets a request message (snake_case argument
// fields plus the parent source, when there is one) and a response
// message with a single data field.
func BuildRegistry(s *schema.Schema, bindings map[FieldKey]Binding) (*Registry, error) {
	b := &regBuilder{
		sch:              s,
		bindings:         bindings,
		serviceFiles:     map[string]*protobuilder.FileBuilder{},
		serviceBuilders:  map[string]*protobuilder.ServiceBuilder{},
		messageBuilders:  map[string]*protobuilder.MessageBuilder{},
		enumBuilders:     map[string]*protobuilder.EnumBuilder{},
		protoGQLFieldMap: map[[2]protoreflect.Name][2]string{},
		methodKeys:       map[[2]string]FieldKey{},
	}

	b.sharedFile = protobuilder.NewFile(sharedFilePath)
	b.sharedFile.SetPackageName("types")
	b.sharedFile.SetSyntax(protoreflect.Proto3)

	for _, t := range b.orderedTypes() {
		b.addTypeBuilder(t)
	}
	for _, t := range b.orderedTypes() {
		b.addTypeFields(t)
	}
	if err := b.addBindings(); err != nil {
		return nil, err
	}
	return b.build()
}

type regBuilder struct {
	sch      *schema.Schema
	bindings map[FieldKey]Binding

	sharedFile      *protobuilder.FileBuilder
	serviceFiles    map[string]*protobuilder.FileBuilder
	serviceBuilders map[string]*protobuilder.ServiceBuilder
	messageBuilders map[string]*protobuilder.MessageBuilder
	enumBuilders    map[string]*protobuilder.EnumBuilder

	protoGQLFieldMap map[[2]protoreflect.Name][2]string
	methodKeys       map[[2]string]FieldKey
}

func (b *regBuilder) isRootType(name string) bool {
	return name == b.sch.QueryType || name == b.sch.MutationType || name == b.sch.SubscriptionType
}

func (b *regBuilder) orderedTypes() []*schema.Type {
	names := make([]string, 0, len(b.sch.Types))
	for name := range b.sch.Types {
		if strings.HasPrefix(name, "__") || builtinScalars[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*schema.Type, len(names))
	for i, name := range names {
		out[i] = b.sch.Types[name]
	}
	return out
}

func (b *regBuilder) addTypeBuilder(t *schema.Type) {
	switch t.Kind {
	case schema.TypeKindObject:
		if b.isRootType(t.Name) {
			return
		}
		fallthrough
	case schema.TypeKindInterface, schema.TypeKindUnion, schema.TypeKindInputObject:
		mb := protobuilder.NewMessage(nameProtoSource(t.Name))
		mb.SetComments(comment(t.Description))
		b.messageBuilders[t.Name] = mb
		b.sharedFile.AddMessage(mb)
	case schema.TypeKindEnum:
		eb := protobuilder.NewEnum(nameProtoSource(t.Name))
		eb.SetComments(comment(t.Description))
		b.enumBuilders[t.Name] = eb

		prefix := nameEnumValuePrefix(t.Name)
		zero := protobuilder.NewEnumValue(protoreflect.Name(prefix + "_UNSPECIFIED"))
		zero.SetNumber(0)
		eb.AddValue(zero)

		evbs := make([]*protobuilder.EnumValueBuilder, 0, len(t.EnumValues))
		for _, v := range t.EnumValues {
			name := strings.ToUpper(v.Name)
			if name == "UNSPECIFIED" {
				continue
			}
			evb := protobuilder.NewEnumValue(protoreflect.Name(prefix + "_" + name))
			evb.SetComments(comment(v.Description))
			eb.AddValue(evb)
			evbs = append(evbs, evb)
		}
		allocateEnumValueNumbers(evbs)

		b.sharedFile.AddEnum(eb)
	}
}

func (b *regBuilder) addTypeFields(t *schema.Type) {
	mb := b.messageBuilders[t.Name]
	if mb == nil {
		return
	}
	switch t.Kind {
	case schema.TypeKindObject:
		fieldBuilders := make([]*protobuilder.FieldBuilder, 0, len(t.Fields))
		for _, f := range t.Fields {
			if _, bound := b.bindings[FieldKey{t.Name, f.Name}]; bound {
				continue
			}
			rt := b.resolveTypeRef(f.Type)
			fb := protobuilder.NewField(nameProtoField(f.Name), rt.fieldType)
			fb.SetComments(comment(f.Description))
			if rt.isOptional {
				fb.SetOptional()
				fb.SetProto3Optional(true)
			}
			if rt.isRepeated {
				fb.SetRepeated()
			}
			mb.AddField(fb)
			fieldBuilders = append(fieldBuilders, fb)
			b.protoGQLFieldMap[[2]protoreflect.Name{mb.Name(), fb.Name()}] = [2]string{t.Name, f.Name}
		}
		allocateFieldNumbers(fieldBuilders)

	case schema.TypeKindInterface, schema.TypeKindUnion:
		oneOf := protobuilder.NewOneof("value")
		mb.AddOneOf(oneOf)
		fieldBuilders := make([]*protobuilder.FieldBuilder, 0, len(t.PossibleTypes))
		for _, name := range t.PossibleTypes {
			choice := b.messageBuilders[name]
			if choice == nil {
				continue
			}
			fb := protobuilder.NewField(nameProtoField(name), protobuilder.FieldTypeMessage(choice))
			fieldBuilders = append(fieldBuilders, fb)
			oneOf.AddChoice(fb)
		}
		allocateFieldNumbers(fieldBuilders)

	case schema.TypeKindInputObject:
		fieldBuilders := make([]*protobuilder.FieldBuilder, 0, len(t.InputFields))
		for _, in := range t.InputFields {
			rt := b.resolveTypeRef(in.Type)
			fb := protobuilder.NewField(nameProtoField(in.Name), rt.fieldType)
			fb.SetComments(comment(in.Description))
			if rt.isOptional {
				fb.SetOptional()
				fb.SetProto3Optional(true)
			}
			if rt.isRepeated {
				fb.SetRepeated()
			}
			mb.AddField(fb)
			fieldBuilders = append(fieldBuilders, fb)
			b.protoGQLFieldMap[[2]protoreflect.Name{mb.Name(), fb.Name()}] = [2]string{t.Name, in.Name}
		}
		allocateFieldNumbers(fieldBuilders)
	}
}

func (b *regBuilder) addBindings() error {
	keys := make([]FieldKey, 0, len(b.bindings))
	for key := range b.bindings {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	for _, key := range keys {
		binding := b.bindings[key]
		typ := b.sch.TypeByName(key[0])
		if typ == nil {
			return fmt.Errorf("remote: binding refers to unknown type %s", key[0])
		}
		fieldDef := typ.FieldByName(key[1])
		if fieldDef == nil {
			return fmt.Errorf("remote: binding refers to unknown field %s.%s", key[0], key[1])
		}

		fb := b.serviceFile(binding.Service)
		sb := b.serviceBuilders[binding.Service]

		methodName := protoreflect.Name(binding.Method)
		if methodName == "" {
			methodName = nameResolverMethod(key[0], key[1])
		}

		requestMB := protobuilder.NewMessage(nameRequest(methodName))
		requestFields := make([]*protobuilder.FieldBuilder, 0, len(fieldDef.Arguments)+1)
		for _, arg := range fieldDef.Arguments {
			rt := b.resolveTypeRef(arg.Type)
			afb := protobuilder.NewField(nameProtoField(arg.Name), rt.fieldType)
			afb.SetComments(comment(arg.Description))
			if rt.isOptional {
				afb.SetOptional()
				afb.SetProto3Optional(true)
			}
			if rt.isRepeated {
				afb.SetRepeated()
			}
			requestMB.AddField(afb)
			requestFields = append(requestFields, afb)
		}
		if parentMB := b.messageBuilders[key[0]]; parentMB != nil && !b.isRootType(key[0]) {
			sfb := protobuilder.NewField("source", protobuilder.FieldTypeMessage(parentMB))
			sfb.SetOptional()
			sfb.SetProto3Optional(true)
			requestMB.AddField(sfb)
			requestFields = append(requestFields, sfb)
		}
		allocateFieldNumbers(requestFields)

		responseMB := protobuilder.NewMessage(nameResponse(methodName))
		rt := b.resolveTypeRef(fieldDef.Type)
		dataFB := protobuilder.NewField(nameProtoField("data"), rt.fieldType)
		dataFB.SetNumber(1)
		if rt.isOptional {
			dataFB.SetOptional()
			dataFB.SetProto3Optional(true)
		}
		if rt.isRepeated {
			dataFB.SetRepeated()
		}
		responseMB.AddField(dataFB)

		methodMB := protobuilder.NewMethod(methodName,
			protobuilder.RpcTypeMessage(requestMB, false),
			protobuilder.RpcTypeMessage(responseMB, false),
		)
		methodMB.SetComments(comment(fieldDef.Description))

		fb.AddMessage(requestMB)
		fb.AddMessage(responseMB)
		sb.AddMethod(methodMB)

		b.methodKeys[[2]string{string(sb.Name()), string(methodName)}] = key
	}
	return nil
}

func (b *regBuilder) serviceFile(service string) *protobuilder.FileBuilder {
	if fb, ok := b.serviceFiles[service]; ok {
		return fb
	}
	fb := protobuilder.NewFile(snakeCase(service) + ".proto")
	fb.SetPackageName(protoreflect.FullName(snakeCase(service)))
	fb.SetSyntax(protoreflect.Proto3)
	fb.AddDependency(b.sharedFile)

	sb := protobuilder.NewService(nameService(service))
	fb.AddService(sb)

	b.serviceFiles[service] = fb
	b.serviceBuilders[service] = sb
	return fb
}

func (b *regBuilder) build() (*Registry, error) {
	reg := &Registry{
		methods:        map[FieldKey]protoreflect.MethodDescriptor{},
		sourceFields:   map[FieldKey]protoreflect.FieldDescriptor{},
		sourceMessages: map[string]protoreflect.MessageDescriptor{},
		serviceNames:   map[string]protoreflect.FullName{},
	}

	services := make([]string, 0, len(b.serviceFiles))
	for name := range b.serviceFiles {
		services = append(services, name)
	}
	sort.Strings(services)

	// Each FileBuilder resolves its dependencies independently, so
	// building file by file would hand out a fresh copy of the shared
	// types file per service. Relink everything through a single
	// descriptor set so every cross-file reference lands on the same
	// descriptor instance.
	set := &descriptorpb.FileDescriptorSet{}
	sharedFD, err := b.sharedFile.Build()
	if err != nil {
		return nil, err
	}
	set.File = append(set.File, protodesc.ToFileDescriptorProto(sharedFD))
	for _, service := range services {
		fd, err := b.serviceFiles[service].Build()
		if err != nil {
			return nil, err
		}
		set.File = append(set.File, protodesc.ToFileDescriptorProto(fd))
	}
	linked, err := protodesc.NewFiles(set)
	if err != nil {
		return nil, err
	}

	shared, err := linked.FindFileByPath(sharedFilePath)
	if err != nil {
		return nil, err
	}
	reg.files = append(reg.files, shared)
	b.collectMessages(reg, shared)

	for _, service := range services {
		fd, err := linked.FindFileByPath(snakeCase(service) + ".proto")
		if err != nil {
			return nil, err
		}
		reg.files = append(reg.files, fd)

		svcs := fd.Services()
		for i := 0; i < svcs.Len(); i++ {
			svc := svcs.Get(i)
			reg.serviceNames[service] = svc.FullName()
			methods := svc.Methods()
			for j := 0; j < methods.Len(); j++ {
				method := methods.Get(j)
				if key, ok := b.methodKeys[[2]string{string(svc.Name()), string(method.Name())}]; ok {
					reg.methods[key] = method
				}
			}
		}
	}
	return reg, nil
}

func (b *regBuilder) collectMessages(reg *Registry, fd protoreflect.FileDescriptor) {
	messages := fd.Messages()
	for i := 0; i < messages.Len(); i++ {
		msg := messages.Get(i)
		gqlType, ok := graphQLTypeName(string(msg.Name()))
		if !ok || b.sch.TypeByName(gqlType) == nil {
			continue
		}
		reg.sourceMessages[gqlType] = msg
		fields := msg.Fields()
		for j := 0; j < fields.Len(); j++ {
			field := fields.Get(j)
			if gqlNames, ok := b.protoGQLFieldMap[[2]protoreflect.Name{msg.Name(), field.Name()}]; ok {
				reg.sourceFields[FieldKey{gqlNames[0], gqlNames[1]}] = field
			}
		}
	}
}

type resolvedType struct {
	isRepeated bool
	isOptional bool
	fieldType  *protobuilder.FieldType
}

func (b *regBuilder) resolveTypeRef(t *schema.TypeRef) resolvedType {
	switch t.Kind {
	case schema.TypeRefKindNamed:
		return resolvedType{isOptional: true, fieldType: b.mapNamedType(t.Named)}
	case schema.TypeRefKindList:
		elem := b.resolveTypeRef(t.OfType)
		return resolvedType{isRepeated: true, fieldType: elem.fieldType}
	case schema.TypeRefKindNonNull:
		inner := b.resolveTypeRef(t.OfType)
		return resolvedType{isRepeated: inner.isRepeated, fieldType: inner.fieldType}
	}
	panic("unreachable")
}

var builtinScalars = map[string]bool{
	"Int": true, "Float": true, "String": true, "Boolean": true, "ID": true,
}

var scalarKinds = map[string]protoreflect.Kind{
	"Int":     protoreflect.Int64Kind,
	"Float":   protoreflect.DoubleKind,
	"String":  protoreflect.StringKind,
	"ID":      protoreflect.StringKind,
	"Boolean": protoreflect.BoolKind,
}

func (b *regBuilder) mapNamedType(typeName string) *protobuilder.FieldType {
	if kind, ok := scalarKinds[typeName]; ok {
		return protobuilder.FieldTypeScalar(kind)
	}
	if mb, ok := b.messageBuilders[typeName]; ok {
		return protobuilder.FieldTypeMessage(mb)
	}
	if eb, ok := b.enumBuilders[typeName]; ok {
		return protobuilder.FieldTypeEnum(eb)
	}
	if t := b.sch.TypeByName(typeName); t != nil && t.Kind == schema.TypeKindScalar {
		// Custom scalars travel as strings.
		return protobuilder.FieldTypeScalar(protoreflect.StringKind)
	}
	panic("remote: no proto mapping for type " + typeName)
}
