package schema

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hanpama/gqlengine/internal/language"
)

// BuildFromSDL parses and validates SDL and returns the corresponding Schema.
// Builtin scalars and directives come from the local definitions. Non-builtin
// directives applied to fields are preserved on the Field so resolver suites
// can read their bindings.
func BuildFromSDL(sdl string) (*Schema, error) {
	astSchema, err := language.LoadSchema("schema.graphql", sdl)
	if err != nil {
		return nil, err
	}
	return buildFromAST(astSchema), nil
}

func buildFromAST(astSchema *language.Schema) *Schema {
	s := NewSchema(astSchema.Description)
	if astSchema.Query != nil {
		s.SetQueryType(astSchema.Query.Name)
	}
	if astSchema.Mutation != nil {
		s.SetMutationType(astSchema.Mutation.Name)
	}
	if astSchema.Subscription != nil {
		s.SetSubscriptionType(astSchema.Subscription.Name)
	}
	// Builtins
	s.AddType(stringType).
		AddType(intType).
		AddType(floatType).
		AddType(booleanType).
		AddType(idType)
	s.AddDirective(includeDirective).
		AddDirective(skipDirective).
		AddDirective(deprecatedDirective)

	names := make([]string, 0, len(astSchema.Types))
	for name := range astSchema.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := astSchema.Types[name]
		if def.BuiltIn {
			continue
		}
		switch def.Kind {
		case language.Object:
			s.AddType(buildObject(def))
		case language.Interface:
			s.AddType(buildInterface(astSchema, def))
		case language.Enum:
			s.AddType(buildEnum(def))
		case language.InputObject:
			s.AddType(buildInput(def))
		case language.Union:
			s.AddType(buildUnion(def))
		case language.Scalar:
			s.AddType(buildScalar(def))
		}
	}
	for _, def := range astSchema.Directives {
		if def.Position != nil && def.Position.Src != nil && def.Position.Src.BuiltIn {
			continue
		}
		s.AddDirective(buildDirective(def))
	}
	return s
}

func buildObject(def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindObject, def.Description)
	for _, name := range def.Interfaces {
		t.AddInterface(name)
	}
	for _, fieldDef := range def.Fields {
		// The parser injects __schema and __type onto the query type.
		// Introspection supplies its own meta fields, so keep the
		// model to what the SDL declares.
		if strings.HasPrefix(fieldDef.Name, "__") {
			continue
		}
		t.AddField(buildField(fieldDef))
	}
	return t
}

func buildInterface(astSchema *language.Schema, def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindInterface, def.Description)
	for _, name := range def.Interfaces {
		t.AddInterface(name)
	}
	for _, fieldDef := range def.Fields {
		if strings.HasPrefix(fieldDef.Name, "__") {
			continue
		}
		t.AddField(buildField(fieldDef))
	}

	var possible []string
	for _, obj := range astSchema.PossibleTypes[def.Name] {
		possible = append(possible, obj.Name)
	}
	sort.Strings(possible)
	for _, name := range possible {
		t.AddPossibleType(name)
	}
	return t
}

func buildField(def *language.FieldDefinition) *Field {
	f := NewField(def.Name, def.Description, buildTypeRef(def.Type))
	if reason, ok := deprecation(def.Directives); ok {
		f.Deprecate(reason)
	}
	for _, arg := range def.Arguments {
		f.AddArgument(buildArgument(arg))
	}
	for _, d := range buildAppliedDirectives(def.Directives) {
		f.AddDirective(d)
	}
	return f
}

func buildEnum(def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindEnum, def.Description)
	for _, valueDef := range def.EnumValues {
		v := NewEnumValue(valueDef.Name, valueDef.Description)
		if reason, ok := deprecation(valueDef.Directives); ok {
			v.Deprecate(reason)
		}
		t.AddEnumValue(v)
	}
	return t
}

func buildInput(def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindInputObject, def.Description)
	t.SetOneOf(def.Directives.ForName("oneOf") != nil)
	for _, fieldDef := range def.Fields {
		t.AddInputField(buildInputField(fieldDef))
	}
	return t
}

func buildUnion(def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindUnion, def.Description)
	for _, name := range def.Types {
		t.AddPossibleType(name)
	}
	return t
}

func buildScalar(def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindScalar, def.Description)
	if d := def.Directives.ForName("specifiedBy"); d != nil {
		if arg := d.Arguments.ForName("url"); arg != nil {
			t.SetSpecifiedByURL(arg.Value.Raw)
		}
	}
	return t
}

func buildDirective(def *language.DirectiveDefinition) *Directive {
	d := NewDirective(def.Name, def.Description).SetRepeatable(def.IsRepeatable)
	for _, loc := range def.Locations {
		d.AddLocation(string(loc))
	}
	for _, arg := range def.Arguments {
		d.AddArgument(buildArgument(arg))
	}
	return d
}

func buildArgument(def *language.ArgumentDefinition) *InputValue {
	in := NewInputValue(def.Name, def.Description, buildTypeRef(def.Type))
	if def.DefaultValue != nil {
		in.SetDefault(convertValue(def.DefaultValue))
	}
	if reason, ok := deprecation(def.Directives); ok {
		in.Deprecate(reason)
	}
	return in
}

func buildInputField(def *language.FieldDefinition) *InputValue {
	in := NewInputValue(def.Name, def.Description, buildTypeRef(def.Type))
	if def.DefaultValue != nil {
		in.SetDefault(convertValue(def.DefaultValue))
	}
	if reason, ok := deprecation(def.Directives); ok {
		in.Deprecate(reason)
	}
	return in
}

func buildTypeRef(t *language.Type) *TypeRef {
	var ref *TypeRef
	if t.NamedType != "" {
		ref = NamedType(t.NamedType)
	} else {
		ref = ListType(buildTypeRef(t.Elem))
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}

func buildAppliedDirectives(directives language.DirectiveList) []*AppliedDirective {
	var out []*AppliedDirective
	for _, d := range directives {
		switch d.Name {
		case "deprecated", "include", "skip", "specifiedBy", "oneOf":
			continue
		}
		args := make(map[string]any, len(d.Arguments))
		for _, arg := range d.Arguments {
			args[arg.Name] = convertValue(arg.Value)
		}
		out = append(out, &AppliedDirective{Name: d.Name, Arguments: args})
	}
	return out
}

func deprecation(directives language.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil {
		return arg.Value.Raw, true
	}
	return defaultDeprecationReason, true
}

// convertValue turns a constant AST value into its Go representation.
// Enum names become EnumLiteral so they stay unquoted when rendered back.
func convertValue(v *language.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case language.IntValue:
		n, _ := strconv.ParseInt(v.Raw, 10, 64)
		return n
	case language.FloatValue:
		f, _ := strconv.ParseFloat(v.Raw, 64)
		return f
	case language.StringValue, language.BlockValue:
		return v.Raw
	case language.BooleanValue:
		return v.Raw == "true"
	case language.NullValue:
		return nil
	case language.EnumValue:
		return EnumLiteral(v.Raw)
	case language.ListValue:
		list := make([]any, 0, len(v.Children))
		for _, child := range v.Children {
			list = append(list, convertValue(child.Value))
		}
		return list
	case language.ObjectValue:
		obj := make(map[string]any, len(v.Children))
		for _, child := range v.Children {
			obj[child.Name] = convertValue(child.Value)
		}
		return obj
	}
	return nil
}
