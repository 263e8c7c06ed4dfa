package executor

import "github.com/hanpama/gqlengine/internal/schema"

func newSchemaWithQueryType(query *schema.Type, additional ...*schema.Type) *schema.Schema {
	sch := schema.NewSchema("")
	if query != nil {
		sch.SetQueryType(query.Name)
		sch.AddType(query)
	}
	for _, t := range additional {
		sch.AddType(t)
	}
	return sch
}

func newObjectType(name string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindObject, "")
	for _, field := range fields {
		t.AddField(field)
	}
	return t
}

func newScalarType(name string) *schema.Type {
	return schema.NewType(name, schema.TypeKindScalar, "")
}

func newInterfaceType(name string, possible []string, fields ...*schema.Field) *schema.Type {
	t := schema.NewType(name, schema.TypeKindInterface, "")
	for _, field := range fields {
		t.AddField(field)
	}
	for _, p := range possible {
		t.AddPossibleType(p)
	}
	return t
}

func newUnionType(name string, possible ...string) *schema.Type {
	t := schema.NewType(name, schema.TypeKindUnion, "")
	for _, p := range possible {
		t.AddPossibleType(p)
	}
	return t
}

func newEnumType(name string, values ...string) *schema.Type {
	t := schema.NewType(name, schema.TypeKindEnum, "")
	for _, v := range values {
		t.AddEnumValue(schema.NewEnumValue(v, ""))
	}
	return t
}
