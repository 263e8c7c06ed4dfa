package remote

import (
	"fmt"
	"math"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/hanpama/gqlengine/internal/schema"
)

// setMessageFields populates msg from coerced argument values, keyed
// by JSON name so GraphQL argument names match snake_case proto fields.
func setMessageFields(msg protoreflect.Message, data map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	fields := msg.Descriptor().Fields()
	byJSON := make(map[string]protoreflect.FieldDescriptor, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		f := fields.Get(i)
		byJSON[f.JSONName()] = f
	}
	for k, v := range data {
		fd := byJSON[k]
		if fd == nil {
			continue
		}
		if v == nil {
			continue
		}
		if fd.IsList() {
			items, ok := v.([]any)
			if !ok {
				return fmt.Errorf("remote: expected a list for %s, got %T", fd.JSONName(), v)
			}
			list := msg.Mutable(fd).List()
			for _, item := range items {
				pv, err := toProtoValue(fd, item)
				if err != nil {
					return err
				}
				list.Append(pv)
			}
			msg.Set(fd, protoreflect.ValueOfList(list))
			continue
		}
		pv, err := toProtoValue(fd, v)
		if err != nil {
			return err
		}
		msg.Set(fd, pv)
	}
	return nil
}

func toProtoValue(fd protoreflect.FieldDescriptor, v any) (protoreflect.Value, error) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		if b, ok := v.(bool); ok {
			return protoreflect.ValueOfBool(b), nil
		}
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		if n, ok := toInt64(v); ok {
			return protoreflect.ValueOfInt32(int32(n)), nil
		}
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		if n, ok := toInt64(v); ok {
			return protoreflect.ValueOfInt64(n), nil
		}
	case protoreflect.FloatKind:
		if f, ok := toFloat64(v); ok {
			return protoreflect.ValueOfFloat32(float32(f)), nil
		}
	case protoreflect.DoubleKind:
		if f, ok := toFloat64(v); ok {
			return protoreflect.ValueOfFloat64(f), nil
		}
	case protoreflect.StringKind:
		if s, ok := v.(string); ok {
			return protoreflect.ValueOfString(s), nil
		}
	case protoreflect.BytesKind:
		if b, ok := v.([]byte); ok {
			return protoreflect.ValueOfBytes(b), nil
		}
	case protoreflect.EnumKind:
		var name string
		switch s := v.(type) {
		case string:
			name = s
		case schema.EnumLiteral:
			name = string(s)
		}
		if name != "" {
			if ev := enumProtoValue(fd.Enum(), name); ev != nil {
				return protoreflect.ValueOfEnum(ev.Number()), nil
			}
		}
	case protoreflect.MessageKind:
		if mv, ok := v.(map[string]any); ok {
			msg := dynamicpb.NewMessage(fd.Message())
			if err := setMessageFields(msg, mv); err != nil {
				return protoreflect.Value{}, err
			}
			return protoreflect.ValueOfMessage(msg), nil
		}
	}
	return protoreflect.Value{}, fmt.Errorf("remote: unsupported arg value %T for %s", v, fd.JSONName())
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// enumProtoValue finds the enum value for a GraphQL enum name, trying
// the raw name first and then the registry's prefixed naming scheme.
func enumProtoValue(ed protoreflect.EnumDescriptor, name string) protoreflect.EnumValueDescriptor {
	values := ed.Values()
	if ev := values.ByName(protoreflect.Name(name)); ev != nil {
		return ev
	}
	if gql, ok := graphQLTypeName(string(ed.Name())); ok {
		prefixed := nameEnumValuePrefix(gql) + "_" + strings.ToUpper(name)
		if ev := values.ByName(protoreflect.Name(prefixed)); ev != nil {
			return ev
		}
	}
	return nil
}

// enumGraphQLValue maps a wire enum number back to the GraphQL name,
// stripping the registry's value prefix when present.
func enumGraphQLValue(ed protoreflect.EnumDescriptor, num protoreflect.EnumNumber) any {
	ev := ed.Values().ByNumber(num)
	if ev == nil {
		return int32(num)
	}
	name := string(ev.Name())
	if gql, ok := graphQLTypeName(string(ed.Name())); ok {
		prefix := nameEnumValuePrefix(gql) + "_"
		if trimmed, ok := strings.CutPrefix(name, prefix); ok {
			return trimmed
		}
	}
	return name
}
