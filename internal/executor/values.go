package executor

import (
	"fmt"
	"math"
	"strconv"

	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// coerceVariableValues builds the effective variables for an operation:
// supplied values are coerced against each declared variable's type and
// declared defaults fill the gaps. Supplied values are never
// overwritten. A coercion failure is structural and aborts execution.
func coerceVariableValues(
	s *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	if variableValues == nil {
		variableValues = make(map[string]any)
	}
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			if varDef.DefaultValue != nil {
				val = astValueToGo(varDef.DefaultValue)
			} else if t.NonNull {
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, t.String())
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, t.String())
		}
		cv, err := coerceValue(s, val, typeRefFromAST(t))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, t.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues builds a field's argument map: explicit
// arguments are resolved against variables and coerced, declared
// defaults fill the gaps, and a missing required argument fails the
// field.
func coerceArgumentValues(
	s *schema.Schema,
	fieldDef *schema.Field,
	arguments language.ArgumentList,
	variableValues map[string]any,
) (map[string]any, *FieldError) {
	coerced := make(map[string]any)
	for _, arg := range arguments {
		var argDef *schema.InputValue
		for _, a := range fieldDef.Arguments {
			if a.Name == arg.Name {
				argDef = a
				break
			}
		}
		if argDef == nil {
			continue
		}
		if arg.Value != nil && arg.Value.Kind == language.Variable {
			if _, ok := variableValues[arg.Value.Raw]; !ok {
				// an unprovided variable falls back to the argument default
				continue
			}
		}
		val := valueFromASTWithVars(arg.Value, variableValues)
		cv, err := coerceValue(s, val, argDef.Type)
		if err != nil {
			return nil, &FieldError{Message: fmt.Sprintf("argument '%s' cannot be coerced: %v", arg.Name, err)}
		}
		coerced[arg.Name] = cv
	}
	for _, argDef := range fieldDef.Arguments {
		if _, ok := coerced[argDef.Name]; ok {
			continue
		}
		if argDef.DefaultValue != nil {
			dv, err := coerceValue(s, argDef.DefaultValue, argDef.Type)
			if err != nil {
				return nil, &FieldError{Message: fmt.Sprintf("argument '%s' default cannot be coerced: %v", argDef.Name, err)}
			}
			coerced[argDef.Name] = dv
		} else if schema.IsNonNull(argDef.Type) {
			return nil, &FieldError{Message: fmt.Sprintf("argument '%s' of required type was not provided", argDef.Name)}
		}
	}
	return coerced, nil
}

// valueFromASTWithVars converts an AST value to a runtime value,
// resolving variable references against the variables map. An absent
// variable resolves to nil.
func valueFromASTWithVars(value *language.Value, variableValues map[string]any) any {
	if value == nil {
		return nil
	}
	if value.Kind == language.Variable {
		return variableValues[value.Raw]
	}
	return astValueToGo(value)
}

// astValueToGo converts an AST literal to a Go value.
func astValueToGo(value *language.Value) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.NullValue:
		return nil
	case language.EnumValue:
		return value.Raw
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any)
		for _, f := range value.Children {
			m[f.Name] = astValueToGo(f.Value)
		}
		return m
	default:
		return nil
	}
}

func typeRefFromAST(t *language.Type) *schema.TypeRef {
	if t == nil {
		return nil
	}
	var ref *schema.TypeRef
	if t.NamedType != "" {
		ref = schema.NamedType(t.NamedType)
	} else {
		ref = schema.ListType(typeRefFromAST(t.Elem))
	}
	if t.NonNull {
		ref = schema.NonNullType(ref)
	}
	return ref
}

// coerceValue coerces an input value to the given type, validating
// enums and input objects against the schema. Values of custom scalar
// types pass through unchanged.
func coerceValue(s *schema.Schema, value any, targetType *schema.TypeRef) (any, error) {
	if targetType.Kind == schema.TypeRefKindNonNull {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(s, value, targetType.OfType)
	}

	if value == nil {
		return nil, nil
	}

	if targetType.Kind == schema.TypeRefKindList {
		return coerceListValue(s, value, targetType.OfType)
	}

	switch targetType.Named {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	}

	typ := s.TypeByName(targetType.Named)
	if typ == nil {
		return value, nil
	}
	switch typ.Kind {
	case schema.TypeKindEnum:
		return coerceEnumValue(typ, value)
	case schema.TypeKindInputObject:
		return coerceInputObject(s, typ, value)
	default:
		return value, nil
	}
}

// coerceListValue coerces each item; a single value becomes a list of
// one.
func coerceListValue(s *schema.Schema, value any, innerType *schema.TypeRef) (any, error) {
	if slice, ok := value.([]any); ok {
		coercedSlice := make([]any, len(slice))
		for i, item := range slice {
			coercedItem, err := coerceValue(s, item, innerType)
			if err != nil {
				return nil, err
			}
			coercedSlice[i] = coercedItem
		}
		return coercedSlice, nil
	}

	coercedItem, err := coerceValue(s, value, innerType)
	if err != nil {
		return nil, err
	}
	return []any{coercedItem}, nil
}

func coerceEnumValue(typ *schema.Type, value any) (any, error) {
	var name string
	switch v := value.(type) {
	case string:
		name = v
	case schema.EnumLiteral:
		name = string(v)
	default:
		return nil, fmt.Errorf("cannot coerce %v (%T) to enum %s", value, value, typ.Name)
	}
	for _, ev := range typ.EnumValues {
		if ev.Name == name {
			return name, nil
		}
	}
	return nil, fmt.Errorf("invalid value %q for enum %s", name, typ.Name)
}

func coerceInputObject(s *schema.Schema, typ *schema.Type, value any) (any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to input object %s", value, value, typ.Name)
	}
	for name := range fields {
		known := false
		for _, f := range typ.InputFields {
			if f.Name == name {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown field '%s' for input object %s", name, typ.Name)
		}
	}
	coerced := make(map[string]any, len(typ.InputFields))
	for _, f := range typ.InputFields {
		raw, provided := fields[f.Name]
		if !provided {
			if f.DefaultValue != nil {
				dv, err := coerceValue(s, f.DefaultValue, f.Type)
				if err != nil {
					return nil, fmt.Errorf("field '%s' default: %v", f.Name, err)
				}
				coerced[f.Name] = dv
			} else if schema.IsNonNull(f.Type) {
				return nil, fmt.Errorf("required field '%s' of input object %s was not provided", f.Name, typ.Name)
			}
			continue
		}
		cv, err := coerceValue(s, raw, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %v", f.Name, err)
		}
		coerced[f.Name] = cv
	}
	if typ.OneOf {
		if len(coerced) != 1 {
			return nil, fmt.Errorf("oneOf input object %s must have exactly one field provided", typ.Name)
		}
		for name, v := range coerced {
			if v == nil {
				return nil, fmt.Errorf("field '%s' of oneOf input object %s cannot be null", name, typ.Name)
			}
		}
	}
	return coerced, nil
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	case float32:
		if float64(v) == math.Trunc(float64(v)) {
			return int(v), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}
