package remote

import (
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
)

func nameProtoSource(graphQLName string) protoreflect.Name {
	return protoreflect.Name(graphQLName + "Source")
}

// graphQLTypeName inverts nameProtoSource; the second return reports
// whether the proto name carries the Source suffix at all.
func graphQLTypeName(protoName string) (string, bool) {
	if trimmed, ok := strings.CutSuffix(protoName, "Source"); ok && trimmed != "" {
		return trimmed, true
	}
	return "", false
}

func nameProtoField(graphQLName string) protoreflect.Name {
	return protoreflect.Name(snakeCase(graphQLName))
}

func nameService(serviceName string) protoreflect.Name {
	return protoreflect.Name(capitalize(serviceName) + "Service")
}

func nameResolverMethod(objectType, fieldName string) protoreflect.Name {
	return protoreflect.Name("Resolve" + capitalize(objectType) + capitalize(fieldName))
}

func nameRequest(method protoreflect.Name) protoreflect.Name {
	return method + "Request"
}

func nameResponse(method protoreflect.Name) protoreflect.Name {
	return method + "Response"
}

func nameEnumValuePrefix(graphQLEnumName string) string {
	return strings.ToUpper(snakeCase(graphQLEnumName))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// snakeCase converts a string from CamelCase or PascalCase to snake_case.
func snakeCase(s string) string {
	result := ""
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result += "_"
		}
		result += string(r)
	}
	return strings.ToLower(result)
}
