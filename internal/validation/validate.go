// Package validation statically checks parsed query documents against
// a schema before execution. A document that fails validation must be
// rejected; the engine assumes every invariant enforced here.
package validation

import (
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// RuleFunc inspects a query document against a schema and returns the
// violations it finds.
type RuleFunc func(s *schema.Schema, doc *language.QueryDocument) language.ErrorList

// SpecifiedRules are the rules Validate runs, in order.
var SpecifiedRules = []RuleFunc{
	OverlappingFieldsCanBeMerged,
}

// Validate runs every specified rule against doc. An empty result
// means the document may execute.
func Validate(s *schema.Schema, doc *language.QueryDocument) language.ErrorList {
	var errs language.ErrorList
	for _, rule := range SpecifiedRules {
		errs = append(errs, rule(s, doc)...)
	}
	return errs
}
