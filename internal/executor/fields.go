package executor

import (
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

// collectedFieldMap groups fields by response key while preserving the
// order keys first appear in the query.
type collectedFieldMap struct {
	fields []collectedField
	index  map[string]int
}

type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

func newCollectedFieldMap() *collectedFieldMap {
	return &collectedFieldMap{
		fields: make([]collectedField, 0),
		index:  make(map[string]int),
	}
}

func (cfm *collectedFieldMap) add(responseName string, field *language.Field) {
	if idx, exists := cfm.index[responseName]; exists {
		cfm.fields[idx].Fields = append(cfm.fields[idx].Fields, field)
	} else {
		cfm.index[responseName] = len(cfm.fields)
		cfm.fields = append(cfm.fields, collectedField{
			ResponseName: responseName,
			Fields:       []*language.Field{field},
		})
	}
}

func (cfm *collectedFieldMap) orderedFields() []collectedField {
	return cfm.fields
}

// collectFields flattens one selection set into an ordered field-group
// list for the given concrete type, dissolving fragment spreads and
// inline fragments and applying @skip/@include against the executor's
// variables.
func (ex *Executor) collectFields(objType *schema.Type, selectionSet language.SelectionSet) []collectedField {
	grouped := newCollectedFieldMap()
	ex.collectFieldsInto(objType, selectionSet, make(map[string]bool), grouped)
	return grouped.orderedFields()
}

func (ex *Executor) collectFieldsInto(objType *schema.Type, selectionSet language.SelectionSet, visitedFragments map[string]bool, grouped *collectedFieldMap) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if !shouldIncludeNode(sel.Directives, ex.variables) {
				continue
			}
			grouped.add(responseKey(sel), sel)

		case *language.InlineFragment:
			if !shouldIncludeNode(sel.Directives, ex.variables) {
				continue
			}
			if sel.TypeCondition != "" && !ex.typeConditionApplies(sel.TypeCondition, objType) {
				continue
			}
			ex.collectFieldsInto(objType, sel.SelectionSet, visitedFragments, grouped)

		case *language.FragmentSpread:
			if !shouldIncludeNode(sel.Directives, ex.variables) {
				continue
			}
			if visitedFragments[sel.Name] {
				continue
			}
			visitedFragments[sel.Name] = true

			fragment := ex.fragments[sel.Name]
			if fragment == nil {
				continue
			}
			if fragment.TypeCondition != "" && !ex.typeConditionApplies(fragment.TypeCondition, objType) {
				continue
			}
			if !shouldIncludeNode(fragment.Directives, ex.variables) {
				continue
			}
			ex.collectFieldsInto(objType, fragment.SelectionSet, visitedFragments, grouped)
		}
	}
}

// typeConditionApplies reports whether a fragment with the given type
// condition selects fields of the concrete objType: the condition is
// the type itself, or an interface it implements, or a union it belongs
// to.
func (ex *Executor) typeConditionApplies(condition string, objType *schema.Type) bool {
	if condition == objType.Name {
		return true
	}
	condType := ex.schema.TypeByName(condition)
	if condType == nil || !condType.IsAbstract() {
		return false
	}
	for _, name := range condType.PossibleTypes {
		if name == objType.Name {
			return true
		}
	}
	return false
}

// responseKey is the alias if present, else the field's own name.
func responseKey(f *language.Field) string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// shouldIncludeNode evaluates @skip and @include against the variables
// map: a node is dropped on skip(if: true) or include(if: false). An
// absent variable resolves to null, which satisfies neither.
func shouldIncludeNode(directives language.DirectiveList, variables map[string]any) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveArgumentValue(skip, "if", variables).(bool); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveArgumentValue(include, "if", variables).(bool); ok && !v {
			return false
		}
	}
	return true
}

func directiveArgumentValue(directive *language.Directive, argName string, variables map[string]any) any {
	for _, arg := range directive.Arguments {
		if arg.Name == argName {
			return valueFromASTWithVars(arg.Value, variables)
		}
	}
	return nil
}
