package language

import (
	gqlparser "github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// Error is a located GraphQL error as produced by the parser and the
// validation rules.
type Error = gqlerror.Error

// ErrorList is an ordered list of located errors.
type ErrorList = gqlerror.List

// ErrorLocation is a line/column pair inside a query source.
type ErrorLocation = gqlerror.Location

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema parses and validates SDL together with the builtin prelude,
// returning the linked schema symbol table.
func LoadSchema(name, source string) (*Schema, error) {
	return gqlparser.LoadSchema(&ast.Source{Name: name, Input: source})
}
