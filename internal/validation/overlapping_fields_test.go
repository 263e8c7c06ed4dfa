package validation

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

func menagerieSchema() *schema.Schema {
	s := schema.NewSchema("")
	s.SetQueryType("Query")
	s.AddType(schema.NewType("Query", schema.TypeKindObject, "").
		AddField(schema.NewField("pet", "", schema.NamedType("Pet"))).
		AddField(schema.NewField("dog", "", schema.NamedType("Dog"))).
		AddField(schema.NewField("box", "", schema.NamedType("SomeBox"))).
		AddField(schema.NewField("container", "", schema.NamedType("Container"))))
	s.AddType(schema.NewType("Pet", schema.TypeKindInterface, "").
		AddField(schema.NewField("name", "", schema.NamedType("String"))).
		AddPossibleType("Dog").
		AddPossibleType("Cat"))
	s.AddType(schema.NewType("Dog", schema.TypeKindObject, "").
		AddInterface("Pet").
		AddField(schema.NewField("name", "", schema.NamedType("String"))).
		AddField(schema.NewField("nickname", "", schema.NamedType("String"))).
		AddField(schema.NewField("barkVolume", "", schema.NamedType("Int"))).
		AddField(schema.NewField("doesKnowCommand", "", schema.NamedType("Boolean")).
			AddArgument(schema.NewInputValue("command", "", schema.NamedType("String")))).
		AddField(schema.NewField("search", "", schema.NamedType("String")).
			AddArgument(schema.NewInputValue("filter", "", schema.NamedType("SearchFilter")))))
	s.AddType(schema.NewType("Cat", schema.TypeKindObject, "").
		AddInterface("Pet").
		AddField(schema.NewField("name", "", schema.NamedType("String"))).
		AddField(schema.NewField("nickname", "", schema.NamedType("String"))).
		AddField(schema.NewField("meowVolume", "", schema.NamedType("Int"))))
	s.AddType(schema.NewType("SomeBox", schema.TypeKindInterface, "").
		AddField(schema.NewField("deepBox", "", schema.NamedType("SomeBox"))).
		AddField(schema.NewField("unrelatedField", "", schema.NamedType("String"))).
		AddPossibleType("IntBox").
		AddPossibleType("StringBox"))
	s.AddType(schema.NewType("IntBox", schema.TypeKindObject, "").
		AddInterface("SomeBox").
		AddField(schema.NewField("scalar", "", schema.NamedType("Int"))).
		AddField(schema.NewField("deepBox", "", schema.NamedType("IntBox"))).
		AddField(schema.NewField("unrelatedField", "", schema.NamedType("String"))).
		AddField(schema.NewField("listStringBox", "", schema.ListType(schema.NamedType("StringBox")))).
		AddField(schema.NewField("stringBox", "", schema.NamedType("StringBox"))))
	s.AddType(schema.NewType("StringBox", schema.TypeKindObject, "").
		AddInterface("SomeBox").
		AddField(schema.NewField("scalar", "", schema.NamedType("String"))).
		AddField(schema.NewField("deepBox", "", schema.NamedType("StringBox"))).
		AddField(schema.NewField("unrelatedField", "", schema.NamedType("String"))).
		AddField(schema.NewField("listStringBox", "", schema.ListType(schema.NamedType("StringBox")))).
		AddField(schema.NewField("stringBox", "", schema.NamedType("StringBox"))))
	s.AddType(schema.NewType("Container", schema.TypeKindObject, "").
		AddField(schema.NewField("item", "", schema.NamedType("Item"))))
	s.AddType(schema.NewType("Item", schema.TypeKindObject, "").
		AddField(schema.NewField("a", "", schema.NamedType("String"))).
		AddField(schema.NewField("b", "", schema.NamedType("String"))).
		AddField(schema.NewField("y", "", schema.NamedType("String"))))
	s.AddType(schema.NewType("SearchFilter", schema.TypeKindInputObject, "").
		AddInputField(schema.NewInputValue("tag", "", schema.NamedType("String"))).
		AddInputField(schema.NewInputValue("limit", "", schema.NamedType("Int"))))
	s.AddType(schema.NewType("String", schema.TypeKindScalar, ""))
	s.AddType(schema.NewType("Int", schema.TypeKindScalar, ""))
	s.AddType(schema.NewType("Boolean", schema.TypeKindScalar, ""))
	return s
}

func mustParseQuery(t *testing.T, source string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(source)
	require.NoError(t, err)
	return doc
}

func ruleErrors(t *testing.T, source string) language.ErrorList {
	t.Helper()
	return OverlappingFieldsCanBeMerged(menagerieSchema(), mustParseQuery(t, source))
}

func errorMessages(errs language.ErrorList) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Message
	}
	return out
}

func locationLines(err *language.Error) []int {
	lines := make([]int, len(err.Locations))
	for i, loc := range err.Locations {
		lines[i] = loc.Line
	}
	return lines
}

// Pattern: Result comparison
func TestOverlappingFieldsFlatConflict(t *testing.T) {
	errs := ruleErrors(t, `{
  dog {
    fido: name
    fido: nickname
  }
}`)

	want := []string{
		`Fields "fido" conflict because name and nickname are different fields. Use different aliases on the fields to fetch both if this was intentional.`,
	}
	if diff := cmp.Diff(want, errorMessages(errs)); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []int{3, 4}, locationLines(errs[0]))
}

func TestOverlappingFieldsIdenticalSelectionsPermitted(t *testing.T) {
	for name, query := range map[string]string{
		"repeated field":        `{ dog { name name nickname } }`,
		"same alias same field": `{ dog { fido: name fido: name } }`,
		"same arguments":        `{ dog { doesKnowCommand(command: "sit") doesKnowCommand(command: "sit") } }`,
		"same variable":         `query ($cmd: String) { dog { doesKnowCommand(command: $cmd) doesKnowCommand(command: $cmd) } }`,
	} {
		t.Run(name, func(t *testing.T) {
			require.Empty(t, ruleErrors(t, query))
		})
	}
}

func TestOverlappingFieldsArgumentMismatch(t *testing.T) {
	wantMessage := []string{
		`Fields "doesKnowCommand" conflict because they have differing arguments. Use different aliases on the fields to fetch both if this was intentional.`,
	}
	for name, query := range map[string]string{
		"different values":     `{ dog { doesKnowCommand(command: "sit") doesKnowCommand(command: "down") } }`,
		"missing on one side":  `{ dog { doesKnowCommand(command: "sit") doesKnowCommand } }`,
		"different variables":  `query ($a: String, $b: String) { dog { doesKnowCommand(command: $a) doesKnowCommand(command: $b) } }`,
		"value versus variable": `query ($a: String) { dog { doesKnowCommand(command: $a) doesKnowCommand(command: "sit") } }`,
	} {
		t.Run(name, func(t *testing.T) {
			if diff := cmp.Diff(wantMessage, errorMessages(ruleErrors(t, query))); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOverlappingFieldsArgumentValueStructure(t *testing.T) {
	t.Run("object field order is irrelevant", func(t *testing.T) {
		require.Empty(t, ruleErrors(t,
			`{ dog { search(filter: {tag: "x", limit: 1}) search(filter: {limit: 1, tag: "x"}) } }`))
	})

	t.Run("list order is significant", func(t *testing.T) {
		errs := ruleErrors(t,
			`{ dog { search(filter: {tag: "x"}) search(filter: {tag: "y"}) } }`)
		require.Len(t, errs, 1)
	})
}

func TestOverlappingFieldsMutualExclusionPermitted(t *testing.T) {
	errs := ruleErrors(t, `{
  pet {
    ... on Dog { name }
    ... on Cat { name: nickname }
  }
}`)
	require.Empty(t, errs)
}

// Pattern: Result comparison
func TestOverlappingFieldsReturnTypeConflict(t *testing.T) {
	errs := ruleErrors(t, `{
  box {
    ... on IntBox { scalar }
    ... on StringBox { scalar }
  }
}`)

	want := []string{
		`Fields "scalar" conflict because they return conflicting types Int and String. Use different aliases on the fields to fetch both if this was intentional.`,
	}
	if diff := cmp.Diff(want, errorMessages(errs)); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestOverlappingFieldsWrapperShapeMismatchPermitted(t *testing.T) {
	errs := ruleErrors(t, `{
  box {
    ... on IntBox { b: listStringBox { scalar } }
    ... on StringBox { b: stringBox { scalar } }
  }
}`)
	require.Empty(t, errs)
}

func TestOverlappingFieldsNonLeafNameMismatchPermitted(t *testing.T) {
	errs := ruleErrors(t, `{
  box {
    ... on IntBox { deepBox { unrelatedField } }
    ... on StringBox { deepBox { unrelatedField } }
  }
}`)
	require.Empty(t, errs)
}

// Pattern: Result comparison
func TestOverlappingFieldsDeepLeafConflictThroughAbstract(t *testing.T) {
	errs := ruleErrors(t, `{
  box {
    ... on IntBox { deepBox { scalar } }
    ... on StringBox { deepBox { scalar } }
  }
}`)

	want := []string{
		`Fields "deepBox" conflict because subfields "scalar" conflict because they return conflicting types Int and String. Use different aliases on the fields to fetch both if this was intentional.`,
	}
	if diff := cmp.Diff(want, errorMessages(errs)); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

// Pattern: Result comparison
func TestOverlappingFieldsDeepConflictNearestAncestor(t *testing.T) {
	errs := ruleErrors(t, `{
  container {
    item {
      x: a
    }
    item {
      x: b
    }
  }
  container {
    item {
      y
    }
  }
}`)

	want := []string{
		`Fields "item" conflict because subfields "x" conflict because a and b are different fields. Use different aliases on the fields to fetch both if this was intentional.`,
	}
	if diff := cmp.Diff(want, errorMessages(errs)); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []int{3, 4, 6, 7}, locationLines(errs[0]))
}

func TestOverlappingFieldsAcrossFragments(t *testing.T) {
	errs := ruleErrors(t, `
		{ pet { ...DogName ...DogNickname } }
		fragment DogName on Dog { x: name }
		fragment DogNickname on Dog { x: nickname }
	`)

	want := []string{
		`Fields "x" conflict because name and nickname are different fields. Use different aliases on the fields to fetch both if this was intentional.`,
	}
	if diff := cmp.Diff(want, errorMessages(errs)); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestOverlappingFieldsFragmentPairComparedOnce(t *testing.T) {
	errs := ruleErrors(t, `
		{
			dog { ...DogName ...DogNickname }
			pet { ...DogName ...DogNickname }
		}
		fragment DogName on Dog { x: name }
		fragment DogNickname on Dog { x: nickname }
	`)
	require.Len(t, errs, 1)
}

func TestOverlappingFieldsRecursiveFragmentsTerminate(t *testing.T) {
	errs := ruleErrors(t, `
		{ pet { ...PetA } }
		fragment PetA on Pet { name ...PetB }
		fragment PetB on Pet { name ...PetA }
	`)
	require.Empty(t, errs)
}

func TestValidateReportsRule(t *testing.T) {
	doc := mustParseQuery(t, `{ dog { fido: name fido: nickname } }`)
	errs := Validate(menagerieSchema(), doc)

	require.Len(t, errs, 1)
	require.Equal(t, "OverlappingFieldsCanBeMerged", errs[0].Rule)
}
