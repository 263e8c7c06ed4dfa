package introspection

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/schema"
)

const testSDL = `
type Query {
  hero(episode: Episode = NEWHOPE): Character
  oldHero: Character @deprecated(reason: "use hero")
}

interface Character {
  name: String!
}

type Human implements Character {
  name: String!
  height: Float
}

type Droid implements Character {
  name: String!
  primaryFunction: String
}

enum Episode {
  NEWHOPE
  EMPIRE
  JEDI
}
`

type resolverFunc func(ctx context.Context, ex *executor.Executor, field string, args map[string]any) (any, error)

func (f resolverFunc) ResolveField(ctx context.Context, ex *executor.Executor, field string, args map[string]any) (any, error) {
	return f(ctx, ex, field, args)
}

func mustBuildSchema(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	return sch
}

func mustParseQuery(t *testing.T, query string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	return doc
}

func execute(t *testing.T, sch *schema.Schema, root *executor.Root, query string) any {
	t.Helper()
	doc := mustParseQuery(t, query)
	data, errs, err := executor.Execute(context.Background(), sch, root, doc, "", nil, nil)
	require.NoError(t, err)
	require.Empty(t, errs)
	return data
}

func TestSchemaQuery(t *testing.T) {
	sch, root := Wrap(mustBuildSchema(t), nil)

	data := execute(t, sch, root, `{
		__schema {
			queryType { name }
			mutationType { name }
			subscriptionType { name }
		}
	}`)

	want := map[string]any{
		"__schema": map[string]any{
			"queryType":        map[string]any{"name": "Query"},
			"mutationType":     nil,
			"subscriptionType": nil,
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeQuery(t *testing.T) {
	sch, root := Wrap(mustBuildSchema(t), nil)

	data := execute(t, sch, root, `{
		__type(name: "Human") {
			kind
			name
			interfaces { name }
			fields { name }
		}
	}`)

	want := map[string]any{
		"__type": map[string]any{
			"kind": "OBJECT",
			"name": "Human",
			"interfaces": []any{
				map[string]any{"name": "Character"},
			},
			"fields": []any{
				map[string]any{"name": "name"},
				map[string]any{"name": "height"},
			},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeQueryUnknownNameIsNull(t *testing.T) {
	sch, root := Wrap(mustBuildSchema(t), nil)

	data := execute(t, sch, root, `{ __type(name: "Nope") { name } }`)

	want := map[string]any{"__type": nil}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestWrappingTypeRefs(t *testing.T) {
	sch, root := Wrap(mustBuildSchema(t), nil)

	data := execute(t, sch, root, `{
		__type(name: "Character") {
			fields {
				name
				type { kind name ofType { kind name } }
			}
		}
	}`)

	want := map[string]any{
		"__type": map[string]any{
			"fields": []any{
				map[string]any{
					"name": "name",
					"type": map[string]any{
						"kind": "NON_NULL",
						"name": nil,
						"ofType": map[string]any{
							"kind": "SCALAR",
							"name": "String",
						},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestDeprecatedFieldsFiltered(t *testing.T) {
	sch, root := Wrap(mustBuildSchema(t), nil)

	data := execute(t, sch, root, `{
		hidden: __type(name: "Query") { fields { name } }
		shown: __type(name: "Query") {
			fields(includeDeprecated: true) { name deprecationReason }
		}
	}`)

	want := map[string]any{
		"hidden": map[string]any{
			"fields": []any{
				map[string]any{"name": "hero"},
			},
		},
		"shown": map[string]any{
			"fields": []any{
				map[string]any{"name": "hero", "deprecationReason": nil},
				map[string]any{"name": "oldHero", "deprecationReason": "use hero"},
			},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumValuesAndArgDefaults(t *testing.T) {
	sch, root := Wrap(mustBuildSchema(t), nil)

	data := execute(t, sch, root, `{
		__type(name: "Query") {
			fields {
				args { name defaultValue }
			}
		}
		episode: __type(name: "Episode") {
			enumValues { name }
		}
	}`)

	want := map[string]any{
		"__type": map[string]any{
			"fields": []any{
				map[string]any{
					"args": []any{
						map[string]any{"name": "episode", "defaultValue": "NEWHOPE"},
					},
				},
			},
		},
		"episode": map[string]any{
			"enumValues": []any{
				map[string]any{"name": "NEWHOPE"},
				map[string]any{"name": "EMPIRE"},
				map[string]any{"name": "JEDI"},
			},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestDelegatesNonMetaFields(t *testing.T) {
	base := &executor.Root{
		Query: resolverFunc(func(ctx context.Context, ex *executor.Executor, field string, args map[string]any) (any, error) {
			require.Equal(t, "hero", field)
			return map[string]any{"__typename": "Human", "name": "Luke"}, nil
		}),
	}
	sch, root := Wrap(mustBuildSchema(t), base)

	data := execute(t, sch, root, `{
		hero { name }
		__schema { queryType { name } }
	}`)

	want := map[string]any{
		"hero":     map[string]any{"name": "Luke"},
		"__schema": map[string]any{"queryType": map[string]any{"name": "Query"}},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}
