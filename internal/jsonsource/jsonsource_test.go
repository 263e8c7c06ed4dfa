package jsonsource

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
  shop: Shop
  products(category: String, inStock: Boolean): [Product!]
}

type Shop {
  name: String!
  rating: Float
}

type Product implements Node {
  id: ID!
  name: String!
  category: String
  inStock: Boolean
  price: Float
}

interface Node {
  id: ID!
}
`

const testDoc = `{
  "shop": {"name": "North Store", "rating": 4.5},
  "products": [
    {"__typename": "Product", "id": "p1", "name": "Lamp", "category": "home", "inStock": true, "price": 39.9},
    {"__typename": "Product", "id": "p2", "name": "Desk", "category": "office", "inStock": false, "price": 120},
    {"__typename": "Product", "id": "p3", "name": "Mug", "category": "home", "inStock": false, "price": 8}
  ]
}`

func execute(t *testing.T, query string) (any, []executor.ExecutionError) {
	t.Helper()
	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	src, err := Parse(testDoc)
	require.NoError(t, err)
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)

	data, errs, err := executor.Execute(context.Background(), sch, &executor.Root{Query: src}, doc, "", nil, nil)
	require.NoError(t, err)
	return data, errs
}

func TestParseRejectsInvalidInput(t *testing.T) {
	_, err := Parse(`{"broken":`)
	require.Error(t, err)
	_, err = Parse(`[1, 2, 3]`)
	require.Error(t, err)
}

func TestResolveNestedObject(t *testing.T) {
	data, errs := execute(t, `{ shop { name rating } }`)
	require.Empty(t, errs)

	want := map[string]any{
		"shop": map[string]any{"name": "North Store", "rating": 4.5},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingPropertyResolvesToNull(t *testing.T) {
	src, err := Parse(`{"shop": {"name": "Empty"}}`)
	require.NoError(t, err)

	sch, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	doc, err := language.ParseQuery(`{ shop { name rating } }`)
	require.NoError(t, err)

	data, errs, err := executor.Execute(context.Background(), sch, &executor.Root{Query: src}, doc, "", nil, nil)
	require.NoError(t, err)
	require.Empty(t, errs)

	want := map[string]any{
		"shop": map[string]any{"name": "Empty", "rating": nil},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestListFilteringByArguments(t *testing.T) {
	data, errs := execute(t, `{
		products(category: "home") { id }
	}`)
	require.Empty(t, errs)

	want := map[string]any{
		"products": []any{
			map[string]any{"id": "p1"},
			map[string]any{"id": "p3"},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestListFilteringCombinesArguments(t *testing.T) {
	data, errs := execute(t, `{
		products(category: "home", inStock: false) { id name }
	}`)
	require.Empty(t, errs)

	want := map[string]any{
		"products": []any{
			map[string]any{"id": "p3", "name": "Mug"},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestUnfilteredListKeepsEveryElement(t *testing.T) {
	data, errs := execute(t, `{ products { id } }`)
	require.Empty(t, errs)

	got := data.(map[string]any)["products"].([]any)
	require.Len(t, got, 3)
}

func TestTypenameDowncast(t *testing.T) {
	src, err := Parse(testDoc)
	require.NoError(t, err)
	require.Equal(t, "", src.ConcreteTypeName(context.Background()))

	data, errs := execute(t, `{
		products(category: "office") {
			... on Node { id }
			__typename
		}
	}`)
	require.Empty(t, errs)

	want := map[string]any{
		"products": []any{
			map[string]any{"id": "p2", "__typename": "Product"},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestIntegralNumbersServeFloatFields(t *testing.T) {
	data, errs := execute(t, `{ products(category: "office") { price } }`)
	require.Empty(t, errs)

	want := map[string]any{
		"products": []any{
			map[string]any{"price": float64(120)},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}
