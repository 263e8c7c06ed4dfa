package remote

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/hanpama/gqlengine/internal/schema"
)

const testSDL = `
directive @rpc(service: String!, method: String) on FIELD_DEFINITION

type Query {
  product(id: ID!): Product @rpc(service: "inventory", method: "GetProduct")
  search(term: String!): [SearchResult!]! @rpc(service: "inventory")
}

type Product {
  id: ID!
  name: String!
  unitPrice: Float
  status: Status
  tags: [String!]
  reviews(minRating: Int): [Review!] @rpc(service: "reviews")
}

type Review {
  rating: Int!
  body: String
}

union SearchResult = Product | Review

enum Status {
  IN_STOCK
  SOLD_OUT
}
`

func buildTestRegistry(t *testing.T) (*schema.Schema, *Registry) {
	t.Helper()
	s, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)
	bindings, err := BindingsFromSchema(s)
	require.NoError(t, err)
	reg, err := BuildRegistry(s, bindings)
	require.NoError(t, err)
	return s, reg
}

func TestBindingsFromSchema(t *testing.T) {
	s, err := schema.BuildFromSDL(testSDL)
	require.NoError(t, err)

	bindings, err := BindingsFromSchema(s)
	require.NoError(t, err)
	require.Equal(t, map[FieldKey]Binding{
		{"Query", "product"}:   {Service: "inventory", Method: "GetProduct"},
		{"Query", "search"}:    {Service: "inventory"},
		{"Product", "reviews"}: {Service: "reviews"},
	}, bindings)
}

func TestBindingsRequireService(t *testing.T) {
	s, err := schema.BuildFromSDL(`
directive @rpc(service: String, method: String) on FIELD_DEFINITION
type Query { a: String @rpc(method: "GetA") }
`)
	require.NoError(t, err)

	_, err = BindingsFromSchema(s)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Query.a")
}

func TestRegistryFiles(t *testing.T) {
	_, reg := buildTestRegistry(t)

	files := reg.Files()
	require.Len(t, files, 3)
	require.Equal(t, "types.proto", files[0].Path())
	require.Equal(t, "inventory.proto", files[1].Path())
	require.Equal(t, "reviews.proto", files[2].Path())
}

func TestRegistrySourceMessages(t *testing.T) {
	_, reg := buildTestRegistry(t)

	product := reg.SourceMessage("Product")
	require.NotNil(t, product)
	require.Equal(t, protoreflect.Name("ProductSource"), product.Name())

	fields := product.Fields()
	names := make([]string, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		names[i] = string(fields.Get(i).Name())
	}
	require.ElementsMatch(t, []string{"id", "name", "unit_price", "status", "tags"}, names)

	// The bound field stays out of the source message.
	require.Nil(t, fields.ByName("reviews"))

	price := reg.SourceField("Product", "unitPrice")
	require.NotNil(t, price)
	require.Equal(t, "unitPrice", price.JSONName())
	require.Equal(t, protoreflect.DoubleKind, price.Kind())
	require.True(t, price.HasPresence())

	tags := reg.SourceField("Product", "tags")
	require.NotNil(t, tags)
	require.True(t, tags.IsList())
	require.Equal(t, protoreflect.StringKind, tags.Kind())

	// Root types carry no source message.
	require.Nil(t, reg.SourceMessage("Query"))
}

func TestRegistryUnionEnvelope(t *testing.T) {
	_, reg := buildTestRegistry(t)

	env := reg.SourceMessage("SearchResult")
	require.NotNil(t, env)
	require.Equal(t, 1, env.Oneofs().Len())

	oneof := env.Oneofs().Get(0)
	require.Equal(t, protoreflect.Name("value"), oneof.Name())

	choices := oneof.Fields()
	names := make([]string, choices.Len())
	for i := 0; i < choices.Len(); i++ {
		names[i] = string(choices.Get(i).Name())
		require.Equal(t, protoreflect.MessageKind, choices.Get(i).Kind())
	}
	require.ElementsMatch(t, []string{"product", "review"}, names)
}

func TestRegistryEnum(t *testing.T) {
	_, reg := buildTestRegistry(t)

	status := reg.SourceField("Product", "status")
	require.NotNil(t, status)
	require.Equal(t, protoreflect.EnumKind, status.Kind())

	ed := status.Enum()
	require.Equal(t, protoreflect.Name("StatusSource"), ed.Name())

	zero := ed.Values().ByNumber(0)
	require.NotNil(t, zero)
	require.Equal(t, protoreflect.Name("STATUS_UNSPECIFIED"), zero.Name())

	inStock := ed.Values().ByName("STATUS_IN_STOCK")
	require.NotNil(t, inStock)
	require.NotZero(t, inStock.Number())

	soldOut := ed.Values().ByName("STATUS_SOLD_OUT")
	require.NotNil(t, soldOut)
	require.NotEqual(t, inStock.Number(), soldOut.Number())
}

func TestRegistryMethods(t *testing.T) {
	_, reg := buildTestRegistry(t)

	getProduct := reg.Method("Query", "product")
	require.NotNil(t, getProduct)
	require.Equal(t, protoreflect.Name("GetProduct"), getProduct.Name())
	require.Equal(t, protoreflect.FullName("inventory.InventoryService"), getProduct.Parent().FullName())

	// Root requests carry the arguments but no source field.
	in := getProduct.Input()
	require.Equal(t, protoreflect.Name("GetProductRequest"), in.Name())
	require.NotNil(t, in.Fields().ByName("id"))
	require.Nil(t, in.Fields().ByName("source"))

	out := getProduct.Output()
	data := out.Fields().ByName("data")
	require.NotNil(t, data)
	require.Equal(t, protoreflect.FieldNumber(1), data.Number())
	require.Equal(t, protoreflect.MessageKind, data.Kind())
	require.Equal(t, protoreflect.Name("ProductSource"), data.Message().Name())

	// A binding without a method gets the derived name.
	search := reg.Method("Query", "search")
	require.NotNil(t, search)
	require.Equal(t, protoreflect.Name("ResolveQuerySearch"), search.Name())
	require.True(t, search.Output().Fields().ByName("data").IsList())

	// Non-root requests carry the parent source message.
	reviews := reg.Method("Product", "reviews")
	require.NotNil(t, reviews)
	require.Equal(t, protoreflect.FullName("reviews.ReviewsService"), reviews.Parent().FullName())
	require.NotNil(t, reviews.Input().Fields().ByName("min_rating"))
	source := reviews.Input().Fields().ByName("source")
	require.NotNil(t, source)
	require.Equal(t, protoreflect.Name("ProductSource"), source.Message().Name())
}

func TestRegistrySharesDescriptorsAcrossFiles(t *testing.T) {
	_, reg := buildTestRegistry(t)

	product := reg.SourceMessage("Product")

	// Every reference to a shared message must resolve to the same
	// descriptor instance, whichever service file it comes from.
	data := reg.Method("Query", "product").Output().Fields().ByName("data")
	require.Same(t, product, data.Message())

	source := reg.Method("Product", "reviews").Input().Fields().ByName("source")
	require.Same(t, product, source.Message())

	require.Same(t, product.ParentFile(), reg.Files()[0])
}

func TestRegistryServiceNames(t *testing.T) {
	_, reg := buildTestRegistry(t)

	fn, ok := reg.ServiceName("inventory")
	require.True(t, ok)
	require.Equal(t, protoreflect.FullName("inventory.InventoryService"), fn)

	_, ok = reg.ServiceName("unknown")
	require.False(t, ok)

	require.Len(t, reg.Services(), 2)
}

func TestFieldNumbersStayOutOfReservedRange(t *testing.T) {
	_, reg := buildTestRegistry(t)

	for _, fd := range reg.Files() {
		messages := fd.Messages()
		for i := 0; i < messages.Len(); i++ {
			fields := messages.Get(i).Fields()
			for j := 0; j < fields.Len(); j++ {
				n := int(fields.Get(j).Number())
				require.GreaterOrEqual(t, n, 1)
				require.False(t, n >= 19000 && n <= 19999, "field %s uses a reserved number", fields.Get(j).FullName())
			}
		}
	}
}
