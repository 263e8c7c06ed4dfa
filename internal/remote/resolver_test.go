package remote

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/language"
)

type fakeCall struct {
	method  protoreflect.MethodDescriptor
	request protoreflect.Message
}

type fakeTransport struct {
	calls   []fakeCall
	handler func(md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error)
}

func (f *fakeTransport) Call(ctx context.Context, md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error) {
	f.calls = append(f.calls, fakeCall{method: md, request: req})
	return f.handler(md, req)
}

func mustParseQuery(t *testing.T, query string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	return doc
}

func setField(t *testing.T, msg *dynamicpb.Message, name string, v protoreflect.Value) {
	t.Helper()
	fd := msg.Descriptor().Fields().ByName(protoreflect.Name(name))
	require.NotNil(t, fd, "field %s not found on %s", name, msg.Descriptor().FullName())
	msg.Set(fd, v)
}

func newData(t *testing.T, md protoreflect.MethodDescriptor) (*dynamicpb.Message, protoreflect.FieldDescriptor) {
	t.Helper()
	resp := dynamicpb.NewMessage(md.Output())
	dataFD := md.Output().Fields().ByName("data")
	require.NotNil(t, dataFD)
	return resp, dataFD
}

func newProduct(t *testing.T, desc protoreflect.MessageDescriptor) *dynamicpb.Message {
	t.Helper()
	src := dynamicpb.NewMessage(desc)
	setField(t, src, "id", protoreflect.ValueOfString("p1"))
	setField(t, src, "name", protoreflect.ValueOfString("Widget"))
	setField(t, src, "unit_price", protoreflect.ValueOfFloat64(9.5))

	statusFD := desc.Fields().ByName("status")
	inStock := statusFD.Enum().Values().ByName("STATUS_IN_STOCK")
	require.NotNil(t, inStock)
	src.Set(statusFD, protoreflect.ValueOfEnum(inStock.Number()))

	tagsFD := desc.Fields().ByName("tags")
	tags := src.Mutable(tagsFD).List()
	tags.Append(protoreflect.ValueOfString("a"))
	tags.Append(protoreflect.ValueOfString("b"))
	return src
}

func TestResolveBoundRootField(t *testing.T) {
	s, reg := buildTestRegistry(t)

	tp := &fakeTransport{handler: func(md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error) {
		resp, dataFD := newData(t, md)
		resp.Set(dataFD, protoreflect.ValueOfMessage(newProduct(t, dataFD.Message())))
		return resp, nil
	}}
	root := &executor.Root{Query: NewRoot(reg, tp, "Query")}

	doc := mustParseQuery(t, `{ product(id: "p1") { id name unitPrice status tags } }`)
	data, errs, err := executor.Execute(context.Background(), s, root, doc, "", nil, nil)
	require.NoError(t, err)
	require.Empty(t, errs)

	want := map[string]any{
		"product": map[string]any{
			"id":        "p1",
			"name":      "Widget",
			"unitPrice": 9.5,
			"status":    "IN_STOCK",
			"tags":      []any{"a", "b"},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, tp.calls, 1)
	call := tp.calls[0]
	require.Equal(t, protoreflect.Name("GetProduct"), call.method.Name())
	idFD := call.request.Descriptor().Fields().ByName("id")
	require.Equal(t, "p1", call.request.Get(idFD).String())
}

func TestNestedBoundFieldCarriesSource(t *testing.T) {
	s, reg := buildTestRegistry(t)

	tp := &fakeTransport{}
	tp.handler = func(md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error) {
		resp, dataFD := newData(t, md)
		switch md.Name() {
		case "GetProduct":
			resp.Set(dataFD, protoreflect.ValueOfMessage(newProduct(t, dataFD.Message())))
		case "ResolveProductReviews":
			list := resp.Mutable(dataFD).List()

			first := dynamicpb.NewMessage(dataFD.Message())
			setField(t, first, "rating", protoreflect.ValueOfInt64(5))
			setField(t, first, "body", protoreflect.ValueOfString("great"))
			list.Append(protoreflect.ValueOfMessage(first))

			second := dynamicpb.NewMessage(dataFD.Message())
			setField(t, second, "rating", protoreflect.ValueOfInt64(2))
			list.Append(protoreflect.ValueOfMessage(second))
		default:
			t.Fatalf("unexpected method %s", md.Name())
		}
		return resp, nil
	}
	root := &executor.Root{Query: NewRoot(reg, tp, "Query")}

	doc := mustParseQuery(t, `{ product(id: "p1") { name reviews(minRating: 3) { rating body } } }`)
	data, errs, err := executor.Execute(context.Background(), s, root, doc, "", nil, nil)
	require.NoError(t, err)
	require.Empty(t, errs)

	want := map[string]any{
		"product": map[string]any{
			"name": "Widget",
			"reviews": []any{
				map[string]any{"rating": 5, "body": "great"},
				map[string]any{"rating": 2, "body": nil},
			},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, tp.calls, 2)
	req := tp.calls[1].request
	minFD := req.Descriptor().Fields().ByName("min_rating")
	require.NotNil(t, minFD)
	require.EqualValues(t, 3, req.Get(minFD).Int())

	sourceFD := req.Descriptor().Fields().ByName("source")
	require.NotNil(t, sourceFD)
	require.True(t, req.Has(sourceFD))
	source := req.Get(sourceFD).Message()
	nameFD := source.Descriptor().Fields().ByName("name")
	require.Equal(t, "Widget", source.Get(nameFD).String())
}

func TestTransportErrorBecomesFieldError(t *testing.T) {
	s, reg := buildTestRegistry(t)

	tp := &fakeTransport{handler: func(md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error) {
		return nil, errors.New("backend down")
	}}
	root := &executor.Root{Query: NewRoot(reg, tp, "Query")}

	doc := mustParseQuery(t, `{ product(id: "p1") { name } }`)
	data, errs, err := executor.Execute(context.Background(), s, root, doc, "", nil, nil)
	require.NoError(t, err)

	want := map[string]any{"product": nil}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, errs, 1)
	require.Equal(t, []string{"product"}, errs[0].Path)
	require.Contains(t, errs[0].Message, "backend down")
}

func TestUnionEnvelopeDowncast(t *testing.T) {
	s, reg := buildTestRegistry(t)

	tp := &fakeTransport{handler: func(md protoreflect.MethodDescriptor, req protoreflect.Message) (protoreflect.Message, error) {
		resp, dataFD := newData(t, md)
		envDesc := dataFD.Message()
		list := resp.Mutable(dataFD).List()

		productEnv := dynamicpb.NewMessage(envDesc)
		productFD := envDesc.Fields().ByName("product")
		product := dynamicpb.NewMessage(productFD.Message())
		setField(t, product, "name", protoreflect.ValueOfString("Widget"))
		productEnv.Set(productFD, protoreflect.ValueOfMessage(product))
		list.Append(protoreflect.ValueOfMessage(productEnv))

		reviewEnv := dynamicpb.NewMessage(envDesc)
		reviewFD := envDesc.Fields().ByName("review")
		review := dynamicpb.NewMessage(reviewFD.Message())
		setField(t, review, "rating", protoreflect.ValueOfInt64(4))
		reviewEnv.Set(reviewFD, protoreflect.ValueOfMessage(review))
		list.Append(protoreflect.ValueOfMessage(reviewEnv))

		return resp, nil
	}}
	root := &executor.Root{Query: NewRoot(reg, tp, "Query")}

	doc := mustParseQuery(t, `{
	  search(term: "w") {
	    __typename
	    ... on Product { name }
	    ... on Review { rating }
	  }
	}`)
	data, errs, err := executor.Execute(context.Background(), s, root, doc, "", nil, nil)
	require.NoError(t, err)
	require.Empty(t, errs)

	want := map[string]any{
		"search": []any{
			map[string]any{"__typename": "Product", "name": "Widget"},
			map[string]any{"__typename": "Review", "rating": 4},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestUnboundFieldsReadFromSource(t *testing.T) {
	_, reg := buildTestRegistry(t)

	src := newProduct(t, reg.SourceMessage("Product"))
	r := &Resolver{reg: reg, typeName: "Product", source: src}

	v, err := r.ResolveField(context.Background(), nil, "name", nil)
	require.NoError(t, err)
	require.Equal(t, "Widget", v)

	// Absent optional fields resolve as null.
	bare := dynamicpb.NewMessage(reg.SourceMessage("Product"))
	r = &Resolver{reg: reg, typeName: "Product", source: bare}
	v, err = r.ResolveField(context.Background(), nil, "unitPrice", nil)
	require.NoError(t, err)
	require.Nil(t, v)

	// Fields with neither a binding nor a source column are an error.
	_, err = r.ResolveField(context.Background(), nil, "nope", nil)
	require.Error(t, err)
}

func TestStaticEndpoints(t *testing.T) {
	p := NewStaticEndpoints(map[string][]string{
		"inventory.InventoryService": {"localhost:7001"},
	})

	eps, err := p.Endpoints(context.Background(), "inventory.InventoryService")
	require.NoError(t, err)
	require.Equal(t, []string{"localhost:7001"}, eps)

	_, err = p.Endpoints(context.Background(), "reviews.ReviewsService")
	require.ErrorIs(t, err, ErrNoEndpoints)
}
