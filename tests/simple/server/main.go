// A runnable demo endpoint backed by an in-memory JSON document.
// Start it and open http://localhost:8080/graphql in a browser.
package main

import (
	"flag"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/jsonsource"
	"github.com/hanpama/gqlengine/internal/logging"
	"github.com/hanpama/gqlengine/internal/schema"
	"github.com/hanpama/gqlengine/internal/server"
)

const sdl = `
interface Node {
  id: ID!
}

type Query {
  users(isActive: Boolean): [User!]!
  organizations: [Organization!]!
}

type User implements Node {
  id: ID!
  email: String!
  name: String!
  age: Int
  isActive: Boolean!
  organization: Organization
  posts: [Post!]
}

type Organization implements Node {
  id: ID!
  name: String!
  description: String
}

type Post implements Node {
  id: ID!
  title: String!
  content: String!
  published: Boolean!
}
`

const dataset = `{
  "users": [
    {
      "__typename": "User",
      "id": "user-1",
      "email": "john@example.com",
      "name": "John Doe",
      "age": 30,
      "isActive": true,
      "organization": {"__typename": "Organization", "id": "org-1", "name": "Tech Corp", "description": "A technology company"},
      "posts": [
        {"__typename": "Post", "id": "post-1", "title": "Getting Started with Go", "content": "Go is a statically typed, compiled programming language...", "published": true},
        {"__typename": "Post", "id": "post-3", "title": "Draft Post", "content": "This is a draft post...", "published": false}
      ]
    },
    {
      "__typename": "User",
      "id": "user-2",
      "email": "jane@example.com",
      "name": "Jane Smith",
      "age": 28,
      "isActive": true,
      "organization": {"__typename": "Organization", "id": "org-1", "name": "Tech Corp", "description": "A technology company"},
      "posts": [
        {"__typename": "Post", "id": "post-2", "title": "GraphQL Best Practices", "content": "When designing GraphQL APIs, consider these best practices...", "published": true}
      ]
    },
    {
      "__typename": "User",
      "id": "user-3",
      "email": "bob@example.com",
      "name": "Bob Johnson",
      "age": 35,
      "isActive": false,
      "organization": {"__typename": "Organization", "id": "org-2", "name": "Design Studio", "description": "Creative design agency"},
      "posts": []
    }
  ],
  "organizations": [
    {"__typename": "Organization", "id": "org-1", "name": "Tech Corp", "description": "A technology company"},
    {"__typename": "Organization", "id": "org-2", "name": "Design Studio", "description": "Creative design agency"}
  ]
}`

func main() {
	addr := flag.String("addr", ":8080", "the address to listen on")
	flag.Parse()

	sch, err := schema.BuildFromSDL(sdl)
	if err != nil {
		log.Fatalf("build schema: %v", err)
	}
	src, err := jsonsource.Parse(dataset)
	if err != nil {
		log.Fatalf("parse dataset: %v", err)
	}

	eventbus.Use(eventbus.New())
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	defer logging.Attach(logger)()

	h, err := server.New(sch, &executor.Root{Query: src}, server.WithPretty())
	if err != nil {
		log.Fatalf("server init: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)

	logger.Info("demo GraphQL server listening", zap.String("addr", *addr))
	log.Fatal(http.ListenAndServe(*addr, mux))
}
