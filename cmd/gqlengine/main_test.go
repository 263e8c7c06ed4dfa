package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSchema = `
directive @rpc(service: String!, method: String) on FIELD_DEFINITION

type Query {
  user(id: ID!): User @rpc(service: "users", method: "GetUser")
}

type User {
  id: ID!
  name: String!
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func captureOutput(t *testing.T, fn func() error) (stdout, stderr string, err error) {
	t.Helper()
	oldOut, oldErr := os.Stdout, os.Stderr
	defer func() {
		os.Stdout, os.Stderr = oldOut, oldErr
	}()

	outR, outW, _ := os.Pipe()
	errR, errW, _ := os.Pipe()
	os.Stdout, os.Stderr = outW, errW

	doneOut := make(chan struct{})
	var bufOut bytes.Buffer
	go func() { io.Copy(&bufOut, outR); close(doneOut) }()

	doneErr := make(chan struct{})
	var bufErr bytes.Buffer
	go func() { io.Copy(&bufErr, errR); close(doneErr) }()

	err = fn()
	outW.Close()
	errW.Close()
	<-doneOut
	<-doneErr
	stdout, stderr = bufOut.String(), bufErr.String()
	return
}

func TestHelp(t *testing.T) {
	out, _, err := captureOutput(t, func() error {
		return run([]string{"help", "serve"})
	})
	require.NoError(t, err)
	require.Contains(t, out, "serve FLAGS")
}

func TestMissingCommand(t *testing.T) {
	_, stderr, err := captureOutput(t, func() error {
		return run(nil)
	})
	require.Error(t, err)
	require.Contains(t, stderr, "COMMANDS")
}

func TestCheckValidQuery(t *testing.T) {
	schemaFile := writeFile(t, "schema.graphql", testSchema)
	queryFile := writeFile(t, "query.graphql", `{ user(id: "1") { id name } }`)

	out, _, err := captureOutput(t, func() error {
		return run([]string{"check", "-schema", schemaFile, queryFile})
	})
	require.NoError(t, err)
	require.Contains(t, out, "ok")
}

func TestCheckReportsConflicts(t *testing.T) {
	schemaFile := writeFile(t, "schema.graphql", testSchema)
	queryFile := writeFile(t, "query.graphql", `{ x: user(id: "1") { id } x: user(id: "2") { id } }`)

	_, stderr, err := captureOutput(t, func() error {
		return run([]string{"check", "-schema", schemaFile, queryFile})
	})
	require.Error(t, err)
	require.Contains(t, stderr, queryFile)
}

func TestCheckBadSchema(t *testing.T) {
	schemaFile := writeFile(t, "schema.graphql", `type Query {`)

	_, _, err := captureOutput(t, func() error {
		return run([]string{"check", "-schema", schemaFile})
	})
	require.Error(t, err)
}

func TestPrintSchema(t *testing.T) {
	schemaFile := writeFile(t, "schema.graphql", testSchema)

	out, _, err := captureOutput(t, func() error {
		return run([]string{"print-schema", "-schema", schemaFile})
	})
	require.NoError(t, err)
	require.Contains(t, out, "type Query")
	require.Contains(t, out, "type User")
}

func TestPrintProto(t *testing.T) {
	schemaFile := writeFile(t, "schema.graphql", testSchema)
	outDir := t.TempDir()

	err := run([]string{"print-proto", "-schema", schemaFile, "-out", outDir})
	require.NoError(t, err)

	types, err := os.ReadFile(filepath.Join(outDir, "types.proto"))
	require.NoError(t, err)
	require.Contains(t, string(types), "message UserSource")

	users, err := os.ReadFile(filepath.Join(outDir, "users.proto"))
	require.NoError(t, err)
	require.Contains(t, string(users), "service UsersService")
	require.Contains(t, string(users), "rpc GetUser")
}

func TestServeRequiresSource(t *testing.T) {
	schemaFile := writeFile(t, "schema.graphql", testSchema)

	_, _, err := captureOutput(t, func() error {
		return run([]string{"serve", "-schema", schemaFile})
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "-data")
}
