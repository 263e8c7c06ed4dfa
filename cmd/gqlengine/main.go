package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/jsonsource"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/logging"
	"github.com/hanpama/gqlengine/internal/otel"
	"github.com/hanpama/gqlengine/internal/remote"
	"github.com/hanpama/gqlengine/internal/schema"
	"github.com/hanpama/gqlengine/internal/server"
	"github.com/hanpama/gqlengine/internal/validation"
)

const rootUsage = `gqlengine — GraphQL execution engine & tools

USAGE:
  gqlengine <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL endpoint for a schema
  check            Validate a schema, and optionally query documents
  print-schema     Print the canonical SDL rendering of a schema
  print-proto      Generate backend .proto contracts from @rpc bindings
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -schema <file>                      GraphQL SDL file (required)
  -data <file>                        Serve queries from a JSON document
  -backend <Svc=host:port>            Map a bound service to an endpoint. Repeatable;
                                      use a wildcard to set a default:
                                        -backend *=host:port
                                      Specific mappings override the wildcard.
  -addr <addr>                        HTTP listen address (default: :8080)
  -pretty                             Pretty-print JSON responses
  -graphiql <bool>                    Serve the GraphiQL IDE (default: true)
  -timeout <duration>                 Per-request timeout, e.g. 10s (default: 10s)
  -cache-size <n>                     Parsed document cache size (default: 1024)
  -max-conns-per-endpoint <n>         Max TCP conns per backend endpoint (default: 2)
  -rpc-timeout <duration>             Backend RPC timeout, e.g. 3s (default: 3s)
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: gqlengine)
  -log.level <level>                  Log level: debug, info, warn, error (default: info)
`

const checkUsage = `check FLAGS:
  -schema <file>   GraphQL SDL file (required)
  [query files...] Optional query documents to validate against the schema
  (Exits non-zero on any parse or validation error)
`

const printSchemaUsage = `print-schema FLAGS:
  -schema <file>   GraphQL SDL file (required)
  -out <file>      Write the rendered SDL to a file (default: stdout)
`

const printProtoUsage = `print-proto FLAGS:
  -schema <file>   GraphQL SDL file (required)
  -out <dir>       Output directory for generated .proto files (required)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("gqlengine", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "check":
		return cmdCheck(cmdArgs)
	case "print-schema":
		return cmdPrintSchema(cmdArgs)
	case "print-proto":
		return cmdPrintProto(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "check":
		fmt.Print(checkUsage)
	case "print-schema":
		fmt.Print(printSchemaUsage)
	case "print-proto":
		fmt.Print(printProtoUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type backendFlag struct {
	m map[string][]string
}

func (b *backendFlag) String() string { return "" }

func (b *backendFlag) Set(v string) error {
	parts := strings.SplitN(v, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid backend %q", v)
	}
	svc := strings.TrimSpace(parts[0])
	ep := strings.TrimSpace(parts[1])
	if svc == "" || ep == "" {
		return fmt.Errorf("invalid backend %q", v)
	}
	if b.m == nil {
		b.m = map[string][]string{}
	}
	b.m[svc] = append(b.m[svc], ep)
	return nil
}

func loadSchemaFile(path string) (*schema.Schema, error) {
	sdl, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	sch, err := schema.BuildFromSDL(string(sdl))
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return sch, nil
}

func cmdServe(args []string) error {
	schemaFile := ""
	dataFile := ""
	addr := ":8080"
	pretty := false
	graphiql := true
	timeout := 10 * time.Second
	cacheSize := 1024
	maxConns := 2
	rpcTimeout := 3 * time.Second
	otelEndpoint := ""
	otelService := "gqlengine"
	logLevel := "info"
	var bf backendFlag

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	fs.StringVar(&dataFile, "data", dataFile, "Serve queries from a JSON document")
	fs.Var(&bf, "backend", "Map a bound service to an endpoint")
	fs.StringVar(&addr, "addr", addr, "HTTP listen address")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print JSON responses")
	fs.BoolVar(&graphiql, "graphiql", graphiql, "Serve the GraphiQL IDE")
	fs.DurationVar(&timeout, "timeout", timeout, "Per-request timeout")
	fs.IntVar(&cacheSize, "cache-size", cacheSize, "Parsed document cache size")
	fs.IntVar(&maxConns, "max-conns-per-endpoint", maxConns, "Max conns per endpoint")
	fs.DurationVar(&rpcTimeout, "rpc-timeout", rpcTimeout, "Backend RPC timeout")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("-schema is required")
	}
	if dataFile == "" && bf.m == nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("either -data or at least one -backend is required")
	}

	sch, err := loadSchemaFile(schemaFile)
	if err != nil {
		return err
	}

	root, err := buildRoot(sch, dataFile, bf.m, maxConns, rpcTimeout)
	if err != nil {
		return err
	}

	eventbus.Use(eventbus.New())

	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	detach := logging.Attach(logger)
	defer detach()

	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	sopts := []server.Option{server.WithGraphiQL(graphiql), server.WithCacheSize(cacheSize)}
	if pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if timeout > 0 {
		sopts = append(sopts, server.WithTimeout(timeout))
	}
	h, err := server.New(sch, root, sopts...)
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)

	logger.Info("GraphQL server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}

// buildRoot wires the operation roots from either a JSON document or
// the schema's @rpc bindings.
func buildRoot(sch *schema.Schema, dataFile string, backends map[string][]string, maxConns int, rpcTimeout time.Duration) (*executor.Root, error) {
	if dataFile != "" {
		doc, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}
		src, err := jsonsource.Parse(string(doc))
		if err != nil {
			return nil, fmt.Errorf("parse data: %w", err)
		}
		return &executor.Root{Query: src}, nil
	}

	bindings, err := remote.BindingsFromSchema(sch)
	if err != nil {
		return nil, err
	}
	if len(bindings) == 0 {
		return nil, fmt.Errorf("schema has no @%s bindings; nothing to serve", remote.DirectiveName)
	}
	reg, err := remote.BuildRegistry(sch, bindings)
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}

	wildcard := backends["*"]
	providers := map[string][]string{}
	for bindingName, fullName := range reg.Services() {
		eps := backends[bindingName]
		if len(eps) == 0 {
			eps = backends[string(fullName)]
		}
		if len(eps) == 0 {
			eps = wildcard
		}
		if len(eps) == 0 {
			return nil, fmt.Errorf("no backend mapping for %s", bindingName)
		}
		providers[string(fullName)] = eps
	}

	transport := remote.NewTransport(
		remote.WithProvider(remote.NewStaticEndpoints(providers)),
		remote.WithMaxConnsPerEndpoint(maxConns),
		remote.WithRPCTimeout(rpcTimeout),
	)

	root := &executor.Root{Query: remote.NewRoot(reg, transport, sch.QueryType)}
	if sch.MutationType != "" {
		root.Mutation = remote.NewRoot(reg, transport, sch.MutationType)
	}
	return root, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func cmdCheck(args []string) error {
	schemaFile := ""
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, checkUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, checkUsage)
		return fmt.Errorf("-schema is required")
	}

	sch, err := loadSchemaFile(schemaFile)
	if err != nil {
		return err
	}

	failed := false
	for _, queryFile := range fs.Args() {
		src, err := os.ReadFile(queryFile)
		if err != nil {
			return fmt.Errorf("read query: %w", err)
		}
		doc, err := language.ParseQuery(string(src))
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", queryFile, err)
			failed = true
			continue
		}
		for _, verr := range validation.Validate(sch, doc) {
			fmt.Fprintf(os.Stderr, "%s: %v\n", queryFile, verr)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("validation failed")
	}
	fmt.Println("ok")
	return nil
}

func cmdPrintSchema(args []string) error {
	schemaFile := ""
	outFile := ""
	fs := flag.NewFlagSet("print-schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	fs.StringVar(&outFile, "out", outFile, "Write the rendered SDL to a file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, printSchemaUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, printSchemaUsage)
		return fmt.Errorf("-schema is required")
	}

	sch, err := loadSchemaFile(schemaFile)
	if err != nil {
		return err
	}
	sdl := schema.Render(sch)
	if outFile == "" {
		fmt.Print(sdl)
		return nil
	}
	return os.WriteFile(outFile, []byte(sdl), 0644)
}

func cmdPrintProto(args []string) error {
	schemaFile := ""
	outDir := ""
	fs := flag.NewFlagSet("print-proto", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "GraphQL SDL file")
	fs.StringVar(&outDir, "out", outDir, "Output directory for generated .proto files")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, printProtoUsage)
		return err
	}
	if schemaFile == "" || outDir == "" {
		fmt.Fprint(os.Stderr, printProtoUsage)
		return fmt.Errorf("-schema and -out are required")
	}

	sch, err := loadSchemaFile(schemaFile)
	if err != nil {
		return err
	}
	bindings, err := remote.BindingsFromSchema(sch)
	if err != nil {
		return err
	}
	reg, err := remote.BuildRegistry(sch, bindings)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}
	if err := remote.Render(reg, outDir); err != nil {
		return fmt.Errorf("render proto: %w", err)
	}
	return nil
}
