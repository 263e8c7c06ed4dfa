package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/gqlengine/internal/eventbus"
	"github.com/hanpama/gqlengine/internal/events"
	"github.com/hanpama/gqlengine/internal/executor"
	"github.com/hanpama/gqlengine/internal/introspection"
	"github.com/hanpama/gqlengine/internal/language"
	"github.com/hanpama/gqlengine/internal/reqid"
	"github.com/hanpama/gqlengine/internal/schema"
	"github.com/hanpama/gqlengine/internal/validation"
)

// Handler is an http.Handler that serves a GraphQL endpoint.
// It parses requests, runs the engine, and formats responses per
// GraphQL over HTTP conventions. Subscriptions are not served over
// plain HTTP.
type Handler struct {
	sch   *schema.Schema
	root  *executor.Root
	opt   Options
	cache *lru.Cache[uint64, *cacheEntry]
}

// cacheEntry holds a parsed document together with its validation
// verdict, keyed by the query hash.
type cacheEntry struct {
	doc  *language.QueryDocument
	errs language.ErrorList
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	// GraphiQL enables the in-browser IDE when true.
	GraphiQL bool

	// SkipValidation executes documents without running the validation
	// rules first.
	SkipValidation bool

	// CacheSize is the number of parsed documents kept in memory.
	CacheSize int
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}
func WithGraphiQL(enable bool) Option { return func(o *Options) { o.GraphiQL = enable } }
func WithoutValidation() Option       { return func(o *Options) { o.SkipValidation = true } }
func WithCacheSize(n int) Option      { return func(o *Options) { o.CacheSize = n } }

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a GraphQL HTTP handler serving the schema with the given
// root resolvers. The schema and root are wrapped so introspection
// queries answer from the handler's own type system.
func New(sch *schema.Schema, root *executor.Root, opts ...Option) (*Handler, error) {
	op := Options{Timeout: 10 * time.Second, GraphiQL: true, CacheSize: 1024}
	for _, f := range opts {
		f(&op)
	}
	wrappedSchema, wrappedRoot := introspection.Wrap(sch, root)
	cache, err := lru.New[uint64, *cacheEntry](op.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Handler{sch: wrappedSchema, root: wrappedRoot, opt: op, cache: cache}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, _ = reqid.NewContext(ctx)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse(nil, &language.Error{Message: "method not allowed"}), h.opt.Pretty)
		return
	}

	// Serve GraphiQL IDE when enabled and the client expects HTML.
	if r.Method == http.MethodGet && h.opt.GraphiQL && acceptsHTML(r.Header.Get("Accept")) && r.URL.Query().Get("query") == "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(graphiqlPage)
		return
	}

	req, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse(nil, berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		out := make([]any, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i := range batch {
			g.Go(func() error {
				out[i] = h.executeOne(gctx, batch[i])
				return nil
			})
		}
		_ = g.Wait()
		writeJSON(w, status, out, h.opt.Pretty)
		return
	}

	res := h.executeOne(ctx, req)
	writeJSON(w, status, res, h.opt.Pretty)
}

// load returns the parsed document and validation verdict for a query,
// consulting the cache first.
func (h *Handler) load(ctx context.Context, query string) (*language.QueryDocument, language.ErrorList, error) {
	key := xxhash.Sum64String(query)
	if entry, ok := h.cache.Get(key); ok {
		eventbus.Publish(ctx, events.GraphQLValidationFinish{Query: query, Cached: true, ErrorCount: len(entry.errs)})
		return entry.doc, entry.errs, nil
	}

	start := time.Now()
	doc, err := language.ParseQuery(query)
	if err != nil {
		return nil, nil, err
	}
	var verrs language.ErrorList
	if !h.opt.SkipValidation {
		verrs = validation.Validate(h.sch, doc)
	}
	h.cache.Add(key, &cacheEntry{doc: doc, errs: verrs})
	eventbus.Publish(ctx, events.GraphQLValidationFinish{
		Query:      query,
		ErrorCount: len(verrs),
		Duration:   time.Since(start),
	})
	return doc, verrs, nil
}

func (h *Handler) executeOne(ctx context.Context, req GraphQLRequest) any {
	doc, verrs, err := h.load(ctx, req.Query)
	if err != nil {
		if ge, ok := err.(*language.Error); ok {
			return errorResponse(nil, ge)
		}
		return errorResponse(nil, &language.Error{Message: err.Error()})
	}
	if len(verrs) > 0 {
		// Invalid documents never execute; only the rule errors go out.
		return validationResponse(verrs)
	}

	opDef := doc.Operations.ForName(req.OperationName)
	if opDef == nil && len(doc.Operations) == 1 {
		opDef = doc.Operations[0]
	}
	opType := ""
	if opDef != nil {
		opType = string(opDef.Operation)
	}
	if opType == "subscription" {
		return errorResponse(nil, &language.Error{Message: "subscriptions are not supported over HTTP"})
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	data, execErrs, err := executor.Execute(ctx, h.sch, h.root, doc, req.OperationName, req.Variables, nil)
	errs := make([]error, len(execErrs))
	for i := range execErrs {
		errs[i] = execErrs[i]
	}
	if err != nil {
		errs = append(errs, err)
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      time.Since(start),
	})
	if err != nil {
		return errorResponse(nil, &language.Error{Message: err.Error()})
	}
	return toSpecResult(data, execErrs)
}

// ------------------ Request parsing ------------------

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (GraphQLRequest, []GraphQLRequest, *language.Error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("query")
		if q == "" {
			return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
		}
		vars := map[string]any{}
		if v := r.URL.Query().Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &vars); err != nil {
				return GraphQLRequest{}, nil, &language.Error{Message: "invalid 'variables' JSON"}
			}
		}
		op := r.URL.Query().Get("operationName")
		return GraphQLRequest{Query: q, Variables: vars, OperationName: op}, nil, nil
	}

	// POST
	ct := r.Header.Get("Content-Type")
	if ct == "" || ct == "application/json" || startsWith(ct, "application/json;") {
		reader := io.Reader(r.Body)
		if maxBody > 0 {
			reader = io.LimitReader(r.Body, maxBody+1)
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			return GraphQLRequest{}, nil, &language.Error{Message: "failed to read body"}
		}
		defer r.Body.Close()
		if maxBody > 0 && int64(len(body)) > maxBody {
			return GraphQLRequest{}, nil, &language.Error{Message: errBodyTooLargeMessage}
		}

		// Try array (batch)
		var arr []GraphQLRequest
		if len(body) > 0 && body[0] == '[' {
			if err := json.Unmarshal(body, &arr); err != nil {
				return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
			}
			if len(arr) == 0 {
				return GraphQLRequest{}, nil, &language.Error{Message: "empty batch"}
			}
			return GraphQLRequest{}, arr, nil
		}
		// Single
		var req GraphQLRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return GraphQLRequest{}, nil, &language.Error{Message: "invalid JSON"}
		}
		if req.Query == "" {
			return GraphQLRequest{}, nil, &language.Error{Message: "missing 'query'"}
		}
		if req.Variables == nil {
			req.Variables = map[string]any{}
		}
		return req, nil, nil
	}

	return GraphQLRequest{}, nil, &language.Error{Message: "unsupported Content-Type"}
}

// ------------------ Response formatting ------------------

type specLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type specError struct {
	Message    string         `json:"message"`
	Locations  []specLocation `json:"locations,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type specResult struct {
	Data   any         `json:"data"`
	Errors []specError `json:"errors,omitempty"`
}

func errorResponse(data any, err *language.Error) specResult {
	se := specError{Message: err.Message}
	for _, loc := range err.Locations {
		se.Locations = append(se.Locations, specLocation{Line: loc.Line, Column: loc.Column})
	}
	return specResult{Data: data, Errors: []specError{se}}
}

func validationResponse(errs language.ErrorList) specResult {
	out := specResult{Data: nil, Errors: make([]specError, len(errs))}
	for i, e := range errs {
		se := specError{Message: e.Message}
		for _, loc := range e.Locations {
			se.Locations = append(se.Locations, specLocation{Line: loc.Line, Column: loc.Column})
		}
		out.Errors[i] = se
	}
	return out
}

func toSpecResult(data any, errs []executor.ExecutionError) specResult {
	out := specResult{Data: data}
	if len(errs) == 0 {
		return out
	}
	out.Errors = make([]specError, len(errs))
	for i, e := range errs {
		se := specError{Message: e.Message}
		if e.Location.Line > 0 {
			se.Locations = []specLocation{{Line: e.Location.Line, Column: e.Location.Column}}
		}
		if len(e.Path) > 0 {
			se.Path = make([]any, len(e.Path))
			for j, pe := range e.Path {
				se.Path[j] = pe
			}
		}
		if ext, ok := e.Extensions.(map[string]any); ok {
			se.Extensions = ext
		}
		out.Errors[i] = se
	}
	// Per spec, when errors present, data may still be partially present; we preserve it.
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func startsWith(s, prefix string) bool { return len(s) >= len(prefix) && s[:len(prefix)] == prefix }

const errBodyTooLargeMessage = "body too large"

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func acceptsHTML(accept string) bool {
	if accept == "" {
		return false
	}
	parts := strings.Split(accept, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if startsWith(p, "text/html") || p == "*/*" {
			return true
		}
	}
	return false
}
