package sparql

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/morikuni/failure/v2"
	"github.com/takatori/sparql/errors"
	"github.com/takatori/sparql/internal/infra"
	"golang.org/x/sync/errgroup"
)

const defaultTimeout = 30 * time.Second

// Client executes SPARQL query and update operations against remote
// endpoints. The zero value is not usable; construct with New.
//
// Methods are safe for concurrent use: every call derives its own operation
// parameters and result set, and only the underlying *http.Client is shared.
type Client struct {
	endpoint       string
	updateEndpoint string
	http           *infra.HttpClient
	ownsClient     bool
	parse          bool
	timeout        time.Duration
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithUpdateEndpoint sets a distinct endpoint URL for update operations.
// Without it, updates go to the query endpoint.
func WithUpdateEndpoint(url string) Option {
	return func(c *Client) { c.updateEndpoint = url }
}

// WithHTTPClient supplies a pre-built *http.Client. The facade borrows it:
// it is never closed here and releasing its connections stays the caller's
// responsibility. Close warns if the facade is torn down while holding a
// borrowed client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = infra.NewHttpClientWith(hc)
		c.ownsClient = false
	}
}

// WithTimeout sets the request timeout for a facade-owned transport.
// Ignored when a client is supplied via WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithQueryParsing controls whether query text is classified by parsing.
// When disabled, every query call must declare its type via WithQueryType
// or override parsing per call with WithParse.
func WithQueryParsing(enabled bool) Option {
	return func(c *Client) { c.parse = enabled }
}

// WithLogger sets the logger used for facade lifecycle warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client for the given query endpoint.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		parse:    true,
		timeout:  defaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.updateEndpoint == "" {
		c.updateEndpoint = c.endpoint
	}
	if c.http == nil {
		c.http = infra.NewHttpClient(c.timeout)
		c.ownsClient = true
	}
	return c
}

// Close releases the facade's transport resources. A transport created by
// New is owned and released here; a transport supplied via WithHTTPClient
// is left untouched and a warning is logged because its release remains
// pending on the supplier.
func (c *Client) Close() {
	if c.ownsClient {
		c.http.CloseIdleConnections()
		return
	}
	c.logger.Warn("http client supplied by caller is not managed; release its connections when done")
}

// Query executes a query and returns the raw protocol response.
func (c *Client) Query(ctx context.Context, query string, opts ...QueryOption) (*Response, error) {
	o := applyQueryOptions(opts)
	op, err := c.buildOperation(query, o, false)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, c.endpoint, op)
}

// QueryTyped executes a query and converts the response according to the
// query's operation type: bindings for SELECT, a boolean for ASK, a triple
// graph for CONSTRUCT and DESCRIBE. Conversion requires a JSON results
// format for SELECT and ASK.
func (c *Client) QueryTyped(ctx context.Context, query string, opts ...QueryOption) (Result, error) {
	o := applyQueryOptions(opts)
	op, err := c.buildOperation(query, o, true)
	if err != nil {
		return Result{}, err
	}
	resp, err := c.post(ctx, c.endpoint, op)
	if err != nil {
		return Result{}, err
	}
	return op.convertResponse(ctx, resp)
}

// Select executes a SELECT query and returns its binding set.
func (c *Client) Select(ctx context.Context, query string, opts ...QueryOption) (*ResultSet, error) {
	result, err := c.queryTypedAs(ctx, query, SelectQuery, opts)
	if err != nil {
		return nil, err
	}
	return result.Bindings, nil
}

// Ask executes an ASK query and returns its boolean result.
func (c *Client) Ask(ctx context.Context, query string, opts ...QueryOption) (bool, error) {
	result, err := c.queryTypedAs(ctx, query, AskQuery, opts)
	if err != nil {
		return false, err
	}
	return result.Bool, nil
}

// Graph executes a CONSTRUCT or DESCRIBE query and returns the parsed
// triples.
func (c *Client) Graph(ctx context.Context, query string, opts ...QueryOption) ([]rdf.Triple, error) {
	result, err := c.QueryTyped(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	if result.Type != ConstructQuery && result.Type != DescribeQuery {
		return nil, wrongQueryType(result.Type, "CONSTRUCT or DESCRIBE")
	}
	return result.Graph, nil
}

func (c *Client) queryTypedAs(ctx context.Context, query string, want QueryType, opts []QueryOption) (Result, error) {
	result, err := c.QueryTyped(ctx, query, opts...)
	if err != nil {
		return Result{}, err
	}
	if result.Type != want {
		return Result{}, wrongQueryType(result.Type, want.String())
	}
	return result, nil
}

func wrongQueryType(got QueryType, want string) error {
	return failure.New(
		errors.ErrInvalidConfig,
		failure.Field(failure.Message("query operation type does not match the requested result shape")),
		failure.Context{
			"got":  got.String(),
			"want": want,
		},
	)
}

// QueryStream executes a query and returns the response body as a stream,
// without buffering it. The caller must close the returned reader to
// release the underlying connection, also when it stops reading early.
func (c *Client) QueryStream(ctx context.Context, query string, opts ...QueryOption) (io.ReadCloser, error) {
	o := applyQueryOptions(opts)
	op, err := c.buildOperation(query, o, false)
	if err != nil {
		return nil, err
	}
	stream, err := c.http.PostFormStream(ctx, infra.Request{
		Url:     c.endpoint,
		Headers: op.headers(),
		Form:    op.form,
	})
	if err != nil {
		return nil, err
	}
	return stream.Body, nil
}

// Queries executes multiple queries concurrently and returns the raw
// responses in input order. If any query fails, the whole batch fails; no
// partial results are returned.
func (c *Client) Queries(ctx context.Context, queries []string, opts ...QueryOption) ([]*Response, error) {
	responses := make([]*Response, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	for i, query := range queries {
		g.Go(func() error {
			resp, err := c.Query(ctx, query, opts...)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// QueriesTyped executes multiple queries concurrently and converts each
// response, preserving input order with all-or-nothing failure semantics.
func (c *Client) QueriesTyped(ctx context.Context, queries []string, opts ...QueryOption) ([]Result, error) {
	results := make([]Result, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	for i, query := range queries {
		g.Go(func() error {
			result, err := c.QueryTyped(ctx, query, opts...)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Update executes an update request and returns the raw protocol response.
// Update syntax is validated before the request is sent.
func (c *Client) Update(ctx context.Context, update string, opts ...UpdateOption) (*Response, error) {
	if err := ValidateUpdate(update); err != nil {
		return nil, err
	}
	o := &updateOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return c.post(ctx, c.updateEndpoint, buildUpdateOperation(update, o))
}

// Updates executes multiple update requests concurrently, preserving input
// order with all-or-nothing failure semantics.
func (c *Client) Updates(ctx context.Context, updates []string, opts ...UpdateOption) ([]*Response, error) {
	responses := make([]*Response, len(updates))
	g, ctx := errgroup.WithContext(ctx)
	for i, update := range updates {
		g.Go(func() error {
			resp, err := c.Update(ctx, update, opts...)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// buildOperation resolves the query's operation type and derives the
// request parameters. All configuration errors surface here, before any
// request is sent.
func (c *Client) buildOperation(query string, o *queryOptions, convert bool) (*operation, error) {
	queryType, err := c.resolveQueryType(query, o)
	if err != nil {
		return nil, err
	}
	return buildQueryOperation(queryType, query, o, convert)
}

func (c *Client) resolveQueryType(query string, o *queryOptions) (QueryType, error) {
	if o.queryType != QueryTypeUnknown {
		return o.queryType, nil
	}
	parse := c.parse
	if o.parse != nil {
		parse = *o.parse
	}
	if !parse {
		return QueryTypeUnknown, failure.New(
			errors.ErrInvalidConfig,
			failure.Field(failure.Message("query parsing is disabled and no query type was declared; use WithQueryType")),
		)
	}
	return Classify(query)
}

func (c *Client) post(ctx context.Context, endpoint string, op *operation) (*Response, error) {
	if endpoint == "" {
		return nil, failure.New(
			errors.ErrInvalidConfig,
			failure.Field(failure.Message("no endpoint configured")),
		)
	}
	resp, err := c.http.PostForm(ctx, infra.Request{
		Url:     endpoint,
		Headers: op.headers(),
		Form:    op.form,
	})
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

func applyQueryOptions(opts []QueryOption) *queryOptions {
	o := &queryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
