package sparql

import (
	"context"
	"net/url"

	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"
	"github.com/takatori/sparql/errors"
)

// Short format aliases and the MIME types they resolve to. Unrecognized
// aliases pass through unchanged as literal MIME type overrides.
var bindingsFormats = map[string]string{
	"json": "application/sparql-results+json",
	"xml":  "application/sparql-results+xml",
	"csv":  "text/csv",
	"tsv":  "text/tab-separated-values",
}

var graphFormats = map[string]string{
	"turtle":   "text/turtle",
	"xml":      "application/rdf+xml",
	"ntriples": "application/n-triples",
	"json-ld":  "application/ld+json",
}

var jsonResultMIMETypes = []string{
	"application/json",
	"application/sparql-results+json",
}

const convertFormatMessage = "JSON response format required for convert=True on SELECT and ASK query results."

func resolveMIMEType(aliases map[string]string, format, fallback string) string {
	if format == "" {
		format = fallback
	}
	if mimeType, ok := aliases[format]; ok {
		return mimeType
	}
	return format
}

// QueryOption configures a single query operation.
type QueryOption func(*queryOptions)

type queryOptions struct {
	format          string
	version         string
	defaultGraphURI []string
	namedGraphURI   []string
	queryType       QueryType
	parse           *bool
}

// WithResponseFormat sets the desired response format, either a short alias
// (json, xml, csv, tsv, turtle, ntriples, json-ld) or a full MIME type.
func WithResponseFormat(format string) QueryOption {
	return func(o *queryOptions) { o.format = format }
}

// WithVersion sets the protocol "version" request parameter.
func WithVersion(version string) QueryOption {
	return func(o *queryOptions) { o.version = version }
}

// WithDefaultGraphURI adds "default-graph-uri" request parameters.
func WithDefaultGraphURI(uris ...string) QueryOption {
	return func(o *queryOptions) { o.defaultGraphURI = append(o.defaultGraphURI, uris...) }
}

// WithNamedGraphURI adds "named-graph-uri" request parameters.
func WithNamedGraphURI(uris ...string) QueryOption {
	return func(o *queryOptions) { o.namedGraphURI = append(o.namedGraphURI, uris...) }
}

// WithQueryType pre-declares the query's operation type. The declared type
// is trusted and the query text is not classified.
func WithQueryType(t QueryType) QueryOption {
	return func(o *queryOptions) { o.queryType = t }
}

// WithParse overrides the client-level parse setting for one call.
func WithParse(parse bool) QueryOption {
	return func(o *queryOptions) { o.parse = &parse }
}

// UpdateOption configures a single update operation.
type UpdateOption func(*updateOptions)

type updateOptions struct {
	version            string
	usingGraphURI      []string
	usingNamedGraphURI []string
}

// WithUpdateVersion sets the protocol "version" request parameter.
func WithUpdateVersion(version string) UpdateOption {
	return func(o *updateOptions) { o.version = version }
}

// WithUsingGraphURI adds "using-graph-uri" request parameters.
func WithUsingGraphURI(uris ...string) UpdateOption {
	return func(o *updateOptions) { o.usingGraphURI = append(o.usingGraphURI, uris...) }
}

// WithUsingNamedGraphURI adds "using-named-graph-uri" request parameters.
func WithUsingNamedGraphURI(uris ...string) UpdateOption {
	return func(o *updateOptions) { o.usingNamedGraphURI = append(o.usingNamedGraphURI, uris...) }
}

// operation carries the protocol parameters derived for one request:
// resolved response MIME type, form-encoded body fields and headers.
// Built fresh per call, never cached.
type operation struct {
	queryType QueryType
	accept    string
	form      url.Values
}

func (op *operation) headers() map[string]string {
	h := map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	}
	if op.accept != "" {
		h["Accept"] = op.accept
	}
	return h
}

// buildQueryOperation derives the Accept MIME type and request body for a
// query of the given type. With convert set, SELECT and ASK require a JSON
// results format; anything else is a configuration error raised before any
// request is sent.
func buildQueryOperation(queryType QueryType, query string, opts *queryOptions, convert bool) (*operation, error) {
	var accept string
	switch queryType {
	case SelectQuery, AskQuery:
		accept = resolveMIMEType(bindingsFormats, opts.format, "json")
		if convert && !lo.Contains(jsonResultMIMETypes, accept) {
			return nil, failure.New(
				errors.ErrInvalidConfig,
				failure.Field(failure.Message(convertFormatMessage)),
				failure.Context{
					"format": accept,
				},
			)
		}
	case ConstructQuery, DescribeQuery:
		accept = resolveMIMEType(graphFormats, opts.format, "turtle")
	default:
		return nil, failure.New(
			errors.ErrUnsupportedQueryType,
			failure.Field(failure.Message("unsupported query type")),
			failure.Context{
				"type": queryType.String(),
			},
		)
	}

	form := url.Values{}
	form.Set("query", query)
	setFormField(form, "version", opts.version)
	setFormList(form, "default-graph-uri", opts.defaultGraphURI)
	setFormList(form, "named-graph-uri", opts.namedGraphURI)

	return &operation{queryType: queryType, accept: accept, form: form}, nil
}

// buildUpdateOperation derives the request body for an update operation.
// Updates carry no Accept negotiation; only the form body matters.
func buildUpdateOperation(update string, opts *updateOptions) *operation {
	form := url.Values{}
	form.Set("update", update)
	setFormField(form, "version", opts.version)
	setFormList(form, "using-graph-uri", opts.usingGraphURI)
	setFormList(form, "using-named-graph-uri", opts.usingNamedGraphURI)

	return &operation{form: form}
}

// convertResponse applies the converter selected by the operation's query
// type. The default branch is unreachable for operations produced by
// buildQueryOperation.
func (op *operation) convertResponse(ctx context.Context, resp *Response) (Result, error) {
	switch op.queryType {
	case SelectQuery:
		rs, err := ConvertBindings(resp.Body)
		if err != nil {
			return Result{}, err
		}
		return Result{Type: SelectQuery, Bindings: rs}, nil
	case AskQuery:
		b, err := ConvertAsk(resp.Body)
		if err != nil {
			return Result{}, err
		}
		return Result{Type: AskQuery, Bool: b}, nil
	case ConstructQuery, DescribeQuery:
		g, err := ConvertGraph(ctx, resp.Body, resp.Header.Get("Content-Type"))
		if err != nil {
			return Result{}, err
		}
		return Result{Type: op.queryType, Graph: g}, nil
	default:
		return Result{}, failure.New(
			errors.ErrUnsupportedQueryType,
			failure.Field(failure.Message("no converter for query type")),
			failure.Context{
				"type": op.queryType.String(),
			},
		)
	}
}

func setFormField(form url.Values, key, value string) {
	if value != "" {
		form.Set(key, value)
	}
}

func setFormList(form url.Values, key string, values []string) {
	for _, v := range values {
		form.Add(key, v)
	}
}
