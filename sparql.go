// Package sparql is a client for the SPARQL 1.2 Query and Update protocol.
//
// The package builds protocol-conformant HTTP requests from query/update
// text and caller options, dispatches them against a remote endpoint and
// converts responses into Go values: SELECT results become binding sets
// with XSD-aware literal coercion, ASK results become booleans, and
// CONSTRUCT/DESCRIBE results are parsed into RDF triples by the rdf-go
// codec. Query text is never evaluated locally; it is only classified and
// sanity-checked before dispatch.
package sparql

import (
	"net/http"

	"github.com/geoknoesis/rdf-go/rdf"
)

// QueryType identifies the operation kind of a SPARQL query.
type QueryType int

const (
	// QueryTypeUnknown means the query has not been classified yet.
	QueryTypeUnknown QueryType = iota
	// SelectQuery is a SPARQL SELECT operation.
	SelectQuery
	// AskQuery is a SPARQL ASK operation.
	AskQuery
	// ConstructQuery is a SPARQL CONSTRUCT operation.
	ConstructQuery
	// DescribeQuery is a SPARQL DESCRIBE operation.
	DescribeQuery
)

func (t QueryType) String() string {
	switch t {
	case SelectQuery:
		return "SelectQuery"
	case AskQuery:
		return "AskQuery"
	case ConstructQuery:
		return "ConstructQuery"
	case DescribeQuery:
		return "DescribeQuery"
	default:
		return "UnknownQuery"
	}
}

// Binding maps result variable names to coerced values for one result row.
//
// Value types are rdf.IRI, rdf.BlankNode, rdf.Literal (for datatypes kept in
// raw lexical form, e.g. xsd:gYear), string, int64, uint64 (the unsigned
// integer datatypes), float64, bool, *apd.Decimal, time.Time, or nil for an
// unbound variable. Every variable declared in the result header has an
// entry, possibly nil.
type Binding map[string]any

// ResultSet holds the materialized rows of a SELECT response.
// Vars preserves the header's declared variable order and Bindings
// preserves the payload's row order.
type ResultSet struct {
	Vars     []string
	Bindings []Binding
}

// Len returns the number of result rows.
func (rs *ResultSet) Len() int { return len(rs.Bindings) }

// Column returns the values bound to one variable across all rows.
func (rs *ResultSet) Column(name string) []any {
	values := make([]any, len(rs.Bindings))
	for i, b := range rs.Bindings {
		values[i] = b[name]
	}
	return values
}

// Result is the converted outcome of a query. Exactly one of the payload
// fields is meaningful, selected by Type: Bindings for SELECT, Bool for ASK,
// Graph for CONSTRUCT and DESCRIBE.
type Result struct {
	Type     QueryType
	Bindings *ResultSet
	Graph    []rdf.Triple
	Bool     bool
}

// Response is the raw outcome of a protocol request, returned by the
// non-converting entry points.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns the response content type with parameters stripped.
func (r *Response) ContentType() string {
	return stripContentTypeParams(r.Header.Get("Content-Type"))
}
