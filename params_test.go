package sparql

import (
	"testing"

	"github.com/morikuni/failure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sparqlerrors "github.com/takatori/sparql/errors"
)

func TestBuildQueryOperationDefaults(t *testing.T) {
	op, err := buildQueryOperation(SelectQuery, "select * where {?s ?p ?o}", &queryOptions{}, false)
	require.NoError(t, err)
	assert.Equal(t, "application/sparql-results+json", op.accept)
	assert.Equal(t, "select * where {?s ?p ?o}", op.form.Get("query"))

	op, err = buildQueryOperation(ConstructQuery, "construct {?s ?p ?o} where {?s ?p ?o}", &queryOptions{}, false)
	require.NoError(t, err)
	assert.Equal(t, "text/turtle", op.accept)
}

func TestBuildQueryOperationFormatAliases(t *testing.T) {
	tests := []struct {
		queryType QueryType
		format    string
		expected  string
	}{
		{SelectQuery, "json", "application/sparql-results+json"},
		{SelectQuery, "xml", "application/sparql-results+xml"},
		{SelectQuery, "csv", "text/csv"},
		{AskQuery, "tsv", "text/tab-separated-values"},
		{ConstructQuery, "turtle", "text/turtle"},
		{ConstructQuery, "xml", "application/rdf+xml"},
		{DescribeQuery, "ntriples", "application/n-triples"},
		{DescribeQuery, "json-ld", "application/ld+json"},
		// full MIME types and unknown aliases pass through unchanged
		{SelectQuery, "application/sparql-results+json", "application/sparql-results+json"},
		{ConstructQuery, "application/wild", "application/wild"},
	}

	for _, test := range tests {
		op, err := buildQueryOperation(test.queryType, "q", &queryOptions{format: test.format}, false)
		require.NoError(t, err)
		assert.Equal(t, test.expected, op.accept, "format %q", test.format)
	}
}

func TestBuildQueryOperationConvertRequiresJSON(t *testing.T) {
	for _, queryType := range []QueryType{SelectQuery, AskQuery} {
		for _, format := range []string{"xml", "csv", "tsv"} {
			_, err := buildQueryOperation(queryType, "q", &queryOptions{format: format}, true)
			require.Error(t, err, "%s with format %q", queryType, format)
			assert.True(t, failure.Is(err, sparqlerrors.ErrInvalidConfig))
			assert.ErrorContains(t, err, "JSON response format required for convert=True on SELECT and ASK query results.")
		}
	}

	// the two JSON variants are accepted
	for _, format := range []string{"json", "application/json", "application/sparql-results+json"} {
		_, err := buildQueryOperation(SelectQuery, "q", &queryOptions{format: format}, true)
		assert.NoError(t, err)
	}

	// graph results are converted by the RDF codec, any format goes
	_, err := buildQueryOperation(ConstructQuery, "q", &queryOptions{format: "ntriples"}, true)
	assert.NoError(t, err)
}

func TestBuildQueryOperationBodyFields(t *testing.T) {
	opts := &queryOptions{
		version:         "1.2",
		defaultGraphURI: []string{"https://default.graph"},
		namedGraphURI:   []string{"https://named.graph", "https://othernamed.graph"},
	}
	op, err := buildQueryOperation(SelectQuery, "select * where {?s ?p ?o}", opts, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"select * where {?s ?p ?o}"}, op.form["query"])
	assert.Equal(t, []string{"1.2"}, op.form["version"])
	assert.Equal(t, []string{"https://default.graph"}, op.form["default-graph-uri"])
	assert.Equal(t, []string{"https://named.graph", "https://othernamed.graph"}, op.form["named-graph-uri"])
}

func TestBuildQueryOperationOmitsEmptyFields(t *testing.T) {
	op, err := buildQueryOperation(SelectQuery, "q", &queryOptions{namedGraphURI: []string{"https://named.graph"}}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://named.graph"}, op.form["named-graph-uri"])
	_, hasVersion := op.form["version"]
	assert.False(t, hasVersion, "empty version must be omitted entirely")
	_, hasDefault := op.form["default-graph-uri"]
	assert.False(t, hasDefault)
}

func TestBuildQueryOperationHeaders(t *testing.T) {
	op, err := buildQueryOperation(AskQuery, "ask where {}", &queryOptions{}, true)
	require.NoError(t, err)

	headers := op.headers()
	assert.Equal(t, "application/sparql-results+json", headers["Accept"])
	assert.Equal(t, "application/x-www-form-urlencoded", headers["Content-Type"])
}

func TestBuildUpdateOperation(t *testing.T) {
	opts := &updateOptions{
		version:            "1.2",
		usingGraphURI:      []string{"https://using.graph"},
		usingNamedGraphURI: []string{"https://using.named", "https://other.named"},
	}
	op := buildUpdateOperation("insert data {<urn:s> <urn:p> 1}", opts)

	assert.Equal(t, []string{"insert data {<urn:s> <urn:p> 1}"}, op.form["update"])
	assert.Equal(t, []string{"1.2"}, op.form["version"])
	assert.Equal(t, []string{"https://using.graph"}, op.form["using-graph-uri"])
	assert.Equal(t, []string{"https://using.named", "https://other.named"}, op.form["using-named-graph-uri"])

	_, hasQuery := op.form["query"]
	assert.False(t, hasQuery)
}

func TestBuildUpdateOperationOmitsEmptyFields(t *testing.T) {
	op := buildUpdateOperation("clear all", &updateOptions{})

	assert.Equal(t, []string{"clear all"}, op.form["update"])
	_, hasVersion := op.form["version"]
	assert.False(t, hasVersion)
	_, hasUsing := op.form["using-graph-uri"]
	assert.False(t, hasUsing)
}
