package sparql

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/morikuni/failure/v2"
	"github.com/takatori/sparql/errors"
)

// resultsPayload is the envelope of a SPARQL JSON results document.
// Pointer fields distinguish absent sections from empty ones so shape
// errors can name the missing field.
type resultsPayload struct {
	Head *struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []map[string]term `json:"bindings"`
	} `json:"results"`
}

// ConvertBindings converts a SPARQL JSON results body into a ResultSet.
// Row order follows the payload and every declared variable is present in
// every row, unbound ones as nil.
func ConvertBindings(body []byte) (*ResultSet, error) {
	var payload resultsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, failure.Translate(
			err,
			errors.ErrMalformedResultsPayload,
			failure.Field(failure.Message("response body is not a SPARQL JSON results document")),
		)
	}
	if payload.Head == nil {
		return nil, missingResultsField("head.vars")
	}
	if payload.Results == nil {
		return nil, missingResultsField("results.bindings")
	}

	rs := &ResultSet{
		Vars:     payload.Head.Vars,
		Bindings: make([]Binding, 0, len(payload.Results.Bindings)),
	}
	for _, row := range payload.Results.Bindings {
		binding := make(Binding, len(rs.Vars))
		for _, name := range rs.Vars {
			descriptor, ok := row[name]
			if !ok {
				binding[name] = nil
				continue
			}
			value, err := coerceTerm(descriptor)
			if err != nil {
				return nil, err
			}
			binding[name] = value
		}
		rs.Bindings = append(rs.Bindings, binding)
	}
	return rs, nil
}

func missingResultsField(field string) error {
	return failure.New(
		errors.ErrMalformedResultsPayload,
		failure.Field(failure.Message("SPARQL JSON results document is missing required field "+field)),
	)
}

// ConvertAsk extracts the boolean result from an ASK response body.
func ConvertAsk(body []byte) (bool, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return false, failure.Translate(
			err,
			errors.ErrMalformedAskPayload,
			failure.Field(failure.Message("ASK response body is not JSON; a JSON payload was expected")),
		)
	}

	raw, ok := payload["boolean"]
	if !ok {
		return false, failure.New(
			errors.ErrMissingBooleanKey,
			failure.Field(failure.Message("ASK response JSON is missing the 'boolean' key")),
		)
	}

	var result bool
	if err := json.Unmarshal(raw, &result); err != nil {
		return false, failure.Translate(
			err,
			errors.ErrMalformedAskPayload,
			failure.Field(failure.Message("ASK response 'boolean' value is not a JSON boolean")),
		)
	}
	return result, nil
}

// graphMediaTypes maps RDF serialization media types to codec formats.
var graphMediaTypes = map[string]rdf.Format{
	"text/turtle":           rdf.FormatTurtle,
	"application/n-triples": rdf.FormatNTriples,
	"application/rdf+xml":   rdf.FormatRDFXML,
	"application/ld+json":   rdf.FormatJSONLD,
	"application/trig":      rdf.FormatTriG,
	"application/n-quads":   rdf.FormatNQuads,
}

// resolveGraphFormat maps a stripped media type to a codec format.
func resolveGraphFormat(mediaType string) (rdf.Format, error) {
	if mediaType == "" {
		return "", failure.New(
			errors.ErrUnknownGraphFormat,
			failure.Field(failure.Message("graph response has no content type")),
		)
	}
	format, ok := graphMediaTypes[mediaType]
	if !ok {
		return "", failure.New(
			errors.ErrUnknownGraphFormat,
			failure.Field(failure.Message("graph response content type is not a known RDF format")),
			failure.Context{
				"content-type": mediaType,
			},
		)
	}
	return format, nil
}

// ConvertGraph parses a CONSTRUCT/DESCRIBE response body into triples.
// The serialization format is derived from the content type (parameters
// after ';' are ignored); byte-level parsing is delegated to the rdf-go
// codec.
func ConvertGraph(ctx context.Context, body []byte, contentType string) ([]rdf.Triple, error) {
	format, err := resolveGraphFormat(stripContentTypeParams(contentType))
	if err != nil {
		return nil, err
	}

	var triples []rdf.Triple
	err = rdf.Parse(ctx, bytes.NewReader(body), format, func(stmt rdf.Statement) error {
		triples = append(triples, stmt.AsTriple())
		return nil
	})
	if err != nil {
		return nil, failure.Translate(
			err,
			errors.ErrInternal,
			failure.Field(failure.Message("RDF codec failed to parse graph response body")),
			failure.Context{
				"format": string(format),
			},
		)
	}
	return triples, nil
}

func stripContentTypeParams(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mediaType)
}
