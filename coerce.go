package sparql

import (
	"regexp"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/morikuni/failure/v2"
	"github.com/takatori/sparql/errors"
)

const (
	xsdNS         = "http://www.w3.org/2001/XMLSchema#"
	rdfLangString = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
)

// term is one RDF term descriptor of a SPARQL JSON results binding.
type term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// coerceTerm maps a term descriptor to its Go value.
func coerceTerm(t term) (any, error) {
	switch t.Type {
	case "uri":
		return rdf.IRI{Value: t.Value}, nil
	case "bnode":
		return rdf.BlankNode{ID: t.Value}, nil
	case "literal", "typed-literal":
		return coerceLiteral(t.Value, t.Datatype)
	default:
		return nil, failure.New(
			errors.ErrMalformedResultsPayload,
			failure.Field(failure.Message("unexpected term type in bindings payload")),
			failure.Context{
				"type":  t.Type,
				"value": t.Value,
			},
		)
	}
}

var (
	gYearLexical      = regexp.MustCompile(`^-?\d{4,}(Z|[+-]\d{2}:\d{2})?$`)
	gYearMonthLexical = regexp.MustCompile(`^-?\d{4,}-(0[1-9]|1[0-2])(Z|[+-]\d{2}:\d{2})?$`)
)

// coerceLiteral maps a literal's lexical form to a native Go value according
// to its XSD datatype. gYear and gYearMonth have no lossless native
// representation: their lexical form is validated and then kept as a
// datatype-tagged rdf.Literal so callers can tell them apart from plain
// strings.
func coerceLiteral(lexical, datatype string) (any, error) {
	switch datatype {
	case "", xsdNS + "string", rdfLangString:
		return lexical, nil

	case xsdNS + "integer", xsdNS + "int", xsdNS + "long", xsdNS + "short", xsdNS + "byte",
		xsdNS + "nonNegativeInteger", xsdNS + "nonPositiveInteger",
		xsdNS + "negativeInteger", xsdNS + "positiveInteger":
		n, err := strconv.ParseInt(lexical, 10, 64)
		if err != nil {
			return nil, lexicalError(err, lexical, datatype)
		}
		return n, nil

	case xsdNS + "unsignedLong", xsdNS + "unsignedInt", xsdNS + "unsignedShort", xsdNS + "unsignedByte":
		n, err := strconv.ParseUint(lexical, 10, 64)
		if err != nil {
			return nil, lexicalError(err, lexical, datatype)
		}
		return n, nil

	case xsdNS + "decimal":
		d, _, err := apd.NewFromString(lexical)
		if err != nil {
			return nil, lexicalError(err, lexical, datatype)
		}
		return d, nil

	case xsdNS + "float", xsdNS + "double":
		f, err := strconv.ParseFloat(lexical, 64)
		if err != nil {
			return nil, lexicalError(err, lexical, datatype)
		}
		return f, nil

	case xsdNS + "boolean":
		// the xsd:boolean lexical space is exactly true/false/1/0
		switch lexical {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		default:
			return nil, lexicalError(nil, lexical, datatype)
		}

	case xsdNS + "dateTime":
		ts, err := parseTime(lexical,
			time.RFC3339Nano,
			"2006-01-02T15:04:05.999999999",
		)
		if err != nil {
			return nil, lexicalError(err, lexical, datatype)
		}
		return ts, nil

	case xsdNS + "date":
		ts, err := parseTime(lexical,
			"2006-01-02",
			"2006-01-02Z07:00",
		)
		if err != nil {
			return nil, lexicalError(err, lexical, datatype)
		}
		return ts, nil

	case xsdNS + "time":
		ts, err := parseTime(lexical,
			"15:04:05.999999999",
			"15:04:05.999999999Z07:00",
		)
		if err != nil {
			return nil, lexicalError(err, lexical, datatype)
		}
		return ts, nil

	case xsdNS + "gYear":
		if !gYearLexical.MatchString(lexical) {
			return nil, lexicalError(nil, lexical, datatype)
		}
		return rdf.Literal{Lexical: lexical, Datatype: rdf.IRI{Value: datatype}}, nil

	case xsdNS + "gYearMonth":
		if !gYearMonthLexical.MatchString(lexical) {
			return nil, lexicalError(nil, lexical, datatype)
		}
		return rdf.Literal{Lexical: lexical, Datatype: rdf.IRI{Value: datatype}}, nil

	default:
		return nil, failure.New(
			errors.ErrUnsupportedLiteralType,
			failure.Field(failure.Message("no native mapping for literal datatype")),
			failure.Context{
				"datatype": datatype,
				"value":    lexical,
			},
		)
	}
}

func parseTime(lexical string, layouts ...string) (time.Time, error) {
	var err error
	for _, layout := range layouts {
		var ts time.Time
		if ts, err = time.Parse(layout, lexical); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, err
}

func lexicalError(err error, lexical, datatype string) error {
	ctx := failure.Context{
		"datatype": datatype,
		"value":    lexical,
	}
	if err == nil {
		return failure.New(
			errors.ErrMalformedResultsPayload,
			failure.Field(failure.Message("invalid lexical form for datatype")),
			ctx,
		)
	}
	return failure.Translate(
		err,
		errors.ErrMalformedResultsPayload,
		failure.Field(failure.Message("invalid lexical form for datatype")),
		ctx,
	)
}
