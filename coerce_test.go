package sparql

import (
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/morikuni/failure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sparqlerrors "github.com/takatori/sparql/errors"
)

func TestCoerceTerm(t *testing.T) {
	tests := []struct {
		name     string
		term     term
		expected any
	}{
		{
			name:     "uri",
			term:     term{Type: "uri", Value: "https://test.uri"},
			expected: rdf.IRI{Value: "https://test.uri"},
		},
		{
			name:     "bnode",
			term:     term{Type: "bnode", Value: "b0"},
			expected: rdf.BlankNode{ID: "b0"},
		},
		{
			name:     "plain literal",
			term:     term{Type: "literal", Value: "hello"},
			expected: "hello",
		},
		{
			name:     "language tagged literal",
			term:     term{Type: "literal", Value: "hallo", Lang: "de"},
			expected: "hallo",
		},
		{
			name:     "string literal",
			term:     term{Type: "literal", Value: "hello", Datatype: xsdNS + "string"},
			expected: "hello",
		},
		{
			name:     "integer",
			term:     term{Type: "literal", Value: "42", Datatype: xsdNS + "integer"},
			expected: int64(42),
		},
		{
			name:     "negative integer",
			term:     term{Type: "literal", Value: "-7", Datatype: xsdNS + "int"},
			expected: int64(-7),
		},
		{
			name:     "double",
			term:     term{Type: "literal", Value: "1.5e3", Datatype: xsdNS + "double"},
			expected: float64(1500),
		},
		{
			name:     "boolean true",
			term:     term{Type: "literal", Value: "true", Datatype: xsdNS + "boolean"},
			expected: true,
		},
		{
			name:     "boolean numeric",
			term:     term{Type: "literal", Value: "0", Datatype: xsdNS + "boolean"},
			expected: false,
		},
		{
			name:     "unsignedInt",
			term:     term{Type: "literal", Value: "42", Datatype: xsdNS + "unsignedInt"},
			expected: uint64(42),
		},
		{
			name:     "unsignedLong above int64 range",
			term:     term{Type: "literal", Value: "18446744073709551615", Datatype: xsdNS + "unsignedLong"},
			expected: uint64(math.MaxUint64),
		},
		{
			name:     "date",
			term:     term{Type: "literal", Value: "2024-01-01", Datatype: xsdNS + "date"},
			expected: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "dateTime with zone",
			term:     term{Type: "literal", Value: "2008-01-14T18:36:00Z", Datatype: xsdNS + "dateTime"},
			expected: time.Date(2008, 1, 14, 18, 36, 0, 0, time.UTC),
		},
		{
			name:     "gYear kept as tagged literal",
			term:     term{Type: "literal", Value: "2024", Datatype: xsdNS + "gYear"},
			expected: rdf.Literal{Lexical: "2024", Datatype: rdf.IRI{Value: xsdNS + "gYear"}},
		},
		{
			name:     "gYearMonth kept as tagged literal",
			term:     term{Type: "literal", Value: "2024-01", Datatype: xsdNS + "gYearMonth"},
			expected: rdf.Literal{Lexical: "2024-01", Datatype: rdf.IRI{Value: xsdNS + "gYearMonth"}},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			value, err := coerceTerm(test.term)
			require.NoError(t, err)
			assert.Equal(t, test.expected, value)
		})
	}
}

func TestCoerceDecimalExact(t *testing.T) {
	value, err := coerceTerm(term{Type: "literal", Value: "2.2", Datatype: xsdNS + "decimal"})
	require.NoError(t, err)

	decimal, ok := value.(*apd.Decimal)
	require.True(t, ok, "decimal must coerce to *apd.Decimal, got %T", value)

	expected, _, err := apd.NewFromString("2.2")
	require.NoError(t, err)
	assert.Zero(t, decimal.Cmp(expected))
	assert.Equal(t, "2.2", decimal.String())
}

func TestCoerceGYearDistinguishableFromString(t *testing.T) {
	tagged, err := coerceTerm(term{Type: "literal", Value: "2024", Datatype: xsdNS + "gYear"})
	require.NoError(t, err)

	plain, err := coerceTerm(term{Type: "literal", Value: "2024"})
	require.NoError(t, err)

	assert.NotEqual(t, plain, tagged)
	assert.IsType(t, rdf.Literal{}, tagged)
}

func TestCoerceGYearInvalidLexical(t *testing.T) {
	_, err := coerceTerm(term{Type: "literal", Value: "20x4", Datatype: xsdNS + "gYear"})
	require.Error(t, err)
	assert.True(t, failure.Is(err, sparqlerrors.ErrMalformedResultsPayload))

	_, err = coerceTerm(term{Type: "literal", Value: "2024-13", Datatype: xsdNS + "gYearMonth"})
	require.Error(t, err)
	assert.True(t, failure.Is(err, sparqlerrors.ErrMalformedResultsPayload))
}

func TestCoerceInvalidLexicalForms(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		datatype string
	}{
		{"integer", "not-a-number", xsdNS + "integer"},
		{"decimal", "2.2.2", xsdNS + "decimal"},
		{"boolean", "maybe", xsdNS + "boolean"},
		{"boolean uppercase", "TRUE", xsdNS + "boolean"},
		{"boolean go-style abbreviation", "t", xsdNS + "boolean"},
		{"negative unsigned", "-1", xsdNS + "unsignedLong"},
		{"dateTime", "yesterday", xsdNS + "dateTime"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := coerceTerm(term{Type: "literal", Value: test.value, Datatype: test.datatype})
			require.Error(t, err)
			assert.True(t, failure.Is(err, sparqlerrors.ErrMalformedResultsPayload))
		})
	}
}

func TestCoerceUnknownDatatype(t *testing.T) {
	_, err := coerceTerm(term{Type: "literal", Value: "P1Y", Datatype: xsdNS + "duration"})
	require.Error(t, err)
	assert.True(t, failure.Is(err, sparqlerrors.ErrUnsupportedLiteralType))
}

func TestCoerceUnknownTermType(t *testing.T) {
	_, err := coerceTerm(term{Type: "quad", Value: "x"})
	require.Error(t, err)
	assert.True(t, failure.Is(err, sparqlerrors.ErrMalformedResultsPayload))
}

func TestCoerceIdempotent(t *testing.T) {
	descriptors := []term{
		{Type: "uri", Value: "https://test.uri"},
		{Type: "literal", Value: "42", Datatype: xsdNS + "integer"},
		{Type: "literal", Value: "2024", Datatype: xsdNS + "gYear"},
	}

	for _, descriptor := range descriptors {
		first, err := coerceTerm(descriptor)
		require.NoError(t, err)
		second, err := coerceTerm(descriptor)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}
