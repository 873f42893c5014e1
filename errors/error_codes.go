package errors

// ErrorCode classifies failures raised by this module. Codes are attached
// to errors via morikuni/failure and can be recovered with failure.CodeOf.
type ErrorCode string

const (
	// ErrQueryParse indicates malformed SPARQL query syntax.
	ErrQueryParse ErrorCode = "QueryParse"
	// ErrUpdateParse indicates malformed SPARQL update syntax.
	ErrUpdateParse ErrorCode = "UpdateParse"
	// ErrUnsupportedQueryType indicates a parsed query whose operation is
	// none of SELECT/ASK/CONSTRUCT/DESCRIBE. Unreachable for valid SPARQL.
	ErrUnsupportedQueryType ErrorCode = "UnsupportedQueryType"

	// ErrUnsupportedLiteralType indicates a literal datatype with no native mapping.
	ErrUnsupportedLiteralType ErrorCode = "UnsupportedLiteralType"
	// ErrMalformedResultsPayload indicates a SELECT response body that is not
	// a SPARQL JSON results document.
	ErrMalformedResultsPayload ErrorCode = "MalformedResultsPayload"
	// ErrMalformedAskPayload indicates an ASK response body that is not JSON.
	ErrMalformedAskPayload ErrorCode = "MalformedAskPayload"
	// ErrMissingBooleanKey indicates an ASK response without a "boolean" field.
	ErrMissingBooleanKey ErrorCode = "MissingBooleanKey"
	// ErrUnknownGraphFormat indicates a graph response content type the RDF
	// codec does not recognize.
	ErrUnknownGraphFormat ErrorCode = "UnknownGraphFormat"

	// ErrInvalidConfig indicates a caller configuration error, detected
	// before any request is sent.
	ErrInvalidConfig ErrorCode = "InvalidConfig"
	// ErrTransport indicates a request that could not be completed or that
	// returned a non-2xx status.
	ErrTransport ErrorCode = "Transport"
	// ErrInternal indicates an unexpected internal failure.
	ErrInternal ErrorCode = "Internal"
)
