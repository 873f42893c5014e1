package sparql

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"
	"github.com/takatori/sparql/errors"
)

// Classify determines the operation type of a SPARQL query from its text.
// The scan skips comments, string literals, IRI references and the
// BASE/PREFIX prologue, and validates delimiter balance so that malformed
// queries fail before any request is sent. Query text is never evaluated.
func Classify(query string) (QueryType, error) {
	tokens, err := significantTokens(query)
	if err != nil {
		return QueryTypeUnknown, failure.Translate(
			err,
			errors.ErrQueryParse,
			failure.Field(failure.Message("invalid SPARQL query syntax")),
		)
	}

	for _, tok := range tokens {
		switch tok {
		case "base", "prefix":
			continue
		case "select":
			return SelectQuery, nil
		case "ask":
			return AskQuery, nil
		case "construct":
			return ConstructQuery, nil
		case "describe":
			return DescribeQuery, nil
		default:
			// prefixed names from the prologue (e.g. "xsd:") carry a colon
			if strings.Contains(tok, ":") {
				continue
			}
			return QueryTypeUnknown, failure.New(
				errors.ErrQueryParse,
				failure.Field(failure.Message("query does not begin with a SPARQL query operation")),
				failure.Context{
					"token": tok,
				},
			)
		}
	}

	return QueryTypeUnknown, failure.New(
		errors.ErrQueryParse,
		failure.Field(failure.Message("query text contains no SPARQL operation")),
	)
}

var updateKeywords = []string{
	"insert", "delete", "load", "clear", "create", "drop", "copy", "move", "add", "with", "using",
}

// ValidateUpdate checks that text is a plausible SPARQL update request.
// Updates are structurally distinct from queries and never go through
// query-type classification.
func ValidateUpdate(update string) error {
	tokens, err := significantTokens(update)
	if err != nil {
		return failure.Translate(
			err,
			errors.ErrUpdateParse,
			failure.Field(failure.Message("invalid SPARQL update syntax")),
		)
	}

	for _, tok := range tokens {
		switch {
		case tok == "base" || tok == "prefix":
			continue
		case strings.Contains(tok, ":"):
			continue
		case lo.Contains(updateKeywords, tok):
			return nil
		default:
			return failure.New(
				errors.ErrUpdateParse,
				failure.Field(failure.Message("request does not begin with a SPARQL update operation")),
				failure.Context{
					"token": tok,
				},
			)
		}
	}

	return failure.New(
		errors.ErrUpdateParse,
		failure.Field(failure.Message("update text contains no SPARQL operation")),
	)
}

// significantTokens extracts lowercased word tokens from SPARQL text,
// skipping comments, string literals and IRI references, and verifies that
// strings and IRIs are terminated and braces/parentheses balanced.
func significantTokens(text string) ([]string, error) {
	var tokens []string
	var word strings.Builder
	var braces, parens int

	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, strings.ToLower(word.String()))
			word.Reset()
		}
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '#':
			flush()
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case r == '<' && startsIRIReference(runes, i):
			flush()
			for i < len(runes) && runes[i] != '>' {
				i++
			}
			if i == len(runes) {
				return nil, fmt.Errorf("unterminated IRI reference")
			}
		case r == '\'' || r == '"':
			flush()
			end, err := skipString(runes, i)
			if err != nil {
				return nil, err
			}
			i = end
		case r == '{':
			flush()
			braces++
		case r == '}':
			flush()
			braces--
			if braces < 0 {
				return nil, fmt.Errorf("unbalanced '}'")
			}
		case r == '(':
			flush()
			parens++
		case r == ')':
			flush()
			parens--
			if parens < 0 {
				return nil, fmt.Errorf("unbalanced ')'")
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ':':
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	if braces != 0 {
		return nil, fmt.Errorf("unbalanced braces")
	}
	if parens != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	return tokens, nil
}

// startsIRIReference reports whether the '<' at position i opens an IRI
// reference rather than a less-than operator. An IRIREF cannot contain
// whitespace; a comparison is followed by whitespace, '=', a numeric or
// string operand, a variable, or the start of a quoted triple.
func startsIRIReference(runes []rune, i int) bool {
	if i+1 >= len(runes) {
		return false
	}
	next := runes[i+1]
	if unicode.IsSpace(next) || unicode.IsDigit(next) {
		return false
	}
	switch next {
	case '=', '?', '$', '<', '-', '+', '(', '"', '\'':
		return false
	}
	return true
}

// skipString advances past a SPARQL string literal starting at start and
// returns the index of its closing quote. Handles short and long (triple
// quoted) forms and backslash escapes.
func skipString(runes []rune, start int) (int, error) {
	quote := runes[start]

	if start+2 < len(runes) && runes[start+1] == quote && runes[start+2] == quote {
		for i := start + 3; i+2 < len(runes); i++ {
			if runes[i] == '\\' {
				i++
				continue
			}
			if runes[i] == quote && runes[i+1] == quote && runes[i+2] == quote {
				return i + 2, nil
			}
		}
		return 0, fmt.Errorf("unterminated long string literal")
	}

	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			i++
		case quote:
			return i, nil
		case '\n':
			return 0, fmt.Errorf("newline in string literal")
		}
	}
	return 0, fmt.Errorf("unterminated string literal")
}
