package token

import "fmt"

// Kind represents the lexical category of a token
type Kind int

const (
	// Invalid marks a single unmatchable character or an indentation
	// problem. It is never fatal to tokenization.
	KIND_INVALID Kind = iota

	// Fixed-string matches
	KIND_KEYWORD
	KIND_OPERATOR
	KIND_DELIMITER

	// Typed regex matches
	KIND_LITERAL
	KIND_IDENTIFIER
	KIND_COMMENT

	// Whitespace bookkeeping
	KIND_NEW_LINE
	KIND_INDENT_INCR
	KIND_INDENT_DECR

	// Stream sentinels, emitted only when the rule table requests them
	KIND_START
	KIND_END
)

// Fixed display values for tokens that have no source text of their own.
const (
	StartValue      = "<start>"
	EndValue        = "<end>"
	NewLineValue    = "<newline>"
	IndentIncrValue = "<indent>"
	IndentDecrValue = "<dedent>"
)

// String returns a string representation of the token kind
func (k Kind) String() string {
	switch k {
	case KIND_INVALID:
		return "INVALID"
	case KIND_KEYWORD:
		return "KEYWORD"
	case KIND_OPERATOR:
		return "OPERATOR"
	case KIND_DELIMITER:
		return "DELIMITER"
	case KIND_LITERAL:
		return "LITERAL"
	case KIND_IDENTIFIER:
		return "IDENTIFIER"
	case KIND_COMMENT:
		return "COMMENT"
	case KIND_NEW_LINE:
		return "NEW_LINE"
	case KIND_INDENT_INCR:
		return "INDENT_INCR"
	case KIND_INDENT_DECR:
		return "INDENT_DECR"
	case KIND_START:
		return "START"
	case KIND_END:
		return "END"
	default:
		return "UNKNOWN"
	}
}

// Token is a single lexical unit with its 1-based source coordinate.
// Type is populated only for KIND_LITERAL and KIND_IDENTIFIER tokens,
// where it names the prototype that matched (e.g. "integer").
type Token struct {
	Kind   Kind
	Type   string
	Value  string
	Line   int
	Column int
}

// Keyword returns a keyword token for a matched reserved word
func Keyword(value string, line, column int) Token {
	return Token{Kind: KIND_KEYWORD, Value: value, Line: line, Column: column}
}

// Operator returns an operator token for a matched punctuation literal
func Operator(value string, line, column int) Token {
	return Token{Kind: KIND_OPERATOR, Value: value, Line: line, Column: column}
}

// Delimiter returns a delimiter token for a matched punctuation literal
func Delimiter(value string, line, column int) Token {
	return Token{Kind: KIND_DELIMITER, Value: value, Line: line, Column: column}
}

// Literal returns a typed literal token (e.g. type "integer")
func Literal(typ, value string, line, column int) Token {
	return Token{Kind: KIND_LITERAL, Type: typ, Value: value, Line: line, Column: column}
}

// Identifier returns a typed identifier token
func Identifier(typ, value string, line, column int) Token {
	return Token{Kind: KIND_IDENTIFIER, Type: typ, Value: value, Line: line, Column: column}
}

// Comment returns a comment token
func Comment(value string, line, column int) Token {
	return Token{Kind: KIND_COMMENT, Value: value, Line: line, Column: column}
}

// Start returns the stream-start sentinel. Its (0,0) coordinate is
// retained for compatibility with existing rule tables.
func Start() Token {
	return Token{Kind: KIND_START, Value: StartValue, Line: 0, Column: 0}
}

// End returns the stream-end sentinel
func End(line, column int) Token {
	return Token{Kind: KIND_END, Value: EndValue, Line: line, Column: column}
}

// NewLine returns a token marking the boundary between two non-empty
// lines. The column is the true end-of-line column of the terminated
// line, one past its last character.
func NewLine(line, column int) Token {
	return Token{Kind: KIND_NEW_LINE, Value: NewLineValue, Line: line, Column: column}
}

// IndentIncr returns a token for one indentation level increase
func IndentIncr(line, column int) Token {
	return Token{Kind: KIND_INDENT_INCR, Value: IndentIncrValue, Line: line, Column: column}
}

// IndentDecr returns a token for one indentation level decrease
func IndentDecr(line, column int) Token {
	return Token{Kind: KIND_INDENT_DECR, Value: IndentDecrValue, Line: line, Column: column}
}

// Invalid returns an error token carrying the offending text or an
// indentation diagnostic
func Invalid(value string, line, column int) Token {
	return Token{Kind: KIND_INVALID, Value: value, Line: line, Column: column}
}

// TypeKey derives the post-processor key for the token: the fixed tags
// "keyword", "operator", "delimiter" and "comment" for fixed-kind
// tokens, the Type field for typed literals and identifiers, and ""
// for everything else (sentinels and whitespace bookkeeping are never
// post-processed).
func (t Token) TypeKey() string {
	switch t.Kind {
	case KIND_KEYWORD:
		return "keyword"
	case KIND_OPERATOR:
		return "operator"
	case KIND_DELIMITER:
		return "delimiter"
	case KIND_COMMENT:
		return "comment"
	case KIND_LITERAL, KIND_IDENTIFIER:
		return t.Type
	default:
		return ""
	}
}

// String returns a string representation of the token
func (t Token) String() string {
	if t.Type != "" {
		return fmt.Sprintf("%s:%s(%s) [%d:%d]", t.Kind, t.Type, t.Value, t.Line, t.Column)
	}
	return fmt.Sprintf("%s(%s) [%d:%d]", t.Kind, t.Value, t.Line, t.Column)
}
