package lexer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nest-lang/nest/compiler/token"
)

// WhitespaceMode controls how the tokenizer treats whitespace
type WhitespaceMode int

const (
	// WHITESPACE_IGNORE discards all whitespace (the default)
	WHITESPACE_IGNORE WhitespaceMode = iota
	// WHITESPACE_SIGNIFICANT emits a NewLine token between adjacent
	// non-empty lines
	WHITESPACE_SIGNIFICANT
	// WHITESPACE_INDENTATION additionally turns changes in leading
	// indentation into IndentIncr/IndentDecr tokens
	WHITESPACE_INDENTATION
)

// String returns a string representation of the whitespace mode
func (m WhitespaceMode) String() string {
	switch m {
	case WHITESPACE_IGNORE:
		return "IGNORE"
	case WHITESPACE_SIGNIFICANT:
		return "SIGNIFICANT"
	case WHITESPACE_INDENTATION:
		return "INDENTATION"
	default:
		return "UNKNOWN"
	}
}

// matcher is one compiled token prototype. Fixed-string prototypes
// (keyword/operator/delimiter) carry text; regex prototypes
// (literal/identifier/comment) carry a compiled pattern anchored at
// the current offset.
type matcher struct {
	kind       token.Kind
	text       []rune
	alphabetic bool
	typ        string
	re         *regexp.Regexp
}

// RuleTable is the immutable description of how to lex. Build one with
// NewRuleTable; a built table is safe to share across tokenizations.
type RuleTable struct {
	matchers      []*matcher
	mode          WhitespaceMode
	caseSensitive bool
	longestFirst  bool
	emitStart     bool
	emitEnd       bool
}

// Mode returns the whitespace mode
func (rt *RuleTable) Mode() WhitespaceMode { return rt.mode }

// CaseSensitive reports whether fixed-string matching is case sensitive
func (rt *RuleTable) CaseSensitive() bool { return rt.caseSensitive }

// LongestMatchFirst reports whether matchers are sorted longest-first
func (rt *RuleTable) LongestMatchFirst() bool { return rt.longestFirst }

// EmitsStart reports whether the table requests a Start sentinel
func (rt *RuleTable) EmitsStart() bool { return rt.emitStart }

// EmitsEnd reports whether the table requests an End sentinel
func (rt *RuleTable) EmitsEnd() bool { return rt.emitEnd }

type prototype struct {
	kind    token.Kind
	text    string
	typ     string
	pattern string
}

// RuleTableBuilder accumulates token prototypes and lexer settings and
// produces an immutable RuleTable
type RuleTableBuilder struct {
	protos        []prototype
	mode          WhitespaceMode
	caseSensitive bool
	longestFirst  bool
	emitStart     bool
	emitEnd       bool
	newLine       bool
}

// NewRuleTable creates an empty rule table builder
func NewRuleTable() *RuleTableBuilder {
	return &RuleTableBuilder{}
}

// Keyword adds a reserved word prototype
func (b *RuleTableBuilder) Keyword(text string) *RuleTableBuilder {
	b.protos = append(b.protos, prototype{kind: token.KIND_KEYWORD, text: text})
	return b
}

// Operator adds a fixed operator prototype
func (b *RuleTableBuilder) Operator(text string) *RuleTableBuilder {
	b.protos = append(b.protos, prototype{kind: token.KIND_OPERATOR, text: text})
	return b
}

// Delimiter adds a fixed delimiter prototype
func (b *RuleTableBuilder) Delimiter(text string) *RuleTableBuilder {
	b.protos = append(b.protos, prototype{kind: token.KIND_DELIMITER, text: text})
	return b
}

// Literal adds a typed regex literal prototype (e.g. "integer", `\d+`)
func (b *RuleTableBuilder) Literal(typ, pattern string) *RuleTableBuilder {
	b.protos = append(b.protos, prototype{kind: token.KIND_LITERAL, typ: typ, pattern: pattern})
	return b
}

// Identifier adds a typed regex identifier prototype
func (b *RuleTableBuilder) Identifier(typ, pattern string) *RuleTableBuilder {
	b.protos = append(b.protos, prototype{kind: token.KIND_IDENTIFIER, typ: typ, pattern: pattern})
	return b
}

// Comment adds a comment regex prototype
func (b *RuleTableBuilder) Comment(pattern string) *RuleTableBuilder {
	b.protos = append(b.protos, prototype{kind: token.KIND_COMMENT, pattern: pattern})
	return b
}

// Start requests a Start sentinel at the head of the token stream
func (b *RuleTableBuilder) Start() *RuleTableBuilder {
	b.emitStart = true
	return b
}

// End requests an End sentinel at the tail of the token stream
func (b *RuleTableBuilder) End() *RuleTableBuilder {
	b.emitEnd = true
	return b
}

// NewLine requests NewLine tokens between non-empty lines. At Build it
// turns IGNORE into SIGNIFICANT; INDENTATION, which emits newlines on
// its own, is kept regardless of call order.
func (b *RuleTableBuilder) NewLine() *RuleTableBuilder {
	b.newLine = true
	return b
}

// WhitespaceMode selects how whitespace is handled
func (b *RuleTableBuilder) WhitespaceMode(mode WhitespaceMode) *RuleTableBuilder {
	b.mode = mode
	return b
}

// EnableLongestMatchFirst sorts matchers longest-first before scanning,
// so insertion order no longer decides between fixed strings or between
// a fixed string and a regex. Regex prototypes keep their insertion
// order among themselves: when two regexes match the same length, the
// earlier-added one wins.
func (b *RuleTableBuilder) EnableLongestMatchFirst() *RuleTableBuilder {
	b.longestFirst = true
	return b
}

// MakeCaseSensitive switches fixed-string and regex matching to exact
// case (the default is case-insensitive)
func (b *RuleTableBuilder) MakeCaseSensitive() *RuleTableBuilder {
	b.caseSensitive = true
	return b
}

// stripAnchors removes a leading ^ and an unescaped trailing $ from a
// user pattern; the tokenizer anchors every pattern itself.
func stripAnchors(pattern string) string {
	pattern = strings.TrimPrefix(pattern, "^")
	if strings.HasSuffix(pattern, "$") && !strings.HasSuffix(pattern, `\$`) {
		pattern = pattern[:len(pattern)-1]
	}
	return pattern
}

func isAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isLetter(r) {
			return false
		}
	}
	return true
}

// Build compiles the prototypes into an immutable rule table. It fails
// on a regex pattern that does not compile and on a fixed-string
// prototype with empty text.
func (b *RuleTableBuilder) Build() (*RuleTable, error) {
	rt := &RuleTable{
		mode:          b.mode,
		caseSensitive: b.caseSensitive,
		longestFirst:  b.longestFirst,
		emitStart:     b.emitStart,
		emitEnd:       b.emitEnd,
	}
	if b.newLine && rt.mode == WHITESPACE_IGNORE {
		rt.mode = WHITESPACE_SIGNIFICANT
	}

	for _, p := range b.protos {
		m := &matcher{kind: p.kind, typ: p.typ}
		if p.pattern == "" {
			if p.text == "" {
				return nil, fmt.Errorf("lexer: empty %s prototype", p.kind)
			}
			m.text = []rune(p.text)
			m.alphabetic = isAlphabetic(p.text)
		} else {
			src := `\A(?:` + stripAnchors(p.pattern) + `)`
			if !b.caseSensitive {
				src = `(?i)` + src
			}
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, fmt.Errorf("lexer: invalid %s pattern %q: %w", p.kind, p.pattern, err)
			}
			m.re = re
		}
		rt.matchers = append(rt.matchers, m)
	}

	if b.longestFirst {
		sortMatchers(rt.matchers)
	}
	return rt, nil
}

// MustBuild is Build that panics on error, for hand-written tables
// whose patterns are compile-time constants
func (b *RuleTableBuilder) MustBuild() *RuleTable {
	rt, err := b.Build()
	if err != nil {
		panic(err)
	}
	return rt
}

// sortMatchers orders matchers for longest-match-first scanning:
// fixed strings by descending length, delimiter before operator on
// equal text, then kind ordinal; regex matchers group after the fixed
// ones in insertion order.
func sortMatchers(ms []*matcher) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if (a.re == nil) != (b.re == nil) {
			return a.re == nil
		}
		if a.re != nil {
			return false // keep insertion order among regexes
		}
		if len(a.text) != len(b.text) {
			return len(a.text) > len(b.text)
		}
		if string(a.text) == string(b.text) && a.kind != b.kind {
			if a.kind == token.KIND_DELIMITER && b.kind == token.KIND_OPERATOR {
				return true
			}
			if a.kind == token.KIND_OPERATOR && b.kind == token.KIND_DELIMITER {
				return false
			}
		}
		return a.kind < b.kind
	})
}
