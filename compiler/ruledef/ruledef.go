// Package ruledef loads declarative lexer rule tables from YAML. It
// covers the lexical half of the toolkit only: AST rules carry
// function values and stay programmatic.
package ruledef

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nest-lang/nest/compiler/lexer"
)

// Pattern is one typed regex prototype
type Pattern struct {
	Type    string `yaml:"type"`
	Pattern string `yaml:"pattern"`
}

// File mirrors the YAML shape of a rule definition file:
//
//	whitespace: indentation
//	case_sensitive: true
//	longest_match_first: true
//	start: true
//	end: true
//	keywords: [let, and, or]
//	operators: ["+", "++", "+="]
//	delimiters: ["(", ")", ";"]
//	literals:
//	  - type: integer
//	    pattern: '\d+'
//	identifiers:
//	  - type: default
//	    pattern: '[A-Za-z_]\w*'
//	comments: ['#[^\n]*']
type File struct {
	Whitespace        string    `yaml:"whitespace"`
	CaseSensitive     bool      `yaml:"case_sensitive"`
	LongestMatchFirst bool      `yaml:"longest_match_first"`
	Start             bool      `yaml:"start"`
	End               bool      `yaml:"end"`
	NewLine           bool      `yaml:"new_line"`
	Keywords          []string  `yaml:"keywords"`
	Operators         []string  `yaml:"operators"`
	Delimiters        []string  `yaml:"delimiters"`
	Literals          []Pattern `yaml:"literals"`
	Identifiers       []Pattern `yaml:"identifiers"`
	Comments          []string  `yaml:"comments"`
}

// Parse decodes a YAML rule definition and builds the lexer rule table
func Parse(data []byte) (*lexer.RuleTable, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ruledef: %w", err)
	}
	return f.Build()
}

// Build turns the decoded file into a rule table
func (f *File) Build() (*lexer.RuleTable, error) {
	b := lexer.NewRuleTable()

	switch f.Whitespace {
	case "", "ignore":
		b.WhitespaceMode(lexer.WHITESPACE_IGNORE)
	case "significant":
		b.WhitespaceMode(lexer.WHITESPACE_SIGNIFICANT)
	case "indentation":
		b.WhitespaceMode(lexer.WHITESPACE_INDENTATION)
	default:
		return nil, fmt.Errorf("ruledef: unknown whitespace mode %q", f.Whitespace)
	}

	if f.CaseSensitive {
		b.MakeCaseSensitive()
	}
	if f.LongestMatchFirst {
		b.EnableLongestMatchFirst()
	}
	if f.Start {
		b.Start()
	}
	if f.End {
		b.End()
	}
	if f.NewLine {
		b.NewLine()
	}

	for _, k := range f.Keywords {
		b.Keyword(k)
	}
	for _, o := range f.Operators {
		b.Operator(o)
	}
	for _, d := range f.Delimiters {
		b.Delimiter(d)
	}
	for _, l := range f.Literals {
		if l.Type == "" {
			return nil, fmt.Errorf("ruledef: literal pattern %q has no type", l.Pattern)
		}
		b.Literal(l.Type, l.Pattern)
	}
	for _, i := range f.Identifiers {
		if i.Type == "" {
			return nil, fmt.Errorf("ruledef: identifier pattern %q has no type", i.Pattern)
		}
		b.Identifier(i.Type, i.Pattern)
	}
	for _, c := range f.Comments {
		b.Comment(c)
	}

	return b.Build()
}
