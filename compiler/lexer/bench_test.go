package lexer

import (
	"strings"
	"testing"
)

func benchRules(b *testing.B) *RuleTable {
	b.Helper()
	rt, err := NewRuleTable().
		Keyword("let").
		Operator("+").
		Operator("-").
		Operator("*").
		Operator("=").
		Delimiter(";").
		Delimiter("(").
		Delimiter(")").
		Literal("integer", `\d+`).
		Identifier("default", `[A-Za-z_]\w*`).
		Comment(`#[^\n]*`).
		EnableLongestMatchFirst().
		Build()
	if err != nil {
		b.Fatalf("Build() error: %v", err)
	}
	return rt
}

func benchSource(lines int) string {
	var sb strings.Builder
	for i := 0; i < lines; i++ {
		sb.WriteString("let result = alpha + 42 * (beta - 7); # note\n")
	}
	return sb.String()
}

func BenchmarkTokenizeSmall(b *testing.B) {
	rt := benchRules(b)
	src := benchSource(10)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Tokenize(src, rt, nil)
	}
}

func BenchmarkTokenizeLarge(b *testing.B) {
	rt := benchRules(b)
	src := benchSource(1000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Tokenize(src, rt, nil)
	}
}

func BenchmarkScannerNext(b *testing.B) {
	rt := benchRules(b)
	src := benchSource(100)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := NewScanner(src, rt, nil)
		for {
			if _, ok := s.Next(); !ok {
				break
			}
		}
	}
}
