package ast

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerr "github.com/nest-lang/nest/compiler/errors"
	"github.com/nest-lang/nest/compiler/lexer"
	"github.com/nest-lang/nest/compiler/token"
)

// Node types produced by the test grammars.

type Let struct {
	Name  string
	Value any
}

type Binary struct {
	Op    string
	Left  any
	Right any
}

type Int struct {
	Value int64
}

type Var struct {
	Name string
}

type Symbol struct {
	Name string
}

type List struct {
	Elems []any
}

// sproutLexRules lexes a C-like expression statement language.
func sproutLexRules(t *testing.T) *lexer.RuleTable {
	t.Helper()
	rt, err := lexer.NewRuleTable().
		Keyword("let").
		Operator("+").
		Operator("-").
		Operator("*").
		Operator("/").
		Operator("=").
		Delimiter(";").
		Delimiter("(").
		Delimiter(")").
		Literal("integer", `\d+`).
		Identifier("default", `[A-Za-z_]\w*`).
		Comment(`#[^\n]*`).
		EnableLongestMatchFirst().
		Build()
	require.NoError(t, err)
	return rt
}

func putValue(key string) TerminalAction {
	return func(c *Context) func(token.Token) {
		return func(t token.Token) {
			c.Put(key, t.Value)
		}
	}
}

func putProduced(key string) RuleAction {
	return func(c *Context) func(any) {
		return func(v any) {
			c.Put(key, v)
		}
	}
}

// foldLeft combines the previously accumulated "left" with the
// produced right operand under the pending "op".
func foldLeft() RuleAction {
	return func(c *Context) func(any) {
		return func(v any) {
			op, _ := Get[string](c, "op")
			c.Put("left", Binary{Op: op, Left: c.Get("left"), Right: v})
		}
	}
}

// binaryLevel declares one precedence level: operand { (ops) operand }
func binaryLevel(b *RuleTableBuilder, name, operand string, ops ...string) {
	b.StartRule(name).
		AddDefinition("").
		Rule(operand, putProduced("left")).
		Repeat(nil).
		Choice()
	for i, op := range ops {
		if i > 0 {
			b.Or()
		}
		b.Operator(op, putValue("op"))
	}
	b.EndChoice().
		Rule(operand, foldLeft()).
		StopRepeat().
		EndDefinition(func(c *Context) any { return c.Get("left") })
}

// sproutASTRules builds the statement grammar:
//
//	stmt   = "let" ident "=" expr ";"
//	expr   = term { ("+"|"-") term }
//	term   = factor { ("*"|"/") factor }
//	factor = integer | ident | "(" expr ")"
func sproutASTRules(t *testing.T) *RuleTable {
	t.Helper()
	b := NewRuleTable().
		TopRules("stmt").
		IgnoreComments(true)

	b.StartRule("stmt").
		AddDefinition("let").
		Keyword("let", nil).
		Identifier("default", putValue("name")).
		Operator("=", nil).
		Rule("expr", putProduced("value")).
		Delimiter(";", nil).
		EndDefinition(func(c *Context) any {
			name, _ := Get[string](c, "name")
			return Let{Name: name, Value: c.Get("value")}
		}, "expected a let statement")

	binaryLevel(b, "expr", "term", "+", "-")
	binaryLevel(b, "term", "factor", "*", "/")

	b.StartRule("factor").
		AddDefinition("int").
		Literal("integer", func(c *Context) func(token.Token) {
			return func(t token.Token) {
				n, _ := strconv.ParseInt(t.Value, 10, 64)
				c.Put("n", n)
			}
		}).
		EndDefinition(func(c *Context) any {
			n, _ := Get[int64](c, "n")
			return Int{Value: n}
		}).
		AddDefinition("var").
		Identifier("default", putValue("name")).
		EndDefinition(func(c *Context) any {
			name, _ := Get[string](c, "name")
			return Var{Name: name}
		}).
		AddDefinition("paren").
		Delimiter("(", nil).
		Rule("expr", putProduced("inner")).
		Delimiter(")", nil).
		EndDefinition(func(c *Context) any { return c.Get("inner") })

	rt, err := b.Build()
	require.NoError(t, err)
	return rt
}

func TestArithmeticPrecedence(t *testing.T) {
	tokens := lexer.Tokenize("let x = 2 + 3 * 4;", sproutLexRules(t), nil)
	rep := cerr.NewReporter()

	res := Build(tokens, sproutASTRules(t), rep)
	require.False(t, res.HasErrors())
	require.False(t, rep.HasErrors())
	require.Len(t, res.Get(), 1)

	want := Let{
		Name: "x",
		Value: Binary{
			Op:   "+",
			Left: Int{Value: 2},
			Right: Binary{
				Op:    "*",
				Left:  Int{Value: 3},
				Right: Int{Value: 4},
			},
		},
	}
	assert.Equal(t, want, res.Get()[0])
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	tokens := lexer.Tokenize("let y = (2 + 3) * 4;", sproutLexRules(t), nil)
	res := Build(tokens, sproutASTRules(t), nil)
	require.False(t, res.HasErrors())
	require.Len(t, res.Get(), 1)

	want := Let{
		Name: "y",
		Value: Binary{
			Op:    "*",
			Left:  Binary{Op: "+", Left: Int{Value: 2}, Right: Int{Value: 3}},
			Right: Int{Value: 4},
		},
	}
	assert.Equal(t, want, res.Get()[0])
}

func TestBuildIsDeterministic(t *testing.T) {
	tokens := lexer.Tokenize("let a = 1 + 2;\nlet b = a * a;", sproutLexRules(t), nil)
	rules := sproutASTRules(t)

	first := Build(tokens, rules, nil)
	second := Build(tokens, rules, nil)
	assert.Equal(t, first.Get(), second.Get())
	assert.Equal(t, first.HasErrors(), second.HasErrors())
}

func TestIgnoreCommentsMatchesStrippedInput(t *testing.T) {
	rules := sproutASTRules(t)
	lex := sproutLexRules(t)

	commented := lexer.Tokenize("# leading\nlet x = 1 + 2; # trailing", lex, nil)
	stripped := lexer.Tokenize("let x = 1 + 2;", lex, nil)

	withComments := Build(commented, rules, nil)
	plain := Build(stripped, rules, nil)
	assert.Equal(t, plain.Get(), withComments.Get())
	assert.False(t, withComments.HasErrors())
}

// abcRules is the backtracking scenario: one rule with alternatives
// (a b c) and (a b d).
func abcRules(t *testing.T) (*lexer.RuleTable, *RuleTable) {
	t.Helper()
	lexRules, err := lexer.NewRuleTable().
		Keyword("a").
		Keyword("b").
		Keyword("c").
		Keyword("d").
		Build()
	require.NoError(t, err)

	astRules, err := NewRuleTable().
		TopRules("seq").
		StartRule("seq").
		AddDefinition("abc").
		Keyword("a", nil).
		Keyword("b", nil).
		Keyword("c", nil).
		EndDefinition(func(*Context) any { return "first" }).
		AddDefinition("abd").
		Keyword("a", nil).
		Keyword("b", nil).
		Keyword("d", nil).
		EndDefinition(func(*Context) any { return "second" }, "expected a b c or a b d").
		Build()
	require.NoError(t, err)
	return lexRules, astRules
}

func TestBacktrackingAcrossDefinitions(t *testing.T) {
	lexRules, astRules := abcRules(t)
	tokens := lexer.Tokenize("a b d", lexRules, nil)

	rep := cerr.NewReporter()
	res := Build(tokens, astRules, rep)
	require.False(t, res.HasErrors())
	require.Len(t, res.Get(), 1)
	assert.Equal(t, "second", res.Get()[0])
}

func TestFailedRuleReportsOnceAtFirstToken(t *testing.T) {
	lexRules, astRules := abcRules(t)
	tokens := lexer.Tokenize("a b", lexRules, nil)

	rep := cerr.NewReporter()
	res := Build(tokens, astRules, rep)
	assert.True(t, res.HasErrors())
	assert.Empty(t, res.Get())

	errs := rep.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Line)
	assert.Equal(t, 1, errs[0].Column)
	assert.Equal(t, "a", errs[0].TokenText)
	assert.Equal(t, "expected a b c or a b d", errs[0].Hint)

	// The wrapper carries the same errors as the reporter.
	assert.Equal(t, errs, res.Errors())
}

func TestRecoveryContinuesAfterError(t *testing.T) {
	lexRules, astRules := abcRules(t)
	// A bad construct followed by a good one: the bad one reports once
	// and the good one still parses.
	tokens := lexer.Tokenize("c a b c", lexRules, nil)

	rep := cerr.NewReporter()
	res := Build(tokens, astRules, rep)
	assert.True(t, res.HasErrors())
	require.Len(t, rep.Errors(), 1)
	require.Len(t, res.Get(), 1)
	assert.Equal(t, "first", res.Get()[0])
}

// lispRules builds the list grammar: form = list | symbol, with
// list = "(" { form } ")".
func lispRules(t *testing.T) (*lexer.RuleTable, *RuleTable) {
	t.Helper()
	lexRules, err := lexer.NewRuleTable().
		Delimiter("(").
		Delimiter(")").
		Identifier("symbol", `[^\s()]+`).
		Build()
	require.NoError(t, err)

	seedElems := func(c *Context) func() {
		return func() { c.Put("elems", []any{}) }
	}
	appendElem := func(c *Context) func(any) {
		return func(v any) {
			elems, _ := Get[[]any](c, "elems")
			c.Put("elems", append(elems, v))
		}
	}

	astRules, err := NewRuleTable().
		TopRules("form").
		StartRule("form").
		AddDefinition("list").
		Rule("list", putProduced("out")).
		EndDefinition(func(c *Context) any { return c.Get("out") }).
		AddDefinition("symbol").
		Identifier("symbol", putValue("name")).
		EndDefinition(func(c *Context) any {
			name, _ := Get[string](c, "name")
			return Symbol{Name: name}
		}).
		StartRule("list").
		AddDefinition("").
		Delimiter("(", nil).
		Repeat(seedElems).
		Rule("form", appendElem).
		StopRepeat().
		Delimiter(")", nil).
		EndDefinition(func(c *Context) any {
			elems, _ := Get[[]any](c, "elems")
			return List{Elems: elems}
		}).
		Build()
	require.NoError(t, err)
	return lexRules, astRules
}

func TestLispListForm(t *testing.T) {
	lexRules, astRules := lispRules(t)
	tokens := lexer.Tokenize("(define (square x) (* x x))", lexRules, nil)

	res := Build(tokens, astRules, nil)
	require.False(t, res.HasErrors())
	require.Len(t, res.Get(), 1)

	want := List{Elems: []any{
		Symbol{Name: "define"},
		List{Elems: []any{Symbol{Name: "square"}, Symbol{Name: "x"}}},
		List{Elems: []any{Symbol{Name: "*"}, Symbol{Name: "x"}, Symbol{Name: "x"}}},
	}}
	assert.Equal(t, want, res.Get()[0])
}

func TestEmptyLispList(t *testing.T) {
	lexRules, astRules := lispRules(t)
	tokens := lexer.Tokenize("()", lexRules, nil)

	res := Build(tokens, astRules, nil)
	require.False(t, res.HasErrors())
	require.Len(t, res.Get(), 1)
	assert.Equal(t, List{Elems: []any{}}, res.Get()[0])
}

func TestOptionalFallback(t *testing.T) {
	lexRules, err := lexer.NewRuleTable().
		Keyword("return").
		Literal("integer", `\d+`).
		Delimiter(";").
		Build()
	require.NoError(t, err)

	astRules, err := NewRuleTable().
		TopRules("ret").
		StartRule("ret").
		AddDefinition("").
		Keyword("return", nil).
		Optional().
		Literal("integer", putValue("value")).
		Otherwise(func(c *Context) func() {
			return func() { c.Put("value", "void") }
		}).
		Delimiter(";", nil).
		EndDefinition(func(c *Context) any { return c.Get("value") }).
		Build()
	require.NoError(t, err)

	res := Build(lexer.Tokenize("return 42;", lexRules, nil), astRules, nil)
	require.Len(t, res.Get(), 1)
	assert.Equal(t, "42", res.Get()[0])

	res = Build(lexer.Tokenize("return;", lexRules, nil), astRules, nil)
	require.Len(t, res.Get(), 1)
	assert.Equal(t, "void", res.Get()[0])
}

func TestFailedAlternativeLeavesNoContextState(t *testing.T) {
	lexRules, err := lexer.NewRuleTable().
		Keyword("a").
		Keyword("b").
		Keyword("z").
		Build()
	require.NoError(t, err)

	// The first alternative stores "tainted" before failing on z; the
	// second must not observe it.
	astRules, err := NewRuleTable().
		TopRules("r").
		StartRule("r").
		AddDefinition("").
		Keyword("a", nil).
		Choice().
		Keyword("b", putValue("mark")).
		Keyword("z", nil).
		Or().
		Keyword("b", nil).
		EndChoice().
		EndDefinition(func(c *Context) any {
			if v, ok := c.Lookup("mark"); ok {
				return v
			}
			return "clean"
		}).
		Build()
	require.NoError(t, err)

	res := Build(lexer.Tokenize("a b", lexRules, nil), astRules, nil)
	require.Len(t, res.Get(), 1)
	assert.Equal(t, "clean", res.Get()[0])
}

func TestSuccessfulMatchLeavesCursorAfterLastToken(t *testing.T) {
	lexRules, astRules := abcRules(t)
	tokens := lexer.Tokenize("a b d a b c", lexRules, nil)

	res := Build(tokens, astRules, nil)
	require.False(t, res.HasErrors())
	assert.Equal(t, []any{"second", "first"}, res.Get())
}

func TestLeadingStartSentinelIsConsumed(t *testing.T) {
	lexRules, err := lexer.NewRuleTable().
		Keyword("a").
		Keyword("b").
		Keyword("c").
		Keyword("d").
		Start().
		End().
		Build()
	require.NoError(t, err)
	_, astRules := abcRules(t)

	rep := cerr.NewReporter()
	res := Build(lexer.Tokenize("a b c", lexRules, nil), astRules, rep)
	assert.False(t, res.HasErrors())
	assert.Equal(t, []any{"first"}, res.Get())
	assert.False(t, rep.HasErrors())
}
