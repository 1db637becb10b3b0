package ast

import "github.com/nest-lang/nest/compiler/token"

// Action signatures. All parser actions are two-stage: given the build
// context they return the callback to run for the matched input, so a
// closure can capture whatever slice of the context it needs.

// TerminalAction runs when a terminal step matches; the returned
// callback receives the consumed token
type TerminalAction func(*Context) func(t token.Token)

// RuleAction runs when a rule-call step matches; the returned callback
// receives the object the rule produced
type RuleAction func(*Context) func(produced any)

// ContextAction is the hook shape for Repeat initializers and Optional
// fallbacks
type ContextAction func(*Context) func()

// ResultBuilder assembles the definition's AST node from the context
type ResultBuilder func(*Context) any

type stepKind int

const (
	stepKeyword stepKind = iota
	stepOperator
	stepDelimiter
	stepIdentifier
	stepLiteral
	stepRule
	stepRepeat
	stepOptional
	stepChoice
)

func (k stepKind) String() string {
	switch k {
	case stepKeyword:
		return "keyword"
	case stepOperator:
		return "operator"
	case stepDelimiter:
		return "delimiter"
	case stepIdentifier:
		return "identifier"
	case stepLiteral:
		return "literal"
	case stepRule:
		return "rule"
	case stepRepeat:
		return "repeat"
	case stepOptional:
		return "optional"
	case stepChoice:
		return "choice"
	default:
		return "unknown"
	}
}

// step is one parsing instruction inside a definition. The value field
// holds the literal text for keyword/operator/delimiter steps, the
// type for identifier/literal steps, and the rule name for rule steps.
type step struct {
	kind     stepKind
	value    string
	terminal TerminalAction
	rule     RuleAction
	enter    ContextAction // Repeat initializer
	fallback ContextAction // Optional fallback
	children []step        // Repeat/Optional sub-sequence
	alts     [][]step      // Choice alternatives, in declared order
}

// definition is one alternative of a rule: an ordered step sequence, a
// result builder, and an optional hint (shown only for top rules, on
// the error recorded when none of them matches)
type definition struct {
	name  string
	steps []step
	build ResultBuilder
	hint  string
}

// rule is a named nonterminal holding its alternatives in declared
// order. Declared order is also attempt order.
type rule struct {
	name string
	defs []definition
}

// RuleTable is the immutable description of a grammar: the ordered top
// rules, the comment-skipping flag, and the name-to-rule map. Rules
// reference each other purely by name, so cycles and forward
// references cost nothing at construction time; Build validates that
// every referenced name resolves.
type RuleTable struct {
	top            []string
	ignoreComments bool
	rules          map[string]*rule
}

// TopRules returns the rule names accepted at the outermost level, in
// order of acceptance
func (rt *RuleTable) TopRules() []string {
	return append([]string(nil), rt.top...)
}

// IgnoresComments reports whether the cursor silently skips comments
func (rt *RuleTable) IgnoresComments() bool {
	return rt.ignoreComments
}

// HasRule reports whether a rule with the given name exists
func (rt *RuleTable) HasRule(name string) bool {
	_, ok := rt.rules[name]
	return ok
}
