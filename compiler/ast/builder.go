package ast

import (
	"fmt"
	"strings"
)

// frame is one open scope in the definition under construction: the
// definition body itself, or a nested Repeat/Optional/Choice.
type frame struct {
	kind  stepKind // stepRepeat, stepOptional, stepChoice; the root frame reuses stepRule
	steps []step
	alts  [][]step // Choice only
	enter ContextAction
}

// RuleTableBuilder accumulates named rules, their alternative
// definitions, and the nested step structure, then validates and
// freezes them into a RuleTable.
//
// The fluent surface mirrors the grammar it describes:
//
//	table, err := ast.NewRuleTable().
//		TopRules("form").
//		IgnoreComments(true).
//		StartRule("form").
//		AddDefinition("list").
//		Delimiter("(", nil).
//		Repeat(seedList).
//		Rule("form", appendElem).
//		StopRepeat().
//		Delimiter(")", nil).
//		EndDefinition(buildList).
//		Build()
type RuleTableBuilder struct {
	top            []string
	ignoreComments bool
	rules          map[string]*rule
	order          []string
	curRule        *rule
	curDef         *definition
	frames         []*frame
	errs           []string
}

// NewRuleTable creates an empty AST rule table builder
func NewRuleTable() *RuleTableBuilder {
	return &RuleTableBuilder{rules: make(map[string]*rule)}
}

func (b *RuleTableBuilder) fail(format string, args ...any) *RuleTableBuilder {
	b.errs = append(b.errs, fmt.Sprintf(format, args...))
	return b
}

// TopRules declares what may appear at the outermost level, in order
// of acceptance
func (b *RuleTableBuilder) TopRules(names ...string) *RuleTableBuilder {
	b.top = append(b.top, names...)
	return b
}

// IgnoreComments controls whether the build cursor silently skips
// comment tokens
func (b *RuleTableBuilder) IgnoreComments(ignore bool) *RuleTableBuilder {
	b.ignoreComments = ignore
	return b
}

// StartRule opens a rule. Subsequent AddDefinition calls add
// alternatives to it until the next StartRule.
func (b *RuleTableBuilder) StartRule(name string) *RuleTableBuilder {
	if b.curDef != nil {
		return b.fail("rule %q: StartRule before EndDefinition", name)
	}
	if name == "" {
		return b.fail("StartRule with empty name")
	}
	if existing, ok := b.rules[name]; ok {
		// Re-opening an existing rule appends alternatives; Build
		// rejects conflicting re-declarations.
		b.curRule = existing
		return b
	}
	r := &rule{name: name}
	b.rules[name] = r
	b.order = append(b.order, name)
	b.curRule = r
	return b
}

// AddDefinition opens a new alternative of the current rule. The name
// may be empty.
func (b *RuleTableBuilder) AddDefinition(name string) *RuleTableBuilder {
	if b.curRule == nil {
		return b.fail("AddDefinition %q outside a rule", name)
	}
	if b.curDef != nil {
		return b.fail("definition %q: AddDefinition before EndDefinition", name)
	}
	b.curDef = &definition{name: name}
	b.frames = []*frame{{kind: stepRule}}
	return b
}

func (b *RuleTableBuilder) appendStep(s step) *RuleTableBuilder {
	if b.curDef == nil || len(b.frames) == 0 {
		return b.fail("%s step outside a definition", s.kind)
	}
	f := b.frames[len(b.frames)-1]
	f.steps = append(f.steps, s)
	return b
}

// Keyword appends a step consuming one keyword token with the exact
// given text. The action may be nil.
func (b *RuleTableBuilder) Keyword(value string, action TerminalAction) *RuleTableBuilder {
	return b.appendStep(step{kind: stepKeyword, value: value, terminal: action})
}

// Operator appends a step consuming one operator token with the exact
// given text
func (b *RuleTableBuilder) Operator(value string, action TerminalAction) *RuleTableBuilder {
	return b.appendStep(step{kind: stepOperator, value: value, terminal: action})
}

// Delimiter appends a step consuming one delimiter token with the
// exact given text
func (b *RuleTableBuilder) Delimiter(value string, action TerminalAction) *RuleTableBuilder {
	return b.appendStep(step{kind: stepDelimiter, value: value, terminal: action})
}

// Identifier appends a step consuming one identifier token of the
// given type
func (b *RuleTableBuilder) Identifier(typ string, action TerminalAction) *RuleTableBuilder {
	return b.appendStep(step{kind: stepIdentifier, value: typ, terminal: action})
}

// Literal appends a step consuming one literal token of the given type
func (b *RuleTableBuilder) Literal(typ string, action TerminalAction) *RuleTableBuilder {
	return b.appendStep(step{kind: stepLiteral, value: typ, terminal: action})
}

// Rule appends a step that recursively applies the named rule and
// passes the produced object to the consumer. The rule may be declared
// later; names resolve at Build time.
func (b *RuleTableBuilder) Rule(name string, consumer RuleAction) *RuleTableBuilder {
	return b.appendStep(step{kind: stepRule, value: name, rule: consumer})
}

// Repeat opens a zero-or-more sub-sequence. The initializer runs once
// before the first iteration attempt; it is where an aggregator is
// seeded. Close the scope with StopRepeat.
func (b *RuleTableBuilder) Repeat(initializer ContextAction) *RuleTableBuilder {
	if b.curDef == nil {
		return b.fail("Repeat outside a definition")
	}
	b.frames = append(b.frames, &frame{kind: stepRepeat, enter: initializer})
	return b
}

// StopRepeat closes the innermost Repeat scope
func (b *RuleTableBuilder) StopRepeat() *RuleTableBuilder {
	f, ok := b.popFrame(stepRepeat)
	if !ok {
		return b.fail("StopRepeat without an open Repeat")
	}
	return b.appendStep(step{kind: stepRepeat, children: f.steps, enter: f.enter})
}

// Optional opens a sub-sequence whose failure is not fatal. Close the
// scope with Otherwise, whose fallback runs when the sequence did not
// match (the fallback may be nil).
func (b *RuleTableBuilder) Optional() *RuleTableBuilder {
	if b.curDef == nil {
		return b.fail("Optional outside a definition")
	}
	b.frames = append(b.frames, &frame{kind: stepOptional})
	return b
}

// Otherwise closes the innermost Optional scope
func (b *RuleTableBuilder) Otherwise(fallback ContextAction) *RuleTableBuilder {
	f, ok := b.popFrame(stepOptional)
	if !ok {
		return b.fail("Otherwise without an open Optional")
	}
	return b.appendStep(step{kind: stepOptional, children: f.steps, fallback: fallback})
}

// Choice opens an ordered list of alternative sub-sequences. Or closes
// the current alternative and starts the next; EndChoice closes the
// scope. The first alternative that matches wins.
func (b *RuleTableBuilder) Choice() *RuleTableBuilder {
	if b.curDef == nil {
		return b.fail("Choice outside a definition")
	}
	b.frames = append(b.frames, &frame{kind: stepChoice})
	return b
}

// Or seals the current Choice alternative and opens the next one
func (b *RuleTableBuilder) Or() *RuleTableBuilder {
	if len(b.frames) == 0 || b.frames[len(b.frames)-1].kind != stepChoice {
		return b.fail("Or without an open Choice")
	}
	f := b.frames[len(b.frames)-1]
	f.alts = append(f.alts, f.steps)
	f.steps = nil
	return b
}

// EndChoice closes the innermost Choice scope
func (b *RuleTableBuilder) EndChoice() *RuleTableBuilder {
	f, ok := b.popFrame(stepChoice)
	if !ok {
		return b.fail("EndChoice without an open Choice")
	}
	alts := append(f.alts, f.steps)
	return b.appendStep(step{kind: stepChoice, alts: alts})
}

func (b *RuleTableBuilder) popFrame(kind stepKind) (*frame, bool) {
	if len(b.frames) == 0 {
		return nil, false
	}
	f := b.frames[len(b.frames)-1]
	if f.kind != kind {
		return nil, false
	}
	b.frames = b.frames[:len(b.frames)-1]
	return f, true
}

// EndDefinition closes the open definition, attaching its result
// builder and an optional hint. Hints of top-rule definitions are
// attached to the error recorded when no top rule matches; hints on
// other rules are not shown.
func (b *RuleTableBuilder) EndDefinition(build ResultBuilder, hint ...string) *RuleTableBuilder {
	if b.curDef == nil {
		return b.fail("EndDefinition without an open definition")
	}
	if len(b.frames) != 1 {
		b.fail("definition %q: %d unterminated combinator scope(s)", b.curDef.name, len(b.frames)-1)
		b.curDef = nil
		b.frames = nil
		return b
	}
	b.curDef.steps = b.frames[0].steps
	b.curDef.build = build
	if len(hint) > 0 {
		b.curDef.hint = hint[0]
	}
	b.curRule.defs = append(b.curRule.defs, *b.curDef)
	b.curDef = nil
	b.frames = nil
	return b
}

// Build validates and freezes the table. It fails on builder misuse
// recorded along the way (steps outside a definition, unmatched
// terminators, unterminated scopes), rules without definitions, rule
// references that never resolve, missing or undefined top rules, and
// conflicting rule re-declarations.
func (b *RuleTableBuilder) Build() (*RuleTable, error) {
	if b.curDef != nil {
		b.fail("definition %q never closed", b.curDef.name)
	}
	for _, name := range b.order {
		r := b.rules[name]
		if len(r.defs) == 0 {
			b.fail("rule %q has no definitions", name)
		}
		if dup := duplicateSignature(r); dup != "" {
			b.fail("rule %q: conflicting re-declaration of definition %q", name, dup)
		}
		for _, d := range r.defs {
			b.checkRefs(name, d.steps)
		}
	}
	if len(b.top) == 0 {
		b.fail("no top rules declared")
	}
	for _, name := range b.top {
		if _, ok := b.rules[name]; !ok {
			b.fail("top rule %q is not defined", name)
		}
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("ast: invalid rule table:\n  %s", strings.Join(b.errs, "\n  "))
	}

	rt := &RuleTable{
		top:            append([]string(nil), b.top...),
		ignoreComments: b.ignoreComments,
		rules:          make(map[string]*rule, len(b.rules)),
	}
	for name, r := range b.rules {
		rc := &rule{name: name}
		seen := make(map[string]bool)
		for _, d := range r.defs {
			if d.name != "" {
				key := d.name + "|" + stepsSignature(d.steps)
				if seen[key] {
					continue // identical re-declaration is a no-op
				}
				seen[key] = true
			}
			rc.defs = append(rc.defs, d)
		}
		rt.rules[name] = rc
	}
	return rt, nil
}

// MustBuild is Build that panics on error, for grammars defined as
// package-level values
func (b *RuleTableBuilder) MustBuild() *RuleTable {
	rt, err := b.Build()
	if err != nil {
		panic(err)
	}
	return rt
}

func (b *RuleTableBuilder) checkRefs(ruleName string, steps []step) {
	for _, s := range steps {
		switch s.kind {
		case stepRule:
			if _, ok := b.rules[s.value]; !ok {
				b.fail("rule %q references undeclared rule %q", ruleName, s.value)
			}
		case stepRepeat, stepOptional:
			b.checkRefs(ruleName, s.children)
		case stepChoice:
			for _, alt := range s.alts {
				b.checkRefs(ruleName, alt)
			}
		}
	}
}

// duplicateSignature reports a definition name that appears twice with
// a different step shape. Function values cannot be compared, so the
// signature covers step kinds and values only; a byte-identical shape
// is treated as a harmless re-declaration and deduplicated by name.
func duplicateSignature(r *rule) string {
	seen := make(map[string]string)
	for _, d := range r.defs {
		if d.name == "" {
			continue
		}
		sig := stepsSignature(d.steps)
		if prev, ok := seen[d.name]; ok && prev != sig {
			return d.name
		}
		seen[d.name] = sig
	}
	return ""
}

func stepsSignature(steps []step) string {
	var sb strings.Builder
	for _, s := range steps {
		sb.WriteString(s.kind.String())
		sb.WriteByte(':')
		sb.WriteString(s.value)
		switch s.kind {
		case stepRepeat, stepOptional:
			sb.WriteByte('[')
			sb.WriteString(stepsSignature(s.children))
			sb.WriteByte(']')
		case stepChoice:
			sb.WriteByte('[')
			for _, alt := range s.alts {
				sb.WriteByte('(')
				sb.WriteString(stepsSignature(alt))
				sb.WriteByte(')')
			}
			sb.WriteByte(']')
		}
		sb.WriteByte(';')
	}
	return sb.String()
}
