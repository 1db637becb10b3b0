package ast

import (
	"fmt"

	"go.uber.org/zap"

	cerr "github.com/nest-lang/nest/compiler/errors"
	"github.com/nest-lang/nest/compiler/token"
)

// Option configures a build
type Option func(*engine)

// WithLogger attaches a zap logger for debug tracing of rule attempts
// and backtracking. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *engine) {
		e.log = log
	}
}

// Result wraps the outcome of a build: the produced root objects (in
// source order, possibly partial) and the errors recorded along the
// way. The same errors also flow into the reporter, so callers can
// inspect either independently and combine them as they see fit.
type Result struct {
	roots []any
	errs  []cerr.Report
}

// Get returns the produced root objects
func (r *Result) Get() []any {
	return r.roots
}

// HasErrors reports whether the build recorded any errors
func (r *Result) HasErrors() bool {
	return len(r.errs) > 0
}

// Errors returns the recorded parse errors in source order
func (r *Result) Errors() []cerr.Report {
	return append([]cerr.Report(nil), r.errs...)
}

// Build drives the token stream against the rule table and constructs
// user objects. It never panics and never returns an error: parse
// failures at the top level are recorded in the reporter (which may be
// nil) and the builder re-synchronizes one token further on.
func Build(tokens []token.Token, rules *RuleTable, reporter *cerr.Reporter, opts ...Option) *Result {
	e := &engine{
		cur:      token.NewCursor(tokens, rules.ignoreComments),
		rules:    rules,
		reporter: reporter,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e.run()
}

type engine struct {
	cur      *token.Cursor
	rules    *RuleTable
	reporter *cerr.Reporter
	log      *zap.Logger
}

func (e *engine) run() *Result {
	res := &Result{}

	// A sentinel-enabled lexer puts Start at the head of the stream;
	// it is not part of any grammar.
	if t, ok := e.cur.Peek(); ok && t.Kind == token.KIND_START {
		e.cur.Consume()
	}

	// Consecutive unmatched tokens collapse into one diagnostic at the
	// first offending token, so one bad construct reports once instead
	// of once per token it spans.
	panicMode := false
	for {
		t, ok := e.cur.Peek()
		if !ok || t.Kind == token.KIND_END {
			break
		}

		before := e.cur.Pos()
		matched := false
		for _, name := range e.rules.top {
			if obj, ok := e.matchRule(name); ok {
				res.roots = append(res.roots, obj)
				matched = true
				break
			}
		}
		if matched {
			panicMode = false
			// A zero-width match cannot be allowed to stall the loop.
			if e.cur.Pos() == before {
				e.cur.Consume()
			}
			continue
		}

		if !panicMode {
			e.report(res, t)
			panicMode = true
		}
		e.cur.Consume()
	}
	e.log.Debug("build complete",
		zap.Int("roots", len(res.roots)),
		zap.Int("errors", len(res.errs)))
	return res
}

// report records one top-level failure at the given token, both on the
// result and in the reporter
func (e *engine) report(res *Result, t token.Token) {
	rep := cerr.Report{
		Severity:  cerr.Error,
		Message:   fmt.Sprintf("unexpected token %q", t.Value),
		Line:      t.Line,
		Column:    t.Column,
		TokenText: t.Value,
		Hint:      e.topHint(),
	}
	res.errs = append(res.errs, rep)
	if e.reporter != nil {
		e.reporter.Error(rep.Message, rep.Line, rep.Column, rep.TokenText, rep.Hint)
	}
}

// topHint surfaces the first non-empty definition hint among the top
// rules, all of which just failed
func (e *engine) topHint() string {
	for _, name := range e.rules.top {
		r := e.rules.rules[name]
		for _, d := range r.defs {
			if d.hint != "" {
				return d.hint
			}
		}
	}
	return ""
}

// matchRule tries the rule's definitions in declared order. The first
// definition whose steps all match wins: its builder runs against the
// accumulated context and the cursor commits. A failed definition
// restores the cursor and discards its context entirely.
func (e *engine) matchRule(name string) (any, bool) {
	r := e.rules.rules[name]
	for i := range r.defs {
		d := &r.defs[i]
		e.cur.SavePosition()
		ctx := NewContext()
		if e.runSteps(ctx, d.steps) {
			e.cur.Commit()
			var obj any
			if d.build != nil {
				obj = d.build(ctx)
			}
			e.log.Debug("rule matched",
				zap.String("rule", name),
				zap.String("definition", d.name),
				zap.Int("pos", e.cur.Pos()))
			return obj, true
		}
		e.log.Debug("definition failed",
			zap.String("rule", name),
			zap.String("definition", d.name))
		e.cur.Backtrack()
	}
	return nil, false
}

// runSteps executes an ordered step sequence against the cursor and
// context. On failure the caller restores the cursor; context puts
// performed by a failed sub-sequence are rolled back here via the
// journal so no user-visible state survives a dead branch.
func (e *engine) runSteps(ctx *Context, steps []step) bool {
	for i := range steps {
		s := &steps[i]
		switch s.kind {
		case stepKeyword, stepOperator, stepDelimiter, stepIdentifier, stepLiteral:
			if !e.runTerminal(ctx, s) {
				return false
			}

		case stepRule:
			obj, ok := e.matchRule(s.value)
			if !ok {
				return false
			}
			if s.rule != nil {
				if cb := s.rule(ctx); cb != nil {
					cb(obj)
				}
			}

		case stepRepeat:
			if s.enter != nil {
				if cb := s.enter(ctx); cb != nil {
					cb()
				}
			}
			for {
				e.cur.SavePosition()
				before := e.cur.Pos()
				m := ctx.mark()
				if e.runSteps(ctx, s.children) {
					e.cur.Commit()
					// A zero-width iteration would never terminate.
					if e.cur.Pos() == before {
						break
					}
					continue
				}
				e.cur.Backtrack()
				ctx.rollback(m)
				break
			}

		case stepOptional:
			e.cur.SavePosition()
			m := ctx.mark()
			if e.runSteps(ctx, s.children) {
				e.cur.Commit()
			} else {
				e.cur.Backtrack()
				ctx.rollback(m)
				if s.fallback != nil {
					if cb := s.fallback(ctx); cb != nil {
						cb()
					}
				}
			}

		case stepChoice:
			matched := false
			for _, alt := range s.alts {
				e.cur.SavePosition()
				m := ctx.mark()
				if e.runSteps(ctx, alt) {
					e.cur.Commit()
					matched = true
					break
				}
				e.cur.Backtrack()
				ctx.rollback(m)
			}
			if !matched {
				return false
			}
		}
	}
	return true
}

// runTerminal consumes one token if it matches the step's kind and
// text/type, running the step's action first
func (e *engine) runTerminal(ctx *Context, s *step) bool {
	t, ok := e.cur.Peek()
	if !ok {
		return false
	}
	switch s.kind {
	case stepKeyword:
		if t.Kind != token.KIND_KEYWORD || t.Value != s.value {
			return false
		}
	case stepOperator:
		if t.Kind != token.KIND_OPERATOR || t.Value != s.value {
			return false
		}
	case stepDelimiter:
		if t.Kind != token.KIND_DELIMITER || t.Value != s.value {
			return false
		}
	case stepIdentifier:
		if t.Kind != token.KIND_IDENTIFIER || t.Type != s.value {
			return false
		}
	case stepLiteral:
		if t.Kind != token.KIND_LITERAL || t.Type != s.value {
			return false
		}
	}
	if s.terminal != nil {
		if cb := s.terminal(ctx); cb != nil {
			cb(t)
		}
	}
	e.cur.Consume()
	return true
}
