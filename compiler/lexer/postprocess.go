package lexer

import "github.com/nest-lang/nest/compiler/token"

// Transform rewrites a token. Transformations must preserve the token
// variant: a keyword stays a keyword, a "integer" literal stays a
// "integer" literal. That precondition is on the caller; the
// post-processor does not verify it.
type Transform func(token.Token) token.Token

// PostProcessor applies type-keyed transformations to tokens as the
// tokenizer produces them. Immutable once built; a nil PostProcessor
// is a no-op.
type PostProcessor struct {
	transforms map[string][]Transform
}

// Apply runs the ordered transform list registered for the token's
// type key, threading the token through each. Tokens without a type
// key (sentinels, whitespace bookkeeping, invalid tokens) pass
// through untouched.
func (p *PostProcessor) Apply(t token.Token) token.Token {
	if p == nil {
		return t
	}
	key := t.TypeKey()
	if key == "" {
		return t
	}
	for _, fn := range p.transforms[key] {
		t = fn(t)
	}
	return t
}

// PostProcessorBuilder accumulates transformation lists per type key.
// Repeated registrations for a key append in order.
type PostProcessorBuilder struct {
	transforms map[string][]Transform
}

// NewPostProcessor creates an empty post-processor builder
func NewPostProcessor() *PostProcessorBuilder {
	return &PostProcessorBuilder{transforms: make(map[string][]Transform)}
}

func (b *PostProcessorBuilder) add(key string, fn Transform) *PostProcessorBuilder {
	b.transforms[key] = append(b.transforms[key], fn)
	return b
}

// Keyword appends a transformation for keyword tokens
func (b *PostProcessorBuilder) Keyword(fn Transform) *PostProcessorBuilder {
	return b.add("keyword", fn)
}

// Operator appends a transformation for operator tokens
func (b *PostProcessorBuilder) Operator(fn Transform) *PostProcessorBuilder {
	return b.add("operator", fn)
}

// Delimiter appends a transformation for delimiter tokens
func (b *PostProcessorBuilder) Delimiter(fn Transform) *PostProcessorBuilder {
	return b.add("delimiter", fn)
}

// Comment appends a transformation for comment tokens
func (b *PostProcessorBuilder) Comment(fn Transform) *PostProcessorBuilder {
	return b.add("comment", fn)
}

// Literal appends a transformation for literals of the given type
func (b *PostProcessorBuilder) Literal(typ string, fn Transform) *PostProcessorBuilder {
	return b.add(typ, fn)
}

// Identifier appends a transformation for identifiers of the given type
func (b *PostProcessorBuilder) Identifier(typ string, fn Transform) *PostProcessorBuilder {
	return b.add(typ, fn)
}

// Build produces the immutable post-processor
func (b *PostProcessorBuilder) Build() *PostProcessor {
	transforms := make(map[string][]Transform, len(b.transforms))
	for k, v := range b.transforms {
		transforms[k] = append([]Transform(nil), v...)
	}
	return &PostProcessor{transforms: transforms}
}
