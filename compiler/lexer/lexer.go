package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/nest-lang/nest/compiler/token"
)

// Option configures a Scanner
type Option func(*Scanner)

// WithLogger attaches a zap logger for debug tracing. The default is
// a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scanner) {
		s.log = log
	}
}

// Scanner produces tokens on demand. It is the lazy view over the
// tokenization; Tokenize drains one to build the eager view, so the
// two are identical by construction.
type Scanner struct {
	rules        *RuleTable
	post         *PostProcessor
	lines        [][]rune
	li           int // current line, 0-based
	col          int // current column, 0-based rune index
	atLineStart  bool
	pending      []token.Token
	indents      []int
	indentChar   rune
	lastNonEmpty int // 1-based line number of the last non-empty line
	emittedStart bool
	finished     bool
	log          *zap.Logger
}

// NewScanner creates a lazy tokenizer over the given source. The rule
// table is required; the post-processor may be nil.
func NewScanner(source string, rules *RuleTable, post *PostProcessor, opts ...Option) *Scanner {
	s := &Scanner{
		rules:       rules,
		post:        post,
		lines:       splitLines(source),
		atLineStart: true,
		indents:     []int{0},
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokenize converts source text into a token sequence. It is total:
// it always completes, surfacing problems as Invalid tokens.
func Tokenize(source string, rules *RuleTable, post *PostProcessor, opts ...Option) []token.Token {
	return NewScanner(source, rules, post, opts...).Collect()
}

// Next returns the next token, or false when the stream is exhausted
func (s *Scanner) Next() (token.Token, bool) {
	for len(s.pending) == 0 && !s.finished {
		s.step()
	}
	if len(s.pending) == 0 {
		return token.Token{}, false
	}
	t := s.pending[0]
	s.pending = s.pending[1:]
	return t, true
}

// Collect drains the scanner into a slice
func (s *Scanner) Collect() []token.Token {
	tokens := make([]token.Token, 0, 64)
	for {
		t, ok := s.Next()
		if !ok {
			break
		}
		tokens = append(tokens, t)
	}
	s.log.Debug("tokenization complete",
		zap.Int("tokens", len(tokens)),
		zap.Int("lines", len(s.lines)))
	return tokens
}

// InvalidTokens returns the Invalid tokens of a sequence, the lexer's
// only signaling mechanism for lexical problems
func InvalidTokens(tokens []token.Token) []token.Token {
	var invalid []token.Token
	for _, t := range tokens {
		if t.Kind == token.KIND_INVALID {
			invalid = append(invalid, t)
		}
	}
	return invalid
}

// splitLines canonicalizes line endings (CRLF and bare CR become LF)
// and splits the source into its 1-based line view
func splitLines(source string) [][]rune {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")
	raw := strings.Split(source, "\n")
	lines := make([][]rune, len(raw))
	for i, l := range raw {
		lines[i] = []rune(l)
	}
	return lines
}

// step advances the scan by one unit of progress, queueing zero or
// more tokens
func (s *Scanner) step() {
	if !s.emittedStart {
		s.emittedStart = true
		if s.rules.emitStart {
			s.emit(token.Start())
		}
		return
	}

	if s.li >= len(s.lines) {
		s.finishStream()
		return
	}

	line := s.lines[s.li]

	if s.atLineStart {
		s.atLineStart = false
		if isBlank(line) {
			s.nextLine()
			return
		}
		if s.rules.mode != WHITESPACE_IGNORE && s.lastNonEmpty > 0 {
			prev := s.lastNonEmpty
			s.emit(token.NewLine(prev, len(s.lines[prev-1])+1))
		}
		s.lastNonEmpty = s.li + 1
		if s.rules.mode == WHITESPACE_INDENTATION {
			s.handleIndent(line)
		}
		return
	}

	for s.col < len(line) && isLineSpace(line[s.col]) {
		s.col++
	}
	if s.col >= len(line) {
		s.nextLine()
		return
	}
	s.scanAt(line)
}

func (s *Scanner) nextLine() {
	s.li++
	s.col = 0
	s.atLineStart = true
}

// finishStream closes any open indentation levels and emits the End
// sentinel when requested
func (s *Scanner) finishStream() {
	lastLine := len(s.lines)
	if lastLine == 0 {
		lastLine = 1
	}
	if s.rules.mode == WHITESPACE_INDENTATION {
		for len(s.indents) > 1 {
			s.indents = s.indents[:len(s.indents)-1]
			s.emit(token.IndentDecr(lastLine, 1))
		}
	}
	if s.rules.emitEnd {
		s.emit(token.End(lastLine, 1))
	}
	s.finished = true
}

// handleIndent consumes the leading whitespace of a non-empty line and
// turns level changes into indent tokens. Character inconsistencies
// produce Invalid tokens and leave the level stack untouched so the
// stream stays balanced.
func (s *Scanner) handleIndent(line []rune) {
	var sawSpace, sawTab bool
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		if line[i] == ' ' {
			sawSpace = true
		} else {
			sawTab = true
		}
		i++
	}
	width := i
	lineNo := s.li + 1
	s.col = i

	if width == 0 {
		for len(s.indents) > 1 {
			s.indents = s.indents[:len(s.indents)-1]
			s.emit(token.IndentDecr(lineNo, 1))
		}
		return
	}

	if sawSpace && sawTab {
		s.emit(token.Invalid("Mixed tabs/spaces in indentation", lineNo, 1))
		return
	}
	if s.indentChar == 0 {
		s.indentChar = line[0]
	} else if line[0] != s.indentChar {
		s.emit(token.Invalid("Inconsistent indentation character", lineNo, 1))
		return
	}

	top := s.indents[len(s.indents)-1]
	switch {
	case width > top:
		s.indents = append(s.indents, width)
		s.emit(token.IndentIncr(lineNo, 1))
	case width < top:
		for len(s.indents) > 1 && s.indents[len(s.indents)-1] > width {
			s.indents = s.indents[:len(s.indents)-1]
			s.emit(token.IndentDecr(lineNo, 1))
		}
		if s.indents[len(s.indents)-1] != width {
			s.emit(token.Invalid(fmt.Sprintf("Inconsistent indentation level %d", width), lineNo, 1))
		}
	}
}

// scanAt matches every prototype at the current offset and emits the
// winner, or an Invalid token for a single unmatchable character
func (s *Scanner) scanAt(line []rune) {
	pos := s.col
	best := -1
	bestLen := 0
	for i, m := range s.rules.matchers {
		n := m.match(line, pos, s.rules.caseSensitive)
		if n <= 0 {
			continue
		}
		if n > bestLen {
			best, bestLen = i, n
			continue
		}
		// Tie: a delimiter beats an operator that matched the same
		// literal text; otherwise the earlier matcher keeps the win.
		if n == bestLen && best >= 0 {
			w := s.rules.matchers[best]
			if m.re == nil && w.re == nil &&
				m.kind == token.KIND_DELIMITER && w.kind == token.KIND_OPERATOR &&
				sameLiteral(m.text, w.text, s.rules.caseSensitive) {
				best = i
			}
		}
	}

	lineNo := s.li + 1
	colNo := pos + 1
	if best < 0 {
		s.emit(token.Invalid(string(line[pos]), lineNo, colNo))
		s.col++
		return
	}

	m := s.rules.matchers[best]
	text := string(line[pos : pos+bestLen])
	var t token.Token
	switch m.kind {
	case token.KIND_KEYWORD:
		t = token.Keyword(text, lineNo, colNo)
	case token.KIND_OPERATOR:
		t = token.Operator(text, lineNo, colNo)
	case token.KIND_DELIMITER:
		t = token.Delimiter(text, lineNo, colNo)
	case token.KIND_LITERAL:
		t = token.Literal(m.typ, text, lineNo, colNo)
	case token.KIND_IDENTIFIER:
		t = token.Identifier(m.typ, text, lineNo, colNo)
	case token.KIND_COMMENT:
		t = token.Comment(text, lineNo, colNo)
	}
	s.emit(t)
	s.col += bestLen
}

// emit post-processes a token and queues it
func (s *Scanner) emit(t token.Token) {
	t = s.post.Apply(t)
	s.log.Debug("token",
		zap.Stringer("kind", t.Kind),
		zap.String("value", t.Value),
		zap.Int("line", t.Line),
		zap.Int("column", t.Column))
	s.pending = append(s.pending, t)
}

// match returns the matched length in runes at pos, or 0
func (m *matcher) match(line []rune, pos int, caseSensitive bool) int {
	if m.re != nil {
		rest := string(line[pos:])
		loc := m.re.FindStringIndex(rest)
		if loc == nil || loc[1] == 0 {
			return 0
		}
		return utf8.RuneCountInString(rest[:loc[1]])
	}

	n := len(m.text)
	if pos+n > len(line) {
		return 0
	}
	if !sameLiteral(line[pos:pos+n], m.text, caseSensitive) {
		return 0
	}
	// An all-alphabetic literal must not match the front of a longer
	// identifier: "and" never matches inside "andrew".
	if m.alphabetic && pos+n < len(line) && isIdentChar(line[pos+n]) {
		return 0
	}
	return n
}

func sameLiteral(a, b []rune, caseSensitive bool) bool {
	if caseSensitive {
		return string(a) == string(b)
	}
	return strings.EqualFold(string(a), string(b))
}

func isBlank(line []rune) bool {
	for _, r := range line {
		if !isLineSpace(r) {
			return false
		}
	}
	return true
}

func isLineSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\v' || r == '\f'
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r)
}

func isIdentChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
