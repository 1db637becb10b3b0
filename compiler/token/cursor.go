package token

import "fmt"

// Cursor is a consumable view over a token sequence with lookahead and
// save/backtrack/commit support. When constructed with ignoreComments
// it transparently skips KIND_COMMENT tokens: after construction and
// after every Consume or SetPosition the cursor rests on the next
// non-comment token, and saved positions record the post-skip index so
// that a rollback never reveals a comment.
//
// A cursor is owned by the single parse that created it; it must not
// be shared.
type Cursor struct {
	tokens         []Token
	pos            int
	marks          []int
	ignoreComments bool
}

// NewCursor creates a cursor over the given token sequence
func NewCursor(tokens []Token, ignoreComments bool) *Cursor {
	c := &Cursor{
		tokens:         tokens,
		pos:            0,
		marks:          make([]int, 0, 8),
		ignoreComments: ignoreComments,
	}
	c.skipComments()
	return c
}

// skipComments advances past any comment tokens at the current index
func (c *Cursor) skipComments() {
	if !c.ignoreComments {
		return
	}
	for c.pos < len(c.tokens) && c.tokens[c.pos].Kind == KIND_COMMENT {
		c.pos++
	}
}

// visibleIndex resolves a lookahead offset to an absolute index,
// counting only non-comment tokens when comment skipping is on.
// Returns -1 past the end.
func (c *Cursor) visibleIndex(offset int) int {
	i := c.pos
	for {
		if i >= len(c.tokens) {
			return -1
		}
		if c.ignoreComments && c.tokens[i].Kind == KIND_COMMENT {
			i++
			continue
		}
		if offset == 0 {
			return i
		}
		offset--
		i++
	}
}

// Peek returns the current token without consuming it
func (c *Cursor) Peek() (Token, bool) {
	return c.PeekAt(0)
}

// PeekAt returns the token at the given lookahead offset without
// consuming anything
func (c *Cursor) PeekAt(offset int) (Token, bool) {
	i := c.visibleIndex(offset)
	if i < 0 {
		return Token{}, false
	}
	return c.tokens[i], true
}

// Consume returns the current token and advances past it
func (c *Cursor) Consume() (Token, bool) {
	if c.pos >= len(c.tokens) {
		return Token{}, false
	}
	t := c.tokens[c.pos]
	c.pos++
	c.skipComments()
	return t, true
}

// SavePosition pushes the current index onto the backtrack stack and
// returns it
func (c *Cursor) SavePosition() int {
	c.marks = append(c.marks, c.pos)
	return c.pos
}

// Backtrack pops the most recently saved position and restores it
func (c *Cursor) Backtrack() error {
	if len(c.marks) == 0 {
		return fmt.Errorf("cursor: backtrack with no saved position")
	}
	c.pos = c.marks[len(c.marks)-1]
	c.marks = c.marks[:len(c.marks)-1]
	return nil
}

// Commit pops the most recently saved position without restoring it
func (c *Cursor) Commit() error {
	if len(c.marks) == 0 {
		return fmt.Errorf("cursor: commit with no saved position")
	}
	c.marks = c.marks[:len(c.marks)-1]
	return nil
}

// SetPosition moves the cursor to an explicit index within bounds
func (c *Cursor) SetPosition(i int) error {
	if i < 0 || i > len(c.tokens) {
		return fmt.Errorf("cursor: position %d out of range [0,%d]", i, len(c.tokens))
	}
	c.pos = i
	c.skipComments()
	return nil
}

// ConsumeWhile consumes tokens while the current token is of the given
// kind and returns how many were consumed
func (c *Cursor) ConsumeWhile(kind Kind) int {
	n := 0
	for {
		t, ok := c.Peek()
		if !ok || t.Kind != kind {
			return n
		}
		c.Consume()
		n++
	}
}

// Pos returns the current index
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns how many tokens are left, including the current one
func (c *Cursor) Remaining() int {
	return len(c.tokens) - c.pos
}

// AtEnd reports whether every token has been consumed
func (c *Cursor) AtEnd() bool {
	_, ok := c.Peek()
	return !ok
}
