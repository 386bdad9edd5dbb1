package generator

import "strings"

// maxNewlines is the longest newline run a single request may ask for.
const maxNewlines = 6

// Buffer accumulates output. Whitespace is held in a tail queue until
// content follows, so trailing spaces before a newline and runs of blank
// lines can be dropped before they reach the committed text.
type Buffer struct {
	out  strings.Builder
	tail []byte

	last     byte
	newlines int
	line     int
}

// NewBuffer returns an empty buffer positioned on line 1.
func NewBuffer() *Buffer { return &Buffer{line: 1} }

// Append flushes the queued whitespace and commits text.
func (b *Buffer) Append(text string) {
	if text == "" {
		return
	}

	b.flush()
	b.out.WriteString(text)

	b.last = text[len(text)-1]
	b.newlines = 0
	b.line += strings.Count(text, "\n")
}

// QueueSpace queues one space unless the output is at a line start or
// already ends in whitespace.
func (b *Buffer) QueueSpace() {
	if b.AtLineStart() || b.endsWithSpace() {
		return
	}

	b.tail = append(b.tail, ' ')
}

// QueueNewlines queues up to n newlines. Pending spaces are dropped and the
// total run never exceeds two, which is one blank line.
func (b *Buffer) QueueNewlines(n int) {
	if b.out.Len() == 0 && len(b.tail) == 0 {
		return
	}

	n = min(n, maxNewlines)

	b.trimTailSpaces()

	for range n {
		if b.pendingNewlines() >= 2 {
			return
		}

		b.tail = append(b.tail, '\n')
	}
}

// PadTo queues newlines until the next content lands on line. Unlike
// QueueNewlines it does not collapse blank lines.
func (b *Buffer) PadTo(line int) {
	b.trimTailSpaces()

	for b.Line() < line {
		b.tail = append(b.tail, '\n')
	}
}

// AtLineStart reports whether the next content starts a line.
func (b *Buffer) AtLineStart() bool {
	return b.out.Len() == 0 || b.pendingNewlines() > 0
}

// Last returns the last committed byte, 0 when empty or when whitespace
// is pending.
func (b *Buffer) Last() byte {
	if len(b.tail) > 0 {
		return 0
	}

	return b.last
}

// Line returns the line the next content lands on.
func (b *Buffer) Line() int {
	return b.line + b.pendingNewlines() - b.newlines
}

// String returns the committed text. Pending whitespace is never part of
// the output, so there is no trailing newline.
func (b *Buffer) String() string { return b.out.String() }

func (b *Buffer) flush() {
	for _, ch := range b.tail {
		b.out.WriteByte(ch)

		if ch == '\n' {
			b.line++
			b.newlines++
		}
	}

	if len(b.tail) > 0 {
		b.last = b.tail[len(b.tail)-1]
		b.tail = b.tail[:0]
	}
}

func (b *Buffer) pendingNewlines() int {
	count := b.newlines

	for _, ch := range b.tail {
		if ch == '\n' {
			count++
		}
	}

	return count
}

func (b *Buffer) trimTailSpaces() {
	kept := b.tail[:0]

	for _, ch := range b.tail {
		if ch != ' ' {
			kept = append(kept, ch)
		}
	}

	b.tail = kept
}

func (b *Buffer) endsWithSpace() bool {
	if len(b.tail) > 0 {
		return true
	}

	return b.last == ' ' || b.last == '\n'
}
