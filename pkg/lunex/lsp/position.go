package lsp

import (
	"strings"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LSP positions count UTF-16 code units within a line; lunex diagnostics
// carry byte offsets. The helpers below convert between the two.

// positionAt returns the LSP position of byte offset off in text.
func positionAt(text string, off int) protocol.Position {
	off = min(max(off, 0), len(text))

	lineStart := strings.LastIndexByte(text[:off], '\n') + 1
	line := strings.Count(text[:lineStart], "\n")

	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(utf16Len(text[lineStart:off])),
	}
}

// offsetAt returns the byte offset of pos in text, clamped to the line end.
func offsetAt(text string, pos protocol.Position) int {
	off := 0

	for range pos.Line {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return len(text)
		}

		off += nl + 1
	}

	units := int(pos.Character)

	for units > 0 && off < len(text) && text[off] != '\n' {
		r, size := utf8.DecodeRuneInString(text[off:])
		if r >= 0x10000 {
			units -= 2
		} else {
			units--
		}

		off += size
	}

	return off
}

// applyChange applies one ranged edit. An edit without a range replaces
// the whole text.
func applyChange(text string, change protocol.TextDocumentContentChangeEvent) string {
	if change.Range == nil {
		return change.Text
	}

	start := offsetAt(text, change.Range.Start)
	end := max(offsetAt(text, change.Range.End), start)

	return text[:start] + change.Text + text[end:]
}

func utf16Len(s string) int {
	n := 0

	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}

	return n
}

func nextRune(text string, off int) int {
	_, size := utf8.DecodeRuneInString(text[off:])

	return off + size
}

// extractWordAtPosition returns the word at the given line/character in the text.
func extractWordAtPosition(text string, line, character int) string {
	lines := splitLines(text)
	if line >= len(lines) {
		return ""
	}

	lineText := lines[line]
	at := offsetAt(lineText, protocol.Position{Character: protocol.UInteger(character)})

	start := at
	for start > 0 && isWordChar(lineText[start-1]) {
		start--
	}

	end := at
	for end < len(lineText) && isWordChar(lineText[end]) {
		end++
	}

	if start == end {
		return operatorAt(lineText, at)
	}

	return lineText[start:end]
}

// operatorAt returns the dialect operator covering byte offset at, if any.
func operatorAt(lineText string, at int) string {
	for _, op := range hoverOperators {
		for start := max(at-len(op)+1, 0); start <= at && start+len(op) <= len(lineText); start++ {
			if lineText[start:start+len(op)] == op {
				return op
			}
		}
	}

	return ""
}

func isWordChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}

func splitLines(input string) []string {
	return strings.Split(input, "\n")
}
