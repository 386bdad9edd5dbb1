package main

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContext is the number of unchanged lines kept around each hunk.
const diffContext = 3

type diffLine struct {
	op   byte // ' ', '-' or '+'
	text string
}

// unifiedDiff renders a line diff from old to updated in unified format.
// Equal inputs yield "".
func unifiedDiff(oldName, newName, old, updated string) string {
	if old == updated {
		return ""
	}

	dmp := diffmatchpatch.New()
	src, dst, lineArray := dmp.DiffLinesToRunes(old, updated)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lineArray)

	var lines []diffLine

	for _, d := range diffs {
		op := byte(' ')

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = '-'
		case diffmatchpatch.DiffInsert:
			op = '+'
		case diffmatchpatch.DiffEqual:
		}

		for _, text := range splitDiffText(d.Text) {
			lines = append(lines, diffLine{op: op, text: text})
		}
	}

	var b strings.Builder

	fmt.Fprintf(&b, "--- %s\n+++ %s\n", oldName, newName)

	for _, h := range hunks(lines) {
		writeHunk(&b, lines, h)
	}

	return b.String()
}

func splitDiffText(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}

	return strings.Split(text, "\n")
}

// hunk is a [start, end) window of diff lines.
type hunk struct{ start, end int }

// hunks groups changed lines, merging changes closer than twice the context.
func hunks(lines []diffLine) []hunk {
	var out []hunk

	for i, l := range lines {
		if l.op == ' ' {
			continue
		}

		start := max(i-diffContext, 0)
		end := min(i+diffContext+1, len(lines))

		if n := len(out); n > 0 && start <= out[n-1].end {
			out[n-1].end = max(out[n-1].end, end)

			continue
		}

		out = append(out, hunk{start: start, end: end})
	}

	return out
}

func writeHunk(b *strings.Builder, lines []diffLine, h hunk) {
	oldStart, newStart := 1, 1

	for _, l := range lines[:h.start] {
		if l.op != '+' {
			oldStart++
		}

		if l.op != '-' {
			newStart++
		}
	}

	var oldLen, newLen int

	for _, l := range lines[h.start:h.end] {
		if l.op != '+' {
			oldLen++
		}

		if l.op != '-' {
			newLen++
		}
	}

	fmt.Fprintf(b, "@@ -%s +%s @@\n", hunkRange(oldStart, oldLen), hunkRange(newStart, newLen))

	for _, l := range lines[h.start:h.end] {
		b.WriteByte(l.op)
		b.WriteString(l.text)
		b.WriteByte('\n')
	}
}

func hunkRange(start, length int) string {
	if length == 0 {
		return fmt.Sprintf("%d,0", start-1)
	}

	if length == 1 {
		return fmt.Sprintf("%d", start)
	}

	return fmt.Sprintf("%d,%d", start, length)
}
