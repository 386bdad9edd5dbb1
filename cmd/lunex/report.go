package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/textutil"
)

var (
	locationColor = color.New(color.Bold)
	errorColor    = color.New(color.FgRed, color.Bold)
	caretColor    = color.New(color.FgGreen, color.Bold)
	gutterColor   = color.New(color.FgBlue)
	okColor       = color.New(color.FgGreen)
	staleColor    = color.New(color.FgYellow)
)

// printDiagnostic writes d with the offending source line and a caret:
//
//	main.lx:2:5: ParseError: unexpected symbol near '='
//	  2 | x = = 1
//	    |     ^
func printDiagnostic(w io.Writer, name, src string, d *diag.Diagnostic) {
	locationColor.Fprintf(w, "%s:%d:%d:", name, d.Line, d.Column)
	errorColor.Fprintf(w, " %s:", d.Kind)
	fmt.Fprintf(w, " %s\n", d.Message)

	line := textutil.Line(src, d.Line)
	if line == "" && d.Column <= 1 {
		return
	}

	num := fmt.Sprintf("%d", d.Line)
	pad := strings.Repeat(" ", len(num))

	gutterColor.Fprintf(w, "  %s | ", num)
	fmt.Fprintln(w, strings.TrimRight(line, "\r"))
	gutterColor.Fprintf(w, "  %s | ", pad)
	fmt.Fprint(w, caretIndent(line, d.Column))
	caretColor.Fprintln(w, "^")
}

// caretIndent returns the whitespace that puts a caret under the 1-based
// byte column of line. Tabs are kept so the caret lines up under them.
func caretIndent(line string, column int) string {
	prefix := line
	if column-1 < len(prefix) {
		prefix = prefix[:max(column-1, 0)]
	}

	var b strings.Builder

	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}

	return b.String()
}

// compileSummary aggregates a compile run for the verbose report.
type compileSummary struct {
	files    int
	failed   int
	stale    int
	inBytes  int64
	outBytes int64
	lines    int
	elapsed  time.Duration
}

func (s compileSummary) print(w io.Writer) {
	compiled := s.files - s.failed

	okColor.Fprintf(w, "compiled %d/%d files", compiled, s.files)
	fmt.Fprintf(w, " (%s lines, %s -> %s) in %s\n",
		humanize.Comma(int64(s.lines)),
		humanize.Bytes(uint64(s.inBytes)),  //nolint:gosec // sizes are never negative.
		humanize.Bytes(uint64(s.outBytes)), //nolint:gosec // sizes are never negative.
		s.elapsed.Round(time.Millisecond))

	if s.stale > 0 {
		staleColor.Fprintf(w, "%d stale output(s)\n", s.stale)
	}

	if s.failed > 0 {
		errorColor.Fprintf(w, "%d file(s) failed\n", s.failed)
	}
}
