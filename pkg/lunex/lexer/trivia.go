package lexer

// BlankLines counts the empty lines in trivia, the source text between two
// tokens. The partial lines at either end belong to the tokens and lines
// holding only a comment are not empty.
func BlankLines(trivia string) int {
	blank := 0
	content := true

	for i := 0; i < len(trivia); {
		switch ch := trivia[i]; {
		case ch == '\n':
			if !content {
				blank++
			}

			content = false
			i++
		case ch == '-' && i+1 < len(trivia) && trivia[i+1] == '-':
			content = true
			i = skipComment(trivia, i+2)

			// Leave the line break of a line comment to the loop.
			if trivia[i-1] == '\n' {
				i--
			}
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v':
			i++
		default:
			content = true
			i++
		}
	}

	return blank
}
