package lexer

import "strings"

// InterpolationEnd returns the index in s of the brace closing an
// interpolation whose expression starts at start, or -1 when it is not
// closed. Braces inside strings, long brackets, comments and nested
// templates do not count.
func InterpolationEnd(s string, start int) int {
	depth := 1

	for i := start; i < len(s); {
		switch ch := s[i]; {
		case ch == '{':
			depth++
			i++
		case ch == '}':
			depth--
			if depth == 0 {
				return i
			}

			i++
		case ch == '"' || ch == '\'':
			i = skipQuoted(s, i, ch)
		case ch == '`':
			end := templateEnd(s, i+1)
			if end < 0 {
				return -1
			}

			i = end + 1
		case ch == '[':
			i = skipLongBracket(s, i)
		case ch == '-' && i+1 < len(s) && s[i+1] == '-':
			i = skipComment(s, i+2)
		default:
			i++
		}
	}

	return -1
}

// templateEnd returns the index of the backquote closing a template whose
// body starts at i, or -1.
func templateEnd(s string, i int) int {
	for i < len(s) {
		switch {
		case s[i] == '\\':
			i += 2
		case s[i] == '`':
			return i
		case s[i] == '$' && i+1 < len(s) && s[i+1] == '{':
			end := InterpolationEnd(s, i+2)
			if end < 0 {
				return -1
			}

			i = end + 1
		default:
			i++
		}
	}

	return -1
}

// skipQuoted returns the index after the short string opening at i.
func skipQuoted(s string, i int, quote byte) int {
	for i++; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote, '\n':
			return i + 1
		}
	}

	return len(s)
}

// skipLongBracket returns the index after the long bracket opening at i,
// or i+1 when s[i] does not open one.
func skipLongBracket(s string, i int) int {
	j := i + 1
	for j < len(s) && s[j] == '=' {
		j++
	}

	if j >= len(s) || s[j] != '[' {
		return i + 1
	}

	closing := "]" + strings.Repeat("=", j-i-1) + "]"

	k := strings.Index(s[j+1:], closing)
	if k < 0 {
		return len(s)
	}

	return j + 1 + k + len(closing)
}

// skipComment returns the index after the comment whose text starts at i.
func skipComment(s string, i int) int {
	if i < len(s) && s[i] == '[' {
		if end := skipLongBracket(s, i); end != i+1 {
			return end
		}
	}

	if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
		return i + nl + 1
	}

	return len(s)
}
