package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
)

func values(toks []lexer.Token) []string {
	out := make([]string, 0, len(toks))
	for _, tok := range toks {
		if tok.Kind == lexer.EOF {
			continue
		}

		out = append(out, tok.Value)
	}

	return out
}

func TestTokenizeEndsWithEOF(t *testing.T) {
	t.Parallel()

	toks, err := lexer.Tokenize("", lexer.Options{})
	require.NoError(t, err)
	require.Len(t, toks, 1)
	assert.Equal(t, lexer.EOF, toks[0].Kind)
}

func TestTokenizePunctuatorsLongestMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want []string
	}{
		{"a += 1", []string{"a", "+=", "1"}},
		{"a ..= b", []string{"a", "..=", "b"}},
		{"x ||= y", []string{"x", "||=", "y"}},
		{"f(...)", []string{"f", "(", "...", ")"}},
		{"a?.b?:c()?[d]", []string{"a", "?.", "b", "?:", "c", "(", ")", "?[", "d", "]"}},
		{"(a) => b", []string{"(", "a", ")", "=>", "b"}},
		{"(a) -> b", []string{"(", "a", ")", "->", "b"}},
		{"i++", []string{"i", "++"}},
		{"a // b << c >> d", []string{"a", "//", "b", "<<", "c", ">>", "d"}},
		{"a ~= b == c", []string{"a", "~=", "b", "==", "c"}},
		{"a ?? b && c || d", []string{"a", "??", "b", "&&", "c", "||", "d"}},
		{"::top::", []string{"::", "top", "::"}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()

			toks, err := lexer.Tokenize(tt.src, lexer.Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, values(toks))
		})
	}
}

func TestTokenizeKeywordsAndLiterals(t *testing.T) {
	t.Parallel()

	toks, err := lexer.Tokenize("class Foo extends Bar self super true nil value", lexer.Options{})
	require.NoError(t, err)

	kinds := []lexer.Kind{
		lexer.Keyword, lexer.Name, lexer.Keyword, lexer.Name, lexer.Keyword,
		lexer.Keyword, lexer.Boolean, lexer.Nil, lexer.Name, lexer.EOF,
	}
	require.Len(t, toks, len(kinds))

	for i, kind := range kinds {
		assert.Equal(t, kind, toks[i].Kind, "token %d (%s)", i, toks[i].Raw)
	}
}

func TestTokenizeNumbers(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"3", "3.0", "3.1416", "314.16e-2", "0.31416E1", "34e1", "0xff", "0xA.8p1", ".5", "0x.1P4", "7."} {
		toks, err := lexer.Tokenize(src, lexer.Options{})
		require.NoError(t, err, src)
		require.Len(t, toks, 2, src)
		assert.Equal(t, lexer.Number, toks[0].Kind, src)
		assert.Equal(t, src, toks[0].Value, src)
	}
}

func TestTokenizeMalformedNumber(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"3x", "0x", "1e", "1e+"} {
		_, err := lexer.Tokenize(src, lexer.Options{})
		d, ok := diag.As(err)
		require.True(t, ok, src)
		assert.Equal(t, diag.Lex, d.Kind)
		assert.Contains(t, d.Message, "malformed number")
	}
}

func TestTokenizeStrings(t *testing.T) {
	t.Parallel()

	toks, err := lexer.Tokenize(`"a\tb\n" 'it\'s' "\x41\65\u{48}" "x\z
	   y"`, lexer.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a\tb\n", "it's", "AAH", "xy"}, values(toks))
	assert.Equal(t, `"a\tb\n"`, toks[0].Raw)
}

func TestTokenizeLongStringsAndComments(t *testing.T) {
	t.Parallel()

	src := "--[==[ comment ]] still ]==] a = [[\nline]] --tail\nb = [=[x]]y]=]"
	toks, err := lexer.Tokenize(src, lexer.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "=", "line", "b", "=", "x]]y"}, values(toks))
	assert.True(t, toks[2].Long)
}

func TestTokenizeTemplate(t *testing.T) {
	t.Parallel()

	toks, err := lexer.Tokenize("`hi ${name({`x`})}!`", lexer.Options{})
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.True(t, toks[0].Template)
	assert.Equal(t, "hi ${name({`x`})}!", toks[0].Value)
}

func TestTokenizeTemplateSkipsQuotedBraces(t *testing.T) {
	t.Parallel()

	src := "local s = `${a .. \"}\" .. '`'}${[[}]]}`"

	toks, err := lexer.Tokenize(src, lexer.Options{})
	require.NoError(t, err)
	require.Len(t, toks, 5)
	assert.True(t, toks[3].Template)
	assert.Equal(t, "${a .. \"}\" .. '`'}${[[}]]}", toks[3].Value)
}

func TestInterpolationEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"plain", "a}", 1},
		{"table", "{1, 2}}", 6},
		{"double quoted brace", `a .. "}"}`, 8},
		{"single quoted brace", `'{' .. b}`, 8},
		{"escaped quote", `"\"}"}`, 5},
		{"long bracket", "[==[}]==]}", 9},
		{"index is not a long bracket", "t[1]}", 4},
		{"line comment", "a -- }\n}", 7},
		{"nested template", "`x}${ {} }`}", 11},
		{"unclosed", `a .. "}"`, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, lexer.InterpolationEnd(tt.body, 0))
		})
	}
}

func TestBlankLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		trivia string
		want   int
	}{
		{"same line", " ", 0},
		{"line break", "\n", 0},
		{"one blank", "\n\n", 1},
		{"whitespace only", "\n  \t\n\n", 2},
		{"comment lines", " -- c\n-- another\n", 0},
		{"comment then blank", "\n-- c\n\n", 1},
		{"long comment", "\n--[[\n\n]]\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, lexer.BlankLines(tt.trivia))
		})
	}
}

func TestTokenizePositions(t *testing.T) {
	t.Parallel()

	toks, err := lexer.Tokenize("local a\n  b = 10", lexer.Options{})
	require.NoError(t, err)

	b := toks[2]
	assert.Equal(t, "b", b.Value)
	assert.Equal(t, 10, b.Start)
	assert.Equal(t, 11, b.End)
	assert.Equal(t, lexer.Location{StartLine: 2, StartCol: 3, EndLine: 2, EndCol: 4}, b.Loc)
}

func TestUnterminatedStringPointsAtOpeningQuote(t *testing.T) {
	t.Parallel()

	_, err := lexer.Tokenize("local x = 1\nprint(\"abc\nfoo()", lexer.Options{})
	d, ok := diag.As(err)
	require.True(t, ok)
	assert.Equal(t, diag.Lex, d.Kind)
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, 7, d.Column)
	assert.Equal(t, 18, d.ByteIndex)
}

func TestUnterminatedLongString(t *testing.T) {
	t.Parallel()

	_, err := lexer.Tokenize("x = [==[ never closed ]=]", lexer.Options{})
	d, ok := diag.As(err)
	require.True(t, ok)
	assert.Equal(t, 5, d.Column)
}

func TestUnknownCharacter(t *testing.T) {
	t.Parallel()

	_, err := lexer.Tokenize("a = 1 @ 2", lexer.Options{})
	d, ok := diag.As(err)
	require.True(t, ok)
	assert.Equal(t, 7, d.Column)
	assert.Contains(t, d.Message, "@")
}

func TestSkipErrorsIsBestEffort(t *testing.T) {
	t.Parallel()

	toks, err := lexer.Tokenize("a = @ \"open", lexer.Options{SkipErrors: true})
	require.NoError(t, err)

	kinds := make([]lexer.Kind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}

	assert.Equal(t, []lexer.Kind{lexer.Name, lexer.Punct, lexer.Invalid, lexer.Invalid, lexer.EOF}, kinds)
}

func TestDecodeEscapes(t *testing.T) {
	t.Parallel()

	got, err := lexer.DecodeEscapes(`a\n\$b`)
	require.NoError(t, err)
	assert.Equal(t, "a\n$b", got)
}
