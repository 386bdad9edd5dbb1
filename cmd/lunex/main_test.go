package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with an empty config file so the
// developer's lunex.yaml never leaks into tests.
func runCLI(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "lunex.yaml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0o600))

	return runCLIWithConfig(t, cfgPath, stdin, args...)
}

func runCLIWithConfig(t *testing.T, cfgPath, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	rootCmd := newRootCmd()

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	err = rootCmd.Execute()

	return outBuf.String(), errBuf.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestLunexCLI_HelpAndSubcommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args    []string
		wantOut string
		wantErr bool
	}{
		{args: []string{"--help"}, wantOut: "plain Lua 5.4 source"},
		{args: []string{"compile", "--help"}, wantOut: "Compile lunex sources to plain Lua 5.4."},
		{args: []string{"tokens", "--help"}, wantOut: "token sequence"},
		{args: []string{"ast", "--help"}, wantOut: "syntax tree"},
		{args: []string{"serve", "--help"}, wantOut: "POST /api/compile"},
		{args: []string{"lsp", "--help"}, wantOut: "published as diagnostics"},
		{args: []string{"mcp", "--help"}, wantOut: "lunex_tokenize"},
		{args: []string{"unknown"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			t.Parallel()

			stdout, _, err := runCLI(t, "", tt.args...)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Contains(t, stdout, tt.wantOut)
		})
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "lunex "), stdout)
}

func TestInvalidConfigFails(t *testing.T) {
	t.Parallel()

	cfgPath := writeFile(t, filepath.Join(t.TempDir(), "lunex.yaml"), "compile:\n  minify: true\n")

	_, _, err := runCLIWithConfig(t, cfgPath, "x = 1", "compile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestTokensCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, "local x = 1", "tokens")
	require.NoError(t, err)

	lower := strings.ToLower(stdout)
	assert.Contains(t, lower, "keyword")
	assert.Contains(t, stdout, "local")
	assert.Contains(t, lower, "total: 5 tokens")
}

func TestTokensCommandErrors(t *testing.T) {
	t.Parallel()

	_, stderr, err := runCLI(t, "x = \"abc", "tokens")
	require.ErrorIs(t, err, ErrCompileFailed)
	assert.Contains(t, stderr, "LexError")

	stdout, _, err := runCLI(t, "x = \"abc", "tokens", "--skip-errors")
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(stdout), "invalid")
}

func TestASTCommand(t *testing.T) {
	t.Parallel()

	path := writeFile(t, filepath.Join(t.TempDir(), "main.lx"), "x += 1")

	stdout, _, err := runCLI(t, "", "ast", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"type": "Chunk"`)
	assert.Contains(t, stdout, "MutationStatement")

	stdout, _, err = runCLI(t, "", "ast", "--lowered", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "AssignmentStatement")
	assert.NotContains(t, stdout, "MutationStatement")

	stdout, _, err = runCLI(t, "", "ast", "-f", "yaml", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "type: Chunk")

	_, _, err = runCLI(t, "", "ast", "-f", "xml", path)
	require.ErrorIs(t, err, ErrUnsupportedASTFmt)
}

func TestASTCommandDiagnostic(t *testing.T) {
	t.Parallel()

	_, stderr, err := runCLI(t, "x = = 1", "ast")
	require.ErrorIs(t, err, ErrCompileFailed)
	assert.Contains(t, stderr, "<stdin>:1:5:")
	assert.Contains(t, stderr, "x = = 1")
}

func TestSanitizeForTerminal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b", sanitizeForTerminal("a\nb"))
	assert.Equal(t, "ab", sanitizeForTerminal("a\x1bb"))
	assert.Equal(t, "<x>", sanitizeForTerminal("<x>"))
}

func TestResolveUserFilePath(t *testing.T) {
	t.Parallel()

	_, err := resolveUserFilePath("  ")
	require.ErrorIs(t, err, ErrEmptyPath)

	_, err = resolveUserFilePath("a\x00b")
	require.ErrorIs(t, err, ErrPathContainsNUL)

	_, err = resolveUserFilePath(t.TempDir())
	require.ErrorIs(t, err, ErrDirectoryPath)

	path := writeFile(t, filepath.Join(t.TempDir(), "a.lx"), "x = 1")

	resolved, err := resolveUserFilePath(path)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(resolved))
}
