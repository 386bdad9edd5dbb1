package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileWritesNextToInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.lx"), "local n = 1\nn += 2")

	_, stderr, err := runCLI(t, "", "compile", src)
	require.NoError(t, err, stderr)

	assert.Equal(t, "local n = 1\nn = n + 2\n", readFile(t, filepath.Join(dir, "main.lua")))
	assert.Empty(t, stderr)
}

func TestCompileStdinToStdout(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, "local y = 2\ny++", "compile")
	require.NoError(t, err)
	assert.Equal(t, "local y = 2\ny = y + 1\n", stdout)

	stdout, _, err = runCLI(t, "x ||= 1", "compile", "-")
	require.NoError(t, err)
	assert.Equal(t, "x = x or 1\n", stdout)
}

func TestCompileSingleFileToStdout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.lx"), "throw \"boom\"")

	stdout, _, err := runCLI(t, "", "compile", "-o", "-", src)
	require.NoError(t, err)
	assert.Equal(t, "error(\"boom\")\n", stdout)

	_, err = os.Stat(filepath.Join(dir, "main.lua"))
	assert.True(t, os.IsNotExist(err))

	other := writeFile(t, filepath.Join(dir, "other.lx"), "x = 1")

	_, _, err = runCLI(t, "", "compile", "-o", "-", src, other)
	require.ErrorIs(t, err, ErrStdoutMultiple)
}

func TestCompileDirectoryMirrorsTree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	outDir := filepath.Join(dir, "build")

	writeFile(t, filepath.Join(srcDir, "a.lx"), "a += 1")
	writeFile(t, filepath.Join(srcDir, "sub", "b.lx"), "b -= 1")
	writeFile(t, filepath.Join(srcDir, ".cache", "c.lx"), "c *= 2")
	writeFile(t, filepath.Join(srcDir, "notes.txt"), "not lunex")

	_, stderr, err := runCLI(t, "", "compile", "-o", outDir, srcDir)
	require.NoError(t, err, stderr)

	assert.Equal(t, "a = a + 1\n", readFile(t, filepath.Join(outDir, "a.lua")))
	assert.Equal(t, "b = b - 1\n", readFile(t, filepath.Join(outDir, "sub", "b.lua")))

	_, err = os.Stat(filepath.Join(outDir, ".cache", "c.lua"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(outDir, "notes.lua"))
	assert.True(t, os.IsNotExist(err))
}

func TestCompileContinuesPastFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeFile(t, filepath.Join(dir, "good.lx"), "x += 1")
	bad := writeFile(t, filepath.Join(dir, "bad.lx"), "x = = 1")
	worse := writeFile(t, filepath.Join(dir, "worse.lx"), "ok = 1\x00")

	_, stderr, err := runCLI(t, "", "compile", bad, good, worse)
	require.ErrorIs(t, err, ErrCompileFailed)
	assert.Contains(t, err.Error(), "2 of 3 files")

	assert.Equal(t, "x = x + 1\n", readFile(t, filepath.Join(dir, "good.lua")))
	assert.Contains(t, stderr, bad+":1:5:")
	assert.Contains(t, stderr, "ParseError")
	assert.Contains(t, stderr, "x = = 1")
	assert.Contains(t, stderr, ErrBinaryInput.Error())
	assert.Contains(t, stderr, "2 file(s) failed")

	_, err = os.Stat(filepath.Join(dir, "bad.lua"))
	assert.True(t, os.IsNotExist(err))
}

func TestCompileCheck(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.lx"), "x += 1")
	out := filepath.Join(dir, "main.lua")

	_, stderr, err := runCLI(t, "", "compile", "--check", src)
	require.ErrorIs(t, err, ErrStaleOutput)
	assert.Contains(t, stderr, "stale: "+out)

	_, _, err = runCLI(t, "", "compile", src)
	require.NoError(t, err)

	_, _, err = runCLI(t, "", "compile", "--check", src)
	require.NoError(t, err)

	writeFile(t, out, "x = x + 2\n")

	_, _, err = runCLI(t, "", "compile", "--check", src)
	require.ErrorIs(t, err, ErrStaleOutput)
	assert.Equal(t, "x = x + 2\n", readFile(t, out))
}

func TestCompileDiff(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.lx"), "local a = 1\nlocal b = 2\nb += a")
	out := writeFile(t, filepath.Join(dir, "main.lua"), "local a = 1\nlocal b = 2\nb = b + 5\n")

	stdout, _, err := runCLI(t, "", "compile", "-d", src)
	require.NoError(t, err)

	assert.Contains(t, stdout, "--- "+out)
	assert.Contains(t, stdout, "@@ -1,3 +1,3 @@")
	assert.Contains(t, stdout, "-b = b + 5\n")
	assert.Contains(t, stdout, "+b = b + a\n")
	assert.Equal(t, "local a = 1\nlocal b = 2\nb = b + 5\n", readFile(t, out))

	_, _, err = runCLI(t, "", "compile", "-d", "--check", src)
	require.ErrorIs(t, err, ErrConflictingMode)
}

func TestCompileFlagsAndConfig(t *testing.T) {
	t.Parallel()

	src := "local function f()\n  return 1\nend"

	stdout, _, err := runCLI(t, src, "compile", "--indent", "\t")
	require.NoError(t, err)
	assert.Equal(t, "local function f()\n\treturn 1\nend\n", stdout)

	cfgPath := writeFile(t, filepath.Join(t.TempDir(), "lunex.yaml"), "compile:\n  indent: \"    \"\n")

	stdout, _, err = runCLIWithConfig(t, cfgPath, src, "compile")
	require.NoError(t, err)
	assert.Equal(t, "local function f()\n    return 1\nend\n", stdout)

	stdout, _, err = runCLI(t, "x = 1", "compile", "--debug")
	require.NoError(t, err)
	assert.Contains(t, stdout, "xpcall(")
}

func TestCompileVerboseSummary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.lx"), "x += 1\ny += 2\n")

	_, stderr, err := runCLI(t, "", "compile", "-v", src)
	require.NoError(t, err)
	assert.Contains(t, stderr, "compiled 1/1 files")
	assert.Contains(t, stderr, "2 lines")
}

func TestCompileRejectsOverwritingInput(t *testing.T) {
	t.Parallel()

	src := writeFile(t, filepath.Join(t.TempDir(), "main.lua"), "x = 1")

	_, _, err := runCLI(t, "", "compile", src)
	require.ErrorIs(t, err, ErrOutputIsInput)
}

func TestCompileNoSources(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, "", "compile", t.TempDir())
	require.ErrorIs(t, err, ErrNoSourceFiles)
}

func TestCaretIndent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "    ", caretIndent("x = = 1", 5))
	assert.Equal(t, "\t  ", caretIndent("\tx = 1", 4))
	assert.Empty(t, caretIndent("x", 1))
	assert.Equal(t, " ", caretIndent("x", 9))
}

func TestUnifiedDiff(t *testing.T) {
	t.Parallel()

	assert.Empty(t, unifiedDiff("a", "b", "same\n", "same\n"))

	got := unifiedDiff("old.lua", "new.lua", "", "x = 1\n")
	assert.Equal(t, "--- old.lua\n+++ new.lua\n@@ -0,0 +1 @@\n+x = 1\n", got)

	old := strings.Repeat("keep\n", 10) + "drop\n" + strings.Repeat("keep\n", 10)
	updated := strings.Repeat("keep\n", 10) + "add\n" + strings.Repeat("keep\n", 10)

	got = unifiedDiff("o", "n", old, updated)
	assert.Contains(t, got, "@@ -8,7 +8,7 @@\n keep\n keep\n keep\n-drop\n+add\n keep\n")
}
