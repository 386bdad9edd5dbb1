package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/lunex/internal/mcp"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
)

func TestSchemaForDiagnostic(t *testing.T) {
	t.Parallel()

	s := schemaFor("diagnostic", diag.Diagnostic{})

	assert.Equal(t, draft07, s.Schema)
	assert.Equal(t, "lunex diagnostic", s.Title)
	assert.ElementsMatch(t, []string{"kind", "message", "line", "column", "byte_index"}, s.Required)
	assert.Equal(t, "integer", s.Properties["kind"].Type)
	assert.Equal(t, "string", s.Properties["message"].Type)
	assert.Nil(t, s.Definitions)
}

func TestSchemaForCompileOutput(t *testing.T) {
	t.Parallel()

	s := schemaFor("compile_output", &mcp.CompileOutput{})

	assert.Equal(t, []string{"output"}, s.Required)
	assert.Equal(t, "array", s.Properties["helpers"].Type)
	assert.Equal(t, "string", s.Properties["helpers"].Items.Type)
	assert.Equal(t, "#/definitions/DiagnosticOutput", s.Properties["diagnostic"].Ref)

	def := s.Definitions["DiagnosticOutput"]
	require.NotNil(t, def)
	assert.Equal(t, "string", def.Properties["kind"].Type)
}

func TestSchemaForInputDescriptions(t *testing.T) {
	t.Parallel()

	s := schemaFor("tokenize_input", mcp.TokenizeInput{})

	assert.Equal(t, "lunex source text", s.Properties["code"].Description)
	assert.Equal(t, "boolean", s.Properties["skip_errors"].Type)
	assert.Equal(t, []string{"code"}, s.Required)
}

func TestWriteSchema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, writeSchema(dir, "tokenize_output", schemaFor("tokenize_output", mcp.TokenizeOutput{})))

	data, err := os.ReadFile(filepath.Join(dir, "tokenize_output.json"))
	require.NoError(t, err)

	var decoded Schema
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "#/definitions/TokenOutput", decoded.Properties["tokens"].Items.Ref)
	assert.Contains(t, decoded.Definitions, "TokenOutput")
}
