package mcp

import (
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
)

// Tool name constants.
const (
	ToolNameCompile  = "lunex_compile"
	ToolNameTokenize = "lunex_tokenize"
)

// Input size limits.
const (
	// MaxCodeInputBytes is the maximum allowed size for inline code input (1 MB).
	MaxCodeInputBytes = 1 << 20
)

// Sentinel errors for tool input validation.
var (
	// ErrEmptyCode indicates the code parameter is empty.
	ErrEmptyCode = errors.New("code parameter is required and must not be empty")
	// ErrCodeTooLarge indicates the code input exceeds the size limit.
	ErrCodeTooLarge = errors.New("code input exceeds maximum size")
	// ErrInvalidIndent indicates the indent holds more than spaces and tabs.
	ErrInvalidIndent = errors.New("indent must only hold spaces and tabs")
)

// Input types (auto-generate JSON schemas via struct tags).

// CompileInput is the input schema for the lunex_compile tool.
type CompileInput struct {
	Code   string `json:"code"             jsonschema:"lunex source text"`
	Debug  bool   `json:"debug,omitempty"  jsonschema:"wrap blocks so runtime errors report source ranges"`
	Indent string `json:"indent,omitempty" jsonschema:"output indent unit (default: detected from the source)"`
}

// TokenizeInput is the input schema for the lunex_tokenize tool.
type TokenizeInput struct {
	Code       string `json:"code"                  jsonschema:"lunex source text"`
	SkipErrors bool   `json:"skip_errors,omitempty" jsonschema:"emit Invalid tokens instead of failing"`
}

// Output types (used as structured output for generic AddTool).

// DiagnosticOutput is a compile diagnostic.
type DiagnosticOutput struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	ByteIndex int    `json:"byte_index"`
}

// CompileOutput is the structured result of lunex_compile.
type CompileOutput struct {
	Output     string            `json:"output"`
	Helpers    []string          `json:"helpers,omitempty"`
	Diagnostic *DiagnosticOutput `json:"diagnostic,omitempty"`
}

// TokenOutput is one token of lunex_tokenize.
type TokenOutput struct {
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	Raw    string `json:"raw"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}

// TokenizeOutput is the structured result of lunex_tokenize.
type TokenizeOutput struct {
	Tokens []TokenOutput `json:"tokens"`
}

// Result helpers.

// errorResult builds a CallToolResult with isError set.
func errorResult[Out any](err error) (*mcpsdk.CallToolResult, Out, error) {
	var zero Out

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, zero, nil
}

// validateCodeInput checks common code input constraints.
func validateCodeInput(code string) error {
	if code == "" {
		return ErrEmptyCode
	}

	if len(code) > MaxCodeInputBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCodeTooLarge, len(code), MaxCodeInputBytes)
	}

	return nil
}

func diagnosticOutput(d *diag.Diagnostic) *DiagnosticOutput {
	return &DiagnosticOutput{
		Kind:      d.Kind.String(),
		Message:   d.Message,
		Line:      d.Line,
		Column:    d.Column,
		ByteIndex: d.ByteIndex,
	}
}
