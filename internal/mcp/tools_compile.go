package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
)

// handleCompile implements the lunex_compile tool. A compile diagnostic is
// a tool error carrying the diagnostic as structured output.
func (s *Server) handleCompile(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input CompileInput,
) (*mcpsdk.CallToolResult, CompileOutput, error) {
	if err := validateCodeInput(input.Code); err != nil {
		return errorResult[CompileOutput](err)
	}

	if strings.Trim(input.Indent, " \t") != "" {
		return errorResult[CompileOutput](fmt.Errorf("%w: %q", ErrInvalidIndent, input.Indent))
	}

	res, err := s.compiles.Compile(ctx, input.Code, lunex.Options{Debug: input.Debug, Indent: input.Indent})
	if err != nil {
		d, ok := diag.As(err)
		if !ok {
			return errorResult[CompileOutput](fmt.Errorf("compile: %w", err))
		}

		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: d.Error()}},
			IsError: true,
		}, CompileOutput{Diagnostic: diagnosticOutput(d)}, nil
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: res.Output}},
	}, CompileOutput{Output: res.Output, Helpers: res.Helpers}, nil
}
