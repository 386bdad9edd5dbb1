package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/lunex/pkg/lunex"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/lexer"
)

// handleTokenize implements the lunex_tokenize tool.
func handleTokenize(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input TokenizeInput,
) (*mcpsdk.CallToolResult, TokenizeOutput, error) {
	if err := validateCodeInput(input.Code); err != nil {
		return errorResult[TokenizeOutput](err)
	}

	toks, err := lunex.Tokenize(input.Code, input.SkipErrors)
	if err != nil {
		if d, ok := diag.As(err); ok {
			return errorResult[TokenizeOutput](d)
		}

		return errorResult[TokenizeOutput](err)
	}

	out := TokenizeOutput{Tokens: make([]TokenOutput, 0, len(toks))}
	for _, tok := range toks {
		out.Tokens = append(out.Tokens, tokenOutput(tok))
	}

	data, err := json.Marshal(out)
	if err != nil {
		return errorResult[TokenizeOutput](fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, out, nil
}

func tokenOutput(tok lexer.Token) TokenOutput {
	return TokenOutput{
		Kind:   tok.Kind.String(),
		Value:  tok.Value,
		Raw:    tok.Raw,
		Line:   tok.Loc.StartLine,
		Column: tok.Loc.StartCol,
		Start:  tok.Start,
		End:    tok.End,
	}
}
