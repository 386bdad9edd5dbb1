// Package lsp provides a Language Server Protocol (LSP) server for lunex
// sources. It compiles open documents on every change and publishes the
// compile diagnostic, if any.
package lsp

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/lunex/pkg/cache"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex"
	"github.com/Sumatoshi-tech/lunex/pkg/lunex/diag"
	"github.com/Sumatoshi-tech/lunex/pkg/version"
)

const (
	serverName        = "lunex"
	diagnosticSource  = "lunex"
	methodDiagnostics = "textDocument/publishDiagnostics"
)

// DocumentStore is a thread-safe store for document contents keyed by URI.
type DocumentStore struct {
	documents map[string]string // URI -> content.
	mu        sync.RWMutex
}

// NewDocumentStore creates a new empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]string),
	}
}

// Set stores document content for the given URI.
func (ds *DocumentStore) Set(uri, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = content
}

// Get retrieves document content by URI.
func (ds *DocumentStore) Get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	content, ok := ds.documents[uri]

	return content, ok
}

// Delete removes document content by URI.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// Server implements the lunex LSP server.
type Server struct {
	store    *DocumentStore
	compiles *cache.Compiles
	opts     lunex.Options
	logger   *slog.Logger
	handler  protocol.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithCompiles shares a compile cache with the server.
func WithCompiles(compiles *cache.Compiles) Option {
	return func(srv *Server) { srv.compiles = compiles }
}

// WithOptions sets the options documents are compiled with.
func WithOptions(opts lunex.Options) Option {
	return func(srv *Server) { srv.opts = opts }
}

// WithLogger sets the server logger. It must not write to stdout.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) { srv.logger = logger }
}

// NewServer creates a new lunex LSP server with default handlers.
func NewServer(opts ...Option) *Server {
	srv := &Server{
		store:  NewDocumentStore(),
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(srv)
	}

	if srv.compiles == nil {
		srv.compiles = cache.NewCompiles(lunex.NewCompiler(lunex.WithLogger(srv.logger)), cache.DefaultCompileEntries, 0)
	}

	srv.handler = protocol.Handler{
		Initialize:             srv.initialize,
		Initialized:            srv.initialized,
		Shutdown:               srv.shutdown,
		SetTrace:               srv.setTrace,
		TextDocumentDidOpen:    srv.didOpen,
		TextDocumentDidChange:  srv.didChange,
		TextDocumentDidSave:    srv.didSave,
		TextDocumentDidClose:   srv.didClose,
		TextDocumentCompletion: srv.completion,
		TextDocumentHover:      srv.hover,
	}

	return srv
}

// Run serves LSP on stdio until the client disconnects.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	err := lspServer.RunStdio()
	if err != nil {
		srv.logger.Error("lsp server stopped", "error", err)

		return err
	}

	return nil
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	ver := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &ver,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI

	srv.store.Set(uri, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	text, ok := srv.store.Get(uri)
	if !ok && len(params.ContentChanges) == 0 {
		return nil
	}

	for _, change := range params.ContentChanges {
		switch ev := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = ev.Text
		case protocol.TextDocumentContentChangeEvent:
			text = applyChange(text, ev)
		}
	}

	srv.store.Set(uri, text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if params.Text != nil {
		srv.store.Set(uri, *params.Text)
	}

	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Delete(uri)

	// Clear the client's view of a closed document.
	ctx.Notify(methodDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})

	return nil
}

func (srv *Server) completion(_ *glsp.Context, _ *protocol.CompletionParams) (any, error) {
	items := make([]protocol.CompletionItem, 0, len(dialectKeywords)+len(dialectOperators))
	items = append(items, dialectKeywords...)
	items = append(items, dialectOperators...)

	return protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := srv.store.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil // LSP protocol expects nil hover when no document found.
	}

	word := extractWordAtPosition(text, int(params.Position.Line), int(params.Position.Character))

	doc, found := hoverDocs[word]
	if !found {
		return nil, nil // LSP protocol expects nil hover when no docs available.
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: doc,
		},
	}, nil
}

func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	text, ok := srv.store.Get(uri)
	if !ok {
		return
	}

	ctx.Notify(methodDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: srv.diagnose(text),
	})
}

// diagnose compiles text and converts a compile failure to LSP form.
func (srv *Server) diagnose(text string) []protocol.Diagnostic {
	_, err := srv.compiles.Compile(context.Background(), text, srv.opts)
	if err == nil {
		return []protocol.Diagnostic{}
	}

	d, ok := diag.As(err)
	if !ok {
		srv.logger.Warn("lsp compile failed", "error", err)

		return []protocol.Diagnostic{}
	}

	return []protocol.Diagnostic{toProtocol(text, d)}
}

func toProtocol(text string, d *diag.Diagnostic) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := diagnosticSource
	start := positionAt(text, d.ByteIndex)
	end := start

	// Underline the offending character when there is one.
	if d.ByteIndex < len(text) && text[d.ByteIndex] != '\n' {
		end = positionAt(text, nextRune(text, d.ByteIndex))
	}

	return protocol.Diagnostic{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &severity,
		Code:     &protocol.IntegerOrString{Value: d.Kind.String()},
		Source:   &source,
		Message:  d.Message,
	}
}
