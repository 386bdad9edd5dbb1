package lsp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const testURI = "file:///test.lx"

type notification struct {
	method string
	params *protocol.PublishDiagnosticsParams
}

type recorder struct {
	mu    sync.Mutex
	notes []notification
}

func (r *recorder) context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			r.mu.Lock()
			defer r.mu.Unlock()

			p, _ := params.(*protocol.PublishDiagnosticsParams)
			r.notes = append(r.notes, notification{method: method, params: p})
		},
	}
}

func (r *recorder) last(t *testing.T) *protocol.PublishDiagnosticsParams {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	require.NotEmpty(t, r.notes)

	note := r.notes[len(r.notes)-1]
	assert.Equal(t, methodDiagnostics, note.method)
	require.NotNil(t, note.params)

	return note.params
}

func openDocument(t *testing.T, srv *Server, rec *recorder, text string) {
	t.Helper()

	err := srv.didOpen(rec.context(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: testURI, LanguageID: "lunex", Text: text},
	})
	require.NoError(t, err)
}

func TestDocumentStore(t *testing.T) {
	t.Parallel()

	store := NewDocumentStore()

	_, ok := store.Get(testURI)
	assert.False(t, ok)

	store.Set(testURI, "initial")
	store.Set(testURI, "updated")

	got, ok := store.Get(testURI)
	require.True(t, ok)
	assert.Equal(t, "updated", got)

	store.Delete(testURI)

	_, ok = store.Get(testURI)
	assert.False(t, ok)
}

func TestDidOpenPublishesNoDiagnosticsForValidSource(t *testing.T) {
	t.Parallel()

	srv := NewServer()
	rec := &recorder{}

	openDocument(t, srv, rec, "local x = 1\nx += 2")

	params := rec.last(t)
	assert.Equal(t, testURI, params.URI)
	assert.Empty(t, params.Diagnostics)
}

func TestDidOpenPublishesCompileDiagnostic(t *testing.T) {
	t.Parallel()

	srv := NewServer()
	rec := &recorder{}

	openDocument(t, srv, rec, "local y = 1\nx = = 1")

	params := rec.last(t)
	require.Len(t, params.Diagnostics, 1)

	d := params.Diagnostics[0]
	assert.Equal(t, protocol.UInteger(1), d.Range.Start.Line)
	assert.Equal(t, protocol.UInteger(4), d.Range.Start.Character)
	assert.Equal(t, protocol.UInteger(5), d.Range.End.Character)
	require.NotNil(t, d.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *d.Severity)
	require.NotNil(t, d.Code)
	assert.Equal(t, "ParseError", d.Code.Value)
	require.NotNil(t, d.Source)
	assert.Equal(t, diagnosticSource, *d.Source)
	assert.NotEmpty(t, d.Message)
}

func TestDidChangeRecompiles(t *testing.T) {
	t.Parallel()

	srv := NewServer()
	rec := &recorder{}

	openDocument(t, srv, rec, "x = = 1")
	require.Len(t, rec.last(t).Diagnostics, 1)

	err := srv.didChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
		},
		ContentChanges: []any{
			protocol.TextDocumentContentChangeEvent{
				Range: &protocol.Range{
					Start: protocol.Position{Line: 0, Character: 4},
					End:   protocol.Position{Line: 0, Character: 6},
				},
				Text: "",
			},
		},
	})
	require.NoError(t, err)

	text, ok := srv.store.Get(testURI)
	require.True(t, ok)
	assert.Equal(t, "x = 1", text)
	assert.Empty(t, rec.last(t).Diagnostics)

	err = srv.didChange(rec.context(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: testURI},
		},
		ContentChanges: []any{protocol.TextDocumentContentChangeEventWhole{Text: "x = \"abc"}},
	})
	require.NoError(t, err)

	diags := rec.last(t).Diagnostics
	require.Len(t, diags, 1)
	assert.Equal(t, "LexError", diags[0].Code.Value)
}

func TestDidCloseClearsDiagnostics(t *testing.T) {
	t.Parallel()

	srv := NewServer()
	rec := &recorder{}

	openDocument(t, srv, rec, "x = = 1")

	err := srv.didClose(rec.context(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
	})
	require.NoError(t, err)

	_, ok := srv.store.Get(testURI)
	assert.False(t, ok)
	assert.Empty(t, rec.last(t).Diagnostics)
}

func TestDidSaveUsesIncludedText(t *testing.T) {
	t.Parallel()

	srv := NewServer()
	rec := &recorder{}

	openDocument(t, srv, rec, "x = 1")

	text := "x = = 1"
	err := srv.didSave(rec.context(), &protocol.DidSaveTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
		Text:         &text,
	})
	require.NoError(t, err)
	assert.Len(t, rec.last(t).Diagnostics, 1)
}

func TestHover(t *testing.T) {
	t.Parallel()

	srv := NewServer()
	rec := &recorder{}

	openDocument(t, srv, rec, "local v = a?.b\nclass Point\nend")

	hover, err := srv.hover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: 1, Character: 2},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)

	content, ok := hover.Contents.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, content.Value, "Declares a class")

	hover, err = srv.hover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: testURI},
			Position:     protocol.Position{Line: 0, Character: 12},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, hover)

	content, ok = hover.Contents.(protocol.MarkupContent)
	require.True(t, ok)
	assert.Contains(t, content.Value, "Safe member access")

	hover, err = srv.hover(nil, &protocol.HoverParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: "file:///missing.lx"},
		},
	})
	require.NoError(t, err)
	assert.Nil(t, hover)
}

func TestCompletion(t *testing.T) {
	t.Parallel()

	result, err := NewServer().completion(nil, &protocol.CompletionParams{})
	require.NoError(t, err)

	list, ok := result.(protocol.CompletionList)
	require.True(t, ok)

	labels := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		labels = append(labels, item.Label)
	}

	assert.Contains(t, labels, "class")
	assert.Contains(t, labels, "continueif")
	assert.Contains(t, labels, "??")
}

func TestInitializeReportsServerInfo(t *testing.T) {
	t.Parallel()

	srv := NewServer()

	result, err := srv.initialize(nil, &protocol.InitializeParams{})
	require.NoError(t, err)

	init, ok := result.(protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, init.ServerInfo)
	assert.Equal(t, serverName, init.ServerInfo.Name)
}

func TestPositionConversions(t *testing.T) {
	t.Parallel()

	text := "ab\n😀x = 1\n"

	assert.Equal(t, protocol.Position{Line: 0, Character: 0}, positionAt(text, 0))
	assert.Equal(t, protocol.Position{Line: 1, Character: 0}, positionAt(text, 3))
	// The emoji is four bytes and two UTF-16 units.
	assert.Equal(t, protocol.Position{Line: 1, Character: 2}, positionAt(text, 7))
	assert.Equal(t, protocol.Position{Line: 2, Character: 0}, positionAt(text, len(text)))

	assert.Equal(t, 7, offsetAt(text, protocol.Position{Line: 1, Character: 2}))
	assert.Equal(t, 2, offsetAt(text, protocol.Position{Line: 0, Character: 99}))
	assert.Equal(t, len(text), offsetAt(text, protocol.Position{Line: 9}))
}

func TestExtractWordAtPosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		line      int
		character int
		expected  string
	}{
		{"simple word", "hello world", 0, 2, "hello"},
		{"second word", "hello world", 0, 8, "world"},
		{"second line", "first\nsecond", 1, 3, "second"},
		{"line out of bounds", "single", 5, 0, ""},
		{"past end of line", "short", 0, 100, "short"},
		{"underscore and digits", "my_var2 = 1", 0, 5, "my_var2"},
		{"safe navigation", "a?.b", 0, 1, "a"},
		{"safe navigation operator", "a ?. b", 0, 3, "?."},
		{"coalesce", "x ?? 0", 0, 2, "??"},
		{"or assign", "t ||= {}", 0, 3, "||="},
		{"empty text", "", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, extractWordAtPosition(tt.text, tt.line, tt.character))
		})
	}
}
