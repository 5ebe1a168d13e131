// Package lsp implements the ssaopt language server: a thin glsp.Handler
// that keeps each open document's last-parsed *ir.Module, reports irtext
// diagnostics on open/change, and exposes a custom command that runs the
// optimizer pipeline and returns the optimized listing. Adapted from the
// teacher repository's internal/lsp.KansoHandler.
package lsp

import (
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ssaopt/internal/ir"
	"ssaopt/internal/irtext"
	"ssaopt/internal/opt"
)

// OptimizeCommand is the custom LSP command this server registers; its
// single argument is the document URI, and it returns the optimized
// function listing as plain text.
const OptimizeCommand = "ssaopt/optimize"

// Handler implements the LSP server handlers for the ssair textual IR.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	modules map[string]*ir.Module
}

// NewHandler creates and returns a new Handler instance.
func NewHandler() *Handler {
	return &Handler{
		content: make(map[string]string),
		modules: make(map[string]*ir.Module),
	}
}

// Initialize responds to the LSP client's initialize request and advertises
// the server's capabilities.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("ssaopt-lsp Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: []string{OptimizeCommand},
			},
		},
	}, nil
}

// Initialized is called once the client has received the server's
// capabilities and completed initialization.
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("ssaopt-lsp Initialized")
	return nil
}

// Shutdown handles the LSP shutdown request.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("ssaopt-lsp Shutdown")
	return nil
}

// TextDocumentDidOpen handles file open notifications from the editor.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	log.Printf("opened %s\n", uri)
	h.reparse(ctx, uri, params.TextDocument.Text)
	return nil
}

// TextDocumentDidChange handles file change notifications from the editor.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	log.Printf("changed %s\n", uri)
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change, ok := params.ContentChanges[len(params.ContentChanges)-1].(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return fmt.Errorf("ssaopt-lsp only supports full-document sync")
	}
	h.reparse(ctx, uri, change.Text)
	return nil
}

// TextDocumentDidClose handles file close notifications from the editor.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	log.Printf("closed %s\n", uri)

	path, err := uriToPath(uri)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", uri, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.modules, path)
	return nil
}

// ExecuteCommand implements the "ssaopt/optimize" command: it runs the
// default pipeline over the document's most recently parsed module and
// returns the optimized listing.
func (h *Handler) ExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	if params.Command != OptimizeCommand || len(params.Arguments) == 0 {
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}
	uri, ok := params.Arguments[0].(string)
	if !ok {
		return nil, fmt.Errorf("%s expects a document URI argument", OptimizeCommand)
	}
	path, err := uriToPath(protocol.DocumentUri(uri))
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	module := h.modules[path]
	h.mu.RUnlock()
	if module == nil {
		return nil, fmt.Errorf("%s has no successfully parsed module; fix its diagnostics first", path)
	}

	optimized, err := opt.OptimizeModule(module, opt.Options{})
	if err != nil {
		return nil, err
	}
	return ir.PrintModule(optimized), nil
}

// reparse re-runs irtext over the document's current text, updating the
// cached module on success and publishing diagnostics either way.
func (h *Handler) reparse(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	path, err := uriToPath(uri)
	if err != nil {
		log.Printf("failed to convert URI %s: %v\n", uri, err)
		return
	}

	h.mu.Lock()
	h.content[path] = text
	h.mu.Unlock()

	module, parseErr := irtext.ParseString(path, text)
	if parseErr != nil {
		h.mu.Lock()
		delete(h.modules, path)
		h.mu.Unlock()
		sendDiagnostics(ctx, uri, ConvertParseError(parseErr))
		return
	}

	h.mu.Lock()
	h.modules[path] = module
	h.mu.Unlock()
	sendDiagnostics(ctx, uri, nil)
}

func sendDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// uriToPath converts an LSP document URI to a platform-local file path.
func uriToPath(rawURI protocol.DocumentUri) (string, error) {
	u, err := url.Parse(string(rawURI))
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 2 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func ptrBool(b bool) *bool { return &b }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }
