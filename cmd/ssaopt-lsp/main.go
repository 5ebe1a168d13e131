// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"ssaopt/internal/lsp"
)

const lsName = "ssaopt"

var (
	version = "0.0.1"
	handler protocol.Handler
)

func main() {
	commonlog.Configure(1, nil)

	h := lsp.NewHandler()

	handler = protocol.Handler{
		Initialize:              h.Initialize,
		Initialized:             h.Initialized,
		Shutdown:                h.Shutdown,
		TextDocumentDidOpen:     h.TextDocumentDidOpen,
		TextDocumentDidChange:   h.TextDocumentDidChange,
		TextDocumentDidClose:    h.TextDocumentDidClose,
		WorkspaceExecuteCommand: h.ExecuteCommand,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting ssaopt LSP server...")

	if err := s.RunStdio(); err != nil {
		log.Println("Error starting ssaopt LSP server:", err)
		os.Exit(1)
	}
}
