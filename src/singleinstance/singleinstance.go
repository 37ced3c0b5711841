// Package singleinstance lets a second invocation of the translator hand its
// run-once request to the resident tray process over loopback TCP.
package singleinstance

import (
	"context"
)

// Server owns the loopback endpoint and answers delegated translate requests.
type Server interface {
	// Start binds the first port of the configured range. A busy port is an
	// error: another resident already owns it.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next delegated request, or the ctx error.
	Next(ctx context.Context) (Conn, error)
	Close() error
}

// Conn is one delegated request awaiting its response.
type Conn interface {
	Request() Request
	// RespondSuccess reports a completed translation. In stdout mode text
	// carries the translation; in clipboard mode it is empty.
	RespondSuccess(text string) error
	// RespondCancelled reports a run that ended without a translation
	// (selection cancelled, nothing selected, superseded).
	RespondCancelled(reason string) error
	RespondError(msg string) error
	Close() error
}

// Request is a single delegated translate request.
type Request struct {
	OutputToStdout bool
	// Language overrides the target language for this run only. Empty keeps
	// the resident's current selection.
	Language string
}

// Response is what the delegating client receives back.
type Response struct {
	Delegated bool
	Cancelled bool
	Text      string
	Reason    string
}

// Client delegates a run-once invocation to a resident server.
type Client interface {
	// TryRunOnce scans the port range for a resident and forwards req. With no
	// resident found it returns Delegated=false and a nil error.
	TryRunOnce(ctx context.Context, req Request) (Response, error)
}

func NewServer() Server { return newTCPServer() }

func NewClient() Client { return newTCPClient() }
