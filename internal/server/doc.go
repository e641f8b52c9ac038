// Package server implements the MCP (Model Context Protocol) server for the
// photo cartoonizer.
//
// The server speaks JSON-RPC 2.0 over stdio and drives a single
// session.Session: one selected source photo, one set of parameters and the
// most recent successful cartoon render.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// tools/call requests run on their own goroutine so that a parameter change
// can arrive while an earlier render is still running. The newer render
// cancels the older one, whose call then fails with a "superseded" error.
// Responses may therefore be written out of request order; clients match
// them by id.
//
// # Available Tools
//
//   - image_info: Dimensions, format and size of an image file
//   - cartoon_load: Select a source and render it
//   - cartoon_render: Re-render with changed parameters or source
//   - cartoon_stencil: Compute only the edge stencil
//   - cartoon_save: Write the current result to disk
//   - cartoon_parameters: Parameter ranges, defaults and current values
//   - cartoon_status: Current source, parameters and last render
//
// # Configuration
//
// Config is read from the environment by ConfigFromEnv:
//   - CARTOON_MCP_LOG_LEVEL=debug: debug logging on stderr
//   - CARTOON_MCP_SEED: fixed k-means seed for reproducible renders
//   - CARTOON_MCP_EDGE_MODE: "fixed" (default) or "scaled"
//   - CARTOON_MCP_PREVIEW_MAX: longest preview side in pixels (default 512)
//   - CARTOON_MCP_CLAMP: clamp out-of-range parameters instead of rejecting them
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A failed render leaves the previous result in place.
//
// # Usage
//
//	cfg, err := server.ConfigFromEnv(os.Getenv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := server.New(cfg).Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
