// Package server implements the MCP (Model Context Protocol) server for the
// template matcher.
//
// The server exposes template analysis and ad selection as MCP tools so an
// assistant can prepare the template cache and pick layouts for ads.
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
// # Available Tools
//
// Template analysis:
//   - template_analyze: Analyze an image and cache its metadata
//   - template_detect_regions: Detected regions only, nothing cached;
//     optionally an annotated PNG with numbered outlines
//   - template_crop_region: One pixel region as base64 PNG
//
// Selection:
//   - template_select: Best template for an ad
//   - template_rank: All templates scored, best first
//
// Cache inspection:
//   - template_list: Cached templates in cache order
//   - template_get: One cached template
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: the error map with "code" (INVALID_IMAGE, PRECONDITION, ...),
//     "message" and, when known, "template_id"
//
// # Usage
//
//	srv := server.New(svc, ".indt", logger)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
