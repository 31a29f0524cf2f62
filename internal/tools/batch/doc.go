// Package batch provides helpers for MCP tools that act on several messages
// in one call.
//
// This package includes helpers for:
//   - Parsing message ID parameters given as a string, a comma separated list or an array
//   - Applying an operation per message while tolerating partial failures
package batch
