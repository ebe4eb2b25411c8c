// Package tools provides the MCP tool handlers for the engagement advisor.
//
// Each handler is a struct with its dependencies injected via constructor,
// a Definition() returning the mcp.Tool schema and a Handle() processing
// the request. Every tool acts as the single user the server was started
// for.
//
// Domain failures come back as tool errors (mcp.NewToolResultError), never
// as Go errors.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// floatArg extracts an optional number argument.
func floatArg(req mcp.CallToolRequest, key string) (float64, bool) {
	v, ok := req.GetArguments()[key].(float64)
	return v, ok
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
