// Package mcpserver exports the campus tool catalog over the Model Context
// Protocol, so external MCP clients (IDE assistants, other agents) can call
// the same read-only tools the chat assistant uses.
//
// The server speaks the MCP Streamable HTTP transport via the official Go
// SDK (github.com/modelcontextprotocol/go-sdk) and is mounted on the main
// HTTP server. Caller identity follows the same gateway convention as the
// chat endpoints: the X-User-ID header names the authenticated account, and
// requests without it run the guest catalog.
package mcpserver

import (
	"context"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/campusbuddy/campusbuddy/internal/tools"
)

// userIDHeader matches the header the chat API trusts for caller identity.
const userIDHeader = "X-User-ID"

// Handler returns an HTTP handler serving the tool catalog over MCP. A
// fresh protocol server is built per request so each session exposes
// exactly the tools its caller's mode may see.
func Handler(reg *tools.Registry, exec *tools.Executor, version string) http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(r *http.Request) *mcpsdk.Server {
		caller, mode := callerFromRequest(r)
		return newServer(reg, exec, version, caller, mode)
	}, nil)
}

// newServer assembles one MCP server over the mode-visible tool slice.
func newServer(reg *tools.Registry, exec *tools.Executor, version string, caller tools.Caller, mode tools.Mode) *mcpsdk.Server {
	srv := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "campusbuddy",
		Version: version,
	}, nil)

	for _, t := range reg.Visible(mode) {
		def := t.Definition
		srv.AddTool(&mcpsdk.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.Parameters,
		}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			result := exec.Execute(ctx, caller, def.Name, string(req.Params.Arguments))
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: result}},
			}, nil
		})
	}

	return srv
}

// callerFromRequest maps the gateway identity header to a caller and mode,
// with the same guest fallback as the chat API.
func callerFromRequest(r *http.Request) (tools.Caller, tools.Mode) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		return tools.Caller{Guest: true}, tools.ModeGuest
	}
	mode := tools.Mode(r.Header.Get("X-Chat-Mode"))
	if mode == "" {
		mode = tools.ModeAdminSupport
	}
	return tools.Caller{UserID: userID}, mode
}
