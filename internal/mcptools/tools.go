// Package mcptools exposes read-only MindMirror journal views as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
)

// Tools proxies tool calls to the MindMirror HTTP API.
type Tools struct {
	http *resty.Client
}

// New returns Tools talking to the service at baseURL.
func New(baseURL string, timeout time.Duration) *Tools {
	return &Tools{http: resty.New().SetBaseURL(baseURL).SetTimeout(timeout)}
}

// RegisterTools registers every journal tool with the MCP server.
func (t *Tools) RegisterTools(s *server.MCPServer) error {
	s.AddTool(mcp.NewTool("get_trends",
		mcp.WithDescription("Mood distribution, overall trend and insights over a look-back window"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Journal owner")),
		mcp.WithNumber("days", mcp.Description("Window in days (default 30)")),
	), t.handleTrends)

	s.AddTool(mcp.NewTool("get_history",
		mcp.WithDescription("Recent journal entries, newest first, with a trend summary"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Journal owner")),
		mcp.WithNumber("days", mcp.Description("Window in days (default 7)")),
	), t.handleHistory)

	s.AddTool(mcp.NewTool("find_similar",
		mcp.WithDescription("Past entries semantically related to a query"),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Journal owner")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free text to match")),
		mcp.WithNumber("limit", mcp.Description("Max results (1-50, default 5)")),
	), t.handleSimilar)

	s.AddTool(mcp.NewTool("get_reflection",
		mcp.WithDescription("A gentle reflection prompt for the current mood"),
		mcp.WithString("current_mood", mcp.Required(), mcp.Description("Mood label")),
		mcp.WithString("focus_area", mcp.Description("Optional topic to focus on")),
	), t.handleReflection)
	return nil
}

func (t *Tools) handleTrends(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.windowed(ctx, req, "/api/trends/", 30)
}

func (t *Tools) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.windowed(ctx, req, "/api/history/", 7)
}

func (t *Tools) windowed(ctx context.Context, req mcp.CallToolRequest, prefix string, defDays int) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	days := intArg(req, "days", defDays, 0, 3650)
	r := t.http.R().SetContext(ctx).SetQueryParam("days", strconv.Itoa(days))
	return t.do(r, prefix+url.PathEscape(userID), "GET")
}

func (t *Tools) handleSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id parameter is required"), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	limit := intArg(req, "limit", 5, 1, 50)
	r := t.http.R().SetContext(ctx).SetQueryParams(map[string]string{
		"q":     query,
		"limit": strconv.Itoa(limit),
	})
	return t.do(r, "/api/similar/"+url.PathEscape(userID), "GET")
}

func (t *Tools) handleReflection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mood, err := req.RequireString("current_mood")
	if err != nil {
		return mcp.NewToolResultError("current_mood parameter is required"), nil
	}
	body := map[string]interface{}{"current_mood": mood, "recent_entries": []interface{}{}}
	if focus, ok := req.GetArguments()["focus_area"].(string); ok && focus != "" {
		body["focus_area"] = focus
	}
	r := t.http.R().SetContext(ctx).SetHeader("Content-Type", "application/json").SetBody(body)
	return t.do(r, "/api/reflection", "POST")
}

func (t *Tools) do(r *resty.Request, path, method string) (*mcp.CallToolResult, error) {
	start := time.Now()
	resp, err := r.Execute(method, path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("mindmirror request failed")
		return mcp.NewToolResultError(fmt.Sprintf("request failed: %v", err)), nil
	}
	log.Debug().Str("path", path).Int("status", resp.StatusCode()).Dur("elapsed", time.Since(start)).Msg("mindmirror request")
	if resp.IsError() {
		return mcp.NewToolResultError(fmt.Sprintf("http %d: %s", resp.StatusCode(), resp.String())), nil
	}

	var payload interface{}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return mcp.NewToolResultText(resp.String()), nil
	}
	b, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}

// intArg reads a numeric argument. Out-of-range values fall back to def.
func intArg(req mcp.CallToolRequest, name string, def, lo, hi int) int {
	var n int
	switch v := req.GetArguments()[name].(type) {
	case float64:
		n = int(v)
	case int:
		n = v
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		n = parsed
	default:
		return def
	}
	if n < lo || n > hi {
		return def
	}
	return n
}
