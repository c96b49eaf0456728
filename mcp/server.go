// Package mcp provides MCP (Model Context Protocol) tool adapters for the
// portal sync client, so an MCP-compatible analyst agent can browse clients,
// read and record AI reports, and trigger reconciliation.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ladupla/portalsync"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with portal tools.
type Server struct {
	portal    *portalsync.Portal
	mcpServer *server.MCPServer
}

// ToolResult represents the result of a tool call.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo represents a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server with portal tools registered.
func NewServer(portal *portalsync.Portal) *Server {
	s := &Server{portal: portal}

	s.mcpServer = server.NewMCPServer(
		"portalsync",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage processes a raw JSON-RPC message and returns a response.
// This is primarily for testing the MCP protocol layer.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "portal_clients_list", Description: "List agency clients with their status"},
		{Name: "portal_client_info", Description: "Get one client's profile, AI configuration and report slots"},
		{Name: "portal_reports_list", Description: "List AI reports for a client, most recent first"},
		{Name: "portal_report_record", Description: "Record a generated AI report for a client"},
		{Name: "portal_reports_mark_read", Description: "Mark all of a client's reports as read"},
		{Name: "portal_refresh", Description: "Pull the latest portal data from the remote mirror"},
		{Name: "portal_stats", Description: "Get local cache statistics"},
	}
}

// CallTool executes a tool by name with the given arguments.
// This is used for testing and direct invocation.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	switch name {
	case "portal_clients_list":
		return s.handleClientsList(ctx, args)
	case "portal_client_info":
		return s.handleClientInfo(ctx, args)
	case "portal_reports_list":
		return s.handleReportsList(ctx, args)
	case "portal_report_record":
		return s.handleReportRecord(ctx, args)
	case "portal_reports_mark_read":
		return s.handleReportsMarkRead(ctx, args)
	case "portal_refresh":
		return s.handleRefresh(ctx, args)
	case "portal_stats":
		return s.handleStats(ctx, args)
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("portal_clients_list",
		mcp.WithDescription("List agency clients with their status. Returns each client's ID, name, and whether the account is active."),
		mcp.WithBoolean("active_only",
			mcp.Description("Only list active clients (default: false)"),
		),
	), s.mcpHandle(s.handleClientsList))

	s.mcpServer.AddTool(mcp.NewTool("portal_client_info",
		mcp.WithDescription("Get one client's profile: report slots, AI analyst configuration prompt, and billing summary."),
		mcp.WithString("client_id",
			mcp.Description("The client ID to inspect"),
			mcp.Required(),
		),
	), s.mcpHandle(s.handleClientInfo))

	s.mcpServer.AddTool(mcp.NewTool("portal_reports_list",
		mcp.WithDescription("List AI reports for a client, most recent first. Returns report IDs, creation times and read status."),
		mcp.WithString("client_id",
			mcp.Description("The client ID to list reports for"),
			mcp.Required(),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of reports to return (default: 10)"),
		),
	), s.mcpHandle(s.handleReportsList))

	s.mcpServer.AddTool(mcp.NewTool("portal_report_record",
		mcp.WithDescription("Record a generated AI report for a client. The report is stored locally and mirrored to the backend."),
		mcp.WithString("client_id",
			mcp.Description("The client the report belongs to"),
			mcp.Required(),
		),
		mcp.WithString("content",
			mcp.Description("The report content (markdown)"),
			mcp.Required(),
		),
	), s.mcpHandle(s.handleReportRecord))

	s.mcpServer.AddTool(mcp.NewTool("portal_reports_mark_read",
		mcp.WithDescription("Mark all of a client's reports as read."),
		mcp.WithString("client_id",
			mcp.Description("The client whose reports to mark read"),
			mcp.Required(),
		),
	), s.mcpHandle(s.handleReportsMarkRead))

	s.mcpServer.AddTool(mcp.NewTool("portal_refresh",
		mcp.WithDescription("Pull the latest portal data from the remote mirror into the local cache."),
	), s.mcpHandle(s.handleRefresh))

	s.mcpServer.AddTool(mcp.NewTool("portal_stats",
		mcp.WithDescription("Get local cache statistics: record counts per collection, pending mirror writes, and last sync time."),
	), s.mcpHandle(s.handleStats))
}

type handlerFunc func(ctx context.Context, args map[string]any) (*ToolResult, error)

func (s *Server) mcpHandle(h handlerFunc) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := h(ctx, req.GetArguments())
		if err != nil {
			return nil, err
		}
		return toMCPResult(result), nil
	}
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: r.Content,
			},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}

// Internal handlers

func (s *Server) handleClientsList(_ context.Context, args map[string]any) (*ToolResult, error) {
	activeOnly, _ := args["active_only"].(bool)

	clients, err := s.portal.Clients().All()
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("listing clients failed: %v", err), IsError: true}, nil
	}

	var sb strings.Builder
	count := 0
	for _, c := range clients {
		if activeOnly && !c.IsActive {
			continue
		}
		status := "active"
		if !c.IsActive {
			status = "suspended"
		}
		sb.WriteString(fmt.Sprintf("[%s] %s (%s)\n", c.ID, c.Name, status))
		count++
	}
	if count == 0 {
		return &ToolResult{Content: "No clients found."}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("%d clients:\n%s", count, sb.String())}, nil
}

func (s *Server) handleClientInfo(_ context.Context, args map[string]any) (*ToolResult, error) {
	clientID, ok := args["client_id"].(string)
	if !ok || clientID == "" {
		return &ToolResult{Content: "client_id is required", IsError: true}, nil
	}

	client, _, err := s.portal.Clients().ByID(clientID)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("client lookup failed: %v", err), IsError: true}, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Client %s (%s)\n", client.Name, client.ID))
	sb.WriteString(fmt.Sprintf("  Active: %v\n", client.IsActive))

	configured := 0
	for _, url := range client.ReportURLs {
		if url != "" {
			configured++
		}
	}
	sb.WriteString(fmt.Sprintf("  Report slots configured: %d/%d\n", configured, len(portalsync.ReportSections())))

	if client.AIConfig != nil && client.AIConfig.Prompt != "" {
		sb.WriteString(fmt.Sprintf("  AI prompt: %s\n", truncate(client.AIConfig.Prompt, 200)))
	}
	if client.Billing != nil {
		sb.WriteString(fmt.Sprintf("  Mentorship value: %.2f over %d installments\n",
			client.Billing.TotalMentorshipValue, len(client.Billing.Installments)))
	}
	return &ToolResult{Content: sb.String()}, nil
}

func (s *Server) handleReportsList(_ context.Context, args map[string]any) (*ToolResult, error) {
	clientID, ok := args["client_id"].(string)
	if !ok || clientID == "" {
		return &ToolResult{Content: "client_id is required", IsError: true}, nil
	}

	limit := 10
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	reports, err := s.portal.Reports().All(clientID)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("listing reports failed: %v", err), IsError: true}, nil
	}
	if len(reports) == 0 {
		return &ToolResult{Content: "No reports found."}, nil
	}
	if len(reports) > limit {
		reports = reports[:limit]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d reports:\n", len(reports)))
	for _, r := range reports {
		read := "unread"
		if r.IsReadByClient {
			read = "read"
		}
		sb.WriteString(fmt.Sprintf("[%s] %s (%s)\n    %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), read, truncate(r.Content, 150)))
	}
	return &ToolResult{Content: sb.String()}, nil
}

func (s *Server) handleReportRecord(_ context.Context, args map[string]any) (*ToolResult, error) {
	clientID, ok := args["client_id"].(string)
	if !ok || clientID == "" {
		return &ToolResult{Content: "client_id is required", IsError: true}, nil
	}
	content, ok := args["content"].(string)
	if !ok || content == "" {
		return &ToolResult{Content: "content is required", IsError: true}, nil
	}

	report, err := s.portal.Reports().Save(portalsync.AIReport{
		ClientID: clientID,
		Content:  content,
	})
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("recording report failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("Recorded report [%s] for client %s", report.ID, clientID)}, nil
}

func (s *Server) handleReportsMarkRead(_ context.Context, args map[string]any) (*ToolResult, error) {
	clientID, ok := args["client_id"].(string)
	if !ok || clientID == "" {
		return &ToolResult{Content: "client_id is required", IsError: true}, nil
	}

	updated, err := s.portal.Reports().MarkAllRead(clientID)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("marking reports read failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("Marked %d reports as read", updated)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, _ map[string]any) (*ToolResult, error) {
	report, err := s.portal.Refresh(ctx)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("refresh failed: %v", err), IsError: true}, nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Refreshed %d records in %s\n", report.TotalRecords(), report.Duration.Round(1e6)))
	for _, kind := range report.Failed() {
		sb.WriteString(fmt.Sprintf("  %s: pull failed, cached data kept\n", kind))
	}
	return &ToolResult{Content: sb.String()}, nil
}

func (s *Server) handleStats(_ context.Context, _ map[string]any) (*ToolResult, error) {
	stats, err := s.portal.Stats()
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("stats failed: %v", err), IsError: true}, nil
	}

	var sb strings.Builder
	sb.WriteString("Cache statistics:\n")
	for _, kind := range portalsync.Kinds() {
		sb.WriteString(fmt.Sprintf("  %s: %d\n", kind, stats.RecordCounts[kind]))
	}
	sb.WriteString(fmt.Sprintf("  pending mirror writes: %d\n", stats.PendingMirror))
	if !stats.LastSync.IsZero() {
		sb.WriteString(fmt.Sprintf("  last sync: %s\n", stats.LastSync.Format("2006-01-02 15:04:05")))
	}
	return &ToolResult{Content: sb.String()}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
