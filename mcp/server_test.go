package mcp

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ladupla/portalsync"
)

func newTestServer(t *testing.T) (*Server, *portalsync.Portal) {
	t.Helper()
	portal, err := portalsync.New(portalsync.Config{
		LocalPath: filepath.Join(t.TempDir(), "portal.db"),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { portal.Close() })
	return NewServer(portal), portal
}

func TestListTools(t *testing.T) {
	server, _ := newTestServer(t)

	tools := server.ListTools()
	if len(tools) != 7 {
		t.Fatalf("expected 7 tools, got %d", len(tools))
	}
	for _, tool := range tools {
		if !strings.HasPrefix(tool.Name, "portal_") {
			t.Errorf("tool %q not namespaced", tool.Name)
		}
		if tool.Description == "" {
			t.Errorf("tool %q has no description", tool.Name)
		}
	}
}

func TestCallToolUnknown(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.CallTool(context.Background(), "nope", nil)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("unknown tool not reported as error")
	}
}

func TestClientsListTool(t *testing.T) {
	server, portal := newTestServer(t)

	active, err := portal.Clients().Save(portalsync.NewClient("Aurora"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	suspended := portalsync.NewClient("Belmonte")
	suspended.IsActive = false
	if _, err := portal.Clients().Save(suspended); err != nil {
		t.Fatalf("Save: %v", err)
	}

	result, err := server.CallTool(context.Background(), "portal_clients_list", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "Aurora") || !strings.Contains(result.Content, "Belmonte") {
		t.Errorf("clients missing from output: %s", result.Content)
	}

	result, err = server.CallTool(context.Background(), "portal_clients_list", map[string]any{"active_only": true})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if strings.Contains(result.Content, "Belmonte") {
		t.Errorf("suspended client listed with active_only: %s", result.Content)
	}
	if !strings.Contains(result.Content, active.ID) {
		t.Errorf("active client missing: %s", result.Content)
	}
}

func TestReportToolsRoundTrip(t *testing.T) {
	server, portal := newTestServer(t)

	client, err := portal.Clients().Save(portalsync.NewClient("Aurora"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	result, err := server.CallTool(context.Background(), "portal_report_record", map[string]any{
		"client_id": client.ID,
		"content":   "Ventas subieron 12% esta semana.",
	})
	if err != nil {
		t.Fatalf("CallTool record: %v", err)
	}
	if result.IsError {
		t.Fatalf("record error: %s", result.Content)
	}

	result, err = server.CallTool(context.Background(), "portal_reports_list", map[string]any{
		"client_id": client.ID,
	})
	if err != nil {
		t.Fatalf("CallTool list: %v", err)
	}
	if !strings.Contains(result.Content, "unread") {
		t.Errorf("fresh report not listed unread: %s", result.Content)
	}

	result, err = server.CallTool(context.Background(), "portal_reports_mark_read", map[string]any{
		"client_id": client.ID,
	})
	if err != nil {
		t.Fatalf("CallTool mark read: %v", err)
	}
	if !strings.Contains(result.Content, "1") {
		t.Errorf("expected 1 report marked: %s", result.Content)
	}

	unread, err := portal.Reports().Unread(client.ID)
	if err != nil {
		t.Fatalf("Unread: %v", err)
	}
	if unread != 0 {
		t.Errorf("reports still unread: %d", unread)
	}
}

func TestReportRecordRequiresArguments(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.CallTool(context.Background(), "portal_report_record", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("missing client_id accepted")
	}
}

func TestStatsTool(t *testing.T) {
	server, portal := newTestServer(t)

	if _, err := portal.Clients().Save(portalsync.NewClient("Aurora")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	result, err := server.CallTool(context.Background(), "portal_stats", nil)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if result.IsError {
		t.Fatalf("stats error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "clients: 1") {
		t.Errorf("client count missing: %s", result.Content)
	}
}

func TestRefreshToolOffline(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.CallTool(context.Background(), "portal_refresh", nil)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("offline refresh should report an error")
	}
}
