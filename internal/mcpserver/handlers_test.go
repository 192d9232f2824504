package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/suranap/profstate/internal/alog"
	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/record"
	"github.com/suranap/profstate/internal/state"
)

func newTestState(t *testing.T) *state.State {
	t.Helper()
	s := state.New(alog.New(false))
	s.ProcessRecords([]record.Record{
		record.ProcDesc{ProcID: 1, Kind: "cpu"},
		record.TaskInfo{OpID: 42, TaskID: 1, VariantID: 1, ProcID: 1, Create: 0, Ready: 0, Start: 0, Stop: 100, FEvent: 1},
	})
	return s
}

func TestHandleFindOpResolvesKnownOp(t *testing.T) {
	st := newTestState(t)
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]interface{}{"op_id": float64(42)}}}

	result, err := handleFindOp(st)(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result.Content)
	}
	text := result.Content[0].(mcp.TextContent).Text
	if !strings.Contains(text, `"found": true`) {
		t.Fatalf("expected found=true in response, got %s", text)
	}
}

func TestHandleFindOpMissingArgErrors(t *testing.T) {
	st := newTestState(t)
	req := mcp.CallToolRequest{}

	result, _ := handleFindOp(st)(context.Background(), req)
	if !result.IsError {
		t.Fatal("expected a tool error when op_id is missing")
	}
}

func TestHandleFindPreviousExecutingEntryRoundTrips(t *testing.T) {
	st := newTestState(t)
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: map[string]interface{}{
		"proc_id": float64(ids.ProcID(1)),
		"level":   float64(0),
		"ready":   float64(50),
		"start":   float64(200),
	}}}

	result, err := handleFindPreviousExecutingEntry(st)(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := result.Content[0].(mcp.TextContent).Text
	if !strings.Contains(text, `"found": true`) {
		t.Fatalf("expected the single task to be found as the previous entry, got %s", text)
	}
}

func TestHandleSkewReportReturnsEmptyArrayByDefault(t *testing.T) {
	st := newTestState(t)
	req := mcp.CallToolRequest{}

	result, err := handleSkewReport(st)(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := result.Content[0].(mcp.TextContent).Text
	if strings.TrimSpace(text) != "null" && !strings.Contains(text, "[") {
		t.Fatalf("expected an empty JSON array or null, got %s", text)
	}
}
