package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/suranap/profstate/internal/ids"
	"github.com/suranap/profstate/internal/snapshot"
	"github.com/suranap/profstate/internal/state"
)

func handleFindOp(st *state.State) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := getArgs(request)
		opID, ok := numberArg(args, "op_id")
		if !ok {
			return errResult("op_id is required"), nil
		}
		uid, found := st.FindOp(ids.OpID(opID))
		return jsonResult(map[string]interface{}{"uid": uid, "found": found})
	}
}

func handleFindCriticalEntry(st *state.State) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := getArgs(request)
		eventID, ok := numberArg(args, "event_id")
		if !ok {
			return errResult("event_id is required"), nil
		}
		if !st.HasCriticalPathData() {
			return errResult("critical path data is unavailable for this ingest"), nil
		}
		predecessor, found := st.FindCriticalEntry(ids.EventID(eventID))
		return jsonResult(map[string]interface{}{"predecessor": predecessor, "found": found})
	}
}

func handleFindPreviousExecutingEntry(st *state.State) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := getArgs(request)
		procID, ok1 := numberArg(args, "proc_id")
		level, ok2 := numberArg(args, "level")
		ready, ok3 := numberArg(args, "ready")
		start, ok4 := numberArg(args, "start")
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return errResult("proc_id, level, ready, and start are all required"), nil
		}
		uid, prevStart, prevStop, found := st.FindPreviousExecutingEntry(ids.ProcID(procID), int(level), ready, start)
		return jsonResult(map[string]interface{}{
			"uid": uid, "start": prevStart, "stop": prevStop, "found": found,
		})
	}
}

func handleSkewReport(st *state.State) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(st.CheckMessageLatencies())
	}
}

func handleContainerSummary(st *state.State) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(snapshot.Project(st))
	}
}

// getArgs safely extracts the arguments map from a CallToolRequest.
func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// numberArg extracts a uint64 argument, returning false if absent or not
// a number (MCP tool arguments always decode numbers as float64).
func numberArg(args map[string]interface{}, key string) (uint64, bool) {
	val, ok := args[key]
	if !ok || val == nil {
		return 0, false
	}
	f, ok := val.(float64)
	if !ok {
		return 0, false
	}
	return uint64(f), true
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
	}
	return newTextResult(string(data)), nil
}

func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
	}
}
