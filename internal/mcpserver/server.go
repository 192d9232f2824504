// Package mcpserver exposes a built state.State's query surface over the
// Model Context Protocol, so an AI agent can ask for a task's critical
// predecessor, the previous entry at a processor level, or a skew report
// without re-running the ingest pipeline.
package mcpserver

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/suranap/profstate/internal/state"
)

// Server wraps the MCP server instance bound to one built State.
type Server struct {
	mcpServer *server.MCPServer
	state     *state.State
}

// NewServer creates an MCP server exposing s's query surface as tools.
func NewServer(version string, s *state.State) *Server {
	srv := server.NewMCPServer("profstate", version, server.WithLogging())
	registerTools(srv, s)
	return &Server{mcpServer: srv, state: s}
}

// Start runs the server in stdio mode (blocking).
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func registerTools(s *server.MCPServer, st *state.State) {
	findOpTool := mcp.NewTool("find_op",
		mcp.WithDescription("Resolve an operation ID to the profiler UID of the task/meta-task entry that represents it."),
		mcp.WithNumber("op_id", mcp.Required(), mcp.Description("Operation ID to resolve")),
	)
	s.AddTool(findOpTool, handleFindOp(st))

	criticalTool := mcp.NewTool("find_critical_entry",
		mcp.WithDescription("Return the critical-path predecessor of an event, once ComputeCriticalPaths has run."),
		mcp.WithNumber("event_id", mcp.Required(), mcp.Description("Event ID to look up")),
	)
	s.AddTool(criticalTool, handleFindCriticalEntry(st))

	prevTool := mcp.NewTool("find_previous_executing_entry",
		mcp.WithDescription("Find the entry immediately preceding a window on a processor's level, for continuation-gap analysis."),
		mcp.WithNumber("proc_id", mcp.Required(), mcp.Description("Processor ID")),
		mcp.WithNumber("level", mcp.Required(), mcp.Description("Level within the processor")),
		mcp.WithNumber("ready", mcp.Required(), mcp.Description("Ready time of the window being checked")),
		mcp.WithNumber("start", mcp.Required(), mcp.Description("Start time of the window being checked")),
	)
	s.AddTool(prevTool, handleFindPreviousExecutingEntry(st))

	skewTool := mcp.NewTool("skew_report",
		mcp.WithDescription("List inter-node skew and long-latency-message advisories accumulated during ingest."),
	)
	s.AddTool(skewTool, handleSkewReport(st))

	summaryTool := mcp.NewTool("container_summary",
		mcp.WithDescription("Return a JSON projection of every processor/memory/channel's post-pipeline statistics."),
	)
	s.AddTool(summaryTool, handleContainerSummary(st))
}
