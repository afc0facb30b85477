package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vkrause09/web-to-do/internal/core"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer exposes the task listing, completion and metric operations as
// MCP tools over stdio.
type MCPServer struct {
	metrics   *core.Metrics
	lifecycle *core.Lifecycle
	logger    *slog.Logger
}

// NewMCPServer creates a new MCP server instance.
func NewMCPServer(metrics *core.Metrics, lifecycle *core.Lifecycle, logger *slog.Logger) *MCPServer {
	return &MCPServer{
		metrics:   metrics,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Run starts the MCP server using stdio transport.
func (s *MCPServer) Run() error {
	mcpServer := server.NewMCPServer(
		"web-to-do",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.logger.Info("MCP server starting on stdio")

	return server.ServeStdio(mcpServer)
}

func (s *MCPServer) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("todo_list_tasks",
		mcp.WithDescription("List open tasks sorted by priority and date added, plus the completed history"),
	), s.handleListTasks)

	mcpServer.AddTool(mcp.NewTool("todo_complete_task",
		mcp.WithDescription("Mark an open task as completed, moving it to the completed set"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Exact name of the open task"),
		),
		mcp.WithString("comment",
			mcp.Description("Optional resolution comment"),
		),
		mcp.WithString("status",
			mcp.Description("Terminal status, default 'Completed'; 'Cannot Complete' flags the record"),
			mcp.Enum(core.StatusCompleted, core.StatusCannotComplete),
		),
	), s.handleCompleteTask)

	mcpServer.AddTool(mcp.NewTool("todo_pass_fail",
		mcp.WithDescription("Get the most recent pass/fail snapshot"),
	), s.handlePassFail)

	mcpServer.AddTool(mcp.NewTool("todo_turnaround_monthly",
		mcp.WithDescription("Get the monthly turnaround-time averages for the last five months"),
	), s.handleTurnAround)

	mcpServer.AddTool(mcp.NewTool("todo_open_close_monthly",
		mcp.WithDescription("Get the monthly open/close volume sums for the last five months"),
	), s.handleOpenClose)

	mcpServer.AddTool(mcp.NewTool("todo_type_counts",
		mcp.WithDescription("Get the task type frequency table"),
	), s.handleTypeCounts)

	mcpServer.AddTool(mcp.NewTool("todo_completed_this_week",
		mcp.WithDescription("Count tasks completed during the current calendar week"),
	), s.handleCompletedThisWeek)

	s.logger.Info("MCP tools registered", "count", 7)
}

func (s *MCPServer) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listing, report := s.metrics.TaskListing(ctx)
	if report.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read tasks: %v", report.Err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d open task(s):\n", len(listing.All))
	for _, t := range listing.All {
		fmt.Fprintf(&b, "  [%s] %s (added %s)\n", t.Priority, t.Name, t.DateAdded.Format(core.DateLayout))
	}
	fmt.Fprintf(&b, "\n%d completed task(s):\n", len(listing.Completed))
	for _, t := range listing.Completed {
		marker := ""
		if t.Flagged {
			marker = " ⚠"
		}
		fmt.Fprintf(&b, "  %s: %s at %s%s\n", t.Name, t.Status, t.CompletedAt.Format(core.DateLayout), marker)
	}
	if skipped := report.Skipped(); skipped > 0 {
		fmt.Fprintf(&b, "\n(%d malformed row(s) skipped)\n", skipped)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *MCPServer) handleCompleteTask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(mcp.ParseString(request, "name", ""))
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	comment := mcp.ParseString(request, "comment", "")
	status := mcp.ParseString(request, "status", "")

	outcome, err := s.lifecycle.Complete(ctx, name, comment, status)
	if err != nil {
		s.logger.Error("complete task", "name", name, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete task: %v", err)), nil
	}
	if outcome == core.CompleteNotFound {
		return mcp.NewToolResultError(fmt.Sprintf("no open task named %q", name)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task completed: %s", name)), nil
}

func (s *MCPServer) handlePassFail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, report := s.metrics.LatestPassFail(ctx)
	if report.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read pass/fail sheet: %v", report.Err)), nil
	}
	if snap == nil {
		return mcp.NewToolResultText("No pass/fail snapshots recorded"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("As of %s: %d passed, %d failed",
		snap.Date.Format(core.DateLayout), snap.Pass, snap.Fail)), nil
}

func (s *MCPServer) handleTurnAround(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	series, report := s.metrics.TurnAroundMonthly(ctx)
	if report.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read turnaround sheet: %v", report.Err)), nil
	}
	if len(series) == 0 {
		return mcp.NewToolResultText("No turnaround samples in the window"), nil
	}
	var b strings.Builder
	b.WriteString("Monthly turnaround averages:\n")
	for _, p := range series {
		fmt.Fprintf(&b, "  %s: %.2f\n", p.Date.Format("2006-01"), p.TurnAround)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *MCPServer) handleOpenClose(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	series, report := s.metrics.OpenCloseMonthly(ctx)
	if report.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read open/close sheet: %v", report.Err)), nil
	}
	if len(series) == 0 {
		return mcp.NewToolResultText("No volume samples in the window"), nil
	}
	var b strings.Builder
	b.WriteString("Monthly open/close volume:\n")
	for _, p := range series {
		fmt.Fprintf(&b, "  %s: opened %d, closed %d\n", p.Date.Format("2006-01"), p.Open, p.Close)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *MCPServer) handleTypeCounts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, report := s.metrics.TypeCounts(ctx)
	if report.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read types sheet: %v", report.Err)), nil
	}
	if len(counts) == 0 {
		return mcp.NewToolResultText("No type counts recorded"), nil
	}
	var b strings.Builder
	b.WriteString("Task types:\n")
	for _, c := range counts {
		fmt.Fprintf(&b, "  %s: %d\n", c.Type, c.Qty)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *MCPServer) handleCompletedThisWeek(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, report := s.metrics.CompletedThisWeek(ctx)
	if report.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read completed sheet: %v", report.Err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d task(s) completed this week", count)), nil
}
