// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes wristlog records and watch commands over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/wristlog/internal/apperr"
	"github.com/starford/wristlog/internal/recordservice"
)

const recordFormatURI = "wristlog://record-format"

// Server wraps the MCP server with wristlog tools.
type Server struct {
	mcp *server.MCPServer
	svc *recordservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *recordservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Wristlog",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_dates",
		mcp.WithDescription("List the dates (YYYY-MM-DD) that have a stored record for a metric."),
		mcp.WithString("metric", mcp.Required(), mcp.Description("heart_rate or steps")),
	), s.listDates)

	s.mcp.AddTool(mcp.NewTool("read_heart_rate",
		mcp.WithDescription("Read one day of heart-rate samples, sorted by time. "+
			"Rollup entries carry max, min and avg; 255 marks a field that does not apply."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD form")),
	), s.readHeartRate)

	s.mcp.AddTool(mcp.NewTool("read_steps",
		mcp.WithDescription("Read one day of walk and run step counts, sorted by time."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date in YYYY-MM-DD form")),
	), s.readSteps)

	s.mcp.AddTool(mcp.NewTool("summarize",
		mcp.WithDescription("Per-day aggregates for a metric over an optional date range."),
		mcp.WithString("metric", mcp.Required(), mcp.Description("heart_rate or steps")),
		mcp.WithString("from", mcp.Description("First date (YYYY-MM-DD), optional")),
		mcp.WithString("to", mcp.Description("Last date (YYYY-MM-DD), optional")),
	), s.summarize)

	s.mcp.AddTool(mcp.NewTool("device_status",
		mcp.WithDescription("Current watch state: connection, battery, firmware, live heart rate and counters."),
	), s.deviceStatus)

	s.mcp.AddTool(mcp.NewTool("send_alert",
		mcp.WithDescription("Show a notification on the watch. Read the record format resource for the accepted types."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Alert type, e.g. message or call")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to display")),
	), s.sendAlert)

	s.mcp.AddTool(mcp.NewTool("sync_watch",
		mcp.WithDescription("Ask the connected watch for its stored heart-rate and step history."),
	), s.syncWatch)

	s.mcp.AddTool(mcp.NewTool("get_record_format",
		mcp.WithDescription("Returns the daily record format and the accepted alert types."),
	), s.getRecordFormat)

	// Resource: record format.
	s.mcp.AddResource(
		mcp.NewResource(recordFormatURI, "Daily Record Format",
			mcp.WithResourceDescription("Binary layout and merge rules of the daily heart-rate and step records."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotConnected) {
		return mcp.NewToolResultError("watch not connected; start wristlog in run mode")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listDates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metric, err := req.RequireString("metric")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dates, err := s.svc.ListDates(ctx, metric)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(dates)
}

func (s *Server) readHeartRate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := recordservice.ParseDate(raw)
	if err != nil {
		return errorResult(err), nil
	}
	day, err := s.svc.HeartRate(ctx, date)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(day)
}

func (s *Server) readSteps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := recordservice.ParseDate(raw)
	if err != nil {
		return errorResult(err), nil
	}
	day, err := s.svc.Steps(ctx, date)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(day)
}

func (s *Server) summarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("metric")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	metric, err := recordservice.Metric(name)
	if err != nil {
		return errorResult(err), nil
	}
	from := req.GetString("from", "")
	to := req.GetString("to", "")

	var out any
	switch metric {
	case "hr":
		out, err = s.svc.HeartRateSummaries(ctx, from, to)
	default:
		out, err = s.svc.StepsSummaries(ctx, from, to)
	}
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(out)
}

func (s *Server) deviceStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Device(ctx))
}

func (s *Server) sendAlert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.SendAlert(ctx, kind, text); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("sent %s alert", kind)), nil
}

func (s *Server) syncWatch(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.svc.Sync(ctx); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText("history requested"), nil
}

func (s *Server) getRecordFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordFormat), nil
}

func (s *Server) readRecordFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      recordFormatURI,
			MIMEType: "text/markdown",
			Text:     RecordFormat,
		},
	}, nil
}
