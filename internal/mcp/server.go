// Package mcp exposes fieldloop over the Model Context Protocol so agent
// tooling can resolve fields and submit feedback through stdio JSON-RPC.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tclarke/fieldloop/internal/app"
	"github.com/tclarke/fieldloop/internal/feedback"
	"github.com/tclarke/fieldloop/internal/models"
)

// Config configures the MCP server.
type Config struct {
	// Name is the server name reported to clients.
	Name string

	// Version is the server version reported to clients.
	Version string

	// Root is the fieldloop project root.
	Root string
}

// Server wraps an MCP server bound to one fieldloop project.
type Server struct {
	server *mcp.Server
	app    *app.App

	closeOnce sync.Once
	closeErr  error
}

// NewServer creates an MCP server for the project at cfg.Root. The project
// must already be initialized.
func NewServer(cfg *Config) (*Server, error) {
	a, err := app.Open(cfg.Root)
	if err != nil {
		return nil, err
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{server: srv, app: a}
	s.registerTools()
	return s, nil
}

type resolveArgs struct {
	Field  string `json:"field" jsonschema:"the raw field name to resolve"`
	Source string `json:"source,omitempty" jsonschema:"optional data source name for review routing"`
}

type recordArgs struct {
	RawField        string  `json:"raw_field" jsonschema:"the raw field name the judgment applies to"`
	SuggestedMatch  string  `json:"suggested_match,omitempty" jsonschema:"the canonical field the resolver proposed"`
	FeedbackType    string  `json:"feedback_type" jsonschema:"one of approved, corrected, rejected"`
	HumanCorrection string  `json:"human_correction,omitempty" jsonschema:"the correct canonical field when feedback_type is corrected"`
	ConfidenceScore float64 `json:"confidence_score" jsonschema:"the resolver's original confidence (0.0-1.0)"`
	Source          string  `json:"source,omitempty" jsonschema:"optional data source name"`
	Session         string  `json:"session,omitempty" jsonschema:"optional review session identifier"`
}

type statsArgs struct{}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fieldloop_resolve",
		Description: "Resolve a raw field name to a canonical schema field via learned mappings and embedding similarity",
	}, s.handleResolve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fieldloop_record",
		Description: "Record a human judgment (approve/correct/reject) on a field-mapping suggestion",
	}, s.handleRecord)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "fieldloop_stats",
		Description: "Summarize the feedback history: totals and approval/correction/rejection rates",
	}, s.handleStats)
}

func (s *Server) handleResolve(ctx context.Context, req *mcp.CallToolRequest, args resolveArgs) (*mcp.CallToolResult, any, error) {
	if args.Field == "" {
		return nil, nil, fmt.Errorf("field is required")
	}

	r, err := s.app.NewResolver(ctx)
	if err != nil {
		return nil, nil, err
	}

	res, err := r.Resolve(ctx, args.Field)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(res)
}

func (s *Server) handleRecord(ctx context.Context, req *mcp.CallToolRequest, args recordArgs) (*mcp.CallToolResult, any, error) {
	rec, err := s.app.Store.Record(ctx, feedback.RecordRequest{
		RawField:        args.RawField,
		SuggestedMatch:  args.SuggestedMatch,
		HumanCorrection: args.HumanCorrection,
		FeedbackType:    models.FeedbackType(args.FeedbackType),
		ConfidenceScore: args.ConfidenceScore,
		SourceName:      args.Source,
		SessionID:       args.Session,
	})
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(rec)
}

func (s *Server) handleStats(ctx context.Context, req *mcp.CallToolRequest, args statsArgs) (*mcp.CallToolResult, any, error) {
	stats, err := s.app.Store.Statistics(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(stats)
}

// jsonResult renders v as a single JSON text content block.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, v, nil
}

// Run serves MCP over stdio until the client disconnects or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close releases project resources. Safe to call multiple times.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.app.Close()
	})
	return s.closeErr
}
