package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/printdaily/press"
)

const serverVersion = "0.1.0"

// server is the PRINT MCP server.
type server struct {
	engine    *press.Engine
	userID    int64
	scheduler *scheduler // non-nil when --daily is enabled
}

func newServer(engine *press.Engine, userID int64) *server {
	return &server{engine: engine, userID: userID}
}

// resolveUser maps a username to a user ID. An empty username means the
// default user; an unknown one is an error.
func (s *server) resolveUser(ctx context.Context, username *string) (int64, error) {
	if username == nil || *username == "" {
		if s.userID == 0 {
			return 0, fmt.Errorf("no username given and no default user configured")
		}
		return s.userID, nil
	}
	u, err := s.engine.GetUserByUsername(ctx, *username)
	if err != nil {
		return 0, fmt.Errorf("user %q: %w", *username, err)
	}
	return u.ID, nil
}

// jsonResult renders v as the tool's text content.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// newMCPServer registers every tool on a fresh SDK server.
func (s *server) newMCPServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "press", Version: serverVersion}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "publish_now",
		Description: "Publish every pending print now and deliver it to the author's and followers' editions for today (UTC). Returns counts of prints published and editions touched.",
	}, s.publishNow)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "publish_resume",
		Description: "Redo today's delivery without publishing anything new. Use after a publication failed part way.",
	}, s.publishResume)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "schedule_status",
		Description: "Report whether the daily publication runs in this server and when it fires next.",
	}, s.scheduleStatus)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "editions_list",
		Description: "List a reader's daily editions, newest first, with the number of prints in each.",
	}, s.editionsList)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "edition_get",
		Description: "Get a reader's edition for one date with its prints and their authors. A date without an edition returns no prints.",
	}, s.editionGet)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "prints_list",
		Description: "List an author's prints, newest first, optionally filtered by status.",
	}, s.printsList)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "print_create",
		Description: "Write a print. It stays PENDING until the next publication.",
	}, s.printCreate)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "welcome_seed",
		Description: "Create the system account and the welcome prints if they are missing.",
	}, s.welcomeSeed)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "welcome_backfill",
		Description: "Add the welcome prints to every reader's registration-day edition.",
	}, s.welcomeBackfill)
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "audit_log",
		Description: "Show recent security events (failed logins, account changes, rejected publication triggers).",
	}, s.auditLog)

	return srv
}

// run serves MCP over stdio until the client disconnects or ctx ends.
func (s *server) run(ctx context.Context) error {
	log.SetOutput(os.Stderr)
	log.Printf("press-mcp starting (user=%d)", s.userID)
	return s.newMCPServer().Run(ctx, &mcp.StdioTransport{})
}

// --- Tool handlers ---

func (s *server) publishNow(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.Publish(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(res)
}

func (s *server) publishResume(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.ResumePublish(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(res)
}

func (s *server) scheduleStatus(_ context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	return jsonResult(s.scheduler.status())
}

func (s *server) editionsList(ctx context.Context, _ *mcp.CallToolRequest, in readerInput) (*mcp.CallToolResult, any, error) {
	uid, err := s.resolveUser(ctx, in.Username)
	if err != nil {
		return nil, nil, err
	}
	editions, err := s.engine.ListEditions(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(editions)
}

func (s *server) editionGet(ctx context.Context, _ *mcp.CallToolRequest, in editionGetInput) (*mcp.CallToolResult, any, error) {
	if in.Date == "" {
		return nil, nil, fmt.Errorf("date is required")
	}
	uid, err := s.resolveUser(ctx, in.Username)
	if err != nil {
		return nil, nil, err
	}
	edition, err := s.engine.GetEdition(ctx, uid, in.Date)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(edition)
}

func (s *server) printsList(ctx context.Context, _ *mcp.CallToolRequest, in printsListInput) (*mcp.CallToolResult, any, error) {
	uid, err := s.resolveUser(ctx, in.Username)
	if err != nil {
		return nil, nil, err
	}
	var status string
	if in.Status != nil {
		status = *in.Status
	}
	prints, err := s.engine.ListPrints(ctx, uid, status)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(prints)
}

func (s *server) printCreate(ctx context.Context, _ *mcp.CallToolRequest, in printCreateInput) (*mcp.CallToolResult, any, error) {
	uid, err := s.resolveUser(ctx, in.Username)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.engine.CreatePrint(ctx, uid, in.Title, in.Content, in.Images)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(p)
}

func (s *server) welcomeSeed(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.SeedWelcome(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(res)
}

func (s *server) welcomeBackfill(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	res, err := s.engine.BackfillWelcome(ctx)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(res)
}

func (s *server) auditLog(ctx context.Context, _ *mcp.CallToolRequest, in auditLogInput) (*mcp.CallToolResult, any, error) {
	limit := 50
	if in.Limit != nil {
		limit = *in.Limit
	}
	entries, err := s.engine.AuditLog(ctx, limit)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(entries)
}
