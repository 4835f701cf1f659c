package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/supportbot/action"
	"github.com/jonwraymond/supportbot/document"
	"github.com/jonwraymond/supportbot/knowledge"
	"github.com/jonwraymond/supportbot/router"
)

func newRouter(t *testing.T) *router.Router {
	t.Helper()
	idx, err := knowledge.NewIndex([]knowledge.Entry{
		{ID: "kb-001", Title: "Password Reset", Body: "Click forgot password to reset", Category: "account"},
		{ID: "kb-002", Title: "Billing Cycle", Body: "Invoices are issued monthly", Category: "billing"},
	}, knowledge.IndexOptions{})
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	reg, err := action.NewRegistry([]action.Definition{{
		Name:        "create_ticket",
		Description: "Create a support ticket",
		EffectKind:  action.EffectCreateTicket,
		Parameters:  []action.ParameterSpec{{Name: "description", Type: action.TypeString, Required: true}},
	}}, action.Handlers{ByKind: map[action.EffectKind]action.Handler{
		action.EffectCreateTicket: func(ctx context.Context, inv action.Invocation) (any, error) {
			return map[string]any{"ticketId": "TICKET-0001"}, nil
		},
	}}, action.Options{})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	rt, err := router.New(document.Persona{
		Name:        "Ava",
		Tone:        "friendly",
		Disclaimers: []string{"No legal advice."},
	}, idx, reg, router.Options{})
	if err != nil {
		t.Fatalf("router.New failed: %v", err)
	}
	return rt
}

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	srv := New(newRouter(t), Options{Name: "supportbot-test", Version: "1.0.0"})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx := context.Background()
	serverSession, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestListTools(t *testing.T) {
	session := connect(t)
	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"search_knowledge", "read_knowledge_article", "list_knowledge_category", "create_ticket"} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}

func TestCallTool_Search(t *testing.T) {
	session := connect(t)
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search_knowledge",
		Arguments: map[string]any{"query": "password", "limit": 3},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	var resp router.Response
	if err := json.Unmarshal([]byte(resultText(t, res)), &resp); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	if resp.Search == nil || len(resp.Search.Hits) != 1 || resp.Search.Hits[0].Entry.ID != "kb-001" {
		t.Errorf("unexpected search result: %+v", resp.Search)
	}
	if resp.Persona.Name != "Ava" {
		t.Errorf("expected persona stamp, got %+v", resp.Persona)
	}
}

func TestCallTool_Action(t *testing.T) {
	session := connect(t)
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "create_ticket",
		Arguments: map[string]any{"description": "DB error"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), "TICKET-0001") {
		t.Errorf("expected ticket payload, got %s", resultText(t, res))
	}
}

func TestCallTool_FailureIsToolError(t *testing.T) {
	session := connect(t)
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "create_ticket",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError result")
	}
	var f router.Failure
	if err := json.Unmarshal([]byte(resultText(t, res)), &f); err != nil {
		t.Fatalf("invalid failure JSON: %v", err)
	}
	if f.Kind != router.KindInvalidArguments {
		t.Errorf("expected invalid_arguments, got %s", f.Kind)
	}
}

func TestReadResource(t *testing.T) {
	session := connect(t)
	ctx := context.Background()

	for uri, want := range map[string]string{
		router.IndexURI:                "kb-002",
		"knowledge://kb-001":           "Password Reset",
		"knowledge://entry/kb-002":     "Billing Cycle",
		"knowledge://category/billing": "Invoices",
	} {
		res, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
		if err != nil {
			t.Fatalf("ReadResource(%s) failed: %v", uri, err)
		}
		if len(res.Contents) != 1 || !strings.Contains(res.Contents[0].Text, want) {
			t.Errorf("ReadResource(%s): expected %q in %+v", uri, want, res.Contents)
		}
	}

	if _, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "knowledge://missing"}); err == nil {
		t.Error("expected error for missing resource")
	}
}

func TestListResources(t *testing.T) {
	session := connect(t)
	res, err := session.ListResources(context.Background(), &mcp.ListResourcesParams{})
	if err != nil {
		t.Fatalf("ListResources failed: %v", err)
	}
	found := false
	for _, r := range res.Resources {
		if r.URI == router.IndexURI {
			found = true
		}
	}
	if !found {
		t.Errorf("index resource not listed: %+v", res.Resources)
	}

	tmpls, err := session.ListResourceTemplates(context.Background(), &mcp.ListResourceTemplatesParams{})
	if err != nil {
		t.Fatalf("ListResourceTemplates failed: %v", err)
	}
	if len(tmpls.ResourceTemplates) != 3 {
		t.Errorf("expected 3 templates, got %d", len(tmpls.ResourceTemplates))
	}
}

func TestGetPrompt(t *testing.T) {
	session := connect(t)
	res, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: PersonaPrompt})
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}
	if len(res.Messages) != 1 {
		t.Fatalf("expected one message, got %d", len(res.Messages))
	}
	text, ok := res.Messages[0].Content.(*mcp.TextContent)
	if !ok || !strings.Contains(text.Text, "You are Ava") {
		t.Errorf("unexpected prompt content: %+v", res.Messages[0].Content)
	}
}

func TestHTTPHandler(t *testing.T) {
	srv := New(newRouter(t), Options{Version: "1.0.0"})
	ts := httptest.NewServer(srv.HTTPHandler())
	defer ts.Close()

	ctx := context.Background()
	client := mcp.NewClient(&mcp.Implementation{Name: "http-client"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: ts.URL}, nil)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	defer func() { _ = session.Close() }()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "read_knowledge_article",
		Arguments: map[string]any{"article_id": "kb-002"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError || !strings.Contains(resultText(t, res), "Billing Cycle") {
		t.Errorf("unexpected result: %+v", res)
	}
}
