package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/supportbot/router"
)

// PersonaPrompt is the name of the prompt that returns the persona text.
const PersonaPrompt = "bot_persona"

// Options configures a Server.
type Options struct {
	Name    string
	Version string
	// Logger receives transport-level failures. Default: slog.Default()
	Logger *slog.Logger
}

// Server binds a router to an MCP server.
type Server struct {
	router *router.Router
	mcp    *mcp.Server
	logger *slog.Logger
}

// New registers the router's tools, resources and persona prompt.
func New(rt *router.Router, opts Options) *Server {
	if opts.Name == "" {
		opts.Name = "supportbot"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		router: rt,
		logger: opts.Logger,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    opts.Name,
			Version: opts.Version,
		}, &mcp.ServerOptions{
			Instructions: rt.Prompt(),
		}),
	}

	caps := rt.ListCapabilities()
	for _, tool := range caps.Tools {
		t := tool.Tool
		s.mcp.AddTool(&t, s.callTool(t.Name))
	}
	for _, res := range caps.Resources {
		s.mcp.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MIMEType,
		}, s.readResource)
	}
	for _, tmpl := range caps.ResourceTemplates {
		s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: tmpl.URI,
			Name:        tmpl.Name,
			Description: tmpl.Description,
			MIMEType:    tmpl.MIMEType,
		}, s.readResource)
	}
	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        PersonaPrompt,
		Description: "The support bot's persona and instructions",
	}, s.getPrompt)

	return s
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Run serves a single session over transport until it ends or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcp.Run(ctx, transport)
}

// HTTPHandler serves the streamable HTTP transport.
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}

func (s *Server) callTool(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := map[string]any{}
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(&router.Failure{
					Kind:    router.KindInvalidArguments,
					Message: "arguments must be a JSON object",
				}), nil
			}
		}

		resp, err := s.router.CallTool(ctx, name, args)
		if err != nil {
			var f *router.Failure
			if !errors.As(err, &f) {
				s.logger.ErrorContext(ctx, "server.call_tool.error",
					slog.String("tool", name),
					slog.String("error", err.Error()),
				)
				return nil, err
			}
			return errorResult(f), nil
		}
		return jsonResult(resp, false), nil
	}
}

func (s *Server) readResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	resp, err := s.router.ResolveResource(ctx, uri)
	if err != nil {
		if errors.Is(err, router.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return nil, err
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) getPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	persona := s.router.Persona()
	return &mcp.GetPromptResult{
		Description: persona.Name,
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: s.router.Prompt()},
		}},
	}, nil
}

func errorResult(f *router.Failure) *mcp.CallToolResult {
	return jsonResult(f, true)
}

func jsonResult(v any, isError bool) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(`{"kind":"internal","message":"failed to encode result"}`)
		isError = true
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		IsError: isError,
	}
}
