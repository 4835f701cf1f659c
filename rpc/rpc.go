package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/toolfoundation/model"

	"github.com/jonwraymond/supportbot/router"
)

// PersonaPrompt is the name of the prompt served by prompts/get.
const PersonaPrompt = "bot_persona"

// Request is an incoming JSON-RPC request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response.
func (r Request) IsNotification() bool {
	return r.ID == nil && strings.HasPrefix(r.Method, "notifications/")
}

// Response is a JSON-RPC response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ServerInfo identifies the server in the initialize result.
type ServerInfo struct {
	Name    string
	Version string
}

// Handler answers JSON-RPC requests from a router.
type Handler struct {
	router *router.Router
	info   ServerInfo
}

// NewHandler creates a handler for rt.
func NewHandler(rt *router.Router, info ServerInfo) *Handler {
	if info.Name == "" {
		info.Name = "supportbot"
	}
	return &Handler{router: rt, info: info}
}

// HandleRequest processes a request and returns its response.
func (h *Handler) HandleRequest(ctx context.Context, req Request) Response {
	if req.JSONRPC != "2.0" {
		return errorResponse(req.ID, ErrCodeInvalidRequest, `jsonrpc must be "2.0"`, nil)
	}

	switch req.Method {
	case "initialize":
		return h.handleInitialize(req.ID)
	case "ping":
		return result(req.ID, map[string]any{})
	case "tools/list":
		return h.handleToolsList(req.ID)
	case "tools/call":
		return h.handleToolsCall(ctx, req.ID, req.Params)
	case "resources/list":
		return h.handleResourcesList(req.ID)
	case "resources/templates/list":
		return h.handleTemplatesList(req.ID)
	case "resources/read":
		return h.handleResourcesRead(ctx, req.ID, req.Params)
	case "prompts/list":
		return h.handlePromptsList(req.ID)
	case "prompts/get":
		return h.handlePromptsGet(req.ID, req.Params)
	default:
		return errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method %s not found", req.Method), nil)
	}
}

func (h *Handler) handleInitialize(id any) Response {
	return result(id, map[string]any{
		"protocolVersion": model.MCPVersion,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    h.info.Name,
			"version": h.info.Version,
		},
		"instructions": h.router.Prompt(),
	})
}

func (h *Handler) handleToolsList(id any) Response {
	caps := h.router.ListCapabilities()
	tools := make([]map[string]any, 0, len(caps.Tools))
	for _, tool := range caps.Tools {
		tools = append(tools, map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}
	return result(id, map[string]any{"tools": tools})
}

type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (h *Handler) handleToolsCall(ctx context.Context, id any, params json.RawMessage) Response {
	var p toolsCallParams
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResponse(id, ErrCodeInvalidParams, err.Error(), nil)
	}
	if p.Name == "" {
		return errorResponse(id, ErrCodeInvalidParams, "tool name is required", nil)
	}

	resp, err := h.router.CallTool(ctx, p.Name, p.Arguments)
	if err != nil {
		return failureResponse(id, err)
	}
	return result(id, toolResult(resp))
}

func (h *Handler) handleResourcesList(id any) Response {
	return result(id, map[string]any{"resources": h.router.ListCapabilities().Resources})
}

func (h *Handler) handleTemplatesList(id any) Response {
	caps := h.router.ListCapabilities()
	templates := make([]map[string]any, 0, len(caps.ResourceTemplates))
	for _, t := range caps.ResourceTemplates {
		templates = append(templates, map[string]any{
			"uriTemplate": t.URI,
			"name":        t.Name,
			"description": t.Description,
			"mimeType":    t.MIMEType,
		})
	}
	return result(id, map[string]any{"resourceTemplates": templates})
}

type resourcesReadParams struct {
	URI string `json:"uri"`
}

func (h *Handler) handleResourcesRead(ctx context.Context, id any, params json.RawMessage) Response {
	var p resourcesReadParams
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResponse(id, ErrCodeInvalidParams, err.Error(), nil)
	}

	resp, err := h.router.ResolveResource(ctx, p.URI)
	if err != nil {
		return failureResponse(id, err)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return errorResponse(id, ErrCodeInternal, "failed to encode resource", nil)
	}
	return result(id, map[string]any{
		"contents": []map[string]any{{
			"uri":      p.URI,
			"mimeType": "application/json",
			"text":     string(data),
		}},
	})
}

func (h *Handler) handlePromptsList(id any) Response {
	return result(id, map[string]any{
		"prompts": []map[string]any{{
			"name":        PersonaPrompt,
			"description": "The support bot's persona and instructions",
		}},
	})
}

type promptsGetParams struct {
	Name string `json:"name"`
}

func (h *Handler) handlePromptsGet(id any, params json.RawMessage) Response {
	var p promptsGetParams
	if err := json.Unmarshal(params, &p); err != nil {
		return errorResponse(id, ErrCodeInvalidParams, err.Error(), nil)
	}
	if p.Name != PersonaPrompt {
		return errorResponse(id, ErrCodeInvalidParams, fmt.Sprintf("unknown prompt %q", p.Name), nil)
	}
	return result(id, map[string]any{
		"description": h.router.Persona().Name,
		"messages": []map[string]any{{
			"role":    "user",
			"content": map[string]any{"type": "text", "text": h.router.Prompt()},
		}},
	})
}

func toolResult(resp router.Response) map[string]any {
	data, _ := json.Marshal(resp)
	return map[string]any{
		"content":           []map[string]any{{"type": "text", "text": string(data)}},
		"structuredContent": resp,
		"isError":           false,
	}
}

func failureResponse(id any, err error) Response {
	var f *router.Failure
	if !errors.As(err, &f) {
		return errorResponse(id, ErrCodeInternal, "internal error", nil)
	}
	return errorResponse(id, failureCode(f.Kind), f.Message, f)
}

func result(id any, v any) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: v}
}

func errorResponse(id any, code int, message string, data any) Response {
	return Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}
