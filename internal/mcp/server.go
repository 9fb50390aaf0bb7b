package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/alexanderramin/zenstory/internal/astro"
	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/imagery"
	"github.com/alexanderramin/zenstory/internal/story"
)

type (
	Selector interface {
		Select(ctx context.Context, lat, lon float64, date string) (astro.CelestialObject, error)
	}
	FactSource interface {
		Facts(ctx context.Context, name string) string
	}
	Prompter interface {
		Prompt(req story.Request) string
	}
	Strategist interface {
		Strategy(name, objectType string) imagery.Strategy
	}
)

type Deps struct {
	Catalog  *catalog.Catalog
	Selector Selector
	Facts    FactSource
	Prompts  Prompter
	Images   Strategist
	Log      *zap.Logger
	Version  string
}

type toolHandler func(ctx context.Context, args json.RawMessage) (*ToolResult, error)

type Server struct {
	deps     Deps
	tools    []Tool
	handlers map[string]toolHandler
}

func NewServer(deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}
	s := &Server{deps: deps, handlers: make(map[string]toolHandler)}
	s.register(selectCelestialTool, s.selectCelestial)
	s.register(storyPromptTool, s.storyPrompt)
	s.register(imagePromptTool, s.imagePrompt)
	return s
}

func (s *Server) register(t Tool, h toolHandler) {
	s.tools = append(s.tools, t)
	s.handlers[t.Name] = h
}

// Tools lists the registered tools in registration order.
func (s *Server) Tools() []Tool { return s.tools }

// Handle processes one JSON-RPC message. It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, raw []byte) []byte {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return s.encode(response{ID: json.RawMessage("null"), Error: &rpcError{Code: codeParseError, Message: "parse error"}})
	}
	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		if req.notification() {
			return nil
		}
		return s.encode(response{ID: req.ID, Error: &rpcError{Code: codeInvalidRequest, Message: "invalid request"}})
	}

	result, rerr := s.dispatch(ctx, &req)
	if req.notification() {
		return nil
	}
	return s.encode(response{ID: req.ID, Result: result, Error: rerr})
}

func (s *Server) encode(resp response) []byte {
	resp.JSONRPC = jsonRPCVersion
	out, err := json.Marshal(resp)
	if err != nil {
		s.deps.Log.Error("encoding mcp response", zap.Error(err))
		out, _ = json.Marshal(response{
			JSONRPC: jsonRPCVersion,
			ID:      resp.ID,
			Error:   &rpcError{Code: codeInvalidRequest, Message: "internal error"},
		})
	}
	return out
}

func (s *Server) dispatch(ctx context.Context, req *request) (any, *rpcError) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]string{"name": serverName, "version": s.deps.Version},
		}, nil
	case "notifications/initialized":
		return nil, nil
	case "ping":
		return map[string]any{}, nil
	case "tools/list":
		return map[string]any{"tools": s.tools}, nil
	case "tools/call":
		var p callParams
		if err := json.Unmarshal(req.Params, &p); err != nil || p.Name == "" {
			return nil, &rpcError{Code: codeInvalidParams, Message: "tools/call needs a tool name"}
		}
		return s.call(ctx, p), nil
	}
	return nil, &rpcError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
}

func (s *Server) call(ctx context.Context, p callParams) *ToolResult {
	h, ok := s.handlers[p.Name]
	if !ok {
		return errorResult(fmt.Sprintf("unknown tool: %s", p.Name))
	}
	args := p.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	start := time.Now()
	res, err := h(ctx, args)
	log := s.deps.Log.With(zap.String("tool", p.Name), zap.Duration("duration", time.Since(start)))
	if err != nil {
		log.Warn("tool call failed", zap.Error(err))
		return errorResult(err.Error())
	}
	log.Info("tool call")
	return res
}
