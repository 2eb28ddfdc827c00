package mcpserver

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Commerce-Relay/agent/contract"
	"github.com/tanpawarit/Chative-Commerce-Relay/agent/dispatch"
	statex "github.com/tanpawarit/Chative-Commerce-Relay/agent/state"
	toolx "github.com/tanpawarit/Chative-Commerce-Relay/agent/tool"
)

const Name = "commerce-relay"

// Server exposes every registry tool over MCP. All calls share one
// process-local session, so grounding works across calls the same way it
// does in a chat.
type Server struct {
	dispatcher *dispatch.Dispatcher
	mcp        *server.MCPServer
	tools      []mcp.Tool

	mu         sync.Mutex
	session    *statex.Session
	buyerToken string
}

type Option func(*Server)

// WithBuyerToken makes calls act as a signed-in customer.
func WithBuyerToken(token string) Option {
	return func(s *Server) { s.buyerToken = token }
}

func WithSession(sess *statex.Session) Option {
	return func(s *Server) {
		if sess != nil {
			s.session = sess
		}
	}
}

func New(d *dispatch.Dispatcher, version string, opts ...Option) (*Server, error) {
	if d == nil {
		return nil, errors.New("dispatcher is required")
	}

	s := &Server{
		dispatcher: d,
		session:    statex.NewSession("", time.Now()),
		mcp: server.NewMCPServer(Name, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, def := range d.Registry().Definitions() {
		tool := toolFor(def)
		s.tools = append(s.tools, tool)
		s.mcp.AddTool(tool, s.handler(def.Name))
	}
	return s, nil
}

func toolFor(def toolx.Definition) mcp.Tool {
	schema := def.JSONSchema()
	props, _ := schema["properties"].(map[string]any)
	required, _ := schema["required"].([]string)
	return mcp.Tool{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}
}

func (s *Server) Tools() []mcp.Tool {
	return append([]mcp.Tool(nil), s.tools...)
}

// Session returns the shared session. Callers must not use it while a tool
// call is running.
func (s *Server) Session() *statex.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		call := contractx.ToolCall{Name: name, Parameters: args}

		s.mu.Lock()
		res := s.dispatcher.Dispatch(ctx, s.session, call, s.buyerToken)
		s.mu.Unlock()

		if res.Failed() {
			log.Debug().Str("component", "mcp").Str("tool", name).Str("error", res.Error).Msg("tool call failed")
			return mcp.NewToolResultError(res.Error), nil
		}

		payload, err := sonic.Marshal(res)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

// Serve speaks MCP over the given streams until ctx ends or in closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}
