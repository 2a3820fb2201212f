package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/ritual/internal/logging"
	"github.com/aretw0/ritual/internal/runtime"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/ports"
	"github.com/aretw0/ritual/pkg/replay"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RitualsURI is the resource listing every registered ritual.
const RitualsURI = "ritual://rituals"

// ReplayResponse summarizes a replayed trace.
type ReplayResponse struct {
	Trace         string            `json:"trace" jsonschema_description:"Trace name"`
	Ritual        string            `json:"ritual" jsonschema_description:"Ritual the trace ran against"`
	Stage         domain.Stage      `json:"stage" jsonschema_description:"Final stage"`
	SealStatus    domain.SealStatus `json:"seal_status" jsonschema_description:"Final seal status"`
	TotalProgress float64           `json:"total_progress" jsonschema_description:"Final blended progress, 0..1"`
	Signals       []string          `json:"signals" jsonschema_description:"Emitted signal names, in order"`
	Fingerprint   string            `json:"fingerprint" jsonschema_description:"SHA-256 of final state, snapshot and signal names"`
	Frames        int               `json:"frames" jsonschema_description:"Number of events replayed"`
}

// Server exposes the ritual engine as MCP tools. It is stateless: every call carries
// the trace or state it works on.
type Server struct {
	catalog   ports.RitualCatalog
	fixtures  *replay.Catalog
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithFixtures sets the catalog verify_fixtures runs when no fixtures are passed.
func WithFixtures(cat *replay.Catalog) Option {
	return func(s *Server) {
		s.fixtures = cat
	}
}

// WithLogger configures a logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server over the catalog.
func NewServer(catalog ports.RitualCatalog, version string, opts ...Option) *Server {
	s := &Server{
		catalog:   catalog,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("ritual-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_rituals",
		mcp.WithDescription("List the registered rituals with their resolved thresholds and weights."),
	), s.handleListRituals)

	s.mcpServer.AddTool(mcp.NewTool("replay_trace",
		mcp.WithDescription("Replay a recorded input trace (YAML or JSON) and report the final stage, seal status and emitted signals."),
		mcp.WithString("trace", mcp.Required(), mcp.Description("Trace document with 'ritual' and 'steps'")),
		mcp.WithOutputSchema[ReplayResponse](),
	), mcp.NewStructuredToolHandler(s.handleReplayTrace))

	s.mcpServer.AddTool(mcp.NewTool("verify_fixtures",
		mcp.WithDescription("Run a fixture catalog and report every mismatch. Without fixtures the built-in catalog is used."),
		mcp.WithString("fixtures", mcp.Description("YAML fixture document (optional)")),
		mcp.WithOutputSchema[replay.Report](),
	), mcp.NewStructuredToolHandler(s.handleVerifyFixtures))

	s.mcpServer.AddTool(mcp.NewTool("project_state",
		mcp.WithDescription("Project a ritual state onto its UI snapshot."),
		mcp.WithString("ritual_id", mcp.Required(), mcp.Description("Ritual ID, e.g. first-proof")),
		mcp.WithString("state", mcp.Required(), mcp.Description("JSON ritual state")),
		mcp.WithString("overrides", mcp.Description("JSON threshold overrides (optional)")),
		mcp.WithOutputSchema[domain.Snapshot](),
	), mcp.NewStructuredToolHandler(s.handleProjectState))
}

func (s *Server) handleListRituals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(s.catalog.List())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode rituals: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleReplayTrace(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ReplayResponse, error) {
	raw, _ := args["trace"].(string)
	trace, err := replay.ParseTrace([]byte(raw))
	if err != nil {
		return ReplayResponse{}, err
	}

	res, err := replay.Replay(trace, replay.WithCatalog(s.catalog))
	if err != nil {
		return ReplayResponse{}, err
	}
	s.logger.Debug("MCP: Trace replayed", "trace", trace.Name, "stage", res.FinalState.Stage)

	return ReplayResponse{
		Trace:         res.Trace,
		Ritual:        res.Ritual.ID,
		Stage:         res.FinalSnapshot.Stage,
		SealStatus:    res.FinalSnapshot.SealStatus,
		TotalProgress: res.FinalSnapshot.TotalProgress,
		Signals:       res.SignalNames(),
		Fingerprint:   res.Fingerprint(),
		Frames:        len(res.Frames),
	}, nil
}

func (s *Server) handleVerifyFixtures(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (replay.Report, error) {
	cat := s.fixtures
	if raw, ok := args["fixtures"].(string); ok && raw != "" {
		fixtures, err := replay.ParseFixtures([]byte(raw))
		if err != nil {
			return replay.Report{}, err
		}
		cat = &replay.Catalog{Fixtures: fixtures}
	}
	if cat == nil {
		var err error
		if cat, err = replay.BuiltinCatalog(); err != nil {
			return replay.Report{}, err
		}
	}
	return replay.RunCatalog(cat, replay.WithCatalog(s.catalog)), nil
}

func (s *Server) handleProjectState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Snapshot, error) {
	ritualID, _ := args["ritual_id"].(string)
	ritual, err := s.catalog.Lookup(ritualID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	if raw, ok := args["overrides"].(string); ok && raw != "" {
		var fields map[string]any
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return domain.Snapshot{}, fmt.Errorf("invalid overrides: %w", err)
		}
		o := domain.DecodeOverrides(fields)
		ritual = ritual.WithOverrides(&o)
	}

	rawState, _ := args["state"].(string)
	state := domain.NewState()
	if err := json.Unmarshal([]byte(rawState), &state); err != nil {
		return domain.Snapshot{}, fmt.Errorf("invalid state: %w", err)
	}
	if !state.Stage.Valid() {
		return domain.Snapshot{}, fmt.Errorf("invalid state: unknown stage %q", state.Stage)
	}
	return runtime.Project(state, ritual), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(RitualsURI, "Registered rituals",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.catalog.List())
		if err != nil {
			return nil, fmt.Errorf("failed to encode rituals: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      RitualsURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
