package mcpserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"sync/atomic"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/jsonutil"
)

// Config holds MCP server configuration.
type Config struct {
	// MaxGenerate caps generate_sample and inline portfolio sizes so a
	// single tool call cannot produce an unbounded response.
	MaxGenerate int
}

// Server wraps the MCP server with the decision engine tools.
type Server struct {
	mcp    *mcp.Server
	config *Config
	ready  atomic.Bool // tracks whether startup validation passed
}

// MCPServer returns the underlying MCP server for direct access (e.g., testing).
func (s *Server) MCPServer() *mcp.Server { return s.mcp }

// MarkReady signals that startup validation passed. Until MarkReady is
// called, the /health endpoint returns 503 Service Unavailable.
func (s *Server) MarkReady() { s.ready.Store(true) }

// IsReady returns true if the server has completed startup validation.
func (s *Server) IsReady() bool { return s.ready.Load() }

// New creates a new MCP server with all tools registered.
func New(cfg *Config) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.MaxGenerate <= 0 {
		cfg.MaxGenerate = 10000
	}

	s := &Server{config: cfg}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "creditgate",
			Title:   "CreditGate Decision Engine MCP Server",
			Version: defaults.Version,
		},
		&mcp.ServerOptions{
			Instructions: serverInstructions,
		},
	)

	s.registerTools()

	return s
}

// RunStdio runs the MCP server over stdio transport. This is the primary
// mode for IDE integrations. Every tool is a pure function over its
// arguments, so stdio needs no task state between invocations.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// HTTPHandler returns an http.Handler for the streamable HTTP transport
// with CORS support and a /health endpoint.
//
// The handler mounts:
//   - /health → readiness/liveness probe (GET only)
//   - /mcp    → streamable HTTP transport (2025-03-26 spec)
//   - /       → streamable HTTP transport (default mount)
func (s *Server) HTTPHandler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.mcp },
		&mcp.StreamableHTTPOptions{Stateless: false},
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/mcp", streamable)
	mux.Handle("/", streamable)

	return corsMiddleware(recoveryMiddleware(mux))
}

// handleHealth serves a readiness/liveness probe. Returns 200 once
// MarkReady() has been called, 503 Service Unavailable before.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !s.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"starting","service":"creditgate-mcp"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"creditgate-mcp"}`))
}

// corsMiddleware wraps an http.Handler with permissive CORS headers
// required by browser-based MCP clients and cross-origin integrations.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Always set Vary: Origin so caches don't serve a CORS-enabled
		// response to a non-browser client or vice versa.
		w.Header().Add("Vary", "Origin")

		if origin == "" {
			// No Origin header = non-browser client; skip CORS headers.
			// Setting "*" with Allow-Credentials violates the Fetch spec.
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			strings.Join([]string{
				"Content-Type",
				"Authorization",
				"Mcp-Session-Id",
				"MCP-Protocol-Version",
				"Last-Event-ID",
				"Accept",
			}, ", "))
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id, MCP-Protocol-Version")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware catches panics in HTTP handlers and returns a 500
// error instead of killing the connection.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("panic in HTTP handler: %v\n%s", err, debug.Stack())

				// Best-effort error response: if headers were already
				// sent, WriteHeader is a no-op.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Helpers — result builders
// ---------------------------------------------------------------------------

// textResult creates a CallToolResult with a single text content block.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// jsonResult marshals v to indented JSON and wraps it in a CallToolResult.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := jsonutil.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return textResult(string(data)), nil
}

// errorResult creates an IsError CallToolResult so the LLM can see the
// error and self-correct rather than raising a protocol-level exception.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// boolPtr returns a pointer to b. Used for optional bool fields in the SDK.
func boolPtr(b bool) *bool { return &b }

// parseArgs unmarshals the raw JSON arguments from a tool call into dst.
func parseArgs(req *mcp.CallToolRequest, dst any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := jsonutil.Unmarshal(req.Params.Arguments, dst); err != nil {
		return fmt.Errorf("parsing tool arguments: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Server Instructions — the AI's operating manual
// ---------------------------------------------------------------------------

const serverInstructions = `You are operating CreditGate, a consumer-loan risk decision engine with a seven-dimension banded risk scorer, six hard eligibility rules with compensating-factor overrides, and two threshold presets (strict and relaxed).

## YOUR IDENTITY

You are a credit risk analyst assistant. You evaluate loan applications, score applicant risk, and analyze portfolio-level effects of policy changes. Every tool is read-only and deterministic: the same input always produces the same output, and nothing you call mutates state.

## TOOL SELECTION GUIDE

| User Intent | Tool | Why |
|---|---|---|
| "Would this applicant be approved?" | evaluate_applicant | Full decision: outcome, reason, failed rules, override path |
| "How risky is this applicant?" | score_applicant | Risk dimensions and composite score only, no verdict |
| "What are the approval thresholds?" | list_policies | Both presets with all seven thresholds |
| "Build me a test pool" | generate_sample | Seeded synthetic applicants, reproducible |
| "What happens to the portfolio?" | analyze_portfolio | Approval rate, default rate, risk-adjusted return over a pool |

## RECOMMENDED WORKFLOWS

### Workflow A: Single application review
1. evaluate_applicant with policy "strict" for the conservative verdict
2. If rejected, evaluate_applicant with policy "relaxed" to see whether the permissive preset approves
3. score_applicant to see which risk dimensions drive the score

### Workflow B: Policy impact study
1. generate_sample for a reproducible applicant pool (fix the seed)
2. analyze_portfolio with policy "strict" for baseline metrics
3. analyze_portfolio with policy "relaxed", then compare approval rate, estimated default rate, and risk-adjusted return

## INTERPRETING RESULTS

- "approve" with empty override: the application stood on its own score
- "approve" with override "near_miss": score was under the policy minimum but a compensating factor (high income, clean history, prime credit) carried it
- "approve" with override "strong_factor": one hard rule failed but a strong factor (excellent credit plus high income, or advanced education in a stable industry) compensated
- "reject" lists every violated hard rule in failed_rules
- Risk scores land in [40, 95]; higher is safer. The strict preset requires 60, relaxed requires 55.
- Estimated default rate above 5% on the approved book is a warning sign for a preset change.

## ERROR RECOVERY

- "user_id is required": ask the user for the applicant identifier
- "unknown policy preset": only "strict" and "relaxed" exist
- "count exceeds limit": reduce the requested sample size

Income is monthly and loan_amount is total principal in the same currency unit; debt_to_income is a ratio in [0,1]; loan_term is in months.`
