// Command mcp-smoke runs end-to-end smoke scenarios against a live
// creditgate MCP server. It starts the server over HTTP, connects a real
// MCP client, and walks the tool surface the way an AI agent would.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// scenarioResult tracks the outcome of a single scenario.
type scenarioResult struct {
	name   string
	passed bool
	err    error
}

// scenario is a named test function that runs against a live MCP session.
type scenario struct {
	name string
	fn   func(ctx context.Context, s *mcp.ClientSession) error
}

func main() {
	var (
		port    = flag.Int("port", 18080, "MCP HTTP port")
		timeout = flag.Duration("timeout", 90*time.Second, "Overall timeout")
		runOnly = flag.String("scenario", "", "Run only this named scenario")
	)
	flag.Parse()
	log.SetFlags(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	serverCmd, err := startServer(ctx, *port)
	if err != nil {
		log.Fatalf("FATAL start_server: %v", err)
	}
	defer stopServer(serverCmd)

	if err := waitForHealth(ctx, *port); err != nil {
		log.Fatalf("FATAL health_check: %v", err)
	}
	fmt.Println("server: healthy")

	client := mcp.NewClient(&mcp.Implementation{Name: "mcp-smoke", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint: fmt.Sprintf("http://127.0.0.1:%d/mcp", *port),
	}, nil)
	if err != nil {
		log.Fatalf("FATAL connect: %v", err)
	}
	defer session.Close()

	var results []scenarioResult
	for _, sc := range allScenarios() {
		if *runOnly != "" && sc.name != *runOnly {
			continue
		}

		err := sc.fn(ctx, session)
		passed := err == nil
		results = append(results, scenarioResult{name: sc.name, passed: passed, err: err})

		if passed {
			fmt.Printf("PASS  %s\n", sc.name)
		} else {
			fmt.Printf("FAIL  %s: %v\n", sc.name, err)
		}
	}

	passed, failed := 0, 0
	for _, r := range results {
		if r.passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Printf("\n--- %d passed, %d failed ---\n", passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// allScenarios returns every smoke scenario in execution order.
func allScenarios() []scenario {
	return []scenario{
		// Surface area verification.
		{"tool_discovery", scenarioToolDiscovery},
		{"policy_catalog", scenarioPolicyCatalog},

		// Individual tool validation (positive + negative for each).
		{"single_evaluation", scenarioSingleEvaluation},
		{"override_paths", scenarioOverridePaths},
		{"risk_scoring", scenarioRiskScoring},
		{"sample_generation", scenarioSampleGeneration},
		{"portfolio_analysis", scenarioPortfolioAnalysis},
		{"error_handling", scenarioErrorHandling},

		// Agent simulation: multi-turn policy impact study.
		{"agent_policy_analyst", agentPolicyAnalyst},
	}
}

// ---------------------------------------------------------------------------
// tool_discovery — verifies every tool exists and has metadata,
// plus negative: nonexistent tools.
// ---------------------------------------------------------------------------

func scenarioToolDiscovery(ctx context.Context, s *mcp.ClientSession) error {
	tools, err := s.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("ListTools: %w", err)
	}

	expected := []string{
		"evaluate_applicant", "score_applicant", "list_policies",
		"generate_sample", "analyze_portfolio",
	}

	have := make(map[string]bool, len(tools.Tools))
	for _, t := range tools.Tools {
		have[t.Name] = true
	}

	var missing []string
	for _, name := range expected {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tools: %v (have %d)", missing, len(tools.Tools))
	}
	if len(tools.Tools) != len(expected) {
		return fmt.Errorf("tool count mismatch: want %d, got %d", len(expected), len(tools.Tools))
	}

	// Every tool must have a description (agents select tools by description).
	for _, t := range tools.Tools {
		if t.Description == "" {
			return fmt.Errorf("tool %q has empty description", t.Name)
		}
	}

	// Every tool must have an input schema (agents build arguments from it).
	for _, t := range tools.Tools {
		if t.InputSchema == nil {
			return fmt.Errorf("tool %q has nil input schema", t.Name)
		}
	}

	// NEGATIVE: calling a nonexistent tool must fail — either protocol error
	// or IsError=true, both are acceptable. Must not silently succeed.
	fakeResult, err := callToolRaw(ctx, s, "nonexistent_tool_that_does_not_exist", map[string]any{})
	if err == nil && !fakeResult.IsError {
		return fmt.Errorf("NEG nonexistent tool: expected error, got success")
	}

	return nil
}

// ---------------------------------------------------------------------------
// policy_catalog — both presets present with all seven thresholds.
// ---------------------------------------------------------------------------

func scenarioPolicyCatalog(ctx context.Context, s *mcp.ClientSession) error {
	data, err := callToolJSON(ctx, s, "list_policies", map[string]any{})
	if err != nil {
		return err
	}

	policies, ok := data["policies"].([]any)
	if !ok || len(policies) != 2 {
		return fmt.Errorf("list_policies: got %d policies, want 2", len(policies))
	}

	thresholdFields := []string{
		"min_credit_score", "max_debt_to_income", "max_payment_to_income",
		"min_employment_years", "max_late_payments", "max_default_history",
		"min_risk_score",
	}
	names := make(map[string]map[string]any, 2)
	for _, p := range policies {
		pm, _ := p.(map[string]any)
		name, _ := pm["name"].(string)
		if name == "" {
			return fmt.Errorf("list_policies: preset without name")
		}
		for _, field := range thresholdFields {
			if _, ok := pm[field]; !ok {
				return fmt.Errorf("list_policies: preset %q missing %q", name, field)
			}
		}
		names[name] = pm
	}
	strict, relaxed := names["strict"], names["relaxed"]
	if strict == nil || relaxed == nil {
		return fmt.Errorf("list_policies: want strict and relaxed, got %v", names)
	}

	// The relaxed preset must actually be looser.
	sc, _ := strict["min_credit_score"].(float64)
	rc, _ := relaxed["min_credit_score"].(float64)
	if rc >= sc {
		return fmt.Errorf("relaxed min_credit_score %v >= strict %v", rc, sc)
	}

	return nil
}

// ---------------------------------------------------------------------------
// single_evaluation — approve and reject verdicts with full payloads,
// plus negative: missing id, unknown policy.
// ---------------------------------------------------------------------------

func scenarioSingleEvaluation(ctx context.Context, s *mcp.ClientSession) error {
	// A prime applicant approves under strict.
	args := primeApplicant()
	args["policy"] = "strict"
	data, err := callToolJSON(ctx, s, "evaluate_applicant", args)
	if err != nil {
		return err
	}
	if d, _ := data["decision"].(string); d != "approve" {
		return fmt.Errorf("prime applicant: decision=%q, want approve (reason: %v)", d, data["reason"])
	}
	if reason, _ := data["reason"].(string); reason == "" {
		return fmt.Errorf("prime applicant: empty reason")
	}
	fin, ok := data["financials"].(map[string]any)
	if !ok {
		return fmt.Errorf("prime applicant: missing financials snapshot")
	}
	if mp, _ := fin["monthly_payment"].(float64); mp <= 0 {
		return fmt.Errorf("prime applicant: monthly_payment=%v, want positive", mp)
	}

	// A deep-subprime applicant rejects with named rules.
	rejData, err := callToolJSON(ctx, s, "evaluate_applicant", map[string]any{
		"user_id": "SMOKE_REJECT", "age": 22, "income": 20000,
		"credit_score": 450, "debt_to_income": 0.8, "loan_amount": 60000,
		"loan_term": 24, "late_payments": 10, "default_history": 3,
	})
	if err != nil {
		return err
	}
	if d, _ := rejData["decision"].(string); d != "reject" {
		return fmt.Errorf("subprime applicant: decision=%q, want reject", d)
	}
	failedRules, _ := rejData["failed_rules"].([]any)
	if len(failedRules) < 2 {
		return fmt.Errorf("subprime applicant: %d failed rules, want several", len(failedRules))
	}

	// NEGATIVE: missing user_id must return IsError.
	if err := requireToolError(ctx, s, "evaluate_applicant", map[string]any{
		"age": 30, "income": 50000,
	}, "missing user_id"); err != nil {
		return err
	}

	// NEGATIVE: unknown policy name must return IsError.
	bad := primeApplicant()
	bad["policy"] = "lenient"
	if err := requireToolError(ctx, s, "evaluate_applicant", bad, "unknown policy"); err != nil {
		return err
	}

	return nil
}

// ---------------------------------------------------------------------------
// override_paths — a strong-factor override approves a gate failure, and
// the relaxed preset approves without one.
// ---------------------------------------------------------------------------

func scenarioOverridePaths(ctx context.Context, s *mcp.ClientSession) error {
	args := compensatedApplicant()
	args["policy"] = "strict"
	data, err := callToolJSON(ctx, s, "evaluate_applicant", args)
	if err != nil {
		return err
	}
	if d, _ := data["decision"].(string); d != "approve" {
		return fmt.Errorf("compensated applicant: decision=%q, want approve (reason: %v)", d, data["reason"])
	}
	if o, _ := data["override"].(string); o != "strong_factor" {
		return fmt.Errorf("compensated applicant: override=%q, want strong_factor", o)
	}
	failedRules, _ := data["failed_rules"].([]any)
	if len(failedRules) != 1 {
		return fmt.Errorf("compensated applicant: %d failed rules, want exactly 1", len(failedRules))
	}

	// Under relaxed the employment rule does not bind, so the same record
	// approves without an override.
	args = compensatedApplicant()
	args["policy"] = "relaxed"
	relData, err := callToolJSON(ctx, s, "evaluate_applicant", args)
	if err != nil {
		return err
	}
	if d, _ := relData["decision"].(string); d != "approve" {
		return fmt.Errorf("compensated applicant (relaxed): decision=%q, want approve", d)
	}
	if rules, _ := relData["failed_rules"].([]any); len(rules) != 0 {
		return fmt.Errorf("compensated applicant (relaxed): %d failed rules, want 0", len(rules))
	}

	return nil
}

// ---------------------------------------------------------------------------
// risk_scoring — scoring is policy-free, bounded, and deterministic.
// ---------------------------------------------------------------------------

func scenarioRiskScoring(ctx context.Context, s *mcp.ClientSession) error {
	data, err := callToolJSON(ctx, s, "score_applicant", primeApplicant())
	if err != nil {
		return err
	}
	score, _ := data["risk_score"].(float64)
	if score < 40 || score > 95 {
		return fmt.Errorf("risk_score=%v, want within [40,95]", score)
	}
	dims, ok := data["risk_dimensions"].(map[string]any)
	if !ok || len(dims) != 7 {
		return fmt.Errorf("got %d risk dimensions, want 7", len(dims))
	}
	for name, v := range dims {
		f, _ := v.(float64)
		if f < 0 || f > 1 {
			return fmt.Errorf("dimension %s=%v, want within [0,1]", name, f)
		}
	}

	// Same record, same score.
	again, err := callToolJSON(ctx, s, "score_applicant", primeApplicant())
	if err != nil {
		return err
	}
	if againScore, _ := again["risk_score"].(float64); againScore != score {
		return fmt.Errorf("score not deterministic: %v then %v", score, againScore)
	}

	// NEGATIVE: missing user_id must return IsError.
	if err := requireToolError(ctx, s, "score_applicant", map[string]any{
		"income": 50000,
	}, "missing user_id"); err != nil {
		return err
	}

	return nil
}

// ---------------------------------------------------------------------------
// sample_generation — seeded pools are valid and reproducible,
// plus negative: oversized count.
// ---------------------------------------------------------------------------

func scenarioSampleGeneration(ctx context.Context, s *mcp.ClientSession) error {
	data, err := callToolJSON(ctx, s, "generate_sample", map[string]any{
		"count": 20, "seed": 7,
	})
	if err != nil {
		return err
	}
	records, _ := data["records"].([]any)
	if len(records) != 20 {
		return fmt.Errorf("generate_sample: got %d records, want 20", len(records))
	}
	first, _ := records[0].(map[string]any)
	if id, _ := first["user_id"].(string); id != "USER_00001" {
		return fmt.Errorf("generate_sample: first id=%q, want USER_00001", id)
	}
	for _, r := range records {
		rm, _ := r.(map[string]any)
		if cs, _ := rm["credit_score"].(float64); cs < 300 || cs > 850 {
			return fmt.Errorf("generate_sample: credit_score %v outside [300,850]", cs)
		}
		if dti, _ := rm["debt_to_income"].(float64); dti < 0 || dti > 1 {
			return fmt.Errorf("generate_sample: debt_to_income %v outside [0,1]", dti)
		}
	}

	// Same seed, same pool.
	again, err := callToolJSON(ctx, s, "generate_sample", map[string]any{
		"count": 20, "seed": 7,
	})
	if err != nil {
		return err
	}
	blobA, _ := json.Marshal(data["records"])
	blobB, _ := json.Marshal(again["records"])
	if string(blobA) != string(blobB) {
		return fmt.Errorf("generate_sample: same seed produced different pools")
	}

	// NEGATIVE: oversized count must return IsError.
	if err := requireToolError(ctx, s, "generate_sample", map[string]any{
		"count": 10000000,
	}, "oversized count"); err != nil {
		return err
	}

	return nil
}

// ---------------------------------------------------------------------------
// portfolio_analysis — single-preset metrics and strict-vs-relaxed
// comparison, plus negative: empty pool.
// ---------------------------------------------------------------------------

func scenarioPortfolioAnalysis(ctx context.Context, s *mcp.ClientSession) error {
	data, err := callToolJSON(ctx, s, "analyze_portfolio", map[string]any{
		"count": 200, "seed": 42, "policy": "strict",
	})
	if err != nil {
		return err
	}
	portfolio, ok := data["portfolio"].(map[string]any)
	if !ok {
		return fmt.Errorf("analyze_portfolio: missing portfolio object")
	}
	total, _ := portfolio["total"].(float64)
	if total != 200 {
		return fmt.Errorf("analyze_portfolio: total=%v, want 200", total)
	}
	approved, _ := portfolio["approved"].(float64)
	rejected, _ := portfolio["rejected"].(float64)
	if approved+rejected != 200 {
		return fmt.Errorf("analyze_portfolio: approved %v + rejected %v != 200", approved, rejected)
	}
	rate, _ := portfolio["approval_rate"].(float64)
	if rate < 0 || rate > 100 {
		return fmt.Errorf("analyze_portfolio: approval_rate=%v outside [0,100]", rate)
	}

	// Comparison over the same seed: relaxed approves at least as many.
	compData, err := callToolJSON(ctx, s, "analyze_portfolio", map[string]any{
		"count": 200, "seed": 42, "compare": true,
	})
	if err != nil {
		return err
	}
	comparison, ok := compData["comparison"].(map[string]any)
	if !ok {
		return fmt.Errorf("analyze_portfolio(compare): missing comparison object")
	}
	strictM, _ := comparison["strict"].(map[string]any)
	relaxedM, _ := comparison["relaxed"].(map[string]any)
	if strictM == nil || relaxedM == nil {
		return fmt.Errorf("analyze_portfolio(compare): missing a preset")
	}
	sApproved, _ := strictM["approved"].(float64)
	rApproved, _ := relaxedM["approved"].(float64)
	if rApproved < sApproved {
		return fmt.Errorf("analyze_portfolio(compare): relaxed approved %v < strict %v", rApproved, sApproved)
	}
	if sApproved != approved {
		return fmt.Errorf("analyze_portfolio(compare): strict approved %v differs from single run %v", sApproved, approved)
	}
	if rec, _ := comparison["recommendation"].(string); rec == "" {
		return fmt.Errorf("analyze_portfolio(compare): empty recommendation")
	}

	// NEGATIVE: neither records nor count must return IsError.
	if err := requireToolError(ctx, s, "analyze_portfolio", map[string]any{}, "empty pool"); err != nil {
		return err
	}

	return nil
}

// ---------------------------------------------------------------------------
// error_handling — invalid inputs across the tool surface. Bad inputs
// must produce IsError results, never protocol crashes.
// ---------------------------------------------------------------------------

func scenarioErrorHandling(ctx context.Context, s *mcp.ClientSession) error {
	cases := []struct {
		tool string
		args map[string]any
		desc string
	}{
		{"evaluate_applicant", map[string]any{}, "no arguments"},
		{"score_applicant", map[string]any{}, "no arguments"},
		{"analyze_portfolio", map[string]any{"count": -5}, "negative count"},
		{"analyze_portfolio", map[string]any{"policy": "strict"}, "policy without pool"},
		{"generate_sample", map[string]any{"count": 99999999}, "oversized count"},
	}
	for _, tc := range cases {
		if err := requireToolError(ctx, s, tc.tool, tc.args, tc.desc); err != nil {
			return err
		}
	}

	// Non-finite figures are structural errors, not evaluations.
	nanResult, err := callToolRaw(ctx, s, "evaluate_applicant", map[string]any{
		"user_id": "SMOKE_NAN", "income": "not a number",
	})
	if err == nil && !nanResult.IsError {
		return fmt.Errorf("NEG evaluate_applicant(string income): expected error")
	}

	// Inline pool with an invalid record: counted as errored, not fatal.
	data, err := callToolJSON(ctx, s, "analyze_portfolio", map[string]any{
		"records": []map[string]any{
			primeApplicant(),
			{"age": 40, "income": 60000}, // missing user_id
		},
	})
	if err != nil {
		return err
	}
	portfolio, _ := data["portfolio"].(map[string]any)
	if errored, _ := portfolio["errored"].(float64); errored != 1 {
		return fmt.Errorf("inline pool: errored=%v, want 1", errored)
	}

	return nil
}

// ---------------------------------------------------------------------------
// agent_policy_analyst — multi-turn workflow that mimics a real AI agent
// running a policy impact study end to end.
// ---------------------------------------------------------------------------

func agentPolicyAnalyst(ctx context.Context, s *mcp.ClientSession) error {
	// Phase 1: Learn the thresholds.
	polData, err := callToolJSON(ctx, s, "list_policies", map[string]any{})
	if err != nil {
		return fmt.Errorf("phase1 policies: %w", err)
	}
	policies, _ := polData["policies"].([]any)
	if len(policies) != 2 {
		return fmt.Errorf("phase1: %d policies", len(policies))
	}

	// Phase 2: Build a reproducible pool.
	genData, err := callToolJSON(ctx, s, "generate_sample", map[string]any{
		"count": 50, "seed": 99,
	})
	if err != nil {
		return fmt.Errorf("phase2 generate: %w", err)
	}
	records, _ := genData["records"].([]any)
	if len(records) != 50 {
		return fmt.Errorf("phase2: %d records", len(records))
	}

	// Phase 3: Feed the generated pool back in as an inline portfolio.
	inlineData, err := callToolJSON(ctx, s, "analyze_portfolio", map[string]any{
		"records": records, "policy": "strict",
	})
	if err != nil {
		return fmt.Errorf("phase3 inline portfolio: %w", err)
	}
	inlinePortfolio, _ := inlineData["portfolio"].(map[string]any)
	inlineApproved, _ := inlinePortfolio["approved"].(float64)

	// Phase 4: The generated path over the same seed must agree.
	genPortData, err := callToolJSON(ctx, s, "analyze_portfolio", map[string]any{
		"count": 50, "seed": 99, "policy": "strict",
	})
	if err != nil {
		return fmt.Errorf("phase4 generated portfolio: %w", err)
	}
	genPortfolio, _ := genPortData["portfolio"].(map[string]any)
	genApproved, _ := genPortfolio["approved"].(float64)
	if genApproved != inlineApproved {
		return fmt.Errorf("phase4: inline approved %v != generated approved %v", inlineApproved, genApproved)
	}

	// Phase 5: Drill into one rejection and explain it.
	for _, r := range records {
		rm, _ := r.(map[string]any)
		evalData, err := callToolJSON(ctx, s, "evaluate_applicant", rm)
		if err != nil {
			return fmt.Errorf("phase5 evaluate: %w", err)
		}
		if d, _ := evalData["decision"].(string); d == "reject" {
			if reason, _ := evalData["reason"].(string); reason == "" {
				return fmt.Errorf("phase5: rejection with empty reason")
			}
			scoreData, err := callToolJSON(ctx, s, "score_applicant", rm)
			if err != nil {
				return fmt.Errorf("phase5 score: %w", err)
			}
			if _, ok := scoreData["risk_dimensions"].(map[string]any); !ok {
				return fmt.Errorf("phase5: no dimension breakdown for rejected applicant")
			}
			break
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func primeApplicant() map[string]any {
	return map[string]any{
		"user_id": "SMOKE_PRIME", "age": 35, "income": 100000,
		"credit_score": 760, "debt_to_income": 0.2, "loan_amount": 50000,
		"loan_term": 36, "employment_years": 8,
		"industry": "IT", "education": "本科",
	}
}

func compensatedApplicant() map[string]any {
	return map[string]any{
		"user_id": "SMOKE_OVERRIDE", "age": 35, "income": 30000,
		"credit_score": 800, "debt_to_income": 0.2, "loan_amount": 40000,
		"loan_term": 36, "employment_years": 0,
		"industry": "IT", "education": "本科",
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// requireToolError calls a tool and asserts it returns IsError=true.
// This is the core negative validation helper — if a bad input doesn't
// produce an error, the scenario fails.
func requireToolError(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any, desc string) error {
	result, err := callToolRaw(ctx, s, name, args)
	if err != nil {
		// Protocol-level error is also acceptable for negative cases.
		return nil
	}
	if !result.IsError {
		return fmt.Errorf("NEG %s(%s): expected IsError=true, got false (response: %s)",
			name, desc, truncate(extractText(result), 120))
	}
	return nil
}

// callToolJSON calls a tool, asserts no error, and parses as JSON.
func callToolJSON(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any) (map[string]any, error) {
	result, err := callToolRaw(ctx, s, name, args)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", name, err)
	}
	if result.IsError {
		return nil, fmt.Errorf("call %s: tool error: %s", name, truncate(extractText(result), 200))
	}
	text := extractText(result)
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("call %s: parse JSON: %w (text: %s)", name, err, truncate(text, 100))
	}
	return data, nil
}

func callToolRaw(ctx context.Context, s *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal %s args: %w", name, err)
	}
	return s.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: json.RawMessage(payload)})
}

func extractText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if tc, ok := result.Content[0].(*mcp.TextContent); ok {
		return tc.Text
	}
	return fmt.Sprintf("%T", result.Content[0])
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// ---------------------------------------------------------------------------
// Server lifecycle
// ---------------------------------------------------------------------------

func startServer(ctx context.Context, port int) (*exec.Cmd, error) {
	root, err := findRepoRoot()
	if err != nil {
		return nil, fmt.Errorf("find repo root: %w", err)
	}

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/cli", "mcp", "-http", fmt.Sprintf(":%d", port))
	cmd.Dir = root
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

func stopServer(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
	_, _ = cmd.Process.Wait()
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		modPath := dir + string(os.PathSeparator) + "go.mod"
		if data, err := os.ReadFile(modPath); err == nil {
			if strings.Contains(string(data), "module github.com/creditgate/creditgate\n") ||
				strings.Contains(string(data), "module github.com/creditgate/creditgate\r\n") {
				return dir, nil
			}
		}

		parent := dir[:max(strings.LastIndex(dir, string(os.PathSeparator)), 0)]
		if parent == dir || parent == "" {
			return "", fmt.Errorf("repo root not found walking up from %s", dir)
		}
		dir = parent
	}
}

func waitForHealth(ctx context.Context, port int) error {
	client := &http.Client{Timeout: 2 * time.Second}
	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)

	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
