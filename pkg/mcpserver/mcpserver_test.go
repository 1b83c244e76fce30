package mcpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/mcpserver"
)

// newTestSession creates a connected client↔server session for testing.
func newTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()

	srv := mcpserver.New(nil)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "0.0.1",
	}, nil)

	ctx := context.Background()

	// Run server in background
	go func() {
		// Best-effort: server errors are not actionable in tests;
		// the client-side assertions surface any real failures.
		_ = srv.MCPServer().Run(ctx, serverTransport)
	}()

	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

// callTool invokes a tool and returns the decoded text payload.
func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()

	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): content is %T, want TextContent", name, result.Content[0])
	}
	return result, text.Text
}

// primeApplicant passes every strict hard rule and scores well above the
// minimum, so it approves on its own.
func primeApplicant() map[string]any {
	return map[string]any{
		"user_id":          "USER_00001",
		"age":              35,
		"income":           100000,
		"credit_score":     760,
		"debt_to_income":   0.2,
		"loan_amount":      50000,
		"loan_term":        36,
		"employment_years": 8,
		"industry":         "IT",
		"marital_status":   "已婚",
		"education":        "本科",
	}
}

// compensatedApplicant fails only the employment rule but holds strong
// factors (prime bureau score), so the override path approves it.
func compensatedApplicant() map[string]any {
	return map[string]any{
		"user_id":          "USER_09001",
		"age":              35,
		"income":           30000,
		"credit_score":     800,
		"debt_to_income":   0.2,
		"loan_amount":      40000,
		"loan_term":        36,
		"employment_years": 0,
		"industry":         "IT",
		"education":        "本科",
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Server creation tests
// ═══════════════════════════════════════════════════════════════════════════

func TestNew(t *testing.T) {
	srv := mcpserver.New(&mcpserver.Config{MaxGenerate: 100})
	if srv == nil {
		t.Fatal("New() returned nil")
	}
	if srv.MCPServer() == nil {
		t.Fatal("MCPServer() returned nil")
	}
}

func TestNewNilConfig(t *testing.T) {
	if srv := mcpserver.New(nil); srv == nil {
		t.Fatal("New(nil) returned nil")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Tool registration tests
// ═══════════════════════════════════════════════════════════════════════════

func TestListTools(t *testing.T) {
	cs := newTestSession(t)

	result, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	want := []string{
		"evaluate_applicant",
		"score_applicant",
		"list_policies",
		"generate_sample",
		"analyze_portfolio",
	}
	if len(result.Tools) != len(want) {
		t.Fatalf("got %d tools, want %d", len(result.Tools), len(want))
	}

	have := make(map[string]bool, len(result.Tools))
	for _, tool := range result.Tools {
		have[tool.Name] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestToolsHaveDescriptions(t *testing.T) {
	cs := newTestSession(t)

	result, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	for _, tool := range result.Tools {
		if tool.Description == "" {
			t.Errorf("tool %q has empty description", tool.Name)
		}
		if !strings.Contains(tool.Description, "USE THIS TOOL WHEN") {
			t.Errorf("tool %q description lacks usage guidance", tool.Name)
		}
	}
}

func TestToolsHaveAnnotations(t *testing.T) {
	cs := newTestSession(t)

	result, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	for _, tool := range result.Tools {
		if tool.Annotations == nil {
			t.Errorf("tool %q has no annotations", tool.Name)
			continue
		}
		if !tool.Annotations.ReadOnlyHint {
			t.Errorf("tool %q should be annotated read-only", tool.Name)
		}
	}
}

func TestIncomeDocumentedAsMonthly(t *testing.T) {
	income, ok := mcpserver.ApplicantProperties()["income"].(map[string]any)
	if !ok {
		t.Fatal("income property missing from applicant schema")
	}
	desc, _ := income["description"].(string)
	if !strings.Contains(desc, "Monthly") {
		t.Errorf("income description = %q, want monthly wording", desc)
	}
	for _, text := range []string{desc, mcpserver.ServerInstructions} {
		if strings.Contains(strings.ToLower(text), "annual") {
			t.Errorf("income must be documented as monthly, got: %q", text)
		}
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// list_policies
// ═══════════════════════════════════════════════════════════════════════════

func TestCallListPolicies(t *testing.T) {
	cs := newTestSession(t)

	result, text := callTool(t, cs, "list_policies", nil)
	if result.IsError {
		t.Fatalf("list_policies returned error: %s", text)
	}

	var got struct {
		Policies []struct {
			Name           string  `json:"name"`
			MinCreditScore int     `json:"min_credit_score"`
			MinRiskScore   float64 `json:"min_risk_score"`
		} `json:"policies"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Policies) != 2 {
		t.Fatalf("got %d policies, want 2", len(got.Policies))
	}
	if got.Policies[0].Name != "strict" || got.Policies[1].Name != "relaxed" {
		t.Errorf("policy order = %q, %q; want strict, relaxed", got.Policies[0].Name, got.Policies[1].Name)
	}
	if got.Policies[0].MinCreditScore != 620 {
		t.Errorf("strict min_credit_score = %d, want 620", got.Policies[0].MinCreditScore)
	}
	if got.Policies[0].MinRiskScore != 60 {
		t.Errorf("strict min_risk_score = %v, want 60", got.Policies[0].MinRiskScore)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// evaluate_applicant
// ═══════════════════════════════════════════════════════════════════════════

type evaluatePayload struct {
	ApplicantID string  `json:"user_id"`
	Decision    string  `json:"decision"`
	Reason      string  `json:"reason"`
	RiskScore   float64 `json:"risk_score"`
	Override    string  `json:"override"`
	FailedRules []struct {
		Rule   string `json:"rule"`
		Reason string `json:"reason"`
	} `json:"failed_rules"`
	Financials struct {
		MonthlyPayment float64 `json:"monthly_payment"`
	} `json:"financials"`
}

func TestCallEvaluateApplicant(t *testing.T) {
	cs := newTestSession(t)

	args := primeApplicant()
	args["policy"] = "strict"
	result, text := callTool(t, cs, "evaluate_applicant", args)
	if result.IsError {
		t.Fatalf("evaluate_applicant returned error: %s", text)
	}

	var got evaluatePayload
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Decision != "approve" {
		t.Fatalf("decision = %q, want approve (reason: %s)", got.Decision, got.Reason)
	}
	if got.Override != "" {
		t.Errorf("override = %q, want none for a standalone approval", got.Override)
	}
	if got.ApplicantID != "USER_00001" {
		t.Errorf("user_id = %q, want USER_00001", got.ApplicantID)
	}
	if got.Financials.MonthlyPayment <= 0 {
		t.Errorf("monthly_payment = %v, want positive", got.Financials.MonthlyPayment)
	}
}

func TestCallEvaluateApplicantOverride(t *testing.T) {
	cs := newTestSession(t)

	args := compensatedApplicant()
	args["policy"] = "strict"
	result, text := callTool(t, cs, "evaluate_applicant", args)
	if result.IsError {
		t.Fatalf("evaluate_applicant returned error: %s", text)
	}

	var got evaluatePayload
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Decision != "approve" {
		t.Fatalf("decision = %q, want approve (reason: %s)", got.Decision, got.Reason)
	}
	if got.Override != "strong_factor" {
		t.Errorf("override = %q, want strong_factor", got.Override)
	}
	if len(got.FailedRules) != 1 || got.FailedRules[0].Rule != "employment_years" {
		t.Errorf("failed_rules = %+v, want single employment_years failure", got.FailedRules)
	}
}

func TestCallEvaluateApplicantReject(t *testing.T) {
	cs := newTestSession(t)

	result, text := callTool(t, cs, "evaluate_applicant", map[string]any{
		"user_id":          "USER_09002",
		"age":              22,
		"income":           20000,
		"credit_score":     450,
		"debt_to_income":   0.8,
		"loan_amount":      60000,
		"loan_term":        24,
		"employment_years": 0,
		"late_payments":    10,
		"default_history":  3,
	})
	if result.IsError {
		t.Fatalf("evaluate_applicant returned error: %s", text)
	}

	var got evaluatePayload
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Decision != "reject" {
		t.Fatalf("decision = %q, want reject", got.Decision)
	}
	if len(got.FailedRules) < 2 {
		t.Errorf("failed_rules = %+v, want multiple failures", got.FailedRules)
	}
	if got.Override != "" {
		t.Errorf("override = %q, want none on rejection", got.Override)
	}
}

func TestCallEvaluateUnknownPolicy(t *testing.T) {
	cs := newTestSession(t)

	args := primeApplicant()
	args["policy"] = "lenient"
	result, text := callTool(t, cs, "evaluate_applicant", args)
	if !result.IsError {
		t.Fatalf("want IsError for unknown policy, got: %s", text)
	}
	if !strings.Contains(text, "unknown policy preset") {
		t.Errorf("error text = %q, want mention of unknown policy preset", text)
	}
}

func TestCallEvaluateMissingID(t *testing.T) {
	cs := newTestSession(t)

	result, text := callTool(t, cs, "evaluate_applicant", map[string]any{
		"age":    30,
		"income": 50000,
	})
	if !result.IsError {
		t.Fatalf("want IsError for missing user_id, got: %s", text)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// score_applicant
// ═══════════════════════════════════════════════════════════════════════════

func TestCallScoreApplicant(t *testing.T) {
	cs := newTestSession(t)

	result, text := callTool(t, cs, "score_applicant", primeApplicant())
	if result.IsError {
		t.Fatalf("score_applicant returned error: %s", text)
	}

	var got struct {
		ApplicantID string             `json:"user_id"`
		RiskScore   float64            `json:"risk_score"`
		Dimensions  map[string]float64 `json:"risk_dimensions"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.RiskScore < 40 || got.RiskScore > 95 {
		t.Errorf("risk_score = %v, want within [40,95]", got.RiskScore)
	}
	if len(got.Dimensions) != 7 {
		t.Errorf("got %d risk dimensions, want 7", len(got.Dimensions))
	}
	for name, v := range got.Dimensions {
		if v < 0 || v > 1 {
			t.Errorf("dimension %s = %v, want within [0,1]", name, v)
		}
	}
}

func TestCallScoreApplicantMissingID(t *testing.T) {
	cs := newTestSession(t)

	result, _ := callTool(t, cs, "score_applicant", map[string]any{"income": 50000})
	if !result.IsError {
		t.Fatal("want IsError for missing user_id")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// generate_sample
// ═══════════════════════════════════════════════════════════════════════════

func TestCallGenerateSample(t *testing.T) {
	cs := newTestSession(t)

	result, text := callTool(t, cs, "generate_sample", map[string]any{
		"count": 5,
		"seed":  42,
	})
	if result.IsError {
		t.Fatalf("generate_sample returned error: %s", text)
	}

	var got struct {
		Count   int                   `json:"count"`
		Records []applicant.Applicant `json:"records"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Count != 5 || len(got.Records) != 5 {
		t.Fatalf("got count %d / %d records, want 5", got.Count, len(got.Records))
	}
	if got.Records[0].ID != "USER_00001" {
		t.Errorf("first id = %q, want USER_00001", got.Records[0].ID)
	}
	for _, rec := range got.Records {
		if err := rec.Validate(); err != nil {
			t.Errorf("generated record %s invalid: %v", rec.ID, err)
		}
	}

	// Same seed, same pool.
	_, again := callTool(t, cs, "generate_sample", map[string]any{
		"count": 5,
		"seed":  42,
	})
	if text != again {
		t.Error("same seed produced different pools")
	}
}

func TestCallGenerateSampleTooLarge(t *testing.T) {
	cs := newTestSession(t)

	result, text := callTool(t, cs, "generate_sample", map[string]any{
		"count": 1000000,
	})
	if !result.IsError {
		t.Fatal("want IsError for oversized count")
	}
	if !strings.Contains(text, "count exceeds limit") {
		t.Errorf("error text = %q, want count exceeds limit", text)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// analyze_portfolio
// ═══════════════════════════════════════════════════════════════════════════

func TestCallAnalyzePortfolioGenerated(t *testing.T) {
	cs := newTestSession(t)

	result, text := callTool(t, cs, "analyze_portfolio", map[string]any{
		"count":  100,
		"seed":   42,
		"policy": "strict",
	})
	if result.IsError {
		t.Fatalf("analyze_portfolio returned error: %s", text)
	}

	var got struct {
		Policy    string `json:"policy"`
		Portfolio struct {
			Total        int     `json:"total"`
			Approved     int     `json:"approved"`
			Rejected     int     `json:"rejected"`
			ApprovalRate float64 `json:"approval_rate"`
		} `json:"portfolio"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Policy != "strict" {
		t.Errorf("policy = %q, want strict", got.Policy)
	}
	if got.Portfolio.Total != 100 {
		t.Errorf("total = %d, want 100", got.Portfolio.Total)
	}
	if got.Portfolio.Approved+got.Portfolio.Rejected != 100 {
		t.Errorf("approved %d + rejected %d != 100", got.Portfolio.Approved, got.Portfolio.Rejected)
	}
}

func TestCallAnalyzePortfolioInline(t *testing.T) {
	cs := newTestSession(t)

	result, text := callTool(t, cs, "analyze_portfolio", map[string]any{
		"records": []map[string]any{
			primeApplicant(),
			{"age": 40, "income": 60000}, // missing user_id
		},
	})
	if result.IsError {
		t.Fatalf("analyze_portfolio returned error: %s", text)
	}

	var got struct {
		Portfolio struct {
			Total   int `json:"total"`
			Errored int `json:"errored"`
		} `json:"portfolio"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Portfolio.Total != 1 {
		t.Errorf("total = %d, want 1 evaluated record", got.Portfolio.Total)
	}
	if got.Portfolio.Errored != 1 {
		t.Errorf("errored = %d, want 1", got.Portfolio.Errored)
	}
}

func TestCallAnalyzePortfolioCompare(t *testing.T) {
	cs := newTestSession(t)

	result, text := callTool(t, cs, "analyze_portfolio", map[string]any{
		"count":   200,
		"seed":    42,
		"compare": true,
	})
	if result.IsError {
		t.Fatalf("analyze_portfolio returned error: %s", text)
	}

	type presetCounts struct {
		Approved int `json:"approved"`
	}
	var got struct {
		Comparison struct {
			Strict             *presetCounts `json:"strict"`
			Relaxed            *presetCounts `json:"relaxed"`
			AdditionalApproved int           `json:"additional_approved"`
		} `json:"comparison"`
	}
	if err := json.Unmarshal([]byte(text), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Comparison.Strict == nil || got.Comparison.Relaxed == nil {
		t.Fatal("comparison missing a preset")
	}
	if got.Comparison.Relaxed.Approved < got.Comparison.Strict.Approved {
		t.Errorf("relaxed approved %d < strict approved %d", got.Comparison.Relaxed.Approved, got.Comparison.Strict.Approved)
	}
	if got.Comparison.AdditionalApproved != got.Comparison.Relaxed.Approved-got.Comparison.Strict.Approved {
		t.Errorf("additional_approved = %d, want %d", got.Comparison.AdditionalApproved,
			got.Comparison.Relaxed.Approved-got.Comparison.Strict.Approved)
	}
}

func TestCallAnalyzePortfolioNoRecords(t *testing.T) {
	cs := newTestSession(t)

	result, text := callTool(t, cs, "analyze_portfolio", map[string]any{})
	if !result.IsError {
		t.Fatalf("want IsError for empty pool, got: %s", text)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// HTTP transport
// ═══════════════════════════════════════════════════════════════════════════

func TestHealthEndpoint(t *testing.T) {
	srv := mcpserver.New(nil)
	ts := httptest.NewServer(srv.HTTPHandler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status before MarkReady = %d, want 503", resp.StatusCode)
	}

	srv.MarkReady()

	resp, err = http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status after MarkReady = %d, want 200", resp.StatusCode)
	}
}

func TestHealthEndpointRejectsPost(t *testing.T) {
	srv := mcpserver.New(nil)
	ts := httptest.NewServer(srv.HTTPHandler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/health", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := mcpserver.New(nil)
	ts := httptest.NewServer(srv.HTTPHandler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/mcp", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Origin", "https://example.com")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS /mcp: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q, want the request origin", got)
	}
}
