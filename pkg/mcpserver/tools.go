package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/creditgate/creditgate/pkg/analytics"
	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/decision"
	"github.com/creditgate/creditgate/pkg/generator"
	"github.com/creditgate/creditgate/pkg/policy"
	"github.com/creditgate/creditgate/pkg/scoring"
)

// registerTools adds all decision engine tools to the MCP server.
func (s *Server) registerTools() {
	s.addEvaluateApplicantTool()
	s.addScoreApplicantTool()
	s.addListPoliciesTool()
	s.addGenerateSampleTool()
	s.addAnalyzePortfolioTool()
}

// applicantProperties is the shared JSON schema for the 14 application
// fields, keyed by wire name. evaluate_applicant and score_applicant both
// embed it; analyze_portfolio uses it for array items.
func applicantProperties() map[string]any {
	return map[string]any{
		"user_id": map[string]any{
			"type":        "string",
			"description": "Applicant identifier (required). Any non-empty string.",
		},
		"age": map[string]any{
			"type":        "integer",
			"description": "Applicant age in years.",
		},
		"income": map[string]any{
			"type":        "number",
			"description": "Monthly income.",
		},
		"credit_score": map[string]any{
			"type":        "integer",
			"description": "Bureau credit score, typically 300-850.",
		},
		"debt_to_income": map[string]any{
			"type":        "number",
			"description": "Existing debt payments over income, a ratio in [0,1].",
		},
		"loan_amount": map[string]any{
			"type":        "number",
			"description": "Requested loan principal.",
		},
		"loan_term": map[string]any{
			"type":        "integer",
			"description": "Loan term in months.",
		},
		"employment_years": map[string]any{
			"type":        "integer",
			"description": "Years at current employment.",
		},
		"number_of_credit_lines": map[string]any{
			"type":        "integer",
			"description": "Open credit lines.",
		},
		"late_payments": map[string]any{
			"type":        "integer",
			"description": "Late payments on record.",
		},
		"default_history": map[string]any{
			"type":        "integer",
			"description": "Prior defaults on record.",
		},
		"industry": map[string]any{
			"type":        "string",
			"description": "Employment industry. Chinese originals (IT, 金融, 医疗, 教育, 制造业, 零售, 建筑, 服务业) and English names are both accepted; unknown values score neutral.",
		},
		"marital_status": map[string]any{
			"type":        "string",
			"description": "Marital status (已婚/未婚/离异/丧偶 or married/single/divorced/widowed).",
		},
		"education": map[string]any{
			"type":        "string",
			"description": "Highest education (博士/硕士/本科/大专/高中 or doctorate/master/bachelor/associate/high school).",
		},
	}
}

// policyProperty is the shared schema for the policy preset argument.
func policyProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Threshold preset to evaluate against. Defaults to strict.",
		"enum":        []string{policy.StrictName, policy.RelaxedName},
	}
}

// resolvePolicy maps an optional preset name to its thresholds,
// defaulting to strict.
func resolvePolicy(name string) (policy.Thresholds, error) {
	if name == "" {
		return policy.Strict(), nil
	}
	return policy.ByName(name)
}

// ═══════════════════════════════════════════════════════════════════════════
// evaluate_applicant — Full decision for one application
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addEvaluateApplicantTool() {
	props := applicantProperties()
	props["policy"] = policyProperty()

	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "evaluate_applicant",
			Title: "Evaluate Loan Application",
			Description: `Run one loan application through the full decision engine: hard-rule gate, risk scoring, and compensating-factor overrides.

USE THIS TOOL WHEN:
• The user asks whether an applicant would be approved or rejected
• You need the exact rejection reasons (which hard rules failed)
• You need to know whether an approval rode an override path

DO NOT USE THIS TOOL WHEN:
• You only want the risk score without a verdict — use 'score_applicant' instead
• You are evaluating many applicants at once — use 'analyze_portfolio' instead

This is a pure local computation. Zero network requests. Deterministic.

EXAMPLE INPUTS:
• Strict verdict: {"user_id": "USER_00001", "age": 35, "income": 80000, "credit_score": 720, "debt_to_income": 0.3, "loan_amount": 50000, "loan_term": 36, "employment_years": 5}
• Relaxed verdict for the same record: add "policy": "relaxed"

Returns: decision (approve/reject), reason, risk_score, the seven risk dimensions, failed_rules, override kind, and a financial snapshot with the derived monthly payment.`,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": props,
				"required":   []string{"user_id"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Evaluate Loan Application",
			},
		},
		s.handleEvaluateApplicant,
	)
}

type evaluateArgs struct {
	applicant.Applicant
	Policy string `json:"policy"`
}

// evaluateResponse layers the override kind on top of the engine result
// so agents do not have to re-derive it from policy minimums.
type evaluateResponse struct {
	decision.Result
	Override string `json:"override,omitempty"`
}

func (s *Server) handleEvaluateApplicant(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args evaluateArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected the application fields plus optional 'policy'.", err)), nil
	}

	if err := args.Applicant.Validate(); err != nil {
		return errorResult(fmt.Sprintf("invalid application: %v", err)), nil
	}

	preset, err := resolvePolicy(args.Policy)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	result := decision.Evaluate(args.Applicant, preset)
	return jsonResult(evaluateResponse{
		Result:   result,
		Override: result.OverrideKind(),
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// score_applicant — Risk dimensions and composite score only
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addScoreApplicantTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "score_applicant",
			Title: "Score Applicant Risk",
			Description: `Compute the seven risk dimensions and the composite risk score for one applicant, WITHOUT applying any policy or producing a verdict.

USE THIS TOOL WHEN:
• The user asks "how risky is this applicant?" without wanting an approve/reject call
• You want to explain which dimensions drive an applicant's score
• Comparing the raw risk of several applicants independent of thresholds

DO NOT USE THIS TOOL WHEN:
• You need an approval decision — use 'evaluate_applicant' instead

Scoring is policy-independent: the same record always scores the same regardless of preset. Dimension risks are in [0,1] (higher is riskier); the composite lands in [40,95] (higher is safer).

EXAMPLE INPUT:
{"user_id": "USER_00001", "age": 35, "income": 80000, "credit_score": 720, "debt_to_income": 0.3, "loan_amount": 50000, "loan_term": 36}

Returns: risk_score and the risk_dimensions breakdown (credit score, debt, payment, employment, payment history, default, demographic).`,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": applicantProperties(),
				"required":   []string{"user_id"},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Score Applicant Risk",
			},
		},
		s.handleScoreApplicant,
	)
}

type scoreResponse struct {
	ApplicantID string             `json:"user_id"`
	RiskScore   float64            `json:"risk_score"`
	Dimensions  scoring.Dimensions `json:"risk_dimensions"`
}

func (s *Server) handleScoreApplicant(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args applicant.Applicant
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected the application fields.", err)), nil
	}

	if err := args.Validate(); err != nil {
		return errorResult(fmt.Sprintf("invalid application: %v", err)), nil
	}

	scored := scoring.Score(args.Normalize())
	return jsonResult(scoreResponse{
		ApplicantID: args.ID,
		RiskScore:   scored.Score,
		Dimensions:  scored.Dimensions,
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// list_policies — Threshold presets
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addListPoliciesTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "list_policies",
			Title: "List Policy Presets",
			Description: `List both threshold presets (strict and relaxed) with all seven decision thresholds.

USE THIS TOOL WHEN:
• The user asks what the approval criteria are
• You need threshold values to explain a rejection
• Before an impact study, to show what differs between presets

This is a READ-ONLY local operation. No arguments. Instant results.

Returns: for each preset: min_credit_score, max_debt_to_income, max_payment_to_income, min_employment_years, max_late_payments, max_default_history, min_risk_score.`,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "List Policy Presets",
			},
		},
		s.handleListPolicies,
	)
}

type policiesResponse struct {
	Policies []policy.Thresholds `json:"policies"`
}

func (s *Server) handleListPolicies(_ context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(policiesResponse{Policies: policy.All()})
}

// ═══════════════════════════════════════════════════════════════════════════
// generate_sample — Seeded synthetic applicant pool
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addGenerateSampleTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "generate_sample",
			Title: "Generate Sample Applicants",
			Description: `Generate a pool of synthetic loan applications with realistic, seeded distributions.

USE THIS TOOL WHEN:
• The user wants test data for an impact study
• You need a reproducible pool to feed into 'analyze_portfolio'

Generation is fully deterministic for a given seed: the same (count, seed, start) always yields the same records. Late payments and default history correlate with the generated credit score, so the pool has a realistic prime/subprime mix.

EXAMPLE INPUTS:
• Ten applicants: {"count": 10}
• Reproducible pool: {"count": 200, "seed": 42}
• Continue an id sequence: {"count": 50, "seed": 42, "start": 201}

Returns: the generated records with ids USER_00001, USER_00002, ...`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"count": map[string]any{
						"type":        "integer",
						"description": "Number of records to generate (default 10).",
					},
					"seed": map[string]any{
						"type":        "integer",
						"description": "Random seed. The same seed always produces the same pool.",
					},
					"start": map[string]any{
						"type":        "integer",
						"description": "First id number in the USER_%05d sequence (default 1).",
					},
				},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Generate Sample Applicants",
			},
		},
		s.handleGenerateSample,
	)
}

type generateArgs struct {
	Count int   `json:"count"`
	Seed  int64 `json:"seed"`
	Start int   `json:"start"`
}

type generateResponse struct {
	Count   int                   `json:"count"`
	Seed    int64                 `json:"seed"`
	Records []applicant.Applicant `json:"records"`
}

func (s *Server) handleGenerateSample(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args generateArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected optional 'count', 'seed', 'start' integers.", err)), nil
	}

	if args.Count <= 0 {
		args.Count = 10
	}
	if args.Count > s.config.MaxGenerate {
		return errorResult(fmt.Sprintf("count exceeds limit: %d > %d. Request a smaller pool.", args.Count, s.config.MaxGenerate)), nil
	}

	records := generator.New(generator.Config{
		Count: args.Count,
		Seed:  args.Seed,
		Start: args.Start,
	}).Generate()

	return jsonResult(generateResponse{
		Count:   len(records),
		Seed:    args.Seed,
		Records: records,
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// analyze_portfolio — Portfolio metrics over a record pool
// ═══════════════════════════════════════════════════════════════════════════

func (s *Server) addAnalyzePortfolioTool() {
	s.mcp.AddTool(
		&mcp.Tool{
			Name:  "analyze_portfolio",
			Title: "Analyze Portfolio",
			Description: `Evaluate a pool of applications under a policy preset and compute portfolio-level metrics: approval rate, override count, risk score distribution, estimated default rate, expected revenue/loss, and risk-adjusted return.

USE THIS TOOL WHEN:
• The user asks what a policy change does to the portfolio
• You need approval/default/return numbers over many applicants
• Quantifying the strict-vs-relaxed trade-off (set "compare": true)

DO NOT USE THIS TOOL WHEN:
• You have a single applicant — use 'evaluate_applicant' instead

Provide the pool inline in "records", or set "count"/"seed" to generate one in place (same generator as 'generate_sample'). Records that fail structural validation (missing user_id, non-finite numbers) are counted as errored and excluded from the rates.

EXAMPLE INPUTS:
• Inline pool, strict: {"records": [...], "policy": "strict"}
• Generated pool, both presets: {"count": 500, "seed": 42, "compare": true}

Returns: PortfolioMetrics for the chosen preset, or with "compare": true a side-by-side of strict vs relaxed including additional approvals and the default-rate delta.`,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"records": map[string]any{
						"type":        "array",
						"description": "Inline application records. Mutually exclusive with count/seed.",
						"items": map[string]any{
							"type":       "object",
							"properties": applicantProperties(),
							"required":   []string{"user_id"},
						},
					},
					"count": map[string]any{
						"type":        "integer",
						"description": "Generate this many records instead of passing them inline.",
					},
					"seed": map[string]any{
						"type":        "integer",
						"description": "Seed for the generated pool.",
					},
					"policy": policyProperty(),
					"compare": map[string]any{
						"type":        "boolean",
						"description": "Evaluate under both presets and return the comparison. Ignores 'policy'.",
					},
				},
			},
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:   true,
				IdempotentHint: true,
				OpenWorldHint:  boolPtr(false),
				Title:          "Analyze Portfolio",
			},
		},
		s.handleAnalyzePortfolio,
	)
}

type analyzeArgs struct {
	Records []applicant.Applicant `json:"records"`
	Count   int                   `json:"count"`
	Seed    int64                 `json:"seed"`
	Policy  string                `json:"policy"`
	Compare bool                  `json:"compare"`
}

type analyzeResponse struct {
	Policy    string                      `json:"policy,omitempty"`
	Portfolio *analytics.PortfolioMetrics `json:"portfolio,omitempty"`
	Compare   *analytics.Comparison       `json:"comparison,omitempty"`
}

func (s *Server) handleAnalyzePortfolio(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args analyzeArgs
	if err := parseArgs(req, &args); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments: %v. Expected 'records' array or 'count'/'seed', plus optional 'policy' and 'compare'.", err)), nil
	}

	records := args.Records
	if len(records) == 0 {
		if args.Count <= 0 {
			return errorResult("no records: provide a 'records' array or a positive 'count' to generate a pool."), nil
		}
		if args.Count > s.config.MaxGenerate {
			return errorResult(fmt.Sprintf("count exceeds limit: %d > %d. Request a smaller pool.", args.Count, s.config.MaxGenerate)), nil
		}
		records = generator.New(generator.Config{Count: args.Count, Seed: args.Seed}).Generate()
	}
	if len(records) > s.config.MaxGenerate {
		return errorResult(fmt.Sprintf("pool exceeds limit: %d > %d records.", len(records), s.config.MaxGenerate)), nil
	}

	if args.Compare {
		strict := runPortfolio(records, policy.Strict())
		relaxed := runPortfolio(records, policy.Relaxed())
		return jsonResult(analyzeResponse{
			Compare: analytics.Compare(strict, relaxed),
		})
	}

	preset, err := resolvePolicy(args.Policy)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	return jsonResult(analyzeResponse{
		Policy:    preset.Name,
		Portfolio: runPortfolio(records, preset),
	})
}

// runPortfolio evaluates every record under one preset and rolls up the
// portfolio metrics. Structurally invalid records count as errored.
func runPortfolio(records []applicant.Applicant, preset policy.Thresholds) *analytics.PortfolioMetrics {
	start := time.Now()
	engine := decision.New(preset)
	calc := analytics.NewCalculator(preset.Name)
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			calc.AddError()
			continue
		}
		calc.Add(engine.Evaluate(rec))
	}
	return calc.Calculate(time.Since(start))
}
