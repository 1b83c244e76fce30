package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/creditgate/creditgate/pkg/analytics"
	"github.com/creditgate/creditgate/pkg/applicant"
	"github.com/creditgate/creditgate/pkg/decision"
	"github.com/creditgate/creditgate/pkg/policy"
)

// TestEventInterface verifies BaseEvent implements Event interface
func TestEventInterface(t *testing.T) {
	now := time.Now()
	base := BaseEvent{
		Type: EventTypeDecision,
		Time: now,
		Run:  "run-123",
	}

	// Verify interface methods
	var _ Event = base // Compile-time check

	if base.EventType() != EventTypeDecision {
		t.Errorf("expected EventTypeDecision, got %v", base.EventType())
	}
	if base.RunID() != "run-123" {
		t.Errorf("expected run-123, got %v", base.RunID())
	}
	if !base.Timestamp().Equal(now) {
		t.Errorf("expected timestamp %v, got %v", now, base.Timestamp())
	}
}

// TestEventTypeConstants verifies all event type constants
func TestEventTypeConstants(t *testing.T) {
	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeStart, "start"},
		{EventTypeDecision, "decision"},
		{EventTypeOverride, "override"},
		{EventTypeProgress, "progress"},
		{EventTypeError, "error"},
		{EventTypeSummary, "summary"},
		{EventTypeComplete, "complete"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if string(tc.eventType) != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, tc.eventType)
			}
		})
	}
}

// TestBaseEventJSON verifies BaseEvent JSON serialization
func TestBaseEventJSON(t *testing.T) {
	base := BaseEvent{
		Type: EventTypeStart,
		Time: time.Now(),
		Run:  "run-123",
	}

	data, err := json.Marshal(base)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	jsonStr := string(data)
	required := []string{"type", "timestamp", "run_id"}
	for _, field := range required {
		if !containsField(jsonStr, field) {
			t.Errorf("JSON missing required field: %s\nJSON: %s", field, jsonStr)
		}
	}
}

func strongCreditApplicant() applicant.Applicant {
	return applicant.Applicant{
		ID:              "USER_00042",
		Age:             38,
		Income:          10000,
		CreditScore:     800,
		DebtToIncome:    0.55, // the single strict failure
		LoanAmount:      30000,
		LoanTerm:        24,
		EmploymentYears: 2,
		Industry:        "金融",
		Education:       "本科",
		MaritalStatus:   "已婚",
	}
}

// TestDecisionEventJSON verifies DecisionEvent JSON serialization
func TestDecisionEventJSON(t *testing.T) {
	a := strongCreditApplicant()
	result := decision.Evaluate(a, policy.Strict())
	event := NewDecisionEvent("run-123", a, result)

	if event.Type != EventTypeDecision {
		t.Errorf("Type = %v, want decision", event.Type)
	}
	if event.Run != "run-123" {
		t.Errorf("Run = %v, want run-123", event.Run)
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	jsonStr := string(data)
	required := []string{
		"type", "timestamp", "run_id",
		"applicant", "decision", "policy",
	}
	for _, field := range required {
		if !containsField(jsonStr, field) {
			t.Errorf("JSON missing required field: %s\nJSON: %s", field, jsonStr)
		}
	}

	// Verify nested field names
	nestedFields := []string{
		"id", "industry", "snapshot", // applicant
		"outcome", "reason", "risk_score", "risk_dimensions", // decision
		"credit_score", "monthly_payment", // snapshot
		"failed_rules", "override", // compensated approval extras
	}
	for _, field := range nestedFields {
		if !containsField(jsonStr, field) {
			t.Errorf("JSON missing nested field: %s\nJSON: %s", field, jsonStr)
		}
	}
}

// TestNewDecisionEventNormalizesMembers verifies upstream member values
// appear in canonical form
func TestNewDecisionEventNormalizesMembers(t *testing.T) {
	a := strongCreditApplicant()
	result := decision.Evaluate(a, policy.Strict())
	event := NewDecisionEvent("run-123", a, result)

	if event.Applicant.Industry != applicant.IndustryFinance {
		t.Errorf("Industry = %q, want %q", event.Applicant.Industry, applicant.IndustryFinance)
	}
	if event.Applicant.Education != applicant.EducationBachelors {
		t.Errorf("Education = %q, want %q", event.Applicant.Education, applicant.EducationBachelors)
	}
	if event.Policy != policy.StrictName {
		t.Errorf("Policy = %q, want %q", event.Policy, policy.StrictName)
	}
	if event.Decision.Override != decision.OverrideStrongFactor {
		t.Errorf("Override = %q, want %q", event.Decision.Override, decision.OverrideStrongFactor)
	}
}

// TestNewOverrideEvent verifies override alerts are built only for
// compensated approvals
func TestNewOverrideEvent(t *testing.T) {
	a := strongCreditApplicant()
	result := decision.Evaluate(a, policy.Strict())

	event := NewOverrideEvent("run-123", result, 100, 3)
	if event == nil {
		t.Fatal("expected override event for strong-factor approval")
	}
	if event.Type != EventTypeOverride {
		t.Errorf("Type = %v, want override", event.Type)
	}
	if event.Details.Kind != decision.OverrideStrongFactor {
		t.Errorf("Kind = %q, want %q", event.Details.Kind, decision.OverrideStrongFactor)
	}
	if event.Details.FailedRule != "debt_to_income" {
		t.Errorf("FailedRule = %q, want debt_to_income", event.Details.FailedRule)
	}
	if !strings.Contains(event.Alert.Description, "USER_00042") {
		t.Errorf("Description = %q, want applicant named", event.Alert.Description)
	}
	if event.Context.EvaluatedSoFar != 100 || event.Context.OverridesSoFar != 3 {
		t.Errorf("Context = %+v, want 100/3", event.Context)
	}

	// A clean approval produces no alert.
	clean := applicant.Applicant{
		ID: "USER_00001", Age: 35, Income: 30000, CreditScore: 800,
		DebtToIncome: 0.2, LoanAmount: 40000, LoanTerm: 36,
		EmploymentYears: 12, Industry: "IT", Education: "本科",
	}
	if ev := NewOverrideEvent("run-123", decision.Evaluate(clean, policy.Strict()), 1, 0); ev != nil {
		t.Errorf("expected nil for clean approval, got %+v", ev)
	}
}

// TestProgressEventJSON verifies ProgressEvent JSON serialization
func TestProgressEventJSON(t *testing.T) {
	event := &ProgressEvent{
		BaseEvent: BaseEvent{
			Type: EventTypeProgress,
			Time: time.Now(),
			Run:  "run-123",
		},
		Progress: ProgressInfo{
			Current:    500,
			Total:      1000,
			Percentage: 50.0,
		},
		Rate: RateInfo{
			RecordsPerSec: 1450.2,
		},
		Timing: TimingInfo{
			ElapsedSec: 12,
			ETASec:     12,
			StartedAt:  time.Now().Add(-12 * time.Second),
		},
		Stats: StatsInfo{
			Approved:        200,
			Rejected:        295,
			Errors:          5,
			Overrides:       4,
			ApprovalRatePct: 40.0,
		},
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	jsonStr := string(data)
	required := []string{
		"type", "timestamp", "run_id",
		"progress", "rate", "timing", "stats",
	}
	for _, field := range required {
		if !containsField(jsonStr, field) {
			t.Errorf("JSON missing required field: %s\nJSON: %s", field, jsonStr)
		}
	}

	nestedFields := []string{
		"current", "total", "percentage", // progress
		"records_per_sec", // rate
		"elapsed_sec", "eta_sec", "started_at", // timing
		"approved", "rejected", "errors", "overrides", "approval_rate_pct", // stats
	}
	for _, field := range nestedFields {
		if !containsField(jsonStr, field) {
			t.Errorf("JSON missing nested field: %s\nJSON: %s", field, jsonStr)
		}
	}
}

// TestSummaryEventJSON verifies SummaryEvent JSON serialization and the
// comparison omitempty behavior
func TestSummaryEventJSON(t *testing.T) {
	calc := analytics.NewCalculator(policy.StrictName)
	calc.Add(decision.Result{Outcome: decision.Approve, RiskScore: 85,
		Financials: decision.Snapshot{CreditScore: 780, LoanAmount: 12000, LoanTerm: 36}})

	event := &SummaryEvent{
		BaseEvent: BaseEvent{
			Type: EventTypeSummary,
			Time: time.Now(),
			Run:  "run-123",
		},
		Version:   "1.0.0",
		Policy:    policy.StrictName,
		Portfolio: calc.Calculate(3 * time.Second),
		Timing: SummaryTiming{
			StartedAt:     time.Now().Add(-3 * time.Second),
			CompletedAt:   time.Now(),
			DurationSec:   3.0,
			RecordsPerSec: 0.33,
		},
		ExitCode:   0,
		ExitReason: "completed",
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	jsonStr := string(data)
	required := []string{
		"version", "policy", "portfolio", "timing", "exit_code", "exit_reason",
		"approval_rate", "estimated_default_rate", // nested portfolio fields
	}
	for _, field := range required {
		if !containsField(jsonStr, field) {
			t.Errorf("JSON missing required field: %s\nJSON: %s", field, jsonStr)
		}
	}

	if containsField(jsonStr, "comparison") {
		t.Errorf("expected comparison to be omitted when nil\nJSON: %s", jsonStr)
	}
}

// TestCompleteEventOmitsSummary verifies summary field is omitted when nil
func TestCompleteEventOmitsSummary(t *testing.T) {
	event := &CompleteEvent{
		BaseEvent: BaseEvent{
			Type: EventTypeComplete,
			Time: time.Now(),
			Run:  "run-123",
		},
		Success:    true,
		ExitCode:   0,
		ExitReason: "completed",
	}

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	jsonStr := string(data)
	if containsField(jsonStr, "summary") {
		t.Errorf("expected summary to be omitted when nil\nJSON: %s", jsonStr)
	}
	for _, field := range []string{"success", "exit_code", "exit_reason"} {
		if !containsField(jsonStr, field) {
			t.Errorf("JSON missing required field: %s\nJSON: %s", field, jsonStr)
		}
	}
}

// containsField reports whether the JSON string contains the quoted field name.
func containsField(jsonStr, field string) bool {
	return strings.Contains(jsonStr, `"`+field+`"`)
}
