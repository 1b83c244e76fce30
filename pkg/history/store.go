// Package history provides file-based storage of past decision runs.
// Historical data enables trend analysis across policy changes and
// comparison between portfolio runs.
//
// Data is stored in JSON format for portability and simplicity.
// For high-volume production use, consider upgrading to a database backend.
package history

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Store manages historical run data using JSON file storage.
type Store struct {
	mu       sync.RWMutex
	basePath string
	index    *storeIndex
}

// storeIndex tracks all stored runs for quick lookup.
type storeIndex struct {
	Runs map[string]*RunRecord `json:"runs"`
}

// RunRecord represents a stored portfolio run.
type RunRecord struct {
	// ID is the unique run identifier
	ID string `json:"id"`

	// Timestamp is when the run was executed
	Timestamp time.Time `json:"timestamp"`

	// Policy is the threshold preset the run used ("strict" or "relaxed")
	Policy string `json:"policy"`

	// Source describes where the applicant records came from
	Source string `json:"source,omitempty"`

	// Grade is the overall portfolio grade (A+ to F)
	Grade string `json:"grade"`

	// ApprovalRatePct is the percentage of applicants approved
	ApprovalRatePct float64 `json:"approval_rate_pct"`

	// TotalRecords is the number of records evaluated
	TotalRecords int `json:"total_records"`

	// Approved is the number of approvals
	Approved int `json:"approved"`

	// Rejected is the number of rejections
	Rejected int `json:"rejected"`

	// Overrides is the number of compensated approvals
	Overrides int `json:"overrides"`

	// Errors is the number of records that failed validation
	Errors int `json:"errors"`

	// MeanRiskScore is the mean composite risk score across the run
	MeanRiskScore float64 `json:"mean_risk_score"`

	// EstimatedDefaultRatePct is the projected portfolio default rate
	EstimatedDefaultRatePct float64 `json:"estimated_default_rate_pct"`

	// RiskAdjustedReturnPct is the projected risk-adjusted return
	RiskAdjustedReturnPct float64 `json:"risk_adjusted_return_pct"`

	// DurationMs is the run duration in milliseconds
	DurationMs int64 `json:"duration_ms"`

	// Version is the creditgate version used
	Version string `json:"version"`

	// Tags are user-defined labels
	Tags []string `json:"tags"`

	// Notes are optional run notes
	Notes string `json:"notes"`
}

// TrendPoint represents a single data point for trend visualization.
type TrendPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	Grade           string    `json:"grade"`
	ApprovalRatePct float64   `json:"approval_rate_pct"`
	DefaultRatePct  float64   `json:"default_rate_pct"`
	Overrides       int       `json:"overrides"`
}

// ComparisonResult represents the difference between two runs.
type ComparisonResult struct {
	BaseID            string    `json:"base_id"`
	CompareID         string    `json:"compare_id"`
	BaseTimestamp     time.Time `json:"base_timestamp"`
	CompareTimestamp  time.Time `json:"compare_timestamp"`
	ApprovalRateDelta float64   `json:"approval_rate_delta"`
	DefaultRateDelta  float64   `json:"default_rate_delta"`
	ReturnDelta       float64   `json:"return_delta"`
	OverrideDelta     int       `json:"override_delta"`
	Improved          bool      `json:"improved"`
}

// StoreStats contains storage statistics.
type StoreStats struct {
	TotalRuns        int       `json:"total_runs"`
	UniquePolicies   int       `json:"unique_policies"`
	OldestRun        time.Time `json:"oldest_run"`
	NewestRun        time.Time `json:"newest_run"`
	StorageSizeBytes int64     `json:"storage_size_bytes"`
}

// ErrRunNotFound is returned when a run ID has no stored record.
var ErrRunNotFound = errors.New("run not found")

// NewStore creates a new history store at the specified directory.
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, err
	}

	store := &Store{
		basePath: basePath,
		index: &storeIndex{
			Runs: make(map[string]*RunRecord),
		},
	}

	// Load existing index if present
	if err := store.loadIndex(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return store, nil
}

// indexPath returns the path to the store index file.
func (s *Store) indexPath() string {
	return filepath.Join(s.basePath, "index.json")
}

// loadIndex loads the store index from disk.
func (s *Store) loadIndex() error {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, s.index)
}

// saveIndex persists the store index to disk using atomic write.
// Writes to a temporary file first, then renames to prevent corruption.
func (s *Store) saveIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := s.indexPath() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, s.indexPath()); err != nil {
		os.Remove(tmpPath) // Clean up orphaned temp file
		return err
	}
	return nil
}

// Save stores a run record.
func (s *Store) Save(record *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index.Runs[record.ID] = record
	return s.saveIndex()
}

// copyRunRecord creates a deep copy of a RunRecord.
func copyRunRecord(r *RunRecord) *RunRecord {
	c := *r
	if r.Tags != nil {
		c.Tags = make([]string, len(r.Tags))
		copy(c.Tags, r.Tags)
	}
	return &c
}

// Get retrieves a run record by ID.
func (s *Store) Get(id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.index.Runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return copyRunRecord(record), nil
}

// List retrieves run records for a policy within a time range.
// An empty policy matches every run. Records are returned newest first.
func (s *Store) List(policy string, since, until time.Time, limit int) ([]*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*RunRecord
	for _, record := range s.index.Runs {
		if policy != "" && record.Policy != policy {
			continue
		}
		if record.Timestamp.Before(since) || record.Timestamp.After(until) {
			continue
		}
		records = append(records, copyRunRecord(record))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// GetTrend retrieves trend data for a policy over time, oldest first.
func (s *Store) GetTrend(policy string, since time.Time, maxPoints int) ([]TrendPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var points []TrendPoint
	for _, record := range s.index.Runs {
		if policy != "" && record.Policy != policy {
			continue
		}
		if record.Timestamp.Before(since) {
			continue
		}
		points = append(points, TrendPoint{
			Timestamp:       record.Timestamp,
			Grade:           record.Grade,
			ApprovalRatePct: record.ApprovalRatePct,
			DefaultRatePct:  record.EstimatedDefaultRatePct,
			Overrides:       record.Overrides,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	if maxPoints > 0 && len(points) > maxPoints {
		points = points[:maxPoints]
	}

	return points, nil
}

// Compare computes the delta between two stored runs. A comparison counts
// as improved when the projected default rate dropped without the
// risk-adjusted return dropping.
func (s *Store) Compare(baseID, compareID string) (*ComparisonResult, error) {
	base, err := s.Get(baseID)
	if err != nil {
		return nil, err
	}
	compare, err := s.Get(compareID)
	if err != nil {
		return nil, err
	}

	result := &ComparisonResult{
		BaseID:            base.ID,
		CompareID:         compare.ID,
		BaseTimestamp:     base.Timestamp,
		CompareTimestamp:  compare.Timestamp,
		ApprovalRateDelta: compare.ApprovalRatePct - base.ApprovalRatePct,
		DefaultRateDelta:  compare.EstimatedDefaultRatePct - base.EstimatedDefaultRatePct,
		ReturnDelta:       compare.RiskAdjustedReturnPct - base.RiskAdjustedReturnPct,
		OverrideDelta:     compare.Overrides - base.Overrides,
	}
	result.Improved = result.DefaultRateDelta < 0 && result.ReturnDelta >= 0

	return result, nil
}

// Delete removes a run record by ID.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index.Runs[id]; !ok {
		return ErrRunNotFound
	}
	delete(s.index.Runs, id)
	return s.saveIndex()
}

// Stats returns storage statistics for the store.
func (s *Store) Stats() (*StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &StoreStats{TotalRuns: len(s.index.Runs)}

	policies := make(map[string]struct{})
	for _, record := range s.index.Runs {
		policies[record.Policy] = struct{}{}
		if stats.OldestRun.IsZero() || record.Timestamp.Before(stats.OldestRun) {
			stats.OldestRun = record.Timestamp
		}
		if record.Timestamp.After(stats.NewestRun) {
			stats.NewestRun = record.Timestamp
		}
	}
	stats.UniquePolicies = len(policies)

	if info, err := os.Stat(s.indexPath()); err == nil {
		stats.StorageSizeBytes = info.Size()
	}

	return stats, nil
}
