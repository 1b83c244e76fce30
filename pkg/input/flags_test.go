// pkg/input/flags_test.go
package input

import (
	"flag"
	"testing"
)

func TestStringSliceFlag_SingleValue(t *testing.T) {
	var tags StringSliceFlag
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&tags, "history-tag", "run tags")

	err := fs.Parse([]string{"-history-tag", "nightly"})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if len(tags) != 1 || tags[0] != "nightly" {
		t.Errorf("expected [nightly], got %v", tags)
	}
}

func TestStringSliceFlag_RepeatedFlag(t *testing.T) {
	var tags StringSliceFlag
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&tags, "history-tag", "run tags")

	err := fs.Parse([]string{"-history-tag", "nightly", "-history-tag", "strict"})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if len(tags) != 2 {
		t.Errorf("expected 2 tags, got %d: %v", len(tags), tags)
	}
}

func TestStringSliceFlag_CommaSeparated(t *testing.T) {
	var tags StringSliceFlag
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&tags, "history-tag", "run tags")

	err := fs.Parse([]string{"-history-tag", "nightly,strict,q3"})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if len(tags) != 3 {
		t.Errorf("expected 3 tags, got %d: %v", len(tags), tags)
	}
}

func TestStringSliceFlag_Mixed(t *testing.T) {
	var tags StringSliceFlag
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&tags, "history-tag", "run tags")

	err := fs.Parse([]string{"-history-tag", "nightly,strict", "-history-tag", "q3"})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if len(tags) != 3 {
		t.Errorf("expected 3 tags, got %d: %v", len(tags), tags)
	}
}
