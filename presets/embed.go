// Package presets embeds the bundled guardrail preset files for
// distribution.
//
// This ensures presets are available regardless of installation method
// (Homebrew, Scoop, npm, Docker, or manual download). The CLI falls back
// to these embedded presets when no on-disk guardrail file is given.
//
// Usage:
//
//	fs := presets.FS
//	data, _ := fs.ReadFile("ci-strict.yaml")
package presets

import "embed"

// FS contains the bundled guardrail preset YAML files. Each file defines
// a fail-on policy for one CI posture.
//
//go:embed *.yaml
var FS embed.FS
