// Package templates embeds the bundled output templates for distribution.
//
// This ensures templates are available regardless of installation method
// (Homebrew, Scoop, Docker, or manual download). The CLI falls back to
// these embedded templates when no on-disk template file is given.
//
// Usage:
//
//	fs := templates.FS
//	data, _ := fs.ReadFile("output/portfolio.md.tmpl")
package templates

import "embed"

// FS contains the bundled report templates for the template writer.
// Subdirectory structure matches the on-disk templates/ layout minus
// this Go file.
//
//go:embed output/*.tmpl
var FS embed.FS
