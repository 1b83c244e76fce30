// Package mcpserver exposes the CreditGate decision engine as a Model
// Context Protocol (MCP) server, enabling AI assistants (Claude, VS Code
// Copilot, Cursor, etc.) to evaluate applications and run policy impact
// studies through natural conversation.
//
// # Architecture
//
// The server is built on the official MCP Go SDK and exposes five tools,
// all read-only, idempotent, and deterministic:
//
//   - evaluate_applicant: full decision for one application
//   - score_applicant:    risk dimensions and composite score only
//   - list_policies:      both threshold presets
//   - generate_sample:    seeded synthetic applicant pools
//   - analyze_portfolio:  portfolio metrics, optionally strict vs relaxed
//
// # Tool Design Principles
//
// Every tool follows the same conventions:
//
//   - Detailed markdown descriptions with usage guidance and examples
//   - Complete JSON schemas with enums and required fields
//   - Proper annotations (readOnlyHint, idempotentHint, openWorldHint)
//   - Composable: generate_sample output feeds analyze_portfolio
//   - Actionable errors that suggest the correct next step
//
// # Transports
//
// Two transport modes are supported:
//
//   - stdio: Communicates over stdin/stdout (default). Used by IDE integrations.
//   - HTTP:  Streamable HTTP. Used for remote/Docker deployments.
//
// # Usage
//
//	srv := mcpserver.New(nil)
//	err := srv.RunStdio(ctx)
package mcpserver
