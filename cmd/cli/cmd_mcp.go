package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/mcpserver"
)

// runMCP starts the MCP (Model Context Protocol) server.
// Supports two transport modes:
//   - -stdio (default): For IDE integrations (VS Code, Claude Desktop, Cursor)
//   - -http <addr>:     For remote/Docker deployments
func runMCP() {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)

	stdio := fs.Bool("stdio", true, "Use stdio transport (default, for IDE integration)")
	httpAddr := fs.String("http", "", "HTTP address to listen on (e.g. :8080). Disables stdio.")
	maxGenerate := fs.Int("max-generate", 0, "Cap on records per generate_sample call (0 = default)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: creditgate mcp [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Start an MCP server exposing the decision engine to AI agents.\n\n")
		fmt.Fprintf(os.Stderr, "Transports:\n")
		fmt.Fprintf(os.Stderr, "  -stdio           Stdio transport for IDE integration (default)\n")
		fmt.Fprintf(os.Stderr, "  -http <addr>     Streamable HTTP transport for remote/Docker\n\n")
		fmt.Fprintf(os.Stderr, "Environment variables:\n")
		fmt.Fprintf(os.Stderr, "  CREDITGATE_HTTP_ADDR   HTTP listen address (same as -http)\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  creditgate mcp -stdio\n")
		fmt.Fprintf(os.Stderr, "  creditgate mcp -http :8080\n")
		fmt.Fprintf(os.Stderr, "  CREDITGATE_HTTP_ADDR=:8080 creditgate mcp\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(defaults.ExitUserError)
	}

	// Allow env var override for HTTP address (useful in Docker/K8s)
	if *httpAddr == "" {
		if envAddr := os.Getenv("CREDITGATE_HTTP_ADDR"); envAddr != "" {
			*httpAddr = envAddr
		}
	}

	srv := mcpserver.New(&mcpserver.Config{MaxGenerate: *maxGenerate})
	srv.MarkReady()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *httpAddr != "" {
		// HTTP transport mode
		*stdio = false
		handler := srv.HTTPHandler()

		httpSrv := &http.Server{
			Addr:              *httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			// WriteTimeout intentionally 0: the streamable transport keeps
			// GET streams open indefinitely and any non-zero value sets an
			// absolute deadline that kills them. ReadHeaderTimeout +
			// ReadTimeout protect against slowloris.
			IdleTimeout:    30 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
		}

		go func() {
			<-ctx.Done()
			// Graceful shutdown: drain in-flight requests within 15 seconds
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer shutdownCancel()
			fmt.Fprintln(os.Stderr, "shutting down gracefully…")
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
			}
		}()

		fmt.Fprintf(os.Stderr, "%s MCP server listening on %s (HTTP transport)\n",
			defaults.ToolName, *httpAddr)

		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			exitWithError("mcp server: %v", err)
		}
		return
	}

	// Stdio transport mode (default)
	if *stdio {
		if err := srv.RunStdio(ctx); err != nil {
			exitWithError("mcp server: %v", err)
		}
		return
	}

	exitWithUsage("no transport selected", "creditgate mcp [-stdio | -http <addr>]")
}
