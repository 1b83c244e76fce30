// Package output provides the CLI builder for wiring up output dispatching.
package output

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/output/dispatcher"
	"github.com/creditgate/creditgate/pkg/output/hooks"
	"github.com/creditgate/creditgate/pkg/output/writers"
)

// Config configures the output dispatcher based on CLI flags.
type Config struct {
	// File exports
	JSONExport     string
	JSONLExport    string
	CSVExport      string
	YAMLExport     string
	MDExport       string
	PDFExport      string
	TemplateExport string

	// TemplatePath selects a custom template file for TemplateExport.
	// Empty means the built-in text summary.
	TemplatePath string

	// TemplateString is an inline template for TemplateExport, used by
	// the CLI for bundled templates when no TemplatePath is given.
	TemplateString string

	// Streaming
	JSONMode  bool
	BatchSize int

	// Content
	OmitSnapshot  bool
	OnlyOverrides bool

	// Console
	Silent  bool
	NoColor bool
	Mode    string

	// Hooks
	WebhookURL    string
	WebhookAll    bool
	MetricsPort   int
	OTelEndpoint  string
	OTelInsecure  bool
	HistoryPath   string
	HistoryTags   []string
	VerboseEvents bool

	// Logger receives writer and hook failures. Nil means slog.Default().
	Logger *slog.Logger
}

// BuildDispatcher creates a dispatcher configured with writers and hooks
// based on the config. It opens all output files and registers the
// appropriate writers and hooks. The caller is responsible for calling
// Close() on the dispatcher when done.
func BuildDispatcher(cfg Config) (*dispatcher.Dispatcher, error) {
	dispatcherCfg := dispatcher.Config{
		BatchSize: cfg.BatchSize,
		Async:     true,
		Logger:    cfg.Logger,
	}
	if dispatcherCfg.BatchSize <= 0 {
		dispatcherCfg.BatchSize = defaults.EventBatchSize
	}
	d := dispatcher.New(dispatcherCfg)

	// Track opened files for cleanup on error.
	var openedFiles []*os.File
	cleanup := func() {
		for _, f := range openedFiles {
			f.Close()
		}
	}

	openFile := func(path string) (*os.File, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", path, err)
		}
		openedFiles = append(openedFiles, f)
		return f, nil
	}

	// === FILE WRITERS ===

	if cfg.JSONExport != "" {
		f, err := openFile(cfg.JSONExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewJSONWriter(f, writers.JSONOptions{
			Pretty: true,
		}))
	}

	if cfg.JSONLExport != "" {
		f, err := openFile(cfg.JSONLExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewJSONLWriter(f, writers.JSONLOptions{
			OmitSnapshot:  cfg.OmitSnapshot,
			OnlyOverrides: cfg.OnlyOverrides,
		}))
	}

	if cfg.CSVExport != "" {
		f, err := openFile(cfg.CSVExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewCSVWriter(f, writers.CSVOptions{
			IncludeHeader:    true,
			ExcelCompatible:  true,
			SanitizeFormulas: true,
		}))
	}

	if cfg.YAMLExport != "" {
		f, err := openFile(cfg.YAMLExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewYAMLWriter(f, writers.YAMLOptions{}))
	}

	if cfg.MDExport != "" {
		f, err := openFile(cfg.MDExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewMarkdownWriter(f, writers.DefaultMarkdownConfig()))
	}

	if cfg.PDFExport != "" {
		f, err := openFile(cfg.PDFExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		d.RegisterWriter(writers.NewPDFWriter(f, writers.PDFConfig{
			IncludeTOC: true,
		}))
	}

	if cfg.TemplateExport != "" {
		f, err := openFile(cfg.TemplateExport)
		if err != nil {
			cleanup()
			return nil, err
		}
		tmplCfg := writers.TemplateConfig{
			TemplatePath:   cfg.TemplatePath,
			TemplateString: cfg.TemplateString,
		}
		if cfg.TemplatePath == "" && cfg.TemplateString == "" {
			tmplCfg.BuiltIn = "text-summary"
		}
		w, err := writers.NewTemplateWriter(f, tmplCfg)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("template writer: %w", err)
		}
		d.RegisterWriter(w)
	}

	// === CONSOLE WRITERS ===

	switch {
	case cfg.JSONMode:
		// Machine-readable stdout: one JSON event per line.
		d.RegisterWriter(writers.NewJSONLWriter(os.Stdout, writers.JSONLOptions{
			OmitSnapshot:  cfg.OmitSnapshot,
			OnlyOverrides: cfg.OnlyOverrides,
		}))
	case !cfg.Silent:
		d.RegisterWriter(writers.NewTableWriter(os.Stdout, writers.TableConfig{
			Mode:         cfg.Mode,
			ColorEnabled: !cfg.NoColor,
		}))
	}

	// === HOOKS ===

	if cfg.WebhookURL != "" {
		d.RegisterHook(hooks.NewWebhookHook(cfg.WebhookURL, hooks.WebhookOptions{
			OnlyOverrides: !cfg.WebhookAll,
		}))
	}

	if cfg.MetricsPort != defaults.MetricsPortDisabled {
		hook, err := hooks.NewPrometheusHook(hooks.PrometheusOptions{
			Port: cfg.MetricsPort,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("prometheus hook: %w", err)
		}
		d.RegisterHook(hook)
	}

	if cfg.OTelEndpoint != "" {
		hook, err := hooks.NewOTelHook(hooks.OTelOptions{
			Endpoint: cfg.OTelEndpoint,
			Insecure: cfg.OTelInsecure,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("otel hook: %w", err)
		}
		d.RegisterHook(hook)
	}

	if cfg.HistoryPath != "" {
		hook, err := hooks.NewHistoryHook(hooks.HistoryHookOptions{
			StorePath: cfg.HistoryPath,
			Tags:      cfg.HistoryTags,
			Logger:    cfg.Logger,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("history hook: %w", err)
		}
		d.RegisterHook(hook)
	}

	if cfg.VerboseEvents {
		d.RegisterHook(hooks.NewLoggerHook(cfg.Logger))
	}

	return d, nil
}
