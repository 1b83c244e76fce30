package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/creditgate/creditgate/pkg/defaults"
	"github.com/creditgate/creditgate/pkg/input"
	"github.com/creditgate/creditgate/pkg/output"
	"github.com/creditgate/creditgate/templates"
)

// outputFlags groups the writer and hook fan-out flags shared by the
// batch and report commands.
type outputFlags struct {
	out    string
	format string

	jsonExport     string
	jsonlExport    string
	csvExport      string
	yamlExport     string
	mdExport       string
	pdfExport      string
	templateExport string
	templateName   string

	jsonMode      bool
	batchSize     int
	omitSnapshot  bool
	onlyOverrides bool
	silent        bool
	noColor       bool

	webhookURL   string
	webhookAll   bool
	metricsPort  int
	otelEndpoint string
	otelInsecure bool
	historyPath  string
	historyTags  input.StringSliceFlag
	verbose      bool
}

// register wires the shared output flags into a command's flag set.
func (o *outputFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&o.out, "o", "", "Output file, format chosen by -format")
	fs.StringVar(&o.format, "format", "json", "Format for -o: json, jsonl, csv, yaml, md or pdf")

	fs.StringVar(&o.jsonExport, "json-export", "", "Write the full event stream as a JSON document")
	fs.StringVar(&o.jsonlExport, "jsonl-export", "", "Write one JSON event per line")
	fs.StringVar(&o.csvExport, "csv-export", "", "Write decisions as CSV")
	fs.StringVar(&o.yamlExport, "yaml-export", "", "Write the run summary as YAML")
	fs.StringVar(&o.mdExport, "md-export", "", "Write a Markdown portfolio report")
	fs.StringVar(&o.pdfExport, "pdf-export", "", "Write a PDF portfolio report")
	fs.StringVar(&o.templateExport, "template-export", "", "Render a Go template to this file")
	fs.StringVar(&o.templateName, "template", "", "Template for -template-export: a file path or a bundled name (portfolio.md, decisions.csv)")

	fs.BoolVar(&o.jsonMode, "json", false, "Stream JSON events to stdout instead of the table view")
	fs.IntVar(&o.batchSize, "batch-size", defaults.EventBatchSize, "Events per dispatcher flush")
	fs.BoolVar(&o.omitSnapshot, "omit-snapshot", false, "Drop the financials snapshot from streamed events")
	fs.BoolVar(&o.onlyOverrides, "only-overrides", false, "Stream only compensated approvals")
	fs.BoolVar(&o.silent, "silent", false, "Suppress banner and console output")
	fs.BoolVar(&o.noColor, "no-color", false, "Disable colored output")

	fs.StringVar(&o.webhookURL, "webhook", "", "POST decision events to this URL")
	fs.BoolVar(&o.webhookAll, "webhook-all", false, "Send every decision to the webhook, not just overrides")
	fs.IntVar(&o.metricsPort, "metrics-port", defaults.MetricsPortDisabled, "Expose Prometheus metrics on this port (0 = off)")
	fs.StringVar(&o.otelEndpoint, "otel-endpoint", "", "OTLP gRPC endpoint for trace export")
	fs.BoolVar(&o.otelInsecure, "otel-insecure", false, "Use plaintext OTLP transport")
	fs.StringVar(&o.historyPath, "history", "", "Append the run summary to this history file")
	fs.Var(&o.historyTags, "history-tag", "Tag stored with the history entry (repeatable)")
	fs.BoolVar(&o.verbose, "verbose", false, "Log every dispatched event")
}

// toConfig resolves the flags into an output.Config. The generic
// -o/-format pair routes to the matching export slot.
func (o *outputFlags) toConfig(logger *slog.Logger) (output.Config, error) {
	cfg := output.Config{
		JSONExport:     o.jsonExport,
		JSONLExport:    o.jsonlExport,
		CSVExport:      o.csvExport,
		YAMLExport:     o.yamlExport,
		MDExport:       o.mdExport,
		PDFExport:      o.pdfExport,
		TemplateExport: o.templateExport,
		JSONMode:       o.jsonMode,
		BatchSize:      o.batchSize,
		OmitSnapshot:   o.omitSnapshot,
		OnlyOverrides:  o.onlyOverrides,
		Silent:         o.silent,
		NoColor:        o.noColor,
		WebhookURL:     o.webhookURL,
		WebhookAll:     o.webhookAll,
		MetricsPort:    o.metricsPort,
		OTelEndpoint:   o.otelEndpoint,
		OTelInsecure:   o.otelInsecure,
		HistoryPath:    o.historyPath,
		HistoryTags:    o.historyTags,
		VerboseEvents:  o.verbose,
		Logger:         logger,
	}

	if o.out != "" {
		switch strings.ToLower(o.format) {
		case "json":
			cfg.JSONExport = o.out
		case "jsonl":
			cfg.JSONLExport = o.out
		case "csv":
			cfg.CSVExport = o.out
		case "yaml", "yml":
			cfg.YAMLExport = o.out
		case "md", "markdown":
			cfg.MDExport = o.out
		case "pdf":
			cfg.PDFExport = o.out
		default:
			return cfg, fmt.Errorf("unknown output format: %q (valid: json, jsonl, csv, yaml, md, pdf)", o.format)
		}
	}

	if o.templateName != "" {
		path, inline, err := resolveTemplate(o.templateName)
		if err != nil {
			return cfg, err
		}
		cfg.TemplatePath = path
		cfg.TemplateString = inline
		if cfg.TemplateExport == "" {
			return cfg, fmt.Errorf("-template requires -template-export <file>")
		}
	}

	return cfg, nil
}

// resolveTemplate resolves a -template value to an on-disk path or a
// bundled template's content. Bundled names match files under the
// embedded templates/output directory, with or without the .tmpl suffix.
func resolveTemplate(name string) (path, inline string, err error) {
	if _, statErr := os.Stat(name); statErr == nil {
		return name, "", nil
	}

	embedded := "output/" + strings.TrimSuffix(name, ".tmpl") + ".tmpl"
	data, readErr := templates.FS.ReadFile(embedded)
	if readErr != nil {
		return "", "", fmt.Errorf("template %q: not a file and not a bundled template", name)
	}
	return "", string(data), nil
}
