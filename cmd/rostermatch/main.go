package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rostermatch/internal/config"
	"rostermatch/internal/logger"
	"rostermatch/internal/metrics"
	"rostermatch/internal/pipeline"
	"rostermatch/internal/server"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Logs go to stderr so that --json output on stdout stays parseable.
	log := logger.NewWithWriter(cfg.LogLevel, os.Stderr)
	registry := prometheus.NewRegistry()
	svc := pipeline.NewProcessingService(cfg, log, metrics.New(registry))

	cmd := os.Args[1]
	switch cmd {
	case "compare":
		defaults := cfg.DefaultOptions()
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		basePath := fs.String("base", "", "base roster file (xlsx|xls|csv|html|pdf)")
		rosterPath := fs.String("roster", "", "TOEFL roster file (xlsx|xls|csv|html|pdf)")
		out := fs.String("out", "", "output xlsx path (default: OUTPUT_DIR/comparacao_nomes_<ts>.xlsx)")
		threshold := fs.Float64("threshold", defaults.Threshold, "minimum score 0-100")
		algorithm := fs.String("algorithm", defaults.Algorithm, "ratio|partial_ratio|token_sort_ratio|token_set_ratio")
		baseColumn := fs.String("base-column", "", "name column of the base roster (default: first)")
		rosterColumn := fs.String("roster-column", "", "name column of the TOEFL roster (default: first)")
		asJSON := fs.Bool("json", false, "print the report as JSON")
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("--base", *basePath))
		must(cfg.Require("--roster", *rosterPath))

		opts := defaults
		opts.Threshold = *threshold
		opts.Algorithm = *algorithm
		opts.BaseColumn = *baseColumn
		opts.RosterColumn = *rosterColumn

		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
		defer cancel()
		report := svc.Compare(ctx, loadInput(*basePath), loadInput(*rosterPath), opts)
		if !report.Success {
			must(fmt.Errorf("%s (%s)", report.Error, report.ErrorKind))
		}

		output := *out
		if output == "" {
			output = filepath.Join(cfg.OutputDir, pipeline.ExportFileName(time.Now()))
		}
		must(pipeline.ExportReportToXLSX(report, output))

		if *asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			must(enc.Encode(report))
			return
		}
		st := report.Statistics
		fmt.Printf("compare done total=%d matched=%d unmatched=%d match=%.2f%% output=%s\n",
			st.Total, st.Matched, st.Unmatched, st.MatchPercentage, output)
	case "inspect":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "file to inspect")
		_ = fs.Parse(os.Args[2:])
		must(cfg.Require("--file", *file))

		wb, err := pipeline.ReadWorkbookFile(*file)
		must(err)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		must(enc.Encode(pipeline.Inspect(wb)))
	case "serve":
		// Access logs of the long-running server go to stdout.
		srv := server.New(cfg, logger.New(cfg.LogLevel), svc, registry)
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		must(srv.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

// loadInput reads a file for comparison; a missing file yields an empty
// input so the comparison reports it as missing.
func loadInput(path string) pipeline.FileInput {
	blob, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return pipeline.FileInput{Name: filepath.Base(path), Content: blob}
}

func usage() {
	fmt.Println("usage: rostermatch <command>")
	fmt.Println("commands:")
	fmt.Println("  compare --base=base.xlsx --roster=toefl.xlsx [--out=result.xlsx] [--threshold=80] [--algorithm=token_sort_ratio]")
	fmt.Println("          [--base-column=...] [--roster-column=...] [--json]")
	fmt.Println("  inspect --file=roster.xlsx")
	fmt.Println("  serve")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
