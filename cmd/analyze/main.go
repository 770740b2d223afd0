package main

// Analyze one file from the command line:
//   go run ./cmd/analyze -file scan.pdf [-archive] [-parallel]

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"

	"documind-backend/internal/analysis"
	"documind-backend/internal/bootstrap"
	"documind-backend/internal/shared/config"
	"documind-backend/internal/shared/telemetry"
)

func main() {
	filePath := flag.String("file", "", "path to the image or PDF to analyze")
	archive := flag.Bool("archive", false, "persist the outcome to the configured archive")
	parallel := flag.Bool("parallel", false, "run classification and summarization concurrently")
	flag.Parse()

	os.Exit(run(*filePath, *archive, *parallel))
}

func run(filePath string, archive, parallel bool) int {
	defer telemetry.Sync()

	if filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -file <path> [-archive] [-parallel]")
		return 2
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", filePath, err)
		return 1
	}

	cfg := config.Load()
	cfg.PipelineParallel = cfg.PipelineParallel || parallel
	if cfg.MaxUploadBytes > 0 && int64(len(data)) > cfg.MaxUploadBytes {
		fmt.Fprintf(os.Stderr, "%s is %s, limit is %s\n", filePath,
			humanize.Bytes(uint64(len(data))), humanize.Bytes(uint64(cfg.MaxUploadBytes)))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildWithOptions(ctx, cfg, bootstrap.Options{
		NoArchive:       !archive,
		RequireDatabase: archive,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap: %v\n", err)
		return 1
	}
	defer app.Close()

	out, err := app.Processor.Process(ctx, analysis.Upload{
		FileName: filepath.Base(filePath),
		Data:     data,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", analysis.KindOf(err), err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(analysis.ToResponse(out)); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		return 1
	}
	return 0
}
