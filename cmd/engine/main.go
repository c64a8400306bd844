package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/thisisjab/usersearch/config"
	"github.com/thisisjab/usersearch/engine"
	"github.com/thisisjab/usersearch/querier"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jobLine is one line of the NDJSON input.
type jobLine struct {
	ID     string                `json:"id"`
	Table  string                `json:"table"`
	Search querier.SearchRequest `json:"search"`
}

type resultLine struct {
	ID       string          `json:"id"`
	Line     int             `json:"line"`
	Table    string          `json:"table,omitempty"`
	Compiled *querier.Report `json:"compiled,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func main() {
	parser := argparse.NewParser("usersearch-engine", "Compiles NDJSON search jobs in batch")
	cfgPath := parser.String("c", "config", &argparse.Options{
		Default: "./config.yaml",
		Help:    "Path to config file",
	})
	input := parser.String("i", "input", &argparse.Options{
		Help: "NDJSON jobs file. Reads stdin when empty",
	})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Println(parser.Usage(err))
		os.Exit(1)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(fmt.Errorf("cannot load config file: %w", err))
	}

	engineCfg, logger, err := cfg.Parse()
	if err != nil {
		if logger != nil {
			logger.Error("cannot parse config file", "error", err)
			os.Exit(1)
		}
		panic(fmt.Errorf("cannot parse config file: %w", err))
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling to catch Ctrl+C (SIGINT) or Terminate (SIGTERM)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal. shutting down.", "signal", sig)
		cancel()
	}()

	var in io.Reader = os.Stdin
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			logger.Error("cannot open input.", "path", *input, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	// Create engine
	eng, err := engine.New(*engineCfg, logger)
	if err != nil {
		logger.Error("engine error.", "error", err)
		os.Exit(1)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx) }()

	select {
	case <-eng.Ready():
	case err := <-runErr:
		logger.Error("engine error.", "error", err)
		os.Exit(1)
	}

	if err := compileJobs(ctx, logger, eng, in, os.Stdout); err != nil {
		logger.Error("batch failed.", "error", err)
		os.Exit(1)
	}

	logger.Info("engine stopped.")
}

func compileJobs(ctx context.Context, logger *slog.Logger, eng *engine.Engine, in io.Reader, out io.Writer) error {
	lines := make([]resultLine, 0)
	jobs := make([]engine.BatchJob, 0)
	jobLines := make([]int, 0)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	n := 0
	for scanner.Scan() {
		n++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var j jobLine
		if err := json.Unmarshal(raw, &j); err != nil {
			lines = append(lines, resultLine{ID: uuid.NewString(), Line: n, Error: fmt.Sprintf("invalid job: %v", err)})
			continue
		}

		job := engine.BatchJob{Table: j.Table, Search: j.Search}
		if j.ID != "" {
			id, err := uuid.Parse(j.ID)
			if err != nil {
				lines = append(lines, resultLine{ID: j.ID, Line: n, Table: j.Table, Error: "invalid job id"})
				continue
			}
			job.ID = id
		}

		lines = append(lines, resultLine{Line: n, Table: j.Table})
		jobLines = append(jobLines, len(lines)-1)
		jobs = append(jobs, job)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("cannot read jobs: %w", err)
	}

	logger.Info("compiling batch.", "jobs", len(jobs), "rejected", len(lines)-len(jobs))

	for i, res := range eng.CompileBatch(ctx, jobs) {
		line := &lines[jobLines[i]]
		line.ID = res.ID.String()

		if res.Err != nil {
			line.Error = res.Err.Error()
			continue
		}

		report, err := querier.NewReport(res.Result)
		if err != nil {
			line.Error = err.Error()
			continue
		}
		line.Compiled = &report
	}

	enc := json.NewEncoder(out)
	for _, l := range lines {
		if err := enc.Encode(l); err != nil {
			return fmt.Errorf("cannot write result: %w", err)
		}
	}

	return nil
}
