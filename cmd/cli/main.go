package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/akamensky/argparse"
	jsoniter "github.com/json-iterator/go"
	"github.com/thisisjab/usersearch/config"
	"github.com/thisisjab/usersearch/engine"
	"github.com/thisisjab/usersearch/entity"
	"github.com/thisisjab/usersearch/querier"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type output struct {
	Table    string         `json:"table"`
	Compiled querier.Report `json:"compiled"`
	SQL      *renderedSQL   `json:"sql,omitempty"`
	Rows     []entity.Row   `json:"rows,omitempty"`
}

type renderedSQL struct {
	Query string   `json:"query"`
	Args  []string `json:"args"`
}

func main() {
	parser := argparse.NewParser("usersearch", "Compiles a user search against a table schema")

	cfgPath := parser.String("c", "config", &argparse.Options{
		Default: "./config.yaml",
		Help:    "Path to config file",
	})
	table := parser.String("t", "table", &argparse.Options{
		Required: true,
		Help:     "(Required) Table to search",
	})
	searches := parser.StringList("s", "search", &argparse.Options{
		Help: "Column search as column=text. Can be repeated",
	})
	showSQL := parser.Flag("q", "sql", &argparse.Options{
		Help: "Also print the SQL the search renders to",
	})
	execute := parser.Flag("e", "execute", &argparse.Options{
		Help: "Run the search against the configured storage",
	})
	limit := parser.Int("l", "limit", &argparse.Options{
		Default: 0,
		Help:    "Maximum rows to return with --execute. 0 uses the configured default",
	})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Println(parser.Usage(err))
		os.Exit(1)
	}

	req, err := parseSearches(*searches)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(*cfgPath, *table, req, *showSQL, *execute, *limit); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseSearches(values []string) (querier.SearchRequest, error) {
	req := make(querier.SearchRequest, len(values))
	for _, v := range values {
		column, text, ok := strings.Cut(v, "=")
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid search %q, expected column=text", v)
		}
		req[column] = text
	}
	return req, nil
}

func run(cfgPath, table string, req querier.SearchRequest, showSQL, execute bool, limit int) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	engineCfg, logger, err := cfg.Parse()
	if err != nil {
		return fmt.Errorf("cannot parse config file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if execute {
		if engineCfg.Storage == nil {
			return fmt.Errorf("--execute needs a storage section in the config")
		}
		if err := engineCfg.Storage.Connect(ctx); err != nil {
			return err
		}
		defer engineCfg.Storage.Close(context.Background()) //nolint:errcheck
	}

	eng, err := engine.New(*engineCfg, logger)
	if err != nil {
		return err
	}

	runErr := make(chan error, 1)
	go func() { runErr <- eng.Run(ctx) }()

	select {
	case <-eng.Ready():
	case err := <-runErr:
		return err
	}

	out := output{Table: table}

	var compiled querier.Result
	if execute {
		res, err := eng.Search(ctx, table, req, limit)
		if err != nil {
			return err
		}
		compiled = res.Compiled
		out.Rows = res.Rows
	} else {
		compiled, err = eng.Compile(table, req)
		if err != nil {
			return err
		}
	}

	out.Compiled, err = querier.NewReport(compiled)
	if err != nil {
		return err
	}

	if showSQL {
		out.SQL, err = render(eng.Tables(), table, compiled)
		if err != nil {
			return err
		}
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))

	return nil
}

func render(tables []entity.Table, table string, compiled querier.Result) (*renderedSQL, error) {
	var columns []string
	for _, t := range tables {
		if t.Name == table {
			columns = t.SelectColumns()
		}
	}

	built, err := querier.NewSQLQueryBuilder(querier.SQLOptions{}).Build(querier.QueryRequest{
		Table:   table,
		Columns: columns,
		Tree:    compiled.Tree,
	})
	if err != nil {
		return nil, err
	}

	args := make([]string, len(built.Args))
	for i, a := range built.Args {
		args[i] = querier.FormatValue(a)
	}

	return &renderedSQL{Query: built.Query, Args: args}, nil
}
