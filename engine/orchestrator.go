package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/thisisjab/usersearch/entity"
	"github.com/thisisjab/usersearch/fault"
	"github.com/thisisjab/usersearch/querier"
)

type Config struct {
	Sources map[string]SchemaSource

	// Storage is optional. Without it only compiling is available.
	Storage Storage

	Search querier.Options

	// MaxLimit caps the rows a single search may return.
	MaxLimit int

	// DefaultLimit is used when a search asks for no limit.
	DefaultLimit int

	CompileWorkersCount uint
}

// SearchResult is the outcome of Engine.Search.
type SearchResult struct {
	Compiled querier.Result
	Rows     []entity.Row
}

// Engine orchestrates schema sources, the search compiler and the storage.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	catalog  *Catalog
	compiler *querier.Compiler

	ready     chan struct{}
	readyOnce sync.Once
}

func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		catalog:  NewCatalog(logger),
		compiler: querier.NewCompiler(cfg.Search),
		ready:    make(chan struct{}),
	}, nil
}

func (c Config) validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no schema sources are configured")
	}

	if c.MaxLimit < 0 || c.DefaultLimit < 0 {
		return errors.New("search limits cannot be negative")
	}

	if c.MaxLimit > 0 && c.DefaultLimit > c.MaxLimit {
		return errors.New("default search limit cannot exceed max limit")
	}

	if c.CompileWorkersCount == 0 {
		return errors.New("compile workers cannot be zero")
	}

	return nil
}

// Ready is closed once every schema source has provided its first table set.
func (e *Engine) Ready() <-chan struct{} {
	return e.ready
}

// Run consumes schema updates from all sources until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	type update struct {
		source string
		tables []entity.Table
	}

	updates := make(chan update)
	var sourceWg sync.WaitGroup

	// Spawn sources
	for n, s := range e.cfg.Sources {
		sourceWg.Go(func() {
			tablesChan := make(chan []entity.Table)
			done := make(chan struct{})

			go func() {
				defer close(done)
				for tables := range tablesChan {
					select {
					case updates <- update{source: n, tables: tables}:
					case <-ctx.Done():
					}
				}
			}()

			err := s.Provide(ctx, tablesChan)
			close(tablesChan)
			<-done

			if err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Error("schema source stopped.", "name", n, "error", err)
			}
		})
	}

	go func() {
		sourceWg.Wait()
		close(updates)
	}()

	seen := make(map[string]bool, len(e.cfg.Sources))

	for {
		select {
		case <-ctx.Done():
			sourceWg.Wait()
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				if len(seen) < len(e.cfg.Sources) {
					return errors.New("schema sources stopped before providing a schema")
				}

				// Every source has stopped without ctx being cancelled, which is
				// normal for sources that are not watching.
				e.markReady()
				<-ctx.Done()
				return ctx.Err()
			}

			e.catalog.Replace(u.source, u.tables)
			e.logger.Info("schema updated.", "source", u.source, "tables", len(u.tables))

			seen[u.source] = true
			if len(seen) == len(e.cfg.Sources) {
				e.markReady()
			}
		}
	}
}

func (e *Engine) markReady() {
	e.readyOnce.Do(func() { close(e.ready) })
}

// Tables returns the searchable tables.
func (e *Engine) Tables() []entity.Table {
	return e.catalog.Tables()
}

// Compile compiles req against the declared column types of table.
func (e *Engine) Compile(table string, req querier.SearchRequest) (querier.Result, error) {
	_, types, ok := e.catalog.Table(table)
	if !ok {
		return querier.Result{}, fault.New(fault.NotFoundCode, fmt.Sprintf("table %q is not defined", table))
	}

	res, err := e.compiler.Compile(req, types)
	if err != nil {
		return querier.Result{}, err
	}

	e.logInvalidTerms(table, res)
	return res, nil
}

// logInvalidTerms reports the terms that were dropped from the tree.
func (e *Engine) logInvalidTerms(table string, res querier.Result) {
	for _, cs := range res.Columns {
		for _, g := range cs.Groups {
			for _, n := range g {
				if !n.Valid {
					e.logger.Debug("search term dropped.", "table", table, "column", cs.Column, "search", cs.OriginalSearch, "error", n.Err)
				}
			}
		}
	}
}

// Search compiles req and runs it against the storage. A zero limit means the
// configured default.
func (e *Engine) Search(ctx context.Context, table string, req querier.SearchRequest, limit int) (SearchResult, error) {
	if e.cfg.Storage == nil {
		return SearchResult{}, fault.New(fault.ConfigurationCode, "no storage is configured")
	}

	if limit < 0 {
		return SearchResult{}, fault.New(fault.BadInputCode, "limit cannot be negative")
	}
	if limit == 0 {
		limit = e.cfg.DefaultLimit
	}
	if e.cfg.MaxLimit > 0 && limit > e.cfg.MaxLimit {
		return SearchResult{}, fault.New(fault.BadInputCode, fmt.Sprintf("limit cannot exceed %d", e.cfg.MaxLimit))
	}

	t, types, ok := e.catalog.Table(table)
	if !ok {
		return SearchResult{}, fault.New(fault.NotFoundCode, fmt.Sprintf("table %q is not defined", table))
	}

	compiled, err := e.compiler.Compile(req, types)
	if err != nil {
		return SearchResult{}, err
	}
	e.logInvalidTerms(table, compiled)

	resp, err := e.cfg.Storage.Query(ctx, querier.QueryRequest{
		Table:   t.Name,
		Columns: t.SelectColumns(),
		Tree:    compiled.Tree,
		Limit:   limit,
	})
	if err != nil {
		return SearchResult{}, fault.New(fault.UnknownCode, "search failed").WithOriginal(err)
	}

	e.logger.Debug("search executed.", "table", table, "rows", len(resp.Rows))

	return SearchResult{Compiled: compiled, Rows: resp.Rows}, nil
}
