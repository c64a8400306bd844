package api

import (
	"net/http"

	"github.com/thisisjab/usersearch/fault"
	"github.com/thisisjab/usersearch/querier"
)

type compileRequest struct {
	Search querier.SearchRequest `json:"search"`
}

type searchRequest struct {
	Search querier.SearchRequest `json:"search"`
	Limit  int                   `json:"limit"`
}

func (s *server) listTablesHandler(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, map[string]any{"tables": s.engine.Tables()}, nil)
}

// compileHandler parses a search against the table schema and returns the
// predicate tree with per-column diagnostics. Nothing is queried.
func (s *server) compileHandler(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if s.returnOnError(w, r, s.readRequest(w, r, &req)) {
		return
	}

	res, err := s.engine.Compile(r.PathValue("table"), req.Search)
	if s.returnOnError(w, r, err) {
		return
	}

	report, err := querier.NewReport(res)
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeData(w, map[string]any{"compiled": report}, nil)
}

// searchHandler compiles a search and returns the matching rows. Invalid
// terms are dropped from the query and reported in the diagnostics.
func (s *server) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if s.returnOnError(w, r, s.readRequest(w, r, &req)) {
		return
	}

	if req.Limit < 0 {
		s.handleError(w, r, fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
			"limit": []string{"Must not be negative."},
		}))
		return
	}

	res, err := s.engine.Search(r.Context(), r.PathValue("table"), req.Search, req.Limit)
	if s.returnOnError(w, r, err) {
		return
	}

	report, err := querier.NewReport(res.Compiled)
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeData(w,
		map[string]any{"compiled": report, "rows": res.Rows},
		map[string]any{"count": len(res.Rows)},
	)
}
