package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/thisisjab/usersearch/querier"
)

// BatchJob is one compile request of a batch.
type BatchJob struct {
	ID     uuid.UUID
	Table  string
	Search querier.SearchRequest
}

type BatchResult struct {
	ID     uuid.UUID
	Table  string
	Result querier.Result
	Err    error
}

// CompileBatch compiles jobs on the configured number of workers. Jobs
// without an ID get a new one. Results are in the order of jobs; jobs not
// reached before ctx is done carry ctx's error.
func (e *Engine) CompileBatch(ctx context.Context, jobs []BatchJob) []BatchResult {
	results := make([]BatchResult, len(jobs))
	indexes := make(chan int)

	for i := range jobs {
		if jobs[i].ID == uuid.Nil {
			jobs[i].ID = uuid.New()
		}
		results[i] = BatchResult{ID: jobs[i].ID, Table: jobs[i].Table}
	}

	spawnWorker := func(workerId uint) {
		for i := range indexes {
			j := jobs[i]
			res, err := e.Compile(j.Table, j.Search)
			results[i].Result = res
			results[i].Err = err

			e.logger.Debug("compiled batch job.", "worker_id", workerId, "job_id", j.ID, "error", err)
		}
	}

	var wg sync.WaitGroup
	for w := uint(0); w < e.cfg.CompileWorkersCount; w++ {
		wg.Go(func() {
			spawnWorker(w)
		})
	}

	next := 0
feed:
	for ; next < len(jobs); next++ {
		select {
		case indexes <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	for i := next; i < len(jobs); i++ {
		results[i].Err = ctx.Err()
	}

	return results
}
