// Package worker provides the bounded concurrency primitives used by the
// scraping coordinators: a fixed-size pool that preserves submission order
// and a per-domain rate limiter.
package worker

import (
	"context"
	"sync"
)

// Job is one unit of work to be executed by a Pool.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produces.
type Result interface {
	GetError() error
}

type errResult struct{ err error }

func (r errResult) GetError() error { return r.err }

// ErrResult wraps a bare error as a Result.
func ErrResult(err error) Result { return errResult{err: err} }

type indexedJob struct {
	idx int
	job Job
}

// Pool runs jobs on a fixed number of workers.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given worker count (minimum one).
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return p.workers }

// RunOrdered executes all jobs concurrently and returns their results in
// submission order, regardless of completion order. Jobs not started
// because the context was cancelled yield ErrResult(ctx.Err()).
func (p *Pool) RunOrdered(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	jobCh := make(chan indexedJob)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ij := range jobCh {
				// Each worker writes to a distinct slot, no lock needed.
				results[ij.idx] = ij.job.Execute(ctx)
			}
		}()
	}

submit:
	for i, job := range jobs {
		select {
		case <-ctx.Done():
			break submit
		case jobCh <- indexedJob{idx: i, job: job}:
		}
	}
	close(jobCh)
	wg.Wait()

	for i := range results {
		if results[i] == nil {
			results[i] = ErrResult(ctx.Err())
		}
	}
	return results
}
