package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
)

type Op int

const (
	OpEmbed Op = iota
	OpExtract
)

func (o Op) String() string {
	if o == OpExtract {
		return "extract"
	}
	return "embed"
}

func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "embed":
		return OpEmbed, nil
	case "extract":
		return OpExtract, nil
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

type Job struct {
	Op      Op
	Request Request
}

// Run executes one job.
func (p *Pipeline) Run(ctx context.Context, job Job) Result {
	if job.Op == OpExtract {
		return p.Extract(ctx, job.Request)
	}
	return p.Embed(ctx, job.Request)
}

// Batch runs jobs on up to workers goroutines (GOMAXPROCS when < 1) and
// returns their results in job order. Jobs must not share output paths.
func (p *Pipeline) Batch(ctx context.Context, jobs []Job, workers int) []Result {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(jobs))
	results := make([]Result, len(jobs))

	jobCh := make(chan int, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range jobCh {
				results[i] = p.Run(ctx, jobs[i])
			}
		}()
	}
	for i := range jobs {
		jobCh <- i
	}
	close(jobCh)
	wg.Wait()
	return results
}
