package engine

import (
	"runtime"
	"sync"
)

// BatchJob is one document in a Batch call: its own HTML/CSS/assets/
// config, rendered independently of its siblings.
type BatchJob struct {
	HTML   string
	CSS    string
	Assets *Registry
	Config Config
}

// BatchResult pairs one job's Result with its error, so a caller that
// wants per-document errors doesn't have to zip two slices back together;
// Batch stores it at the job's own index.
type BatchResult struct {
	Result *Result
	Err    error
}

// Batch renders N documents concurrently on a worker pool sized to
// GOMAXPROCS, same as raster.RasterizePages (§5 "Batch rendering: N
// documents may render concurrently on a worker pool. Output order is
// preserved"): job i's result always lands at out[i] regardless of
// completion order or worker count.
func Batch(jobs []BatchJob) []BatchResult {
	out := make([]BatchResult, len(jobs))
	if len(jobs) == 0 {
		return out
	}

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			job := jobs[i]
			res, err := Render(job.HTML, job.CSS, job.Assets, job.Config)
			out[i] = BatchResult{Result: res, Err: err}
		}(i)
	}
	wg.Wait()
	return out
}
