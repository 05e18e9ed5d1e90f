package solver

import (
	"runtime"
	"sync"
)

// minRowChunk is the smallest row span worth handing to a worker.
const minRowChunk = 16

// parallelFor executes fn over contiguous chunks of [0, n). Every per-cell
// sweep it drives reads only the previous sub-stage's snapshot, so chunked
// execution produces results identical to a serial loop. Callers rely on
// the implicit barrier: parallelFor returns only after all chunks finish.
func parallelFor(n, minChunk int, fn func(start, end int)) {
	numWorkers := runtime.GOMAXPROCS(0)
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}

		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
