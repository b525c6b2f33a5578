package timelock

import (
	"runtime"
	"sync"
)

// BatchSolver solves many independent puzzles concurrently; correctness of
// each puzzle's solution is unaffected by batching.
type BatchSolver interface {
	SolveBatch(puzzles []Puzzle) ([][32]byte, error)
}

// CPUBatchSolver solves puzzles using a bounded pool of goroutines, one
// modular-squaring chain per worker slot.
type CPUBatchSolver struct {
	Workers int
}

// NewCPUBatchSolver returns a CPUBatchSolver bounded to workers concurrent
// solving goroutines. workers <= 0 defaults to runtime.GOMAXPROCS(0).
func NewCPUBatchSolver(workers int) *CPUBatchSolver {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &CPUBatchSolver{Workers: workers}
}

// SolveBatch solves every puzzle in the batch, preserving input order in
// the output slice.
func (s *CPUBatchSolver) SolveBatch(puzzles []Puzzle) ([][32]byte, error) {
	results := make([][32]byte, len(puzzles))
	sem := make(chan struct{}, s.Workers)
	var wg sync.WaitGroup

	for i, p := range puzzles {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, puzzle Puzzle) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = SolvePuzzle(puzzle)
		}(i, p)
	}
	wg.Wait()
	return results, nil
}
