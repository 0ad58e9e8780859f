package engine

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/granule/particle"
)

// blockChunk is a slice of blocks for one worker plus the function to run
// over each. Blocks are independent units; a block appears in exactly one
// chunk per dispatch, so chunk processing needs no locking. The container's
// membership is frozen for the duration of a dispatch.
type blockChunk struct {
	blocks []*particle.Block
	fn     func(*particle.Block)
}

// workerPool runs per-block work on persistent workers. Below minBlocks the
// dispatch runs inline, goroutine overhead dominating any gain.
type workerPool struct {
	numWorkers int
	minBlocks  int

	workChan chan blockChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newWorkerPool(minBlocks int) *workerPool {
	if minBlocks < 2 {
		minBlocks = 2
	}
	return &workerPool{
		numWorkers: runtime.GOMAXPROCS(0),
		minBlocks:  minBlocks,
	}
}

// start launches persistent worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan blockChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			for _, b := range chunk.blocks {
				chunk.fn(b)
			}
			p.doneChan <- struct{}{}
		}
	}
}

// process runs fn over every block and returns when all are done. Each
// block is handled by exactly one worker, so fn may mutate block buffers
// without locking. At most numWorkers chunks are dispatched, which keeps
// both channels within their buffer capacity.
func (p *workerPool) process(blocks []*particle.Block, fn func(*particle.Block)) {
	n := len(blocks)
	if n == 0 {
		return
	}

	// Single-threaded for small block counts
	if n < p.minBlocks {
		for _, b := range blocks {
			fn(b)
		}
		return
	}

	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- blockChunk{blocks: blocks[start:end], fn: fn}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
