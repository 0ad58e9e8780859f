package engine

import (
	"sync/atomic"
	"testing"

	"github.com/pthm-cable/granule/particle"
)

func poolBlocks(t *testing.T, n int) []*particle.Block {
	t.Helper()
	c, err := particle.NewContainer(8, []string{"age"}, nil)
	if err != nil {
		t.Fatalf("NewContainer() error = %v", err)
	}
	blocks := make([]*particle.Block, n)
	for i := range blocks {
		b, err := c.NewBlock()
		if err != nil {
			t.Fatalf("NewBlock() error = %v", err)
		}
		blocks[i] = b
	}
	return blocks
}

func TestWorkerPoolProcessesEveryBlock(t *testing.T) {
	pool := newWorkerPool(2)
	defer pool.stop()

	blocks := poolBlocks(t, 33)

	var visits int64
	pool.process(blocks, func(b *particle.Block) {
		atomic.AddInt64(&visits, 1)
		// Each block is touched by exactly one worker; unsynchronized
		// buffer writes are the point of the discipline.
		b.FloatBufferAt(0)[0] = 1
	})

	if visits != 33 {
		t.Errorf("processed %d blocks, want 33", visits)
	}
	for i, b := range blocks {
		if b.FloatBufferAt(0)[0] != 1 {
			t.Errorf("block %d not processed", i)
		}
	}
}

func TestWorkerPoolInlineBelowThreshold(t *testing.T) {
	pool := newWorkerPool(8)
	defer pool.stop()

	blocks := poolBlocks(t, 3)

	var visits int64
	pool.process(blocks, func(*particle.Block) {
		atomic.AddInt64(&visits, 1)
	})

	if visits != 3 {
		t.Errorf("processed %d blocks, want 3", visits)
	}
	if pool.running {
		t.Error("pool started workers below the threshold")
	}
}

func TestWorkerPoolRepeatedDispatch(t *testing.T) {
	pool := newWorkerPool(2)
	defer pool.stop()

	blocks := poolBlocks(t, 16)

	var visits int64
	for round := 0; round < 10; round++ {
		pool.process(blocks, func(*particle.Block) {
			atomic.AddInt64(&visits, 1)
		})
	}
	if visits != 160 {
		t.Errorf("processed %d block visits over 10 rounds, want 160", visits)
	}
}

func TestWorkerPoolEmpty(t *testing.T) {
	pool := newWorkerPool(2)
	defer pool.stop()

	// Must not hang or start workers.
	pool.process(nil, func(*particle.Block) {
		t.Error("fn called with no blocks")
	})
}
