package particle

import (
	"errors"
	"sync"
	"testing"
)

func TestContainerConstruction(t *testing.T) {
	c := mustContainer(t, 4, []string{"mass", "age"}, []string{"position"})

	if c.BlockSize() != 4 {
		t.Errorf("BlockSize() = %d, want 4", c.BlockSize())
	}
	if c.FloatCount() != 2 {
		t.Errorf("FloatCount() = %d, want 2", c.FloatCount())
	}
	if c.Vec3Count() != 1 {
		t.Errorf("Vec3Count() = %d, want 1", c.Vec3Count())
	}
	if c.BlockCount() != 0 {
		t.Errorf("BlockCount() = %d, want 0", c.BlockCount())
	}
}

func TestContainerConstructionErrors(t *testing.T) {
	if _, err := NewContainer(0, nil, nil); !errors.Is(err, ErrConfig) {
		t.Errorf("NewContainer(0, ...) error = %v, want ErrConfig", err)
	}
	if _, err := NewContainer(4, []string{"a", "a"}, nil); !errors.Is(err, ErrConfig) {
		t.Errorf("duplicate float error = %v, want ErrConfig", err)
	}
	if _, err := NewContainerWithOptions(4, nil, nil, Options{MaxBlocks: -1}); !errors.Is(err, ErrConfig) {
		t.Errorf("negative MaxBlocks error = %v, want ErrConfig", err)
	}
}

func TestNewBlockMembership(t *testing.T) {
	c := mustContainer(t, 4, []string{"mass"}, nil)

	b1 := mustBlock(t, c)
	b2 := mustBlock(t, c)

	if c.BlockCount() != 2 {
		t.Fatalf("BlockCount() = %d, want 2", c.BlockCount())
	}

	seen := map[*Block]bool{}
	for _, b := range c.ActiveBlocks() {
		seen[b] = true
	}
	if !seen[b1] || !seen[b2] {
		t.Error("ActiveBlocks() missing an allocated block")
	}
}

func TestReleaseBlock(t *testing.T) {
	c := mustContainer(t, 4, []string{"mass"}, nil)
	b := mustBlock(t, c)

	if err := c.ReleaseBlock(b); err != nil {
		t.Fatalf("ReleaseBlock() error = %v", err)
	}
	if c.BlockCount() != 0 {
		t.Errorf("BlockCount() = %d after release, want 0", c.BlockCount())
	}

	// Double release must fail and leave the live set unchanged.
	if err := c.ReleaseBlock(b); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("double ReleaseBlock() error = %v, want ErrInvalidHandle", err)
	}
	if c.BlockCount() != 0 {
		t.Errorf("BlockCount() = %d after failed release, want 0", c.BlockCount())
	}
}

func TestReleaseForeignBlock(t *testing.T) {
	c1 := mustContainer(t, 4, []string{"mass"}, nil)
	c2 := mustContainer(t, 4, []string{"mass"}, nil)
	foreign := mustBlock(t, c2)

	if err := c1.ReleaseBlock(foreign); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("ReleaseBlock(foreign) error = %v, want ErrInvalidHandle", err)
	}
	if c2.BlockCount() != 1 {
		t.Errorf("owner lost its block: BlockCount() = %d, want 1", c2.BlockCount())
	}

	if err := c1.ReleaseBlock(nil); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("ReleaseBlock(nil) error = %v, want ErrInvalidHandle", err)
	}
}

func TestBlockBudget(t *testing.T) {
	c, err := NewContainerWithOptions(4, []string{"mass"}, nil, Options{MaxBlocks: 2})
	if err != nil {
		t.Fatalf("NewContainerWithOptions() error = %v", err)
	}

	b1 := mustBlock(t, c)
	mustBlock(t, c)

	if _, err := c.NewBlock(); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("NewBlock() over budget error = %v, want ErrOutOfMemory", err)
	}

	// Releasing frees budget.
	if err := c.ReleaseBlock(b1); err != nil {
		t.Fatalf("ReleaseBlock() error = %v", err)
	}
	if _, err := c.NewBlock(); err != nil {
		t.Errorf("NewBlock() after release error = %v, want nil", err)
	}
}

func TestTotalActive(t *testing.T) {
	c := mustContainer(t, 8, []string{"mass"}, nil)
	b1 := mustBlock(t, c)
	b2 := mustBlock(t, c)

	if err := b1.SetActive(3); err != nil {
		t.Fatal(err)
	}
	if err := b2.SetActive(5); err != nil {
		t.Fatal(err)
	}
	if got := c.TotalActive(); got != 8 {
		t.Errorf("TotalActive() = %d, want 8", got)
	}
}

func TestConcurrentMembership(t *testing.T) {
	c := mustContainer(t, 16, []string{"mass"}, []string{"position"})

	// Membership mutations racing against snapshot iteration. The race
	// detector is the real assertion here.
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				b, err := c.NewBlock()
				if err != nil {
					t.Errorf("NewBlock() error = %v", err)
					return
				}
				if err := c.ReleaseBlock(b); err != nil {
					t.Errorf("ReleaseBlock() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			for range c.ActiveBlocks() {
			}
			_ = c.TotalActive()
		}
	}()
	wg.Wait()

	if c.BlockCount() != 0 {
		t.Errorf("BlockCount() = %d after all releases, want 0", c.BlockCount())
	}
}
