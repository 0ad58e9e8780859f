package particle

import (
	"fmt"
	"sync"
)

// Options holds optional container limits.
type Options struct {
	// MaxBlocks caps the number of simultaneously live blocks. Zero means
	// unlimited. Go programs cannot intercept allocator failure, so the
	// budget is how allocation exhaustion surfaces at this layer: NewBlock
	// fails with ErrOutOfMemory once the budget is reached and callers
	// decide whether to abort or stop emitting.
	MaxBlocks int
}

// Container is the single owner and factory for all particle storage. It
// holds the schema, tracks every live block, and is the central authority
// for attribute-name-to-index resolution.
//
// Block-set membership (NewBlock, ReleaseBlock, ActiveBlocks) is serialized
// internally; per-block buffer access needs no locking as long as each block
// is worked by one goroutine at a time.
type Container struct {
	schema    *Schema
	maxBlocks int

	mu     sync.RWMutex
	blocks map[*Block]struct{}
}

// NewContainer builds a container with the given block size and ordered
// attribute name lists.
func NewContainer(blockSize int, floatNames, vec3Names []string) (*Container, error) {
	return NewContainerWithOptions(blockSize, floatNames, vec3Names, Options{})
}

// NewContainerWithOptions is NewContainer with explicit limits.
func NewContainerWithOptions(blockSize int, floatNames, vec3Names []string, opts Options) (*Container, error) {
	schema, err := NewSchema(blockSize, floatNames, vec3Names)
	if err != nil {
		return nil, err
	}
	if opts.MaxBlocks < 0 {
		return nil, fmt.Errorf("%w: max blocks must be >= 0, got %d", ErrConfig, opts.MaxBlocks)
	}
	return &Container{
		schema:    schema,
		maxBlocks: opts.MaxBlocks,
		blocks:    make(map[*Block]struct{}),
	}, nil
}

// Schema returns the container's immutable attribute schema.
func (c *Container) Schema() *Schema {
	return c.schema
}

// BlockSize returns the fixed particle capacity per block.
func (c *Container) BlockSize() int {
	return c.schema.blockSize
}

// FloatCount returns the number of registered float attributes.
func (c *Container) FloatCount() int {
	return c.schema.FloatCount()
}

// Vec3Count returns the number of registered vec3 attributes.
func (c *Container) Vec3Count() int {
	return c.schema.Vec3Count()
}

// FloatIndex resolves a float attribute name to its stable buffer index.
func (c *Container) FloatIndex(name string) (int, error) {
	return c.schema.FloatIndex(name)
}

// Vec3Index resolves a vec3 attribute name to its stable buffer index.
func (c *Container) Vec3Index(name string) (int, error) {
	return c.schema.Vec3Index(name)
}

// NewBlock allocates a fresh block with one buffer per registered attribute,
// an active count of zero, and registers it in the live set. The container
// remains the owner; the returned handle is how callers address the block in
// later calls.
func (c *Container) NewBlock() (*Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxBlocks > 0 && len(c.blocks) >= c.maxBlocks {
		return nil, fmt.Errorf("%w: %d blocks live, budget %d", ErrOutOfMemory, len(c.blocks), c.maxBlocks)
	}

	b := newBlock(c)
	c.blocks[b] = struct{}{}
	return b, nil
}

// ReleaseBlock removes the block from the live set and detaches its buffers.
// Releasing a handle the container does not own (double release, foreign
// block, nil) fails with ErrInvalidHandle and leaves the live set unchanged.
// Released handles are dead; using one afterwards is a programming error.
func (c *Container) ReleaseBlock(b *Block) error {
	if b == nil {
		return fmt.Errorf("%w: nil block", ErrInvalidHandle)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.blocks[b]; !ok {
		return fmt.Errorf("%w: block not owned by this container", ErrInvalidHandle)
	}
	delete(c.blocks, b)

	// Detach storage so a stale handle faults loudly instead of aliasing
	// memory that may be reused.
	b.floats = nil
	b.vec3s = nil
	b.active = 0
	return nil
}

// ActiveBlocks returns a snapshot of the current live blocks. Iteration
// order carries no meaning. The snapshot does not track later membership
// changes; call again after NewBlock or ReleaseBlock.
func (c *Container) ActiveBlocks() []*Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Block, 0, len(c.blocks))
	for b := range c.blocks {
		out = append(out, b)
	}
	return out
}

// BlockCount returns the number of live blocks.
func (c *Container) BlockCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// TotalActive returns the number of live particles across all blocks.
func (c *Container) TotalActive() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for b := range c.blocks {
		total += b.active
	}
	return total
}
