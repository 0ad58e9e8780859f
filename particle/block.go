package particle

import "fmt"

// Block is a fixed-capacity slab of parallel attribute buffers holding up to
// BlockSize particles. Indices [0, Active()) hold live particle data across
// every buffer; the tail is scratch space reserved for future emission and
// its contents are undefined. Blocks are created and released exclusively by
// their owning Container.
//
// A block's buffers are safe to mutate from exactly one goroutine at a time.
// The usual discipline is one worker per block; the container only
// serializes block-set membership, never buffer access.
type Block struct {
	container *Container
	floats    [][]float32
	vec3s     [][]Vec3
	active    int
}

func newBlock(c *Container) *Block {
	s := c.schema
	b := &Block{
		container: c,
		floats:    make([][]float32, s.FloatCount()),
		vec3s:     make([][]Vec3, s.Vec3Count()),
	}
	for i := range b.floats {
		b.floats[i] = make([]float32, s.blockSize)
	}
	for i := range b.vec3s {
		b.vec3s[i] = make([]Vec3, s.blockSize)
	}
	return b
}

// Container returns the owning container. The reference is used for
// attribute resolution only; the container is the sole owner of the block's
// memory.
func (b *Block) Container() *Container {
	return b.container
}

// Size returns the block's fixed particle capacity.
func (b *Block) Size() int {
	return b.container.schema.blockSize
}

// Active returns the number of live particles in the block.
func (b *Block) Active() int {
	return b.active
}

// SetActive grows or shrinks the active region. Emission logic bumps the
// count after writing into the slot at NextInactiveIndex; death logic
// shrinks it. The count is validated on every mutation and never left
// outside [0, Size()].
func (b *Block) SetActive(n int) error {
	if n < 0 || n > b.Size() {
		return fmt.Errorf("%w: %d not in [0, %d]", ErrCapacityExceeded, n, b.Size())
	}
	b.active = n
	return nil
}

// IsFull reports whether the active region covers the whole block.
func (b *Block) IsFull() bool {
	return b.active == b.Size()
}

// NextInactiveIndex returns the first free slot, i.e. the current active
// count. Emission writes attribute values there before bumping the count.
func (b *Block) NextInactiveIndex() int {
	return b.active
}

// Clear resets the active count to zero. Buffer contents are left untouched;
// stale data beyond the active region is never read because all consumers
// bound their loops by Active().
func (b *Block) Clear() {
	b.active = 0
}

// FloatBuffer resolves name through the owning container's schema and
// returns the full backing array of length Size(). Only [0, Active()) holds
// live particle data.
func (b *Block) FloatBuffer(name string) ([]float32, error) {
	i, err := b.container.schema.FloatIndex(name)
	if err != nil {
		return nil, err
	}
	return b.floats[i], nil
}

// Vec3Buffer is the vec3 counterpart of FloatBuffer.
func (b *Block) Vec3Buffer(name string) ([]Vec3, error) {
	i, err := b.container.schema.Vec3Index(name)
	if err != nil {
		return nil, err
	}
	return b.vec3s[i], nil
}

// FloatBufferAt returns the float buffer at a schema index. Hot paths
// resolve the name once via the container and use this accessor per block.
func (b *Block) FloatBufferAt(i int) []float32 {
	return b.floats[i]
}

// Vec3BufferAt returns the vec3 buffer at a schema index.
func (b *Block) Vec3BufferAt(i int) []Vec3 {
	return b.vec3s[i]
}

// FloatBuffers returns all float buffers in schema index order, for code
// that iterates every attribute (bulk copy, compaction). Callers must not
// replace or resize the slices.
func (b *Block) FloatBuffers() [][]float32 {
	return b.floats
}

// Vec3Buffers returns all vec3 buffers in schema index order.
func (b *Block) Vec3Buffers() [][]Vec3 {
	return b.vec3s
}

// SwapRemove deletes the particle at index i by copying every attribute
// value from the last active slot into i and shrinking the active count.
// Removing the last active particle is a pure decrement. Relative order of
// particles within a block is not significant and is not preserved.
func (b *Block) SwapRemove(i int) error {
	if i < 0 || i >= b.active {
		return fmt.Errorf("%w: index %d with %d active", ErrIndexOutOfRange, i, b.active)
	}
	last := b.active - 1
	if i != last {
		for _, buf := range b.floats {
			buf[i] = buf[last]
		}
		for _, buf := range b.vec3s {
			buf[i] = buf[last]
		}
	}
	b.active = last
	return nil
}

// Compact swap-removes every particle for which keep reports false and
// returns the number removed. After a removal the swapped-in particle is
// re-examined at the same index, so a single pass covers the whole live
// region.
func (b *Block) Compact(keep func(i int) bool) int {
	removed := 0
	for i := 0; i < b.active; {
		if keep(i) {
			i++
			continue
		}
		last := b.active - 1
		if i != last {
			for _, buf := range b.floats {
				buf[i] = buf[last]
			}
			for _, buf := range b.vec3s {
				buf[i] = buf[last]
			}
		}
		b.active = last
		removed++
	}
	return removed
}
