package tux3

// Allocator hands out and takes back block-sized buffers. The leaf
// layer never reads or writes storage itself; persistence belongs to
// whatever sits behind the allocator.
type Allocator interface {
	AllocBlock() ([]byte, error)
	FreeBlock(buf []byte)
}

// Super is the filesystem context threaded through every leaf
// operation: the block size and the block allocator. It is read-only
// configuration from the leaf's point of view.
type Super struct {
	blockSize int
	alloc     Allocator
}

func NewSuper(blockSize int, alloc Allocator) *Super {
	if alloc == nil {
		alloc = heapAllocator{size: blockSize}
	}
	return &Super{blockSize: blockSize, alloc: alloc}
}

func (sb *Super) BlockSize() int {
	return sb.blockSize
}

// heapAllocator is the default when no block store is attached.
type heapAllocator struct {
	size int
}

func (h heapAllocator) AllocBlock() ([]byte, error) {
	return make([]byte, h.size), nil
}

func (h heapAllocator) FreeBlock(buf []byte) {}
