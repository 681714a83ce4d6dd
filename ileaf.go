package tux3

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/chaitanya0411/tux3/internal/common"
)

// Inode table leaf format.
//
// A leaf is one block-sized buffer. A small header is followed by a
// table of variable-length inode records growing up from the header,
// and a vector of 16-bit cumulative end-offsets growing down from the
// top of the block. Slot i (1-based) holds the record for inode
// ibase+i; its bytes span [dict(i-1), dict(i)) of the table, so equal
// neighbouring offsets denote an empty record. ibase itself has no
// slot: it is a sentinel, and only inums strictly above it are
// addressable here.
//
// Header layout, little-endian:
//
//	magic  u16 at 0
//	count  u16 at 2
//	       4 reserved bytes
//	ibase  u64 at 8
//
// The tag value and field widths are persisted format; anything else
// reading these blocks depends on them bit for bit.
//
// The leaf defines no locks. Readers may share a buffer with each
// other but never with a mutation; whoever owns the buffer (the block
// cache, normally) enforces single writer per leaf.

const (
	ileafMagic      = 0x90de
	ileafHeaderSize = 16
	dictEntrySize   = 2
)

var (
	ErrNotIleaf    = errors.New("not an inode table leaf")
	ErrLeafCorrupt = errors.New("inode table leaf corrupt")
)

// Inum is an inode number.
type Inum uint64

// Ileaf is a raw inode-table leaf block. All access is bounds-checked
// slice indexing over this one buffer.
type Ileaf []byte

func (l Ileaf) magic() uint16 { return binary.LittleEndian.Uint16(l[0:2]) }

func (l Ileaf) setMagic(m uint16) { binary.LittleEndian.PutUint16(l[0:2], m) }

// Count is the number of populated dictionary slots.
func (l Ileaf) Count() int { return int(binary.LittleEndian.Uint16(l[2:4])) }

func (l Ileaf) setCount(n int) { binary.LittleEndian.PutUint16(l[2:4], uint16(n)) }

// Ibase is the base inode number, one below the first addressable slot.
func (l Ileaf) Ibase() Inum { return Inum(binary.LittleEndian.Uint64(l[8:16])) }

func (l Ileaf) setIbase(inum Inum) { binary.LittleEndian.PutUint64(l[8:16], uint64(inum)) }

func (l Ileaf) table() []byte { return l[ileafHeaderSize:] }

// dict returns the cumulative end-offset stored in slot i. Slot 0 is
// the virtual start of the table.
func (l Ileaf) dict(sb *Super, i int) int {
	if i == 0 {
		return 0
	}
	pos := sb.BlockSize() - dictEntrySize*i
	return int(binary.LittleEndian.Uint16(l[pos : pos+2]))
}

func (l Ileaf) setDict(sb *Super, i, off int) {
	pos := sb.BlockSize() - dictEntrySize*i
	binary.LittleEndian.PutUint16(l[pos:pos+2], uint16(off))
}

// maxSlots is the most dictionary entries a block of this size could
// ever hold; a slot index past it is caller misuse, not data.
func maxSlots(sb *Super) int {
	return (sb.BlockSize() - ileafHeaderSize) / dictEntrySize
}

// Init formats buf as an empty leaf. The buffer is caller-owned and
// presumed block-sized.
func (l Ileaf) Init(sb *Super) {
	common.Assert(len(l) >= sb.BlockSize(), "ileaf: short buffer %d < block size %d", len(l), sb.BlockSize())
	l.setMagic(ileafMagic)
	l.setCount(0)
	l.setIbase(0)
}

// CreateLeaf acquires a block from the super's allocator and formats
// it. Ownership passes to the caller.
func CreateLeaf(sb *Super) (Ileaf, error) {
	buf, err := sb.alloc.AllocBlock()
	if err != nil {
		return nil, fmt.Errorf("ileaf: alloc block: %w", err)
	}
	leaf := Ileaf(buf)
	leaf.Init(sb)
	return leaf, nil
}

// Sniff is the cheap format guard: true iff the tag matches.
func (l Ileaf) Sniff(sb *Super) bool {
	return len(l) >= ileafHeaderSize && l.magic() == ileafMagic
}

// Check validates the leaf: the format tag, dictionary monotonicity
// and the capacity bound. Tag mismatch is ErrNotIleaf; the rest is
// ErrLeafCorrupt.
func (l Ileaf) Check(sb *Super) error {
	if !l.Sniff(sb) {
		return ErrNotIleaf
	}
	count := l.Count()
	if count > maxSlots(sb) {
		return fmt.Errorf("%w: count %d exceeds dictionary capacity %d", ErrLeafCorrupt, count, maxSlots(sb))
	}
	prev := 0
	for i := 1; i <= count; i++ {
		end := l.dict(sb, i)
		if end < prev {
			return fmt.Errorf("%w: dictionary shrinks at slot %d (%d < %d)", ErrLeafCorrupt, i, end, prev)
		}
		prev = end
	}
	if ileafHeaderSize+prev+dictEntrySize*count > sb.BlockSize() {
		return fmt.Errorf("%w: table and dictionary overlap (%d used, %d slots)", ErrLeafCorrupt, prev, count)
	}
	return nil
}

// Destroy releases the leaf back to the allocator. Handing it a
// buffer that does not sniff as a leaf is a contract violation.
func (l Ileaf) Destroy(sb *Super) {
	common.Assert(l.Sniff(sb), "ileaf: destroy on foreign buffer")
	sb.alloc.FreeBlock(l)
}

// Used returns the record table bytes consumed by all slots.
func (l Ileaf) Used(sb *Super) int {
	return l.dict(sb, l.Count())
}

// Free returns the bytes left between the table and the header's
// claim on the block. Dictionary growth is not charged here, matching
// the on-disk accounting.
func (l Ileaf) Free(sb *Super) int {
	return sb.BlockSize() - l.Used(sb) - ileafHeaderSize
}

// Lookup resolves inum's record by direct dictionary indexing, O(1).
// It returns a slice aliasing the leaf's table, or nil when the
// record is empty. A slot past count answers nil too: once materialized,
// the format cannot tell "never allocated" from "allocated and empty",
// and before that the answer is the same. inum must be strictly above
// the base sentinel and within the dictionary's reach.
func (l Ileaf) Lookup(sb *Super, inum Inum) []byte {
	common.Assert(inum > l.Ibase(), "ileaf: lookup inum %d at or below base %d", inum, l.Ibase())
	at := int(inum - l.Ibase())
	common.Assert(at <= maxSlots(sb), "ileaf: lookup slot %d past dictionary capacity %d", at, maxSlots(sb))
	if at > l.Count() {
		return nil
	}
	start, end := l.dict(sb, at-1), l.dict(sb, at)
	if end <= start {
		return nil
	}
	return l.table()[start:end]
}
