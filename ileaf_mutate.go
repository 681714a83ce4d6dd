package tux3

import (
	"github.com/chaitanya0411/tux3/internal/common"
)

// The four mutators below assume the caller already verified free
// space (or split first) and holds the leaf exclusively. Space
// planning lives one layer up, in the enclosing index; only the debug
// Verify hooks re-check it here.

// Trim reclaims trailing dictionary slots that carry no data. A slot
// whose end-offset equals its predecessor's is empty; a run of those
// at the tail is pure dictionary overhead, typically left behind by a
// split or a deletion. Never touches a non-empty slot. Idempotent.
func (l Ileaf) Trim(sb *Super) {
	count := l.Count()
	for count > 1 && l.dict(sb, count) == l.dict(sb, count-1) {
		count--
	}
	if count == 1 && l.dict(sb, 1) == 0 {
		count = 0
	}
	l.setCount(count)
}

// Split partitions l into itself (left) and dest (right, freshly
// created), returning dest's base inum: the key the parent index must
// insert for the new leaf.
//
// The cut point is the first slot whose cumulative end-offset reaches
// blocksize/2 + fudge; fudge biases the split away from the midpoint,
// so ties on the threshold keep more data on the left. Everything
// from that offset up is copied verbatim into dest with the
// dictionary re-based, the left side is truncated, its vacated bytes
// zeroed, and trailing empty slots trimmed.
func (l Ileaf) Split(sb *Super, dest Ileaf, fudge int) Inum {
	common.Assert(l.Sniff(sb), "ileaf: split on foreign buffer")
	count := l.Count()
	common.Assert(count > 0, "ileaf: split of empty leaf")

	target := sb.BlockSize()/2 + fudge
	at, hi := 1, count
	for at < hi {
		mid := (at + hi) / 2
		if l.dict(sb, mid) < target {
			at = mid + 1
		} else {
			hi = mid
		}
	}

	split, used := l.dict(sb, at), l.dict(sb, count)
	common.Assert(used >= split, "ileaf: split point %d past used %d", split, used)
	copy(dest.table()[:used-split], l.table()[split:used])
	dest.setCount(count - at)
	for i := 1; i <= count-at; i++ {
		dest.setDict(sb, i, l.dict(sb, at+i)-split)
	}
	dest.setIbase(l.Ibase() + Inum(at))

	l.setCount(at)
	vacated := l.table()[split : sb.BlockSize()-ileafHeaderSize-dictEntrySize*at]
	for i := range vacated {
		vacated[i] = 0
	}
	l.Trim(sb)
	return dest.Ibase()
}

// Merge appends all of from's records and slots onto l. The caller
// guarantees the two leaves are adjacent in inum space and that the
// combined table fits; from is left untouched and is the caller's to
// discard.
func (l Ileaf) Merge(sb *Super, from Ileaf) {
	if from.Count() == 0 {
		return
	}
	common.Verify(func() {
		common.Assert(l.Ibase()+Inum(l.Count()) == from.Ibase(),
			"ileaf: merge of non-adjacent leaves (%d+%d vs %d)", l.Ibase(), l.Count(), from.Ibase())
		total := l.Used(sb) + from.Used(sb)
		slots := l.Count() + from.Count()
		common.Assert(ileafHeaderSize+total+dictEntrySize*slots <= sb.BlockSize(),
			"ileaf: merge overflows block (%d bytes, %d slots)", total, slots)
	})

	at, prev := l.Count(), l.Used(sb)
	size := from.Used(sb)
	copy(l.table()[prev:prev+size], from.table()[:size])
	for i := 1; i <= from.Count(); i++ {
		l.setDict(sb, at+i, from.dict(sb, i)+prev)
	}
	l.setCount(at + from.Count())
}

// Expand reserves more bytes for inum's record and returns the region
// the caller writes them into, immediately after the record's current
// bytes. A slot not yet materialized is created, along with every
// intervening one as an empty record, which is what keeps direct
// slot addressing dense while inums arrive sparsely. Records of later
// inums shift right in one overlap-safe move; earlier ones never move.
func (l Ileaf) Expand(sb *Super, inum Inum, more int) []byte {
	common.Assert(l.Sniff(sb), "ileaf: expand on foreign buffer")
	common.Assert(inum > l.Ibase(), "ileaf: expand inum %d at or below base %d", inum, l.Ibase())
	at := int(inum - l.Ibase())
	common.Assert(at <= maxSlots(sb), "ileaf: expand slot %d past dictionary capacity %d", at, maxSlots(sb))

	// Materialize empty slots up through at.
	count := l.Count()
	for count < at {
		l.setDict(sb, count+1, l.dict(sb, count))
		count++
	}
	l.setCount(count)

	used := l.dict(sb, count)
	offset := l.dict(sb, at-1)
	size := l.dict(sb, at) - offset
	common.Verify(func() {
		common.Assert(ileafHeaderSize+used+more+dictEntrySize*count <= sb.BlockSize(),
			"ileaf: expand by %d overflows block (%d used, %d slots)", more, used, count)
	})
	for i := at; i <= count; i++ {
		l.setDict(sb, i, l.dict(sb, i)+more)
	}
	// copy has memmove semantics, so shifting the tail right in place
	// is safe.
	tail := l.table()[offset+size : used]
	copy(l.table()[offset+size+more:used+more], tail)
	return l.table()[offset+size : offset+size+more]
}

// Append is the convenience on top of Expand: reserve more bytes for
// inum and fill them with a constant byte.
func (l Ileaf) Append(sb *Super, inum Inum, more int, fill byte) {
	where := l.Expand(sb, inum, more)
	for i := range where {
		where[i] = fill
	}
}
