package tux3

import (
	"encoding/binary"

	"github.com/chaitanya0411/tux3/filter"
	"github.com/chaitanya0411/tux3/util"
)

// Per-leaf membership filters. An index holding many leaves can keep
// one of these per leaf and skip reading blocks that cannot contain a
// given inode's data. Only inums with non-empty records are added:
// the filter answers the same question Lookup does.

func filterKey(inum Inum) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(inum))
	return key[:]
}

// LeafFilter builds f's filter data over the leaf's non-empty slots.
// Returns nil for a leaf with no data.
func (l Ileaf) LeafFilter(sb *Super, f filter.Filter) []byte {
	gen := f.NewGenerator()
	populated := 0
	for i := 1; i <= l.Count(); i++ {
		if l.dict(sb, i) > l.dict(sb, i-1) {
			gen.Add(filterKey(l.Ibase() + Inum(i)))
			populated++
		}
	}
	if populated == 0 {
		return nil
	}
	buf := &util.Buffer{}
	gen.Generate(buf)
	return buf.Bytes()
}

// FilterContains reports whether the filter data built by LeafFilter
// may contain inum. False positives are possible, false negatives are
// not.
func FilterContains(f filter.Filter, data []byte, inum Inum) bool {
	if len(data) == 0 {
		return false
	}
	return f.Contains(data, filterKey(inum))
}
