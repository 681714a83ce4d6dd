package tux3

import (
	"encoding/hex"
	"fmt"
	"io"
)

// Dump renders one line per slot: the inode number and its record
// bytes in hex, or <empty>, or <corrupt> when the dictionary shrinks
// there. Purely observational; a corrupt slot is reported, never
// faulted on.
func (l Ileaf) Dump(sb *Super, w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%d inodes, %d free:\n", l.Count(), l.Free(sb)); err != nil {
		return err
	}
	offset := 0
	for i := 1; i <= l.Count(); i++ {
		limit := l.dict(sb, i)
		size := limit - offset
		inum := l.Ibase() + Inum(i)
		var err error
		switch {
		case size < 0 || ileafHeaderSize+limit > sb.BlockSize():
			_, err = fmt.Fprintf(w, "  %d: <corrupt>\n", inum)
		case size == 0:
			_, err = fmt.Fprintf(w, "  %d: <empty>\n", inum)
		default:
			_, err = fmt.Fprintf(w, "  %d: %s\n", inum, hex.EncodeToString(l.table()[offset:limit]))
		}
		if err != nil {
			return err
		}
		offset = limit
	}
	return nil
}
