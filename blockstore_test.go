package tux3

import (
	"bytes"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T, dir, codec string) *BlockStore {
	t.Helper()
	bs, err := NewBlockStore(dir, 4096, codec, true)
	if err != nil {
		t.Fatalf("NewBlockStore: %v", err)
	}
	return bs
}

func TestBlockStoreRoundTrip(t *testing.T) {
	for _, codec := range []string{"direct", "snappy", "zstd"} {
		t.Run(codec, func(t *testing.T) {
			dir := t.TempDir()
			bs := newTestStore(t, dir, codec)

			compressible := bytes.Repeat([]byte("tux3"), 1024)
			random := make([]byte, 4096)
			rnd := rand.New(rand.NewSource(1))
			rnd.Read(random)

			bn0, buf0, err := bs.Allocate()
			if err != nil {
				t.Fatalf("Allocate: %v", err)
			}
			copy(buf0, compressible)
			bn1, buf1, err := bs.Allocate()
			if err != nil {
				t.Fatalf("Allocate: %v", err)
			}
			copy(buf1, random) // defeats compression, exercises the raw fallback

			if err := bs.Flush(); err != nil {
				t.Fatalf("Flush: %v", err)
			}
			if err := bs.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			bs = newTestStore(t, dir, codec)
			defer bs.Close()
			got0, err := bs.ReadBlock(bn0)
			if err != nil {
				t.Fatalf("ReadBlock(%d): %v", bn0, err)
			}
			if !bytes.Equal(got0, compressible) {
				t.Fatalf("block %d changed across reopen", bn0)
			}
			got1, err := bs.ReadBlock(bn1)
			if err != nil {
				t.Fatalf("ReadBlock(%d): %v", bn1, err)
			}
			if !bytes.Equal(got1, random) {
				t.Fatalf("block %d changed across reopen", bn1)
			}

			// The reopened store must keep allocating past existing slots.
			bn2, _, err := bs.Allocate()
			if err != nil {
				t.Fatalf("Allocate after reopen: %v", err)
			}
			if bn2 != bn1+1 {
				t.Fatalf("allocate after reopen = %d, want %d", bn2, bn1+1)
			}
		})
	}
}

func TestBlockStoreRecycle(t *testing.T) {
	bs := newTestStore(t, t.TempDir(), "direct")
	defer bs.Close()

	var blocknos []Blockno
	for i := 0; i < 3; i++ {
		bn, _, err := bs.Allocate()
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		blocknos = append(blocknos, bn)
	}
	bs.Release(blocknos[1])
	bs.Release(blocknos[0])

	bn, _, err := bs.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if bn != blocknos[0] {
		t.Fatalf("recycled %d, want lowest freed %d", bn, blocknos[0])
	}
}

func TestBlockStoreChecksum(t *testing.T) {
	dir := t.TempDir()
	bs := newTestStore(t, dir, "direct")

	bn, buf, err := bs.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	copy(buf, bytes.Repeat([]byte{0xab}, 4096))
	if err := bs.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := bs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Flip one payload byte behind the store's back.
	path := filepath.Join(dir, blockFileName)
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		t.Fatalf("open block file: %v", err)
	}
	if _, err := f.WriteAt([]byte{0xcd}, int64(bn)*int64(blockTrailerSize+4096)+blockTrailerSize+100); err != nil {
		t.Fatalf("corrupt block file: %v", err)
	}
	_ = f.Close()

	bs = newTestStore(t, dir, "direct")
	defer bs.Close()
	if _, err := bs.ReadBlock(bn); !errors.Is(err, ErrBlockChecksum) {
		t.Fatalf("ReadBlock on corrupt slot = %v, want ErrBlockChecksum", err)
	}
}

func TestBlockStorePreload(t *testing.T) {
	dir := t.TempDir()
	bs := newTestStore(t, dir, "snappy")

	const n = 16
	blocknos := make([]Blockno, 0, n)
	for i := 0; i < n; i++ {
		bn, buf, err := bs.Allocate()
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		copy(buf, bytes.Repeat([]byte{byte(i + 1)}, 4096))
		blocknos = append(blocknos, bn)
	}
	if err := bs.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := bs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	bs = newTestStore(t, dir, "snappy")
	defer bs.Close()
	if err := bs.Preload(blocknos); err != nil {
		t.Fatalf("Preload: %v", err)
	}
	for i, bn := range blocknos {
		buf, ok := bs.Buffer(bn)
		if !ok {
			t.Fatalf("block %d not pinned after preload", bn)
		}
		if !bytes.Equal(buf, bytes.Repeat([]byte{byte(i + 1)}, 4096)) {
			t.Fatalf("block %d content wrong after preload", bn)
		}
	}
}

// Leaves created straight out of the store survive write-back and
// reopen.
func TestBlockStoreLeafPersistence(t *testing.T) {
	dir := t.TempDir()
	bs := newTestStore(t, dir, "zstd")
	sb := NewSuper(bs.BlockSize(), bs)

	bn, buf, err := bs.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	leaf := Ileaf(buf)
	leaf.Init(sb)
	leaf.Append(sb, 3, 2, 'a')
	leaf.Append(sb, 4, 4, 'b')
	leaf.Append(sb, 6, 6, 'c')
	bs.Dirty(bn)
	if err := bs.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := bs.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	bs = newTestStore(t, dir, "zstd")
	defer bs.Close()
	raw, err := bs.ReadBlock(bn)
	if err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	reloaded := Ileaf(raw)
	sb = NewSuper(bs.BlockSize(), bs)
	if !reloaded.Sniff(sb) {
		t.Fatal("reloaded block does not sniff as a leaf")
	}
	if err := reloaded.Check(sb); err != nil {
		t.Fatalf("reloaded leaf check: %v", err)
	}
	if got := reloaded.Lookup(sb, 6); !bytes.Equal(got, []byte("cccccc")) {
		t.Fatalf("lookup(6) after reload = %q, want cccccc", got)
	}
}
