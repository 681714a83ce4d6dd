package tux3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/chaitanya0411/tux3/file"
	"github.com/chaitanya0411/tux3/internal/common"
	"github.com/chaitanya0411/tux3/internal/compress"
	"github.com/chaitanya0411/tux3/util/hasher"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"
)

// Blockno identifies one slot in the block file.
type Blockno uint64

// Per-slot trailer written ahead of the payload:
//
//	length u32 at 0: stored payload bytes
//	codec  u8  at 4: 0 raw, 1 configured compressor
//	       7 reserved bytes
//	sha1       at 12..32: digest of the raw block image
//
// Slot stride in the file is blockTrailerSize + block size, so slot
// offsets are pure multiplication as with any page file.
const (
	blockTrailerSize = 32

	codecRaw        = 0
	codecCompressed = 1

	blockFileName = "blocks"

	flushPools    = 4
	preloadLimit  = 8
	closePoolWait = time.Second
)

var ErrBlockChecksum = errors.New("block checksum mismatch")

// BlockStore is the block allocator and buffer layer behind a Super:
// fixed-size slots in one flock-guarded file, checksummed and
// optionally compressed per slot, with pooled write-back of dirty
// blocks. It satisfies Allocator, so leaves can be created straight
// out of it.
type BlockStore struct {
	bFile          *file.File
	path           string
	blockSize      int
	noSync         bool
	compressor     compress.Compressor
	compressEnable bool
	flushPool      *ants.MultiPoolWithFunc

	mu     sync.Mutex
	pinned map[Blockno]*pinnedBlock
	byAddr map[*byte]Blockno
	free   *Freelist
	next   Blockno
}

type pinnedBlock struct {
	buf   []byte
	dirty bool
}

type flushTask struct {
	bs      *BlockStore
	blockno Blockno
	buf     []byte
	errCh   chan<- error
}

func NewBlockStore(dir string, blockSize int, compressType string, noSync bool) (*BlockStore, error) {
	path := filepath.Join(dir, blockFileName)
	bFile, err := file.OpenFile(path, file.NewFLocker())
	if err != nil {
		return nil, fmt.Errorf("error opening block file %s: %w", path, err)
	}
	bs := &BlockStore{
		bFile:          bFile,
		path:           path,
		blockSize:      blockSize,
		noSync:         noSync,
		compressor:     compress.NewCompressor(compressType),
		compressEnable: compressType == "snappy" || compressType == "zstd",
		pinned:         make(map[Blockno]*pinnedBlock),
		byAddr:         make(map[*byte]Blockno),
		free:           NewFreelist(),
	}
	size, err := bFile.Size()
	if err != nil {
		_ = bFile.Close()
		return nil, fmt.Errorf("error sizing block file %s: %w", path, err)
	}
	// A compressed final slot ends short of its stride, so round up.
	bs.next = Blockno((size + int64(bs.slotSize()) - 1) / int64(bs.slotSize()))
	bs.flushPool, err = ants.NewMultiPoolWithFunc(flushPools, ants.DefaultAntsPoolSize, func(a any) {
		t := a.(*flushTask)
		t.errCh <- t.bs.writeBlock(t.blockno, t.buf)
	}, ants.RoundRobin)
	if err != nil {
		_ = bFile.Close()
		return nil, fmt.Errorf("error creating flush pool: %w", err)
	}
	return bs, nil
}

func (bs *BlockStore) BlockSize() int {
	return bs.blockSize
}

func (bs *BlockStore) slotSize() int {
	return blockTrailerSize + bs.blockSize
}

// Allocate pins a zeroed block, recycling the lowest freed slot
// before extending the file.
func (bs *BlockStore) Allocate() (Blockno, []byte, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	blockno, ok := bs.free.PopMin()
	if !ok {
		blockno = bs.next
		bs.next++
	}
	buf := make([]byte, bs.blockSize)
	bs.pin(blockno, buf, true)
	return blockno, buf, nil
}

// Release unpins blockno and returns its slot to the freelist. The
// on-disk bytes are left behind; reuse overwrites them.
func (bs *BlockStore) Release(blockno Blockno) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if pb, ok := bs.pinned[blockno]; ok {
		delete(bs.byAddr, &pb.buf[0])
		delete(bs.pinned, blockno)
	}
	bs.free.Insert(blockno)
}

// Dirty marks a pinned block for the next Flush.
func (bs *BlockStore) Dirty(blockno Blockno) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	pb, ok := bs.pinned[blockno]
	common.Assert(ok, "blockstore: dirty on unpinned block %d", blockno)
	pb.dirty = true
}

func (bs *BlockStore) pin(blockno Blockno, buf []byte, dirty bool) {
	bs.pinned[blockno] = &pinnedBlock{buf: buf, dirty: dirty}
	bs.byAddr[&buf[0]] = blockno
}

// AllocBlock and FreeBlock adapt the store to the leaf layer's
// Allocator contract, keyed back to slots by buffer identity.
func (bs *BlockStore) AllocBlock() ([]byte, error) {
	_, buf, err := bs.Allocate()
	return buf, err
}

func (bs *BlockStore) FreeBlock(buf []byte) {
	if len(buf) == 0 {
		return
	}
	bs.mu.Lock()
	blockno, ok := bs.byAddr[&buf[0]]
	bs.mu.Unlock()
	common.Assert(ok, "blockstore: free of foreign buffer")
	bs.Release(blockno)
}

// Flush writes every dirty pinned block back through the worker pool
// and syncs once at the end unless the store runs noSync.
func (bs *BlockStore) Flush() error {
	bs.mu.Lock()
	tasks := make([]*flushTask, 0, len(bs.pinned))
	errCh := make(chan error, len(bs.pinned))
	for blockno, pb := range bs.pinned {
		if pb.dirty {
			tasks = append(tasks, &flushTask{bs: bs, blockno: blockno, buf: pb.buf, errCh: errCh})
		}
	}
	bs.mu.Unlock()
	if len(tasks) == 0 {
		return nil
	}

	for _, t := range tasks {
		if err := bs.flushPool.Invoke(t); err != nil {
			errCh <- fmt.Errorf("error invoking flush task: %w", err)
		}
	}
	var firstErr error
	for range tasks {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return firstErr
	}

	bs.mu.Lock()
	for _, t := range tasks {
		if pb, ok := bs.pinned[t.blockno]; ok {
			pb.dirty = false
		}
	}
	bs.mu.Unlock()
	if bs.noSync {
		return nil
	}
	return bs.bFile.Sync()
}

func (bs *BlockStore) writeBlock(blockno Blockno, buf []byte) error {
	payload := buf
	codec := byte(codecRaw)
	if bs.compressEnable {
		if enc := bs.compressor.Encode(nil, buf); len(enc) < bs.blockSize {
			payload, codec = enc, codecCompressed
		}
	}
	h := hasher.NewHash()
	defer hasher.Return(h)
	digest, err := h.Hash(buf)
	if err != nil {
		return fmt.Errorf("error hashing block %d: %w", blockno, err)
	}

	slot := make([]byte, blockTrailerSize+len(payload))
	binary.LittleEndian.PutUint32(slot[0:4], uint32(len(payload)))
	slot[4] = codec
	copy(slot[12:32], digest)
	copy(slot[blockTrailerSize:], payload)

	offset := int64(blockno) * int64(bs.slotSize())
	n, err := bs.bFile.WriteAt(offset, slot)
	if err != nil {
		return fmt.Errorf("error writing block %d to %s: %w", blockno, bs.path, err)
	}
	if n != len(slot) {
		return fmt.Errorf("short write of block %d to %s: %d of %d", blockno, bs.path, n, len(slot))
	}
	return nil
}

// ReadBlock reads, decodes and verifies one block, pinning it clean.
func (bs *BlockStore) ReadBlock(blockno Blockno) ([]byte, error) {
	buf, err := bs.readBlock(blockno)
	if err != nil {
		return nil, err
	}
	bs.mu.Lock()
	bs.pin(blockno, buf, false)
	bs.mu.Unlock()
	return buf, nil
}

func (bs *BlockStore) readBlock(blockno Blockno) ([]byte, error) {
	offset := int64(blockno) * int64(bs.slotSize())
	trailer := make([]byte, blockTrailerSize)
	if _, err := bs.bFile.ReadAt(offset, trailer); err != nil {
		return nil, fmt.Errorf("error reading block %d trailer from %s: %w", blockno, bs.path, err)
	}
	length := int(binary.LittleEndian.Uint32(trailer[0:4]))
	if length > bs.blockSize {
		return nil, fmt.Errorf("block %d claims %d payload bytes, slot holds %d", blockno, length, bs.blockSize)
	}
	payload := make([]byte, length)
	if _, err := bs.bFile.ReadAt(offset+blockTrailerSize, payload); err != nil {
		return nil, fmt.Errorf("error reading block %d from %s: %w", blockno, bs.path, err)
	}

	buf := payload
	if trailer[4] == codecCompressed {
		var err error
		if buf, err = bs.compressor.Decode(nil, payload); err != nil {
			return nil, fmt.Errorf("error decoding block %d: %w", blockno, err)
		}
	}
	if len(buf) != bs.blockSize {
		return nil, fmt.Errorf("block %d decodes to %d bytes, want %d", blockno, len(buf), bs.blockSize)
	}

	h := hasher.NewHash()
	defer hasher.Return(h)
	digest, err := h.Hash(buf)
	if err != nil {
		return nil, fmt.Errorf("error hashing block %d: %w", blockno, err)
	}
	if !bytes.Equal(digest, trailer[12:32]) {
		return nil, fmt.Errorf("block %d: %w", blockno, ErrBlockChecksum)
	}
	return buf, nil
}

// Preload warms a set of blocks concurrently. Reads never race with
// mutations here: the blocks are being pinned for the first time.
func (bs *BlockStore) Preload(blocknos []Blockno) error {
	g := new(errgroup.Group)
	g.SetLimit(preloadLimit)
	for _, blockno := range blocknos {
		blockno := blockno
		g.Go(func() error {
			_, err := bs.ReadBlock(blockno)
			return err
		})
	}
	return g.Wait()
}

// Buffer returns the pinned buffer for blockno, if any.
func (bs *BlockStore) Buffer(blockno Blockno) ([]byte, bool) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	pb, ok := bs.pinned[blockno]
	if !ok {
		return nil, false
	}
	return pb.buf, true
}

func (bs *BlockStore) Close() error {
	if err := bs.Flush(); err != nil {
		return err
	}
	if err := bs.flushPool.ReleaseTimeout(closePoolWait); err != nil {
		return fmt.Errorf("error releasing flush pool: %w", err)
	}
	return bs.bFile.Close()
}
