package tux3

import (
	"math/rand"
	"time"
)

const (
	maxLevel    = 32
	probability = 0.25
)

// Freelist tracks released block numbers, ordered so allocation can
// always hand out the lowest free block and keep the block file
// compact. It is a skiplist keyed by block number; callers serialize
// access.
type Freelist struct {
	head    *freeNode
	level   int
	length  int
	randSrc *rand.Rand
}

func NewFreelist() *Freelist {
	src := rand.NewSource(time.Now().UnixNano())
	head := newFreeNode(0, maxLevel)
	return &Freelist{
		head:    head,
		level:   1,
		randSrc: rand.New(src),
	}
}

// Insert records blockno as free. Inserting a block that is already
// free is a no-op.
func (s *Freelist) Insert(blockno Blockno) {
	update := make([]*freeNode, maxLevel)
	current := s.head

	for i := s.level - 1; i >= 0; i-- {
		for current.forward[i] != nil && current.forward[i].blockno < blockno {
			current = current.forward[i]
		}
		update[i] = current
	}

	current = current.forward[0]
	if current != nil && current.blockno == blockno {
		return
	}

	newLevel := s.randomLevel()
	if newLevel > s.level {
		for i := s.level; i < newLevel; i++ {
			update[i] = s.head
		}
		s.level = newLevel
	}

	node := newFreeNode(blockno, newLevel)
	for i := 0; i < newLevel; i++ {
		node.forward[i] = update[i].forward[i]
		update[i].forward[i] = node
	}
	s.length++
}

// PopMin removes and returns the lowest free block number.
func (s *Freelist) PopMin() (Blockno, bool) {
	first := s.head.forward[0]
	if first == nil {
		return 0, false
	}
	for i := 0; i < s.level; i++ {
		if s.head.forward[i] != first {
			break
		}
		s.head.forward[i] = first.forward[i]
	}
	for s.level > 1 && s.head.forward[s.level-1] == nil {
		s.level--
	}
	s.length--
	return first.blockno, true
}

// Contains reports whether blockno is currently free.
func (s *Freelist) Contains(blockno Blockno) bool {
	current := s.head
	for i := s.level - 1; i >= 0; i-- {
		for current.forward[i] != nil && current.forward[i].blockno < blockno {
			current = current.forward[i]
		}
	}
	current = current.forward[0]
	return current != nil && current.blockno == blockno
}

func (s *Freelist) Size() int {
	return s.length
}

func (s *Freelist) randomLevel() int {
	level := 1
	for s.randSrc.Float64() < probability && level < maxLevel {
		level++
	}
	return level
}

type freeNode struct {
	blockno Blockno
	forward []*freeNode
}

func newFreeNode(blockno Blockno, level int) *freeNode {
	return &freeNode{
		blockno: blockno,
		forward: make([]*freeNode, level),
	}
}
