package tux3

import "testing"

func TestFreelistPopMinOrder(t *testing.T) {
	fl := NewFreelist()
	for _, bn := range []Blockno{9, 2, 7, 4, 11, 1} {
		fl.Insert(bn)
	}
	if fl.Size() != 6 {
		t.Fatalf("size = %d, want 6", fl.Size())
	}

	want := []Blockno{1, 2, 4, 7, 9, 11}
	for _, w := range want {
		bn, ok := fl.PopMin()
		if !ok || bn != w {
			t.Fatalf("PopMin = %d,%v, want %d", bn, ok, w)
		}
	}
	if _, ok := fl.PopMin(); ok {
		t.Fatal("PopMin on empty freelist returned a block")
	}
}

func TestFreelistDuplicateInsert(t *testing.T) {
	fl := NewFreelist()
	fl.Insert(5)
	fl.Insert(5)
	if fl.Size() != 1 {
		t.Fatalf("size after duplicate insert = %d, want 1", fl.Size())
	}
	if !fl.Contains(5) {
		t.Fatal("freelist lost block 5")
	}
	if fl.Contains(6) {
		t.Fatal("freelist claims block it never saw")
	}
}
