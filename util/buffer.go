package util

// Buffer is a growable byte buffer whose Alloc hands out an in-place
// writable region, which is what filter generators want.
type Buffer struct {
	buf []byte
}

// Alloc grows the buffer by n bytes and returns the fresh region.
func (b *Buffer) Alloc(n int) []byte {
	at := len(b.buf)
	b.buf = append(b.buf, make([]byte, n)...)
	return b.buf[at:]
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *Buffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

func (b *Buffer) Bytes() []byte {
	return b.buf
}

func (b *Buffer) Len() int {
	return len(b.buf)
}

func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}
