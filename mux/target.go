package mux

import (
	"bytes"
	"sync"
)

// BufferTarget collects the engine output in memory.
type BufferTarget struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func NewBufferTarget() *BufferTarget {
	return &BufferTarget{}
}

func (t *BufferTarget) Write(p []byte) (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.buf.Write(p)
}

// Bytes returns a copy of everything written so far.
func (t *BufferTarget) Bytes() []byte {
	t.lock.Lock()
	defer t.lock.Unlock()
	return bytes.Clone(t.buf.Bytes())
}

func (t *BufferTarget) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.buf.Len()
}
