package buffer

import "sync"

// Pool recycles Buffers between transforms. A buffer taken from the pool is
// owned by one call and must be returned before that call's result leaves
// the engine.
type Pool struct {
	free sync.Pool
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	p := &Pool{}
	p.free.New = func() any { return new(Buffer) }
	return p
}

func (p *Pool) take() *Buffer {
	return p.free.Get().(*Buffer)
}

// Get returns a zeroed Buffer of the requested length.
func (p *Pool) Get(length int) *Buffer {
	b := p.take()
	b.Resize(length)
	b.Zero()
	return b
}

// Load returns a Buffer holding a widened copy of src.
func (p *Pool) Load(src []float32) *Buffer {
	b := p.take()
	b.LoadFloat32(src)
	return b
}

// Put hands b back. It must not be used afterwards. A nil b is ignored.
func (p *Pool) Put(b *Buffer) {
	if b != nil {
		p.free.Put(b)
	}
}
