package buffer

import "testing"

func TestPoolGetZeroed(t *testing.T) {
	p := NewPool()
	b := p.Get(4)
	for i := range b.Samples() {
		b.Samples()[i] = float64(i + 1)
	}
	p.Put(b)

	again := p.Get(4)
	for i, v := range again.Samples() {
		if v != 0 {
			t.Fatalf("Samples()[%d] = %v, want 0", i, v)
		}
	}
	p.Put(again)
}

func TestPoolLoad(t *testing.T) {
	p := NewPool()
	b := p.Load([]float32{1, -1})
	defer p.Put(b)
	if b.Len() != 2 || b.Samples()[0] != 1 || b.Samples()[1] != -1 {
		t.Fatalf("Load = %v", b.Samples())
	}
}

func TestPoolPutNil(t *testing.T) {
	p := NewPool()
	p.Put(nil)
}
