package mesh

import "math/bits"

// Pool recycles mesh buffers LIFO, keyed by vertex-byte capacity class
// rather than chunk identity. Accessed only on the main context.
type Pool struct {
	free map[int][]*Buffer
}

func NewPool() *Pool {
	return &Pool{free: map[int][]*Buffer{}}
}

// capClass buckets a byte capacity into its power-of-two size class.
func capClass(c int) int {
	if c <= 0 {
		return 0
	}
	return bits.Len(uint(c - 1))
}

// Get returns a reset buffer whose vertex capacity class covers hint bytes.
func (p *Pool) Get(hint int) *Buffer {
	cls := capClass(hint)
	for c := cls; c < cls+2; c++ {
		if stack := p.free[c]; len(stack) > 0 {
			b := stack[len(stack)-1]
			p.free[c] = stack[:len(stack)-1]
			b.Reset()
			return b
		}
	}
	return &Buffer{
		Verts:   make([]byte, 0, 1<<uint(cls)),
		Indices: make([]byte, 0, (1<<uint(cls))/2),
	}
}

// Put recycles a buffer.
func (p *Pool) Put(b *Buffer) {
	if b == nil {
		return
	}
	cls := capClass(cap(b.Verts))
	p.free[cls] = append(p.free[cls], b)
}
