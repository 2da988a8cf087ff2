// Package mempool pools the per-page scratch planes of region detection.
// A 300 DPI A4 page is several million pixels, and concurrent page workers
// would otherwise allocate fresh planes for every page.
package mempool

import (
	"sync"
)

// classStep is the granularity of size classes.
const classStep = 1024

// sizeClass rounds n up to the next multiple of classStep, with classStep as minimum.
func sizeClass(n int) int {
	if n <= classStep {
		return classStep
	}
	return (n + classStep - 1) / classStep * classStep
}

// Pool hands out zeroed slices of T, bucketed by size class.
type Pool[T any] struct {
	classes sync.Map // size class -> *sync.Pool
}

func (p *Pool[T]) pool(cls int) *sync.Pool {
	if sp, ok := p.classes.Load(cls); ok {
		return sp.(*sync.Pool)
	}
	sp, _ := p.classes.LoadOrStore(cls, &sync.Pool{New: func() any {
		buf := make([]T, cls)
		return &buf
	}})
	return sp.(*sync.Pool)
}

// Get returns a zeroed slice of length n. Return it with Put when done.
func (p *Pool[T]) Get(n int) []T {
	if n < 0 {
		n = 0
	}
	cls := sizeClass(n)
	bufp, _ := p.pool(cls).Get().(*[]T)
	if bufp == nil || cap(*bufp) < cls {
		buf := make([]T, cls)
		return buf[:n]
	}
	buf := (*bufp)[:n]
	clear(buf)
	return buf
}

// Put returns buf to the pool. Nil and foreign-sized slices are dropped.
func (p *Pool[T]) Put(buf []T) {
	if buf == nil || cap(buf) < classStep || cap(buf)%classStep != 0 {
		return
	}
	buf = buf[:cap(buf)]
	p.pool(cap(buf)).Put(&buf)
}

var (
	float64s Pool[float64]
	uint8s   Pool[uint8]
)

// GetFloat64 returns a zeroed []float64 of length n.
func GetFloat64(n int) []float64 { return float64s.Get(n) }

// PutFloat64 returns a buffer obtained from GetFloat64.
func PutFloat64(buf []float64) { float64s.Put(buf) }

// GetUint8 returns a zeroed []uint8 of length n.
func GetUint8(n int) []uint8 { return uint8s.Get(n) }

// PutUint8 returns a buffer obtained from GetUint8.
func PutUint8(buf []uint8) { uint8s.Put(buf) }
