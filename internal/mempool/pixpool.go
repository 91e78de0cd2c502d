// Package mempool provides a sized pool for pixel buffers so the realtime
// path can copy every submitted frame without per-frame allocations.
package mempool

import (
	"sync"
)

var pixPools sync.Map // key: size class (int), value: *sync.Pool

// sizeClass rounds n up to a multiple of 64 KiB to reduce churn across
// slightly different frame sizes.
func sizeClass(n int) int {
	const step = 64 * 1024
	if n <= step {
		return step
	}
	r := (n + step - 1) / step
	return r * step
}

// GetPix retrieves a []uint8 buffer of at least n bytes from the pool.
// The returned slice has length n but may have larger capacity. The caller
// must return it via PutPix when done.
func GetPix(n int) []uint8 {
	cls := sizeClass(n)
	pAny, _ := pixPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]uint8, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return make([]uint8, n)
	}
	buf, ok := p.Get().([]uint8)
	if !ok || cap(buf) < n {
		buf = make([]uint8, cls)
	}
	return buf[:n]
}

// PutPix returns a buffer to the pool. It is safe to pass a nil slice.
func PutPix(buf []uint8) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	pAny, _ := pixPools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]uint8, cls) }})
	if p, ok := pAny.(*sync.Pool); ok {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck // SA6002: slice reuse is intentional
	}
}
