package socket

import (
	"runtime"
	"sync"

	"dominicbreuker/gosock/pkg/sockerr"
	"dominicbreuker/gosock/pkg/transport"
)

// handle is a provider handle shared by one impl and its two streams.
//
// Operations hold mu for reading while they use h; release takes it for
// writing, so the descriptor is never closed (and possibly reused by the
// kernel) underneath an in-flight call. Blocked calls must be woken by a
// shutdown before release can proceed.
type handle struct {
	provider transport.Provider
	h        transport.Handle

	mu       sync.RWMutex
	released bool
}

func newHandle(p transport.Provider, h transport.Handle) *handle {
	hd := &handle{provider: p, h: h}
	runtime.SetFinalizer(hd, (*handle).finalize)
	return hd
}

// do runs fn with the handle pinned. It fails with sockerr.ErrClosed once
// the handle was released.
func (hd *handle) do(op string, fn func(transport.Provider, transport.Handle) error) error {
	hd.mu.RLock()
	defer hd.mu.RUnlock()
	if hd.released {
		return sockerr.Closed(op)
	}
	return fn(hd.provider, hd.h)
}

// shutdown is like do but treats a released handle as already shut down.
func (hd *handle) shutdown(fn func(transport.Handle) error) error {
	hd.mu.RLock()
	defer hd.mu.RUnlock()
	if hd.released {
		return nil
	}
	return fn(hd.h)
}

// release closes the provider handle. Only the first call does anything.
func (hd *handle) release() (bool, error) {
	hd.mu.Lock()
	defer hd.mu.Unlock()
	if hd.released {
		return false, nil
	}
	hd.released = true
	runtime.SetFinalizer(hd, nil)
	return true, hd.provider.Close(hd.h)
}

// finalize releases a handle whose owner was dropped without Close.
func (hd *handle) finalize() {
	if !hd.released {
		hd.released = true
		hd.provider.Close(hd.h)
	}
}
