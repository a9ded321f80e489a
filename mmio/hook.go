package mmio

import "sync"

// HookPos names the point at which a hook is invoked.
type HookPos struct {
	Name string
}

// HookPosRead triggers after a register has been read.
var HookPosRead = &HookPos{Name: "Read"}

// HookPosWrite triggers after a register has been written.
var HookPosWrite = &HookPos{Name: "Write"}

// HookCtx carries the information about the site that triggered a hook.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   Access
	Err    error
}

// Hook is a piece of code invoked by a Hookable.
type Hook interface {
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// Hookable is an object that accepts hooks.
type Hookable interface {
	AcceptHook(hook Hook)
	NumHooks() int
}

// HookableBase implements Hookable and can be embedded.
type HookableBase struct {
	lock  sync.RWMutex
	hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.hooks = append(h.hooks, hook)
}

// NumHooks returns the number of registered hooks.
func (h *HookableBase) NumHooks() int {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return len(h.hooks)
}

// InvokeHook triggers every registered hook in registration order.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	h.lock.RLock()
	hooks := h.hooks
	h.lock.RUnlock()

	for _, hook := range hooks {
		hook.Func(ctx)
	}
}

// Hooked wraps a Transport and reports every access to its hooks.
type Hooked struct {
	HookableBase

	name  string
	inner Transport
}

// NewHooked wraps inner.
func NewHooked(name string, inner Transport) *Hooked {
	return &Hooked{name: name, inner: inner}
}

// Name returns the name given at construction.
func (t *Hooked) Name() string {
	return t.name
}

// Inner returns the wrapped transport.
func (t *Hooked) Inner() Transport {
	return t.inner
}

func (t *Hooked) report(pos *HookPos, a Access, err error) {
	if t.NumHooks() == 0 {
		return
	}

	t.InvokeHook(HookCtx{Domain: t, Pos: pos, Item: a, Err: err})
}

// Read32 reads through the wrapped transport.
func (t *Hooked) Read32(addr uint64) (uint32, error) {
	v, err := t.inner.Read32(addr)
	t.report(HookPosRead, Access{Read, addr, 32, uint64(v)}, err)

	return v, err
}

// Read64 reads through the wrapped transport.
func (t *Hooked) Read64(addr uint64) (uint64, error) {
	v, err := t.inner.Read64(addr)
	t.report(HookPosRead, Access{Read, addr, 64, v}, err)

	return v, err
}

// Write32 writes through the wrapped transport.
func (t *Hooked) Write32(addr uint64, value uint32) error {
	err := t.inner.Write32(addr, value)
	t.report(HookPosWrite, Access{Write, addr, 32, uint64(value)}, err)

	return err
}

// Write64 writes through the wrapped transport.
func (t *Hooked) Write64(addr uint64, value uint64) error {
	err := t.inner.Write64(addr, value)
	t.report(HookPosWrite, Access{Write, addr, 64, value}, err)

	return err
}
