package datarecording

import (
	"fmt"
	"sync"
	"time"

	"github.com/sarchlab/mmiodrv/mmio"
)

// AccessTableName is the table AccessTracer writes to.
const AccessTableName = "register_access"

// AccessEntry is one row of the access table. Values are stored as hex
// strings since SQLite integers are signed.
type AccessEntry struct {
	Seq       int64
	Transport string
	Kind      string
	Width     int
	Addr      string
	Value     string
	Error     string
	Time      float64
}

// An AccessTracer is an mmio hook that records every access it sees.
type AccessTracer struct {
	lock     sync.Mutex
	recorder Recorder
	start    time.Time
	seq      int64
	lastErr  error
}

// NewAccessTracer creates the access table and returns a tracer writing to
// it.
func NewAccessTracer(r Recorder) (*AccessTracer, error) {
	if err := r.CreateTable(AccessTableName, AccessEntry{}); err != nil {
		return nil, err
	}

	return &AccessTracer{recorder: r, start: time.Now()}, nil
}

// Func implements mmio.Hook.
func (t *AccessTracer) Func(ctx mmio.HookCtx) {
	t.lock.Lock()
	defer t.lock.Unlock()

	entry := AccessEntry{
		Seq:   t.seq,
		Kind:  ctx.Item.Kind.String(),
		Width: ctx.Item.Width,
		Addr:  fmt.Sprintf("0x%04x", ctx.Item.Addr),
		Value: fmt.Sprintf("0x%x", ctx.Item.Value),
		Time:  time.Since(t.start).Seconds(),
	}

	if named, ok := ctx.Domain.(interface{ Name() string }); ok {
		entry.Transport = named.Name()
	}

	if ctx.Err != nil {
		entry.Error = ctx.Err.Error()
	}

	t.seq++

	if err := t.recorder.InsertData(AccessTableName, entry); err != nil {
		t.lastErr = err
	}
}

// Count returns the number of accesses seen.
func (t *AccessTracer) Count() int64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.seq
}

// Err returns the last error the recorder reported, if any.
func (t *AccessTracer) Err() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.lastErr
}
