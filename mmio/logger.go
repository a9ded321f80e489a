package mmio

import (
	"fmt"

	"github.com/rs/zerolog"
)

// AccessLogger is a hook that logs every register access at debug level and
// failed accesses at error level.
type AccessLogger struct {
	log zerolog.Logger
}

// NewAccessLogger creates an AccessLogger writing to log.
func NewAccessLogger(log zerolog.Logger) *AccessLogger {
	return &AccessLogger{log: log}
}

// Func logs the access.
func (l *AccessLogger) Func(ctx HookCtx) {
	ev := l.log.Debug()
	if ctx.Err != nil {
		ev = l.log.Error().Err(ctx.Err)
	}

	if n, ok := ctx.Domain.(interface{ Name() string }); ok {
		ev = ev.Str("transport", n.Name())
	}

	ev.Str("op", ctx.Item.Kind.String()).
		Int("width", ctx.Item.Width).
		Str("addr", fmt.Sprintf("0x%04x", ctx.Item.Addr)).
		Uint64("value", ctx.Item.Value).
		Msg("register access")
}
