package logging

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts zerolog to Logger. Key–value args become JSON fields.
type ZerologLogger struct {
	l zerolog.Logger
}

func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{l: l}
}

// NewJSONZerologLogger writes timestamped JSON lines to w.
func NewJSONZerologLogger(w io.Writer) *ZerologLogger {
	return NewZerologLogger(zerolog.New(w).With().Timestamp().Logger())
}

func (z *ZerologLogger) Debug(ctx context.Context, msg string, args ...any) {
	z.log(ctx, z.l.Debug(), msg, args)
}

func (z *ZerologLogger) Info(ctx context.Context, msg string, args ...any) {
	z.log(ctx, z.l.Info(), msg, args)
}

func (z *ZerologLogger) Warn(ctx context.Context, msg string, args ...any) {
	z.log(ctx, z.l.Warn(), msg, args)
}

func (z *ZerologLogger) Error(ctx context.Context, msg string, args ...any) {
	z.log(ctx, z.l.Error(), msg, args)
}

func (z *ZerologLogger) With(args ...any) Logger {
	return &ZerologLogger{l: z.l.With().Fields(args).Logger()}
}

func (z *ZerologLogger) log(ctx context.Context, e *zerolog.Event, msg string, args []any) {
	if len(args) > 0 {
		e = e.Fields(args)
	}
	e.Ctx(ctx).Msg(msg)
}
