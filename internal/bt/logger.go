package bt

// Logger provides structured logging for the service layer.
// The args follow slog conventions: alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger is a Logger that discards all output. Use in tests.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}

// LoggerWith returns a Logger that prefixes every line's args with args.
// A nil logger yields a NopLogger.
func LoggerWith(l Logger, args ...any) Logger {
	if l == nil {
		return NewNopLogger()
	}
	if len(args) == 0 {
		return l
	}
	if b, ok := l.(*boundLogger); ok {
		return &boundLogger{l: b.l, args: append(append([]any{}, b.args...), args...)}
	}
	return &boundLogger{l: l, args: args}
}

type boundLogger struct {
	l    Logger
	args []any
}

func (b *boundLogger) with(args []any) []any {
	return append(append(make([]any, 0, len(b.args)+len(args)), b.args...), args...)
}

func (b *boundLogger) Debug(msg string, args ...any) { b.l.Debug(msg, b.with(args)...) }
func (b *boundLogger) Info(msg string, args ...any)  { b.l.Info(msg, b.with(args)...) }
func (b *boundLogger) Warn(msg string, args ...any)  { b.l.Warn(msg, b.with(args)...) }
func (b *boundLogger) Error(msg string, args ...any) { b.l.Error(msg, b.with(args)...) }
