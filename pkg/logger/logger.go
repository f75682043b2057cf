package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config selects level, encoding and destination of the log stream.
type Config struct {
	Level      string // debug, info, warn or error
	Format     string // json or console
	Output     string // stdout, stderr or a file path
	TimeFormat string
	Service    string // added to every entry when set
}

// Logger is a thin structured front over zerolog.
type Logger struct {
	zl zerolog.Logger
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	out, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	zctx := zerolog.New(out).Level(level).With().Timestamp().CallerWithSkipFrameCount(3)
	if cfg.Service != "" {
		zctx = zctx.Str("service", cfg.Service)
	}
	return &Logger{zl: zctx.Logger()}, nil
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger carrying fields on every entry.
func (l *Logger) With(fields ...Field) *Logger {
	zctx := l.zl.With()
	for _, f := range fields {
		zctx = f.context(zctx)
	}
	return &Logger{zl: zctx.Logger()}
}

func (l *Logger) Debug(msg string, fields ...Field) { write(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { write(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { write(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { write(l.zl.Error(), msg, fields) }

func write(ev *zerolog.Event, msg string, fields []Field) {
	if ev == nil {
		return
	}
	for _, f := range fields {
		f.event(ev)
	}
	ev.Msg(msg)
}

type fieldKind uint8

const (
	kindString fieldKind = iota
	kindStrings
	kindInt
	kindInt64
	kindFloat
	kindBool
	kindDuration
	kindError
	kindAny
)

// Field is one typed key/value pair of a log entry.
type Field struct {
	key  string
	kind fieldKind
	str  string
	num  int64
	flt  float64
	val  interface{}
}

func (f Field) event(ev *zerolog.Event) {
	switch f.kind {
	case kindString:
		ev.Str(f.key, f.str)
	case kindStrings:
		strs, _ := f.val.([]string)
		ev.Strs(f.key, strs)
	case kindInt, kindInt64:
		ev.Int64(f.key, f.num)
	case kindFloat:
		ev.Float64(f.key, f.flt)
	case kindBool:
		ev.Bool(f.key, f.num != 0)
	case kindDuration:
		ev.Dur(f.key, time.Duration(f.num))
	case kindError:
		ev.Err(errValue(f.val))
	default:
		ev.Interface(f.key, f.val)
	}
}

func (f Field) context(c zerolog.Context) zerolog.Context {
	switch f.kind {
	case kindString:
		return c.Str(f.key, f.str)
	case kindStrings:
		strs, _ := f.val.([]string)
		return c.Strs(f.key, strs)
	case kindInt, kindInt64:
		return c.Int64(f.key, f.num)
	case kindFloat:
		return c.Float64(f.key, f.flt)
	case kindBool:
		return c.Bool(f.key, f.num != 0)
	case kindDuration:
		return c.Dur(f.key, time.Duration(f.num))
	case kindError:
		return c.Err(errValue(f.val))
	default:
		return c.Interface(f.key, f.val)
	}
}

func errValue(v interface{}) error {
	err, _ := v.(error)
	return err
}

func String(key, value string) Field { return Field{key: key, kind: kindString, str: value} }

func Strings(key string, value []string) Field { return Field{key: key, kind: kindStrings, val: value} }

func Int(key string, value int) Field { return Field{key: key, kind: kindInt, num: int64(value)} }

func Int64(key string, value int64) Field { return Field{key: key, kind: kindInt64, num: value} }

func Float64(key string, value float64) Field { return Field{key: key, kind: kindFloat, flt: value} }

func Bool(key string, value bool) Field {
	f := Field{key: key, kind: kindBool}
	if value {
		f.num = 1
	}
	return f
}

// Duration is written in milliseconds.
func Duration(key string, value time.Duration) Field {
	return Field{key: key, kind: kindDuration, num: int64(value)}
}

func Error(err error) Field { return Field{kind: kindError, val: err} }

func Any(key string, value interface{}) Field { return Field{key: key, kind: kindAny, val: value} }
