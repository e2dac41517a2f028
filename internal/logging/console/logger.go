// Package console writes logfmt-style lines to an io.Writer. It backs the
// CLI tools and tests when go-logger is not configured.
package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

// Level is an entry severity.
type Level uint8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "INFO"
}

// ParseLevel maps a configured level name to a Level. Unknown names
// return false.
func ParseLevel(name string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "fatal":
		return LevelFatal, true
	}
	return LevelInfo, false
}

// Options configures NewProvider. Zero values write to stdout at DEBUG.
type Options struct {
	Writer   io.Writer
	TimeFunc func() time.Time
	MinLevel *Level
}

type sink struct {
	mu    sync.Mutex
	w     io.Writer
	clock func() time.Time
	min   Level
}

// NewProvider returns a provider whose loggers share one writer.
func NewProvider(opts Options) interfaces.LoggerProvider {
	s := &sink{w: opts.Writer, clock: opts.TimeFunc, min: LevelDebug}
	if s.w == nil {
		s.w = os.Stdout
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if opts.MinLevel != nil {
		s.min = *opts.MinLevel
	}
	return s
}

func (s *sink) GetLogger(name string) interfaces.Logger {
	return &logger{sink: s, fields: map[string]any{"logger": name}}
}

type logger struct {
	sink   *sink
	fields map[string]any
	ctx    context.Context
}

var (
	_ interfaces.Logger       = (*logger)(nil)
	_ interfaces.FieldsLogger = (*logger)(nil)
)

func (l *logger) Trace(msg string, args ...any) { l.write(LevelTrace, msg, args) }
func (l *logger) Debug(msg string, args ...any) { l.write(LevelDebug, msg, args) }
func (l *logger) Info(msg string, args ...any)  { l.write(LevelInfo, msg, args) }
func (l *logger) Warn(msg string, args ...any)  { l.write(LevelWarn, msg, args) }
func (l *logger) Error(msg string, args ...any) { l.write(LevelError, msg, args) }
func (l *logger) Fatal(msg string, args ...any) { l.write(LevelFatal, msg, args) }

func (l *logger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	merged := maps.Clone(l.fields)
	maps.Copy(merged, fields)
	return &logger{sink: l.sink, fields: merged, ctx: l.ctx}
}

func (l *logger) WithContext(ctx context.Context) interfaces.Logger {
	return &logger{sink: l.sink, fields: l.fields, ctx: ctx}
}

func (l *logger) write(level Level, msg string, args []any) {
	if l.sink == nil || level < l.sink.min {
		return
	}
	fields := maps.Clone(l.fields)
	if fields == nil {
		fields = map[string]any{}
	}
	maps.Copy(fields, logging.ContextFields(l.ctx))
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fields[fmt.Sprintf("field_%d", i/2)] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = fmt.Sprintf("field_%d", i/2)
		}
		fields[key] = args[i+1]
	}
	line := encode(l.sink.clock().UTC(), level, msg, fields)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = io.WriteString(l.sink.w, line)
}

func encode(ts time.Time, level Level, msg string, fields map[string]any) string {
	var b strings.Builder
	b.WriteString(ts.Format(time.RFC3339Nano))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	b.WriteString(msg)

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(value(fields[key]))
	}
	b.WriteByte('\n')
	return b.String()
}

func value(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case error:
		return quote(x.Error())
	case fmt.Stringer:
		return quote(x.String())
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return quote(fmt.Sprint(x))
	}
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
