package di_test

import (
	"context"
	"maps"

	"github.com/goliatone/go-catalog/pkg/interfaces"
)

// recordingProvider captures every entry written through the catalog
// module loggers so wiring tests can assert on events and fields.
type recordingProvider struct {
	entries []recordedEntry
}

type recordedEntry struct {
	logger string
	level  string
	msg    string
	fields map[string]any
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{}
}

func (p *recordingProvider) GetLogger(name string) interfaces.Logger {
	return &recordingLogger{provider: p, name: name, fields: map[string]any{}}
}

func (p *recordingProvider) find(msg string) *recordedEntry {
	for i := range p.entries {
		if p.entries[i].msg == msg {
			return &p.entries[i]
		}
	}
	return nil
}

type recordingLogger struct {
	provider *recordingProvider
	name     string
	fields   map[string]any
}

func (l *recordingLogger) Trace(msg string, args ...any) { l.log("trace", msg, args) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.log("fatal", msg, args) }

func (l *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := maps.Clone(l.fields)
	maps.Copy(merged, fields)
	return &recordingLogger{provider: l.provider, name: l.name, fields: merged}
}

func (l *recordingLogger) WithContext(context.Context) interfaces.Logger { return l }

func (l *recordingLogger) log(level, msg string, args []any) {
	fields := maps.Clone(l.fields)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok && key != "" {
			fields[key] = args[i+1]
		}
	}
	l.provider.entries = append(l.provider.entries, recordedEntry{
		logger: l.name,
		level:  level,
		msg:    msg,
		fields: fields,
	})
}
