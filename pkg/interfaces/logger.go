package interfaces

import "context"

// Logger is what catalog services log through. Messages are dotted event
// names (products.create.success) and args are key/value pairs. The method
// set is the one github.com/goliatone/go-logger exposes.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider resolves module loggers such as catalog.products.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}
