package gologger

import (
	"context"
	"fmt"
	"maps"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

const defaultService = "go-catalog"

// Config selects how catalog loggers are rendered by go-logger.
type Config struct {
	Service   string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Provider hands out go-logger children as catalog loggers. Every entry
// carries the service field.
type Provider struct {
	root    *glog.BaseLogger
	service string
}

func NewProvider(cfg Config) (*Provider, error) {
	var options []glog.Option

	if strings.TrimSpace(cfg.Level) != "" {
		level, ok := parseLevel(cfg.Level)
		if !ok {
			return nil, fmt.Errorf("logging: unsupported go-logger level %q", cfg.Level)
		}
		options = append(options, glog.WithLevel(level))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "json":
		options = append(options, glog.WithLoggerTypeJSON())
	case "console":
		options = append(options, glog.WithLoggerTypeConsole())
	case "pretty":
		options = append(options, glog.WithLoggerTypePretty())
	default:
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", cfg.Format)
	}
	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	root := glog.NewLogger(options...)
	if focus := cleanNames(cfg.Focus); len(focus) > 0 {
		root.Focus(focus...)
	}

	service := strings.TrimSpace(cfg.Service)
	if service == "" {
		service = defaultService
	}
	return &Provider{root: root, service: service}, nil
}

// GetLogger returns the child for a catalog module (catalog.products,
// catalog.batch, ...). An empty name yields the root.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	var inner glog.Logger = p.root
	if name = strings.TrimSpace(name); name != "" {
		inner = p.root.GetLogger(name)
	}
	return logging.WithFields(wrap(inner), map[string]any{"service": p.service})
}

func wrap(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &adapter{inner: inner}
}

type adapter struct {
	inner glog.Logger
}

func (l *adapter) Trace(msg string, args ...any) { l.inner.Trace(msg, args...) }
func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, args...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, args...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, args...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, args...) }
func (l *adapter) Fatal(msg string, args ...any) { l.inner.Fatal(msg, args...) }

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	with, ok := l.inner.(glog.FieldsLogger)
	if !ok {
		return l
	}
	return wrap(with.WithFields(maps.Clone(fields)))
}

// WithContext binds ctx and lifts the fields stored with
// logging.ContextWithFields (batch index, actor, entity) onto the logger.
func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	return logging.WithFields(wrap(l.inner.WithContext(ctx)), logging.ContextFields(ctx))
}

func parseLevel(level string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return glog.Trace, true
	case "debug":
		return glog.Debug, true
	case "info":
		return glog.Info, true
	case "warn", "warning":
		return glog.Warn, true
	case "error":
		return glog.Error, true
	case "fatal":
		return glog.Fatal, true
	}
	return "", false
}

func cleanNames(names []string) []string {
	var out []string
	for _, name := range names {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
