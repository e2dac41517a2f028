// Package audit appends immutable audit rows for every catalog mutation.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-catalog/internal/identity"
	"github.com/goliatone/go-catalog/internal/logging"
	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

// Input describes one logical mutation.
type Input struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Locale     string
	Before     any
	After      any
}

// Writer builds diffs and appends audit rows.
type Writer struct {
	now    func() time.Time
	logger interfaces.Logger
	sinks  []Sink
}

// Sink receives audit entries after they are committed.
type Sink interface {
	Forward(ctx context.Context, entry *store.AuditEntry) error
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(w *Writer) {
		if clock != nil {
			w.now = clock
		}
	}
}

// WithLogger sets the logger used for sink failures.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithSink registers a sink notified after each append.
func WithSink(sink Sink) Option {
	return func(w *Writer) {
		if sink != nil {
			w.sinks = append(w.sinks, sink)
		}
	}
}

// NewWriter constructs a Writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Write appends one entry through repo. Pass the transactional repository
// so the audit row commits or rolls back with the mutation it describes.
// Sinks see the entry only after that transaction commits. Sink failures
// are logged and never fail the mutation.
func (w *Writer) Write(ctx context.Context, repo store.AuditRepository, in Input) (*store.AuditEntry, error) {
	if strings.TrimSpace(in.Action) == "" {
		return nil, fmt.Errorf("audit: action is required")
	}
	diff, err := BuildDiff(in.Before, in.After)
	if err != nil {
		return nil, fmt.Errorf("audit: build diff: %w", err)
	}
	now := w.now()
	entry := &store.AuditEntry{
		ID:         identity.SequentialUUID(now),
		ActorID:    optional(in.ActorID),
		Action:     in.Action,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		Locale:     optional(in.Locale),
		Diff:       diff,
		CreatedAt:  now,
	}
	if err := repo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("audit: append %s: %w", in.Action, err)
	}
	if len(w.sinks) > 0 {
		store.AfterCommit(ctx, func() { w.forward(context.WithoutCancel(ctx), entry) })
	}
	return entry, nil
}

func (w *Writer) forward(ctx context.Context, entry *store.AuditEntry) {
	for _, sink := range w.sinks {
		if err := sink.Forward(ctx, entry); err != nil {
			logging.WithFields(w.logger, map[string]any{
				"action":      entry.Action,
				"entity_type": entry.EntityType,
				"entity_id":   entry.EntityID,
			}).Warn("audit.sink.forward_failed", "error", err)
		}
	}
}

func optional(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
