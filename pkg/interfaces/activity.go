package interfaces

import (
	"context"

	usertypes "github.com/goliatone/go-users/pkg/types"
)

// ActivityRecord is the go-users record an audit entry is mirrored into.
// Verb carries the audit action (product.patch, collection.publish).
type ActivityRecord = usertypes.ActivityRecord

// ActivitySink receives one record per appended audit entry.
type ActivitySink interface {
	Log(ctx context.Context, record ActivityRecord) error
}

// ActivitySinkFunc adapts a function to ActivitySink.
type ActivitySinkFunc func(ctx context.Context, record ActivityRecord) error

func (f ActivitySinkFunc) Log(ctx context.Context, record ActivityRecord) error {
	return f(ctx, record)
}
