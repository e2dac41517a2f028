package audit

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-catalog/internal/store"
	"github.com/goliatone/go-catalog/pkg/interfaces"
)

const activityChannel = "catalog"

// ActivityBridge mirrors audit entries into a go-users activity sink.
type ActivityBridge struct {
	Sink interfaces.ActivitySink
}

var _ Sink = ActivityBridge{}

// Forward maps the entry to an activity record. Actor ids that are not
// UUIDs are kept in the record data.
func (b ActivityBridge) Forward(ctx context.Context, entry *store.AuditEntry) error {
	if b.Sink == nil || entry == nil {
		return nil
	}
	data := map[string]any{
		"action": entry.Action,
		"diff":   entry.Diff,
	}
	record := interfaces.ActivityRecord{
		Verb:       verb(entry.Action),
		ObjectType: entry.EntityType,
		ObjectID:   entry.EntityID,
		Channel:    activityChannel,
		OccurredAt: entry.CreatedAt,
		Data:       data,
	}
	if entry.ActorID != nil {
		if id, err := uuid.Parse(*entry.ActorID); err == nil {
			record.ActorID = id
		} else {
			data["actor"] = *entry.ActorID
		}
	}
	if entry.Locale != nil {
		data["locale"] = *entry.Locale
	}
	return b.Sink.Log(ctx, record)
}

// verb keeps the last dotted segment, so productDoc.draft.upsert becomes upsert.
func verb(action string) string {
	if idx := strings.LastIndex(action, "."); idx >= 0 {
		return action[idx+1:]
	}
	return action
}
