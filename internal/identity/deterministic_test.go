package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUUIDIsDeterministic(t *testing.T) {
	a := ProductUUID("guru-ai")
	b := ProductUUID(" guru-ai ")
	if a == uuid.Nil || a != b {
		t.Fatalf("expected stable ids, got %s and %s", a, b)
	}
	if ProductUUID("other") == a {
		t.Fatal("expected distinct ids for distinct keys")
	}
	if UUID("  ") != uuid.Nil {
		t.Fatal("expected nil uuid for blank key")
	}
}

func TestDocUUIDSeparatesStates(t *testing.T) {
	draft := DocUUID("productDoc", "p1", "en", "draft")
	published := DocUUID("productDoc", "p1", "en", "published")
	if draft == published {
		t.Fatal("expected draft and published rows to have separate ids")
	}
}

func TestSequentialUUIDIsOrdered(t *testing.T) {
	now := time.Now()
	first := SequentialUUID(now)
	second := SequentialUUID(now)
	third := SequentialUUID(now.Add(time.Second))
	if first.String() >= second.String() || second.String() >= third.String() {
		t.Fatalf("expected increasing ids, got %s, %s, %s", first, second, third)
	}
}
