package identity

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// ProductUUID is the row id for a canonical product id.
func ProductUUID(canonicalID string) uuid.UUID {
	return UUID("go-catalog:product:" + strings.TrimSpace(canonicalID))
}

// DocUUID is the row id for one (kind, key, locale, state) document row.
func DocUUID(kind, key, locale, state string) uuid.UUID {
	return UUID("go-catalog:doc:" + kind + ":" + strings.TrimSpace(key) + ":" + locale + ":" + state)
}

// RedirectUUID is the row id for a (locale, fromPath) redirect.
func RedirectUUID(locale, fromPath string) uuid.UUID {
	return UUID("go-catalog:redirect:" + locale + ":" + fromPath)
}

// SlugUUID is the row id for a (locale, slug) registry entry.
func SlugUUID(locale, slug string) uuid.UUID {
	return UUID("go-catalog:slug:" + locale + ":" + strings.ToLower(strings.TrimSpace(slug)))
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// SequentialUUID returns a ULID shaped as a UUID. Ids minted later sort
// after earlier ones, byte-wise and in their string form.
func SequentialUUID(at time.Time) uuid.UUID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return uuid.UUID(ulid.MustNew(ulid.Timestamp(at), entropy))
}
