package domain

import "strings"

// Role is the caller role supplied by the identity layer.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// ParseRole normalises a role string. Unknown values map to the empty role,
// which ranks below viewer.
func ParseRole(input string) Role {
	role := Role(strings.ToLower(strings.TrimSpace(input)))
	if _, ok := roleRank[role]; ok {
		return role
	}
	return ""
}

// HasRole reports whether actual ranks at or above required.
func HasRole(actual, required Role) bool {
	return roleRank[actual] >= roleRank[required] && roleRank[required] > 0
}

// IsAdmin reports whether the role is admin.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// EntityKind enumerates the document kinds managed by the catalog.
type EntityKind string

const (
	KindProduct     EntityKind = "product"
	KindProductDoc  EntityKind = "productDoc"
	KindCollection  EntityKind = "collection"
	KindLeaderboard EntityKind = "leaderboard"
	KindHomepage    EntityKind = "homepage"
	KindMedia       EntityKind = "media"
)

// BatchEntityKinds lists the kinds accepted by batch ingest.
var BatchEntityKinds = []EntityKind{
	KindProduct,
	KindProductDoc,
	KindCollection,
	KindLeaderboard,
	KindHomepage,
	KindMedia,
}

// ParseEntityKind returns the kind matching input and whether it is known.
func ParseEntityKind(input string) (EntityKind, bool) {
	trimmed := strings.TrimSpace(input)
	for _, kind := range BatchEntityKinds {
		if string(kind) == trimmed {
			return kind, true
		}
	}
	return EntityKind(trimmed), false
}

// Localized reports whether the kind stores locale scoped draft/published rows.
func (k EntityKind) Localized() bool {
	switch k {
	case KindProductDoc, KindCollection, KindLeaderboard, KindHomepage:
		return true
	default:
		return false
	}
}

// HomepageKey is the owner key shared by every homepage document.
const HomepageKey = "homepage"

// Known leaderboard ids.
var BoardIDs = []string{"games_top", "ai_top", "overall_top", "new_and_noteworthy"}

// IsKnownBoard reports whether id is part of the built-in board catalogue.
func IsKnownBoard(id string) bool {
	for _, candidate := range BoardIDs {
		if candidate == id {
			return true
		}
	}
	return false
}

// MediaOwnerType identifies the entity a media asset is attached to.
type MediaOwnerType string

const (
	MediaOwnerProduct     MediaOwnerType = "product"
	MediaOwnerCollection  MediaOwnerType = "collection"
	MediaOwnerLeaderboard MediaOwnerType = "leaderboard"
	MediaOwnerHomepage    MediaOwnerType = "homepage"
)

// Valid reports whether the owner type is supported.
func (t MediaOwnerType) Valid() bool {
	switch t {
	case MediaOwnerProduct, MediaOwnerCollection, MediaOwnerLeaderboard, MediaOwnerHomepage:
		return true
	default:
		return false
	}
}

// MediaType classifies a media asset.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaPresskit MediaType = "presskit"
	MediaIcon     MediaType = "icon"
	MediaCover    MediaType = "cover"
)

// Valid reports whether the media type is supported.
func (t MediaType) Valid() bool {
	switch t {
	case MediaImage, MediaVideo, MediaPresskit, MediaIcon, MediaCover:
		return true
	default:
		return false
	}
}

// Platform values accepted on products.
var Platforms = []string{"ios", "android", "web", "pc", "mac"}

// IsPlatform reports whether value is a supported platform.
func IsPlatform(value string) bool {
	for _, p := range Platforms {
		if p == value {
			return true
		}
	}
	return false
}
