package domain

import "strings"

// ProductStatus is the lifecycle state of a product record.
type ProductStatus string

const (
	ProductActive ProductStatus = "active"
	// ProductArchived is a tombstone; the row keeps its slugs until reclaimed.
	ProductArchived ProductStatus = "archived"
)

// ParseProductStatus returns the status matching input and whether it is known.
func ParseProductStatus(input string) (ProductStatus, bool) {
	status := ProductStatus(strings.ToLower(strings.TrimSpace(input)))
	switch status {
	case ProductActive, ProductArchived:
		return status, true
	default:
		return status, false
	}
}

// DocState separates the editable and public rows of a localized document.
type DocState string

const (
	StateDraft     DocState = "draft"
	StatePublished DocState = "published"
)

// Valid reports whether the state is draft or published.
func (s DocState) Valid() bool {
	return s == StateDraft || s == StatePublished
}

// LeaderboardMode controls how leaderboard items are ranked.
type LeaderboardMode string

const (
	LeaderboardManual LeaderboardMode = "manual"
	LeaderboardAuto   LeaderboardMode = "auto"
)

// NormalizeLeaderboardMode defaults empty input to manual.
func NormalizeLeaderboardMode(input string) LeaderboardMode {
	mode := LeaderboardMode(strings.ToLower(strings.TrimSpace(input)))
	if mode == "" {
		return LeaderboardManual
	}
	return mode
}
