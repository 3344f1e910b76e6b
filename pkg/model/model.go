// Package model holds the shared domain types for moonview: the composite
// card key that identifies a subject across every view showing it, and the
// persisted favorite / play-record shapes.
package model

import (
	"fmt"
	"strings"
	"time"
)

// CardKey is the composite identity of a card's subject. Two cards refer to
// the same subject iff both fields match exactly. The zero value (or a value
// with either field empty) carries no identity.
type CardKey struct {
	Source string // catalog source the item came from, e.g. "okzy"
	ID     string // item id within that source
}

// String renders the key in the "source+id" form used on the broadcast
// channel and as the persistence cache key.
func (k CardKey) String() string {
	return k.Source + "+" + k.ID
}

// IsZero reports whether the key carries no usable identity.
func (k CardKey) IsZero() bool {
	return k.Source == "" || k.ID == ""
}

// ParseCardKey parses a "source+id" broadcast key. The id part may itself
// contain '+', so only the first separator splits.
func ParseCardKey(s string) (CardKey, error) {
	source, id, ok := strings.Cut(s, "+")
	if !ok || source == "" || id == "" {
		return CardKey{}, fmt.Errorf("malformed card key: %q", s)
	}
	return CardKey{Source: source, ID: id}, nil
}

// FavoriteRecord is the payload persisted when a subject is favorited, and
// the value carried (or absent) per key on the favorites broadcast topic.
type FavoriteRecord struct {
	Title         string `json:"title"`
	SourceName    string `json:"source_name"`
	Year          string `json:"year"`
	Cover         string `json:"cover"`
	TotalEpisodes int    `json:"total_episodes"`
	SaveTime      int64  `json:"save_time"` // epoch milliseconds
}

// PlayRecord tracks watch progress for a subject.
type PlayRecord struct {
	Title         string `json:"title"`
	SourceName    string `json:"source_name"`
	Year          string `json:"year"`
	Cover         string `json:"cover"`
	EpisodeIndex  int    `json:"episode_index"` // 1-based episode the user is on
	TotalEpisodes int    `json:"total_episodes"`
	PlayTime      int    `json:"play_time"` // seconds into the episode
	Duration      int    `json:"duration"`  // episode length in seconds
	SaveTime      int64  `json:"save_time"` // epoch milliseconds
	SearchTitle   string `json:"search_title,omitempty"`
	// SourceNames lists every catalog source the subject was seen on,
	// in first-seen order without duplicates.
	SourceNames []string `json:"source_names,omitempty"`
}

// NowMillis returns the current time in epoch milliseconds, the unit used
// by SaveTime fields.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
