package models

import (
	"sort"
	"time"
)

const (
	TimelineMessage = "message"
	TimelineVersion = "version"
)

// TimelineEntry is either a conversation turn or a version, tagged by Kind.
type TimelineEntry struct {
	Kind      string            `json:"kind"`
	Timestamp time.Time         `json:"timestamp"`
	Message   *ConversationTurn `json:"message,omitempty"`
	Version   *Version          `json:"version,omitempty"`
}

// BuildTimeline merges turns and versions by timestamp for display.
// The inputs are not modified. Entries with equal timestamps keep their
// input order, turns before versions.
func BuildTimeline(turns []ConversationTurn, versions []Version) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(turns)+len(versions))
	for i := range turns {
		entries = append(entries, TimelineEntry{
			Kind:      TimelineMessage,
			Timestamp: turns[i].Timestamp,
			Message:   &turns[i],
		})
	}
	for i := range versions {
		entries = append(entries, TimelineEntry{
			Kind:      TimelineVersion,
			Timestamp: versions[i].Timestamp,
			Version:   &versions[i],
		})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Timestamp.Before(entries[b].Timestamp)
	})
	return entries
}
