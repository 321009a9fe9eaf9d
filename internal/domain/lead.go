package domain

import (
	"sort"
	"time"
)

// HighSignalThreshold is the minimum relevance score for a lead to be enriched and reported.
// It is identical for every platform so runs stay comparable.
const HighSignalThreshold = 5

// Lead is one discussion thread harvested from a platform.
// Title is the join key between fetch phases and pipeline stages for one platform and date.
type Lead struct {
	Source          string
	Channel         string
	ExternalID      string
	Title           string
	URL             string
	CreatedAt       time.Time
	BodyText        string
	EngagementCount int
	ScoreHint       int
	Comments        []Comment
}

// Comment is a flattened reply; Depth 0 is a top-level reply.
type Comment struct {
	Author      string
	Text        string
	NativeScore int
	Depth       int
}

// ScoredLead is a Lead paired with one model verdict.
type ScoredLead struct {
	Title           string
	URL             string
	RelevanceScore  int
	Analysis        string
	EngagementCount int
}

// IsHighSignal reports whether a score clears HighSignalThreshold.
func IsHighSignal(score int) bool {
	return score >= HighSignalThreshold
}

// HighSignal keeps the scored leads that clear the threshold, preserving order.
func HighSignal(scored []ScoredLead) []ScoredLead {
	out := make([]ScoredLead, 0, len(scored))
	for _, lead := range scored {
		if IsHighSignal(lead.RelevanceScore) {
			out = append(out, lead)
		}
	}
	return out
}

// Titles returns the titles of scored leads as a lookup set.
func Titles(scored []ScoredLead) map[string]struct{} {
	set := make(map[string]struct{}, len(scored))
	for _, lead := range scored {
		set[lead.Title] = struct{}{}
	}
	return set
}

// SortByScore orders leads by descending relevance; ties keep arrival order.
func SortByScore(scored []ScoredLead) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
}
