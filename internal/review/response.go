package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ScoreItem is one verdict returned by the model.
type ScoreItem struct {
	Index    int
	Score    int
	Analysis string
}

type rawScoreItem struct {
	Index    *int    `json:"index"`
	Score    *int    `json:"score"`
	Analysis *string `json:"analysis"`
}

// ParseScoreResponse decodes a JSON array of {index, score, analysis}. A surrounding
// markdown code fence is stripped; anything else that is not exactly one array fails.
// Every item must carry all three fields. Unknown fields are ignored.
func ParseScoreResponse(text string) ([]ScoreItem, error) {
	body := stripCodeFence(text)
	if body == "" {
		return nil, errors.New("empty score response")
	}

	dec := json.NewDecoder(strings.NewReader(body))
	var raw []rawScoreItem
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode score array: %w", err)
	}
	if raw == nil {
		return nil, errors.New("score response is not an array")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after score array")
	}

	items := make([]ScoreItem, 0, len(raw))
	for i, r := range raw {
		if r.Index == nil || r.Score == nil || r.Analysis == nil {
			return nil, fmt.Errorf("score item %d misses a required field", i)
		}
		items = append(items, ScoreItem{Index: *r.Index, Score: *r.Score, Analysis: *r.Analysis})
	}
	return items, nil
}

// stripCodeFence removes a leading ``` line (with optional language tag) and a trailing ```.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
