package model

import (
	"fmt"
	"time"
)

// EmotionLabels is the fixed set of emotions scored by sentiment analysis.
var EmotionLabels = []string{
	"joy", "sadness", "anger", "fear", "surprise", "disgust", "anxiety",
	"calm", "hope", "frustration", "loneliness", "grief", "love",
	"gratitude", "shame", "guilt", "pride", "confusion", "stress",
	"excitement", "boredom", "relief",
}

// Undetermined marks an emotion that could not be scored.
const Undetermined = -1.0

// Sentiment is the stored result of analyzing one log version.
type Sentiment struct {
	LogID              string             `json:"log_id"`
	Version            int                `json:"version"`
	AnalyzedAt         time.Time          `json:"analyzed_at"`
	Emotions           map[string]float64 `json:"emotions"`
	RiskToSelf         bool               `json:"riskToSelf"`
	RiskSeveritySelf   float64            `json:"riskSeveritySelf"`
	RiskToOthers       bool               `json:"riskToOthers"`
	RiskSeverityOthers float64            `json:"riskSeverityOthers"`
}

// Validate checks every score is -1 or within 1..10 and risk severities are
// within 0..10.
func (s Sentiment) Validate() error {
	for label, v := range s.Emotions {
		if v == Undetermined {
			continue
		}
		if v < 1 || v > 10 {
			return fmt.Errorf("emotion %q: score %v out of range", label, v)
		}
	}
	if s.RiskSeveritySelf < 0 || s.RiskSeveritySelf > 10 {
		return fmt.Errorf("riskSeveritySelf %v out of range", s.RiskSeveritySelf)
	}
	if s.RiskSeverityOthers < 0 || s.RiskSeverityOthers > 10 {
		return fmt.Errorf("riskSeverityOthers %v out of range", s.RiskSeverityOthers)
	}
	return nil
}

// Score returns the emotion score, Undetermined when missing.
func (s Sentiment) Score(label string) float64 {
	if v, ok := s.Emotions[label]; ok {
		return v
	}
	return Undetermined
}

// Dominant returns up to n labels with the highest determined scores,
// ties broken by label order.
func (s Sentiment) Dominant(n int) []string {
	var out []string
	used := map[string]bool{}
	for len(out) < n {
		best, bestScore := "", Undetermined
		for _, l := range EmotionLabels {
			if used[l] {
				continue
			}
			if v := s.Score(l); v > bestScore {
				best, bestScore = l, v
			}
		}
		if best == "" {
			break
		}
		used[best] = true
		out = append(out, best)
	}
	return out
}

// Stale reports whether the analysis predates the log's current version.
func (s Sentiment) Stale(l *Log) bool { return s.Version != l.Version }
