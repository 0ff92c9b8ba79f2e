package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentimentValidate(t *testing.T) {
	s := Sentiment{Emotions: map[string]float64{"joy": 7.5, "grief": Undetermined}}
	assert.NoError(t, s.Validate())

	s.Emotions["anger"] = 0.5
	assert.Error(t, s.Validate())

	s = Sentiment{RiskSeveritySelf: 11}
	assert.Error(t, s.Validate())
}

func TestSentimentDominant(t *testing.T) {
	s := Sentiment{Emotions: map[string]float64{"calm": 6, "joy": 8, "hope": 6, "fear": Undetermined}}
	assert.Equal(t, []string{"joy", "calm", "hope"}, s.Dominant(5))
	assert.Equal(t, Undetermined, s.Score("fear"))
	assert.Equal(t, Undetermined, s.Score("boredom"))
}
