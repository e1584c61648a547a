package repository

import (
	"testing"

	"ticker-digest/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestBuildNewsAnalysisPrompt(t *testing.T) {
	en := BuildNewsAnalysisPrompt("Apple beats estimates", entity.LanguageEN)
	assert.Contains(t, en, `"Apple beats estimates"`)
	assert.Contains(t, en, "ESSENCE:")
	assert.Contains(t, en, "IMPACT:")
	assert.Contains(t, en, "FORECAST:")

	ru := BuildNewsAnalysisPrompt("Apple beats estimates", entity.LanguageRU)
	assert.Contains(t, ru, `"Apple beats estimates"`)
	assert.Contains(t, ru, "СУТЬ:")
	assert.Contains(t, ru, "ВЛИЯНИЕ:")
	assert.Contains(t, ru, "ПРОГНОЗ:")
}
