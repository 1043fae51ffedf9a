package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-rag/internal/entities"
)

func TestRegexExtractorDefaults(t *testing.T) {
	e, err := entities.NewRegexExtractor(nil)
	require.NoError(t, err)

	text := "Two seniors interned at Acme Robotics last summer. " +
		"Another completed a placement with First National Bank, " +
		"and one joined Initech Systems through the career office."
	got := e.Extract(text)

	assert.Contains(t, got, "Acme Robotics")
	assert.Contains(t, got, "First National Bank")
	assert.Contains(t, got, "Initech Systems")
}

func TestRegexExtractorDeduplicates(t *testing.T) {
	e, err := entities.NewRegexExtractor(nil)
	require.NoError(t, err)

	got := e.Extract("One student interned at Acme Corp. Later another student interned at Acme Corp as well.")
	count := 0
	for _, name := range got {
		if name == "Acme Corp" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRegexExtractorCustomPatterns(t *testing.T) {
	e, err := entities.NewRegexExtractor([]string{`host organization: (\w+)`})
	require.NoError(t, err)
	assert.Equal(t, []string{"Initrode"}, e.Extract("host organization: Initrode"))
}

func TestRegexExtractorRejectsBadPatterns(t *testing.T) {
	_, err := entities.NewRegexExtractor([]string{`([`})
	require.Error(t, err)

	_, err = entities.NewRegexExtractor([]string{`no capture group`})
	require.Error(t, err)
}

func TestRegexExtractorNoMatches(t *testing.T) {
	e, err := entities.NewRegexExtractor(nil)
	require.NoError(t, err)
	assert.Empty(t, e.Extract("nothing relevant here at all"))
}
