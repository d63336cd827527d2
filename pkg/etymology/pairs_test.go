package etymology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPairsNoLanguage(t *testing.T) {
	for _, prose := range []string{
		"",
		"Of unknown origin.",
		"Compound of sun + flower.",
		"Frenchman is not a language mention",
	} {
		assert.Empty(t, ExtractPairs(prose), prose)
	}
}

func TestExtractPairsFirstOccurrenceWins(t *testing.T) {
	pairs := ExtractPairs("From French chaise, from Old French chaiere, from Latin cathedra.")
	require.Len(t, pairs, 2)
	assert.Equal(t, Pair{Language: French, Word: "chaise"}, pairs[0])
	assert.Equal(t, Pair{Language: Latin, Word: "cathedra."}, pairs[1])
}

func TestExtractPairsLanguageOrder(t *testing.T) {
	// Reported in language-list order, not text order.
	pairs := ExtractPairs("From Ancient Greek κάθεδρα via Latin cathedra and German Stuhl")
	require.Len(t, pairs, 3)
	assert.Equal(t, []Language{German, Latin, Greek}, []Language{pairs[0].Language, pairs[1].Language, pairs[2].Language})
	assert.Equal(t, "Stuhl", pairs[0].Word)
	assert.Equal(t, "κάθεδρα", pairs[2].Word)
}

func TestExtractPairsUnicodeSpaces(t *testing.T) {
	pairs := ExtractPairs("From Latin\u00a0cathedra\u2009seat")
	require.Len(t, pairs, 1)
	assert.Equal(t, Pair{Language: Latin, Word: "cathedra"}, pairs[0])
}

func TestExtractPairsCaseInsensitive(t *testing.T) {
	pairs := ExtractPairs("borrowed from turkish yoğurt")
	require.Len(t, pairs, 1)
	assert.Equal(t, Turkish, pairs[0].Language)
	assert.Equal(t, "yoğurt", pairs[0].Word)
}

func TestExtractPairsStopsAtComma(t *testing.T) {
	pairs := ExtractPairs("from Latin cathedra,seat")
	require.Len(t, pairs, 1)
	assert.Equal(t, "cathedra", pairs[0].Word)
}

func TestPairExtractorCustomLanguages(t *testing.T) {
	pe := NewPairExtractor([]Language{Latin})
	pairs := pe.Extract("From French chaise, from Latin cathedra")
	require.Len(t, pairs, 1)
	assert.Equal(t, Latin, pairs[0].Language)
}

func TestParseLanguages(t *testing.T) {
	langs, err := ParseLanguages([]string{"latin", " French ", "LATIN", ""})
	require.NoError(t, err)
	assert.Equal(t, []Language{Latin, French}, langs)

	_, err = ParseLanguages([]string{"Klingon"})
	assert.Error(t, err)
}

func TestNormalizeWord(t *testing.T) {
	cases := map[string]string{
		"Chaise":     "chaise",
		"cathedra.":  "cathedra",
		"«Stuhl»":    "stuhl",
		"(sella)":    "sella",
		"well-known": "well-known",
		"  ...  ":    "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeWord(in), in)
	}
}
