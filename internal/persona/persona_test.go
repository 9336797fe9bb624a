package persona

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docstruct/internal/textnorm"
)

const sampleInput = `{
  "challenge_info": {"challenge_id": "round_1b_001", "test_case_name": "menu_planning"},
  "documents": [
    {"filename": "Dinner Ideas - Mains_1.pdf", "title": "Dinner Ideas - Mains_1"},
    {"filename": "Lunch Ideas.pdf", "title": "Lunch Ideas"}
  ],
  "persona": {"role": "Food Contractor"},
  "job_to_be_done": {"task": "Prepare a vegetarian buffet-style dinner menu for a corporate gathering"}
}`

func TestParseInput(t *testing.T) {
	in, err := ParseInput([]byte(sampleInput))
	require.NoError(t, err)
	assert.Equal(t, []string{"Dinner Ideas - Mains_1.pdf", "Lunch Ideas.pdf"}, in.Filenames())
	assert.Equal(t, "Food Contractor", in.Persona.Role)
	assert.Equal(t, "menu_planning", in.Challenge.TestCaseName)
}

func TestParseInput_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed":      `{"documents": [`,
		"no documents":   `{"documents": [], "persona": {"role": "x"}, "job_to_be_done": {"task": "y"}}`,
		"blank role":     `{"documents": [{"filename": "a.pdf"}], "persona": {"role": "  "}, "job_to_be_done": {"task": "y"}}`,
		"missing task":   `{"documents": [{"filename": "a.pdf"}], "persona": {"role": "x"}}`,
		"blank filename": `{"documents": [{"filename": ""}], "persona": {"role": "x"}, "job_to_be_done": {"task": "y"}}`,
		"zero weight":    `{"documents": [{"filename": "a.pdf"}], "persona": {"role": "x"}, "job_to_be_done": {"task": "y"}, "keyword_weights": {"recipe": 0}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInput([]byte(body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

func TestLoadInput_MissingFile(t *testing.T) {
	_, err := LoadInput(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeriveProfile_FromVocabulary(t *testing.T) {
	vocab, err := DefaultVocabulary()
	require.NoError(t, err)

	p, err := DeriveProfile("Food Contractor", "Prepare a vegetarian buffet-style dinner menu", vocab)
	require.NoError(t, err)
	assert.Equal(t, 1.5, weightOf(p, "falafel"), "task entry outweighs role entry")
	assert.Equal(t, 1.0, weightOf(p, "macaroni"), "role-only keyword")
	assert.Equal(t, 1.0, weightOf(p, "prepare"), "task content word")
	assert.Equal(t, 0.0, weightOf(p, "itinerary"))
	assert.Equal(t, 1.5, weightOf(p, "  VEGETARIAN "))
}

func TestDeriveProfile_TaskWordsOnly(t *testing.T) {
	p, err := DeriveProfile("Archivist", "Catalogue the 1998 letters from the estate", &Vocabulary{})
	require.NoError(t, err)
	var terms []string
	for _, k := range p.Keywords() {
		terms = append(terms, k.Term)
	}
	assert.Equal(t, []string{"catalogue", "estate", "letters"}, terms)
}

func TestDeriveProfile_Errors(t *testing.T) {
	_, err := DeriveProfile("", "task", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = DeriveProfile("role", "do it", nil)
	assert.ErrorIs(t, err, ErrInvalidInput, "no keywords at all")
}

func TestFromInput_ExplicitWeightsWin(t *testing.T) {
	in := &CollectionInput{
		Persona:        RoleRef{Role: "Food Contractor"},
		JobToBeDone:    TaskRef{Task: "Prepare a vegetarian buffet"},
		KeywordWeights: map[string]float64{"Recipe": 2.0, "vegetarian": 1.5},
	}
	vocab, err := DefaultVocabulary()
	require.NoError(t, err)
	p, err := FromInput(in, vocab)
	require.NoError(t, err)
	assert.Equal(t, []Keyword{{Term: "recipe", Weight: 2}, {Term: "vegetarian", Weight: 1.5}}, p.Keywords())
	assert.Equal(t, "Food Contractor", p.Role())
}

func TestProfile_KeywordsIsACopy(t *testing.T) {
	p, err := NewProfile("r", "t", map[string]float64{"alpha": 1})
	require.NoError(t, err)
	kws := p.Keywords()
	kws[0].Weight = 99
	assert.Equal(t, 1.0, weightOf(p, "alpha"))
}

func TestLoadVocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  analyst:\n    keywords: [revenue, growth]\n"), 0o644))
	v, err := LoadVocabulary(path)
	require.NoError(t, err)

	p, err := DeriveProfile("ANALYST", "summarize it", v)
	require.NoError(t, err)
	assert.Equal(t, 1.0, weightOf(p, "revenue"), "missing weight defaults to 1")

	_, err = ParseVocabulary([]byte("roles:\n  x:\n    weight: -1\n"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// weightOf returns the weight of term, or 0 when it is not in the profile.
func weightOf(p *Profile, term string) float64 {
	key := textnorm.Key(term)
	for _, k := range p.Keywords() {
		if k.Term == key {
			return k.Weight
		}
	}
	return 0
}
