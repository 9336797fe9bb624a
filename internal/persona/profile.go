package persona

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docstruct/internal/textnorm"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// taskWordWeight applies to content words taken from the job description.
const taskWordWeight = 1.0

const minTaskWordLen = 4

var stopWords = map[string]bool{
	"about": true, "after": true, "also": true, "been": true, "before": true,
	"being": true, "between": true, "both": true, "could": true, "does": true,
	"each": true, "from": true, "have": true, "here": true, "into": true,
	"just": true, "like": true, "make": true, "more": true, "most": true,
	"need": true, "only": true, "other": true, "over": true, "same": true,
	"should": true, "some": true, "such": true, "than": true, "that": true,
	"their": true, "them": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "those": true, "through": true, "under": true,
	"very": true, "want": true, "were": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "will": true, "with": true,
	"would": true, "your": true,
}

// VocabularyEntry is a weighted keyword list.
type VocabularyEntry struct {
	Weight   float64  `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// Vocabulary maps roles and task phrases to keyword lists.
type Vocabulary struct {
	Roles map[string]VocabularyEntry `yaml:"roles"`
	Tasks map[string]VocabularyEntry `yaml:"tasks"`
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() (*Vocabulary, error) {
	return ParseVocabulary(defaultVocabulary)
}

// LoadVocabulary reads a vocabulary file. An empty path selects the default.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read vocabulary %s: %v", ErrInvalidInput, path, err)
	}
	return ParseVocabulary(data)
}

func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: parse vocabulary: %v", ErrInvalidInput, err)
	}
	for name, e := range v.Roles {
		if e.Weight < 0 {
			return nil, fmt.Errorf("%w: role %q has negative weight", ErrInvalidInput, name)
		}
	}
	for name, e := range v.Tasks {
		if e.Weight < 0 {
			return nil, fmt.Errorf("%w: task %q has negative weight", ErrInvalidInput, name)
		}
	}
	return &v, nil
}

// Keyword is one weighted term. Terms are lowercase.
type Keyword struct {
	Term   string
	Weight float64
}

// Profile is the immutable keyword table for one run. It is safe to share
// across goroutines.
type Profile struct {
	role     string
	task     string
	keywords []Keyword
}

func (p *Profile) Role() string { return p.role }
func (p *Profile) Task() string { return p.task }

// Keywords returns a copy of the keyword table sorted by term.
func (p *Profile) Keywords() []Keyword {
	out := make([]Keyword, len(p.keywords))
	copy(out, p.keywords)
	return out
}

// NewProfile builds a profile from explicit weights. Non-positive weights and
// blank terms are rejected.
func NewProfile(role, task string, weights map[string]float64) (*Profile, error) {
	table := make(map[string]float64, len(weights))
	for term, w := range weights {
		key := textnorm.Key(term)
		if key == "" {
			return nil, fmt.Errorf("%w: blank keyword", ErrInvalidInput)
		}
		if w <= 0 {
			return nil, fmt.Errorf("%w: keyword %q has weight %v", ErrInvalidInput, term, w)
		}
		table[key] = w
	}
	return freeze(role, task, table), nil
}

// DeriveProfile builds the keyword table for role and task from vocab plus
// the content words of the task. A keyword found in several sources keeps
// its highest weight.
func DeriveProfile(role, task string, vocab *Vocabulary) (*Profile, error) {
	role = strings.TrimSpace(role)
	task = strings.TrimSpace(task)
	if role == "" || task == "" {
		return nil, fmt.Errorf("%w: persona role and job task are required", ErrInvalidInput)
	}
	table := make(map[string]float64)
	add := func(term string, w float64) {
		key := textnorm.Key(term)
		if key == "" || w <= 0 {
			return
		}
		if w > table[key] {
			table[key] = w
		}
	}

	if vocab != nil {
		roleKey := textnorm.Key(role)
		for name, e := range vocab.Roles {
			if textnorm.Key(name) == roleKey {
				for _, k := range e.Keywords {
					add(k, weightOr(e.Weight))
				}
			}
		}
		taskWords := wordSet(task)
		for name, e := range vocab.Tasks {
			if containsAll(taskWords, name) {
				for _, k := range e.Keywords {
					add(k, weightOr(e.Weight))
				}
			}
		}
	}
	for _, w := range contentWords(task) {
		add(w, taskWordWeight)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: no keywords for role %q and task %q", ErrInvalidInput, role, task)
	}
	return freeze(role, task, table), nil
}

// FromInput derives the profile for a collection input. Explicit keyword
// weights replace the derived table.
func FromInput(in *CollectionInput, vocab *Vocabulary) (*Profile, error) {
	if len(in.KeywordWeights) > 0 {
		return NewProfile(in.Persona.Role, in.JobToBeDone.Task, in.KeywordWeights)
	}
	return DeriveProfile(in.Persona.Role, in.JobToBeDone.Task, vocab)
}

func freeze(role, task string, table map[string]float64) *Profile {
	kws := make([]Keyword, 0, len(table))
	for term, w := range table {
		kws = append(kws, Keyword{Term: term, Weight: w})
	}
	sort.Slice(kws, func(i, j int) bool { return kws[i].Term < kws[j].Term })
	return &Profile{role: strings.TrimSpace(role), task: strings.TrimSpace(task), keywords: kws}
}

func weightOr(w float64) float64 {
	if w == 0 {
		return 1
	}
	return w
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range splitWords(s) {
		set[w] = true
	}
	return set
}

func containsAll(words map[string]bool, phrase string) bool {
	parts := splitWords(phrase)
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if !words[p] {
			return false
		}
	}
	return true
}

func contentWords(task string) []string {
	var out []string
	for _, w := range splitWords(task) {
		if len([]rune(w)) < minTaskWordLen || stopWords[w] {
			continue
		}
		hasLetter := false
		for _, r := range w {
			if unicode.IsLetter(r) {
				hasLetter = true
				break
			}
		}
		if hasLetter {
			out = append(out, w)
		}
	}
	return out
}
