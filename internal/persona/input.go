// Package persona loads the reader intent (role, task, keyword weights) that
// drives relevance ranking.
package persona

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput marks collection input that cannot drive a ranking run.
var ErrInvalidInput = errors.New("invalid collection input")

// CollectionInput is the per-collection request document.
type CollectionInput struct {
	Challenge      *ChallengeInfo     `json:"challenge_info,omitempty"`
	Documents      []DocumentRef      `json:"documents" validate:"required,min=1,dive"`
	Persona        RoleRef            `json:"persona" validate:"required"`
	JobToBeDone    TaskRef            `json:"job_to_be_done" validate:"required"`
	KeywordWeights map[string]float64 `json:"keyword_weights,omitempty" validate:"omitempty,dive,keys,required,endkeys,gt=0"`
}

type ChallengeInfo struct {
	ChallengeID  string `json:"challenge_id,omitempty"`
	TestCaseName string `json:"test_case_name,omitempty"`
	Description  string `json:"description,omitempty"`
}

type DocumentRef struct {
	Filename string `json:"filename" validate:"required"`
	Title    string `json:"title,omitempty"`
}

type RoleRef struct {
	Role string `json:"role" validate:"required"`
}

type TaskRef struct {
	Task string `json:"task" validate:"required"`
}

// Filenames returns the document file names in input order.
func (in *CollectionInput) Filenames() []string {
	out := make([]string, 0, len(in.Documents))
	for _, d := range in.Documents {
		out = append(out, d.Filename)
	}
	return out
}

// Validate checks required fields and keyword weights.
func (in *CollectionInput) Validate() error {
	in.Persona.Role = strings.TrimSpace(in.Persona.Role)
	in.JobToBeDone.Task = strings.TrimSpace(in.JobToBeDone.Task)
	validate := validator.New()
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// ParseInput decodes and validates a collection input document.
func ParseInput(data []byte) (*CollectionInput, error) {
	var in CollectionInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return &in, nil
}

// LoadInput reads a collection input file.
func LoadInput(path string) (*CollectionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidInput, path, err)
	}
	return ParseInput(data)
}
