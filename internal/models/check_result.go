package models

import (
	"errors"
	"fmt"
	"math"
)

var ErrPercentageOutOfRange = errors.New("percentage out of range")

// CheckResult повторяет JSON ответа удалённого /check-plagiarism.
type CheckResult struct {
	PlagiarismPercentage float64          `json:"plagiarism_percentage"`
	SimilarityScore      *float64         `json:"similarity_score,omitempty"`
	Classification       string           `json:"classification,omitempty"`
	ExactMatch           *float64         `json:"exact_match,omitempty"`
	PartialMatch         *float64         `json:"partial_match,omitempty"`
	UniqueContentValue   *float64         `json:"unique_content,omitempty"`
	TotalWords           int              `json:"total_words,omitempty"`
	TotalChars           int              `json:"total_chars,omitempty"`
	ResultsDetails       []SentenceDetail `json:"results_details,omitempty"`
	FlaggedSentences     []string         `json:"flagged_sentences,omitempty"`
	Sources              []Source         `json:"sources,omitempty"`
}

type SentenceDetail struct {
	Text          string `json:"text"`
	IsPlagiarized bool   `json:"is_plagiarized"`
	SourceURL     string `json:"source_url,omitempty"`
}

type Source struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Percentage float64 `json:"percentage"`
}

// Validate проверяет, что все проценты лежат в [0,100].
func (r *CheckResult) Validate() error {
	checks := []struct {
		name  string
		value *float64
	}{
		{"plagiarism_percentage", &r.PlagiarismPercentage},
		{"similarity_score", r.SimilarityScore},
		{"exact_match", r.ExactMatch},
		{"partial_match", r.PartialMatch},
		{"unique_content", r.UniqueContentValue},
	}

	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if !validPercentage(*c.value) {
			return fmt.Errorf("%w: %s=%v", ErrPercentageOutOfRange, c.name, *c.value)
		}
	}

	for i, s := range r.Sources {
		if !validPercentage(s.Percentage) {
			return fmt.Errorf("%w: sources[%d].percentage=%v", ErrPercentageOutOfRange, i, s.Percentage)
		}
	}

	return nil
}

func (r *CheckResult) Level() PlagiarismLevel {
	return LevelFor(r.PlagiarismPercentage)
}

// UniqueContent по умолчанию равен 100 - plagiarism_percentage.
func (r *CheckResult) UniqueContent() float64 {
	if r.UniqueContentValue != nil {
		return *r.UniqueContentValue
	}
	return 100 - r.PlagiarismPercentage
}

func (r *CheckResult) HasBreakdown() bool {
	return r.ExactMatch != nil || r.PartialMatch != nil || r.UniqueContentValue != nil
}

func (r *CheckResult) PlagiarizedSentences() int {
	n := 0
	for _, d := range r.ResultsDetails {
		if d.IsPlagiarized {
			n++
		}
	}
	return n
}

func validPercentage(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= 0 && v <= 100
}

// FormatPercentage печатает целые без дробной части.
func FormatPercentage(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f%%", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}
