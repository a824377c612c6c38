package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/xrash/smetrics"
)

// AnsweredQuestion pairs a submitted answer with the question it answers.
// Canonical may be empty when the question data is broken; that answer is
// graded incorrect instead of failing the attempt.
type AnsweredQuestion struct {
	QuestionID uint
	Difficulty string
	Submitted  string
	Canonical  string
}

type QuestionResult struct {
	QuestionID uint
	Correct    bool
	Similarity float64
}

type Result struct {
	Score          int // 0-100
	CorrectCount   int
	IncorrectCount int
	Questions      []QuestionResult
}

// Config holds the grading constants. They are configuration, not hidden
// logic: two calls with the same config and questions produce the same score.
type Config struct {
	// Weights maps a question difficulty to its weight in the score.
	Weights map[string]float64
	// DefaultWeight applies to unknown difficulties.
	DefaultWeight float64
	// SimilarityThreshold is the ratio above which a non-exact answer
	// still counts as correct, in (0,1].
	SimilarityThreshold float64
}

func DefaultConfig() Config {
	return Config{
		Weights: map[string]float64{
			"easy":   1,
			"medium": 1.5,
			"hard":   2,
		},
		DefaultWeight:       1,
		SimilarityThreshold: 0.85,
	}
}

func (c Config) Validate() error {
	for difficulty, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("scoring: negative weight %v for difficulty %q", w, difficulty)
		}
	}
	if c.DefaultWeight < 0 {
		return fmt.Errorf("scoring: negative default weight %v", c.DefaultWeight)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("scoring: similarity threshold %v outside (0,1]", c.SimilarityThreshold)
	}
	return nil
}

func (c Config) weightFor(difficulty string) float64 {
	if w, ok := c.Weights[strings.ToLower(strings.TrimSpace(difficulty))]; ok {
		return w
	}
	return c.DefaultWeight
}

// Normalize prepares an answer for comparison: trimmed, lower-cased, with
// internal whitespace runs collapsed to single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Grade computes the weighted percentage score for a set of answered
// questions. It is a pure function: no clock, no randomness, no writes.
// It only returns an error for a structurally invalid config; data-quality
// problems in the questions degrade to incorrect answers.
func Grade(cfg Config, questions []AnsweredQuestion) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	result := Result{Questions: make([]QuestionResult, 0, len(questions))}
	var totalWeight, correctWeight float64

	for _, q := range questions {
		weight := cfg.weightFor(q.Difficulty)
		totalWeight += weight

		qr := QuestionResult{QuestionID: q.QuestionID}
		if canonical := Normalize(q.Canonical); canonical != "" {
			submitted := Normalize(q.Submitted)
			qr.Similarity = smetrics.JaroWinkler(submitted, canonical, 0.7, 4)
			qr.Correct = submitted == canonical || qr.Similarity > cfg.SimilarityThreshold
		}

		if qr.Correct {
			correctWeight += weight
			result.CorrectCount++
		} else {
			result.IncorrectCount++
		}
		result.Questions = append(result.Questions, qr)
	}

	if totalWeight > 0 {
		score := int(math.Round(100 * correctWeight / totalWeight))
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}
		result.Score = score
	}

	return result, nil
}
