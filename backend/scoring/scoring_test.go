package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "the mitochondria", Normalize("  The   Mitochondria "))
	assert.Equal(t, "a b c", Normalize("a\tb\n c"))
	assert.Equal(t, "", Normalize("   "))
}

func TestGradeWeightedExample(t *testing.T) {
	// 5 easy correct, 3 medium correct, 2 hard incorrect:
	// weights 5*1 + 3*1.5 + 2*2 = 13.5, correct 5 + 4.5 = 9.5,
	// round(100*9.5/13.5) = 70.
	var questions []AnsweredQuestion
	for i := 0; i < 5; i++ {
		questions = append(questions, AnsweredQuestion{
			QuestionID: uint(i + 1), Difficulty: "easy",
			Submitted: "photosynthesis", Canonical: "photosynthesis",
		})
	}
	for i := 0; i < 3; i++ {
		questions = append(questions, AnsweredQuestion{
			QuestionID: uint(i + 6), Difficulty: "medium",
			Submitted: "mitochondria", Canonical: "mitochondria",
		})
	}
	for i := 0; i < 2; i++ {
		questions = append(questions, AnsweredQuestion{
			QuestionID: uint(i + 9), Difficulty: "hard",
			Submitted: "gravity", Canonical: "photosynthesis",
		})
	}

	result, err := Grade(DefaultConfig(), questions)
	require.NoError(t, err)
	assert.Equal(t, 70, result.Score)
	assert.Equal(t, 8, result.CorrectCount)
	assert.Equal(t, 2, result.IncorrectCount)
	assert.Len(t, result.Questions, 10)
}

func TestGradeNearMatchCountsAsCorrect(t *testing.T) {
	result, err := Grade(DefaultConfig(), []AnsweredQuestion{
		{QuestionID: 1, Difficulty: "easy", Submitted: "colour", Canonical: "color"},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Questions[0].Correct)
	assert.Greater(t, result.Questions[0].Similarity, 0.85)
}

func TestGradeDissimilarAnswerIncorrect(t *testing.T) {
	result, err := Grade(DefaultConfig(), []AnsweredQuestion{
		{QuestionID: 1, Difficulty: "easy", Submitted: "london", Canonical: "paris"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.False(t, result.Questions[0].Correct)
}

func TestGradeNormalizesBeforeComparing(t *testing.T) {
	result, err := Grade(DefaultConfig(), []AnsweredQuestion{
		{QuestionID: 1, Difficulty: "easy", Submitted: "  The   Krebs  Cycle ", Canonical: "the krebs cycle"},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
}

func TestGradeMissingCanonicalIsIncorrectNotError(t *testing.T) {
	result, err := Grade(DefaultConfig(), []AnsweredQuestion{
		{QuestionID: 1, Difficulty: "easy", Submitted: "anything", Canonical: ""},
		{QuestionID: 2, Difficulty: "easy", Submitted: "", Canonical: "   "},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 2, result.IncorrectCount)
}

func TestGradeUnknownDifficultyUsesDefaultWeight(t *testing.T) {
	result, err := Grade(DefaultConfig(), []AnsweredQuestion{
		{QuestionID: 1, Difficulty: "legendary", Submitted: "yes", Canonical: "yes"},
		{QuestionID: 2, Difficulty: "legendary", Submitted: "no", Canonical: "yes yes yes yes"},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, result.Score)
}

func TestGradeEmptyQuestionSetScoresZero(t *testing.T) {
	result, err := Grade(DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
}

func TestGradeRejectsNegativeWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights["hard"] = -2

	_, err := Grade(cfg, []AnsweredQuestion{
		{QuestionID: 1, Difficulty: "hard", Submitted: "x", Canonical: "x"},
	})
	assert.Error(t, err)
}

func TestGradeRejectsInvalidThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SimilarityThreshold = 0

	_, err := Grade(cfg, nil)
	assert.Error(t, err)
}

func TestGradeIsDeterministic(t *testing.T) {
	questions := []AnsweredQuestion{
		{QuestionID: 1, Difficulty: "easy", Submitted: "colour", Canonical: "color"},
		{QuestionID: 2, Difficulty: "medium", Submitted: "london", Canonical: "paris"},
		{QuestionID: 3, Difficulty: "hard", Submitted: "the krebs cycle", Canonical: "The Krebs Cycle"},
	}

	first, err := Grade(DefaultConfig(), questions)
	require.NoError(t, err)
	second, err := Grade(DefaultConfig(), questions)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
