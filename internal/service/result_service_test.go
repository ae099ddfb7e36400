package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"quizmind_backend/internal/model"
	"quizmind_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	analysis *model.Analysis
	err      error
}

func (f *fakeAnalyzer) AnalyzeResults(ctx context.Context, topic string, questions []model.Question, answers []string) (*model.Analysis, error) {
	return f.analysis, f.err
}

type fakeHistoryStore struct {
	saved []*model.QuizHistory
	err   error
}

func (f *fakeHistoryStore) Create(h *model.QuizHistory) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, h)
	return nil
}

type fakeScoreBoard struct {
	topics     []string
	accuracies []int
	err        error
}

func (f *fakeScoreBoard) Record(ctx context.Context, topic string, userID uint, accuracy int) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.accuracies = append(f.accuracies, accuracy)
	return nil
}

func finishedSession(t *testing.T, answers []string) *model.Session {
	t.Helper()
	s, err := model.NewSession(7, "tester", "Photosynthesis", "", "intermediate", model.ModeTest, len(answers), model.TimerConfig{})
	require.NoError(t, err)
	require.NoError(t, s.BeginLoading())

	qs := make([]model.Question, len(answers))
	for i := range qs {
		qs[i] = model.Question{
			Question:      "q",
			Options:       model.Options{A: "a", B: "b", C: "c", D: "d"},
			CorrectAnswer: "A",
			Explanation:   "e",
		}
	}
	require.NoError(t, s.Activate(qs))
	copy(s.Answers, answers)
	return s
}

func TestFinalizeScoresAndPersists(t *testing.T) {
	analyzer := &fakeAnalyzer{analysis: &model.Analysis{PerformanceLevel: "Average", Strengths: []string{"s"}}}
	store := &fakeHistoryStore{}
	board := &fakeScoreBoard{}
	svc := NewResultService(analyzer, store, board)

	// 五题：三对一错一空
	sess := finishedSession(t, []string{"A", "A", "B", "A", ""})
	r := svc.Finalize(context.Background(), sess)

	assert.Equal(t, 3, r.Score)
	assert.Equal(t, 5, r.Total)
	assert.Equal(t, 60, r.Accuracy)
	assert.Equal(t, "Average", r.PerformanceLevel)
	assert.False(t, r.CompletedAt.IsZero())
	require.NotNil(t, r.Analysis)
	assert.Equal(t, []string{"s"}, r.Analysis.Strengths)

	require.Len(t, r.Review, 5)
	assert.True(t, r.Review[0].IsCorrect)
	assert.False(t, r.Review[2].IsCorrect)
	assert.False(t, r.Review[4].IsCorrect)
	assert.Empty(t, r.Review[4].UserAnswer)

	// 历史快照
	require.Len(t, store.saved, 1)
	h := store.saved[0]
	assert.Equal(t, uint(7), h.UserID)
	assert.Equal(t, "Photosynthesis", h.Topic)
	assert.Equal(t, 3, h.Score)
	assert.Equal(t, 5, h.TotalQuestions)

	var savedResults historyResults
	require.NoError(t, json.Unmarshal(h.Results, &savedResults))
	assert.Equal(t, []string{"A", "A", "B", "A", ""}, savedResults.UserAnswers)
	assert.Equal(t, 3, savedResults.Score)

	// 排行榜记的是正确率
	assert.Equal(t, []string{"Photosynthesis"}, board.topics)
	assert.Equal(t, []int{60}, board.accuracies)
}

func TestFinalizeSurvivesCollaboratorFailures(t *testing.T) {
	svc := NewResultService(
		&fakeAnalyzer{err: util.ErrAnalysisFailed},
		&fakeHistoryStore{err: errors.New("db down")},
		&fakeScoreBoard{err: errors.New("redis down")},
	)

	sess := finishedSession(t, []string{"A"})
	r := svc.Finalize(context.Background(), sess)

	// 三个旁路全挂，判分照常
	assert.Equal(t, 1, r.Score)
	assert.Equal(t, 100, r.Accuracy)
	assert.Equal(t, "Excellent", r.PerformanceLevel)
	assert.Nil(t, r.Analysis)
}

func TestFinalizeWithoutScoreBoard(t *testing.T) {
	svc := NewResultService(&fakeAnalyzer{analysis: &model.Analysis{}}, &fakeHistoryStore{}, nil)

	sess := finishedSession(t, []string{"B"})
	r := svc.Finalize(context.Background(), sess)
	assert.Equal(t, 0, r.Score)
	assert.Equal(t, "Needs Improvement", r.PerformanceLevel)
}

func TestRenderCertificate(t *testing.T) {
	r := &model.QuizResults{
		Score:            4,
		Total:            5,
		Accuracy:         80,
		PerformanceLevel: "Good",
		CompletedAt:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	cert := RenderCertificate("Ada Lovelace", "Photosynthesis", "intermediate", r)

	assert.Contains(t, cert, "CERTIFICATE OF COMPLETION")
	assert.Contains(t, cert, "Ada Lovelace")
	assert.Contains(t, cert, "Topic: Photosynthesis")
	assert.Contains(t, cert, "Score: 4/5 (80%)")
	assert.Contains(t, cert, "Level: intermediate")
	assert.Contains(t, cert, "Date:  2026-03-14")
	assert.Contains(t, cert, "Performance: Good")
	assert.Contains(t, cert, "QuizMind AI")

	// 边框等宽
	lines := strings.Split(cert, "\n")
	width := len([]rune(lines[0]))
	for _, line := range lines {
		assert.Equal(t, width, len([]rune(line)), "line %q", line)
	}
}

func TestRenderCertificateDefaults(t *testing.T) {
	r := &model.QuizResults{CompletedAt: time.Now()}
	cert := RenderCertificate("", "", "beginner", r)
	assert.Contains(t, cert, "Quiz Taker")
	assert.Contains(t, cert, "General Knowledge")
}
