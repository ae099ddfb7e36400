package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quizmind_backend/internal/config"
	"quizmind_backend/internal/model"
	"quizmind_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu       sync.Mutex
	summary  string
	sumErr   error
	genErr   error
	genCalls int
}

func (f *fakeGenerator) GenerateQuiz(ctx context.Context, topic, content, difficulty string, numQuestions int) ([]model.Question, error) {
	f.mu.Lock()
	f.genCalls++
	f.mu.Unlock()
	if f.genErr != nil {
		return nil, f.genErr
	}
	qs := make([]model.Question, numQuestions)
	for i := range qs {
		qs[i] = model.Question{
			Question:      "q",
			Options:       model.Options{A: "a", B: "b", C: "c", D: "d"},
			CorrectAnswer: "A",
			Explanation:   "e",
		}
	}
	return qs, nil
}

func (f *fakeGenerator) Summarize(ctx context.Context, content string) (string, error) {
	if f.sumErr != nil {
		return "", f.sumErr
	}
	return f.summary, nil
}

type fakeFinalizer struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeFinalizer) Finalize(ctx context.Context, sess *model.Session) *model.QuizResults {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	score := sess.Score()
	return &model.QuizResults{
		Score:       score,
		Total:       len(sess.Questions),
		Accuracy:    model.AccuracyPercent(score, len(sess.Questions)),
		CompletedAt: time.Now(),
	}
}

func (f *fakeFinalizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestSessionService(gen *fakeGenerator, fin *fakeFinalizer) *SessionService {
	return NewSessionService(gen, fin, config.QuizConfig{SessionIdleMinutes: 60})
}

func TestCreateTopicSessionGoesActive(t *testing.T) {
	s := newTestSessionService(&fakeGenerator{}, &fakeFinalizer{})
	defer s.Stop()

	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{Topic: "Go", NumQuestions: 3})
	require.NoError(t, err)

	assert.Equal(t, model.StateActive, view.State)
	assert.Equal(t, 3, view.TotalQuestions)
	assert.Equal(t, 0, view.Current)
	require.NotNil(t, view.Question)
	assert.Equal(t, "q", view.Question.Question)
	// test 模式答题中不揭示答案
	assert.Nil(t, view.Reveal)
	assert.Nil(t, view.Results)
}

func TestCreateUsesConfiguredDefaultNumQuestions(t *testing.T) {
	s := NewSessionService(&fakeGenerator{}, &fakeFinalizer{},
		config.QuizConfig{DefaultNumQuestions: 7, SessionIdleMinutes: 60})
	defer s.Stop()

	// 请求不带题数时用配置默认值
	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{Topic: "Go"})
	require.NoError(t, err)
	assert.Equal(t, 7, view.NumQuestions)
	assert.Equal(t, 7, view.TotalQuestions)
}

func TestCreateWithContentStopsAtSummary(t *testing.T) {
	gen := &fakeGenerator{summary: "- key point"}
	s := newTestSessionService(gen, &fakeFinalizer{})
	defer s.Stop()

	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{Content: "pasted notes"})
	require.NoError(t, err)

	assert.Equal(t, model.StateSummary, view.State)
	assert.Equal(t, "- key point", view.Summary)
	assert.Equal(t, 0, gen.genCalls)

	// 确认后正式出题
	view, err = s.Generate(context.Background(), 1, view.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateActive, view.State)
	assert.Equal(t, 1, gen.genCalls)
}

func TestCreateSummarizeFailureGeneratesDirectly(t *testing.T) {
	gen := &fakeGenerator{sumErr: util.ErrSummarizationFailed}
	s := newTestSessionService(gen, &fakeFinalizer{})
	defer s.Stop()

	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{Content: "pasted notes"})
	require.NoError(t, err)

	// 摘要失败只降级，不挡出题
	assert.Equal(t, model.StateActive, view.State)
	assert.Empty(t, view.Summary)
}

func TestCreateGenerationFailureLeavesNoSession(t *testing.T) {
	gen := &fakeGenerator{genErr: util.ErrRateLimited}
	s := newTestSessionService(gen, &fakeFinalizer{})
	defer s.Stop()

	_, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{Topic: "Go"})
	assert.ErrorIs(t, err, util.ErrRateLimited)

	s.mu.RLock()
	defer s.mu.RUnlock()
	assert.Empty(t, s.entries)
}

func TestGenerateFailureFallsBackToSetup(t *testing.T) {
	gen := &fakeGenerator{summary: "sum"}
	s := newTestSessionService(gen, &fakeFinalizer{})
	defer s.Stop()

	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{Content: "notes"})
	require.NoError(t, err)

	gen.genErr = util.ErrGenerationFailed
	_, err = s.Generate(context.Background(), 1, view.ID)
	assert.ErrorIs(t, err, util.ErrGenerationFailed)

	got, err := s.Get(1, view.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateSetup, got.State)

	// setup 状态可以再次出题
	gen.genErr = nil
	got, err = s.Generate(context.Background(), 1, view.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateActive, got.State)
}

func TestAnswerNavigateFinishScenario(t *testing.T) {
	fin := &fakeFinalizer{}
	s := newTestSessionService(&fakeGenerator{}, fin)
	defer s.Stop()

	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{Topic: "Go", NumQuestions: 2})
	require.NoError(t, err)
	id := view.ID

	view, err = s.SelectAnswer(1, id, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", view.Selected)
	assert.Equal(t, []bool{true, false}, view.Answered)

	// 没到最后一题不能交卷
	_, err = s.Finish(context.Background(), 1, id)
	assert.ErrorIs(t, err, model.ErrNotLastQuestion)

	view, err = s.Next(1, id)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Current)

	// 最后一题未作答不能交卷
	_, err = s.Finish(context.Background(), 1, id)
	assert.ErrorIs(t, err, model.ErrUnansweredRemain)

	_, err = s.SelectAnswer(1, id, "B")
	require.NoError(t, err)

	view, err = s.Finish(context.Background(), 1, id)
	require.NoError(t, err)
	assert.Equal(t, model.StateResults, view.State)
	require.NotNil(t, view.Results)
	assert.Equal(t, 1, view.Results.Score)
	assert.Equal(t, 1, fin.callCount())

	// 交卷后再交被拒绝
	_, err = s.Finish(context.Background(), 1, id)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestLearningModeViewRevealsAfterAnswer(t *testing.T) {
	s := newTestSessionService(&fakeGenerator{}, &fakeFinalizer{})
	defer s.Stop()

	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{Topic: "Go", Mode: "learning", NumQuestions: 2})
	require.NoError(t, err)

	view, err = s.SelectAnswer(1, view.ID, "B")
	require.NoError(t, err)
	require.NotNil(t, view.Reveal)
	assert.Equal(t, "A", view.Reveal.CorrectAnswer)
	assert.False(t, view.Reveal.IsCorrect)
	assert.Equal(t, "e", view.Reveal.Explanation)

	// 锁定后换键被拒绝
	_, err = s.SelectAnswer(1, view.ID, "C")
	assert.ErrorIs(t, err, model.ErrAnswerLocked)
}

func TestSessionOwnershipHidden(t *testing.T) {
	s := newTestSessionService(&fakeGenerator{}, &fakeFinalizer{})
	defer s.Stop()

	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{Topic: "Go"})
	require.NoError(t, err)

	// 他人访问按不存在处理
	_, err = s.Get(2, view.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	_, err = s.SelectAnswer(2, view.ID, "A")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestDeleteDiscardsSession(t *testing.T) {
	s := newTestSessionService(&fakeGenerator{}, &fakeFinalizer{})
	defer s.Stop()

	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{Topic: "Go"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(1, view.ID))
	_, err = s.Get(1, view.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	assert.ErrorIs(t, s.Delete(1, view.ID), util.ErrSessionNotFound)
}

func TestTimerExpiryAdvancesAndForcesFinish(t *testing.T) {
	fin := &fakeFinalizer{}
	s := newTestSessionService(&fakeGenerator{}, fin)
	defer s.Stop()

	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{
		Topic: "Go", NumQuestions: 2, TimerEnabled: true, TimePerQuestion: 1,
	})
	require.NoError(t, err)
	id := view.ID

	// 第一题超时自动翻到第二题
	require.Eventually(t, func() bool {
		v, err := s.Get(1, id)
		return err == nil && v.State == model.StateActive && v.Current == 1
	}, 3*time.Second, 50*time.Millisecond)

	// 最后一题超时强制交卷，未作答照常结算
	require.Eventually(t, func() bool {
		v, err := s.Get(1, id)
		return err == nil && v.State == model.StateResults
	}, 3*time.Second, 50*time.Millisecond)

	v, err := s.Get(1, id)
	require.NoError(t, err)
	require.NotNil(t, v.Results)
	assert.Equal(t, 0, v.Results.Score)
	assert.Equal(t, 1, fin.callCount())
}

func TestNavigationRearmsTimer(t *testing.T) {
	s := newTestSessionService(&fakeGenerator{}, &fakeFinalizer{})
	defer s.Stop()

	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{
		Topic: "Go", NumQuestions: 3, TimerEnabled: true, TimePerQuestion: 2,
	})
	require.NoError(t, err)
	id := view.ID

	// 在倒计时归零前翻页，旧表作废、从新题重新计时
	time.Sleep(1 * time.Second)
	view, err = s.Next(1, id)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Current)

	time.Sleep(1200 * time.Millisecond)
	got, err := s.Get(1, id)
	require.NoError(t, err)
	// 距换题仅 1.2 秒，旧表若未作废这里已经翻到第三题
	assert.Equal(t, 1, got.Current)
}

func TestCertificateRequiresResults(t *testing.T) {
	s := newTestSessionService(&fakeGenerator{}, &fakeFinalizer{})
	defer s.Stop()

	view, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{Topic: "Go", NumQuestions: 1})
	require.NoError(t, err)

	_, err = s.Certificate(1, view.ID)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = s.SelectAnswer(1, view.ID, "A")
	require.NoError(t, err)
	_, err = s.Finish(context.Background(), 1, view.ID)
	require.NoError(t, err)

	cert, err := s.Certificate(1, view.ID)
	require.NoError(t, err)
	assert.Contains(t, cert, "CERTIFICATE OF COMPLETION")
	assert.Contains(t, cert, "tester")
}

func TestCreateRequiresTopicOrContent(t *testing.T) {
	s := newTestSessionService(&fakeGenerator{}, &fakeFinalizer{})
	defer s.Stop()

	_, err := s.Create(context.Background(), 1, "tester", CreateSessionInput{})
	assert.True(t, errors.Is(err, model.ErrEmptyInput))
}
