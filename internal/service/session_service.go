package service

import (
	"context"
	"sync"
	"time"

	"quizmind_backend/internal/config"
	"quizmind_backend/internal/model"
	"quizmind_backend/internal/util"
	"quizmind_backend/pkg/logger"

	"go.uber.org/zap"
)

// QuizGenerator 出题与摘要的上游能力，由 AIService 实现
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, topic, content, difficulty string, numQuestions int) ([]model.Question, error)
	Summarize(ctx context.Context, content string) (string, error)
}

// ResultFinalizer 交卷结算，由 ResultService 实现
type ResultFinalizer interface {
	Finalize(ctx context.Context, sess *model.Session) *model.QuizResults
}

// sessionEntry 单个会话及其倒计时句柄。entry 锁串行化该会话的
// 全部操作；epoch 在每次换题/交卷/删除时递增，让在途的超时回调作废。
type sessionEntry struct {
	mu    sync.Mutex
	sess  *model.Session
	timer *time.Timer
	epoch uint64
}

// SessionService 活跃会话的内存注册表。会话不落库：浏览器刷新即
// 新会话，与原产品一致；只有交卷后的结果会写入历史。
type SessionService struct {
	gen        QuizGenerator
	finalizer  ResultFinalizer
	idleTTL    time.Duration
	defaultNum int

	mu      sync.RWMutex
	entries map[string]*sessionEntry

	stop     chan struct{}
	stopOnce sync.Once
}

func NewSessionService(gen QuizGenerator, finalizer ResultFinalizer, cfg config.QuizConfig) *SessionService {
	idle := time.Duration(cfg.SessionIdleMinutes) * time.Minute
	if idle <= 0 {
		idle = time.Hour
	}
	s := &SessionService{
		gen:        gen,
		finalizer:  finalizer,
		idleTTL:    idle,
		defaultNum: cfg.DefaultNumQuestions,
		entries:    make(map[string]*sessionEntry),
		stop:       make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Stop 停止清扫协程并取消所有倒计时
func (s *SessionService) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		e.mu.Lock()
		s.disarmTimer(e)
		e.mu.Unlock()
		delete(s.entries, id)
	}
}

// CreateSessionInput 建会话请求
type CreateSessionInput struct {
	Topic           string `json:"topic"`
	Content         string `json:"content"`
	Difficulty      string `json:"difficulty"`
	Mode            string `json:"mode"`
	NumQuestions    int    `json:"numQuestions"`
	TimerEnabled    bool   `json:"timerEnabled"`
	TimePerQuestion int    `json:"timePerQuestion"`
}

// Create 建会话并立即进入出题流程。带内容时先走摘要步骤停在
// summary 状态等用户确认；摘要失败只降级为直接出题。出题失败
// 时不注册会话，调用方看不到任何半成品状态。
func (s *SessionService) Create(ctx context.Context, userID uint, userName string, in CreateSessionInput) (*SessionView, error) {
	timer := model.TimerConfig{Enabled: in.TimerEnabled, PerQuestionSeconds: in.TimePerQuestion}
	numQuestions := in.NumQuestions
	if numQuestions <= 0 {
		numQuestions = s.defaultNum
	}
	sess, err := model.NewSession(userID, userName, in.Topic, in.Content, in.Difficulty, model.QuizMode(in.Mode), numQuestions, timer)
	if err != nil {
		return nil, err
	}
	if err := sess.BeginLoading(); err != nil {
		return nil, err
	}

	if sess.Content != "" {
		summary, err := s.gen.Summarize(ctx, sess.Content)
		if err == nil {
			if err := sess.EnterSummary(summary); err != nil {
				return nil, err
			}
			return s.register(sess), nil
		}
		logger.Log.Warn("summarization failed, generating directly",
			zap.String("session_id", sess.ID), zap.Error(err))
	}

	questions, err := s.gen.GenerateQuiz(ctx, sess.Topic, sess.Content, sess.Difficulty, sess.NumQuestions)
	if err != nil {
		return nil, err
	}
	if err := sess.Activate(questions); err != nil {
		return nil, err
	}
	return s.register(sess), nil
}

// register 注册已就位的会话并按需起表
func (s *SessionService) register(sess *model.Session) *SessionView {
	e := &sessionEntry{sess: sess}
	s.mu.Lock()
	s.entries[sess.ID] = e
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	s.armTimer(e)
	return viewOf(sess)
}

// Generate 从 summary（或出题失败后的 setup）状态正式出题。
// 失败回到 setup，不保留半成品状态。
func (s *SessionService) Generate(ctx context.Context, userID uint, id string) (*SessionView, error) {
	e, err := s.entry(userID, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.sess
	if err := sess.BeginLoading(); err != nil {
		return nil, err
	}
	questions, err := s.gen.GenerateQuiz(ctx, sess.Topic, sess.Content, sess.Difficulty, sess.NumQuestions)
	if err != nil {
		sess.BackToSetup()
		return nil, err
	}
	if err := sess.Activate(questions); err != nil {
		sess.BackToSetup()
		return nil, err
	}
	s.armTimer(e)
	return viewOf(sess), nil
}

// Get 当前会话视图
func (s *SessionService) Get(userID uint, id string) (*SessionView, error) {
	e, err := s.entry(userID, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return viewOf(e.sess), nil
}

// SelectAnswer 当前题作答
func (s *SessionService) SelectAnswer(userID uint, id, choice string) (*SessionView, error) {
	e, err := s.entry(userID, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.sess.SelectAnswer(choice); err != nil {
		return nil, err
	}
	return viewOf(e.sess), nil
}

// Next 前进一题并重置倒计时
func (s *SessionService) Next(userID uint, id string) (*SessionView, error) {
	return s.move(userID, id, (*model.Session).Next)
}

// Prev 后退一题并重置倒计时
func (s *SessionService) Prev(userID uint, id string) (*SessionView, error) {
	return s.move(userID, id, (*model.Session).Prev)
}

func (s *SessionService) move(userID uint, id string, step func(*model.Session) error) (*SessionView, error) {
	e, err := s.entry(userID, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := step(e.sess); err != nil {
		return nil, err
	}
	s.armTimer(e)
	return viewOf(e.sess), nil
}

// Finish 用户主动交卷：必须在最后一题且全部作答
func (s *SessionService) Finish(ctx context.Context, userID uint, id string) (*SessionView, error) {
	e, err := s.entry(userID, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.sess.CheckFinish(); err != nil {
		return nil, err
	}
	s.finishLocked(ctx, e)
	return viewOf(e.sess), nil
}

// Certificate 结果状态下渲染成绩证书文本
func (s *SessionService) Certificate(userID uint, id string) (string, error) {
	e, err := s.entry(userID, id)
	if err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	sess := e.sess
	if sess.State != model.StateResults || sess.Results == nil {
		return "", model.ErrInvalidTransition
	}
	return RenderCertificate(sess.UserName, sess.Topic, sess.Difficulty, sess.Results), nil
}

// Delete 丢弃会话（重新开始）
func (s *SessionService) Delete(userID uint, id string) error {
	e, err := s.entry(userID, id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	s.disarmTimer(e)
	e.mu.Unlock()

	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// entry 按 ID 取会话。他人会话一律报不存在，不泄露存在性。
func (s *SessionService) entry(userID uint, id string) (*sessionEntry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || e.sess.UserID != userID {
		return nil, util.ErrSessionNotFound
	}
	return e, nil
}

// armTimer 给当前题起倒计时，先作废旧表。调用方持有 entry 锁。
func (s *SessionService) armTimer(e *sessionEntry) {
	s.disarmTimer(e)
	sess := e.sess
	if !sess.Timer.Enabled || sess.State != model.StateActive {
		return
	}
	e.epoch++
	epoch := e.epoch
	d := time.Duration(sess.Timer.PerQuestionSeconds) * time.Second
	e.timer = time.AfterFunc(d, func() { s.onTimeout(e, epoch) })
}

// disarmTimer 取消倒计时并作废在途回调。调用方持有 entry 锁。
func (s *SessionService) disarmTimer(e *sessionEntry) {
	e.epoch++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// onTimeout 倒计时归零：未到最后一题自动翻页重新计时，
// 最后一题则强制交卷（未作答的题按错计）。
func (s *SessionService) onTimeout(e *sessionEntry, epoch uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if epoch != e.epoch || e.sess.State != model.StateActive {
		return // 回调已过期：期间换过题、交卷或删除
	}
	finish, err := e.sess.AdvanceOnTimeout()
	if err != nil {
		return
	}
	if finish {
		logger.Log.Info("quiz finished by timeout",
			zap.String("session_id", e.sess.ID),
			zap.Int("answered", e.sess.AnsweredCount()))
		s.finishLocked(context.Background(), e)
		return
	}
	s.armTimer(e)
}

// finishLocked 结算并落到 results 状态。调用方持有 entry 锁。
func (s *SessionService) finishLocked(ctx context.Context, e *sessionEntry) {
	s.disarmTimer(e)
	results := s.finalizer.Finalize(ctx, e.sess)
	if err := e.sess.Complete(results); err != nil {
		logger.Log.Error("complete session failed",
			zap.String("session_id", e.sess.ID), zap.Error(err))
	}
}

// janitor 周期清理闲置会话
func (s *SessionService) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *SessionService) sweep() {
	s.mu.RLock()
	snapshot := make(map[string]*sessionEntry, len(s.entries))
	for id, e := range s.entries {
		snapshot[id] = e
	}
	s.mu.RUnlock()

	for id, e := range snapshot {
		e.mu.Lock()
		stale := time.Since(e.sess.LastTouch) > s.idleTTL
		if stale {
			s.disarmTimer(e)
		}
		e.mu.Unlock()
		if stale {
			s.mu.Lock()
			delete(s.entries, id)
			s.mu.Unlock()
			logger.Log.Info("idle session evicted", zap.String("session_id", id))
		}
	}
}
