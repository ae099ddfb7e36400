package model

import (
	"errors"
	"strings"
	"time"
)

// 会话状态机：setup → loading → (summary → loading) → active → results
type SessionState string

const (
	StateSetup   SessionState = "setup"
	StateLoading SessionState = "loading"
	StateSummary SessionState = "summary"
	StateActive  SessionState = "active"
	StateResults SessionState = "results"
)

type QuizMode string

const (
	ModeLearning QuizMode = "learning" // 选中即揭示答案与解析
	ModeTest     QuizMode = "test"     // 静默作答，交卷后统一判分
)

// 会话转换错误（领域错误，由 controller 层翻译为 HTTP 状态码）
var (
	ErrEmptyInput        = errors.New("topic or content is required")
	ErrInvalidTransition = errors.New("operation not allowed in current session state")
	ErrInvalidChoice     = errors.New("choice must be one of A/B/C/D")
	ErrAnswerLocked      = errors.New("answer locked until question changes")
	ErrUnansweredRemain  = errors.New("all questions must be answered before finishing")
	ErrNotLastQuestion   = errors.New("finish is only allowed on the last question")
	ErrNoQuestions       = errors.New("no questions generated")
)

// TimerConfig 每题倒计时配置
type TimerConfig struct {
	Enabled            bool `json:"enabled"`
	PerQuestionSeconds int  `json:"perQuestionSeconds"`
}

// Session 一次测验：从出题到查看结果。被单个用户流程独占，
// 重新开始时整体丢弃，字段只通过下面的转换方法变更。
// 不变量：进入 active 后 len(Answers) == len(Questions) 恒成立，
// Current 始终是 Questions 的合法下标。
type Session struct {
	ID           string       `json:"id"`
	UserID       uint         `json:"-"`
	UserName     string       `json:"-"`
	Topic        string       `json:"topic"`
	Difficulty   string       `json:"difficulty"`
	Mode         QuizMode     `json:"mode"`
	Content      string       `json:"-"` // 非空表示基于粘贴/文档内容出题
	Summary      string       `json:"summary,omitempty"`
	Timer        TimerConfig  `json:"timer"`
	NumQuestions int          `json:"numQuestions"`
	State        SessionState `json:"state"`

	Questions []Question `json:"-"`
	Answers   []string   `json:"-"` // 与 Questions 等长，"" 表示未作答
	Current   int        `json:"-"`
	Revealed  bool       `json:"-"` // learning 模式：当前题已揭示，换题前锁定

	StartedAt time.Time    `json:"startedAt,omitempty"`
	Results   *QuizResults `json:"results,omitempty"`
	LastTouch time.Time    `json:"-"`
}

// NewSession 创建 setup 状态的会话。话题与内容至少一项非空，
// 缺省值与原产品一致：难度 intermediate、5 题、30 秒/题。
func NewSession(userID uint, userName, topic, content, difficulty string, mode QuizMode, numQuestions int, timer TimerConfig) (*Session, error) {
	if strings.TrimSpace(topic) == "" && strings.TrimSpace(content) == "" {
		return nil, ErrEmptyInput
	}
	if strings.TrimSpace(topic) == "" {
		topic = "General Knowledge"
	}
	if difficulty == "" {
		difficulty = "intermediate"
	}
	if mode != ModeLearning {
		mode = ModeTest
	}
	if numQuestions <= 0 {
		numQuestions = 5
	}
	if timer.Enabled && timer.PerQuestionSeconds <= 0 {
		timer.PerQuestionSeconds = 30
	}

	return &Session{
		ID:           GenerateUUID(),
		UserID:       userID,
		UserName:     userName,
		Topic:        topic,
		Difficulty:   difficulty,
		Mode:         mode,
		Content:      content,
		Timer:        timer,
		NumQuestions: numQuestions,
		State:        StateSetup,
		Current:      0,
		LastTouch:    time.Now(),
	}, nil
}

// BeginLoading setup/summary → loading
func (s *Session) BeginLoading() error {
	if s.State != StateSetup && s.State != StateSummary {
		return ErrInvalidTransition
	}
	s.State = StateLoading
	s.touch()
	return nil
}

// EnterSummary loading → summary，仅当基于内容出题且摘要成功
func (s *Session) EnterSummary(summary string) error {
	if s.State != StateLoading || s.Content == "" || summary == "" {
		return ErrInvalidTransition
	}
	s.Summary = summary
	s.State = StateSummary
	s.touch()
	return nil
}

// Activate loading → active，初始化答题簿并记录开始时间
func (s *Session) Activate(questions []Question) error {
	if s.State != StateLoading {
		return ErrInvalidTransition
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}
	s.Questions = questions
	s.Answers = make([]string, len(questions))
	s.Current = 0
	s.Revealed = false
	s.StartedAt = time.Now()
	s.State = StateActive
	s.touch()
	return nil
}

// BackToSetup 出题失败回到 setup，不保留半成品状态
func (s *Session) BackToSetup() {
	s.State = StateSetup
	s.Questions = nil
	s.Answers = nil
	s.Current = 0
	s.Revealed = false
	s.Summary = ""
	s.touch()
}

// SelectAnswer 写入当前题的答案槽。test 模式可反复改选；
// learning 模式选中即揭示并锁定，换题前只允许重复同一选项。
func (s *Session) SelectAnswer(key string) error {
	if s.State != StateActive {
		return ErrInvalidTransition
	}
	if !ValidChoice(key) {
		return ErrInvalidChoice
	}
	if s.Mode == ModeLearning && s.Revealed {
		if s.Answers[s.Current] == key {
			return nil // 同键重选视为幂等
		}
		return ErrAnswerLocked
	}
	s.Answers[s.Current] = key
	if s.Mode == ModeLearning {
		s.Revealed = true
	}
	s.touch()
	return nil
}

// Next 前进一题，最后一题时拒绝
func (s *Session) Next() error {
	if s.State != StateActive {
		return ErrInvalidTransition
	}
	if s.Current >= len(s.Questions)-1 {
		return ErrInvalidTransition
	}
	s.Current++
	s.Revealed = false
	s.touch()
	return nil
}

// Prev 后退一题，第一题时拒绝
func (s *Session) Prev() error {
	if s.State != StateActive {
		return ErrInvalidTransition
	}
	if s.Current <= 0 {
		return ErrInvalidTransition
	}
	s.Current--
	s.Revealed = false
	s.touch()
	return nil
}

// AdvanceOnTimeout 倒计时归零：未到最后一题等价于 Next，
// 返回 true 表示已在最后一题、应当强制交卷（无论是否作答）。
func (s *Session) AdvanceOnTimeout() (finish bool, err error) {
	if s.State != StateActive {
		return false, ErrInvalidTransition
	}
	if s.Current >= len(s.Questions)-1 {
		return true, nil
	}
	s.Current++
	s.Revealed = false
	s.touch()
	return false, nil
}

// CheckFinish 用户主动交卷的守卫：必须在最后一题且全部作答
func (s *Session) CheckFinish() error {
	if s.State != StateActive {
		return ErrInvalidTransition
	}
	if s.Current != len(s.Questions)-1 {
		return ErrNotLastQuestion
	}
	if s.AnsweredCount() < len(s.Questions) {
		return ErrUnansweredRemain
	}
	return nil
}

// Complete active → results，附上判分结果
func (s *Session) Complete(r *QuizResults) error {
	if s.State != StateActive {
		return ErrInvalidTransition
	}
	s.Results = r
	s.State = StateResults
	s.touch()
	return nil
}

// Score 计算得分。未作答的槽永远不计为正确。
func (s *Session) Score() int {
	score := 0
	for i, q := range s.Questions {
		if s.Answers[i] != "" && s.Answers[i] == q.CorrectAnswer {
			score++
		}
	}
	return score
}

// AnsweredCount 已作答的题目数
func (s *Session) AnsweredCount() int {
	n := 0
	for _, a := range s.Answers {
		if a != "" {
			n++
		}
	}
	return n
}

// OnLastQuestion 当前是否最后一题
func (s *Session) OnLastQuestion() bool {
	return len(s.Questions) > 0 && s.Current == len(s.Questions)-1
}

func (s *Session) touch() {
	s.LastTouch = time.Now()
}
