package service

import (
	"time"

	"quizmind_backend/internal/model"
)

// QuestionView 展示给答题方的题目，不含正确答案
type QuestionView struct {
	Index    int           `json:"index"`
	Question string        `json:"question"`
	Options  model.Options `json:"options"`
}

// RevealView learning 模式作答后揭示的判定与解析
type RevealView struct {
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	Explanation   string `json:"explanation"`
}

// SessionView 会话对外视图。test 模式在 active 状态绝不携带
// 正确答案，judging 信息只在交卷后的 Results 里出现。
type SessionView struct {
	ID             string             `json:"id"`
	State          model.SessionState `json:"state"`
	Topic          string             `json:"topic"`
	Difficulty     string             `json:"difficulty"`
	Mode           model.QuizMode     `json:"mode"`
	Summary        string             `json:"summary,omitempty"`
	Timer          model.TimerConfig  `json:"timer"`
	NumQuestions   int                `json:"numQuestions"`
	TotalQuestions int                `json:"totalQuestions,omitempty"`
	Current        int                `json:"current"`
	Answered       []bool             `json:"answered,omitempty"`
	Selected       string             `json:"selected,omitempty"`
	Question       *QuestionView      `json:"question,omitempty"`
	Reveal         *RevealView        `json:"reveal,omitempty"`
	StartedAt      *time.Time         `json:"startedAt,omitempty"`
	Results        *model.QuizResults `json:"results,omitempty"`
}

// viewOf 从会话构造视图。调用方持有 entry 锁。
func viewOf(s *model.Session) *SessionView {
	v := &SessionView{
		ID:           s.ID,
		State:        s.State,
		Topic:        s.Topic,
		Difficulty:   s.Difficulty,
		Mode:         s.Mode,
		Summary:      s.Summary,
		Timer:        s.Timer,
		NumQuestions: s.NumQuestions,
		Current:      s.Current,
	}

	if s.State == model.StateActive {
		v.TotalQuestions = len(s.Questions)
		v.Answered = make([]bool, len(s.Answers))
		for i, a := range s.Answers {
			v.Answered[i] = a != ""
		}
		v.Selected = s.Answers[s.Current]
		q := s.Questions[s.Current]
		v.Question = &QuestionView{Index: s.Current, Question: q.Question, Options: q.Options}
		startedAt := s.StartedAt
		v.StartedAt = &startedAt

		if s.Mode == model.ModeLearning && s.Revealed {
			v.Reveal = &RevealView{
				CorrectAnswer: q.CorrectAnswer,
				IsCorrect:     s.Answers[s.Current] == q.CorrectAnswer,
				Explanation:   q.Explanation,
			}
		}
	}

	if s.State == model.StateResults {
		v.TotalQuestions = len(s.Questions)
		v.Results = s.Results
	}
	return v
}
