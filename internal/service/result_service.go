package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"quizmind_backend/internal/model"
	"quizmind_backend/pkg/logger"

	"go.uber.org/zap"
)

// ResultAnalyzer 交卷后的 AI 表现分析，由 AIService 实现
type ResultAnalyzer interface {
	AnalyzeResults(ctx context.Context, topic string, questions []model.Question, answers []string) (*model.Analysis, error)
}

// HistoryStore 历史记录落库，由 HistoryRepository 实现
type HistoryStore interface {
	Create(h *model.QuizHistory) error
}

// ScoreBoard 排行榜记录，由 LeaderboardService 实现
type ScoreBoard interface {
	Record(ctx context.Context, topic string, userID uint, accuracy int) error
}

// ResultService 交卷结算：判分、落历史、记排行榜、请 AI 分析。
// 判分永远成功；其余三步都是非致命的，失败只记日志，
// 用户无论如何都能看到自己的成绩。
type ResultService struct {
	analyzer ResultAnalyzer
	history  HistoryStore
	board    ScoreBoard
}

func NewResultService(analyzer ResultAnalyzer, history HistoryStore, board ScoreBoard) *ResultService {
	return &ResultService{analyzer: analyzer, history: history, board: board}
}

// Finalize 结算一次会话。要求会话处于 active 状态且题目就位。
func (s *ResultService) Finalize(ctx context.Context, sess *model.Session) *model.QuizResults {
	score := sess.Score()
	total := len(sess.Questions)
	accuracy := model.AccuracyPercent(score, total)
	timeTaken := int(math.Round(time.Since(sess.StartedAt).Seconds()))

	review := make([]model.QuestionResult, total)
	for i, q := range sess.Questions {
		answer := sess.Answers[i]
		review[i] = model.QuestionResult{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    answer,
			IsCorrect:     answer != "" && answer == q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
	}

	results := &model.QuizResults{
		Score:            score,
		Total:            total,
		Accuracy:         accuracy,
		TimeTaken:        timeTaken,
		PerformanceLevel: model.PerformanceLevelFor(accuracy),
		Review:           review,
		CompletedAt:      time.Now(),
	}

	s.saveHistory(sess, results)

	if s.board != nil {
		if err := s.board.Record(ctx, sess.Topic, sess.UserID, accuracy); err != nil {
			logger.Log.Warn("leaderboard record failed",
				zap.String("session_id", sess.ID), zap.Error(err))
		}
	}

	analysis, err := s.analyzer.AnalyzeResults(ctx, sess.Topic, sess.Questions, sess.Answers)
	if err != nil {
		logger.Log.Warn("result analysis failed, showing results without it",
			zap.String("session_id", sess.ID), zap.Error(err))
	} else {
		results.Analysis = analysis
	}

	return results
}

// historyResults 历史记录里的判分快照
type historyResults struct {
	UserAnswers []string `json:"userAnswers"`
	Score       int      `json:"score"`
	TimeTaken   int      `json:"timeTaken"`
}

// saveHistory 落历史，失败只记日志
func (s *ResultService) saveHistory(sess *model.Session, r *model.QuizResults) {
	questionsJSON, err := json.Marshal(sess.Questions)
	if err != nil {
		logger.Log.Error("marshal questions failed", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}
	resultsJSON, err := json.Marshal(historyResults{
		UserAnswers: sess.Answers,
		Score:       r.Score,
		TimeTaken:   r.TimeTaken,
	})
	if err != nil {
		logger.Log.Error("marshal results failed", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}

	h := &model.QuizHistory{
		UserID:         sess.UserID,
		Topic:          sess.Topic,
		Difficulty:     sess.Difficulty,
		Mode:           string(sess.Mode),
		Score:          r.Score,
		TotalQuestions: r.Total,
		TimeTaken:      r.TimeTaken,
		Questions:      questionsJSON,
		Results:        resultsJSON,
	}
	if err := s.history.Create(h); err != nil {
		logger.Log.Error("save quiz history failed",
			zap.String("session_id", sess.ID), zap.Uint("user_id", sess.UserID), zap.Error(err))
	}
}

// certLine 证书内文行：两格缩进后按总宽补齐
func certLine(text string, width int) string {
	if len([]rune(text)) > width {
		text = string([]rune(text)[:width])
	}
	return "║  " + text + strings.Repeat(" ", width-len([]rune(text))) + "║"
}

// RenderCertificate 纯文本成绩证书，供交卷后下载
func RenderCertificate(userName, topic, difficulty string, r *model.QuizResults) string {
	const width = 44
	border := strings.Repeat("═", width+2)
	blank := "║" + strings.Repeat(" ", width+2) + "║"
	if userName == "" {
		userName = "Quiz Taker"
	}
	if topic == "" {
		topic = "General Knowledge"
	}

	lines := []string{
		"╔" + border + "╗",
		blank,
		"║         CERTIFICATE OF COMPLETION            ║",
		blank,
		certLine("This certifies that", width),
		blank,
		certLine(userName, width),
		blank,
		certLine("has successfully completed the quiz on", width),
		blank,
		certLine("Topic: "+topic, width),
		certLine(fmt.Sprintf("Score: %d/%d (%d%%)", r.Score, r.Total, r.Accuracy), width),
		certLine("Level: "+difficulty, width),
		certLine("Date:  "+r.CompletedAt.Format("2006-01-02"), width),
		blank,
		certLine("Performance: "+r.PerformanceLevel, width),
		blank,
		"║              QuizMind AI                     ║",
		"╚" + border + "╝",
	}
	return strings.Join(lines, "\n")
}
