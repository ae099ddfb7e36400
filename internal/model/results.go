package model

import (
	"math"
	"time"
)

// QuestionResult 单题判分明细
// swagger:model QuestionResult
type QuestionResult struct {
	Question      string  `json:"question"`
	Options       Options `json:"options"`
	CorrectAnswer string  `json:"correctAnswer"`
	UserAnswer    string  `json:"userAnswer,omitempty"` // 空串表示未作答
	IsCorrect     bool    `json:"isCorrect"`
	Explanation   string  `json:"explanation"`
}

// QuizResults 交卷后的最终结果视图
// swagger:model QuizResults
type QuizResults struct {
	Score            int              `json:"score"`
	Total            int              `json:"total"`
	Accuracy         int              `json:"accuracy"` // 百分比，四舍五入
	TimeTaken        int              `json:"timeTaken"` // 秒
	PerformanceLevel string           `json:"performanceLevel"`
	Review           []QuestionResult `json:"review"`
	Analysis         *Analysis        `json:"analysis,omitempty"` // AI 分析失败时缺省
	CompletedAt      time.Time        `json:"completedAt"`
}

// AccuracyPercent 四舍五入的正确率百分比
func AccuracyPercent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) * 100 / float64(total)))
}

// PerformanceLevelFor 按正确率给出本地评级，与 AI 分析的枚举取值一致；
// AI 分析缺席时作为兜底展示。
func PerformanceLevelFor(accuracy int) string {
	switch {
	case accuracy >= 90:
		return "Excellent"
	case accuracy >= 70:
		return "Good"
	case accuracy >= 50:
		return "Average"
	default:
		return "Needs Improvement"
	}
}
