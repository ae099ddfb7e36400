package controller

import (
	"errors"
	"net/http"

	"quizmind_backend/internal/model"
	"quizmind_backend/internal/service"
	"quizmind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuizAIController AI 动作直连端点。响应体是裸 JSON 而不是统一
// 信封：这条路径的请求/响应格式是历史契约，老前端按原样消费。
type QuizAIController struct {
	AIService *service.AIService
}

func NewQuizAIController(aiService *service.AIService) *QuizAIController {
	return &QuizAIController{AIService: aiService}
}

// QuizAIRequest 按 action 分发的统一请求体
// swagger:model QuizAIRequest
type QuizAIRequest struct {
	Action       string           `json:"action" binding:"required"`
	Topic        string           `json:"topic"`
	Content      string           `json:"content"`
	Difficulty   string           `json:"difficulty"`
	NumQuestions int              `json:"numQuestions"`
	Questions    []model.Question `json:"questions"`
	UserAnswers  []string         `json:"userAnswers"`
}

// Dispatch godoc
// @Summary AI 动作分发
// @Description 按 action 字段执行出题/摘要/结果分析
// @Tags AI
// @Accept  json
// @Produce  json
// @Param   body body QuizAIRequest true "动作与参数"
// @Success 200 {object} object "动作结果"
// @Failure 400 {object} object "无效动作"
// @Failure 402 {object} object "AI 额度耗尽"
// @Failure 429 {object} object "限流"
// @Failure 500 {object} object "执行失败"
// @Router /api/quiz/ai [post]
func (c *QuizAIController) Dispatch(ctx *gin.Context) {
	var req QuizAIRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Action {
	case "generate_quiz":
		questions, err := c.AIService.GenerateQuiz(ctx.Request.Context(), req.Topic, req.Content, req.Difficulty, req.NumQuestions)
		if err != nil {
			writeAIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"questions": questions})

	case "summarize":
		summary, err := c.AIService.Summarize(ctx.Request.Context(), req.Content)
		if err != nil {
			writeAIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"summary": summary})

	case "analyze_results":
		analysis, err := c.AIService.AnalyzeResults(ctx.Request.Context(), req.Topic, req.Questions, req.UserAnswers)
		if err != nil {
			writeAIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, analysis)

	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
	}
}

// writeAIError 限流与欠费原样透传状态码，其余一律 500
func writeAIError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrRateLimited):
		ctx.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, util.ErrQuotaExhausted):
		ctx.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
