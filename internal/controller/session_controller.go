package controller

import (
	"errors"
	"net/http"

	"quizmind_backend/internal/model"
	"quizmind_backend/internal/service"
	"quizmind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

// writeSessionError 领域错误翻译为 HTTP 状态码：
// 参数问题 400、状态机拒绝 409、会话不存在 404、上游 AI 限流/欠费
// 原样透传、出题失败 502。
func writeSessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx, err.Error())
	case errors.Is(err, model.ErrEmptyInput), errors.Is(err, model.ErrInvalidChoice):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrAnswerLocked),
		errors.Is(err, model.ErrUnansweredRemain),
		errors.Is(err, model.ErrNotLastQuestion),
		errors.Is(err, model.ErrNoQuestions):
		util.Error(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, util.ErrRateLimited):
		util.Error(ctx, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, util.ErrQuotaExhausted):
		util.Error(ctx, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, util.ErrGenerationFailed):
		util.Error(ctx, http.StatusBadGateway, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// Create godoc
// @Summary 创建测验会话
// @Description 创建会话并立即出题；携带内容时先生成摘要等待确认
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CreateSessionInput true "出题参数"
// @Success 201 {object} util.Response{data=service.SessionView} "创建成功"
// @Failure 400 {object} util.Response "话题与内容至少填一项"
// @Failure 429 {object} util.Response "限流"
// @Failure 402 {object} util.Response "AI 额度耗尽"
// @Failure 502 {object} util.Response "出题失败"
// @Router /api/quiz/sessions [post]
func (c *SessionController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	var req service.CreateSessionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.SessionService.Create(ctx.Request.Context(), claims.UserID, claims.Name, req)
	if err != nil {
		writeSessionError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// Generate godoc
// @Summary 摘要确认后正式出题
// @Description summary 状态的会话进入出题；失败回到 setup 状态
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Failure 409 {object} util.Response "当前状态不允许出题"
// @Failure 502 {object} util.Response "出题失败"
// @Router /api/quiz/sessions/{id}/generate [post]
func (c *SessionController) Generate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	view, err := c.SessionService.Generate(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		writeSessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Get godoc
// @Summary 查看会话
// @Description 返回会话当前视图；test 模式答题中不含正确答案
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/quiz/sessions/{id} [get]
func (c *SessionController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	view, err := c.SessionService.Get(claims.UserID, ctx.Param("id"))
	if err != nil {
		writeSessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// AnswerRequest 作答请求
type AnswerRequest struct {
	Choice string `json:"choice" binding:"required"`
}

// Answer godoc
// @Summary 当前题作答
// @Description test 模式可反复改选；learning 模式选中即揭示并锁定
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话 ID"
// @Param   body body AnswerRequest true "选项"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 400 {object} util.Response "选项非法"
// @Failure 409 {object} util.Response "答案已锁定"
// @Router /api/quiz/sessions/{id}/answer [post]
func (c *SessionController) Answer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.SessionService.SelectAnswer(claims.UserID, ctx.Param("id"), req.Choice)
	if err != nil {
		writeSessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Next godoc
// @Summary 下一题
// @Description 前进一题并重置倒计时
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 409 {object} util.Response "已在最后一题"
// @Router /api/quiz/sessions/{id}/next [post]
func (c *SessionController) Next(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	view, err := c.SessionService.Next(claims.UserID, ctx.Param("id"))
	if err != nil {
		writeSessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Prev godoc
// @Summary 上一题
// @Description 后退一题并重置倒计时
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 409 {object} util.Response "已在第一题"
// @Router /api/quiz/sessions/{id}/prev [post]
func (c *SessionController) Prev(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	view, err := c.SessionService.Prev(claims.UserID, ctx.Param("id"))
	if err != nil {
		writeSessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Finish godoc
// @Summary 交卷
// @Description 最后一题且全部作答后结算；结果含判分明细与 AI 分析
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response{data=service.SessionView} "成功"
// @Failure 409 {object} util.Response "还有未作答的题目"
// @Router /api/quiz/sessions/{id}/finish [post]
func (c *SessionController) Finish(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	view, err := c.SessionService.Finish(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		writeSessionError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Certificate godoc
// @Summary 下载成绩证书
// @Description 结果状态下返回纯文本证书
// @Tags 测验
// @Produce  plain
// @Security BearerAuth
// @Param   id path string true "会话 ID"
// @Success 200 {string} string "证书文本"
// @Failure 409 {object} util.Response "尚未交卷"
// @Router /api/quiz/sessions/{id}/certificate [get]
func (c *SessionController) Certificate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	cert, err := c.SessionService.Certificate(claims.UserID, ctx.Param("id"))
	if err != nil {
		writeSessionError(ctx, err)
		return
	}
	ctx.Header("Content-Disposition", `attachment; filename="QuizMind_Certificate.txt"`)
	ctx.String(http.StatusOK, cert)
}

// Delete godoc
// @Summary 丢弃会话
// @Description 重新开始：整个会话连同倒计时一并丢弃
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/quiz/sessions/{id} [delete]
func (c *SessionController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	if err := c.SessionService.Delete(claims.UserID, ctx.Param("id")); err != nil {
		writeSessionError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
