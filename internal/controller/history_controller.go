package controller

import (
	"errors"
	"strconv"

	"quizmind_backend/internal/service"
	"quizmind_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HistoryController struct {
	HistoryService *service.HistoryService
}

func NewHistoryController(historyService *service.HistoryService) *HistoryController {
	return &HistoryController{HistoryService: historyService}
}

// List godoc
// @Summary 历史记录列表
// @Description 按完成时间倒序分页返回当前用户的测验历史
// @Tags 历史
// @Produce  json
// @Security BearerAuth
// @Param   page query int false "页码，默认 1"
// @Param   limit query int false "每页条数，默认 10"
// @Success 200 {object} util.PageResponse "成功"
// @Failure 401 {object} util.Response "未认证"
// @Router /api/quiz/history [get]
func (c *HistoryController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	items, total, err := c.HistoryService.List(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.SuccessPage(ctx, items, total, page, limit)
}

// Get godoc
// @Summary 单条历史记录
// @Description 返回一次测验的题目与判分快照，只能看自己的
// @Tags 历史
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "记录 ID"
// @Success 200 {object} util.Response{data=model.QuizHistory} "成功"
// @Failure 404 {object} util.Response "记录不存在"
// @Router /api/quiz/history/{id} [get]
func (c *HistoryController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "无效的记录 ID")
		return
	}

	h, err := c.HistoryService.Get(claims.UserID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx, "记录不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, h)
}
