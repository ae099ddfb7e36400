package controller

import (
	"strconv"

	"quizmind_backend/internal/service"
	"quizmind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

// Top godoc
// @Summary 话题排行榜
// @Description 按正确率返回话题榜前 N 名，每人只计最好成绩
// @Tags 排行榜
// @Produce  json
// @Security BearerAuth
// @Param   topic query string false "话题，默认 General Knowledge"
// @Param   limit query int false "榜单长度，默认 10"
// @Success 200 {object} util.Response{data=[]service.LeaderboardEntry} "成功"
// @Failure 500 {object} util.Response "服务器内部错误"
// @Router /api/quiz/leaderboard [get]
func (c *LeaderboardController) Top(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	entries, err := c.LeaderboardService.Top(ctx.Request.Context(), ctx.Query("topic"), limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}
