package controller

import (
	"errors"

	"quizmind_backend/internal/service"
	"quizmind_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type DocumentController struct {
	DocumentService *service.DocumentService
}

func NewDocumentController(documentService *service.DocumentService) *DocumentController {
	return &DocumentController{DocumentService: documentService}
}

// Upload godoc
// @Summary 上传出题素材
// @Description 归档 pdf/txt 文档并返回可填入出题表单的话题与内容
// @Tags 文档
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param   file formData file true "文档文件"
// @Success 200 {object} util.Response{data=service.DocumentView} "成功"
// @Failure 400 {object} util.Response "文件缺失或类型不支持"
// @Failure 500 {object} util.Response "归档失败"
// @Router /api/quiz/documents [post]
func (c *DocumentController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx, "未认证")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少 file 字段")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer f.Close()

	view, err := c.DocumentService.Ingest(ctx.Request.Context(), claims.UserID,
		fileHeader.Filename, f, fileHeader.Size, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, service.ErrUnsupportedDocument) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}
