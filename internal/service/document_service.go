package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"quizmind_backend/internal/model"
	"quizmind_backend/pkg/logger"

	"go.uber.org/zap"
)

// ErrUnsupportedDocument 仅接受 pdf/txt
var ErrUnsupportedDocument = errors.New("only .pdf and .txt documents are supported")

// 上传的文档最多读这么多字节，出题内容再截到前 10000 字符
const (
	maxDocumentBytes   = 5 << 20
	documentExcerptLen = 10000
)

// DocumentView 文档入库结果：归档地址加上可直接填入出题表单的
// 话题与内容
type DocumentView struct {
	URL     string `json:"url"`
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// DocumentService 出题素材文档：原件归档到对象存储，正文做朴素
// 文本抽取供出题使用。PDF 不走结构化解析，二进制流直接截取，
// 模型对夹杂的乱码有足够的容忍度。
type DocumentService struct {
	Storage *StorageService
}

func NewDocumentService(storage *StorageService) *DocumentService {
	return &DocumentService{Storage: storage}
}

// Ingest 归档文档并抽取出题内容
func (s *DocumentService) Ingest(ctx context.Context, userID uint, filename string, reader io.Reader, size int64, contentType string) (*DocumentView, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".pdf" && ext != ".txt" {
		return nil, ErrUnsupportedDocument
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxDocumentBytes))
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("documents/%d/%s%s", userID, model.GenerateUUID(), ext)
	url, err := s.Storage.Upload(ctx, objectName, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		logger.Log.Error("document upload failed",
			zap.Uint("user_id", userID), zap.String("filename", filename), zap.Error(err))
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(filename), ext)
	excerpt := truncateRunes(string(data), documentExcerptLen)

	content := excerpt
	if ext == ".pdf" {
		content = fmt.Sprintf("[PDF Content from: %s]\n%s", filepath.Base(filename), excerpt)
	}

	return &DocumentView{URL: url, Topic: base, Content: content}, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
