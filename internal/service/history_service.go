package service

import (
	"quizmind_backend/internal/model"
	"quizmind_backend/internal/repository"

	"gorm.io/gorm"
)

// HistoryService 测验历史查询。记录只增不改，归属校验在这里做。
type HistoryService struct {
	HistoryRepo *repository.HistoryRepository
}

func NewHistoryService(historyRepo *repository.HistoryRepository) *HistoryService {
	return &HistoryService{HistoryRepo: historyRepo}
}

// List 当前用户的历史，按完成时间倒序分页
func (s *HistoryService) List(userID uint, page, limit int) ([]model.QuizHistory, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return s.HistoryRepo.ListByUser(userID, page, limit)
}

// Get 单条记录，他人的记录按不存在处理
func (s *HistoryService) Get(userID, id uint) (*model.QuizHistory, error) {
	h, err := s.HistoryRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if h.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return h, nil
}
