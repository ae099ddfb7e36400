package repository

import (
	"quizmind_backend/internal/model"

	"gorm.io/gorm"
)

type HistoryRepository struct {
	DB *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{DB: db}
}

// Create 追加一条历史记录，记录只写入一次、从不原地更新
func (r *HistoryRepository) Create(h *model.QuizHistory) error {
	return r.DB.Create(h).Error
}

// ListByUser 按完成时间倒序分页查询
func (r *HistoryRepository) ListByUser(userID uint, page, limit int) ([]model.QuizHistory, int64, error) {
	var hs []model.QuizHistory
	var total int64
	query := r.DB.Model(&model.QuizHistory{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&hs).Error
	return hs, total, err
}

func (r *HistoryRepository) FindByID(id uint) (*model.QuizHistory, error) {
	var h model.QuizHistory
	err := r.DB.First(&h, id).Error
	return &h, err
}

// CountByUser 用户完成的测验总数
func (r *HistoryRepository) CountByUser(userID uint) (int64, error) {
	var total int64
	err := r.DB.Model(&model.QuizHistory{}).Where("user_id = ?", userID).Count(&total).Error
	return total, err
}
