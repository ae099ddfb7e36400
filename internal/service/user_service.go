package service

import (
	"quizmind_backend/internal/model"
	"quizmind_backend/internal/repository"
	"quizmind_backend/internal/util"

	"gorm.io/gorm"
)

// UserProfile 个人资料视图，附答题统计
// swagger:model UserProfile
type UserProfile struct {
	User         *model.User `json:"user"`
	TotalQuizzes int64       `json:"totalQuizzes"`
}

// UserService 处理用户相关的业务逻辑
type UserService struct {
	UserRepo    *repository.UserRepository
	HistoryRepo *repository.HistoryRepository
}

func NewUserService(userRepo *repository.UserRepository, historyRepo *repository.HistoryRepository) *UserService {
	return &UserService{
		UserRepo:    userRepo,
		HistoryRepo: historyRepo,
	}
}

// GetProfile 获取个人资料与完成的测验总数
func (s *UserService) GetProfile(userID uint) (*UserProfile, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	total, err := s.HistoryRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}

	return &UserProfile{User: user, TotalQuizzes: total}, nil
}

// UpdateProfile 更新昵称与头像
func (s *UserService) UpdateProfile(userID uint, name, avatar string) (*model.User, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if avatar != "" {
		user.Avatar = avatar
	}
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
