package model

import "encoding/json"

// QuizHistory 一次已完成测验的持久化记录，只追加不更新
type QuizHistory struct {
	BaseModel
	UserID         uint            `gorm:"index;not null" json:"userId"`
	Topic          string          `gorm:"size:255;not null" json:"topic"`
	Difficulty     string          `gorm:"size:50" json:"difficulty"`
	Mode           string          `gorm:"size:20" json:"mode"`
	Score          int             `gorm:"not null" json:"score"`
	TotalQuestions int             `gorm:"not null" json:"totalQuestions"`
	TimeTaken      int             `gorm:"not null" json:"timeTaken"` // 秒
	Questions      json.RawMessage `gorm:"type:json" json:"questions"`
	Results        json.RawMessage `gorm:"type:json" json:"results"`
}

func (QuizHistory) TableName() string {
	return "quiz_histories"
}
