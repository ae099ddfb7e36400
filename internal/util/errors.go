package util

import "errors"

var (
	ErrUserNotFound    = errors.New("用户不存在")
	ErrEmailRegistered = errors.New("该邮箱已被注册")

	// AI 网关错误：区分限流/欠费/其余失败，前端据此提示。
	// 限流与欠费的文案是对外契约，前端按原样展示。
	ErrRateLimited         = errors.New("Rate limited. Please try again in a moment.")
	ErrQuotaExhausted      = errors.New("AI credits exhausted. Please add credits.")
	ErrGenerationFailed    = errors.New("AI generation failed")
	ErrSummarizationFailed = errors.New("summarization failed")
	ErrAnalysisFailed      = errors.New("analysis failed")

	ErrSessionNotFound = errors.New("session not found")
)
