package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"quizmind_backend/internal/config"
	"quizmind_backend/internal/model"
	"quizmind_backend/internal/util"
	"quizmind_backend/pkg/logger"
	"quizmind_backend/pkg/monitoring"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SummarySentinel 上游返回空内容时的兜底摘要
const SummarySentinel = "Unable to generate summary."

// AIService AI 网关适配器：把三类动作包装成函数调用形态的
// chat/completions 请求，校验结构化回复并翻译错误码。
// 每次调用都是一锤子买卖：不重试、不退避、不缓存。
type AIService struct {
	mu              sync.RWMutex
	cfg             config.AIConfig
	maxContentChars int
	client          *http.Client
}

func NewAIService(cfg config.AIConfig, maxContentChars int) *AIService {
	if maxContentChars <= 0 {
		maxContentChars = 8000
	}
	return &AIService{
		cfg:             cfg,
		maxContentChars: maxContentChars,
		client:          &http.Client{Timeout: 60 * time.Second},
	}
}

// UpdateConfig 配置热更新回调（configwatcher 触发）
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *AIService) snapshot() config.AIConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

type aiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type aiToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type aiTool struct {
	Type     string         `json:"type"`
	Function aiToolFunction `json:"function"`
}

type chatCompletionRequest struct {
	Model      string          `json:"model"`
	Messages   []aiChatMessage `json:"messages"`
	Tools      []aiTool        `json:"tools,omitempty"`
	ToolChoice interface{}     `json:"tool_choice,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// forcedTool 强制模型以指定函数调用形式应答
func forcedTool(name string) interface{} {
	return map[string]interface{}{
		"type":     "function",
		"function": map[string]interface{}{"name": name},
	}
}

// truncateContent 按字符截断传给模型的内容
func (s *AIService) truncateContent(content string) string {
	runes := []rune(content)
	if len(runes) > s.maxContentChars {
		return string(runes[:s.maxContentChars])
	}
	return content
}

// complete 发起一次 chat/completions 调用，返回响应体与 HTTP 状态码。
// 状态码的业务含义（429 限流 / 402 欠费）由各动作自行翻译。
func (s *AIService) complete(ctx context.Context, action string, reqBody chatCompletionRequest) (*chatCompletionResponse, int, error) {
	cfg := s.snapshot()
	reqBody.Model = cfg.Model

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		monitoring.ObserveAICall(action, "transport_error", time.Since(start))
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		outcome := "upstream_error"
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			outcome = "rate_limited"
		case http.StatusPaymentRequired:
			outcome = "quota_exhausted"
		}
		monitoring.ObserveAICall(action, outcome, time.Since(start))
		logger.Log.Warn("AI API error",
			zap.String("action", action),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return nil, resp.StatusCode, fmt.Errorf("AI API error (status %d)", resp.StatusCode)
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		monitoring.ObserveAICall(action, "bad_response", time.Since(start))
		return nil, resp.StatusCode, err
	}

	monitoring.ObserveAICall(action, "ok", time.Since(start))
	return &result, resp.StatusCode, nil
}

// toolArguments 取第一个函数调用的参数串，缺失返回空
func toolArguments(resp *chatCompletionResponse) string {
	if len(resp.Choices) == 0 {
		return ""
	}
	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return ""
	}
	return calls[0].Function.Arguments
}

// GenerateQuiz 生成 numQuestions 道单选题。topic 与 content 二选一，
// content 优先；content 超长会先截断。上游 429/402 翻译为限流/欠费，
// 其余失败（含结构化回复缺失或不合法）一律视为生成失败，绝不返回
// 数量不足或选项残缺的题目序列。
func (s *AIService) GenerateQuiz(ctx context.Context, topic, content, difficulty string, numQuestions int) ([]model.Question, error) {
	if difficulty == "" {
		difficulty = "intermediate"
	}
	if numQuestions <= 0 {
		numQuestions = 5
	}

	systemPrompt := fmt.Sprintf(`You are an expert quiz generator. Generate exactly %d multiple choice questions. Each question must have exactly 4 options labeled A, B, C, D. Adjust complexity based on difficulty level: %s.

IMPORTANT: You MUST respond by calling the generate_quiz function with the questions array. Do not respond with plain text.`, numQuestions, difficulty)

	var userPrompt string
	if content != "" {
		userPrompt = fmt.Sprintf("Generate a quiz based on this content:\n\n%s\n\nDifficulty: %s", s.truncateContent(content), difficulty)
	} else {
		userPrompt = fmt.Sprintf("Generate a quiz about: %s\nDifficulty: %s", topic, difficulty)
	}

	reqBody := chatCompletionRequest{
		Messages: []aiChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Tools:      []aiTool{generateQuizTool},
		ToolChoice: forcedTool("generate_quiz"),
	}

	resp, status, err := s.complete(ctx, "generate_quiz", reqBody)
	if err != nil {
		switch status {
		case http.StatusTooManyRequests:
			return nil, util.ErrRateLimited
		case http.StatusPaymentRequired:
			return nil, util.ErrQuotaExhausted
		}
		return nil, fmt.Errorf("%w: %v", util.ErrGenerationFailed, err)
	}

	args := toolArguments(resp)
	if args == "" {
		return nil, fmt.Errorf("%w: no tool call in response", util.ErrGenerationFailed)
	}

	var parsed struct {
		Questions []model.Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed tool call payload: %v", util.ErrGenerationFailed, err)
	}

	if len(parsed.Questions) != numQuestions {
		return nil, fmt.Errorf("%w: expected %d questions, got %d", util.ErrGenerationFailed, numQuestions, len(parsed.Questions))
	}
	for i, q := range parsed.Questions {
		if !q.Valid() {
			return nil, fmt.Errorf("%w: question %d is incomplete", util.ErrGenerationFailed, i+1)
		}
	}

	return parsed.Questions, nil
}

// Summarize 生成内容摘要。上游失败返回 ErrSummarizationFailed，
// 调用方应当跳过摘要环节而不是报错；成功但内容为空时返回兜底文案。
func (s *AIService) Summarize(ctx context.Context, content string) (string, error) {
	reqBody := chatCompletionRequest{
		Messages: []aiChatMessage{
			{Role: "system", Content: "You are a helpful assistant. Provide a clear, concise summary of the given content in 3-5 bullet points."},
			{Role: "user", Content: fmt.Sprintf("Summarize this content:\n\n%s", s.truncateContent(content))},
		},
	}

	resp, _, err := s.complete(ctx, "summarize", reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrSummarizationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return SummarySentinel, nil
	}
	return resp.Choices[0].Message.Content, nil
}

// resultComparison 发给模型的逐题对照
type resultComparison struct {
	Question      string `json:"question"`
	CorrectAnswer string `json:"correctAnswer"`
	UserAnswer    string `json:"userAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

// AnalyzeResults 分析一次测验的表现。失败返回 ErrAnalysisFailed，
// 调用方应当在没有分析的情况下照常展示结果。
func (s *AIService) AnalyzeResults(ctx context.Context, topic string, questions []model.Question, answers []string) (*model.Analysis, error) {
	comparisons := make([]resultComparison, len(questions))
	for i, q := range questions {
		userAnswer := ""
		if i < len(answers) {
			userAnswer = answers[i]
		}
		comparisons[i] = resultComparison{
			Question:      q.Question,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    userAnswer,
			IsCorrect:     userAnswer != "" && userAnswer == q.CorrectAnswer,
		}
	}

	comparisonJSON, err := json.Marshal(comparisons)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrAnalysisFailed, err)
	}

	reqBody := chatCompletionRequest{
		Messages: []aiChatMessage{
			{Role: "system", Content: "You are an educational analyst. Analyze quiz performance and provide insights. Respond by calling the analyze_results function."},
			{Role: "user", Content: fmt.Sprintf("Analyze these quiz results:\nTopic: %s\nQuestions and answers: %s", topic, comparisonJSON)},
		},
		Tools:      []aiTool{analyzeResultsTool},
		ToolChoice: forcedTool("analyze_results"),
	}

	resp, _, err := s.complete(ctx, "analyze_results", reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrAnalysisFailed, err)
	}

	args := toolArguments(resp)
	if args == "" {
		return nil, fmt.Errorf("%w: no analysis generated", util.ErrAnalysisFailed)
	}

	var analysis model.Analysis
	if err := json.Unmarshal([]byte(args), &analysis); err != nil {
		return nil, fmt.Errorf("%w: malformed tool call payload: %v", util.ErrAnalysisFailed, err)
	}
	return &analysis, nil
}
