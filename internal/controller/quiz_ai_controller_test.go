package controller

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizmind_backend/internal/config"
	"quizmind_backend/internal/model"
	"quizmind_backend/internal/service"
	"quizmind_backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAIRouter(t *testing.T, upstream http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	ai := service.NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"}, 0)
	c := NewQuizAIController(ai)

	router := gin.New()
	group := router.Group("/api/quiz/ai")
	group.Use(security.PermissiveCORS())
	group.OPTIONS("", func(*gin.Context) {})
	group.POST("", c.Dispatch)
	return router
}

func postAI(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/quiz/ai", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestDispatchInvalidAction(t *testing.T) {
	router := newAIRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called")
	})

	w := postAI(router, `{"action":"make_coffee"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid action"}`, w.Body.String())
}

func TestDispatchGenerateQuizRawShape(t *testing.T) {
	router := newAIRouter(t, func(w http.ResponseWriter, r *http.Request) {
		questions := make([]model.Question, 2)
		for i := range questions {
			questions[i] = model.Question{
				Question:      "q",
				Options:       model.Options{A: "a", B: "b", C: "c", D: "d"},
				CorrectAnswer: "A",
				Explanation:   "e",
			}
		}
		args, _ := json.Marshal(map[string]interface{}{"questions": questions})
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{{
				"message": map[string]interface{}{
					"tool_calls": []map[string]interface{}{{
						"function": map[string]interface{}{"name": "generate_quiz", "arguments": string(args)},
					}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	})

	w := postAI(router, `{"action":"generate_quiz","topic":"Go","numQuestions":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	// 裸 JSON，不套统一信封
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "questions")
	assert.NotContains(t, body, "code")
	assert.NotContains(t, body, "message")

	var questions []model.Question
	require.NoError(t, json.Unmarshal(body["questions"], &questions))
	assert.Len(t, questions, 2)
}

func TestDispatchSummarize(t *testing.T) {
	router := newAIRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"- a point"}}]}`))
	})

	w := postAI(router, `{"action":"summarize","content":"long text"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"summary":"- a point"}`, w.Body.String())
}

func TestDispatchAnalyzeResultsForwardsUserAnswers(t *testing.T) {
	var upstreamBody string
	router := newAIRouter(t, func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		upstreamBody = string(raw)

		args, _ := json.Marshal(map[string]interface{}{
			"strengths": []string{"s"}, "weaknesses": []string{"w"},
			"recommendations": []string{"r"}, "performance": "Good",
		})
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{{
				"message": map[string]interface{}{
					"tool_calls": []map[string]interface{}{{
						"function": map[string]interface{}{"name": "analyze_results", "arguments": string(args)},
					}},
				},
			}},
		}
		json.NewEncoder(w).Encode(resp)
	})

	body := `{"action":"analyze_results","topic":"Go",
		"questions":[{"question":"q","options":{"A":"a","B":"b","C":"c","D":"d"},"correctAnswer":"A","explanation":"e"}],
		"userAnswers":["A"]}`
	w := postAI(router, body)
	require.Equal(t, http.StatusOK, w.Code)

	// 请求体里的 userAnswers 必须进入发给模型的对照数组
	assert.Contains(t, upstreamBody, `\"userAnswer\":\"A\"`)
	assert.Contains(t, upstreamBody, `\"isCorrect\":true`)
}

func TestDispatchRateLimitPassthrough(t *testing.T) {
	router := newAIRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	w := postAI(router, `{"action":"generate_quiz","topic":"Go"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Rate limited. Please try again in a moment."}`, w.Body.String())
}

func TestDispatchQuotaPassthrough(t *testing.T) {
	router := newAIRouter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	w := postAI(router, `{"action":"generate_quiz","topic":"Go"}`)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.JSONEq(t, `{"error":"AI credits exhausted. Please add credits."}`, w.Body.String())
}

func TestDispatchPreflight(t *testing.T) {
	router := newAIRouter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/quiz/ai", nil)
	req.Header.Set("Origin", "https://example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "authorization")
}
