package service

// 三类动作的函数调用 schema。模型被强制按 schema 应答，
// 适配器只需要校验结构并翻译错误码。

var generateQuizTool = aiTool{
	Type: "function",
	Function: aiToolFunction{
		Name:        "generate_quiz",
		Description: "Generate quiz questions with multiple choice answers",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"questions": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"question": map[string]interface{}{"type": "string"},
							"options": map[string]interface{}{
								"type": "object",
								"properties": map[string]interface{}{
									"A": map[string]interface{}{"type": "string"},
									"B": map[string]interface{}{"type": "string"},
									"C": map[string]interface{}{"type": "string"},
									"D": map[string]interface{}{"type": "string"},
								},
								"required": []interface{}{"A", "B", "C", "D"},
							},
							"correctAnswer": map[string]interface{}{
								"type": "string",
								"enum": []interface{}{"A", "B", "C", "D"},
							},
							"explanation": map[string]interface{}{"type": "string"},
						},
						"required": []interface{}{"question", "options", "correctAnswer", "explanation"},
					},
				},
			},
			"required": []interface{}{"questions"},
		},
	},
}

var analyzeResultsTool = aiTool{
	Type: "function",
	Function: aiToolFunction{
		Name:        "analyze_results",
		Description: "Analyze quiz results and provide insights",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"strengths": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
				"weaknesses": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
				"recommendations": map[string]interface{}{
					"type":  "array",
					"items": map[string]interface{}{"type": "string"},
				},
				"performanceLevel": map[string]interface{}{
					"type": "string",
					"enum": []interface{}{"Excellent", "Good", "Average", "Needs Improvement"},
				},
			},
			"required": []interface{}{"strengths", "weaknesses", "recommendations", "performanceLevel"},
		},
	},
}
