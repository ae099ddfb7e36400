package model

// 选项键固定为 A/B/C/D 四个
const (
	ChoiceA = "A"
	ChoiceB = "B"
	ChoiceC = "C"
	ChoiceD = "D"
)

// ChoiceKeys 按展示顺序排列的全部选项键
var ChoiceKeys = []string{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

// ValidChoice 判断是否为合法选项键
func ValidChoice(key string) bool {
	switch key {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
		return true
	}
	return false
}

// Options 一道题的四个选项，键固定 A-D
// swagger:model Options
type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// Get 按选项键取文本，键非法时返回空串
func (o Options) Get(key string) string {
	switch key {
	case ChoiceA:
		return o.A
	case ChoiceB:
		return o.B
	case ChoiceC:
		return o.C
	case ChoiceD:
		return o.D
	}
	return ""
}

// Complete 四个选项是否全部非空
func (o Options) Complete() bool {
	return o.A != "" && o.B != "" && o.C != "" && o.D != ""
}

// Question AI 生成的单选题，生成后不可变
// swagger:model Question
type Question struct {
	Question      string  `json:"question"`
	Options       Options `json:"options"`
	CorrectAnswer string  `json:"correctAnswer"`
	Explanation   string  `json:"explanation"`
}

// Valid 校验题面、四个选项及正确答案键
func (q Question) Valid() bool {
	return q.Question != "" && q.Options.Complete() && ValidChoice(q.CorrectAnswer)
}

// Analysis 对一次完成的测验的 AI 分析，生成一次后不再修改
// swagger:model Analysis
type Analysis struct {
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	Recommendations  []string `json:"recommendations"`
	PerformanceLevel string   `json:"performanceLevel"`
}
