package interview

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOpeningQuestionDefault(t *testing.T) {
	llm := fixedReplyModel("should not be called")
	questioner := NewQuestioner(llm)

	// 没有已有数据时直接用默认开场白，不调用 LLM
	result := questioner.GenerateOpeningQuestion(context.Background(), ModuleEducation, map[string]any{})

	assert.Equal(t, defaultOpeners[ModuleEducation], result.Question)
	assert.Equal(t, QuestionTypeOpening, result.QuestionType)
	assert.Equal(t, []string{"school", "degree"}, result.TargetFields)
	assert.Equal(t, 0, llm.callCount(), "无已有数据时不应调用 LLM")
}

func TestGenerateOpeningQuestionWithExistingData(t *testing.T) {
	llm := fixedReplyModel("I see you worked at Acme as an Engineer. Has anything changed since then?")
	questioner := NewQuestioner(llm)

	existingProfile := map[string]any{
		"experiences": []any{
			map[string]any{"company": "Acme", "title": "Engineer"},
		},
	}

	result := questioner.GenerateOpeningQuestion(context.Background(), ModuleExperience, existingProfile)

	assert.Contains(t, result.Question, "Acme", "有已有数据时应生成定制开场问题")
	assert.Equal(t, 1, llm.callCount())
	assert.Contains(t, llm.lastPrompt(), "- Acme: Engineer", "提示词中应包含已有数据摘要")
}

func TestGenerateOpeningQuestionLLMFallback(t *testing.T) {
	llm := errorModel(errors.New("timeout"))
	questioner := NewQuestioner(llm)

	existingProfile := map[string]any{
		"experiences": []any{map[string]any{"company": "Acme"}},
	}

	result := questioner.GenerateOpeningQuestion(context.Background(), ModuleExperience, existingProfile)
	assert.Equal(t, defaultOpeners[ModuleExperience], result.Question, "LLM 失败时应回退到默认开场白")
}

func TestGenerateFollowUp(t *testing.T) {
	llm := fixedReplyModel("<think>reasoning</think>What technologies did you use in that project?")
	questioner := NewQuestioner(llm)

	feedback := InsufficientResult(
		[]string{"Tech stack details"},
		[]string{"Ask about technologies"},
		"missing tech info",
	)

	result := questioner.GenerateFollowUp(context.Background(), ModuleProject,
		[]ConversationEntry{{Role: "user", Content: "I built a payment system"}},
		map[string]any{"name": "PaySys"},
		feedback,
	)

	assert.Equal(t, "What technologies did you use in that project?", result.Question, "推理块应被剥离")
	assert.Equal(t, QuestionTypeFollowUp, result.QuestionType)
	assert.Contains(t, llm.lastPrompt(), "Tech stack details", "分析反馈应出现在提示词中")
}

func TestGenerateFollowUpFallback(t *testing.T) {
	llm := errorModel(errors.New("unavailable"))
	questioner := NewQuestioner(llm)

	feedback := InsufficientResult([]string{"the company name"}, nil, "")
	result := questioner.GenerateFollowUp(context.Background(), ModuleExperience, nil, nil, feedback)

	assert.Equal(t, "Could you tell me more about the company name?", result.Question,
		"LLM 失败时应基于缺失点拼回退问题")
}

func TestGenerateAskMoreItems(t *testing.T) {
	questioner := NewQuestioner(fixedReplyModel(""))

	result := questioner.GenerateAskMoreItems(ModuleExperience, 1)
	assert.Equal(t, defaultAskMore[ModuleExperience], result.Question)
	assert.Equal(t, QuestionTypeConfirmation, result.QuestionType)
	assert.Contains(t, result.Question, "(If no, just say 'no')", "确认问题应提示用户可以直接说 no")
}

func TestPrepareFollowUpContext(t *testing.T) {
	questioner := NewQuestioner(fixedReplyModel(""))

	collected := map[string]any{"company": "Acme"}
	conversation := []ConversationEntry{
		{Role: "assistant", Content: "Tell me about your work"},
		{Role: "user", Content: "I lead a team building microservices"},
	}

	fuCtx := questioner.PrepareFollowUpContext(ModuleExperience, conversation, collected, "I lead a team building microservices")

	assert.Contains(t, fuCtx.MissingRequired, "title", "未收集的必填字段应列为缺失")
	assert.NotContains(t, fuCtx.MissingRequired, "company")
	assert.Contains(t, fuCtx.UserMentions, "team", "用户提到的关键词应被捕获")
	assert.Contains(t, fuCtx.UserMentions, "lead")
	assert.NotEmpty(t, fuCtx.PossibleDirections)
	assert.NotEmpty(t, fuCtx.ConversationSummary)

	// 成就与技术栈缺失时应给出模块专属方向
	assert.Contains(t, fuCtx.PossibleDirections, "Ask for quantified achievements and impact")
	assert.Contains(t, fuCtx.PossibleDirections, "Ask about technology stack used")
}

func TestInferTargetFields(t *testing.T) {
	feedback := InsufficientResult(
		[]string{"Missing quantified achievements", "No start date or end date mentioned"},
		nil, "",
	)

	fields := inferTargetFields(feedback)
	assert.Contains(t, fields, "achievements")
	assert.Contains(t, fields, "start_date")
	assert.Contains(t, fields, "end_date")
}
