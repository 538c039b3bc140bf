package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"ai-interview-go/internal/logger"
)

// Questioner 提问 Agent：生成模块开场问题和针对性追问
// 开场和追问走 LLM，询问更多条目使用固定话术
type Questioner struct {
	llm model.BaseChatModel
}

// NewQuestioner 创建提问 Agent
func NewQuestioner(llm model.BaseChatModel) *Questioner {
	return &Questioner{llm: llm}
}

// GenerateOpeningQuestion 生成模块开场问题
// 档案中已有该模块数据时用 LLM 定制问题，否则用默认开场白
func (q *Questioner) GenerateOpeningQuestion(
	ctx context.Context,
	module Module,
	existingProfile map[string]any,
) QuestionResult {
	existingData := moduleExistingData(module, existingProfile)

	var question string
	if len(existingData) > 0 {
		question = q.generateSmartOpening(ctx, module, existingData)
	} else {
		question = defaultOpener(module)
	}

	return QuestionResult{
		Question:     question,
		QuestionType: QuestionTypeOpening,
		TargetFields: module.RequiredFields(),
	}
}

// GenerateFollowUp 基于分析反馈生成追问
func (q *Questioner) GenerateFollowUp(
	ctx context.Context,
	module Module,
	conversationHistory []ConversationEntry,
	collectedInfo map[string]any,
	feedback *AnalysisResult,
) QuestionResult {
	prompt := q.buildFollowUpPrompt(module, conversationHistory, collectedInfo, feedback)

	messages := []*schema.Message{
		schema.SystemMessage(questionerSystemPrompt),
		schema.UserMessage(prompt),
	}

	resp, err := q.llm.Generate(ctx, messages, model.WithTemperature(0.7))
	if err != nil {
		logger.Error().Err(err).Str("module", string(module)).Msg("生成追问失败，使用回退问题")
		return fallbackFollowUp(feedback)
	}

	question := extractQuestionFromResponse(resp.Content)

	return QuestionResult{
		Question:         question,
		QuestionType:     QuestionTypeFollowUp,
		ContextReference: feedback.Reasoning,
		TargetFields:     inferTargetFields(feedback),
	}
}

// GenerateAskMoreItems 询问用户是否还有更多条目
func (q *Questioner) GenerateAskMoreItems(module Module, itemCount int) QuestionResult {
	question, ok := defaultAskMore[module]
	if !ok {
		question = "Anything else to add?"
	}

	return QuestionResult{
		Question:     question,
		QuestionType: QuestionTypeConfirmation,
	}
}

// FollowUpContext 与分析 Agent 并行准备的追问上下文（不调用 LLM）
type FollowUpContext struct {
	PossibleDirections  []string `json:"possible_directions"`
	UserMentions        []string `json:"user_mentions"`
	ConversationSummary string   `json:"conversation_summary"`
	MissingRequired     []string `json:"missing_required"`
	MissingOptional     []string `json:"missing_optional"`
}

// PrepareFollowUpContext 与分析 Agent 并行执行的上下文准备
// 纯本地计算，用于加速后续追问生成
func (q *Questioner) PrepareFollowUpContext(
	module Module,
	conversationHistory []ConversationEntry,
	collectedInfo map[string]any,
	userResponse string,
) FollowUpContext {
	userMentions := extractUserMentions(userResponse, module)

	modSchema := GetModuleSchema(module)
	var missingRequired, missingOptional []string
	if modSchema != nil {
		for _, f := range modSchema.RequiredFieldNames() {
			if _, ok := collectedInfo[f]; !ok {
				missingRequired = append(missingRequired, f)
			}
		}
		for _, f := range modSchema.OptionalFieldNames() {
			if _, ok := collectedInfo[f]; !ok {
				missingOptional = append(missingOptional, f)
			}
		}
	}

	var directions []string
	if len(missingRequired) > 0 {
		directions = append(directions, "Ask about required fields: "+strings.Join(headOf(missingRequired, 3), ", "))
	}
	if len(missingOptional) > 0 {
		directions = append(directions, "Explore optional details: "+strings.Join(headOf(missingOptional, 3), ", "))
	}

	// 模块专属追问方向
	switch module {
	case ModuleExperience:
		if _, ok := collectedInfo["achievements"]; !ok {
			directions = append(directions, "Ask for quantified achievements and impact")
		}
		if _, ok := collectedInfo["technologies"]; !ok {
			directions = append(directions, "Ask about technology stack used")
		}
	case ModuleProject:
		if _, ok := collectedInfo["your_contribution"]; !ok {
			directions = append(directions, "Ask about specific personal contribution")
		}
		if _, ok := collectedInfo["challenges"]; !ok {
			directions = append(directions, "Ask about technical challenges faced")
		}
	case ModuleEducation:
		if _, ok := collectedInfo["activities"]; !ok {
			directions = append(directions, "Ask about notable activities or achievements")
		}
	}

	summary := ""
	if len(conversationHistory) > 0 {
		recent := conversationHistory
		if len(recent) > 4 {
			recent = recent[len(recent)-4:]
		}
		summary = summarizeConversation(recent)
	}

	return FollowUpContext{
		PossibleDirections:  directions,
		UserMentions:        userMentions,
		ConversationSummary: summary,
		MissingRequired:     missingRequired,
		MissingOptional:     headOf(missingOptional, 5),
	}
}

// --- 内部辅助 ---

// mentionKeywords 各模块的用户话题关键词
var mentionKeywords = map[Module][]string{
	ModuleExperience: {"team", "lead", "manager", "develop", "build", "design", "optimize", "improve"},
	ModuleProject:    {"built", "created", "implemented", "designed", "led", "contributed"},
	ModuleSkill:      {"python", "java", "javascript", "react", "node", "sql", "aws", "docker"},
}

func extractUserMentions(userResponse string, module Module) []string {
	lower := strings.ToLower(userResponse)
	var mentions []string
	for _, kw := range mentionKeywords[module] {
		if strings.Contains(lower, kw) {
			mentions = append(mentions, kw)
		}
	}
	return mentions
}

// summarizeConversation 将最近的对话压缩为一行摘要，每条截断到 100 字符
func summarizeConversation(recent []ConversationEntry) string {
	var parts []string
	for _, msg := range recent {
		role := "Advisor"
		if msg.Role == "user" {
			role = "User"
		}
		content := msg.Content
		if content == "" {
			continue
		}
		if len(content) > 100 {
			content = content[:100]
		}
		parts = append(parts, role+": "+content+"...")
	}
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return strings.Join(parts, " | ")
}

// moduleExistingData 从已有档案中取出该模块的数据列表
func moduleExistingData(module Module, existingProfile map[string]any) []any {
	key, ok := module.ProfileKey()
	if !ok {
		return nil
	}
	if data, ok := existingProfile[key].([]any); ok {
		return data
	}
	return nil
}

// generateSmartOpening 基于已有数据用 LLM 生成开场问题，失败回退到默认开场白
func (q *Questioner) generateSmartOpening(ctx context.Context, module Module, existingData []any) string {
	modSchema := GetModuleSchema(module)
	fieldsText := "General information"
	if modSchema != nil {
		fieldsText = strings.Join(modSchema.AllFieldNames(), ", ")
	}

	replacer := strings.NewReplacer(
		"{module_name}", questionerModuleName(module),
		"{module_fields}", fieldsText,
		"{existing_profile_info}", summarizeExistingData(existingData, module),
	)
	prompt := replacer.Replace(openingQuestionPrompt)

	messages := []*schema.Message{
		schema.SystemMessage(questionerSystemPrompt),
		schema.UserMessage(prompt),
	}

	resp, err := q.llm.Generate(ctx, messages, model.WithTemperature(0.7))
	if err != nil {
		logger.Error().Err(err).Str("module", string(module)).Msg("生成定制开场问题失败，使用默认问题")
		return defaultOpener(module)
	}

	question := StripThinkTags(resp.Content)
	if question == "" {
		return defaultOpener(module)
	}
	return question
}

// summarizeExistingData 生成已有数据的简要摘要，最多展示 3 条
func summarizeExistingData(data []any, module Module) string {
	if len(data) == 0 {
		return "No existing data"
	}

	var summaries []string
	for i, raw := range data {
		if i >= 3 {
			break
		}
		item, ok := raw.(map[string]any)
		if !ok {
			summaries = append(summaries, fmt.Sprintf("- %v", raw))
			continue
		}

		switch module {
		case ModuleExperience:
			summaries = append(summaries, fmt.Sprintf("- %s: %s", stringOr(item, "company", "Unknown"), stringOr(item, "title", "Unknown")))
		case ModuleEducation:
			summaries = append(summaries, fmt.Sprintf("- %s: %s", stringOr(item, "school", "Unknown"), stringOr(item, "degree", "Unknown")))
		case ModuleProject:
			summaries = append(summaries, "- "+stringOr(item, "name", "Unknown"))
		default:
			summaries = append(summaries, "- "+stringOr(item, "name", fmt.Sprintf("%v", item)))
		}
	}

	return strings.Join(summaries, "\n")
}

func (q *Questioner) buildFollowUpPrompt(
	module Module,
	conversationHistory []ConversationEntry,
	collectedInfo map[string]any,
	feedback *AnalysisResult,
) string {
	recent := conversationHistory
	if len(recent) > 4 {
		recent = recent[len(recent)-4:]
	}
	var lines []string
	for _, m := range recent {
		role := "Advisor"
		if m.Role == "user" {
			role = "User"
		}
		lines = append(lines, role+": "+m.Content)
	}

	collectedText := "{}"
	if len(collectedInfo) > 0 {
		if b, err := json.MarshalIndent(collectedInfo, "", "  "); err == nil {
			collectedText = string(b)
		}
	}

	replacer := strings.NewReplacer(
		"{module_name}", questionerModuleName(module),
		"{recent_conversation}", strings.Join(lines, "\n"),
		"{collected_info}", collectedText,
		"{missing_points}", joinOrNone(feedback.MissingPoints),
		"{follow_up_suggestions}", joinOrNone(feedback.FollowUpSuggestions),
		"{quality_issues}", joinOrNone(feedback.QualityIssues),
	)
	return replacer.Replace(followUpPrompt)
}

// extractQuestionFromResponse 清理 LLM 回复，为空时给兜底问题
func extractQuestionFromResponse(response string) string {
	cleaned := StripThinkTags(response)
	if cleaned == "" {
		return "Could you tell me more about that?"
	}
	return cleaned
}

// fallbackFollowUp LLM 不可用时基于分析反馈拼一个简单追问
func fallbackFollowUp(feedback *AnalysisResult) QuestionResult {
	var question string
	switch {
	case len(feedback.MissingPoints) > 0:
		question = fmt.Sprintf("Could you tell me more about %s?", feedback.MissingPoints[0])
	case len(feedback.FollowUpSuggestions) > 0:
		question = feedback.FollowUpSuggestions[0]
	default:
		question = "Could you elaborate more on that?"
	}

	return QuestionResult{
		Question:     question,
		QuestionType: QuestionTypeFollowUp,
		TargetFields: []string{},
	}
}

// targetFieldKeywords 从缺失点描述推断目标字段
var targetFieldKeywords = map[string][]string{
	"achievement":    {"achievements"},
	"tech":           {"technologies"},
	"description":    {"description"},
	"quantif":        {"achievements"},
	"time":           {"start_date", "end_date"},
	"date":           {"start_date", "end_date"},
	"responsibility": {"description"},
	"role":           {"title", "description"},
}

func inferTargetFields(feedback *AnalysisResult) []string {
	seen := map[string]bool{}
	var fields []string
	for _, missing := range feedback.MissingPoints {
		lower := strings.ToLower(missing)
		for keyword, fs := range targetFieldKeywords {
			if strings.Contains(lower, keyword) {
				for _, f := range fs {
					if !seen[f] {
						seen[f] = true
						fields = append(fields, f)
					}
				}
			}
		}
	}
	return fields
}

func questionerModuleName(module Module) string {
	if name, ok := questionerModuleNames[module]; ok {
		return name
	}
	return module.DisplayName()
}

func defaultOpener(module Module) string {
	if opener, ok := defaultOpeners[module]; ok {
		return opener
	}
	return "Please tell me about your " + module.DisplayName() + "."
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

func headOf(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func stringOr(item map[string]any, key, fallback string) string {
	if v, ok := item[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
