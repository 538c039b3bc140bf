package interview

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"ai-interview-go/internal/logger"
)

// Summarizer 总结 Agent：纵览模块完整对话生成结构化数据，
// 以及在会话结束时合成最终档案
type Summarizer struct {
	llm model.BaseChatModel
}

// NewSummarizer 创建总结 Agent
func NewSummarizer(llm model.BaseChatModel) *Summarizer {
	return &Summarizer{llm: llm}
}

// SummarizeModule 总结一个模块的对话，生成可入库的结构化数据
// LLM 失败时回退为把已收集信息包装成单条数据
func (s *Summarizer) SummarizeModule(
	ctx context.Context,
	module Module,
	moduleConversation []ConversationEntry,
	collectedInfo map[string]any,
	existingData []any,
) *ModuleSummaryResult {
	prompt := s.buildPrompt(module, moduleConversation, collectedInfo, existingData)

	messages := []*schema.Message{
		schema.SystemMessage(summarizerSystemPrompt),
		schema.UserMessage(prompt),
	}

	resp, err := s.llm.Generate(ctx, messages, model.WithTemperature(0.2), model.WithMaxTokens(4096))
	if err != nil {
		logger.Error().Err(err).Str("module", string(module)).Msg("模块总结 LLM 调用失败，使用回退总结")
		return fallbackSummary(module, collectedInfo)
	}

	summary := s.parseSummary(resp.Content, module, collectedInfo)

	logger.Info().
		Str("module", string(module)).
		Int("items", summary.ItemCount).
		Int("score", summary.CompletenessScore).
		Msg("模块总结完成")

	return summary
}

// SynthesizeFinalProfile 整合所有模块总结生成最终档案
// LLM 失败时回退为直接拼装已提取的数据
func (s *Summarizer) SynthesizeFinalProfile(
	ctx context.Context,
	moduleSummaries map[string]*ModuleSummaryResult,
	fullConversation []ConversationEntry,
) map[string]any {
	extractedModules := map[string]any{}
	for name, summary := range moduleSummaries {
		if summary != nil {
			extractedModules[name] = summary.StructuredData
		}
	}

	extractedStr := "{}"
	if b, err := json.MarshalIndent(extractedModules, "", "  "); err == nil {
		extractedStr = string(b)
	}

	convStr := formatConversation(fullConversation)
	// 只保留对话尾部，控制提示词长度
	if len(convStr) > 5000 {
		convStr = convStr[len(convStr)-5000:]
	}

	replacer := strings.NewReplacer(
		"{extracted_modules}", extractedStr,
		"{full_conversation}", convStr,
	)
	prompt := replacer.Replace(finalSynthesisPrompt)

	messages := []*schema.Message{
		schema.SystemMessage("You are a profile synthesis expert."),
		schema.UserMessage(prompt),
	}

	resp, err := s.llm.Generate(ctx, messages, model.WithTemperature(0.1), model.WithMaxTokens(4096))
	if err != nil {
		logger.Error().Err(err).Msg("档案合成 LLM 调用失败，使用回退档案")
		return fallbackProfile(extractedModules)
	}

	profile, err := ParseJSONObjectOrArray(resp.Content)
	if err != nil {
		logger.Warn().Err(err).Msg("档案合成响应解析失败，使用回退档案")
		return fallbackProfile(extractedModules)
	}

	profile = ensureProfileFields(profile, extractedModules)

	logger.Info().Int("completeness", intField(profile, "completeness_score", 0)).Msg("最终档案合成完成")
	return profile
}

func (s *Summarizer) buildPrompt(
	module Module,
	conversation []ConversationEntry,
	collectedInfo map[string]any,
	existingData []any,
) string {
	collectedText := "{}"
	if len(collectedInfo) > 0 {
		if b, err := json.MarshalIndent(collectedInfo, "", "  "); err == nil {
			collectedText = string(b)
		}
	}

	existingText := "[]"
	if len(existingData) > 0 {
		if b, err := json.MarshalIndent(existingData, "", "  "); err == nil {
			existingText = string(b)
		}
	}

	replacer := strings.NewReplacer(
		"{module_name}", string(module),
		"{conversation_history}", formatConversation(conversation),
		"{collected_info}", collectedText,
		"{existing_data}", existingText,
		"{schema_template}", SchemaJSONTemplate(module),
	)
	return replacer.Replace(summarizerPrompt)
}

// formatConversation 将对话渲染为 "User:/Advisor:" 文本
func formatConversation(conversation []ConversationEntry) string {
	lines := make([]string, 0, len(conversation))
	for _, msg := range conversation {
		role := "Advisor"
		if msg.Role == "user" {
			role = "User"
		}
		lines = append(lines, role+": "+msg.Content)
	}
	return strings.Join(lines, "\n\n")
}

// parseSummary 解析模块总结响应
func (s *Summarizer) parseSummary(response string, module Module, collectedInfo map[string]any) *ModuleSummaryResult {
	data, err := ParseJSONObjectOrArray(response)
	if err != nil {
		logger.Warn().Err(err).Str("module", string(module)).Msg("模块总结响应解析失败")
		return fallbackSummary(module, collectedInfo)
	}

	structured := extractStructuredData(data["structured_data"])

	return &ModuleSummaryResult{
		Module:            string(module),
		StructuredData:    structured,
		CompletenessScore: intField(data, "completeness_score", 50),
		KeyHighlights:     stringSliceField(data, "key_highlights"),
		DataQualityNotes:  stringSliceField(data, "data_quality_notes"),
		ItemCount:         len(structured),
	}
}

// extractStructuredData 容忍单个对象或对象数组两种形态
func extractStructuredData(raw any) []map[string]any {
	switch v := raw.(type) {
	case []any:
		items := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items
	case map[string]any:
		return []map[string]any{v}
	default:
		return []map[string]any{}
	}
}

// fallbackSummary LLM 提取失败时直接使用已收集信息
func fallbackSummary(module Module, collectedInfo map[string]any) *ModuleSummaryResult {
	var structured []map[string]any
	if len(collectedInfo) > 0 {
		structured = []map[string]any{collectedInfo}
	} else {
		structured = []map[string]any{}
	}

	return &ModuleSummaryResult{
		Module:            string(module),
		StructuredData:    structured,
		CompletenessScore: 30,
		KeyHighlights:     []string{},
		DataQualityNotes:  []string{"Fallback summary - LLM extraction failed"},
		ItemCount:         len(structured),
	}
}

// ensureProfileFields 补全模型可能遗漏的档案字段
func ensureProfileFields(profile map[string]any, extractedModules map[string]any) map[string]any {
	setDefault(profile, "completeness_score", float64(50))
	setDefault(profile, "missing_sections", []any{})
	setDefault(profile, "headline", "")
	setDefault(profile, "summary", "")
	setDefault(profile, "location", "")
	setDefault(profile, "years_of_experience", float64(0))

	setDefault(profile, "education", moduleDataOrEmpty(extractedModules, "education"))
	setDefault(profile, "experiences", moduleDataOrEmpty(extractedModules, "experience"))
	setDefault(profile, "projects", moduleDataOrEmpty(extractedModules, "project"))
	setDefault(profile, "skills", moduleDataOrEmpty(extractedModules, "skill"))
	setDefault(profile, "certifications", moduleDataOrEmpty(extractedModules, "certification"))
	setDefault(profile, "languages", moduleDataOrEmpty(extractedModules, "language"))

	// 从工作经历中提炼成就：每段经历取前 2 条，总共最多 5 条
	if !isFilled(profile["achievements"]) {
		var achievements []any
		if experiences, ok := profile["experiences"].([]any); ok {
			for _, raw := range experiences {
				exp, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				if expAch, ok := exp["achievements"].([]any); ok {
					take := expAch
					if len(take) > 2 {
						take = take[:2]
					}
					achievements = append(achievements, take...)
				}
			}
		} else if experiences, ok := profile["experiences"].([]map[string]any); ok {
			for _, exp := range experiences {
				if expAch, ok := exp["achievements"].([]any); ok {
					take := expAch
					if len(take) > 2 {
						take = take[:2]
					}
					achievements = append(achievements, take...)
				}
			}
		}
		if len(achievements) > 5 {
			achievements = achievements[:5]
		}
		if achievements == nil {
			achievements = []any{}
		}
		profile["achievements"] = achievements
	}

	return profile
}

// fallbackProfile 合成失败时的兜底档案
func fallbackProfile(extractedModules map[string]any) map[string]any {
	return map[string]any{
		"headline":            "",
		"summary":             "",
		"location":            "",
		"years_of_experience": 0,
		"education":           moduleDataOrEmpty(extractedModules, "education"),
		"experiences":         moduleDataOrEmpty(extractedModules, "experience"),
		"projects":            moduleDataOrEmpty(extractedModules, "project"),
		"skills":              moduleDataOrEmpty(extractedModules, "skill"),
		"certifications":      moduleDataOrEmpty(extractedModules, "certification"),
		"languages":           moduleDataOrEmpty(extractedModules, "language"),
		"achievements":        []any{},
		"completeness_score":  40,
		"missing_sections":    []string{"synthesis_failed"},
	}
}

func moduleDataOrEmpty(extractedModules map[string]any, key string) any {
	if v, ok := extractedModules[key]; ok && v != nil {
		return v
	}
	return []any{}
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok || m[key] == nil {
		m[key] = value
	}
}

func intField(data map[string]any, key string, fallback int) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
