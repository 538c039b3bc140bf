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

// Analyzer 分析 Agent：评估用户回答是否足够完整，并抽取结构化信息
// LLM 的判定之上叠加一层硬规则（追问预算、模块门槛、用户表态）
type Analyzer struct {
	llm    model.BaseChatModel
	budget *FollowUpBudget
}

// NewAnalyzer 创建分析 Agent
func NewAnalyzer(llm model.BaseChatModel, budget *FollowUpBudget) *Analyzer {
	return &Analyzer{llm: llm, budget: budget}
}

// AnalyzeResponse 分析一轮用户回答
// LLM 调用失败时返回保守的"不足"结果，不向上抛错
func (a *Analyzer) AnalyzeResponse(
	ctx context.Context,
	module Module,
	currentQuestion string,
	userResponse string,
	collectedInfo map[string]any,
	followUpCount int,
) *AnalysisResult {
	prompt := a.buildPrompt(module, currentQuestion, userResponse, collectedInfo)

	messages := []*schema.Message{
		schema.SystemMessage(analyzerSystemPrompt),
		schema.UserMessage(prompt),
	}

	resp, err := a.llm.Generate(ctx, messages, model.WithTemperature(0.3))
	if err != nil {
		logger.Error().Err(err).Str("module", string(module)).Msg("分析 Agent 调用 LLM 失败")
		return InsufficientResult(
			[]string{"Unable to analyze response"},
			[]string{"Please provide more details"},
			fmt.Sprintf("Analysis error: %v", err),
		)
	}

	result := a.parseResponse(resp.Content)
	result = a.applyRuleChecks(result, module, collectedInfo, followUpCount, userResponse)

	logger.Debug().
		Str("module", string(module)).
		Bool("sufficient", result.IsSufficient).
		Int("missing_points", len(result.MissingPoints)).
		Msg("分析完成")

	return result
}

func (a *Analyzer) buildPrompt(module Module, currentQuestion, userResponse string, collected map[string]any) string {
	required := module.RequiredFields()
	requiredText := "None"
	if len(required) > 0 {
		requiredText = strings.Join(required, ", ")
	}

	collectedText := "{}"
	if len(collected) > 0 {
		if b, err := json.MarshalIndent(collected, "", "  "); err == nil {
			collectedText = string(b)
		}
	}

	replacer := strings.NewReplacer(
		"{module_name}", string(module),
		"{current_question}", currentQuestion,
		"{user_response}", userResponse,
		"{collected_info}", collectedText,
		"{required_fields}", requiredText,
	)
	return replacer.Replace(analyzerPrompt)
}

// parseResponse 解析 LLM 输出，失败时返回带解析失败标记的保守结果
func (a *Analyzer) parseResponse(response string) *AnalysisResult {
	data, err := ParseJSONObject(response)
	if err != nil {
		logger.Warn().Err(err).Msg("分析 Agent 响应不是合法 JSON")
		preview := response
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return InsufficientResult(
			[]string{"Parse error"},
			[]string{"Please provide more details"},
			"Response parsing failed: "+preview,
		)
	}

	result := &AnalysisResult{
		IsSufficient:        boolField(data, "is_sufficient"),
		ExtractedInfo:       mapField(data, "extracted_info"),
		MissingPoints:       stringSliceField(data, "missing_points"),
		FollowUpSuggestions: stringSliceField(data, "follow_up_suggestions"),
		Reasoning:           stringField(data, "reasoning"),
		ConfidenceScore:     floatField(data, "confidence_score", 0.5),
		QualityIssues:       stringSliceField(data, "quality_issues"),
	}
	return result
}

// applyRuleChecks 在 LLM 判定之上应用硬规则
func (a *Analyzer) applyRuleChecks(
	result *AnalysisResult,
	module Module,
	collectedInfo map[string]any,
	followUpCount int,
	userResponse string,
) *AnalysisResult {
	minFollowUps := a.budget.Min(module)
	maxFollowUps := a.budget.Max(module)

	// 已达到追问上限：强制判定足够，避免无限追问
	if followUpCount >= maxFollowUps {
		result.IsSufficient = true
		result.Reasoning += fmt.Sprintf(" (Max follow-ups reached: %d)", maxFollowUps)
		return result
	}

	// 未达到追问下限：即使 LLM 认为足够也继续追问
	if followUpCount < minFollowUps && result.IsSufficient {
		result.IsSufficient = false
		if len(result.MissingPoints) == 0 {
			result.MissingPoints = []string{"Need more details for comprehensive profile"}
		}
		if len(result.FollowUpSuggestions) == 0 {
			result.FollowUpSuggestions = []string{"Ask for additional details"}
		}
	}

	// 模块门槛只在追问次数少于上限一半时严格检查
	merged := MergeExtractedInfo(collectedInfo, result.ExtractedInfo)

	if followUpCount < maxFollowUps/2 {
		switch module {
		case ModuleExperience:
			result = checkExperienceQuality(result, merged)
		case ModuleProject:
			result = checkProjectQuality(result, merged)
		case ModuleEducation:
			result = checkEducationQuality(result, merged)
		}
	}

	// 用户明确表示没有更多信息时放宽标准
	if userIndicatesNoMore(userResponse) {
		hasRequired := true
		for _, f := range module.RequiredFields() {
			if !isFilled(merged[f]) {
				hasRequired = false
				break
			}
		}
		if hasRequired || followUpCount >= 1 {
			result.IsSufficient = true
			result.Reasoning += " (User indicated no more information available)"
		}
	}

	return result
}

// checkExperienceQuality 工作经历门槛：公司名和职位至少有其一
func checkExperienceQuality(result *AnalysisResult, info map[string]any) *AnalysisResult {
	if !isFilled(info["company"]) && !isFilled(info["title"]) {
		result.IsSufficient = false
		if !isFilled(info["company"]) {
			result.MissingPoints = append(result.MissingPoints, "Company or organization name")
		}
		if !isFilled(info["title"]) {
			result.MissingPoints = append(result.MissingPoints, "Job title or role")
		}
		result.FollowUpSuggestions = append(result.FollowUpSuggestions, "Ask about the company and role")
	}
	return result
}

// checkProjectQuality 项目门槛：名称和描述至少有其一
func checkProjectQuality(result *AnalysisResult, info map[string]any) *AnalysisResult {
	if !isFilled(info["name"]) && !isFilled(info["description"]) {
		result.IsSufficient = false
		result.MissingPoints = append(result.MissingPoints, "Project name or description")
		result.FollowUpSuggestions = append(result.FollowUpSuggestions, "Ask about the project")
	}
	return result
}

// checkEducationQuality 教育门槛：学校和学位都要有
func checkEducationQuality(result *AnalysisResult, info map[string]any) *AnalysisResult {
	if !isFilled(info["school"]) || !isFilled(info["degree"]) {
		result.IsSufficient = false
		if !isFilled(info["school"]) {
			result.MissingPoints = append(result.MissingPoints, "School name")
		}
		if !isFilled(info["degree"]) {
			result.MissingPoints = append(result.MissingPoints, "Degree type")
		}
	}
	return result
}

// noMoreKeywords 用户表示"没有更多信息"的关键词（子串匹配）
var noMoreKeywords = []string{
	"没有了", "没了", "就这些", "没有其他", "暂时没有", "不需要", "这就是全部",
	"no more", "that's all", "nothing else", "that's it", "no other",
	"就这样", "差不多了", "basically it", "nothing to add",
}

func userIndicatesNoMore(response string) bool {
	lower := strings.ToLower(response)
	for _, kw := range noMoreKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// --- JSON 字段读取辅助 ---

func boolField(data map[string]any, key string) bool {
	v, _ := data[key].(bool)
	return v
}

func stringField(data map[string]any, key string) string {
	v, _ := data[key].(string)
	return v
}

func floatField(data map[string]any, key string, fallback float64) float64 {
	if v, ok := data[key].(float64); ok {
		return v
	}
	return fallback
}

func mapField(data map[string]any, key string) map[string]any {
	if v, ok := data[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

func stringSliceField(data map[string]any, key string) []string {
	raw, ok := data[key].([]any)
	if !ok {
		return []string{}
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
