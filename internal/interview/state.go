package interview

import (
	"time"

	"ai-interview-go/internal/constants"
)

// ConversationEntry 单条对话记录
type ConversationEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnalysisResult 分析 Agent 的产出：回答是否足够完整，以及追问方向
type AnalysisResult struct {
	IsSufficient        bool           `json:"is_sufficient"`
	ExtractedInfo       map[string]any `json:"extracted_info"`
	MissingPoints       []string       `json:"missing_points"`
	FollowUpSuggestions []string       `json:"follow_up_suggestions"`
	Reasoning           string         `json:"reasoning"`
	ConfidenceScore     float64        `json:"confidence_score"`
	QualityIssues       []string       `json:"quality_issues"`
}

// InsufficientResult 构造一个"回答不足"的分析结果
func InsufficientResult(missing, suggestions []string, reasoning string) *AnalysisResult {
	return &AnalysisResult{
		IsSufficient:        false,
		ExtractedInfo:       map[string]any{},
		MissingPoints:       missing,
		FollowUpSuggestions: suggestions,
		Reasoning:           reasoning,
	}
}

// SufficientResult 构造一个"回答足够"的分析结果
func SufficientResult(extracted map[string]any, reasoning string) *AnalysisResult {
	return &AnalysisResult{
		IsSufficient:        true,
		ExtractedInfo:       extracted,
		MissingPoints:       []string{},
		FollowUpSuggestions: []string{},
		Reasoning:           reasoning,
	}
}

// ModuleSummaryResult 总结 Agent 的模块产出，结构化数据可直接入库
type ModuleSummaryResult struct {
	Module            string           `json:"module"`
	StructuredData    []map[string]any `json:"structured_data"`
	CompletenessScore int              `json:"completeness_score"`
	KeyHighlights     []string         `json:"key_highlights"`
	DataQualityNotes  []string         `json:"data_quality_notes"`
	ItemCount         int              `json:"item_count"`
}

// EmptyModuleSummary 无数据时的模块总结
func EmptyModuleSummary(module Module) *ModuleSummaryResult {
	return &ModuleSummaryResult{
		Module:            string(module),
		StructuredData:    []map[string]any{},
		CompletenessScore: 0,
		KeyHighlights:     []string{},
		DataQualityNotes:  []string{"No data collected"},
		ItemCount:         0,
	}
}

// QuestionResult 提问 Agent 的产出
type QuestionResult struct {
	Question         string   `json:"question"`
	QuestionType     string   `json:"question_type"` // opening / follow_up / confirmation
	ContextReference string   `json:"context_reference"`
	TargetFields     []string `json:"target_fields"`
}

// 问题类型
const (
	QuestionTypeOpening      = "opening"
	QuestionTypeFollowUp     = "follow_up"
	QuestionTypeConfirmation = "confirmation"
)

// SessionState 单个面试会话的完整状态，JSON 序列化后整体存入会话存储
type SessionState struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Language  string `json:"language"`

	// 模块进度
	CurrentModule Module   `json:"current_module"`
	ModuleOrder   []Module `json:"module_order"`

	// 用户已有档案数据，用于定制开场问题
	ExistingProfile map[string]any `json:"existing_profile"`

	// 各模块收集的信息：临时收集 + 总结后的结构化数据
	ModuleCollectedInfo map[string]map[string]any `json:"module_collected_info"`
	ModuleSummaries     map[string]*ModuleSummaryResult `json:"module_summaries"`

	// 对话历史：全局 + 按模块分组
	ConversationHistory []ConversationEntry            `json:"conversation_history"`
	ModuleConversations map[string][]ConversationEntry `json:"module_conversations"`

	// 当前问题追踪
	CurrentQuestion     string `json:"current_question"`
	CurrentQuestionType string `json:"current_question_type"`
	FollowUpCount       int    `json:"follow_up_count"`
	CurrentItemIndex    int    `json:"current_item_index"`

	Status    string `json:"status"`
	TurnCount int    `json:"turn_count"`

	StartedAt      string `json:"started_at"`
	LastActivityAt string `json:"last_activity_at"`
}

// NewSessionState 创建初始会话状态
func NewSessionState(sessionID, userID, language string, existingProfile map[string]any) *SessionState {
	now := time.Now().Format(time.RFC3339)
	if existingProfile == nil {
		existingProfile = map[string]any{}
	}

	state := &SessionState{
		SessionID:           sessionID,
		UserID:              userID,
		Language:            language,
		CurrentModule:       ModuleBasicInfo,
		ModuleOrder:         append([]Module(nil), ModuleOrder...),
		ExistingProfile:     existingProfile,
		ModuleCollectedInfo: map[string]map[string]any{},
		ModuleSummaries:     map[string]*ModuleSummaryResult{},
		ConversationHistory: []ConversationEntry{},
		ModuleConversations: map[string][]ConversationEntry{},
		CurrentQuestionType: QuestionTypeOpening,
		Status:              constants.SessionStatusInProgress,
		StartedAt:           now,
		LastActivityAt:      now,
	}
	state.ensureModuleMaps()
	return state
}

// ensureModuleMaps 初始化各模块的数据结构
func (s *SessionState) ensureModuleMaps() {
	if s.ModuleCollectedInfo == nil {
		s.ModuleCollectedInfo = map[string]map[string]any{}
	}
	if s.ModuleConversations == nil {
		s.ModuleConversations = map[string][]ConversationEntry{}
	}
	if s.ModuleSummaries == nil {
		s.ModuleSummaries = map[string]*ModuleSummaryResult{}
	}
	for _, m := range s.ModuleOrder {
		key := string(m)
		if _, ok := s.ModuleCollectedInfo[key]; !ok {
			s.ModuleCollectedInfo[key] = map[string]any{}
		}
		if _, ok := s.ModuleConversations[key]; !ok {
			s.ModuleConversations[key] = []ConversationEntry{}
		}
	}
}

// CurrentCollectedInfo 当前模块已收集的信息
func (s *SessionState) CurrentCollectedInfo() map[string]any {
	if info, ok := s.ModuleCollectedInfo[string(s.CurrentModule)]; ok {
		return info
	}
	return map[string]any{}
}

// UpdateCollectedInfo 用新抽取的信息更新当前模块
// 列表字段合并去重，标量字段被非空新值覆盖
func (s *SessionState) UpdateCollectedInfo(newInfo map[string]any) {
	key := string(s.CurrentModule)
	current := s.ModuleCollectedInfo[key]
	if current == nil {
		current = map[string]any{}
	}
	s.ModuleCollectedInfo[key] = MergeExtractedInfo(current, newInfo)
}

// AddToConversation 将消息同时写入全局历史和当前模块历史
func (s *SessionState) AddToConversation(role, content string) {
	entry := ConversationEntry{Role: role, Content: content}
	s.ConversationHistory = append(s.ConversationHistory, entry)

	key := string(s.CurrentModule)
	s.ModuleConversations[key] = append(s.ModuleConversations[key], entry)
}

// CurrentModuleConversation 当前模块的对话历史
func (s *SessionState) CurrentModuleConversation() []ConversationEntry {
	return s.ModuleConversations[string(s.CurrentModule)]
}

// RecentConversation 最近 n 条全局对话
func (s *SessionState) RecentConversation(n int) []ConversationEntry {
	if n <= 0 || len(s.ConversationHistory) <= n {
		return s.ConversationHistory
	}
	return s.ConversationHistory[len(s.ConversationHistory)-n:]
}

// AdvanceToNextModule 进入采集顺序中的下一个模块
// 返回 false 表示已是最后一个模块
func (s *SessionState) AdvanceToNextModule() bool {
	next, ok := NextModule(s.CurrentModule)
	if !ok {
		return false
	}

	s.CurrentModule = next
	s.FollowUpCount = 0
	s.CurrentItemIndex = 0

	key := string(next)
	if _, exists := s.ModuleCollectedInfo[key]; !exists {
		s.ModuleCollectedInfo[key] = map[string]any{}
	}
	if _, exists := s.ModuleConversations[key]; !exists {
		s.ModuleConversations[key] = []ConversationEntry{}
	}
	return true
}

// CompleteCurrentModule 记录当前模块的总结
func (s *SessionState) CompleteCurrentModule(summary *ModuleSummaryResult) {
	s.ModuleSummaries[string(s.CurrentModule)] = summary
}

// UpdateActivity 刷新活动时间并累加轮次
func (s *SessionState) UpdateActivity() {
	s.LastActivityAt = time.Now().Format(time.RFC3339)
	s.TurnCount++
}

// IsAllModulesComplete 是否已进入确认阶段
func (s *SessionState) IsAllModulesComplete() bool {
	return s.CurrentModule == ModuleSummary
}

// ProgressInfo 进度信息
type ProgressInfo struct {
	CompletedModules   int    `json:"completed_modules"`
	TotalModules       int    `json:"total_modules"`
	ProgressPercentage int    `json:"progress_percentage"`
	CurrentModule      string `json:"current_module"`
}

// GetProgressInfo 基于已总结模块数计算进度
func (s *SessionState) GetProgressInfo() ProgressInfo {
	completed := len(s.ModuleSummaries)
	total := len(s.ModuleOrder)
	percentage := 0
	if total > 0 {
		percentage = completed * 100 / total
	}
	return ProgressInfo{
		CompletedModules:   completed,
		TotalModules:       total,
		ProgressPercentage: percentage,
		CurrentModule:      string(s.CurrentModule),
	}
}

// ExtractedData 各模块总结后的结构化数据
func (s *SessionState) ExtractedData() map[string][]map[string]any {
	result := map[string][]map[string]any{}
	for module, summary := range s.ModuleSummaries {
		if summary != nil {
			result[module] = summary.StructuredData
		}
	}
	return result
}

// MergeExtractedInfo 合并两次抽取的信息
// 列表字段：追加新条目并去重，保持首次出现顺序；其他字段：新的非空值覆盖旧值；nil/空值跳过
func MergeExtractedInfo(existing, newInfo map[string]any) map[string]any {
	result := make(map[string]any, len(existing)+len(newInfo))
	for k, v := range existing {
		result[k] = v
	}

	for key, value := range newInfo {
		// 空抽取不覆盖已收集的值
		if !isFilled(value) {
			continue
		}

		newList, isList := value.([]any)
		if !isList {
			result[key] = value
			continue
		}

		existingList, ok := result[key].([]any)
		if !ok {
			result[key] = newList
			continue
		}

		combined := append([]any(nil), existingList...)
		for _, item := range newList {
			if !containsValue(combined, item) {
				combined = append(combined, item)
			}
		}
		result[key] = combined
	}

	return result
}

// containsValue 列表成员判断，元素可能是解码后的任意 JSON 值
func containsValue(list []any, target any) bool {
	for _, item := range list {
		if valueEqual(item, target) {
			return true
		}
	}
	return false
}

func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	default:
		// 嵌套结构不做深度比较，视为不同条目
		return false
	}
}

// CalculateModuleCompleteness 基于字段填充情况计算模块完整度 (0-100)
// 必填字段权重 0.7，可选字段权重 0.3
func CalculateModuleCompleteness(collected map[string]any, m Module) int {
	schema := GetModuleSchema(m)
	if schema == nil {
		return 0
	}

	required := schema.RequiredFieldNames()
	optional := schema.OptionalFieldNames()

	requiredFilled := countFilled(collected, required)
	optionalFilled := countFilled(collected, optional)

	requiredScore := 100.0
	if len(required) > 0 {
		requiredScore = float64(requiredFilled) / float64(len(required)) * 100
	}
	optionalScore := 100.0
	if len(optional) > 0 {
		optionalScore = float64(optionalFilled) / float64(len(optional)) * 100
	}

	return int(requiredScore*0.7 + optionalScore*0.3)
}

func countFilled(collected map[string]any, fields []string) int {
	count := 0
	for _, f := range fields {
		if isFilled(collected[f]) {
			count++
		}
	}
	return count
}

// isFilled 字段是否有实际内容（对应 Python 的真值判断）
func isFilled(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	case bool:
		return val
	case float64:
		return val != 0
	case int:
		return val != 0
	default:
		return true
	}
}
