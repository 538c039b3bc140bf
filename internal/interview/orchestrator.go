package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"

	"ai-interview-go/internal/constants"
	"ai-interview-go/internal/logger"
)

// defaultHeartbeatInterval 慢模型场景下的心跳间隔
const defaultHeartbeatInterval = 5 * time.Second

// ResponseChunk 流式响应块
// IsFinal 为 false 的块是过程提示（以 [THINKING] 开头），客户端可覆盖显示
type ResponseChunk struct {
	Content string `json:"content"`
	IsFinal bool   `json:"is_final"`
}

// thinkingMessages 等待 Agent 时轮播的心跳提示
var thinkingMessages = []string{
	"[THINKING] Deep analysis in progress...",
	"[THINKING] Evaluating your experience...",
	"[THINKING] Processing information...",
	"[THINKING] Preparing personalized questions...",
}

// Orchestrator 面试编排器，协调提问/分析/总结三个 Agent
//
// 职责：
//   - 管理会话状态的加载与持久化
//   - 用户回答到来时并行调度分析 Agent 与提问 Agent 的上下文准备
//   - 流程控制：开场 -> 追问 -> 下一条目 -> 下一模块 -> 完成
type Orchestrator struct {
	store      SessionStore
	questioner *Questioner
	analyzer   *Analyzer
	summarizer *Summarizer

	heartbeatInterval time.Duration
}

// NewOrchestrator 创建编排器，heartbeatInterval 为 0 时取默认值
func NewOrchestrator(
	llm model.BaseChatModel,
	store SessionStore,
	budget *FollowUpBudget,
	heartbeatInterval time.Duration,
) *Orchestrator {
	if heartbeatInterval <= 0 {
		heartbeatInterval = defaultHeartbeatInterval
	}

	o := &Orchestrator{
		store:             store,
		questioner:        NewQuestioner(llm),
		analyzer:          NewAnalyzer(llm, budget),
		summarizer:        NewSummarizer(llm),
		heartbeatInterval: heartbeatInterval,
	}

	logger.Info().Msg("面试编排器初始化完成，三个 Agent 并行模式")
	return o
}

// StartSession 开启新的面试会话
// existingProfileJSON 是用户已有档案的 JSON，解析失败时忽略
// 返回初始状态、欢迎语和第一个问题
func (o *Orchestrator) StartSession(
	ctx context.Context,
	userID string,
	sessionID string,
	existingProfileJSON string,
) (*SessionState, string, string, error) {
	existingData := map[string]any{}
	if existingProfileJSON != "" {
		if err := json.Unmarshal([]byte(existingProfileJSON), &existingData); err != nil {
			logger.Warn().Err(err).Str("session_id", sessionID).Msg("已有档案 JSON 解析失败，按空档案处理")
			existingData = map[string]any{}
		} else {
			logger.Info().Str("user_id", userID).Msg("已加载用户的已有档案")
		}
	}

	state := NewSessionState(sessionID, userID, "en", existingData)

	firstQuestion := o.questioner.GenerateOpeningQuestion(ctx, state.CurrentModule, existingData)

	state.AddToConversation("assistant", WelcomeMessage+"\n\n"+firstQuestion.Question)
	state.CurrentQuestion = firstQuestion.Question
	state.CurrentQuestionType = QuestionTypeOpening

	if o.store != nil {
		if err := o.store.Set(ctx, state); err != nil {
			return nil, "", "", fmt.Errorf("保存新会话失败: %w", err)
		}
	}

	logger.Info().Str("session_id", sessionID).Str("user_id", userID).Msg("面试会话已开始")

	return state, WelcomeMessage, firstQuestion.Question, nil
}

// ProcessMessage 处理一条用户消息，以流式块返回响应
//
// 核心流程：
//  1. 加载会话状态并记录用户消息
//  2. 优先处理确认阶段 / "没有更多" / "还有更多" / 跑题消息
//  3. 实质性回答：并行执行分析 Agent 与追问上下文准备，期间发送心跳
//  4. 根据分析结果生成追问或推进条目/模块
//
// 返回的 channel 在处理结束后关闭，最后一个块 IsFinal 为 true
func (o *Orchestrator) ProcessMessage(ctx context.Context, sessionID, userMessage string) <-chan ResponseChunk {
	out := make(chan ResponseChunk, 4)

	go func() {
		defer close(out)
		o.processMessage(ctx, sessionID, userMessage, out)
	}()

	return out
}

func (o *Orchestrator) processMessage(ctx context.Context, sessionID, userMessage string, out chan<- ResponseChunk) {
	logger.Info().Str("session_id", sessionID).Int("message_len", len(userMessage)).Msg("处理用户消息")

	if o.store == nil {
		logger.Error().Msg("会话存储未配置")
		emit(ctx, out, ResponseChunk{Content: "Session store not configured.", IsFinal: true})
		return
	}

	state, err := o.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			logger.Error().Str("session_id", sessionID).Msg("会话不存在")
			emit(ctx, out, ResponseChunk{Content: "Session not found. Please start a new session.", IsFinal: true})
			return
		}
		logger.Error().Err(err).Str("session_id", sessionID).Msg("加载会话失败")
		emit(ctx, out, ResponseChunk{Content: "Sorry, there was an error. Please try again.", IsFinal: true})
		return
	}

	state.AddToConversation("user", userMessage)
	state.UpdateActivity()

	// 确认阶段：只处理确认或修改意向
	if state.CurrentModule == ModuleSummary {
		response := o.handleSummaryConfirmation(state, userMessage)
		o.finishTurn(ctx, state, response, out)
		return
	}

	// 用户表示没有更多条目
	if userSaysNoMore(userMessage) {
		response := o.handleNoMoreItems(ctx, state)
		o.finishTurn(ctx, state, response, out)
		return
	}

	// 用户在确认问题上表示还有更多条目
	if userSaysHasMore(userMessage) && state.CurrentQuestionType == QuestionTypeConfirmation {
		response := o.handleHasMoreItems(ctx, state)
		o.finishTurn(ctx, state, response, out)
		return
	}

	// 跑题消息礼貌拒绝并拉回当前问题
	if isOffTopic(userMessage) {
		response := o.politeDecline(state)
		o.finishTurn(ctx, state, response, out)
		return
	}

	// 实质性回答：分析 Agent 与追问上下文并行执行，等待期间发送心跳
	logger.Info().Str("session_id", sessionID).Str("module", string(state.CurrentModule)).Msg("开始并行执行 Agent")

	if !emit(ctx, out, ResponseChunk{Content: "[THINKING] Analyzing your response..."}) {
		return
	}

	module := state.CurrentModule
	conversation := state.CurrentModuleConversation()
	collectedInfo := state.CurrentCollectedInfo()
	currentQuestion := state.CurrentQuestion
	followUpCount := state.FollowUpCount

	var (
		analysis *AnalysisResult
		fuCtx    FollowUpContext
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		analysis = o.analyzer.AnalyzeResponse(ctx, module, currentQuestion, userMessage, collectedInfo, followUpCount)
	}()
	go func() {
		defer wg.Done()
		fuCtx = o.questioner.PrepareFollowUpContext(module, conversation, collectedInfo, userMessage)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(o.heartbeatInterval)
	defer ticker.Stop()

	heartbeatCount := 0
waitLoop:
	for {
		select {
		case <-done:
			break waitLoop
		case <-ticker.C:
			heartbeatCount++
			msg := thinkingMessages[heartbeatCount%len(thinkingMessages)]
			if !emit(ctx, out, ResponseChunk{Content: msg}) {
				return
			}
		case <-ctx.Done():
			return
		}
	}

	logger.Info().
		Bool("sufficient", analysis.IsSufficient).
		Int("missing_points", len(analysis.MissingPoints)).
		Int("directions", len(fuCtx.PossibleDirections)).
		Msg("Agent 并行执行完成")

	if len(analysis.ExtractedInfo) > 0 {
		state.UpdateCollectedInfo(analysis.ExtractedInfo)
	}

	if !emit(ctx, out, ResponseChunk{Content: "[THINKING] Formulating next question..."}) {
		return
	}

	var response string
	if analysis.IsSufficient {
		response = o.handleItemComplete(ctx, state)
	} else {
		response = o.handleFollowUp(ctx, state, analysis)
	}

	o.finishTurn(ctx, state, response, out)
}

// finishTurn 记录助手回复、持久化状态并发出最终响应块
func (o *Orchestrator) finishTurn(ctx context.Context, state *SessionState, response string, out chan<- ResponseChunk) {
	state.AddToConversation("assistant", response)

	if err := o.store.Set(ctx, state); err != nil {
		logger.Error().Err(err).Str("session_id", state.SessionID).Msg("保存会话状态失败")
		emit(ctx, out, ResponseChunk{Content: "Sorry, there was an error. Please try again.", IsFinal: true})
		return
	}

	emit(ctx, out, ResponseChunk{Content: response, IsFinal: true})
}

// emit 发送响应块，上下文取消时返回 false
func emit(ctx context.Context, out chan<- ResponseChunk, chunk ResponseChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// SessionStateView 会话状态的对外视图
type SessionStateView struct {
	SessionID          string                      `json:"session_id"`
	UserID             string                      `json:"user_id"`
	CurrentModule      string                      `json:"current_module"`
	ModuleName         string                      `json:"module_name"`
	TurnCount          int                         `json:"turn_count"`
	Status             string                      `json:"status"`
	Progress           string                      `json:"progress"`
	ProgressPercentage int                         `json:"progress_percentage"`
	ExtractedData      map[string][]map[string]any `json:"extracted_data"`
}

// GetSessionState 查询会话进度
func (o *Orchestrator) GetSessionState(ctx context.Context, sessionID string) (*SessionStateView, error) {
	if o.store == nil {
		return nil, fmt.Errorf("会话存储未配置")
	}

	state, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	progress := state.GetProgressInfo()

	return &SessionStateView{
		SessionID:          state.SessionID,
		UserID:             state.UserID,
		CurrentModule:      string(state.CurrentModule),
		ModuleName:         state.CurrentModule.DisplayName(),
		TurnCount:          state.TurnCount,
		Status:             state.Status,
		Progress:           fmt.Sprintf("%d/%d", progress.CompletedModules, progress.TotalModules),
		ProgressPercentage: progress.ProgressPercentage,
		ExtractedData:      state.ExtractedData(),
	}, nil
}

// FinishResult 完成面试的结果
type FinishResult struct {
	Success           bool           `json:"success"`
	Profile           map[string]any `json:"profile"`
	CompletenessScore int            `json:"completeness_score"`
	MissingSections   []string       `json:"missing_sections"`
}

// FinishSession 结束面试并合成最终档案
func (o *Orchestrator) FinishSession(ctx context.Context, sessionID string) (*FinishResult, error) {
	if o.store == nil {
		return nil, fmt.Errorf("会话存储未配置")
	}

	state, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	o.ensureCurrentModuleSummarized(ctx, state)

	profile := o.summarizer.SynthesizeFinalProfile(ctx, state.ModuleSummaries, state.ConversationHistory)

	state.Status = constants.SessionStatusCompleted
	if err := o.store.Set(ctx, state); err != nil {
		return nil, fmt.Errorf("保存会话完成状态失败: %w", err)
	}

	score := intField(profile, "completeness_score", 0)
	logger.Info().Str("session_id", sessionID).Int("completeness", score).Msg("面试会话已完成")

	return &FinishResult{
		Success:           true,
		Profile:           profile,
		CompletenessScore: score,
		MissingSections:   missingSections(profile),
	}, nil
}

// DeleteSession 删除会话
func (o *Orchestrator) DeleteSession(ctx context.Context, sessionID string) error {
	if o.store == nil {
		return fmt.Errorf("会话存储未配置")
	}
	return o.store.Delete(ctx, sessionID)
}

// ==================== 流程处理 ====================

// handleFollowUp 生成追问
func (o *Orchestrator) handleFollowUp(ctx context.Context, state *SessionState, analysis *AnalysisResult) string {
	state.FollowUpCount++

	result := o.questioner.GenerateFollowUp(
		ctx,
		state.CurrentModule,
		state.CurrentModuleConversation(),
		state.CurrentCollectedInfo(),
		analysis,
	)

	state.CurrentQuestion = result.Question
	state.CurrentQuestionType = QuestionTypeFollowUp

	return result.Question
}

// handleItemComplete 当前条目采集完成
// 多条目模块询问是否还有更多，单条目模块直接进入下一模块
func (o *Orchestrator) handleItemComplete(ctx context.Context, state *SessionState) string {
	if state.CurrentModule.IsMultiItem() {
		state.CurrentItemIndex++
		result := o.questioner.GenerateAskMoreItems(state.CurrentModule, state.CurrentItemIndex)

		state.CurrentQuestion = result.Question
		state.CurrentQuestionType = QuestionTypeConfirmation

		return result.Question
	}

	return o.advanceToNextModule(ctx, state)
}

// handleNoMoreItems 用户表示没有更多条目：总结当前模块并推进
func (o *Orchestrator) handleNoMoreItems(ctx context.Context, state *SessionState) string {
	o.summarizeCurrentModule(ctx, state)
	return o.advanceToNextModule(ctx, state)
}

// handleHasMoreItems 用户表示还有更多条目：重置追问计数，开始新条目
func (o *Orchestrator) handleHasMoreItems(ctx context.Context, state *SessionState) string {
	state.FollowUpCount = 0

	result := o.questioner.GenerateOpeningQuestion(ctx, state.CurrentModule, state.ExistingProfile)

	state.CurrentQuestion = result.Question
	state.CurrentQuestionType = QuestionTypeOpening

	return result.Question
}

// advanceToNextModule 总结当前模块后推进到下一个；没有下一个时进入确认阶段
func (o *Orchestrator) advanceToNextModule(ctx context.Context, state *SessionState) string {
	completedModule := state.CurrentModule
	itemCount := state.CurrentItemIndex + 1

	o.ensureCurrentModuleSummarized(ctx, state)

	if state.AdvanceToNextModule() {
		nextModule := state.CurrentModule

		transition := moduleTransition(completedModule, nextModule, itemCount)

		result := o.questioner.GenerateOpeningQuestion(ctx, nextModule, state.ExistingProfile)
		state.CurrentQuestion = result.Question
		state.CurrentQuestionType = QuestionTypeOpening

		return transition + "\n\n" + result.Question
	}

	state.CurrentModule = ModuleSummary
	return o.generateFinalSummary(state)
}

// summarizeCurrentModule 调用总结 Agent 总结当前模块
func (o *Orchestrator) summarizeCurrentModule(ctx context.Context, state *SessionState) {
	module := state.CurrentModule

	existingData := moduleExistingData(module, state.ExistingProfile)

	summary := o.summarizer.SummarizeModule(
		ctx,
		module,
		state.CurrentModuleConversation(),
		state.CurrentCollectedInfo(),
		existingData,
	)

	state.CompleteCurrentModule(summary)
}

// ensureCurrentModuleSummarized 推进前保证当前模块已有总结
func (o *Orchestrator) ensureCurrentModuleSummarized(ctx context.Context, state *SessionState) {
	if state.CurrentModule == ModuleSummary {
		return
	}
	if _, ok := state.ModuleSummaries[string(state.CurrentModule)]; ok {
		return
	}
	o.summarizeCurrentModule(ctx, state)
}

// moduleTransition 模块之间的过渡语
func moduleTransition(completed, next Module, itemCount int) string {
	return fmt.Sprintf(
		"Great! We've completed the %s section with %d %s. Now let's move on to %s.",
		completed.DisplayName(), itemCount, pluralEntry(itemCount), next.DisplayName(),
	)
}

// generateFinalSummary 全部模块完成后的总览，等待用户确认
func (o *Orchestrator) generateFinalSummary(state *SessionState) string {
	var sb strings.Builder
	sb.WriteString("Great! We've completed collecting all the information.\n\n")
	sb.WriteString("Here's a summary of what we collected:\n\n")

	for _, module := range state.ModuleOrder {
		summary, ok := state.ModuleSummaries[string(module)]
		if !ok || summary == nil {
			continue
		}
		count := summary.ItemCount
		sb.WriteString(fmt.Sprintf("- %s: %d %s\n", module.DisplayName(), count, pluralEntry(count)))
	}

	sb.WriteString("\nIs this accurate? Anything to add or correct?")
	sb.WriteString("\n\nIf everything looks good, say 'Confirm' and I'll generate your complete profile.")

	return sb.String()
}

// confirmKeywords 确认阶段用户表示认可的关键词（子串匹配）
var confirmKeywords = []string{"confirm", "yes", "ok", "looks good", "correct", "accurate", "done"}

// handleSummaryConfirmation 确认阶段：确认则完成，否则引导用户说明修改内容
func (o *Orchestrator) handleSummaryConfirmation(state *SessionState, userMessage string) string {
	lower := strings.ToLower(userMessage)
	for _, kw := range confirmKeywords {
		if strings.Contains(lower, kw) {
			state.Status = constants.SessionStatusCompleted
			return "Great! Your profile is now ready.\n\nInterview complete, thank you for your cooperation!"
		}
	}
	return "Sure, please tell me what you'd like to add or modify?"
}

// politeDecline 跑题消息的礼貌拒绝，轮流使用三种话术并拉回当前问题
func (o *Orchestrator) politeDecline(state *SessionState) string {
	moduleName := state.CurrentModule.DisplayName()

	declineMessages := []string{
		fmt.Sprintf("I appreciate the question, but I'm here specifically to help collect your professional profile information. Let's stay focused on the %s section. %s", moduleName, state.CurrentQuestion),
		fmt.Sprintf("That's an interesting topic, but my role is to gather your background details for your profile. Let's continue with %s. %s", moduleName, state.CurrentQuestion),
		fmt.Sprintf("I'd love to help with that, but right now I'm focused on building your professional profile. Could we get back to discussing your %s? %s", moduleName, state.CurrentQuestion),
	}

	return declineMessages[state.TurnCount%len(declineMessages)]
}

// ==================== 消息分类 ====================

// noMorePatterns 用户表示"没有更多条目"的短语
// 匹配规则：整条消息等于短语，或以短语加空格/标点开头
var noMorePatterns = []string{
	"no", "nope", "none", "no more", "that's all", "nothing else",
	"done", "finished", "complete", "that is all", "nothing more",
	"no thanks", "i'm done", "that's it", "nothing", "all done",
	"not really", "no other", "don't have", "do not have",
	"that's everything", "that is everything", "those are all",
	"that covers it", "nothing to add", "no additional",
	"nah", "na", "negative", "not any", "none more",
}

// userSaysNoMore 用户是否在表示没有更多条目
// 超过 100 字符的消息大概率是实质性内容，不做匹配
func userSaysNoMore(message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	if len(msg) > 100 {
		return false
	}

	for _, pattern := range noMorePatterns {
		if msg == pattern ||
			strings.HasPrefix(msg, pattern+" ") ||
			strings.HasPrefix(msg, pattern+".") ||
			strings.HasPrefix(msg, pattern+",") ||
			strings.HasPrefix(msg, pattern+"!") {
			return true
		}
	}

	// 整条消息只是短语加结尾标点
	clean := strings.TrimRight(msg, ".,!?")
	for _, pattern := range noMorePatterns {
		if clean == pattern {
			return true
		}
	}

	return false
}

// hasMoreKeywords 用户表示"还有更多条目"的短语
var hasMoreKeywords = []string{
	"yes", "yeah", "yep", "sure", "have more", "another",
	"one more", "additional", "more to add", "yes please",
	"i have more", "there's more", "got more",
}

// userSaysHasMore 用户是否表示还有更多条目，只对短消息判定
func userSaysHasMore(message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))
	if len(msg) > 50 {
		return false
	}

	for _, kw := range hasMoreKeywords {
		if msg == kw ||
			strings.HasPrefix(msg, kw+" ") ||
			strings.HasPrefix(msg, kw+".") ||
			strings.HasPrefix(msg, kw+",") {
			return true
		}
	}
	return false
}

// onTopicIndicators 含这些子串的消息视为面试相关内容
var onTopicIndicators = []string{
	"i ", "my ", "i'm", "i've", "i'd", "me ", "myself", "we ", "our ",
	"project", "built", "developed", "created", "designed", "implemented",
	"worked", "role", "responsible", "contribution", "team", "company",
	"experience", "skill", "technology", "used", "using",
	"studied", "university", "school", "degree", "major", "graduated",
	"yes", "no", "sure", "absolutely", "here", "this is", "that was",
}

// offTopicPatterns 明确与面试无关的请求
var offTopicPatterns = []string{
	"tell me a joke", "sing a song", "play a game",
	"what's the weather", "what time is it",
	"write me a story", "write a poem",
	"debug this code", "fix this bug", "solve this algorithm",
}

// isOffTopic 消息是否明显跑题
// 判定保守：长消息和极短消息都不算，含任何面试相关词也不算
func isOffTopic(message string) bool {
	msg := strings.ToLower(strings.TrimSpace(message))

	if len(msg) > 100 || len(msg) < 15 {
		return false
	}

	for _, indicator := range onTopicIndicators {
		if strings.Contains(msg, indicator) {
			return false
		}
	}

	for _, pattern := range offTopicPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}

// pluralEntry 条目数量的单复数
func pluralEntry(count int) string {
	if count == 1 {
		return "entry"
	}
	return "entries"
}

// missingSections 从档案中读出缺失章节列表
func missingSections(profile map[string]any) []string {
	switch v := profile["missing_sections"].(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	default:
		return []string{}
	}
}
