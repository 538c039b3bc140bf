package interview

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectChunks 读完整个响应流，返回最终响应和过程提示
func collectChunks(t *testing.T, ch <-chan ResponseChunk) (string, []string) {
	t.Helper()

	var final string
	var transient []string
	for chunk := range ch {
		if chunk.IsFinal {
			final = chunk.Content
		} else {
			transient = append(transient, chunk.Content)
		}
	}
	return final, transient
}

// scriptedModel 按提示词内容分流的假 LLM：
// 分析提示词返回分析 JSON，总结提示词返回总结 JSON，其余返回问题文本
func scriptedModel(analysis string) *fakeChatModel {
	return newFakeChatModel(func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "## Your Task\n1. **Extract Information**"):
			return analysis, nil
		case strings.Contains(prompt, "data extraction expert"):
			return `{"structured_data": [], "completeness_score": 50}`, nil
		case strings.Contains(prompt, "final structured Profile"):
			return `{"headline": "Engineer", "completeness_score": 75, "missing_sections": []}`, nil
		default:
			return "What else can you share about that?", nil
		}
	})
}

func newTestOrchestrator(llm *fakeChatModel) (*Orchestrator, SessionStore) {
	store := NewMemorySessionStore()
	orch := NewOrchestrator(llm, store, nil, time.Minute)
	return orch, store
}

func TestStartSession(t *testing.T) {
	orch, store := newTestOrchestrator(scriptedModel(""))
	ctx := context.Background()

	state, welcome, firstQuestion, err := orch.StartSession(ctx, "user-1", "sess-1", "")
	require.NoError(t, err)

	assert.Equal(t, WelcomeMessage, welcome)
	assert.Equal(t, defaultOpeners[ModuleBasicInfo], firstQuestion, "无已有档案时应使用默认开场白")
	assert.Equal(t, ModuleBasicInfo, state.CurrentModule)
	assert.Equal(t, QuestionTypeOpening, state.CurrentQuestionType)

	// 会话已持久化，欢迎语和问题记入对话历史
	saved, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, saved.ConversationHistory, 1)
	assert.Contains(t, saved.ConversationHistory[0].Content, welcome)
	assert.Contains(t, saved.ConversationHistory[0].Content, firstQuestion)
}

func TestStartSessionWithExistingProfile(t *testing.T) {
	orch, _ := newTestOrchestrator(scriptedModel(""))

	state, _, _, err := orch.StartSession(context.Background(), "user-1", "sess-2",
		`{"headline": "Backend Engineer", "experiences": [{"company": "Acme"}]}`)
	require.NoError(t, err)

	assert.Equal(t, "Backend Engineer", state.ExistingProfile["headline"], "已有档案应被解析并保存")
}

func TestStartSessionInvalidProfileJSON(t *testing.T) {
	orch, _ := newTestOrchestrator(scriptedModel(""))

	state, _, _, err := orch.StartSession(context.Background(), "user-1", "sess-3", "{not json")
	require.NoError(t, err, "档案 JSON 非法时不应阻止会话开始")
	assert.Empty(t, state.ExistingProfile)
}

func TestProcessMessageSessionNotFound(t *testing.T) {
	orch, _ := newTestOrchestrator(scriptedModel(""))

	final, _ := collectChunks(t, orch.ProcessMessage(context.Background(), "missing", "hello"))
	assert.Equal(t, "Session not found. Please start a new session.", final)
}

func TestProcessMessageNoStore(t *testing.T) {
	orch := NewOrchestrator(scriptedModel(""), nil, nil, time.Minute)

	final, _ := collectChunks(t, orch.ProcessMessage(context.Background(), "sess", "hello"))
	assert.Equal(t, "Session store not configured.", final)
}

func TestProcessMessageInsufficientGeneratesFollowUp(t *testing.T) {
	// 分析判定不足，应产生追问
	llm := scriptedModel(`{"is_sufficient": false, "extracted_info": {"headline": "Engineer"}, "missing_points": ["career goals"], "reasoning": "needs goals"}`)
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	_, _, _, err := orch.StartSession(ctx, "user-1", "sess-f", "")
	require.NoError(t, err)

	final, transient := collectChunks(t, orch.ProcessMessage(ctx, "sess-f", "I'm a software engineer"))

	assert.Equal(t, "What else can you share about that?", final)
	assert.Contains(t, transient, "[THINKING] Analyzing your response...", "过程提示应包含分析心跳")
	assert.Contains(t, transient, "[THINKING] Formulating next question...")

	saved, err := store.Get(ctx, "sess-f")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.FollowUpCount, "追问计数应加一")
	assert.Equal(t, QuestionTypeFollowUp, saved.CurrentQuestionType)
	assert.Equal(t, "Engineer", saved.ModuleCollectedInfo["basic_info"]["headline"], "抽取的信息应并入收集数据")
}

func TestProcessMessageSufficientSingleItemAdvances(t *testing.T) {
	// basic_info 是单条目模块，判定足够后应总结并推进到 education
	llm := scriptedModel(analyzerReply(true, `{"headline": "Engineer"}`))
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	_, _, _, err := orch.StartSession(ctx, "user-1", "sess-adv", "")
	require.NoError(t, err)

	final, _ := collectChunks(t, orch.ProcessMessage(ctx, "sess-adv", "I'm a software engineer looking to grow"))

	assert.Contains(t, final, "Great! We've completed the Basic Information section with 1 entry.",
		"推进时应有过渡语")
	assert.Contains(t, final, "Now let's move on to Education.")
	assert.Contains(t, final, defaultOpeners[ModuleEducation], "过渡语后应紧跟新模块的开场问题")

	saved, err := store.Get(ctx, "sess-adv")
	require.NoError(t, err)
	assert.Equal(t, ModuleEducation, saved.CurrentModule)
	assert.Contains(t, saved.ModuleSummaries, "basic_info", "推进前应先总结当前模块")
	assert.Equal(t, 0, saved.FollowUpCount)
}

func TestProcessMessageSufficientMultiItemAsksMore(t *testing.T) {
	// 多条目模块判定足够后应询问是否还有更多，而不是直接推进
	llm := scriptedModel(analyzerReply(true, `{"school": "MIT", "degree": "BSc"}`))
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	_, _, _, err := orch.StartSession(ctx, "user-1", "sess-multi", "")
	require.NoError(t, err)

	// 手动把会话推到 education 模块
	state, err := store.Get(ctx, "sess-multi")
	require.NoError(t, err)
	require.True(t, state.AdvanceToNextModule())
	state.FollowUpCount = 1
	require.NoError(t, store.Set(ctx, state))

	final, _ := collectChunks(t, orch.ProcessMessage(ctx, "sess-multi", "I studied at MIT, BSc in Computer Science, graduated 2020"))

	assert.Equal(t, defaultAskMore[ModuleEducation], final, "多条目模块完成一条后应询问是否还有更多")

	saved, err := store.Get(ctx, "sess-multi")
	require.NoError(t, err)
	assert.Equal(t, ModuleEducation, saved.CurrentModule, "询问阶段不应切换模块")
	assert.Equal(t, 1, saved.CurrentItemIndex)
	assert.Equal(t, QuestionTypeConfirmation, saved.CurrentQuestionType)
}

func TestProcessMessageNoMoreAdvancesWithTransition(t *testing.T) {
	llm := scriptedModel("")
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	_, _, _, err := orch.StartSession(ctx, "user-1", "sess-no", "")
	require.NoError(t, err)

	// 把会话推到 project 模块的确认问题上
	state, err := store.Get(ctx, "sess-no")
	require.NoError(t, err)
	state.CurrentModule = ModuleProject
	state.CurrentItemIndex = 1
	state.CurrentQuestionType = QuestionTypeConfirmation
	state.ModuleCollectedInfo["project"] = map[string]any{"name": "PaySys", "description": "payment system"}
	require.NoError(t, store.Set(ctx, state))

	final, _ := collectChunks(t, orch.ProcessMessage(ctx, "sess-no", "no"))

	assert.Contains(t, final, "Great! We've completed the Projects section with 2 entries.")
	assert.Contains(t, final, "Now let's move on to Skills.")

	saved, err := store.Get(ctx, "sess-no")
	require.NoError(t, err)
	assert.Equal(t, ModuleSkill, saved.CurrentModule)
	assert.Contains(t, saved.ModuleSummaries, "project", "说 no 后应先总结当前模块再推进")
}

func TestProcessMessageHasMoreStartsNewItem(t *testing.T) {
	llm := scriptedModel("")
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	_, _, _, err := orch.StartSession(ctx, "user-1", "sess-more", "")
	require.NoError(t, err)

	state, err := store.Get(ctx, "sess-more")
	require.NoError(t, err)
	state.CurrentModule = ModuleExperience
	state.CurrentQuestionType = QuestionTypeConfirmation
	state.FollowUpCount = 3
	require.NoError(t, store.Set(ctx, state))

	final, _ := collectChunks(t, orch.ProcessMessage(ctx, "sess-more", "yes, one more"))

	assert.Equal(t, defaultOpeners[ModuleExperience], final, "还有更多时应开始新条目的开场问题")

	saved, err := store.Get(ctx, "sess-more")
	require.NoError(t, err)
	assert.Equal(t, 0, saved.FollowUpCount, "新条目应重置追问计数")
	assert.Equal(t, QuestionTypeOpening, saved.CurrentQuestionType)
}

func TestProcessMessageOffTopicDeclined(t *testing.T) {
	llm := scriptedModel("")
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	_, _, firstQuestion, err := orch.StartSession(ctx, "user-1", "sess-off", "")
	require.NoError(t, err)

	final, _ := collectChunks(t, orch.ProcessMessage(ctx, "sess-off", "what's the weather today?"))

	assert.Contains(t, final, "profile", "跑题消息应被礼貌拒绝")
	assert.Contains(t, final, firstQuestion, "拒绝后应把用户拉回当前问题")

	// 跑题不影响采集状态
	saved, err := store.Get(ctx, "sess-off")
	require.NoError(t, err)
	assert.Equal(t, ModuleBasicInfo, saved.CurrentModule)
	assert.Equal(t, 0, saved.FollowUpCount)
}

func TestProcessMessageSummaryConfirmation(t *testing.T) {
	llm := scriptedModel("")
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	_, _, _, err := orch.StartSession(ctx, "user-1", "sess-sum", "")
	require.NoError(t, err)

	state, err := store.Get(ctx, "sess-sum")
	require.NoError(t, err)
	state.CurrentModule = ModuleSummary
	require.NoError(t, store.Set(ctx, state))

	// 非确认消息：引导用户说明修改内容
	final, _ := collectChunks(t, orch.ProcessMessage(ctx, "sess-sum", "wait, let me think about it first"))
	assert.Equal(t, "Sure, please tell me what you'd like to add or modify?", final)

	// 确认消息：完成会话
	final, _ = collectChunks(t, orch.ProcessMessage(ctx, "sess-sum", "Confirm"))
	assert.Contains(t, final, "Your profile is now ready.")

	saved, err := store.Get(ctx, "sess-sum")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", saved.Status)
}

func TestProcessMessageUnparsableAnalysisFallsBack(t *testing.T) {
	// 分析 Agent 输出无法解析时应保守追问，而不是中断会话
	llm := scriptedModel("the user seems to know Go quite well, honestly hard to say more")
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	_, _, _, err := orch.StartSession(ctx, "user-1", "sess-bad", "")
	require.NoError(t, err)

	state, err := store.Get(ctx, "sess-bad")
	require.NoError(t, err)
	state.CurrentModule = ModuleSkill
	require.NoError(t, store.Set(ctx, state))

	final, _ := collectChunks(t, orch.ProcessMessage(ctx, "sess-bad", "I know Go and Python quite well, my strongest is Go"))

	assert.NotEmpty(t, final, "解析失败时仍应给出追问而不是空响应")

	saved, err := store.Get(ctx, "sess-bad")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.FollowUpCount, "解析失败应按信息不足处理并追问")
}

func TestFinishSession(t *testing.T) {
	llm := scriptedModel("")
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	_, _, _, err := orch.StartSession(ctx, "user-1", "sess-fin", "")
	require.NoError(t, err)

	result, err := orch.FinishSession(ctx, "sess-fin")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 75, result.CompletenessScore)
	assert.Equal(t, "Engineer", result.Profile["headline"])
	assert.Empty(t, result.MissingSections)

	saved, err := store.Get(ctx, "sess-fin")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", saved.Status)
	assert.Contains(t, saved.ModuleSummaries, "basic_info", "结束前应补齐当前模块的总结")
}

func TestGetSessionState(t *testing.T) {
	llm := scriptedModel("")
	orch, _ := newTestOrchestrator(llm)
	ctx := context.Background()

	_, _, _, err := orch.StartSession(ctx, "user-1", "sess-view", "")
	require.NoError(t, err)

	view, err := orch.GetSessionState(ctx, "sess-view")
	require.NoError(t, err)

	assert.Equal(t, "sess-view", view.SessionID)
	assert.Equal(t, "basic_info", view.CurrentModule)
	assert.Equal(t, "Basic Information", view.ModuleName)
	assert.Equal(t, "0/7", view.Progress)
	assert.Equal(t, "IN_PROGRESS", view.Status)

	_, err = orch.GetSessionState(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSession(t *testing.T) {
	llm := scriptedModel("")
	orch, store := newTestOrchestrator(llm)
	ctx := context.Background()

	_, _, _, err := orch.StartSession(ctx, "user-1", "sess-del", "")
	require.NoError(t, err)

	require.NoError(t, orch.DeleteSession(ctx, "sess-del"))
	_, err = store.Get(ctx, "sess-del")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUserSaysNoMore(t *testing.T) {
	assert.True(t, userSaysNoMore("no"))
	assert.True(t, userSaysNoMore("Nope."))
	assert.True(t, userSaysNoMore("that's all, thanks!"))
	assert.True(t, userSaysNoMore("nothing to add"))
	assert.True(t, userSaysNoMore("Done!"))

	assert.False(t, userSaysNoMore("I also worked at a startup called NoName"), "以实质内容开头的消息不应误判")
	assert.False(t, userSaysNoMore(strings.Repeat("no more details, but ", 10)), "超长消息不应匹配")
	assert.False(t, userSaysNoMore("notably, I led the team"), "前缀相似但语义不同的词不应匹配")
}

func TestUserSaysHasMore(t *testing.T) {
	assert.True(t, userSaysHasMore("yes"))
	assert.True(t, userSaysHasMore("Yeah, one more"))
	assert.True(t, userSaysHasMore("I have more"))

	assert.False(t, userSaysHasMore("yesterday I finished a big project at work and"), "yes 开头的长句不应误判")
}

func TestIsOffTopic(t *testing.T) {
	assert.True(t, isOffTopic("what's the weather today?"))
	assert.True(t, isOffTopic("write a poem about nature"))

	assert.False(t, isOffTopic("hi"), "极短消息不判为跑题")
	assert.False(t, isOffTopic("I built a recommendation engine"), "含个人经历的消息不是跑题")
	assert.False(t, isOffTopic(strings.Repeat("random words ", 20)), "长消息不判为跑题")
}
