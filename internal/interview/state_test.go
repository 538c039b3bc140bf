package interview

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionState(t *testing.T) {
	state := NewSessionState("sess-1", "user-1", "en", nil)

	assert.Equal(t, "sess-1", state.SessionID)
	assert.Equal(t, ModuleBasicInfo, state.CurrentModule, "会话应从 basic_info 开始")
	assert.Equal(t, "IN_PROGRESS", state.Status)
	assert.Equal(t, 0, state.FollowUpCount)
	assert.NotNil(t, state.ExistingProfile, "nil 档案应初始化为空 map")

	// 各模块的数据结构已初始化
	for _, m := range ModuleOrder {
		assert.Contains(t, state.ModuleCollectedInfo, string(m))
		assert.Contains(t, state.ModuleConversations, string(m))
	}
}

func TestMergeExtractedInfo(t *testing.T) {
	existing := map[string]any{
		"company":      "Acme",
		"technologies": []any{"Go", "Redis"},
	}
	newInfo := map[string]any{
		"title":        "Engineer",
		"company":      "Acme Corp",
		"technologies": []any{"Redis", "MySQL"},
		"ignored":      nil,
	}

	merged := MergeExtractedInfo(existing, newInfo)

	assert.Equal(t, "Acme Corp", merged["company"], "标量字段应被新值覆盖")
	assert.Equal(t, "Engineer", merged["title"])
	assert.Equal(t, []any{"Go", "Redis", "MySQL"}, merged["technologies"], "列表字段应追加去重并保持首次出现顺序")
	assert.NotContains(t, merged, "ignored", "nil 值应被跳过")

	// 原 map 不被修改
	assert.Equal(t, "Acme", existing["company"])
}

func TestMergeExtractedInfoEmptyValuesSkipped(t *testing.T) {
	existing := map[string]any{
		"company":      "Acme",
		"technologies": []any{"Go"},
	}
	newInfo := map[string]any{
		"company":      "",
		"title":        "",
		"technologies": []any{},
	}

	merged := MergeExtractedInfo(existing, newInfo)

	assert.Equal(t, "Acme", merged["company"], "空字符串不应覆盖已收集的值")
	assert.NotContains(t, merged, "title", "空的新字段不应被写入")
	assert.Equal(t, []any{"Go"}, merged["technologies"], "空列表不应影响已收集的列表")
}

func TestMergeExtractedInfoIdempotent(t *testing.T) {
	info := map[string]any{
		"skills": []any{"Go", "Python"},
		"name":   "test",
	}

	once := MergeExtractedInfo(map[string]any{}, info)
	twice := MergeExtractedInfo(once, info)

	assert.Equal(t, once, twice, "重复合并相同信息不应产生重复条目")
}

func TestUpdateCollectedInfo(t *testing.T) {
	state := NewSessionState("sess-1", "user-1", "en", nil)

	state.UpdateCollectedInfo(map[string]any{"headline": "Backend Engineer"})
	assert.Equal(t, "Backend Engineer", state.CurrentCollectedInfo()["headline"])

	state.UpdateCollectedInfo(map[string]any{"location": "Shanghai"})
	info := state.CurrentCollectedInfo()
	assert.Equal(t, "Backend Engineer", info["headline"], "已有字段应保留")
	assert.Equal(t, "Shanghai", info["location"])
}

func TestAddToConversation(t *testing.T) {
	state := NewSessionState("sess-1", "user-1", "en", nil)

	state.AddToConversation("assistant", "Hello")
	state.AddToConversation("user", "Hi")

	assert.Len(t, state.ConversationHistory, 2, "全局历史应记录所有消息")
	assert.Len(t, state.CurrentModuleConversation(), 2, "模块历史应同步记录")

	// 切换模块后新消息只进新模块的历史
	require.True(t, state.AdvanceToNextModule())
	state.AddToConversation("user", "My education")

	assert.Len(t, state.ConversationHistory, 3)
	assert.Len(t, state.CurrentModuleConversation(), 1)
	assert.Len(t, state.ModuleConversations[string(ModuleBasicInfo)], 2)
}

func TestAdvanceToNextModule(t *testing.T) {
	state := NewSessionState("sess-1", "user-1", "en", nil)
	state.FollowUpCount = 2
	state.CurrentItemIndex = 1

	ok := state.AdvanceToNextModule()
	assert.True(t, ok)
	assert.Equal(t, ModuleEducation, state.CurrentModule)
	assert.Equal(t, 0, state.FollowUpCount, "切换模块后追问计数应重置")
	assert.Equal(t, 0, state.CurrentItemIndex, "切换模块后条目索引应重置")

	// 走到最后一个模块
	for state.AdvanceToNextModule() {
	}
	assert.Equal(t, ModuleLanguage, state.CurrentModule, "推进应止步于最后一个模块")
}

func TestSessionStateRoundTrip(t *testing.T) {
	state := NewSessionState("sess-1", "user-1", "en", map[string]any{"headline": "Dev"})
	state.AddToConversation("assistant", "Welcome")
	state.UpdateCollectedInfo(map[string]any{"headline": "Senior Dev"})
	state.CompleteCurrentModule(&ModuleSummaryResult{
		Module:            "basic_info",
		StructuredData:    []map[string]any{{"headline": "Senior Dev"}},
		CompletenessScore: 80,
		ItemCount:         1,
	})
	state.TurnCount = 3

	data, err := json.Marshal(state)
	require.NoError(t, err, "会话状态应能序列化")

	var restored SessionState
	require.NoError(t, json.Unmarshal(data, &restored))
	restored.ensureModuleMaps()

	assert.Equal(t, state.SessionID, restored.SessionID)
	assert.Equal(t, state.CurrentModule, restored.CurrentModule)
	assert.Equal(t, state.TurnCount, restored.TurnCount)
	assert.Equal(t, state.ConversationHistory, restored.ConversationHistory)
	assert.Equal(t, "Senior Dev", restored.ModuleCollectedInfo["basic_info"]["headline"])
	assert.Equal(t, 80, restored.ModuleSummaries["basic_info"].CompletenessScore, "模块总结应完整往返")
}

func TestGetProgressInfo(t *testing.T) {
	state := NewSessionState("sess-1", "user-1", "en", nil)

	progress := state.GetProgressInfo()
	assert.Equal(t, 0, progress.CompletedModules)
	assert.Equal(t, 7, progress.TotalModules)
	assert.Equal(t, 0, progress.ProgressPercentage)

	state.CompleteCurrentModule(EmptyModuleSummary(ModuleBasicInfo))
	state.AdvanceToNextModule()
	state.CompleteCurrentModule(EmptyModuleSummary(ModuleEducation))

	progress = state.GetProgressInfo()
	assert.Equal(t, 2, progress.CompletedModules)
	assert.Equal(t, 28, progress.ProgressPercentage, "2/7 向下取整为 28%")
}

func TestCalculateModuleCompleteness(t *testing.T) {
	// 全空
	assert.Equal(t, 0, CalculateModuleCompleteness(map[string]any{}, ModuleEducation))

	// 必填全部填充时至少拿到 70 分
	collected := map[string]any{
		"school":     "MIT",
		"degree":     "BSc",
		"major":      "CS",
		"start_date": "2018-09",
	}
	score := CalculateModuleCompleteness(collected, ModuleEducation)
	assert.GreaterOrEqual(t, score, 70, "必填字段全填充时分数应不低于 70")
	assert.LessOrEqual(t, score, 100)

	// skill 模块 name+level 都是必填
	score = CalculateModuleCompleteness(map[string]any{"name": "Go"}, ModuleSkill)
	assert.Less(t, score, 70, "必填字段缺一半时分数应低于 70")
}

func TestIsFilled(t *testing.T) {
	assert.False(t, isFilled(nil))
	assert.False(t, isFilled(""))
	assert.False(t, isFilled([]any{}))
	assert.False(t, isFilled(map[string]any{}))
	assert.False(t, isFilled(float64(0)))
	assert.False(t, isFilled(false))

	assert.True(t, isFilled("text"))
	assert.True(t, isFilled([]any{"x"}))
	assert.True(t, isFilled(float64(1)))
	assert.True(t, isFilled(true))
}
