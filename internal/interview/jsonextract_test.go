package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripThinkTags(t *testing.T) {
	input := "<think>let me reason\nabout this</think>What company did you work for?"
	assert.Equal(t, "What company did you work for?", StripThinkTags(input))

	// [thinking] 风格的标记也要去掉
	input = "[THINKING]internal notes[/THINKING]  Final answer  "
	assert.Equal(t, "Final answer", StripThinkTags(input))

	// 没有标记时原样返回
	assert.Equal(t, "plain text", StripThinkTags("plain text"))
}

func TestExtractJSONBlockFenced(t *testing.T) {
	response := "Here is the result:\n```json\n{\"is_sufficient\": true}\n```\nDone."
	assert.Equal(t, `{"is_sufficient": true}`, ExtractJSONBlock(response))

	// 普通代码块
	response = "```\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, ExtractJSONBlock(response))
}

func TestExtractJSONBlockBraces(t *testing.T) {
	// 无代码块时取首个 { 到末尾 } 的子串
	response := `The analysis shows {"confidence_score": 0.8, "nested": {"k": "v"}} as output.`
	assert.Equal(t, `{"confidence_score": 0.8, "nested": {"k": "v"}}`, ExtractJSONBlock(response))
}

func TestExtractJSONBlockWithThinkTags(t *testing.T) {
	// 推理块里的 JSON 不应被提取
	response := "<think>{\"fake\": true}</think>\n```json\n{\"real\": true}\n```"
	assert.Equal(t, `{"real": true}`, ExtractJSONBlock(response))
}

func TestParseJSONObject(t *testing.T) {
	data, err := ParseJSONObject("```json\n{\"is_sufficient\": false, \"missing_points\": [\"dates\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, false, data["is_sufficient"])

	// 完全不是 JSON 的回复应报错
	_, err = ParseJSONObject("I cannot answer that question.")
	assert.Error(t, err, "非 JSON 回复应返回错误")
}

func TestParseJSONObjectOrArray(t *testing.T) {
	// 普通对象
	data, err := ParseJSONObjectOrArray(`{"completeness_score": 80}`)
	require.NoError(t, err)
	assert.Equal(t, float64(80), data["completeness_score"])

	// 裸数组包装为 structured_data
	data, err = ParseJSONObjectOrArray(`[{"name": "Go"}, {"name": "Python"}]`)
	require.NoError(t, err)
	arr, ok := data["structured_data"].([]any)
	require.True(t, ok, "裸数组应被包装到 structured_data")
	assert.Len(t, arr, 2)

	_, err = ParseJSONObjectOrArray("no structure here")
	assert.Error(t, err)
}
