package interview

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// 推理模型（如 DeepSeek-R1）会在回复前输出 <think>...</think> 推理块
var (
	thinkTagPattern    = regexp.MustCompile(`(?s)<think>.*?</think>`)
	thinkingTagPattern = regexp.MustCompile(`(?si)\[thinking\].*?\[/thinking\]`)
)

// StripThinkTags 去除推理块和多余空白，返回干净的回复文本
func StripThinkTags(response string) string {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")
	cleaned = thinkingTagPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// ExtractJSONBlock 从 LLM 回复中提取 JSON 字符串
// 优先级：```json 代码块 > 任意 ``` 代码块 > 首个 "{" 到末尾 "}" 的子串
func ExtractJSONBlock(response string) string {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	if idx := strings.Index(cleaned, "```json"); idx >= 0 {
		rest := cleaned[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}

	if idx := strings.Index(cleaned, "```"); idx >= 0 {
		rest := cleaned[idx+len("```"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(cleaned[start : end+1])
	}

	return strings.TrimSpace(cleaned)
}

// ParseJSONObject 提取并解析 JSON 对象
func ParseJSONObject(response string) (map[string]any, error) {
	jsonStr := ExtractJSONBlock(response)

	var data map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return nil, fmt.Errorf("解析 JSON 对象失败: %w", err)
	}
	return data, nil
}

// ParseJSONObjectOrArray 提取并解析 JSON，额外容忍裸数组：
// 找不到对象时尝试 "[...]"，解析成功后包装为 {"structured_data": [...]}
func ParseJSONObjectOrArray(response string) (map[string]any, error) {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	jsonStr := ExtractJSONBlock(response)
	var data map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &data); err == nil {
		return data, nil
	}

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start >= 0 && end > start {
		var arr []any
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &arr); err == nil {
			return map[string]any{"structured_data": arr}, nil
		}
	}

	return nil, fmt.Errorf("响应中未找到可解析的 JSON: %.200s", response)
}
