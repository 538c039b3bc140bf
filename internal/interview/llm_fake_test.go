package interview

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeChatModel 测试用的假 LLM
// reply 根据提示词内容决定回复，可模拟不同 Agent 的响应
type fakeChatModel struct {
	mu    sync.Mutex
	reply func(prompt string) (string, error)
	calls []string
}

func newFakeChatModel(reply func(prompt string) (string, error)) *fakeChatModel {
	return &fakeChatModel{reply: reply}
}

// fixedReplyModel 永远返回同一条回复
func fixedReplyModel(response string) *fakeChatModel {
	return newFakeChatModel(func(string) (string, error) {
		return response, nil
	})
}

// errorModel 永远返回错误
func errorModel(err error) *fakeChatModel {
	return newFakeChatModel(func(string) (string, error) {
		return "", err
	})
}

func (f *fakeChatModel) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeChatModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	prompt := ""
	if len(input) > 0 {
		prompt = input[len(input)-1].Content
	}

	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	f.mu.Unlock()

	content, err := f.reply(prompt)
	if err != nil {
		return nil, err
	}
	return &schema.Message{Role: schema.Assistant, Content: content}, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}

	sr, sw := schema.Pipe[*schema.Message](1)
	go func() {
		defer sw.Close()
		sw.Send(msg, nil)
	}()
	return sr, nil
}

var _ model.BaseChatModel = (*fakeChatModel)(nil)

// analyzerReply 拼一个分析 Agent 风格的 JSON 回复
func analyzerReply(sufficient bool, extracted string) string {
	return fmt.Sprintf("```json\n{\"is_sufficient\": %t, \"extracted_info\": %s, \"missing_points\": [], \"follow_up_suggestions\": [], \"quality_issues\": [], \"confidence_score\": 0.9, \"reasoning\": \"test\"}\n```", sufficient, extracted)
}
