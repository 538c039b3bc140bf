package handler

import (
	"context"
	"testing"
	"time"

	"ai-interview-go/internal/config"
	"ai-interview-go/internal/interview"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChatModel 固定回复的 LLM，足以驱动编排器走完基本流程
type stubChatModel struct {
	reply string
}

func (s *stubChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	return &schema.Message{Role: schema.Assistant, Content: s.reply}, nil
}

func (s *stubChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	sr, sw := schema.Pipe[*schema.Message](1)
	sw.Send(&schema.Message{Role: schema.Assistant, Content: s.reply}, nil)
	sw.Close()
	return sr, nil
}

var _ model.BaseChatModel = (*stubChatModel)(nil)

// newTestHandler 构建无外部存储的处理器：归档、落库、事件均被跳过
func newTestHandler(t *testing.T) *InterviewHandler {
	t.Helper()

	store := interview.NewMemorySessionStore()
	llm := &stubChatModel{reply: `{"headline":"Engineer","summary":"resumo","completeness_score":75}`}
	orch := interview.NewOrchestrator(llm, store, interview.NewFollowUpBudget(nil, nil), time.Minute)

	return NewInterviewHandler(&config.Config{}, nil, orch, store)
}

// TestHandleStartInterview 验证会话创建和参数校验
func TestHandleStartInterview(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	_, err := h.HandleStartInterview(ctx, &StartInterviewRequest{})
	assert.Error(t, err, "缺少 user_id 应该报错")

	resp, err := h.HandleStartInterview(ctx, &StartInterviewRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID, "应生成会话ID")
	assert.NotEmpty(t, resp.Welcome, "应返回欢迎语")
	assert.NotEmpty(t, resp.FirstQuestion, "应返回第一个问题")
}

// TestHandleGetState 验证进度查询
func TestHandleGetState(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	resp, err := h.HandleStartInterview(ctx, &StartInterviewRequest{UserID: "user-2"})
	require.NoError(t, err)

	view, err := h.HandleGetState(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "user-2", view.UserID)
	assert.Equal(t, "basic_info", view.CurrentModule)
	assert.Equal(t, "IN_PROGRESS", view.Status)

	_, err = h.HandleGetState(ctx, "nonexistent")
	assert.ErrorIs(t, err, interview.ErrSessionNotFound, "不存在的会话应返回哨兵错误")
}

// TestHandleMessage 验证流式响应通道会给出最终块并推进会话
func TestHandleMessage(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	resp, err := h.HandleStartInterview(ctx, &StartInterviewRequest{UserID: "user-3"})
	require.NoError(t, err)

	var final string
	for chunk := range h.HandleMessage(ctx, resp.SessionID, "I'm a backend engineer in Shanghai.") {
		if chunk.IsFinal {
			final = chunk.Content
		}
	}
	assert.NotEmpty(t, final, "应收到最终响应块")

	view, err := h.HandleGetState(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TurnCount, "处理一条消息后轮次应为1")
}

// TestHandleFinishInterview 验证结束面试，外部存储缺失时副作用被跳过
func TestHandleFinishInterview(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	resp, err := h.HandleStartInterview(ctx, &StartInterviewRequest{UserID: "user-4"})
	require.NoError(t, err)

	result, err := h.HandleFinishInterview(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, resp.SessionID, result.SessionID)
	assert.Equal(t, "Engineer", result.Profile["headline"])
	assert.Equal(t, 75, result.CompletenessScore)

	_, err = h.HandleFinishInterview(ctx, "nonexistent")
	assert.ErrorIs(t, err, interview.ErrSessionNotFound)
}

// TestHandleDeleteSession 验证会话删除
func TestHandleDeleteSession(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	resp, err := h.HandleStartInterview(ctx, &StartInterviewRequest{UserID: "user-5"})
	require.NoError(t, err)

	require.NoError(t, h.HandleDeleteSession(ctx, resp.SessionID))

	_, err = h.HandleGetState(ctx, resp.SessionID)
	assert.ErrorIs(t, err, interview.ErrSessionNotFound, "删除后查询应返回不存在")
}
