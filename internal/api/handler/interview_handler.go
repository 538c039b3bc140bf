package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-interview-go/internal/config"
	"ai-interview-go/internal/interview"
	"ai-interview-go/internal/logger"
	storage2 "ai-interview-go/internal/storage"
	"ai-interview-go/internal/storage/models"

	"github.com/gofrs/uuid/v5"
)

// InterviewHandler 面试处理器，协调会话编排器与各存储组件
type InterviewHandler struct {
	cfg          *config.Config
	storage      *storage2.Storage
	orchestrator *interview.Orchestrator
	sessions     interview.SessionStore
}

// NewInterviewHandler 创建面试处理器
func NewInterviewHandler(
	cfg *config.Config,
	storage *storage2.Storage,
	orchestrator *interview.Orchestrator,
	sessions interview.SessionStore,
) *InterviewHandler {
	return &InterviewHandler{
		cfg:          cfg,
		storage:      storage,
		orchestrator: orchestrator,
		sessions:     sessions,
	}
}

// StartInterviewRequest 开始面试请求
type StartInterviewRequest struct {
	UserID          string `json:"user_id"`
	ExistingProfile string `json:"existing_profile,omitempty"` // 可选，JSON 字符串
}

// StartInterviewResponse 开始面试响应
type StartInterviewResponse struct {
	SessionID     string `json:"session_id"`
	Welcome       string `json:"welcome"`
	FirstQuestion string `json:"first_question"`
}

// HandleStartInterview 开始一个新的面试会话
func (h *InterviewHandler) HandleStartInterview(ctx context.Context, req *StartInterviewRequest) (*StartInterviewResponse, error) {
	if req == nil || req.UserID == "" {
		return nil, fmt.Errorf("user_id 不能为空")
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成会话ID失败: %w", err)
	}
	sessionID := uuidV7.String()

	// 请求未携带已有档案时，尝试使用上次面试缓存的档案定制开场问题
	existingProfile := req.ExistingProfile
	if existingProfile == "" && h.storage != nil && h.storage.Redis != nil {
		if cached, cacheErr := h.storage.Redis.GetCachedProfile(ctx, req.UserID); cacheErr == nil {
			existingProfile = string(cached)
			logger.Info().Str("user_id", req.UserID).Msg("使用缓存的用户档案定制开场问题")
		}
	}

	_, welcome, firstQuestion, err := h.orchestrator.StartSession(ctx, req.UserID, sessionID, existingProfile)
	if err != nil {
		return nil, fmt.Errorf("创建面试会话失败: %w", err)
	}

	return &StartInterviewResponse{
		SessionID:     sessionID,
		Welcome:       welcome,
		FirstQuestion: firstQuestion,
	}, nil
}

// HandleMessage 处理一条用户消息，返回流式响应块
// 最后一个块 IsFinal 为 true，其余为处理过程中的临时状态
func (h *InterviewHandler) HandleMessage(ctx context.Context, sessionID, message string) <-chan interview.ResponseChunk {
	return h.orchestrator.ProcessMessage(ctx, sessionID, message)
}

// HandleGetState 查询会话进度
func (h *InterviewHandler) HandleGetState(ctx context.Context, sessionID string) (*interview.SessionStateView, error) {
	return h.orchestrator.GetSessionState(ctx, sessionID)
}

// FinishInterviewResponse 结束面试响应
type FinishInterviewResponse struct {
	Success           bool           `json:"success"`
	SessionID         string         `json:"session_id"`
	Profile           map[string]any `json:"profile"`
	CompletenessScore int            `json:"completeness_score"`
	MissingSections   []string       `json:"missing_sections"`
}

// HandleFinishInterview 结束面试并合成最终档案
// 档案落库、会话归档和事件通知均为尽力而为：失败只记录日志，不影响返回结果
func (h *InterviewHandler) HandleFinishInterview(ctx context.Context, sessionID string) (*FinishInterviewResponse, error) {
	result, err := h.orchestrator.FinishSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	h.runCompletionSideEffects(ctx, sessionID, result)

	return &FinishInterviewResponse{
		Success:           result.Success,
		SessionID:         sessionID,
		Profile:           result.Profile,
		CompletenessScore: result.CompletenessScore,
		MissingSections:   result.MissingSections,
	}, nil
}

// HandleDeleteSession 删除会话
func (h *InterviewHandler) HandleDeleteSession(ctx context.Context, sessionID string) error {
	return h.orchestrator.DeleteSession(ctx, sessionID)
}

// transcriptDocument 归档到对象存储的会话记录格式
type transcriptDocument struct {
	SessionID    string                        `json:"session_id"`
	UserID       string                        `json:"user_id"`
	StartedAt    string                        `json:"started_at"`
	FinishedAt   string                        `json:"finished_at"`
	TurnCount    int                           `json:"turn_count"`
	Conversation []interview.ConversationEntry `json:"conversation"`
}

// runCompletionSideEffects 执行面试完成后的落库、归档和事件通知
func (h *InterviewHandler) runCompletionSideEffects(ctx context.Context, sessionID string, result *interview.FinishResult) {
	finishedAt := time.Now()

	state, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		logger.Warn().Err(err).Str("session_id", sessionID).Msg("读取会话状态失败，跳过归档和落库")
		return
	}

	// 1. 归档完整对话记录到 MinIO
	var transcriptKey string
	if h.storage != nil && h.storage.MinIO != nil {
		doc := transcriptDocument{
			SessionID:    state.SessionID,
			UserID:       state.UserID,
			StartedAt:    state.StartedAt,
			FinishedAt:   finishedAt.Format(time.RFC3339),
			TurnCount:    state.TurnCount,
			Conversation: state.ConversationHistory,
		}
		data, marshalErr := json.Marshal(doc)
		if marshalErr != nil {
			logger.Warn().Err(marshalErr).Str("session_id", sessionID).Msg("序列化会话记录失败")
		} else if key, archiveErr := h.storage.MinIO.ArchiveTranscript(ctx, sessionID, data); archiveErr != nil {
			logger.Warn().Err(archiveErr).Str("session_id", sessionID).Msg("归档会话记录失败")
		} else {
			transcriptKey = key
		}
	}

	// 2. 最终档案与会话记录落库 MySQL
	if h.storage != nil && h.storage.MySQL != nil {
		if err := h.storage.MySQL.SaveProfile(ctx, sessionID, state.UserID,
			result.Profile, state.ModuleSummaries, result.CompletenessScore, result.MissingSections); err != nil {
			logger.Warn().Err(err).Str("session_id", sessionID).Msg("档案落库失败")
		}

		startedAt, parseErr := time.Parse(time.RFC3339, state.StartedAt)
		if parseErr != nil {
			startedAt = finishedAt
		}
		record := &models.InterviewSessionRecord{
			SessionID:     sessionID,
			UserID:        state.UserID,
			Status:        state.Status,
			TurnCount:     state.TurnCount,
			TranscriptKey: transcriptKey,
			StartedAt:     startedAt,
			FinishedAt:    finishedAt,
		}
		if err := h.storage.MySQL.SaveSessionRecord(ctx, record); err != nil {
			logger.Warn().Err(err).Str("session_id", sessionID).Msg("会话记录落库失败")
		}
	}

	// 3. 缓存最终档案，供该用户下次面试定制开场问题
	if h.storage != nil && h.storage.Redis != nil {
		if profileJSON, marshalErr := json.Marshal(result.Profile); marshalErr == nil {
			if err := h.storage.Redis.CacheProfile(ctx, state.UserID, profileJSON, h.cfg.GetSessionTTL()); err != nil {
				logger.Warn().Err(err).Str("user_id", state.UserID).Msg("缓存用户档案失败")
			}
		}
	}

	// 4. 发布面试完成事件到 RabbitMQ
	if h.storage != nil && h.storage.RabbitMQ != nil {
		event := &storage2.InterviewCompletedEvent{
			SessionID:         sessionID,
			UserID:            state.UserID,
			CompletenessScore: result.CompletenessScore,
			FinishedAt:        finishedAt.Format(time.RFC3339),
		}
		if err := h.storage.RabbitMQ.PublishInterviewCompleted(ctx, event); err != nil {
			logger.Warn().Err(err).Str("session_id", sessionID).Msg("发布面试完成事件失败")
		}
	}
}
