package router

import (
	"context"
	"encoding/json"
	"errors"

	"ai-interview-go/internal/api/handler"
	"ai-interview-go/internal/interview"
	"ai-interview-go/internal/logger"
	"ai-interview-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/protocol/http1/resp"
	"go.opentelemetry.io/otel/trace"
)

// serverError 统一的 500 响应，同时把错误记到当前请求的 span 上
func serverError(c context.Context, ctx *app.RequestContext, err error) {
	tracing.RecordHTTPError(trace.SpanFromContext(c), err, consts.StatusInternalServerError)
	ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, interviewHandler *handler.InterviewHandler) {
	api := h.Group("/api/v1")

	// 开始新的面试会话
	api.POST("/interview/start", func(c context.Context, ctx *app.RequestContext) {
		var req handler.StartInterviewRequest
		if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}
		if req.UserID == "" {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "user_id 不能为空"})
			return
		}

		result, err := interviewHandler.HandleStartInterview(c, &req)
		if err != nil {
			serverError(c, ctx, err)
			return
		}

		ctx.JSON(consts.StatusOK, result)
	})

	// 发送用户消息，以 SSE 流式返回响应
	// [THINKING] 开头的块为处理过程中的临时状态，客户端可丢弃或展示为加载提示
	api.POST("/interview/:session_id/message", func(c context.Context, ctx *app.RequestContext) {
		sessionID := ctx.Param("session_id")
		if sessionID == "" {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "session_id 不能为空"})
			return
		}

		var req struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil || req.Message == "" {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "message 不能为空"})
			return
		}
		logger.Debug().Str("session_id", sessionID).
			Str("message", tracing.SafeMessageContent(req.Message)).
			Msg("收到用户消息")

		ctx.SetStatusCode(consts.StatusOK)
		ctx.Response.Header.Set("Content-Type", "text/event-stream; charset=utf-8")
		ctx.Response.Header.Set("Cache-Control", "no-cache")
		ctx.Response.HijackWriter(resp.NewChunkedBodyWriter(&ctx.Response, ctx.GetWriter()))

		for chunk := range interviewHandler.HandleMessage(c, sessionID, req.Message) {
			payload, err := json.Marshal(chunk)
			if err != nil {
				logger.Warn().Err(err).Str("session_id", sessionID).Msg("序列化响应块失败")
				continue
			}
			if _, err := ctx.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
				logger.Warn().Err(err).Str("session_id", sessionID).Msg("写入响应流失败，客户端可能已断开")
				return
			}
			if err := ctx.Flush(); err != nil {
				return
			}
		}
	})

	// 查询会话进度
	api.GET("/interview/:session_id/state", func(c context.Context, ctx *app.RequestContext) {
		sessionID := ctx.Param("session_id")

		view, err := interviewHandler.HandleGetState(c, sessionID)
		if err != nil {
			if errors.Is(err, interview.ErrSessionNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "会话不存在"})
				return
			}
			serverError(c, ctx, err)
			return
		}

		ctx.JSON(consts.StatusOK, view)
	})

	// 结束面试并合成最终档案
	api.POST("/interview/:session_id/finish", func(c context.Context, ctx *app.RequestContext) {
		sessionID := ctx.Param("session_id")

		result, err := interviewHandler.HandleFinishInterview(c, sessionID)
		if err != nil {
			if errors.Is(err, interview.ErrSessionNotFound) {
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "会话不存在"})
				return
			}
			serverError(c, ctx, err)
			return
		}

		ctx.JSON(consts.StatusOK, result)
	})

	// 删除会话
	api.DELETE("/interview/:session_id", func(c context.Context, ctx *app.RequestContext) {
		sessionID := ctx.Param("session_id")

		if err := interviewHandler.HandleDeleteSession(c, sessionID); err != nil {
			serverError(c, ctx, err)
			return
		}

		ctx.JSON(consts.StatusOK, utils.H{"deleted": sessionID})
	})

	// 健康检查
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
