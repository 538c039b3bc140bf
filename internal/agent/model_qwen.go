package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ai-interview-go/internal/logger"
	"ai-interview-go/internal/tracing"
)

var qwenTracer = otel.Tracer("ai-interview-go/agent/qwen")

const (
	// DashScope 的 OpenAI 兼容模式端点
	openAICompatibleQwenAPIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	defaultQwenModelName       = "qwen-plus"

	defaultRequestTimeout = 120 * time.Second
)

// AliyunQwenChatModel 实现 model.BaseChatModel 接口，
// 通过 OpenAI 兼容 API 与阿里云通义千问模型交互。
// 支持普通补全 (Generate) 和 SSE 流式补全 (Stream)。
type AliyunQwenChatModel struct {
	apiKey     string
	modelName  string
	apiURL     string
	httpClient *http.Client
}

// NewAliyunQwenChatModel 创建一个新的通义千问客户端
func NewAliyunQwenChatModel(apiKey, modelName, apiURL string) (*AliyunQwenChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}

	mn := modelName
	if strings.TrimSpace(mn) == "" {
		mn = defaultQwenModelName
	}

	url := apiURL
	if strings.TrimSpace(url) == "" {
		url = openAICompatibleQwenAPIURL
	}

	logger.Info().Str("api_url", url).Str("model", mn).Msg("初始化阿里云通义千问 LLM 客户端")

	return &AliyunQwenChatModel{
		apiKey:     apiKey,
		modelName:  mn,
		apiURL:     url,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}, nil
}

// --- OpenAI 兼容的请求/响应结构 ---

type openAIChatRequest struct {
	Model       string            `json:"model"`
	Messages    []*schema.Message `json:"messages"` // eino 的 schema.Message 与 OpenAI 的 role/content 兼容
	Temperature *float32          `json:"temperature,omitempty"`
	MaxTokens   *int              `json:"max_tokens,omitempty"`
	TopP        *float32          `json:"top_p,omitempty"`
	Stream      bool              `json:"stream,omitempty"`
}

type openAIChatMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type openAIChatChoice struct {
	Index        int               `json:"index"`
	Message      openAIChatMessage `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type openAIChatResponse struct {
	Id      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
}

// SSE 增量帧
type openAIStreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type openAIStreamChoice struct {
	Index        int               `json:"index"`
	Delta        openAIStreamDelta `json:"delta"`
	FinishReason *string           `json:"finish_reason"`
}

type openAIStreamChunk struct {
	Choices []openAIStreamChoice `json:"choices"`
}

// buildRequest 组装请求体，应用调用方传入的通用选项（温度、最大 token 等）
func (aq *AliyunQwenChatModel) buildRequest(messages []*schema.Message, stream bool, options ...model.Option) openAIChatRequest {
	opts := model.GetCommonOptions(&model.Options{}, options...)

	req := openAIChatRequest{
		Model:       aq.modelName,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		TopP:        opts.TopP,
		Stream:      stream,
	}
	if opts.Model != nil && *opts.Model != "" {
		req.Model = *opts.Model
	}
	return req
}

func (aq *AliyunQwenChatModel) doRequest(ctx context.Context, reqPayload openAIChatRequest) (*http.Response, error) {
	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, aq.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+aq.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if reqPayload.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	httpResp, err := aq.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		return nil, fmt.Errorf("API 请求失败，状态 %s: %s", httpResp.Status, string(bodyBytes))
	}

	return httpResp, nil
}

// Generate 实现 model.BaseChatModel 接口
func (aq *AliyunQwenChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	reqPayload := aq.buildRequest(messages, false, options...)

	ctx, span := qwenTracer.Start(ctx, "llm.generate", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", reqPayload.Model),
		attribute.Int("llm.message_count", len(messages)),
	)
	if len(messages) > 0 {
		// 属性值统一走截断和掩码处理，避免把用户原文整段写进 span
		span.SetAttributes(attribute.String("llm.prompt_tail",
			tracing.SafeAttributeValue("llm.prompt_tail", messages[len(messages)-1].Content, tracing.MaxMessageLength)))
	}

	logger.Debug().Str("model", reqPayload.Model).Int("messages", len(messages)).Msg("通义千问 Generate 请求")

	httpResp, err := aq.doRequest(ctx, reqPayload)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		err = fmt.Errorf("读取响应体失败: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}

	var openAIResp openAIChatResponse
	if err := json.Unmarshal(bodyBytes, &openAIResp); err != nil {
		err = fmt.Errorf("反序列化 API 响应失败: %w。响应体: %s", err, string(bodyBytes))
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}

	if len(openAIResp.Choices) == 0 {
		err := fmt.Errorf("从 API 收到空选项: %s", string(bodyBytes))
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}

	apiMessage := openAIResp.Choices[0].Message
	responseContent := ""
	if apiMessage.Content != nil {
		responseContent = *apiMessage.Content
	}

	role := schema.RoleType(apiMessage.Role)
	if role == "" {
		role = schema.Assistant
	}

	return &schema.Message{
		Role:    role,
		Content: responseContent,
	}, nil
}

// Stream 实现 model.BaseChatModel 接口，基于 SSE 流式返回增量消息
func (aq *AliyunQwenChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	reqPayload := aq.buildRequest(messages, true, options...)

	logger.Debug().Str("model", reqPayload.Model).Int("messages", len(messages)).Msg("通义千问 Stream 请求")

	ctx, span := qwenTracer.Start(ctx, "llm.stream", trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("llm.model", reqPayload.Model))

	httpResp, err := aq.doRequest(ctx, reqPayload)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		span.End()
		return nil, err
	}

	sr, sw := schema.Pipe[*schema.Message](8)

	go func() {
		defer span.End()
		defer httpResp.Body.Close()
		defer sw.Close()

		scanner := bufio.NewScanner(httpResp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}

			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}

			var chunk openAIStreamChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				logger.Warn().Err(err).Str("payload", payload).Msg("解析 SSE 帧失败，跳过")
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			delta := chunk.Choices[0].Delta
			if delta.Content == "" && delta.Role == "" {
				continue
			}

			role := schema.RoleType(delta.Role)
			if role == "" {
				role = schema.Assistant
			}

			closed := sw.Send(&schema.Message{Role: role, Content: delta.Content}, nil)
			if closed {
				// 下游已停止读取，提前结束
				return
			}
		}

		if err := scanner.Err(); err != nil {
			err = fmt.Errorf("读取 SSE 流失败: %w", err)
			tracing.RecordError(span, err, tracing.ErrorTypeLLM)
			sw.Send(nil, err)
		}
	}()

	return sr, nil
}

var _ model.BaseChatModel = (*AliyunQwenChatModel)(nil)
