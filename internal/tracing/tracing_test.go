package tracing

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// newRecordedSpan 创建一个可回读属性的 span
func newRecordedSpan(t *testing.T) (trace.Span, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := tp.Tracer("test").Start(context.Background(), "test-span")
	return span, recorder
}

func attrValue(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestRecordError(t *testing.T) {
	span, recorder := newRecordedSpan(t)
	RecordError(span, fmt.Errorf("连接被拒绝"), ErrorTypeRedis)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	errType, ok := attrValue(spans[0].Attributes(), "error.type")
	assert.True(t, ok)
	assert.Equal(t, "redis", errType)
	assert.Equal(t, codes.Error, spans[0].Status().Code, "span 状态应标记为错误")

	// nil 入参不做任何事
	RecordError(nil, fmt.Errorf("x"), ErrorTypeDB)
	RecordError(span, nil, ErrorTypeDB)
}

func TestRecordErrorWithInfo(t *testing.T) {
	span, recorder := newRecordedSpan(t)
	RecordErrorWithInfo(span, fmt.Errorf("duplicate entry"), ErrorTypeDB,
		attribute.String("db.sql.table", "interview_profiles"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	table, ok := attrValue(spans[0].Attributes(), "db.sql.table")
	assert.True(t, ok, "附加属性应写入 span")
	assert.Equal(t, "interview_profiles", table)

	errType, _ := attrValue(spans[0].Attributes(), "error.type")
	assert.Equal(t, "db", errType)
}

func TestRecordHTTPError(t *testing.T) {
	span, recorder := newRecordedSpan(t)
	RecordHTTPError(span, fmt.Errorf("会话存储不可用"), 500)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	category, ok := attrValue(spans[0].Attributes(), "error.category")
	assert.True(t, ok)
	assert.Equal(t, "server_error", category, "5xx 应归类为 server_error")

	status, _ := attrValue(spans[0].Attributes(), "http.status_code")
	assert.Equal(t, "500", status)

	// 4xx 归类为 client_error
	span2, recorder2 := newRecordedSpan(t)
	RecordHTTPError(span2, fmt.Errorf("参数错误"), 400)
	span2.End()
	category, _ = attrValue(recorder2.Ended()[0].Attributes(), "error.category")
	assert.Equal(t, "client_error", category)
}

func TestSafeAttributeValue(t *testing.T) {
	// 敏感字段名触发掩码
	masked := SafeAttributeValue("user.email", "myemail@example.com", MaxMessageLength)
	assert.NotEqual(t, "myemail@example.com", masked, "email 属性应被掩码")
	assert.Contains(t, masked, "*")

	// 普通字段名只做截断
	long := strings.Repeat("a", 300)
	truncated := SafeAttributeValue("llm.prompt_tail", long, MaxMessageLength)
	assert.LessOrEqual(t, len([]rune(truncated)), MaxMessageLength)
	assert.Contains(t, truncated, "...", "超长值应带省略号")

	// 短值原样返回
	assert.Equal(t, "hello", SafeAttributeValue("llm.prompt_tail", "hello", MaxMessageLength))
}

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("a"))
	assert.Equal(t, "张*", MaskPII("张三"))
	assert.Equal(t, "王*明", MaskPII("王小明"))
	assert.Equal(t, "13*******78", MaskPII("13812345678"))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))

	s := "abcdefghijklmnopqrstuvwxyz"
	out := TruncateString(s, 11)
	assert.LessOrEqual(t, len([]rune(out)), 11)
	assert.True(t, strings.HasPrefix(out, "abcd"), "应保留开头")
	assert.True(t, strings.HasSuffix(out, "wxyz"), "应保留结尾")
}

func TestSafeRedisKey(t *testing.T) {
	key := "app:interview:profile:user-123"
	assert.Equal(t, key, SafeRedisKey(key), "正常长度的键不应被改动")

	long := "app:interview:profile:" + strings.Repeat("x", 200)
	assert.LessOrEqual(t, len([]rune(SafeRedisKey(long))), MaxRedisLength)
}
