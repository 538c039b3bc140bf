package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"ai-interview-go/internal/config"
	"ai-interview-go/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// InterviewCompletedEvent 面试完成事件
type InterviewCompletedEvent struct {
	SessionID         string `json:"session_id"`
	UserID            string `json:"user_id"`
	CompletenessScore int    `json:"completeness_score"`
	FinishedAt        string `json:"finished_at"`
}

// RabbitMQ 提供消息队列功能，负责面试事件通知
type RabbitMQ struct {
	conn        *amqp.Connection
	channelPool sync.Pool
	exchangeMap map[string]bool // 记录已声明的 exchange
	exchangeMu  sync.Mutex
	cfg         *config.RabbitMQConfig
}

// NewRabbitMQ 创建 RabbitMQ 客户端
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil {
		return nil, fmt.Errorf("RabbitMQ 配置不能为空")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL 配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到 RabbitMQ 服务器 (%s): %w", cfg.URL, err)
	}

	mq := &RabbitMQ{
		conn:        conn,
		exchangeMap: make(map[string]bool),
		cfg:         cfg,
	}

	mq.channelPool = sync.Pool{
		New: func() interface{} {
			ch, chErr := conn.Channel()
			if chErr != nil {
				logger.Error().Err(chErr).Msg("创建 RabbitMQ 通道失败")
				return nil
			}
			return ch
		},
	}

	testCh := mq.getChannel()
	if testCh == nil {
		conn.Close()
		return nil, fmt.Errorf("无法创建 RabbitMQ 通道")
	}
	mq.putChannel(testCh)

	logger.Info().Str("url", cfg.URL).Msg("成功连接到 RabbitMQ 服务器")
	return mq, nil
}

func (r *RabbitMQ) getChannel() *amqp.Channel {
	ch, _ := r.channelPool.Get().(*amqp.Channel)
	if ch == nil || ch.IsClosed() {
		newCh, err := r.conn.Channel()
		if err != nil {
			return nil
		}
		return newCh
	}
	return ch
}

func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch != nil && !ch.IsClosed() {
		r.channelPool.Put(ch)
	}
}

// Close 关闭连接
func (r *RabbitMQ) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureExchange 声明交换机，重复声明只执行一次
func (r *RabbitMQ) EnsureExchange(exchangeName, exchangeType string, durable bool) error {
	r.exchangeMu.Lock()
	defer r.exchangeMu.Unlock()

	if r.exchangeMap[exchangeName] {
		return nil
	}

	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取 RabbitMQ 通道")
	}
	defer r.putChannel(ch)

	err := ch.ExchangeDeclare(
		exchangeName,
		exchangeType,
		durable,
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("声明交换机 %s 失败: %w", exchangeName, err)
	}

	r.exchangeMap[exchangeName] = true
	return nil
}

// PublishMessage 发布消息到交换机
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	ch := r.getChannel()
	if ch == nil {
		return fmt.Errorf("无法获取 RabbitMQ 通道")
	}
	defer r.putChannel(ch)

	deliveryMode := amqp.Transient
	if persistent {
		deliveryMode = amqp.Persistent
	}

	return ch.PublishWithContext(
		ctx,
		exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: deliveryMode,
			Body:         message,
		},
	)
}

// PublishJSON 发布 JSON 格式的消息
func (r *RabbitMQ) PublishJSON(ctx context.Context, exchangeName, routingKey string, data interface{}, persistent bool) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}
	return r.PublishMessage(ctx, exchangeName, routingKey, jsonData, persistent)
}

// PublishInterviewCompleted 发布面试完成事件（持久化消息）
func (r *RabbitMQ) PublishInterviewCompleted(ctx context.Context, event *InterviewCompletedEvent) error {
	exchange := r.cfg.InterviewEventsExchange
	routingKey := r.cfg.CompletedRoutingKey

	if err := r.EnsureExchange(exchange, "topic", true); err != nil {
		return err
	}

	if err := r.PublishJSON(ctx, exchange, routingKey, event, true); err != nil {
		return fmt.Errorf("发布面试完成事件失败: %w", err)
	}

	logger.Info().
		Str("session_id", event.SessionID).
		Str("exchange", exchange).
		Str("routing_key", routingKey).
		Msg("面试完成事件已发布")
	return nil
}
