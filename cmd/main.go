package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-interview-go/internal/agent"
	"ai-interview-go/internal/api/handler"
	"ai-interview-go/internal/api/router"
	"ai-interview-go/internal/config"
	"ai-interview-go/internal/interview"
	"ai-interview-go/internal/storage"
	"ai-interview-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	appCoreLogger "ai-interview-go/internal/logger"

	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
)

var (
	version     = "1.0.0"           //nolint:gochecknoglobals
	serviceName = "ai-interview-go" //nolint:gochecknoglobals
)

// @title AI Interview API
// @version 1.0
// @description AI 驱动的档案访谈服务 API。
// @BasePath /api/v1
func main() {
	initLogger()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracingShutdown, err := tracing.InitTracerProvider(ctx, &cfg.Tracing)
	if err != nil {
		glog.Warnf("初始化链路追踪失败: %v, 继续以无追踪模式运行", err)
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 面试编排可为不同任务配置专用模型，缺省使用全局模型
	modelName := cfg.Aliyun.Model
	if m, ok := cfg.Aliyun.TaskModels["interview"]; ok && m != "" {
		modelName = m
	}
	llmChatModel, err := agent.NewAliyunQwenChatModel(cfg.Aliyun.APIKey, modelName, cfg.Aliyun.APIURL)
	if err != nil {
		glog.Fatalf("初始化LLM聊天模型失败: %v", err)
	}
	glog.Infof("LLM聊天模型初始化成功, model: %s", modelName)

	// 会话存储：优先 Redis，未配置时退化为内存存储（进程重启会丢会话）
	var sessionStore interview.SessionStore
	if storageManager.Redis != nil {
		sessionStore, err = interview.NewRedisSessionStore(storageManager.Redis.Client, cfg.GetSessionTTL())
		if err != nil {
			glog.Fatalf("初始化Redis会话存储失败: %v", err)
		}
		glog.Info("Redis会话存储初始化成功")
	} else {
		sessionStore = interview.NewMemorySessionStore()
		glog.Warn("Redis未配置，使用内存会话存储，进程重启后会话将丢失")
	}

	budget := interview.NewFollowUpBudget(cfg.Interview.MinFollowUps, cfg.Interview.MaxFollowUps)
	orchestrator := interview.NewOrchestrator(llmChatModel, sessionStore, budget, cfg.GetHeartbeatInterval())
	glog.Info("面试编排器初始化成功")

	interviewHandler := handler.NewInterviewHandler(cfg, storageManager, orchestrator, sessionStore)
	glog.Info("InterviewHandler初始化成功")

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, interviewHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}

	if tracingShutdown != nil {
		if err := tracingShutdown(shutdownCtx); err != nil {
			glog.Warnf("冲刷链路追踪数据失败: %v", err)
		}
	}
	glog.Info("优雅退出完成")
}

func initLogger() {
	logFilePath := "logs/app.log"
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatalf("无法创建日志目录: %v", err)
	}
	fileWriter, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("无法打开日志文件 %s: %v", logFilePath, err)
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	multiWriter := zerolog.MultiLevelWriter(consoleWriter, fileWriter)

	level := zerolog.DebugLevel
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = "15:04:05"

	logger := zerolog.New(multiWriter).With().Timestamp().Caller().Logger()

	// 同时替换应用内实例和 zerolog 的全局实例
	appCoreLogger.Logger = logger
	zlog.Logger = logger

	// Hertz 的 glog 走同一个 zerolog 实例
	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
	glog.SetLevel(glog.LevelDebug)

	log.Println("Logger initialized with Zerolog (appCoreLogger & glog via adapter), writing to console and file:", logFilePath)
}
