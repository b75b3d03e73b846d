package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"PipelineCRM/apps/crm/internal/notify"
	"PipelineCRM/apps/crm/internal/repository"
	"PipelineCRM/apps/crm/internal/router"
	v1 "PipelineCRM/apps/crm/internal/router/v1"
	"PipelineCRM/apps/crm/internal/service"
	"PipelineCRM/config"
	"PipelineCRM/pkg/async"
	"PipelineCRM/pkg/ctxmeta"
	"PipelineCRM/pkg/logger"
	"PipelineCRM/pkg/sqlite"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx := ctxmeta.WithTraceID(context.Background(), "0")

	// 1. 初始化日志
	loggerCfg := config.DefaultLoggerConfig()
	l, err := logger.Build(loggerCfg)
	if err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	logger.ReplaceGlobal(l)
	defer func() {
		// 同步日志缓冲区
		if err := logger.L().Sync(); err != nil {
			// Sync 对 os.Stdout 会返回错误，可以忽略
			_ = err
		}
	}()

	logger.Info(ctx, "CRM 服务初始化中...")

	// 2. 初始化协程池，异步任务继承调用方的请求元数据
	async.SetContextPropagator(ctxmeta.Propagate)
	if err := async.Init(config.DefaultAsyncConfig()); err != nil {
		logger.Error(ctx, "初始化协程池失败", logger.ErrorField("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := async.Release(); err != nil {
			logger.Error(ctx, "释放协程池失败", logger.ErrorField("error", err))
		}
	}()

	// 3. 初始化嵌入式存储
	storeCfg := config.DefaultStoreConfig()
	db, err := sqlite.Build(storeCfg)
	if err != nil {
		logger.Error(ctx, "初始化存储失败",
			logger.String("path", storeCfg.Path),
			logger.ErrorField("error", err),
		)
		os.Exit(1)
	}
	sqlite.ReplaceGlobal(db)
	defer func() {
		if err := sqlite.Close(db); err != nil {
			logger.Error(ctx, "关闭存储失败", logger.ErrorField("error", err))
		}
	}()
	logger.Info(ctx, "存储初始化成功", logger.String("path", storeCfg.Path))

	// 4. 初始化 Repository 层（依赖注入）
	relationRepo := repository.NewRelationRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	// 5. 初始化变更推送
	hub := notify.NewHub()
	connManager := notify.NewConnectionManager()
	hub.AttachManager(connManager)
	toaster := notify.NewHubToaster(hub)
	logger.Info(ctx, "变更推送初始化完成")

	// 6. 初始化 Service 层（依赖注入）
	crmCfg := config.DefaultCRMConfig()
	activity := service.NewActivityLogger()

	relationshipService, err := service.NewRelationshipService(relationRepo, hub, activity, crmCfg)
	if err != nil {
		logger.Error(ctx, "初始化关系图服务失败", logger.ErrorField("error", err))
		os.Exit(1)
	}
	logger.Info(ctx, "关系图服务初始化完成")

	softDeleteService := service.NewSoftDeleteService(documentRepo, hub, toaster, activity, crmCfg)
	defer softDeleteService.Shutdown()
	logger.Info(ctx, "软删除服务初始化完成",
		logger.Duration("ttl", softDeleteService.TTL()),
	)

	selectionService := service.NewSelectionService(hub, crmCfg)
	logger.Info(ctx, "选区服务初始化完成")

	// 7. 启动恢复：接管上次进程留下的待删除记录
	if err := softDeleteService.Bootstrap(ctx); err != nil {
		logger.Error(ctx, "启动恢复失败", logger.ErrorField("error", err))
		os.Exit(1)
	}

	// 8. 初始化 Handler 层（依赖注入）
	relationshipHandler := v1.NewRelationshipHandler(relationshipService)
	recordHandler := v1.NewRecordHandler(softDeleteService)
	selectionHandler := v1.NewSelectionHandler(selectionService)
	wsHandler := notify.NewWSHandler(connManager)
	logger.Info(ctx, "处理器初始化完成")

	// 9. 初始化路由（依赖注入）
	gin.SetMode(gin.ReleaseMode)
	serverCfg := config.DefaultServerConfig()
	r := router.InitRouter(serverCfg, relationshipHandler, recordHandler, selectionHandler, wsHandler)
	logger.Info(ctx, "路由初始化完成")

	srv := &http.Server{
		Addr:           serverCfg.Addr,
		Handler:        r,
		ReadTimeout:    serverCfg.ReadTimeout,
		WriteTimeout:   serverCfg.WriteTimeout,
		IdleTimeout:    serverCfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 最大请求头 1MB
	}

	// 10. 启动服务器（在 goroutine 中）
	go func() {
		logger.Info(ctx, "CRM 服务器启动中",
			logger.String("address", serverCfg.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "服务器启动失败", logger.ErrorField("error", err))
			os.Exit(1)
		}
	}()

	logger.Info(ctx, "CRM 服务器启动成功，按 Ctrl+C 关闭")

	// 11. 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info(ctx, "收到关闭信号，开始优雅停机...",
		logger.String("signal", sig.String()),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()

	// 先断开推送连接，再关 HTTP 服务器；
	// 软删除定时器由 defer 停掉，待删记录留给下次启动恢复
	connManager.Shutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "服务器强制关闭", logger.ErrorField("error", err))
		os.Exit(1)
	}

	logger.Info(ctx, "CRM 服务器已优雅退出")
}
