package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ByLCY/labelkit/config"
	"github.com/ByLCY/labelkit/webhook"
)

// serve 启动 webhook 服务，直到 ctx 取消后优雅退出。
func serve(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r, err := newRenderer(cfg, zl)
	if err != nil {
		return err
	}
	sink, cleanup, err := newSink(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("初始化投递失败: %w", err)
	}
	defer cleanup()

	h := webhook.NewHandler(webhook.Options{
		Secret:       cfg.Webhook.Secret,
		MaxBodyBytes: cfg.Webhook.MaxBodyBytes,
		Timeout:      cfg.Webhook.Timeout,
		Adapter:      newAdapter(cfg, zl),
		Pipeline:     newPipeline(cfg, r, zl),
		Sink:         sink,
		Logger:       zl.Named("webhook"),
	})
	if cfg.Webhook.Secret == "" {
		zl.Warn("未配置 webhook.secret，签名校验已关闭")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           webhook.NewRouter(h, cfg.Webhook.Path, zl.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zl.Info("webhook 服务已启动", zap.String("addr", srv.Addr), zap.String("path", cfg.Webhook.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	zl.Info("正在关闭 webhook 服务")
	return srv.Shutdown(shutdownCtx)
}
