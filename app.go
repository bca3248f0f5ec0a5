package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ByLCY/labelkit/config"
	"github.com/ByLCY/labelkit/delivery"
	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/label"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/renderer"
	canvasrenderer "github.com/ByLCY/labelkit/renderer/canvas"
	rasterrenderer "github.com/ByLCY/labelkit/renderer/raster"
)

// layoutSource 由能输出标签几何的渲染器实现，用于 -debug。
type layoutSource interface {
	Layout(cfg layout.LabelConfig) (*layout.LabelLayout, error)
}

func newRenderer(cfg *config.Config, zl *zap.Logger) (renderer.Renderer, error) {
	bounds, err := cfg.Page.Bounds()
	if err != nil {
		return nil, err
	}
	resolver := fonts.NewResolver(cfg.Fonts.Path, cfg.Fonts.Candidates)
	switch cfg.Output.Format {
	case "png":
		return rasterrenderer.NewRenderer(rasterrenderer.Options{
			Resolver:    resolver,
			Logger:      zl.Named("raster"),
			Bounds:      bounds,
			DigitSizePt: cfg.Fonts.DigitSizePt,
			DPI:         cfg.Output.DPI,
		}), nil
	default:
		return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
			Resolver:    resolver,
			Logger:      zl.Named("pdf"),
			Bounds:      bounds,
			DigitSizePt: cfg.Fonts.DigitSizePt,
			SkipVerify:  cfg.Render.SkipVerify,
		}), nil
	}
}

func newPipeline(cfg *config.Config, r renderer.Renderer, zl *zap.Logger) *label.Pipeline {
	return label.NewPipeline(r,
		label.WithFilenamePattern(cfg.Output.FilenamePattern),
		label.WithParallelism(cfg.Render.Parallelism),
		label.WithLogger(zl.Named("pipeline")),
	)
}

// newSink 按配置创建投递目标；返回的 cleanup 用于关闭 Redis 等连接。
func newSink(ctx context.Context, cfg *config.Config, zl *zap.Logger) (delivery.Sink, func(), error) {
	noop := func() {}
	switch cfg.Delivery.Sink {
	case "local":
		return delivery.NewLocalSink(cfg.Delivery.Local.Dir), noop, nil
	case "s3":
		s3cfg := cfg.Delivery.S3
		sink, err := delivery.NewS3Sink(ctx, delivery.S3Options{
			Endpoint:     s3cfg.Endpoint,
			Region:       s3cfg.Region,
			Bucket:       s3cfg.Bucket,
			AccessKey:    s3cfg.AccessKey,
			SecretKey:    s3cfg.SecretKey,
			UsePathStyle: s3cfg.UsePathStyle,
			Prefix:       s3cfg.Prefix,
		}, delivery.WithS3Logger(zl.Named("s3")))
		return sink, noop, err
	case "dropbox":
		d := cfg.Delivery.Dropbox
		opts := delivery.DropboxOptions{
			AppKey:       d.AppKey,
			AppSecret:    d.AppSecret,
			RefreshToken: d.RefreshToken,
			RootPath:     d.RootPath,
			APIURL:       d.APIURL,
			ContentURL:   d.ContentURL,
			RetryMax:     d.RetryMax,
			TokenSkew:    d.TokenSkew,
		}
		cleanup := noop
		if cfg.Redis.Enabled {
			// 多个实例共享同一个访问令牌
			store, err := delivery.NewRedisTokenStore(ctx, delivery.RedisOptions{
				Addr:      cfg.Redis.Addr,
				Password:  cfg.Redis.Password,
				DB:        cfg.Redis.DB,
				KeyPrefix: cfg.Redis.KeyPrefix,
			})
			if err != nil {
				return nil, noop, err
			}
			opts.TokenStore = store
			cleanup = func() { _ = store.Close() }
		}
		return delivery.NewDropboxSink(opts, nil, zl.Named("dropbox")), cleanup, nil
	default:
		return nil, noop, fmt.Errorf("未知的投递方式 %q", cfg.Delivery.Sink)
	}
}
