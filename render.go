package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ByLCY/labelkit/config"
	"github.com/ByLCY/labelkit/delivery"
	"github.com/ByLCY/labelkit/dsl"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/order"
)

type renderOptions struct {
	Text      string
	Number    string
	Font      string
	Color     string
	Copies    int
	OrderPath string
	OutDir    string
	DebugPath string
}

// runRender 在本地渲染单个标签或一个订单文件中的全部标签，写入输出目录。
func runRender(ctx context.Context, cfg *config.Config, zl *zap.Logger, opts renderOptions) ([]string, error) {
	r, err := newRenderer(cfg, zl)
	if err != nil {
		return nil, err
	}

	var (
		configs []layout.LabelConfig
		folder  string
		failed  []error
	)
	if opts.OrderPath != "" {
		data, err := os.ReadFile(opts.OrderPath)
		if err != nil {
			return nil, fmt.Errorf("无法读取订单文件 %s: %w", opts.OrderPath, err)
		}
		o, err := order.Parse(data)
		if err != nil {
			return nil, err
		}
		configs, failed = newAdapter(cfg, zl).Labels(o)
		folder = o.Folder()
	} else {
		color, err := dsl.ParseColor(opts.Color)
		if err != nil {
			return nil, err
		}
		font := opts.Font
		if font == "" {
			font = cfg.Fonts.Family
		}
		configs = []layout.LabelConfig{{
			Text:          opts.Text,
			Quantity:      opts.Copies,
			CorrelationID: uuid.NewString(),
			OrderNumber:   opts.Number,
			FontFamily:    font,
			Color:         color,
		}}
	}

	if opts.DebugPath != "" && len(configs) > 0 {
		if err := writeDebug(r, configs[0], opts.DebugPath); err != nil {
			return nil, err
		}
	}

	jobs, renderErrs := newPipeline(cfg, r, zl).RenderAll(ctx, configs)
	failed = append(failed, renderErrs...)

	outDir := opts.OutDir
	if outDir == "" {
		outDir = cfg.Output.Dir
	}
	rep, err := delivery.Deliver(ctx, delivery.NewLocalSink(outDir), folder, jobs, zl)
	if err != nil {
		return nil, err
	}
	failed = append(failed, rep.Failed...)

	files := make([]string, 0, len(rep.Uploaded))
	for _, f := range rep.Uploaded {
		files = append(files, filepath.Join(outDir, filepath.FromSlash(f)))
	}
	return files, errors.Join(failed...)
}

func newAdapter(cfg *config.Config, zl *zap.Logger) *order.Adapter {
	return order.NewAdapter(order.Keys{
		Text:  cfg.Order.TextKeys,
		Font:  cfg.Order.FontKeys,
		Color: cfg.Order.ColorKeys,
		Size:  cfg.Order.SizeKeys,
		Style: cfg.Order.StyleKeys,
	}, order.WithDefaultFont(cfg.Fonts.Family), order.WithLogger(zl.Named("order")))
}

func writeDebug(r any, cfg layout.LabelConfig, debugPath string) error {
	src, ok := r.(layoutSource)
	if !ok {
		return fmt.Errorf("当前渲染器不支持输出布局调试信息")
	}
	lay, err := src.Layout(cfg)
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(lay, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
