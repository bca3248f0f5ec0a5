package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ByLCY/labelkit/config"
	"github.com/ByLCY/labelkit/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./labelkit.toml）")
	mode := flag.String("mode", "render", "运行模式：render 或 serve")
	text := flag.String("text", "", "render 模式：标签文本")
	number := flag.String("number", "", "render 模式：订单号")
	font := flag.String("font", "", "render 模式：字体族名")
	color := flag.String("color", "", "render 模式：颜色，例如 #cc0000")
	copies := flag.Int("copies", 1, "render 模式：份数")
	orderPath := flag.String("order", "", "render 模式：订单 webhook JSON 文件")
	out := flag.String("out", "", "输出目录（默认 output.dir）")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	zl := logger.New(cfg.Log)
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "serve":
		err = serve(ctx, cfg, zl)
	case "render":
		opts := renderOptions{
			Text:      *text,
			Number:    *number,
			Font:      *font,
			Color:     *color,
			Copies:    *copies,
			OrderPath: *orderPath,
			OutDir:    *out,
			DebugPath: *debug,
		}
		var files []string
		files, err = runRender(ctx, cfg, zl, opts)
		for _, f := range files {
			fmt.Printf("已生成标签：%s\n", f)
		}
	default:
		err = fmt.Errorf("未知模式 %q", *mode)
	}
	if err != nil {
		zl.Error("labelkit 运行失败", zap.Error(err))
		zl.Sync()
		os.Exit(1)
	}
}
