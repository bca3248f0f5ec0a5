package label

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/labelkit/binding"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/renderer"
)

// DefaultFilenamePattern names one rendered copy; placeholders are filled per job.
const DefaultFilenamePattern = "label-${correlationId}-${copy}.${ext}"

// Job 是一张已渲染的标签副本。每份副本都是独立渲染的完整文件。
type Job struct {
	Config    layout.LabelConfig
	CopyIndex int // 从 1 开始
	Filename  string
	Data      []byte
}

// Pipeline 将标签配置批量渲染为文件。单张失败不会中断其余标签。
type Pipeline struct {
	renderer    renderer.Renderer
	pattern     string
	parallelism int
	logger      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithFilenamePattern(pattern string) Option {
	return func(p *Pipeline) {
		if pattern != "" {
			p.pattern = pattern
		}
	}
}

func WithParallelism(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.parallelism = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a pipeline around r.
func NewPipeline(r renderer.Renderer, opts ...Option) *Pipeline {
	p := &Pipeline{
		renderer:    r,
		pattern:     DefaultFilenamePattern,
		parallelism: 4,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Filename 按模式生成文件名，可用占位符：correlationId、copy、ext、orderNumber。
func (p *Pipeline) Filename(cfg layout.LabelConfig, copyIndex int) (string, error) {
	return binding.Expand(p.pattern, map[string]interface{}{
		"correlationId": cfg.CorrelationID,
		"copy":          copyIndex,
		"ext":           p.renderer.Ext(),
		"orderNumber":   layout.OrderDigits(cfg.OrderNumber),
	})
}

type task struct {
	slot  int
	index int // 配置在输入中的位置；失败按位置记录，关联 ID 重复时互不影响
	cfg   layout.LabelConfig
	copy  int
	name  string
}

// RenderAll 渲染每个配置的 Quantity 份副本。
//
// 所有配置先统一校验并生成全部文件名，无效配置以 *layout.ValidationError 报告且不做任何渲染；
// 其余副本并发渲染（每次渲染持有独立画布），失败以 *renderer.RenderError 报告。
// 任一副本失败时该配置的全部副本都不返回。返回的 jobs 按输入顺序与副本序号排列。
func (p *Pipeline) RenderAll(ctx context.Context, configs []layout.LabelConfig) ([]Job, []error) {
	var (
		tasks []task
		errs  []error
	)
	for i, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			p.logger.Warn("标签配置无效，已跳过", zap.String("correlation_id", cfg.CorrelationID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		queued, err := p.queue(i, cfg, len(tasks))
		if err != nil {
			p.logger.Warn("生成文件名失败，已跳过", zap.String("correlation_id", cfg.CorrelationID), zap.Error(err))
			errs = append(errs, renderer.Fail(cfg, fmt.Errorf("生成文件名失败: %w", err)))
			continue
		}
		tasks = append(tasks, queued...)
	}

	results := make([]*Job, len(tasks))
	var (
		mu      sync.Mutex
		failed  = map[int]bool{}
		renderE []error
	)
	fail := func(t task, err error) {
		mu.Lock()
		defer mu.Unlock()
		// 同一配置的多份副本只报告一次
		if !failed[t.index] {
			failed[t.index] = true
			renderE = append(renderE, err)
		}
	}
	var g errgroup.Group
	g.SetLimit(p.parallelism)
	for _, t := range tasks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				fail(t, renderer.Fail(t.cfg, err))
				return nil
			}
			data, err := p.renderer.Render(t.cfg)
			if err != nil {
				p.logger.Error("渲染标签失败",
					zap.String("correlation_id", t.cfg.CorrelationID),
					zap.Int("copy", t.copy),
					zap.Error(err),
				)
				fail(t, err)
				return nil
			}
			results[t.slot] = &Job{Config: t.cfg, CopyIndex: t.copy, Filename: t.name, Data: data}
			return nil
		})
	}
	_ = g.Wait()

	jobs := make([]Job, 0, len(results))
	for i, j := range results {
		// 某份副本失败时丢弃该配置的全部副本，避免只投递部分份数
		if j == nil || failed[tasks[i].index] {
			continue
		}
		jobs = append(jobs, *j)
	}
	sort.SliceStable(renderE, func(i, k int) bool { return renderE[i].Error() < renderE[k].Error() })
	errs = append(errs, renderE...)

	p.logger.Info("批量渲染完成",
		zap.Int("labels", len(configs)),
		zap.Int("files", len(jobs)),
		zap.Int("failures", len(errs)),
	)
	return jobs, errs
}

// queue 先为配置的全部副本生成文件名，任一失败则整个配置不入队。
func (p *Pipeline) queue(index int, cfg layout.LabelConfig, firstSlot int) ([]task, error) {
	out := make([]task, 0, cfg.Quantity)
	for c := 1; c <= cfg.Quantity; c++ {
		name, err := p.Filename(cfg, c)
		if err != nil {
			return nil, err
		}
		out = append(out, task{slot: firstSlot + len(out), index: index, cfg: cfg, copy: c, name: name})
	}
	return out, nil
}
