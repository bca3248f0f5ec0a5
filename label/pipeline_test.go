package label

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/renderer"
)

type fakeRenderer struct {
	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeRenderer) Ext() string { return "pdf" }

func (f *fakeRenderer) Render(cfg layout.LabelConfig) ([]byte, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	if cfg.Text == "boom" {
		return nil, renderer.Fail(cfg, errors.New("backend exploded"))
	}
	return []byte("%PDF-" + cfg.Text), nil
}

func cfg(id, text string, qty int) layout.LabelConfig {
	return layout.LabelConfig{Text: text, Quantity: qty, CorrelationID: id, OrderNumber: "#1001"}
}

func TestRenderAllCopiesAndFilenames(t *testing.T) {
	r := &fakeRenderer{}
	p := NewPipeline(r)

	jobs, errs := p.RenderAll(context.Background(), []layout.LabelConfig{cfg("1-1", "alpha", 2), cfg("1-2", "beta", 1)})
	require.Empty(t, errs)
	require.Len(t, jobs, 3)

	assert.Equal(t, "label-1-1-1.pdf", jobs[0].Filename)
	assert.Equal(t, "label-1-1-2.pdf", jobs[1].Filename)
	assert.Equal(t, "label-1-2-1.pdf", jobs[2].Filename)
	assert.Equal(t, 2, jobs[1].CopyIndex)
	assert.Equal(t, []byte("%PDF-alpha"), jobs[0].Data)
	assert.EqualValues(t, 3, r.calls.Load(), "each copy is an independent render")
}

func TestRenderAllIsolatesFailures(t *testing.T) {
	r := &fakeRenderer{}
	p := NewPipeline(r)

	invalid := cfg("1-3", "  ", 1)
	jobs, errs := p.RenderAll(context.Background(), []layout.LabelConfig{
		cfg("1-1", "boom", 2),
		invalid,
		cfg("1-2", "fine", 1),
	})
	require.Len(t, jobs, 1)
	assert.Equal(t, "1-2", jobs[0].Config.CorrelationID)

	require.Len(t, errs, 2)
	var verr *layout.ValidationError
	require.True(t, errors.As(errs[0], &verr))
	assert.Equal(t, "1-3", verr.CorrelationID)
	var rerr *renderer.RenderError
	require.True(t, errors.As(errs[1], &rerr))
	assert.Equal(t, "1-1", rerr.CorrelationID)

	// 无效配置不触发渲染
	assert.EqualValues(t, 3, r.calls.Load())
}

func TestRenderAllRespectsParallelism(t *testing.T) {
	r := &fakeRenderer{}
	p := NewPipeline(r, WithParallelism(2))

	configs := make([]layout.LabelConfig, 0, 6)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		configs = append(configs, cfg(id, "x", 1))
	}
	jobs, errs := p.RenderAll(context.Background(), configs)
	require.Empty(t, errs)
	require.Len(t, jobs, 6)
	assert.LessOrEqual(t, r.maxSeen.Load(), int32(2))
}

func TestRenderAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeRenderer{}
	jobs, errs := NewPipeline(r).RenderAll(ctx, []layout.LabelConfig{cfg("1-1", "x", 3)})
	assert.Empty(t, jobs)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.Zero(t, r.calls.Load())
}

func TestFilenamePattern(t *testing.T) {
	p := NewPipeline(&fakeRenderer{}, WithFilenamePattern("${orderNumber}/${correlationId}_${copy}.${ext}"))
	name, err := p.Filename(cfg("9-9", "x", 1), 4)
	require.NoError(t, err)
	assert.Equal(t, "1001/9-9_4.pdf", name)

	p = NewPipeline(&fakeRenderer{}, WithFilenamePattern("${unknown}.${ext}"))
	_, err = p.Filename(cfg("9-9", "x", 1), 1)
	assert.Error(t, err)
}

func TestRenderAllSkipsConfigWhenFilenameFails(t *testing.T) {
	r := &fakeRenderer{}
	p := NewPipeline(r, WithFilenamePattern("${unknown}-${copy}.${ext}"))

	jobs, errs := p.RenderAll(context.Background(), []layout.LabelConfig{cfg("1-1", "alpha", 3)})
	assert.Empty(t, jobs)
	require.Len(t, errs, 1)
	var rerr *renderer.RenderError
	require.True(t, errors.As(errs[0], &rerr))
	assert.Equal(t, "1-1", rerr.CorrelationID)
	// 文件名先于渲染全部生成，失败的配置一份都不渲染
	assert.Zero(t, r.calls.Load())
}

func TestRenderAllTracksFailuresPerConfig(t *testing.T) {
	r := &fakeRenderer{}
	p := NewPipeline(r, WithFilenamePattern("${copy}-${correlationId}.${ext}"))

	// 两个配置共用同一关联 ID，一个失败不应连带丢弃另一个的副本
	jobs, errs := p.RenderAll(context.Background(), []layout.LabelConfig{
		cfg("dup", "boom", 2),
		cfg("dup", "fine", 2),
	})
	require.Len(t, errs, 1)
	require.Len(t, jobs, 2)
	for _, j := range jobs {
		assert.Equal(t, "fine", j.Config.Text)
	}
	assert.Equal(t, 1, jobs[0].CopyIndex)
	assert.Equal(t, 2, jobs[1].CopyIndex)
}
