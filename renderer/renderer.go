package renderer

import (
	"fmt"

	"github.com/ByLCY/labelkit/layout"
)

// Renderer 将一张标签配置渲染为最终文件，例如 PDF 或 PNG。
// Render 返回生成的二进制数据；配置无效时返回 *layout.ValidationError，
// 渲染失败时返回 *RenderError。实现须允许并发调用，每次渲染持有独立的画布。
type Renderer interface {
	Render(cfg layout.LabelConfig) ([]byte, error)
	// Ext 是输出文件扩展名（不含点）。
	Ext() string
}

// RenderError 携带配置的关联 ID，调用方可以只跳过或重试这一张标签。
type RenderError struct {
	CorrelationID string
	Err           error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("渲染标签 [%s] 失败: %v", e.CorrelationID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Fail wraps err as a *RenderError for cfg.
func Fail(cfg layout.LabelConfig, err error) error {
	if err == nil {
		return nil
	}
	return &RenderError{CorrelationID: cfg.CorrelationID, Err: err}
}
