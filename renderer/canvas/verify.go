package canvasrenderer

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ByLCY/labelkit/layout"
)

var pdfcpuOnce sync.Once

func pdfcpuConfig() *model.Configuration {
	pdfcpuOnce.Do(func() {
		// 不读写 pdfcpu 的用户配置目录
		model.ConfigPath = "disable"
	})
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// verifySinglePage 校验输出恰好一页且页面尺寸与版式一致，保证不会返回残缺或多页的文件。
func verifySinglePage(data []byte, bounds layout.PageBounds) error {
	conf := pdfcpuConfig()
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("读取生成的 PDF 失败: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("生成的 PDF 应为单页，实际 %d 页", n)
	}
	dims, err := api.PageDims(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("读取页面尺寸失败: %w", err)
	}
	const tol = 0.5 // pt
	if len(dims) != 1 || math.Abs(dims[0].Width-bounds.Width) > tol || math.Abs(dims[0].Height-bounds.Height) > tol {
		return fmt.Errorf("页面尺寸不符: %v，期望 %.2fx%.2fpt", dims, bounds.Width, bounds.Height)
	}
	return nil
}
