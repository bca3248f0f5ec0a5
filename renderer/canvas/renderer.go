package canvasrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"go.uber.org/zap"

	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/renderer"
)

// Renderer draws labels via github.com/tdewolff/canvas into single-page PDFs.
type Renderer struct {
	resolver    *fonts.Resolver
	logger      *zap.Logger
	bounds      layout.PageBounds
	digitSizePt float64
	verify      bool
}

var (
	_ renderer.Renderer  = (*Renderer)(nil)
	_ layout.Measurer    = (*faceMeasurer)(nil)
	_ layout.InkMeasurer = (*faceMeasurer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	Resolver    *fonts.Resolver   // 为空时使用默认候选路径
	Logger      *zap.Logger       // 为空时不输出日志
	Bounds      layout.PageBounds // 零值时使用 layout.DefaultPageBounds
	DigitSizePt float64
	SkipVerify  bool // 跳过 pdfcpu 输出校验
}

// NewRenderer creates a renderer that resolves the display font with the default candidates.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with injected font resolution and page geometry.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		resolver:    opts.Resolver,
		logger:      opts.Logger,
		bounds:      opts.Bounds,
		digitSizePt: opts.DigitSizePt,
		verify:      !opts.SkipVerify,
	}
	if r.resolver == nil {
		r.resolver = fonts.NewResolver("", nil)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.bounds == (layout.PageBounds{}) {
		r.bounds = layout.DefaultPageBounds()
	}
	if r.digitSizePt <= 0 {
		r.digitSizePt = layout.DefaultDigitSizePt
	}
	return r
}

// Ext implements renderer.Renderer.
func (r *Renderer) Ext() string { return "pdf" }

// Render renders one copy of cfg into a PDF byte slice.
func (r *Renderer) Render(cfg layout.LabelConfig) ([]byte, error) {
	lay, set, err := r.compose(cfg)
	if err != nil {
		return nil, err
	}

	wMM, hMM := lay.Bounds.Width*layout.PtToMm, lay.Bounds.Height*layout.PtToMm
	c := canvas.New(wMM, hMM)
	ctx := canvas.NewContext(c)
	// 先画订单号竖列，再画主文本
	r.drawDigits(ctx, lay, set)
	r.drawText(ctx, lay, set)

	var buf bytes.Buffer
	// 只写入一页，不调用 NewPage
	writer := pdf.New(&buf, wMM, hMM, nil)
	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, renderer.Fail(cfg, fmt.Errorf("写入 PDF 失败: %w", err))
	}
	if r.verify {
		if err := verifySinglePage(buf.Bytes(), lay.Bounds); err != nil {
			return nil, renderer.Fail(cfg, err)
		}
	}
	return buf.Bytes(), nil
}

// Layout 返回 cfg 的标签几何（与 Render 使用同一套字体解析），用于调试输出。
func (r *Renderer) Layout(cfg layout.LabelConfig) (*layout.LabelLayout, error) {
	lay, _, err := r.compose(cfg)
	return lay, err
}

func (r *Renderer) compose(cfg layout.LabelConfig) (*layout.LabelLayout, *fontSet, error) {
	// 配置校验先于任何字体与测量工作
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	set, err := r.loadFonts(cfg)
	if err != nil {
		return nil, nil, renderer.Fail(cfg, err)
	}
	lay, err := layout.Build(cfg, set.measurer(), layout.ComposeOptions{
		Bounds:      r.bounds,
		Calibration: set.calibration,
		DigitSizePt: r.digitSizePt,
		Fallback:    set.fallback,
	})
	if err != nil {
		var verr *layout.ValidationError
		if errors.As(err, &verr) {
			return nil, nil, err
		}
		return nil, nil, renderer.Fail(cfg, err)
	}
	return lay, set, nil
}

// drawText 在求解得到的基线位置绘制主文本。布局坐标 y 轴向下，canvas 默认 y 轴向上。
func (r *Renderer) drawText(ctx *canvas.Context, lay *layout.LabelLayout, set *fontSet) {
	face := set.face(lay.Fit.FontSizePt, colorFromLayout(lay.Color))
	line := canvas.NewTextLine(face, lay.Text, canvas.Left)
	x := lay.TextAt.X * layout.PtToMm
	y := (lay.Bounds.Height - lay.TextAt.BaselineY) * layout.PtToMm
	ctx.DrawText(x, y, line)
}

// drawDigits 逐位绘制订单号：平移到数字中心后旋转，再让字形的可见中心落在旋转枢轴上。
func (r *Renderer) drawDigits(ctx *canvas.Context, lay *layout.LabelLayout, set *fontSet) {
	if len(lay.Digits) == 0 {
		return
	}
	face := set.face(lay.DigitSizePt, colorFromLayout(lay.Color))
	for _, d := range lay.Digits {
		cx := d.CenterX * layout.PtToMm
		cy := (lay.Bounds.Height - d.CenterY) * layout.PtToMm
		ctx.Push()
		ctx.Translate(cx, cy)
		// y 轴翻转后旋转方向相反：-90（y 向下）即 canvas 中的 +90，视觉上均为逆时针
		ctx.Rotate(-d.RotationDegrees)
		line := canvas.NewTextLine(face, string(d.Character), canvas.Center)
		ctx.DrawText(0, -d.Height/2*layout.PtToMm, line)
		ctx.Pop()
	}
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
