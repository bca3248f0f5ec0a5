package rasterrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/layout"
	"github.com/ByLCY/labelkit/renderer"
)

// DefaultDPI 是 PNG 预览的默认分辨率。
const DefaultDPI = 150.0

// Renderer draws labels with github.com/fogleman/gg into PNG previews.
// 布局与 PDF 渲染器共用 layout.Build，只是测量与绘制换成 freetype 光栅化。
type Renderer struct {
	resolver    *fonts.Resolver
	logger      *zap.Logger
	bounds      layout.PageBounds
	digitSizePt float64
	dpi         float64
}

var (
	_ renderer.Renderer  = (*Renderer)(nil)
	_ layout.Measurer    = (*faceMeasurer)(nil)
	_ layout.InkMeasurer = (*faceMeasurer)(nil)
)

// Options configures the raster renderer.
type Options struct {
	Resolver    *fonts.Resolver
	Logger      *zap.Logger
	Bounds      layout.PageBounds
	DigitSizePt float64
	DPI         float64
}

// NewRenderer creates a raster renderer.
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{
		resolver:    opts.Resolver,
		logger:      opts.Logger,
		bounds:      opts.Bounds,
		digitSizePt: opts.DigitSizePt,
		dpi:         opts.DPI,
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
	if r.dpi <= 0 {
		r.dpi = DefaultDPI
	}
	return r
}

func (r *Renderer) Ext() string { return "png" }

// Render 渲染单张 PNG，白底，像素尺寸按 DPI 由页面 pt 尺寸换算。
func (r *Renderer) Render(cfg layout.LabelConfig) ([]byte, error) {
	lay, font, err := r.compose(cfg)
	if err != nil {
		return nil, err
	}

	k := r.dpi / 72.0
	dc := gg.NewContext(int(lay.Bounds.Width*k+0.5), int(lay.Bounds.Height*k+0.5))
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.RGBA{R: lay.Color.R, G: lay.Color.G, B: lay.Color.B, A: 0xff})

	// gg 与布局同为 y 轴向下，旋转角度可直接使用
	dc.SetFontFace(font.face(lay.DigitSizePt, r.dpi))
	for _, d := range lay.Digits {
		dc.Push()
		dc.Translate(d.CenterX*k, d.CenterY*k)
		dc.Rotate(gg.Radians(d.RotationDegrees))
		dc.DrawStringAnchored(string(d.Character), 0, d.Height*k/2, 0.5, 0)
		dc.Pop()
	}

	dc.SetFontFace(font.face(lay.Fit.FontSizePt, r.dpi))
	dc.DrawString(lay.Text, lay.TextAt.X*k, lay.TextAt.BaselineY*k)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, renderer.Fail(cfg, fmt.Errorf("编码 PNG 失败: %w", err))
	}
	return buf.Bytes(), nil
}

// Layout 返回与 Render 相同的标签几何（pt），用于 -debug 输出。
func (r *Renderer) Layout(cfg layout.LabelConfig) (*layout.LabelLayout, error) {
	lay, _, err := r.compose(cfg)
	return lay, err
}

func (r *Renderer) compose(cfg layout.LabelConfig) (*layout.LabelLayout, *labelFont, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	font, err := r.loadFont(cfg)
	if err != nil {
		return nil, nil, renderer.Fail(cfg, err)
	}
	lay, err := layout.Build(cfg, &faceMeasurer{font: font}, layout.ComposeOptions{
		Bounds:      r.bounds,
		Calibration: font.calibration,
		DigitSizePt: r.digitSizePt,
		Fallback:    font.fallback,
	})
	if err != nil {
		var verr *layout.ValidationError
		if errors.As(err, &verr) {
			return nil, nil, err
		}
		return nil, nil, renderer.Fail(cfg, err)
	}
	return lay, font, nil
}
