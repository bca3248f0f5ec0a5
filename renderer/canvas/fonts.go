package canvasrenderer

import (
	"fmt"
	"image/color"

	"github.com/tdewolff/canvas"
	"go.uber.org/zap"

	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/layout"
)

// fontSet 是单次渲染使用的字体。主字体加载失败时，竖列与主文本统一使用后备字体。
type fontSet struct {
	family      *canvas.FontFamily
	ink         *fonts.Ink // 无法解析轮廓时为 nil，可见高度退回字高
	calibration layout.Calibration
	fallback    bool
	path        string
}

// loadFonts 为每次渲染创建独立的 FontFamily，不在并发渲染之间共享后端对象。
func (r *Renderer) loadFonts(cfg layout.LabelConfig) (*fontSet, error) {
	family := cfg.FontFamily
	if family == "" {
		family = fonts.DefaultFamily
	}
	data, path, err := r.resolver.Load(family)
	if err == nil {
		set, loadErr := newFontSet(family, data, layout.PrimaryCalibration)
		if loadErr == nil {
			set.path = path
			return set, nil
		}
		err = loadErr
	}
	r.logger.Warn("主字体不可用，改用后备字体",
		zap.String("correlation_id", cfg.CorrelationID),
		zap.String("family", family),
		zap.String("path", path),
		zap.String("fallback", fonts.FallbackName),
		zap.Error(err),
	)
	set, fbErr := newFontSet("labelkit-fallback", fonts.Fallback(), layout.FallbackCalibration)
	if fbErr != nil {
		return nil, fmt.Errorf("加载后备字体失败: %w", fbErr)
	}
	set.fallback = true
	return set, nil
}

func newFontSet(name string, data []byte, cal layout.Calibration) (*fontSet, error) {
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	// 优先使用字体自身声明的字高比例
	if ratio, err := fonts.CapHeightRatio(data); err == nil {
		cal = cal.WithMeasuredCapHeight(ratio)
	}
	ink, _ := fonts.NewInk(data)
	return &fontSet{family: family, ink: ink, calibration: cal}, nil
}

func (s *fontSet) face(sizePt float64, col color.Color) *canvas.FontFace {
	return s.family.Face(sizePt, col, canvas.FontRegular, canvas.FontNormal)
}

func (s *fontSet) measurer() *faceMeasurer { return &faceMeasurer{set: s} }

// faceMeasurer 实现 layout.Measurer。canvas 的字体度量以 mm 返回，这里统一换算为 pt。
type faceMeasurer struct {
	set *fontSet
}

func (m *faceMeasurer) TextWidth(text string, sizePt float64) float64 {
	return m.set.face(sizePt, canvas.Black).TextWidth(text) * layout.MmToPt
}

// VisibleHeight 为字符串实际墨迹的高度，以大写字母高度为下限（主文本已转为大写）。
func (m *faceMeasurer) VisibleHeight(text string, sizePt float64) float64 {
	if text == "" {
		return 0
	}
	above, below := m.ink(text, sizePt)
	return max(above, m.capHeight(sizePt)) + below
}

// Descent implements layout.InkMeasurer.
func (m *faceMeasurer) Descent(text string, sizePt float64) float64 {
	_, below := m.ink(text, sizePt)
	return below
}

func (m *faceMeasurer) ink(text string, sizePt float64) (above, below float64) {
	if m.set.ink == nil {
		return 0, 0
	}
	return m.set.ink.Extent(text, sizePt)
}

func (m *faceMeasurer) capHeight(sizePt float64) float64 {
	capHeight := m.set.face(sizePt, canvas.Black).Metrics().CapHeight * layout.MmToPt
	if capHeight > 0 {
		return capHeight
	}
	return m.set.calibration.CapHeightRatio * sizePt
}
