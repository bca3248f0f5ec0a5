package rasterrenderer

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"go.uber.org/zap"
	xfont "golang.org/x/image/font"

	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/layout"
)

type labelFont struct {
	font        *truetype.Font
	ink         *fonts.Ink
	calibration layout.Calibration
	fallback    bool
}

func (r *Renderer) loadFont(cfg layout.LabelConfig) (*labelFont, error) {
	family := cfg.FontFamily
	if family == "" {
		family = fonts.DefaultFamily
	}
	data, path, err := r.resolver.Load(family)
	if err == nil {
		f, parseErr := parseFont(data, layout.PrimaryCalibration)
		if parseErr == nil {
			return f, nil
		}
		err = parseErr
	}
	r.logger.Warn("主字体不可用，改用后备字体",
		zap.String("correlation_id", cfg.CorrelationID),
		zap.String("family", family),
		zap.String("path", path),
		zap.Error(err),
	)
	f, err := parseFont(fonts.Fallback(), layout.FallbackCalibration)
	if err != nil {
		return nil, fmt.Errorf("加载后备字体失败: %w", err)
	}
	f.fallback = true
	return f, nil
}

func parseFont(data []byte, cal layout.Calibration) (*labelFont, error) {
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体失败: %w", err)
	}
	if ratio, err := fonts.CapHeightRatio(data); err == nil {
		cal = cal.WithMeasuredCapHeight(ratio)
	}
	ink, err := fonts.NewInk(data)
	if err != nil {
		return nil, err
	}
	return &labelFont{font: f, ink: ink, calibration: cal}, nil
}

// face 每次新建，truetype.Face 内部有缓存，不能在 goroutine 之间共享。
func (f *labelFont) face(sizePt, dpi float64) xfont.Face {
	return truetype.NewFace(f.font, &truetype.Options{Size: sizePt, DPI: dpi, Hinting: xfont.HintingNone})
}

// faceMeasurer 在 72 DPI 下测量，此时 1px 即 1pt。
type faceMeasurer struct {
	font *labelFont
}

func (m *faceMeasurer) TextWidth(text string, sizePt float64) float64 {
	adv := xfont.MeasureString(m.font.face(sizePt, 72), text)
	return float64(adv) / 64
}

// VisibleHeight 取字符串实际墨迹高度，不低于大写字母高度。
func (m *faceMeasurer) VisibleHeight(text string, sizePt float64) float64 {
	if text == "" {
		return 0
	}
	above, below := m.font.ink.Extent(text, sizePt)
	return max(above, m.font.calibration.CapHeightRatio*sizePt) + below
}

func (m *faceMeasurer) Descent(text string, sizePt float64) float64 {
	_, below := m.font.ink.Extent(text, sizePt)
	return below
}
