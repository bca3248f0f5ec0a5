package layout

import (
	"fmt"
	"math"
	"strings"
)

// Font size guard rails (pt).
const (
	MinFontSizePt = 20.0
	MaxFontSizePt = 800.0
)

const (
	fitEpsilon   = 1e-6
	maxFitPasses = 8
)

// SolveFit 计算使文本尽量填满区域、且宽度与可见高度均不越界的字号。
//
// 先以高度为目标取 candidate = height/capHeightRatio；若该字号下宽度溢出，则按 width/measured
// 等比缩小。随后限制在 [MinFontSizePt, MaxFontSizePt]，并以实测结果复核：任一维度仍越界
// （后端非线性、下限钳制或比例常数偏小）时按溢出比例继续缩小，直至两个约束同时成立。
// 返回值中的宽高是最终字号下的实测值，居中计算只能以此为准。
func SolveFit(text string, m Measurer, width, height, capHeightRatio float64) (GlyphFitResult, error) {
	if strings.TrimSpace(text) == "" {
		return GlyphFitResult{}, ErrEmptyText
	}
	if m == nil {
		return GlyphFitResult{}, ErrNoMeasurer
	}
	if !positive(width) || !positive(height) {
		return GlyphFitResult{}, fmt.Errorf("%w: %gx%gpt", ErrInvalidArea, width, height)
	}
	if !(capHeightRatio > 0 && capHeightRatio <= 1) {
		return GlyphFitResult{}, fmt.Errorf("%w: %g", ErrInvalidRatio, capHeightRatio)
	}

	size := height / capHeightRatio
	w := m.TextWidth(text, size)
	if !positive(w) {
		return GlyphFitResult{}, fmt.Errorf("%w: 字号 %gpt 下宽度为 %g", ErrDegenerateMeasure, size, w)
	}
	if w > width {
		size *= width / w
	}
	size = math.Min(math.Max(size, MinFontSizePt), MaxFontSizePt)

	for pass := 0; pass < maxFitPasses; pass++ {
		w = m.TextWidth(text, size)
		h := m.VisibleHeight(text, size)
		if !positive(w) || math.IsNaN(h) || h < 0 {
			return GlyphFitResult{}, fmt.Errorf("%w: 字号 %gpt 下测得 %gx%g", ErrDegenerateMeasure, size, w, h)
		}
		if w <= width+fitEpsilon && h <= height+fitEpsilon {
			return GlyphFitResult{
				FontSizePt:              size,
				MeasuredWidthPt:         w,
				MeasuredVisibleHeightPt: h,
				MeasuredDescentPt:       descent(m, text, size, h),
			}, nil
		}
		scale := 1.0
		if w > width {
			scale = width / w
		}
		if h > height {
			scale = math.Min(scale, height/h)
		}
		// 略收一点，避免非线性后端在边界上来回振荡
		size *= scale * (1 - fitEpsilon)
	}
	return GlyphFitResult{}, fmt.Errorf("%w: %d 轮后仍无法放入 %gx%gpt", ErrDegenerateMeasure, maxFitPasses, width, height)
}

// CenterText 将已求解的文字在区域内水平居中，并把可见字形的垂直中心对齐到区域中心。
// 渲染接口按基线定位，故 baselineY = 中心Y + 可见高度*ascentFraction - 基线以下部分（y 轴向下）。
func CenterText(fit GlyphFitResult, area Rect, ascentFraction float64) Placement {
	return Placement{
		X:         area.X + (area.W-fit.MeasuredWidthPt)/2,
		BaselineY: area.CenterY() + fit.MeasuredVisibleHeightPt*ascentFraction - fit.MeasuredDescentPt,
	}
}

func descent(m Measurer, text string, size, visible float64) float64 {
	im, ok := m.(InkMeasurer)
	if !ok {
		return 0
	}
	d := im.Descent(text, size)
	if !positive(d) {
		return 0
	}
	return math.Min(d, visible)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
