package layout

import (
	"fmt"
	"strings"
)

// Build 根据标签配置计算单页标签的完整几何：先求解主文本字号与位置，再摆放订单号数字。
// 纯计算，不做 I/O；配置无效时返回 *ValidationError，且不进行任何测量。
func Build(cfg LabelConfig, m Measurer, opts ComposeOptions) (*LabelLayout, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNoMeasurer
	}
	bounds := opts.Bounds
	if bounds == (PageBounds{}) {
		bounds = DefaultPageBounds()
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	cal := opts.Calibration
	if cal == (Calibration{}) {
		cal = PrimaryCalibration
	}
	digitSize := opts.DigitSizePt
	if digitSize <= 0 {
		digitSize = DefaultDigitSizePt
	}
	// 位数较多时缩小数字，保证旋转后的字形不越出竖列
	digitSize = FitDigitSize(cfg.OrderNumber, m, bounds.Column.W, bounds.Column.H, digitSize, cal.SpacingFactor)

	text := strings.ToUpper(strings.TrimSpace(cfg.Text))
	area := bounds.TextArea
	fit, err := SolveFit(text, m, area.W, area.H, cal.CapHeightRatio)
	if err != nil {
		return nil, fmt.Errorf("主文本求解失败: %w", err)
	}

	digits := StackDigits(cfg.OrderNumber, m, bounds.Column.W, bounds.Column.H, digitSize, cal.SpacingFactor)
	offsetDigits(digits, bounds.Column.X, bounds.Column.Y)

	return &LabelLayout{
		Bounds:      bounds,
		Text:        text,
		Fit:         fit,
		TextAt:      CenterText(fit, area, cal.AscentFraction),
		Digits:      digits,
		DigitSizePt: digitSize,
		Color:       cfg.Color,
		Fallback:    opts.Fallback,
	}, nil
}
