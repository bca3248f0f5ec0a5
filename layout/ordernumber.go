package layout

import (
	"math"
	"sort"
	"strings"
)

// DigitRotation 为订单号数字的旋转角度：逆时针 90°（y 轴向下时为负角）。
const DigitRotation = -90.0

// OrderDigits 只保留订单号中的数字，前缀 "#" 等字符被静默丢弃。
func OrderDigits(orderNumber string) string {
	var b strings.Builder
	for _, r := range orderNumber {
		// 只认 ASCII 数字，全角数字等一并丢弃
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StackDigits 计算订单号在竖列中的逐位摆放，坐标相对于竖列左上角。
//
// 数字逐个旋转后自上而下排列，首位在最上方；中心距为 digitSizePt*spacingFactor，
// 整组垂直居中，使上下留白相等：topCenterY = (columnHeight - span)/2。
// 每位数字单独测量宽度与可见高度，渲染器据此把旋转后的字形重新对中到自身枢轴。
// 没有数字时返回 nil（该列可选）。
func StackDigits(orderNumber string, m Measurer, columnWidth, columnHeight, digitSizePt, spacingFactor float64) []DigitPlacement {
	digits := OrderDigits(orderNumber)
	if digits == "" || m == nil {
		return nil
	}
	spacing := digitSizePt * spacingFactor
	span := spacing * float64(len(digits)-1)
	top := (columnHeight - span) / 2

	placements := make([]DigitPlacement, 0, len(digits))
	for i, r := range digits {
		s := string(r)
		placements = append(placements, DigitPlacement{
			Character:       r,
			RotationDegrees: DigitRotation,
			CenterX:         columnWidth / 2,
			CenterY:         top + float64(i)*spacing,
			Width:           m.TextWidth(s, digitSizePt),
			Height:          m.VisibleHeight(s, digitSizePt),
		})
	}
	return placements
}

// FitDigitSize 返回能让整列旋转后的数字完全落在竖列内的字号。
//
// 数字旋转后纵向占位为字宽、横向占位为可见高度。整组垂直居中，因此首末两位的外缘都在列内
// 当且仅当 span + max(首位字宽, 末位字宽) ≤ columnHeight；横向要求每位的可见高度 ≤ columnWidth。
// 放得下时原样返回 digitSizePt，否则按溢出比例缩小，与主文本求解的收敛方式一致。
func FitDigitSize(orderNumber string, m Measurer, columnWidth, columnHeight, digitSizePt, spacingFactor float64) float64 {
	digits := OrderDigits(orderNumber)
	if digits == "" || m == nil || !positive(digitSizePt) {
		return digitSizePt
	}
	size := digitSizePt
	for pass := 0; pass < maxFitPasses; pass++ {
		along, across := digitExtent(digits, m, size, spacingFactor)
		if along <= columnHeight+fitEpsilon && across <= columnWidth+fitEpsilon {
			return size
		}
		scale := 1.0
		if along > columnHeight {
			scale = columnHeight / along
		}
		if across > columnWidth {
			scale = math.Min(scale, columnWidth/across)
		}
		size *= scale * (1 - fitEpsilon)
	}
	return size
}

// digitExtent 返回 size 字号下整列数字的纵向总占位与最大横向占位。
func digitExtent(digits string, m Measurer, size, spacingFactor float64) (along, across float64) {
	first, last := digits[:1], digits[len(digits)-1:]
	span := size * spacingFactor * float64(len(digits)-1)
	along = span + math.Max(m.TextWidth(first, size), m.TextWidth(last, size))
	for _, r := range digits {
		across = math.Max(across, m.VisibleHeight(string(r), size))
	}
	return along, across
}

// DigitString 自上而下读出竖列中的数字。
func DigitString(placements []DigitPlacement) string {
	sorted := make([]DigitPlacement, len(placements))
	copy(sorted, placements)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CenterY < sorted[j].CenterY })
	var b strings.Builder
	for _, p := range sorted {
		b.WriteRune(p.Character)
	}
	return b.String()
}

// offsetDigits 将相对竖列的坐标平移到页面坐标。
func offsetDigits(placements []DigitPlacement, dx, dy float64) {
	for i := range placements {
		placements[i].CenterX += dx
		placements[i].CenterY += dy
	}
}
