package layout

import (
	"math"
	"testing"
)

func TestOrderDigitsStripsNonDigits(t *testing.T) {
	cases := map[string]string{
		"#1001":      "1001",
		"SO-12 34/5": "12345",
		"#":          "",
		"":           "",
		"１２3":        "3",
	}
	for in, want := range cases {
		if got := OrderDigits(in); got != want {
			t.Fatalf("OrderDigits(%q) = %q，期望 %q", in, got, want)
		}
	}
}

// 自上而下读出竖列应还原原始顺序。
func TestStackDigitsReadsTopToBottom(t *testing.T) {
	m := newStubMeasurer(0.7)
	placements := StackDigits("12345", m, MM(10), MM(60), 22, 0.85)
	if len(placements) != 5 {
		t.Fatalf("期望 5 个数字，实际 %d", len(placements))
	}
	if got := DigitString(placements); got != "12345" {
		t.Fatalf("读出 %q，期望 12345", got)
	}
	if placements[0].Character != '1' || placements[0].CenterY >= placements[4].CenterY {
		t.Fatalf("首位数字应位于最上方: %+v", placements)
	}
	for _, p := range placements {
		if p.RotationDegrees != -90 {
			t.Fatalf("旋转角应为 -90，实际 %g", p.RotationDegrees)
		}
		if p.Width <= 0 || p.Height <= 0 {
			t.Fatalf("数字应带有实测宽高: %+v", p)
		}
	}
}

// 1 到 12 位数字时上下留白相等，且中心距均匀。
func TestStackDigitsEqualMargins(t *testing.T) {
	m := newStubMeasurer(0.7)
	colW, colH := MM(10), MM(60)
	const size, factor = 14.0, 0.85
	digits := "123456789012"
	for n := 1; n <= len(digits); n++ {
		placements := StackDigits(digits[:n], m, colW, colH, size, factor)
		if len(placements) != n {
			t.Fatalf("n=%d: 得到 %d 个数字", n, len(placements))
		}
		top := placements[0].CenterY
		bottom := colH - placements[n-1].CenterY
		if math.Abs(top-bottom) > 1e-9 {
			t.Fatalf("n=%d: 上下留白不等 top=%g bottom=%g", n, top, bottom)
		}
		for i := 1; i < n; i++ {
			gap := placements[i].CenterY - placements[i-1].CenterY
			if math.Abs(gap-size*factor) > 1e-9 {
				t.Fatalf("n=%d: 第 %d 位中心距 %g，期望 %g", n, i, gap, size*factor)
			}
		}
		for _, p := range placements {
			if math.Abs(p.CenterX-colW/2) > 1e-9 {
				t.Fatalf("数字应水平居中: %g", p.CenterX)
			}
		}
	}
}

func TestStackDigitsSingleDigitCentered(t *testing.T) {
	colW, colH := MM(10), MM(60)
	placements := StackDigits("7", newStubMeasurer(0.7), colW, colH, 22, 0.85)
	if len(placements) != 1 {
		t.Fatalf("期望 1 个数字，实际 %d", len(placements))
	}
	p := placements[0]
	if math.Abs(p.CenterX-colW/2) > 1e-9 || math.Abs(p.CenterY-colH/2) > 1e-9 {
		t.Fatalf("单个数字应位于竖列中点: %+v", p)
	}
}

func TestStackDigitsEmpty(t *testing.T) {
	if got := StackDigits("#ABC", newStubMeasurer(0.7), MM(10), MM(60), 22, 0.85); got != nil {
		t.Fatalf("无数字时应返回 nil，实际 %+v", got)
	}
}

// 十位订单号在默认字号下越出 60mm 竖列，FitDigitSize 应缩小字号直到旋转后的字形全部落在列内。
func TestFitDigitSizeKeepsInkInsideColumn(t *testing.T) {
	m := newStubMeasurer(0.7)
	colW, colH := MM(10), MM(60)
	const factor = 0.85
	for n := 1; n <= 10; n++ {
		number := "1234567890"[:n]
		size := FitDigitSize(number, m, colW, colH, DefaultDigitSizePt, factor)
		if size > DefaultDigitSizePt {
			t.Fatalf("n=%d: 字号不应放大: %g", n, size)
		}
		col := Rect{W: colW, H: colH}
		for _, p := range StackDigits(number, m, colW, colH, size, factor) {
			if !col.Contains(p.Extent(), 1e-6) {
				t.Fatalf("n=%d: 数字 %q 墨迹 %+v 越出竖列", n, p.Character, p.Extent())
			}
		}
	}
	if got := FitDigitSize("12345", m, colW, colH, DefaultDigitSizePt, factor); got != DefaultDigitSizePt {
		t.Fatalf("放得下时应保持原字号，实际 %g", got)
	}
	if got := FitDigitSize("1234567890", m, colW, colH, DefaultDigitSizePt, factor); got >= DefaultDigitSizePt {
		t.Fatalf("十位数字应缩小字号，实际 %g", got)
	}
	if got := FitDigitSize("#", m, colW, colH, 22, factor); got != 22 {
		t.Fatalf("无数字时原样返回，实际 %g", got)
	}
}

func TestBuildShrinksLongOrderNumber(t *testing.T) {
	res, err := Build(LabelConfig{Text: "A", Quantity: 1, CorrelationID: "c", OrderNumber: "#1234567890"}, newStubMeasurer(0.7), ComposeOptions{})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if res.DigitSizePt >= DefaultDigitSizePt {
		t.Fatalf("DigitSizePt 应小于默认值，实际 %g", res.DigitSizePt)
	}
	for _, d := range res.Digits {
		if !res.Bounds.Column.Contains(d.Extent(), 1e-6) {
			t.Fatalf("数字 %q 越出竖列: %+v", d.Character, d.Extent())
		}
	}
}
