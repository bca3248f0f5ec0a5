package layout

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// stubMeasurer 是一个线性的最小测量实现，仅用于测试，避免引入 renderer 造成循环依赖。
// 宽度 = Σ(字符进宽)*字号，可见高度 = capRatio*字号。
type stubMeasurer struct {
	advance  map[rune]float64
	def      float64
	capRatio float64
}

func newStubMeasurer(capRatio float64) *stubMeasurer {
	return &stubMeasurer{advance: map[rune]float64{'W': 1.0, 'I': 0.3, ' ': 0.25}, def: 0.6, capRatio: capRatio}
}

func (s *stubMeasurer) TextWidth(text string, sizePt float64) float64 {
	total := 0.0
	for _, r := range text {
		if adv, ok := s.advance[r]; ok {
			total += adv
		} else {
			total += s.def
		}
	}
	return total * sizePt
}

func (s *stubMeasurer) VisibleHeight(text string, sizePt float64) float64 {
	if text == "" {
		return 0
	}
	return s.capRatio * sizePt
}

func TestDefaultPageBounds(t *testing.T) {
	b := DefaultPageBounds()
	const eps = 1e-9
	want := Rect{X: MM(15), Y: MM(3), W: MM(250), H: MM(54)}
	if math.Abs(b.TextArea.X-want.X) > eps || math.Abs(b.TextArea.Y-want.Y) > eps ||
		math.Abs(b.TextArea.W-want.W) > eps || math.Abs(b.TextArea.H-want.H) > eps {
		t.Fatalf("文本区域不符: got=%+v want=%+v", b.TextArea, want)
	}
	if math.Abs(b.Column.W-MM(10)) > eps || math.Abs(b.Column.H-MM(60)) > eps {
		t.Fatalf("竖列不符: %+v", b.Column)
	}
	if math.Abs(b.Width-MM(270)) > eps || math.Abs(b.Height-MM(60)) > eps {
		t.Fatalf("页面尺寸不符: %gx%g", b.Width, b.Height)
	}
	// 左右、上下留白对称
	left := b.TextArea.X - b.Column.Right()
	right := b.Width - b.TextArea.Right()
	if math.Abs(left-right) > eps {
		t.Fatalf("水平留白不对称: left=%g right=%g", left, right)
	}
	if math.Abs(b.TextArea.Y-(b.Height-b.TextArea.Bottom())) > eps {
		t.Fatalf("垂直留白不对称")
	}
}

func TestPageBoundsRejectsOverlap(t *testing.T) {
	if _, err := PageBoundsFromMM(270, 60, 30, 250, 54); !errors.Is(err, ErrInvalidArea) {
		t.Fatalf("竖列与文本区域重叠时应返回 ErrInvalidArea，实际 %v", err)
	}
	if _, err := PageBoundsFromMM(270, 60, 10, 250, 0); !errors.Is(err, ErrInvalidArea) {
		t.Fatalf("零高度文本区域应返回 ErrInvalidArea，实际 %v", err)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	m := newStubMeasurer(0.73)
	cases := []LabelConfig{
		{Text: "   ", Quantity: 1, CorrelationID: "a"},
		{Text: "OK", Quantity: 0, CorrelationID: "b"},
		{Text: "OK", Quantity: 1},
	}
	for _, cfg := range cases {
		_, err := Build(cfg, m, ComposeOptions{})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("配置 %+v 应返回 ValidationError，实际 %v", cfg, err)
		}
		if verr.CorrelationID != cfg.CorrelationID {
			t.Fatalf("ValidationError 关联 ID 不符: %q", verr.CorrelationID)
		}
	}
}

func TestBuildComposesLabel(t *testing.T) {
	m := newStubMeasurer(PrimaryCalibration.CapHeightRatio)
	cfg := LabelConfig{Text: " sample ", Quantity: 2, CorrelationID: "1001-1", OrderNumber: "#1001"}
	res, err := Build(cfg, m, ComposeOptions{})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if res.Text != "SAMPLE" {
		t.Fatalf("文本应去除首尾空白并转大写，实际 %q", res.Text)
	}
	area := res.Bounds.TextArea
	const eps = 1e-6
	if res.TextAt.X < area.X-eps || res.TextAt.X+res.Fit.MeasuredWidthPt > area.Right()+eps {
		t.Fatalf("文字水平越界: x=%g w=%g area=%+v", res.TextAt.X, res.Fit.MeasuredWidthPt, area)
	}
	top := res.TextAt.BaselineY - res.Fit.MeasuredVisibleHeightPt
	if top < area.Y-eps || res.TextAt.BaselineY > area.Bottom()+eps {
		t.Fatalf("文字垂直越界: top=%g baseline=%g area=%+v", top, res.TextAt.BaselineY, area)
	}
	if got := DigitString(res.Digits); got != "1001" {
		t.Fatalf("订单号竖列读出 %q，期望 1001", got)
	}
	for _, d := range res.Digits {
		if !res.Bounds.Column.Contains(Rect{X: d.CenterX, Y: d.CenterY}, eps) {
			t.Fatalf("数字中心不在竖列内: %+v", d)
		}
	}
}

// 相同输入两次构建应得到完全相同的几何。
func TestBuildIsIdempotent(t *testing.T) {
	m := newStubMeasurer(0.7)
	cfg := LabelConfig{Text: "Happy Birthday", Quantity: 1, CorrelationID: "x", OrderNumber: "20931"}
	a, err := Build(cfg, m, ComposeOptions{Calibration: FallbackCalibration})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	b, err := Build(cfg, m, ComposeOptions{Calibration: FallbackCalibration})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("两次构建结果不同:\n%+v\n%+v", a, b)
	}
}

func TestBuildWithoutOrderNumber(t *testing.T) {
	res, err := Build(LabelConfig{Text: "A", Quantity: 1, CorrelationID: "c"}, newStubMeasurer(0.73), ComposeOptions{DigitSizePt: 18})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(res.Digits) != 0 {
		t.Fatalf("无订单号时不应绘制数字，实际 %d 个", len(res.Digits))
	}
	if res.DigitSizePt != 18 {
		t.Fatalf("DigitSizePt 应为 18，实际 %g", res.DigitSizePt)
	}
}

func TestBuildWithoutMeasurer(t *testing.T) {
	_, err := Build(LabelConfig{Text: "A", Quantity: 1, CorrelationID: "c"}, nil, ComposeOptions{})
	if !errors.Is(err, ErrNoMeasurer) {
		t.Fatalf("缺少 Measurer 应返回 ErrNoMeasurer，实际 %v", err)
	}
}
