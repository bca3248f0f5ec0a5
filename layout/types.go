package layout

import "math"

// 该文件定义标签配置、页面几何与布局结果，供求解、渲染与调试 JSON 共用。
// 所有几何量以 pt 为单位，坐标原点位于页面左上角，y 轴向下。

// LabelConfig 描述一张标签的内容与样式，由订单适配器生成，渲染时只读。
type LabelConfig struct {
	Text          string  `json:"text" validate:"notblank"`
	FontSizeHint  float64 `json:"fontSizeHint,omitempty" validate:"gte=0"` // 仅作参考，求解器不使用
	FontFamily    string  `json:"fontFamily,omitempty"`
	Color         Color   `json:"color"`
	Quantity      int     `json:"quantity" validate:"gte=1"`
	CorrelationID string  `json:"correlationId" validate:"required"`
	OrderNumber   string  `json:"orderNumber,omitempty"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Black is the default label ink.
var Black = Color{}

// Rect 是页面坐标中的矩形区域。
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Right() float64   { return r.X + r.W }
func (r Rect) Bottom() float64  { return r.Y + r.H }
func (r Rect) CenterX() float64 { return r.X + r.W/2 }
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Contains reports whether o lies entirely inside r (with tolerance eps).
func (r Rect) Contains(o Rect, eps float64) bool {
	return o.X >= r.X-eps && o.Y >= r.Y-eps && o.Right() <= r.Right()+eps && o.Bottom() <= r.Bottom()+eps
}

// Overlaps reports whether r and o share any area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

func (r Rect) valid() bool {
	for _, v := range []float64{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.W > 0 && r.H > 0
}

// PageBounds 描述固定尺寸的标签页：左侧订单号竖列与居中的主文本区域。
type PageBounds struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Column   Rect    `json:"column"`
	TextArea Rect    `json:"textArea"`
}

// GlyphFitResult 是求解得到的字号及该字号下实测的文字占位。
type GlyphFitResult struct {
	FontSizePt              float64 `json:"fontSizePt"`
	MeasuredWidthPt         float64 `json:"measuredWidthPt"`
	MeasuredVisibleHeightPt float64 `json:"measuredVisibleHeightPt"`
	MeasuredDescentPt       float64 `json:"measuredDescentPt,omitempty"` // 可见高度中位于基线以下的部分
}

// Placement 是主文本的绘制锚点：X 为文字左端，BaselineY 为基线。
type Placement struct {
	X         float64 `json:"x"`
	BaselineY float64 `json:"baselineY"`
}

// DigitPlacement 描述订单号竖列中单个数字的位置，坐标为页面坐标（数字中心）。
// RotationDegrees 为 -90，即逆时针旋转 90°（y 轴向下的约定）。
type DigitPlacement struct {
	Character       rune    `json:"character"`
	RotationDegrees float64 `json:"rotationDegrees"`
	CenterX         float64 `json:"centerX"`
	CenterY         float64 `json:"centerY"`
	Width           float64 `json:"width"`  // 未旋转时的字宽
	Height          float64 `json:"height"` // 未旋转时的可见高度
}

// Extent 返回旋转后字形占据的页面矩形：纵向为字宽，横向为可见高度。
func (d DigitPlacement) Extent() Rect {
	return Rect{X: d.CenterX - d.Height/2, Y: d.CenterY - d.Width/2, W: d.Height, H: d.Width}
}

// LabelLayout 保存单页标签的完整几何，渲染器只负责按此绘制。
type LabelLayout struct {
	Bounds      PageBounds       `json:"bounds"`
	Text        string           `json:"text"`
	Fit         GlyphFitResult   `json:"fit"`
	TextAt      Placement        `json:"textAt"`
	Digits      []DigitPlacement `json:"digits,omitempty"`
	DigitSizePt float64          `json:"digitSizePt"`
	Color       Color            `json:"color"`
	Fallback    bool             `json:"fallback"`
}

// TextBox 返回主文本实际墨迹占据的页面矩形。
func (l *LabelLayout) TextBox() Rect {
	h := l.Fit.MeasuredVisibleHeightPt
	return Rect{
		X: l.TextAt.X,
		Y: l.TextAt.BaselineY + l.Fit.MeasuredDescentPt - h,
		W: l.Fit.MeasuredWidthPt,
		H: h,
	}
}
