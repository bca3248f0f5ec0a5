package layout

// Measurer 由渲染后端提供：在给定字号（pt）下测量字符串的宽度与可见字形高度（pt）。
// 实现必须只依赖自身持有的字体，不共享可变状态。
type Measurer interface {
	TextWidth(text string, sizePt float64) float64
	VisibleHeight(text string, sizePt float64) float64
}

// InkMeasurer 是可选扩展：报告可见高度中位于基线以下的部分（pt），例如括号、逗号、Q 的尾巴。
// 未实现时视为 0，即字形全部位于基线之上。
type InkMeasurer interface {
	Descent(text string, sizePt float64) float64
}

// ComposeOptions 配置单页标签的排版参数。
type ComposeOptions struct {
	Bounds      PageBounds
	Calibration Calibration
	DigitSizePt float64 // 订单号数字字号，<=0 时使用 DefaultDigitSizePt
	Fallback    bool    // 记录本次是否使用了后备字体
}

// DefaultDigitSizePt 是订单号竖列的默认数字字号。
const DefaultDigitSizePt = 22.0
