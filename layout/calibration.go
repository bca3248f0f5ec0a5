package layout

// Calibration 是与字体相关的度量常数。不同后端对“可见字高”与“名义字号”的关系暴露不一致，
// 这些值集中在此处并由单元测试固定，求解算法本身不内嵌任何字体常数。
type Calibration struct {
	// CapHeightRatio 为大写字母高度与字号之比。
	CapHeightRatio float64 `json:"capHeightRatio"`
	// AscentFraction 为可见字形中心到基线的距离占可见高度的比例。
	AscentFraction float64 `json:"ascentFraction"`
	// SpacingFactor 为订单号相邻数字中心距与数字字号之比。
	SpacingFactor float64 `json:"spacingFactor"`
}

var (
	// PrimaryCalibration 对应首选展示字体（窄体无衬线大写字体）。
	PrimaryCalibration = Calibration{CapHeightRatio: 0.73, AscentFraction: 0.5, SpacingFactor: 0.85}
	// FallbackCalibration 对应内嵌的 Go Bold。
	FallbackCalibration = Calibration{CapHeightRatio: 0.70, AscentFraction: 0.5, SpacingFactor: 0.85}
)

// WithMeasuredCapHeight 使用从字体度量读出的字高比例替换常数；ratio 不在 (0,1] 时保持原值。
func (c Calibration) WithMeasuredCapHeight(ratio float64) Calibration {
	if ratio > 0 && ratio <= 1 {
		c.CapHeightRatio = ratio
	}
	return c
}
