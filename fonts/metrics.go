package fonts

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// CapHeightRatio 读取字体 OS/2 表中的大写字母高度，返回 capHeight/unitsPerEm。
// 以 ppem = unitsPerEm 取度量，数值即字体设计单位，不受 hinting 影响。
// 字体未声明字高时返回 0，调用方应改用校准常数。
func CapHeightRatio(data []byte) (float64, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return 0, fmt.Errorf("解析字体失败: %w", err)
	}
	upem := f.UnitsPerEm()
	if upem == 0 {
		return 0, fmt.Errorf("字体 unitsPerEm 为 0")
	}
	ppem := fixed.I(int(upem))
	var buf sfnt.Buffer
	m, err := f.Metrics(&buf, ppem, font.HintingNone)
	if err != nil {
		return 0, fmt.Errorf("读取字体度量失败: %w", err)
	}
	if m.CapHeight <= 0 {
		return 0, nil
	}
	return float64(m.CapHeight) / float64(ppem), nil
}
