package fonts

import (
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// Ink 测量字符串实际绘制出的字形轮廓范围。与前进宽度不同，括号、逗号、Q 的尾巴等
// 会超出大写字母高度或落到基线以下，这些都计入墨迹。
type Ink struct {
	font *opentype.Font
}

// NewInk parses data (TTF/OTF) for ink measurement.
func NewInk(data []byte) (*Ink, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体失败: %w", err)
	}
	return &Ink{font: f}, nil
}

// Extent 返回 text 在 sizePt 字号下的墨迹高度（pt）：above 为基线以上部分，below 为基线以下部分。
// 以 72 DPI 建面，1px 即 1pt；空白文本返回 0, 0。
func (k *Ink) Extent(text string, sizePt float64) (above, below float64) {
	if text == "" || sizePt <= 0 {
		return 0, 0
	}
	// opentype.Face 带内部缓冲区，每次测量单独创建
	face, err := opentype.NewFace(k.font, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return 0, 0
	}
	defer face.Close()

	bounds, _ := font.BoundString(face, text)
	if bounds.Empty() {
		return 0, 0
	}
	// y 轴向下：Min.Y 为负表示基线以上
	above = max(-float64(bounds.Min.Y)/64, 0)
	below = max(float64(bounds.Max.Y)/64, 0)
	return above, below
}
