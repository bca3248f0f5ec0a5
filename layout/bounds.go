package layout

import "fmt"

// Physical label geometry in millimeters.
const (
	DefaultPageWidthMM  = 270.0
	DefaultPageHeightMM = 60.0
	DefaultColumnMM     = 10.0
	DefaultTextWidthMM  = 250.0
	DefaultTextHeightMM = 54.0
)

// DefaultPageBounds 返回经过验证的 270mm×60mm 标签版式。
func DefaultPageBounds() PageBounds {
	b, _ := PageBoundsFromMM(DefaultPageWidthMM, DefaultPageHeightMM, DefaultColumnMM, DefaultTextWidthMM, DefaultTextHeightMM)
	return b
}

// PageBoundsFromMM 按毫米尺寸划分页面：左侧整高竖列，主文本区域在剩余空间内水平、垂直居中。
func PageBoundsFromMM(pageW, pageH, columnW, textW, textH float64) (PageBounds, error) {
	b := PageBounds{
		Width:  MM(pageW),
		Height: MM(pageH),
		Column: Rect{X: 0, Y: 0, W: MM(columnW), H: MM(pageH)},
	}
	padX := (pageW - columnW - textW) / 2
	padY := (pageH - textH) / 2
	b.TextArea = Rect{X: MM(columnW + padX), Y: MM(padY), W: MM(textW), H: MM(textH)}
	if err := b.Validate(); err != nil {
		return PageBounds{}, err
	}
	return b, nil
}

// Validate 检查区域为正、位于页面内且互不重叠。
func (b PageBounds) Validate() error {
	page := Rect{W: b.Width, H: b.Height}
	if !page.valid() {
		return fmt.Errorf("%w: 页面尺寸 %gx%gpt", ErrInvalidArea, b.Width, b.Height)
	}
	if !b.Column.valid() || !b.TextArea.valid() {
		return fmt.Errorf("%w: 竖列或文本区域尺寸非正", ErrInvalidArea)
	}
	const eps = 1e-9
	if !page.Contains(b.Column, eps) || !page.Contains(b.TextArea, eps) {
		return fmt.Errorf("%w: 区域超出页面", ErrInvalidArea)
	}
	if b.Column.Overlaps(b.TextArea) {
		return fmt.Errorf("%w: 竖列与文本区域重叠", ErrInvalidArea)
	}
	return nil
}
