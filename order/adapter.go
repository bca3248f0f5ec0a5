package order

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ByLCY/labelkit/dsl"
	"github.com/ByLCY/labelkit/layout"
)

// Keys 列出各标签字段对应的行项目属性名别名。
type Keys struct {
	Text  []string
	Font  []string
	Color []string
	Size  []string
	Style []string
}

// DefaultKeys returns the property names used by the storefront's product form.
func DefaultKeys() Keys {
	return Keys{
		Text:  []string{"text", "label text", "name on label"},
		Font:  []string{"font"},
		Color: []string{"color", "colour"},
		Size:  []string{"font size", "size"},
		Style: []string{"style"},
	}
}

// ItemError 表示某一行项目无法转换为标签；其余行项目照常处理。
type ItemError struct {
	CorrelationID string
	Err           error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("订单行 [%s] 无法生成标签: %v", e.CorrelationID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Adapter converts orders into label configurations.
type Adapter struct {
	keys        Keys
	defaultFont string
	newID       func() string
	logger      *zap.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithDefaultFont 设置行项目未指定字体时使用的字体族。
func WithDefaultFont(family string) Option {
	return func(a *Adapter) { a.defaultFont = family }
}

// WithIDGenerator 替换缺省的 uuid 关联 ID 生成器（测试用）。
func WithIDGenerator(fn func() string) Option {
	return func(a *Adapter) { a.newID = fn }
}

// NewAdapter creates an adapter; empty alias lists fall back to DefaultKeys.
func NewAdapter(keys Keys, opts ...Option) *Adapter {
	def := DefaultKeys()
	if len(keys.Text) == 0 {
		keys.Text = def.Text
	}
	if len(keys.Font) == 0 {
		keys.Font = def.Font
	}
	if len(keys.Color) == 0 {
		keys.Color = def.Color
	}
	if len(keys.Size) == 0 {
		keys.Size = def.Size
	}
	if len(keys.Style) == 0 {
		keys.Style = def.Style
	}
	a := &Adapter{
		keys:   keys,
		newID:  func() string { return uuid.NewString() },
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Labels 把订单中带标签文本的行项目转换为 LabelConfig。
// 没有文本属性的行项目不是标签商品，直接跳过；样式或校验失败的行项目以 *ItemError 返回。
func (a *Adapter) Labels(o *Order) ([]layout.LabelConfig, []error) {
	var (
		configs []layout.LabelConfig
		errs    []error
	)
	number := o.Number()
	for i := range o.LineItems {
		li := &o.LineItems[i]
		text, ok := li.lookup(a.keys.Text)
		if !ok {
			a.logger.Debug("跳过非标签商品", zap.String("order", o.Name), zap.String("item", li.ID.String()))
			continue
		}
		cfg := layout.LabelConfig{
			Text:          text,
			Quantity:      li.Quantity,
			CorrelationID: a.correlationID(o, li),
			OrderNumber:   number,
			FontFamily:    a.defaultFont,
			Color:         layout.Black,
		}
		if err := a.applyStyle(&cfg, li); err != nil {
			errs = append(errs, &ItemError{CorrelationID: cfg.CorrelationID, Err: err})
			continue
		}
		if err := cfg.Validate(); err != nil {
			errs = append(errs, &ItemError{CorrelationID: cfg.CorrelationID, Err: err})
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, errs
}

// applyStyle 先应用 style 属性中的声明，再用单独的 font/color/size 属性覆盖。
func (a *Adapter) applyStyle(cfg *layout.LabelConfig, li *LineItem) error {
	if raw, ok := li.lookup(a.keys.Style); ok && raw != "" {
		st, err := dsl.ParseStyle(raw)
		if err != nil {
			return err
		}
		if st.Font != "" {
			cfg.FontFamily = st.Font
		}
		if st.Color != nil {
			cfg.Color = *st.Color
		}
		if st.SizePt > 0 {
			cfg.FontSizeHint = st.SizePt
		}
	}
	if font, ok := li.lookup(a.keys.Font); ok && font != "" {
		cfg.FontFamily = font
	}
	if raw, ok := li.lookup(a.keys.Color); ok {
		c, err := dsl.ParseColor(raw)
		if err != nil {
			return err
		}
		cfg.Color = c
	}
	if raw, ok := li.lookup(a.keys.Size); ok && raw != "" {
		size, err := dsl.ParseSizePt(raw)
		if err != nil {
			return fmt.Errorf("字号 %q 无效: %w", raw, err)
		}
		cfg.FontSizeHint = size
	}
	return nil
}

func (a *Adapter) correlationID(o *Order, li *LineItem) string {
	oid, lid := o.ID.String(), li.ID.String()
	if oid == "" || lid == "" {
		return a.newID()
	}
	return oid + "-" + lid
}
