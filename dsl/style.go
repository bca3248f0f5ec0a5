package dsl

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"

	"github.com/ByLCY/labelkit/layout"
)

// 订单行项目的样式属性使用一个简短的声明式语法，例如：
//
//	font: Bebas Neue; color: rgb(200, 30, 30); size: 48pt
//
// 颜色值也可单独出现在 Color 属性中：#c00、#cc0000、rgb(204,0,0)、darkred。
var (
	styleLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+|\.\d+)(?:pt|mm|cm|in|%)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[(),;:=]`},
	})

	styleParser = participle.MustBuild[StyleSheet](
		participle.Lexer(styleLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
		participle.CaseInsensitive("Ident"),
	)

	colorParser = participle.MustBuild[ColorExpr](
		participle.Lexer(styleLexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Ident"),
	)
)

// StyleSheet is the root AST node of a style declaration list.
type StyleSheet struct {
	Decls []*Decl `parser:"( @@ ( ';' @@? )* )?"`
}

// Decl is a single `key: value` pair; `=` is accepted as separator too.
type Decl struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident ( ':' | '=' )"`
	Value *Value         `parser:"@@"`
}

// Value represents a declaration value.
type Value struct {
	Color  *ColorExpr `parser:"  @@"`
	Number *string    `parser:"| @Number"`
	String *string    `parser:"| @String"`
	Words  []string   `parser:"| @Ident+"`
}

// ColorExpr is either a hex literal or an rgb() call. Named colours are parsed as Words.
type ColorExpr struct {
	Hex *string   `parser:"  @Color"`
	RGB *RGBValue `parser:"| @@"`
}

// RGBValue captures `rgb(r, g, b)`; components may be 0-255 or percentages.
type RGBValue struct {
	R string `parser:"'rgb' '(' @Number"`
	G string `parser:"',' @Number"`
	B string `parser:"',' @Number ')'"`
}

// Text returns the raw textual form of a non-colour value.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.Number != nil:
		return *v.Number
	case v.String != nil:
		return *v.String
	default:
		return strings.Join(v.Words, " ")
	}
}

// Style 是解析后的样式声明。未出现的字段保持零值。
type Style struct {
	Font   string
	Color  *layout.Color
	SizePt float64
	Extra  map[string]string
}

// ParseStyle 解析样式声明列表。
func ParseStyle(input string) (*Style, error) {
	ast, err := styleParser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("解析样式失败: %w", err)
	}
	out := &Style{Extra: map[string]string{}}
	for _, d := range ast.Decls {
		key := strings.ToLower(d.Key)
		switch key {
		case "font", "font-family", "family":
			out.Font = d.Value.Text()
		case "color", "colour":
			c, err := d.Value.color()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", d.Pos, err)
			}
			out.Color = &c
		case "size", "font-size":
			size, err := ParseSizePt(d.Value.Text())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", d.Pos, err)
			}
			out.SizePt = size
		default:
			out.Extra[key] = d.Value.Text()
		}
	}
	return out, nil
}

// ParseColor 解析单个颜色值；空串返回黑色。
func ParseColor(input string) (layout.Color, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return layout.Black, nil
	}
	if c, ok := namedColor(s); ok {
		return c, nil
	}
	expr, err := colorParser.ParseString("", s)
	if err != nil {
		return layout.Black, fmt.Errorf("无法识别的颜色 %q: %w", input, err)
	}
	return expr.resolve()
}

func (v *Value) color() (layout.Color, error) {
	if v.Color != nil {
		return v.Color.resolve()
	}
	name := v.Text()
	if c, ok := namedColor(name); ok {
		return c, nil
	}
	return layout.Black, fmt.Errorf("无法识别的颜色 %q", name)
}

func (c *ColorExpr) resolve() (layout.Color, error) {
	switch {
	case c.Hex != nil:
		hex := *c.Hex
		if len(hex) == 9 {
			// #rrggbbaa：标签只支持不透明颜色，丢弃 alpha
			hex = hex[:7]
		}
		col, err := colorful.Hex(hex)
		if err != nil {
			return layout.Black, fmt.Errorf("颜色 %s 无效: %w", *c.Hex, err)
		}
		r, g, b := col.RGB255()
		return layout.Color{R: r, G: g, B: b}, nil
	case c.RGB != nil:
		var comps [3]uint8
		for i, raw := range []string{c.RGB.R, c.RGB.G, c.RGB.B} {
			v, err := parseComponent(raw)
			if err != nil {
				return layout.Black, err
			}
			comps[i] = v
		}
		return layout.Color{R: comps[0], G: comps[1], B: comps[2]}, nil
	default:
		return layout.Black, fmt.Errorf("空颜色表达式")
	}
}

func parseComponent(raw string) (uint8, error) {
	pct := strings.HasSuffix(raw, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("颜色分量 %q 无效", raw)
	}
	if pct {
		v = v * 255 / 100
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("颜色分量 %q 超出范围", raw)
	}
	return uint8(math.Round(v)), nil
}

func namedColor(name string) (layout.Color, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
	c, ok := colornames.Map[key]
	if !ok {
		return layout.Black, false
	}
	return layout.Color{R: c.R, G: c.G, B: c.B}, true
}

// ParseSizePt 解析字号（"48"、"48pt"、"12mm"），无单位时按 pt 处理。
func ParseSizePt(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	l, err := layout.ParseRawLengthStr(s)
	if err != nil {
		return 0, err
	}
	return l.ToPT(), nil
}
