package rasterrenderer

import (
	"bytes"
	"errors"
	"image/png"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ByLCY/labelkit/fonts"
	"github.com/ByLCY/labelkit/layout"
)

func TestRenderProducesPNGOfPageSize(t *testing.T) {
	r := NewRenderer(Options{DPI: 72})
	out, err := r.Render(layout.LabelConfig{
		Text:          "sample",
		Quantity:      1,
		CorrelationID: "1001-1",
		OrderNumber:   "#42",
	})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	b := layout.DefaultPageBounds()
	assert.Equal(t, int(math.Round(b.Width)), img.Bounds().Dx())
	assert.Equal(t, int(math.Round(b.Height)), img.Bounds().Dy())
	assert.Equal(t, "png", r.Ext())
}

func TestRenderInksTheTextArea(t *testing.T) {
	r := NewRenderer(Options{DPI: 72})
	out, err := r.Render(layout.LabelConfig{Text: "WWW", Quantity: 1, CorrelationID: "c"})
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	area := layout.DefaultPageBounds().TextArea
	dark := 0
	for y := int(area.Y); y < int(area.Bottom()); y++ {
		for x := int(area.X); x < int(area.Right()); x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r < 0x8000 && g < 0x8000 && b < 0x8000 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 0, "text area should contain inked pixels")
}

func TestRenderWarnsOnFallback(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRenderer(Options{
		Resolver: fonts.NewResolver(filepath.Join(t.TempDir(), "nope.ttf"), nil),
		Logger:   zap.New(core),
		DPI:      36,
	})
	_, err := r.Render(layout.LabelConfig{Text: "x", Quantity: 1, CorrelationID: "c-1"})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "c-1", logs.All()[0].ContextMap()["correlation_id"])
}

func TestRenderRejectsInvalidConfig(t *testing.T) {
	_, err := NewRenderer(Options{}).Render(layout.LabelConfig{Text: "x", Quantity: 0, CorrelationID: "c"})
	var verr *layout.ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
}

func TestMeasurerScalesLinearly(t *testing.T) {
	f, err := parseFont(fonts.Fallback(), layout.FallbackCalibration)
	require.NoError(t, err)
	m := &faceMeasurer{font: f}
	w10 := m.TextWidth("LABEL", 100)
	w20 := m.TextWidth("LABEL", 200)
	assert.InEpsilon(t, 2.0, w20/w10, 0.02)
	assert.Zero(t, m.VisibleHeight("", 100))
	assert.GreaterOrEqual(t, m.VisibleHeight("A", 50), f.calibration.CapHeightRatio*50)
}

func TestMeasurerIncludesInkOutsideCapHeight(t *testing.T) {
	f, err := parseFont(fonts.Fallback(), layout.FallbackCalibration)
	require.NoError(t, err)
	m := &faceMeasurer{font: f}

	plain := m.VisibleHeight("HELLO", 100)
	tall := m.VisibleHeight("(Q,J)", 100)
	assert.Greater(t, tall, plain, "brackets and descenders add ink beyond the cap height")
	assert.Greater(t, m.Descent("(Q,J)", 100), 5.0)
	assert.Less(t, m.Descent("HELLO", 100), 3.0)
}

// 括号与逗号的墨迹必须留在文本区域内，不能被页面边缘裁掉。
func TestRenderKeepsBracketInkInsideTextArea(t *testing.T) {
	r := NewRenderer(Options{DPI: 72})
	out, err := r.Render(layout.LabelConfig{Text: "(Q,J)", Quantity: 1, CorrelationID: "c"})
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	area := layout.DefaultPageBounds().TextArea
	top, bottom := -1, -1
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r < 0x8000 && g < 0x8000 && bl < 0x8000 {
				if top < 0 {
					top = y
				}
				bottom = y
				break
			}
		}
	}
	require.GreaterOrEqual(t, top, 0, "expected inked pixels")
	assert.GreaterOrEqual(t, float64(top), math.Floor(area.Y)-1, "ink above the text area")
	assert.LessOrEqual(t, float64(bottom), math.Ceil(area.Bottom())+1, "ink below the text area")
	assert.Greater(t, top, 0, "ink touches the top page edge")
	assert.Less(t, bottom, b.Max.Y-1, "ink touches the bottom page edge")
}

func TestRenderShrinksLongOrderNumber(t *testing.T) {
	r := NewRenderer(Options{DPI: 72})
	lay, err := r.Layout(layout.LabelConfig{Text: "x", Quantity: 1, CorrelationID: "c", OrderNumber: "#1234567890"})
	require.NoError(t, err)
	require.Len(t, lay.Digits, 10)
	assert.Less(t, lay.DigitSizePt, layout.DefaultDigitSizePt)
	for _, d := range lay.Digits {
		assert.True(t, lay.Bounds.Column.Contains(d.Extent(), 1e-6), "digit %q extent %+v", d.Character, d.Extent())
	}
}
