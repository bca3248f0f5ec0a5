package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/labelkit/layout"
)

const samplePayload = `{
  "id": 820982911946154508,
  "name": "#1001",
  "order_number": 1001,
  "line_items": [
    {
      "id": 466157049,
      "title": "Custom label",
      "quantity": 2,
      "properties": [
        {"name": "Text", "value": "sample"},
        {"name": "Font", "value": "Bebas Neue"},
        {"name": "Colour", "value": "#cc0000"},
        {"name": "Font_Size", "value": 48}
      ]
    },
    {
      "id": 518995019,
      "title": "Gift wrap",
      "quantity": 1,
      "properties": []
    },
    {
      "id": 703073504,
      "title": "Custom label",
      "quantity": 1,
      "properties": [
        {"name": "text", "value": "second"},
        {"name": "style", "value": "font: Anton; color: rgb(0, 0, 255); size: 10mm"}
      ]
    }
  ]
}`

func TestParseOrder(t *testing.T) {
	o, err := Parse([]byte(samplePayload))
	require.NoError(t, err)
	assert.Equal(t, "820982911946154508", o.ID.String())
	assert.Equal(t, "1001", o.Number())
	assert.Equal(t, "#1001", o.Folder())
	require.Len(t, o.LineItems, 3)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte(`{"id": [`))
	assert.Error(t, err)
}

func TestLabelsFromOrder(t *testing.T) {
	o, err := Parse([]byte(samplePayload))
	require.NoError(t, err)

	configs, errs := NewAdapter(Keys{}).Labels(o)
	require.Empty(t, errs)
	require.Len(t, configs, 2, "gift wrap has no text and is not a label")

	first := configs[0]
	assert.Equal(t, "sample", first.Text)
	assert.Equal(t, 2, first.Quantity)
	assert.Equal(t, "820982911946154508-466157049", first.CorrelationID)
	assert.Equal(t, "1001", first.OrderNumber)
	assert.Equal(t, "Bebas Neue", first.FontFamily)
	assert.Equal(t, layout.Color{R: 0xcc}, first.Color)
	assert.Equal(t, 48.0, first.FontSizeHint)

	second := configs[1]
	assert.Equal(t, "Anton", second.FontFamily)
	assert.Equal(t, layout.Color{B: 255}, second.Color)
	assert.InDelta(t, layout.MM(10), second.FontSizeHint, 1e-9)
}

func TestLabelsFallsBackToNameAndUUID(t *testing.T) {
	o, err := Parse([]byte(`{"name": "#A-77", "line_items": [{"quantity": 1, "properties": [{"name": "text", "value": "hi"}]}]}`))
	require.NoError(t, err)

	a := NewAdapter(Keys{}, WithIDGenerator(func() string { return "generated" }))
	configs, errs := a.Labels(o)
	require.Empty(t, errs)
	require.Len(t, configs, 1)
	assert.Equal(t, "generated", configs[0].CorrelationID)
	assert.Equal(t, "#A-77", configs[0].OrderNumber)
}

func TestLabelsReportsBadItemsWithoutDroppingOthers(t *testing.T) {
	o, err := Parse([]byte(`{"id": 1, "order_number": 5, "line_items": [
	  {"id": 10, "quantity": 0, "properties": [{"name": "text", "value": "zero"}]},
	  {"id": 11, "quantity": 1, "properties": [{"name": "text", "value": "ok"}, {"name": "color", "value": "not-a-colour"}]},
	  {"id": 12, "quantity": 1, "properties": [{"name": "text", "value": "  "}]},
	  {"id": 13, "quantity": 3, "properties": [{"name": "text", "value": "good"}]}
	]}`))
	require.NoError(t, err)

	configs, errs := NewAdapter(Keys{}).Labels(o)
	require.Len(t, configs, 1)
	assert.Equal(t, "1-13", configs[0].CorrelationID)
	require.Len(t, errs, 3)

	var itemErr *ItemError
	require.True(t, errors.As(errs[0], &itemErr))
	assert.Equal(t, "1-10", itemErr.CorrelationID)
	var verr *layout.ValidationError
	assert.True(t, errors.As(errs[0], &verr), "quantity 0 is a validation error")
	assert.True(t, errors.As(errs[2], &verr), "blank text is a validation error")
	assert.False(t, errors.As(errs[1], &verr), "bad colour is a style error")
}

func TestCustomKeyAliases(t *testing.T) {
	o, err := Parse([]byte(`{"id": 2, "line_items": [{"id": 3, "quantity": 1, "properties": [{"name": "Engraving", "value": "custom"}]}]}`))
	require.NoError(t, err)

	configs, errs := NewAdapter(Keys{Text: []string{"engraving"}}).Labels(o)
	require.Empty(t, errs)
	require.Len(t, configs, 1)
	assert.Equal(t, "custom", configs[0].Text)
}

func TestDefaultFont(t *testing.T) {
	o, err := Parse([]byte(samplePayload))
	require.NoError(t, err)

	configs, _ := NewAdapter(Keys{}, WithDefaultFont("Oswald")).Labels(o)
	require.Len(t, configs, 2)
	assert.Equal(t, "Bebas Neue", configs[0].FontFamily, "explicit property wins")
	assert.Equal(t, "Anton", configs[1].FontFamily, "style declaration wins")

	o.LineItems[0].Properties = o.LineItems[0].Properties[:1]
	configs, _ = NewAdapter(Keys{}, WithDefaultFont("Oswald")).Labels(o)
	assert.Equal(t, "Oswald", configs[0].FontFamily)
}
