package order

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Order 是电商平台订单 webhook 的最小子集（Shopify 结构）。
type Order struct {
	ID          json.Number `json:"id"`
	Name        string      `json:"name"`
	OrderNumber json.Number `json:"order_number"`
	LineItems   []LineItem  `json:"line_items"`
}

// LineItem 是订单中的一行商品，标签内容写在自定义属性里。
type LineItem struct {
	ID         json.Number `json:"id"`
	Title      string      `json:"title"`
	Quantity   int         `json:"quantity"`
	Properties []Property  `json:"properties"`
}

// Property 的值在不同平台可能是字符串或数字。
type Property struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Parse decodes an order payload.
func Parse(data []byte) (*Order, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var o Order
	if err := dec.Decode(&o); err != nil {
		return nil, fmt.Errorf("解析订单 JSON 失败: %w", err)
	}
	return &o, nil
}

// Number 返回用于订单号竖列的编号：优先 order_number，其次 name（如 "#1001"）。
func (o *Order) Number() string {
	if n := o.OrderNumber.String(); n != "" {
		return n
	}
	return o.Name
}

// Folder 是该订单的投递目录名。
func (o *Order) Folder() string {
	name := strings.TrimSpace(o.Name)
	if name == "" {
		name = o.Number()
	}
	if name == "" {
		name = o.ID.String()
	}
	return strings.NewReplacer("/", "-", "\\", "-").Replace(name)
}

// lookup 按别名顺序查找属性（不区分大小写、忽略首尾空白与下划线/空格差异）。
func (li *LineItem) lookup(keys []string) (string, bool) {
	for _, key := range keys {
		want := normalizeKey(key)
		for _, p := range li.Properties {
			if normalizeKey(p.Name) != want || p.Value == nil {
				continue
			}
			return strings.TrimSpace(propertyString(p.Value)), true
		}
	}
	return "", false
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.Join(strings.FieldsFunc(k, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), " "))
}

func propertyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
