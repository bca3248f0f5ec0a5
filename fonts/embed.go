package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FallbackName 是主字体不可用时统一使用的内置字体。
const FallbackName = "Go-Bold"

var builtin = map[string][]byte{
	"Go-Bold":    gobold.TTF,
	"Go-Regular": goregular.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:Go-Bold" 或直接 "Go-Bold"。
func Load(name string) ([]byte, error) {
	key := strings.TrimPrefix(name, "embed:")
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 可用字体 %s", key, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Fallback 返回后备字体数据。
func Fallback() []byte { return builtin[FallbackName] }

// Names 列出内置字体名称。
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
