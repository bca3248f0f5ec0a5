package layout

import (
	"encoding/json"
	"os"
)

// WriteDebugJSON 将标签几何输出为 JSON，便于核对字号与数字摆放。
func WriteDebugJSON(res *LabelLayout, path string) error {
	if res == nil {
		return nil
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
