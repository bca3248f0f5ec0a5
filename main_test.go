package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/ByLCY/labelkit/config"
	"github.com/ByLCY/labelkit/layout"
)

func loadTestConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labelkit.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestRunRenderSingleLabel(t *testing.T) {
	cfg := loadTestConfig(t, "")
	out := t.TempDir()
	debug := filepath.Join(out, "debug", "layout.json")

	files, err := runRender(context.Background(), cfg, zap.NewNop(), renderOptions{
		Text:      "sample",
		Number:    "#12345",
		Copies:    2,
		OutDir:    out,
		DebugPath: debug,
	})
	if err != nil {
		t.Fatalf("runRender: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF")) {
			t.Fatalf("%s is not a PDF", f)
		}
	}

	raw, err := os.ReadFile(debug)
	if err != nil {
		t.Fatalf("debug json: %v", err)
	}
	var lay layout.LabelLayout
	if err := json.Unmarshal(raw, &lay); err != nil {
		t.Fatalf("decode debug json: %v", err)
	}
	if lay.Text != "SAMPLE" || layout.DigitString(lay.Digits) != "12345" {
		t.Fatalf("unexpected debug layout: %q %q", lay.Text, layout.DigitString(lay.Digits))
	}
}

func TestRunRenderOrderFilePNG(t *testing.T) {
	cfg := loadTestConfig(t, "[output]\nformat = \"png\"\ndpi = 36\n")
	dir := t.TempDir()
	orderPath := filepath.Join(dir, "order.json")
	payload := `{"id": 7, "name": "#1007", "order_number": 1007, "line_items": [
	  {"id": 1, "quantity": 1, "properties": [{"name": "text", "value": "hello"}]},
	  {"id": 2, "quantity": 1, "properties": [{"name": "text", "value": " "}]}
	]}`
	if err := os.WriteFile(orderPath, []byte(payload), 0o644); err != nil {
		t.Fatalf("write order: %v", err)
	}

	files, err := runRender(context.Background(), cfg, zap.NewNop(), renderOptions{OrderPath: orderPath, OutDir: dir})
	if err == nil {
		t.Fatalf("blank line item should be reported")
	}
	want := filepath.Join(dir, "#1007", "label-7-1-1.png")
	if len(files) != 1 || files[0] != want {
		t.Fatalf("expected %s, got %v", want, files)
	}
	if _, statErr := os.Stat(want); statErr != nil {
		t.Fatalf("missing output: %v", statErr)
	}
}

func TestRunRenderRejectsBlankText(t *testing.T) {
	cfg := loadTestConfig(t, "")
	files, err := runRender(context.Background(), cfg, zap.NewNop(), renderOptions{Text: "  ", Copies: 1, OutDir: t.TempDir()})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if len(files) != 0 {
		t.Fatalf("no files expected, got %v", files)
	}
}
