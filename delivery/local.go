package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalSink 将标签写入本地目录，用于调试或挂载的打印队列目录。
type LocalSink struct {
	Root string
}

func NewLocalSink(root string) *LocalSink { return &LocalSink{Root: root} }

func (s *LocalSink) EnsureFolder(_ context.Context, folder string) error {
	return os.MkdirAll(filepath.Join(s.Root, filepath.FromSlash(folder)), 0o755)
}

// Upload 先写临时文件再改名，读取方不会看到写了一半的文件。
func (s *LocalSink) Upload(_ context.Context, folder, name string, data []byte) error {
	dir := filepath.Join(s.Root, filepath.FromSlash(folder))
	target := filepath.Join(dir, filepath.Base(name))
	tmp, err := os.CreateTemp(dir, ".labelkit-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("写入 %s 失败: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("保存 %s 失败: %w", target, err)
	}
	return nil
}

var _ Sink = (*LocalSink)(nil)
