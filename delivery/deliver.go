package delivery

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/ByLCY/labelkit/label"
)

// Sink 是标签文件的投递目标。
type Sink interface {
	// EnsureFolder 创建目录；已存在不是错误。
	EnsureFolder(ctx context.Context, folder string) error
	Upload(ctx context.Context, folder, name string, data []byte) error
}

// UploadError 标识投递失败的文件。
type UploadError struct {
	CorrelationID string
	Filename      string
	Err           error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("投递标签 [%s] %s 失败: %v", e.CorrelationID, e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Report 汇总一次投递的结果。
type Report struct {
	Uploaded []string
	Failed   []error
}

// Deliver 先创建订单目录，再逐个上传文件；单个文件失败不影响其余文件。
// 目录创建失败时直接返回错误，不做任何上传。
func Deliver(ctx context.Context, sink Sink, folder string, jobs []label.Job, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var rep Report
	if len(jobs) == 0 {
		return rep, nil
	}
	folder = cleanFolder(folder)
	if err := sink.EnsureFolder(ctx, folder); err != nil {
		return rep, fmt.Errorf("创建目录 %s 失败: %w", folder, err)
	}
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			rep.Failed = append(rep.Failed, &UploadError{CorrelationID: j.Config.CorrelationID, Filename: j.Filename, Err: err})
			continue
		}
		if err := sink.Upload(ctx, folder, j.Filename, j.Data); err != nil {
			logger.Error("上传标签失败",
				zap.String("correlation_id", j.Config.CorrelationID),
				zap.String("file", j.Filename),
				zap.Error(err),
			)
			rep.Failed = append(rep.Failed, &UploadError{CorrelationID: j.Config.CorrelationID, Filename: j.Filename, Err: err})
			continue
		}
		rep.Uploaded = append(rep.Uploaded, path.Join(folder, j.Filename))
	}
	logger.Info("标签投递完成",
		zap.String("folder", folder),
		zap.Int("uploaded", len(rep.Uploaded)),
		zap.Int("failed", len(rep.Failed)),
	)
	return rep, nil
}

// cleanFolder 去掉首尾斜杠与 ".."，目录名来自订单数据，不可信。
func cleanFolder(folder string) string {
	parts := strings.FieldsFunc(folder, func(r rune) bool { return r == '/' || r == '\\' })
	kept := parts[:0]
	for _, p := range parts {
		if p == "." || p == ".." {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "/")
}
