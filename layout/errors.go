package layout

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmptyText         = errors.New("layout: 文本为空")
	ErrInvalidArea       = errors.New("layout: 区域尺寸无效")
	ErrInvalidRatio      = errors.New("layout: 字高比例必须位于 (0,1]")
	ErrDegenerateMeasure = errors.New("layout: 文本测量结果无效")
	ErrNoMeasurer        = errors.New("layout: 缺少测量后端 Measurer")
)

// ValidationError 表示标签配置在渲染开始前即被拒绝。
type ValidationError struct {
	CorrelationID string
	Fields        []string
	Err           error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("标签配置无效 [%s]: %v", e.CorrelationID, e.Err)
	}
	return fmt.Sprintf("标签配置无效 [%s]: 字段 %s", e.CorrelationID, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return e.Err }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Validate 在任何渲染工作之前检查配置：文本非空白、份数 ≥1、关联 ID 必填。
func (c LabelConfig) Validate() error {
	err := configValidator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
		}
		return &ValidationError{CorrelationID: c.CorrelationID, Fields: fields, Err: err}
	}
	return &ValidationError{CorrelationID: c.CorrelationID, Err: err}
}
