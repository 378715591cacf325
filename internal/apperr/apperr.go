// Package apperr 定义聊天客户端的错误分类
// 持久化错误、推理错误、初始化错误三类，恢复策略各不相同
package apperr

import (
	"errors"
	"fmt"
)

// 错误类别（哨兵错误），配合 errors.Is 使用
var (
	// ErrPersistence 存储不可达或违反约束；回滚事务后提示用户，程序继续运行
	ErrPersistence = errors.New("persistence error")
	// ErrInference 推理后端不可达、模型故障或响应格式错误；仅影响当前一轮
	ErrInference = errors.New("inference error")
	// ErrInitialization 启动阶段的任何故障；致命，提示后退出
	ErrInitialization = errors.New("initialization error")
)

// Error 带类别和操作名的错误
// errors.Is 同时匹配 Kind 与底层 Err
type Error struct {
	Kind error  // 错误类别，取值为上面的哨兵错误之一
	Op   string // 出错的操作，如 "repository.create"
	Err  error  // 底层错误
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap 返回类别和底层错误
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Persistence 包装为持久化错误
func Persistence(op string, err error) error {
	return wrap(ErrPersistence, op, err)
}

// Inference 包装为推理错误
func Inference(op string, err error) error {
	return wrap(ErrInference, op, err)
}

// Initialization 包装为初始化错误
func Initialization(op string, err error) error {
	return wrap(ErrInitialization, op, err)
}

func wrap(kind error, op string, err error) error {
	// 已经是同类错误时不重复包装
	if err != nil && errors.Is(err, kind) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf 返回错误所属类别，未分类返回 nil
func KindOf(err error) error {
	for _, kind := range []error{ErrInitialization, ErrPersistence, ErrInference} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
