package draft

import (
	"errors"
	"strings"

	"listing_studio/pkg/market"
)

// Kind 错误分类
type Kind string

const (
	KindValidation Kind = "validation" // 缺少必填选择，本地恢复
	KindDuplicate  Kind = "duplicate"  // 重复的服务区域，本地恢复
	KindCapacity   Kind = "capacity"   // 图片超出上限，整批拒绝
	KindCreation   Kind = "creation"   // 上游创建成功但未返回 ID
	KindUpload     Kind = "upload"     // 图片上传失败
	KindTransport  Kind = "transport"  // 其余网络调用失败
)

// 用户可见的固定提示
const (
	MsgIncompleteLocation = "Please select country, state, and city"
	MsgDuplicateLocation  = "This location has already been added"
	MsgTooManyImages      = "Maximum 5 images allowed"
	MsgImageRequired      = "Please upload at least one image"
	MsgNoListingID        = "Failed to create listing - no ID returned from server"
	MsgSaveFailed         = "Failed to save listing"
)

// Error 表单与提交流程的错误
// 对当前操作致命，对进程无影响
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同类错误视为相等，便于 errors.Is(err, draft.ErrDuplicate) 判断
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// 哨兵值，仅用于 errors.Is 比较分类
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrDuplicate  = &Error{Kind: KindDuplicate}
	ErrCapacity   = &Error{Kind: KindCapacity}
	ErrCreation   = &Error{Kind: KindCreation}
	ErrUpload     = &Error{Kind: KindUpload}
	ErrTransport  = &Error{Kind: KindTransport}
)

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validation 构建校验错误
func Validation(msg string) *Error {
	return newError(KindValidation, msg)
}

// Transport 包装网络错误
func Transport(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}

// Upload 包装上传错误，消息沿用底层错误的用户提示
func Upload(err error) *Error {
	return &Error{Kind: KindUpload, Message: "Failed to upload images: " + UserMessage(err), Err: err}
}

// Creation 创建响应缺少 ID
func Creation() *Error {
	return newError(KindCreation, MsgNoListingID)
}

// KindOf 获取错误分类，非本包错误视为 transport
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

// UserMessage 用户可见提示
// 优先级：服务端 message > 错误自身信息 > 通用兜底
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if msg, ok := market.ServerMessage(err); ok {
		return msg
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return MsgSaveFailed
}
