package market

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError 上游返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string // 服务端给出的 message，可能为空
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("市场 API 错误 [%d]: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("市场 API 错误 [%d]", e.StatusCode)
}

// ServerMessage 提取错误链中服务端给出的 message
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

// newAPIError 从响应体构建错误
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Body:       string(body),
	}

	var resp ErrorResp
	if err := json.Unmarshal(body, &resp); err == nil {
		apiErr.Message = strings.TrimSpace(resp.Message)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(resp.Error)
		}
	}
	return apiErr
}

// ErrNoToken 上下文中没有可转发的凭证
var ErrNoToken = errors.New("缺少访问凭证")
