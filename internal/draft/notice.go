package draft

// 通知级别
const (
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// Notice 非阻塞的用户提示（前端以 toast 展示）
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Notices 待下发的提示队列
type Notices struct {
	items []Notice
}

func (n *Notices) Push(level, message string) {
	n.items = append(n.items, Notice{Level: level, Message: message})
}

// PushError 按错误分类选择级别：本地可恢复的错误用 warning
func (n *Notices) PushError(err error) {
	if err == nil {
		return
	}
	level := NoticeError
	switch KindOf(err) {
	case KindValidation, KindDuplicate, KindCapacity:
		level = NoticeWarning
	}
	n.Push(level, UserMessage(err))
}

// Drain 取出并清空
func (n *Notices) Drain() []Notice {
	out := n.items
	n.items = nil
	if out == nil {
		return []Notice{}
	}
	return out
}
