package draft

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"listing_studio/internal/model"
)

// MaxMediaFiles 单个 Listing 暂存图片上限
const MaxMediaFiles = 5

// MediaBuffer 图片暂存区
// 在 Listing 拥有 ID 之前暂存用户选择的图片，提交时整批上传
type MediaBuffer struct {
	files []model.MediaFile
}

// NewMediaBuffer 创建暂存区
func NewMediaBuffer() *MediaBuffer {
	return &MediaBuffer{}
}

// AddFiles 追加图片（全有或全无）
// 超出上限时整批拒绝；非图片文件同样整批拒绝
func (b *MediaBuffer) AddFiles(files ...model.MediaFile) error {
	if len(files)+len(b.files) > MaxMediaFiles {
		return newError(KindCapacity, MsgTooManyImages)
	}

	accepted := make([]model.MediaFile, 0, len(files))
	for _, f := range files {
		detected := mimetype.Detect(f.Data)
		if !strings.HasPrefix(detected.String(), "image/") {
			return Validation(fmt.Sprintf("%s is not an image file", displayName(f.Filename)))
		}
		f.ContentType = detected.String()
		f.Size = len(f.Data)
		accepted = append(accepted, f)
	}

	b.files = append(b.files, accepted...)
	return nil
}

// RemoveFile 按位置删除
func (b *MediaBuffer) RemoveFile(index int) error {
	if index < 0 || index >= len(b.files) {
		return Validation("Invalid image index")
	}
	b.files = append(b.files[:index], b.files[index+1:]...)
	return nil
}

// Clear 清空暂存区
func (b *MediaBuffer) Clear() {
	b.files = nil
}

func (b *MediaBuffer) Len() int {
	return len(b.files)
}

func (b *MediaBuffer) Empty() bool {
	return len(b.files) == 0
}

// Files 暂存图片（副本，共享底层字节）
func (b *MediaBuffer) Files() []model.MediaFile {
	out := make([]model.MediaFile, len(b.files))
	copy(out, b.files)
	return out
}

// SortOrders 上传时的 sort_order 字段
// positional=false 时整批只发送一个 "0"，与旧前端行为保持一致
// positional=true 时按暂存区位置为每张图片编号
func (b *MediaBuffer) SortOrders(positional bool) []string {
	if len(b.files) == 0 {
		return nil
	}
	if !positional {
		return []string{"0"}
	}

	orders := make([]string, len(b.files))
	for i := range b.files {
		orders[i] = strconv.Itoa(i)
	}
	return orders
}

func displayName(filename string) string {
	if filename == "" {
		return "File"
	}
	return filename
}
