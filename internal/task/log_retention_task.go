package task

import (
	"context"
	"sync"
	"time"

	"listing_studio/pkg/logger"
)

// LogPurger 提交流水清理
type LogPurger interface {
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

// LogRetentionTask 定期删除过期的提交流水
type LogRetentionTask struct {
	purger    LogPurger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// LogRetentionOption 任务选项
type LogRetentionOption func(*LogRetentionTask)

// WithRetention 设置保留时长
func WithRetention(d time.Duration) LogRetentionOption {
	return func(t *LogRetentionTask) {
		t.retention = d
	}
}

// WithInterval 设置执行间隔
func WithInterval(d time.Duration) LogRetentionOption {
	return func(t *LogRetentionTask) {
		t.interval = d
	}
}

// NewLogRetentionTask 默认保留 90 天，每天执行一次
func NewLogRetentionTask(purger LogPurger, opts ...LogRetentionOption) *LogRetentionTask {
	t := &LogRetentionTask{
		purger:    purger,
		retention: 90 * 24 * time.Hour,
		interval:  24 * time.Hour,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start 启动任务
func (t *LogRetentionTask) Start() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.mu.Unlock()

	t.wg.Add(1)
	go t.run()

	logger.L().Infof("[LogRetentionTask] 已启动，间隔: %v, 保留: %v", t.interval, t.retention)
}

// Stop 停止任务
func (t *LogRetentionTask) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.mu.Unlock()

	close(t.stopCh)
	t.wg.Wait()
	logger.L().Info("[LogRetentionTask] 已停止")
}

func (t *LogRetentionTask) run() {
	defer t.wg.Done()

	// 启动时立即执行
	t.RunOnce()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.RunOnce()
		case <-t.stopCh:
			return
		}
	}
}

// RunOnce 手动执行一次，返回删除条数
func (t *LogRetentionTask) RunOnce() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := t.purger.PurgeBefore(ctx, t.now().Add(-t.retention))
	if err != nil {
		logger.L().Errorf("[LogRetentionTask] 清理提交流水失败: %v", err)
		return 0
	}
	if removed > 0 {
		logger.L().Infof("[LogRetentionTask] 已删除 %d 条过期提交流水", removed)
	}
	return removed
}
