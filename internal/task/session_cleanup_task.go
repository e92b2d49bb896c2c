package task

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"listing_studio/pkg/logger"
)

// ==================== 会话清理任务 ====================

// SessionSweeper 表单会话清理
type SessionSweeper interface {
	CleanupExpired() int
	ActiveSessions() int
}

// LimiterSweeper 限流器闲置客户端清理
type LimiterSweeper interface {
	Cleanup(idle time.Duration) int
}

// CleanupConfig 清理任务配置（秒级 cron 表达式）
type CleanupConfig struct {
	SessionSpec string
	LimiterSpec string
	LimiterIdle time.Duration
}

// DefaultCleanupConfig 默认配置
func DefaultCleanupConfig() *CleanupConfig {
	return &CleanupConfig{
		SessionSpec: "0 */1 * * * *",
		LimiterSpec: "0 */10 * * * *",
		LimiterIdle: 30 * time.Minute,
	}
}

// SessionCleanupTask 定时清理过期表单会话与限流状态
type SessionCleanupTask struct {
	sessions SessionSweeper
	limiter  LimiterSweeper
	cfg      *CleanupConfig
	cron     *cron.Cron

	running bool
	mutex   sync.Mutex
}

// NewSessionCleanupTask limiter 可为空
func NewSessionCleanupTask(sessions SessionSweeper, limiter LimiterSweeper, cfg *CleanupConfig) *SessionCleanupTask {
	if cfg == nil {
		cfg = DefaultCleanupConfig()
	}
	return &SessionCleanupTask{
		sessions: sessions,
		limiter:  limiter,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start 启动定时任务
func (t *SessionCleanupTask) Start() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.running {
		return nil
	}

	if _, err := t.cron.AddFunc(t.cfg.SessionSpec, func() { t.SweepSessions() }); err != nil {
		return err
	}
	if t.limiter != nil {
		if _, err := t.cron.AddFunc(t.cfg.LimiterSpec, func() { t.SweepLimiter() }); err != nil {
			return err
		}
	}

	t.cron.Start()
	t.running = true
	logger.L().Infof("[SessionCleanupTask] 已启动 session=%q limiter=%q", t.cfg.SessionSpec, t.cfg.LimiterSpec)
	return nil
}

// Stop 停止并等待正在执行的任务结束
func (t *SessionCleanupTask) Stop() context.Context {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.running = false
	return t.cron.Stop()
}

// SweepSessions 执行一次会话清理
func (t *SessionCleanupTask) SweepSessions() int {
	removed := t.sessions.CleanupExpired()
	if removed > 0 {
		logger.L().Infof("[SessionCleanupTask] 清理过期会话 %d 个，剩余 %d 个", removed, t.sessions.ActiveSessions())
	}
	return removed
}

// SweepLimiter 执行一次限流状态清理
func (t *SessionCleanupTask) SweepLimiter() int {
	if t.limiter == nil {
		return 0
	}
	removed := t.limiter.Cleanup(t.cfg.LimiterIdle)
	if removed > 0 {
		logger.L().Debugf("[SessionCleanupTask] 清理闲置限流客户端 %d 个", removed)
	}
	return removed
}
