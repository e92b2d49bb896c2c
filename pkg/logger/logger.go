package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu      sync.RWMutex
	sugared = zap.NewNop().Sugar()
)

// Init 初始化全局日志
// env: "production" 使用 JSON 输出，其余使用开发模式彩色输出
func Init(env string) error {
	var (
		base *zap.Logger
		err  error
	)
	if env == "production" {
		base, err = zap.NewProduction()
	} else {
		base, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}

	Set(base.Sugar())
	return nil
}

// Set 替换全局日志（测试中可注入 zaptest / observer）
func Set(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	sugared = l
}

// L 获取全局日志
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugared
}

// Sync 刷新缓冲
func Sync() {
	_ = L().Sync()
}
