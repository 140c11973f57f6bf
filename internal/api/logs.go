package api

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogEntry 日志条目
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogManager 内存日志环形缓冲
type LogManager struct {
	logs    []LogEntry
	maxLogs int
	mu      sync.RWMutex
}

// NewLogManager 创建日志管理器
func NewLogManager(maxLogs int) *LogManager {
	return &LogManager{
		logs:    make([]LogEntry, 0, maxLogs),
		maxLogs: maxLogs,
	}
}

// AddLog 添加日志
func (lm *LogManager) AddLog(entry *logrus.Entry) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	logEntry := LogEntry{
		Timestamp: entry.Time,
		Level:     entry.Level.String(),
		Message:   entry.Message,
		Fields:    entry.Data,
	}

	lm.logs = append(lm.logs, logEntry)

	// 超出容量时丢弃最旧的日志
	if len(lm.logs) > lm.maxLogs {
		lm.logs = lm.logs[1:]
	}
}

// GetLogsWithPagination 获取分页日志
func (lm *LogManager) GetLogsWithPagination(level string, page, pageSize int) ([]LogEntry, int) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	allLogs := make([]LogEntry, len(lm.logs))
	copy(allLogs, lm.logs)

	if level != "" {
		filtered := make([]LogEntry, 0)
		for _, log := range allLogs {
			if log.Level == level {
				filtered = append(filtered, log)
			}
		}
		allLogs = filtered
	}

	total := len(allLogs)

	start := (page - 1) * pageSize
	end := start + pageSize

	if start >= total {
		return []LogEntry{}, total
	}

	if end > total {
		end = total
	}

	return allLogs[start:end], total
}

// ClearLogs 清空日志
func (lm *LogManager) ClearLogs() {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.logs = make([]LogEntry, 0, lm.maxLogs)
}

// LogHook logrus钩子，把日志写入环形缓冲
type LogHook struct {
	manager *LogManager
}

// NewLogHook 创建日志钩子
func NewLogHook(manager *LogManager) *LogHook {
	return &LogHook{manager: manager}
}

// Fire 实现 logrus.Hook 接口
func (h *LogHook) Fire(entry *logrus.Entry) error {
	h.manager.AddLog(entry)
	return nil
}

// Levels 实现 logrus.Hook 接口
func (h *LogHook) Levels() []logrus.Level {
	return logrus.AllLevels
}
