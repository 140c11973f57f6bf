package errors

import (
	"sync"
	"time"
)

// ErrorStats 错误统计
type ErrorStats struct {
	TotalErrors      int                   `json:"total_errors"`
	ErrorsByType     map[string]int        `json:"errors_by_type"`
	ErrorsByCode     map[string]int        `json:"errors_by_code"`
	ErrorsBySeverity map[string]int        `json:"errors_by_severity"`
	RecentErrors     []*TokenError         `json:"recent_errors"`
	LastError        *TokenError           `json:"last_error"`
	LastErrorTime    time.Time             `json:"last_error_time"`

	mu sync.RWMutex
}

// NewErrorStats 创建错误统计
func NewErrorStats() *ErrorStats {
	return &ErrorStats{
		ErrorsByType:     make(map[string]int),
		ErrorsByCode:     make(map[string]int),
		ErrorsBySeverity: make(map[string]int),
		RecentErrors:     make([]*TokenError, 0),
	}
}

// RecordError 记录错误
func (es *ErrorStats) RecordError(err *TokenError) {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.TotalErrors++
	es.ErrorsByType[err.Type.String()]++
	es.ErrorsByCode[err.Code]++
	es.ErrorsBySeverity[err.Severity.String()]++

	es.LastError = err
	es.LastErrorTime = err.Timestamp

	// 保留最近100个错误
	es.RecentErrors = append(es.RecentErrors, err)
	if len(es.RecentErrors) > 100 {
		es.RecentErrors = es.RecentErrors[1:]
	}
}

// Record 记录任意错误，非TokenError会先包装
func (es *ErrorStats) Record(err error) {
	if err == nil {
		return
	}
	if te, ok := err.(*TokenError); ok {
		es.RecordError(te)
		return
	}
	es.RecordError(WrapError(err, ErrorTypeSystem, SeverityMedium, "UNKNOWN_ERROR", "未知错误"))
}

// Snapshot 获取统计快照（不含内部锁）
func (es *ErrorStats) Snapshot() map[string]interface{} {
	es.mu.RLock()
	defer es.mu.RUnlock()

	byType := make(map[string]int, len(es.ErrorsByType))
	for k, v := range es.ErrorsByType {
		byType[k] = v
	}
	byCode := make(map[string]int, len(es.ErrorsByCode))
	for k, v := range es.ErrorsByCode {
		byCode[k] = v
	}

	snapshot := map[string]interface{}{
		"total_errors":    es.TotalErrors,
		"errors_by_type":  byType,
		"errors_by_code":  byCode,
		"last_error_time": es.LastErrorTime,
	}
	if es.LastError != nil {
		snapshot["last_error"] = es.LastError.Error()
	}
	return snapshot
}

// GetErrorRate 获取错误率（错误/小时）
func (es *ErrorStats) GetErrorRate(duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}

	es.mu.RLock()
	defer es.mu.RUnlock()

	cutoff := time.Now().Add(-duration)
	recentCount := 0

	for _, err := range es.RecentErrors {
		if err.Timestamp.After(cutoff) {
			recentCount++
		}
	}

	hours := duration.Hours()
	if hours == 0 {
		return float64(recentCount)
	}

	return float64(recentCount) / hours
}
