package errors

import (
	"fmt"
	"time"
)

// ErrorType 错误类型
type ErrorType int

const (
	// 校验相关错误
	ErrorTypeValidation ErrorType = iota

	// 密钥相关错误
	ErrorTypeKey

	// 节点RPC相关错误
	ErrorTypeRPC
	ErrorTypeNetwork
	ErrorTypeTimeout

	// 系统相关错误
	ErrorTypeSystem
	ErrorTypeConfig

	// 外围组件错误
	ErrorTypeAudit
	ErrorTypeStore
)

// ErrorSeverity 错误严重级别
type ErrorSeverity int

const (
	SeverityLow ErrorSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// 错误码常量，对应统一的失败分类
const (
	CodeInvalidAddress  = "INVALID_ADDRESS"
	CodeInvalidAmount   = "INVALID_AMOUNT"
	CodeKeyMissing      = "KEY_MISSING"
	CodeAddressMismatch = "ADDRESS_MISMATCH"
	CodeRPCError        = "RPC_ERROR"
	CodeUnknownFunction = "UNKNOWN_FUNCTION"
)

// TokenError 自定义错误类型
type TokenError struct {
	Type      ErrorType              `json:"type"`
	Severity  ErrorSeverity          `json:"severity"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"cause,omitempty"`
	Retryable bool                   `json:"retryable"`
	Component string                 `json:"component"`
	TxHash    *string                `json:"tx_hash,omitempty"`
	Address   *string                `json:"address,omitempty"`
}

// Error 实现error接口
// 节点返回的原始错误信息必须原样保留在错误链中
func (e *TokenError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Unwrap
func (e *TokenError) Unwrap() error {
	return e.Cause
}

// IsRetryable 判断是否可重试
// 注意：签名后的交易绝不自动重发，重试仅用于连接建立
func (e *TokenError) IsRetryable() bool {
	return e.Retryable
}

// WithContext 添加上下文信息
func (e *TokenError) WithContext(key string, value interface{}) *TokenError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithTxHash 添加交易哈希
func (e *TokenError) WithTxHash(txHash string) *TokenError {
	e.TxHash = &txHash
	return e
}

// WithAddress 添加相关地址
func (e *TokenError) WithAddress(address string) *TokenError {
	e.Address = &address
	return e
}

// WithComponent 标记产生错误的组件
func (e *TokenError) WithComponent(component string) *TokenError {
	e.Component = component
	return e
}

// NewTokenError 创建新的错误
func NewTokenError(errorType ErrorType, severity ErrorSeverity, code, message string) *TokenError {
	return &TokenError{
		Type:      errorType,
		Severity:  severity,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Retryable: determineRetryable(errorType),
	}
}

// WrapError 包装现有错误
func WrapError(err error, errorType ErrorType, severity ErrorSeverity, code, message string) *TokenError {
	return &TokenError{
		Type:      errorType,
		Severity:  severity,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     err,
		Retryable: determineRetryable(errorType),
	}
}

// determineRetryable 根据错误类型判断是否可重试
func determineRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		// 校验、密钥、RPC业务错误均不可重试，由调用方决定是否重新提交
		return false
	}
}

// NewInvalidAddress 创建地址格式错误
func NewInvalidAddress(address string) *TokenError {
	return NewTokenError(ErrorTypeValidation, SeverityLow,
		CodeInvalidAddress, "地址格式无效").WithAddress(address)
}

// NewInvalidAmount 创建金额错误
func NewInvalidAmount(amount string) *TokenError {
	return NewTokenError(ErrorTypeValidation, SeverityLow,
		CodeInvalidAmount, "金额必须大于0").WithContext("amount", amount)
}

// NewKeyMissing 创建私钥缺失错误
func NewKeyMissing() *TokenError {
	return NewTokenError(ErrorTypeKey, SeverityHigh,
		CodeKeyMissing, "未配置owner私钥")
}

// NewAddressMismatch 创建地址不匹配错误
func NewAddressMismatch(expected, derived string) *TokenError {
	return NewTokenError(ErrorTypeKey, SeverityHigh,
		CodeAddressMismatch, "私钥推导地址与发送方地址不一致").
		WithContext("expected", expected).
		WithContext("derived", derived)
}

// NewRPCError 包装节点返回的错误，原始信息保留在Cause中
func NewRPCError(err error, message string) *TokenError {
	return WrapError(err, ErrorTypeRPC, SeverityMedium, CodeRPCError, message)
}

// NewUnknownFunction 创建未知函数名错误
func NewUnknownFunction(name string) *TokenError {
	return NewTokenError(ErrorTypeValidation, SeverityLow,
		CodeUnknownFunction, fmt.Sprintf("不支持的函数名: %s", name))
}

// IsCode 判断错误是否属于指定错误码
func IsCode(err error, code string) bool {
	te, ok := err.(*TokenError)
	return ok && te.Code == code
}

// 错误类型字符串映射
var errorTypeNames = map[ErrorType]string{
	ErrorTypeValidation: "Validation",
	ErrorTypeKey:        "Key",
	ErrorTypeRPC:        "RPC",
	ErrorTypeNetwork:    "Network",
	ErrorTypeTimeout:    "Timeout",
	ErrorTypeSystem:     "System",
	ErrorTypeConfig:     "Config",
	ErrorTypeAudit:      "Audit",
	ErrorTypeStore:      "Store",
}

// String 返回错误类型的字符串表示
func (et ErrorType) String() string {
	if name, exists := errorTypeNames[et]; exists {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", et)
}

// 严重级别字符串映射
var severityNames = map[ErrorSeverity]string{
	SeverityLow:      "Low",
	SeverityMedium:   "Medium",
	SeverityHigh:     "High",
	SeverityCritical: "Critical",
}

// String 返回严重级别的字符串表示
func (es ErrorSeverity) String() string {
	if name, exists := severityNames[es]; exists {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", es)
}
