package models

// APIResponse 统一响应包装
// 所有HTTP响应都使用该结构，失败时success=false且data为空
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// NewSuccessResponse 创建成功响应
func NewSuccessResponse(message string, data interface{}) *APIResponse {
	return &APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse 创建失败响应
func NewErrorResponse(message string) *APIResponse {
	return &APIResponse{
		Success: false,
		Message: message,
		Data:    nil,
	}
}
