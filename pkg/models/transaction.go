package models

import (
	"time"
)

// 交易状态枚举
const (
	TxStatusPending = "pending"
	TxStatusSuccess = "success"
	TxStatusFailed  = "failed"
)

// TransactionRequest 写操作请求体
// mint不需要from_address和private_key（使用配置的owner私钥）
// burn不需要to_address
type TransactionRequest struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      string `json:"amount"` // 十进制字符串，按代币decimals换算
	PrivateKey  string `json:"private_key"`
}

// TransactionStatus 交易状态查询结果
// 状态只能通过重新查询节点得到，本地不保存权威状态
type TransactionStatus struct {
	Hash             string `json:"hash"`
	Status           string `json:"status"` // pending/success/failed
	BlockNumber      string `json:"block_number,omitempty"`
	GasUsed          string `json:"gas_used,omitempty"`
	TransactionIndex string `json:"transaction_index,omitempty"`
	From             string `json:"from,omitempty"`
	To               string `json:"to,omitempty"`
	Value            string `json:"value,omitempty"`
	Gas              string `json:"gas,omitempty"`
	GasPrice         string `json:"gas_price,omitempty"`

	// 输入数据解码字段（按代币ABI解码）
	MethodName   string                 `json:"method_name,omitempty"`
	DecodedInput map[string]interface{} `json:"decoded_input,omitempty"`
}

// GasEstimate Gas估算结果
type GasEstimate struct {
	FunctionName     string `json:"function_name"`
	EstimatedGas     string `json:"estimated_gas"`
	GasPrice         string `json:"gas_price"`
	EstimatedCostWei string `json:"estimated_cost_wei"`
	EstimatedCostEth string `json:"estimated_cost_eth"`
}

// TransactionRecord 本地提交记录
// 仅作为审计流水，不代表链上状态
type TransactionRecord struct {
	Hash        string    `json:"hash"`
	Operation   string    `json:"operation"` // mint/transfer/burn
	From        string    `json:"from"`
	To          string    `json:"to,omitempty"`
	AmountRaw   string    `json:"amount_raw"`
	SubmittedAt time.Time `json:"submitted_at"`
}
