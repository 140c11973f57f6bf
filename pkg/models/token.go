package models

// TokenInfo 代币基本信息
// 每次请求都从链上重新读取，不做本地缓存
type TokenInfo struct {
	Name                 string `json:"name"`
	Symbol               string `json:"symbol"`
	TotalSupply          string `json:"total_supply"`           // 原始整数（最小单位）
	FormattedTotalSupply string `json:"formatted_total_supply"` // 按decimals换算后的十进制
	Decimals             uint8  `json:"decimals"`
	ContractAddress      string `json:"contract_address"`
}

// Balance 地址余额
type Balance struct {
	Address          string `json:"address"`
	Balance          string `json:"balance"`           // 原始整数（最小单位）
	FormattedBalance string `json:"formatted_balance"` // 按decimals换算后的十进制
}
