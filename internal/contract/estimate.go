package contract

import (
	"math/big"
	"strings"

	"tokengate/internal/errors"
)

// EstimableFunction Gas估算支持的函数，封闭枚举
// 字符串动态派发会放过拼写错误，这里改为显式映射
type EstimableFunction int

const (
	EstimateMint EstimableFunction = iota
	EstimateTransfer
	EstimateBurn
)

// estimationAmount 估算时使用的占位金额
var estimationAmount = big.NewInt(100)

// zeroAddress 估算时的占位地址
const zeroAddress = "0x0000000000000000000000000000000000000000"

// ParseEstimableFunction 解析函数名，未知名称返回UNKNOWN_FUNCTION
func ParseEstimableFunction(name string) (EstimableFunction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mint":
		return EstimateMint, nil
	case "transfer":
		return EstimateTransfer, nil
	case "burn":
		return EstimateBurn, nil
	default:
		return 0, errors.NewUnknownFunction(name)
	}
}

// String 返回函数名
func (f EstimableFunction) String() string {
	switch f {
	case EstimateMint:
		return "mint"
	case EstimateTransfer:
		return "transfer"
	case EstimateBurn:
		return "burn"
	default:
		return "unknown"
	}
}

// BuildEstimationCall 构建估算用的调用，参数使用占位值
// toAddress为空时使用零地址
func (f EstimableFunction) BuildEstimationCall(toAddress string) *FunctionCall {
	if toAddress == "" {
		toAddress = zeroAddress
	}

	switch f {
	case EstimateMint:
		return MintCall(toAddress, estimationAmount)
	case EstimateTransfer:
		return TransferCall(toAddress, estimationAmount)
	case EstimateBurn:
		return BurnCall(estimationAmount)
	default:
		return nil
	}
}
