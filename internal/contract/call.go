package contract

import (
	"fmt"
	"math/big"

	"tokengate/internal/errors"

	"github.com/ethereum/go-ethereum/common"
)

// FunctionCall 合约函数调用
// 构建后不可变，每次派发只消费一次
type FunctionCall struct {
	Name string
	Args []interface{}
}

// Encode 按ABI编码为字节载荷，纯函数
func (c *FunctionCall) Encode() ([]byte, error) {
	data, err := parsedABI.Pack(c.Name, c.Args...)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeValidation, errors.SeverityMedium,
			"ABI_ENCODE_FAILED", fmt.Sprintf("编码函数调用失败: %s", c.Name))
	}
	return data, nil
}

// NameCall 构建name()调用
func NameCall() *FunctionCall {
	return &FunctionCall{Name: "name"}
}

// SymbolCall 构建symbol()调用
func SymbolCall() *FunctionCall {
	return &FunctionCall{Name: "symbol"}
}

// DecimalsCall 构建decimals()调用
func DecimalsCall() *FunctionCall {
	return &FunctionCall{Name: "decimals"}
}

// TotalSupplyCall 构建totalSupply()调用
func TotalSupplyCall() *FunctionCall {
	return &FunctionCall{Name: "totalSupply"}
}

// BalanceOfCall 构建balanceOf(address)调用
func BalanceOfCall(address string) *FunctionCall {
	return &FunctionCall{
		Name: "balanceOf",
		Args: []interface{}{common.HexToAddress(address)},
	}
}

// TransferCall 构建transfer(address,uint256)调用
func TransferCall(to string, amount *big.Int) *FunctionCall {
	return &FunctionCall{
		Name: "transfer",
		Args: []interface{}{common.HexToAddress(to), amount},
	}
}

// MintCall 构建mint(address,uint256)调用
func MintCall(to string, amount *big.Int) *FunctionCall {
	return &FunctionCall{
		Name: "mint",
		Args: []interface{}{common.HexToAddress(to), amount},
	}
}

// BurnCall 构建burn(uint256)调用
func BurnCall(amount *big.Int) *FunctionCall {
	return &FunctionCall{
		Name: "burn",
		Args: []interface{}{amount},
	}
}
