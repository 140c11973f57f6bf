package contract

import (
	"fmt"
	"math/big"

	"tokengate/internal/errors"
)

// 返回值归一化
// 节点返回空数据时统一取零值（空字符串/0），这是刻意的宽松策略，不算错误

// unpack 按函数的输出定义解码返回数据
func unpack(name string, data []byte) ([]interface{}, error) {
	if len(data) == 0 {
		return nil, nil
	}
	values, err := parsedABI.Unpack(name, data)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeRPC, errors.SeverityMedium,
			"ABI_DECODE_FAILED", fmt.Sprintf("解码返回数据失败: %s", name))
	}
	return values, nil
}

// DecodeString 解码string返回值，空数据返回空字符串
func DecodeString(name string, data []byte) (string, error) {
	values, err := unpack(name, data)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", nil
	}
	s, ok := values[0].(string)
	if !ok {
		return "", errors.NewTokenError(errors.ErrorTypeRPC, errors.SeverityMedium,
			"ABI_DECODE_FAILED", fmt.Sprintf("返回值类型不是string: %s", name))
	}
	return s, nil
}

// DecodeBigInt 解码uint256返回值，空数据返回0
func DecodeBigInt(name string, data []byte) (*big.Int, error) {
	values, err := unpack(name, data)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return big.NewInt(0), nil
	}
	n, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.NewTokenError(errors.ErrorTypeRPC, errors.SeverityMedium,
			"ABI_DECODE_FAILED", fmt.Sprintf("返回值类型不是uint256: %s", name))
	}
	return n, nil
}

// DecodeUint8 解码uint8返回值，空数据返回0
func DecodeUint8(name string, data []byte) (uint8, error) {
	values, err := unpack(name, data)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, nil
	}
	n, ok := values[0].(uint8)
	if !ok {
		return 0, errors.NewTokenError(errors.ErrorTypeRPC, errors.SeverityMedium,
			"ABI_DECODE_FAILED", fmt.Sprintf("返回值类型不是uint8: %s", name))
	}
	return n, nil
}

// DecodeBool 解码bool返回值，空数据返回false
func DecodeBool(name string, data []byte) (bool, error) {
	values, err := unpack(name, data)
	if err != nil {
		return false, err
	}
	if len(values) == 0 {
		return false, nil
	}
	b, ok := values[0].(bool)
	if !ok {
		return false, errors.NewTokenError(errors.ErrorTypeRPC, errors.SeverityMedium,
			"ABI_DECODE_FAILED", fmt.Sprintf("返回值类型不是bool: %s", name))
	}
	return b, nil
}

// DecodeInput 按代币ABI解码交易输入数据
// 返回方法名和按参数名组织的参数表；无法识别时返回空值，不算错误
func DecodeInput(data []byte) (string, map[string]interface{}) {
	if len(data) < 4 {
		return "", nil
	}

	method, err := parsedABI.MethodById(data[:4])
	if err != nil {
		// 非本合约方法
		return "", nil
	}

	values, err := method.Inputs.UnpackValues(data[4:])
	if err != nil {
		return method.Name, nil
	}

	args := make(map[string]interface{}, len(values))
	for i, input := range method.Inputs {
		if i >= len(values) {
			break
		}
		name := input.Name
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		args[name] = fmt.Sprintf("%v", values[i])
	}

	return method.Name, args
}
