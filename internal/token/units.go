package token

import (
	"fmt"
	"math/big"
	"strings"

	"tokengate/internal/errors"
)

// FormatUnits 按小数位数格式化原始整数金额
// 例如 1500000000000000000 (18位) -> "1.5"
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	if decimals == 0 {
		return raw.String()
	}

	s := raw.String()
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}

	intPart := s[:len(s)-d]
	fracPart := strings.TrimRight(s[len(s)-d:], "0")

	result := intPart
	if fracPart != "" {
		result = intPart + "." + fracPart
	}
	if negative {
		result = "-" + result
	}
	return result
}

// ToRawAmount 按小数位数把十进制金额转换为原始整数
// 字符串逐位转换，不经过浮点数，保证精确
func ToRawAmount(amount string, decimals uint8) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, errors.NewInvalidAmount(amount)
	}

	parts := strings.SplitN(amount, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}

	if intPart == "" {
		intPart = "0"
	}

	// 小数位不能超过代币精度
	if len(fracPart) > int(decimals) {
		return nil, errors.NewInvalidAmount(amount).
			WithContext("decimals", decimals).
			WithContext("reason", fmt.Sprintf("小数位超过代币精度 %d", decimals))
	}

	// 补齐小数位
	fracPart = fracPart + strings.Repeat("0", int(decimals)-len(fracPart))

	raw, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, errors.NewInvalidAmount(amount)
	}

	if raw.Sign() <= 0 {
		return nil, errors.NewInvalidAmount(amount)
	}

	return raw, nil
}
