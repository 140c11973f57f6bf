package validation

import (
	"math/big"
	"regexp"
	"strings"

	"tokengate/internal/errors"
	"tokengate/pkg/models"

	"github.com/sirupsen/logrus"
)

var (
	// 地址：0x后跟40个十六进制字符，大小写不敏感
	addressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

	// 交易哈希：0x后跟64个十六进制字符
	txHashRegex = regexp.MustCompile("^0x[0-9a-fA-F]{64}$")

	// 私钥：64个十六进制字符，0x前缀可选
	privateKeyRegex = regexp.MustCompile("^(0x)?[0-9a-fA-F]{64}$")
)

// Validator 请求参数校验器
type Validator struct {
	logger *logrus.Logger
}

// NewValidator 创建校验器
func NewValidator(logger *logrus.Logger) *Validator {
	return &Validator{logger: logger}
}

// ValidateAddress 校验以太坊地址格式
func (v *Validator) ValidateAddress(address string) error {
	if !addressRegex.MatchString(address) {
		v.logger.Debugf("地址校验失败: %s", address)
		return errors.NewInvalidAddress(address)
	}
	return nil
}

// ValidateAmount 校验金额，必须为大于0的十进制数
// 精确换算由token包基于原始字符串完成，这里不返回解析值
func (v *Validator) ValidateAmount(amount string) error {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return errors.NewInvalidAmount(amount)
	}

	value, ok := new(big.Float).SetString(amount)
	if !ok {
		v.logger.Debugf("金额解析失败: %s", amount)
		return errors.NewInvalidAmount(amount)
	}

	if value.Sign() <= 0 {
		return errors.NewInvalidAmount(amount)
	}

	return nil
}

// ValidateTxHash 校验交易哈希格式
func (v *Validator) ValidateTxHash(hash string) error {
	if !txHashRegex.MatchString(hash) {
		v.logger.Debugf("交易哈希校验失败: %s", hash)
		return errors.NewTokenError(errors.ErrorTypeValidation, errors.SeverityLow,
			"INVALID_TX_HASH", "交易哈希格式无效")
	}
	return nil
}

// ValidatePrivateKey 校验私钥格式（不校验与地址的对应关系，由签名器负责）
func (v *Validator) ValidatePrivateKey(key string) error {
	if !privateKeyRegex.MatchString(key) {
		return errors.NewTokenError(errors.ErrorTypeValidation, errors.SeverityLow,
			"INVALID_PRIVATE_KEY", "私钥格式无效")
	}
	return nil
}

// ValidateMintRequest 校验mint请求
func (v *Validator) ValidateMintRequest(req *models.TransactionRequest) error {
	if err := v.ValidateAddress(req.ToAddress); err != nil {
		return err
	}
	return v.ValidateAmount(req.Amount)
}

// ValidateTransferRequest 校验transfer请求
func (v *Validator) ValidateTransferRequest(req *models.TransactionRequest) error {
	if err := v.ValidateAddress(req.FromAddress); err != nil {
		return err
	}
	if err := v.ValidateAddress(req.ToAddress); err != nil {
		return err
	}
	if err := v.ValidatePrivateKey(req.PrivateKey); err != nil {
		return err
	}
	return v.ValidateAmount(req.Amount)
}

// ValidateBurnRequest 校验burn请求
func (v *Validator) ValidateBurnRequest(req *models.TransactionRequest) error {
	if err := v.ValidateAddress(req.FromAddress); err != nil {
		return err
	}
	if err := v.ValidatePrivateKey(req.PrivateKey); err != nil {
		return err
	}
	return v.ValidateAmount(req.Amount)
}

// IsValidAddress 无状态地址校验，供外部快速检查
func IsValidAddress(address string) bool {
	return addressRegex.MatchString(address)
}

// IsValidTxHash 无状态交易哈希校验
func IsValidTxHash(hash string) bool {
	return txHashRegex.MatchString(hash)
}
