package signer

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"tokengate/internal/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// Backend 签名器依赖的链访问能力
type Backend interface {
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Signer 交易签名提交器
// 组装流程固定：nonce -> gasPrice -> 签名 -> 提交，不做自动重试
type Signer struct {
	backend  Backend
	chainID  *big.Int
	gasLimit uint64
	logger   *logrus.Logger
}

// NewSigner 创建签名器
func NewSigner(backend Backend, chainID int64, gasLimit uint64, logger *logrus.Logger) *Signer {
	return &Signer{
		backend:  backend,
		chainID:  big.NewInt(chainID),
		gasLimit: gasLimit,
		logger:   logger,
	}
}

// ParseKey 解析十六进制私钥并推导地址
func ParseKey(privateKeyHex string) (*ecdsa.PrivateKey, common.Address, error) {
	if privateKeyHex == "" {
		return nil, common.Address{}, errors.NewKeyMissing()
	}

	trimmed := strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, common.Address{}, errors.WrapError(err, errors.ErrorTypeKey, errors.SeverityHigh,
			"INVALID_PRIVATE_KEY", "私钥格式无效")
	}

	address := crypto.PubkeyToAddress(key.PublicKey)
	return key, address, nil
}

// VerifyOwner 校验私钥推导地址与发送方地址一致
func VerifyOwner(key *ecdsa.PrivateKey, statedFrom string) error {
	derived := crypto.PubkeyToAddress(key.PublicKey)
	stated := common.HexToAddress(statedFrom)
	if derived != stated {
		return errors.NewAddressMismatch(stated.Hex(), derived.Hex())
	}
	return nil
}

// SignAndSend 签名并提交合约调用交易
// statedFrom为空时跳过地址一致性校验，直接使用私钥推导地址
func (s *Signer) SignAndSend(ctx context.Context, privateKeyHex, statedFrom string, to common.Address, data []byte) (common.Hash, error) {
	key, derived, err := ParseKey(privateKeyHex)
	if err != nil {
		return common.Hash{}, err
	}

	if statedFrom != "" {
		if err := VerifyOwner(key, statedFrom); err != nil {
			return common.Hash{}, err
		}
	}

	// 查询nonce（latest区块）
	nonce, err := s.backend.NonceAt(ctx, derived)
	if err != nil {
		return common.Hash{}, err
	}

	// 查询Gas价格
	gasPrice, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	// 组装legacy交易，value固定为0（纯合约调用）
	tx := types.NewTransaction(nonce, to, big.NewInt(0), s.gasLimit, gasPrice, data)

	// EIP-155签名
	signed, err := types.SignTx(tx, types.NewEIP155Signer(s.chainID), key)
	if err != nil {
		return common.Hash{}, errors.WrapError(err, errors.ErrorTypeKey, errors.SeverityHigh,
			"SIGN_FAILED", "交易签名失败")
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}

	hash := signed.Hash()
	s.logger.WithFields(logrus.Fields{
		"tx_hash":   hash.Hex(),
		"from":      derived.Hex(),
		"to":        to.Hex(),
		"nonce":     nonce,
		"gas_limit": s.gasLimit,
		"gas_price": gasPrice.String(),
	}).Info("交易已提交")

	return hash, nil
}
