package token

import (
	"context"
	"math/big"
	"time"

	"tokengate/internal/contract"
	"tokengate/internal/errors"
	"tokengate/internal/logging"
	"tokengate/internal/signer"
	"tokengate/internal/validation"
	"tokengate/pkg/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// Chain 服务依赖的链访问能力
type Chain interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	Ping(ctx context.Context) error
}

// Recorder 提交记录接收方（本地流水和审计输出）
type Recorder interface {
	RecordSubmission(record *models.TransactionRecord)
}

// Service 代币操作服务
// 所有状态均实时查询节点，本实例只持有配置和连接
type Service struct {
	chain        Chain
	signer       *signer.Signer
	validator    *validation.Validator
	contractAddr common.Address
	ownerKey     string
	logger       *logrus.Logger
	structured   *logging.StructuredLogger
	stats        *errors.ErrorStats
	recorder     Recorder
}

// NewService 创建代币服务
func NewService(chain Chain, txSigner *signer.Signer, contractAddress, ownerKey string, logger *logrus.Logger) *Service {
	return NewServiceWithLogging(chain, txSigner, contractAddress, ownerKey, logger, nil)
}

// NewServiceWithLogging 创建带结构化日志的代币服务
func NewServiceWithLogging(chain Chain, txSigner *signer.Signer, contractAddress, ownerKey string, logger *logrus.Logger, logConfig *logging.LogConfig) *Service {
	var structured *logging.StructuredLogger
	if logConfig != nil {
		var err error
		structured, err = logging.NewStructuredLogger(logConfig)
		if err != nil {
			logger.Warnf("初始化结构化日志器失败: %v，将使用默认日志", err)
		}
	}

	return &Service{
		chain:        chain,
		signer:       txSigner,
		validator:    validation.NewValidator(logger),
		contractAddr: common.HexToAddress(contractAddress),
		ownerKey:     ownerKey,
		logger:       logger,
		structured:   structured,
		stats:        errors.NewErrorStats(),
	}
}

// SetRecorder 设置提交记录接收方
func (s *Service) SetRecorder(recorder Recorder) {
	s.recorder = recorder
}

// Stats 错误统计
func (s *Service) Stats() *errors.ErrorStats {
	return s.stats
}

// ContractAddress 代币合约地址
func (s *Service) ContractAddress() string {
	return s.contractAddr.Hex()
}

// record 错误统计记录
func (s *Service) record(err error) error {
	if err != nil {
		s.stats.Record(err)
	}
	return err
}

// Health 节点连通性检查
func (s *Service) Health(ctx context.Context) error {
	return s.record(s.chain.Ping(ctx))
}

// call 执行只读合约调用
func (s *Service) call(ctx context.Context, fc *contract.FunctionCall) ([]byte, error) {
	data, err := fc.Encode()
	if err != nil {
		return nil, err
	}
	return s.chain.CallContract(ctx, s.contractAddr, data)
}

// decimals 查询代币精度
func (s *Service) decimals(ctx context.Context) (uint8, error) {
	out, err := s.call(ctx, contract.DecimalsCall())
	if err != nil {
		return 0, err
	}
	return contract.DecodeUint8("decimals", out)
}

// TokenInfo 查询代币元数据
func (s *Service) TokenInfo(ctx context.Context) (*models.TokenInfo, error) {
	nameOut, err := s.call(ctx, contract.NameCall())
	if err != nil {
		return nil, s.record(err)
	}
	name, err := contract.DecodeString("name", nameOut)
	if err != nil {
		return nil, s.record(err)
	}

	symbolOut, err := s.call(ctx, contract.SymbolCall())
	if err != nil {
		return nil, s.record(err)
	}
	symbol, err := contract.DecodeString("symbol", symbolOut)
	if err != nil {
		return nil, s.record(err)
	}

	decimals, err := s.decimals(ctx)
	if err != nil {
		return nil, s.record(err)
	}

	supplyOut, err := s.call(ctx, contract.TotalSupplyCall())
	if err != nil {
		return nil, s.record(err)
	}
	supply, err := contract.DecodeBigInt("totalSupply", supplyOut)
	if err != nil {
		return nil, s.record(err)
	}

	return &models.TokenInfo{
		Name:                 name,
		Symbol:               symbol,
		Decimals:             decimals,
		TotalSupply:          supply.String(),
		FormattedTotalSupply: FormatUnits(supply, decimals),
		ContractAddress:      s.contractAddr.Hex(),
	}, nil
}

// Balance 查询账户余额
func (s *Service) Balance(ctx context.Context, address string) (*models.Balance, error) {
	if err := s.validator.ValidateAddress(address); err != nil {
		return nil, s.record(err)
	}

	out, err := s.call(ctx, contract.BalanceOfCall(address))
	if err != nil {
		return nil, s.record(err)
	}
	balance, err := contract.DecodeBigInt("balanceOf", out)
	if err != nil {
		return nil, s.record(err)
	}

	decimals, err := s.decimals(ctx)
	if err != nil {
		return nil, s.record(err)
	}

	return &models.Balance{
		Address:          address,
		Balance:          balance.String(),
		FormattedBalance: FormatUnits(balance, decimals),
	}, nil
}

// Mint 铸造代币（使用配置的owner私钥签名）
func (s *Service) Mint(ctx context.Context, req *models.TransactionRequest) (string, error) {
	if err := s.validator.ValidateMintRequest(req); err != nil {
		return "", s.record(err)
	}

	if s.ownerKey == "" {
		return "", s.record(errors.NewKeyMissing())
	}

	decimals, err := s.decimals(ctx)
	if err != nil {
		return "", s.record(err)
	}

	raw, err := ToRawAmount(req.Amount, decimals)
	if err != nil {
		return "", s.record(err)
	}

	data, err := contract.MintCall(req.ToAddress, raw).Encode()
	if err != nil {
		return "", s.record(err)
	}

	hash, err := s.signer.SignAndSend(ctx, s.ownerKey, "", s.contractAddr, data)
	if err != nil {
		return "", s.record(err)
	}

	s.logOperation("mint", "", req.ToAddress, hash.Hex(), raw)
	s.submitRecord("mint", hash.Hex(), "", req.ToAddress, raw)
	return hash.Hex(), nil
}

// Transfer 转账（使用请求中的私钥签名）
func (s *Service) Transfer(ctx context.Context, req *models.TransactionRequest) (string, error) {
	if err := s.validator.ValidateTransferRequest(req); err != nil {
		return "", s.record(err)
	}

	decimals, err := s.decimals(ctx)
	if err != nil {
		return "", s.record(err)
	}

	raw, err := ToRawAmount(req.Amount, decimals)
	if err != nil {
		return "", s.record(err)
	}

	data, err := contract.TransferCall(req.ToAddress, raw).Encode()
	if err != nil {
		return "", s.record(err)
	}

	hash, err := s.signer.SignAndSend(ctx, req.PrivateKey, req.FromAddress, s.contractAddr, data)
	if err != nil {
		return "", s.record(err)
	}

	s.logOperation("transfer", req.FromAddress, req.ToAddress, hash.Hex(), raw)
	s.submitRecord("transfer", hash.Hex(), req.FromAddress, req.ToAddress, raw)
	return hash.Hex(), nil
}

// Burn 销毁代币（从持有人账户销毁）
func (s *Service) Burn(ctx context.Context, req *models.TransactionRequest) (string, error) {
	if err := s.validator.ValidateBurnRequest(req); err != nil {
		return "", s.record(err)
	}

	decimals, err := s.decimals(ctx)
	if err != nil {
		return "", s.record(err)
	}

	raw, err := ToRawAmount(req.Amount, decimals)
	if err != nil {
		return "", s.record(err)
	}

	data, err := contract.BurnCall(raw).Encode()
	if err != nil {
		return "", s.record(err)
	}

	hash, err := s.signer.SignAndSend(ctx, req.PrivateKey, req.FromAddress, s.contractAddr, data)
	if err != nil {
		return "", s.record(err)
	}

	s.logOperation("burn", req.FromAddress, "", hash.Hex(), raw)
	s.submitRecord("burn", hash.Hex(), req.FromAddress, "", raw)
	return hash.Hex(), nil
}

// logOperation 记录写操作提交日志
func (s *Service) logOperation(operation, from, to, txHash string, raw *big.Int) {
	if s.structured != nil {
		logging.NewOperationLogger(s.structured, operation, from).Info("交易已提交",
			"tx_hash", txHash,
			"to", to,
			"amount_raw", raw.String(),
		)
		return
	}
	s.logger.Infof("[%s] 交易已提交: %s", operation, txHash)
}

// submitRecord 记录提交流水
func (s *Service) submitRecord(operation, hash, from, to string, raw *big.Int) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordSubmission(&models.TransactionRecord{
		Hash:        hash,
		Operation:   operation,
		From:        from,
		To:          to,
		AmountRaw:   raw.String(),
		SubmittedAt: time.Now(),
	})
}

// TransactionStatus 查询交易状态
// 每次都重新查询节点，不使用任何本地缓存
func (s *Service) TransactionStatus(ctx context.Context, hashStr string) (*models.TransactionStatus, error) {
	if err := s.validator.ValidateTxHash(hashStr); err != nil {
		return nil, s.record(err)
	}

	hash := common.HexToHash(hashStr)

	tx, isPending, err := s.chain.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, s.record(err)
	}

	status := &models.TransactionStatus{
		Hash:   hashStr,
		Status: models.TxStatusPending,
	}

	s.fillTxFields(status, tx)

	if isPending {
		return status, nil
	}

	receipt, err := s.chain.TransactionReceipt(ctx, hash)
	if err != nil {
		if err == ethereum.NotFound {
			// 节点认为不在pending但还没有回执，按pending上报
			return status, nil
		}
		return nil, s.record(err)
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		status.Status = models.TxStatusSuccess
	} else {
		status.Status = models.TxStatusFailed
	}
	status.BlockNumber = receipt.BlockNumber.String()
	status.GasUsed = new(big.Int).SetUint64(receipt.GasUsed).String()
	status.TransactionIndex = new(big.Int).SetUint64(uint64(receipt.TransactionIndex)).String()

	return status, nil
}

// fillTxFields 填充交易自身字段与输入解码结果
func (s *Service) fillTxFields(status *models.TransactionStatus, tx *types.Transaction) {
	if tx == nil {
		return
	}

	if tx.To() != nil {
		status.To = tx.To().Hex()
	}
	status.Value = tx.Value().String()
	status.Gas = new(big.Int).SetUint64(tx.Gas()).String()
	status.GasPrice = tx.GasPrice().String()

	// 从签名恢复发送方地址
	if from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx); err == nil {
		status.From = from.Hex()
	}

	// 按代币ABI解码输入数据
	if method, args := contract.DecodeInput(tx.Data()); method != "" {
		status.MethodName = method
		status.DecodedInput = args
	}
}

// EstimateGas 估算指定操作的Gas成本
// 仅支持固定的函数集合，参数使用固定占位值
func (s *Service) EstimateGas(ctx context.Context, functionName, toAddress string) (*models.GasEstimate, error) {
	fn, err := contract.ParseEstimableFunction(functionName)
	if err != nil {
		return nil, s.record(err)
	}

	if toAddress != "" {
		if err := s.validator.ValidateAddress(toAddress); err != nil {
			return nil, s.record(err)
		}
	}

	data, err := fn.BuildEstimationCall(toAddress).Encode()
	if err != nil {
		return nil, s.record(err)
	}

	gas, err := s.chain.EstimateGas(ctx, ethereum.CallMsg{
		To:   &s.contractAddr,
		Data: data,
	})
	if err != nil {
		return nil, s.record(err)
	}

	gasPrice, err := s.chain.SuggestGasPrice(ctx)
	if err != nil {
		return nil, s.record(err)
	}

	costWei := new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPrice)

	return &models.GasEstimate{
		FunctionName:     fn.String(),
		EstimatedGas:     new(big.Int).SetUint64(gas).String(),
		GasPrice:         gasPrice.String(),
		EstimatedCostWei: costWei.String(),
		EstimatedCostEth: FormatUnits(costWei, 18),
	}, nil
}
