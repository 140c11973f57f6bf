package gateway

import (
	"context"
	"math/big"
	"time"

	"tokengate/internal/config"
	"tokengate/internal/errors"
	"tokengate/internal/logging"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// Gateway 节点访问网关
// 所有JSON-RPC交互的统一入口，节点错误原样封装后上报
type Gateway struct {
	pool       *Pool
	logger     *logrus.Logger
	structured *logging.StructuredLogger
	timeout    time.Duration
}

// New 创建网关
func New(cfg *config.BlockchainConfig, logger *logrus.Logger) (*Gateway, error) {
	return NewWithLogging(cfg, logger, nil)
}

// NewWithLogging 创建带结构化日志的网关
func NewWithLogging(cfg *config.BlockchainConfig, logger *logrus.Logger, logConfig *logging.LogConfig) (*Gateway, error) {
	timeout := 30 * time.Second
	if cfg.RPCTimeout != "" {
		parsed, err := time.ParseDuration(cfg.RPCTimeout)
		if err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeConfig, errors.SeverityHigh,
				"INVALID_RPC_TIMEOUT", "RPC超时配置无效: "+cfg.RPCTimeout)
		}
		timeout = parsed
	}

	pool := NewPool(cfg.Nodes, logger)
	if err := pool.Initialize(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeNetwork, errors.SeverityCritical,
			"NODE_POOL_INIT_FAILED", "初始化节点连接池失败")
	}

	var structured *logging.StructuredLogger
	if logConfig != nil {
		var err error
		structured, err = logging.NewStructuredLogger(logConfig)
		if err != nil {
			logger.Warnf("初始化结构化日志器失败: %v，将使用默认日志", err)
		}
	}

	return &Gateway{
		pool:       pool,
		logger:     logger,
		structured: structured,
		timeout:    timeout,
	}, nil
}

// logRPCError 记录RPC调用失败
func (g *Gateway) logRPCError(method, node string, err error) {
	if g.structured != nil {
		logging.NewRPCLogger(g.structured, method, node).Error("RPC调用失败", "error", err.Error())
		return
	}
	g.logger.Debugf("[RPC %s] 节点 %s 调用失败: %v", method, node, err)
}

// withClient 获取连接执行操作并归还
func (g *Gateway) withClient(ctx context.Context, method string, fn func(ctx context.Context, client *ethclient.Client) error) error {
	client, nodeName, err := g.pool.GetClient()
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeNetwork, errors.SeverityHigh,
			"NO_HEALTHY_NODE", "获取节点连接失败")
	}
	defer g.pool.ReturnClient(client, nodeName)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := fn(callCtx, client); err != nil {
		// 交易未上链时的NotFound是常规结果，不算调用失败
		if err != ethereum.NotFound {
			g.logRPCError(method, nodeName, err)
		}
		return err
	}
	return nil
}

// CallContract 执行eth_call（latest区块）
func (g *Gateway) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	var result []byte
	err := g.withClient(ctx, "eth_call", func(ctx context.Context, client *ethclient.Client) error {
		msg := ethereum.CallMsg{
			To:   &to,
			Data: data,
		}
		out, err := client.CallContract(ctx, msg, nil)
		if err != nil {
			return errors.NewRPCError(err, "合约调用失败")
		}
		result = out
		return nil
	})
	return result, err
}

// NonceAt 查询账户nonce（latest区块）
func (g *Gateway) NonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := g.withClient(ctx, "eth_getTransactionCount", func(ctx context.Context, client *ethclient.Client) error {
		n, err := client.NonceAt(ctx, account, nil)
		if err != nil {
			return errors.NewRPCError(err, "查询nonce失败")
		}
		nonce = n
		return nil
	})
	return nonce, err
}

// SuggestGasPrice 查询当前Gas价格
func (g *Gateway) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var gasPrice *big.Int
	err := g.withClient(ctx, "eth_gasPrice", func(ctx context.Context, client *ethclient.Client) error {
		gp, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return errors.NewRPCError(err, "查询Gas价格失败")
		}
		gasPrice = gp
		return nil
	})
	return gasPrice, err
}

// EstimateGas 估算Gas用量
func (g *Gateway) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := g.withClient(ctx, "eth_estimateGas", func(ctx context.Context, client *ethclient.Client) error {
		estimated, err := client.EstimateGas(ctx, msg)
		if err != nil {
			return errors.NewRPCError(err, "Gas估算失败")
		}
		gas = estimated
		return nil
	})
	return gas, err
}

// SendTransaction 提交已签名交易
func (g *Gateway) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return g.withClient(ctx, "eth_sendRawTransaction", func(ctx context.Context, client *ethclient.Client) error {
		if err := client.SendTransaction(ctx, tx); err != nil {
			return errors.NewRPCError(err, "提交交易失败").WithTxHash(tx.Hash().Hex())
		}
		return nil
	})
}

// TransactionByHash 查询交易
func (g *Gateway) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error) {
	var tx *types.Transaction
	var isPending bool
	err := g.withClient(ctx, "eth_getTransactionByHash", func(ctx context.Context, client *ethclient.Client) error {
		t, pending, err := client.TransactionByHash(ctx, hash)
		if err != nil {
			return errors.NewRPCError(err, "查询交易失败").WithTxHash(hash.Hex())
		}
		tx = t
		isPending = pending
		return nil
	})
	return tx, isPending, err
}

// TransactionReceipt 查询交易回执
// 交易尚未上链时返回ethereum.NotFound
func (g *Gateway) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := g.withClient(ctx, "eth_getTransactionReceipt", func(ctx context.Context, client *ethclient.Client) error {
		r, err := client.TransactionReceipt(ctx, hash)
		if err != nil {
			if err == ethereum.NotFound {
				return err
			}
			return errors.NewRPCError(err, "查询交易回执失败").WithTxHash(hash.Hex())
		}
		receipt = r
		return nil
	})
	return receipt, err
}

// ChainID 查询链ID
func (g *Gateway) ChainID(ctx context.Context) (*big.Int, error) {
	var chainID *big.Int
	err := g.withClient(ctx, "eth_chainId", func(ctx context.Context, client *ethclient.Client) error {
		id, err := client.ChainID(ctx)
		if err != nil {
			return errors.NewRPCError(err, "查询链ID失败")
		}
		chainID = id
		return nil
	})
	return chainID, err
}

// Ping 节点连通性检查
func (g *Gateway) Ping(ctx context.Context) error {
	_, err := g.ChainID(ctx)
	return err
}

// Stats 连接池统计
func (g *Gateway) Stats() map[string]interface{} {
	return g.pool.GetStats()
}

// Close 关闭网关
func (g *Gateway) Close() error {
	return g.pool.Close()
}
