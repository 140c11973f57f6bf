package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tokengate/internal/api"
	"tokengate/internal/audit"
	"tokengate/internal/config"
	"tokengate/internal/gateway"
	"tokengate/internal/logging"
	"tokengate/internal/shutdown"
	"tokengate/internal/signer"
	"tokengate/internal/store"
	"tokengate/internal/token"
)

var (
	// 基础参数
	configFile string
	verbose    bool

	// 服务参数
	port int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tokengate",
		Short: "ERC-20代币节点网关",
		Long:  `面向ERC-20代币合约的REST网关，封装查询、铸造、转账、销毁和Gas估算操作`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "configs/config.yaml", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "详细输出")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "启动REST API服务",
		RunE:  runServe,
	}
	serveCmd.Flags().IntVar(&port, "port", 0, "API 服务端口（覆盖配置文件）")

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "查询代币元数据",
		RunE:  runInfo,
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <address>",
		Short: "查询地址余额",
		Args:  cobra.ExactArgs(1),
		RunE:  runBalance,
	}

	statusCmd := &cobra.Command{
		Use:   "status <tx-hash>",
		Short: "查询交易状态",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatus,
	}

	rootCmd.AddCommand(serveCmd, infoCmd, balanceCmd, statusCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "执行失败: %v\n", err)
		os.Exit(1)
	}
}

// runServe 启动完整的API服务栈
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.NewLogrusLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}

	serverPort := cfg.Server.Port
	if port > 0 {
		serverPort = port
	}

	gw, err := gateway.NewWithLogging(cfg.Blockchain, logger, cfg.Logging)
	if err != nil {
		return fmt.Errorf("初始化节点网关失败: %w", err)
	}

	txSigner := signer.NewSigner(gw, cfg.Blockchain.ChainID, cfg.Gas.LimitCeiling, logger)

	recordStore, err := store.NewStore(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("初始化提交记录存储失败: %w", err)
	}

	auditOutput, err := audit.NewOutput(cfg.Audit, logger)
	if err != nil {
		return fmt.Errorf("创建审计输出器失败: %w", err)
	}
	auditor := audit.NewAuditor(auditOutput, recordStore, logger)

	service := token.NewServiceWithLogging(gw, txSigner, cfg.Contract.Address, cfg.Account.OwnerPrivateKey, logger, cfg.Logging)
	service.SetRecorder(auditor)

	server := api.NewServer(cfg, service, logger, serverPort)
	server.SetRecordLister(recordStore)
	server.SetNodeStats(gw.Stats)

	gs := shutdown.NewGracefulShutdown(30*time.Second, logger)
	gs.RegisterShutdownFunc("http_server", func(ctx context.Context) error {
		return server.Stop(ctx)
	}, shutdown.OrderStopHTTPServer)
	gs.RegisterShutdownFunc("audit", func(ctx context.Context) error {
		return auditor.Close()
	}, shutdown.OrderFlushAudit)
	gs.RegisterShutdownFunc("record_store", func(ctx context.Context) error {
		return recordStore.Close()
	}, shutdown.OrderCloseStore)
	gs.RegisterShutdownFunc("gateway", func(ctx context.Context) error {
		return gw.Close()
	}, shutdown.OrderCloseGateway)
	gs.Start()

	go func() {
		if err := server.Start(); err != nil {
			logger.Errorf("启动服务器失败: %v", err)
			gs.Shutdown()
		}
	}()

	logger.Infof("API服务器已启动，监听端口: %d", serverPort)
	gs.Wait()
	logger.Info("服务器已关闭")
	return nil
}

// newQueryService 为一次性查询命令组装服务
func newQueryService() (*token.Service, func(), error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("配置校验失败: %w", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	gw, err := gateway.New(cfg.Blockchain, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("初始化节点网关失败: %w", err)
	}

	txSigner := signer.NewSigner(gw, cfg.Blockchain.ChainID, cfg.Gas.LimitCeiling, logger)
	service := token.NewService(gw, txSigner, cfg.Contract.Address, cfg.Account.OwnerPrivateKey, logger)

	cleanup := func() {
		gw.Close()
	}
	return service, cleanup, nil
}

// runInfo 查询代币元数据
func runInfo(cmd *cobra.Command, args []string) error {
	service, cleanup, err := newQueryService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	info, err := service.TokenInfo(ctx)
	if err != nil {
		return fmt.Errorf("查询代币信息失败: %w", err)
	}

	fmt.Println("代币信息")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("%-20s: %s\n", "名称", info.Name)
	fmt.Printf("%-20s: %s\n", "符号", info.Symbol)
	fmt.Printf("%-20s: %d\n", "精度", info.Decimals)
	fmt.Printf("%-20s: %s\n", "总供应量", info.FormattedTotalSupply)
	fmt.Printf("%-20s: %s\n", "合约地址", info.ContractAddress)

	return nil
}

// runBalance 查询地址余额
func runBalance(cmd *cobra.Command, args []string) error {
	service, cleanup, err := newQueryService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	balance, err := service.Balance(ctx, args[0])
	if err != nil {
		return fmt.Errorf("查询余额失败: %w", err)
	}

	fmt.Printf("%-20s: %s\n", "地址", balance.Address)
	fmt.Printf("%-20s: %s\n", "余额", balance.FormattedBalance)
	fmt.Printf("%-20s: %s\n", "原始余额", balance.Balance)

	return nil
}

// runStatus 查询交易状态
func runStatus(cmd *cobra.Command, args []string) error {
	service, cleanup, err := newQueryService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := service.TransactionStatus(ctx, args[0])
	if err != nil {
		return fmt.Errorf("查询交易状态失败: %w", err)
	}

	fmt.Printf("%-20s: %s\n", "交易哈希", status.Hash)
	fmt.Printf("%-20s: %s\n", "状态", status.Status)
	if status.BlockNumber != "" {
		fmt.Printf("%-20s: %s\n", "区块号", status.BlockNumber)
	}
	if status.GasUsed != "" {
		fmt.Printf("%-20s: %s\n", "Gas消耗", status.GasUsed)
	}
	if status.MethodName != "" {
		fmt.Printf("%-20s: %s\n", "调用方法", status.MethodName)
	}

	return nil
}
