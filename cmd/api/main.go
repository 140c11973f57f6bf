package main

import (
	"context"
	"flag"
	"time"

	"tokengate/internal/api"
	"tokengate/internal/audit"
	"tokengate/internal/config"
	"tokengate/internal/gateway"
	"tokengate/internal/logging"
	"tokengate/internal/shutdown"
	"tokengate/internal/signer"
	"tokengate/internal/store"
	"tokengate/internal/token"

	"github.com/sirupsen/logrus"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "配置文件路径")
	port       = flag.Int("port", 0, "API 服务端口（覆盖配置文件）")
	verbose    = flag.Bool("verbose", false, "详细输出")
)

func main() {
	flag.Parse()

	// 自动检测并加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logrus.Fatalf("加载配置失败: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("配置校验失败: %v", err)
	}

	if *verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.NewLogrusLogger(cfg.Logging)
	if err != nil {
		logrus.Fatalf("初始化日志失败: %v", err)
	}

	serverPort := cfg.Server.Port
	if *port > 0 {
		serverPort = *port
	}

	// 创建节点网关
	gw, err := gateway.NewWithLogging(cfg.Blockchain, logger, cfg.Logging)
	if err != nil {
		logger.Fatalf("初始化节点网关失败: %v", err)
	}

	// 创建交易签名器
	txSigner := signer.NewSigner(gw, cfg.Blockchain.ChainID, cfg.Gas.LimitCeiling, logger)

	// 创建本地提交记录存储
	recordStore, err := store.NewStore(cfg.Store.Path, logger)
	if err != nil {
		logger.Fatalf("初始化提交记录存储失败: %v", err)
	}

	// 创建审计输出器
	auditOutput, err := audit.NewOutput(cfg.Audit, logger)
	if err != nil {
		logger.Fatalf("创建审计输出器失败: %v", err)
	}
	auditor := audit.NewAuditor(auditOutput, recordStore, logger)

	// 创建代币服务
	service := token.NewServiceWithLogging(gw, txSigner, cfg.Contract.Address, cfg.Account.OwnerPrivateKey, logger, cfg.Logging)
	service.SetRecorder(auditor)

	// 创建API服务器
	server := api.NewServer(cfg, service, logger, serverPort)
	server.SetRecordLister(recordStore)
	server.SetNodeStats(gw.Stats)

	// 注册优雅关闭
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

	// 启动服务器
	go func() {
		if err := server.Start(); err != nil {
			logger.Errorf("启动服务器失败: %v", err)
			gs.Shutdown()
		}
	}()

	logger.Infof("API服务器已启动，监听端口: %d", serverPort)
	gs.Wait()
	logger.Info("服务器已关闭")
}
