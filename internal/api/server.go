package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tokengate/internal/config"
	"tokengate/internal/errors"
	"tokengate/pkg/models"
)

// TokenService 处理器依赖的代币服务能力
type TokenService interface {
	Health(ctx context.Context) error
	TokenInfo(ctx context.Context) (*models.TokenInfo, error)
	Balance(ctx context.Context, address string) (*models.Balance, error)
	Mint(ctx context.Context, req *models.TransactionRequest) (string, error)
	Transfer(ctx context.Context, req *models.TransactionRequest) (string, error)
	Burn(ctx context.Context, req *models.TransactionRequest) (string, error)
	TransactionStatus(ctx context.Context, hash string) (*models.TransactionStatus, error)
	EstimateGas(ctx context.Context, functionName, toAddress string) (*models.GasEstimate, error)
	Stats() *errors.ErrorStats
	ContractAddress() string
}

// RecordLister 本地提交记录查询能力
type RecordLister interface {
	Recent(limit int) ([]*models.TransactionRecord, error)
}

// Server API服务器
type Server struct {
	service    TokenService
	config     *config.Config
	records    RecordLister
	nodeStats  func() map[string]interface{}
	logger     *logrus.Logger
	logManager *LogManager
	server     *http.Server
	port       int
	startedAt  time.Time
}

// NewServer 创建API服务器
func NewServer(cfg *config.Config, service TokenService, logger *logrus.Logger, port int) *Server {
	// 创建日志管理器
	logManager := NewLogManager(1000) // 最多保存1000条日志
	logger.AddHook(NewLogHook(logManager))

	return &Server{
		service:    service,
		config:     cfg,
		logger:     logger,
		logManager: logManager,
		port:       port,
		startedAt:  time.Now(),
	}
}

// SetRecordLister 设置提交记录查询源
func (s *Server) SetRecordLister(records RecordLister) {
	s.records = records
}

// SetNodeStats 设置节点连接池统计来源
func (s *Server) SetNodeStats(fn func() map[string]interface{}) {
	s.nodeStats = fn
}

// Router 构建路由
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// CORS中间件
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	s.setupRoutes(router)
	return router
}

// Start 启动API服务器
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Router(),
	}

	s.logger.Infof("API服务器启动在端口 %d", s.port)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop 停止API服务器
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(router *gin.Engine) {
	// 健康检查
	router.GET("/health", s.healthCheck)

	api := router.Group("/api")
	{
		// 服务健康与元数据
		api.GET("/", s.healthCheck)
		api.GET("/token/info", s.getTokenInfo)
		api.GET("/balance/:address", s.getBalance)

		// 写操作
		api.POST("/mint", s.mint)
		api.POST("/transfer", s.transfer)
		api.POST("/burn", s.burn)

		// 交易状态与Gas估算
		api.GET("/transaction/:txHash", s.getTransactionStatus)
		api.POST("/gas/estimate", s.estimateGas)

		// 运行信息
		api.GET("/stats", s.getStats)
		api.GET("/transactions", s.getRecentTransactions)

		// 日志管理
		api.GET("/logs", s.getLogs)
		api.DELETE("/logs", s.clearLogs)
	}
}

// statusForError 错误到HTTP状态码的映射
func statusForError(err error) int {
	for _, code := range []string{
		errors.CodeInvalidAddress,
		errors.CodeInvalidAmount,
		errors.CodeUnknownFunction,
		errors.CodeAddressMismatch,
		"INVALID_PRIVATE_KEY",
		"INVALID_TX_HASH",
	} {
		if errors.IsCode(err, code) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// fail 统一错误响应
func (s *Server) fail(c *gin.Context, err error) {
	s.logger.Warnf("请求处理失败: %v", err)
	c.JSON(statusForError(err), models.NewErrorResponse(err.Error()))
}

// healthCheck 健康检查
func (s *Server) healthCheck(c *gin.Context) {
	nodeStatus := "connected"
	if err := s.service.Health(c.Request.Context()); err != nil {
		nodeStatus = "disconnected"
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse("服务运行中", gin.H{
		"status":           "healthy",
		"node":             nodeStatus,
		"contract_address": s.service.ContractAddress(),
		"uptime":           time.Since(s.startedAt).String(),
		"timestamp":        time.Now().Unix(),
	}))
}

// getTokenInfo 查询代币元数据
func (s *Server) getTokenInfo(c *gin.Context) {
	info, err := s.service.TokenInfo(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse("查询成功", info))
}

// getBalance 查询账户余额
func (s *Server) getBalance(c *gin.Context) {
	balance, err := s.service.Balance(c.Request.Context(), c.Param("address"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse("查询成功", balance))
}

// mint 铸造代币
func (s *Server) mint(c *gin.Context) {
	var req models.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("请求体格式错误: "+err.Error()))
		return
	}

	hash, err := s.service.Mint(c.Request.Context(), &req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse("mint交易已提交", gin.H{
		"transaction_hash": hash,
		"to_address":       req.ToAddress,
		"amount":           req.Amount,
		"status":           models.TxStatusPending,
	}))
}

// transfer 转账
func (s *Server) transfer(c *gin.Context) {
	var req models.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("请求体格式错误: "+err.Error()))
		return
	}

	hash, err := s.service.Transfer(c.Request.Context(), &req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse("transfer交易已提交", gin.H{
		"transaction_hash": hash,
		"from_address":     req.FromAddress,
		"to_address":       req.ToAddress,
		"amount":           req.Amount,
		"status":           models.TxStatusPending,
	}))
}

// burn 销毁代币
func (s *Server) burn(c *gin.Context) {
	var req models.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("请求体格式错误: "+err.Error()))
		return
	}

	hash, err := s.service.Burn(c.Request.Context(), &req)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse("burn交易已提交", gin.H{
		"transaction_hash": hash,
		"from_address":     req.FromAddress,
		"amount":           req.Amount,
		"status":           models.TxStatusPending,
	}))
}

// getTransactionStatus 查询交易状态
func (s *Server) getTransactionStatus(c *gin.Context) {
	status, err := s.service.TransactionStatus(c.Request.Context(), c.Param("txHash"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse("查询成功", status))
}

// estimateGas 估算Gas成本
func (s *Server) estimateGas(c *gin.Context) {
	var req struct {
		FunctionName string `json:"function_name"`
		ToAddress    string `json:"to_address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewErrorResponse("请求体格式错误: "+err.Error()))
		return
	}

	estimate, err := s.service.EstimateGas(c.Request.Context(), req.FunctionName, req.ToAddress)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse("估算成功", estimate))
}

// getStats 获取运行统计
func (s *Server) getStats(c *gin.Context) {
	stats := gin.H{
		"errors": s.service.Stats().Snapshot(),
		"uptime": time.Since(s.startedAt).String(),
	}

	if s.nodeStats != nil {
		stats["nodes"] = s.nodeStats()
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse("查询成功", stats))
}

// getRecentTransactions 获取本地记录的最近提交
// 只是本实例的提交流水，权威状态仍需查询交易状态接口
func (s *Server) getRecentTransactions(c *gin.Context) {
	if s.records == nil {
		c.JSON(http.StatusOK, models.NewSuccessResponse("本地记录未启用", []*models.TransactionRecord{}))
		return
	}

	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	records, err := s.records.Recent(limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if records == nil {
		records = []*models.TransactionRecord{}
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse("查询成功", records))
}

// getLogs 获取日志
func (s *Server) getLogs(c *gin.Context) {
	level := c.Query("level")

	page := 1
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	pageSize := 20
	if pageSizeStr := c.Query("pageSize"); pageSizeStr != "" {
		if ps, err := strconv.Atoi(pageSizeStr); err == nil && ps > 0 {
			pageSize = ps
		}
	}

	logs, total := s.logManager.GetLogsWithPagination(level, page, pageSize)

	c.JSON(http.StatusOK, models.NewSuccessResponse("查询成功", gin.H{
		"logs":     logs,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
		"level":    level,
	}))
}

// clearLogs 清空日志
func (s *Server) clearLogs(c *gin.Context) {
	s.logManager.ClearLogs()
	c.JSON(http.StatusOK, models.NewSuccessResponse("日志已清空", nil))
}
