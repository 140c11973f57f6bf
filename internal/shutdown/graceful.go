package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// 停机顺序常量，数字越小越早执行
const (
	OrderStopHTTPServer = 10 // 停止接受新请求
	OrderFlushAudit     = 20 // 刷新审计输出
	OrderCloseStore     = 30 // 关闭本地记录存储
	OrderCloseGateway   = 40 // 关闭节点连接池
)

// ShutdownFunc 停机处理函数
type ShutdownFunc struct {
	Name  string
	Func  func(ctx context.Context) error
	Order int
}

// GracefulShutdown 优雅停机管理器
type GracefulShutdown struct {
	logger         *logrus.Logger
	timeout        time.Duration
	shutdownFuncs  []ShutdownFunc
	mu             sync.Mutex
	signalChan     chan os.Signal
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	isShuttingDown bool
}

// NewGracefulShutdown 创建优雅停机管理器
func NewGracefulShutdown(timeout time.Duration, logger *logrus.Logger) *GracefulShutdown {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	gs := &GracefulShutdown{
		logger:        logger,
		timeout:       timeout,
		shutdownFuncs: make([]ShutdownFunc, 0),
		signalChan:    make(chan os.Signal, 1),
		ctx:           ctx,
		cancel:        cancel,
	}

	signal.Notify(gs.signalChan,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	return gs
}

// RegisterShutdownFunc 注册停机处理函数
func (gs *GracefulShutdown) RegisterShutdownFunc(name string, fn func(ctx context.Context) error, order int) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	gs.shutdownFuncs = append(gs.shutdownFuncs, ShutdownFunc{
		Name:  name,
		Func:  fn,
		Order: order,
	})

	gs.logger.Debugf("注册停机处理函数: %s (order: %d)", name, order)
}

// Start 启动信号监听
func (gs *GracefulShutdown) Start() {
	gs.wg.Add(1)
	go gs.signalHandler()
	gs.logger.Info("优雅停机管理器已启动，监听信号: SIGINT, SIGTERM, SIGQUIT")
}

// Wait 等待停机完成
func (gs *GracefulShutdown) Wait() {
	gs.wg.Wait()
}

// Context 获取上下文
func (gs *GracefulShutdown) Context() context.Context {
	return gs.ctx
}

// Shutdown 手动触发停机
func (gs *GracefulShutdown) Shutdown() {
	gs.mu.Lock()
	if gs.isShuttingDown {
		gs.mu.Unlock()
		return
	}
	gs.isShuttingDown = true
	gs.mu.Unlock()

	gs.logger.Info("手动触发优雅停机...")
	gs.performShutdown()
}

// signalHandler 信号处理器
func (gs *GracefulShutdown) signalHandler() {
	defer gs.wg.Done()

	sig := <-gs.signalChan
	gs.logger.Infof("收到停机信号: %v", sig)

	gs.mu.Lock()
	if gs.isShuttingDown {
		gs.mu.Unlock()
		gs.logger.Warn("停机过程已在进行中，忽略信号")
		return
	}
	gs.isShuttingDown = true
	gs.mu.Unlock()

	gs.performShutdown()
}

// performShutdown 执行停机过程
func (gs *GracefulShutdown) performShutdown() {
	gs.logger.Info("开始优雅停机流程...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gs.timeout)
	defer shutdownCancel()

	gs.mu.Lock()
	funcs := make([]ShutdownFunc, len(gs.shutdownFuncs))
	copy(funcs, gs.shutdownFuncs)
	gs.mu.Unlock()

	sort.SliceStable(funcs, func(i, j int) bool {
		return funcs[i].Order < funcs[j].Order
	})

	var shutdownErrors []error
	for _, shutdownFunc := range funcs {
		gs.logger.Infof("执行停机处理: %s", shutdownFunc.Name)

		start := time.Now()
		err := shutdownFunc.Func(shutdownCtx)
		duration := time.Since(start)

		if err != nil {
			gs.logger.Errorf("停机处理 '%s' 失败 (耗时: %v): %v", shutdownFunc.Name, duration, err)
			shutdownErrors = append(shutdownErrors, fmt.Errorf("%s: %w", shutdownFunc.Name, err))
		} else {
			gs.logger.Infof("停机处理 '%s' 完成 (耗时: %v)", shutdownFunc.Name, duration)
		}

		select {
		case <-shutdownCtx.Done():
			gs.logger.Warn("停机超时，强制退出")
			gs.cancel()
			return
		default:
		}
	}

	gs.cancel()

	if len(shutdownErrors) > 0 {
		gs.logger.Errorf("停机过程中发生 %d 个错误", len(shutdownErrors))
		for _, err := range shutdownErrors {
			gs.logger.Error(err)
		}
	}

	gs.logger.Info("优雅停机流程完成")
}

// IsShuttingDown 检查是否正在停机
func (gs *GracefulShutdown) IsShuttingDown() bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.isShuttingDown
}

// WaitForShutdown 等待停机信号并执行停机
func (gs *GracefulShutdown) WaitForShutdown() {
	gs.Start()
	gs.Wait()
}
