package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"qmt-gateway/internal/audit"
	"qmt-gateway/internal/broker"
	"qmt-gateway/internal/config"
	"qmt-gateway/internal/gateway"
	"qmt-gateway/internal/policy"
	"qmt-gateway/internal/store"
)

// 标的代码校验：桥接/模拟部署面向 A 股代码，
// 交易所通道部署面向 ccxt 统一符号。
var (
	aSharePattern     = regexp.MustCompile(`^\d{6}\.(SH|SZ|BJ)$`)
	ccxtSymbolPattern = regexp.MustCompile(`^[A-Z0-9]+/[A-Z0-9]+(:[A-Z0-9]+)?$`)
)

// App 聚合核心依赖并驱动网关生命周期。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run 装配网关服务并启动对外接口，阻塞直到收到退出信号。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("交易网关已初始化",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("mode", string(a.cfg.Broker.Mode)),
		zap.Bool("allow_real_trading", a.cfg.Broker.AllowRealTrading),
	)

	client, err := broker.New(a.cfg.Broker, a.logger)
	if err != nil {
		return fmt.Errorf("装配执行通道失败: %w", err)
	}

	auditSvc, err := audit.NewService(a.store, a.logger)
	if err != nil {
		return fmt.Errorf("装配审计服务失败: %w", err)
	}

	svc := gateway.NewService(
		policy.New(a.cfg.Broker),
		client,
		a.instrumentValidator(),
		auditSvc,
		a.logger,
	)
	svc.Warmup(ctx)

	if err := startAPIServer(ctx, svc, auditSvc, a.cfg.Server, a.logger); err != nil {
		return fmt.Errorf("启动网关接口失败: %w", err)
	}

	<-ctx.Done()
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("系统异常退出: %w", err)
	}
	a.logger.Info("系统收到退出信号，正在停止")
	return nil
}

func (a *App) instrumentValidator() gateway.InstrumentValidator {
	if a.cfg.Broker.Exchange.Configured() {
		return ccxtSymbolPattern.MatchString
	}
	return aSharePattern.MatchString
}
