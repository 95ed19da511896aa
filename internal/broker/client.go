// Package broker 定义网关与外部执行通道之间的窄接口，
// 并提供两种实现：QMT 终端桥接与 ccxt 交易所通道。
// 部署中也可能完全不配置通道，此时工厂返回 nil 客户端，
// 上层据此在启动时一次性判定通道不可用。
package broker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"qmt-gateway/internal/config"
)

var (
	// ErrUnavailable 表示执行通道未安装或未初始化。
	ErrUnavailable = errors.New("broker client unavailable")
)

// Client 抽象外部执行通道。所有方法都可能阻塞，调用方不得持有共享状态锁。
type Client interface {
	// Connect 在进程启动时预热通道，失败不致命。
	Connect(ctx context.Context) error
	QueryPositions(ctx context.Context, accountID string) ([]Position, error)
	QueryOrders(ctx context.Context, accountID string, includeCancelled bool) ([]Order, error)
	QueryTrades(ctx context.Context, accountID string) ([]Trade, error)
	QueryAsset(ctx context.Context, accountID string) (*Asset, error)
	SubmitOrder(ctx context.Context, req SubmitRequest) (string, error)
	CancelOrder(ctx context.Context, accountID, orderID string) (bool, error)
}

// New 依据配置选择执行通道实现。未配置任何通道时返回 (nil, nil)，
// 此时无论运行模式如何，真实数据与真实交易路径一律视为关闭。
func New(cfg config.BrokerConfig, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch {
	case cfg.BridgeEndpoint != "":
		client, err := newBridgeClient(cfg.BridgeEndpoint, logger)
		if err != nil {
			return nil, fmt.Errorf("broker: 初始化 QMT 桥接客户端失败: %w", err)
		}
		return withRetry(client, cfg.Retry, logger), nil
	case cfg.Exchange.Configured():
		client, err := newCCXTClient(cfg.Exchange, logger)
		if err != nil {
			return nil, fmt.Errorf("broker: 初始化交易所客户端失败: %w", err)
		}
		return withRetry(client, cfg.Retry, logger), nil
	default:
		logger.Info("未配置执行通道，网关以纯模拟方式运行")
		return nil, nil
	}
}
