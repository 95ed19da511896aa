package broker

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"qmt-gateway/internal/config"
)

// errTransient 标记实现层判定为瞬时故障、值得重试的错误。
var errTransient = errors.New("transient broker error")

// retryClient 为查询类调用增加指数退避重试。
// 提交与撤单不具备幂等性，永远不重试。
type retryClient struct {
	inner  Client
	cfg    config.RetryConfig
	logger *zap.Logger
}

func withRetry(inner Client, cfg config.RetryConfig, logger *zap.Logger) Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &retryClient{inner: inner, cfg: cfg, logger: logger}
}

func (r *retryClient) Connect(ctx context.Context) error {
	return r.callWithRetry(ctx, "connect", func() error {
		return r.inner.Connect(ctx)
	})
}

func (r *retryClient) QueryPositions(ctx context.Context, accountID string) ([]Position, error) {
	var out []Position
	err := r.callWithRetry(ctx, "query_positions", func() error {
		result, err := r.inner.QueryPositions(ctx, accountID)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	return out, err
}

func (r *retryClient) QueryOrders(ctx context.Context, accountID string, includeCancelled bool) ([]Order, error) {
	var out []Order
	err := r.callWithRetry(ctx, "query_orders", func() error {
		result, err := r.inner.QueryOrders(ctx, accountID, includeCancelled)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	return out, err
}

func (r *retryClient) QueryTrades(ctx context.Context, accountID string) ([]Trade, error) {
	var out []Trade
	err := r.callWithRetry(ctx, "query_trades", func() error {
		result, err := r.inner.QueryTrades(ctx, accountID)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	return out, err
}

func (r *retryClient) QueryAsset(ctx context.Context, accountID string) (*Asset, error) {
	var out *Asset
	err := r.callWithRetry(ctx, "query_asset", func() error {
		result, err := r.inner.QueryAsset(ctx, accountID)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	return out, err
}

func (r *retryClient) SubmitOrder(ctx context.Context, req SubmitRequest) (string, error) {
	return r.inner.SubmitOrder(ctx, req)
}

func (r *retryClient) CancelOrder(ctx context.Context, accountID, orderID string) (bool, error) {
	return r.inner.CancelOrder(ctx, accountID, orderID)
}

func (r *retryClient) callWithRetry(ctx context.Context, operation string, fn func() error) error {
	attempt := 0
	delay := r.cfg.MinDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := r.cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	maxAttempts := r.cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		attempt++
		start := time.Now()
		err := fn()
		duration := time.Since(start)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("通道调用重试后成功",
					zap.String("operation", operation),
					zap.Int("attempts", attempt),
					zap.Duration("latency", duration),
				)
			}
			return nil
		}

		if !retryable(err) || attempt >= maxAttempts {
			r.logger.Error("通道调用失败",
				zap.String("operation", operation),
				zap.Int("attempts", attempt),
				zap.Duration("latency", duration),
				zap.Error(err),
			)
			return err
		}

		wait := delay
		if wait > maxDelay {
			wait = maxDelay
		}

		r.logger.Warn("通道调用失败，等待重试",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
}

func retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, errTransient) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
